package content

import (
	"fmt"
	"sort"
)

// validateStory returns every closed-graph or reference problem in s.
func (c *Catalog) validateStory(s *Story) []string {
	var problems []string

	if s.ID < 0 {
		problems = append(problems, fmt.Sprintf("story id %d is negative", s.ID))
	}
	if _, dup := c.storyIndex[s.ID]; dup {
		problems = append(problems, fmt.Sprintf("duplicate story id %d", s.ID))
	}
	if s.MinLevelToUnlock < 0 {
		problems = append(problems, fmt.Sprintf("min_level_to_unlock %d is negative", s.MinLevelToUnlock))
	}
	if len(s.Scenes) == 0 {
		return append(problems, "story has no scenes")
	}

	ids := make(map[int]bool, len(s.Scenes))
	for _, scene := range s.Scenes {
		if ids[scene.ID] {
			problems = append(problems, fmt.Sprintf("duplicate scene id %d", scene.ID))
		}
		ids[scene.ID] = true
	}
	if !ids[EntrySceneID] {
		problems = append(problems, fmt.Sprintf("no entry scene with id %d", EntrySceneID))
	}

	for _, scene := range s.Scenes {
		for i, choice := range scene.Choices {
			if choice.Text == "" {
				problems = append(problems, fmt.Sprintf("scene %d choice %d has empty text", scene.ID, i))
			}
			if choice.NextScene != nil && !ids[*choice.NextScene] {
				problems = append(problems, fmt.Sprintf("scene %d choice %d points to missing scene %d", scene.ID, i, *choice.NextScene))
			}
			for _, p := range c.impactProblems(choice.Impact) {
				problems = append(problems, fmt.Sprintf("scene %d choice %d %s", scene.ID, i, p))
			}
		}
	}

	if ids[EntrySceneID] {
		for _, id := range unreachableScenes(s) {
			problems = append(problems, fmt.Sprintf("scene %d is unreachable from the entry scene", id))
		}
	}

	return problems
}

// unreachableScenes walks choice edges from the entry scene and returns the
// ids of scenes never reached, sorted.
func unreachableScenes(s *Story) []int {
	edges := make(map[int][]int, len(s.Scenes))
	for _, scene := range s.Scenes {
		for _, choice := range scene.Choices {
			if choice.NextScene != nil {
				edges[scene.ID] = append(edges[scene.ID], *choice.NextScene)
			}
		}
	}

	reached := map[int]bool{EntrySceneID: true}
	queue := []int{EntrySceneID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range edges[id] {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}

	var missing []int
	for _, scene := range s.Scenes {
		if !reached[scene.ID] {
			missing = append(missing, scene.ID)
		}
	}
	sort.Ints(missing)
	return missing
}

func (c *Catalog) validateBoard(b *MatchBoard) []string {
	var problems []string
	if b.ID == "" {
		problems = append(problems, "match board has empty id")
	} else if _, dup := c.boardIndex[b.ID]; dup {
		problems = append(problems, fmt.Sprintf("duplicate match board id %q", b.ID))
	}
	if len(b.Pairs) == 0 {
		problems = append(problems, fmt.Sprintf("match board %q has no pairs", b.ID))
	}
	items := make(map[string]bool, len(b.Pairs))
	for _, p := range b.Pairs {
		if p.Item == "" || p.Target == "" {
			problems = append(problems, fmt.Sprintf("match board %q has a pair with empty item or target", b.ID))
			continue
		}
		if items[p.Item] {
			problems = append(problems, fmt.Sprintf("match board %q lists item %q twice", b.ID, p.Item))
		}
		items[p.Item] = true
	}
	for _, impact := range []Impact{b.CorrectImpact, b.WrongImpact} {
		for _, p := range c.impactProblems(impact) {
			problems = append(problems, fmt.Sprintf("match board %q %s", b.ID, p))
		}
	}
	return problems
}

// impactProblems checks that every meter is declared and every delta is
// within [-MaxDelta, MaxDelta].
func (c *Catalog) impactProblems(impact Impact) []string {
	var problems []string
	for _, meter := range impact.Meters() {
		if _, ok := c.meterIndex[meter]; !ok {
			problems = append(problems, fmt.Sprintf("impacts undeclared meter %q", meter))
		}
		if d := impact[meter]; d < -MaxDelta || d > MaxDelta {
			problems = append(problems, fmt.Sprintf("changes meter %q by %d, outside [%d,%d]", meter, d, -MaxDelta, MaxDelta))
		}
	}
	return problems
}
