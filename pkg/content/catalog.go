package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/lifeskills-engine/pkg/gameerr"
)

// Catalog is the validated, read-only set of stories, meters, achievements
// and match boards. It is never mutated after NewCatalog returns.
type Catalog struct {
	meters       []MeterDef
	meterIndex   map[string]int
	stories      []Story
	storyIndex   map[int]int
	achievements []AchievementDef
	boards       []MatchBoard
	boardIndex   map[string]int
}

// NewCatalog validates def and builds a catalog from it.
//
// Definition-level problems (bad meter declarations) fail the whole load and
// return a nil catalog. A story, achievement or match board that fails
// validation is left out of the catalog; the returned error joins one
// MalformedContent error per rejected entry while the catalog still holds
// everything that passed.
func NewCatalog(def Definition) (*Catalog, error) {
	c := &Catalog{
		meterIndex: make(map[string]int),
		storyIndex: make(map[int]int),
		boardIndex: make(map[string]int),
	}

	if err := c.addMeters(def.Meters); err != nil {
		return nil, err
	}

	var errs []error
	for _, story := range def.Stories {
		if problems := c.validateStory(&story); len(problems) > 0 {
			errs = append(errs, malformed(problems).InStory(story.ID))
			continue
		}
		story.Scenes = append([]Scene(nil), story.Scenes...)
		story.buildIndex()
		c.storyIndex[story.ID] = len(c.stories)
		c.stories = append(c.stories, story)
	}

	seenAchievements := make(map[string]bool)
	for _, a := range def.Achievements {
		var problems []string
		if a.ID == "" {
			problems = append(problems, "achievement has empty id")
		} else if seenAchievements[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate achievement id %q", a.ID))
		}
		if a.When.IsEmpty() {
			problems = append(problems, fmt.Sprintf("achievement %q has empty 'when' clause", a.ID))
		}
		for name := range a.When.MinMeters {
			if _, ok := c.meterIndex[name]; !ok {
				problems = append(problems, fmt.Sprintf("achievement %q references undeclared meter %q", a.ID, name))
			}
		}
		if len(problems) > 0 {
			errs = append(errs, malformed(problems))
			continue
		}
		seenAchievements[a.ID] = true
		c.achievements = append(c.achievements, a)
	}

	for _, b := range def.MatchBoards {
		if problems := c.validateBoard(&b); len(problems) > 0 {
			errs = append(errs, malformed(problems))
			continue
		}
		c.boardIndex[b.ID] = len(c.boards)
		c.boards = append(c.boards, b)
	}

	return c, errors.Join(errs...)
}

func malformed(problems []string) *gameerr.Error {
	return gameerr.New(gameerr.CodeMalformedContent, "%s", strings.Join(problems, "; "))
}

func (c *Catalog) addMeters(defs []MeterDef) error {
	var problems []string
	for _, m := range defs {
		if m.Name == "" {
			problems = append(problems, "meter has empty name")
			continue
		}
		if _, dup := c.meterIndex[m.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate meter %q", m.Name))
			continue
		}
		if v := m.StartValue(); v < MeterMin || v > MeterMax {
			problems = append(problems, fmt.Sprintf("meter %q default %d outside [%d,%d]", m.Name, v, MeterMin, MeterMax))
			continue
		}
		c.meterIndex[m.Name] = len(c.meters)
		c.meters = append(c.meters, m)
	}
	if len(problems) > 0 {
		return malformed(problems)
	}
	return nil
}

// Meters returns the declared meters in declaration order.
func (c *Catalog) Meters() []MeterDef {
	return append([]MeterDef(nil), c.meters...)
}

// MeterDefaults returns each meter's starting value.
func (c *Catalog) MeterDefaults() map[string]int {
	defaults := make(map[string]int, len(c.meters))
	for _, m := range c.meters {
		defaults[m.Name] = m.StartValue()
	}
	return defaults
}

// MeterDefault returns a meter's starting value, or DefaultMeterValue for
// undeclared names.
func (c *Catalog) MeterDefault(name string) int {
	if pos, ok := c.meterIndex[name]; ok {
		return c.meters[pos].StartValue()
	}
	return DefaultMeterValue
}

// MeterLabel returns the declared label for a meter, or "" if none.
func (c *Catalog) MeterLabel(name string) string {
	if pos, ok := c.meterIndex[name]; ok {
		return c.meters[pos].Label
	}
	return ""
}

// Stories returns the stories in catalog order. The returned values share
// scene slices with the catalog and must not be modified.
func (c *Catalog) Stories() []Story {
	return append([]Story(nil), c.stories...)
}

// Story looks up a story by id.
func (c *Catalog) Story(id int) (*Story, error) {
	pos, ok := c.storyIndex[id]
	if !ok {
		return nil, gameerr.New(gameerr.CodeStoryNotFound, "no story with id %d", id).InStory(id)
	}
	return &c.stories[pos], nil
}

// Achievements returns the achievement definitions in catalog order.
func (c *Catalog) Achievements() []AchievementDef {
	return append([]AchievementDef(nil), c.achievements...)
}

// MatchBoards returns the match boards in catalog order.
func (c *Catalog) MatchBoards() []MatchBoard {
	return append([]MatchBoard(nil), c.boards...)
}

// MatchBoard looks up a match board by id.
func (c *Catalog) MatchBoard(id string) (*MatchBoard, bool) {
	pos, ok := c.boardIndex[id]
	if !ok {
		return nil, false
	}
	return &c.boards[pos], true
}
