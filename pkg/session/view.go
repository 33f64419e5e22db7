package session

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/lifeskills-engine/pkg/progression"
)

// SceneView is everything a UI needs to draw the current screen.
type SceneView struct {
	Phase      Phase        `json:"phase"`
	StoryID    *int         `json:"story_id,omitempty"`
	StoryTitle string       `json:"story_title,omitempty"`
	SceneID    *int         `json:"scene_id,omitempty"`
	Dialog     string       `json:"dialog,omitempty"`
	Choices    []ChoiceView `json:"choices,omitempty"`
	Terminal   bool         `json:"terminal,omitempty"`
	Complete   bool         `json:"complete,omitempty"`

	Meters      []MeterView `json:"meters"`
	Level       int         `json:"level"`
	XP          int         `json:"xp"`
	XPIntoLevel int         `json:"xp_into_level"`
	XPForLevel  int         `json:"xp_for_level"`

	Stories      []StoryListing    `json:"stories"`
	Achievements []AchievementView `json:"achievements"`
	MatchBoards  []BoardListing    `json:"match_boards,omitempty"`
}

type ChoiceView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type MeterView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// StoryListing is one row of the story selection screen.
type StoryListing struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	MinLevelToUnlock int    `json:"min_level_to_unlock"`
	Unlocked         bool   `json:"unlocked"`
	Completed        bool   `json:"completed"`
}

type AchievementView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Earned      bool   `json:"earned"`
}

type BoardListing struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	MinLevelToUnlock int    `json:"min_level_to_unlock"`
	Unlocked         bool   `json:"unlocked"`
}

var titleCaser = cases.Title(language.English)

// MeterLabel turns a meter name like "self_control" into "Self Control".
func MeterLabel(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// viewLocked builds the view. The caller holds c.mu and the session has
// started.
func (c *Controller) viewLocked() *SceneView {
	ps := c.state
	into, needed := progression.LevelProgress(ps.XP)
	v := &SceneView{
		Phase:       c.phase,
		Level:       ps.Level,
		XP:          ps.XP,
		XPIntoLevel: into,
		XPForLevel:  needed,
		Meters:      c.meterViewsLocked(),
		Stories:     c.storyListingsLocked(),
	}

	for _, a := range c.achievements {
		v.Achievements = append(v.Achievements, AchievementView{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Earned:      ps.HasEarned(a.ID),
		})
	}

	unlockedBoards := progression.UnlockedBoardsFor(ps.Level, c.catalog.MatchBoards())
	for _, b := range c.catalog.MatchBoards() {
		v.MatchBoards = append(v.MatchBoards, BoardListing{
			ID:               b.ID,
			Title:            b.Title,
			MinLevelToUnlock: b.MinLevelToUnlock,
			Unlocked:         slices.Contains(unlockedBoards, b.ID),
		})
	}

	if c.phase != PhaseInScene && c.phase != PhaseStoryComplete {
		return v
	}
	story, scene, err := c.currentSceneLocked()
	if err != nil {
		return v
	}
	storyID, sceneID := story.ID, scene.ID
	v.StoryID = &storyID
	v.StoryTitle = story.Title
	v.SceneID = &sceneID
	v.Dialog = scene.Dialog
	v.Terminal = scene.IsTerminal()
	v.Complete = c.phase == PhaseStoryComplete
	if !v.Complete {
		for i, ch := range scene.Choices {
			v.Choices = append(v.Choices, ChoiceView{Index: i, Text: ch.Text})
		}
	}
	return v
}

// meterViewsLocked lists declared meters first, then any extra meters the
// state carries, sorted by name.
func (c *Controller) meterViewsLocked() []MeterView {
	var out []MeterView
	seen := make(map[string]bool)
	for _, m := range c.catalog.Meters() {
		value, ok := c.state.Meters[m.Name]
		if !ok {
			value = m.StartValue()
		}
		label := m.Label
		if label == "" {
			label = MeterLabel(m.Name)
		}
		out = append(out, MeterView{Name: m.Name, Label: label, Value: value})
		seen[m.Name] = true
	}

	var extra []string
	for name := range c.state.Meters {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		out = append(out, MeterView{Name: name, Label: MeterLabel(name), Value: c.state.Meters[name]})
	}
	return out
}

func (c *Controller) storyListingsLocked() []StoryListing {
	stories := c.catalog.Stories()
	out := make([]StoryListing, 0, len(stories))
	for _, s := range stories {
		l := StoryListing{
			ID:               s.ID,
			Title:            s.Title,
			Description:      s.Description,
			MinLevelToUnlock: s.MinLevelToUnlock,
		}
		if c.state != nil {
			l.Unlocked = c.state.IsUnlocked(s.ID)
			l.Completed = c.state.IsStoryCompleted(s.ID)
		}
		out = append(out, l)
	}
	return out
}
