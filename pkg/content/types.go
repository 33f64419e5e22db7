package content

import (
	"sort"

	"github.com/jwebster45206/lifeskills-engine/pkg/conditionals"
)

const (
	MeterMin          = 0
	MeterMax          = 100
	DefaultMeterValue = 50

	// MaxDelta is the largest change one impact may make to a meter. Any
	// larger delta clamps to the same result.
	MaxDelta = MeterMax - MeterMin
)

// Impact maps meter names to signed deltas. Absent meters mean zero delta.
type Impact map[string]int

// Total returns the sum of all deltas.
func (i Impact) Total() int {
	total := 0
	for _, delta := range i {
		total += delta
	}
	return total
}

// ClampDelta bounds d to [-MaxDelta, MaxDelta].
func ClampDelta(d int) int {
	return max(-MaxDelta, min(d, MaxDelta))
}

// BoundedTotal is Total with each delta first passed through ClampDelta, so
// it cannot overflow.
func (i Impact) BoundedTotal() int {
	total := 0
	for _, delta := range i {
		total += ClampDelta(delta)
	}
	return total
}

// Meters returns the meter names in the impact, sorted.
func (i Impact) Meters() []string {
	names := make([]string, 0, len(i))
	for name := range i {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Choice is a selectable option on a scene.
type Choice struct {
	Text      string `json:"text" yaml:"text"`
	Feedback  string `json:"feedback" yaml:"feedback"`
	Impact    Impact `json:"impact,omitempty" yaml:"impact,omitempty"`
	EduTip    string `json:"edu_tip,omitempty" yaml:"edu_tip,omitempty"`       // Optional educational tip revealed after feedback
	NextScene *int   `json:"next_scene,omitempty" yaml:"next_scene,omitempty"` // nil ends the story at the current scene
}

// EndsStory reports whether the choice has no next scene.
func (c Choice) EndsStory() bool {
	return c.NextScene == nil
}

// Scene is one narrative beat in a story. A scene without choices is terminal.
type Scene struct {
	ID      int      `json:"id" yaml:"id"`
	Dialog  string   `json:"dialog" yaml:"dialog"`
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// IsTerminal reports whether the scene ends the story.
func (s *Scene) IsTerminal() bool {
	return len(s.Choices) == 0
}

// Story is a directed graph of scenes. Scene 0 is the entry scene.
type Story struct {
	ID               int     `json:"id" yaml:"id"`
	Title            string  `json:"title" yaml:"title"`
	Description      string  `json:"description,omitempty" yaml:"description,omitempty"`
	MinLevelToUnlock int     `json:"min_level_to_unlock" yaml:"min_level_to_unlock"`
	Scenes           []Scene `json:"scenes" yaml:"scenes"`

	index map[int]int // scene id -> position in Scenes, built at load
}

// EntrySceneID is the id of every story's first scene.
const EntrySceneID = 0

// Scene looks up a scene by id.
func (s *Story) Scene(id int) (*Scene, bool) {
	if s.index != nil {
		pos, ok := s.index[id]
		if !ok {
			return nil, false
		}
		return &s.Scenes[pos], true
	}
	for i := range s.Scenes {
		if s.Scenes[i].ID == id {
			return &s.Scenes[i], true
		}
	}
	return nil, false
}

// Entry returns the entry scene, or nil for a story without one.
func (s *Story) Entry() *Scene {
	scene, _ := s.Scene(EntrySceneID)
	return scene
}

func (s *Story) buildIndex() {
	s.index = make(map[int]int, len(s.Scenes))
	for i, scene := range s.Scenes {
		s.index[scene.ID] = i
	}
}

// MeterDef declares a meter and its starting value.
type MeterDef struct {
	Name    string `json:"name" yaml:"name"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Default *int   `json:"default,omitempty" yaml:"default,omitempty"` // DefaultMeterValue when nil
}

// StartValue returns the meter's starting value.
func (m MeterDef) StartValue() int {
	if m.Default == nil {
		return DefaultMeterValue
	}
	return *m.Default
}

// AchievementDef is an achievement as written in content files.
type AchievementDef struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	When        conditionals.When `json:"when" yaml:"when"`
}

// MatchPair is one item and the target it belongs to.
type MatchPair struct {
	Item   string `json:"item" yaml:"item"`
	Target string `json:"target" yaml:"target"`
}

// MatchBoard is a drag-and-match exercise.
type MatchBoard struct {
	ID               string      `json:"id" yaml:"id"`
	Title            string      `json:"title" yaml:"title"`
	Instructions     string      `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	MinLevelToUnlock int         `json:"min_level_to_unlock" yaml:"min_level_to_unlock"`
	Pairs            []MatchPair `json:"pairs" yaml:"pairs"`
	CorrectImpact    Impact      `json:"correct_impact,omitempty" yaml:"correct_impact,omitempty"`
	WrongImpact      Impact      `json:"wrong_impact,omitempty" yaml:"wrong_impact,omitempty"`
}

// Targets returns the distinct targets on the board in first-seen order.
func (b *MatchBoard) Targets() []string {
	seen := make(map[string]bool)
	var targets []string
	for _, p := range b.Pairs {
		if !seen[p.Target] {
			seen[p.Target] = true
			targets = append(targets, p.Target)
		}
	}
	return targets
}

// Definition is the on-disk shape of a content file.
type Definition struct {
	Meters       []MeterDef       `json:"meters" yaml:"meters"`
	Stories      []Story          `json:"stories" yaml:"stories"`
	Achievements []AchievementDef `json:"achievements,omitempty" yaml:"achievements,omitempty"`
	MatchBoards  []MatchBoard     `json:"match_boards,omitempty" yaml:"match_boards,omitempty"`
}
