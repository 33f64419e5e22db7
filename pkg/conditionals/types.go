package conditionals

// StateView provides the read-only surface needed to evaluate conditions.
// This avoids an import cycle with the state package.
type StateView interface {
	GetXP() int
	GetLevel() int
	GetMeter(name string) (int, bool)
	IsStoryCompleted(storyID int) bool
	CompletedCount() int
	HasVisited(storyID, sceneID int) bool
	EarnedCount() int
}

// SceneRef addresses a scene within a story.
type SceneRef struct {
	Story int `json:"story" yaml:"story"`
	Scene int `json:"scene" yaml:"scene"`
}

// When defines the conditions that must all hold for a rule to match.
type When struct {
	MinXP            *int           `json:"min_xp,omitempty" yaml:"min_xp,omitempty"`                       // xp >= this value
	MinLevel         *int           `json:"min_level,omitempty" yaml:"min_level,omitempty"`                 // level >= this value
	CompletedStories []int          `json:"completed_stories,omitempty" yaml:"completed_stories,omitempty"` // every listed story completed
	MinCompleted     *int           `json:"min_completed,omitempty" yaml:"min_completed,omitempty"`         // number of completed stories >= this value
	MinMeters        map[string]int `json:"min_meters,omitempty" yaml:"min_meters,omitempty"`               // meter >= value for each entry
	Visited          []SceneRef     `json:"visited,omitempty" yaml:"visited,omitempty"`                     // every listed scene reached
	MinAchievements  *int           `json:"min_achievements,omitempty" yaml:"min_achievements,omitempty"`   // earned achievements >= this value
}

// Predicate adapts a plain function to a condition.
type Predicate func(StateView) bool

// Met calls p.
func (p Predicate) Met(v StateView) bool {
	return p(v)
}
