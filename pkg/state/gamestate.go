package state

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/jwebster45206/lifeskills-engine/pkg/conditionals"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/progression"
)

// NoStory is the current story id while the player is on the story
// selection screen.
const NoStory = -1

// PlayerState is the complete snapshot of one session's progress.
// Id sets are kept sorted so that two equal states compare equal with
// reflect.DeepEqual and marshal identically.
type PlayerState struct {
	Meters               map[string]int          `json:"meters"`
	XP                   int                     `json:"xp"`
	Level                int                     `json:"level"`
	UnlockedStoryIDs     []int                   `json:"unlocked_story_ids"`
	CompletedStoryIDs    []int                   `json:"completed_story_ids"`
	EarnedAchievementIDs []string                `json:"earned_achievement_ids"` // In the order they were earned
	VisitedScenes        []conditionals.SceneRef `json:"visited_scenes"`
	CurrentStoryID       int                     `json:"current_story_id"`
	CurrentSceneID       int                     `json:"current_scene_id"`
}

// Ensure PlayerState can be used to evaluate conditions
var _ conditionals.StateView = (*PlayerState)(nil)

// NewPlayerState creates a fresh state: meters at their defaults, no
// experience, level 1 and the given stories unlocked.
func NewPlayerState(meterDefaults map[string]int, unlocked []int) *PlayerState {
	ps := &PlayerState{
		Meters:               make(map[string]int, len(meterDefaults)),
		Level:                progression.LevelFor(0),
		UnlockedStoryIDs:     []int{},
		CompletedStoryIDs:    []int{},
		EarnedAchievementIDs: []string{},
		VisitedScenes:        []conditionals.SceneRef{},
		CurrentStoryID:       NoStory,
	}
	for name, value := range meterDefaults {
		ps.Meters[name] = ClampMeter(value)
	}
	ps.Unlock(unlocked...)
	return ps
}

// ClampMeter bounds a meter value to [0,100].
func ClampMeter(v int) int {
	if v < content.MeterMin {
		return content.MeterMin
	}
	if v > content.MeterMax {
		return content.MeterMax
	}
	return v
}

// Clone returns a deep copy.
func (ps *PlayerState) Clone() *PlayerState {
	if ps == nil {
		return nil
	}
	c := *ps
	c.Meters = maps.Clone(ps.Meters)
	c.UnlockedStoryIDs = slices.Clone(ps.UnlockedStoryIDs)
	c.CompletedStoryIDs = slices.Clone(ps.CompletedStoryIDs)
	c.EarnedAchievementIDs = slices.Clone(ps.EarnedAchievementIDs)
	c.VisitedScenes = slices.Clone(ps.VisitedScenes)
	return &c
}

// Validate checks the state invariants.
func (ps *PlayerState) Validate() error {
	if ps == nil {
		return fmt.Errorf("player state is nil")
	}
	for name, v := range ps.Meters {
		if v < content.MeterMin || v > content.MeterMax {
			return fmt.Errorf("meter %q value %d outside [%d,%d]", name, v, content.MeterMin, content.MeterMax)
		}
	}
	if ps.XP < 0 {
		return fmt.Errorf("xp %d is negative", ps.XP)
	}
	if want := progression.LevelFor(ps.XP); ps.Level != want {
		return fmt.Errorf("level %d does not match xp %d (want %d)", ps.Level, ps.XP, want)
	}
	if !sort.IntsAreSorted(ps.UnlockedStoryIDs) || !sort.IntsAreSorted(ps.CompletedStoryIDs) {
		return fmt.Errorf("story id sets are not sorted")
	}
	return nil
}

// InStory reports whether a story is active.
func (ps *PlayerState) InStory() bool {
	return ps.CurrentStoryID != NoStory
}

// AddMeter applies delta to a meter with clamping. A meter missing from the
// state starts at start. It returns the values before and after.
func (ps *PlayerState) AddMeter(name string, delta, start int) (before, after int) {
	if ps.Meters == nil {
		ps.Meters = make(map[string]int)
	}
	before, ok := ps.Meters[name]
	if !ok {
		before = ClampMeter(start)
	}
	after = ClampMeter(before + content.ClampDelta(delta))
	ps.Meters[name] = after
	return before, after
}

// GainXP adds experience and re-derives the level. Non-positive amounts are
// ignored so xp never decreases.
func (ps *PlayerState) GainXP(amount int) {
	if amount <= 0 {
		return
	}
	ps.XP += amount
	ps.Level = progression.LevelFor(ps.XP)
}

// Unlock adds story ids to the unlocked set and returns the ids that were
// not already present, sorted.
func (ps *PlayerState) Unlock(ids ...int) []int {
	var added []int
	for _, id := range ids {
		var ok bool
		ps.UnlockedStoryIDs, ok = insertSorted(ps.UnlockedStoryIDs, id)
		if ok {
			added = append(added, id)
		}
	}
	sort.Ints(added)
	return added
}

// IsUnlocked reports whether a story can be selected.
func (ps *PlayerState) IsUnlocked(storyID int) bool {
	_, found := slices.BinarySearch(ps.UnlockedStoryIDs, storyID)
	return found
}

// MarkCompleted adds a story to the completed set. Adding an already
// completed story is a no-op and returns false.
func (ps *PlayerState) MarkCompleted(storyID int) bool {
	var added bool
	ps.CompletedStoryIDs, added = insertSorted(ps.CompletedStoryIDs, storyID)
	return added
}

// MarkVisited records that a scene was entered.
func (ps *PlayerState) MarkVisited(storyID, sceneID int) bool {
	if ps.HasVisited(storyID, sceneID) {
		return false
	}
	ps.VisitedScenes = append(ps.VisitedScenes, conditionals.SceneRef{Story: storyID, Scene: sceneID})
	sort.Slice(ps.VisitedScenes, func(i, j int) bool {
		a, b := ps.VisitedScenes[i], ps.VisitedScenes[j]
		if a.Story != b.Story {
			return a.Story < b.Story
		}
		return a.Scene < b.Scene
	})
	return true
}

// Earn records an achievement. Earning it again is a no-op.
func (ps *PlayerState) Earn(achievementID string) bool {
	if ps.HasEarned(achievementID) {
		return false
	}
	ps.EarnedAchievementIDs = append(ps.EarnedAchievementIDs, achievementID)
	return true
}

// HasEarned reports whether an achievement was earned.
func (ps *PlayerState) HasEarned(achievementID string) bool {
	return slices.Contains(ps.EarnedAchievementIDs, achievementID)
}

func insertSorted(ids []int, id int) ([]int, bool) {
	pos, found := slices.BinarySearch(ids, id)
	if found {
		return ids, false
	}
	return slices.Insert(ids, pos, id), true
}

// StateView implementation

func (ps *PlayerState) GetXP() int    { return ps.XP }
func (ps *PlayerState) GetLevel() int { return ps.Level }

func (ps *PlayerState) GetMeter(name string) (int, bool) {
	v, ok := ps.Meters[name]
	return v, ok
}

func (ps *PlayerState) IsStoryCompleted(storyID int) bool {
	_, found := slices.BinarySearch(ps.CompletedStoryIDs, storyID)
	return found
}

func (ps *PlayerState) CompletedCount() int { return len(ps.CompletedStoryIDs) }

func (ps *PlayerState) HasVisited(storyID, sceneID int) bool {
	return slices.Contains(ps.VisitedScenes, conditionals.SceneRef{Story: storyID, Scene: sceneID})
}

func (ps *PlayerState) EarnedCount() int { return len(ps.EarnedAchievementIDs) }
