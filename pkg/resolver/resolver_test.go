package resolver

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/jwebster45206/lifeskills-engine/pkg/achievement"
	"github.com/jwebster45206/lifeskills-engine/pkg/conditionals"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/events"
	"github.com/jwebster45206/lifeskills-engine/pkg/gameerr"
	"github.com/jwebster45206/lifeskills-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(id int) *int   { return &id }
func intPtr(i int) *int { return &i }

func TestReward_ExtremeDeltasClampWithoutOverflow(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)

	res, err := r.Reward(ps, content.Impact{"health": math.MaxInt}, "")
	require.NoError(t, err)
	assert.Equal(t, 100, res.State.Meters["health"])
	assert.Equal(t, 200, res.XPGained)
	assert.Equal(t, 200, res.State.XP)

	res, err = r.Reward(res.State, content.Impact{"knowledge": math.MaxInt/2 + 1}, "")
	require.NoError(t, err)
	assert.Equal(t, 100, res.State.Meters["knowledge"])
	assert.Equal(t, 200, res.XPGained)

	res, err = r.Reward(res.State, content.Impact{"confidence": math.MinInt}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.State.Meters["confidence"])
	assert.Equal(t, 0, res.XPGained)
	assert.Equal(t, 400, res.State.XP)
	require.NoError(t, res.State.Validate())
}

// testCatalog has a three-scene story 0 plus locked stories at levels 2, 2,
// 3 and 5.
func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	entry := content.Story{
		ID:               0,
		Title:            "Morning",
		MinLevelToUnlock: 1,
		Scenes: []content.Scene{
			{ID: 0, Dialog: "start", Choices: []content.Choice{
				{Text: "good", Feedback: "nice", Impact: content.Impact{"health": 10, "confidence": 5, "knowledge": 10}, EduTip: "eat well", NextScene: next(1)},
				{Text: "ten", Feedback: "ok", Impact: content.Impact{"health": 10}, NextScene: next(1)},
				{Text: "bad", Feedback: "oops", Impact: content.Impact{"health": -10, "confidence": -10, "knowledge": 0}, NextScene: next(1)},
				{Text: "huge", Feedback: "wow", Impact: content.Impact{"health": 100, "confidence": 100, "knowledge": 100}, NextScene: next(1)},
				{Text: "leave", Feedback: "bye", Impact: content.Impact{"confidence": 1}},
			}},
			{ID: 1, Dialog: "middle", Choices: []content.Choice{
				{Text: "finish", Feedback: "done", Impact: content.Impact{"knowledge": 5}, NextScene: next(2)},
				{Text: "loop", Feedback: "again", NextScene: next(0)},
			}},
			{ID: 2, Dialog: "the end"},
		},
	}
	locked := func(id, level int) content.Story {
		return content.Story{ID: id, Title: "locked", MinLevelToUnlock: level, Scenes: []content.Scene{{ID: 0, Dialog: "x"}}}
	}

	c, err := content.NewCatalog(content.Definition{
		Meters:  []content.MeterDef{{Name: "health"}, {Name: "confidence"}, {Name: "knowledge"}},
		Stories: []content.Story{entry, locked(1, 2), locked(2, 2), locked(3, 3), locked(4, 5)},
	})
	require.NoError(t, err)
	return c
}

func fresh(c *content.Catalog) *state.PlayerState {
	ps := state.NewPlayerState(c.MeterDefaults(), []int{0})
	ps.CurrentStoryID = 0
	ps.CurrentSceneID = 0
	return ps
}

func sceneOf(t *testing.T, c *content.Catalog, storyID, sceneID int) (*content.Story, *content.Scene) {
	t.Helper()
	story, err := c.Story(storyID)
	require.NoError(t, err)
	scene, ok := story.Scene(sceneID)
	require.True(t, ok)
	return story, scene
}

func TestResolve_ScenarioA_NetPositive(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	story, scene := sceneOf(t, c, 0, 0)

	res, err := r.Resolve(ps, story, scene, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"health": 60, "confidence": 55, "knowledge": 60}, res.State.Meters)
	assert.Equal(t, 50, res.XPGained)
	assert.Equal(t, 50, res.State.XP)
	assert.Equal(t, 1, res.State.Level)
	assert.False(t, res.LeveledUp())
	assert.Equal(t, []int{0}, res.State.UnlockedStoryIDs)
	assert.Empty(t, res.Unlocked)
	assert.Equal(t, 1, res.State.CurrentSceneID)
	assert.False(t, res.Completed)

	assert.Equal(t, []events.Kind{
		events.KindFeedbackShown,
		events.KindMeterChanged,
		events.KindMeterChanged,
		events.KindMeterChanged,
		events.KindExperienceGained,
		events.KindTipAvailable,
		events.KindSceneAdvanced,
	}, events.Kinds(res.Events))
	assert.Equal(t, "confidence", res.Events[1].Meter, "meters are reported in name order")
}

func TestResolve_ScenarioB_LevelUpUnlocks(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	ps.GainXP(90)
	story, scene := sceneOf(t, c, 0, 0)

	res, err := r.Resolve(ps, story, scene, 1)
	require.NoError(t, err)

	assert.Equal(t, 20, res.XPGained)
	assert.Equal(t, 110, res.State.XP)
	assert.Equal(t, 1, res.LevelBefore)
	assert.Equal(t, 2, res.State.Level)
	assert.True(t, res.LeveledUp())
	assert.Equal(t, []int{0, 1, 2}, res.State.UnlockedStoryIDs)
	assert.Equal(t, []int{1, 2}, res.Unlocked)

	assert.Equal(t, []events.Kind{
		events.KindFeedbackShown,
		events.KindMeterChanged,
		events.KindExperienceGained,
		events.KindLevelUp,
		events.KindStoryUnlocked,
		events.KindStoryUnlocked,
		events.KindSceneAdvanced,
	}, events.Kinds(res.Events))
	assert.Equal(t, 2, res.Events[3].Level)
}

func TestResolve_ScenarioC_NetNegativeGrantsNoXP(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	ps.Meters["confidence"] = 5
	story, scene := sceneOf(t, c, 0, 0)

	res, err := r.Resolve(ps, story, scene, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, res.XPGained)
	assert.Equal(t, 0, res.State.XP)
	assert.Equal(t, 40, res.State.Meters["health"])
	assert.Equal(t, 0, res.State.Meters["confidence"], "clamped at zero")
	assert.Equal(t, 50, res.State.Meters["knowledge"])
	assert.NotContains(t, events.Kinds(res.Events), events.KindExperienceGained)
}

func TestResolve_MultipleLevelsInOneResolution(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	story, scene := sceneOf(t, c, 0, 0)

	// +300 total impact is 600 xp even though the meters clamp at 100.
	res, err := r.Resolve(ps, story, scene, 3)
	require.NoError(t, err)

	assert.Equal(t, 600, res.State.XP)
	assert.Equal(t, 7, res.State.Level)
	assert.Equal(t, 100, res.State.Meters["health"])
	assert.Equal(t, 100, res.State.Meters["confidence"])
	assert.Equal(t, 100, res.State.Meters["knowledge"])
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.State.UnlockedStoryIDs, "every newly eligible story unlocks")
	assert.Equal(t, []int{1, 2, 3, 4}, res.Unlocked)
}

func TestResolve_InvalidChoiceLeavesStateUnchanged(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	ps.GainXP(42)
	before := ps.Clone()
	story, scene := sceneOf(t, c, 0, 0)

	for _, idx := range []int{-1, 5, 100} {
		res, err := r.Resolve(ps, story, scene, idx)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, gameerr.ErrInvalidChoice))
		assert.True(t, reflect.DeepEqual(before, ps), "state must be untouched")
	}
}

func TestResolve_TerminalSceneIsInvalid(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	story, scene := sceneOf(t, c, 0, 2)

	_, err := r.Resolve(ps, story, scene, 0)
	assert.Equal(t, gameerr.CodeInvalidChoice, gameerr.CodeOf(err))
}

func TestResolve_TerminalTargetCompletesStory(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	ps.CurrentSceneID = 1
	story, scene := sceneOf(t, c, 0, 1)

	res, err := r.Resolve(ps, story, scene, 0)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, []int{0}, res.State.CompletedStoryIDs)
	assert.Equal(t, 2, res.State.CurrentSceneID)
	assert.True(t, res.State.HasVisited(0, 2))

	kinds := events.Kinds(res.Events)
	assert.Equal(t, events.KindSceneAdvanced, kinds[len(kinds)-2])
	assert.Equal(t, events.KindStoryCompleted, kinds[len(kinds)-1])

	// Completing the same story again is a no-op on the set.
	again, err := r.Resolve(res.State, story, scene, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, again.State.CompletedStoryIDs)
}

func TestResolve_ChoiceWithoutNextSceneEndsStory(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	story, scene := sceneOf(t, c, 0, 0)

	res, err := r.Resolve(ps, story, scene, 4)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 0, res.State.CurrentSceneID)
	assert.True(t, res.State.IsStoryCompleted(0))
	assert.NotContains(t, events.Kinds(res.Events), events.KindSceneAdvanced)
}

func TestResolve_DanglingSceneLeavesStateUnchanged(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	before := ps.Clone()

	// Built by hand, bypassing catalog validation.
	story := &content.Story{ID: 9, Scenes: []content.Scene{
		{ID: 0, Choices: []content.Choice{{Text: "x", Impact: content.Impact{"health": 10}, NextScene: next(7)}}},
	}}
	_, err := r.Resolve(ps, story, &story.Scenes[0], 0)
	assert.True(t, errors.Is(err, gameerr.ErrSceneNotFound))
	assert.True(t, reflect.DeepEqual(before, ps))
}

func TestResolve_MetersStayInRange(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	story, _ := sceneOf(t, c, 0, 0)

	// Alternate huge gains and losses, looping between scenes 0 and 1.
	for i := 0; i < 50; i++ {
		scene, _ := story.Scene(ps.CurrentSceneID)
		idx := 3
		if i%2 == 1 {
			idx = 1 // loop back from scene 1 to scene 0
		}
		if ps.CurrentSceneID == 0 && i%3 == 0 {
			idx = 2
		}
		res, err := r.Resolve(ps, story, scene, idx)
		require.NoError(t, err)
		for name, v := range res.State.Meters {
			require.True(t, v >= 0 && v <= 100, "meter %s = %d", name, v)
		}
		require.GreaterOrEqual(t, res.State.XP, ps.XP, "xp never decreases")
		ps = res.State
	}
}

func TestResolve_AchievementsAfterLevelUpBeforeAdvance(t *testing.T) {
	c := testCatalog(t)
	list := []achievement.Achievement{
		{ID: "rising_star", Title: "Rising Star", Condition: conditionals.When{MinLevel: intPtr(2)}},
		{ID: "quick_learner", Title: "Quick Learner", Condition: conditionals.When{MinXP: intPtr(50)}},
	}
	r := New(c, list)
	ps := fresh(c)
	ps.GainXP(90)
	story, scene := sceneOf(t, c, 0, 0)

	res, err := r.Resolve(ps, story, scene, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"rising_star", "quick_learner"}, res.State.EarnedAchievementIDs)
	kinds := events.Kinds(res.Events)
	assert.Equal(t, []events.Kind{
		events.KindFeedbackShown,
		events.KindMeterChanged,
		events.KindExperienceGained,
		events.KindLevelUp,
		events.KindStoryUnlocked,
		events.KindStoryUnlocked,
		events.KindAchievementUnlocked,
		events.KindAchievementUnlocked,
		events.KindSceneAdvanced,
	}, kinds)

	// Earned achievements are not emitted on later resolutions.
	_, scene1 := sceneOf(t, c, 0, 1)
	res2, err := r.Resolve(res.State, story, scene1, 1)
	require.NoError(t, err)
	assert.NotContains(t, events.Kinds(res2.Events), events.KindAchievementUnlocked)
}

func TestResolve_AchievementOnCompletion(t *testing.T) {
	c := testCatalog(t)
	list := []achievement.Achievement{
		{ID: "finisher", Title: "Finisher", Condition: conditionals.When{CompletedStories: []int{0}}},
	}
	r := New(c, list)
	ps := fresh(c)
	story, scene := sceneOf(t, c, 0, 1)

	res, err := r.Resolve(ps, story, scene, 0)
	require.NoError(t, err)
	assert.True(t, res.State.HasEarned("finisher"))
	require.Len(t, res.Achievements, 1)
}

func TestReward(t *testing.T) {
	c := testCatalog(t)
	r := New(c, nil)
	ps := fresh(c)
	ps.GainXP(95)
	before := ps.Clone()

	res, err := r.Reward(ps, content.Impact{"knowledge": 5}, "Correct!")
	require.NoError(t, err)
	assert.Equal(t, 105, res.State.XP)
	assert.Equal(t, 2, res.State.Level)
	assert.Equal(t, 55, res.State.Meters["knowledge"])
	assert.Equal(t, ps.CurrentSceneID, res.State.CurrentSceneID)
	assert.Equal(t, events.KindFeedbackShown, res.Events[0].Kind)
	assert.Contains(t, events.Kinds(res.Events), events.KindLevelUp)
	assert.True(t, reflect.DeepEqual(before, ps))

	res, err = r.Reward(ps, content.Impact{"confidence": -2}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.XPGained)
	assert.Equal(t, 48, res.State.Meters["confidence"])
}
