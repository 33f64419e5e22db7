package achievement

import (
	"reflect"
	"testing"

	"github.com/jwebster45206/lifeskills-engine/pkg/conditionals"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func newState() *state.PlayerState {
	return state.NewPlayerState(map[string]int{"health": 50, "confidence": 50, "knowledge": 50}, []int{0})
}

func ids(list []Achievement) []string {
	var out []string
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestEvaluate_UnlocksOnce(t *testing.T) {
	achievements := []Achievement{
		{ID: "quick_learner", Condition: conditionals.When{MinXP: intPtr(50)}},
	}
	ps := newState()
	ps.GainXP(60)

	first, unlocked := Evaluate(ps, achievements)
	assert.Equal(t, []string{"quick_learner"}, ids(unlocked))
	assert.Equal(t, []string{"quick_learner"}, first.EarnedAchievementIDs)
	assert.Empty(t, ps.EarnedAchievementIDs, "input state must not be modified")

	second, unlocked := Evaluate(first, achievements)
	assert.Empty(t, unlocked, "an earned achievement is never emitted again")
	assert.Same(t, first, second)
}

func TestEvaluate_NothingMetReturnsInput(t *testing.T) {
	achievements := []Achievement{
		{ID: "quick_learner", Condition: conditionals.When{MinXP: intPtr(50)}},
	}
	ps := newState()
	next, unlocked := Evaluate(ps, achievements)
	assert.Empty(t, unlocked)
	assert.Same(t, ps, next)
}

func TestEvaluate_OverlappingConditionsInCatalogOrder(t *testing.T) {
	achievements := []Achievement{
		{ID: "b_level_two", Condition: conditionals.When{MinLevel: intPtr(2)}},
		{ID: "unrelated", Condition: conditionals.When{MinXP: intPtr(1000)}},
		{ID: "a_xp_100", Condition: conditionals.When{MinXP: intPtr(100)}},
	}
	ps := newState()
	ps.GainXP(110)

	next, unlocked := Evaluate(ps, achievements)
	assert.Equal(t, []string{"b_level_two", "a_xp_100"}, ids(unlocked))
	assert.Equal(t, []string{"b_level_two", "a_xp_100"}, next.EarnedAchievementIDs)
}

func TestEvaluate_Deterministic(t *testing.T) {
	achievements := []Achievement{
		{ID: "one", Condition: conditionals.When{MinXP: intPtr(1)}},
		{ID: "two", Condition: conditionals.When{MinXP: intPtr(2)}},
		{ID: "three", Condition: conditionals.When{MinXP: intPtr(3)}},
	}
	ps := newState()
	ps.GainXP(10)

	want, _ := Evaluate(ps, achievements)
	for i := 0; i < 20; i++ {
		got, _ := Evaluate(ps, achievements)
		require.True(t, reflect.DeepEqual(want, got))
	}
}

func TestEvaluate_PredicateCondition(t *testing.T) {
	achievements := []Achievement{
		{ID: "balanced", Condition: conditionals.Predicate(func(v conditionals.StateView) bool {
			h, _ := v.GetMeter("health")
			k, _ := v.GetMeter("knowledge")
			return h == k
		})},
		{ID: "no_condition"},
	}
	next, unlocked := Evaluate(newState(), achievements)
	assert.Equal(t, []string{"balanced"}, ids(unlocked))
	assert.True(t, next.HasEarned("balanced"))
	assert.False(t, next.HasEarned("no_condition"))
}

func TestEvaluate_CountsEarlierUnlocksInSamePass(t *testing.T) {
	achievements := []Achievement{
		{ID: "first", Condition: conditionals.When{MinXP: intPtr(1)}},
		{ID: "collector", Condition: conditionals.When{MinAchievements: intPtr(1)}},
	}
	ps := newState()
	ps.GainXP(5)

	_, unlocked := Evaluate(ps, achievements)
	assert.Equal(t, []string{"first", "collector"}, ids(unlocked))
}

func TestFromCatalogAndEarned(t *testing.T) {
	c, err := content.Builtin()
	require.NoError(t, err)

	list := FromCatalog(c)
	require.NotEmpty(t, list)
	assert.Equal(t, c.Achievements()[0].ID, list[0].ID)

	ps := newState()
	ps.Earn(list[1].ID)
	ps.Earn("retired")
	ps.Earn(list[0].ID)
	assert.Equal(t, []string{list[1].ID, list[0].ID}, ids(Earned(ps, list)))
}
