package achievement

import (
	"github.com/jwebster45206/lifeskills-engine/pkg/conditionals"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/state"
)

// Condition is a pure predicate over a player's state.
// conditionals.When and conditionals.Predicate both satisfy it.
type Condition interface {
	Met(conditionals.StateView) bool
}

// Achievement is a one-time award unlocked when its condition becomes true.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Condition   Condition `json:"-"`
}

// FromCatalog converts the catalog's achievement definitions, keeping
// catalog order.
func FromCatalog(c *content.Catalog) []Achievement {
	defs := c.Achievements()
	list := make([]Achievement, 0, len(defs))
	for _, d := range defs {
		list = append(list, Achievement{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Condition:   d.When,
		})
	}
	return list
}

// Evaluate checks every achievement not yet earned, in list order, and
// records those whose condition holds. The input state is never modified:
// when something unlocks, the returned state is a clone; otherwise it is ps.
//
// Each achievement is checked once per call against the state as it stands
// when its turn comes, so a condition counting earned achievements sees the
// ones unlocked earlier in the same pass.
func Evaluate(ps *state.PlayerState, achievements []Achievement) (*state.PlayerState, []Achievement) {
	var (
		next        = ps
		unlockedNow []Achievement
	)
	for _, a := range achievements {
		if a.Condition == nil || next.HasEarned(a.ID) {
			continue
		}
		if !a.Condition.Met(next) {
			continue
		}
		if next == ps {
			next = ps.Clone()
		}
		next.Earn(a.ID)
		unlockedNow = append(unlockedNow, a)
	}
	return next, unlockedNow
}

// Earned returns the achievements from list that ps has earned, in the order
// they were earned. Ids unknown to list are skipped.
func Earned(ps *state.PlayerState, list []Achievement) []Achievement {
	byID := make(map[string]Achievement, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}
	var earned []Achievement
	for _, id := range ps.EarnedAchievementIDs {
		if a, ok := byID[id]; ok {
			earned = append(earned, a)
		}
	}
	return earned
}
