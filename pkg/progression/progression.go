// Package progression converts experience into levels and levels into
// unlocked content. Every function here is pure.
package progression

import (
	"sort"

	"github.com/jwebster45206/lifeskills-engine/pkg/content"
)

const (
	XPPerLevel   = 100
	XPMultiplier = 2
)

// LevelFor returns floor(xp/100) + 1. Negative xp counts as zero.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// ExperienceFor returns the experience earned for a choice whose deltas sum
// to totalImpact. Only net-positive impacts earn experience.
func ExperienceFor(totalImpact int) int {
	if totalImpact <= 0 {
		return 0
	}
	return totalImpact * XPMultiplier
}

// LevelProgress returns how much experience has been earned within the
// current level and how much the level needs in total.
func LevelProgress(xp int) (into, needed int) {
	if xp < 0 {
		xp = 0
	}
	return xp % XPPerLevel, XPPerLevel
}

// UnlockedStoriesFor returns the sorted ids of every story whose unlock
// threshold is at or below level.
func UnlockedStoriesFor(level int, stories []content.Story) []int {
	ids := make([]int, 0, len(stories))
	for _, s := range stories {
		if s.MinLevelToUnlock <= level {
			ids = append(ids, s.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

// UnlockedBoardsFor returns the ids of every match board whose unlock
// threshold is at or below level, in catalog order.
func UnlockedBoardsFor(level int, boards []content.MatchBoard) []string {
	var ids []string
	for _, b := range boards {
		if b.MinLevelToUnlock <= level {
			ids = append(ids, b.ID)
		}
	}
	return ids
}
