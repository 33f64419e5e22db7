package conditionals

// IsEmpty reports whether no condition is set.
func (w When) IsEmpty() bool {
	return w.MinXP == nil &&
		w.MinLevel == nil &&
		len(w.CompletedStories) == 0 &&
		w.MinCompleted == nil &&
		len(w.MinMeters) == 0 &&
		len(w.Visited) == 0 &&
		w.MinAchievements == nil
}

// Met checks if all conditions in a When clause are met
func (w When) Met(v StateView) bool {
	// If no conditions specified, return false (the rule should never fire)
	if w.IsEmpty() || v == nil {
		return false
	}

	if w.MinXP != nil && v.GetXP() < *w.MinXP {
		return false
	}

	if w.MinLevel != nil && v.GetLevel() < *w.MinLevel {
		return false
	}

	for _, id := range w.CompletedStories {
		if !v.IsStoryCompleted(id) {
			return false
		}
	}

	if w.MinCompleted != nil && v.CompletedCount() < *w.MinCompleted {
		return false
	}

	for name, min := range w.MinMeters {
		value, ok := v.GetMeter(name)
		if !ok || value < min {
			return false
		}
	}

	for _, ref := range w.Visited {
		if !v.HasVisited(ref.Story, ref.Scene) {
			return false
		}
	}

	if w.MinAchievements != nil && v.EarnedCount() < *w.MinAchievements {
		return false
	}

	return true
}
