package content

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/lifeskills-engine/pkg/textfilter"
)

// Lint reports problems that do not stop the catalog from loading but that
// content authors almost certainly want to fix.
func (c *Catalog) Lint() []string {
	var warnings []string

	if len(c.stories) > 0 && !slices.ContainsFunc(c.stories, func(s Story) bool { return s.MinLevelToUnlock <= 1 }) {
		warnings = append(warnings, "no story is unlocked at level 1")
	}

	for _, s := range c.stories {
		if !completable(&s) {
			warnings = append(warnings, fmt.Sprintf("story %d can never be completed: every choice leads to another scene", s.ID))
		}
	}

	used := make(map[string]bool)
	for _, s := range c.stories {
		for _, scene := range s.Scenes {
			for _, choice := range scene.Choices {
				for name := range choice.Impact {
					used[name] = true
				}
			}
		}
	}
	for _, b := range c.boards {
		for name := range b.CorrectImpact {
			used[name] = true
		}
		for name := range b.WrongImpact {
			used[name] = true
		}
	}
	for _, m := range c.meters {
		if !used[m.Name] {
			warnings = append(warnings, fmt.Sprintf("meter %q is never changed by any choice or match board", m.Name))
		}
	}

	for _, a := range c.achievements {
		for _, id := range a.When.CompletedStories {
			if _, ok := c.storyIndex[id]; !ok {
				warnings = append(warnings, fmt.Sprintf("achievement %q requires story %d, which is not in the catalog", a.ID, id))
			}
		}
		for _, ref := range a.When.Visited {
			pos, ok := c.storyIndex[ref.Story]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("achievement %q requires story %d, which is not in the catalog", a.ID, ref.Story))
				continue
			}
			if _, ok := c.stories[pos].Scene(ref.Scene); !ok {
				warnings = append(warnings, fmt.Sprintf("achievement %q requires scene %d of story %d, which does not exist", a.ID, ref.Scene, ref.Story))
			}
		}
	}

	warnings = append(warnings, c.languageWarnings()...)

	return warnings
}

// languageWarnings flags words that should not appear in text shown to
// young players.
func (c *Catalog) languageWarnings() []string {
	checker := textfilter.New()
	var warnings []string
	flag := func(where, text string) {
		for _, word := range checker.Find(text) {
			msg := fmt.Sprintf("%s uses %q", where, word)
			if alt := textfilter.Alternative(word); alt != "" {
				msg += fmt.Sprintf(" (try %q)", alt)
			}
			warnings = append(warnings, msg)
		}
	}

	for _, s := range c.stories {
		for _, scene := range s.Scenes {
			at := fmt.Sprintf("story %d scene %d", s.ID, scene.ID)
			flag(at+" dialog", scene.Dialog)
			for i, choice := range scene.Choices {
				where := fmt.Sprintf("%s choice %d", at, i)
				flag(where, choice.Text)
				flag(where+" feedback", choice.Feedback)
				flag(where+" tip", choice.EduTip)
			}
		}
	}
	for _, b := range c.boards {
		flag(fmt.Sprintf("match board %q", b.ID), b.Instructions)
	}
	return warnings
}

// completable reports whether any path through s can end the story.
func completable(s *Story) bool {
	for _, scene := range s.Scenes {
		if scene.IsTerminal() {
			return true
		}
		for _, choice := range scene.Choices {
			if choice.EndsStory() {
				return true
			}
		}
	}
	return false
}
