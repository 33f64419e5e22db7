package resolver

import (
	"fmt"

	"github.com/jwebster45206/lifeskills-engine/pkg/achievement"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/events"
	"github.com/jwebster45206/lifeskills-engine/pkg/gameerr"
	"github.com/jwebster45206/lifeskills-engine/pkg/progression"
	"github.com/jwebster45206/lifeskills-engine/pkg/state"
)

// Resolver applies choices to player state. It holds only read-only content
// and is safe to share.
type Resolver struct {
	catalog      *content.Catalog
	stories      []content.Story
	achievements []achievement.Achievement
}

// New creates a resolver over a catalog and the achievements to evaluate
// after every resolution.
func New(catalog *content.Catalog, achievements []achievement.Achievement) *Resolver {
	return &Resolver{
		catalog:      catalog,
		stories:      catalog.Stories(),
		achievements: achievements,
	}
}

// Result is the outcome of one resolution.
type Result struct {
	State        *state.PlayerState
	Events       []events.Event
	XPGained     int
	LevelBefore  int
	LevelAfter   int
	Unlocked     []int                     // stories newly unlocked
	Achievements []achievement.Achievement // achievements newly earned
	Completed    bool                      // the story ended with this choice
}

// LeveledUp reports whether the resolution raised the level.
func (r *Result) LeveledUp() bool {
	return r.LevelAfter > r.LevelBefore
}

// Resolve applies the choice at choiceIndex on scene to ps.
//
// ps is never modified. On success the returned Result carries the new state
// and the ordered presentation events: feedback, meter changes, experience,
// tip, level-up, unlocks, achievements, scene advance, completion. On error
// nothing is applied.
func (r *Resolver) Resolve(ps *state.PlayerState, story *content.Story, scene *content.Scene, choiceIndex int) (*Result, error) {
	if ps == nil || story == nil || scene == nil {
		return nil, fmt.Errorf("resolve: state, story and scene are required")
	}
	if choiceIndex < 0 || choiceIndex >= len(scene.Choices) {
		return nil, gameerr.New(gameerr.CodeInvalidChoice,
			"choice %d out of range, scene has %d choices", choiceIndex, len(scene.Choices)).
			InStory(story.ID).AtScene(scene.ID)
	}
	choice := scene.Choices[choiceIndex]

	// Look up the target before touching anything so a dangling reference
	// leaves the state as it was.
	var target *content.Scene
	if choice.NextScene != nil {
		var ok bool
		target, ok = story.Scene(*choice.NextScene)
		if !ok {
			return nil, gameerr.New(gameerr.CodeSceneNotFound,
				"choice %d points to missing scene %d", choiceIndex, *choice.NextScene).
				InStory(story.ID).AtScene(scene.ID)
		}
	}

	next := ps.Clone()
	res := &Result{LevelBefore: ps.Level}

	if choice.Feedback != "" {
		res.Events = append(res.Events, events.FeedbackShown(choice.Feedback))
	}
	r.applyImpact(next, choice.Impact, res)
	if choice.EduTip != "" {
		res.Events = append(res.Events, events.TipAvailable(choice.EduTip))
	}
	r.applyProgression(next, res)

	next.CurrentStoryID = story.ID
	if target != nil {
		next.CurrentSceneID = target.ID
		next.MarkVisited(story.ID, target.ID)
		res.Completed = target.IsTerminal()
	} else {
		next.CurrentSceneID = scene.ID
		res.Completed = true
	}
	if res.Completed {
		next.MarkCompleted(story.ID)
	}

	next = r.applyAchievements(next, res)

	if target != nil {
		res.Events = append(res.Events, events.SceneAdvanced(story.ID, target.ID))
	}
	if res.Completed {
		res.Events = append(res.Events, events.StoryCompleted(story.ID))
	}

	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("resolve produced invalid state: %w", err)
	}
	res.State = next
	return res, nil
}

// Reward applies a bare impact outside of a story, for example a
// drag-and-match placement. It follows the same meter, experience, level,
// unlock and achievement rules as Resolve but never moves the player.
func (r *Resolver) Reward(ps *state.PlayerState, impact content.Impact, feedback string) (*Result, error) {
	if ps == nil {
		return nil, fmt.Errorf("reward: state is required")
	}

	next := ps.Clone()
	res := &Result{LevelBefore: ps.Level}
	if feedback != "" {
		res.Events = append(res.Events, events.FeedbackShown(feedback))
	}
	r.applyImpact(next, impact, res)
	r.applyProgression(next, res)
	next = r.applyAchievements(next, res)

	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("reward produced invalid state: %w", err)
	}
	res.State = next
	return res, nil
}

// applyImpact clamps each meter change and awards experience for a
// net-positive impact.
func (r *Resolver) applyImpact(ps *state.PlayerState, impact content.Impact, res *Result) {
	for _, meter := range impact.Meters() {
		before, after := ps.AddMeter(meter, impact[meter], r.catalog.MeterDefault(meter))
		res.Events = append(res.Events, events.MeterChanged(meter, before, after))
	}

	res.XPGained = progression.ExperienceFor(impact.BoundedTotal())
	if res.XPGained > 0 {
		ps.GainXP(res.XPGained)
		res.Events = append(res.Events, events.ExperienceGained(res.XPGained, ps.XP))
	}
}

// applyProgression emits the level-up and unlocks every story the new level
// allows. A single resolution may cross several levels.
func (r *Resolver) applyProgression(ps *state.PlayerState, res *Result) {
	res.LevelAfter = ps.Level
	if res.LeveledUp() {
		res.Events = append(res.Events, events.LevelUp(ps.Level))
	}
	res.Unlocked = ps.Unlock(progression.UnlockedStoriesFor(ps.Level, r.stories)...)
	for _, id := range res.Unlocked {
		res.Events = append(res.Events, events.StoryUnlocked(id))
	}
}

func (r *Resolver) applyAchievements(ps *state.PlayerState, res *Result) *state.PlayerState {
	next, unlocked := achievement.Evaluate(ps, r.achievements)
	res.Achievements = unlocked
	for _, a := range unlocked {
		res.Events = append(res.Events, events.AchievementUnlocked(a.ID, a.Title))
	}
	return next
}
