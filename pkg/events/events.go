package events

// Kind identifies a presentation event.
type Kind string

const (
	KindFeedbackShown       Kind = "feedback.shown"
	KindMeterChanged        Kind = "meter.changed"
	KindExperienceGained    Kind = "experience.gained"
	KindTipAvailable        Kind = "tip.available"
	KindLevelUp             Kind = "level.up"
	KindStoryUnlocked       Kind = "story.unlocked"
	KindAchievementUnlocked Kind = "achievement.unlocked"
	KindSceneAdvanced       Kind = "scene.advanced"
	KindStoryCompleted      Kind = "story.completed"
	KindMatchPlaced         Kind = "match.placed"
	KindMatchCompleted      Kind = "match.completed"
)

// Event tells the presentation layer something happened during an action.
// Which fields are set depends on Kind.
type Event struct {
	Kind          Kind   `json:"kind"`
	Text          string `json:"text,omitempty"`
	Meter         string `json:"meter,omitempty"`
	Delta         int    `json:"delta,omitempty"`
	Value         *int   `json:"value,omitempty"`
	Level         int    `json:"level,omitempty"`
	StoryID       *int   `json:"story_id,omitempty"`
	SceneID       *int   `json:"scene_id,omitempty"`
	AchievementID string `json:"achievement_id,omitempty"`
	Item          string `json:"item,omitempty"`
	Target        string `json:"target,omitempty"`
	Correct       *bool  `json:"correct,omitempty"`
}

// Stage groups events by when a UI would normally reveal them.
type Stage int

const (
	StageImmediate Stage = iota // feedback and the stat changes it caused
	StageTip                    // educational tip, shortly after feedback
	StageAdvance                // progression and navigation, after the tip
)

// Stage returns the reveal stage for the event's kind.
func (e Event) Stage() Stage {
	switch e.Kind {
	case KindTipAvailable:
		return StageTip
	case KindLevelUp, KindStoryUnlocked, KindAchievementUnlocked,
		KindSceneAdvanced, KindStoryCompleted, KindMatchCompleted:
		return StageAdvance
	default:
		return StageImmediate
	}
}

func FeedbackShown(text string) Event {
	return Event{Kind: KindFeedbackShown, Text: text}
}

// MeterChanged reports a meter moving from before to after. Delta is the
// applied change after clamping.
func MeterChanged(meter string, before, after int) Event {
	return Event{Kind: KindMeterChanged, Meter: meter, Delta: after - before, Value: &after}
}

// ExperienceGained reports xp earned and the new total.
func ExperienceGained(amount, total int) Event {
	return Event{Kind: KindExperienceGained, Delta: amount, Value: &total}
}

func TipAvailable(text string) Event {
	return Event{Kind: KindTipAvailable, Text: text}
}

func LevelUp(level int) Event {
	return Event{Kind: KindLevelUp, Level: level}
}

func StoryUnlocked(storyID int) Event {
	return Event{Kind: KindStoryUnlocked, StoryID: &storyID}
}

func AchievementUnlocked(id, title string) Event {
	return Event{Kind: KindAchievementUnlocked, AchievementID: id, Text: title}
}

func SceneAdvanced(storyID, sceneID int) Event {
	return Event{Kind: KindSceneAdvanced, StoryID: &storyID, SceneID: &sceneID}
}

func StoryCompleted(storyID int) Event {
	return Event{Kind: KindStoryCompleted, StoryID: &storyID}
}

func MatchPlaced(item, target string, correct bool) Event {
	return Event{Kind: KindMatchPlaced, Item: item, Target: target, Correct: &correct}
}

func MatchCompleted(boardID string) Event {
	return Event{Kind: KindMatchCompleted, Text: boardID}
}

// Kinds returns the kind of each event, in order.
func Kinds(list []Event) []Kind {
	kinds := make([]Kind, len(list))
	for i, e := range list {
		kinds[i] = e.Kind
	}
	return kinds
}
