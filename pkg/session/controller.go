package session

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jwebster45206/lifeskills-engine/pkg/achievement"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/events"
	"github.com/jwebster45206/lifeskills-engine/pkg/gameerr"
	"github.com/jwebster45206/lifeskills-engine/pkg/match"
	"github.com/jwebster45206/lifeskills-engine/pkg/progression"
	"github.com/jwebster45206/lifeskills-engine/pkg/resolver"
	"github.com/jwebster45206/lifeskills-engine/pkg/state"
)

// Phase is the controller's position in the session state machine.
type Phase string

const (
	PhaseNotStarted     Phase = "not_started"
	PhaseStorySelection Phase = "story_selection"
	PhaseInScene        Phase = "in_scene"
	PhaseSceneResolving Phase = "scene_resolving"
	PhaseStoryComplete  Phase = "story_complete"
)

// Turn is what the presentation layer receives after an action.
type Turn struct {
	View   *SceneView     `json:"view"`
	Events []events.Event `json:"events"`
	Token  uint64         `json:"-"` // session token when the turn was resolved
}

// Controller is the single owner of a player's state. Every method is safe
// to call from multiple goroutines; state handed out is always a copy.
type Controller struct {
	mu           sync.Mutex
	catalog      *content.Catalog
	resolver     *resolver.Resolver
	achievements []achievement.Achievement
	logger       *slog.Logger

	state *state.PlayerState
	phase Phase
	token uint64 // bumped whenever the session or active story changes
	epoch uint64 // bumped by StartSession only; match rounds carry it
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithAchievements replaces the catalog's achievements.
func WithAchievements(list []achievement.Achievement) Option {
	return func(c *Controller) { c.achievements = list }
}

// NewController creates a controller in the NotStarted phase.
func NewController(catalog *content.Catalog, opts ...Option) *Controller {
	c := &Controller{
		catalog:      catalog,
		achievements: achievement.FromCatalog(catalog),
		logger:       slog.Default(),
		phase:        PhaseNotStarted,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resolver = resolver.New(catalog, c.achievements)
	return c
}

// StartSession discards any previous progress and returns a fresh state.
func (c *Controller) StartSession() *state.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state.NewPlayerState(
		c.catalog.MeterDefaults(),
		progression.UnlockedStoriesFor(progression.LevelFor(0), c.catalog.Stories()),
	)
	c.phase = PhaseStorySelection
	c.token++
	c.epoch++

	c.logger.Debug("Session started", "unlocked_stories", c.state.UnlockedStoryIDs)
	return c.state.Clone()
}

// SelectStory enters a story at its entry scene. Selecting from inside a
// story goes back to the catalog first.
func (c *Controller) SelectStory(storyID int) (*SceneView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseNotStarted {
		return nil, gameerr.New(gameerr.CodeNotStarted, "start a session before selecting a story")
	}

	story, err := c.catalog.Story(storyID)
	if err != nil {
		c.logger.Warn("Story not found", "story_id", storyID)
		return nil, err
	}
	if !c.state.IsUnlocked(storyID) {
		return nil, gameerr.New(gameerr.CodeStoryLocked,
			"%q requires level %d, player is level %d", story.Title, story.MinLevelToUnlock, c.state.Level).
			InStory(storyID)
	}
	if story.Entry() == nil {
		return nil, gameerr.New(gameerr.CodeSceneNotFound, "story has no entry scene").
			InStory(storyID).AtScene(content.EntrySceneID)
	}

	next := c.state.Clone()
	next.CurrentStoryID = storyID
	next.CurrentSceneID = content.EntrySceneID
	next.MarkVisited(storyID, content.EntrySceneID)

	c.state = next
	c.phase = PhaseInScene
	c.token++

	c.logger.Debug("Story selected", "story_id", storyID, "title", story.Title)
	return c.viewLocked(), nil
}

// SubmitChoice resolves the choice at index on the current scene.
func (c *Controller) SubmitChoice(index int) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseNotStarted:
		return nil, gameerr.New(gameerr.CodeNotStarted, "start a session before submitting a choice")
	case PhaseStorySelection:
		return nil, gameerr.New(gameerr.CodeNoActiveStory, "select a story before submitting a choice")
	case PhaseStoryComplete:
		return nil, gameerr.New(gameerr.CodeInvalidChoice, "story is complete, there are no choices left").
			InStory(c.state.CurrentStoryID).AtScene(c.state.CurrentSceneID)
	case PhaseSceneResolving:
		return nil, gameerr.New(gameerr.CodeInvalidChoice, "a choice is already being resolved")
	}

	story, scene, err := c.currentSceneLocked()
	if err != nil {
		return nil, err
	}

	c.phase = PhaseSceneResolving
	res, err := c.resolver.Resolve(c.state, story, scene, index)
	if err != nil {
		c.phase = PhaseInScene
		c.logger.Debug("Choice rejected", "story_id", story.ID, "scene_id", scene.ID, "index", index, "error", err)
		return nil, err
	}

	c.state = res.State
	if res.Completed {
		c.phase = PhaseStoryComplete
	} else {
		c.phase = PhaseInScene
	}

	c.logger.Debug("Choice resolved",
		"story_id", story.ID,
		"scene_id", scene.ID,
		"index", index,
		"xp_gained", res.XPGained,
		"level", res.State.Level,
		"completed", res.Completed)

	return &Turn{View: c.viewLocked(), Events: res.Events, Token: c.token}, nil
}

// BackToCatalog returns to story selection without touching player state.
func (c *Controller) BackToCatalog() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseNotStarted:
		return gameerr.New(gameerr.CodeNotStarted, "session has not started")
	case PhaseStorySelection:
		return nil
	}
	c.phase = PhaseStorySelection
	c.token++
	return nil
}

// StartMatch begins a drag-and-match round on an unlocked board.
func (c *Controller) StartMatch(boardID string) (*match.Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseNotStarted {
		return nil, gameerr.New(gameerr.CodeNotStarted, "start a session before playing")
	}
	board, err := c.unlockedBoardLocked(boardID)
	if err != nil {
		return nil, err
	}
	return match.NewRound(board).Bind(c.epoch), nil
}

// PlaceMatch drops an item on a target in round and applies the resulting
// impact to the player's state.
func (c *Controller) PlaceMatch(round *match.Round, item, target string) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseNotStarted {
		return nil, gameerr.New(gameerr.CodeNotStarted, "start a session before playing")
	}
	if round == nil {
		return nil, gameerr.New(gameerr.CodeInvalidChoice, "no match round in progress")
	}
	if round.Epoch() != c.epoch {
		return nil, gameerr.New(gameerr.CodeInvalidChoice, "match round on board %q belongs to an earlier session", round.Board().ID)
	}
	if _, err := c.unlockedBoardLocked(round.Board().ID); err != nil {
		return nil, err
	}

	placement, err := round.Place(item, target)
	if err != nil {
		return nil, err
	}

	res, err := c.resolver.Reward(c.state, placement.Impact, "")
	if err != nil {
		return nil, err
	}
	c.state = res.State

	evts := make([]events.Event, 0, len(res.Events)+2)
	evts = append(evts, events.MatchPlaced(placement.Item, placement.Target, placement.Correct))
	evts = append(evts, res.Events...)
	if placement.Complete {
		evts = append(evts, events.MatchCompleted(placement.BoardID))
	}

	c.logger.Debug("Match placed",
		"board_id", placement.BoardID,
		"item", item,
		"correct", placement.Correct,
		"xp_gained", res.XPGained)

	return &Turn{View: c.viewLocked(), Events: evts, Token: c.token}, nil
}

func (c *Controller) unlockedBoardLocked(boardID string) (*content.MatchBoard, error) {
	board, ok := c.catalog.MatchBoard(boardID)
	if !ok {
		return nil, gameerr.New(gameerr.CodeStoryNotFound, "no match board %q", boardID)
	}
	if !slices.Contains(progression.UnlockedBoardsFor(c.state.Level, c.catalog.MatchBoards()), boardID) {
		return nil, gameerr.New(gameerr.CodeStoryLocked,
			"match board %q requires level %d, player is level %d", boardID, board.MinLevelToUnlock, c.state.Level)
	}
	return board, nil
}

func (c *Controller) currentSceneLocked() (*content.Story, *content.Scene, error) {
	story, err := c.catalog.Story(c.state.CurrentStoryID)
	if err != nil {
		return nil, nil, err
	}
	scene, ok := story.Scene(c.state.CurrentSceneID)
	if !ok {
		return nil, nil, gameerr.New(gameerr.CodeSceneNotFound, "current scene missing from catalog").
			InStory(story.ID).AtScene(c.state.CurrentSceneID)
	}
	return story, scene, nil
}

// View returns the current projection for the presentation layer.
func (c *Controller) View() (*SceneView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseNotStarted {
		return nil, gameerr.New(gameerr.CodeNotStarted, "session has not started")
	}
	return c.viewLocked(), nil
}

// State returns a copy of the player's state, or nil before StartSession.
func (c *Controller) State() *state.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Token identifies the current session and active story. It changes on
// StartSession, SelectStory and BackToCatalog, so work scheduled against an
// older token is stale.
func (c *Controller) Token() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// TokenValid reports whether token is still current.
func (c *Controller) TokenValid(token uint64) bool {
	return c.Token() == token
}

// Stories returns the catalog's stories.
func (c *Controller) Stories() []content.Story {
	return c.catalog.Stories()
}

// Achievements returns the achievements evaluated by this controller.
func (c *Controller) Achievements() []achievement.Achievement {
	return slices.Clone(c.achievements)
}

// Catalog returns the story listing with lock state for the current player.
// Before StartSession every story reports as locked.
func (c *Controller) Catalog() []StoryListing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storyListingsLocked()
}

// Snapshot is the serialisable form of a controller.
type Snapshot struct {
	State *state.PlayerState `json:"state"`
	Phase Phase              `json:"phase"`
}

// Snapshot captures the controller's state and phase.
func (c *Controller) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Snapshot{State: c.state.Clone(), Phase: c.phase}
}

// Restore rebuilds a controller from a snapshot taken against the same
// catalog.
func Restore(catalog *content.Catalog, snap *Snapshot, opts ...Option) (*Controller, error) {
	if snap == nil {
		return nil, fmt.Errorf("restore: snapshot is nil")
	}
	c := NewController(catalog, opts...)
	if snap.Phase == PhaseNotStarted || snap.Phase == "" {
		return c, nil
	}
	if err := snap.State.Validate(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	c.state = snap.State.Clone()
	c.phase = snap.Phase
	if c.phase == PhaseSceneResolving {
		c.phase = PhaseInScene
	}

	switch c.phase {
	case PhaseInScene, PhaseStoryComplete:
		if _, _, err := c.currentSceneLocked(); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	case PhaseStorySelection:
	default:
		return nil, fmt.Errorf("restore: unknown phase %q", snap.Phase)
	}
	c.token = 1
	c.epoch = 1
	return c, nil
}
