package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/lifeskills-engine/internal/logger"
	"github.com/jwebster45206/lifeskills-engine/pkg/content"
	"github.com/jwebster45206/lifeskills-engine/pkg/session"
)

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

// immediateClock runs every callback as soon as it is scheduled.
type immediateClock struct{}

func (immediateClock) AfterFunc(_ time.Duration, f func()) session.Timer {
	f()
	return noopTimer{}
}

type inbox struct {
	msgs []tea.Msg
}

func (i *inbox) send(msg tea.Msg) { i.msgs = append(i.msgs, msg) }

func (i *inbox) drain() []tea.Msg {
	out := i.msgs
	i.msgs = nil
	return out
}

func newTestUI(t *testing.T) (ConsoleUI, *inbox) {
	t.Helper()
	catalog, err := content.Builtin()
	require.NoError(t, err)

	ctrl := session.NewController(catalog, session.WithLogger(logger.Discard()))
	pacer := session.NewPacer(ctrl, immediateClock{}, session.DefaultDelays)
	ui := NewConsoleUI(ctrl, pacer)
	box := &inbox{}
	ui.SetSender(box.send)

	model, _ := ui.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(ConsoleUI), box
}

func press(t *testing.T, m ConsoleUI, key string) ConsoleUI {
	t.Helper()
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return model.(ConsoleUI)
}

func deliver(t *testing.T, m ConsoleUI, msgs []tea.Msg) ConsoleUI {
	t.Helper()
	for _, msg := range msgs {
		model, _ := m.Update(msg)
		m = model.(ConsoleUI)
	}
	return m
}

func TestConsoleUI_StartsOnStoryList(t *testing.T) {
	m, _ := newTestUI(t)
	assert.Equal(t, screenStories, m.screen)
	assert.Contains(t, m.View(), "A Healthy Morning")
	assert.Contains(t, m.View(), "level 2")
}

func TestConsoleUI_ChoiceWaitsForAdvance(t *testing.T) {
	m, box := newTestUI(t)

	m = press(t, m, "1")
	require.Equal(t, screenScene, m.screen)
	require.Equal(t, 0, *m.view.SceneID)

	m = press(t, m, "1")
	require.NotNil(t, m.pending)
	assert.Equal(t, 0, *m.view.SceneID)
	assert.Equal(t, 50, m.stats.XP)

	// Input is ignored until the turn has been revealed.
	m = press(t, m, "1")
	assert.Equal(t, 50, m.ctrl.State().XP)

	m = deliver(t, m, box.drain())
	assert.Nil(t, m.pending)
	assert.Equal(t, 1, *m.view.SceneID)
	require.NotEmpty(t, m.feedback)
	assert.Contains(t, m.feedback[0], AgentName)
	assert.Contains(t, m.View(), "+50 XP")
}

func TestConsoleUI_PlayToCompletionAndBack(t *testing.T) {
	m, box := newTestUI(t)
	m = press(t, m, "1")
	for i := 0; i < 3; i++ {
		m = press(t, m, "1")
		m = deliver(t, m, box.drain())
	}
	assert.True(t, m.view.Complete)
	assert.Contains(t, m.View(), "Story complete!")
	assert.Contains(t, m.View(), "Level up!")

	m = press(t, m, "b")
	assert.Equal(t, screenStories, m.screen)
	assert.Equal(t, session.PhaseStorySelection, m.ctrl.Phase())
	assert.Contains(t, m.View(), "✓")
}

func TestConsoleUI_LockedStoryShowsError(t *testing.T) {
	m, _ := newTestUI(t)
	m = press(t, m, "2")
	assert.Equal(t, screenStories, m.screen)
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "requires level 2")
}

func TestConsoleUI_Match(t *testing.T) {
	m, box := newTestUI(t)
	m = press(t, m, "m")
	require.Equal(t, screenBoards, m.screen)

	m = press(t, m, "1")
	require.Equal(t, screenMatch, m.screen)
	assert.Contains(t, m.View(), "Pick an item")

	// apple, then fruit
	m = press(t, m, "1")
	assert.Equal(t, "apple", m.matchItem)
	m = press(t, m, "1")
	m = deliver(t, m, box.drain())
	assert.Equal(t, 1, m.round.Score().Correct)
	assert.Equal(t, 14, m.stats.XP)
	assert.Contains(t, m.View(), "apple belongs in fruit")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(ConsoleUI)
	assert.Equal(t, screenStories, m.screen)
	assert.Nil(t, m.round)
}

func TestConsoleUI_QuitConfirmation(t *testing.T) {
	m, _ := newTestUI(t)
	m = press(t, m, "q")
	require.True(t, m.showQuitModal)
	assert.Contains(t, m.View(), "Quit?")

	m = press(t, m, "n")
	assert.False(t, m.showQuitModal)

	m = press(t, m, "q")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
