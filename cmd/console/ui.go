package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/lifeskills-engine/pkg/events"
	"github.com/jwebster45206/lifeskills-engine/pkg/match"
	"github.com/jwebster45206/lifeskills-engine/pkg/session"
)

const AgentName = "Coach"

type screen int

const (
	screenStories screen = iota
	screenScene
	screenBoards
	screenMatch
)

// ConsoleUI is the BubbleTea model that runs the player.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctrl  *session.Controller
	pacer *session.Pacer
	send  func(tea.Msg)

	// view is what the story panel shows; stats is the latest view and
	// drives the side panel. They differ while a turn is being revealed.
	view    *session.SceneView
	stats   *session.SceneView
	pending *session.SceneView

	screen    screen
	round     *match.Round
	matchItem string

	feedback []string
	err      error

	storyViewport viewport.Model
	metaViewport  viewport.Model
	ready         bool
	width         int
	height        int

	showQuitModal bool
}

// eventMsg carries one paced presentation event into the update loop.
type eventMsg struct {
	event events.Event
}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	coachStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	rewardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// NewConsoleUI starts a session on ctrl. send must be set with SetSender
// before any turn is played.
func NewConsoleUI(ctrl *session.Controller, pacer *session.Pacer) ConsoleUI {
	ctrl.StartSession()
	view, _ := ctrl.View()

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	return ConsoleUI{
		ctrl:          ctrl,
		pacer:         pacer,
		view:          view,
		stats:         view,
		screen:        screenStories,
		storyViewport: storyVp,
		metaViewport:  viewport.New(24, 20),
	}
}

// SetSender wires paced events back into the program.
func (m *ConsoleUI) SetSender(send func(tea.Msg)) {
	m.send = send
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.storyViewport, cmd = m.storyViewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		storyWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - storyWidth - 6

		m.storyViewport.Width = storyWidth - 2
		m.storyViewport.Height = m.height - 5
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEsc:
			m.leaveMatch()
		default:
			m.handleKey(msg.String())
		}

	case eventMsg:
		m.applyEvent(msg.event)
	}

	m.refresh()
	return m, nil
}

func (m *ConsoleUI) handleKey(key string) {
	if key == "q" {
		m.showQuitModal = true
		return
	}
	// Input waits until the current turn has been revealed.
	if m.pending != nil {
		return
	}
	m.err = nil

	switch key {
	case "b":
		m.leaveMatch()
		if m.screen == screenScene {
			m.back()
		}
		return
	case "m":
		if m.screen == screenStories {
			m.screen = screenBoards
		}
		return
	}

	n, ok := digit(key)
	if !ok {
		return
	}
	switch m.screen {
	case screenStories:
		m.pickStory(n)
	case screenScene:
		m.pickChoice(n)
	case screenBoards:
		m.pickBoard(n)
	case screenMatch:
		m.pickMatch(n)
	}
}

// digit maps "1".."9" to a zero-based index.
func digit(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

func (m *ConsoleUI) pickStory(n int) {
	if n >= len(m.stats.Stories) {
		return
	}
	view, err := m.ctrl.SelectStory(m.stats.Stories[n].ID)
	if err != nil {
		m.err = err
		return
	}
	m.feedback = nil
	m.view, m.stats = view, view
	m.screen = screenScene
}

func (m *ConsoleUI) pickChoice(n int) {
	if m.view.Complete {
		return
	}
	turn, err := m.ctrl.SubmitChoice(n)
	if err != nil {
		m.err = err
		return
	}
	m.feedback = nil
	m.play(turn)
}

func (m *ConsoleUI) back() {
	if err := m.ctrl.BackToCatalog(); err != nil {
		m.err = err
		return
	}
	m.pacer.Cancel()
	view, err := m.ctrl.View()
	if err != nil {
		m.err = err
		return
	}
	m.view, m.stats = view, view
	m.feedback = nil
	m.screen = screenStories
}

func (m *ConsoleUI) pickBoard(n int) {
	if n >= len(m.stats.MatchBoards) {
		return
	}
	round, err := m.ctrl.StartMatch(m.stats.MatchBoards[n].ID)
	if err != nil {
		m.err = err
		return
	}
	m.round = round
	m.matchItem = ""
	m.feedback = nil
	m.screen = screenMatch
}

// pickMatch takes two presses: the item, then the target it is dropped on.
func (m *ConsoleUI) pickMatch(n int) {
	if m.round.Complete() {
		return
	}
	if m.matchItem == "" {
		remaining := m.round.Remaining()
		if n < len(remaining) {
			m.matchItem = remaining[n]
		}
		return
	}

	targets := m.round.Board().Targets()
	if n >= len(targets) {
		return
	}
	item := m.matchItem
	m.matchItem = ""
	turn, err := m.ctrl.PlaceMatch(m.round, item, targets[n])
	if err != nil {
		m.err = err
		return
	}
	m.play(turn)
}

func (m *ConsoleUI) leaveMatch() {
	if m.screen == screenBoards || m.screen == screenMatch {
		m.round = nil
		m.matchItem = ""
		m.screen = screenStories
	}
}

// play shows the turn's new stats at once and holds the story panel until
// its advance events arrive.
func (m *ConsoleUI) play(turn *session.Turn) {
	m.stats = turn.View
	if hasAdvance(turn.Events) {
		m.pending = turn.View
	} else {
		m.view = turn.View
	}
	if send := m.send; send != nil {
		m.pacer.Schedule(turn, func(e events.Event) {
			send(eventMsg{event: e})
		})
	}
}

func hasAdvance(list []events.Event) bool {
	for _, e := range list {
		if e.Stage() == events.StageAdvance {
			return true
		}
	}
	return false
}

func (m *ConsoleUI) applyEvent(e events.Event) {
	if line := m.describe(e); line != "" {
		m.feedback = append(m.feedback, line)
	}
	if e.Stage() == events.StageAdvance && m.pending != nil {
		m.view = m.pending
		m.pending = nil
	}
}

// describe renders an event as one line of the feedback log.
func (m *ConsoleUI) describe(e events.Event) string {
	switch e.Kind {
	case events.KindFeedbackShown:
		return coachStyle.Render(AgentName+": ") + e.Text
	case events.KindTipAvailable:
		return rewardStyle.Render("Tip: ") + e.Text
	case events.KindMeterChanged:
		return fmt.Sprintf("%s %+d", session.MeterLabel(e.Meter), e.Delta)
	case events.KindExperienceGained:
		return rewardStyle.Render(fmt.Sprintf("+%d XP", e.Delta))
	case events.KindLevelUp:
		return rewardStyle.Render(fmt.Sprintf("Level up! You are now level %d.", e.Level))
	case events.KindStoryUnlocked:
		return rewardStyle.Render("New story unlocked: " + m.storyTitle(*e.StoryID))
	case events.KindAchievementUnlocked:
		return rewardStyle.Render("Achievement: " + e.Text)
	case events.KindStoryCompleted:
		return titleStyle.Render("Story complete!")
	case events.KindMatchPlaced:
		if e.Correct != nil && *e.Correct {
			return coachStyle.Render(fmt.Sprintf("%s belongs in %s.", e.Item, e.Target))
		}
		return errorStyle.Render(fmt.Sprintf("%s does not go in %s. Try again.", e.Item, e.Target))
	case events.KindMatchCompleted:
		return titleStyle.Render("Board cleared!")
	}
	return ""
}

func (m *ConsoleUI) storyTitle(id int) string {
	for _, s := range m.stats.Stories {
		if s.ID == id {
			return s.Title
		}
	}
	return fmt.Sprintf("story %d", id)
}

func (m *ConsoleUI) refresh() {
	m.storyViewport.SetContent(m.storyContent())
	m.storyViewport.GotoBottom()
	m.metaViewport.SetContent(writeMetadata(m.stats))
}

func (m *ConsoleUI) storyContent() string {
	width := m.storyViewport.Width - 6
	if width < 20 {
		width = 20
	}
	var b strings.Builder

	switch m.screen {
	case screenStories:
		b.WriteString(titleStyle.Render("CHOOSE A STORY") + "\n\n")
		for i, s := range m.stats.Stories {
			line := fmt.Sprintf("%d. %s", i+1, s.Title)
			switch {
			case !s.Unlocked:
				b.WriteString(lockedStyle.Render(fmt.Sprintf("%s (level %d)", line, s.MinLevelToUnlock)))
			case s.Completed:
				b.WriteString(choiceStyle.Render(line + " ✓"))
			default:
				b.WriteString(choiceStyle.Render(line))
			}
			b.WriteString("\n")
			if s.Description != "" {
				b.WriteString("   " + wordwrap.String(s.Description, width-3) + "\n")
			}
		}
		if len(m.stats.MatchBoards) > 0 {
			b.WriteString("\n" + promptStyle.Render("Press m for match games") + "\n")
		}

	case screenScene:
		b.WriteString(titleStyle.Render(strings.ToUpper(m.view.StoryTitle)) + "\n\n")
		b.WriteString(wordwrap.String(m.view.Dialog, width) + "\n\n")
		if m.view.Complete {
			b.WriteString(promptStyle.Render("Press b to return to the stories") + "\n")
		}
		for _, c := range m.view.Choices {
			b.WriteString(choiceStyle.Render(fmt.Sprintf("%d. ", c.Index+1)))
			b.WriteString(wordwrap.String(c.Text, width-3) + "\n")
		}

	case screenBoards:
		b.WriteString(titleStyle.Render("MATCH GAMES") + "\n\n")
		for i, bl := range m.stats.MatchBoards {
			line := fmt.Sprintf("%d. %s", i+1, bl.Title)
			if bl.Unlocked {
				b.WriteString(choiceStyle.Render(line))
			} else {
				b.WriteString(lockedStyle.Render(fmt.Sprintf("%s (level %d)", line, bl.MinLevelToUnlock)))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n" + promptStyle.Render("Esc to go back") + "\n")

	case screenMatch:
		b.WriteString(m.matchContent(width))
	}

	if len(m.feedback) > 0 {
		b.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
		for _, line := range m.feedback {
			b.WriteString(wordwrap.String(line, width) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	return b.String()
}

func (m *ConsoleUI) matchContent(width int) string {
	board := m.round.Board()
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(board.Title)) + "\n\n")
	if board.Instructions != "" {
		b.WriteString(wordwrap.String(board.Instructions, width) + "\n\n")
	}

	score := m.round.Score()
	b.WriteString(fmt.Sprintf("Matched %d of %d, %d misses\n\n", score.Correct, score.Total, score.Wrong))
	if m.round.Complete() {
		b.WriteString(promptStyle.Render("Esc to go back") + "\n")
		return b.String()
	}

	if m.matchItem == "" {
		b.WriteString("Pick an item:\n")
		for i, item := range m.round.Remaining() {
			b.WriteString(choiceStyle.Render(fmt.Sprintf("%d. %s", i+1, item)) + "\n")
		}
	} else {
		b.WriteString(fmt.Sprintf("Where does %s go?\n", choiceStyle.Render(m.matchItem)))
		for i, target := range board.Targets() {
			b.WriteString(choiceStyle.Render(fmt.Sprintf("%d. %s", i+1, target)) + "\n")
		}
	}
	return b.String()
}

func writeMetadata(v *session.SceneView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PROGRESS") + "\n\n")
	if v == nil {
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Level %d\n", v.Level))
	b.WriteString(fmt.Sprintf("XP %d/%d\n\n", v.XPIntoLevel, v.XPForLevel))

	for _, meter := range v.Meters {
		b.WriteString(fmt.Sprintf("%-12s %3d\n", meter.Label, meter.Value))
	}

	earned := 0
	for _, a := range v.Achievements {
		if a.Earned {
			if earned == 0 {
				b.WriteString("\nAchievements:\n")
			}
			earned++
			b.WriteString("• " + a.Title + "\n")
		}
	}

	b.WriteString("\nKeys:\n")
	b.WriteString("• 1-9: Choose\n")
	b.WriteString("• b: Back\n")
	b.WriteString("• q: Quit\n")
	return b.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			m.pacer.Cancel()
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				m.pacer.Cancel()
				return m, tea.Quit
			case "n", "N", "esc":
				m.showQuitModal = false
				m.refresh()
			}
		}

	case eventMsg:
		m.applyEvent(msg.event)
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is not saved.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		if m.width == 0 || m.height == 0 {
			return "Quit? (y/n)"
		}
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(m.storyViewport.View())
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}
