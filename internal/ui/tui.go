// Package ui is the terminal front-end: a Bubble Tea model that turns the
// spacebar into touch-down/touch-up events for core.Engine and renders its
// state. Grounded on the teacher's Model/Init/Update/View shape
// (internal/ui/tui.go), generalized from a 3-key phase controller to the
// hold-to-start/inspection/solve display plus a key-repeat watchdog, since
// terminals have no native key-up event for a held spacebar.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cubeware/cubetimer/internal/algs"
	"github.com/cubeware/cubetimer/internal/core"
)

// repeatWindow must exceed the OS terminal's key-repeat interval (typically
// 30-50ms after the initial delay) but stay well under HoldToStartMs so a
// genuine release is never mistaken for an ongoing hold.
const repeatWindow = 120 * time.Millisecond

type Model struct {
	engine *core.Engine

	width, height int

	progress progress.Model
	quit     bool

	spaceDown  bool
	watchdogID uint64

	lastState core.TimerState
	lastNow   int64
	scramble  string
}

func NewModel(engine *core.Engine, scrambler *algs.Generator, moveCount int) *Model {
	m := &Model{
		engine:   engine,
		progress: progress.New(progress.WithDefaultGradient()),
	}
	if scrambler != nil {
		m.scramble = scrambler.Scramble(moveCount)
	}
	m.lastState = engine.State()
	engine.Wake()
	return m
}

func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(), tea.EnterAltScreen)
}

type refreshMsg time.Time

func refreshCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

type watchdogMsg struct{ id uint64 }

func (m *Model) armWatchdog() tea.Cmd {
	m.watchdogID++
	id := m.watchdogID
	return tea.Tick(repeatWindow, func(time.Time) tea.Msg { return watchdogMsg{id} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case "esc":
			m.engine.Cancel()
		case "n":
			if m.engine.State().Stage() == core.Stopped {
				m.engine.Reset()
			}
		case " ":
			if !m.spaceDown {
				m.spaceDown = true
				m.engine.OnTouchDown()
			}
			return m, m.armWatchdog()
		}

	case watchdogMsg:
		if msg.id == m.watchdogID && m.spaceDown {
			m.spaceDown = false
			m.engine.OnTouchUp()
		}

	case refreshMsg:
		m.lastState = m.engine.State()
		m.lastNow = m.engine.Now()
		return m, refreshCmd()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m *Model) View() string {
	st := m.lastState

	title := lipgloss.NewStyle().Bold(true).Underline(true).Render("cubetimer")
	stage := lipgloss.NewStyle().Bold(true).Render(st.Stage().String())

	var body string
	switch {
	case st.IsSolveRunning():
		elapsed := time.Duration(st.ElapsedSolveTime(m.lastNow)) * time.Millisecond
		body = fmt.Sprintf("Solving: %s", elapsed.Truncate(10*time.Millisecond))
	case st.IsInspectionRunning():
		remaining := st.RemainingInspectionTime(m.lastNow)
		body = fmt.Sprintf("Inspection: %dms remaining", remaining)
	case st.IsStopped():
		body = formatResult(st, m.lastNow)
	default:
		body = "Hold SPACE to start"
	}

	bar := m.progress.ViewAs(progressRatio(st, m.lastNow))

	scramble := ""
	if m.scramble != "" {
		scramble = lipgloss.NewStyle().Faint(true).Render("Scramble: " + m.scramble)
	}

	help := lipgloss.NewStyle().Faint(true).Render("[space] hold/start  [esc] cancel  [n] new  [q] quit")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Width(max(40, m.width-4)).
		Render(fmt.Sprintf("%s\n\n%s\n%s\n%s\n\n%s\n\n%s", title, stage, body, bar, scramble, help))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func formatResult(st core.TimerState, now int64) string {
	if st.Penalties().IsDNF() {
		return "DNF"
	}
	ms := st.CommittedTimeMs(now)
	d := time.Duration(ms) * time.Millisecond
	extra := ""
	if st.Penalties().Pre.PlusTwoCount()+st.Penalties().Post.PlusTwoCount() > 0 {
		extra = " (+2)"
	}
	return d.Truncate(time.Millisecond).String() + extra
}

func progressRatio(st core.TimerState, now int64) float64 {
	switch {
	case st.IsInspectionRunning():
		remaining := st.RemainingInspectionTime(now)
		total := st.InspectionDurationMs()
		if total <= 0 {
			return 0
		}
		ratio := 1 - float64(remaining)/float64(total)
		return clamp01(ratio)
	case st.IsSolveRunning():
		return 0
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
