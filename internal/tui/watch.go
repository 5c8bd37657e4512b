package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studytrack/internal/logger"
	"studytrack/internal/palette"
	"studytrack/internal/timer"
)

// RefreshInterval only drives redrawing; elapsed time always comes from the
// engine's timestamps.
const RefreshInterval = 250 * time.Millisecond

// Engine is the part of the timer engine the watch view drives.
type Engine interface {
	View() timer.View
	Reload() error
	Pause() error
	Resume() error
}

type tickMsg time.Time

// storeChangedMsg reports that another process wrote the timer store.
type storeChangedMsg struct{}

type WatchModel struct {
	engine  Engine
	changes <-chan struct{}
	courses map[string]string
	view    timer.View
	width   int
	err     error
}

// NewWatchModel builds the live timer view. changes may be nil when no
// store watcher is available; courses maps course id to title.
func NewWatchModel(engine Engine, changes <-chan struct{}, courses map[string]string) *WatchModel {
	return &WatchModel{
		engine:  engine,
		changes: changes,
		courses: courses,
		view:    engine.View(),
		width:   60,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForChange(m.changes))
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.view = m.engine.View()
		return m, tickCmd()

	case storeChangedMsg:
		if err := m.engine.Reload(); err != nil {
			logger.Warn("failed to reload timer state", "error", err)
			m.err = err
		} else {
			m.err = nil
		}
		m.view = m.engine.View()
		return m, waitForChange(m.changes)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p", " ":
			var err error
			if m.view.Phase == timer.PhaseRunning {
				err = m.engine.Pause()
			} else {
				err = m.engine.Resume()
			}
			m.err = err
			m.view = m.engine.View()
		}
	}
	return m, nil
}

func (m *WatchModel) View() string {
	v := m.view
	phase := phaseStyle(string(v.Phase)).Render(strings.ToUpper(string(v.Phase)))

	var lines []string
	lines = append(lines, TitleStyle.Render("studyctl")+"  "+phase)
	lines = append(lines, ClockStyle.Render(timer.FormatClock(v.ElapsedSeconds)))

	if v.Draft != nil {
		title := m.courses[v.Draft.CourseID.String()]
		if title == "" {
			title = palette.UnknownCourseLabel
		}
		kind := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.StudyTypeColor(v.Draft.StudyType))).Render(string(v.Draft.StudyType))
		lines = append(lines, fmt.Sprintf("%s · %s", palette.TruncateLabel(title, 40), kind))
		if v.Draft.IsResume() {
			lines = append(lines, HelpStyle.Render("continuing an earlier session"))
		}
		if v.StartedAt != nil {
			lines = append(lines, HelpStyle.Render("started "+v.StartedAt.Local().Format("Mon 15:04")))
		}
	} else {
		lines = append(lines, HelpStyle.Render("no active session, run `studyctl timer start`"))
	}
	if v.Finishing {
		lines = append(lines, HelpStyle.Render("saving…"))
	}
	if m.err != nil {
		lines = append(lines, ErrorStyle.Render(m.err.Error()))
	}

	box := BoxStyle.Render(strings.Join(lines, "\n"))
	return box + "\n" + HelpStyle.Render("p pause/resume · q quit") + "\n"
}
