// Package tui is a terminal monitor for a live breath frame stream
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/synheart/synheart-breath/internal/models"
)

const (
	barHalfWidth = 20
	historyLen   = 48
)

type frameMsg models.Frame

type streamClosedMsg struct{}

// Model is the bubbletea model of the monitor
type Model struct {
	title   string
	frames  <-chan models.Frame
	last    models.Frame
	have    bool
	history []float64
	closed  bool
}

func New(title string, frames <-chan models.Frame) Model {
	return Model{title: title, frames: frames}
}

func waitForFrame(frames <-chan models.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return streamClosedMsg{}
		}
		return frameMsg(f)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case frameMsg:
		m.last = models.Frame(msg)
		m.have = true
		m.history = append(m.history, msg.Breath.Normalized)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
		return m, waitForFrame(m.frames)
	case streamClosedMsg:
		m.closed = true
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if !m.have {
		b.WriteString(mutedStyle.Render("waiting for frames..."))
		b.WriteString("\n")
		return paneStyle.Render(b.String()) + "\n" + mutedStyle.Render("q to quit") + "\n"
	}

	br := m.last.Breath
	row := func(label, value string) {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			mutedStyle.Width(10).Render(label), valueStyle.Render(value)))
		b.WriteString("\n")
	}

	b.WriteString(phaseStyle(br.Phase).Render(strings.ToUpper(br.Phase.String())))
	b.WriteString(" ")
	b.WriteString(CenterBar(br.Normalized, barHalfWidth))
	b.WriteString(fmt.Sprintf(" %+.2f\n\n", br.Normalized))

	row("breaths", fmt.Sprintf("%d", br.BreathCount))
	if br.AvgCycleMs > 0 {
		row("avg cycle", fmt.Sprintf("%.0f ms", br.AvgCycleMs))
	} else {
		row("avg cycle", "-")
	}
	row("delta", fmt.Sprintf("%+.2f Pa", br.DeltaPa))
	row("bounds", fmt.Sprintf("[%.1f, %.1f] Pa", br.MinDelta, br.MaxDelta))
	row("frame", fmt.Sprintf("#%d at %d ms", m.last.Meta.Sequence, m.last.AtMs))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(green).Render(Sparkline(m.history)))

	footer := "q to quit"
	if m.closed {
		footer = "stream ended, q to quit"
	}
	return paneStyle.Render(b.String()) + "\n" + mutedStyle.Render(footer) + "\n"
}

// CenterBar draws v in [-1, 1] as a bar growing left or right from a centre mark
func CenterBar(v float64, half int) string {
	v = math.Max(-1, math.Min(1, v))
	n := int(math.Round(math.Abs(v) * float64(half)))
	left := strings.Repeat("░", half)
	right := left
	if v < 0 {
		left = strings.Repeat("░", half-n) + strings.Repeat("█", n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat("░", half-n)
	}
	return left + "│" + right
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// Sparkline maps values in [-1, 1] onto block characters
func Sparkline(values []float64) string {
	out := make([]rune, len(values))
	for i, v := range values {
		v = math.Max(-1, math.Min(1, v))
		idx := int(math.Round((v + 1) / 2 * float64(len(sparks)-1)))
		out[i] = sparks[idx]
	}
	return string(out)
}

// Run shows the monitor until the user quits or ctx is cancelled
func Run(ctx context.Context, title string, frames <-chan models.Frame) error {
	p := tea.NewProgram(New(title, frames), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run monitor: %w", err)
	}
	return nil
}
