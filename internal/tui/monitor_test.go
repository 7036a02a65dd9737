package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/models"
)

func TestCenterBar(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "░░░░│░░░░"},
		{0.5, "░░░░│██░░"},
		{-1, "████│░░░░"},
		{3, "░░░░│████"},
	}
	for _, tt := range tests {
		if got := CenterBar(tt.v, 4); got != tt.want {
			t.Errorf("CenterBar(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{-1, 0, 1, 5}); got != "▁▅██" {
		t.Errorf("Sparkline = %q", got)
	}
}

func TestModel_Frames(t *testing.T) {
	frames := make(chan models.Frame, 1)
	m := New("test", frames)

	if !strings.Contains(m.View(), "waiting") {
		t.Error("empty monitor should say it is waiting")
	}

	f := models.Frame{Breath: models.Breath{Phase: breath.Exhale, Normalized: 0.4, BreathCount: 7}}
	next, cmd := m.Update(frameMsg(f))
	if cmd == nil {
		t.Error("monitor should keep listening after a frame")
	}

	view := next.View()
	if !strings.Contains(view, "EXHALE") || !strings.Contains(view, "7") {
		t.Errorf("view missing frame data:\n%s", view)
	}

	next, _ = next.Update(streamClosedMsg{})
	if !strings.Contains(next.View(), "stream ended") {
		t.Error("view should report the closed stream")
	}
}

func TestModel_History(t *testing.T) {
	m := New("test", nil)
	var model tea.Model = m
	for i := 0; i < historyLen+10; i++ {
		model, _ = model.Update(frameMsg(models.Frame{}))
	}
	if got := len(model.(Model).history); got != historyLen {
		t.Errorf("history = %d, want %d", got, historyLen)
	}
}

func TestModel_Quit(t *testing.T) {
	m := New("test", nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestWaitForFrame_Closed(t *testing.T) {
	ch := make(chan models.Frame)
	close(ch)
	if _, ok := waitForFrame(ch)().(streamClosedMsg); !ok {
		t.Error("closed channel should yield streamClosedMsg")
	}
}
