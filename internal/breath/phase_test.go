package breath

import (
	"encoding/json"
	"testing"
)

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		name  string
		label string
	}{
		{Idle, "idle", "..."},
		{Inhale, "inhale", "IN "},
		{Exhale, "exhale", "OUT"},
		{Hold, "hold", "HLD"},
		{Phase(42), "idle", "..."},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.name {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.name)
		}
		if got := tt.phase.Label(); got != tt.label {
			t.Errorf("Phase(%d).Label() = %q, want %q", tt.phase, got, tt.label)
		}
	}
}

func TestParsePhase(t *testing.T) {
	for _, p := range []Phase{Idle, Inhale, Exhale, Hold} {
		got, err := ParsePhase(" " + p.String() + " ")
		if err != nil {
			t.Fatalf("ParsePhase(%q) error: %v", p.String(), err)
		}
		if got != p {
			t.Errorf("ParsePhase(%q) = %v, want %v", p.String(), got, p)
		}
	}

	if _, err := ParsePhase("sneeze"); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestPhase_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Phase Phase `json:"phase"`
	}{Exhale})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"phase":"exhale"}` {
		t.Errorf("json = %s", data)
	}

	var out struct {
		Phase Phase `json:"phase"`
	}
	if err := json.Unmarshal([]byte(`{"phase":"HOLD"}`), &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Phase != Hold {
		t.Errorf("phase = %v, want hold", out.Phase)
	}
}
