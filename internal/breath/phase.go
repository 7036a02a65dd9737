package breath

import (
	"fmt"
	"strings"
)

// Phase is the coarse breathing phase reported every tick
type Phase uint8

const (
	Idle Phase = iota
	Inhale
	Exhale
	Hold
)

var phaseNames = [...]string{
	Idle:   "idle",
	Inhale: "inhale",
	Exhale: "exhale",
	Hold:   "hold",
}

// String returns the lowercase phase name
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return phaseNames[Idle]
}

// Label returns the three-character HUD label used by the scenes
func (p Phase) Label() string {
	switch p {
	case Inhale:
		return "IN "
	case Exhale:
		return "OUT"
	case Hold:
		return "HLD"
	default:
		return "..."
	}
}

// ParsePhase converts a phase name back into a Phase
func ParsePhase(s string) (Phase, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown breath phase %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
