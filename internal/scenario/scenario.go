package scenario

import "time"

// Scenario describes a simulated breathing session as a sequence of phases
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Duration    string        `yaml:"duration"` // e.g., "8m", "unlimited"
	DefaultRate string        `yaml:"default_rate"`
	Breath      *BreathConfig `yaml:"breath"`
	Phases      []Phase       `yaml:"phases"`
}

// Phase represents a time-bounded stage of a scenario with specific overrides
type Phase struct {
	Name      string        `yaml:"name"`
	Duration  string        `yaml:"duration"`
	Overrides *BreathConfig `yaml:"overrides,omitempty"`
}

// BreathConfig shapes the simulated pressure waveform. Amplitudes are peak
// pressure deltas in Pa; InhalePa is a magnitude and is emitted as suction.
type BreathConfig struct {
	RateBPM     float64 `yaml:"rate_bpm,omitempty"`
	InhalePa    float64 `yaml:"inhale_pa,omitempty"`
	ExhalePa    float64 `yaml:"exhale_pa,omitempty"`
	ExhaleRatio float64 `yaml:"exhale_ratio,omitempty"` // share of a cycle spent exhaling
	NoisePa     float64 `yaml:"noise_pa,omitempty"`
	DriftPa     float64 `yaml:"drift_pa,omitempty"`
	Hold        *bool   `yaml:"hold,omitempty"`

	// Override modifiers
	Add      float64 `yaml:"add,omitempty"`
	Multiply float64 `yaml:"multiply,omitempty"`
}

// Holding reports whether the config suspends breathing
func (c *BreathConfig) Holding() bool {
	return c != nil && c.Hold != nil && *c.Hold
}

// ParseDuration parses duration strings like "8m", "30s", "unlimited"
func ParseDuration(s string) (time.Duration, bool) {
	if s == "unlimited" || s == "" {
		return 0, true // 0 means unlimited
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, false
}

// GetEffectiveConfig returns the breath config at a specific elapsed time
func (s *Scenario) GetEffectiveConfig(elapsed time.Duration) *BreathConfig {
	baseConfig := s.Breath
	if baseConfig == nil {
		baseConfig = &BreathConfig{}
	}

	currentPhase := s.getCurrentPhase(elapsed)
	if currentPhase == nil || currentPhase.Overrides == nil {
		return baseConfig
	}

	override := currentPhase.Overrides
	merged := *baseConfig
	if override.RateBPM != 0 {
		merged.RateBPM = override.RateBPM
	}
	if override.InhalePa != 0 {
		merged.InhalePa = override.InhalePa
	}
	if override.ExhalePa != 0 {
		merged.ExhalePa = override.ExhalePa
	}
	if override.ExhaleRatio != 0 {
		merged.ExhaleRatio = override.ExhaleRatio
	}
	if override.NoisePa != 0 {
		merged.NoisePa = override.NoisePa
	}
	if override.DriftPa != 0 {
		merged.DriftPa = override.DriftPa
	}
	if override.Hold != nil {
		merged.Hold = override.Hold
	}
	if override.Add != 0 {
		merged.Add = override.Add
	}
	if override.Multiply != 0 {
		merged.Multiply = override.Multiply
	}
	return &merged
}

// PhaseAt returns the name of the phase active at elapsed, or "" when the
// scenario has no phases.
func (s *Scenario) PhaseAt(elapsed time.Duration) string {
	if p := s.getCurrentPhase(elapsed); p != nil {
		return p.Name
	}
	return ""
}

func (s *Scenario) getCurrentPhase(elapsed time.Duration) *Phase {
	if len(s.Phases) == 0 {
		return nil
	}

	var currentTime time.Duration
	for i := range s.Phases {
		phaseDuration, unlimited := ParseDuration(s.Phases[i].Duration)
		if unlimited {
			return &s.Phases[i]
		}

		if elapsed < currentTime+phaseDuration {
			return &s.Phases[i]
		}
		currentTime += phaseDuration
	}

	// Return last phase if we've exceeded total duration
	return &s.Phases[len(s.Phases)-1]
}
