package cli

import (
	"math"
	"strings"
)

// renderBar draws share (0..1) as a fixed-width block bar
func renderBar(share float64, width int) string {
	filled := int(math.Round(share * float64(width)))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
