package vector

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects how a similarity is reported.
type Mode int

const (
	// ModeCosine reports the raw cosine in [-1, 1].
	ModeCosine Mode = iota
	// ModeUnitCosine reports (cosine + 1) / 2 in [0, 1], for rankers that expect non-negative scores.
	ModeUnitCosine
	// ModeDot reports the unnormalized inner product.
	ModeDot
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCosine:
		return "cosine"
	case ModeUnitCosine:
		return "unit_cosine"
	case ModeDot:
		return "dot"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Bounds returns the score range of the mode.
func (m Mode) Bounds() (lo, hi float64) {
	switch m {
	case ModeCosine:
		return -1, 1
	case ModeUnitCosine:
		return 0, 1
	default:
		return math.Inf(-1), math.Inf(1)
	}
}

// ParseMode parses a mode name. "raw" is accepted for cosine and "unit" or "normalized" for unit_cosine.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine", "raw":
		return ModeCosine, nil
	case "unit_cosine", "unit", "normalized":
		return ModeUnitCosine, nil
	case "dot", "dot_product":
		return ModeDot, nil
	default:
		return 0, fmt.Errorf("unknown score mode %q", s)
	}
}
