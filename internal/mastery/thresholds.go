package mastery

import (
	"hanzidrill/internal/config"
)

// Mode is the kind of drill an item is practiced in
type Mode string

const (
	ModeCharacter Mode = "character" // writing the glyph
	ModePinyin    Mode = "pinyin"    // typing the transcription
)

// Thresholds are the mistake counts that move Primary from green to yellow
// and from yellow to red.
type Thresholds struct {
	ToYellow int
	ToRed    int
}

// DefaultThresholds returns the stock values for a mode
func DefaultThresholds(mode Mode) Thresholds {
	if mode == ModeCharacter {
		return Thresholds{ToYellow: 5, ToRed: 4}
	}
	return Thresholds{ToYellow: 2, ToRed: 7}
}

// ThresholdsFor picks the configured thresholds for a mode
func ThresholdsFor(cfg config.MasteryConfig, mode Mode) Thresholds {
	var th config.Thresholds
	switch mode {
	case ModeCharacter:
		th = cfg.Character
	default:
		th = cfg.Pinyin
	}
	if th.ToYellow < 1 || th.ToRed < 1 {
		return DefaultThresholds(mode)
	}
	return Thresholds{ToYellow: th.ToYellow, ToRed: th.ToRed}
}
