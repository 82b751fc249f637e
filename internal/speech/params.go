package speech

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rate and pitch bounds. Values outside are clamped before reaching an
// engine.
const (
	MinRate  = 0.1
	MaxRate  = 10.0
	MinPitch = 0.0
	MaxPitch = 2.0
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseFactor reads a rate or pitch control value. Leading whitespace is
// ignored and the longest numeric prefix is used. Anything that yields no
// number, NaN or zero becomes 1.
func ParseFactor(s string) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 1
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 1
	}
	if f == 0 || math.IsNaN(f) {
		return 1
	}
	return f
}

// ParseIndex reads a voice selector value: the leading integer prefix in
// base 10. ok is false when there is none.
func ParseIndex(s string) (idx int, ok bool) {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ClampRate limits r to the range engines accept.
func ClampRate(r float64) float64 {
	return clamp(r, MinRate, MaxRate)
}

// ClampPitch limits p to the range engines accept.
func ClampPitch(p float64) float64 {
	return clamp(p, MinPitch, MaxPitch)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsInf(v, 1) || v > hi {
		return hi
	}
	if math.IsInf(v, -1) || v < lo {
		return lo
	}
	return v
}

// FormatFactor renders a factor the way it is written back into a control.
func FormatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Steps are the presets the rate and pitch controls step through.
var Steps = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// StepUp returns the next preset above current, or current when already at
// or above the top.
func StepUp(current float64) float64 {
	for _, s := range Steps {
		if s > current {
			return s
		}
	}
	return current
}

// StepDown returns the next preset below current, or current when already
// at or below the bottom.
func StepDown(current float64) float64 {
	for i := len(Steps) - 1; i >= 0; i-- {
		if Steps[i] < current {
			return Steps[i]
		}
	}
	return current
}
