// Package handshape classifies a single hand pose against a library of
// per-letter and per-number reference patterns.
package handshape

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind groups patterns by the practice category they belong to.
type Kind string

const (
	// KindLetter is a fingerspelled alphabet letter.
	KindLetter Kind = "letter"
	// KindDigit is a counted number sign.
	KindDigit Kind = "digit"
	// KindCustom is a user-recorded sign.
	KindCustom Kind = "custom"
)

// NumGroups is the number of finger groups compared per pattern.
const NumGroups = 5

// Finger group order used by pattern joints and encodings.
const (
	GroupThumb = iota
	GroupIndex
	GroupMiddle
	GroupRing
	GroupPinky
)

// ErrPatternShape is returned when a pattern does not carry exactly one
// triple per finger group or a value lies outside [0,1].
var ErrPatternShape = errors.New("malformed reference pattern")

// Pattern is a reference hand shape. Each joint triple describes one finger
// group as (lateral reach, rise, depth), each in [0,1].
type Pattern struct {
	Label  string       `json:"label" yaml:"label"`
	Kind   Kind         `json:"kind" yaml:"kind"`
	Joints [][3]float64 `json:"joints" yaml:"joints"`
}

// Validate checks the pattern shape.
func (p Pattern) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("pattern has no label: %w", ErrPatternShape)
	}
	if len(p.Joints) != NumGroups {
		return fmt.Errorf("pattern %s: %d joints, want %d: %w", p.Label, len(p.Joints), NumGroups, ErrPatternShape)
	}
	for i, j := range p.Joints {
		for _, v := range j {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("pattern %s joint %d: value %v out of range: %w", p.Label, i, v, ErrPatternShape)
			}
		}
	}
	return nil
}

// Canonical shorthand triples.
var (
	curled   = [3]float64{0, 0, 0}
	folded   = [3]float64{1, 0, 0}
	raised   = [3]float64{1, 1, 0}
	forward  = [3]float64{0, 0, 1}
	hooked   = [3]float64{1, 0, 1}
	rounded  = [3]float64{1, 1, 1}
	stretchU = [3]float64{0, 1, 0}
)

func joints(js ...[3]float64) [][3]float64 {
	out := make([][3]float64, len(js))
	copy(out, js)
	return out
}

// LetterPatterns returns the alphabet library A-Z in declaration order.
// Several letters share a shape (C/O, G/L/Q, H/P, E/S, U/V); on an exact
// tie the earlier letter wins.
func LetterPatterns() []Pattern {
	return []Pattern{
		{Label: "A", Kind: KindLetter, Joints: joints(curled, folded, folded, folded, folded)},
		{Label: "B", Kind: KindLetter, Joints: joints(stretchU, raised, raised, raised, raised)},
		{Label: "C", Kind: KindLetter, Joints: joints(rounded, rounded, rounded, rounded, rounded)},
		{Label: "D", Kind: KindLetter, Joints: joints(stretchU, raised, curled, curled, curled)},
		{Label: "E", Kind: KindLetter, Joints: joints(folded, folded, folded, folded, folded)},
		{Label: "F", Kind: KindLetter, Joints: joints(raised, hooked, raised, raised, raised)},
		{Label: "G", Kind: KindLetter, Joints: joints(raised, raised, curled, curled, curled)},
		{Label: "H", Kind: KindLetter, Joints: joints(raised, raised, raised, curled, curled)},
		{Label: "I", Kind: KindLetter, Joints: joints(curled, curled, curled, curled, raised)},
		{Label: "J", Kind: KindLetter, Joints: joints(curled, curled, curled, curled, rounded)},
		{Label: "K", Kind: KindLetter, Joints: joints(raised, raised, rounded, curled, curled)},
		{Label: "L", Kind: KindLetter, Joints: joints(raised, raised, curled, curled, curled)},
		{Label: "M", Kind: KindLetter, Joints: joints(forward, folded, folded, folded, curled)},
		{Label: "N", Kind: KindLetter, Joints: joints(forward, folded, folded, curled, curled)},
		{Label: "O", Kind: KindLetter, Joints: joints(rounded, rounded, rounded, rounded, rounded)},
		{Label: "P", Kind: KindLetter, Joints: joints(raised, raised, raised, curled, curled)},
		{Label: "Q", Kind: KindLetter, Joints: joints(raised, raised, curled, curled, curled)},
		{Label: "R", Kind: KindLetter, Joints: joints(forward, raised, raised, curled, curled)},
		{Label: "S", Kind: KindLetter, Joints: joints(folded, folded, folded, folded, folded)},
		{Label: "T", Kind: KindLetter, Joints: joints(forward, folded, curled, curled, curled)},
		{Label: "U", Kind: KindLetter, Joints: joints(curled, raised, raised, curled, curled)},
		{Label: "V", Kind: KindLetter, Joints: joints(curled, raised, raised, curled, curled)},
		{Label: "W", Kind: KindLetter, Joints: joints(curled, raised, raised, raised, curled)},
		{Label: "X", Kind: KindLetter, Joints: joints(curled, hooked, curled, curled, curled)},
		{Label: "Y", Kind: KindLetter, Joints: joints(raised, curled, curled, curled, raised)},
		{Label: "Z", Kind: KindLetter, Joints: joints(raised, hooked, curled, curled, curled)},
	}
}

// DigitPatterns returns the number library 0-9. Digits 6-9 touch the thumb to
// one finger, which shows up as a forward-pointing finger group.
func DigitPatterns() []Pattern {
	return []Pattern{
		{Label: "0", Kind: KindDigit, Joints: joints(rounded, rounded, rounded, rounded, rounded)},
		{Label: "1", Kind: KindDigit, Joints: joints(curled, raised, curled, curled, curled)},
		{Label: "2", Kind: KindDigit, Joints: joints(curled, raised, raised, curled, curled)},
		{Label: "3", Kind: KindDigit, Joints: joints(raised, raised, raised, curled, curled)},
		{Label: "4", Kind: KindDigit, Joints: joints(curled, raised, raised, raised, raised)},
		{Label: "5", Kind: KindDigit, Joints: joints(raised, raised, raised, raised, raised)},
		{Label: "6", Kind: KindDigit, Joints: joints(forward, raised, raised, raised, forward)},
		{Label: "7", Kind: KindDigit, Joints: joints(forward, raised, raised, forward, raised)},
		{Label: "8", Kind: KindDigit, Joints: joints(forward, raised, forward, raised, raised)},
		{Label: "9", Kind: KindDigit, Joints: joints(forward, forward, raised, raised, raised)},
	}
}

// DefaultPatterns returns letters followed by digits.
func DefaultPatterns() []Pattern {
	return append(LetterPatterns(), DigitPatterns()...)
}

// Filter returns the patterns of the given kind, preserving order.
func Filter(patterns []Pattern, kind Kind) []Pattern {
	var out []Pattern
	for _, p := range patterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// Merge overlays custom patterns on a base library. A custom pattern whose
// label matches a base pattern (case-insensitively) replaces its joints in
// place and keeps the base kind, so an overridden letter stays a letter; the
// rest are appended in order, defaulting to KindCustom.
func Merge(base, custom []Pattern) []Pattern {
	merged := make([]Pattern, len(base))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[strings.ToUpper(p.Label)] = i
	}

	for _, p := range custom {
		key := strings.ToUpper(p.Label)
		if i, ok := index[key]; ok {
			p.Kind = merged[i].Kind
			merged[i] = p
			continue
		}
		if p.Kind == "" {
			p.Kind = KindCustom
		}
		index[key] = len(merged)
		merged = append(merged, p)
	}
	return merged
}
