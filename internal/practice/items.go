// Package practice runs guided practice sessions on top of the recognition
// core: it picks targets, scores attempts and produces learner feedback.
package practice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/signcoach/internal/handshape"
)

// Category is the set of signs a hand session practises.
type Category string

const (
	CategoryAlphabet Category = "alphabet"
	CategoryNumbers  Category = "numbers"
)

// Mode decides how the next target is chosen.
type Mode string

const (
	// ModeLearn walks the items in order, wrapping around.
	ModeLearn Mode = "learn"
	// ModeQuiz picks a random item not yet completed.
	ModeQuiz Mode = "quiz"
)

// Default ranges per category.
const (
	DefaultAlphabetRange = "a-f"
	DefaultNumbersRange  = "0-5"
)

// ErrInvalidRange is returned for a malformed item range.
var ErrInvalidRange = errors.New("invalid practice range")

// ParseCategory accepts "alphabet", "numbers" and the "number" shorthand.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "alphabet", "letters":
		return CategoryAlphabet, nil
	case "numbers", "number":
		return CategoryNumbers, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParseMode accepts "learn" and "quiz"; empty means learn.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLearn:
		return ModeLearn, nil
	case ModeQuiz:
		return ModeQuiz, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Kind returns the pattern kind a category is classified against.
func (c Category) Kind() handshape.Kind {
	if c == CategoryNumbers {
		return handshape.KindDigit
	}
	return handshape.KindLetter
}

// Noun is the word used in learner feedback.
func (c Category) Noun() string {
	if c == CategoryNumbers {
		return "number"
	}
	return "letter"
}

// Items expands a range such as "a-f" or "0-5" into upper-case item labels.
// An empty range uses the category default.
func Items(c Category, rng string) ([]string, error) {
	rng = strings.TrimSpace(strings.ToLower(rng))
	if rng == "" {
		rng = DefaultAlphabetRange
		if c == CategoryNumbers {
			rng = DefaultNumbersRange
		}
	}

	lo, hi, ok := strings.Cut(rng, "-")
	if !ok || len(lo) != 1 || len(hi) != 1 {
		return nil, fmt.Errorf("%q: want form x-y: %w", rng, ErrInvalidRange)
	}

	first, last := 'a', 'z'
	if c == CategoryNumbers {
		first, last = '0', '9'
	}
	start, end := rune(lo[0]), rune(hi[0])
	if start < first || end > last || start > end {
		return nil, fmt.Errorf("%q: outside %c-%c: %w", rng, first, last, ErrInvalidRange)
	}

	items := make([]string, 0, end-start+1)
	for r := start; r <= end; r++ {
		items = append(items, strings.ToUpper(string(r)))
	}
	return items, nil
}
