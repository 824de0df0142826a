package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidNotation is returned when a notation string does not match the
// dice grammar. There is no partial or fuzzy matching: malformed input is
// always rejected, never guessed at.
var ErrInvalidNotation = errors.New("invalid dice notation")

// Keep selects which subset of a roll set is retained.
type Keep int

const (
	// KeepAll retains every die rolled.
	KeepAll Keep = iota
	// KeepHighest retains the N highest dice (e.g. "4d6kh3").
	KeepHighest
	// KeepLowest retains the N lowest dice (e.g. "2d20kl1").
	KeepLowest
)

// Expression is the immutable parse result of a dice notation string.
//
// Invariant: Count >= 1, Sides >= 1 after a successful Parse; when
// Keep != KeepAll, 1 <= KeepN <= Count.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
	Keep     Keep   // roll-selection policy
	KeepN    int    // dice retained by the keep policy; 0 when Keep == KeepAll
}

// notationRe is the wire-level grammar: <count>d<sides>[<+|-><modifier>][(kh|kl)<n>],
// case-insensitive and whitespace-tolerant.
var notationRe = regexp.MustCompile(`(?i)^\s*(\d+)d(\d+)\s*([+-]\d+)?\s*((?:kh|kl)\d+)?\s*$`)

// Parse parses a dice notation string into an Expression.
// Supported forms: "1d20", "2d6+5", "4d8-2", "4d6kh3", "2d20kl1+1".
//
// Postcondition: Returns a valid Expression or an error wrapping
// ErrInvalidNotation.
func Parse(notation string) (Expression, error) {
	m := notationRe.FindStringSubmatch(notation)
	if m == nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 {
		return Expression{}, fmt.Errorf("%w: die count in %q must be >= 1", ErrInvalidNotation, notation)
	}

	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 1 {
		return Expression{}, fmt.Errorf("%w: die sides in %q must be >= 1", ErrInvalidNotation, notation)
	}

	modifier := 0
	if m[3] != "" {
		modifier, err = strconv.Atoi(m[3])
		if err != nil {
			return Expression{}, fmt.Errorf("%w: modifier in %q", ErrInvalidNotation, notation)
		}
	}

	keep := KeepAll
	keepN := 0
	if m[4] != "" {
		suffix := m[4]
		switch suffix[1] {
		case 'h', 'H':
			keep = KeepHighest
		case 'l', 'L':
			keep = KeepLowest
		}
		keepN, err = strconv.Atoi(suffix[2:])
		if err != nil || keepN < 1 {
			return Expression{}, fmt.Errorf("%w: keep value in %q must be >= 1", ErrInvalidNotation, notation)
		}
		if keepN > count {
			return Expression{}, fmt.Errorf("%w: keep value %d exceeds die count %d in %q",
				ErrInvalidNotation, keepN, count, notation)
		}
	}

	return Expression{
		Raw:      notation,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
		Keep:     keep,
		KeepN:    keepN,
	}, nil
}

// MustParse parses notation and panics on error. Useful for fixed rolls such
// as initiative's 1d20.
//
// Precondition: notation must be a valid dice expression.
func MustParse(notation string) Expression {
	e, err := Parse(notation)
	if err != nil {
		panic("dice: MustParse failed for notation " + notation + ": " + err.Error())
	}
	return e
}
