// Package dice provides the dice-notation parser and roll evaluator used by
// every randomised mechanic in Gametable: player rolls, initiative, and
// DM-forced checks.
package dice

import "fmt"

// RollOutcome holds the full audit trail for one evaluated dice roll.
//
// Postcondition: Total == sum(Selected) + Modifier.
type RollOutcome struct {
	Notation string // original notation string, e.g. "4d6kh3"
	Rolls    []int  // roll set after any advantage/disadvantage collapse
	Selected []int  // rolls retained by the keep policy; equals Rolls when none
	Modifier int    // flat modifier (may be negative)
	Total    int    // sum(Selected) + Modifier

	// Advantage and Disadvantage echo the requested flags even when the
	// expression is not a single d20 and the flags had no mechanical effect.
	Advantage    bool
	Disadvantage bool

	// AdvantagePair holds both raw d20 results when advantage or disadvantage
	// collapsed two rolls into one kept value. Nil otherwise (including the
	// case where both flags were set and cancelled out).
	AdvantagePair []int
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Precondition: o.Notation is non-empty.
func (o RollOutcome) String() string {
	if o.Notation == "" {
		panic("dice: RollOutcome.String() precondition violated: Notation must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", o.Notation, o.Selected, o.Modifier, o.Total)
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
