package dice

import "sort"

// Roll draws the raw roll set for expr: Count independent uniform values in
// [1, Sides]. No keep policy is applied here.
//
// Precondition: expr must come from Parse (Count >= 1, Sides >= 1); src must
// be non-nil.
// Postcondition: len(result) == expr.Count; every value is in [1, expr.Sides].
func Roll(expr Expression, src Source) []int {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return rolled
}

// Evaluate parses notation and resolves the full roll policy:
//
//  1. Advantage and disadvantage together cancel; roll normally.
//  2. Advantage on exactly 1d20: roll two d20s, keep the maximum, record both
//     in AdvantagePair.
//  3. Disadvantage on exactly 1d20: same, keeping the minimum.
//  4. Otherwise roll normally; the flags are echoed in the outcome but have
//     no mechanical effect on non-single-d20 expressions.
//
// The keep policy (kh/kl) is then applied to the resulting roll set, and
// Total = sum(Selected) + Modifier. Totals may be negative.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a RollOutcome or an error wrapping ErrInvalidNotation.
func Evaluate(notation string, advantage, disadvantage bool, src Source) (RollOutcome, error) {
	expr, err := Parse(notation)
	if err != nil {
		return RollOutcome{}, err
	}

	var rolls []int
	var pair []int
	singleD20 := expr.Count == 1 && expr.Sides == 20

	switch {
	case advantage && disadvantage:
		rolls = Roll(expr, src)
	case advantage && singleD20:
		a, b := src.Intn(20)+1, src.Intn(20)+1
		pair = []int{a, b}
		rolls = []int{max(a, b)}
	case disadvantage && singleD20:
		a, b := src.Intn(20)+1, src.Intn(20)+1
		pair = []int{a, b}
		rolls = []int{min(a, b)}
	default:
		rolls = Roll(expr, src)
	}

	selected := applyKeep(rolls, expr.Keep, expr.KeepN)

	total := expr.Modifier
	for _, r := range selected {
		total += r
	}

	return RollOutcome{
		Notation:      notation,
		Rolls:         rolls,
		Selected:      selected,
		Modifier:      expr.Modifier,
		Total:         total,
		Advantage:     advantage,
		Disadvantage:  disadvantage,
		AdvantagePair: pair,
	}, nil
}

// Quick parses notation and rolls it with no advantage handling, applying
// only the keep policy and modifier. This backs the quick-roll entry point.
//
// Precondition: src must be non-nil.
func Quick(notation string, src Source) (RollOutcome, error) {
	return Evaluate(notation, false, false, src)
}

// applyKeep returns the subset of rolls retained by the keep policy:
// the n highest (sorted descending) or the n lowest (sorted ascending).
// A KeepAll policy returns rolls unchanged.
func applyKeep(rolls []int, keep Keep, n int) []int {
	if keep == KeepAll {
		return rolls
	}
	sorted := make([]int, len(rolls))
	copy(sorted, rolls)
	if keep == KeepHighest {
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	} else {
		sort.Ints(sorted)
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
