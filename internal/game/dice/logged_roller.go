package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so every roll leaves an audit trail.
// All rolls are logged at debug level with notation, dice values, modifier,
// and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to
// logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source exposes the underlying randomness provider for callers that need
// raw draws (e.g. initiative).
func (r *Roller) Source() Source {
	return r.src
}

// Evaluate resolves notation with the full advantage/keep policy and logs the
// outcome at debug level.
//
// Postcondition: outcome logged on success; returns a RollOutcome or an error
// wrapping ErrInvalidNotation.
func (r *Roller) Evaluate(notation string, advantage, disadvantage bool) (RollOutcome, error) {
	out, err := Evaluate(notation, advantage, disadvantage, r.src)
	if err != nil {
		return RollOutcome{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("notation", out.Notation),
		zap.Ints("rolls", out.Rolls),
		zap.Ints("selected", out.Selected),
		zap.Int("modifier", out.Modifier),
		zap.Int("total", out.Total),
		zap.Bool("advantage", out.Advantage),
		zap.Bool("disadvantage", out.Disadvantage),
	)
	return out, nil
}

// Quick resolves notation with no advantage handling, logging the outcome.
func (r *Roller) Quick(notation string) (RollOutcome, error) {
	return r.Evaluate(notation, false, false)
}
