package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger. Every roll and chance check made through
// it is logged at debug level, which makes seed replays auditable.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn satisfies Source so a Roller can be passed anywhere a Source is expected.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// Roll evaluates expr and logs the result.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Chance performs a logged probability check.
func (r *Roller) Chance(reason string, p float64) bool {
	ok := Chance(r.src, p)
	r.logger.Debug("chance check",
		zap.String("reason", reason),
		zap.Float64("p", p),
		zap.Bool("success", ok),
	)
	return ok
}
