package alert

import "stock-alert-bot/internal/types"

// Evaluate reports whether the alert condition holds for the given price.
// A nil current price means the last resolution failed; the condition is
// then not evaluated at all. Equality never fires.
func Evaluate(current *float64, operator types.Operator, target float64) bool {
	if current == nil {
		return false
	}
	switch operator {
	case types.GreaterThan:
		return *current > target
	case types.LessThan:
		return *current < target
	}
	return false
}
