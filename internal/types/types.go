package types

// Operator is the comparison applied between the current and target price.
type Operator string

const (
	LessThan    Operator = "less_than"
	GreaterThan Operator = "greater_than"
)

// Label returns the Chinese display form of the operator.
func (o Operator) Label() string {
	if o == GreaterThan {
		return "高於"
	}
	return "低於"
}

// Alert is one price alert. Tickers are unique: re-registering a ticker
// replaces the previous alert entirely.
type Alert struct {
	ID           int64    `json:"id"`
	Ticker       string   `json:"ticker"`
	Operator     Operator `json:"operator"`
	TargetPrice  float64  `json:"target_price"`
	CurrentPrice *float64 `json:"current_price"` // nil until a resolution succeeds
	Notified     bool     `json:"notified"`
	CreatedAt    string   `json:"created_at"`
}
