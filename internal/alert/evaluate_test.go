package alert

import (
	"testing"

	"stock-alert-bot/internal/types"
)

func ptr(v float64) *float64 { return &v }

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		current  *float64
		operator types.Operator
		target   float64
		want     bool
	}{
		{"nil current never fires", nil, types.GreaterThan, 100.0, false},
		{"nil current never fires less than", nil, types.LessThan, 100.0, false},
		{"greater than equal boundary", ptr(100.0), types.GreaterThan, 100.0, false},
		{"greater than just above", ptr(100.01), types.GreaterThan, 100.0, true},
		{"greater than below", ptr(99.99), types.GreaterThan, 100.0, false},
		{"less than just below", ptr(99.99), types.LessThan, 100.0, true},
		{"less than equal boundary", ptr(100.0), types.LessThan, 100.0, false},
		{"less than above", ptr(100.01), types.LessThan, 100.0, false},
		{"unknown operator", ptr(50.0), types.Operator("between"), 100.0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.current, tc.operator, tc.target); got != tc.want {
				t.Errorf("Evaluate(%v, %s, %v) = %v, want %v", tc.current, tc.operator, tc.target, got, tc.want)
			}
		})
	}
}
