package models

import "testing"

func TestStatusForBalance(t *testing.T) {
	cases := []struct {
		name     string
		balance  float64
		initial  float64
		expected GasTankStatus
	}{
		{"full tank", 100, 100, GasTankActive},
		{"above low threshold", 50, 100, GasTankActive},
		{"exactly 30 percent", 30, 100, GasTankActive},
		{"just below 30 percent", 29.99, 100, GasTankLow},
		{"exactly 20 percent", 20, 100, GasTankLow},
		{"just below 20 percent", 19.99, 100, GasTankCritical},
		{"nearly empty", 0.01, 100, GasTankCritical},
		{"zero balance", 0, 100, GasTankEmpty},
		{"negative balance", -1, 100, GasTankEmpty},
		{"zero initial balance", 5, 0, GasTankActive},
		{"grown past initial", 250, 100, GasTankActive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := StatusForBalance(tc.balance, tc.initial)
			if got != tc.expected {
				t.Fatalf("StatusForBalance(%v, %v) = %s, want %s",
					tc.balance, tc.initial, got, tc.expected)
			}
		})
	}
}
