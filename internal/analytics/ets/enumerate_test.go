package ets

import "testing"

func TestEnumerate(t *testing.T) {
	tests := []struct {
		name     string
		period   int
		n        int
		positive bool
		expected int
	}{
		{"non-seasonal, any sign", 1, 50, false, 5},
		{"non-seasonal, positive", 1, 50, true, 10},
		{"seasonal, any sign", 4, 50, false, 10},
		{"seasonal, positive", 4, 50, true, 30},
		{"seasonal period too long for series", 12, 20, true, 10},
		{"period one is never seasonal", 1, 100, true, 10},
		{"two observations", 1, 2, false, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := Enumerate(tt.period, tt.n, tt.positive)
			if len(specs) != tt.expected {
				t.Fatalf("expected %d specs, got %d: %v", tt.expected, len(specs), specs)
			}
			if specs[0] != FallbackSpec() {
				t.Errorf("expected fallback first, got %s", specs[0])
			}
			for i, s := range specs {
				if i > 0 && !specs[i-1].Less(s) {
					t.Errorf("not in Less order: %s then %s", specs[i-1], s)
				}
				if !tt.positive && (s.Error == ErrorMultiplicative || s.Season == SeasonMultiplicative) {
					t.Errorf("multiplicative spec %s for non-positive data", s)
				}
				if s.HasSeason() && (tt.period < 2 || tt.n < 2*tt.period) {
					t.Errorf("seasonal spec %s without enough data", s)
				}
			}
		})
	}
}

func TestEnumerate_IsPure(t *testing.T) {
	a := Enumerate(4, 40, true)
	b := Enumerate(4, 40, true)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("position %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}
