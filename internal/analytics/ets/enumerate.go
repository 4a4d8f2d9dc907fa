package ets

// fallbackSpec is always a candidate so that selection cannot come up empty
// for a valid series.
var fallbackSpec = Spec{Error: ErrorAdditive, Trend: TrendNone, Season: SeasonNone}

// FallbackSpec returns ETS(A,N,N), the model every selection includes.
func FallbackSpec() Spec { return fallbackSpec }

// Enumerate returns the admissible specifications for a series of length n
// with the given seasonal period, in Less order with the fallback first.
// positive must report whether every observation is strictly positive.
func Enumerate(period, n int, positive bool) []Spec {
	seasonal := period >= 2 && n >= 2*period

	specs := []Spec{fallbackSpec}
	for _, spec := range AllSpecs() {
		if spec == fallbackSpec {
			continue
		}
		if !positive && (spec.Error == ErrorMultiplicative || spec.Season == SeasonMultiplicative) {
			continue
		}
		if spec.HasSeason() && !seasonal {
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}
