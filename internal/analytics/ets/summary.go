package ets

import "fmt"

// ModelSummary is the read-only description of a fitted model exposed to
// callers and persisted next to the model.
type ModelSummary struct {
	Spec           string             `json:"spec"`
	ErrorKind      string             `json:"error_kind"`
	TrendKind      string             `json:"trend_kind"`
	SeasonKind     string             `json:"season_kind"`
	Damped         bool               `json:"damped"`
	SeasonalPeriod int                `json:"seasonal_period"`
	Parameters     map[string]float64 `json:"parameters"`
	AICc           float64            `json:"aicc"`
	AIC            float64            `json:"aic"`
	BIC            float64            `json:"bic"`
	Sigma2         float64            `json:"sigma2"`
	LogLik         float64            `json:"log_likelihood"`
	N              int                `json:"n"`
	NumParams      int                `json:"num_params"`
}

// Summarize describes model. Parameters holds the smoothing parameters the
// model uses and its initial states (l0, b0, s0_j).
func Summarize(model *FittedModel) ModelSummary {
	spec := model.spec
	params := map[string]float64{"alpha": model.params.Alpha}
	if spec.HasTrend() {
		params["beta"] = model.params.Beta
	}
	if spec.HasSeason() {
		params["gamma"] = model.params.Gamma
	}
	if spec.Damped {
		params["phi"] = model.params.Phi
	}
	params["l0"] = model.initial.Level
	if spec.HasTrend() {
		params["b0"] = model.initial.Trend
	}
	for j, s := range model.initial.Season {
		params[fmt.Sprintf("s0_%d", j)] = s
	}

	period := 1
	if spec.HasSeason() {
		period = len(model.initial.Season)
	}
	return ModelSummary{
		Spec:           spec.String(),
		ErrorKind:      spec.Error.Name(),
		TrendKind:      spec.Trend.Name(),
		SeasonKind:     spec.Season.Name(),
		Damped:         spec.Damped,
		SeasonalPeriod: period,
		Parameters:     params,
		AICc:           model.aicc,
		AIC:            model.aic,
		BIC:            model.bic,
		Sigma2:         model.sigma2,
		LogLik:         model.logLik,
		N:              model.n,
		NumParams:      model.k,
	}
}
