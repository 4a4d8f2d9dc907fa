package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/autoets/internal/analytics"
	"github.com/soltixdb/autoets/internal/analytics/anomaly"
	"github.com/soltixdb/autoets/internal/analytics/ets"
	"github.com/soltixdb/autoets/internal/analytics/forecast"
	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/storage"
	"github.com/soltixdb/autoets/internal/utils"
)

// DefaultMethod is used when a request names no forecaster
const DefaultMethod = "auto"

// ForecastService fits ETS models, stores them and forecasts from them
type ForecastService struct {
	logger     *logging.Logger
	store      storage.ModelStore
	config     forecast.ForecastConfig
	maxHorizon int
	now        func() time.Time
}

// NewForecastService creates a new ForecastService
func NewForecastService(logger *logging.Logger, store storage.ModelStore, cfg config.ETSConfig) *ForecastService {
	return &ForecastService{
		logger:     logger,
		store:      store,
		config:     ForecastConfigFromETS(cfg, logger),
		maxHorizon: cfg.MaxHorizon,
		now:        time.Now,
	}
}

// ForecastConfigFromETS translates the ets configuration section into the
// selector, optimizer and simulation settings of the engine.
func ForecastConfigFromETS(cfg config.ETSConfig, logger *logging.Logger) forecast.ForecastConfig {
	fc := forecast.DefaultForecastConfig()
	if len(cfg.DefaultLevels) > 0 {
		fc.Levels = append([]float64(nil), cfg.DefaultLevels...)
	}
	fc.Selection = ets.SelectorConfig{
		Workers:           cfg.Workers,
		MinResidualDF:     cfg.MinResidualDF,
		MaxSeasonalPeriod: cfg.MaxSeasonalPeriod,
		Optimizer: ets.OptimizerConfig{
			MaxIterations:  cfg.MaxIterations,
			MaxEvaluations: cfg.MaxEvaluations,
			Tolerance:      cfg.Tolerance,
		},
		Logger: logger,
	}
	fc.Simulation = ets.ForecastConfig{
		SimulationPaths: cfg.SimulationPaths,
		Seed:            cfg.Seed,
	}
	return fc
}

// Series is an observed time series. Times is optional; when set it holds
// one increasing time stamp per value.
type Series struct {
	Values         []float64
	Times          []time.Time
	SeasonalPeriod int
	Interval       time.Duration // Spacing of forecast time stamps (0 = infer)
}

// FitRequest represents a request to fit and store a model
type FitRequest struct {
	Series
	Method string
}

// FitResponse describes a stored model
type FitResponse struct {
	ModelID   string           `json:"model_id"`
	Method    string           `json:"method"`
	Summary   ets.ModelSummary `json:"summary"`
	CreatedAt string           `json:"created_at"`
}

// ForecastRequest forecasts either a stored model (ModelID) or a model
// fitted on the inline Series.
type ForecastRequest struct {
	Series

	ModelID string
	Method  string
	Horizon int
	Levels  []float64

	// Store keeps the model fitted from an inline series
	Store bool
	// AnomalyThreshold > 0 flags inline observations whose innovation
	// exceeds this many standard deviations
	AnomalyThreshold float64
}

// ForecastResponse represents the complete forecast response
type ForecastResponse struct {
	ModelID     string                   `json:"model_id,omitempty"`
	Method      string                   `json:"method"`
	Horizon     int                      `json:"horizon"`
	Predictions []forecast.ForecastPoint `json:"predictions"`
	Fitted      []float64                `json:"fitted,omitempty"`
	Residuals   []float64                `json:"residuals,omitempty"`
	ModelInfo   forecast.ModelInfo       `json:"model_info"`
	Summary     *ets.ModelSummary        `json:"summary,omitempty"`
	Anomalies   []anomaly.Anomaly        `json:"anomalies,omitempty"`
}

// ModelDetails describes a stored model
type ModelDetails struct {
	ModelID   string           `json:"model_id"`
	Method    string           `json:"method"`
	Summary   ets.ModelSummary `json:"summary"`
	LastTime  string           `json:"last_time,omitempty"`
	Interval  string           `json:"interval,omitempty"`
	CreatedAt string           `json:"created_at"`
}

// MethodInfo describes a registered forecaster
type MethodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Methods lists the registered forecasters in name order
func (s *ForecastService) Methods() []MethodInfo {
	names := forecast.ListForecasters()
	methods := make([]MethodInfo, 0, len(names))
	for _, name := range names {
		f, err := forecast.GetForecaster(name)
		if err != nil {
			continue
		}
		methods = append(methods, MethodInfo{Name: name, Description: f.Description()})
	}
	return methods
}

// Fit fits a model with the requested method and stores it
func (s *ForecastService) Fit(ctx context.Context, req *FitRequest) (*FitResponse, error) {
	start := time.Now()

	forecaster, err := s.forecaster(req.Method)
	if err != nil {
		return nil, err
	}
	data, err := s.points(req.Series)
	if err != nil {
		return nil, err
	}

	cfg := s.forecastConfig(req.Series)
	model, err := forecaster.Fit(ctx, req.Values, cfg)
	if err != nil {
		s.logger.Warn("Model fit failed", "method", forecaster.Name(), "n", len(req.Values), "error", err)
		return nil, toServiceError(err)
	}

	rec, err := s.save(ctx, forecaster.Name(), model, data, req.Interval)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Model fitted",
		"model_id", rec.ID,
		"method", rec.Method,
		"model", model.String(),
		"n", len(req.Values),
		"latency_ms", time.Since(start).Milliseconds())

	return &FitResponse{
		ModelID:   rec.ID,
		Method:    rec.Method,
		Summary:   ets.Summarize(model),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}, nil
}

// Forecast forecasts a stored model or fits one on the inline series first
func (s *ForecastService) Forecast(ctx context.Context, req *ForecastRequest) (*ForecastResponse, error) {
	if err := s.validateForecast(req); err != nil {
		return nil, err
	}
	if req.ModelID != "" {
		return s.forecastStored(ctx, req)
	}
	return s.forecastInline(ctx, req)
}

func (s *ForecastService) forecastStored(ctx context.Context, req *ForecastRequest) (*ForecastResponse, error) {
	ctx = logging.WithModelID(ctx, req.ModelID)

	rec, err := s.store.Load(ctx, req.ModelID)
	if err != nil {
		return nil, toServiceError(err)
	}
	model, err := rec.Model()
	if err != nil {
		s.logger.WithContext(ctx).Error("Stored model is corrupt", "error", err)
		return nil, toServiceError(err)
	}

	cfg := s.config
	cfg.Horizon = req.Horizon
	cfg.Levels = s.levels(req.Levels)
	cfg.Interval = rec.Interval
	if rec.LastTime != nil {
		cfg.Origin = *rec.LastTime
	}

	result, err := forecast.Predict(model, nil, cfg)
	if err != nil {
		return nil, toServiceError(err)
	}
	result.ModelInfo.Algorithm = rec.Method

	s.logger.WithContext(ctx).Debug("Forecast from stored model", "horizon", req.Horizon)
	return newForecastResponse(rec.ID, rec.Method, req.Horizon, result, nil), nil
}

func (s *ForecastService) forecastInline(ctx context.Context, req *ForecastRequest) (*ForecastResponse, error) {
	start := time.Now()

	forecaster, err := s.forecaster(req.Method)
	if err != nil {
		return nil, err
	}
	data, err := s.points(req.Series)
	if err != nil {
		return nil, err
	}

	cfg := s.forecastConfig(req.Series)
	cfg.Horizon = req.Horizon
	cfg.Levels = s.levels(req.Levels)

	model, err := forecaster.Fit(ctx, req.Values, cfg)
	if err != nil {
		s.logger.Warn("Model fit failed", "method", forecaster.Name(), "n", len(req.Values), "error", err)
		return nil, toServiceError(err)
	}
	result, err := forecast.Predict(model, data, cfg)
	if err != nil {
		return nil, toServiceError(err)
	}
	result.ModelInfo.Algorithm = forecaster.Name()

	var anomalies []anomaly.Anomaly
	if req.AnomalyThreshold > 0 {
		anomalies, err = anomaly.Detect(model, data, anomaly.DetectorConfig{Threshold: req.AnomalyThreshold})
		if err != nil {
			return nil, toServiceError(err)
		}
	}

	modelID := ""
	if req.Store {
		rec, err := s.save(ctx, forecaster.Name(), model, data, req.Interval)
		if err != nil {
			return nil, err
		}
		modelID = rec.ID
	}

	s.logger.Info("Forecast completed",
		"method", forecaster.Name(),
		"model", model.String(),
		"n", len(req.Values),
		"horizon", req.Horizon,
		"anomalies", len(anomalies),
		"latency_ms", time.Since(start).Milliseconds())

	return newForecastResponse(modelID, forecaster.Name(), req.Horizon, result, anomalies), nil
}

// Summary returns the description of a stored model
func (s *ForecastService) Summary(ctx context.Context, id string) (*ModelDetails, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, toServiceError(err)
	}
	model, err := rec.Model()
	if err != nil {
		return nil, toServiceError(err)
	}

	details := &ModelDetails{
		ModelID:   rec.ID,
		Method:    rec.Method,
		Summary:   ets.Summarize(model),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.LastTime != nil {
		details.LastTime = rec.LastTime.Format(time.RFC3339)
	}
	if rec.Interval > 0 {
		details.Interval = rec.Interval.String()
	}
	return details, nil
}

// Delete removes a stored model
func (s *ForecastService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return toServiceError(err)
	}
	s.logger.Info("Model deleted", "model_id", id)
	return nil
}

func (s *ForecastService) forecaster(method string) (forecast.Forecaster, error) {
	if method == "" {
		method = DefaultMethod
	}
	f, err := forecast.GetForecaster(method)
	if err != nil {
		return nil, NewServiceErrorWithDetails(ErrCodeInvalidMethod, err.Error(), map[string]interface{}{
			"available_methods": forecast.ListForecasters(),
		})
	}
	return f, nil
}

// points validates the series shape and pairs values with their times.
// The engine validates the values themselves.
func (s *ForecastService) points(series Series) ([]forecast.DataPoint, error) {
	if len(series.Values) > utils.MaxSeriesLength {
		return nil, NewServiceError(ErrCodeInvalidInput,
			fmt.Sprintf("series has %d values, at most %d are accepted", len(series.Values), utils.MaxSeriesLength))
	}
	if len(series.Times) > 0 && len(series.Times) != len(series.Values) {
		return nil, NewServiceError(ErrCodeInvalidInput,
			fmt.Sprintf("got %d timestamps for %d values", len(series.Times), len(series.Values)))
	}
	if series.SeasonalPeriod < 0 {
		return nil, NewServiceError(ErrCodeInvalidInput, ets.ErrInvalidPeriod.Error())
	}
	if series.Interval < 0 {
		return nil, NewServiceError(ErrCodeInvalidInput, "interval cannot be negative")
	}

	data := make([]forecast.DataPoint, len(series.Values))
	for i, v := range series.Values {
		data[i].Value = v
		if len(series.Times) > 0 {
			if i > 0 && !series.Times[i].After(series.Times[i-1]) {
				return nil, NewServiceError(ErrCodeInvalidInput, "timestamps must be strictly increasing")
			}
			data[i].Time = series.Times[i]
		}
	}
	return data, nil
}

func (s *ForecastService) validateForecast(req *ForecastRequest) error {
	if req.ModelID == "" && len(req.Values) == 0 {
		return NewServiceError(ErrCodeInvalidInput, "either model_id or values is required")
	}
	if req.ModelID != "" && len(req.Values) > 0 {
		return NewServiceError(ErrCodeInvalidInput, "model_id and values cannot be combined")
	}
	if req.Horizon < 1 {
		return NewServiceError(ErrCodeInvalidInput, ets.ErrInvalidHorizon.Error())
	}
	if s.maxHorizon > 0 && req.Horizon > s.maxHorizon {
		return NewServiceError(ErrCodeInvalidInput,
			fmt.Sprintf("horizon %d exceeds the maximum of %d", req.Horizon, s.maxHorizon))
	}
	if len(req.Levels) > utils.MaxLevels {
		return NewServiceError(ErrCodeInvalidInput,
			fmt.Sprintf("at most %d interval levels are accepted", utils.MaxLevels))
	}
	if req.AnomalyThreshold < 0 {
		return NewServiceError(ErrCodeInvalidInput, "anomaly_threshold cannot be negative")
	}
	return nil
}

func (s *ForecastService) forecastConfig(series Series) forecast.ForecastConfig {
	cfg := s.config
	cfg.SeasonalPeriod = series.SeasonalPeriod
	if cfg.SeasonalPeriod == 0 {
		cfg.SeasonalPeriod = 1
	}
	cfg.Interval = series.Interval
	return cfg
}

func (s *ForecastService) levels(levels []float64) []float64 {
	if len(levels) == 0 {
		return s.config.Levels
	}
	return levels
}

func (s *ForecastService) save(ctx context.Context, method string, model *ets.FittedModel, data []forecast.DataPoint, interval time.Duration) (*storage.ModelRecord, error) {
	rec := &storage.ModelRecord{
		ID:        uuid.New().String(),
		Method:    method,
		Snapshot:  model.Snapshot(),
		Interval:  interval,
		CreatedAt: s.now().UTC(),
	}
	if n := len(data); n > 0 && !data[n-1].Time.IsZero() {
		last := data[n-1].Time
		rec.LastTime = &last
		if rec.Interval <= 0 {
			rec.Interval = analytics.TimeSeriesData(data).Interval(0)
		}
	}

	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Error("Failed to store model", "model_id", rec.ID, "error", err)
		return nil, NewServiceErrorWithDetails(ErrCodeForecastFailed, "Failed to store model", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return rec, nil
}

func newForecastResponse(modelID, method string, horizon int, result *forecast.ForecastResult, anomalies []anomaly.Anomaly) *ForecastResponse {
	return &ForecastResponse{
		ModelID:     modelID,
		Method:      method,
		Horizon:     horizon,
		Predictions: result.Predictions,
		Fitted:      result.Fitted,
		Residuals:   result.Residuals,
		ModelInfo:   result.ModelInfo,
		Summary:     result.Summary,
		Anomalies:   anomalies,
	}
}
