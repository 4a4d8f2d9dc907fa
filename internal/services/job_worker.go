package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/queue"
	"github.com/soltixdb/autoets/internal/utils"
)

// Job result states
const (
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// ForecastJob is a forecast request received over the queue
type ForecastJob struct {
	ID               string      `json:"id"`
	ModelID          string      `json:"model_id,omitempty"`
	Values           []float64   `json:"values,omitempty"`
	Timestamps       []time.Time `json:"timestamps,omitempty"`
	SeasonalPeriod   int         `json:"seasonal_period,omitempty"`
	Interval         string      `json:"interval,omitempty"` // Go duration, e.g. "1h"
	Method           string      `json:"method,omitempty"`
	Horizon          int         `json:"horizon"`
	Levels           []float64   `json:"levels,omitempty"`
	Store            bool        `json:"store,omitempty"`
	AnomalyThreshold float64     `json:"anomaly_threshold,omitempty"`
}

// ForecastJobResult is published to the result subject for every job
type ForecastJobResult struct {
	JobID       string            `json:"job_id"`
	Status      string            `json:"status"`
	Result      *ForecastResponse `json:"result,omitempty"`
	Error       *ServiceError     `json:"error,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// JobWorker consumes forecast jobs from a queue and publishes their results
type JobWorker struct {
	logger         *logging.Logger
	service        *ForecastService
	queue          queue.Queue
	requestSubject string
	resultSubject  string
	timeout        time.Duration
}

// NewJobWorker creates a worker for the subjects named in cfg
func NewJobWorker(logger *logging.Logger, service *ForecastService, q queue.Queue, cfg config.QueueConfig) *JobWorker {
	return &JobWorker{
		logger:         logger,
		service:        service,
		queue:          q,
		requestSubject: cfg.RequestSubject,
		resultSubject:  cfg.ResultSubject,
		timeout:        utils.JobTimeout,
	}
}

// Start subscribes to the request subject
func (w *JobWorker) Start() error {
	if err := w.queue.Subscribe(w.requestSubject, w.handle); err != nil {
		return fmt.Errorf("failed to start job worker: %w", err)
	}
	w.logger.Info("Job worker started", "request_subject", w.requestSubject, "result_subject", w.resultSubject)
	return nil
}

// Stop unsubscribes from the request subject
func (w *JobWorker) Stop() error {
	return w.queue.Unsubscribe(w.requestSubject)
}

// handle runs one job. Only a failure to publish the result is returned to
// the queue for redelivery; rejected and failed jobs are answered with a
// failed result instead.
func (w *JobWorker) handle(data []byte) error {
	var job ForecastJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.logger.Warn("Discarding malformed job", "error", err)
		return w.publish(&ForecastJobResult{
			Status: JobStatusFailed,
			Error:  NewServiceError(ErrCodeInvalidInput, "malformed job: "+err.Error()),
		})
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	ctx = logging.WithJobID(ctx, job.ID)
	log := w.logger.WithContext(ctx)

	start := time.Now()
	result := &ForecastJobResult{JobID: job.ID}

	resp, err := w.run(ctx, &job)
	if err != nil {
		se := toServiceError(err)
		result.Status = JobStatusFailed
		result.Error = se
		log.Warn("Forecast job failed", "code", se.Code, "error", se.Message)
	} else {
		result.Status = JobStatusSucceeded
		result.Result = resp
		log.Info("Forecast job completed", "method", resp.Method, "horizon", resp.Horizon,
			"latency_ms", time.Since(start).Milliseconds())
	}

	return w.publish(result)
}

func (w *JobWorker) run(ctx context.Context, job *ForecastJob) (*ForecastResponse, error) {
	req, err := job.request()
	if err != nil {
		return nil, err
	}
	return w.service.Forecast(ctx, req)
}

func (w *JobWorker) publish(result *ForecastJobResult) error {
	result.CompletedAt = time.Now().UTC()
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.DefaultRequestTimeout)
	defer cancel()
	if err := w.queue.Publish(ctx, w.resultSubject, payload); err != nil {
		w.logger.Error("Failed to publish job result", "job_id", result.JobID, "error", err)
		return err
	}
	return nil
}

// request converts the job into a service request
func (j *ForecastJob) request() (*ForecastRequest, error) {
	var interval time.Duration
	if j.Interval != "" {
		d, err := time.ParseDuration(j.Interval)
		if err != nil {
			return nil, NewServiceError(ErrCodeInvalidInput, fmt.Sprintf("invalid interval %q", j.Interval))
		}
		interval = d
	}

	return &ForecastRequest{
		Series: Series{
			Values:         j.Values,
			Times:          j.Timestamps,
			SeasonalPeriod: j.SeasonalPeriod,
			Interval:       interval,
		},
		ModelID:          j.ModelID,
		Method:           j.Method,
		Horizon:          j.Horizon,
		Levels:           j.Levels,
		Store:            j.Store,
		AnomalyThreshold: j.AnomalyThreshold,
	}, nil
}
