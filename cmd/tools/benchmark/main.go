package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	BaseURL        string
	Method         string
	SeriesLength   int
	SeasonalPeriod int
	Horizon        int
	Duration       time.Duration
	InlineWorkers  int
	StoredWorkers  int
	NumModels      int
	APIKey         string
	OutputDir      string
	HTTPClient     *http.Client // Shared HTTP client for connection pooling
}

// Metrics holds latencies and counters for one kind of operation
type Metrics struct {
	Latencies  []float64
	Errors     int64
	Success    int64
	FirstError string
	mu         sync.Mutex
}

func (m *Metrics) record(latency float64, err error) {
	m.mu.Lock()
	m.Latencies = append(m.Latencies, latency)
	if err != nil && m.FirstError == "" {
		m.FirstError = err.Error()
	}
	m.mu.Unlock()

	if err != nil {
		atomic.AddInt64(&m.Errors, 1)
	} else {
		atomic.AddInt64(&m.Success, 1)
	}
}

// Result represents benchmark results
type Result struct {
	Operation  string
	TotalOps   int64
	SuccessOps int64
	ErrorOps   int64
	Duration   time.Duration
	Throughput float64 // ops/sec
	AvgLatency float64 // ms
	MinLatency float64 // ms
	MaxLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	ErrorMsg   string  // First error message
}

func main() {
	// Parse flags
	config := BenchmarkConfig{}
	flag.StringVar(&config.BaseURL, "url", "http://127.0.0.1:5555", "Base URL of the API")
	flag.StringVar(&config.Method, "method", "auto", "Forecasting method sent with every request")
	flag.IntVar(&config.SeriesLength, "length", 120, "Observations per generated series")
	flag.IntVar(&config.SeasonalPeriod, "period", 12, "Seasonal period of generated series")
	flag.IntVar(&config.Horizon, "horizon", 24, "Forecast horizon")
	flag.DurationVar(&config.Duration, "duration", 60*time.Second, "Benchmark duration")
	flag.IntVar(&config.InlineWorkers, "inline-workers", 4, "Workers that fit and forecast in one request")
	flag.IntVar(&config.StoredWorkers, "stored-workers", 4, "Workers that forecast from stored models")
	flag.IntVar(&config.NumModels, "models", 10, "Models fitted up front for the stored workers")
	flag.StringVar(&config.APIKey, "api-key", "", "API key for authentication")
	flag.StringVar(&config.OutputDir, "out", "benchmark_results", "Directory for the results file")
	flag.Parse()

	config.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	fmt.Printf("=== AutoETS Benchmark Tool ===\n")
	printConfig(os.Stdout, config)
	fmt.Printf("\n")

	var modelIDs []string
	if config.StoredWorkers > 0 {
		var err error
		modelIDs, err = fitModels(config)
		if err != nil {
			fmt.Printf("Failed to fit models: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Fitted %d models\n", len(modelIDs))
	}

	inline, stored := runBenchmark(config, modelIDs)

	inlineResult := calculateResult("Inline forecast", inline, config.Duration)
	storedResult := calculateResult("Stored forecast", stored, config.Duration)

	fmt.Printf("\n=== Benchmark Results ===\n\n")
	writeResult(os.Stdout, inlineResult)
	fmt.Println()
	writeResult(os.Stdout, storedResult)

	saveResults(config, inlineResult, storedResult)
}

func printConfig(w io.Writer, config BenchmarkConfig) {
	_, _ = fmt.Fprintf(w, "Configuration:\n")
	_, _ = fmt.Fprintf(w, "  URL: %s\n", config.BaseURL)
	_, _ = fmt.Fprintf(w, "  Method: %s\n", config.Method)
	_, _ = fmt.Fprintf(w, "  Series Length: %d\n", config.SeriesLength)
	_, _ = fmt.Fprintf(w, "  Seasonal Period: %d\n", config.SeasonalPeriod)
	_, _ = fmt.Fprintf(w, "  Horizon: %d\n", config.Horizon)
	_, _ = fmt.Fprintf(w, "  Duration: %s\n", config.Duration)
	_, _ = fmt.Fprintf(w, "  Inline Workers: %d\n", config.InlineWorkers)
	_, _ = fmt.Fprintf(w, "  Stored Workers: %d\n", config.StoredWorkers)
	_, _ = fmt.Fprintf(w, "  Models: %d\n", config.NumModels)
}

// generateSeries returns a positive trending seasonal series with noise
func generateSeries(rng *rand.Rand, n, period int) []float64 {
	values := make([]float64, n)
	base := 50 + rng.Float64()*50
	slope := rng.Float64() * 0.5
	amplitude := 5 + rng.Float64()*10
	for i := range values {
		season := 0.0
		if period > 1 {
			season = amplitude * math.Sin(2*math.Pi*float64(i)/float64(period))
		}
		values[i] = base + slope*float64(i) + season + rng.NormFloat64()*2
	}
	return values
}

func fitModels(config BenchmarkConfig) ([]string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ids := make([]string, 0, config.NumModels)

	for i := 0; i < config.NumModels; i++ {
		payload := map[string]interface{}{
			"values":          generateSeries(rng, config.SeriesLength, config.SeasonalPeriod),
			"seasonal_period": config.SeasonalPeriod,
			"method":          config.Method,
		}

		var resp struct {
			ModelID string `json:"model_id"`
		}
		if err := makeRequest(config, "POST", config.BaseURL+"/v1/models", payload, &resp); err != nil {
			return nil, fmt.Errorf("fit model %d: %w", i, err)
		}
		ids = append(ids, resp.ModelID)
	}
	return ids, nil
}

func runBenchmark(config BenchmarkConfig, modelIDs []string) (*Metrics, *Metrics) {
	inline := &Metrics{Latencies: make([]float64, 0, 1000)}
	stored := &Metrics{Latencies: make([]float64, 0, 10000)}

	var wg sync.WaitGroup
	stopCh := make(chan struct{})
	startTime := time.Now()

	for i := 0; i < config.InlineWorkers; i++ {
		wg.Add(1)
		go inlineWorker(int64(i), config, inline, stopCh, &wg)
	}

	if len(modelIDs) > 0 {
		for i := 0; i < config.StoredWorkers; i++ {
			wg.Add(1)
			go storedWorker(i, config, modelIDs, stored, stopCh, &wg)
		}
	}

	// Progress reporter
	go progressReporter(inline, stored, config.Duration, startTime)

	// Wait for duration
	time.Sleep(config.Duration)
	close(stopCh)
	wg.Wait()

	return inline, stored
}

func inlineWorker(id int64, config BenchmarkConfig, metrics *Metrics, stopCh chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + id))
	url := config.BaseURL + "/v1/forecast"

	for {
		select {
		case <-stopCh:
			return
		default:
			payload := map[string]interface{}{
				"values":          generateSeries(rng, config.SeriesLength, config.SeasonalPeriod),
				"seasonal_period": config.SeasonalPeriod,
				"method":          config.Method,
				"horizon":         config.Horizon,
			}

			start := time.Now()
			err := makeRequest(config, "POST", url, payload, nil)
			metrics.record(time.Since(start).Seconds()*1000, err)
		}
	}
}

func storedWorker(id int, config BenchmarkConfig, modelIDs []string, metrics *Metrics, stopCh chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	payload := map[string]interface{}{"horizon": config.Horizon}
	next := id

	for {
		select {
		case <-stopCh:
			return
		default:
			url := fmt.Sprintf("%s/v1/models/%s/forecast", config.BaseURL, modelIDs[next%len(modelIDs)])
			next++

			start := time.Now()
			err := makeRequest(config, "POST", url, payload, nil)
			metrics.record(time.Since(start).Seconds()*1000, err)
		}
	}
}

func progressReporter(inline, stored *Metrics, duration time.Duration, startTime time.Time) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		<-ticker.C
		elapsed := time.Since(startTime)
		if elapsed >= duration {
			return
		}

		inlineOK := atomic.LoadInt64(&inline.Success)
		storedOK := atomic.LoadInt64(&stored.Success)

		remaining := duration - elapsed
		fmt.Printf("[%s remaining] Inline: %d (%.1f/s, %d errors) | Stored: %d (%.1f/s, %d errors)\n",
			remaining.Round(time.Second),
			inlineOK, float64(inlineOK)/elapsed.Seconds(), atomic.LoadInt64(&inline.Errors),
			storedOK, float64(storedOK)/elapsed.Seconds(), atomic.LoadInt64(&stored.Errors))
	}
}

// makeRequest sends data as JSON and decodes the response into out when it
// is not nil
func makeRequest(config BenchmarkConfig, method, url string, data, out interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "keep-alive")
	if config.APIKey != "" {
		req.Header.Set("X-API-Key", config.APIKey)
	}

	resp, err := config.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}

	// Read and discard body to reuse connection
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func calculateResult(operation string, metrics *Metrics, duration time.Duration) Result {
	latencies := metrics.Latencies
	success, errors := metrics.Success, metrics.Errors

	if len(latencies) == 0 {
		return Result{
			Operation: operation,
			TotalOps:  success + errors,
			ErrorMsg:  metrics.FirstError,
		}
	}

	// Sort for percentiles
	sort.Float64s(latencies)

	result := Result{
		Operation:  operation,
		TotalOps:   success + errors,
		SuccessOps: success,
		ErrorOps:   errors,
		Duration:   duration,
		Throughput: float64(success) / duration.Seconds(),
		MinLatency: latencies[0],
		MaxLatency: latencies[len(latencies)-1],
		P50Latency: percentile(latencies, 50),
		P95Latency: percentile(latencies, 95),
		P99Latency: percentile(latencies, 99),
		ErrorMsg:   metrics.FirstError,
	}

	var sum float64
	for _, lat := range latencies {
		sum += lat
	}
	result.AvgLatency = sum / float64(len(latencies))

	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(math.Ceil(float64(len(sorted)) * p / 100.0))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func writeResult(w io.Writer, r Result) {
	_, _ = fmt.Fprintf(w, "=== %s ===\n", r.Operation)
	_, _ = fmt.Fprintf(w, "Total Operations: %d\n", r.TotalOps)
	if r.TotalOps == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "Success:          %d (%.2f%%)\n", r.SuccessOps, float64(r.SuccessOps)/float64(r.TotalOps)*100)
	_, _ = fmt.Fprintf(w, "Errors:           %d (%.2f%%)\n", r.ErrorOps, float64(r.ErrorOps)/float64(r.TotalOps)*100)
	_, _ = fmt.Fprintf(w, "Duration:         %s\n", r.Duration)
	_, _ = fmt.Fprintf(w, "Throughput:       %.2f ops/sec\n", r.Throughput)
	if r.ErrorOps > 0 && len(r.ErrorMsg) > 0 {
		_, _ = fmt.Fprintf(w, "First Error:      %s\n", r.ErrorMsg)
	}
	_, _ = fmt.Fprintf(w, "\nLatency (ms):\n")
	_, _ = fmt.Fprintf(w, "  Min:  %.2f\n", r.MinLatency)
	_, _ = fmt.Fprintf(w, "  Avg:  %.2f\n", r.AvgLatency)
	_, _ = fmt.Fprintf(w, "  P50:  %.2f\n", r.P50Latency)
	_, _ = fmt.Fprintf(w, "  P95:  %.2f\n", r.P95Latency)
	_, _ = fmt.Fprintf(w, "  P99:  %.2f\n", r.P99Latency)
	_, _ = fmt.Fprintf(w, "  Max:  %.2f\n", r.MaxLatency)
}

func saveResults(config BenchmarkConfig, results ...Result) {
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		fmt.Printf("Failed to create result directory: %v\n", err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s/forecast_benchmark_%s.txt", config.OutputDir, timestamp)

	f, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Failed to create result file: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintf(f, "=== AutoETS Benchmark Results ===\n")
	_, _ = fmt.Fprintf(f, "Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	printConfig(f, config)
	for _, r := range results {
		_, _ = fmt.Fprintf(f, "\n")
		writeResult(f, r)
	}

	fmt.Printf("\nResults saved to: %s\n", filename)
}
