package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrRescoreInProgress is returned when a rescoring run is already active.
var ErrRescoreInProgress = errors.New("rescore already in progress")

// Rescorer recomputes stored analyses. Implemented by analysis.Service.
type Rescorer interface {
	AnalysisIDs(ctx context.Context) ([]string, error)
	Rescore(ctx context.Context, id string) (bool, error)
}

// RescoreJob recomputes every stored analysis with the current engine.
// Runs triggered by cron and Pub/Sub never overlap.
type RescoreJob struct {
	config   RescoreConfig
	rescorer Rescorer
	logger   zerolog.Logger
	running  atomic.Bool
	metrics  *RescoreMetrics
}

// RescoreMetrics tracks rescoring job statistics.
type RescoreMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	AnalysesProcessed int64
	AnalysesUpdated   int64
	AnalysesFailed    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RescoreJobConfig holds configuration for creating a RescoreJob.
type RescoreJobConfig struct {
	Config   RescoreConfig
	Rescorer Rescorer
	Logger   zerolog.Logger
}

// NewRescoreJob creates a new rescoring job.
func NewRescoreJob(cfg RescoreJobConfig) *RescoreJob {
	config := cfg.Config
	defaults := DefaultRescoreConfig()
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &RescoreJob{
		config:   config,
		rescorer: cfg.Rescorer,
		logger:   cfg.Logger,
		metrics:  &RescoreMetrics{},
	}
}

// RescoreResult contains the outcome of a rescoring run.
type RescoreResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Total     int
	Updated   int
	Unchanged int
	Failed    int
	Errors    []RescoreError
}

// RescoreError records a failure for a single analysis.
type RescoreError struct {
	AnalysisID string
	Error      string
}

// Run rescores all stored analyses with bounded concurrency.
func (j *RescoreJob) Run(ctx context.Context) (*RescoreResult, error) {
	if !j.running.CompareAndSwap(false, true) {
		return nil, ErrRescoreInProgress
	}
	defer j.running.Store(false)

	startTime := time.Now()

	ids, err := j.rescorer.AnalysisIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &RescoreResult{
		StartTime: startTime,
		Total:     len(ids),
	}

	j.logger.Info().
		Int("total", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting rescore job")

	idsChan := make(chan string, len(ids))
	resultsChan := make(chan rescoreOutcome, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.rescoreWorker(ctx, idsChan, resultsChan)
		}()
	}

	for _, id := range ids {
		idsChan <- id
	}
	close(idsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for out := range resultsChan {
		switch {
		case out.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RescoreError{
				AnalysisID: out.id,
				Error:      out.err.Error(),
			})
		case out.updated:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("failed", result.Failed).
		Msg("rescore job completed")

	return result, ctx.Err()
}

type rescoreOutcome struct {
	id      string
	updated bool
	err     error
}

func (j *RescoreJob) rescoreWorker(ctx context.Context, ids <-chan string, results chan<- rescoreOutcome) {
	for id := range ids {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.rescoreOne(ctx, id)
		}
	}
}

func (j *RescoreJob) rescoreOne(ctx context.Context, id string) rescoreOutcome {
	itemCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	updated, err := j.rescorer.Rescore(itemCtx, id)
	if err != nil {
		j.logger.Warn().Err(err).Str("analysis_id", id).Msg("failed to rescore analysis")
	}
	return rescoreOutcome{id: id, updated: updated, err: err}
}

func (j *RescoreJob) updateMetrics(result *RescoreResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.AnalysesProcessed += int64(result.Updated + result.Unchanged + result.Failed)
	j.metrics.AnalysesUpdated += int64(result.Updated)
	j.metrics.AnalysesFailed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// Running reports whether a run is in progress.
func (j *RescoreJob) Running() bool {
	return j.running.Load()
}

// MetricsSnapshot returns the current metrics as a map for the health endpoint.
func (j *RescoreJob) MetricsSnapshot() map[string]interface{} {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return map[string]interface{}{
		"total_runs":         j.metrics.TotalRuns,
		"analyses_processed": j.metrics.AnalysesProcessed,
		"analyses_updated":   j.metrics.AnalysesUpdated,
		"analyses_failed":    j.metrics.AnalysesFailed,
		"last_run_at":        j.metrics.LastRunAt,
		"last_run_duration":  j.metrics.LastRunDuration.String(),
		"total_duration":     j.metrics.TotalDuration.String(),
		"running":            j.running.Load(),
	}
}
