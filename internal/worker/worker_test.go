package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownex/grownex/internal/events"
	"github.com/grownex/grownex/internal/notify"
	"github.com/grownex/grownex/internal/worker"
)

type fakeRescorer struct {
	ids     []string
	updated map[string]bool
	failing map[string]bool
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeRescorer) AnalysisIDs(context.Context) ([]string, error) {
	return f.ids, nil
}

func (f *fakeRescorer) Rescore(ctx context.Context, id string) (bool, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if f.failing[id] {
		return false, errors.New("storage unavailable")
	}
	return f.updated[id], nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, a notify.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, a)
	return nil
}

type stubFlags struct {
	disabled  bool
	threshold float64
}

func (f stubFlags) LowScoreAlertsDisabled(context.Context) bool    { return f.disabled }
func (f stubFlags) LowScoreAlertThreshold(context.Context) float64 { return f.threshold }

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func encode(t *testing.T, msg events.Message) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return data
}

func TestDefaultRescoreConfig(t *testing.T) {
	cfg := worker.DefaultRescoreConfig()
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("RESCORE_SCHEDULE", "*/15 * * * *")
	t.Setenv("RESCORE_CONCURRENCY", "8")
	t.Setenv("RESCORE_TIMEOUT", "3s")
	t.Setenv("PUBSUB_SUBSCRIPTION", "")

	cfg := worker.ConfigFromEnv()
	assert.Equal(t, "*/15 * * * *", cfg.Schedule)
	assert.Equal(t, 8, cfg.Rescore.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.Rescore.Timeout)
	assert.Equal(t, "grownex-worker", cfg.SubscriptionName)
}

func TestRescoreJob_Run(t *testing.T) {
	rescorer := &fakeRescorer{
		ids:     []string{"ana_1", "ana_2", "ana_3", "ana_4"},
		updated: map[string]bool{"ana_1": true, "ana_3": true},
		failing: map[string]bool{"ana_4": true},
	}
	job := worker.NewRescoreJob(worker.RescoreJobConfig{
		Config:   worker.RescoreConfig{Concurrency: 2},
		Rescorer: rescorer,
		Logger:   zerolog.Nop(),
	})

	result, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Unchanged)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ana_4", result.Errors[0].AnalysisID)

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snapshot["total_runs"])
	assert.Equal(t, int64(4), snapshot["analyses_processed"])
	assert.Equal(t, int64(2), snapshot["analyses_updated"])
	assert.Equal(t, false, snapshot["running"])
}

func TestRescoreJob_NoOverlap(t *testing.T) {
	rescorer := &fakeRescorer{ids: []string{"ana_1"}, delay: 200 * time.Millisecond}
	job := worker.NewRescoreJob(worker.RescoreJobConfig{Rescorer: rescorer, Logger: zerolog.Nop()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = job.Run(context.Background())
	}()

	require.Eventually(t, func() bool { return rescorer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, worker.ErrRescoreInProgress)
	<-done
}

func TestAlertHandler(t *testing.T) {
	tests := []struct {
		name     string
		flags    worker.AlertFlags
		score    float64
		wantSent bool
	}{
		{"below default threshold", nil, 4.2, true},
		{"at threshold", nil, 6.0, false},
		{"above threshold", nil, 8.0, false},
		{"alerts disabled", stubFlags{disabled: true, threshold: 6}, 1.0, false},
		{"custom threshold", stubFlags{threshold: 8.5}, 8.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			h := worker.NewAlertHandler(notifier, tt.flags, zerolog.Nop())

			sent, err := h.Handle(context.Background(), events.Message{
				JobType:    events.JobAnalysisCreated,
				AnalysisID: "ana_1",
				SoilType:   "Sandy",
				Location:   "Jaipur",
				Score:      tt.score,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSent, sent)
			assert.Equal(t, tt.wantSent, len(notifier.alerts) == 1)
		})
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	notifier := &recordingNotifier{}
	rescorer := &fakeRescorer{ids: []string{"ana_1"}, updated: map[string]bool{"ana_1": true}}

	d := worker.NewDispatcher(worker.DispatcherConfig{
		Alerts:  worker.NewAlertHandler(notifier, nil, zerolog.Nop()),
		Rescore: worker.NewRescoreJob(worker.RescoreJobConfig{Rescorer: rescorer, Logger: zerolog.Nop()}),
		Pinger:  stubPinger{},
		Logger:  zerolog.Nop(),
	})
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, encode(t, events.Message{
		JobType: events.JobAnalysisUpdated, AnalysisID: "ana_9", Score: 3.3,
	})))
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "ana_9", notifier.alerts[0].AnalysisID)
	assert.Equal(t, notify.DefaultThreshold, notifier.alerts[0].Threshold)

	require.NoError(t, d.Dispatch(ctx, encode(t, events.Message{JobType: events.JobRescoreAll})))
	assert.Equal(t, int32(1), rescorer.calls.Load())

	require.NoError(t, d.Dispatch(ctx, encode(t, events.Message{JobType: events.JobHealthCheck})))
	require.NoError(t, d.Dispatch(ctx, encode(t, events.Message{JobType: "provider_refresh"})))

	err := d.Dispatch(ctx, []byte(`{not json`))
	assert.ErrorIs(t, err, worker.ErrMalformedMessage)
}

func TestDispatcher_Failures(t *testing.T) {
	notifier := &recordingNotifier{err: notify.ErrDeliveryFailed}
	rescorer := &fakeRescorer{ids: []string{"ana_1"}, failing: map[string]bool{"ana_1": true}}

	d := worker.NewDispatcher(worker.DispatcherConfig{
		Alerts:  worker.NewAlertHandler(notifier, nil, zerolog.Nop()),
		Rescore: worker.NewRescoreJob(worker.RescoreJobConfig{Rescorer: rescorer, Logger: zerolog.Nop()}),
		Pinger:  stubPinger{err: errors.New("connection refused")},
		Logger:  zerolog.Nop(),
	})
	ctx := context.Background()

	err := d.Dispatch(ctx, encode(t, events.Message{JobType: events.JobAnalysisCreated, AnalysisID: "ana_1", Score: 2}))
	assert.ErrorIs(t, err, notify.ErrDeliveryFailed)

	assert.Error(t, d.Dispatch(ctx, encode(t, events.Message{JobType: events.JobRescoreAll})))
	assert.Error(t, d.Dispatch(ctx, encode(t, events.Message{JobType: events.JobHealthCheck})))
}

func TestNewScheduler(t *testing.T) {
	job := worker.NewRescoreJob(worker.RescoreJobConfig{Rescorer: &fakeRescorer{}, Logger: zerolog.Nop()})

	s, err := worker.NewScheduler(context.Background(), worker.DefaultRescoreSchedule, job, zerolog.Nop())
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	_, err = worker.NewScheduler(context.Background(), "every tuesday", job, zerolog.Nop())
	assert.Error(t, err)
}
