package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownex/grownex/internal/events"
)

func TestMessage_JSON(t *testing.T) {
	msg := events.Message{
		JobType:    events.JobAnalysisCreated,
		AnalysisID: "ana_123",
		Score:      5.4,
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "analysis.created", raw["job_type"])
	assert.Equal(t, "ana_123", raw["analysis_id"])
	assert.Equal(t, 5.4, raw["soil_score"])
	assert.NotContains(t, raw, "user_id")
}

func TestMemoryPublisher(t *testing.T) {
	ctx := context.Background()
	pub := events.NewMemoryPublisher()

	require.NoError(t, pub.Publish(ctx, events.Message{JobType: events.JobRescoreAll}))
	require.Len(t, pub.Messages(), 1)

	pub.FailWith(errors.New("down"))
	assert.Error(t, pub.Publish(ctx, events.Message{JobType: events.JobHealthCheck}))
	assert.Len(t, pub.Messages(), 1)
}

func TestNoopPublisher(t *testing.T) {
	var pub events.Publisher = events.NoopPublisher{}
	assert.NoError(t, pub.Publish(context.Background(), events.Message{}))
	assert.NoError(t, pub.Close())
}
