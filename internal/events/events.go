// Package events publishes analysis events and worker jobs to Pub/Sub.
package events

import (
	"context"
	"sync"
	"time"
)

// Job types carried in Message.JobType.
const (
	JobAnalysisCreated = "analysis.created"
	JobAnalysisUpdated = "analysis.updated"
	JobRescoreAll      = "rescore_all"
	JobHealthCheck     = "health_check"
)

// Message is the JSON envelope shared by the API and the worker.
type Message struct {
	JobType    string    `json:"job_type"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	Location   string    `json:"location,omitempty"`
	SoilType   string    `json:"soil_type,omitempty"`
	Score      float64   `json:"soil_score,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher sends messages to the worker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// NoopPublisher drops every message.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Message) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }

// MemoryPublisher keeps published messages in memory.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish implements Publisher.
func (p *MemoryPublisher) Publish(_ context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

// Close implements Publisher.
func (p *MemoryPublisher) Close() error { return nil }

// FailWith makes subsequent Publish calls return err.
func (p *MemoryPublisher) FailWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Messages returns a copy of the published messages.
func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = (*MemoryPublisher)(nil)
)
