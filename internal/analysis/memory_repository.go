package analysis

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It backs tests and the DB_DRIVER=memory mode.
type InMemoryRepository struct {
	mu       sync.RWMutex
	analyses map[string]*Analysis
}

// NewInMemoryRepository creates a new in-memory analysis repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		analyses: make(map[string]*Analysis),
	}
}

// Get retrieves an analysis by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.analyses[id]
	if !ok {
		return nil, ErrAnalysisNotFound
	}
	return a.clone(), nil
}

// List returns analyses newest first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Analysis
	for _, a := range r.analyses {
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		items = append(items, a.clone())
	}

	sort.Slice(items, func(i, j int) bool {
		return newerThan(items[i], items[j])
	})

	if opts.Cursor != "" {
		cursor, ok := r.analyses[opts.Cursor]
		if !ok {
			return &ListResult{}, nil
		}
		start := len(items)
		for i, a := range items {
			if newerThan(cursor, a) {
				start = i
				break
			}
		}
		items = items[start:]
	}

	limit := normalizeLimit(opts.Limit)
	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// newerThan orders by creation time, then ID, both descending.
func newerThan(a, b *Analysis) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// ListIDs returns the IDs of every stored analysis.
func (r *InMemoryRepository) ListIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.analyses))
	for id := range r.analyses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Create stores a new analysis.
func (r *InMemoryRepository) Create(_ context.Context, a *Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.analyses[a.ID] = a.clone()
	return nil
}

// Update replaces an existing analysis.
func (r *InMemoryRepository) Update(_ context.Context, a *Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.analyses[a.ID]; !ok {
		return ErrAnalysisNotFound
	}
	r.analyses[a.ID] = a.clone()
	return nil
}

// UpdateResult writes the derived fields of a if the stored copy is unchanged.
func (r *InMemoryRepository) UpdateResult(_ context.Context, a *Analysis, prevUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.analyses[a.ID]
	if !ok || !stored.UpdatedAt.Equal(prevUpdatedAt) {
		return ErrAnalysisChanged
	}

	next := stored.clone()
	src := a.clone()
	next.Score = src.Score
	next.Breakdown = src.Breakdown
	next.Fertilizers = src.Fertilizers
	next.Pesticides = src.Pesticides
	next.Crops = src.Crops
	next.UpdatedAt = src.UpdatedAt
	r.analyses[a.ID] = next
	return nil
}

// Delete removes an analysis.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.analyses[id]; !ok {
		return ErrAnalysisNotFound
	}
	delete(r.analyses, id)
	return nil
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(context.Context) error { return nil }

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
