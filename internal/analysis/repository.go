package analysis

import (
	"context"
	"time"
)

// DefaultListLimit is the page size used when none is given.
const DefaultListLimit = 50

// ListOptions contains options for listing analyses.
type ListOptions struct {
	// UserID restricts the listing to one owner. Empty lists everyone's.
	UserID string
	Limit  int
	// Cursor is the ID of the last item of the previous page.
	Cursor string
}

// ListResult contains the results of listing analyses.
type ListResult struct {
	Items      []*Analysis
	NextCursor string
}

// Repository defines the interface for analysis persistence.
type Repository interface {
	// Get retrieves an analysis by ID.
	Get(ctx context.Context, id string) (*Analysis, error)

	// List returns analyses newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// ListIDs returns the IDs of every stored analysis.
	ListIDs(ctx context.Context) ([]string, error)

	// Create stores a new analysis.
	Create(ctx context.Context, a *Analysis) error

	// Update replaces an existing analysis.
	// Returns ErrAnalysisNotFound if it doesn't exist.
	Update(ctx context.Context, a *Analysis) error

	// UpdateResult writes only the score, breakdown, recommendations and
	// UpdatedAt of a, and only while the stored row still has updated_at
	// equal to prevUpdatedAt. Returns ErrAnalysisChanged otherwise,
	// including when the row is gone.
	UpdateResult(ctx context.Context, a *Analysis, prevUpdatedAt time.Time) error

	// Delete removes an analysis.
	// Returns ErrAnalysisNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
