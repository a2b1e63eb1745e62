package alert

import "context"

// Store persists alerts. Implementations must be safe for concurrent use; the
// bus calls them from publishing goroutines.
type Store interface {
	// Save inserts or replaces an alert by ID.
	Save(ctx context.Context, a *Alert) error

	// Get fetches one alert, returning sentinel.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Alert, error)

	// List returns all alerts, newest first.
	List(ctx context.Context) ([]*Alert, error)
}
