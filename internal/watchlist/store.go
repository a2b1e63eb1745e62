package watchlist

import "context"

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks

// Store persists watchlist entries. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save inserts or replaces an entry by ID.
	Save(ctx context.Context, e *Entry) error

	// Get fetches one entry, returning sentinel.ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Entry, error)

	// FindBySubject returns every entry matching the national ID, or the
	// name when no national ID is supplied. Name matching is exact,
	// case-insensitive.
	FindBySubject(ctx context.Context, nationalID, name string) ([]*Entry, error)

	// List returns all entries, newest first.
	List(ctx context.Context) ([]*Entry, error)
}
