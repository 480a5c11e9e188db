package history

import "context"

// Repository persists transitions. The orchestration code depends on this
// port, not on SQLite, so tests can swap in an in-memory recorder.
type Repository interface {
	// Save appends a row; entries are never updated.
	Save(ctx context.Context, t *Transition) error
	// List returns the transitions of an order, oldest first.
	List(ctx context.Context, orderID string) ([]Transition, error)
}
