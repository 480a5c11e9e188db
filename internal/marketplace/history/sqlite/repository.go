// Package sqlite provides a SQLite-backed implementation of history.Repository.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa: status changes append while the admin endpoint reads.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/history"

	// Pure-Go driver, no CGO needed in the container image.
	_ "modernc.org/sqlite"
)

// schema is executed once on startup. The table is append-only; the last row
// per order_id mirrors the status stored on the order document.
const schema = `
CREATE TABLE IF NOT EXISTS order_transitions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id     TEXT    NOT NULL,
    -- Empty for the creation entry.
    from_status  TEXT    NOT NULL DEFAULT '',
    to_status    TEXT    NOT NULL,
    actor_id     TEXT    NOT NULL,
    actor_role   TEXT    NOT NULL,
    trace_id     TEXT    NOT NULL DEFAULT '',
    span_id      TEXT    NOT NULL DEFAULT '',
    -- RFC3339 TEXT, SQLite has no native datetime type.
    at           TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_transitions_order_id ON order_transitions(order_id, at);
CREATE INDEX IF NOT EXISTS idx_order_transitions_trace_id ON order_transitions(trace_id);
`

// Repository is the SQLite implementation of history.Repository.
type Repository struct {
	db *sql.DB
}

var _ history.Repository = (*Repository)(nil)

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/history.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// Single writer connection; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends a transition. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, t *history.Transition) error {
	const q = `
		INSERT INTO order_transitions
			(order_id, from_status, to_status, actor_id, actor_role, trace_id, span_id, at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		t.OrderID,
		string(t.From),
		string(t.To),
		t.ActorID,
		string(t.ActorRole),
		t.TraceID,
		t.SpanID,
		formatTime(t.At),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save transition for %q: %w", t.OrderID, err)
	}
	return nil
}

// List returns every transition of orderID in the order they were written.
func (r *Repository) List(ctx context.Context, orderID string) ([]history.Transition, error) {
	const q = `
		SELECT order_id, from_status, to_status, actor_id, actor_role, trace_id, span_id, at
		FROM   order_transitions
		WHERE  order_id = ?
		ORDER  BY at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list transitions for %q: %w", orderID, err)
	}
	defer rows.Close()

	out := []history.Transition{}
	for rows.Next() {
		var (
			t                  history.Transition
			from, to, role, at string
		)
		if err := rows.Scan(&t.OrderID, &from, &to, &t.ActorID, &role, &t.TraceID, &t.SpanID, &at); err != nil {
			return nil, fmt.Errorf("sqlite: scan transition for %q: %w", orderID, err)
		}
		t.From = domain.OrderStatus(from)
		t.To = domain.OrderStatus(to)
		t.ActorRole = domain.Role(role)
		if t.At, err = parseRFC3339(at); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate transitions for %q: %w", orderID, err)
	}
	return out, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}
