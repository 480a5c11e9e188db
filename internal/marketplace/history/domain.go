// Package history records every status change of an order.
//
// Orders only store their current status. The history is an append-only audit
// trail next to it, used to:
//
//  1. Answer "who moved this order and when" for admins.
//  2. Correlate a transition with its distributed trace through trace_id.
package history

import (
	"time"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

// Transition is a single row of the log.
type Transition struct {
	// OrderID is the order the transition applies to.
	OrderID string `json:"orderId"`

	// From is empty for the creation entry.
	From domain.OrderStatus `json:"from"`
	To   domain.OrderStatus `json:"to"`

	ActorID   string      `json:"actorId"`
	ActorRole domain.Role `json:"actorRole"`

	// TraceID and SpanID identify the OpenTelemetry span active when the
	// transition was applied. Empty when tracing is off.
	TraceID string `json:"traceId,omitempty"`
	SpanID  string `json:"spanId,omitempty"`

	At time.Time `json:"at"`
}
