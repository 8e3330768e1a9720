package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
)

// Ensure Notifier implements the interface.
var _ driven.StageNotifier = (*Notifier)(nil)

// Notifier keeps published stage events in memory.
type Notifier struct {
	mu     sync.Mutex
	events []domain.StageEvent
	closed bool
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify records the event.
func (n *Notifier) Notify(_ context.Context, event domain.StageEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// Events returns the recorded events in publish order.
func (n *Notifier) Events() []domain.StageEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.StageEvent(nil), n.events...)
}

// Close marks the notifier closed.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

// Closed reports whether Close was called.
func (n *Notifier) Closed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}
