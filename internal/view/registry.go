package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
)

// Registry is the process-wide index from message identity to live view,
// used only for dispatch. Entries are added when a view attaches and removed
// on End or explicit deletion. The index itself is never persisted; after a
// restart each game's load re-registers its views.
type Registry struct {
	mu        sync.RWMutex
	byMessage map[string]*View
}

// NewRegistry returns an empty dispatch index.
func NewRegistry() *Registry {
	return &Registry{byMessage: make(map[string]*View)}
}

func (r *Registry) attach(messageID string, v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMessage[messageID] = v
}

func (r *Registry) detach(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byMessage, messageID)
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byMessage)
}

// View returns the live view attached to the given message.
func (r *Registry) View(messageID string) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byMessage[messageID]
	return v, ok
}

// Dispatch routes an interaction to the view attached to its message. Events
// for unknown messages or tokens belong to an expired view and are dropped
// silently. A panicking handler terminates only that event; the index stays
// intact.
func (r *Registry) Dispatch(ctx context.Context, ic platform.Interaction) (err error) {
	r.mu.RLock()
	v, ok := r.byMessage[ic.Message.ID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("component handler panicked: %v", rec)
		}
	}()
	return v.dispatch(ctx, ic)
}
