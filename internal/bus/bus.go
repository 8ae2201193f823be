package bus

import (
	"errors"
	"sync"
)

// ErrVeto is returned by a subscriber to stop delivery and reject the event.
// Publish surfaces it unchanged so the publisher can tell a veto apart from
// a failure.
var ErrVeto = errors.New("event vetoed by subscriber")

// Token identifies one subscription for later removal.
type Token int

// Bus is a typed publish/subscribe channel shared across games, replacing
// the per-game event buses minigames used to hand-roll for cross-cutting
// modifiers.
type Bus[E any] struct {
	mu    sync.Mutex
	order []Token
	subs  map[Token]func(E) error
	next  Token
}

// New returns an empty bus.
func New[E any]() *Bus[E] {
	return &Bus[E]{subs: make(map[Token]func(E) error)}
}

// Subscribe registers fn and returns the token that removes it.
func (b *Bus[E]) Subscribe(fn func(E) error) Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	t := b.next
	b.subs[t] = fn
	b.order = append(b.order, t)
	return t
}

// Unsubscribe removes the subscription identified by t.
func (b *Bus[E]) Unsubscribe(t Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[t]; !ok {
		return
	}
	delete(b.subs, t)
	for i, existing := range b.order {
		if existing == t {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus[E]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers e to every subscriber in subscription order. The first
// error stops delivery and is returned; ErrVeto is the conventional sentinel
// for "stop and reject".
func (b *Bus[E]) Publish(e E) error {
	b.mu.Lock()
	fns := make([]func(E) error, 0, len(b.order))
	for _, t := range b.order {
		fns = append(fns, b.subs[t])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
