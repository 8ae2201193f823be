package game

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/store"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/pkg/logger"
)

// Persister is the persistence surface handed to games so their handlers can
// write back state. The Manager implements it.
type Persister interface {
	// Save persists the game synchronously and returns the write error.
	Save(g Game) error
	// SaveLater persists the game in the background. In-memory state is
	// authoritative immediately; a failed write is logged, not retried.
	SaveLater(g Game)
}

// Manager owns one live game per channel for a single minigame module. Every
// lifecycle mutation persists before acknowledging success to its caller.
type Manager struct {
	mu      sync.Mutex
	factory Factory
	store   store.Store
	games   map[string]Game
	log     *logrus.Entry
}

// NewManager returns a manager with no live games. Call LoadAll once at
// startup to reconstruct persisted games.
func NewManager(factory Factory, st store.Store) *Manager {
	return &Manager{
		factory: factory,
		store:   st,
		games:   make(map[string]Game),
		log:     logger.Log.WithField("collection", factory.Collection()),
	}
}

// Collection returns the document store collection this manager persists to.
func (m *Manager) Collection() string {
	return m.factory.Collection()
}

// Get returns the channel's live game, failing with a StateError when none
// exists.
func (m *Manager) Get(channel string) (Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[channel]
	if !ok {
		return nil, NewStateError("get", "no game is running in this channel")
	}
	return g, nil
}

// Channels returns the channels with a live game, sorted for determinism.
func (m *Manager) Channels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.games))
	for ch := range m.games {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Start creates, persists and announces a new game for the channel. It fails
// with a StateError when one already exists.
func (m *Manager) Start(ctx context.Context, channel string) (Game, error) {
	m.mu.Lock()
	if _, ok := m.games[channel]; ok {
		m.mu.Unlock()
		return nil, NewStateError("start", "a game is already running in this channel")
	}
	g := m.factory.New(channel)
	m.games[channel] = g
	m.mu.Unlock()

	if err := m.Save(g); err != nil {
		m.mu.Lock()
		delete(m.games, channel)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to persist new game: %w", err)
	}

	if hook, ok := g.(StartHook); ok {
		if err := hook.OnStart(ctx); err != nil {
			return g, fmt.Errorf("post-creation setup failed: %w", err)
		}
	}
	return g, nil
}

// Toggle flips the channel's pause flag, persists it, and lets the game sync
// its own timers. It returns the new flag value.
func (m *Manager) Toggle(ctx context.Context, channel string) (bool, error) {
	g, err := m.Get(channel)
	if err != nil {
		return false, err
	}

	g.SetPaused(!g.Paused())
	if err := m.Save(g); err != nil {
		return g.Paused(), fmt.Errorf("failed to persist pause state: %w", err)
	}

	if hook, ok := g.(PauseHook); ok {
		if err := hook.OnPauseChanged(ctx); err != nil {
			return g.Paused(), fmt.Errorf("pause hook failed: %w", err)
		}
	}
	return g.Paused(), nil
}

// Delete tears the channel's game down: teardown hook, document removal,
// then the in-memory instance is dropped.
func (m *Manager) Delete(ctx context.Context, channel string) error {
	g, err := m.Get(channel)
	if err != nil {
		return err
	}

	if hook, ok := g.(TeardownHook); ok {
		if err := hook.OnDelete(ctx); err != nil {
			return fmt.Errorf("teardown hook failed: %w", err)
		}
	}

	if err := m.store.Delete(m.factory.Collection(), channel); err != nil {
		return fmt.Errorf("failed to delete game document: %w", err)
	}

	m.mu.Lock()
	delete(m.games, channel)
	m.mu.Unlock()
	return nil
}

// LoadAll reconstructs a live game per persisted document. Channels are
// independent: a channel that fails to load is logged and skipped so the
// rest of the module comes up.
func (m *Manager) LoadAll(ctx context.Context) error {
	names, err := m.store.List(m.factory.Collection())
	if err != nil {
		return fmt.Errorf("failed to list game documents: %w", err)
	}

	for _, channel := range names {
		doc, err := m.store.Get(m.factory.Collection(), channel, nil)
		if err != nil || doc == nil {
			m.log.WithField("channel", channel).WithError(err).Error("failed to read game document")
			continue
		}

		g := m.factory.New(channel)
		g.SetPaused(codec.Bool(doc, "paused"))

		rep := &codec.Report{}
		if err := g.Load(ctx, doc, rep); err != nil {
			m.log.WithField("channel", channel).WithError(err).Error("failed to load game")
			continue
		}
		for _, u := range rep.Unresolved() {
			m.log.WithField("channel", channel).Warnf("load condition: %s", u)
		}

		m.mu.Lock()
		m.games[channel] = g
		m.mu.Unlock()

		if hook, ok := g.(LoadHook); ok {
			if err := hook.OnLoad(ctx); err != nil {
				m.log.WithField("channel", channel).WithError(err).Error("load hook failed")
			}
		}
	}
	return nil
}

// envelope flattens the game into its persisted form:
// { paused, ...game fields }.
func (m *Manager) envelope(g Game) codec.Document {
	doc := g.Serialize()
	if doc == nil {
		doc = codec.Document{}
	}
	doc["paused"] = g.Paused()
	return doc
}

// Save persists the game under the generic envelope.
func (m *Manager) Save(g Game) error {
	return m.store.Save(m.factory.Collection(), g.Channel(), m.envelope(g))
}

// SaveLater snapshots the document synchronously, so the caller's next
// mutation cannot race the serialization; only the write runs in the
// background. The write error is logged and the in-memory state stays
// authoritative.
func (m *Manager) SaveLater(g Game) {
	doc := m.envelope(g)
	channel := g.Channel()
	go func() {
		if err := m.store.Save(m.factory.Collection(), channel, doc); err != nil {
			m.log.WithField("channel", channel).WithError(err).Error("background save failed")
		}
	}()
}
