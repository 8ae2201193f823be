package game

import (
	"context"
	"sync/atomic"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
)

// Game is the contract every minigame implements. One instance lives per
// channel; the Manager owns its lifecycle and the persisted envelope around
// its document.
type Game interface {
	codec.Serializer

	// Channel returns the external identity of the channel hosting the game.
	Channel() string

	// Paused reports the lifecycle pause flag. The Manager flips it on
	// toggle; games consult it to gate their pausable controls.
	Paused() bool
	SetPaused(bool)

	// Load rebuilds the game from its persisted document. It may perform
	// external identity lookups and must record unresolvable back-references
	// on the report rather than fail.
	Load(ctx context.Context, doc codec.Document, rep *codec.Report) error
}

// Factory builds the game instances of one minigame module.
type Factory interface {
	// Collection names the document store collection the module persists to.
	Collection() string
	// New returns a fresh game for the channel, ready to be started.
	New(channel string) Game
}

// StartHook runs after a freshly started game has been persisted, for
// post-creation setup such as sending the initial board.
type StartHook interface {
	OnStart(ctx context.Context) error
}

// PauseHook runs after the pause flag flipped and was persisted, so the game
// can stop or re-arm its own timers in sync.
type PauseHook interface {
	OnPauseChanged(ctx context.Context) error
}

// TeardownHook runs before a game's document is removed, to clear timers and
// end views.
type TeardownHook interface {
	OnDelete(ctx context.Context) error
}

// LoadHook runs after a game was rebuilt from its document, for re-arming
// timers from persisted timestamps.
type LoadHook interface {
	OnLoad(ctx context.Context) error
}

// Base carries the channel binding and pause flag shared by every minigame.
// Embed it and the Channel/Paused plumbing is done. The pause flag is read
// by dispatch filters on interaction goroutines while the manager flips it,
// hence the atomic access.
type Base struct {
	channel string
	paused  int32
}

// NewBase binds a base to its channel.
func NewBase(channel string) Base {
	return Base{channel: channel}
}

func (b *Base) Channel() string {
	return b.channel
}

func (b *Base) Paused() bool {
	return atomic.LoadInt32(&b.paused) == 1
}

func (b *Base) SetPaused(paused bool) {
	var v int32
	if paused {
		v = 1
	}
	atomic.StoreInt32(&b.paused, v)
}
