package hotpotato

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/bus"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/game"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/store"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/view"
)

// harness wires a full stack around one channel: simulator, dispatch index,
// scheduler, manager and factory, the way the playground does it.
type harness struct {
	sim   *platform.ChatSim
	views *view.Registry
	sched *game.Scheduler
	mgr   *game.Manager
	fac   *Factory

	dispatchErr error
}

func newHarness(st store.Store) *harness {
	sim := platform.NewChatSim()
	sim.AddUser(platform.User{ID: "alice", Name: "Alice"})
	sim.AddUser(platform.User{ID: "bob", Name: "Bob"})
	return rewire(st, sim)
}

// rewire builds a fresh process stack over an existing store and simulator,
// the way a restart leaves the platform state in place while everything in
// memory is rebuilt.
func rewire(st store.Store, sim *platform.ChatSim) *harness {
	h := &harness{
		sim:   sim,
		views: view.NewRegistry(),
		sched: game.NewScheduler(),
	}

	deps := &Deps{Messenger: h.sim, Resolver: h.sim, Views: h.views, Scheduler: h.sched}
	h.fac = NewFactory(deps)
	// Long timings so no timer fires during the test.
	h.fac.Configure(map[string]any{"fuse": "1h", "refill": "24h"})
	h.mgr = game.NewManager(h.fac, st)
	deps.Persist = h.mgr

	h.sim.SetSink(func(ic platform.Interaction) {
		h.dispatchErr = h.views.Dispatch(context.Background(), ic)
	})
	return h
}

// click presses the board control with the given label as the given user and
// returns the dispatch outcome.
func (h *harness) click(t *testing.T, channel, label, userID string) error {
	t.Helper()
	board, ok := h.sim.LastMessage(channel)
	require.True(t, ok, "no board message in %s", channel)
	for _, row := range board.Rows {
		for _, c := range row {
			if c.Label == label {
				h.dispatchErr = nil
				require.NoError(t, h.sim.Click(board.Ref.ID, c.Token, userID))
				return h.dispatchErr
			}
		}
	}
	t.Fatalf("no control labelled %q on the board", label)
	return nil
}

func TestStartSendsBoardAndArmsTimers(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	_, err := h.mgr.Start(context.Background(), "C1")
	require.NoError(t, err)

	board, ok := h.sim.LastMessage("C1")
	require.True(t, ok)
	assert.Contains(t, board.Content, "up for grabs")
	require.Len(t, board.Rows, 1)
	assert.Len(t, board.Rows[0], 2)

	assert.True(t, h.sched.Pending("C1/fuse"))
	assert.True(t, h.sched.Pending("C1/refill"))

	require.NoError(t, h.mgr.Save(mustGame(t, h)))
}

func mustGame(t *testing.T, h *harness) *Game {
	t.Helper()
	g, err := h.mgr.Get("C1")
	require.NoError(t, err)
	return g.(*Game)
}

func TestPassFlow(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	_, err := h.mgr.Start(context.Background(), "C1")
	require.NoError(t, err)
	g := mustGame(t, h)

	// First press picks the potato up.
	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	holder, held := g.potato.Holder.Resolved()
	require.True(t, held)
	assert.Equal(t, "Alice", holder.User.Name)

	// Someone else pressing is a state error, but it does enroll them.
	err = h.click(t, "C1", "Pass the potato", "bob")
	var se *game.StateError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "not holding")
	_, enrolled := g.players.Get("bob")
	assert.True(t, enrolled)

	// The holder throws; Bob is the only possible target.
	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	holder, held = g.potato.Holder.Resolved()
	require.True(t, held)
	assert.Equal(t, "Bob", holder.User.Name)

	alice, _ := g.players.Get("alice")
	assert.Equal(t, 1, alice.Score)
	assert.Equal(t, dailyThrows-1, alice.Throws)

	// The board reflects the new holder.
	board, _ := h.sim.LastMessage("C1")
	assert.Contains(t, board.Content, "Bob is holding the potato")

	// Stats replies privately.
	require.NoError(t, h.click(t, "C1", "Stats", "alice"))
	replies := h.sim.Replies()
	require.NotEmpty(t, replies)
	last := replies[len(replies)-1]
	assert.True(t, last.Ephemeral)
	assert.Contains(t, last.Content, "Standings")
	assert.Contains(t, last.Content, "Alice: 1 points")
}

func TestPassWithNoOtherPlayers(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	_, err := h.mgr.Start(context.Background(), "C1")
	require.NoError(t, err)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	err = h.click(t, "C1", "Pass the potato", "alice")
	var se *game.StateError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "no one to pass")
}

func TestPassOutOfThrows(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	_, err := h.mgr.Start(context.Background(), "C1")
	require.NoError(t, err)
	g := mustGame(t, h)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	alice, _ := g.players.Get("alice")
	alice.Throws = 0
	g.player(platform.User{ID: "bob", Name: "Bob"})

	err = h.click(t, "C1", "Pass the potato", "alice")
	var se *game.StateError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "out of throws")
}

func TestRoundTripThroughStore(t *testing.T) {
	st := store.NewMemoryStore()
	h1 := newHarness(st)
	ctx := context.Background()
	_, err := h1.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	g1 := mustGame(t, h1)

	require.NoError(t, h1.click(t, "C1", "Pass the potato", "alice"))
	_ = h1.click(t, "C1", "Pass the potato", "bob") // enrolls bob
	require.NoError(t, h1.click(t, "C1", "Pass the potato", "alice"))
	require.NoError(t, h1.mgr.Save(g1))

	// A fresh process over the same store.
	h2 := newHarness(st)
	require.NoError(t, h2.mgr.LoadAll(ctx))
	g2 := mustGame(t, h2)

	assert.Equal(t, []string{"alice", "bob"}, g2.players.IDs())
	alice, _ := g2.players.Get("alice")
	assert.Equal(t, 1, alice.Score)
	assert.Equal(t, dailyThrows-1, alice.Throws)

	// The holder back-reference resolves to the arena's own instance.
	holder, held := g2.potato.Holder.Resolved()
	require.True(t, held)
	fromArena, _ := g2.players.Get("bob")
	assert.Same(t, fromArena, holder)

	// Timer targets survive the round trip.
	assert.True(t, g2.potato.FuseAt.Equal(g1.potato.FuseAt))
	assert.True(t, g2.refillAt.Equal(g1.refillAt))

	// The view re-attached to its original message and the timers are armed.
	assert.True(t, g2.ui.Attached())
	assert.Equal(t, g1.ui.Message().ID, g2.ui.Message().ID)
	assert.True(t, h2.sched.Pending("C1/fuse"))
	assert.True(t, h2.sched.Pending("C1/refill"))
}

func TestPurgedUserKeepsPersistedName(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	ctx := context.Background()
	_, err := h.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	g1 := mustGame(t, h)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	_ = h.click(t, "C1", "Pass the potato", "bob")
	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	doc := g1.Serialize()

	h.sim.RemoveUser("bob")
	g2 := h.fac.New("C1").(*Game)
	rep := &codec.Report{}
	require.NoError(t, g2.Load(ctx, doc, rep))

	// The purged identity is reported, the persisted name is kept, and the
	// holder still binds because the player entity itself survived.
	require.Len(t, rep.Unresolved(), 1)
	assert.Equal(t, codec.Unresolved{Kind: "user", ID: "bob", Field: "player.user"}, rep.Unresolved()[0])
	bob, ok := g2.players.Get("bob")
	require.True(t, ok)
	assert.Equal(t, "Bob", bob.User.Name)
	_, held := g2.potato.Holder.Resolved()
	assert.True(t, held)
}

func TestMissingHolderIsReportedNotFatal(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	g := h.fac.New("C1").(*Game)

	doc := codec.Document{
		"players": []any{
			codec.Document{"id": "alice", "name": "Alice", "score": 0, "throws": 5},
		},
		"potato":   codec.Document{"holder": "ghost", "fuseAt": codec.Stamp(time.Now())},
		"refillAt": codec.Stamp(time.Now()),
	}
	rep := &codec.Report{}
	require.NoError(t, g.Load(context.Background(), doc, rep))

	require.Len(t, rep.Unresolved(), 1)
	assert.Equal(t, codec.Unresolved{Kind: "player", ID: "ghost", Field: "potato.holder"}, rep.Unresolved()[0])
	_, held := g.potato.Holder.Resolved()
	assert.False(t, held)
}

func TestPauseGatesPassButNotStats(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	ctx := context.Background()
	_, err := h.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	g := mustGame(t, h)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))

	paused, err := h.mgr.Toggle(ctx, "C1")
	require.NoError(t, err)
	require.True(t, paused)
	assert.False(t, h.sched.Pending("C1/fuse"))
	assert.False(t, h.sched.Pending("C1/refill"))

	// Pass is vetoed while paused: no error, no state change.
	before := len(h.sim.Notices())
	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	holder, held := g.potato.Holder.Resolved()
	require.True(t, held)
	assert.Equal(t, "Alice", holder.User.Name)
	assert.Len(t, h.sim.Notices(), before)

	// Stats is not pausable and still answers.
	require.NoError(t, h.click(t, "C1", "Stats", "alice"))
	assert.NotEmpty(t, h.sim.Replies())

	// Resume re-arms from the untouched targets.
	paused, err = h.mgr.Toggle(ctx, "C1")
	require.NoError(t, err)
	require.False(t, paused)
	assert.True(t, h.sched.Pending("C1/fuse"))
	assert.True(t, h.sched.Pending("C1/refill"))
}

func TestRestartWhilePausedLeavesTimersDisarmed(t *testing.T) {
	st := store.NewMemoryStore()
	h1 := newHarness(st)
	ctx := context.Background()
	_, err := h1.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	_, err = h1.mgr.Toggle(ctx, "C1")
	require.NoError(t, err)

	h2 := newHarness(st)
	require.NoError(t, h2.mgr.LoadAll(ctx))
	g := mustGame(t, h2)
	assert.True(t, g.Paused())
	assert.False(t, h2.sched.Pending("C1/fuse"))
	assert.False(t, h2.sched.Pending("C1/refill"))
}

func TestFuseExpiryBurnsHolder(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	ctx := context.Background()
	_, err := h.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	g := mustGame(t, h)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	alice, _ := g.players.Get("alice")

	g.onFuseExpired()

	assert.Equal(t, -1, alice.Score)
	_, held := g.potato.Holder.Resolved()
	assert.False(t, held)
	assert.True(t, g.potato.FuseAt.After(time.Now()))
	assert.True(t, h.sched.Pending("C1/fuse"))

	notices := h.sim.Notices()
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[len(notices)-1].Content, "exploded in Alice's hands")
}

func TestRefillCatchesUpMissedPeriods(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	ctx := context.Background()
	_, err := h.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	g := mustGame(t, h)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	alice, _ := g.players.Get("alice")
	alice.Throws = 0
	// Pretend the process slept through three refill periods.
	g.refillAt = time.Now().Add(-3 * g.refill)

	g.onRefill()

	assert.Equal(t, dailyThrows, alice.Throws)
	assert.True(t, g.refillAt.After(time.Now()))
	assert.True(t, h.sched.Pending("C1/refill"))
}

func TestVetoedThrowLeavesStateUntouched(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	ctx := context.Background()
	_, err := h.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	g := mustGame(t, h)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	_ = h.click(t, "C1", "Pass the potato", "bob")

	token := g.ThrowEvents().Subscribe(func(e ThrowEvent) error {
		return bus.ErrVeto
	})

	err = h.click(t, "C1", "Pass the potato", "alice")
	var se *game.StateError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "dodged")

	// No throw spent, no holder change.
	alice, _ := g.players.Get("alice")
	assert.Equal(t, dailyThrows, alice.Throws)
	holder, _ := g.potato.Holder.Resolved()
	assert.Equal(t, "Alice", holder.User.Name)

	// With the veto gone the throw lands.
	g.ThrowEvents().Unsubscribe(token)
	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	holder, _ = g.potato.Holder.Resolved()
	assert.Equal(t, "Bob", holder.User.Name)
}

func TestRenderedControlsSurviveRestart(t *testing.T) {
	st := store.NewMemoryStore()
	h1 := newHarness(st)
	ctx := context.Background()
	_, err := h1.mgr.Start(ctx, "C1")
	require.NoError(t, err)

	// Restart: the board message with its original tokens is still in the
	// channel, only the process state is rebuilt.
	h2 := rewire(st, h1.sim)
	require.NoError(t, h2.mgr.LoadAll(ctx))
	g := mustGame(t, h2)

	// Pressing the control that was rendered before the restart still works.
	require.NoError(t, h2.click(t, "C1", "Pass the potato", "alice"))
	holder, held := g.potato.Holder.Resolved()
	require.True(t, held)
	assert.Equal(t, "Alice", holder.User.Name)
}

func TestTimerFiresInterleaveSafelyWithClicks(t *testing.T) {
	h := newHarness(store.NewMemoryStore())
	ctx := context.Background()
	_, err := h.mgr.Start(ctx, "C1")
	require.NoError(t, err)
	g := mustGame(t, h)

	require.NoError(t, h.click(t, "C1", "Pass the potato", "alice"))
	_ = h.click(t, "C1", "Pass the potato", "bob")

	// Timer callbacks run on their own goroutine, like the scheduler's.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			g.onRefill()
			g.onFuseExpired()
		}
	}()
	for i := 0; i < 50; i++ {
		_ = h.click(t, "C1", "Pass the potato", "alice")
		_ = h.click(t, "C1", "Pass the potato", "bob")
	}
	wg.Wait()

	// The state is still coherent: any recorded holder is a live player.
	if holder, held := g.potato.Holder.Resolved(); held {
		fromArena, ok := g.players.Get(holder.User.ID)
		require.True(t, ok)
		assert.Same(t, fromArena, holder)
	}
}

func TestConfigure(t *testing.T) {
	f := NewFactory(&Deps{})
	f.Configure(map[string]any{"fuse": "30s", "refill": "2h", "bogus": 1})
	assert.Equal(t, 30*time.Second, f.fuse)
	assert.Equal(t, 2*time.Hour, f.refill)

	// Invalid or non-positive values keep the previous setting.
	f.Configure(map[string]any{"fuse": "soon", "refill": "-1h"})
	assert.Equal(t, 30*time.Second, f.fuse)
	assert.Equal(t, 2*time.Hour, f.refill)
}
