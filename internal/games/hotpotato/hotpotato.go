// Package hotpotato is a small channel game: whoever holds the potato when
// the fuse runs out loses a point, passing it on earns one. It doubles as
// the reference integration of the minigame core (players arena, sub-entity
// back-reference, pausable controls, turn scheduler, daily refill).
package hotpotato

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/bus"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/game"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/view"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/pkg/logger"
)

// Collection is the document store collection the module persists to.
const Collection = "hotpotato"

const (
	defaultFuse   = 10 * time.Minute
	defaultRefill = 24 * time.Hour
	dailyThrows   = 5
)

// Deps are the collaborators a game needs. Persist is the lifecycle
// manager; it is wired after the manager exists, before any game runs.
type Deps struct {
	Messenger platform.Messenger
	Resolver  platform.UserResolver
	Views     *view.Registry
	Scheduler *game.Scheduler
	Persist   game.Persister
}

// Factory builds hotpotato games. Fuse and refill intervals can be tuned
// through the manifest settings block.
type Factory struct {
	deps   *Deps
	fuse   time.Duration
	refill time.Duration
}

// NewFactory returns a factory with default timings.
func NewFactory(deps *Deps) *Factory {
	return &Factory{deps: deps, fuse: defaultFuse, refill: defaultRefill}
}

// Configure applies the manifest settings block. Unknown keys are ignored.
func (f *Factory) Configure(settings map[string]any) {
	if settings == nil {
		return
	}
	if s := codec.String(settings, "fuse"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			f.fuse = d
		}
	}
	if s := codec.String(settings, "refill"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			f.refill = d
		}
	}
}

func (f *Factory) Collection() string {
	return Collection
}

func (f *Factory) New(channel string) game.Game {
	g := &Game{
		Base:    game.NewBase(channel),
		deps:    f.deps,
		fuse:    f.fuse,
		refill:  f.refill,
		players: codec.NewArena[*Player](),
		potato:  &Potato{},
		throws:  bus.New[ThrowEvent](),
	}
	g.ui = g.buildView()
	return g
}

// ThrowEvent is published before a throw lands. Subscribers can veto it,
// which refunds nothing and tells the thrower the potato would not budge.
type ThrowEvent struct {
	From *Player
	To   *Player
}

// Game is one channel's hot potato round.
type Game struct {
	game.Base
	deps   *Deps
	fuse   time.Duration
	refill time.Duration

	// mu serializes mutations of the game state. Interaction handlers run on
	// the platform's dispatch goroutine while the scheduler fires callbacks
	// on timer goroutines, so every entry point takes the lock.
	mu       sync.Mutex
	players  *codec.Arena[*Player]
	potato   *Potato
	refillAt time.Time
	ui       *view.View
	throws   *bus.Bus[ThrowEvent]
}

// ThrowEvents exposes the throw bus so other modules can observe or veto
// throws, e.g. an item module shielding a player.
func (g *Game) ThrowEvents() *bus.Bus[ThrowEvent] {
	return g.throws
}

// Serialize flattens the game into its document: players in join order, the
// potato with its holder as an identity string, both timer targets, and the
// view descriptor when a board message is live.
func (g *Game) Serialize() codec.Document {
	g.mu.Lock()
	defer g.mu.Unlock()

	doc := codec.Document{
		"players":  g.players.Documents(func(p *Player) codec.Document { return p.Serialize() }),
		"potato":   g.potato.Serialize(),
		"refillAt": codec.Stamp(g.refillAt),
	}
	if d := g.ui.Descriptor(); d != nil {
		doc["view"] = d
	}
	return doc
}

// Load rebuilds the game in two passes: players first (owners before owned,
// resolving their platform identity), then the potato, then the holder
// back-reference is bound through the players arena. A purged identity is
// reported, never fatal.
func (g *Game) Load(ctx context.Context, doc codec.Document, rep *codec.Report) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, pd := range codec.List(doc, "players") {
		p := loadPlayer(ctx, g.deps.Resolver, pd, rep)
		g.players.Put(p.User.ID, p)
	}
	if pd := codec.Child(doc, "potato"); pd != nil {
		g.potato = loadPotato(pd)
	}
	g.refillAt = codec.Time(doc, "refillAt")

	g.potato.Holder.Bind(g.players, rep, "player", "potato.holder")

	if err := g.ui.Restore(codec.Child(doc, "view")); err != nil {
		return fmt.Errorf("failed to restore board view: %w", err)
	}
	return nil
}

// OnStart sends the board, arms both timers and persists the resulting
// descriptor and timestamps.
func (g *Game) OnStart(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	g.potato.FuseAt = now.Add(g.fuse)
	g.refillAt = now.Add(g.refill)

	err := g.ui.Send(ctx, g.render())
	if err == nil {
		g.armFuse()
		g.armRefill()
	}
	g.mu.Unlock()

	if err != nil {
		return err
	}
	return g.deps.Persist.Save(g)
}

// OnPauseChanged stops the timers while paused and re-arms them from the
// unchanged persisted targets on resume.
func (g *Game) OnPauseChanged(ctx context.Context) error {
	g.mu.Lock()
	if g.Paused() {
		g.disarm()
	} else {
		g.armFuse()
		g.armRefill()
	}
	g.mu.Unlock()
	return g.refreshBoard(ctx)
}

// OnDelete clears timers and ends the board view; the manager removes the
// document.
func (g *Game) OnDelete(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.disarm()
	return g.ui.End(ctx)
}

// OnLoad re-arms the timers after a restart. Deadlines the process slept
// through fire immediately.
func (g *Game) OnLoad(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.Paused() {
		g.armFuse()
		g.armRefill()
	}
	return nil
}

func (g *Game) fuseKey() string   { return g.Channel() + "/fuse" }
func (g *Game) refillKey() string { return g.Channel() + "/refill" }

func (g *Game) armFuse() {
	g.deps.Scheduler.Arm(g.fuseKey(), g.potato.FuseAt, g.onFuseExpired)
}

func (g *Game) armRefill() {
	g.deps.Scheduler.Arm(g.refillKey(), g.refillAt, g.onRefill)
}

func (g *Game) disarm() {
	g.deps.Scheduler.Disarm(g.fuseKey())
	g.deps.Scheduler.Disarm(g.refillKey())
}

// onFuseExpired is the scheduled turn transition: the holder burns their
// hands, the potato resets, and a new fuse target is persisted and armed.
func (g *Game) onFuseExpired() {
	ctx := context.Background()

	g.mu.Lock()
	if holder, ok := g.potato.Holder.Resolved(); ok {
		holder.Score--
		g.announce(ctx, fmt.Sprintf("💥 The potato exploded in %s's hands!", holder.User.Name))
	}
	g.potato.Holder.Clear()
	g.potato.FuseAt = time.Now().Add(g.fuse)
	g.armFuse()
	g.mu.Unlock()

	g.deps.Persist.SaveLater(g)
	if err := g.refreshBoard(ctx); err != nil {
		logger.Log.WithField("channel", g.Channel()).WithError(err).Error("failed to refresh board")
	}
}

// onRefill restores every player's daily throws and advances the refill
// target past now, catching up if the process was down for several periods.
func (g *Game) onRefill() {
	ctx := context.Background()

	g.mu.Lock()
	g.players.Each(func(id string, p *Player) {
		p.Throws = dailyThrows
	})
	now := time.Now()
	for !g.refillAt.After(now) {
		g.refillAt = g.refillAt.Add(g.refill)
	}
	g.armRefill()
	g.mu.Unlock()

	g.deps.Persist.SaveLater(g)
	if err := g.refreshBoard(ctx); err != nil {
		logger.Log.WithField("channel", g.Channel()).WithError(err).Error("failed to refresh board")
	}
}

// player returns the caller's state, creating it on first interaction.
// Callers hold g.mu.
func (g *Game) player(u platform.User) *Player {
	if p, ok := g.players.Get(u.ID); ok {
		return p
	}
	p := &Player{User: u, Throws: dailyThrows}
	g.players.Put(u.ID, p)
	return p
}

func (g *Game) handlePass(ctx context.Context, ic platform.Interaction) error {
	if err := g.pass(ctx, ic); err != nil {
		return err
	}
	g.deps.Persist.SaveLater(g)
	return g.refreshBoard(ctx)
}

// pass applies one press of the pass button. The persist and board refresh
// happen outside the lock because both re-enter through Serialize/render.
func (g *Game) pass(ctx context.Context, ic platform.Interaction) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	player := g.player(ic.User)
	holder, held := g.potato.Holder.Resolved()

	switch {
	case !held:
		g.potato.Holder.Set(player.User.ID, player)
		g.announce(ctx, fmt.Sprintf("🥔 %s picked up the potato!", player.User.Name))
	case holder != player:
		return game.NewStateError("pass", "you are not holding the potato")
	case player.Throws <= 0:
		return game.NewStateError("pass", "you are out of throws for today")
	default:
		target := g.randomTarget(player)
		if target == nil {
			return game.NewStateError("pass", "there is no one to pass the potato to")
		}
		if err := g.throws.Publish(ThrowEvent{From: player, To: target}); err != nil {
			if errors.Is(err, bus.ErrVeto) {
				return game.NewStateError("pass", "%s dodged the potato!", target.User.Name)
			}
			return err
		}
		player.Throws--
		player.Score++
		g.potato.Holder.Set(target.User.ID, target)
		g.announce(ctx, fmt.Sprintf("🥔 %s threw the potato to %s!", player.User.Name, target.User.Name))
	}

	g.potato.FuseAt = time.Now().Add(g.fuse)
	g.armFuse()
	return nil
}

func (g *Game) handleStats(ctx context.Context, ic platform.Interaction) error {
	return ic.Reply(g.Standings(), true)
}

// randomTarget picks a random player other than from. Callers hold g.mu.
func (g *Game) randomTarget(from *Player) *Player {
	var others []*Player
	g.players.Each(func(id string, p *Player) {
		if p != from {
			others = append(others, p)
		}
	})
	if len(others) == 0 {
		return nil
	}
	return others[rand.Intn(len(others))]
}

// Standings renders the scoreboard.
func (g *Game) Standings() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.standings()
}

func (g *Game) standings() string {
	if g.players.Len() == 0 {
		return "No one has touched the potato yet."
	}
	var b strings.Builder
	b.WriteString("Standings:")
	g.players.Each(func(id string, p *Player) {
		fmt.Fprintf(&b, "\n%s: %d points, %d throws left", p.User.Name, p.Score, p.Throws)
	})
	return b.String()
}

// render builds the board content. Callers hold g.mu.
func (g *Game) render() string {
	var b strings.Builder
	if g.Paused() {
		b.WriteString("⏸️ The game is paused.\n")
	}
	if holder, ok := g.potato.Holder.Resolved(); ok {
		fmt.Fprintf(&b, "🥔 %s is holding the potato. It blows up at %s.",
			holder.User.Name, g.potato.FuseAt.Format(time.Kitchen))
	} else {
		b.WriteString("🥔 The potato is up for grabs!")
	}
	b.WriteString("\n\n")
	b.WriteString(g.standings())
	return b.String()
}

func (g *Game) refreshBoard(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ui.Attached() {
		return nil
	}
	return g.ui.Edit(ctx, g.render())
}

func (g *Game) announce(ctx context.Context, content string) {
	if err := g.deps.Messenger.Notify(ctx, g.Channel(), content, 30*time.Second); err != nil {
		logger.Log.WithField("channel", g.Channel()).WithError(err).Error("failed to announce")
	}
}

// buildView declares the board's registration table. The declarations are
// static; a slot conflict here is a programming error, hence the panic.
func (g *Game) buildView() *view.View {
	v := view.New(g.deps.Views, g.deps.Messenger, g.Channel())
	v.SetFilter(func(c *view.Component, ic platform.Interaction) bool {
		return !(g.Paused() && c.Pausable)
	})
	for _, c := range []*view.Component{
		{
			ID:       "pass",
			Label:    "Pass the potato",
			Emoji:    "🥔",
			Style:    platform.StylePrimary,
			Row:      view.AutoSlot,
			Index:    view.AutoSlot,
			Pausable: true,
			Handle:   g.handlePass,
		},
		{
			ID:     "stats",
			Label:  "Stats",
			Style:  platform.StyleSecondary,
			Row:    view.AutoSlot,
			Index:  view.AutoSlot,
			Handle: g.handleStats,
		},
	} {
		if err := v.Add(c); err != nil {
			panic(err)
		}
	}
	return v
}
