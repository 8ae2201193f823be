package router

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/game"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/view"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/pkg/logger"
)

// noticeTTL is how long user-visible error notices stay up before the
// platform deletes them.
const noticeTTL = 15 * time.Second

// Request is one inbound command addressed to a minigame module. Args starts
// with the subcommand; the external command router has already matched the
// module and checked permissions.
type Request struct {
	Channel string
	User    platform.User
	Args    []string
}

// Handler handles a game-specific subcommand once the channel's game has
// been resolved. The returned string, if any, is posted back to the channel.
type Handler func(ctx context.Context, g game.Game, req Request) (string, error)

// Router maps subcommands onto one module's lifecycle manager and routes
// component interactions through the dispatch index. It owns the top-level
// error handling for both event sources.
type Router struct {
	manager   *game.Manager
	views     *view.Registry
	messenger platform.Messenger
	operator  string
	commands  map[string]Handler
	log       *logrus.Entry
}

// New wires a router for one minigame module. operator names the channel
// that receives diagnostics for unexpected errors; empty disables the posts.
func New(manager *game.Manager, views *view.Registry, messenger platform.Messenger, operator string) *Router {
	return &Router{
		manager:   manager,
		views:     views,
		messenger: messenger,
		operator:  operator,
		commands:  make(map[string]Handler),
		log:       logger.Log.WithField("collection", manager.Collection()),
	}
}

// Register adds a game-specific subcommand.
func (r *Router) Register(name string, h Handler) {
	r.commands[name] = h
}

// HandleCommand executes one command. All feedback goes through the
// messenger; a failure never propagates to the caller.
func (r *Router) HandleCommand(ctx context.Context, req Request) {
	defer r.recoverTo(ctx, req.Channel, nil)

	if len(req.Args) == 0 {
		r.fail(ctx, req.Channel, nil, game.NewValidationError("missing subcommand"))
		return
	}

	sub := req.Args[0]
	switch sub {
	case "start":
		if _, err := r.manager.Start(ctx, req.Channel); err != nil {
			r.fail(ctx, req.Channel, nil, err)
			return
		}
		r.notify(ctx, req.Channel, "Game started.")
	case "toggle":
		paused, err := r.manager.Toggle(ctx, req.Channel)
		if err != nil {
			r.fail(ctx, req.Channel, nil, err)
			return
		}
		if paused {
			r.notify(ctx, req.Channel, "Game paused.")
		} else {
			r.notify(ctx, req.Channel, "Game resumed.")
		}
	case "delete":
		if err := r.manager.Delete(ctx, req.Channel); err != nil {
			r.fail(ctx, req.Channel, nil, err)
			return
		}
		r.notify(ctx, req.Channel, "Game deleted.")
	default:
		h, ok := r.commands[sub]
		if !ok {
			r.fail(ctx, req.Channel, nil, game.NewValidationError("unknown subcommand %q", sub))
			return
		}
		g, err := r.manager.Get(req.Channel)
		if err != nil {
			r.fail(ctx, req.Channel, nil, err)
			return
		}
		reply, err := h(ctx, g, req)
		if err != nil {
			r.fail(ctx, req.Channel, nil, err)
			return
		}
		if reply != "" {
			r.notify(ctx, req.Channel, reply)
		}
	}
}

// HandleInteraction routes one component event through the dispatch index.
func (r *Router) HandleInteraction(ctx context.Context, ic platform.Interaction) {
	defer r.recoverTo(ctx, ic.Message.Channel, &ic)

	if err := r.views.Dispatch(ctx, ic); err != nil {
		r.fail(ctx, ic.Message.Channel, &ic, err)
	}
}

func (r *Router) notify(ctx context.Context, channel, content string) {
	if err := r.messenger.Notify(ctx, channel, content, noticeTTL); err != nil {
		r.log.WithField("channel", channel).WithError(err).Error("failed to post notice")
	}
}

// fail turns an error into user feedback. Expected errors carry their own
// message; anything else is logged in full, posted to the operator channel,
// and acknowledged with a generic self-deleting notice.
func (r *Router) fail(ctx context.Context, channel string, ic *platform.Interaction, err error) {
	if msg, ok := game.UserMessage(err); ok {
		if ic != nil {
			if rerr := ic.Reply(msg, true); rerr == nil {
				return
			}
		}
		r.notify(ctx, channel, msg)
		return
	}

	r.log.WithField("channel", channel).WithError(err).Error("unexpected error")
	if r.operator != "" {
		diag := fmt.Sprintf("Error in channel %s: %v", channel, err)
		if _, serr := r.messenger.Send(ctx, r.operator, diag, nil); serr != nil {
			r.log.WithError(serr).Error("failed to post operator diagnostic")
		}
	}
	if ic != nil {
		if rerr := ic.Reply("Something went wrong. The operators have been notified.", true); rerr == nil {
			return
		}
	}
	r.notify(ctx, channel, "Something went wrong. The operators have been notified.")
}

func (r *Router) recoverTo(ctx context.Context, channel string, ic *platform.Interaction) {
	if rec := recover(); rec != nil {
		r.fail(ctx, channel, ic, fmt.Errorf("handler panicked: %v", rec))
	}
}
