package platform

import (
	"context"
	"time"
)

// Style selects the visual treatment of a rendered control.
type Style int

const (
	StylePrimary Style = iota + 1
	StyleSecondary
	StyleSuccess
	StyleDanger
)

// User is a resolved chat-platform user.
type User struct {
	ID   string
	Name string
}

// MessageRef addresses one message on the platform.
type MessageRef struct {
	Channel string
	ID      string
}

// Control is one rendered interactive control. Token is the opaque dispatch
// identity echoed back by the platform when the control is used; the core
// treats it as an unguessable random string with no structure.
type Control struct {
	Token    string
	Label    string
	Emoji    string
	Style    Style
	Disabled bool
}

// Interaction is one inbound control event.
type Interaction struct {
	Token   string
	Message MessageRef
	User    User

	reply func(content string, ephemeral bool) error
}

// NewInteraction builds an interaction event. reply may be nil for events
// that cannot be answered.
func NewInteraction(token string, msg MessageRef, user User, reply func(content string, ephemeral bool) error) Interaction {
	return Interaction{Token: token, Message: msg, User: user, reply: reply}
}

// Reply answers the interaction, visibly or ephemerally. Replying to an
// unrepliable event is a no-op.
func (ic Interaction) Reply(content string, ephemeral bool) error {
	if ic.reply == nil {
		return nil
	}
	return ic.reply(content, ephemeral)
}

// Messenger is the slice of the chat platform the core depends on. Concrete
// clients live outside this module.
type Messenger interface {
	// Send posts a new message carrying the given control grid.
	Send(ctx context.Context, channel, content string, rows [][]Control) (MessageRef, error)
	// Edit re-renders an existing message in place. A nil grid strips all
	// controls.
	Edit(ctx context.Context, ref MessageRef, content string, rows [][]Control) error
	// Delete removes a message.
	Delete(ctx context.Context, ref MessageRef) error
	// Notify posts a self-deleting notice to a channel.
	Notify(ctx context.Context, channel, content string, ttl time.Duration) error
}

// UserResolver turns an external identity string into a usable User. This is
// the network round trip an entity load performs while reconstructing
// players.
type UserResolver interface {
	ResolveUser(ctx context.Context, id string) (User, error)
}
