package view

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
)

// View binds a set of declared components to one platform message and routes
// interaction events back to them. A view is transient: it is rebuilt on load
// from its registration table plus a compact persisted descriptor.
type View struct {
	registry  *Registry
	messenger platform.Messenger
	channel   string
	filter    FilterFunc

	components []*Component
	rows       []*[MaxRowWidth]*Component

	attached bool
	msg      platform.MessageRef
	content  string
}

// New returns an unattached view for the given channel.
func New(reg *Registry, messenger platform.Messenger, channel string) *View {
	return &View{registry: reg, messenger: messenger, channel: channel}
}

// SetFilter installs the runtime gate consulted before any handler runs.
func (v *View) SetFilter(f FilterFunc) {
	v.filter = f
}

// Channel returns the channel the view renders into.
func (v *View) Channel() string {
	return v.channel
}

// Attached reports whether the view is bound to a live message.
func (v *View) Attached() bool {
	return v.attached
}

// Message returns the message the view is attached to.
func (v *View) Message() platform.MessageRef {
	return v.msg
}

// Add places the component into the grid and mints its dispatch token.
// Components with AutoSlot coordinates take the first free position; an
// explicitly targeted slot that is occupied fails unless the component sets
// Replace.
func (v *View) Add(c *Component) error {
	if c.Index != AutoSlot && (c.Index < 0 || c.Index >= MaxRowWidth) {
		return fmt.Errorf("component %s: index %d out of range", c.ID, c.Index)
	}
	if c.Row != AutoSlot && c.Row < 0 {
		return fmt.Errorf("component %s: row %d out of range", c.ID, c.Row)
	}

	row := c.Row
	if row == AutoSlot {
		row = v.firstOpenRow()
	}
	for len(v.rows) <= row {
		v.rows = append(v.rows, &[MaxRowWidth]*Component{})
	}
	slots := v.rows[row]

	index := c.Index
	if index == AutoSlot {
		index = firstOpenIndex(slots)
		if index < 0 {
			return fmt.Errorf("component %s: row %d is full", c.ID, row)
		}
	}

	if prev := slots[index]; prev != nil {
		if !c.Replace {
			return fmt.Errorf("component %s: slot (%d, %d) already taken by %s", c.ID, row, index, prev.ID)
		}
		v.removeComponent(prev)
	}

	c.token = uuid.NewString()
	c.row, c.index = row, index
	slots[index] = c
	v.components = append(v.components, c)
	return nil
}

func (v *View) firstOpenRow() int {
	for i, slots := range v.rows {
		if firstOpenIndex(slots) >= 0 {
			return i
		}
	}
	return len(v.rows)
}

func firstOpenIndex(slots *[MaxRowWidth]*Component) int {
	for i, c := range slots {
		if c == nil {
			return i
		}
	}
	return -1
}

func (v *View) removeComponent(c *Component) {
	for i, existing := range v.components {
		if existing == c {
			v.components = append(v.components[:i], v.components[i+1:]...)
			break
		}
	}
}

// Component returns the component declared under id.
func (v *View) Component(id string) *Component {
	for _, c := range v.components {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Controls renders the grid as the platform expects it, trimming each row to
// its occupied prefix width.
func (v *View) Controls() [][]platform.Control {
	out := make([][]platform.Control, 0, len(v.rows))
	for _, slots := range v.rows {
		var row []platform.Control
		for _, c := range slots {
			if c != nil {
				row = append(row, c.control())
			}
		}
		out = append(out, row)
	}
	return out
}

// Send attaches the view to a brand-new message. It fails when the view is
// already attached.
func (v *View) Send(ctx context.Context, content string) error {
	if v.attached {
		return fmt.Errorf("view already attached to message %s", v.msg.ID)
	}
	ref, err := v.messenger.Send(ctx, v.channel, content, v.Controls())
	if err != nil {
		return fmt.Errorf("failed to send view: %w", err)
	}
	v.msg = ref
	v.content = content
	v.attached = true
	v.registry.attach(ref.ID, v)
	return nil
}

// Edit re-renders the attached message in place.
func (v *View) Edit(ctx context.Context, content string) error {
	if !v.attached {
		return fmt.Errorf("view is not attached")
	}
	if err := v.messenger.Edit(ctx, v.msg, content, v.Controls()); err != nil {
		return fmt.Errorf("failed to edit view: %w", err)
	}
	v.content = content
	return nil
}

// Resend deletes the attached message and sends a fresh one, re-keying the
// dispatch index under the new message identity. Use it when keeping the
// view at the bottom of the channel matters more than edit history.
func (v *View) Resend(ctx context.Context, content string) error {
	if !v.attached {
		return v.Send(ctx, content)
	}
	v.registry.detach(v.msg.ID)
	if err := v.messenger.Delete(ctx, v.msg); err != nil {
		return fmt.Errorf("failed to delete previous view message: %w", err)
	}
	v.attached = false
	return v.Send(ctx, content)
}

// End detaches the view: the message keeps its content but loses all
// controls, and no further events for it are routed anywhere.
func (v *View) End(ctx context.Context) error {
	if !v.attached {
		return nil
	}
	v.registry.detach(v.msg.ID)
	v.attached = false
	if err := v.messenger.Edit(ctx, v.msg, v.content, nil); err != nil {
		return fmt.Errorf("failed to strip view controls: %w", err)
	}
	return nil
}

// Attach binds the view to an existing message without re-sending it, as
// done when a game loads and re-registers its views.
func (v *View) Attach(ref platform.MessageRef, content string) error {
	if v.attached {
		return fmt.Errorf("view already attached to message %s", v.msg.ID)
	}
	v.msg = ref
	v.content = content
	v.attached = true
	v.registry.attach(ref.ID, v)
	return nil
}

// Descriptor returns the compact persisted form of the view: the message
// identity plus each component's dispatch token and free-form data. Tokens
// are persisted because the rendered message keeps carrying them; a view
// restored without them could never route a click from a surviving board.
func (v *View) Descriptor() codec.Document {
	if !v.attached {
		return nil
	}
	comps := codec.Document{}
	for _, c := range v.components {
		entry := codec.Document{"token": c.token}
		if len(c.Data) > 0 {
			entry["data"] = c.Data
		}
		comps[c.ID] = entry
	}
	return codec.Document{
		"messageId":  v.msg.ID,
		"channelId":  v.msg.Channel,
		"content":    v.content,
		"components": comps,
	}
}

// Restore rebinds the view from a persisted descriptor: each component takes
// back the token the surviving message renders plus its free-form data, and
// the view re-attaches to that message. A nil descriptor leaves the view
// unattached.
func (v *View) Restore(doc codec.Document) error {
	if doc == nil {
		return nil
	}
	comps := codec.Child(doc, "components")
	for _, c := range v.components {
		entry := codec.Child(comps, c.ID)
		if entry == nil {
			continue
		}
		if token := codec.String(entry, "token"); token != "" {
			c.token = token
		}
		if data := codec.Child(entry, "data"); data != nil {
			c.Data = data
		}
	}
	ref := platform.MessageRef{
		Channel: codec.String(doc, "channelId"),
		ID:      codec.String(doc, "messageId"),
	}
	if ref.ID == "" {
		return nil
	}
	return v.Attach(ref, codec.String(doc, "content"))
}

// dispatch routes one interaction to the matching component. An unknown
// token is a silent no-op; a vetoed event is dropped.
func (v *View) dispatch(ctx context.Context, ic platform.Interaction) error {
	for _, c := range v.components {
		if c.token != ic.Token {
			continue
		}
		if v.filter != nil && !v.filter(c, ic) {
			return nil
		}
		if c.Handle == nil {
			return nil
		}
		return c.Handle(ctx, ic)
	}
	return nil
}
