package view

import (
	"context"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/platform"
)

// MaxRowWidth is the hard platform bound on controls per row.
const MaxRowWidth = 5

// AutoSlot lets the view pick the row and/or index for a component.
const AutoSlot = -1

// HandlerFunc handles one interaction routed to a component.
type HandlerFunc func(ctx context.Context, ic platform.Interaction) error

// FilterFunc is the per-view gate consulted before a matched handler runs.
// Returning false drops the event without user feedback.
type FilterFunc func(c *Component, ic platform.Interaction) bool

// Component declares one interactive control. Games build a registration
// table of these when constructing a view; each entry is bound to a freshly
// minted dispatch token when added.
type Component struct {
	// ID names the component within its view. It keys the free-form Data in
	// the persisted view descriptor and must be unique per view.
	ID string

	Label string
	Emoji string
	Style platform.Style

	// Row and Index pick the grid slot. AutoSlot places the component in the
	// first free position.
	Row   int
	Index int

	// Pausable components are vetoed by the default pause filter while the
	// owning game is paused.
	Pausable bool

	// Replace allows the component to take over an explicitly targeted slot
	// that is already occupied.
	Replace bool

	Disabled bool

	// Data is free-form state persisted inside the view descriptor.
	Data codec.Document

	Handle HandlerFunc

	token      string
	row, index int
}

// Token returns the dispatch token minted when the component was added to a
// view. Empty until then.
func (c *Component) Token() string {
	return c.token
}

// Slot returns the resolved grid position.
func (c *Component) Slot() (row, index int) {
	return c.row, c.index
}

func (c *Component) control() platform.Control {
	return platform.Control{
		Token:    c.token,
		Label:    c.Label,
		Emoji:    c.Emoji,
		Style:    c.Style,
		Disabled: c.Disabled,
	}
}
