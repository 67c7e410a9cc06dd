package control

import "fmt"

// PanelState is the visibility of the panel body.
type PanelState int

const (
	Collapsed PanelState = iota
	Expanded
)

func (s PanelState) String() string {
	if s == Expanded {
		return "expanded"
	}
	return "collapsed"
}

// PanelEvent is a UI event that can expand or collapse the panel.
type PanelEvent string

const (
	PointerEnter PanelEvent = "pointerenter"
	PointerLeave PanelEvent = "pointerleave"
	ToggleFocus  PanelEvent = "focus"
	ToggleClick  PanelEvent = "click"
	MapClick     PanelEvent = "mapclick"
)

// State returns the panel state.
func (c *Control) State() PanelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandlePanelEvent drives the Collapsed/Expanded state machine. A panel
// that is not collapsible stays expanded. Pointer devices react to hover
// and focus, touch devices to clicks on the toggle.
func (c *Control) HandlePanelEvent(ev PanelEvent) (PanelState, error) {
	switch ev {
	case PointerEnter, PointerLeave, ToggleFocus, ToggleClick, MapClick:
	default:
		return c.State(), fmt.Errorf("%w: panel event %q", ErrInvalidParameter, ev)
	}

	c.mu.Lock()
	before := c.state
	if c.opts.Collapsed {
		touch := c.opts.Device == DeviceTouch
		switch ev {
		case PointerEnter, ToggleFocus:
			if !touch {
				c.state = Expanded
			}
		case PointerLeave:
			if !touch {
				c.state = Collapsed
			}
		case ToggleClick:
			if touch {
				c.state = Expanded
			}
		case MapClick:
			c.state = Collapsed
		}
	}
	after := c.state
	c.mu.Unlock()

	if after != before {
		c.notify()
	}
	return after, nil
}
