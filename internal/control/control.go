package control

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Entry is one registered layer.
type Entry struct {
	ID      string
	Layer   Layer
	Name    string
	Overlay bool
	ZIndex  int

	seq    int
	legend *Legend
}

// ZIndexTracker holds the z-index range of the registered overlays. With no
// overlays Min is 1 and Max is 0.
type ZIndexTracker struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Control is a layer switcher bound to one host map.
type Control struct {
	mu      sync.Mutex
	host    Host
	opts    Options
	fetcher LegendFetcher
	logger  *log.Entry

	entries map[string]*Entry
	keys    map[string]string // layer key -> id
	seq     int
	tracker ZIndexTracker
	state   PanelState

	sharedLegend   *Legend
	sharedLegendID string

	listeners []func()
}

// New creates a control and registers the given base layers and overlays in
// order.
func New(host Host, fetcher LegendFetcher, opts Options, base, overlays []Named) *Control {
	c := &Control{
		host:    host,
		opts:    opts,
		fetcher: fetcher,
		logger:  log.WithField("component", "control"),
		entries: make(map[string]*Entry),
		keys:    make(map[string]string),
		tracker: ZIndexTracker{Min: 1, Max: 0},
	}
	if !opts.Collapsed {
		c.state = Expanded
	}
	for _, n := range base {
		c.register(n.Layer, n.Name, false)
	}
	for _, n := range overlays {
		c.register(n.Layer, n.Name, true)
	}
	return c
}

// Options returns the control options.
func (c *Control) Options() Options {
	return c.opts
}

// OnChange adds a listener called after every state change, outside the
// control's lock.
func (c *Control) OnChange(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Control) notify() {
	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Register adds a layer and returns its id. A layer whose key is already
// registered keeps its entry and id.
func (c *Control) Register(l Layer, name string, overlay bool) string {
	id, added := c.register(l, name, overlay)
	if added {
		c.notify()
	}
	return id
}

func (c *Control) register(l Layer, name string, overlay bool) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.keys[l.Key()]; ok {
		c.logger.WithFields(log.Fields{"id": id, "key": l.Key()}).Debug("layer already registered")
		return id, false
	}

	e := &Entry{
		ID:      uuid.NewString(),
		Layer:   l,
		Name:    name,
		Overlay: overlay,
		seq:     c.seq,
	}
	c.seq++

	if overlay {
		zi, hasZ := l.(ZIndexer)
		switch {
		case c.opts.AutoZIndex:
			e.ZIndex = c.nextZIndex()
			if hasZ {
				zi.SetZIndex(e.ZIndex)
			}
		case hasZ:
			e.ZIndex = zi.ZIndex()
		}
	}

	c.entries[e.ID] = e
	c.keys[l.Key()] = e.ID
	c.recomputeTracker()

	c.logger.WithFields(log.Fields{"id": e.ID, "name": name, "overlay": overlay, "z": e.ZIndex}).Debug("layer registered")
	return e.ID, true
}

func (c *Control) nextZIndex() int {
	if !c.hasOverlays() {
		return 1
	}
	return c.tracker.Max + 1
}

func (c *Control) hasOverlays() bool {
	for _, e := range c.entries {
		if e.Overlay {
			return true
		}
	}
	return false
}

func (c *Control) recomputeTracker() {
	t := ZIndexTracker{Min: 1, Max: 0}
	first := true
	for _, e := range c.entries {
		if !e.Overlay {
			continue
		}
		if first {
			t = ZIndexTracker{Min: e.ZIndex, Max: e.ZIndex}
			first = false
			continue
		}
		t.Min = min(t.Min, e.ZIndex)
		t.Max = max(t.Max, e.ZIndex)
	}
	c.tracker = t
}

// Tracker returns the current z-index range of the overlays.
func (c *Control) Tracker() ZIndexTracker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker
}

// Remove unregisters a layer. The layer stays on the host map.
func (c *Control) Remove(id string) error {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return unknownID(id)
	}
	delete(c.entries, id)
	delete(c.keys, e.Layer.Key())
	if c.sharedLegendID == id {
		c.sharedLegend, c.sharedLegendID = nil, ""
	}
	c.recomputeTracker()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Close drops every entry and legend.
func (c *Control) Close() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.keys = make(map[string]string)
	c.sharedLegend, c.sharedLegendID = nil, ""
	c.tracker = ZIndexTracker{Min: 1, Max: 0}
	c.mu.Unlock()
}

// Entry returns a copy of a registered entry.
func (c *Control) Entry(id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// IDForKey returns the id registered for a layer key.
func (c *Control) IDForKey(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.keys[key]
	return id, ok
}

// HandleLayerEvent re-renders when a registered layer was added to or
// removed from the host. It reports whether the key was registered.
func (c *Control) HandleLayerEvent(key string) bool {
	if _, ok := c.IDForKey(key); !ok {
		return false
	}
	c.notify()
	return true
}

// Direction is a move direction, either on screen or in z-order.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection parses "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	}
	return "", ErrInvalidParameter
}

// zDirection maps an on-screen direction to a z-order direction. Without
// InverseOrder the lowest z-index is the top row, so moving a row down
// raises it.
func (c *Control) zDirection(display Direction) Direction {
	if (display == Up && c.opts.InverseOrder) || (display == Down && !c.opts.InverseOrder) {
		return Up
	}
	return Down
}

// MoveUp swaps the overlay with the one directly above it in z-order.
func (c *Control) MoveUp(id string) (bool, error) {
	return c.move(id, 1)
}

// MoveDown swaps the overlay with the one directly below it in z-order.
func (c *Control) MoveDown(id string) (bool, error) {
	return c.move(id, -1)
}

// MoveDisplayed moves a row up or down on screen.
func (c *Control) MoveDisplayed(id string, display Direction) (bool, error) {
	if c.zDirection(display) == Up {
		return c.MoveUp(id)
	}
	return c.MoveDown(id)
}

func (c *Control) move(id string, delta int) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return false, unknownID(id)
	}
	if !e.Overlay {
		c.mu.Unlock()
		return false, ErrInvalidParameter
	}

	neighbor := c.findOverlayByZ(e.ZIndex + delta)
	if neighbor == nil {
		c.mu.Unlock()
		return false, nil
	}

	cur := e.ZIndex
	c.setZ(neighbor, cur)
	c.setZ(e, cur+delta)
	c.recomputeTracker()
	c.mu.Unlock()

	c.logger.WithFields(log.Fields{"id": id, "from": cur, "to": cur + delta}).Debug("overlay moved")
	c.notify()
	return true, nil
}

func (c *Control) setZ(e *Entry, z int) {
	e.ZIndex = z
	if zi, ok := e.Layer.(ZIndexer); ok {
		zi.SetZIndex(z)
	}
}

// findOverlayByZ returns the first overlay, in registration order, at z.
func (c *Control) findOverlayByZ(z int) *Entry {
	var found *Entry
	for _, e := range c.entries {
		if !e.Overlay || e.ZIndex != z {
			continue
		}
		if found == nil || e.seq < found.seq {
			found = e
		}
	}
	return found
}

// SetVisibility shows or hides one layer. Showing a base layer hides the
// other base layers first.
func (c *Control) SetVisibility(id string, visible bool) error {
	return c.ApplyVisibility(map[string]bool{id: visible})
}

// ApplyVisibility applies a batch of visibility changes. Every removal is
// applied before any addition, so switching base layers never has both on
// the map. Ids missing from state keep their current visibility. A batch
// that shows more than one base layer is rejected.
func (c *Control) ApplyVisibility(state map[string]bool) error {
	c.mu.Lock()
	shownBase := 0
	for id, v := range state {
		e, ok := c.entries[id]
		if !ok {
			c.mu.Unlock()
			return unknownID(id)
		}
		if v && !e.Overlay {
			shownBase++
		}
	}
	if shownBase > 1 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d base layers shown at once", ErrInvalidParameter, shownBase)
	}

	want := make(map[string]bool, len(state))
	for id, v := range state {
		want[id] = v
	}
	for id, v := range state {
		if !v || c.entries[id].Overlay {
			continue
		}
		for _, e := range c.entries {
			if !e.Overlay && e.ID != id {
				if _, explicit := want[e.ID]; !explicit {
					want[e.ID] = false
				}
			}
		}
	}

	var added, removed []Layer
	for _, e := range c.ordered() {
		v, ok := want[e.ID]
		if !ok {
			continue
		}
		has := c.host.HasLayer(e.Layer)
		switch {
		case v && !has:
			added = append(added, e.Layer)
		case !v && has:
			removed = append(removed, e.Layer)
		}
	}
	c.mu.Unlock()

	for _, l := range removed {
		c.host.RemoveLayer(l)
	}
	for _, l := range added {
		c.host.AddLayer(l)
	}

	if len(added)+len(removed) > 0 {
		c.notify()
	}
	return nil
}

// SetOpacity applies raw text input as the layer's opacity. Input that is
// not a finite number, or a layer without opacity, is ignored and reported
// as not applied.
func (c *Control) SetOpacity(id, raw string) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return false, unknownID(id)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return false, nil
	}
	o, ok := e.Layer.(Opacifier)
	if !ok {
		return false, nil
	}
	o.SetOpacity(v)
	c.notify()
	return true, nil
}

// ordered returns the entries in registration order. Callers hold c.mu.
func (c *Control) ordered() []*Entry {
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sortBySeq(out)
	return out
}
