package control

import (
	"sort"

	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// Button is a reorder button of an overlay row.
type Button struct {
	Direction Direction `json:"direction"`
	Disabled  bool      `json:"disabled"`
}

// Row is one rendered layer.
type Row struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Overlay    bool     `json:"overlay"`
	Checked    bool     `json:"checked"`
	ZIndex     int      `json:"zIndex,omitempty"`
	HasOpacity bool     `json:"hasOpacity,omitempty"`
	Opacity    float64  `json:"opacity,omitempty"`
	Buttons    []Button `json:"buttons,omitempty"`
	HasLegend  bool     `json:"hasLegend,omitempty"`
	LegendOpen bool     `json:"legendOpen,omitempty"`

	Legend *mapservice.LegendResponse `json:"legend,omitempty" doc:"Loaded rows of the open legend"`
}

// View is a rendered snapshot of the control.
type View struct {
	Expanded      bool   `json:"expanded"`
	Collapsible   bool   `json:"collapsible"`
	Base          []Row  `json:"base"`
	Overlays      []Row  `json:"overlays"`
	ShowBase      bool   `json:"showBase"`
	ShowOverlays  bool   `json:"showOverlays"`
	ShowSeparator bool   `json:"showSeparator"`
	SharedLegend  string `json:"sharedLegend,omitempty" doc:"Row id owning the shared legend"`
	MaxHeight     string `json:"maxHeight,omitempty"`
	MaxWidth      string `json:"maxWidth,omitempty"`
	Position      string `json:"position"`
	CSSOff        bool   `json:"cssOff,omitempty"`

	SharedRows *mapservice.LegendResponse `json:"sharedRows,omitempty" doc:"Loaded rows of the shared legend"`
}

// Render builds the current view. Base layers keep registration order;
// overlays are sorted by z-index, ascending or descending with InverseOrder,
// with ties in registration order.
func (c *Control) Render() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Expanded:     c.state == Expanded,
		Collapsible:  c.opts.Collapsed,
		Base:         []Row{},
		Overlays:     []Row{},
		SharedLegend: c.sharedLegendID,
		SharedRows:   c.sharedLegend.Loaded(),
		MaxHeight:    c.opts.MaxHeight,
		MaxWidth:     c.opts.MaxWidth,
		Position:     c.opts.Position,
		CSSOff:       c.opts.CSSOff,
	}

	var overlays []*Entry
	for _, e := range c.ordered() {
		if e.Overlay {
			overlays = append(overlays, e)
			continue
		}
		v.Base = append(v.Base, c.row(e))
	}

	sortOverlays(overlays, c.opts.InverseOrder)
	for _, e := range overlays {
		v.Overlays = append(v.Overlays, c.row(e))
	}

	v.ShowBase = len(v.Base) > 0
	if c.opts.HideSingleBase {
		v.ShowBase = len(v.Base) > 1
	}
	v.ShowOverlays = len(v.Overlays) > 0
	v.ShowSeparator = v.ShowBase && v.ShowOverlays
	return v
}

func (c *Control) row(e *Entry) Row {
	r := Row{
		ID:      e.ID,
		Name:    e.Name,
		Overlay: e.Overlay,
		Checked: c.host.HasLayer(e.Layer),
	}
	if !e.Overlay {
		return r
	}

	r.ZIndex = e.ZIndex
	if c.opts.ZIndexControls {
		r.Buttons = []Button{c.button(e, Up), c.button(e, Down)}
	}
	if o, ok := e.Layer.(Opacifier); ok && c.opts.OpacityControls {
		r.HasOpacity = true
		r.Opacity = o.Opacity()
	}
	if _, ok := e.Layer.(LegendSource); ok && c.opts.LegendControls {
		r.HasLegend = true
		r.LegendOpen = e.legend != nil || c.sharedLegendID == e.ID
		r.Legend = e.legend.Loaded()
	}
	return r
}

// button disables a direction when the overlay already sits at the end of
// the z-range it would move towards.
func (c *Control) button(e *Entry, display Direction) Button {
	limit := c.tracker.Min
	if c.zDirection(display) == Up {
		limit = c.tracker.Max
	}
	return Button{Direction: display, Disabled: e.ZIndex == limit}
}

func sortBySeq(es []*Entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].seq < es[j].seq })
}

// sortOverlays expects es in registration order.
func sortOverlays(es []*Entry, desc bool) {
	sort.SliceStable(es, func(i, j int) bool {
		if desc {
			return es[i].ZIndex > es[j].ZIndex
		}
		return es[i].ZIndex < es[j].ZIndex
	})
}
