package control

import (
	"context"
	"errors"
	"sync"

	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// Legend is a legend view bound to one named map. It fetches nothing until
// Load is called; the last loaded rows are kept for later renders.
type Legend struct {
	LayerID string
	MapName string

	opts    LegendOptions
	fetcher LegendFetcher
	onLoad  func()

	mu     sync.Mutex
	loaded *mapservice.LegendResponse
}

// Load fetches the legend of the bound map.
func (l *Legend) Load(ctx context.Context) (*mapservice.LegendResponse, error) {
	if l.fetcher == nil {
		return nil, errors.New("no legend fetcher configured")
	}
	inline := l.opts.InlineSwatch
	resp, err := l.fetcher.LegendForMap(ctx, mapservice.LegendOptions{
		MapName:      l.MapName,
		Width:        l.opts.Width,
		Height:       l.opts.Height,
		ImageType:    l.opts.ImageType,
		InlineSwatch: &inline,
		Locale:       l.opts.Locale,
	})
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.loaded = resp
	l.mu.Unlock()
	if l.onLoad != nil {
		l.onLoad()
	}
	return resp, nil
}

// Loaded returns the rows of the last successful Load, or nil.
func (l *Legend) Loaded() *mapservice.LegendResponse {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// ToggleLegend opens the legend of an overlay, or closes it when it is
// already open. With SharedLegend opening another row replaces the shared
// legend. The returned legend is nil when the call closed it.
func (c *Control) ToggleLegend(id string) (*Legend, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil, unknownID(id)
	}
	src, ok := e.Layer.(LegendSource)
	if !ok || !e.Overlay || !c.opts.LegendControls {
		c.mu.Unlock()
		return nil, ErrInvalidParameter
	}

	var out *Legend
	switch {
	case c.opts.SharedLegend && c.sharedLegendID == e.ID:
		c.sharedLegend, c.sharedLegendID = nil, ""
	case c.opts.SharedLegend:
		out = c.newLegend(e.ID, src)
		c.sharedLegend, c.sharedLegendID = out, e.ID
	case e.legend != nil:
		e.legend = nil
	default:
		out = c.newLegend(e.ID, src)
		e.legend = out
	}
	c.mu.Unlock()

	c.notify()
	return out, nil
}

// OpenLegend returns the legend currently open for a row, or the shared
// legend when id is empty.
func (c *Control) OpenLegend(id string) (*Legend, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" || c.opts.SharedLegend {
		return c.sharedLegend, c.sharedLegend != nil && (id == "" || id == c.sharedLegendID)
	}
	e, ok := c.entries[id]
	if !ok || e.legend == nil {
		return nil, false
	}
	return e.legend, true
}

func (c *Control) newLegend(id string, src LegendSource) *Legend {
	return &Legend{
		LayerID: id,
		MapName: src.MapName(),
		opts:    c.opts.Legend,
		fetcher: c.fetcher,
		onLoad:  c.notify,
	}
}
