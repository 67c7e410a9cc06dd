// Package control implements the layer switcher: a registry of base layers
// and overlays with z-index ordering, visibility, opacity and legend state.
//
// The control never renders markup itself. Render returns a [View] that the
// HTTP layer turns into HTML or JSON, and all map state is reached through
// the narrow [Host] and [Layer] capabilities.
package control

import (
	"context"

	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// Layer is any map layer the host knows about. Key must be stable and is
// used to match host lifecycle events to registered layers.
type Layer interface {
	Key() string
}

// ZIndexer is implemented by layers with a stacking index.
type ZIndexer interface {
	ZIndex() int
	SetZIndex(z int)
}

// Opacifier is implemented by layers whose opacity can change.
type Opacifier interface {
	Opacity() float64
	SetOpacity(v float64)
}

// LegendSource is implemented by layers backed by a named map.
type LegendSource interface {
	MapName() string
}

// Host is the map the control manipulates.
type Host interface {
	HasLayer(l Layer) bool
	AddLayer(l Layer)
	RemoveLayer(l Layer)
}

// LegendFetcher loads legends for a named map.
type LegendFetcher interface {
	LegendForMap(ctx context.Context, o mapservice.LegendOptions) (*mapservice.LegendResponse, error)
}

// Named pairs a layer with its display name, for construction.
type Named struct {
	Name  string
	Layer Layer
}
