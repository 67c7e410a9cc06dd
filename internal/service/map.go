package service

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-mapctl/internal/control"
	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// URLBuilder turns a descriptor into a request URL.
type URLBuilder interface {
	URL(d *mapservice.Descriptor) string
}

// Map is the in-memory host map. It tracks which layers are drawn and
// publishes an event on every add and remove.
type Map struct {
	mu     sync.RWMutex
	active map[string]control.Layer
	bus    *EventBus
	urls   URLBuilder
	logger *log.Entry
}

// NewMap creates an empty host map.
func NewMap(bus *EventBus, urls URLBuilder) *Map {
	return &Map{
		active: make(map[string]control.Layer),
		bus:    bus,
		urls:   urls,
		logger: log.WithField("component", "map"),
	}
}

// HasLayer reports whether l is drawn.
func (m *Map) HasLayer(l control.Layer) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.active[l.Key()]
	return ok
}

// AddLayer draws l. Adding a drawn layer does nothing.
func (m *Map) AddLayer(l control.Layer) {
	m.mu.Lock()
	if _, ok := m.active[l.Key()]; ok {
		m.mu.Unlock()
		return
	}
	m.active[l.Key()] = l
	m.mu.Unlock()

	m.logger.WithField("layer", l.Key()).Debug("layer added")
	m.publish(ActionAdded, l.Key())
}

// RemoveLayer stops drawing l.
func (m *Map) RemoveLayer(l control.Layer) {
	m.mu.Lock()
	if _, ok := m.active[l.Key()]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.active, l.Key())
	m.mu.Unlock()

	m.logger.WithField("layer", l.Key()).Debug("layer removed")
	m.publish(ActionRemoved, l.Key())
}

// Active returns the keys of the drawn layers, sorted.
func (m *Map) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.active))
	for k := range m.active {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Images returns one image request per drawn MapLayer over bound, base
// layers first and overlays by ascending z-index.
func (m *Map) Images(bound orb.Bound, width, height int, srs string) ([]MapImage, error) {
	m.mu.RLock()
	layers := make([]*MapLayer, 0, len(m.active))
	for _, l := range m.active {
		if ml, ok := l.(*MapLayer); ok {
			layers = append(layers, ml)
		}
	}
	m.mu.RUnlock()

	sort.Slice(layers, func(i, j int) bool {
		a, b := layers[i], layers[j]
		if a.Overlay() != b.Overlay() {
			return !a.Overlay()
		}
		if a.ZIndex() != b.ZIndex() {
			return a.ZIndex() < b.ZIndex()
		}
		return a.Key() < b.Key()
	})

	images := make([]MapImage, 0, len(layers))
	for _, l := range layers {
		d, err := mapservice.Render(l.RenderOptions(bound, width, height, srs))
		if err != nil {
			return nil, err
		}
		images = append(images, MapImage{
			Key:     l.Key(),
			Name:    l.Name(),
			Overlay: l.Overlay(),
			ZIndex:  l.ZIndex(),
			Opacity: l.Opacity(),
			URL:     m.urls.URL(d),
		})
	}
	return images, nil
}

func (m *Map) publish(action, key string) {
	if m.bus != nil {
		m.bus.Publish(Event{Resource: ResourceLayers, Action: action, ID: key})
	}
}
