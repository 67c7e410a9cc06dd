package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapctl/internal/control"
	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// MapLayer is a catalog layer bound to a named map. It carries the mutable
// z-index and opacity the control adjusts.
type MapLayer struct {
	cfg LayerConfig

	mu      sync.RWMutex
	zIndex  int
	opacity float64
}

// NewMapLayer creates a layer from its catalog entry.
func NewMapLayer(cfg LayerConfig) *MapLayer {
	return &MapLayer{cfg: cfg, zIndex: cfg.ZIndex, opacity: cfg.Opacity}
}

func (l *MapLayer) Key() string     { return l.cfg.Key }
func (l *MapLayer) Name() string    { return l.cfg.Name }
func (l *MapLayer) MapName() string { return l.cfg.MapName }
func (l *MapLayer) Overlay() bool   { return l.cfg.Overlay }

// Config returns the catalog entry with the current z-index and opacity.
func (l *MapLayer) Config() LayerConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cfg := l.cfg
	cfg.ZIndex = l.zIndex
	cfg.Opacity = l.opacity
	return cfg
}

func (l *MapLayer) ZIndex() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zIndex
}

func (l *MapLayer) SetZIndex(z int) {
	l.mu.Lock()
	l.zIndex = z
	l.mu.Unlock()
}

func (l *MapLayer) Opacity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opacity
}

// SetOpacity clamps v to [0, 1].
func (l *MapLayer) SetOpacity(v float64) {
	l.mu.Lock()
	l.opacity = min(max(v, 0), 1)
	l.mu.Unlock()
}

// RenderOptions returns the image request for this layer over bound.
func (l *MapLayer) RenderOptions(bound orb.Bound, width, height int, srs string) mapservice.RenderOptions {
	return mapservice.RenderOptions{
		MapName:   l.cfg.MapName,
		ImageType: l.cfg.ImageType,
		Width:     width,
		Height:    height,
		Bounds:    &bound,
		SRS:       srs,
	}
}

// LayerService holds the layer catalog in catalog order.
type LayerService struct {
	mu     sync.RWMutex
	layers map[string]*MapLayer
	order  []string
}

// NewLayerService builds the catalog. Entries without a key get one derived
// from their name.
func NewLayerService(configs []LayerConfig) (*LayerService, error) {
	s := &LayerService{layers: make(map[string]*MapLayer)}
	for _, cfg := range configs {
		if _, err := s.Create(cfg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// List returns the layers in catalog order.
func (s *LayerService) List() []*MapLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*MapLayer, 0, len(s.order))
	for _, key := range s.order {
		result = append(result, s.layers[key])
	}
	return result
}

// Configs returns the catalog entries in catalog order.
func (s *LayerService) Configs() []LayerConfig {
	layers := s.List()
	out := make([]LayerConfig, len(layers))
	for i, l := range layers {
		out[i] = l.Config()
	}
	return out
}

// Named splits the catalog into base layers and overlays for a control.
func (s *LayerService) Named() (base, overlays []control.Named) {
	for _, l := range s.List() {
		n := control.Named{Name: l.Name(), Layer: l}
		if l.Overlay() {
			overlays = append(overlays, n)
		} else {
			base = append(base, n)
		}
	}
	return base, overlays
}

// ShowDefaults adds every DefaultVisible layer to host. Only the first
// default base layer is shown.
func (s *LayerService) ShowDefaults(host control.Host) {
	baseShown := false
	for _, l := range s.List() {
		if !l.cfg.DefaultVisible {
			continue
		}
		if !l.Overlay() {
			if baseShown {
				continue
			}
			baseShown = true
		}
		host.AddLayer(l)
	}
}

// Get returns a layer by key.
func (s *LayerService) Get(key string) (*MapLayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.layers[key]
	return layer, ok
}

// Create adds a layer to the catalog.
func (s *LayerService) Create(cfg LayerConfig) (*MapLayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Key == "" {
		cfg.Key = generateID(cfg.Name)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("layer %q has no usable key", cfg.Name)
	}
	if cfg.MapName == "" {
		return nil, fmt.Errorf("layer %q has no map name", cfg.Key)
	}
	// map names go into request paths as a single segment
	if mapservice.Sanitize(cfg.MapName) != cfg.MapName {
		return nil, fmt.Errorf("layer %q: map name %q is not a plain map name", cfg.Key, cfg.MapName)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Key
	}
	if cfg.ImageType == "" {
		cfg.ImageType = mapservice.DefaultImageType
	}
	// a zero catalog opacity means unset; hidden layers are removed instead
	if cfg.Opacity == 0 {
		cfg.Opacity = 1
	}
	if _, exists := s.layers[cfg.Key]; exists {
		return nil, fmt.Errorf("layer with key %q already exists", cfg.Key)
	}

	l := NewMapLayer(cfg)
	s.layers[cfg.Key] = l
	s.order = append(s.order, cfg.Key)
	return l, nil
}

// Delete removes a layer from the catalog.
func (s *LayerService) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.layers[key]; !exists {
		return fmt.Errorf("layer %q not found", key)
	}
	delete(s.layers, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// generateID creates a URL-safe key from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
