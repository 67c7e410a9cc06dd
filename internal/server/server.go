package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-mapctl/internal/api"
	"github.com/joeblew999/plat-mapctl/internal/api/panel"
	"github.com/joeblew999/plat-mapctl/internal/config"
	"github.com/joeblew999/plat-mapctl/internal/control"
	"github.com/joeblew999/plat-mapctl/internal/humastar"
	"github.com/joeblew999/plat-mapctl/internal/service"
	"github.com/joeblew999/plat-mapctl/internal/templates"
	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// Config holds the server configuration.
type Config struct {
	Host        string
	Port        string
	TemplateDir string // optional override of the embedded fragments
	App         config.Config
}

// Server is the layer control HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	services *api.Services
	bus      *service.EventBus
	renderer *templates.Renderer
	logger   *log.Entry

	events    chan service.Event
	closeOnce sync.Once
	done      chan struct{}
}

// New creates a server, builds the catalog and binds a control to the
// in-memory host map.
func New(cfg Config) (*Server, error) {
	logger := log.WithField("component", "server")
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-mapctl API", "1.0.0")
	humaConfig.Info.Description = "Layer switcher for named maps on a map server: visibility, ordering, opacity and legends."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer(api.Links))

	humaAPI := humago.New(mux, humaConfig)

	sc := cfg.App.Service
	client := mapservice.NewClient(sc.URL, sc.Timeout)
	client.ProxyURL = sc.ProxyURL
	client.AlwaysUseProxy = sc.AlwaysUseProxy
	maps := mapservice.NewMapService(client)

	layers, err := service.NewLayerService(cfg.App.Layers)
	if err != nil {
		return nil, fmt.Errorf("layer catalog: %w", err)
	}

	bus := service.NewEventBus()
	host := service.NewMap(bus, client)
	layers.ShowDefaults(host)

	base, overlays := layers.Named()
	ctl := control.New(host, maps, cfg.App.Control, base, overlays)
	ctl.OnChange(func() {
		bus.Publish(service.Event{Resource: service.ResourceControl, Action: service.ActionUpdated})
	})

	renderer, err := newRenderer(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		services: &api.Services{
			Control: ctl,
			Layers:  layers,
			Map:     host,
			Maps:    maps,
		},
		bus:      bus,
		renderer: renderer,
		logger:   logger,
		events:   bus.Subscribe(),
		done:     make(chan struct{}),
	}
	go s.watchLayers()

	s.routes()
	logger.WithFields(log.Fields{
		"service":  sc.URL,
		"base":     len(base),
		"overlays": len(overlays),
	}).Info("layer control ready")
	return s, nil
}

func newRenderer(dir string) (*templates.Renderer, error) {
	if dir == "" {
		return templates.New()
	}
	r, err := templates.NewFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("templates from %s: %w", dir, err)
	}
	return r, nil
}

// watchLayers re-renders the control when the host map adds or removes a
// registered layer.
func (s *Server) watchLayers() {
	defer close(s.done)
	for ev := range s.events {
		if ev.Resource != service.ResourceLayers {
			continue
		}
		s.services.Control.HandleLayerEvent(ev.ID)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services returns the wired services.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close stops the layer watcher and drops the control's registry.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.bus.Unsubscribe(s.events)
		<-s.done
		s.services.Control.Close()
	})
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.App.Service.URL, func() int {
		return len(s.services.Layers.List())
	}).RegisterRoutes(s.humaAPI)

	// Register panel SSE routes using Huma + Datastar SDK
	panel.NewHandler(s.services.Control, s.bus, s.renderer).RegisterRoutes(s.humaAPI)

	humastar.InjectResponseLinks(s.humaAPI, api.Links)

	// Page routes
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	html, err := s.renderer.Render("page", map[string]string{"Title": "plat-mapctl"})
	if err != nil {
		s.logger.WithError(err).Error("render page")
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	for _, link := range api.Links["/health"] {
		w.Header().Add("Link", link)
	}
	w.Write([]byte(html))
}
