// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-mapctl/internal/control"
	"github.com/joeblew999/plat-mapctl/internal/service"
	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Control *control.Control
	Layers  *service.LayerService
	Map     *service.Map
	Maps    *mapservice.MapService
}

// RegisterRoutes registers every JSON route of the handler.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// Types

type LayerIDInput struct {
	ID string `path:"id" doc:"Layer id assigned by the control"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type ServiceQueryInput struct {
	Locale string   `query:"locale" doc:"Locale for descriptions" example:"en_US"`
	Names  []string `query:"names" doc:"Describe these names instead of listing"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterLayers registers the catalog route.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
}

// RegisterService registers the map server passthrough routes.
func (h *APIHandler) RegisterService(api huma.API) {
	huma.Get(api, "/api/v1/service/maps", h.GetServiceMaps, huma.OperationTags("service"))
	huma.Get(api, "/api/v1/service/layers", h.GetServiceLayers, huma.OperationTags("service"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body []service.LayerConfig }, error) {
	if h.svc == nil || h.svc.Layers == nil {
		return &struct{ Body []service.LayerConfig }{Body: []service.LayerConfig{}}, nil
	}
	return &struct{ Body []service.LayerConfig }{Body: h.svc.Layers.Configs()}, nil
}

func (h *APIHandler) GetServiceMaps(ctx context.Context, input *ServiceQueryInput) (*struct{ Body any }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error503ServiceUnavailable("map service not configured")
	}
	var raw json.RawMessage
	var err error
	if len(input.Names) > 0 {
		raw, err = h.svc.Maps.DescribeNamedMaps(ctx, input.Names)
	} else {
		raw, err = h.svc.Maps.ListNamedMaps(ctx, input.Locale)
	}
	return passthrough(raw, err)
}

func (h *APIHandler) GetServiceLayers(ctx context.Context, input *ServiceQueryInput) (*struct{ Body any }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error503ServiceUnavailable("map service not configured")
	}
	var raw json.RawMessage
	var err error
	if len(input.Names) > 0 {
		raw, err = h.svc.Maps.DescribeNamedLayers(ctx, input.Names)
	} else {
		raw, err = h.svc.Maps.ListNamedLayers(ctx, input.Locale)
	}
	return passthrough(raw, err)
}

func passthrough(raw json.RawMessage, err error) (*struct{ Body any }, error) {
	if err != nil {
		return nil, toHumaError(err)
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, huma.Error502BadGateway("map service returned invalid JSON", err)
	}
	return &struct{ Body any }{Body: body}, nil
}

// toHumaError maps control and map service errors to HTTP statuses.
func toHumaError(err error) error {
	var status *mapservice.StatusError
	switch {
	case errors.Is(err, control.ErrUnknownLayerID):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, control.ErrInvalidParameter),
		errors.Is(err, mapservice.ErrInvalidParameter),
		errors.Is(err, mapservice.ErrAmbiguousLocation):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &status):
		return huma.Error502BadGateway(err.Error())
	}
	log.WithError(err).Error("api request failed")
	return huma.Error500InternalServerError(err.Error())
}
