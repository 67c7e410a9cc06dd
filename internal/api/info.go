package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	serviceURL string
	layers     func() int
}

// NewInfoHandler reports the map server URL and a live catalog size.
func NewInfoHandler(serviceURL string, layers func() int) *InfoHandler {
	return &InfoHandler{serviceURL: serviceURL, layers: layers}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name       string   `json:"name" doc:"Service name"`
	Version    string   `json:"version" doc:"Service version"`
	ServiceURL string   `json:"service_url" doc:"Map server base URL"`
	Layers     int      `json:"layers" doc:"Number of catalog layers"`
	Features   []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	n := 0
	if h.layers != nil {
		n = h.layers()
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:       "plat-mapctl",
		Version:    "0.1.0",
		ServiceURL: h.serviceURL,
		Layers:     n,
		Features:   []string{"layer-control", "legends", "descriptors", "datastar"},
	}}, nil
}
