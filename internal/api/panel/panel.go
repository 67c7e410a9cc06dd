// Package panel serves the layer control as Datastar SSE fragments.
package panel

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-mapctl/internal/control"
	"github.com/joeblew999/plat-mapctl/internal/humastar"
	"github.com/joeblew999/plat-mapctl/internal/service"
	"github.com/joeblew999/plat-mapctl/internal/templates"
)

const panelSelector = "#layer-control"

// Handler renders the control panel and applies UI actions to it.
type Handler struct {
	humastar.Handler
	ctl    *control.Control
	bus    *service.EventBus
	logger *log.Entry
}

// NewHandler creates a panel handler.
func NewHandler(ctl *control.Control, bus *service.EventBus, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		ctl:     ctl,
		bus:     bus,
		logger:  log.WithField("component", "panel"),
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("panel")
	huma.Get(api, "/ui/panel", h.Panel, tags)
	huma.Get(api, "/ui/events", h.Events, tags)
	huma.Post(api, "/ui/panel/{event}", h.PanelEvent, tags)
	huma.Post(api, "/ui/layers/{id}/visibility", h.Visibility, tags)
	huma.Post(api, "/ui/layers/{id}/opacity", h.Opacity, tags)
	huma.Post(api, "/ui/layers/{id}/legend", h.Legend, tags)
	huma.Post(api, "/ui/layers/{id}/{direction}", h.Move, tags)
}

type PanelEventInput struct {
	Event string `path:"event" enum:"pointerenter,pointerleave,focus,click,mapclick"`
}

type LayerSignalsInput struct {
	ID string `path:"id"`
	humastar.SignalsInput
}

type MoveInput struct {
	ID        string `path:"id"`
	Direction string `path:"direction" enum:"up,down"`
}

func (h *Handler) renderPanel(sse humastar.SSE) {
	sse.Replace(h.Render("panel", h.ctl.Render()), panelSelector)
}

// Panel sends the whole panel.
func (h *Handler) Panel(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(h.renderPanel), nil
}

func (h *Handler) PanelEvent(ctx context.Context, input *PanelEventInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if _, err := h.ctl.HandlePanelEvent(control.PanelEvent(input.Event)); err != nil {
			sse.Error(err.Error())
			return
		}
		h.renderPanel(sse)
	}), nil
}

func (h *Handler) Visibility(ctx context.Context, input *LayerSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		if err := h.ctl.SetVisibility(input.ID, signals.Bool("visible")); err != nil {
			sse.Error(err.Error())
			return
		}
		h.renderPanel(sse)
	}), nil
}

// Opacity applies the raw input text. Rejected input re-renders the row
// with the current value.
func (h *Handler) Opacity(ctx context.Context, input *LayerSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		applied, err := h.ctl.SetOpacity(input.ID, signals.Text("opacity"))
		if err != nil {
			sse.Error(err.Error())
			return
		}
		if !applied {
			h.logger.WithFields(log.Fields{"id": input.ID, "input": signals.Text("opacity")}).Debug("opacity input ignored")
		}
		h.renderPanel(sse)
	}), nil
}

func (h *Handler) Move(ctx context.Context, input *MoveInput) (*huma.StreamResponse, error) {
	dir, err := control.ParseDirection(input.Direction)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		if _, err := h.ctl.MoveDisplayed(input.ID, dir); err != nil {
			sse.Error(err.Error())
			return
		}
		h.renderPanel(sse)
	}), nil
}

// Legend toggles a legend and fills its container once the rows load.
func (h *Handler) Legend(ctx context.Context, input *LayerSignalsInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		legend, err := h.ctl.ToggleLegend(input.ID)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		h.renderPanel(sse)
		if legend == nil {
			return
		}

		target := "#legend-" + legend.LayerID
		if h.ctl.Options().SharedLegend {
			target = "#legend-shared"
		}
		resp, err := legend.Load(ctx)
		if err != nil {
			h.logger.WithError(err).WithField("map", legend.MapName).Warn("legend load failed")
			sse.Error("Legend unavailable: " + err.Error())
			return
		}
		sse.Patch(h.Render("legend", resp), target)
	}), nil
}

// Events re-renders the panel whenever the control changes and forwards
// host map changes as DOM events.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					switch ev.Resource {
					case service.ResourceControl:
						h.renderPanel(sse)
					case service.ResourceLayers:
						sse.DispatchCustomEvent("layer-changed", map[string]any{
							"action": ev.Action,
							"key":    ev.ID,
						})
					}
				}
			}
		},
	}, nil
}
