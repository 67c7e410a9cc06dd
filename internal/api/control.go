package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapctl/internal/control"
	"github.com/joeblew999/plat-mapctl/internal/humastar"
	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

var (
	moveActions = map[control.Direction]humastar.ActionDef{
		control.Up:   {Rel: "move-up", Pattern: "/api/v1/control/layers/%s/up", Method: http.MethodPost, Title: "Move %s up"},
		control.Down: {Rel: "move-down", Pattern: "/api/v1/control/layers/%s/down", Method: http.MethodPost, Title: "Move %s down"},
	}
	legendAction     = humastar.ActionDef{Rel: "legend", Pattern: "/api/v1/control/layers/%s/legend", Method: http.MethodPost, Title: "Toggle legend of %s"}
	visibilityAction = humastar.ActionDef{Rel: "edit", Pattern: "/api/v1/control/layers/%s/visibility", Method: http.MethodPut, Title: "Show or hide %s"}
)

// ControlBody is the rendered control with its z-index range.
type ControlBody struct {
	control.View
	Tracker control.ZIndexTracker `json:"tracker"`
}

// Actions lists the actions that apply to the current state. Reorder
// actions at the end of the z-range are omitted.
func (b ControlBody) Actions() []humastar.Action {
	var actions []humastar.Action
	for _, r := range b.Base {
		if !r.Checked {
			actions = append(actions, visibilityAction.Action(r.ID, r.Name))
		}
	}
	for _, r := range b.Overlays {
		actions = append(actions, humastar.ActionsFor(r.ID, r.Name, rowActions(r))...)
	}
	return actions
}

func rowActions(r control.Row) []humastar.ActionDef {
	defs := []humastar.ActionDef{visibilityAction}
	for _, btn := range r.Buttons {
		if !btn.Disabled {
			defs = append(defs, moveActions[btn.Direction])
		}
	}
	if r.HasLegend {
		defs = append(defs, legendAction)
	}
	return defs
}

type MoveInput struct {
	LayerIDInput
	Direction string `path:"direction" enum:"up,down" doc:"On-screen direction"`
}

type MoveBody struct {
	Moved bool `json:"moved" doc:"False when the row already sits at the edge"`
	ControlBody
}

type VisibilityInput struct {
	LayerIDInput
	Body struct {
		Visible bool `json:"visible"`
	}
}

type BatchVisibilityInput struct {
	Body struct {
		Layers map[string]bool `json:"layers" doc:"Layer id to visibility; removals are applied before additions"`
	}
}

type OpacityInput struct {
	LayerIDInput
	Body struct {
		Opacity string `json:"opacity" doc:"Raw input text; non-numeric input is ignored" example:"0.5"`
	}
}

type OpacityBody struct {
	Applied bool `json:"applied"`
	ControlBody
}

type LegendInput struct {
	LayerIDInput
	Load bool `query:"load" default:"true" doc:"Fetch the legend rows when opening"`
}

type LegendBody struct {
	Open    bool                       `json:"open"`
	LayerID string                     `json:"layerId"`
	MapName string                     `json:"mapName,omitempty"`
	Legend  *mapservice.LegendResponse `json:"legend,omitempty"`
}

type PanelInput struct {
	Event string `path:"event" enum:"pointerenter,pointerleave,focus,click,mapclick"`
}

type PanelBody struct {
	State string `json:"state" enum:"collapsed,expanded"`
	ControlBody
}

// RegisterControl registers the layer control routes.
func (h *APIHandler) RegisterControl(api huma.API) {
	tags := huma.OperationTags("control")
	huma.Get(api, "/api/v1/control", h.GetControl, tags)
	huma.Post(api, "/api/v1/control/layers/{id}/{direction}", h.MoveLayer, tags)
	huma.Put(api, "/api/v1/control/layers/{id}/visibility", h.PutVisibility, tags)
	huma.Put(api, "/api/v1/control/visibility", h.PutBatchVisibility, tags)
	huma.Put(api, "/api/v1/control/layers/{id}/opacity", h.PutOpacity, tags)
	huma.Post(api, "/api/v1/control/layers/{id}/legend", h.ToggleLegend, tags)
	huma.Post(api, "/api/v1/control/panel/{event}", h.PanelEvent, tags)
}

func (h *APIHandler) controlBody() ControlBody {
	return ControlBody{View: h.svc.Control.Render(), Tracker: h.svc.Control.Tracker()}
}

func (h *APIHandler) ready() error {
	if h.svc == nil || h.svc.Control == nil {
		return huma.Error503ServiceUnavailable("control not available")
	}
	return nil
}

func (h *APIHandler) GetControl(ctx context.Context, input *struct{}) (*struct{ Body ControlBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return &struct{ Body ControlBody }{Body: h.controlBody()}, nil
}

func (h *APIHandler) MoveLayer(ctx context.Context, input *MoveInput) (*struct{ Body MoveBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	dir, err := control.ParseDirection(input.Direction)
	if err != nil {
		return nil, toHumaError(err)
	}
	moved, err := h.svc.Control.MoveDisplayed(input.ID, dir)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body MoveBody }{Body: MoveBody{Moved: moved, ControlBody: h.controlBody()}}, nil
}

func (h *APIHandler) PutVisibility(ctx context.Context, input *VisibilityInput) (*struct{ Body ControlBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	if err := h.svc.Control.SetVisibility(input.ID, input.Body.Visible); err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body ControlBody }{Body: h.controlBody()}, nil
}

func (h *APIHandler) PutBatchVisibility(ctx context.Context, input *BatchVisibilityInput) (*struct{ Body ControlBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	if err := h.svc.Control.ApplyVisibility(input.Body.Layers); err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body ControlBody }{Body: h.controlBody()}, nil
}

func (h *APIHandler) PutOpacity(ctx context.Context, input *OpacityInput) (*struct{ Body OpacityBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	applied, err := h.svc.Control.SetOpacity(input.ID, input.Body.Opacity)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body OpacityBody }{Body: OpacityBody{Applied: applied, ControlBody: h.controlBody()}}, nil
}

func (h *APIHandler) ToggleLegend(ctx context.Context, input *LegendInput) (*struct{ Body LegendBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	legend, err := h.svc.Control.ToggleLegend(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	body := LegendBody{LayerID: input.ID}
	if legend == nil {
		return &struct{ Body LegendBody }{Body: body}, nil
	}

	body.Open = true
	body.MapName = legend.MapName
	if input.Load {
		resp, err := legend.Load(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		body.Legend = resp
	}
	return &struct{ Body LegendBody }{Body: body}, nil
}

func (h *APIHandler) PanelEvent(ctx context.Context, input *PanelInput) (*struct{ Body PanelBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	state, err := h.svc.Control.HandlePanelEvent(control.PanelEvent(input.Event))
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body PanelBody }{Body: PanelBody{State: state.String(), ControlBody: h.controlBody()}}, nil
}
