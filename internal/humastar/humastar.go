// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Huma streaming to the Datastar SSE protocol via [SSE] and [NewSSE]
//   - Signals: typed Datastar signal parsing via [Signals] and [SignalsInput]
//   - Handler: embeddable base for fragment-rendering SSE handlers via [Handler]
//   - Links: static and state-dependent RFC 8288 Link headers via [LinkTransformer]
//
// Usage:
//
//	type PanelHandler struct {
//	    humastar.Handler
//	    ctl *control.Control
//	}
//
//	func (h *PanelHandler) Panel(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Replace(h.Render("panel", h.ctl.Render()), "#layer-control")
//	    }), nil
//	}
package humastar

import (
	"encoding/json"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
	log "github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-mapctl/internal/templates"
)

// ---------------------------------------------------------------------------
// Handler: embeddable base for Datastar SSE handlers
// ---------------------------------------------------------------------------

// Handler is an embeddable base for Huma handlers that produce Datastar SSE
// responses. It holds a [templates.Renderer] and provides convenience methods
// to create streams and render templates.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
// Use this instead of manually constructing &huma.StreamResponse{Body: ...}.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// Render renders a named fragment. Failures are logged and render as an
// empty string so a broken fragment never aborts the stream.
func (h *Handler) Render(tmpl string, data any) string {
	html, err := h.Renderer.Render(tmpl, data)
	if err != nil {
		log.WithError(err).WithField("template", tmpl).Error("render fragment")
		return ""
	}
	return html
}

// ---------------------------------------------------------------------------
// SSE: Huma to Datastar bridge
// ---------------------------------------------------------------------------

// SSE wraps a Datastar SSE generator with convenience methods for common
// patterns: error/success signals, inner/outer element patching.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch sends HTML to replace inner content at a CSS selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Replace replaces outer HTML at a CSS selector.
func (s SSE) Replace(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeOuter(),
		datastar.WithViewTransitions(),
	)
}

// Error sends an error signal to the UI.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg})
}

// ---------------------------------------------------------------------------
// Signals: Datastar signal parsing
// ---------------------------------------------------------------------------

// Signals provides type-safe access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body. An empty
// body yields no signals.
func ParseSignals(body []byte) (Signals, error) {
	signals := Signals{}
	if len(body) == 0 {
		return signals, nil
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// Text returns a string or number signal as text, as an input element
// would hold it.
func (s Signals) Text(key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Bool returns a bool signal value, or false if not found.
func (s Signals) Bool(key string) bool {
	if v, ok := s[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Input types
// ---------------------------------------------------------------------------

// EmptyInput is a shared input struct for handlers with no parameters.
type EmptyInput struct{}

// SignalsInput is an input struct for handlers that receive Datastar signals.
type SignalsInput struct {
	RawBody []byte
}

// MustParse parses signals or returns a Huma 400 error.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
