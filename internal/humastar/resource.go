package humastar

import (
	"fmt"
	"strings"
)

// ActionDef is a reusable action template. Pattern holds a single %s verb
// for the resource ID and Title may hold one for a display name.
type ActionDef struct {
	Rel     string
	Pattern string // e.g. "/api/v1/control/layers/%s/up"
	Method  string
	Title   string
	Schema  string
}

// Action instantiates the definition for one resource.
func (d ActionDef) Action(id, name string) Action {
	title := d.Title
	if strings.Contains(title, "%s") {
		title = fmt.Sprintf(title, name)
	}
	return Action{
		Rel:    d.Rel,
		Href:   fmt.Sprintf(d.Pattern, id),
		Method: d.Method,
		Title:  title,
		Schema: d.Schema,
	}
}

// ActionsFor generates concrete Action values from ActionDefs for a given
// resource ID and display name, in definition order.
func ActionsFor(id, name string, defs []ActionDef) []Action {
	actions := make([]Action, len(defs))
	for i, d := range defs {
		actions[i] = d.Action(id, name)
	}
	return actions
}

