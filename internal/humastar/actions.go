package humastar

import (
	"fmt"
	"strings"
)

// Action is a state-dependent hypermedia action link. Response bodies
// implement [Actor] to emit conditional RFC 8288 Link headers with method
// and title extension parameters, for example:
//
//	</api/v1/control/layers/3f2a/up>; rel="raise"; method="POST"; title="Move Roads up"
type Action struct {
	Rel    string // custom rel (e.g. "raise", "lower", "hide")
	Href   string // target URL
	Method string // HTTP method: POST, PUT, DELETE, etc.
	Title  string // optional human-readable label
	Schema string // optional JSON Schema URL for the request body
}

// Actor is implemented by response bodies that provide state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value.
func (a Action) LinkHeader() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		fmt.Fprintf(&b, `; method="%s"`, a.Method)
	}
	if a.Title != "" {
		fmt.Fprintf(&b, `; title="%s"`, strings.ReplaceAll(a.Title, `"`, `'`))
	}
	if a.Schema != "" {
		fmt.Fprintf(&b, `; schema="%s"`, a.Schema)
	}
	return b.String()
}
