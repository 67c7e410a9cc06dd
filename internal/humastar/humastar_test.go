package humastar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"visible":true,"opacity":"0.4","n":0.25}`))
	require.NoError(t, err)
	assert.True(t, s.Bool("visible"))
	assert.Equal(t, "0.4", s.Text("opacity"))
	assert.Equal(t, "0.25", s.Text("n"))
	assert.Empty(t, s.Text("missing"))

	s, err = ParseSignals(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = (&SignalsInput{RawBody: []byte("{")}).MustParse()
	assert.Error(t, err)
}

func TestActionsFor(t *testing.T) {
	defs := []ActionDef{
		{Rel: "raise", Pattern: "/api/v1/control/layers/%s/up", Method: "POST", Title: "Move %s up"},
		{Rel: "hide", Pattern: "/api/v1/control/layers/%s/visibility", Method: "PUT"},
	}
	actions := ActionsFor("abc", `Roads "main"`, defs)
	require.Len(t, actions, 2)
	assert.Equal(t, "/api/v1/control/layers/abc/up", actions[0].Href)
	assert.Equal(t,
		`</api/v1/control/layers/abc/up>; rel="raise"; method="POST"; title="Move Roads 'main' up"`,
		actions[0].LinkHeader())
	assert.Equal(t, `</api/v1/control/layers/abc/visibility>; rel="hide"; method="PUT"`, actions[1].LinkHeader())
}

func TestParseLinkHeader(t *testing.T) {
	rel, href := parseLinkHeader(`</api/v1/control>; rel="control"`)
	assert.Equal(t, "control", rel)
	assert.Equal(t, "/api/v1/control", href)

	rel, _ = parseLinkHeader("garbage")
	assert.Empty(t, rel)
}
