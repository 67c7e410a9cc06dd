package api

// Links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var Links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/control>; rel="control"`,
		`</api/v1/layers>; rel="layers"`,
		`</openapi.json>; rel="service-desc"`,
		`</docs>; rel="service-doc"`,
	},
	"/api/v1/info": {
		`</health>; rel="up"`,
		`</api/v1/control>; rel="control"`,
	},
	"/api/v1/layers": {
		`</health>; rel="up"`,
		`</api/v1/control>; rel="control"`,
	},
	"/api/v1/control": {
		`</health>; rel="up"`,
		`</api/v1/layers>; rel="layers"`,
		`</api/v1/map/images>; rel="images"`,
		`</api/v1/control/visibility>; rel="edit"`,
	},
	"/api/v1/control/layers/{id}/{direction}": {
		`</api/v1/control>; rel="collection"`,
	},
	"/api/v1/control/layers/{id}/visibility": {
		`</api/v1/control>; rel="collection"`,
	},
	"/api/v1/control/layers/{id}/opacity": {
		`</api/v1/control>; rel="collection"`,
	},
	"/api/v1/control/layers/{id}/legend": {
		`</api/v1/control>; rel="collection"`,
	},
	"/api/v1/map/images": {
		`</api/v1/control>; rel="control"`,
	},
	"/api/v1/descriptors/render": {
		`</api/v1/descriptors/swatch>; rel="swatch"`,
	},
}
