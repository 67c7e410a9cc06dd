// Package mapservice builds request descriptors for a Spectrum-style REST
// map service and dispatches them over HTTP.
//
// Builders are pure: they validate input and return a [Descriptor]. A
// [Client] turns descriptors into URLs or executes them.
package mapservice

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// ResponseType is the expected encoding of a response body.
type ResponseType int

const (
	ResponseText ResponseType = iota
	ResponseBinary
)

func (r ResponseType) String() string {
	if r == ResponseBinary {
		return "binary"
	}
	return "text"
}

// Default query grammar of the legacy server: ";k=v;k=v".
const (
	DefaultParamsSeparator = ";"
	DefaultQueryStart      = ";"
	DefaultPostType        = "application/json"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an insertion-ordered set of query parameters.
type Params []Param

// Set adds key or replaces its value in place.
func (p *Params) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// SetInt sets an integer value.
func (p *Params) SetInt(key string, v int) {
	p.Set(key, strconv.Itoa(v))
}

// SetFloat sets a float value using the shortest representation.
func (p *Params) SetFloat(key string, v float64) {
	p.Set(key, formatFloat(v))
}

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Descriptor is a not-yet-dispatched request against the map service.
type Descriptor struct {
	Name            string
	Params          Params
	Body            map[string]any
	ForcePost       bool
	ParamsSeparator string
	QueryStart      string
	PostType        string
	Response        ResponseType
}

// NewDescriptor returns a descriptor with the server's default grammar.
func NewDescriptor(name string) *Descriptor {
	return &Descriptor{
		Name:            name,
		ParamsSeparator: DefaultParamsSeparator,
		QueryStart:      DefaultQueryStart,
		PostType:        DefaultPostType,
	}
}

// withQueryGrammar switches to "?k=v&k=v".
func (d *Descriptor) withQueryGrammar() *Descriptor {
	d.ParamsSeparator = "&"
	d.QueryStart = "?"
	return d
}

// Query returns the operation path with its encoded parameters.
func (d *Descriptor) Query() string {
	path := escapePath(d.Name)
	if len(d.Params) == 0 {
		return path
	}
	parts := make([]string, 0, len(d.Params))
	for _, kv := range d.Params {
		parts = append(parts, kv.Key+"="+encodeURIComponent(kv.Value))
	}
	return path + d.QueryStart + strings.Join(parts, d.ParamsSeparator)
}

func escapePath(name string) string {
	segs := strings.Split(name, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// IsPost reports whether the descriptor must be sent as a POST.
func (d *Descriptor) IsPost() bool {
	return len(d.Body) != 0 || d.ForcePost
}

// Method returns the HTTP method for the descriptor.
func (d *Descriptor) Method() string {
	if d.IsPost() {
		return "POST"
	}
	return "GET"
}

// PostData returns the JSON encoding of the body.
func (d *Descriptor) PostData() ([]byte, error) {
	if d.Body == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.Body)
}

// encodeURIComponent escapes like the browser function of the same name,
// which is what the server's query parser expects.
func encodeURIComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
