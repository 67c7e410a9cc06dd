package mapservice

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/paulmach/orb"
)

// DescribeListLimit is the joined-name length, in UTF-16 code units, at
// which describe requests move the name list from the URL into a POST body.
const DescribeListLimit = 1000

// DefaultImageType is used when an options struct leaves ImageType empty.
const DefaultImageType = "png"

// RenderOptions describes a map image request. Exactly one of Bounds or
// Center must be set.
type RenderOptions struct {
	MapName   string     `json:"mapName,omitempty" doc:"Named map to render"`
	ImageType string     `json:"imageType,omitempty" doc:"Image type (png, jpg, ...)" default:"png"`
	Width     int        `json:"width" doc:"Image width in pixels"`
	Height    int        `json:"height" doc:"Image height in pixels"`
	Bounds    *orb.Bound `json:"bounds,omitempty" doc:"Geographic bounds of the image"`
	Center    *orb.Point `json:"center,omitempty" doc:"Center point of the image"`
	SRS       string     `json:"srs" doc:"Spatial reference code" example:"epsg:4326"`
	Scale     float64    `json:"scale,omitempty"`
	Zoom      float64    `json:"zoom,omitempty"`

	Resolution float64 `json:"resolution,omitempty"`
	Locale     string  `json:"locale,omitempty"`

	// RenderQuality is "s" (speed) or "q" (quality).
	RenderQuality     string  `json:"rd,omitempty"`
	BackgroundColor   string  `json:"bc,omitempty" doc:"Background color RRGGBB"`
	BackgroundOpacity float64 `json:"bo,omitempty"`

	// AdditionalParams, when set, is sent as the POST body.
	AdditionalParams map[string]any `json:"additionalParams,omitempty"`
}

// LegendOptions describes a legend request for a named map.
type LegendOptions struct {
	MapName      string
	Width        int
	Height       int
	ImageType    string
	InlineSwatch *bool
	Resolution   float64
	Locale       string
	PostData     map[string]any
}

// SwatchOptions describes a single legend swatch image.
type SwatchOptions struct {
	MapName     string
	LegendIndex int
	RowIndex    int
	Width       int
	Height      int
	ImageType   string
	Resolution  float64
	Locale      string
}

// ListLayers lists the named layers of the service.
func ListLayers(locale string) *Descriptor {
	d := NewDescriptor("layers.json")
	addResolutionAndLocale(d, 0, locale)
	return d
}

// DescribeLayer describes one named layer.
func DescribeLayer(name, locale string) *Descriptor {
	d := NewDescriptor("layers/" + Sanitize(name) + ".json")
	addResolutionAndLocale(d, 0, locale)
	return d
}

// DescribeLayers describes several named layers in one request.
func DescribeLayers(names []string) (*Descriptor, error) {
	if len(names) == 0 {
		return nil, invalid("describeLayers", "names")
	}
	d := NewDescriptor("layers.json").withQueryGrammar()
	d.Params.Set("q", "describe")
	joined := strings.Join(names, ",")
	if textLength(joined) < DescribeListLimit {
		d.Params.Set("layers", joined)
	} else {
		d.Body = map[string]any{"Layers": names}
	}
	return d, nil
}

// ListMaps lists the named maps of the service.
func ListMaps(locale string) *Descriptor {
	d := NewDescriptor("maps.json")
	addResolutionAndLocale(d, 0, locale)
	return d
}

// DescribeMap describes one named map.
func DescribeMap(name, locale string) *Descriptor {
	d := NewDescriptor("maps/" + Sanitize(name) + ".json")
	addResolutionAndLocale(d, 0, locale)
	return d
}

// DescribeMaps describes several named maps in one request. The server
// only reads q=describe from the URL form; the POST form carries the
// names alone.
func DescribeMaps(names []string) (*Descriptor, error) {
	if len(names) == 0 {
		return nil, invalid("describeMaps", "names")
	}
	d := NewDescriptor("maps.json").withQueryGrammar()
	joined := strings.Join(names, ",")
	if textLength(joined) < DescribeListLimit {
		d.Params.Set("q", "describe")
		d.Params.Set("maps", joined)
	} else {
		d.Body = map[string]any{"Maps": names}
	}
	return d, nil
}

// Render builds a map image request.
func Render(o RenderOptions) (*Descriptor, error) {
	const op = "render"

	if (o.Bounds == nil) == (o.Center == nil) {
		return nil, &ParamError{Op: op, Err: ErrAmbiguousLocation}
	}
	if o.Width <= 0 {
		return nil, invalid(op, "width")
	}
	if o.Height <= 0 {
		return nil, invalid(op, "height")
	}
	if o.SRS == "" {
		return nil, invalid(op, "srs")
	}
	for name, v := range map[string]float64{
		"scale": o.Scale, "zoom": o.Zoom, "resolution": o.Resolution, "bo": o.BackgroundOpacity,
	} {
		if !finite(v) {
			return nil, invalid(op, name)
		}
	}

	mapName := Sanitize(o.MapName)
	if mapName != "" {
		mapName = "/" + mapName
	}

	d := NewDescriptor("maps" + mapName + "/image." + imageType(o.ImageType))
	d.Response = ResponseBinary
	d.Params.SetInt("w", o.Width)
	d.Params.SetInt("h", o.Height)

	if o.Bounds != nil {
		b := *o.Bounds
		if !finitePoint(b.Min) || !finitePoint(b.Max) {
			return nil, invalid(op, "bounds")
		}
		d.Params.Set("b", joinFloats(b.Min[0], b.Min[1], b.Max[0], b.Max[1])+","+o.SRS)
	} else {
		c := *o.Center
		if !finitePoint(c) {
			return nil, invalid(op, "center")
		}
		d.Params.Set("c", joinFloats(c[0], c[1])+","+o.SRS)
	}

	if o.Scale != 0 {
		d.Params.SetFloat("s", o.Scale)
	}
	if o.Zoom != 0 {
		d.Params.SetFloat("z", o.Zoom)
	}
	addResolutionAndLocale(d, o.Resolution, o.Locale)
	if o.RenderQuality != "" {
		d.Params.Set("rd", o.RenderQuality)
	}
	if o.BackgroundColor != "" {
		d.Params.Set("bc", o.BackgroundColor)
	}
	if o.BackgroundOpacity != 0 {
		d.Params.SetFloat("bo", o.BackgroundOpacity)
	}
	if len(o.AdditionalParams) > 0 {
		d.Body = o.AdditionalParams
	}
	return d, nil
}

// Legend builds a legend request for a named map.
func Legend(o LegendOptions) (*Descriptor, error) {
	const op = "legend"
	if o.Width <= 0 {
		return nil, invalid(op, "width")
	}
	if o.Height <= 0 {
		return nil, invalid(op, "height")
	}
	if !finite(o.Resolution) {
		return nil, invalid(op, "resolution")
	}

	d := NewDescriptor("maps/" + Sanitize(o.MapName) + "/legends.json")
	d.Params.SetInt("w", o.Width)
	d.Params.SetInt("h", o.Height)
	d.Params.Set("t", imageType(o.ImageType))
	addResolutionAndLocale(d, o.Resolution, o.Locale)

	// The server's query grammar really does expect the '?' in this key.
	if o.InlineSwatch != nil {
		d.Params.Set("?inlineSwatch", strconv.FormatBool(*o.InlineSwatch))
	}
	if len(o.PostData) > 0 {
		d.Body = o.PostData
		d.Response = ResponseBinary
	}
	return d, nil
}

// Swatch builds a request for one legend row swatch. All addressing lives
// in the path.
func Swatch(o SwatchOptions) (*Descriptor, error) {
	const op = "swatch"
	switch {
	case o.LegendIndex < 0:
		return nil, invalid(op, "legendIndex")
	case o.RowIndex < 0:
		return nil, invalid(op, "rowIndex")
	case o.Width <= 0:
		return nil, invalid(op, "width")
	case o.Height <= 0:
		return nil, invalid(op, "height")
	case !finite(o.Resolution):
		return nil, invalid(op, "resolution")
	}

	d := NewDescriptor("maps/" + Sanitize(o.MapName) +
		"/legends/" + strconv.Itoa(o.LegendIndex) +
		"/rows/" + strconv.Itoa(o.RowIndex) +
		"/swatch/" + strconv.Itoa(o.Width) + "x" + strconv.Itoa(o.Height) +
		"." + imageType(o.ImageType))
	d.Response = ResponseBinary
	addResolutionAndLocale(d, o.Resolution, o.Locale)
	return d, nil
}

func addResolutionAndLocale(d *Descriptor, resolution float64, locale string) {
	if resolution != 0 {
		d.Params.SetFloat("r", resolution)
	}
	if locale != "" {
		d.Params.Set("l", locale)
	}
}

func imageType(t string) string {
	if t == "" {
		return DefaultImageType
	}
	return t
}

// textLength counts UTF-16 code units, the unit browsers measure strings in.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finitePoint(p orb.Point) bool {
	return finite(p[0]) && finite(p[1])
}

func joinFloats(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}
