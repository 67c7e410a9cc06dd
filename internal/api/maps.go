package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapctl/internal/service"
	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

type ImagesInput struct {
	BBox   []float64 `query:"bbox" required:"true" doc:"minx,miny,maxx,maxy" example:"[-180,-90,180,90]"`
	Width  int       `query:"width" default:"512" minimum:"1" maximum:"8192"`
	Height int       `query:"height" default:"512" minimum:"1" maximum:"8192"`
	SRS    string    `query:"srs" default:"epsg:4326"`
}

type RenderDescriptorInput struct {
	Map               string    `query:"map" doc:"Named map; empty renders the default map"`
	ImageType         string    `query:"type" default:"png"`
	Width             int       `query:"width"`
	Height            int       `query:"height"`
	BBox              []float64 `query:"bbox" doc:"minx,miny,maxx,maxy"`
	Center            []float64 `query:"center" doc:"x,y"`
	SRS               string    `query:"srs"`
	Scale             float64   `query:"scale"`
	Zoom              float64   `query:"zoom"`
	Resolution        float64   `query:"resolution"`
	Locale            string    `query:"locale"`
	RenderQuality     string    `query:"rd" doc:"s for speed, q for quality"`
	BackgroundColor   string    `query:"bc"`
	BackgroundOpacity float64   `query:"bo"`
}

type SwatchDescriptorInput struct {
	Map        string  `query:"map" required:"true"`
	Legend     int     `query:"legend"`
	Row        int     `query:"row"`
	Width      int     `query:"width" default:"16"`
	Height     int     `query:"height" default:"16"`
	ImageType  string  `query:"type" default:"png"`
	Resolution float64 `query:"resolution"`
	Locale     string  `query:"locale"`
}

// DescriptorBody is a built request: what would be sent, and where.
type DescriptorBody struct {
	Method   string `json:"method" enum:"GET,POST"`
	Query    string `json:"query" doc:"Path and query relative to the service URL"`
	URL      string `json:"url,omitempty" doc:"Absolute URL when a service is configured"`
	PostData string `json:"postData,omitempty"`
	Response string `json:"response" enum:"text,binary"`
}

// RegisterMap registers the host map routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map/images", h.GetMapImages, huma.OperationTags("map"))
}

// RegisterDescriptors registers the request builder routes.
func (h *APIHandler) RegisterDescriptors(api huma.API) {
	huma.Get(api, "/api/v1/descriptors/render", h.GetRenderDescriptor, huma.OperationTags("descriptors"))
	huma.Get(api, "/api/v1/descriptors/swatch", h.GetSwatchDescriptor, huma.OperationTags("descriptors"))
}

func (h *APIHandler) GetMapImages(ctx context.Context, input *ImagesInput) (*struct{ Body []service.MapImage }, error) {
	if h.svc == nil || h.svc.Map == nil {
		return nil, huma.Error503ServiceUnavailable("map not available")
	}
	if len(input.BBox) != 4 {
		return nil, huma.Error400BadRequest("bbox needs four numbers")
	}
	bound := orb.Bound{
		Min: orb.Point{input.BBox[0], input.BBox[1]},
		Max: orb.Point{input.BBox[2], input.BBox[3]},
	}
	images, err := h.svc.Map.Images(bound, input.Width, input.Height, input.SRS)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body []service.MapImage }{Body: images}, nil
}

func (h *APIHandler) GetRenderDescriptor(ctx context.Context, input *RenderDescriptorInput) (*struct{ Body DescriptorBody }, error) {
	o := mapservice.RenderOptions{
		MapName:           input.Map,
		ImageType:         input.ImageType,
		Width:             input.Width,
		Height:            input.Height,
		SRS:               input.SRS,
		Scale:             input.Scale,
		Zoom:              input.Zoom,
		Resolution:        input.Resolution,
		Locale:            input.Locale,
		RenderQuality:     input.RenderQuality,
		BackgroundColor:   input.BackgroundColor,
		BackgroundOpacity: input.BackgroundOpacity,
	}
	switch len(input.BBox) {
	case 0:
	case 4:
		o.Bounds = &orb.Bound{
			Min: orb.Point{input.BBox[0], input.BBox[1]},
			Max: orb.Point{input.BBox[2], input.BBox[3]},
		}
	default:
		return nil, huma.Error400BadRequest("bbox needs four numbers")
	}
	switch len(input.Center) {
	case 0:
	case 2:
		o.Center = &orb.Point{input.Center[0], input.Center[1]}
	default:
		return nil, huma.Error400BadRequest("center needs two numbers")
	}

	d, err := mapservice.Render(o)
	if err != nil {
		return nil, toHumaError(err)
	}
	return h.describe(d)
}

func (h *APIHandler) GetSwatchDescriptor(ctx context.Context, input *SwatchDescriptorInput) (*struct{ Body DescriptorBody }, error) {
	d, err := mapservice.Swatch(mapservice.SwatchOptions{
		MapName:     input.Map,
		LegendIndex: input.Legend,
		RowIndex:    input.Row,
		Width:       input.Width,
		Height:      input.Height,
		ImageType:   input.ImageType,
		Resolution:  input.Resolution,
		Locale:      input.Locale,
	})
	if err != nil {
		return nil, toHumaError(err)
	}
	return h.describe(d)
}

func (h *APIHandler) describe(d *mapservice.Descriptor) (*struct{ Body DescriptorBody }, error) {
	body := DescriptorBody{
		Method:   d.Method(),
		Query:    d.Query(),
		Response: d.Response.String(),
	}
	if d.IsPost() {
		data, err := d.PostData()
		if err != nil {
			return nil, huma.Error400BadRequest("encoding post data", err)
		}
		body.PostData = string(data)
	}
	if h.svc != nil && h.svc.Maps != nil {
		body.URL = h.svc.Maps.Client().URL(d)
	}
	return &struct{ Body DescriptorBody }{Body: body}, nil
}
