package mapservice

import (
	"context"
	"encoding/json"
	"fmt"
)

// LegendResponse is the JSON returned by the legends operation.
type LegendResponse struct {
	Legends []LegendGroup `json:"legends"`
}

// LegendGroup is one legend of a named map.
type LegendGroup struct {
	Type  string      `json:"type,omitempty"`
	Title string      `json:"title,omitempty"`
	Rows  []LegendRow `json:"rows"`
}

// LegendRow is a labelled swatch. Swatch holds inline image data or the
// URL of the swatch image, depending on the inlineSwatch flag.
type LegendRow struct {
	Description string `json:"description"`
	Swatch      string `json:"swatch,omitempty"`
}

// MapService exposes the named-map operations of a service.
type MapService struct {
	client *Client
}

// NewMapService wraps a client.
func NewMapService(c *Client) *MapService {
	return &MapService{client: c}
}

// Client returns the underlying client.
func (s *MapService) Client() *Client {
	return s.client
}

// ListNamedLayers lists all named layers.
func (s *MapService) ListNamedLayers(ctx context.Context, locale string) (json.RawMessage, error) {
	return s.doJSON(ctx, ListLayers(locale))
}

// DescribeNamedLayer describes one named layer.
func (s *MapService) DescribeNamedLayer(ctx context.Context, name, locale string) (json.RawMessage, error) {
	return s.doJSON(ctx, DescribeLayer(name, locale))
}

// DescribeNamedLayers describes several named layers.
func (s *MapService) DescribeNamedLayers(ctx context.Context, names []string) (json.RawMessage, error) {
	d, err := DescribeLayers(names)
	if err != nil {
		return nil, err
	}
	return s.doJSON(ctx, d)
}

// ListNamedMaps lists all named maps.
func (s *MapService) ListNamedMaps(ctx context.Context, locale string) (json.RawMessage, error) {
	return s.doJSON(ctx, ListMaps(locale))
}

// DescribeNamedMap describes one named map.
func (s *MapService) DescribeNamedMap(ctx context.Context, name, locale string) (json.RawMessage, error) {
	return s.doJSON(ctx, DescribeMap(name, locale))
}

// DescribeNamedMaps describes several named maps.
func (s *MapService) DescribeNamedMaps(ctx context.Context, names []string) (json.RawMessage, error) {
	d, err := DescribeMaps(names)
	if err != nil {
		return nil, err
	}
	return s.doJSON(ctx, d)
}

// RenderMap renders a map image and returns its bytes.
func (s *MapService) RenderMap(ctx context.Context, o RenderOptions) (*Response, error) {
	d, err := Render(o)
	if err != nil {
		return nil, err
	}
	return s.client.Do(ctx, d)
}

// RenderMapURL returns the GET url of a map image.
func (s *MapService) RenderMapURL(o RenderOptions) (string, error) {
	d, err := Render(o)
	if err != nil {
		return "", err
	}
	return s.client.URL(d), nil
}

// LegendForMap fetches and decodes the legends of a named map. Requests
// with PostData answer with an image; use LegendImage for those.
func (s *MapService) LegendForMap(ctx context.Context, o LegendOptions) (*LegendResponse, error) {
	d, err := Legend(o)
	if err != nil {
		return nil, err
	}
	if d.Response == ResponseBinary {
		return nil, invalid("legendForMap", "postData")
	}
	resp, err := s.client.Do(ctx, d)
	if err != nil {
		return nil, err
	}
	var out LegendResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decoding legend of %q: %w", o.MapName, err)
	}
	return &out, nil
}

// LegendImage posts a legend request and returns the rendered legend
// image. PostData is required.
func (s *MapService) LegendImage(ctx context.Context, o LegendOptions) (*Response, error) {
	d, err := Legend(o)
	if err != nil {
		return nil, err
	}
	if d.Response != ResponseBinary {
		return nil, invalid("legendImage", "postData")
	}
	return s.client.Do(ctx, d)
}

// SwatchForLayer fetches one swatch image.
func (s *MapService) SwatchForLayer(ctx context.Context, o SwatchOptions) (*Response, error) {
	d, err := Swatch(o)
	if err != nil {
		return nil, err
	}
	return s.client.Do(ctx, d)
}

// SwatchURL returns the GET url of one swatch image.
func (s *MapService) SwatchURL(o SwatchOptions) (string, error) {
	d, err := Swatch(o)
	if err != nil {
		return "", err
	}
	return s.client.URL(d), nil
}

func (s *MapService) doJSON(ctx context.Context, d *Descriptor) (json.RawMessage, error) {
	resp, err := s.client.Do(ctx, d)
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("%s: response is not JSON", d.Name)
	}
	return json.RawMessage(resp.Body), nil
}
