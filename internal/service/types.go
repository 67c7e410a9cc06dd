// Package service contains the layer catalog and the in-memory host map the
// layer control drives.
package service

// LayerConfig is one catalog entry: a named map on the map server shown as a
// base layer or an overlay. Huma reads the tags for OpenAPI and validation,
// viper reads the mapstructure tags when loading the catalog.
type LayerConfig struct {
	Key            string  `json:"key" mapstructure:"key" yaml:"key" doc:"Unique layer key" example:"roads"`
	Name           string  `json:"name" mapstructure:"name" yaml:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Roads"`
	MapName        string  `json:"mapName" mapstructure:"mapName" yaml:"mapName" required:"true" doc:"Named map on the map server" example:"WorldMap"`
	Overlay        bool    `json:"overlay" mapstructure:"overlay" yaml:"overlay" doc:"Overlay (checkbox) rather than base layer (radio)"`
	ZIndex         int     `json:"zIndex,omitempty" mapstructure:"zIndex" yaml:"zIndex,omitempty" doc:"Initial z-index of an overlay"`
	Opacity        float64 `json:"opacity" mapstructure:"opacity" yaml:"opacity" minimum:"0" maximum:"1" default:"1" doc:"Layer opacity (0-1)" example:"0.7"`
	DefaultVisible bool    `json:"defaultVisible" mapstructure:"defaultVisible" yaml:"defaultVisible" doc:"Whether the layer starts on the map"`
	ImageType      string  `json:"imageType,omitempty" mapstructure:"imageType" yaml:"imageType,omitempty" default:"png" doc:"Image type requested from the map server" example:"png"`
}

// MapImage is one rendered layer of the host map, bottom-most first.
type MapImage struct {
	Key     string  `json:"key" doc:"Layer key"`
	Name    string  `json:"name" doc:"Display name"`
	Overlay bool    `json:"overlay"`
	ZIndex  int     `json:"zIndex"`
	Opacity float64 `json:"opacity"`
	URL     string  `json:"url" doc:"Map server image URL"`
}
