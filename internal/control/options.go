package control

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownLayerID is returned for ids that are not registered.
	ErrUnknownLayerID = errors.New("unknown layer id")
	// ErrInvalidParameter is returned for operations that do not apply to
	// the given layer or input.
	ErrInvalidParameter = errors.New("invalid parameter")
)

func unknownID(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownLayerID, id)
}

// Device selects which pointer events drive the panel.
type Device string

const (
	DevicePointer Device = "pointer"
	DeviceTouch   Device = "touch"
)

// LegendOptions configures legends opened from the control.
type LegendOptions struct {
	Width        int    `mapstructure:"width" yaml:"width"`
	Height       int    `mapstructure:"height" yaml:"height"`
	ImageType    string `mapstructure:"imageType" yaml:"imageType"`
	InlineSwatch bool   `mapstructure:"inlineSwatch" yaml:"inlineSwatch"`
	Locale       string `mapstructure:"locale" yaml:"locale,omitempty"`
}

// Options configures a Control.
type Options struct {
	// Collapsed makes the panel collapsible; it starts collapsed and expands
	// on pointer or touch interaction.
	Collapsed bool   `mapstructure:"collapsed" yaml:"collapsed"`
	Device    Device `mapstructure:"device" yaml:"device"`

	// AutoZIndex assigns sequential z-indexes to overlays as they register.
	// Otherwise the layer's own z-index is adopted.
	AutoZIndex      bool `mapstructure:"autoZIndex" yaml:"autoZIndex"`
	ZIndexControls  bool `mapstructure:"zIndexControls" yaml:"zIndexControls"`
	OpacityControls bool `mapstructure:"opacityControls" yaml:"opacityControls"`
	LegendControls  bool `mapstructure:"legendControls" yaml:"legendControls"`

	// InverseOrder lists the highest z-index first, so the top row is the
	// top layer on the map.
	InverseOrder   bool `mapstructure:"inverseOrder" yaml:"inverseOrder"`
	HideSingleBase bool `mapstructure:"hideSingleBase" yaml:"hideSingleBase"`

	// SharedLegend renders every legend into one container instead of one
	// per row.
	SharedLegend bool `mapstructure:"sharedLegend" yaml:"sharedLegend"`

	MaxHeight string `mapstructure:"maxHeight" yaml:"maxHeight,omitempty"`
	MaxWidth  string `mapstructure:"maxWidth" yaml:"maxWidth,omitempty"`
	Position  string `mapstructure:"position" yaml:"position"`
	CSSOff    bool   `mapstructure:"cssOff" yaml:"cssOff"`

	Legend LegendOptions `mapstructure:"legend" yaml:"legend"`
}

// DefaultOptions returns the control defaults.
func DefaultOptions() Options {
	return Options{
		ZIndexControls:  true,
		OpacityControls: true,
		LegendControls:  true,
		Position:        "topright",
		Device:          DevicePointer,
		Legend: LegendOptions{
			Width:        16,
			Height:       16,
			ImageType:    "png",
			InlineSwatch: true,
		},
	}
}
