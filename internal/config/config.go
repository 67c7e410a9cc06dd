// Package config loads the map server connection, the control options and
// the layer catalog from a YAML file and MAPCTL_ environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joeblew999/plat-mapctl/internal/control"
	"github.com/joeblew999/plat-mapctl/internal/service"
)

// EnvPrefix prefixes every environment override, e.g. MAPCTL_SERVICE_URL.
const EnvPrefix = "MAPCTL"

// Config holds application configuration.
type Config struct {
	Service ServiceConfig         `mapstructure:"service" yaml:"service"`
	Control control.Options       `mapstructure:"control" yaml:"control"`
	Layers  []service.LayerConfig `mapstructure:"layers" yaml:"layers"`
}

// ServiceConfig locates the map server.
type ServiceConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	ProxyURL       string        `mapstructure:"proxyUrl" yaml:"proxyUrl,omitempty"`
	AlwaysUseProxy bool          `mapstructure:"alwaysUseProxy" yaml:"alwaysUseProxy"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

func setDefaults(v *viper.Viper) {
	d := control.DefaultOptions()

	v.SetDefault("service.url", "http://localhost:8080/rest/Spatial/MappingService")
	v.SetDefault("service.proxyUrl", "")
	v.SetDefault("service.alwaysUseProxy", false)
	v.SetDefault("service.timeout", 30*time.Second)

	v.SetDefault("control.collapsed", d.Collapsed)
	v.SetDefault("control.device", string(d.Device))
	v.SetDefault("control.autoZIndex", d.AutoZIndex)
	v.SetDefault("control.zIndexControls", d.ZIndexControls)
	v.SetDefault("control.opacityControls", d.OpacityControls)
	v.SetDefault("control.legendControls", d.LegendControls)
	v.SetDefault("control.inverseOrder", d.InverseOrder)
	v.SetDefault("control.hideSingleBase", d.HideSingleBase)
	v.SetDefault("control.sharedLegend", d.SharedLegend)
	v.SetDefault("control.maxHeight", d.MaxHeight)
	v.SetDefault("control.maxWidth", d.MaxWidth)
	v.SetDefault("control.position", d.Position)
	v.SetDefault("control.cssOff", d.CSSOff)
	v.SetDefault("control.legend.width", d.Legend.Width)
	v.SetDefault("control.legend.height", d.Legend.Height)
	v.SetDefault("control.legend.imageType", d.Legend.ImageType)
	v.SetDefault("control.legend.inlineSwatch", d.Legend.InlineSwatch)
	v.SetDefault("control.legend.locale", d.Legend.Locale)
}

// Load reads the config file at path, if any, then applies env overrides.
// An empty path loads defaults and env only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values viper cannot type-check.
func (c Config) Validate() error {
	switch c.Control.Device {
	case control.DevicePointer, control.DeviceTouch:
	default:
		return fmt.Errorf("control.device: unknown device %q", c.Control.Device)
	}
	if c.Service.URL == "" {
		return fmt.Errorf("service.url is required")
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("service.timeout must be positive")
	}
	return nil
}
