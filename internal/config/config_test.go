package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapctl/internal/control"
)

const sample = `
service:
  url: http://maps.example.com/rest/Spatial/MappingService
  timeout: 5s
control:
  collapsed: true
  device: touch
  autoZIndex: true
  inverseOrder: true
  legend:
    width: 24
layers:
  - key: world
    name: World
    mapName: WorldMap
    defaultVisible: true
  - key: roads
    name: Roads
    mapName: Roads
    overlay: true
    opacity: 0.6
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, control.DefaultOptions(), c.Control)
	assert.Equal(t, 30*time.Second, c.Service.Timeout)
	assert.Empty(t, c.Layers)
}

func TestLoadFile(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "http://maps.example.com/rest/Spatial/MappingService", c.Service.URL)
	assert.Equal(t, 5*time.Second, c.Service.Timeout)

	assert.True(t, c.Control.Collapsed)
	assert.Equal(t, control.DeviceTouch, c.Control.Device)
	assert.True(t, c.Control.AutoZIndex)
	assert.True(t, c.Control.InverseOrder)
	assert.True(t, c.Control.ZIndexControls, "unset keys keep defaults")
	assert.Equal(t, 24, c.Control.Legend.Width)
	assert.Equal(t, 16, c.Control.Legend.Height)

	require.Len(t, c.Layers, 2)
	assert.Equal(t, "world", c.Layers[0].Key)
	assert.True(t, c.Layers[0].DefaultVisible)
	assert.Equal(t, "Roads", c.Layers[1].MapName)
	assert.True(t, c.Layers[1].Overlay)
	assert.Equal(t, 0.6, c.Layers[1].Opacity)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MAPCTL_SERVICE_URL", "http://env.example.com/rest")
	t.Setenv("MAPCTL_CONTROL_SHAREDLEGEND", "true")

	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.com/rest", c.Service.URL)
	assert.True(t, c.Control.SharedLegend)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "control:\n  device: stylus\n"))
	assert.ErrorContains(t, err, "stylus")

	_, err = Load(writeConfig(t, "service:\n  timeout: 0s\n"))
	assert.Error(t, err)
}
