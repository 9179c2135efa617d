package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelnode/internal/protocol"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 300, c.Layout().BufSize())

	cc := c.Controller()
	assert.Equal(t, time.Second/30, cc.Period)
	assert.Equal(t, 50*time.Millisecond, cc.ControlInterval)
	assert.Equal(t, protocol.Split, cc.Variant)
	assert.Empty(t, c.UpdateURL())
	assert.Zero(t, c.JoinTimeout())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strips:
  count: 8
  per_strip: 60
  serpentine: true
frame_rate: 60
net:
  protocol: legacy
update:
  host: brettchen
health:
  interface: wlan0
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 8*60*3, c.Layout().BufSize())
	assert.True(t, c.Layout().Serpentine)
	assert.Equal(t, 90, c.Brightness)
	assert.Equal(t, protocol.DefaultFramePort, c.Net.FramePort)
	assert.Equal(t, protocol.Legacy, c.Controller().Variant)
	assert.Equal(t, "http://brettchen:6655/led_fw", c.UpdateURL())
	assert.Equal(t, 30*time.Second, c.JoinTimeout())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	c := Default()
	c.Driver = "serial"
	c.Serial.Device = "/dev/ttyUSB0"
	c.DebugPattern = "strips"
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strips: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"no strips":       func(c *Config) { c.Strips.Count = 0 },
		"no frame rate":   func(c *Config) { c.FrameRate = 0 },
		"brightness":      func(c *Config) { c.Brightness = 300 },
		"driver":          func(c *Config) { c.Driver = "pwm" },
		"protocol":        func(c *Config) { c.Net.Protocol = "v3" },
		"same ports":      func(c *Config) { c.Net.ControlPort = c.Net.FramePort },
		"frame port":      func(c *Config) { c.Net.FramePort = 70000 },
		"pattern":         func(c *Config) { c.DebugPattern = "plasma" },
		"control cadence": func(c *Config) { c.ControlIntervalMs = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLegacyIgnoresControlPort(t *testing.T) {
	c := Default()
	c.Net.Protocol = "legacy"
	c.Net.ControlPort = 0
	assert.NoError(t, c.Validate())
}
