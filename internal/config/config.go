package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/pixelnode/internal/controller"
	"github.com/coreman2200/pixelnode/internal/layout"
	"github.com/coreman2200/pixelnode/internal/pattern"
	"github.com/coreman2200/pixelnode/internal/protocol"
)

type Strips struct {
	Count      int  `yaml:"count"`
	PerStrip   int  `yaml:"per_strip"`
	Serpentine bool `yaml:"serpentine"`
}

type Net struct {
	Listen      string `yaml:"listen"` // bind host, empty = all interfaces
	FramePort   int    `yaml:"frame_port"`
	ControlPort int    `yaml:"control_port"`
	Protocol    string `yaml:"protocol"` // "split" | "legacy"
	QueueDepth  int    `yaml:"queue_depth"`
}

type SPI struct {
	Dev string `yaml:"dev"` // e.g. /dev/spidev0.0, empty = first port
}

type Serial struct {
	Device string `yaml:"device"` // e.g. /dev/ttyUSB0
	Baud   int    `yaml:"baud"`
}

type Log struct {
	Level  string `yaml:"level"`
	Syslog string `yaml:"syslog,omitempty"` // host:port, empty = console only
	App    string `yaml:"app"`
}

type Update struct {
	Host     string `yaml:"host,omitempty"` // empty = no update check
	Port     int    `yaml:"port"`
	Endpoint string `yaml:"endpoint"`
	Target   string `yaml:"target,omitempty"` // image path, empty = running executable
}

type Health struct {
	Interface   string `yaml:"interface,omitempty"` // empty = no link check
	JoinTimeout int    `yaml:"join_timeout_s"`
}

type Status struct {
	Addr string `yaml:"addr,omitempty"` // empty = status server off
}

type Config struct {
	Driver     string `yaml:"driver"` // "spi" | "serial" | "console" | "sim"
	Strips     Strips `yaml:"strips"`
	FrameRate  int    `yaml:"frame_rate"`
	Brightness int    `yaml:"brightness"`

	ControlIntervalMs int    `yaml:"control_interval_ms"`
	MinFirstFragment  int    `yaml:"min_first_fragment"`
	ReportEvery       uint64 `yaml:"report_every"`
	DebugPattern      string `yaml:"debug_pattern,omitempty"`

	Net    Net    `yaml:"net"`
	SPI    SPI    `yaml:"spi,omitempty"`
	Serial Serial `yaml:"serial,omitempty"`
	Log    Log    `yaml:"log"`
	Update Update `yaml:"update"`
	Health Health `yaml:"health"`
	Status Status `yaml:"status"`
}

// Default mirrors the reference installation: 5 strips of 20 at 30fps.
func Default() *Config {
	return &Config{
		Driver:            "sim",
		Strips:            Strips{Count: 5, PerStrip: 20},
		FrameRate:         30,
		Brightness:        90,
		ControlIntervalMs: 50,
		ReportEvery:       1000,
		DebugPattern:      string(pattern.Strips),
		Net: Net{
			FramePort:   protocol.DefaultFramePort,
			ControlPort: protocol.DefaultControlPort,
			Protocol:    protocol.Split.Name,
			QueueDepth:  256,
		},
		Serial: Serial{Baud: 115200},
		Log:    Log{Level: "info", App: "led_control"},
		Update: Update{Port: 6655, Endpoint: "/led_fw"},
		Health: Health{JoinTimeout: 30},
	}
}

// Load reads path over the defaults, so a partial file is valid.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

var drivers = map[string]bool{"spi": true, "serial": true, "console": true, "sim": true}

func (c *Config) Validate() error {
	var errs []error
	if c.Strips.Count <= 0 || c.Strips.PerStrip <= 0 {
		errs = append(errs, fmt.Errorf("strips: need positive count and per_strip, got %dx%d", c.Strips.Count, c.Strips.PerStrip))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate: must be positive, got %d", c.FrameRate))
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		errs = append(errs, fmt.Errorf("brightness: %d out of 0..255", c.Brightness))
	}
	if c.ControlIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("control_interval_ms: must be positive, got %d", c.ControlIntervalMs))
	}
	if c.MinFirstFragment < 0 {
		errs = append(errs, fmt.Errorf("min_first_fragment: negative"))
	}
	if !drivers[c.Driver] {
		errs = append(errs, fmt.Errorf("driver: unknown %q", c.Driver))
	}
	if _, err := protocol.Lookup(c.Net.Protocol); err != nil {
		errs = append(errs, fmt.Errorf("net.protocol: %w", err))
	}
	if c.Net.FramePort <= 0 || c.Net.FramePort > 65535 {
		errs = append(errs, fmt.Errorf("net.frame_port: %d out of range", c.Net.FramePort))
	}
	if p, _ := protocol.Lookup(c.Net.Protocol); !p.Multiplexed {
		if c.Net.ControlPort <= 0 || c.Net.ControlPort > 65535 {
			errs = append(errs, fmt.Errorf("net.control_port: %d out of range", c.Net.ControlPort))
		} else if c.Net.ControlPort == c.Net.FramePort {
			errs = append(errs, errors.New("net.control_port: must differ from frame_port"))
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.DebugPattern != "" {
		if _, err := pattern.Parse(c.DebugPattern); err != nil {
			errs = append(errs, fmt.Errorf("debug_pattern: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) Layout() layout.Layout {
	return layout.Layout{Strips: c.Strips.Count, PerStrip: c.Strips.PerStrip, Serpentine: c.Strips.Serpentine}
}

// Controller derives the scheduler cadence. Call Validate first.
func (c *Config) Controller() controller.Config {
	cc := controller.DefaultConfig(c.FrameRate)
	cc.ControlInterval = time.Duration(c.ControlIntervalMs) * time.Millisecond
	cc.MinFirstFragment = c.MinFirstFragment
	cc.ReportEvery = c.ReportEvery
	cc.Variant, _ = protocol.Lookup(c.Net.Protocol)
	return cc
}

// JoinTimeout is zero when no interface is configured.
func (c *Config) JoinTimeout() time.Duration {
	if c.Health.Interface == "" {
		return 0
	}
	return time.Duration(c.Health.JoinTimeout) * time.Second
}

// UpdateURL is empty when no update host is configured.
func (c *Config) UpdateURL() string {
	if c.Update.Host == "" {
		return ""
	}
	return fmt.Sprintf("http://%s:%d%s", c.Update.Host, c.Update.Port, c.Update.Endpoint)
}
