package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"potbrainz/dial"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "potbrainz.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfigFile_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
dial:
  variant: centered
  value: 0.5
  colors:
    highlight: "#ff8800"
view:
  width: 320
  height: 240
animation:
  easing: linear
input:
  devices: [/dev/input/event3]
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Dial.Variant != "centered" {
		t.Errorf("variant = %q, want centered", cfg.Dial.Variant)
	}
	if cfg.View.Width != 320 || cfg.View.Height != 240 {
		t.Errorf("view = %dx%d, want 320x240", cfg.View.Width, cfg.View.Height)
	}
	// Untouched fields keep their defaults.
	if cfg.Dial.Colors.Track != DefaultConfig().Dial.Colors.Track {
		t.Errorf("track color = %q, want default", cfg.Dial.Colors.Track)
	}
	if cfg.Animation.DurationMS != defaultAnimationMS {
		t.Errorf("duration = %d, want %d", cfg.Animation.DurationMS, defaultAnimationMS)
	}
	if cfg.IPC.SocketPath != "/tmp/potbrainz.sock" {
		t.Errorf("socket path = %q", cfg.IPC.SocketPath)
	}
	if len(cfg.Input.Devices) != 1 || cfg.Input.Devices[0] != "/dev/input/event3" {
		t.Errorf("devices = %v", cfg.Input.Devices)
	}
}

func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "dial:\n  varient: small\n")
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfigFile_RejectsTrailingDocument(t *testing.T) {
	path := writeConfig(t, "view:\n  width: 100\n---\nview:\n  width: 200\n")
	_, err := LoadConfigFile(path)
	if err == nil || !strings.Contains(err.Error(), "trailing document") {
		t.Fatalf("expected trailing document error, got %v", err)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	if _, err := LoadConfigFile(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	variant := "small"
	zero := 0
	dev := "/dev/input/event9"

	FlagOverrides{Variant: &variant, HTTPPort: &zero, InputDevice: &dev}.Apply(&cfg)

	if cfg.Dial.Variant != "small" {
		t.Errorf("variant = %q, want small", cfg.Dial.Variant)
	}
	if cfg.HTTP.Port != 0 {
		t.Errorf("zero-value override not applied: port = %d", cfg.HTTP.Port)
	}
	if len(cfg.Input.Devices) != 1 || cfg.Input.Devices[0] != dev {
		t.Errorf("devices = %v", cfg.Input.Devices)
	}
	if cfg.View.Width != defaultViewSize {
		t.Errorf("unset override changed width to %d", cfg.View.Width)
	}

	FlagOverrides{}.Apply(nil) // must not panic
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown variant", func(c *Config) { c.Dial.Variant = "huge" }, "dial.variant"},
		{"angles reversed", func(c *Config) { c.Dial.StartAngleDeg = 10; c.Dial.EndAngleDeg = 20 }, "angle"},
		{"nan value", func(c *Config) { c.Dial.Value = math.NaN() }, "dial.value"},
		{"line width mode", func(c *Config) { c.Dial.LineWidthMode = "thick" }, "line_width_mode"},
		{"negative line width", func(c *Config) { c.Dial.LineWidth = -1 }, "line_width"},
		{"bad color", func(c *Config) { c.Dial.Colors.Highlight = "#12345" }, "dial.colors.highlight"},
		{"zero view", func(c *Config) { c.View.Height = 0 }, "view"},
		{"negative duration", func(c *Config) { c.Animation.DurationMS = -1 }, "animation.duration_ms"},
		{"bad easing", func(c *Config) { c.Animation.Easing = "springy" }, "animation.easing"},
		{"value per step", func(c *Config) { c.Rotary.ValuePerStep = 0 }, "rotary.value_per_step"},
		{"multiplier", func(c *Config) { c.Rotary.VelocityMultiplier = 0.5 }, "rotary.velocity_multiplier"},
		{"empty device", func(c *Config) { c.Input.Devices = []string{""} }, "input.devices[0]"},
		{"abs range", func(c *Config) { c.Input.AbsMax = c.Input.AbsMin }, "input.abs_max"},
		{"socket path", func(c *Config) { c.IPC.SocketPath = "" }, "ipc.socket_path"},
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %q", err, tt.field)
			}
		})
	}
}

func TestConfig_ToDialConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dial.Variant = "small"
	cfg.Dial.LineWidth = 6
	cfg.Dial.LineWidthMode = "proportional"
	cfg.Animation.DragDurationMS = 40
	cfg.Animation.Easing = "ease_out"

	dc, err := cfg.ToDialConfig()
	if err != nil {
		t.Fatalf("ToDialConfig: %v", err)
	}

	if dc.Variant.Name != dial.Small.Name {
		t.Errorf("variant = %q, want %q", dc.Variant.Name, dial.Small.Name)
	}
	if dc.Variant.LineWidth != 6 || !dc.Variant.LineWidthProportional {
		t.Errorf("variant width/mode = %v/%v", dc.Variant.LineWidth, dc.Variant.LineWidthProportional)
	}
	if dial.Small.LineWidth == 6 {
		t.Errorf("preset variant was mutated")
	}
	if math.Abs(dc.StartAngle-4*math.Pi/6) > 1e-12 || math.Abs(dc.EndAngle-2*math.Pi/6) > 1e-12 {
		t.Errorf("angles = %v, %v", dc.StartAngle, dc.EndAngle)
	}
	if dc.DragDuration != 40*time.Millisecond || dc.DragEasing != dial.EaseOut {
		t.Errorf("drag = %v/%v", dc.DragDuration, dc.DragEasing)
	}
	if err := dc.Validate(); err != nil {
		t.Errorf("dial config invalid: %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#ff0000")
	if err != nil {
		t.Fatalf("parseHexColor: %v", err)
	}
	r, g, b, a := c.RGBA()
	if r>>8 != 0xff || g != 0 || b != 0 || a>>8 != 0xff {
		t.Errorf("got rgba %x %x %x %x", r, g, b, a)
	}

	for _, bad := range []string{"", "#", "#12", "#zzzzzz", "#1234567"} {
		if _, err := parseHexColor(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/x.sock"); got != filepath.Join(home, "x.sock") {
		t.Errorf("ExpandPath(~/x.sock) = %q", got)
	}
	if got := ExpandPath("/tmp/x"); got != "/tmp/x" {
		t.Errorf("ExpandPath(/tmp/x) = %q", got)
	}
	if got := ExpandPath("~user/x"); got != "~user/x" {
		t.Errorf("ExpandPath(~user/x) = %q", got)
	}
}
