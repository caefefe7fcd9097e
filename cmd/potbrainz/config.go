package main

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"gopkg.in/yaml.v3"

	"potbrainz/dial"
	"potbrainz/ipc"
)

// Config is the top-level YAML configuration for the potbrainz daemon.
//
// Defaults and validation live here so the rest of the code can assume a
// well-formed config. The file is the primary configuration surface; flags
// exist for small overrides.
type Config struct {
	Dial      DialConfig      `yaml:"dial"`
	View      ViewConfig      `yaml:"view"`
	Animation AnimationConfig `yaml:"animation"`
	Rotary    RotaryConfig    `yaml:"rotary"`
	Input     InputConfig     `yaml:"input"`
	IPC       IPCConfig       `yaml:"ipc"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type DialConfig struct {
	Variant       string  `yaml:"variant"` // base|small|centered
	StartAngleDeg float64 `yaml:"start_angle_deg"`
	EndAngleDeg   float64 `yaml:"end_angle_deg"`
	Value         float64 `yaml:"value"`

	LineWidthMode string  `yaml:"line_width_mode"`      // fixed|proportional
	LineWidth     float64 `yaml:"line_width,omitempty"` // 0 keeps the variant's width

	Colors ColorsConfig `yaml:"colors"`
}

// ColorsConfig holds hex colors ("#rgb", "#rrggbb", "#rrggbbaa").
type ColorsConfig struct {
	Track      string `yaml:"track"`
	Highlight  string `yaml:"highlight"`
	Indicator  string `yaml:"indicator"`
	Background string `yaml:"background"`
	Label      string `yaml:"label"`
}

type ViewConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Label  bool `yaml:"label"`
}

type AnimationConfig struct {
	DurationMS     int    `yaml:"duration_ms"`
	DragDurationMS int    `yaml:"drag_duration_ms"`
	Easing         string `yaml:"easing"`
}

type RotaryConfig struct {
	ValuePerStep       float64 `yaml:"value_per_step"`
	VelocityWindowMS   int     `yaml:"velocity_window_ms"`
	VelocityThreshold  int     `yaml:"velocity_threshold"`
	VelocityMultiplier float64 `yaml:"velocity_multiplier"`
}

type InputConfig struct {
	Devices []string `yaml:"devices,omitempty"` // empty disables evdev input
	AbsMin  int32    `yaml:"abs_min"`
	AbsMax  int32    `yaml:"abs_max"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type HTTPConfig struct {
	Port int `yaml:"port"` // 0 disables the HTTP server
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Dial: DialConfig{
			Variant:       dial.Base.Name,
			StartAngleDeg: defaultStartAngleDeg,
			EndAngleDeg:   defaultEndAngleDeg,
			Value:         0.5,
			LineWidthMode: "fixed",
			Colors: ColorsConfig{
				Track:      "#3a3f4b",
				Highlight:  "#2ec4b6",
				Indicator:  "#f5f5f5",
				Background: "#16181d",
				Label:      "#d0d4dc",
			},
		},
		View: ViewConfig{
			Width:  defaultViewSize,
			Height: defaultViewSize,
			Label:  true,
		},
		Animation: AnimationConfig{
			DurationMS:     defaultAnimationMS,
			DragDurationMS: defaultDragDurationMS,
			Easing:         string(dial.DefaultEasing),
		},
		Rotary: RotaryConfig{
			ValuePerStep:       defaultRotaryValuePerStep,
			VelocityWindowMS:   defaultRotaryVelocityWindowMS,
			VelocityThreshold:  defaultRotaryVelocityThreshold,
			VelocityMultiplier: defaultRotaryVelocityMultiplier,
		},
		Input: InputConfig{
			AbsMin: defaultAbsMin,
			AbsMax: defaultAbsMax,
		},
		IPC: IPCConfig{
			SocketPath: ipc.DefaultSocketPath,
		},
		HTTP: HTTPConfig{
			Port: 3002,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
// Unknown fields are rejected to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides carries flag values that override the config file. A nil
// pointer means the flag was not set.
type FlagOverrides struct {
	Variant       *string
	Value         *float64
	LineWidthMode *string

	Width  *int
	Height *int

	DurationMS *int
	Easing     *string

	InputDevice *string

	IPCSocketPath *string
	HTTPPort      *int

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
// If the pointer is non-nil, the value is applied (even if it is a “zero value”).
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Variant != nil {
		cfg.Dial.Variant = *o.Variant
	}
	if o.Value != nil {
		cfg.Dial.Value = *o.Value
	}
	if o.LineWidthMode != nil {
		cfg.Dial.LineWidthMode = *o.LineWidthMode
	}
	if o.Width != nil {
		cfg.View.Width = *o.Width
	}
	if o.Height != nil {
		cfg.View.Height = *o.Height
	}
	if o.DurationMS != nil {
		cfg.Animation.DurationMS = *o.DurationMS
	}
	if o.Easing != nil {
		cfg.Animation.Easing = *o.Easing
	}
	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.HTTPPort != nil {
		cfg.HTTP.Port = *o.HTTPPort
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Dial
	if _, err := dial.VariantByName(c.Dial.Variant); err != nil {
		return fmt.Errorf("dial.variant: %w", err)
	}
	start, end := degToRad(c.Dial.StartAngleDeg), degToRad(c.Dial.EndAngleDeg)
	if err := (dial.Geometry{StartAngle: start, EndAngle: end}).Validate(); err != nil {
		return fmt.Errorf("dial.start_angle_deg/end_angle_deg: %w", err)
	}
	if math.IsNaN(c.Dial.Value) || math.IsInf(c.Dial.Value, 0) {
		return errors.New("dial.value must be finite")
	}
	switch c.Dial.LineWidthMode {
	case "fixed", "proportional":
	default:
		return fmt.Errorf("dial.line_width_mode must be %q or %q", "fixed", "proportional")
	}
	if c.Dial.LineWidth < 0 {
		return errors.New("dial.line_width must be >= 0")
	}
	colors := map[string]string{
		"track":      c.Dial.Colors.Track,
		"highlight":  c.Dial.Colors.Highlight,
		"indicator":  c.Dial.Colors.Indicator,
		"background": c.Dial.Colors.Background,
		"label":      c.Dial.Colors.Label,
	}
	for name, hex := range colors {
		if _, err := parseHexColor(hex); err != nil {
			return fmt.Errorf("dial.colors.%s: %w", name, err)
		}
	}

	// View
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return errors.New("view.width and view.height must be > 0")
	}

	// Animation
	if c.Animation.DurationMS < 0 {
		return errors.New("animation.duration_ms must be >= 0")
	}
	if c.Animation.DragDurationMS < 0 {
		return errors.New("animation.drag_duration_ms must be >= 0")
	}
	if _, err := dial.ParseEasing(c.Animation.Easing); err != nil {
		return fmt.Errorf("animation.easing: %w", err)
	}

	// Rotary
	if c.Rotary.ValuePerStep <= 0 || c.Rotary.ValuePerStep > 1 {
		return errors.New("rotary.value_per_step must be in (0, 1]")
	}
	if c.Rotary.VelocityWindowMS < 0 {
		return errors.New("rotary.velocity_window_ms must be >= 0")
	}
	if c.Rotary.VelocityThreshold < 0 {
		return errors.New("rotary.velocity_threshold must be >= 0")
	}
	if c.Rotary.VelocityMultiplier < 1 {
		return errors.New("rotary.velocity_multiplier must be >= 1")
	}

	// Input
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if c.Input.AbsMax <= c.Input.AbsMin {
		return errors.New("input.abs_max must be > input.abs_min")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// HTTP
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port must be between 0 and 65535")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ToDialConfig converts the validated file config into the control surface config.
func (c *Config) ToDialConfig() (dial.Config, error) {
	variant, err := dial.VariantByName(c.Dial.Variant)
	if err != nil {
		return dial.Config{}, err
	}
	if c.Dial.LineWidth > 0 {
		variant.LineWidth = c.Dial.LineWidth
	}
	variant.LineWidthProportional = c.Dial.LineWidthMode == "proportional"

	easing, err := dial.ParseEasing(c.Animation.Easing)
	if err != nil {
		return dial.Config{}, err
	}

	style := dial.DefaultStyle()
	style.LineWidth = variant.LineWidth
	for _, dst := range []struct {
		hex string
		out *color.Color
	}{
		{c.Dial.Colors.Track, &style.Track},
		{c.Dial.Colors.Highlight, &style.Highlight},
		{c.Dial.Colors.Indicator, &style.Indicator},
	} {
		col, err := parseHexColor(dst.hex)
		if err != nil {
			return dial.Config{}, err
		}
		*dst.out = col
	}

	return dial.Config{
		StartAngle:   degToRad(c.Dial.StartAngleDeg),
		EndAngle:     degToRad(c.Dial.EndAngleDeg),
		Value:        c.Dial.Value,
		Width:        float64(c.View.Width),
		Height:       float64(c.View.Height),
		Variant:      variant,
		Style:        style,
		DragDuration: time.Duration(c.Animation.DragDurationMS) * time.Millisecond,
		DragEasing:   easing,
	}, nil
}

// AnimationDuration is the duration used for set_value without an explicit duration
// and for rotary turns.
func (c *Config) AnimationDuration() time.Duration {
	return time.Duration(c.Animation.DurationMS) * time.Millisecond
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// parseHexColor validates a hex color and converts it with gg.Hex.
func parseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return nil, fmt.Errorf("invalid hex color %q", s)
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return nil, fmt.Errorf("invalid hex color %q", s)
		}
	}
	return gg.Hex(hex).Color(), nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
