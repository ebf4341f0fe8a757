package engy

import (
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes an application. It is usually loaded from a YAML file:
//
//	name: boxes
//	title: Boxes
//	width: 640
//	height: 480
//	tps: 60
//	resource_path: res
//	background: "#202030"
//	log_level: debug
type Config struct {
	Name          string  `yaml:"name"`
	Title         string  `yaml:"title"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Fullscreen    bool    `yaml:"fullscreen"`
	TPS           int     `yaml:"tps"`            // ticks (and frames) per second
	ResourcePath  string  `yaml:"resource_path"`  // root of the asset tree
	ImagesDir     string  `yaml:"images_dir"`     // images sub-directory of ResourcePath
	MaxDeltaTime  float64 `yaml:"max_delta_time"` // seconds; longer frames are clamped
	Background    string  `yaml:"background"`     // "#rrggbb" or "#rrggbbaa"
	LogLevel      string  `yaml:"log_level"`      // debug, info, warn, error
	LogFile       string  `yaml:"log_file"`       // optional; tee'd with stderr
	ScreenshotDir string  `yaml:"screenshot_dir"`
	Debug         bool    `yaml:"debug"`
}

// DefaultConfig returns the configuration used for any field a file leaves
// unset.
func DefaultConfig() Config {
	return Config{
		Name:          "engy",
		Title:         "engy",
		Width:         640,
		Height:        480,
		TPS:           60,
		ResourcePath:  "res",
		ImagesDir:     DefaultImagesDir,
		MaxDeltaTime:  0.25,
		Background:    "#000000",
		LogLevel:      "info",
		ScreenshotDir: "screenshots",
	}
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: yaml unmarshal: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// Validate reports every invalid field, joined, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height))
	}
	if c.TPS <= 0 {
		errs = append(errs, fmt.Errorf("tps %d must be positive", c.TPS))
	}
	if c.MaxDeltaTime <= 0 {
		errs = append(errs, fmt.Errorf("max_delta_time %v must be positive", c.MaxDeltaTime))
	}
	if _, err := c.BackgroundColor(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// BackgroundColor parses Background. An empty value is transparent.
func (c Config) BackgroundColor() (color.NRGBA, error) {
	return parseHexColor(c.Background)
}

// Level parses LogLevel. An empty value means info.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{}, nil
	}
	raw := strings.TrimPrefix(s, "#")
	if len(raw) != 6 && len(raw) != 8 {
		return color.NRGBA{}, fmt.Errorf("background %q: want #rrggbb or #rrggbbaa", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("background %q: %w", s, err)
	}
	c := color.NRGBA{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}
