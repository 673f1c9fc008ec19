// Package config loads runtime settings from a YAML file, a .env file and
// RICHINPUT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RICHINPUT_"

var (
	ErrInvalidLogLevel = errors.New("config: invalid log level")
	ErrInvalidWindow   = errors.New("config: invalid window size")
	ErrInvalidDuration = errors.New("config: negative duration")
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Editor  EditorConfig  `yaml:"editor"`
	Emoji   EmojiConfig   `yaml:"emoji"`
	Draft   DraftConfig   `yaml:"draft"`
	Window  WindowConfig  `yaml:"window"`
	Send    SendConfig    `yaml:"send"`
	Tooltip TooltipConfig `yaml:"tooltip"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
	// MaxSizeMB and MaxBackups drive log file rotation.
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

type EditorConfig struct {
	SanitizePaste bool   `yaml:"sanitize_paste"`
	Placeholder   string `yaml:"placeholder"`
}

type EmojiConfig struct {
	Animation   bool          `yaml:"animation"`
	SizePx      int           `yaml:"size_px"`
	ResizeDelay time.Duration `yaml:"resize_delay"`
	Manifest    string        `yaml:"manifest"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type DraftConfig struct {
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
	// Password seals saved drafts. It is only read from the environment.
	Password string `yaml:"-"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type SendConfig struct {
	CtrlEnter bool `yaml:"ctrl_enter"`
}

type TooltipConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Editor: EditorConfig{SanitizePaste: true},
		Emoji: EmojiConfig{
			Animation:   true,
			SizePx:      20,
			ResizeDelay: 300 * time.Millisecond,
			CacheTTL:    10 * time.Minute,
		},
		Draft:   DraftConfig{Dir: "drafts", Compress: true},
		Window:  WindowConfig{Width: 960, Height: 640, Title: "richinput"},
		Tooltip: TooltipConfig{Throttle: 300 * time.Millisecond},
	}
}

// Load reads path when it is not empty, then applies a .env file from the
// working directory when one exists, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) {
	getString(lookup, "LOG_LEVEL", &c.Log.Level)
	getString(lookup, "LOG_FILE", &c.Log.File)
	getBool(lookup, "LOG_CONSOLE", &c.Log.Console)
	getBool(lookup, "SANITIZE_PASTE", &c.Editor.SanitizePaste)
	getString(lookup, "PLACEHOLDER", &c.Editor.Placeholder)
	getBool(lookup, "ANIMATION", &c.Emoji.Animation)
	getInt(lookup, "EMOJI_SIZE", &c.Emoji.SizePx)
	getDuration(lookup, "RESIZE_DELAY", &c.Emoji.ResizeDelay)
	getString(lookup, "EMOJI_MANIFEST", &c.Emoji.Manifest)
	getString(lookup, "DRAFT_DIR", &c.Draft.Dir)
	getString(lookup, "DRAFT_PASSWORD", &c.Draft.Password)
	getInt(lookup, "WINDOW_WIDTH", &c.Window.Width)
	getInt(lookup, "WINDOW_HEIGHT", &c.Window.Height)
	getBool(lookup, "CTRL_ENTER", &c.Send.CtrlEnter)
	getDuration(lookup, "TOOLTIP_THROTTLE", &c.Tooltip.Throttle)
}

func getString(lookup lookupFunc, key string, dst *string) {
	if v, ok := lookup(envPrefix + key); ok {
		*dst = v
	}
}

// Unparsable values keep the current setting.
func getBool(lookup lookupFunc, key string, dst *bool) {
	if v, ok := lookup(envPrefix + key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func getInt(lookup lookupFunc, key string, dst *int) {
	if v, ok := lookup(envPrefix + key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func getDuration(lookup lookupFunc, key string, dst *time.Duration) {
	if v, ok := lookup(envPrefix + key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			*dst = d
		}
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidWindow, c.Window.Width, c.Window.Height)
	}
	if c.Emoji.ResizeDelay < 0 || c.Tooltip.Throttle < 0 || c.Emoji.CacheTTL < 0 {
		return ErrInvalidDuration
	}
	return nil
}
