// Package config assembles runtime settings from defaults, a .env file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"torus-snake/game/types"
)

var ErrInvalid = errors.New("invalid config")

const (
	UIRaylib   = "raylib"
	UITerminal = "term"
	UIHeadless = "headless"

	MaxTicksPerSecond = 60
)

type Config struct {
	Width          int
	Height         int
	TicksPerSecond int
	TileSize       int
	UI             string

	HTTPAddr  string
	WSOrigins string // comma-separated extra websocket origins
	ScoresDSN string

	Sound     bool
	Autopilot bool
	Seed      uint64

	LogLevel string
	LogFile  string

	JWTSecret         string
	AdminPasswordHash string

	// HashPassword, when set, asks for a bcrypt hash instead of a game
	HashPassword string
}

func Default() Config {
	return Config{
		Width:          types.DefaultWidth,
		Height:         types.DefaultHeight,
		TicksPerSecond: 2,
		TileSize:       50,
		UI:             UIRaylib,
		ScoresDSN:      "data/scores.db",
		Sound:          true,
		LogLevel:       "info",
		LogFile:        "data/snake.log",
	}
}

// Load reads .env (if present), the environment and args
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	cfg, err := FromEnv(Default(), os.Getenv)
	if err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("snake", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv overlays the variables returned by getenv onto base
func FromEnv(base Config, getenv func(string) string) (Config, error) {
	cfg := base
	ints := []struct {
		key string
		dst *int
	}{
		{"SNAKE_WIDTH", &cfg.Width},
		{"SNAKE_HEIGHT", &cfg.Height},
		{"SNAKE_TPS", &cfg.TicksPerSecond},
		{"SNAKE_TILE", &cfg.TileSize},
	}
	for _, v := range ints {
		if raw := getenv(v.key); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalid, v.key, raw)
			}
			*v.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"SNAKE_SOUND", &cfg.Sound},
		{"SNAKE_AUTOPILOT", &cfg.Autopilot},
	}
	for _, v := range bools {
		if raw := getenv(v.key); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalid, v.key, raw)
			}
			*v.dst = b
		}
	}

	if raw := getenv("SNAKE_SEED"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: SNAKE_SEED=%q", ErrInvalid, raw)
		}
		cfg.Seed = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"SNAKE_UI", &cfg.UI},
		{"SNAKE_HTTP_ADDR", &cfg.HTTPAddr},
		{"SNAKE_WS_ORIGINS", &cfg.WSOrigins},
		{"SNAKE_SCORES_DSN", &cfg.ScoresDSN},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"SNAKE_LOG_FILE", &cfg.LogFile},
		{"JWT_SECRET", &cfg.JWTSecret},
		{"ADMIN_PASSWORD_HASH", &cfg.AdminPasswordHash},
	}
	for _, v := range strs {
		if raw := getenv(v.key); raw != "" {
			*v.dst = raw
		}
	}
	return cfg, nil
}

// RegisterFlags binds every setting to fs, using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "Grid width in cells")
	fs.IntVar(&c.Height, "height", c.Height, "Grid height in cells")
	fs.IntVar(&c.TicksPerSecond, "tps", c.TicksPerSecond, "Ticks per second")
	fs.IntVar(&c.TileSize, "tile", c.TileSize, "Tile size in pixels (raylib)")
	fs.StringVar(&c.UI, "ui", c.UI, "Presentation: raylib, term or headless")
	fs.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "HTTP listen address, empty to disable")
	fs.StringVar(&c.WSOrigins, "ws-origins", c.WSOrigins, "Extra origins allowed on /ws, comma-separated")
	fs.StringVar(&c.ScoresDSN, "scores", c.ScoresDSN, "Score store: memory, *.json, *.db or postgres:// DSN")
	fs.BoolVar(&c.Sound, "sound", c.Sound, "Play sound effects")
	fs.BoolVar(&c.Autopilot, "autopilot", c.Autopilot, "Let the autopilot steer")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Food placement seed, 0 for random")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file used while the terminal UI is active")
	fs.StringVar(&c.HashPassword, "hash-password", "", "Print a bcrypt hash of this password for ADMIN_PASSWORD_HASH and exit")
}

// Validate rejects settings the game cannot run with
func (c Config) Validate() error {
	grid := c.Grid()
	if err := grid.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if grid.Cells() < 2 {
		return fmt.Errorf("%w: grid %dx%d leaves no room for food", ErrInvalid, c.Width, c.Height)
	}
	if c.TicksPerSecond < 1 || c.TicksPerSecond > MaxTicksPerSecond {
		return fmt.Errorf("%w: tps %d outside 1..%d", ErrInvalid, c.TicksPerSecond, MaxTicksPerSecond)
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("%w: tile size %d", ErrInvalid, c.TileSize)
	}
	switch c.UI {
	case UIRaylib, UITerminal, UIHeadless:
	default:
		return fmt.Errorf("%w: unknown ui %q", ErrInvalid, c.UI)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	if c.AdminPasswordHash != "" && c.JWTSecret == "" {
		return fmt.Errorf("%w: ADMIN_PASSWORD_HASH set without JWT_SECRET", ErrInvalid)
	}
	return nil
}

// Origins splits WSOrigins
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.WSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) Grid() types.Grid {
	return types.Grid{Width: c.Width, Height: c.Height}
}

// Interval is the time between two ticks
func (c Config) Interval() time.Duration {
	return time.Second / time.Duration(c.TicksPerSecond)
}
