package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"torus-snake/audio"
	"torus-snake/config"
	"torus-snake/game"
	"torus-snake/game/manager"
	"torus-snake/httpserver"
	"torus-snake/input"
	"torus-snake/scores"
	"torus-snake/ui"
)

func init() {
	// raylib must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.HashPassword != "" {
		hash, err := httpserver.HashPassword(cfg.HashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("snake exited")
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := scores.Open(ctx, cfg.ScoresDSN)
	if err != nil {
		return fmt.Errorf("open score store: %w", err)
	}
	defer store.Close()

	latest := ui.NewLatest()
	seedHistory(ctx, store, latest)

	holder := input.NewHolder()
	food := manager.NewFoodManager(cfg.Grid(), cfg.Seed)

	var sched *game.Scheduler
	var source game.DirectionSource = holder
	if cfg.Autopilot {
		source = input.NewAutopilot(func() game.Frame { return sched.Snapshot() })
	}
	sched = game.NewScheduler(game.NewSession(food), source, cfg.Interval(),
		game.WithPresenter(latest),
		game.WithRecorder(scores.Recorder{Store: store}),
	)
	defer sched.Stop()

	if cfg.Sound && cfg.UI != config.UIHeadless {
		effects := audio.NewEffects()
		if err := effects.Init(); err != nil {
			log.Warn().Err(err).Msg("audio unavailable, continuing silent")
		} else {
			defer effects.Close()
			sched.AddPresenter(effects)
		}
	}

	if cfg.HTTPAddr != "" {
		hub := httpserver.NewHub(sched, holder, cfg.Origins()...)
		defer hub.Close()
		sched.AddPresenter(hub)

		srv := httpserver.New(httpserver.Options{
			Scores:            store,
			Game:              sched,
			Input:             holder,
			Hub:               hub,
			JWTSecret:         cfg.JWTSecret,
			AdminPasswordHash: cfg.AdminPasswordHash,
		})
		go func() {
			if err := srv.Start(ctx, cfg.HTTPAddr); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	log.Info().
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("tps", cfg.TicksPerSecond).
		Str("ui", cfg.UI).
		Bool("autopilot", cfg.Autopilot).
		Msg("snake ready")

	switch cfg.UI {
	case config.UITerminal:
		term, err := ui.NewTerminal(cfg.Grid(), ui.Controls{
			Steer: holder.Key,
			Start: sched.Start,
			View:  latest.View,
		})
		if err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		term.Run(ctx)
	case config.UIHeadless:
		if cfg.Autopilot {
			sched.AddPresenter(&restarter{start: sched.Start, delay: 2 * time.Second})
		}
		if err := sched.Start(); err != nil {
			return err
		}
		<-ctx.Done()
	default:
		runWindow(ctx, cfg, sched, holder, latest)
	}
	return nil
}

// runWindow is the raylib main loop
func runWindow(ctx context.Context, cfg config.Config, sched *game.Scheduler, holder *input.Holder, latest *ui.Latest) {
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(rl.FlagWindowResizable)
	w, h := ui.WindowSize(cfg.Grid(), cfg.TileSize)
	rl.InitWindow(w, h, "Snake")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	renderer := ui.NewRenderer(cfg.Grid())
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		if ui.QuitPressed() {
			break
		}
		for _, key := range ui.PressedKeys() {
			holder.Key(key)
		}
		if ui.StartPressed() && sched.State() != game.Alive {
			if err := sched.Start(); err != nil {
				log.Error().Err(err).Msg("start session")
			}
		}
		renderer.Draw(latest.View())
	}
}

// restarter begins a new session a little after each game over
type restarter struct {
	start func() error
	delay time.Duration
}

func (r *restarter) Present(game.Frame) {}

func (r *restarter) GameOver(game.Summary) {
	// Start must not run on the tick goroutine
	go func() {
		time.Sleep(r.delay)
		if err := r.start(); err != nil {
			log.Error().Err(err).Msg("restart session")
		}
	}()
}

func seedHistory(ctx context.Context, store scores.Store, latest *ui.Latest) {
	entries, err := store.List(ctx, 0)
	if err != nil {
		log.Warn().Err(err).Msg("load score history")
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
	history := make([]int, 0, len(entries))
	for _, e := range entries {
		history = append(history, e.Score)
	}
	best, err := store.Best(ctx)
	if err != nil && !errors.Is(err, scores.ErrNotFound) {
		log.Warn().Err(err).Msg("load best score")
	}
	latest.Seed(history, best.Score)
}

// setupLogging configures the global logger. The terminal UI owns the
// screen, so its logs go to a file.
func setupLogging(cfg config.Config) (func(), error) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	closer := func() {}
	if cfg.UI == config.UITerminal {
		if dir := filepath.Dir(cfg.LogFile); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = func() { _ = f.Close() }
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}
