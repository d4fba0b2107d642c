// Package main is the entry point for the DubzRP movement client.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/config"
	"github.com/BDubz420/DubzRP/internal/engine/character"
	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/engine/window"
	"github.com/BDubz420/DubzRP/internal/game"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/internal/game/world"
	"github.com/BDubz420/DubzRP/internal/logger"
	"github.com/BDubz420/DubzRP/internal/network"
	"github.com/BDubz420/DubzRP/internal/network/replication"
)

var (
	flagHeadless = flag.Bool("headless", false, "Run without a window, driven by -script")
	flagScript   = flag.String("script", "", "YAML input script for headless runs")
	flagMap      = flag.String("map", "", "YAML map file (default: built-in arena)")
	flagName     = flag.String("name", "player", "Player name")
	flagSpawn    = flag.Int("spawn", 0, "Spawn point index")
	flagListen   = flag.String("listen", "", "Accept one replication peer on this address")
	flagConnect  = flag.String("connect", "", "Connect to a replication peer at this address")
	flagObserve  = flag.Bool("observe", false, "Do not spawn a character, only watch peers")
	flagWatch    = flag.Bool("watch", true, "Reload tuning when the config file changes")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== DubzRP Client ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("client error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("client closed normally")
}

func run(cfg *config.Config) error {
	m := world.DefaultMap()
	if *flagMap != "" {
		loaded, err := world.LoadMap(*flagMap)
		if err != nil {
			return err
		}
		m = loaded
	}

	hub := replication.NewHub()
	animLog := logger.Named("anim")
	session, err := world.NewSession(*flagName, cfg, m.Build(), world.Options{
		Hub:     hub,
		Volumes: m.Volumes(),
		Sinks: func(ent *entity.Entity) character.AnimationSink {
			return character.NewLogSink(animLog.With(zap.String("player", ent.Name), zap.Stringer("role", ent.Role)))
		},
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if !*flagObserve {
		if _, err := session.Spawn(*flagName, m.Spawn(*flagSpawn)); err != nil {
			return err
		}
	}

	opts := game.Options{}

	link, err := openLink(hub, *flagName)
	if err != nil {
		return err
	}
	if link != nil {
		defer link.Close()
		opts.Link = link
	}

	if path := configPath(); *flagWatch && path != "" {
		w, err := config.Watch(path)
		if err != nil {
			logger.Warn("config hot reload disabled", zap.String("path", path), zap.Error(err))
		} else {
			defer w.Close()
			opts.Reloads = w.Updates
		}
	}

	if *flagHeadless {
		return runHeadless(cfg, session, opts)
	}
	return runWindowed(cfg, session, opts)
}

func runHeadless(cfg *config.Config, session *world.Session, opts game.Options) error {
	if *flagScript == "" {
		return fmt.Errorf("-headless needs -script")
	}
	script, err := input.LoadScript(*flagScript)
	if err != nil {
		return fmt.Errorf("loading script: %w", err)
	}
	frames, err := script.Frames()
	if err != nil {
		return fmt.Errorf("script %s: %w", *flagScript, err)
	}

	opts.FrameTime = cfg.TickInterval()
	g := game.New(cfg, session, input.NewPlayback(frames), opts)
	if err := g.Run(); err != nil {
		return err
	}

	for _, ch := range session.Characters() {
		st := ch.Vitals.Stats()
		logger.Info("final state",
			zap.String("player", ch.Entity.Name),
			zap.Stringer("role", ch.Entity.Role),
			zap.Any("position", ch.Body.Position()),
			zap.Bool("grounded", ch.Movement.IsOnGround()),
			zap.Bool("ducking", ch.Movement.State().IsDucking),
			zap.Float32("health", st.Health),
		)
	}
	return nil
}

func runWindowed(cfg *config.Config, session *world.Session, opts game.Options) error {
	win, err := window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		Bindings:   cfg.Input.Bindings,
	})
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	opts.OnFrame = func(s *world.Session, frame int) {
		if frame%30 != 0 {
			return
		}
		win.SetTitle(title(cfg, s, win.Aspect()))
	}

	return game.New(cfg, session, win, opts).Run()
}

// title summarizes the local character and how many others are on screen.
func title(cfg *config.Config, s *world.Session, aspect float32) string {
	local := s.Local()
	if local == nil {
		return fmt.Sprintf("%s - observing %d", cfg.Window.Title, len(s.Characters()))
	}

	visible := 0
	for _, ch := range s.Characters() {
		if ch != local && s.Camera().InView(ch.Entity.Head.Position, aspect) {
			visible++
		}
	}

	pos := local.Body.Position()
	mode := "first person"
	if d := s.Camera().State().Distance; d > 0 {
		mode = fmt.Sprintf("third person %.0f", d)
	}
	return fmt.Sprintf("%s - %.0f %.0f %.0f - %s - %d in view",
		cfg.Window.Title, pos.X, pos.Y, pos.Z, mode, visible)
}

// openLink dials or accepts the optional replication peer.
func openLink(hub *replication.Hub, name string) (*replication.Link, error) {
	switch {
	case *flagConnect != "":
		conn, err := network.Dial(*flagConnect)
		if err != nil {
			return nil, err
		}
		return replication.NewLink(hub, conn, name)

	case *flagListen != "":
		ln, err := net.Listen("tcp", *flagListen)
		if err != nil {
			return nil, fmt.Errorf("listening on %s: %w", *flagListen, err)
		}
		defer ln.Close()

		logger.Info("waiting for peer", zap.String("addr", *flagListen))
		if tl, ok := ln.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(time.Minute))
		}
		c, err := ln.Accept()
		if err != nil {
			return nil, fmt.Errorf("accepting peer: %w", err)
		}
		return replication.NewLink(hub, network.NewConn(c), name)
	}
	return nil, nil
}

// configPath returns the config file in use, if any.
func configPath() string {
	if p := config.ConfigPath(); p != "" {
		return p
	}
	return config.FindConfigFile()
}
