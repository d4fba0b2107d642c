// Package game implements the client loop: input sources, the fixed-step
// tick accumulator, replication pumping and config hot reload.
package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/config"
	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/game/world"
	"github.com/BDubz420/DubzRP/internal/logger"
	"github.com/BDubz420/DubzRP/internal/network/replication"
)

// Source supplies one input frame per loop iteration.
type Source interface {
	// Poll gathers pending input and reports whether the loop should stop.
	Poll() bool
	// Frame returns the input gathered since the previous call.
	Frame() input.Frame
}

// Options configures a Game.
type Options struct {
	// FrameTime fixes the frame delta. Zero measures wall-clock time.
	FrameTime time.Duration
	// Link relays replication to a remote peer. Optional.
	Link *replication.Link
	// Reloads delivers hot-reloaded configs. Optional.
	Reloads <-chan *config.Config
	// OnFrame runs after every frame, for window titles and stats.
	OnFrame func(s *world.Session, frame int)
}

// Game drives a session from an input source.
type Game struct {
	cfg     *config.Config
	session *world.Session
	source  Source
	opts    Options
	log     *zap.Logger

	running bool
	frames  int
	ticks   int
}

// New creates a game.
func New(cfg *config.Config, session *world.Session, source Source, opts Options) *Game {
	return &Game{
		cfg:     cfg,
		session: session,
		source:  source,
		opts:    opts,
		log:     logger.Named("game"),
	}
}

// Frames returns the number of frames run.
func (g *Game) Frames() int { return g.frames }

// Ticks returns the number of fixed ticks run.
func (g *Game) Ticks() int { return g.ticks }

// Stop ends the loop after the current frame.
func (g *Game) Stop() { g.running = false }

// Run loops until the source quits or Stop is called.
func (g *Game) Run() error {
	g.running = true

	lastTime := time.Now()
	var accumulator time.Duration
	fpsTimer := time.Now()
	fpsFrames := 0

	g.log.Info("starting game loop",
		zap.Int("tick_rate", g.cfg.Simulation.TickRate),
		zap.Bool("fixed_frames", g.opts.FrameTime > 0),
	)

	for g.running {
		// 1. Process input
		if g.source.Poll() {
			break
		}
		in := g.source.Frame()

		// 2. Frame delta
		now := time.Now()
		dt := g.opts.FrameTime
		if dt == 0 {
			dt = now.Sub(lastTime)
		}
		lastTime = now
		if limit := g.cfg.Simulation.MaxFrameTime; limit > 0 && dt > limit {
			dt = limit
		}

		// 3. Frame then catch up fixed ticks
		g.session.Frame(float32(dt.Seconds()), in)

		tick := g.cfg.TickInterval()
		accumulator += dt
		for accumulator >= tick {
			g.session.Tick(float32(tick.Seconds()))
			accumulator -= tick
			g.ticks++
		}

		// 4. Replication and reloads
		if g.opts.Link != nil {
			if err := g.opts.Link.Pump(); err != nil {
				return fmt.Errorf("replication link: %w", err)
			}
			if rtt := g.opts.Link.RTT(); rtt > 0 {
				g.session.SetPing(rtt)
			}
		}
		g.pollReload()

		g.frames++
		if g.opts.OnFrame != nil {
			g.opts.OnFrame(g.session, g.frames)
		}

		// FPS counter
		fpsFrames++
		if time.Since(fpsTimer) >= time.Second {
			g.log.Debug("fps", zap.Int("count", fpsFrames), zap.Duration("dt", dt))
			fpsFrames = 0
			fpsTimer = time.Now()
		}
	}

	g.log.Info("game loop stopped", zap.Int("frames", g.frames), zap.Int("ticks", g.ticks))
	return nil
}

func (g *Game) pollReload() {
	if g.opts.Reloads == nil {
		return
	}
	select {
	case cfg, ok := <-g.opts.Reloads:
		if !ok {
			g.opts.Reloads = nil
			return
		}
		g.cfg = cfg
		g.session.ApplyConfig(cfg)
		logger.SetLevel(cfg.Logging.Level)
	default:
	}
}
