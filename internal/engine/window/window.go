// Package window handles the SDL2 window and turns its events into input
// frames.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/logger"
)

func init() {
	// SDL event pumping must stay on the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	Bindings   map[string]string // Action name -> SDL key name
}

// Window wraps an SDL2 window with the pointer captured for mouse look.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	bindings  map[sdl.Scancode]input.Action
	tracker   input.Tracker
	log       *zap.Logger
}

// New creates a window and captures the pointer.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config:   cfg,
		bindings: make(map[sdl.Scancode]input.Action, len(cfg.Bindings)),
		log:      logger.Named("window"),
	}

	for name, key := range cfg.Bindings {
		action, err := input.ParseAction(name)
		if err != nil {
			return nil, err
		}
		code := sdl.GetScancodeFromName(key)
		if code == sdl.SCANCODE_UNKNOWN {
			return nil, fmt.Errorf("binding %s: unknown key %q", name, key)
		}
		w.bindings[code] = action
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_RESIZABLE)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	sdl.SetRelativeMouseMode(true)

	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
	)
	return w, nil
}

// Poll drains pending SDL events into the input tracker. Returns true if
// the window was closed or Escape was pressed.
func (w *Window) Poll() bool {
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true

		case *sdl.KeyboardEvent:
			if e.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
				quit = true
				continue
			}
			action, ok := w.bindings[e.Keysym.Scancode]
			if !ok {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				w.tracker.KeyDown(action)
			} else if e.Type == sdl.KEYUP {
				w.tracker.KeyUp(action)
			}

		case *sdl.MouseMotionEvent:
			w.tracker.Look(float32(e.XRel), float32(e.YRel))

		case *sdl.MouseWheelEvent:
			w.tracker.Wheel(float32(e.Y))
		}
	}
	return quit
}

// Frame returns the input collected since the previous call.
func (w *Window) Frame() input.Frame {
	return w.tracker.Next()
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// Aspect returns width/height of the drawable area.
func (w *Window) Aspect() float32 {
	width, height := w.sdlWindow.GetSize()
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	w.log.Info("closing window")
	sdl.SetRelativeMouseMode(false)
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}
	sdl.Quit()
}
