// Package input turns key and pointer events (live or scripted) into
// per-frame action snapshots.
package input

import (
	"fmt"
	"strings"

	"github.com/BDubz420/DubzRP/pkg/math"
)

// Action is a bit set of logical inputs.
type Action uint16

const (
	ActionForward Action = 1 << iota
	ActionBackward
	ActionLeft
	ActionRight
	ActionRun
	ActionDuck
	ActionJump
)

var actionNames = map[string]Action{
	"forward":  ActionForward,
	"backward": ActionBackward,
	"left":     ActionLeft,
	"right":    ActionRight,
	"run":      ActionRun,
	"duck":     ActionDuck,
	"jump":     ActionJump,
}

// ParseAction resolves a config/script action name.
func ParseAction(name string) (Action, error) {
	a, ok := actionNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown action %q", name)
	}
	return a, nil
}

// Frame is the input sampled for one frame. Pressed and Released record
// edges seen during the frame, so a tap that is released before the frame
// ends still reports Pressed with the action no longer Down.
type Frame struct {
	Down      Action
	Pressed   Action
	Released  Action
	LookDelta math.Vec2 // Pointer motion: X right, Y down
	Zoom      float32   // Wheel steps, positive zooms in
}

// IsDown reports whether a is held at the end of the frame.
func (f Frame) IsDown(a Action) bool { return f.Down&a != 0 }

// WasPressed reports whether a went down during the frame.
func (f Frame) WasPressed(a Action) bool { return f.Pressed&a != 0 }

// WasReleased reports whether a went up during the frame.
func (f Frame) WasReleased(a Action) bool { return f.Released&a != 0 }

// Tracker accumulates raw key and pointer events into Frames.
type Tracker struct {
	down     Action
	pressed  Action
	released Action
	look     math.Vec2
	zoom     float32
}

// KeyDown records a press. Auto-repeat presses of a held key are ignored.
func (t *Tracker) KeyDown(a Action) {
	if t.down&a == 0 {
		t.pressed |= a
	}
	t.down |= a
}

// KeyUp records a release.
func (t *Tracker) KeyUp(a Action) {
	if t.down&a != 0 {
		t.released |= a
	}
	t.down &^= a
}

// Look accumulates pointer motion.
func (t *Tracker) Look(dx, dy float32) {
	t.look = t.look.Add(math.Vec2{X: dx, Y: dy})
}

// Wheel accumulates scroll steps.
func (t *Tracker) Wheel(steps float32) {
	t.zoom += steps
}

// Next returns the frame collected since the previous call and starts a new one.
func (t *Tracker) Next() Frame {
	f := Frame{
		Down:      t.down,
		Pressed:   t.pressed,
		Released:  t.released,
		LookDelta: t.look,
		Zoom:      t.zoom,
	}
	t.pressed, t.released = 0, 0
	t.look, t.zoom = math.Vec2{}, 0
	return f
}
