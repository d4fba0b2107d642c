// Package movement turns sampled input into character motion: wish velocity,
// grounded and airborne integration, the crouch state machine and jumping.
//
// Only the owning participant drives a Controller. Proxies are written
// exclusively through Apply with replicated deltas.
package movement

import (
	"errors"
	"fmt"

	"github.com/BDubz420/DubzRP/internal/config"
	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/engine/physics"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/internal/network/replication"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// Assembly errors returned by New.
var (
	ErrMissingEntity = errors.New("movement: missing entity")
	ErrMissingHead   = errors.New("movement: missing head transform")
	ErrMissingBody   = errors.New("movement: missing character body")
	ErrMissingTracer = errors.New("movement: missing trace provider")
)

// State is the replicated movement state of one character.
type State struct {
	IsDucking     bool
	IsSprinting   bool
	TargetHeading math.Angles // Pitch and Roll are always 0
}

// Tuning is the integrator configuration.
type Tuning struct {
	config.MovementConfig
	Gravity float32
}

// TuningFrom extracts the integrator tuning from a full config.
func TuningFrom(cfg *config.Config) Tuning {
	return Tuning{MovementConfig: cfg.Movement, Gravity: cfg.Simulation.Gravity}
}

// Controller integrates one character.
type Controller struct {
	ent    *entity.Entity
	body   physics.Body
	tracer physics.Tracer
	tuning Tuning

	state State
	wish  math.Vec3

	events []replication.Event

	last           snapshot
	synced         bool
	remoteGrounded bool
}

// New assembles a controller. The body's height is set to match the
// standing state.
func New(ent *entity.Entity, body physics.Body, tracer physics.Tracer, tuning Tuning) (*Controller, error) {
	switch {
	case ent == nil:
		return nil, ErrMissingEntity
	case ent.Head == nil || ent.Root == nil:
		return nil, fmt.Errorf("entity %s: %w", ent.Name, ErrMissingHead)
	case body == nil:
		return nil, fmt.Errorf("entity %s: %w", ent.Name, ErrMissingBody)
	case tracer == nil:
		return nil, fmt.Errorf("entity %s: %w", ent.Name, ErrMissingTracer)
	}

	c := &Controller{ent: ent, body: body, tracer: tracer, tuning: tuning}
	body.SetHeight(tuning.StandingHeight)
	c.syncTransform()
	return c, nil
}

// State returns the current movement state.
func (c *Controller) State() State { return c.state }

// IsDucking reports whether the character is crouched.
func (c *Controller) IsDucking() bool { return c.state.IsDucking }

// WishVelocity returns the wish velocity built on the last tick.
func (c *Controller) WishVelocity() math.Vec3 { return c.wish }

// Body returns the character body.
func (c *Controller) Body() physics.Body { return c.body }

// Entity returns the controlled entity.
func (c *Controller) Entity() *entity.Entity { return c.ent }

// SetTuning replaces the tuning values, for hot reload.
func (c *Controller) SetTuning(t Tuning) {
	c.tuning = t
	c.body.SetHeight(c.height())
	c.syncTransform()
}

// EyeHeight is the head's height above the feet. It does not change while
// ducking; the camera lowers the eye instead.
func (c *Controller) EyeHeight() float32 {
	return c.tuning.StandingHeight
}

func (c *Controller) active() bool {
	return !c.ent.IsProxy() && !c.ent.HasTag(entity.TagNoInput)
}

func (c *Controller) height() float32 {
	if c.state.IsDucking {
		return c.tuning.DuckingHeight
	}
	return c.tuning.StandingHeight
}

// Frame samples per-frame input: crouch transitions, sprint, jump and the
// target heading. It must run before the next Tick.
func (c *Controller) Frame(dt float32, in input.Frame) {
	if !c.active() {
		return
	}

	c.updateDuck(in)
	c.state.IsSprinting = in.IsDown(input.ActionRun)

	if in.WasPressed(input.ActionJump) && c.body.IsOnGround() {
		c.body.Punch(math.Up.Scale(c.tuning.JumpForce))
		c.events = append(c.events, replication.Event{Kind: replication.EventJump, Entity: c.ent.ID})
	}

	c.state.TargetHeading = math.Angles{Yaw: c.ent.Head.Rotation.Yaw()}
}

func (c *Controller) updateDuck(in input.Frame) {
	if !c.state.IsDucking && in.WasPressed(input.ActionDuck) {
		c.state.IsDucking = true
		c.body.SetHeight(c.tuning.DuckingHeight)
	}

	if c.state.IsDucking && !in.IsDown(input.ActionDuck) && c.canStand() {
		c.state.IsDucking = false
		c.body.SetHeight(c.tuning.StandingHeight)
	}
}

// canStand traces upward through the space the standing body would occupy.
func (c *Controller) canStand() bool {
	pos := c.body.Position()
	tr := c.tracer.Trace(physics.TraceQuery{
		Start:   pos.Add(math.Up.Scale(c.tuning.DuckingHeight)),
		End:     pos.Add(math.Up.Scale(c.tuning.StandingHeight)),
		Radius:  c.body.Radius() * c.tuning.ClearanceRadiusScale,
		Without: []string{entity.TagPlayer},
	})
	return !tr.Hit
}

// BuildWishVelocity returns the desired horizontal velocity for the held
// direction actions, relative to the head's yaw.
func (c *Controller) BuildWishVelocity(in input.Frame) math.Vec3 {
	rot := math.Angles{Yaw: c.ent.Head.Rotation.Yaw()}.Quat()

	var wish math.Vec3
	if in.IsDown(input.ActionForward) {
		wish = wish.Add(rot.Forward())
	}
	if in.IsDown(input.ActionBackward) {
		wish = wish.Add(rot.Backward())
	}
	if in.IsDown(input.ActionLeft) {
		wish = wish.Add(rot.Left())
	}
	if in.IsDown(input.ActionRight) {
		wish = wish.Add(rot.Right())
	}

	wish = wish.WithY(0)
	if wish.IsNearZeroLength() {
		return math.Vec3{}
	}
	return wish.Normalize().Scale(c.speed())
}

func (c *Controller) speed() float32 {
	switch {
	case c.state.IsDucking:
		return c.tuning.DuckSpeed
	case c.state.IsSprinting:
		return c.tuning.RunSpeed
	default:
		return c.tuning.Speed
	}
}

// Tick runs one fixed integration step.
func (c *Controller) Tick(dt float32, in input.Frame) {
	if !c.active() {
		return
	}

	c.wish = c.BuildWishVelocity(in)
	halfGravity := math.Down.Scale(c.tuning.Gravity * dt * 0.5)

	if c.body.IsOnGround() {
		c.body.SetVelocity(c.body.Velocity().WithY(0))
		c.body.Accelerate(c.wish, dt)
		c.body.ApplyFriction(c.tuning.GroundControl, dt)
	} else {
		c.body.SetVelocity(c.body.Velocity().Add(halfGravity))
		c.body.Accelerate(c.wish.ClampLength(c.tuning.MaxForce), dt)
		c.body.ApplyFriction(c.tuning.AirControl, dt)
	}

	c.body.Move(dt)

	if c.body.IsOnGround() {
		c.body.SetVelocity(c.body.Velocity().WithY(0))
	} else {
		c.body.SetVelocity(c.body.Velocity().Add(halfGravity))
	}

	c.syncTransform()
}

// syncTransform places the root at the body's feet and the head at eye
// height above it.
func (c *Controller) syncTransform() {
	pos := c.body.Position()
	c.ent.Root.Position = pos
	c.ent.Head.Position = pos.Add(math.Up.Scale(c.EyeHeight()))
	if c.ent.Body != nil {
		c.ent.Body.Position = pos
	}
}

// DrainEvents returns the one-shot events raised since the last call.
func (c *Controller) DrainEvents() []replication.Event {
	out := c.events
	c.events = nil
	return out
}
