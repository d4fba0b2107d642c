// Package camera places the view for the locally owned character: first
// person at the eye, or orbiting behind the head with collision pull-in.
package camera

import (
	"errors"

	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/config"
	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/engine/physics"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/internal/logger"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// ErrSubjectIncomplete is returned by Bind when the subject is missing its
// entity or head.
var ErrSubjectIncomplete = errors.New("camera: subject is missing its entity or head")

// Clip planes for Projection.
const (
	NearPlane = 1.0
	FarPlane  = 10000.0
)

// Subject is the character a camera follows.
type Subject interface {
	Entity() *entity.Entity
	IsDucking() bool
}

// State is the camera's local state. It is never replicated.
type State struct {
	LookAngles    math.Angles
	CurrentOffset math.Vec3
	Distance      float32 // 0 is first person
}

// Controller is a camera bound to one subject.
type Controller struct {
	tracer physics.Tracer
	tuning config.CameraConfig
	log    *zap.Logger

	subject Subject
	ready   bool
	state   State

	position math.Vec3
	rotation math.Quat
}

// New creates an unbound camera.
func New(tracer physics.Tracer, tuning config.CameraConfig) *Controller {
	return &Controller{
		tracer:   tracer,
		tuning:   tuning,
		log:      logger.Named("camera"),
		state:    State{Distance: tuning.Distance},
		rotation: math.QuatIdentity(),
	}
}

// Bind attaches the camera to a subject. The entity and its head are
// resolved together: either both are present and the camera becomes ready,
// or the camera stays not ready.
func (c *Controller) Bind(s Subject) error {
	if s == nil || c.tracer == nil {
		return ErrSubjectIncomplete
	}
	ent := s.Entity()
	if ent == nil || ent.Head == nil {
		return ErrSubjectIncomplete
	}

	c.subject = s
	c.ready = true
	c.state.LookAngles = math.Angles{
		Pitch: ent.Head.Rotation.Angles().Pitch,
		Yaw:   ent.Head.Rotation.Yaw(),
	}.ClampPitch(c.tuning.PitchLimit)
	c.state.CurrentOffset = math.Vec3{}
	c.position = ent.Head.Position
	c.rotation = c.state.LookAngles.Quat()

	c.log.Info("bound", zap.String("subject", ent.Name), zap.Stringer("role", ent.Role))
	return nil
}

// Unbind detaches the camera.
func (c *Controller) Unbind() {
	c.subject = nil
	c.ready = false
}

// Ready reports whether the camera is bound.
func (c *Controller) Ready() bool {
	return c.ready
}

// State returns a copy of the camera state.
func (c *Controller) State() State {
	return c.state
}

// Position returns the camera position from the last frame.
func (c *Controller) Position() math.Vec3 {
	return c.position
}

// Rotation returns the camera rotation from the last frame.
func (c *Controller) Rotation() math.Quat {
	return c.rotation
}

// SetTuning replaces the tuning values, for hot reload. The current
// distance is kept.
func (c *Controller) SetTuning(t config.CameraConfig) {
	c.tuning = t
	c.state.LookAngles = c.state.LookAngles.ClampPitch(t.PitchLimit)
	c.state.Distance = math.Clamp(c.state.Distance, 0, t.MaxDistance)
}

// Frame applies pointer look and zoom and places the camera. It is a no-op
// while not ready, for a proxy subject, or if the head has gone away.
func (c *Controller) Frame(dt float32, in input.Frame) {
	if !c.ready {
		return
	}
	ent := c.subject.Entity()
	if ent == nil || ent.Head == nil || ent.IsProxy() {
		return
	}

	if in.Zoom != 0 {
		c.HandleZoom(in.Zoom)
	}
	c.look(ent, in.LookDelta)

	target := math.Vec3{}
	if c.subject.IsDucking() {
		target = math.Down.Scale(c.tuning.DuckOffset)
	}
	c.state.CurrentOffset = c.state.CurrentOffset.Lerp(target, math.ExpDecay(c.tuning.OffsetRate, dt))

	eye := ent.Head.Position.Add(c.state.CurrentOffset)
	c.rotation = c.state.LookAngles.Quat()

	if c.state.Distance == 0 {
		c.position = eye
		return
	}

	tr := c.tracer.Trace(physics.TraceQuery{
		Start:   eye,
		End:     eye.Sub(c.rotation.Forward().Scale(c.state.Distance)),
		Without: []string{entity.TagPlayer, entity.TagTrigger},
	})
	if tr.Hit {
		c.position = tr.HitPosition.Add(tr.Normal.Scale(c.tuning.CollisionNudge))
	} else {
		c.position = tr.EndPosition
	}
}

// look turns the view by a pointer delta and writes it to the head.
func (c *Controller) look(ent *entity.Entity, delta math.Vec2) {
	a := c.state.LookAngles
	a.Pitch += delta.Y * c.tuning.Sensitivity
	a.Yaw -= delta.X * c.tuning.Sensitivity
	a.Roll = 0
	c.state.LookAngles = a.ClampPitch(c.tuning.PitchLimit).WrapYaw()

	ent.Head.Rotation = c.state.LookAngles.Quat()
}

// HandleZoom changes the orbit distance by wheel steps, positive zooming in.
// Zooming in closer than MinDistance snaps to first person; zooming out of
// first person starts at MinDistance.
func (c *Controller) HandleZoom(delta float32) {
	d := c.state.Distance
	if d == 0 {
		if delta < 0 {
			c.state.Distance = math.Clamp(c.tuning.MinDistance, 0, c.tuning.MaxDistance)
		}
		return
	}

	d -= delta * d * c.tuning.ZoomSensitivity
	if d < c.tuning.MinDistance && delta > 0 {
		d = 0
	}
	c.state.Distance = math.Clamp(d, 0, c.tuning.MaxDistance)
}

// ViewMatrix returns the view matrix for the current camera transform.
func (c *Controller) ViewMatrix() math.Mat4 {
	return math.LookAt(c.position, c.position.Add(c.rotation.Forward()), math.Up)
}

// Projection returns the perspective projection for the configured FOV.
func (c *Controller) Projection(aspect float32) math.Mat4 {
	return math.Perspective(math.Radians(c.tuning.FOV), aspect, NearPlane, FarPlane)
}

// InView reports whether p lies inside the view frustum.
func (c *Controller) InView(p math.Vec3, aspect float32) bool {
	x, y, z, w := c.Projection(aspect).Mul(c.ViewMatrix()).Homogeneous(p)
	return w > 0 &&
		-w <= x && x <= w &&
		-w <= y && y <= w &&
		-w <= z && z <= w
}
