// Package character presents simulated characters: it turns the body toward
// the movement heading and feeds an animation sink every frame.
package character

import (
	"github.com/BDubz420/DubzRP/pkg/math"
)

// RenderMode controls how the body model is drawn.
type RenderMode uint8

const (
	RenderOn          RenderMode = iota // Visible with shadows
	RenderShadowsOnly                   // Invisible, still casts shadows
)

// String returns the mode name used in logs.
func (m RenderMode) String() string {
	if m == RenderShadowsOnly {
		return "shadows_only"
	}
	return "on"
}

// MoveStyle selects the locomotion animation set.
type MoveStyle uint8

const (
	MoveStyleWalk MoveStyle = iota
	MoveStyleRun
)

// AnimParams is the per-frame input to an animation graph.
type AnimParams struct {
	WishVelocity math.Vec3
	Velocity     math.Vec3
	AimRotation  math.Quat
	IsGrounded   bool

	LookDirection math.Vec3
	EyesWeight    float32
	HeadWeight    float32
	BodyWeight    float32

	MoveStyle  MoveStyle
	DuckLevel  float32 // 0 standing, 1 ducking
	BodyRender RenderMode
}

// AnimationSink receives animation parameters. Implemented by the renderer's
// animation graph; the presenter never reads anything back.
type AnimationSink interface {
	Update(p AnimParams)
	TriggerJump()
}

// Motion is the movement state a presenter reads each frame.
type Motion struct {
	TargetHeading math.Angles
	IsDucking     bool
	WishVelocity  math.Vec3
	Velocity      math.Vec3
	OnGround      bool
}
