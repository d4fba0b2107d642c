// Package physics defines the collision queries and character body used by
// the movement and camera code, plus a box-world implementation of both.
package physics

import (
	"github.com/BDubz420/DubzRP/pkg/math"
)

// TraceQuery is a ray (Radius == 0) or sphere sweep from Start to End.
type TraceQuery struct {
	Start   math.Vec3
	End     math.Vec3
	Radius  float32
	Without []string // Colliders carrying any of these tags are ignored
}

// TraceResult describes the first blocking contact of a trace.
type TraceResult struct {
	Hit         bool
	HitPosition math.Vec3
	Normal      math.Vec3
	EndPosition math.Vec3 // HitPosition on a hit, the query End otherwise
}

// Tracer answers collision queries against the world.
type Tracer interface {
	Trace(q TraceQuery) TraceResult
}

// Body is a swept character collider.
type Body interface {
	Position() math.Vec3
	Velocity() math.Vec3
	SetVelocity(v math.Vec3)
	IsOnGround() bool
	Radius() float32
	Height() float32
	SetHeight(h float32)

	// Accelerate adds velocity toward wish, never past its length.
	Accelerate(wish math.Vec3, dt float32)
	// ApplyFriction scales velocity down by factor; it never reverses direction.
	ApplyFriction(factor, dt float32)
	// Move sweeps the body by Velocity()*dt and updates the ground state.
	Move(dt float32)
	// Punch adds an impulse and leaves the ground.
	Punch(impulse math.Vec3)
}

// Positioner is implemented by bodies that can be placed directly, used to
// mirror replicated positions onto proxies.
type Positioner interface {
	SetPosition(p math.Vec3)
}

// AABB is an axis-aligned box.
type AABB struct {
	Min, Max math.Vec3
}

// Expand grows the box by r on every side.
func (b AABB) Expand(r float32) AABB {
	d := math.Vec3{X: r, Y: r, Z: r}
	return AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Overlaps reports whether the boxes intersect with positive volume.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

// Translate returns the box moved by d.
func (b AABB) Translate(d math.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

func axis(v math.Vec3, i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setAxis(v *math.Vec3, i int, f float32) {
	switch i {
	case 0:
		v.X = f
	case 1:
		v.Y = f
	default:
		v.Z = f
	}
}
