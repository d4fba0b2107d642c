package physics

import (
	"github.com/BDubz420/DubzRP/pkg/math"
)

// contactSkin keeps resolved bodies from resting exactly on a face.
const contactSkin = 0.01

// DefaultPassable lists the solid tags a body moves through when its config
// names none.
var DefaultPassable = []string{"trigger"}

// BodyConfig tunes a CharacterBody.
type BodyConfig struct {
	Radius       float32
	Height       float32
	Acceleration float32
	StopSpeed    float32
	GroundProbe  float32
	// Passable solids never block the body. Nil means DefaultPassable.
	Passable []string
}

// CharacterBody is a box-shaped character collider that resolves movement
// one axis at a time against the world's solids.
type CharacterBody struct {
	world    *World
	cfg      BodyConfig
	pos      math.Vec3
	vel      math.Vec3
	onGround bool
	tags     []string
}

// NewBody creates a body at pos (feet) and registers it with the world so
// traces can hit it unless they exclude one of its tags.
func (w *World) NewBody(pos math.Vec3, cfg BodyConfig, tags ...string) *CharacterBody {
	if cfg.Passable == nil {
		cfg.Passable = DefaultPassable
	}
	b := &CharacterBody{world: w, cfg: cfg, pos: pos, tags: tags}
	w.bodies = append(w.bodies, b)
	b.categorize()
	return b
}

// Position returns the feet position.
func (b *CharacterBody) Position() math.Vec3 { return b.pos }

// Velocity returns the current velocity.
func (b *CharacterBody) Velocity() math.Vec3 { return b.vel }

// SetVelocity replaces the velocity.
func (b *CharacterBody) SetVelocity(v math.Vec3) { b.vel = v }

// IsOnGround reports whether the last move or probe found ground.
func (b *CharacterBody) IsOnGround() bool { return b.onGround }

// Radius returns the half width of the box.
func (b *CharacterBody) Radius() float32 { return b.cfg.Radius }

// Height returns the box height above the feet.
func (b *CharacterBody) Height() float32 { return b.cfg.Height }

// SetHeight resizes the box upward from the feet.
func (b *CharacterBody) SetHeight(h float32) { b.cfg.Height = h }

// SetPosition teleports the body.
func (b *CharacterBody) SetPosition(p math.Vec3) {
	b.pos = p
	b.categorize()
}

// Bounds returns the body's current box.
func (b *CharacterBody) Bounds() AABB {
	r := b.cfg.Radius
	return AABB{
		Min: math.Vec3{X: b.pos.X - r, Y: b.pos.Y, Z: b.pos.Z - r},
		Max: math.Vec3{X: b.pos.X + r, Y: b.pos.Y + b.cfg.Height, Z: b.pos.Z + r},
	}
}

// Accelerate adds velocity toward wish, capped so the speed along wish never
// exceeds its length.
func (b *CharacterBody) Accelerate(wish math.Vec3, dt float32) {
	wishDir := wish.Normalize()
	wishSpeed := wish.Length()

	addSpeed := wishSpeed - b.vel.Dot(wishDir)
	if addSpeed <= 0 {
		return
	}
	accelSpeed := b.cfg.Acceleration * wishSpeed * dt
	if accelSpeed > addSpeed {
		accelSpeed = addSpeed
	}
	b.vel = b.vel.Add(wishDir.Scale(accelSpeed))
}

// ApplyFriction slows the body. Speeds under StopSpeed lose StopSpeed*factor
// per second so the body comes to rest.
func (b *CharacterBody) ApplyFriction(factor, dt float32) {
	speed := b.vel.Length()
	if speed < 0.01 {
		return
	}
	control := speed
	if speed < b.cfg.StopSpeed {
		control = b.cfg.StopSpeed
	}
	newSpeed := speed - control*dt*factor
	if newSpeed < 0 {
		newSpeed = 0
	}
	if newSpeed != speed {
		b.vel = b.vel.Scale(newSpeed / speed)
	}
}

// Move applies velocity for dt, stopping each axis at the first blocking
// solid, then re-probes the ground.
func (b *CharacterBody) Move(dt float32) {
	delta := b.vel.Scale(dt)
	// Y before X and Z
	for _, i := range [3]int{1, 0, 2} {
		d := axis(delta, i)
		if d == 0 {
			continue
		}
		allowed := b.resolveAxis(i, d)
		setAxis(&b.pos, i, axis(b.pos, i)+allowed)
		if allowed != d {
			setAxis(&b.vel, i, 0)
		}
	}
	b.categorize()
}

// Punch adds impulse to the velocity and leaves the ground.
func (b *CharacterBody) Punch(impulse math.Vec3) {
	b.onGround = false
	b.vel = b.vel.Add(impulse)
}

// categorize probes below the feet and snaps down onto close ground.
func (b *CharacterBody) categorize() {
	if b.vel.Y > 0 {
		b.onGround = false
		return
	}
	probe := -b.cfg.GroundProbe
	allowed := b.resolveAxis(1, probe)
	b.onGround = allowed > probe
	if b.onGround {
		b.pos.Y += allowed
	}
}

// resolveAxis clamps a move of d along axis i so the body stops at the first
// solid it would enter. Passable solids are skipped.
func (b *CharacterBody) resolveAxis(i int, d float32) float32 {
	box := b.Bounds()
	moved := box
	if d > 0 {
		setAxis(&moved.Max, i, axis(moved.Max, i)+d)
	} else {
		setAxis(&moved.Min, i, axis(moved.Min, i)+d)
	}

	allowed := d
	for _, s := range b.world.solids {
		o := s.Bounds
		if excluded(s.Tags, b.cfg.Passable) || !moved.Overlaps(o) {
			continue
		}
		if d > 0 && axis(box.Max, i) <= axis(o.Min, i)+contactSkin {
			if gap := axis(o.Min, i) - axis(box.Max, i); gap < allowed {
				allowed = gap
			}
		}
		if d < 0 && axis(box.Min, i) >= axis(o.Max, i)-contactSkin {
			if gap := axis(o.Max, i) - axis(box.Min, i); gap > allowed {
				allowed = gap
			}
		}
	}
	return allowed
}
