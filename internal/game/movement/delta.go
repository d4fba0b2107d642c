package movement

import (
	"github.com/BDubz420/DubzRP/internal/engine/physics"
	"github.com/BDubz420/DubzRP/internal/network/replication"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// Delta is a replicated write to a character. Nil fields are left unchanged
// on the receiving side.
type Delta struct {
	IsDucking     *bool        `codec:"d"`
	IsSprinting   *bool        `codec:"s"`
	TargetHeading *math.Angles `codec:"h"`

	// Transform snapshot
	Position     *math.Vec3 `codec:"pos"`
	Velocity     *math.Vec3 `codec:"vel"`
	OnGround     *bool      `codec:"g"`
	HeadRotation *math.Quat `codec:"head"`
}

// Encode serializes the delta for the wire.
func (d Delta) Encode() ([]byte, error) {
	return replication.Encode(d)
}

// DecodeDelta parses a delta received from the wire.
func DecodeDelta(data []byte) (Delta, error) {
	var d Delta
	err := replication.Decode(data, &d)
	return d, err
}

type snapshot struct {
	state    State
	position math.Vec3
	velocity math.Vec3
	onGround bool
	head     math.Quat
}

func (c *Controller) snapshot() snapshot {
	return snapshot{
		state:    c.state,
		position: c.body.Position(),
		velocity: c.body.Velocity(),
		onGround: c.body.IsOnGround(),
		head:     c.ent.Head.Rotation,
	}
}

// Delta returns the owner's full replicated state and whether any of it
// changed since the previous call. Every field is set, so a receiver that
// only keeps the newest delta still ends up with the complete state.
func (c *Controller) Delta() (Delta, bool) {
	s := c.snapshot()
	d := Delta{
		IsDucking:     &s.state.IsDucking,
		IsSprinting:   &s.state.IsSprinting,
		TargetHeading: &s.state.TargetHeading,
		Position:      &s.position,
		Velocity:      &s.velocity,
		OnGround:      &s.onGround,
		HeadRotation:  &s.head,
	}
	changed := !c.synced || s != c.last
	c.last, c.synced = s, true
	return d, changed
}

// Apply writes a replicated delta to a proxy. The owner is the only writer
// of its own state, so applying to it fails with replication.ErrNotAuthority.
func (c *Controller) Apply(d Delta) error {
	if err := replication.RequireProxy(c.ent.Role); err != nil {
		return err
	}

	if d.IsDucking != nil {
		c.state.IsDucking = *d.IsDucking
		c.body.SetHeight(c.height())
	}
	if d.IsSprinting != nil {
		c.state.IsSprinting = *d.IsSprinting
	}
	if d.TargetHeading != nil {
		c.state.TargetHeading = math.Angles{Yaw: d.TargetHeading.Yaw}
	}
	if d.Position != nil {
		if p, ok := c.body.(physics.Positioner); ok {
			p.SetPosition(*d.Position)
		}
	}
	if d.Velocity != nil {
		c.body.SetVelocity(*d.Velocity)
	}
	if d.HeadRotation != nil {
		c.ent.Head.Rotation = *d.HeadRotation
	}
	if d.OnGround != nil {
		c.remoteGrounded = *d.OnGround
	}

	c.syncTransform()
	return nil
}

// IsOnGround reports the grounded flag: the body's own for the owner, the
// replicated one for proxies.
func (c *Controller) IsOnGround() bool {
	if c.ent.IsProxy() {
		return c.remoteGrounded
	}
	return c.body.IsOnGround()
}
