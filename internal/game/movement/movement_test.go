package movement

import (
	"errors"
	stdmath "math"
	"testing"

	"github.com/BDubz420/DubzRP/internal/config"
	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/engine/physics"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/internal/network/replication"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// fakeBody is a collision-free body. It integrates position from velocity
// and keeps whatever ground state it was given unless punched.
type fakeBody struct {
	pos, vel math.Vec3
	onGround bool
	radius   float32
	height   float32

	accel     float32
	stop      float32
	mutated   int
	heights   []float32
	punches   []math.Vec3
	frictions []float32
}

func newFakeBody(onGround bool) *fakeBody {
	return &fakeBody{onGround: onGround, radius: 16, accel: 10, stop: 140}
}

func (b *fakeBody) Position() math.Vec3     { return b.pos }
func (b *fakeBody) Velocity() math.Vec3     { return b.vel }
func (b *fakeBody) SetVelocity(v math.Vec3) { b.mutated++; b.vel = v }
func (b *fakeBody) IsOnGround() bool        { return b.onGround }
func (b *fakeBody) Radius() float32         { return b.radius }
func (b *fakeBody) Height() float32         { return b.height }
func (b *fakeBody) SetHeight(h float32) {
	b.height = h
	b.heights = append(b.heights, h)
}
func (b *fakeBody) SetPosition(p math.Vec3) { b.mutated++; b.pos = p }

func (b *fakeBody) Accelerate(wish math.Vec3, dt float32) {
	b.mutated++
	dir, speed := wish.Normalize(), wish.Length()
	add := speed - b.vel.Dot(dir)
	if add <= 0 {
		return
	}
	step := b.accel * speed * dt
	if step > add {
		step = add
	}
	b.vel = b.vel.Add(dir.Scale(step))
}

func (b *fakeBody) ApplyFriction(factor, dt float32) {
	b.mutated++
	b.frictions = append(b.frictions, factor)
	speed := b.vel.Length()
	if speed < 0.01 {
		return
	}
	control := speed
	if speed < b.stop {
		control = b.stop
	}
	next := speed - control*dt*factor
	if next < 0 {
		next = 0
	}
	b.vel = b.vel.Scale(next / speed)
}

func (b *fakeBody) Move(dt float32) {
	b.mutated++
	b.pos = b.pos.Add(b.vel.Scale(dt))
}

func (b *fakeBody) Punch(impulse math.Vec3) {
	b.mutated++
	b.punches = append(b.punches, impulse)
	b.onGround = false
	b.vel = b.vel.Add(impulse)
}

// fakeTracer returns a fixed hit state and records queries.
type fakeTracer struct {
	hit     bool
	queries []physics.TraceQuery
}

func (t *fakeTracer) Trace(q physics.TraceQuery) physics.TraceResult {
	t.queries = append(t.queries, q)
	if t.hit {
		return physics.TraceResult{Hit: true, HitPosition: q.Start, EndPosition: q.Start}
	}
	return physics.TraceResult{EndPosition: q.End}
}

func testTuning() Tuning {
	return TuningFrom(config.Default())
}

func newController(t *testing.T, role entity.Role, body *fakeBody, tracer *fakeTracer) *Controller {
	t.Helper()
	ent := entity.New(entity.NewID(), "test", role, math.Vec3{}, 64)
	c, err := New(ent, body, tracer, testTuning())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func hold(actions ...input.Action) input.Frame {
	var f input.Frame
	for _, a := range actions {
		f.Down |= a
	}
	return f
}

func approx(a, b float32) bool {
	return stdmath.Abs(float64(a-b)) < 1e-3
}

func TestNewRejectsMissingParts(t *testing.T) {
	ent := entity.New(entity.NewID(), "test", entity.RoleOwner, math.Vec3{}, 64)
	headless := entity.New(entity.NewID(), "headless", entity.RoleOwner, math.Vec3{}, 64)
	headless.Head = nil

	tests := []struct {
		name   string
		ent    *entity.Entity
		body   physics.Body
		tracer physics.Tracer
		want   error
	}{
		{"no entity", nil, newFakeBody(true), &fakeTracer{}, ErrMissingEntity},
		{"no head", headless, newFakeBody(true), &fakeTracer{}, ErrMissingHead},
		{"no body", ent, nil, &fakeTracer{}, ErrMissingBody},
		{"no tracer", ent, newFakeBody(true), nil, ErrMissingTracer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.ent, tt.body, tt.tracer, testTuning()); !errors.Is(err, tt.want) {
				t.Errorf("New error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWishVelocityZeroWithoutInput(t *testing.T) {
	c := newController(t, entity.RoleOwner, newFakeBody(true), &fakeTracer{})
	if got := c.BuildWishVelocity(input.Frame{}); got != (math.Vec3{}) {
		t.Errorf("wish = %v, want zero", got)
	}
	// Opposite directions cancel exactly.
	if got := c.BuildWishVelocity(hold(input.ActionForward, input.ActionBackward)); got.Length() > 1e-3 {
		t.Errorf("forward+backward wish = %v, want zero", got)
	}
}

func TestWishVelocityDirection(t *testing.T) {
	c := newController(t, entity.RoleOwner, newFakeBody(true), &fakeTracer{})
	c.ent.Head.Rotation = math.Angles{Pitch: 60, Yaw: 30}.Quat()

	combos := []input.Frame{
		hold(input.ActionForward),
		hold(input.ActionLeft),
		hold(input.ActionForward, input.ActionRight),
		hold(input.ActionBackward, input.ActionLeft, input.ActionRight),
	}
	for _, f := range combos {
		wish := c.BuildWishVelocity(f)
		if wish.Y != 0 {
			t.Errorf("wish %v has vertical component", wish)
		}
		if dir := wish.Normalize(); !approx(dir.Length(), 1) {
			t.Errorf("wish direction length = %v, want 1", dir.Length())
		}
		if !approx(wish.Length(), c.tuning.Speed) {
			t.Errorf("wish speed = %v, want %v", wish.Length(), c.tuning.Speed)
		}
	}

	// Yaw 90 turns forward to +X.
	c.ent.Head.Rotation = math.Angles{Yaw: 90}.Quat()
	wish := c.BuildWishVelocity(hold(input.ActionForward)).Normalize()
	if !approx(wish.X, 1) || !approx(wish.Z, 0) {
		t.Errorf("forward at yaw 90 = %v, want +X", wish)
	}
}

func TestSpeedPrecedence(t *testing.T) {
	tun := testTuning()
	tests := []struct {
		name  string
		frame input.Frame
		want  float32
	}{
		{"walk", hold(input.ActionForward), tun.Speed},
		{"sprint", hold(input.ActionForward, input.ActionRun), tun.RunSpeed},
		{"duck beats sprint", hold(input.ActionForward, input.ActionRun, input.ActionDuck), tun.DuckSpeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t, entity.RoleOwner, newFakeBody(true), &fakeTracer{})
			f := tt.frame
			if f.IsDown(input.ActionDuck) {
				f.Pressed |= input.ActionDuck
			}
			c.Frame(0.016, f)
			if got := c.BuildWishVelocity(f).Length(); !approx(got, tt.want) {
				t.Errorf("speed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCrouchOnPressEdge(t *testing.T) {
	tracer := &fakeTracer{hit: true}
	body := newFakeBody(true)
	c := newController(t, entity.RoleOwner, body, tracer)

	c.Frame(0.016, input.Frame{Down: input.ActionDuck, Pressed: input.ActionDuck})
	if !c.State().IsDucking {
		t.Fatal("not ducking after press")
	}
	if body.Height() != c.tuning.DuckingHeight {
		t.Errorf("height = %v, want %v", body.Height(), c.tuning.DuckingHeight)
	}
	if len(tracer.queries) != 0 {
		t.Errorf("crouching traced %d times, want 0", len(tracer.queries))
	}
}

func TestNoStandWhileBlocked(t *testing.T) {
	tracer := &fakeTracer{hit: true}
	body := newFakeBody(true)
	c := newController(t, entity.RoleOwner, body, tracer)

	c.Frame(0.016, input.Frame{Down: input.ActionDuck, Pressed: input.ActionDuck})
	for i := 0; i < 10; i++ {
		c.Frame(0.016, input.Frame{})
		if !c.State().IsDucking {
			t.Fatalf("stood up under a blocked ceiling on frame %d", i)
		}
	}
	if body.Height() != c.tuning.DuckingHeight {
		t.Errorf("height = %v, want %v", body.Height(), c.tuning.DuckingHeight)
	}

	q := tracer.queries[0]
	if q.Start.Y != c.tuning.DuckingHeight || q.End.Y != c.tuning.StandingHeight {
		t.Errorf("clearance trace %v -> %v", q.Start, q.End)
	}
	if !approx(q.Radius, body.radius*0.9) {
		t.Errorf("clearance radius = %v, want %v", q.Radius, body.radius*0.9)
	}
	if len(q.Without) != 1 || q.Without[0] != entity.TagPlayer {
		t.Errorf("clearance excludes %v, want [player]", q.Without)
	}

	tracer.hit = false
	c.Frame(0.016, input.Frame{})
	if c.State().IsDucking {
		t.Error("still ducking once clear")
	}
	if body.Height() != c.tuning.StandingHeight {
		t.Errorf("height = %v, want %v", body.Height(), c.tuning.StandingHeight)
	}
}

func TestTapDuckUnderCeilingStaysDucked(t *testing.T) {
	c := newController(t, entity.RoleOwner, newFakeBody(true), &fakeTracer{hit: true})
	c.Frame(0.016, input.Frame{Pressed: input.ActionDuck, Released: input.ActionDuck})
	if !c.State().IsDucking {
		t.Error("tap under ceiling left the character standing")
	}
}

func TestTapDuckInOpenStandsBackUp(t *testing.T) {
	c := newController(t, entity.RoleOwner, newFakeBody(true), &fakeTracer{})
	c.Frame(0.016, input.Frame{Pressed: input.ActionDuck, Released: input.ActionDuck})
	if c.State().IsDucking {
		t.Error("tap in the open left the character ducking")
	}
}

func TestAirborneGravity(t *testing.T) {
	body := newFakeBody(false)
	c := newController(t, entity.RoleOwner, body, &fakeTracer{})
	c.tuning.AirControl = 0

	const dt, ticks = float32(0.02), 25
	for i := 0; i < ticks; i++ {
		c.Tick(dt, input.Frame{})
	}
	want := -c.tuning.Gravity * dt * ticks
	if stdmath.Abs(float64(body.vel.Y-want)) > 0.01 {
		t.Errorf("vertical velocity = %v, want %v", body.vel.Y, want)
	}
}

func TestAirborneWishClamped(t *testing.T) {
	body := newFakeBody(false)
	c := newController(t, entity.RoleOwner, body, &fakeTracer{})
	c.tuning.AirControl = 0

	c.Tick(1, hold(input.ActionForward))
	if h := body.vel.WithY(0).Length(); h > c.tuning.MaxForce+1e-3 {
		t.Errorf("air speed = %v, exceeds max force %v", h, c.tuning.MaxForce)
	}
}

func TestGroundFrictionDecays(t *testing.T) {
	body := newFakeBody(true)
	body.vel = math.Vec3{X: 300}
	c := newController(t, entity.RoleOwner, body, &fakeTracer{})

	prev := body.vel.X
	for i := 0; i < 200; i++ {
		c.Tick(0.02, input.Frame{})
		if body.vel.X < 0 {
			t.Fatalf("velocity reversed on tick %d: %v", i, body.vel.X)
		}
		if body.vel.X > prev {
			t.Fatalf("speed grew on tick %d: %v > %v", i, body.vel.X, prev)
		}
		if body.vel.Y != 0 {
			t.Fatalf("grounded vertical velocity = %v", body.vel.Y)
		}
		prev = body.vel.X
	}
	if prev != 0 {
		t.Errorf("speed after friction = %v, want 0", prev)
	}
	if body.frictions[0] != c.tuning.GroundControl {
		t.Errorf("friction factor = %v, want ground control", body.frictions[0])
	}
}

func TestJumpOnlyWhenGrounded(t *testing.T) {
	body := newFakeBody(true)
	c := newController(t, entity.RoleOwner, body, &fakeTracer{})
	jump := input.Frame{Down: input.ActionJump, Pressed: input.ActionJump}

	c.Frame(0.016, jump)
	if len(body.punches) != 1 || body.punches[0].Y != c.tuning.JumpForce {
		t.Fatalf("punches = %v, want one of %v up", body.punches, c.tuning.JumpForce)
	}
	events := c.DrainEvents()
	if len(events) != 1 || events[0].Kind != replication.EventJump || events[0].Entity != c.ent.ID {
		t.Errorf("events = %+v, want one jump", events)
	}
	if again := c.DrainEvents(); len(again) != 0 {
		t.Errorf("events drained twice: %+v", again)
	}

	// Airborne now.
	c.Frame(0.016, jump)
	if len(body.punches) != 1 {
		t.Errorf("jumped while airborne")
	}
	if got := c.DrainEvents(); len(got) != 0 {
		t.Errorf("airborne jump raised %d events", len(got))
	}
}

func TestTargetHeadingFollowsHeadYaw(t *testing.T) {
	c := newController(t, entity.RoleOwner, newFakeBody(true), &fakeTracer{})
	c.ent.Head.Rotation = math.Angles{Pitch: 40, Yaw: 120}.Quat()
	c.Frame(0.016, input.Frame{})

	h := c.State().TargetHeading
	if h.Pitch != 0 || h.Roll != 0 || !approx(h.Yaw, 120) {
		t.Errorf("target heading = %+v, want yaw 120 only", h)
	}
}

func TestProxyNeverMutates(t *testing.T) {
	body := newFakeBody(true)
	body.vel = math.Vec3{X: 100}
	tracer := &fakeTracer{}
	c := newController(t, entity.RoleProxy, body, tracer)
	before := c.State()
	mutations := body.mutated

	all := input.Frame{
		Down:    input.ActionForward | input.ActionRun | input.ActionDuck | input.ActionJump,
		Pressed: input.ActionDuck | input.ActionJump,
	}
	for i := 0; i < 5; i++ {
		c.Frame(0.016, all)
		c.Tick(0.02, all)
	}

	if c.State() != before {
		t.Errorf("proxy state changed: %+v", c.State())
	}
	if body.mutated != mutations || body.vel.X != 100 {
		t.Errorf("proxy body mutated %d times", body.mutated-mutations)
	}
	if len(tracer.queries) != 0 || len(c.DrainEvents()) != 0 {
		t.Error("proxy traced or raised events")
	}
}

func TestNoInputSuppressesOwner(t *testing.T) {
	body := newFakeBody(true)
	c := newController(t, entity.RoleOwner, body, &fakeTracer{})
	c.ent.AddTag(entity.TagNoInput)
	mutations := body.mutated

	c.Frame(0.016, input.Frame{Down: input.ActionDuck | input.ActionJump, Pressed: input.ActionDuck | input.ActionJump})
	c.Tick(0.02, hold(input.ActionForward))
	if body.mutated != mutations || c.State().IsDucking {
		t.Error("NoInput owner processed input")
	}

	c.ent.RemoveTag(entity.TagNoInput)
	c.Tick(0.02, hold(input.ActionForward))
	if body.vel.Length() == 0 {
		t.Error("owner did not move once NoInput was cleared")
	}
}

func TestTickSyncsHead(t *testing.T) {
	body := newFakeBody(true)
	body.vel = math.Vec3{Z: 200}
	c := newController(t, entity.RoleOwner, body, &fakeTracer{})

	c.Tick(0.1, input.Frame{})
	if c.ent.Root.Position != body.pos {
		t.Errorf("root = %v, want %v", c.ent.Root.Position, body.pos)
	}
	if want := body.pos.Add(math.Up.Scale(64)); c.ent.Head.Position != want {
		t.Errorf("head = %v, want %v", c.ent.Head.Position, want)
	}
}

func TestDeltaReplicatesToProxy(t *testing.T) {
	ownerBody := newFakeBody(true)
	owner := newController(t, entity.RoleOwner, ownerBody, &fakeTracer{hit: true})
	proxyBody := newFakeBody(false)
	proxy := newController(t, entity.RoleProxy, proxyBody, &fakeTracer{})

	owner.ent.Head.Rotation = math.Angles{Yaw: 45}.Quat()
	owner.Frame(0.016, input.Frame{Down: input.ActionDuck | input.ActionRun, Pressed: input.ActionDuck})
	owner.Tick(0.02, hold(input.ActionForward))

	d, changed := owner.Delta()
	if !changed {
		t.Fatal("first delta reported unchanged")
	}
	data, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeDelta(data)
	if err != nil {
		t.Fatalf("DecodeDelta failed: %v", err)
	}
	if err := proxy.Apply(got); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if proxy.State() != owner.State() {
		t.Errorf("proxy state = %+v, want %+v", proxy.State(), owner.State())
	}
	if proxyBody.pos != ownerBody.pos || proxyBody.vel != ownerBody.vel {
		t.Errorf("proxy body = %v/%v, want %v/%v", proxyBody.pos, proxyBody.vel, ownerBody.pos, ownerBody.vel)
	}
	if proxyBody.Height() != owner.tuning.DuckingHeight {
		t.Errorf("proxy height = %v, want ducking", proxyBody.Height())
	}
	if !proxy.IsOnGround() {
		t.Error("proxy grounded flag not replicated")
	}
	if proxy.ent.Head.Rotation != owner.ent.Head.Rotation {
		t.Error("head rotation not replicated")
	}

	if _, changed := owner.Delta(); changed {
		t.Error("unchanged owner reported a change")
	}
}

func TestPartialDeltaLeavesOtherFields(t *testing.T) {
	proxy := newController(t, entity.RoleProxy, newFakeBody(false), &fakeTracer{})
	sprint := true
	if err := proxy.Apply(Delta{IsSprinting: &sprint}); err != nil {
		t.Fatal(err)
	}
	if s := proxy.State(); !s.IsSprinting || s.IsDucking {
		t.Errorf("state = %+v, want sprinting only", s)
	}
}

func TestApplyToOwnerRejected(t *testing.T) {
	owner := newController(t, entity.RoleOwner, newFakeBody(true), &fakeTracer{})
	duck := true
	err := owner.Apply(Delta{IsDucking: &duck})
	if !errors.Is(err, replication.ErrNotAuthority) {
		t.Errorf("Apply to owner = %v, want ErrNotAuthority", err)
	}
	if owner.State().IsDucking {
		t.Error("owner state written by a remote delta")
	}
}
