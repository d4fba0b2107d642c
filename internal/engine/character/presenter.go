package character

import (
	"github.com/BDubz420/DubzRP/internal/config"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// Presenter drives one character's body rotation and animation.
type Presenter struct {
	ent    *entity.Entity
	sink   AnimationSink
	tuning config.PresentationConfig
}

// NewPresenter creates a presenter. A nil sink discards animation output.
func NewPresenter(ent *entity.Entity, sink AnimationSink, tuning config.PresentationConfig) *Presenter {
	if sink == nil {
		sink = discardSink{}
	}
	return &Presenter{ent: ent, sink: sink, tuning: tuning}
}

// SetTuning replaces the tuning values, for hot reload.
func (p *Presenter) SetTuning(t config.PresentationConfig) {
	p.tuning = t
}

// Frame turns the body and updates the animation sink. Runs for owners and
// proxies alike; an owner carrying NoInput is left untouched.
func (p *Presenter) Frame(dt float32, m Motion) {
	if p.ent.Body == nil || p.ent.Head == nil {
		return
	}
	if !p.ent.IsProxy() && p.ent.HasTag(entity.TagNoInput) {
		return
	}

	p.turnBody(dt, m)
	p.sink.Update(p.params(m))
}

// turnBody blends toward the heading only once the error or the speed is
// large enough, so standing still and looking around leaves the feet planted.
func (p *Presenter) turnBody(dt float32, m Motion) {
	target := m.TargetHeading.Quat()
	current := p.ent.Body.Rotation

	if current.Distance(target) <= p.tuning.TurnThreshold && m.Velocity.Length() <= p.tuning.SpeedThreshold {
		return
	}
	p.ent.Body.Rotation = current.Slerp(target, math.ExpDecay(p.tuning.TurnRate, dt))
}

func (p *Presenter) params(m Motion) AnimParams {
	head := p.ent.Head.Rotation

	params := AnimParams{
		WishVelocity:  m.WishVelocity,
		Velocity:      m.Velocity,
		AimRotation:   head,
		IsGrounded:    m.OnGround,
		LookDirection: head.Forward(),
		EyesWeight:    p.tuning.LookEyes,
		HeadWeight:    p.tuning.LookHead,
		BodyWeight:    p.tuning.LookBody,
		MoveStyle:     MoveStyleRun,
		BodyRender:    RenderOn,
	}
	if m.IsDucking {
		params.DuckLevel = 1
	}
	if !p.ent.IsProxy() {
		params.BodyRender = RenderShadowsOnly
	}
	return params
}

// TriggerJump plays the jump animation. Called when a jump event for this
// character is delivered, on every participant.
func (p *Presenter) TriggerJump() {
	p.sink.TriggerJump()
}

type discardSink struct{}

func (discardSink) Update(AnimParams) {}
func (discardSink) TriggerJump()      {}
