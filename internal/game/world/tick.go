package world

import (
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/engine/character"
	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/internal/game/movement"
	"github.com/BDubz420/DubzRP/internal/network/replication"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// spawnInfo is the payload of a spawn announcement.
type spawnInfo struct {
	Name     string    `codec:"n"`
	Position math.Vec3 `codec:"p"`
}

// Frame runs the variable-rate update: camera look, input sampling and
// crouch transitions for owned characters, replicated state for proxies,
// then presentation for everyone. The frame's held actions are kept for the
// following ticks.
func (s *Session) Frame(dt float32, in input.Frame) {
	s.input = in
	s.camera.Frame(dt, in)

	s.each(Owned, func(ch *Character) {
		ch.Movement.Frame(dt, in)
		for _, e := range ch.Movement.DrainEvents() {
			s.raise(e)
		}
	})

	s.receive()

	CharacterComponent.Each(s.ecs, func(entry *donburi.Entry) {
		ch := CharacterComponent.Get(entry)
		st := ch.Movement.State()
		ch.Presenter.Frame(dt, character.Motion{
			TargetHeading: st.TargetHeading,
			IsDucking:     st.IsDucking,
			WishVelocity:  ch.Movement.WishVelocity(),
			Velocity:      ch.Body.Velocity(),
			OnGround:      ch.Movement.IsOnGround(),
		})
	})
}

// Tick runs one fixed step for every owned character and publishes what
// changed.
func (s *Session) Tick(dt float32) {
	s.ticks++
	if rate := s.cfg.Simulation.TickRate; rate > 0 && s.ticks%rate == 0 {
		s.announceDue = true
	}
	announce := s.announceDue
	s.announceDue = false

	s.each(Owned, func(ch *Character) {
		ch.Movement.Tick(dt, s.input)
		ch.Vitals.Tick(dt)
		s.touchVolumes(ch, dt)
		s.sync(ch, announce)
	})
}

// touchVolumes applies every volume the character's body overlaps. A
// respawning character is left alone.
func (s *Session) touchVolumes(ch *Character, dt float32) {
	if ch.Vitals.Respawning() {
		return
	}
	bounds := ch.Body.Bounds()
	for _, v := range s.volumes {
		if !bounds.Overlaps(v.Bounds) {
			continue
		}
		if v.Armor > ch.Vitals.Stats().Armor {
			if err := ch.Vitals.SetArmor(v.Armor); err != nil {
				s.log.Warn("armor volume", zap.Error(err))
			}
		}
		if v.Damage > 0 {
			died, err := ch.Vitals.TakeDamage(v.Damage * dt)
			if err != nil {
				s.log.Warn("damage volume", zap.Error(err))
				continue
			}
			if died {
				s.log.Info("killed by volume", zap.String("name", ch.Entity.Name))
				return
			}
		}
	}
}

// raise delivers an event locally and to every other participant.
func (s *Session) raise(e replication.Event) {
	s.deliver(e)
	if s.hub != nil {
		s.hub.Broadcast(s.peer, e)
	}
}

func (s *Session) deliver(e replication.Event) {
	ch := s.Character(e.Entity)
	if ch == nil {
		return
	}
	switch e.Kind {
	case replication.EventJump:
		ch.Presenter.TriggerJump()
	}
}

// sync publishes an owned character's state. Movement and vitals go out
// when they change; announce forces a full resend so late joiners catch up.
func (s *Session) sync(ch *Character, announce bool) {
	if s.hub == nil {
		return
	}

	if announce {
		payload, err := replication.Encode(spawnInfo{Name: ch.Entity.Name, Position: ch.Body.Position()})
		if err != nil {
			s.log.Error("encoding spawn", zap.Error(err))
		} else {
			s.publish(ch, replication.ChannelSpawn, payload)
		}
	}

	if d, changed := ch.Movement.Delta(); changed || announce {
		payload, err := d.Encode()
		if err != nil {
			s.log.Error("encoding movement", zap.Error(err))
		} else {
			s.publish(ch, replication.ChannelMovement, payload)
		}
	}

	payload, changed, err := ch.Vitals.Delta()
	switch {
	case err != nil:
		s.log.Error("encoding vitals", zap.Error(err))
	case changed:
		s.publish(ch, replication.ChannelVitals, payload)
	case announce:
		if payload, err = replication.Encode(ch.Vitals.Stats()); err == nil {
			s.publish(ch, replication.ChannelVitals, payload)
		}
	}
}

func (s *Session) publish(ch *Character, channel replication.Channel, payload []byte) {
	if s.hub == nil {
		return
	}
	ch.seq++
	s.hub.Publish(s.peer, replication.Update{
		Entity:  ch.Entity.ID,
		Channel: channel,
		Seq:     ch.seq,
		Payload: payload,
	})
}

// receive applies every pending update and event from the hub.
func (s *Session) receive() {
	if s.peer == nil {
		return
	}

	for _, u := range s.peer.Updates() {
		if err := s.apply(u); err != nil {
			s.log.Warn("dropping update",
				zap.Stringer("entity", u.Entity),
				zap.Uint8("channel", uint8(u.Channel)),
				zap.Error(err),
			)
		}
	}
	for _, e := range s.peer.Events() {
		s.deliver(e)
	}
}

func (s *Session) apply(u replication.Update) error {
	if _, removed := s.gone[u.Entity]; removed {
		return nil
	}
	ch := s.Character(u.Entity)

	switch u.Channel {
	case replication.ChannelSpawn:
		if ch != nil {
			return nil
		}
		var info spawnInfo
		if err := replication.Decode(u.Payload, &info); err != nil {
			return err
		}
		_, err := s.create(u.Entity, info.Name, entity.RoleProxy, info.Position)
		return err

	case replication.ChannelDespawn:
		if ch == nil {
			return nil
		}
		if err := replication.RequireProxy(ch.Entity.Role); err != nil {
			return err
		}
		return s.Remove(u.Entity)
	}

	// State for a character we have not seen spawn yet waits for the next
	// announcement.
	if ch == nil {
		return nil
	}

	switch u.Channel {
	case replication.ChannelMovement:
		d, err := movement.DecodeDelta(u.Payload)
		if err != nil {
			return err
		}
		return ch.Movement.Apply(d)
	case replication.ChannelVitals:
		return ch.Vitals.Apply(u.Payload)
	}
	return nil
}
