// Package world runs a simulation session: it owns every character on this
// participant, drives the fixed tick and the per-frame update, and carries
// state across the replication hub.
package world

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/config"
	"github.com/BDubz420/DubzRP/internal/engine/camera"
	"github.com/BDubz420/DubzRP/internal/engine/character"
	"github.com/BDubz420/DubzRP/internal/engine/input"
	"github.com/BDubz420/DubzRP/internal/engine/physics"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/internal/game/movement"
	"github.com/BDubz420/DubzRP/internal/game/vitals"
	"github.com/BDubz420/DubzRP/internal/logger"
	"github.com/BDubz420/DubzRP/internal/network/replication"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// ErrMissingWorld is returned when a session is created without a physics world.
var ErrMissingWorld = errors.New("world: missing physics world")

// ErrUnknownCharacter is returned for operations on an id the session does not hold.
var ErrUnknownCharacter = errors.New("world: unknown character")

// Character is everything the session holds for one character.
type Character struct {
	Entity    *entity.Entity
	Body      *physics.CharacterBody
	Movement  *movement.Controller
	Presenter *character.Presenter
	Vitals    *vitals.Vitals

	seq     uint32
	spawned uint64
}

var (
	// CharacterComponent stores a Character on a donburi entity.
	CharacterComponent = donburi.NewComponentType[Character]()

	// Owned marks characters simulated by this session.
	Owned = donburi.NewTag().SetName("Owned")
	// Proxy marks characters mirrored from another participant.
	Proxy = donburi.NewTag().SetName("Proxy")
)

// SinkFactory creates the animation sink for a newly spawned character.
type SinkFactory func(ent *entity.Entity) character.AnimationSink

// Options configures a session.
type Options struct {
	// Hub carries replication. Nil runs the session offline.
	Hub *replication.Hub
	// Sinks creates animation sinks. Nil discards animation output.
	Sinks SinkFactory
	// Volumes hurt or equip owned characters standing inside them.
	Volumes []Volume
}

// Session is one participant's simulation.
type Session struct {
	name    string
	cfg     *config.Config
	ecs     donburi.World
	physics *physics.World
	camera  *camera.Controller
	sinks   SinkFactory
	log     *zap.Logger

	hub  *replication.Hub
	peer *replication.Participant

	index   map[entity.ID]donburi.Entity
	gone    map[entity.ID]struct{}
	local   entity.ID
	spawned uint64
	volumes []Volume

	input       input.Frame
	ticks       int
	announceDue bool
}

// NewSession creates a session simulating against phys.
func NewSession(name string, cfg *config.Config, phys *physics.World, opts Options) (*Session, error) {
	if phys == nil {
		return nil, ErrMissingWorld
	}
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Session{
		name:    name,
		cfg:     cfg,
		ecs:     donburi.NewWorld(),
		physics: phys,
		camera:  camera.New(phys, cfg.Camera),
		sinks:   opts.Sinks,
		log:     logger.Named("session").With(zap.String("session", name)),
		hub:     opts.Hub,
		index:   make(map[entity.ID]donburi.Entity),
		gone:    make(map[entity.ID]struct{}),
		volumes: opts.Volumes,
	}
	if s.hub != nil {
		s.peer = s.hub.Join(name)
	}
	return s, nil
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// Camera returns the session's camera.
func (s *Session) Camera() *camera.Controller { return s.camera }

// Physics returns the physics world.
func (s *Session) Physics() *physics.World { return s.physics }

// Spawn creates a character owned by this session at pos. The first owned
// character becomes the camera subject.
func (s *Session) Spawn(name string, pos math.Vec3) (*Character, error) {
	ch, err := s.create(entity.NewID(), name, entity.RoleOwner, pos)
	if err != nil {
		return nil, err
	}

	if !s.camera.Ready() {
		if err := s.camera.Bind(ch.Movement); err != nil {
			return nil, fmt.Errorf("binding camera to %s: %w", name, err)
		}
		s.local = ch.Entity.ID
	}

	s.announceDue = true
	return ch, nil
}

func (s *Session) create(id entity.ID, name string, role entity.Role, pos math.Vec3) (*Character, error) {
	if _, exists := s.index[id]; exists {
		return nil, fmt.Errorf("spawning %s: character %s already exists", name, id)
	}

	mv := s.cfg.Movement
	ent := entity.New(id, name, role, pos, mv.StandingHeight)
	body := s.physics.NewBody(pos, physics.BodyConfig{
		Radius:       s.cfg.Body.Radius,
		Height:       mv.StandingHeight,
		Acceleration: s.cfg.Body.Acceleration,
		StopSpeed:    s.cfg.Body.StopSpeed,
		GroundProbe:  s.cfg.Body.GroundProbe,
		Passable:     []string{entity.TagTrigger},
	}, entity.TagPlayer)

	ctrl, err := movement.New(ent, body, s.physics, movement.TuningFrom(s.cfg))
	if err != nil {
		s.physics.RemoveBody(body)
		return nil, fmt.Errorf("spawning %s: %w", name, err)
	}

	var sink character.AnimationSink
	if s.sinks != nil {
		sink = s.sinks(ent)
	}

	tag := Owned
	if role == entity.RoleProxy {
		tag = Proxy
	}
	s.spawned++
	e := s.ecs.Create(CharacterComponent, tag)
	CharacterComponent.Set(s.ecs.Entry(e), &Character{
		Entity:    ent,
		Body:      body,
		Movement:  ctrl,
		Presenter: character.NewPresenter(ent, sink, s.cfg.Presentation),
		Vitals:    vitals.New(ent, s.cfg.Simulation.RespawnDelay),
		spawned:   s.spawned,
	})
	s.index[id] = e

	s.log.Info("spawned",
		zap.String("name", name),
		zap.Stringer("id", id),
		zap.Stringer("role", role),
	)
	return s.Character(id), nil
}

// Character returns the character with id, or nil.
func (s *Session) Character(id entity.ID) *Character {
	e, ok := s.index[id]
	if !ok || !s.ecs.Valid(e) {
		return nil
	}
	return CharacterComponent.Get(s.ecs.Entry(e))
}

// Local returns the character the camera follows, or nil.
func (s *Session) Local() *Character {
	if !s.camera.Ready() {
		return nil
	}
	return s.Character(s.local)
}

// Characters returns every character in spawn order.
func (s *Session) Characters() []*Character {
	out := make([]*Character, 0, len(s.index))
	CharacterComponent.Each(s.ecs, func(entry *donburi.Entry) {
		out = append(out, CharacterComponent.Get(entry))
	})
	sort.Slice(out, func(i, j int) bool { return out[i].spawned < out[j].spawned })
	return out
}

// each runs fn for every character carrying tag.
func (s *Session) each(tag *donburi.ComponentType[donburi.Tag], fn func(ch *Character)) {
	tag.Each(s.ecs, func(entry *donburi.Entry) {
		fn(CharacterComponent.Get(entry))
	})
}

// Remove despawns a character. Removing an owned character tells observers.
func (s *Session) Remove(id entity.ID) error {
	ch := s.Character(id)
	if ch == nil {
		return fmt.Errorf("removing %s: %w", id, ErrUnknownCharacter)
	}

	if !ch.Entity.IsProxy() {
		ch.Vitals.SetDisconnected()
		s.publish(ch, replication.ChannelDespawn, nil)
	}
	if s.local == id {
		s.camera.Unbind()
		s.local = entity.ID{}
	}

	s.physics.RemoveBody(ch.Body)
	s.ecs.Remove(s.index[id])
	delete(s.index, id)
	s.gone[id] = struct{}{}

	s.log.Info("removed", zap.String("name", ch.Entity.Name), zap.Stringer("id", id))
	return nil
}

// Close removes every character and leaves the hub.
func (s *Session) Close() {
	for _, ch := range s.Characters() {
		if err := s.Remove(ch.Entity.ID); err != nil {
			s.log.Warn("close", zap.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.Leave(s.peer)
	}
}

// SetPing records the measured round trip on every owned character.
func (s *Session) SetPing(rtt time.Duration) {
	s.each(Owned, func(ch *Character) {
		ch.Vitals.SetPing(int(rtt.Milliseconds()))
	})
}

// ApplyConfig pushes new tuning values to every character and the camera.
func (s *Session) ApplyConfig(cfg *config.Config) {
	s.cfg = cfg
	tuning := movement.TuningFrom(cfg)
	for _, ch := range s.Characters() {
		ch.Movement.SetTuning(tuning)
		ch.Presenter.SetTuning(cfg.Presentation)
		ch.Vitals.SetRespawnDelay(cfg.Simulation.RespawnDelay)
	}
	s.camera.SetTuning(cfg.Camera)
	s.log.Info("tuning applied")
}
