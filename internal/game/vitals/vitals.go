// Package vitals tracks per-character health, armor and connection state.
package vitals

import (
	"time"

	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/internal/logger"
	"github.com/BDubz420/DubzRP/internal/network/replication"
)

// Defaults for a freshly spawned character.
const (
	DefaultMaxHealth = 100
	DefaultMaxArmor  = 100
)

// Stats is the replicated vitals state.
type Stats struct {
	Name         string  `codec:"n"`
	Health       float32 `codec:"h"`
	MaxHealth    float32 `codec:"mh"`
	Armor        int     `codec:"a"`
	MaxArmor     float32 `codec:"ma"`
	Ping         int     `codec:"p"`
	Disconnected bool    `codec:"dc"`
}

// Vitals owns one character's Stats.
type Vitals struct {
	ent   *entity.Entity
	stats Stats
	log   *zap.Logger

	respawnDelay float32
	respawnLeft  float32

	last   Stats
	synced bool
}

// New creates vitals at full health with no armor.
func New(ent *entity.Entity, respawnDelay time.Duration) *Vitals {
	return &Vitals{
		ent: ent,
		stats: Stats{
			Name:      ent.Name,
			Health:    DefaultMaxHealth,
			MaxHealth: DefaultMaxHealth,
			MaxArmor:  DefaultMaxArmor,
		},
		log:          logger.Named("vitals").With(zap.String("player", ent.Name)),
		respawnDelay: float32(respawnDelay.Seconds()),
	}
}

// Stats returns a copy of the current stats.
func (v *Vitals) Stats() Stats {
	return v.stats
}

// Respawning reports whether the character is waiting out its respawn delay.
func (v *Vitals) Respawning() bool {
	return v.respawnLeft > 0
}

// SetRespawnDelay changes the delay used by the next death.
func (v *Vitals) SetRespawnDelay(d time.Duration) {
	v.respawnDelay = float32(d.Seconds())
}

// SetArmor sets armor, clamped to [0, MaxArmor].
func (v *Vitals) SetArmor(armor int) error {
	if err := replication.RequireOwner(v.ent.Role); err != nil {
		return err
	}
	switch {
	case armor < 0:
		armor = 0
	case float32(armor) > v.stats.MaxArmor:
		armor = int(v.stats.MaxArmor)
	}
	v.stats.Armor = armor
	return nil
}

// TakeDamage absorbs damage with armor first, then health. Armor only
// absorbs whole points. Reports whether the hit was fatal; a fatal hit
// restores health, clears armor and locks input for the respawn delay.
func (v *Vitals) TakeDamage(damage float32) (bool, error) {
	if err := replication.RequireOwner(v.ent.Role); err != nil {
		return false, err
	}
	if damage <= 0 {
		return false, nil
	}

	remaining := damage
	if v.stats.Armor > 0 {
		if float32(v.stats.Armor) >= remaining {
			v.stats.Armor -= int(remaining)
			remaining = 0
		} else {
			remaining -= float32(v.stats.Armor)
			v.stats.Armor = 0
		}
	}

	v.stats.Health -= remaining
	if v.stats.Health > 0 {
		return false, nil
	}

	v.die()
	return true, nil
}

func (v *Vitals) die() {
	v.log.Info("died")

	v.stats.Health = v.stats.MaxHealth
	v.stats.Armor = 0

	if v.respawnDelay > 0 {
		v.respawnLeft = v.respawnDelay
		v.ent.AddTag(entity.TagNoInput)
	}
}

// Tick counts down the respawn delay and releases input when it ends.
func (v *Vitals) Tick(dt float32) {
	if v.respawnLeft <= 0 {
		return
	}
	v.respawnLeft -= dt
	if v.respawnLeft <= 0 {
		v.respawnLeft = 0
		v.ent.RemoveTag(entity.TagNoInput)
		v.log.Info("respawned")
	}
}

// SetConnected marks the player connected under name.
func (v *Vitals) SetConnected(name string) {
	v.stats.Name = name
	v.stats.Disconnected = false
}

// SetDisconnected marks the player disconnected.
func (v *Vitals) SetDisconnected() {
	v.stats.Disconnected = true
}

// SetPing records the measured round trip in milliseconds.
func (v *Vitals) SetPing(ms int) {
	v.stats.Ping = ms
}

// Delta returns the encoded stats and whether they changed since the
// previous call.
func (v *Vitals) Delta() ([]byte, bool, error) {
	if v.synced && v.stats == v.last {
		return nil, false, nil
	}
	data, err := replication.Encode(v.stats)
	if err != nil {
		return nil, false, err
	}
	v.last, v.synced = v.stats, true
	return data, true, nil
}

// Apply writes replicated stats to a proxy.
func (v *Vitals) Apply(data []byte) error {
	if err := replication.RequireProxy(v.ent.Role); err != nil {
		return err
	}
	var s Stats
	if err := replication.Decode(data, &s); err != nil {
		return err
	}
	v.stats = s
	return nil
}
