// Package entity implements the identity, ownership and transform data shared
// by every simulated character.
package entity

import (
	"github.com/google/uuid"

	"github.com/BDubz420/DubzRP/pkg/math"
)

// ID is a network-wide character identity.
type ID = uuid.UUID

// NewID returns a fresh random identity.
func NewID() ID {
	return uuid.New()
}

// Role says whether this participant controls the entity.
type Role uint8

const (
	// RoleOwner is the single authority allowed to mutate the entity.
	RoleOwner Role = iota
	// RoleProxy is a read-only view rendered from replicated state.
	RoleProxy
)

// String returns "owner" or "proxy".
func (r Role) String() string {
	if r == RoleOwner {
		return "owner"
	}
	return "proxy"
}

// Tag names used by traces and external systems.
const (
	TagPlayer  = "player"  // Excluded from the entity's own traces
	TagTrigger = "trigger" // Trigger volumes, ignored by the camera
	TagNoInput = "NoInput" // Suppresses input processing and movement
)

// Transform is a world-space position and rotation.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
}

// NewTransform returns a transform at pos with no rotation.
func NewTransform(pos math.Vec3) *Transform {
	return &Transform{Position: pos, Rotation: math.QuatIdentity()}
}

// Entity is a networked character.
type Entity struct {
	ID   ID
	Name string
	Role Role

	// Root is the character's feet, Head the eye bone, Body the visual rig.
	Root *Transform
	Head *Transform
	Body *Transform

	tags map[string]struct{}
}

// New creates an entity with its head placed eyeHeight above pos.
func New(id ID, name string, role Role, pos math.Vec3, eyeHeight float32) *Entity {
	return &Entity{
		ID:   id,
		Name: name,
		Role: role,
		Root: NewTransform(pos),
		Head: NewTransform(pos.Add(math.Up.Scale(eyeHeight))),
		Body: NewTransform(pos),
		tags: map[string]struct{}{TagPlayer: {}},
	}
}

// IsProxy reports whether this participant only observes the entity.
func (e *Entity) IsProxy() bool {
	return e.Role != RoleOwner
}

// HasTag reports whether the tag is set.
func (e *Entity) HasTag(tag string) bool {
	_, ok := e.tags[tag]
	return ok
}

// AddTag sets a tag.
func (e *Entity) AddTag(tag string) {
	if e.tags == nil {
		e.tags = make(map[string]struct{})
	}
	e.tags[tag] = struct{}{}
}

// RemoveTag clears a tag.
func (e *Entity) RemoveTag(tag string) {
	delete(e.tags, tag)
}
