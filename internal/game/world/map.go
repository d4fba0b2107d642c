package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BDubz420/DubzRP/internal/engine/physics"
	"github.com/BDubz420/DubzRP/internal/game/entity"
	"github.com/BDubz420/DubzRP/pkg/math"
)

// Box is an axis-aligned solid in a map file. Boxes tagged trigger do not
// block characters; a trigger with Damage or Armor is a volume that acts on
// the characters inside it.
type Box struct {
	Min    [3]float32 `yaml:"min"`
	Max    [3]float32 `yaml:"max"`
	Tags   []string   `yaml:"tags,omitempty"`
	Damage float32    `yaml:"damage,omitempty"` // Health per second
	Armor  int        `yaml:"armor,omitempty"`  // Armor granted on contact
}

// Volume is a trigger region that hurts or equips characters inside it.
type Volume struct {
	Bounds physics.AABB
	Damage float32
	Armor  int
}

// Map describes the static collision of a level and where characters spawn.
type Map struct {
	Name   string       `yaml:"name"`
	Spawns [][3]float32 `yaml:"spawns"`
	Solids []Box        `yaml:"solids"`
}

// DefaultMap is a walled arena with a low ceiling slab to crouch under, a
// hazard volume and an armor volume.
func DefaultMap() *Map {
	return &Map{
		Name:   "arena",
		Spawns: [][3]float32{{0, 0, 0}, {128, 0, 0}, {-128, 0, 0}},
		Solids: []Box{
			{Min: [3]float32{-1024, -16, -1024}, Max: [3]float32{1024, 0, 1024}},  // Floor
			{Min: [3]float32{-1024, 0, 1024}, Max: [3]float32{1024, 256, 1040}},   // North wall
			{Min: [3]float32{-1024, 0, -1040}, Max: [3]float32{1024, 256, -1024}}, // South wall
			{Min: [3]float32{1024, 0, -1024}, Max: [3]float32{1040, 256, 1024}},   // East wall
			{Min: [3]float32{-1040, 0, -1024}, Max: [3]float32{-1024, 256, 1024}}, // West wall
			{Min: [3]float32{-64, 48, 256}, Max: [3]float32{64, 64, 384}},         // Crawl slab
			{Min: [3]float32{256, 0, 256}, Max: [3]float32{320, 64, 320}},         // Crate
			{Min: [3]float32{-320, 0, 256}, Max: [3]float32{-256, 128, 320}, Tags: []string{"trigger"}, Damage: 25},
			{Min: [3]float32{256, 0, -320}, Max: [3]float32{320, 128, -256}, Tags: []string{"trigger"}, Armor: 50},
		},
	}
}

// LoadMap reads a map from a YAML file.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map %s: %w", path, err)
	}
	m := &Map{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing map %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return m, nil
}

// Validate checks that the map has a spawn point and well-formed solids.
func (m *Map) Validate() error {
	if len(m.Spawns) == 0 {
		return fmt.Errorf("no spawn points")
	}
	for i, b := range m.Solids {
		for axis := 0; axis < 3; axis++ {
			if b.Min[axis] >= b.Max[axis] {
				return fmt.Errorf("solid %d: min %v not below max %v", i, b.Min, b.Max)
			}
		}
		if b.Damage < 0 || b.Armor < 0 {
			return fmt.Errorf("solid %d: negative damage or armor", i)
		}
		if (b.Damage > 0 || b.Armor > 0) && !b.isTrigger() {
			return fmt.Errorf("solid %d: damage and armor need the trigger tag", i)
		}
	}
	return nil
}

// Build creates a physics world holding the map's solids.
func (m *Map) Build() *physics.World {
	w := physics.NewWorld()
	for _, b := range m.Solids {
		w.AddSolid(vec(b.Min), vec(b.Max), b.Tags...)
	}
	return w
}

// Volumes returns the trigger boxes that carry damage or armor.
func (m *Map) Volumes() []Volume {
	var out []Volume
	for _, b := range m.Solids {
		if b.isTrigger() && (b.Damage > 0 || b.Armor > 0) {
			out = append(out, Volume{
				Bounds: physics.AABB{Min: vec(b.Min), Max: vec(b.Max)},
				Damage: b.Damage,
				Armor:  b.Armor,
			})
		}
	}
	return out
}

func (b Box) isTrigger() bool {
	for _, t := range b.Tags {
		if t == entity.TagTrigger {
			return true
		}
	}
	return false
}

// Spawn returns spawn point i, wrapping around the list.
func (m *Map) Spawn(i int) math.Vec3 {
	if len(m.Spawns) == 0 {
		return math.Vec3{}
	}
	if i < 0 {
		i = -i
	}
	return vec(m.Spawns[i%len(m.Spawns)])
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
