package physics

import (
	"github.com/BDubz420/DubzRP/pkg/math"
)

// Solid is a static collider.
type Solid struct {
	Bounds AABB
	Tags   []string
}

// World is a collection of static boxes and character bodies. It implements
// Tracer; sphere sweeps are approximated by expanding each box by the radius.
type World struct {
	solids []Solid
	bodies []*CharacterBody
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{}
}

// AddSolid adds a static box.
func (w *World) AddSolid(min, max math.Vec3, tags ...string) {
	w.solids = append(w.solids, Solid{Bounds: AABB{Min: min, Max: max}, Tags: tags})
}

// Solids returns the static boxes.
func (w *World) Solids() []Solid {
	return w.solids
}

// RemoveBody stops tracing against b.
func (w *World) RemoveBody(b *CharacterBody) {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// Trace returns the first contact along the query segment.
func (w *World) Trace(q TraceQuery) TraceResult {
	best := float32(2)
	var normal math.Vec3

	test := func(b AABB, tags []string) {
		if excluded(tags, q.Without) {
			return
		}
		if t, n, ok := sweep(q.Start, q.End, b.Expand(q.Radius)); ok && t < best {
			best, normal = t, n
		}
	}
	for _, s := range w.solids {
		test(s.Bounds, s.Tags)
	}
	for _, b := range w.bodies {
		test(b.Bounds(), b.tags)
	}

	if best > 1 {
		return TraceResult{EndPosition: q.End}
	}
	hit := q.Start.Lerp(q.End, best)
	return TraceResult{Hit: true, HitPosition: hit, Normal: normal, EndPosition: hit}
}

func excluded(tags, without []string) bool {
	for _, t := range tags {
		for _, w := range without {
			if t == w {
				return true
			}
		}
	}
	return false
}

// sweep intersects the segment start->end with box using the slab method.
// It returns the entry fraction and the face normal. A segment starting
// inside the box hits at 0 with the normal opposing the motion.
func sweep(start, end math.Vec3, box AABB) (float32, math.Vec3, bool) {
	dir := end.Sub(start)
	tEnter, tExit := float32(-1e30), float32(1e30)
	enterAxis := -1

	for i := 0; i < 3; i++ {
		s, d := axis(start, i), axis(dir, i)
		lo, hi := axis(box.Min, i), axis(box.Max, i)
		if d == 0 {
			if s <= lo || s >= hi {
				return 0, math.Vec3{}, false
			}
			continue
		}
		t1, t2 := (lo-s)/d, (hi-s)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter, enterAxis = t1, i
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return 0, math.Vec3{}, false
		}
	}

	if tExit < 0 || tEnter > 1 {
		return 0, math.Vec3{}, false
	}
	if tEnter < 0 || enterAxis < 0 {
		return 0, dir.Normalize().Neg(), true
	}

	var n math.Vec3
	if axis(dir, enterAxis) > 0 {
		setAxis(&n, enterAxis, -1)
	} else {
		setAxis(&n, enterAxis, 1)
	}
	return tEnter, n, true
}
