package simworld

import (
	"github.com/golang/geo/r3"

	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

type aabb struct {
	lo, hi r3.Vector
}

func boxAABB(b Box) aabb {
	lo, hi := spatialmath.BoxBounds(b.Pose, b.HalfExtents)
	return aabb{lo, hi}
}

func (a aabb) overlaps(b aabb) bool {
	return a.lo.X < b.hi.X-collisionTolerance && b.lo.X < a.hi.X-collisionTolerance &&
		a.lo.Y < b.hi.Y-collisionTolerance && b.lo.Y < a.hi.Y-collisionTolerance &&
		a.lo.Z < b.hi.Z-collisionTolerance && b.lo.Z < a.hi.Z-collisionTolerance
}

func (a aabb) union(b aabb) aabb {
	return aabb{
		lo: r3.Vector{X: min(a.lo.X, b.lo.X), Y: min(a.lo.Y, b.lo.Y), Z: min(a.lo.Z, b.lo.Z)},
		hi: r3.Vector{X: max(a.hi.X, b.hi.X), Y: max(a.hi.Y, b.hi.Y), Z: max(a.hi.Z, b.hi.Z)},
	}
}

// boxesAt returns the collision boxes of an entity whose body or base pose is pose.
func (e *entity) boxesAt(pose spatialmath.Pose) ([]Box, error) {
	if e.model == nil {
		return []Box{{Pose: pose, HalfExtents: e.halfExtents}}, nil
	}
	local, err := e.model.Geometries(e.inputs)
	if err != nil {
		return nil, err
	}
	boxes := make([]Box, len(local))
	for i, b := range local {
		boxes[i] = Box{Pose: spatialmath.Compose(pose, b.Pose), HalfExtents: b.HalfExtents}
	}
	return boxes, nil
}

func (e *entity) bounds(pose spatialmath.Pose) ([]aabb, error) {
	boxes, err := e.boxesAt(pose)
	if err != nil {
		return nil, err
	}
	bounds := make([]aabb, len(boxes))
	for i, b := range boxes {
		bounds[i] = boxAABB(b)
	}
	return bounds, nil
}

// PairwiseCollision reports whether any collision box of a overlaps any box of b. A body never
// collides with itself.
func (w *World) PairwiseCollision(a, b world.Body) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ea, err := w.entity(a)
	if err != nil {
		return false, err
	}
	eb, err := w.entity(b)
	if err != nil {
		return false, err
	}
	if a == b {
		return false, nil
	}
	boundsA, err := ea.bounds(ea.pose)
	if err != nil {
		return false, err
	}
	boundsB, err := eb.bounds(eb.pose)
	if err != nil {
		return false, err
	}
	for _, ba := range boundsA {
		for _, bb := range boundsB {
			if ba.overlaps(bb) {
				return true, nil
			}
		}
	}
	return false, nil
}
