package simworld

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/utils"
	"go.viam.com/manipulation/world"
)

// ApproximateAsPrism returns the bounding box of the body as if it were at bodyPose.
func (w *World) ApproximateAsPrism(body world.Body, bodyPose spatialmath.Pose) (world.Prism, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return world.Prism{}, err
	}
	bounds, err := e.bounds(bodyPose)
	if err != nil {
		return world.Prism{}, err
	}
	if len(bounds) == 0 {
		return world.Prism{Center: bodyPose.Point()}, nil
	}
	total := bounds[0]
	for _, b := range bounds[1:] {
		total = total.union(b)
	}
	return world.Prism{
		Center:      total.lo.Add(total.hi).Mul(0.5),
		HalfExtents: total.hi.Sub(total.lo).Mul(0.5),
	}, nil
}

// StableZ returns the z of body's origin when its current orientation rests on top of surface.
func (w *World) StableZ(body, surface world.Body) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return 0, err
	}
	s, err := w.entity(surface)
	if err != nil {
		return 0, err
	}
	return w.stableZ(e, s, e.pose)
}

func (w *World) stableZ(e, surface *entity, pose spatialmath.Pose) (float64, error) {
	top, err := surfaceBounds(surface)
	if err != nil {
		return 0, err
	}
	bounds, err := e.bounds(pose)
	if err != nil {
		return 0, err
	}
	bottom := math.Inf(1)
	for _, b := range bounds {
		bottom = min(bottom, b.lo.Z)
	}
	return top.hi.Z + pose.Point().Z - bottom, nil
}

func surfaceBounds(surface *entity) (aabb, error) {
	bounds, err := surface.bounds(surface.pose)
	if err != nil {
		return aabb{}, err
	}
	if len(bounds) == 0 {
		return aabb{}, errors.Errorf("%s has no geometry to place on", surface.name)
	}
	total := bounds[0]
	for _, b := range bounds[1:] {
		total = total.union(b)
	}
	return total, nil
}

// SampleReachablePlacement samples an upright pose of body on top of surface with a random yaw.
// The horizontal position is sampled in polar coordinates around the reach center and must keep
// the body inside the surface footprint.
func (w *World) SampleReachablePlacement(
	body, surface world.Body,
	reach, theta world.Range,
) (spatialmath.Pose, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return nil, err
	}
	s, err := w.entity(surface)
	if err != nil {
		return nil, err
	}
	footprint, err := surfaceBounds(s)
	if err != nil {
		return nil, err
	}

	for range w.placementTries {
		yaw := utils.SampleRandomFloatRange(-math.Pi, math.Pi, w.rand)
		r := utils.SampleRandomFloatRange(reach.Min, reach.Max, w.rand)
		bearing := utils.SampleRandomFloatRange(theta.Min, theta.Max, w.rand)
		pt := r3.Vector{
			X: w.reachCenter.X + r*math.Cos(bearing),
			Y: w.reachCenter.Y + r*math.Sin(bearing),
		}
		pose := spatialmath.NewPose(pt, &spatialmath.EulerAngles{Yaw: yaw})
		z, err := w.stableZ(e, s, pose)
		if err != nil {
			return nil, err
		}
		pt.Z = z
		pose = spatialmath.NewPose(pt, &spatialmath.EulerAngles{Yaw: yaw})

		bounds, err := e.bounds(pose)
		if err != nil {
			return nil, err
		}
		if insideFootprint(bounds, footprint) {
			return pose, nil
		}
	}
	return nil, errors.Wrapf(world.ErrNoPlacement, "%s on %s after %d tries", e.name, s.name, w.placementTries)
}

func insideFootprint(bounds []aabb, footprint aabb) bool {
	for _, b := range bounds {
		if b.lo.X < footprint.lo.X || b.hi.X > footprint.hi.X ||
			b.lo.Y < footprint.lo.Y || b.hi.Y > footprint.hi.Y {
			return false
		}
	}
	return true
}
