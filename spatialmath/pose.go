package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof rigid transform: a point and an orientation. Units are meters.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose builds a pose from a translation and an orientation. A nil orientation is the identity.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return newDualQuaternionFrom(p, o.Quaternion())
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(p r3.Vector) Pose {
	return newDualQuaternionFrom(p, quat.Number{Real: 1})
}

// NewPoseFromOrientation returns a pure rotation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// Compose returns the transform a∘b, i.e. b expressed in the frame of a.
func Compose(a, b Pose) Pose {
	return &dualQuaternion{poseToDualQuat(a).Transformation(poseToDualQuat(b).Number)}
}

// Multiply composes the poses left to right. With no arguments it returns the identity.
func Multiply(poses ...Pose) Pose {
	result := NewZeroPose()
	for _, p := range poses {
		result = Compose(result, p)
	}
	return result
}

// PoseInverse returns the transform that undoes p.
func PoseInverse(p Pose) Pose {
	rot := quat.Conj(normalizeQuat(p.Orientation().Quaternion()))
	t := RotatePoint(rot, p.Point())
	return newDualQuaternionFrom(t.Mul(-1), rot)
}

// PoseBetween returns the transform that takes a to b, so that Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint applies p to a point.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return RotatePoint(p.Orientation().Quaternion(), pt).Add(p.Point())
}

// RotatePoint rotates a point by the unit quaternion q.
func RotatePoint(q quat.Number, pt r3.Vector) r3.Vector {
	q = normalizeQuat(q)
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// PoseAlmostEqual returns whether two poses are within a millimeter-scale tolerance in position and
// have approximately the same orientation.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps is PoseAlmostEqual with a caller supplied position tolerance.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// R3VectorAlmostEqual compares two vectors component wise.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return a.Sub(b).Norm() <= epsilon
}

func poseToDualQuat(p Pose) *dualQuaternion {
	if dq, ok := p.(*dualQuaternion); ok {
		return dq
	}
	return newDualQuaternionFrom(p.Point(), p.Orientation().Quaternion())
}
