package referenceframe

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestInputConversions(t *testing.T) {
	in := []float64{0, math.Pi}
	test.That(t, InputsToFloats(FloatsToInputs(in)), test.ShouldResemble, in)

	orig := FloatsToInputs(in)
	cp := CopyInputs(orig)
	cp[0].Value = 5
	test.That(t, orig[0].Value, test.ShouldEqual, 0.)
	test.That(t, CopyInputs(nil), test.ShouldBeNil)
}

func TestInterpolateValues(t *testing.T) {
	jp1 := FloatsToInputs([]float64{0, 4})
	jp2 := FloatsToInputs([]float64{8, -8})
	jpHalf := FloatsToInputs([]float64{4, -2})
	jpQuarter := FloatsToInputs([]float64{2, 1})

	test.That(t, InterpolateInputs(jp1, jp2, 0.5), test.ShouldResemble, jpHalf)
	test.That(t, InterpolateInputs(jp1, jp2, 0.25), test.ShouldResemble, jpQuarter)
	test.That(t, InterpolateInputs(jp1, jp2, 0), test.ShouldResemble, jp1)
}

func TestInputsDistance(t *testing.T) {
	a := FloatsToInputs([]float64{0, 0})
	b := FloatsToInputs([]float64{3, 4})
	test.That(t, InputsL2Distance(a, b), test.ShouldAlmostEqual, 5)
	test.That(t, math.IsInf(InputsL2Distance(a, b[:1]), 1), test.ShouldBeTrue)

	test.That(t, InputsAlmostEqual(b, FloatsToInputs([]float64{3, 4.0000001}), 1e-6), test.ShouldBeTrue)
	test.That(t, InputsAlmostEqual(a, b, 1e-6), test.ShouldBeFalse)
	test.That(t, InputsAlmostEqual(a, b[:1], 1e-6), test.ShouldBeFalse)
}

func TestRandomInputs(t *testing.T) {
	limits := []Limit{{-1, 1}, {0, 0.5}, {math.Inf(-1), math.Inf(1)}}
	rSeed := rand.New(rand.NewSource(42))
	for range 100 {
		inputs := RandomInputs(limits, rSeed)
		test.That(t, len(inputs), test.ShouldEqual, 3)
		test.That(t, CheckInputsInLimits(inputs, limits), test.ShouldBeNil)
		test.That(t, math.Abs(inputs[2].Value), test.ShouldBeLessThanOrEqualTo, 999)
	}

	// A nil source is deterministic.
	test.That(t, RandomInputs(limits, nil), test.ShouldResemble, RandomInputs(limits, nil))
}

func TestCheckInputsInLimits(t *testing.T) {
	limits := []Limit{{-1, 1}, {0, 0.5}}
	test.That(t, CheckInputsInLimits(FloatsToInputs([]float64{1, 0}), limits), test.ShouldBeNil)

	err := CheckInputsInLimits(FloatsToInputs([]float64{0, 0.6}), limits)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "input 1")

	err = CheckInputsInLimits(FloatsToInputs([]float64{0}), limits)
	test.That(t, err, test.ShouldBeError, NewIncorrectDoFError(1, 2))

	test.That(t, limits[1].Clamp(2), test.ShouldEqual, 0.5)
	test.That(t, limits[0].Clamp(-3), test.ShouldEqual, -1.)
}
