package motionplan

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestNewPlannerOptionsFromExtra(t *testing.T) {
	opts, err := NewPlannerOptionsFromExtra(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts, test.ShouldResemble, NewBasicPlannerOptions())
	test.That(t, opts.timeoutDuration(), test.ShouldEqual, 300*time.Second)

	opts, err = NewPlannerOptionsFromExtra(map[string]interface{}{
		"resolution":               0.01,
		"interpolation_resolution": 0.1,
		"timeout":                  1.5,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.Resolution, test.ShouldEqual, 0.01)
	test.That(t, opts.InterpolationResolution, test.ShouldEqual, 0.1)
	test.That(t, opts.timeoutDuration(), test.ShouldEqual, 1500*time.Millisecond)
	test.That(t, opts.MaxWaypoints, test.ShouldEqual, defaultMaxWaypoints)

	for _, extra := range []map[string]interface{}{
		{"resolution": 0},
		{"resolution": 0.5},
		{"max_waypoints": 1},
		{"timeout": "soon"},
	} {
		_, err := NewPlannerOptionsFromExtra(extra)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestInterpolateLine(t *testing.T) {
	start := []float64{0, 1}
	goal := []float64{0.1, 0.9}
	path, err := interpolateLine(toInputs(start), toInputs(goal), 0.02, 100)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(path), test.ShouldEqual, 6)
	test.That(t, path[5], test.ShouldResemble, toInputs(goal))
	test.That(t, path[1][0].Value, test.ShouldAlmostEqual, 0.02)
	test.That(t, path[1][1].Value, test.ShouldAlmostEqual, 0.98)

	_, err = interpolateLine(toInputs(start), toInputs(goal), 0.02, 5)
	test.That(t, err, test.ShouldNotBeNil)
}
