package motionplan

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/manipulation/utils"
)

// default values for planning options.
const (
	// Check collisions every this many radians/meters of joint movement.
	defaultResolution = 0.02

	// Waypoint spacing of the sparse interpolated plans, in the same units.
	defaultInterpolationResolution = 0.25

	// default number of seconds to try to solve in total before returning.
	defaultTimeout = 300.

	// Upper bound on the waypoints of a single plan.
	defaultMaxWaypoints = 10000
)

var defaultResolutionOverride = defaultResolution

func init() {
	if steps := utils.GetenvInt("MP_RESOLUTION_DIVISOR", 1); steps > 1 {
		defaultResolutionOverride = defaultResolution / float64(steps)
	}
}

// PlannerOptions are a set of options to be passed to a planner which will specify how to solve
// a motion planning problem.
type PlannerOptions struct {
	// Check constraints are still met every this many radians/meters of movement.
	Resolution float64 `json:"resolution"`

	// Spacing of the waypoints returned by PlanInterpolatedJointMotion.
	InterpolationResolution float64 `json:"interpolation_resolution"`

	// Number of seconds before terminating planner
	Timeout float64 `json:"timeout"`

	// Plans that would need more waypoints than this fail.
	MaxWaypoints int `json:"max_waypoints"`
}

// NewBasicPlannerOptions specifies a set of basic options for the planner.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		Resolution:              defaultResolutionOverride,
		InterpolationResolution: defaultInterpolationResolution,
		Timeout:                 defaultTimeout,
		MaxWaypoints:            defaultMaxWaypoints,
	}
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters
// found in the "extra" map.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opt := NewBasicPlannerOptions()

	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonString, opt); err != nil {
		return nil, err
	}

	if opt.Resolution <= 0 {
		return nil, errors.New("resolution must be positive")
	}
	if opt.InterpolationResolution < opt.Resolution {
		return nil, errors.New("interpolation_resolution can't be smaller than resolution")
	}
	if opt.MaxWaypoints < 2 {
		return nil, errors.New("max_waypoints must be at least 2")
	}

	return opt, nil
}

func (p *PlannerOptions) timeoutDuration() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}
