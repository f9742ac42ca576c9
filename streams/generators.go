package streams

import (
	"iter"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/manipulation/primitives"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// GraspGenerator enumerates the grasps of a body. The sequence is finite and may be empty, which
// means the body can't be grasped.
type GraspGenerator func(body world.Body) iter.Seq2[*primitives.Grasp, error]

// StableGenerator samples placements of a body on a surface. The sequence only ends with an error.
type StableGenerator func(body, surface world.Body) iter.Seq2[*primitives.Pose, error]

// StackGenerator yields the single pose of top resting on bottom at the position and orientation
// of pose.
type StackGenerator func(top, bottom world.Body, pose *primitives.Pose) iter.Seq2[*primitives.Pose, error]

// graspStrategy computes grasp transforms for a body and the approach shared by all of them.
type graspStrategy struct {
	grasps   func(w world.State, cfg *Config, body world.Body) ([]spatialmath.Pose, error)
	approach func(cfg *Config) spatialmath.Pose
}

var graspStrategies = map[string]graspStrategy{
	GraspTop: {
		grasps: func(w world.State, cfg *Config, body world.Body) ([]spatialmath.Pose, error) {
			return topGrasps(w, body, topGraspOptions{
				under:       cfg.Under,
				toolPose:    spatialmath.NewZeroPose(),
				bodyPose:    spatialmath.NewZeroPose(),
				maxWidth:    cfg.MaxGraspWidth,
				graspLength: cfg.GraspLength,
			})
		},
		approach: func(cfg *Config) spatialmath.Pose {
			return spatialmath.NewPoseFromPoint(r3.Vector{Z: cfg.ApproachDistance})
		},
	},
}

type topGraspOptions struct {
	under       bool
	toolPose    spatialmath.Pose
	bodyPose    spatialmath.Pose
	maxWidth    float64
	graspLength float64
}

// topGrasps returns body poses in the tool frame for grasping a box from above, pinching across
// each horizontal axis that fits in the gripper. The tool z axis points into the body.
func topGrasps(w world.State, body world.Body, opts topGraspOptions) ([]spatialmath.Pose, error) {
	prism, err := w.ApproximateAsPrism(body, opts.bodyPose)
	if err != nil {
		return nil, err
	}
	half := prism.HalfExtents
	reflectZ := spatialmath.NewPoseFromOrientation(&spatialmath.EulerAngles{Pitch: math.Pi})
	translateZ := spatialmath.NewPoseFromPoint(r3.Vector{Z: half.Z - opts.graspLength})
	translateCenter := spatialmath.NewPoseFromPoint(opts.bodyPose.Point().Sub(prism.Center))

	turns := 1
	if opts.under {
		turns = 2
	}
	var grasps []spatialmath.Pose
	add := func(offset float64) {
		for i := range turns {
			rotateZ := spatialmath.NewPoseFromOrientation(&spatialmath.EulerAngles{Yaw: offset + float64(i)*math.Pi})
			grasps = append(grasps, spatialmath.Multiply(opts.toolPose, translateZ, rotateZ, reflectZ, translateCenter, opts.bodyPose))
		}
	}
	if half.X <= opts.maxWidth {
		add(math.Pi / 2)
	}
	if half.Y <= opts.maxWidth {
		add(0)
	}
	return grasps, nil
}

// GraspGen returns a GraspGenerator for robot using the configured strategy. The grasping link is
// looked up by robot name in ToolFrames, falling back to ToolLink.
func (s *Streams) GraspGen(robot world.Body) (GraspGenerator, error) {
	strategy, ok := graspStrategies[s.cfg.GraspName]
	if !ok {
		return nil, errors.Errorf("unknown grasp %q", s.cfg.GraspName)
	}
	link, err := s.toolLink(robot)
	if err != nil {
		return nil, err
	}
	approach := strategy.approach(s.cfg)

	return func(body world.Body) iter.Seq2[*primitives.Grasp, error] {
		return func(yield func(*primitives.Grasp, error) bool) {
			poses, err := strategy.grasps(s.w, s.cfg, body)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, pose := range poses {
				grasp := primitives.NewGrasp(body, pose, approach, robot, link)
				s.logCandidate("grasp", "grasp", grasp, "body", body, "pose", pose)
				if !yield(grasp, nil) {
					return
				}
			}
		}
	}, nil
}

func (s *Streams) toolLink(robot world.Body) (world.Link, error) {
	name, err := s.w.BodyName(robot)
	if err != nil {
		return 0, err
	}
	linkName, ok := s.cfg.ToolFrames[name]
	if !ok {
		linkName = s.cfg.ToolLink
	}
	return s.w.LinkFromName(robot, linkName)
}

// StableGen returns a StableGenerator sampling within the configured reach. Sampling misses are
// retried; after MaxSampleFailures misses in a row the sequence yields the miss and ends.
func (s *Streams) StableGen() StableGenerator {
	return func(body, surface world.Body) iter.Seq2[*primitives.Pose, error] {
		return func(yield func(*primitives.Pose, error) bool) {
			misses := 0
			for {
				value, err := s.w.SampleReachablePlacement(body, surface, s.cfg.ReachRange, s.cfg.ReachTheta)
				if err != nil {
					if errors.Is(err, world.ErrNoPlacement) {
						misses++
						s.logger.Debugw("placement sample missed", "body", body, "surface", surface, "misses", misses)
						if misses < s.cfg.MaxSampleFailures {
							continue
						}
					}
					yield(nil, err)
					return
				}
				misses = 0
				pose := primitives.NewPose(body, value)
				s.logCandidate("placement", "pose", pose, "body", body, "value", value)
				if !yield(pose, nil) {
					return
				}
			}
		}
	}
}

// StackGen returns a StackGenerator. The resting height comes from the world.
func (s *Streams) StackGen() StackGenerator {
	return func(top, bottom world.Body, pose *primitives.Pose) iter.Seq2[*primitives.Pose, error] {
		return func(yield func(*primitives.Pose, error) bool) {
			z, err := s.w.StableZ(top, bottom)
			if err != nil {
				yield(nil, err)
				return
			}
			pt := pose.Value.Point()
			euler := pose.Value.Orientation().EulerAngles()
			stacked := primitives.NewPose(top, spatialmath.NewPose(r3.Vector{X: pt.X, Y: pt.Y, Z: z}, euler))
			s.logCandidate("stack", "pose", stacked, "top", top, "bottom", bottom)
			yield(stacked, nil)
		}
	}
}
