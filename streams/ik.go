package streams

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/primitives"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// GraspCommand is the result of IKFn: where the robot starts the pick and how it picks.
type GraspCommand struct {
	Approach *primitives.Conf
	// Command approaches, attaches, and retreats holding the body.
	Command *primitives.Command
}

// ConfPair is the result of RobotIKFn.
type ConfPair struct {
	Approach *primitives.Conf
	Grasp    *primitives.Conf
}

// IKFunc plans the pick of body at pose with grasp.
type IKFunc func(ctx context.Context, body world.Body, pose *primitives.Pose, grasp *primitives.Grasp) (*GraspCommand, error)

// RobotIKFunc solves the approach and grasp configurations of robot without planning between them.
type RobotIKFunc func(
	ctx context.Context,
	robot, body world.Body,
	pose *primitives.Pose,
	grasp *primitives.Grasp,
) (*ConfPair, error)

// gripperPoses returns the link poses at the grasp and before it.
func gripperPoses(pose *primitives.Pose, grasp *primitives.Grasp) (gripper, approach spatialmath.Pose) {
	gripper = spatialmath.Compose(pose.Value, spatialmath.PoseInverse(grasp.GraspPose))
	return gripper, spatialmath.Compose(grasp.ApproachPose, gripper)
}

// IKFn returns an IKFunc for robot. Each attempt seeds IK with a random configuration, solves
// the approach then the grasp, rejects solutions touching the body or the fixed bodies, and plans
// the straight joint motion between them unless teleporting.
func (s *Streams) IKFn(robot world.Body) (IKFunc, error) {
	joints, err := s.w.MovableJoints(robot)
	if err != nil {
		return nil, err
	}
	limits, err := s.w.JointLimits(robot, joints)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, body world.Body, pose *primitives.Pose, grasp *primitives.Grasp) (*GraspCommand, error) {
		ctx, span := trace.StartSpan(ctx, "streams::IKFn")
		defer span.End()

		if grasp == nil || pose == nil {
			return nil, NewPreconditionError("ik", "a grasp and a pose of body %d are required", body)
		}
		if grasp.Body != body || pose.Body != body {
			return nil, NewPreconditionError("ik", "grasp %s and pose %s must both be of body %d", grasp, pose, body)
		}
		if grasp.Robot != robot {
			return nil, NewPreconditionError("ik", "grasp %s is for robot %d, not %d", grasp, grasp.Robot, robot)
		}
		if _, err := pose.Assign(s.w); err != nil {
			return nil, err
		}
		obstacles := append([]world.Body{body}, s.fixed...)
		gripperPose, approachPose := gripperPoses(pose, grasp)

		var result *GraspCommand
		err := s.retry(ctx, "ik", s.cfg.NumAttempts, func(int) error {
			seed := referenceframe.RandomInputs(limits, s.rand)
			if err := s.w.SetJointPositions(robot, joints, seed); err != nil {
				return err
			}
			qApproach, err := s.solveCollisionFree(ctx, s.ik, robot, grasp.Link, approachPose, obstacles)
			if err != nil {
				return errors.Wrap(err, "approach")
			}
			approachConf, err := primitives.NewConf(robot, joints, qApproach)
			if err != nil {
				return err
			}
			qGrasp, err := s.solveCollisionFree(ctx, s.ik, robot, grasp.Link, gripperPose, obstacles)
			if err != nil {
				return errors.Wrap(err, "grasp")
			}

			var path [][]referenceframe.Input
			if s.cfg.Teleport {
				path = [][]referenceframe.Input{qApproach, qGrasp}
			} else {
				if _, err := approachConf.Assign(s.w); err != nil {
					return err
				}
				path, err = s.planner.PlanDirectJointMotion(ctx, s.w, &motionplan.PlanRequest{
					Robot:          robot,
					Joints:         joints,
					Goal:           qGrasp,
					Obstacles:      obstacles,
					SelfCollisions: s.cfg.SelfCollisions,
				})
				if err != nil {
					return unlessCanceled(ctx, err, "approach motion")
				}
			}

			approach, err := primitives.NewPath(robot, joints, path)
			if err != nil {
				return err
			}
			retreatPath := slices.Clone(path)
			slices.Reverse(retreatPath)
			retreat, err := primitives.NewPath(robot, joints, retreatPath, grasp)
			if err != nil {
				return err
			}
			result = &GraspCommand{
				Approach: approachConf,
				Command:  primitives.NewCommand(approach, primitives.NewAttach(body, robot, grasp.Link), retreat),
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.logCandidate("grasp command", "conf", result.Approach, "command", result.Command, "waypoints",
			len(result.Command.Segments[0].(*primitives.Path).Waypoints))
		return result, nil
	}, nil
}

// RobotIKFn returns a RobotIKFunc using the alternate solver. The first attempt starts from the
// robot's current joints and later attempts from random seeds within the joint limits. It plans
// no motion. Collisions are only checked when RobotIKCollisionCheck is set.
func (s *Streams) RobotIKFn() RobotIKFunc {
	return func(
		ctx context.Context,
		robot, body world.Body,
		pose *primitives.Pose,
		grasp *primitives.Grasp,
	) (*ConfPair, error) {
		ctx, span := trace.StartSpan(ctx, "streams::RobotIKFn")
		defer span.End()

		if grasp == nil || pose == nil {
			return nil, NewPreconditionError("robot ik", "a grasp and a pose of body %d are required", body)
		}
		if grasp.Body != body || pose.Body != body {
			return nil, NewPreconditionError("robot ik", "grasp %s and pose %s must both be of body %d", grasp, pose, body)
		}
		if grasp.Robot != robot {
			return nil, NewPreconditionError("robot ik", "grasp %s is for robot %d, not %d", grasp, grasp.Robot, robot)
		}
		joints, err := s.w.MovableJoints(robot)
		if err != nil {
			return nil, err
		}
		limits, err := s.w.JointLimits(robot, joints)
		if err != nil {
			return nil, err
		}
		var obstacles []world.Body
		if s.cfg.RobotIKCollisionCheck {
			obstacles = append([]world.Body{body}, s.fixed...)
			if _, err := pose.Assign(s.w); err != nil {
				return nil, err
			}
		}
		gripperPose, approachPose := gripperPoses(pose, grasp)

		var result *ConfPair
		err = s.retry(ctx, "robot ik", s.cfg.NumAttempts, func(attempt int) error {
			if attempt > 0 {
				seed := referenceframe.RandomInputs(limits, s.rand)
				if err := s.w.SetJointPositions(robot, joints, seed); err != nil {
					return err
				}
			}
			qApproach, err := s.solveCollisionFree(ctx, s.robotIK, robot, grasp.Link, approachPose, obstacles)
			if err != nil {
				return errors.Wrap(err, "approach")
			}
			qGrasp, err := s.solveCollisionFree(ctx, s.robotIK, robot, grasp.Link, gripperPose, obstacles)
			if err != nil {
				return errors.Wrap(err, "grasp")
			}
			approachConf, err := primitives.NewConf(robot, joints, qApproach)
			if err != nil {
				return err
			}
			graspConf, err := primitives.NewConf(robot, joints, qGrasp)
			if err != nil {
				return err
			}
			result = &ConfPair{Approach: approachConf, Grasp: graspConf}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.logCandidate("robot approach conf", "conf", result.Approach, "values", result.Approach.Values)
		s.logCandidate("robot grasp conf", "conf", result.Grasp, "values", result.Grasp.Values)
		return result, nil
	}
}

// solveCollisionFree solves IK for target and checks the robot against obstacles at the solution.
func (s *Streams) solveCollisionFree(
	ctx context.Context,
	solver motionplan.IKSolver,
	robot world.Body,
	link world.Link,
	target spatialmath.Pose,
	obstacles []world.Body,
) ([]referenceframe.Input, error) {
	q, err := solver.Solve(ctx, s.w, robot, link, target)
	if err != nil {
		return nil, unlessCanceled(ctx, err, "ik")
	}
	for _, obstacle := range obstacles {
		collides, err := s.w.PairwiseCollision(robot, obstacle)
		if err != nil {
			return nil, err
		}
		if collides {
			return nil, failAttemptf("robot collides with body %d", obstacle)
		}
	}
	return q, nil
}
