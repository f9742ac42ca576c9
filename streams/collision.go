package streams

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/manipulation/primitives"
	"go.viam.com/manipulation/world"
)

// CollisionTest reports whether executing cmd would hit body resting at pose.
type CollisionTest func(cmd *primitives.Command, body world.Body, pose *primitives.Pose) (bool, error)

// MovableCollisionTest returns a CollisionTest that places the body and replays every path of
// the command, checking each moving body against it at every step. Bodies the command moves are
// never in collision with it. The world is left at the last replayed step.
func (s *Streams) MovableCollisionTest() CollisionTest {
	return func(cmd *primitives.Command, body world.Body, pose *primitives.Pose) (bool, error) {
		if lo.Contains(cmd.Bodies(), body) {
			return false, nil
		}
		if _, err := pose.Assign(s.w); err != nil {
			return false, err
		}
		for _, segment := range cmd.Segments {
			path, ok := segment.(*primitives.Path)
			if !ok {
				continue
			}
			moving := path.Bodies()
			if lo.Contains(moving, body) {
				continue
			}
			for step, err := range path.Iterator(s.w) {
				if err != nil {
					return false, err
				}
				for _, m := range moving {
					collides, err := s.w.PairwiseCollision(m, body)
					if err != nil {
						return false, err
					}
					if collides {
						s.logger.Debugw("movable collision", "command", cmd, "body", body, "pose", pose, "moving", m, "step", step)
						if s.onFailure != nil {
							s.onFailure("movable collision", errors.Errorf("body %d collides with %d at step %d of %s", body, m, step, cmd))
						}
						return true, nil
					}
				}
			}
		}
		return false, nil
	}
}

// ColFreeBlockTest is a placeholder for a block-specific collision test. The returned test always
// fails with ErrNotImplemented.
func (s *Streams) ColFreeBlockTest() CollisionTest {
	return func(*primitives.Command, world.Body, *primitives.Pose) (bool, error) {
		return false, errors.Wrap(ErrNotImplemented, "collision free block test")
	}
}
