package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/streams"
	"go.viam.com/manipulation/world/simworld"
)

const (
	// Flags.
	flagConfig       = "config"
	flagSeed         = "seed"
	flagBlocks       = "blocks"
	flagBlock        = "block"
	flagVerbose      = "verbose"
	flagDebug        = "debug"
	flagLogFile      = "log-file"
	flagTeleport     = "teleport"
	flagControl      = "control"
	flagTimeStep     = "time-step"
	flagDebugFailure = "debug-failure"
)

func newApp(out io.Writer, in io.Reader) *cli.App {
	return &cli.App{
		Name:            "pickplace",
		Usage:           "plan and run pick and place on a simulated tabletop",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       out,
		Reader:          in,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load stream configuration from `FILE`",
			},
			&cli.Int64Flag{
				Name:  flagSeed,
				Usage: "seed for the scene and the IK seeds, overriding the config rseed",
			},
			&cli.IntFlag{
				Name:  flagBlocks,
				Value: 3,
				Usage: "number of blocks on the table",
			},
			&cli.BoolFlag{
				Name:  flagVerbose,
				Usage: "log every candidate",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to a rotated `FILE`",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "grasps",
				Usage: "list the grasp candidates of a block",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagBlock,
						Usage: "index of the block",
					},
				},
				Action: GraspsAction,
			},
			{
				Name:  "demo",
				Usage: "pick a block and place it somewhere else on the table",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagBlock,
						Usage: "index of the block to move",
					},
					&cli.BoolFlag{
						Name:  flagTeleport,
						Usage: "skip motion planning between configurations",
					},
					&cli.BoolFlag{
						Name:  flagControl,
						Usage: "execute through the simulated joint controllers instead of replaying kinematically",
					},
					&cli.DurationFlag{
						Name:  flagTimeStep,
						Usage: "pause between replayed steps",
					},
					&cli.BoolFlag{
						Name:  flagDebugFailure,
						Usage: "pause after every failed attempt",
					},
				},
				Action: DemoAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the stream configuration",
				Action: SchemaAction,
			},
		},
	}
}

// session is what every command needs: a logger, a config, and a scene to plan in.
type session struct {
	logger logging.Logger
	cfg    *streams.Config
	scene  *simworld.Scene
	closer io.Closer
}

func newSession(c *cli.Context) (*session, error) {
	var sess session
	if path := c.String(flagLogFile); path != "" {
		sess.logger, sess.closer = logging.NewFileLogger("pickplace", path)
	} else {
		sess.logger = logging.NewLogger("pickplace")
	}
	if c.Bool(flagDebug) {
		sess.logger.SetLevel(logging.DEBUG)
	}

	cfg := streams.NewDefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = streams.ReadConfig(path); err != nil {
			return nil, multierr.Combine(err, sess.Close())
		}
	}
	if c.IsSet(flagSeed) {
		cfg.RSeed = c.Int64(flagSeed)
	}
	if c.Bool(flagVerbose) {
		cfg.Verbose = true
	}
	if c.Bool(flagTeleport) {
		cfg.Teleport = true
	}
	sess.cfg = cfg

	seed := cfg.RSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	scene, err := simworld.NewTabletopScene(sess.logger.Sublogger("world"), c.Int(flagBlocks),
		simworld.WithRandSource(rand.New(rand.NewSource(seed)))) //nolint:gosec
	if err != nil {
		return nil, multierr.Combine(err, sess.Close())
	}
	sess.scene = scene
	return &sess, nil
}

func (sess *session) streams(opts ...streams.Option) (*streams.Streams, error) {
	opts = append([]streams.Option{streams.WithFixed(sess.scene.Table)}, opts...)
	return streams.New(
		sess.scene,
		simworld.GantryIK{},
		motionplan.NewLinearPlanner(sess.logger.Sublogger("planner"), nil),
		sess.cfg,
		sess.logger.Sublogger("streams"),
		opts...,
	)
}

func (sess *session) block(c *cli.Context) (int, error) {
	i := c.Int(flagBlock)
	if i < 0 || i >= len(sess.scene.Blocks) {
		return 0, errors.Errorf("block %d is not one of the %d blocks", i, len(sess.scene.Blocks))
	}
	return i, nil
}

// Close releases the scene and the log file.
func (sess *session) Close() error {
	var err error
	if sess.scene != nil {
		err = multierr.Combine(err, sess.scene.Close())
	}
	if sess.closer != nil {
		err = multierr.Combine(err, sess.closer.Close())
	}
	return err
}

// GraspsAction prints the grasp candidates of a block.
func GraspsAction(c *cli.Context) (err error) {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, sess.Close())
	}()
	s, err := sess.streams()
	if err != nil {
		return err
	}
	i, err := sess.block(c)
	if err != nil {
		return err
	}
	table, err := graspTable(s, sess.scene.Robot, sess.scene.Blocks[i])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, table)
	return nil
}

// DemoAction plans and runs a pick and place of one block.
func DemoAction(c *cli.Context) (err error) {
	sess, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, sess.Close())
	}()

	var opts []streams.Option
	if c.Bool(flagDebugFailure) {
		reader := bufio.NewReader(c.App.Reader)
		opts = append(opts, streams.WithFailureHook(func(op string, err error) {
			fmt.Fprintln(c.App.Writer, color.YellowString("%s failed: %v", op, err))
			fmt.Fprint(c.App.Writer, "press enter to continue")
			//nolint:errcheck
			reader.ReadString('\n')
		}))
	}
	s, err := sess.streams(opts...)
	if err != nil {
		return err
	}
	i, err := sess.block(c)
	if err != nil {
		return err
	}

	block := sess.scene.Blocks[i]
	plan, err := planPickPlace(c.Context, sess.scene, s, block, sess.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "planned %s: %d segments, grasp %s, placement %s\n",
		plan.Command, len(plan.Command.Segments), plan.Grasp, plan.Placement)

	if err := plan.run(c.Context, sess.scene, runOptions{
		control:  c.Bool(flagControl),
		timeStep: c.Duration(flagTimeStep),
	}); err != nil {
		return err
	}
	final, err := sess.scene.Pose(block)
	if err != nil {
		return err
	}
	pt := final.Point()
	fmt.Fprintln(c.App.Writer, color.GreenString("placed block%d at (%.3f, %.3f, %.3f)", i, pt.X, pt.Y, pt.Z))
	return nil
}

// SchemaAction prints the JSON schema of streams.Config.
func SchemaAction(c *cli.Context) error {
	out, err := json.MarshalIndent(streams.ConfigSchema(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
