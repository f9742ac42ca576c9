package streams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/manipulation/world"
)

// GraspTop is the name of the top-down box grasp strategy.
const GraspTop = "top"

// Config tunes the generators and planning functions.
type Config struct {
	// GraspName selects the grasp strategy.
	GraspName string `json:"grasp_name" jsonschema:"enum=top,default=top"`
	// ToolLink is the grasping link of robots missing from ToolFrames.
	ToolLink string `json:"tool_link"`
	// ToolFrames maps robot names to the name of their grasping link.
	ToolFrames map[string]string `json:"tool_frames,omitempty"`

	MaxGraspWidth float64 `json:"max_grasp_width" jsonschema:"description=largest half extent that fits in the gripper (m)"`
	GraspLength   float64 `json:"grasp_length" jsonschema:"description=how far above the top face the tool stops (m)"`
	// Under also emits the grasps rotated by pi about the vertical axis.
	Under            bool    `json:"under"`
	ApproachDistance float64 `json:"approach_distance" jsonschema:"description=vertical pre-grasp offset (m)"`

	ReachRange        world.Range `json:"reach_range"`
	ReachTheta        world.Range `json:"reach_theta"`
	MaxSampleFailures int         `json:"max_sample_failures"`

	NumAttempts    int  `json:"num_attempts"`
	MotionAttempts int  `json:"motion_attempts"`
	Teleport       bool `json:"teleport"`
	SelfCollisions bool `json:"self_collisions"`
	// RobotIKCollisionCheck rejects alternate IK solutions in collision with the target or fixed bodies.
	RobotIKCollisionCheck bool `json:"robot_ik_collision_check"`

	Verbose bool  `json:"verbose"`
	RSeed   int64 `json:"rseed"`
}

// NewDefaultConfig returns the default configuration.
func NewDefaultConfig() *Config {
	return &Config{
		GraspName: GraspTop,
		ToolLink:  "tool_link",
		ToolFrames: map[string]string{
			"panda":  "tool_link",
			"iiwa14": "iiwa_link_ee_kuka",
		},
		MaxGraspWidth:         0.07,
		GraspLength:           0,
		Under:                 true,
		ApproachDistance:      0.1,
		ReachRange:            world.Range{Min: 0.25, Max: 0.5},
		ReachTheta:            world.Range{Min: -0.75 * math.Pi, Max: 0.75 * math.Pi},
		MaxSampleFailures:     10,
		NumAttempts:           10,
		MotionAttempts:        1,
		SelfCollisions:        true,
		RobotIKCollisionCheck: true,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.GraspName == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "grasp_name")
	}
	if _, ok := graspStrategies[cfg.GraspName]; !ok {
		return goutils.NewConfigValidationError(path, errors.Errorf("unknown grasp %q", cfg.GraspName))
	}
	if cfg.ToolLink == "" && len(cfg.ToolFrames) == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "tool_link")
	}
	if cfg.MaxGraspWidth <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("max_grasp_width must be positive"))
	}
	if cfg.ApproachDistance < 0 {
		return goutils.NewConfigValidationError(path, errors.New("approach_distance can't be negative"))
	}
	for name, r := range map[string]world.Range{"reach_range": cfg.ReachRange, "reach_theta": cfg.ReachTheta} {
		if r.Min > r.Max {
			return goutils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, name), errors.New("min is greater than max"))
		}
	}
	if cfg.ReachRange.Min < 0 {
		return goutils.NewConfigValidationError(path, errors.New("reach_range can't be negative"))
	}
	if cfg.MaxSampleFailures < 1 {
		return goutils.NewConfigValidationError(path, errors.New("max_sample_failures must be at least 1"))
	}
	if cfg.NumAttempts < 1 {
		return goutils.NewConfigValidationError(path, errors.New("num_attempts must be at least 1"))
	}
	if cfg.MotionAttempts < 1 {
		return goutils.NewConfigValidationError(path, errors.New("motion_attempts must be at least 1"))
	}
	return nil
}

// NewConfigFromAttributes decodes attributes over the defaults and validates the result.
func NewConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	cfg := NewDefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, err
	}
	if err := cfg.Validate("streams"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig reads a JSON config file, expanding environment variables, over the defaults.
func ReadConfig(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", filePath)
	}
	if err := cfg.Validate(filePath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigSchema returns the JSON schema of Config.
func ConfigSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
