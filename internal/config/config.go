// Package config handles configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all controller settings.
type Config struct {
	Simulation   SimulationConfig   `yaml:"simulation"`
	Movement     MovementConfig     `yaml:"movement"`
	Body         BodyConfig         `yaml:"body"`
	Presentation PresentationConfig `yaml:"presentation"`
	Camera       CameraConfig       `yaml:"camera"`
	Input        InputConfig        `yaml:"input"`
	Window       WindowConfig       `yaml:"window"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// SimulationConfig holds fixed-tick settings.
type SimulationConfig struct {
	TickRate     int           `yaml:"tick_rate"`     // Fixed ticks per second
	Gravity      float32       `yaml:"gravity"`       // Downward acceleration, units/s^2
	MaxFrameTime time.Duration `yaml:"max_frame_time"` // Clamp for long frames before ticks are caught up
	RespawnDelay time.Duration `yaml:"respawn_delay"`  // Input lock after death
}

// MovementConfig holds the movement integrator tuning.
type MovementConfig struct {
	GroundControl        float32 `yaml:"ground_control"` // Friction factor while grounded
	AirControl           float32 `yaml:"air_control"`    // Friction factor while airborne
	MaxForce             float32 `yaml:"max_force"`      // Wish velocity clamp while airborne
	Speed                float32 `yaml:"speed"`
	RunSpeed             float32 `yaml:"run_speed"`
	DuckSpeed            float32 `yaml:"duck_speed"`
	JumpForce            float32 `yaml:"jump_force"`
	StandingHeight       float32 `yaml:"standing_height"`
	DuckingHeight        float32 `yaml:"ducking_height"`
	ClearanceRadiusScale float32 `yaml:"clearance_radius_scale"` // Fraction of body radius used by the stand-up trace
}

// BodyConfig holds character body (collider) settings.
type BodyConfig struct {
	Radius       float32 `yaml:"radius"`
	Acceleration float32 `yaml:"acceleration"`
	StopSpeed    float32 `yaml:"stop_speed"`
	GroundProbe  float32 `yaml:"ground_probe"` // Distance below the feet that still counts as grounded
}

// PresentationConfig holds body rotation and animation settings.
type PresentationConfig struct {
	TurnThreshold  float32 `yaml:"turn_threshold"`  // Degrees of heading error before the body turns
	SpeedThreshold float32 `yaml:"speed_threshold"` // Speed above which the body always turns
	TurnRate       float32 `yaml:"turn_rate"`
	LookEyes       float32 `yaml:"look_eyes"`
	LookHead       float32 `yaml:"look_head"`
	LookBody       float32 `yaml:"look_body"`
}

// CameraConfig holds camera settings.
type CameraConfig struct {
	Distance        float32 `yaml:"distance"` // 0 is first person
	MinDistance     float32 `yaml:"min_distance"`
	MaxDistance     float32 `yaml:"max_distance"`
	Sensitivity     float32 `yaml:"sensitivity"` // Degrees per pointer unit
	ZoomSensitivity float32 `yaml:"zoom_sensitivity"`
	PitchLimit      float32 `yaml:"pitch_limit"`
	DuckOffset      float32 `yaml:"duck_offset"`
	OffsetRate      float32 `yaml:"offset_rate"`
	CollisionNudge  float32 `yaml:"collision_nudge"`
	FOV             float32 `yaml:"fov"` // Vertical field of view in degrees
}

// InputConfig maps action names to SDL key names.
type InputConfig struct {
	Bindings map[string]string `yaml:"bindings"`
}

// WindowConfig holds display settings for the interactive client.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:     50,
			Gravity:      850,
			MaxFrameTime: 250 * time.Millisecond,
			RespawnDelay: 3 * time.Second,
		},
		Movement: MovementConfig{
			GroundControl:        4.0,
			AirControl:           0.1,
			MaxForce:             50,
			Speed:                160,
			RunSpeed:             290,
			DuckSpeed:            90,
			JumpForce:            400,
			StandingHeight:       64,
			DuckingHeight:        32,
			ClearanceRadiusScale: 0.9,
		},
		Body: BodyConfig{
			Radius:       16,
			Acceleration: 10,
			StopSpeed:    140,
			GroundProbe:  2,
		},
		Presentation: PresentationConfig{
			TurnThreshold:  50,
			SpeedThreshold: 10,
			TurnRate:       2,
			LookEyes:       1,
			LookHead:       0.75,
			LookBody:       0.5,
		},
		Camera: CameraConfig{
			Distance:        0,
			MinDistance:     40,
			MaxDistance:     300,
			Sensitivity:     0.1,
			ZoomSensitivity: 0.1,
			PitchLimit:      89.9,
			DuckOffset:      32,
			OffsetRate:      10,
			CollisionNudge:  1,
			FOV:             80,
		},
		Input: InputConfig{
			Bindings: map[string]string{
				"forward":  "W",
				"backward": "S",
				"left":     "A",
				"right":    "D",
				"run":      "Left Shift",
				"duck":     "Left Ctrl",
				"jump":     "Space",
			},
		},
		Window: WindowConfig{
			Title:  "DubzRP",
			Width:  1280,
			Height: 720,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TickInterval returns the fixed simulation step.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Simulation.TickRate)
}

// Validate reports settings that cannot produce a working controller.
func (c *Config) Validate() error {
	var errs []error
	if c.Simulation.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate))
	}
	if c.Movement.DuckingHeight <= 0 || c.Movement.DuckingHeight >= c.Movement.StandingHeight {
		errs = append(errs, fmt.Errorf("movement.ducking_height %.1f must be in (0, standing_height %.1f)",
			c.Movement.DuckingHeight, c.Movement.StandingHeight))
	}
	if c.Movement.ClearanceRadiusScale <= 0 || c.Movement.ClearanceRadiusScale > 1 {
		errs = append(errs, fmt.Errorf("movement.clearance_radius_scale must be in (0, 1], got %.2f", c.Movement.ClearanceRadiusScale))
	}
	if c.Body.Radius <= 0 {
		errs = append(errs, fmt.Errorf("body.radius must be positive, got %.1f", c.Body.Radius))
	}
	if c.Camera.Distance < 0 || c.Camera.MaxDistance < 0 || c.Camera.Distance > c.Camera.MaxDistance {
		errs = append(errs, fmt.Errorf("camera.distance %.1f must be in [0, max_distance %.1f]", c.Camera.Distance, c.Camera.MaxDistance))
	}
	if c.Camera.PitchLimit <= 0 || c.Camera.PitchLimit >= 90 {
		errs = append(errs, fmt.Errorf("camera.pitch_limit must be in (0, 90), got %.1f", c.Camera.PitchLimit))
	}
	return errors.Join(errs...)
}
