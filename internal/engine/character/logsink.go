package character

import (
	"go.uber.org/zap"
)

// LogSink is an AnimationSink for headless runs. It logs state changes
// rather than every frame.
type LogSink struct {
	log  *zap.Logger
	last AnimParams
	seen bool
}

// NewLogSink creates a sink that logs to log.
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

// Update logs when the grounded flag, duck level or render mode changes.
func (s *LogSink) Update(p AnimParams) {
	if s.seen && p.IsGrounded == s.last.IsGrounded && p.DuckLevel == s.last.DuckLevel && p.BodyRender == s.last.BodyRender {
		s.last = p
		return
	}
	s.last, s.seen = p, true
	s.log.Debug("animation",
		zap.Bool("grounded", p.IsGrounded),
		zap.Float32("duck", p.DuckLevel),
		zap.Stringer("render", p.BodyRender),
		zap.Float32("speed", p.Velocity.Length()),
	)
}

// TriggerJump logs the jump.
func (s *LogSink) TriggerJump() {
	s.log.Debug("jump")
}

// Last returns the most recent parameters.
func (s *LogSink) Last() AnimParams {
	return s.last
}
