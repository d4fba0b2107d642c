package input

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step holds a set of actions for a number of frames. Press fires on the
// step's first frame only.
type Step struct {
	Frames int        `yaml:"frames"`
	Hold   []string   `yaml:"hold"`
	Press  []string   `yaml:"press"`
	Look   [2]float32 `yaml:"look"` // Pointer delta applied every frame of the step
	Zoom   float32    `yaml:"zoom"`
}

// Script is a recorded input sequence for headless runs.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// LoadScript reads a YAML input script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML input script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing input script: %w", err)
	}
	return &s, nil
}

// Frames expands the script into one Frame per simulated frame.
func (s *Script) Frames() ([]Frame, error) {
	var t Tracker
	var frames []Frame
	for n, step := range s.Steps {
		hold, err := parseActions(step.Hold)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", n, err)
		}
		press, err := parseActions(step.Press)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", n, err)
		}

		t.KeyUp(^hold)
		t.KeyDown(hold)
		for i := 0; i < step.Frames; i++ {
			if i == 0 && press != 0 {
				t.KeyDown(press &^ hold)
				t.KeyUp(press &^ hold)
				t.pressed |= press & hold
			}
			t.Look(step.Look[0], step.Look[1])
			t.Wheel(step.Zoom)
			frames = append(frames, t.Next())
		}
	}
	return frames, nil
}

func parseActions(names []string) (Action, error) {
	var set Action
	for _, name := range names {
		a, err := ParseAction(name)
		if err != nil {
			return 0, err
		}
		set |= a
	}
	return set, nil
}

// Playback replays expanded script frames through the same Poll/Frame
// interface as a live window.
type Playback struct {
	frames []Frame
	next   int
}

// NewPlayback creates a playback of frames.
func NewPlayback(frames []Frame) *Playback {
	return &Playback{frames: frames}
}

// Poll reports true once every frame has been played.
func (p *Playback) Poll() bool {
	return p.next >= len(p.frames)
}

// Frame returns the next frame, or an empty frame past the end.
func (p *Playback) Frame() Frame {
	if p.next >= len(p.frames) {
		return Frame{}
	}
	f := p.frames[p.next]
	p.next++
	return f
}
