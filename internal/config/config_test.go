package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Simulation.TickRate != 50 {
		t.Errorf("expected tick rate 50, got %d", cfg.Simulation.TickRate)
	}
	if cfg.Movement.Speed != 160 || cfg.Movement.RunSpeed != 290 || cfg.Movement.DuckSpeed != 90 {
		t.Errorf("unexpected speeds: %+v", cfg.Movement)
	}
	if cfg.Movement.StandingHeight != 64 || cfg.Movement.DuckingHeight != 32 {
		t.Errorf("unexpected heights: %+v", cfg.Movement)
	}
	if cfg.Camera.Distance != 0 {
		t.Errorf("expected first person by default, got distance %f", cfg.Camera.Distance)
	}
	if cfg.Camera.PitchLimit != 89.9 {
		t.Errorf("expected pitch limit 89.9, got %f", cfg.Camera.PitchLimit)
	}
	if cfg.Presentation.TurnThreshold != 50 {
		t.Errorf("expected turn threshold 50, got %f", cfg.Presentation.TurnThreshold)
	}
	if cfg.Input.Bindings["jump"] != "Space" {
		t.Errorf("expected jump bound to Space, got %q", cfg.Input.Bindings["jump"])
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestTickInterval(t *testing.T) {
	cfg := Default()
	cfg.Simulation.TickRate = 100
	if got := cfg.TickInterval(); got != 10*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 10ms", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
simulation:
  tick_rate: 66
  gravity: 800
  respawn_delay: 5s

movement:
  run_speed: 320
  duck_speed: 70

camera:
  distance: 120
  sensitivity: 0.2

input:
  bindings:
    jump: "J"

logging:
  level: "debug"
  log_file: "dubz.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Simulation.TickRate != 66 {
		t.Errorf("expected tick rate 66, got %d", cfg.Simulation.TickRate)
	}
	if cfg.Simulation.RespawnDelay != 5*time.Second {
		t.Errorf("expected respawn delay 5s, got %v", cfg.Simulation.RespawnDelay)
	}
	if cfg.Movement.RunSpeed != 320 || cfg.Movement.DuckSpeed != 70 {
		t.Errorf("speeds not loaded: %+v", cfg.Movement)
	}
	if cfg.Camera.Distance != 120 || cfg.Camera.Sensitivity != 0.2 {
		t.Errorf("camera not loaded: %+v", cfg.Camera)
	}
	if cfg.Logging.LogFile != "dubz.log" {
		t.Errorf("expected log file dubz.log, got %s", cfg.Logging.LogFile)
	}

	// Unset values keep their defaults
	if cfg.Movement.Speed != 160 {
		t.Errorf("expected default walk speed 160, got %f", cfg.Movement.Speed)
	}
	if cfg.Input.Bindings["jump"] != "J" {
		t.Errorf("expected jump rebound to J, got %q", cfg.Input.Bindings["jump"])
	}
	if cfg.Input.Bindings["forward"] != "W" {
		t.Errorf("expected default forward binding kept, got %q", cfg.Input.Bindings["forward"])
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "movement:\n  ducking_height: 80\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error for ducking height above standing height")
	}
	if !strings.Contains(err.Error(), "ducking_height") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero tick rate", func(c *Config) { c.Simulation.TickRate = 0 }, "tick_rate"},
		{"negative distance", func(c *Config) { c.Camera.Distance = -1 }, "camera.distance"},
		{"distance beyond max", func(c *Config) { c.Camera.Distance = 1000 }, "camera.distance"},
		{"pitch limit at 90", func(c *Config) { c.Camera.PitchLimit = 90 }, "pitch_limit"},
		{"zero radius", func(c *Config) { c.Body.Radius = 0 }, "body.radius"},
		{"clearance scale too large", func(c *Config) { c.Movement.ClearanceRadiusScale = 1.5 }, "clearance_radius_scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention %s", err, tt.field)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Camera.Distance = 150
	cfg.Movement.JumpForce = 350

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Camera.Distance != 150 {
		t.Errorf("expected distance 150, got %f", loaded.Camera.Distance)
	}
	if loaded.Movement.JumpForce != 350 {
		t.Errorf("expected jump force 350, got %f", loaded.Movement.JumpForce)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to list config dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only config.yaml after save, got %d entries", len(entries))
	}
}

func TestWatchSeesSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Default().SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	cfg := Default()
	cfg.Presentation.TurnRate = 4
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	select {
	case got := <-w.Updates:
		if got.Presentation.TurnRate != 4 {
			t.Errorf("expected turn rate 4, got %f", got.Presentation.TurnRate)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("camera:\n  distance: 10\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("camera:\n  distance: 25\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-w.Updates:
		if cfg.Camera.Distance != 25 {
			t.Errorf("expected reloaded distance 25, got %f", cfg.Camera.Distance)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
