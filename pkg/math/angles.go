package math

import "math"

// Angles is an Euler rotation in degrees. Positive pitch looks down, positive
// yaw turns left (counter-clockwise seen from above). Yaw 0 faces +Z.
type Angles struct {
	Pitch float32 `yaml:"pitch" codec:"p"`
	Yaw   float32 `yaml:"yaw" codec:"y"`
	Roll  float32 `yaml:"roll" codec:"r"`
}

// Quat converts the angles to a rotation (yaw, then pitch, then roll).
func (a Angles) Quat() Quat {
	yaw := QuatFromAxisAngle(Up, Radians(a.Yaw))
	pitch := QuatFromAxisAngle(Vec3{1, 0, 0}, Radians(a.Pitch))
	roll := QuatFromAxisAngle(Forward, Radians(a.Roll))
	return yaw.Mul(pitch).Mul(roll)
}

// Forward returns the unit look direction.
func (a Angles) Forward() Vec3 {
	p, y := float64(Radians(a.Pitch)), float64(Radians(a.Yaw))
	return Vec3{
		X: float32(math.Cos(p) * math.Sin(y)),
		Y: float32(-math.Sin(p)),
		Z: float32(math.Cos(p) * math.Cos(y)),
	}
}

// ClampPitch returns a with pitch limited to [-limit, limit].
func (a Angles) ClampPitch(limit float32) Angles {
	a.Pitch = Clamp(a.Pitch, -limit, limit)
	return a
}

// WrapYaw returns a with yaw folded into (-180, 180].
func (a Angles) WrapYaw() Angles {
	y := float32(math.Mod(float64(a.Yaw), 360))
	switch {
	case y > 180:
		y -= 360
	case y <= -180:
		y += 360
	}
	a.Yaw = y
	return a
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float32) float32 {
	return rad * 180 / math.Pi
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExpDecay returns the interpolation fraction that covers 1-e^(-rate*dt) of the
// remaining distance, so smoothing is independent of frame rate.
func ExpDecay(rate, dt float32) float32 {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return float32(1 - math.Exp(-float64(rate*dt)))
}
