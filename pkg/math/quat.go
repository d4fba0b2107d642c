package math

import "math"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Slerp performs spherical linear interpolation between two quaternions.
// t should be in range [0, 1].
func (q Quat) Slerp(other Quat, t float32) Quat {
	dot := q.Dot(other)

	// Take the shorter path
	if dot < 0 {
		other = Quat{X: -other.X, Y: -other.Y, Z: -other.Z, W: -other.W}
		dot = -dot
	}

	// Nearly parallel: acos is unstable, fall back to nlerp
	if dot > 0.9995 {
		return Quat{
			X: q.X + t*(other.X-q.X),
			Y: q.Y + t*(other.Y-q.Y),
			Z: q.Z + t*(other.Z-q.Z),
			W: q.W + t*(other.W-q.W),
		}.Normalize()
	}

	theta0 := float32(math.Acos(float64(dot)))
	theta := theta0 * t
	sinTheta := float32(math.Sin(float64(theta)))
	sinTheta0 := float32(math.Sin(float64(theta0)))

	s0 := float32(math.Cos(float64(theta))) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Forward returns the rotated +Z axis.
func (q Quat) Forward() Vec3 { return q.Rotate(Forward) }

// Backward returns the rotated -Z axis.
func (q Quat) Backward() Vec3 { return q.Rotate(Forward.Neg()) }

// Left returns the rotated +X axis.
func (q Quat) Left() Vec3 { return q.Rotate(Vec3{1, 0, 0}) }

// Right returns the rotated -X axis (forward x up).
func (q Quat) Right() Vec3 { return q.Rotate(Vec3{-1, 0, 0}) }

// Angles decomposes the rotation into pitch/yaw/roll degrees.
func (q Quat) Angles() Angles {
	f := q.Forward()
	x := q.Left()
	u := q.Rotate(Up)
	pitch := math.Asin(float64(Clamp(-f.Y, -1, 1)))
	yaw := math.Atan2(float64(f.X), float64(f.Z))
	roll := math.Atan2(float64(x.Y), float64(u.Y))
	return Angles{
		Pitch: Degrees(float32(pitch)),
		Yaw:   Degrees(float32(yaw)),
		Roll:  Degrees(float32(roll)),
	}
}

// Yaw returns the heading component of the rotation in degrees.
func (q Quat) Yaw() float32 {
	f := q.Forward()
	return Degrees(float32(math.Atan2(float64(f.X), float64(f.Z))))
}

// Distance returns the angle in degrees needed to rotate q onto other.
func (q Quat) Distance(other Quat) float32 {
	d := q.Normalize().Dot(other.Normalize())
	if d < 0 {
		d = -d
	}
	return Degrees(2 * float32(math.Acos(float64(Clamp(d, 0, 1)))))
}
