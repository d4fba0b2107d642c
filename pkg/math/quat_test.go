package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatSlerp(t *testing.T) {
	q1 := QuatIdentity()
	q2 := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	result0 := q1.Slerp(q2, 0)
	if math.Abs(float64(result0.W-q1.W)) > 0.001 {
		t.Errorf("Slerp at t=0 should equal q1")
	}

	result1 := q1.Slerp(q2, 1)
	if math.Abs(float64(result1.W-q2.W)) > 0.001 {
		t.Errorf("Slerp at t=1 should equal q2")
	}

	// For a 90 degree rotation, halfway is 45 degrees
	result5 := q1.Slerp(q2, 0.5)
	expectedW := float32(math.Cos(float64(math.Pi / 8)))
	if math.Abs(float64(result5.W-expectedW)) > 0.01 {
		t.Errorf("Slerp at t=0.5: expected W ~%v, got %v", expectedW, result5.W)
	}
}

func TestQuatDistance(t *testing.T) {
	a := Angles{Yaw: 10}.Quat()
	b := Angles{Yaw: 70}.Quat()
	if d := a.Distance(b); math.Abs(float64(d-60)) > 0.01 {
		t.Errorf("Distance = %v, want 60", d)
	}
	if d := a.Distance(a); d > 0.1 {
		t.Errorf("Distance to self = %v, want 0", d)
	}
}

func TestQuatAnglesRoundTrip(t *testing.T) {
	tests := []Angles{
		{},
		{Pitch: 30, Yaw: 45},
		{Pitch: -60, Yaw: -120},
		{Pitch: 10, Yaw: 170, Roll: 20},
	}
	for _, in := range tests {
		got := in.Quat().Angles()
		if math.Abs(float64(got.Pitch-in.Pitch)) > 0.01 ||
			math.Abs(float64(got.Yaw-in.Yaw)) > 0.01 ||
			math.Abs(float64(got.Roll-in.Roll)) > 0.01 {
			t.Errorf("Angles(%+v.Quat()) = %+v", in, got)
		}
	}
}

func TestQuatRightIsForwardCrossUp(t *testing.T) {
	q := Angles{Yaw: 37}.Quat()
	want := q.Forward().Cross(Up)
	if got := q.Right(); got.Sub(want).Length() > 0.001 {
		t.Errorf("Right() = %v, want %v", got, want)
	}
	if got := q.Left().Add(q.Right()); got.Length() > 0.001 {
		t.Errorf("Left() is not the opposite of Right(): %v", got)
	}
}
