// Package pose implements the pose-prediction service (§4.8): an IMU
// integrator that extrapolates the most recent slow (SLAM) pose forward to
// a requested future timestamp using a fourth-order Runge-Kutta integration
// of the intervening IMU samples, plus the coordinate-correction and
// session-offset bookkeeping every consumer's pose passes through.
package pose

import "math"

// Vector3 is a plain 3-element vector; used for position, velocity,
// angular velocity, and linear acceleration throughout this package.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Quaternion is a Hamilton quaternion (w, x, y, z). Unlike a bare
// Eigen::Quaternion, every operation here that is expected to yield a unit
// orientation goes through Normalize, which also enforces w >= 0 so two
// antipodal quaternions representing the same rotation don't numerically
// drift apart across repeated integration steps (mirrors the source's
// normalize() helper in runge-kutta.hpp).
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the no-rotation quaternion.
var Identity = Quaternion{W: 1}

func (q Quaternion) Add(o Quaternion) Quaternion {
	return Quaternion{q.W + o.W, q.X + o.X, q.Y + o.Y, q.Z + o.Z}
}

func (q Quaternion) Scale(s float64) Quaternion {
	return Quaternion{q.W * s, q.X * s, q.Y * s, q.Z * s}
}

// Mul is Hamilton product q*o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Conjugate negates the vector part; for a unit quaternion this is also
// the inverse.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Inverse is the multiplicative inverse, q* / |q|^2.
func (q Quaternion) Inverse() Quaternion {
	n2 := q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
	return q.Conjugate().Scale(1 / n2)
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize returns q scaled to unit length, flipping sign first if W < 0
// so the same rotation always maps to the same hemisphere of quaternion
// space (matches runge-kutta.hpp's normalize()).
func (q Quaternion) Normalize() Quaternion {
	if q.W < 0 {
		q = q.Scale(-1)
	}
	n := q.Norm()
	if n == 0 {
		return Identity
	}
	return q.Scale(1 / n)
}

// RotationMatrix returns the 3x3 rotation matrix equivalent to q, assumed
// to already be unit length, as rows.
func (q Quaternion) RotationMatrix() [3]Vector3 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return [3]Vector3{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// RotateTranspose applies the transpose (inverse, for a unit quaternion) of
// q's rotation matrix to v, matching runge-kutta.hpp's R_Gto0.transpose() *
// l_acc step in v_dot.
func (q Quaternion) RotateTranspose(v Vector3) Vector3 {
	r := q.RotationMatrix()
	return Vector3{
		X: r[0].X*v.X + r[1].X*v.Y + r[2].X*v.Z,
		Y: r[0].Y*v.X + r[1].Y*v.Y + r[2].Y*v.Z,
		Z: r[0].Z*v.X + r[1].Z*v.Y + r[2].Z*v.Z,
	}
}

// skew builds the skew-symmetric cross-product matrix of v (Trawny05b eq. 6).
func skew(v Vector3) [3]Vector3 {
	return [3]Vector3{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}
}

// omega builds the 4x4 Omega matrix used to propagate a quaternion
// derivative from an angular velocity (Trawny05b eq. 48).
func omega(w Vector3) [4][4]float64 {
	s := skew(w)
	var m [4][4]float64
	m[0][0], m[0][1], m[0][2] = -s[0].X, -s[0].Y, -s[0].Z
	m[1][0], m[1][1], m[1][2] = -s[1].X, -s[1].Y, -s[1].Z
	m[2][0], m[2][1], m[2][2] = -s[2].X, -s[2].Y, -s[2].Z
	m[0][3], m[1][3], m[2][3] = w.X, w.Y, w.Z
	m[3][0], m[3][1], m[3][2] = -w.X, -w.Y, -w.Z
	return m
}

// qDot returns the quaternion derivative ½Ω(w)·dq, dq given as (x,y,z,w) to
// match the source's asVector() ordering before the matrix multiply.
func qDot(w Vector3, dq Quaternion) Quaternion {
	m := omega(w)
	vec := [4]float64{dq.X, dq.Y, dq.Z, dq.W}
	var out [4]float64
	for i := 0; i < 4; i++ {
		var sum float64
		for j := 0; j < 4; j++ {
			sum += m[i][j] * vec[j]
		}
		out[i] = 0.5 * sum
	}
	return Quaternion{X: out[0], Y: out[1], Z: out[2], W: out[3]}
}

// deltaQ returns the normalized quaternion dq_0 + 0.5*k, matching
// runge-kutta.hpp's delta_q.
func deltaQ(k Quaternion) Quaternion {
	dq := Identity.Add(k.Scale(0.5))
	n := dq.Norm()
	if n == 0 {
		return Identity
	}
	return dq.Scale(1 / n)
}
