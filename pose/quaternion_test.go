package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const epsilon = 1e-9

func assertQuatApproxEqual(t *testing.T, expected, actual Quaternion, tol float64) {
	t.Helper()
	assert.InDelta(t, expected.W, actual.W, tol)
	assert.InDelta(t, expected.X, actual.X, tol)
	assert.InDelta(t, expected.Y, actual.Y, tol)
	assert.InDelta(t, expected.Z, actual.Z, tol)
}

func TestQuaternionMulIdentity(t *testing.T) {
	q := Quaternion{W: 0.5, X: 0.5, Y: 0.5, Z: 0.5}
	assertQuatApproxEqual(t, q, q.Mul(Identity), epsilon)
	assertQuatApproxEqual(t, q, Identity.Mul(q), epsilon)
}

func TestQuaternionInverseCancelsOut(t *testing.T) {
	q := Quaternion{W: 0.7071, X: 0.7071, Y: 0, Z: 0}.Normalize()
	result := q.Mul(q.Inverse())
	assertQuatApproxEqual(t, Identity, result, 1e-4)
}

func TestQuaternionNormalizeEnforcesNonNegativeW(t *testing.T) {
	q := Quaternion{W: -1, X: 0, Y: 0, Z: 0}
	n := q.Normalize()
	assert.GreaterOrEqual(t, n.W, 0.0)
	assertQuatApproxEqual(t, Identity, n, epsilon)
}

func TestQuaternionNormalizeUnitLength(t *testing.T) {
	q := Quaternion{W: 1, X: 2, Y: 3, Z: 4}
	n := q.Normalize()
	assert.InDelta(t, 1.0, n.Norm(), 1e-9)
}

func TestRotationMatrixOfIdentityIsEye(t *testing.T) {
	r := Identity.RotationMatrix()
	assert.InDelta(t, 1.0, r[0].X, epsilon)
	assert.InDelta(t, 1.0, r[1].Y, epsilon)
	assert.InDelta(t, 1.0, r[2].Z, epsilon)
	assert.InDelta(t, 0.0, r[0].Y, epsilon)
	assert.InDelta(t, 0.0, r[1].Z, epsilon)
}

func TestRotationMatrix90DegreesAboutZ(t *testing.T) {
	half := math.Pi / 4
	q := Quaternion{W: math.Cos(half), X: 0, Y: 0, Z: math.Sin(half)}
	v := Vector3{X: 1, Y: 0, Z: 0}
	rotated := Vector3{
		X: q.RotationMatrix()[0].X*v.X + q.RotationMatrix()[0].Y*v.Y + q.RotationMatrix()[0].Z*v.Z,
		Y: q.RotationMatrix()[1].X*v.X + q.RotationMatrix()[1].Y*v.Y + q.RotationMatrix()[1].Z*v.Z,
		Z: q.RotationMatrix()[2].X*v.X + q.RotationMatrix()[2].Y*v.Y + q.RotationMatrix()[2].Z*v.Z,
	}
	assert.InDelta(t, 0.0, rotated.X, 1e-6)
	assert.InDelta(t, 1.0, rotated.Y, 1e-6)
	assert.InDelta(t, 0.0, rotated.Z, 1e-6)
}
