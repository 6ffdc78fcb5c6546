package pose

// Gravity is subtracted from the rotated specific-force measurement every
// integration step, matching runge-kutta.hpp's Gravity vector (z-up, 9.81
// m/s^2).
var Gravity = Vector3{Z: 9.81}

// State is the integrator's state vector: orientation, velocity, and
// position, all in the IMU's reference frame (runge-kutta.hpp's StatePlus).
type State struct {
	Orientation Quaternion
	Velocity    Vector3
	Position    Vector3
}

// vDot computes the velocity derivative for one RK stage: the measured
// specific force rotated into the world frame by dq*q, minus gravity.
func vDot(dq, q Quaternion, linearAccel Vector3) Vector3 {
	temp := dq.Mul(q).Normalize()
	return temp.RotateTranspose(linearAccel).Sub(Gravity)
}

// PredictMeanRK4 integrates state forward by dt seconds given the IMU's
// angular velocity and linear acceleration at the start (angVel, linAccel)
// and end (angVel2, linAccel2) of the interval, linearly interpolating
// between them at the RK4 midpoints exactly as runge-kutta.hpp's
// predict_mean_rk4 does.
func PredictMeanRK4(dt float64, state State, angVel, linAccel, angVel2, linAccel2 Vector3) State {
	if dt == 0 {
		return state
	}

	deltaAngVel := angVel2.Sub(angVel).Scale(1 / dt)
	deltaLinAccel := linAccel2.Sub(linAccel).Scale(1 / dt)

	q0 := state.Orientation
	p0 := state.Position
	v0 := state.Velocity

	av := angVel
	la := linAccel

	// orientation: k1..k4
	q0Dot := qDot(av, Identity)
	k1q := q0Dot.Scale(dt)

	av = av.Add(deltaAngVel.Scale(0.5 * dt))

	dq1 := deltaQ(k1q)
	q1Dot := qDot(av, dq1)
	k2q := q1Dot.Scale(dt)

	dq2 := deltaQ(k2q)
	q2Dot := qDot(av, dq2)
	k3q := q2Dot.Scale(dt)

	av = av.Add(deltaAngVel.Scale(0.5 * dt))
	dq3 := deltaQ(k3q.Scale(2))
	q3Dot := qDot(av, dq3)
	k4q := q3Dot.Scale(dt)

	// velocity: k1..k4
	v0Dot := vDot(Identity, q0, la)
	k1v := v0Dot.Scale(dt)

	la = la.Add(deltaLinAccel.Scale(0.5 * dt))
	v1 := v0.Add(k1v.Scale(0.5))
	k2v := vDot(dq1, q0, la).Scale(dt)

	v2 := v0.Add(k2v.Scale(0.5))
	k3v := vDot(dq2, q0, la).Scale(dt)

	la = la.Add(deltaLinAccel.Scale(0.5 * dt))
	v3 := v0.Add(k3v) // delta_v(v0, 2*k3v) == v0 + 0.5*(2*k3v)
	k4v := vDot(dq3, q0, la).Scale(dt)

	// position: k1..k4, driven by the velocity samples above
	k1p := v0.Scale(dt)
	k2p := v1.Scale(dt)
	k3p := v2.Scale(dt)
	k4p := v3.Scale(dt)

	orientation := rk4Solve(Identity, k1q, k2q, k3q, k4q).Normalize()
	orientation = orientation.Mul(q0)

	return State{
		Orientation: orientation,
		Position:    rk4SolveVec(p0, k1p, k2p, k3p, k4p),
		Velocity:    rk4SolveVec(v0, k1v, k2v, k3v, k4v),
	}
}

func rk4Solve(yn, k1, k2, k3, k4 Quaternion) Quaternion {
	return yn.Add(k1.Add(k2.Add(k3).Scale(2)).Add(k4).Scale(1.0 / 6.0))
}

func rk4SolveVec(yn, k1, k2, k3, k4 Vector3) Vector3 {
	sum := k1.Add(k2.Add(k3).Scale(2)).Add(k4)
	return yn.Add(sum.Scale(1.0 / 6.0))
}
