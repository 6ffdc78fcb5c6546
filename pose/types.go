package pose

import "time"

// Pose is a single positioned, oriented sample at a point in relative time
// (the source's pose_type).
type Pose struct {
	SensorTime  time.Duration
	Position    Vector3
	Orientation Quaternion
}

// IMUSample is one raw IMU reading plus the two-sided angular
// velocity/linear acceleration window the integrator interpolates across
// (the source's imu_raw_type: quat/vel/pos are the slow pose's state at the
// time of this sample, w_hat/a_hat are this sample's measurement, and
// w_hat2/a_hat2 are the next sample's, giving the integrator both
// endpoints of the interval it's asked to predict across).
type IMUSample struct {
	IMUTime     time.Duration
	Quat        Quaternion
	Vel         Vector3
	Pos         Vector3
	WHat, AHat  Vector3
	WHat2, AHat2 Vector3
}

// FastPose is a predicted pose plus the bookkeeping timestamps describing
// when it was computed and what instant it was predicted for (the source's
// fast_pose_type).
type FastPose struct {
	Pose                 Pose
	PredictComputedTime  time.Duration
	PredictTargetTime    time.Duration
}
