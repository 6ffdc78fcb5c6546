package pose

import (
	"sync"
	"sync/atomic"
	"time"

	dataflow "github.com/illixr/dataflow-core"
)

// Service is the pose-prediction capability every rendering and tracking
// plugin looks up from the registry (§4.8). It predicts a fast pose for an
// arbitrary future timestamp by integrating IMU samples forward from the
// most recent slow (SLAM) pose, and separately exposes a true (ground
// truth) pose when one is available.
type Service interface {
	GetFastPose() FastPose
	GetFastPoseAt(futureTimestamp time.Duration) FastPose
	GetTruePose() Pose
	SetOffset(rawOTimesOffset Quaternion)
	GetOffset() Quaternion
	FastPoseReliable() bool
	TruePoseReliable() bool
	CorrectPose(p Pose) Pose

	// SetFakePose pins the poses GetFakeRenderPose/GetFakeWarpPose return
	// while the ILLIXR_POSE_PREDICTION_FAKE_POSE testing seam is enabled
	// (§6, source's ILLIXR_COMPARE_IMAGES image-comparison mode).
	SetFakePose(render, warp FastPose)
	GetFakeRenderPose() FastPose
	GetFakeWarpPose() FastPose
}

// predictionService is the default Service implementation, grounded on
// plugins/pose_prediction/plugin.cpp's pose_prediction_impl.
type predictionService struct {
	clock *dataflow.RelativeClock

	slowPose          *dataflow.BufferedReader[Pose]
	imuRaw            *dataflow.BufferedReader[IMUSample]
	truePose          *dataflow.BufferedReader[Pose]
	groundTruthOffset *dataflow.BufferedReader[Vector3]
	vsyncEstimate     *dataflow.BufferedReader[time.Duration]

	firstTime atomic.Bool

	offsetMu sync.RWMutex
	offset   Quaternion

	seam   testingSeam
	logger dataflow.Logger

	fakeMu         sync.RWMutex
	fakeRenderPose FastPose
	fakeWarpPose   FastPose
}

// NewService builds the pose-prediction service against sb, looking up the
// process RelativeClock from the registry. Every reader is a
// BufferedReader: the service only ever wants the latest value of each
// topic, never a queued stream of historical ones (§4.8).
func NewService(sb *dataflow.Switchboard, registry *dataflow.Registry) Service {
	clock := dataflow.MustLookupService[*dataflow.RelativeClock](registry)

	return &predictionService{
		clock:             clock,
		slowPose:          dataflow.GetBufferedReader[Pose](sb, "slow_pose"),
		imuRaw:            dataflow.GetBufferedReader[IMUSample](sb, "imu_raw"),
		truePose:          dataflow.GetBufferedReader[Pose](sb, "true_pose"),
		groundTruthOffset: dataflow.GetBufferedReader[Vector3](sb, "ground_truth_offset"),
		vsyncEstimate:     dataflow.GetBufferedReader[time.Duration](sb, "vsync_estimate"),
		firstTime:         atomic.Bool{},
		offset:            Identity,
		seam:              loadTestingSeam(),
		logger:            dataflow.NewSlogLogger(nil),
	}
}

// GetFastPose predicts to the next vsync if a vsync estimate topic is
// populated, otherwise falls back to predicting to "now" as an approximation
// (§4.8, matching the source's documented temporary approximation until
// real vsync estimation exists).
func (s *predictionService) GetFastPose() FastPose {
	if estimate, ok := s.vsyncEstimate.Latest(); ok {
		return s.GetFastPoseAt(estimate.Value)
	}
	return s.GetFastPoseAt(s.clock.Now())
}

// GetFastPoseAt predicts the pose at futureTimestamp by RK4-integrating the
// most recent IMU sample's window forward. If there is no slow pose yet it
// returns the corrected identity pose; if there is a slow pose but no IMU
// sample, it degrades to returning the corrected slow pose with prediction
// skipped (§4.8 edge case, §8 scenario S5).
func (s *predictionService) GetFastPoseAt(futureTimestamp time.Duration) FastPose {
	slow, haveSlow := s.slowPose.Latest()
	if !haveSlow {
		return FastPose{
			Pose:                s.CorrectPose(Pose{Orientation: Identity}),
			PredictComputedTime: s.clock.Now(),
			PredictTargetTime:   futureTimestamp,
		}
	}

	imu, haveIMU := s.imuRaw.Latest()
	if !haveIMU {
		return FastPose{
			Pose:                s.CorrectPose(slow.Value),
			PredictComputedTime: s.clock.Now(),
			PredictTargetTime:   futureTimestamp,
		}
	}

	dt := (futureTimestamp - imu.Value.IMUTime).Seconds()
	predicted := PredictMeanRK4(dt,
		State{Orientation: imu.Value.Quat, Velocity: imu.Value.Vel, Position: imu.Value.Pos},
		imu.Value.WHat, imu.Value.AHat, imu.Value.WHat2, imu.Value.AHat2)

	predictorIMUTime := imu.Value.IMUTime
	swappedPosition, rawOrientation := axisSwap(predicted.Position, predicted.Orientation)

	// Make the first valid fast pose be straight ahead (§4.8 "offset latch
	// on first call"): the offset is latched from this call's raw
	// orientation before it is applied, so the pose returned by the very
	// call that latches the offset already reads as identity — matching
	// the contract in §8 scenario S6, rather than the source's literal
	// ordering where only later calls benefit from the freshly-latched
	// offset.
	if s.firstTime.CompareAndSwap(false, true) {
		s.offsetMu.Lock()
		s.offset = rawOrientation.Inverse()
		s.offsetMu.Unlock()
	}

	predictedPose := Pose{
		SensorTime:  predictorIMUTime,
		Position:    swappedPosition,
		Orientation: s.applyOffset(rawOrientation),
	}

	return FastPose{
		Pose:                predictedPose,
		PredictComputedTime: s.clock.Now(),
		PredictTargetTime:   futureTimestamp,
	}
}

// GetTruePose returns the ground-truth pose minus the ground-truth offset,
// or an identity pose (zero position, identity orientation) stamped with now
// if either stream is unpopulated, corrected in both cases. Both
// streams are checked together rather than independently nil-checked,
// because assuming only one producer writes both in lockstep is not a
// guarantee this core makes (§9).
func (s *predictionService) GetTruePose() Pose {
	truePose, haveTrue := s.truePose.Latest()
	offset, haveOffset := s.groundTruthOffset.Latest()

	var offsetPose Pose
	if haveTrue && haveOffset {
		offsetPose = truePose.Value
		offsetPose.Position = offsetPose.Position.Sub(offset.Value)
	} else {
		offsetPose = Pose{
			SensorTime:  s.clock.Now(),
			Position:    Vector3{},
			Orientation: Identity,
		}
	}

	return s.CorrectPose(offsetPose)
}

// SetOffset rebases the session offset so that applying it to
// rawOTimesOffset yields the identity orientation (§4.8 "set_offset
// relative-rebasing formula").
func (s *predictionService) SetOffset(rawOTimesOffset Quaternion) {
	s.offsetMu.Lock()
	defer s.offsetMu.Unlock()
	rawO := rawOTimesOffset.Mul(s.offset.Inverse())
	s.offset = rawO.Inverse()
}

// GetOffset returns the current session offset.
func (s *predictionService) GetOffset() Quaternion {
	s.offsetMu.RLock()
	defer s.offsetMu.RUnlock()
	return s.offset
}

func (s *predictionService) applyOffset(orientation Quaternion) Quaternion {
	s.offsetMu.RLock()
	defer s.offsetMu.RUnlock()
	return orientation.Mul(s.offset)
}

// SetFakePose records the render and warp poses to return while the
// fake-pose testing seam is enabled, letting an image-comparison harness
// replay a fixed reference pose instead of driving the real prediction
// pipeline (§6, source's setup_fake_poses/fake_render_pose_/fake_warp_pose_).
func (s *predictionService) SetFakePose(render, warp FastPose) {
	s.fakeMu.Lock()
	defer s.fakeMu.Unlock()
	s.fakeRenderPose = render
	s.fakeWarpPose = warp
}

// GetFakeRenderPose returns the pinned render pose when the fake-pose seam
// is enabled, otherwise it is exactly GetFastPose (source's
// get_fake_render_pose).
func (s *predictionService) GetFakeRenderPose() FastPose {
	if !s.seam.fakePose {
		return s.GetFastPose()
	}
	s.fakeMu.RLock()
	pose := s.fakeRenderPose
	s.fakeMu.RUnlock()

	if s.seam.comparisonLog {
		s.logPoseComparison("render", pose)
	}
	return pose
}

// GetFakeWarpPose is GetFakeRenderPose's counterpart for the warp pose
// (source's get_fake_warp_pose).
func (s *predictionService) GetFakeWarpPose() FastPose {
	if !s.seam.fakePose {
		return s.GetFastPose()
	}
	s.fakeMu.RLock()
	pose := s.fakeWarpPose
	s.fakeMu.RUnlock()

	if s.seam.comparisonLog {
		s.logPoseComparison("warp", pose)
	}
	return pose
}

// logPoseComparison reports how far the pinned fake pose has drifted from
// what live prediction would have produced, for the
// ILLIXR_POSE_PREDICTION_COMPARISON_LOG seam.
func (s *predictionService) logPoseComparison(which string, fake FastPose) {
	real := s.GetFastPose()
	s.logger.Info("fake pose comparison",
		"which", which,
		"fake_position", fake.Pose.Position,
		"real_position", real.Pose.Position,
	)
}

// FastPoseReliable reports whether both a slow pose and an IMU sample have
// been observed; until then any fast pose returned is a best-effort
// placeholder, not a real prediction (§4.8).
func (s *predictionService) FastPoseReliable() bool {
	_, haveSlow := s.slowPose.Latest()
	_, haveIMU := s.imuRaw.Latest()
	return haveSlow && haveIMU
}

// TruePoseReliable reports whether a ground-truth pose stream is present at
// all; not every deployment has one.
func (s *predictionService) TruePoseReliable() bool {
	_, have := s.truePose.Latest()
	return have
}

// CorrectPose remaps a pose from the SLAM backend's axis convention to the
// renderer's, then applies the session offset (§4.8 "coordinate correction
// formulas"): p' = (-p.y, p.z, -p.x); q' = (w, -q.y, q.z, -q.x); offset
// applied last.
func (s *predictionService) CorrectPose(p Pose) Pose {
	swappedPosition, rawOrientation := axisSwap(p.Position, p.Orientation)
	return Pose{
		SensorTime:  p.SensorTime,
		Position:    swappedPosition,
		Orientation: s.applyOffset(rawOrientation),
	}
}

// axisSwap remaps a SLAM-frame position and orientation to the renderer's
// axis convention, without applying any session offset: p' = (-p.y, p.z,
// -p.x); q' = (w, -q.y, q.z, -q.x).
func axisSwap(position Vector3, orientation Quaternion) (Vector3, Quaternion) {
	swappedPosition := Vector3{
		X: -position.Y,
		Y: position.Z,
		Z: -position.X,
	}
	rawOrientation := Quaternion{
		W: orientation.W,
		X: -orientation.Y,
		Y: orientation.Z,
		Z: -orientation.X,
	}
	return swappedPosition, rawOrientation
}
