package pose

import (
	"os"

	"github.com/golobby/cast"
)

// testingSeam holds the optional environment-variable overrides used by
// integration tests to pin the service to a fixed pose instead of driving
// it from live switchboard topics (§6). Every field defaults to its zero
// value, which leaves normal runtime prediction untouched; the seam only
// activates when an operator explicitly sets one of the variables.
type testingSeam struct {
	fakePose      bool
	comparisonLog bool
}

const (
	envFakePose      = "ILLIXR_POSE_PREDICTION_FAKE_POSE"
	envComparisonLog = "ILLIXR_POSE_PREDICTION_COMPARISON_LOG"
)

// loadTestingSeam parses the seam's environment variables with
// github.com/golobby/cast for permissive string-to-bool coercion. An unset
// or empty variable, or one cast cannot parse, counts as false.
func loadTestingSeam() testingSeam {
	return testingSeam{
		fakePose:      boolEnv(envFakePose),
		comparisonLog: boolEnv(envComparisonLog),
	}
}

func boolEnv(name string) bool {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return false
	}
	v, err := cast.ToBool(raw)
	if err != nil {
		return false
	}
	return v
}
