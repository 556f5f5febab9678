package throttle

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain enables goroutine leak detection for all tests in this package.
// This catches cron goroutines left behind by janitor tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
