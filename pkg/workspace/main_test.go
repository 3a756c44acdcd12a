package workspace

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures Close stops every timer and worker.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
