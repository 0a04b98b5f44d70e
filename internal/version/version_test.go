package version

import "testing"

func TestDefaultsPresent(t *testing.T) {
	// Unstamped builds still report something usable in /api/v1/health.
	if Version == "" {
		t.Error("Version default must not be empty")
	}
	if Commit == "" {
		t.Error("Commit default must not be empty")
	}
}
