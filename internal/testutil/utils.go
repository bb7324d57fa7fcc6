package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger for use in tests, matching the injected
// *log.Logger every component takes.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}
