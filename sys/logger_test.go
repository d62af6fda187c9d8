package sys

import (
	"os"
	"strings"
	"testing"
)

func TestGetLogPathFollowsFileLogging(t *testing.T) {
	t.Chdir(t.TempDir())
	defer InitLogger(true, false)

	InitLogger(true, true)
	path := GetLogPath()
	if !strings.HasSuffix(path, ".log") {
		t.Fatalf("Expected a .log path, got %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Log file was not created: %v", err)
	}

	InitLogger(true, false)
	if got := GetLogPath(); got != "" {
		t.Errorf("Expected no log path without file logging, got %q", got)
	}
}
