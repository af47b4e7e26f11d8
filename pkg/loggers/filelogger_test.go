package loggers_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bigmler/bigmler/pkg/loggers"
	"github.com/stretchr/testify/assert"
)

func TestFormatTimestampedLogFileName(t *testing.T) {
	timeNow := time.Now().UTC().Format("20060102T150405Z")
	expectedName := fmt.Sprintf("%s-%s.log", "basename", timeNow)

	actualName := loggers.FormatTimestampedLogFileName("basename")

	if expectedName != actualName {
		t.Errorf("Expected: %s, got: %s", expectedName, actualName)
	}
}

func TestNewFileLogger(t *testing.T) {
	dir := t.TempDir()

	logger, logFile, err := loggers.NewFileLogger("bigmler", dir)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "log"), filepath.Dir(logFile))

	logger.Info("created source", loggers.ResourceField("source/5143a51a37203f2cf7000972"))
	_ = logger.Sync()

	content, err := os.ReadFile(logFile)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "source/5143a51a37203f2cf7000972"))

	_, _, err = loggers.NewFileLogger("bigmler", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
