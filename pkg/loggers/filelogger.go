package loggers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger creates a JSON logger writing to a timestamped file in the
// "log" folder of the given session directory.
func NewFileLogger(name string, sessionDir string) (*zap.Logger, string, error) {
	logPath := filepath.Join(sessionDir, "log")
	if _, err := os.Stat(logPath); err != nil {
		rootStat, err := os.Stat(sessionDir)
		if err != nil {
			return nil, "", fmt.Errorf("failed to find session path '%s': %w", sessionDir, err)
		}

		if err = os.MkdirAll(logPath, rootStat.Mode().Perm()); err != nil {
			return nil, "", fmt.Errorf("failed to create log path '%s'", logPath)
		}
	}

	logFilePath := filepath.Join(logPath, FormatTimestampedLogFileName(name))

	f, err := os.Create(logFilePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file '%s': %w", logFilePath, err)
	}
	f.Close()

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     60, // days
	})
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		w,
		zap.DebugLevel,
	)

	return zap.New(core), logFilePath, nil
}

func FormatTimestampedLogFileName(name string) string {
	return fmt.Sprintf("%s-%s.log", name, time.Now().UTC().Format("20060102T150405Z"))
}
