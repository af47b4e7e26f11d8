package checkpoint

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/util"
	"go.uber.org/zap"
)

// IsResourceCreated reads the first id stored in path/logName and checks it
// is a valid id of one of the given types.
func IsResourceCreated(path string, logName string, types ...bigml.ResourceType) (bool, string) {
	file, err := os.Open(filepath.Join(path, logName))
	if err != nil {
		return false, ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return false, ""
	}
	id := strings.TrimSpace(scanner.Text())
	if !bigml.IsResourceID(id, types...) {
		return false, ""
	}
	return true, id
}

// AreResourcesCreated reads the ids stored in path/logName. It stops at the
// first invalid id and succeeds only when exactly n valid ids were read.
// The ids read so far are returned in any case.
func AreResourcesCreated(path string, logName string, n int, types ...bigml.ResourceType) (bool, []string) {
	var ids []string
	file, err := os.Open(filepath.Join(path, logName))
	if err != nil {
		return false, ids
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		if !bigml.IsResourceID(id, types...) {
			return false, ids
		}
		ids = append(ids, id)
	}

	return len(ids) == n, ids
}

// ArePredictionsCreated checks that predictionsFile has one line per test
// row. A file with a different count is removed.
func ArePredictionsCreated(predictionsFile string, n int) bool {
	lines, err := util.FileNumberOfLines(predictionsFile)
	if err != nil {
		return false
	}
	if lines != n {
		_ = os.Remove(predictionsFile)
		return false
	}
	return true
}

type MessageLogger interface {
	LogMessage(message string, console bool)
}

// Checker runs the resume checks of a session directory, logging message
// whenever a stage has to be computed again.
type Checker struct {
	Dir     string
	Log     MessageLogger
	Console bool
	Logger  *zap.Logger
}

func (c Checker) Resource(logName string, message string, types ...bigml.ResourceType) (bool, string) {
	ok, id := IsResourceCreated(c.Dir, logName, types...)
	c.report(logName, ok, message)
	return ok, id
}

func (c Checker) Resources(logName string, n int, message string, types ...bigml.ResourceType) (bool, []string) {
	ok, ids := AreResourcesCreated(c.Dir, logName, n, types...)
	c.report(logName, ok, message)
	return ok, ids
}

func (c Checker) Predictions(predictionsFile string, n int, message string) bool {
	ok := ArePredictionsCreated(predictionsFile, n)
	c.report(predictionsFile, ok, message)
	return ok
}

func (c Checker) report(checked string, ok bool, message string) {
	if c.Logger != nil {
		c.Logger.Debug("checkpoint", zap.String("checked", checked), zap.Bool("resumed", ok))
	}
	if !ok && message != "" && c.Log != nil {
		c.Log.LogMessage(message, c.Console)
	}
}
