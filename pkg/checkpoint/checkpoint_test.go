package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sourceID = "source/5143a51a37203f2cf7000972"
	modelID1 = "model/5143a51a37203f2cf7000973"
	modelID2 = "model/5143a51a37203f2cf7000974"
)

type recordingLogger struct {
	messages []string
}

func (r *recordingLogger) LogMessage(message string, console bool) {
	r.messages = append(r.messages, message)
}

func TestCheckpoint(t *testing.T) {
	t.Run("IsResourceCreated()", testIsResourceCreatedFunc())
	t.Run("AreResourcesCreated()", testAreResourcesCreatedFunc())
	t.Run("ArePredictionsCreated()", testArePredictionsCreatedFunc())
	t.Run("Checker.Resource() - logs when not resumed", testCheckerFunc())
}

func writeLog(t *testing.T, dir string, name string, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func testIsResourceCreatedFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()

		ok, id := IsResourceCreated(dir, "source", bigml.SourceType)
		assert.False(t, ok)
		assert.Empty(t, id)

		writeLog(t, dir, "source", sourceID+"\n")
		ok, id = IsResourceCreated(dir, "source", bigml.SourceType)
		assert.True(t, ok)
		assert.Equal(t, sourceID, id)

		ok, _ = IsResourceCreated(dir, "source", bigml.DatasetType)
		assert.False(t, ok)

		writeLog(t, dir, "dataset", "not an id\n")
		ok, _ = IsResourceCreated(dir, "dataset")
		assert.False(t, ok)
	}
}

func testAreResourcesCreatedFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()

		ok, ids := AreResourcesCreated(dir, "models", 2, bigml.ModelType)
		assert.False(t, ok)
		assert.Empty(t, ids)

		writeLog(t, dir, "models", modelID1+"\n")
		ok, ids = AreResourcesCreated(dir, "models", 2, bigml.ModelType)
		assert.False(t, ok)
		assert.Equal(t, []string{modelID1}, ids)

		writeLog(t, dir, "models", modelID1+"\n"+modelID2+"\n")
		ok, ids = AreResourcesCreated(dir, "models", 2, bigml.ModelType)
		assert.True(t, ok)
		assert.Equal(t, []string{modelID1, modelID2}, ids)

		writeLog(t, dir, "models", modelID1+"\nbroken\n"+modelID2+"\n")
		ok, ids = AreResourcesCreated(dir, "models", 2, bigml.ModelType)
		assert.False(t, ok)
		assert.Equal(t, []string{modelID1}, ids)
	}
}

func testArePredictionsCreatedFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		predictions := filepath.Join(dir, "predictions.csv")

		assert.False(t, ArePredictionsCreated(predictions, 2))

		writeLog(t, dir, "predictions.csv", "Iris-setosa\nIris-virginica\n")
		assert.True(t, ArePredictionsCreated(predictions, 2))

		assert.False(t, ArePredictionsCreated(predictions, 3))
		_, err := os.Stat(predictions)
		assert.True(t, os.IsNotExist(err), "mismatching predictions file was not removed")
	}
}

func testCheckerFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		log := &recordingLogger{}
		checker := Checker{Dir: dir, Log: log}

		ok, _ := checker.Resource("source", "Source not found. Resuming.\n", bigml.SourceType)
		assert.False(t, ok)
		assert.Equal(t, []string{"Source not found. Resuming.\n"}, log.messages)

		writeLog(t, dir, "source", sourceID+"\n")
		ok, id := checker.Resource("source", "Source not found. Resuming.\n", bigml.SourceType)
		assert.True(t, ok)
		assert.Equal(t, sourceID, id)
		assert.Len(t, log.messages, 1)
	}
}
