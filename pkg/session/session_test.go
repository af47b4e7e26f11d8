package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogs(t *testing.T) {
	t.Run("NewLogs() - subcommand names", testNewLogsFunc())
	t.Run("Stored() - resumes by stack level", testStoredFunc())
	t.Run("CheckDir() - records new directories", testCheckDirFunc())
	t.Run("Clear()", testClearFunc())
}

func TestSession(t *testing.T) {
	t.Run("LogMessage() - console and sessions log", testLogMessageFunc())
	t.Run("LogCreatedResource() - append and overwrite", testLogCreatedResourceFunc())
}

func testNewLogsFunc() func(*testing.T) {
	return func(t *testing.T) {
		logs := NewLogs(".", "")
		assert.Equal(t, ".bigmler", logs.Command)
		assert.Equal(t, ".bigmler_dir_stack", logs.Dirs)

		logs = NewLogs(".", "delete")
		assert.Equal(t, ".bigmler_delete", logs.Command)
		assert.Equal(t, ".bigmler_delete_dir_stack", logs.Dirs)
		assert.Equal(t, ".bigmler_dirs", logs.NewDirs)
	}
}

func testStoredFunc() func(*testing.T) {
	return func(t *testing.T) {
		workDir := t.TempDir()
		logs := NewLogs(workDir, "")

		_, err := logs.Stored(0)
		assert.Error(t, err)

		require.NoError(t, logs.LogCommand(`bigmler --train data/iris.csv --name "first run"`))
		require.NoError(t, logs.LogDir(filepath.Join(workDir, "first")))
		require.NoError(t, logs.LogCommand("bigmler --train data/iris.csv --test data/test_iris.csv\n"))
		require.NoError(t, logs.LogDir(filepath.Join(workDir, "second")))

		stored, err := logs.Stored(0)
		require.NoError(t, err)
		assert.Equal(t, []string{"--train", "data/iris.csv", "--test", "data/test_iris.csv"}, stored.Args)
		assert.Equal(t, filepath.Join(workDir, "second"), stored.OutputDir)
		assert.Equal(t, filepath.Join(workDir, "second", "bigmler.ini"), stored.DefaultsFile)

		stored, err = logs.Stored(1)
		require.NoError(t, err)
		assert.Equal(t, []string{"--train", "data/iris.csv", "--name", "first run"}, stored.Args)
		assert.Equal(t, filepath.Join(workDir, "first"), stored.OutputDir)

		_, err = logs.Stored(2)
		assert.Error(t, err)
	}
}

func testCheckDirFunc() func(*testing.T) {
	return func(t *testing.T) {
		workDir := t.TempDir()
		logs := NewLogs(workDir, "")
		predictions := filepath.Join(workDir, "out", "nested", "predictions.csv")

		dir, err := logs.CheckDir(predictions)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(workDir, "out", "nested"), dir)
		assert.DirExists(t, dir)

		_, err = logs.CheckDir(predictions)
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(workDir, ".bigmler_dirs"))
		require.NoError(t, err)
		assert.Equal(t, dir+"\n", string(content))
	}
}

func testClearFunc() func(*testing.T) {
	return func(t *testing.T) {
		workDir := t.TempDir()
		logs := NewLogs(workDir, "")
		require.NoError(t, logs.LogCommand("bigmler --train iris.csv"))

		require.NoError(t, logs.Clear())

		content, err := os.ReadFile(filepath.Join(workDir, ".bigmler"))
		require.NoError(t, err)
		assert.Empty(t, content)
	}
}

func testLogMessageFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		var console bytes.Buffer
		s, err := New(dir, 1, &console)
		require.NoError(t, err)

		s.LogMessage("Creating source.\n", true)
		s.LogMessage("Only logged.\n", false)
		s.End()

		assert.Equal(t, "Creating source.\n", console.String())
		content, err := os.ReadFile(filepath.Join(dir, "bigmler_sessions"))
		require.NoError(t, err)
		assert.Equal(t, "Creating source.\nOnly logged.\n"+strings.Repeat("_", 80)+"\n", string(content))

		console.Reset()
		s.Verbosity = 0
		s.LogMessage("Quiet.\n", true)
		assert.Empty(t, console.String())
	}
}

func testLogCreatedResourceFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		s, err := New(dir, 0, nil)
		require.NoError(t, err)
		s.LogFile = filepath.Join(dir, "resources.log")

		require.NoError(t, s.LogCreatedResource("models", "model/5143a51a37203f2cf7000973", "", Append))
		require.NoError(t, s.LogCreatedResource("models", "model/5143a51a37203f2cf7000974", "", Append))
		require.NoError(t, s.LogCreatedResource("source", "source/5143a51a37203f2cf7000972", "", Overwrite))
		require.NoError(t, s.LogCreatedResource("source", "source/5143a51a37203f2cf7000975", "", Overwrite))

		models, err := os.ReadFile(filepath.Join(dir, "models"))
		require.NoError(t, err)
		assert.Equal(t, "model/5143a51a37203f2cf7000973\nmodel/5143a51a37203f2cf7000974\n", string(models))

		source, err := os.ReadFile(filepath.Join(dir, "source"))
		require.NoError(t, err)
		assert.Equal(t, "source/5143a51a37203f2cf7000975\n", string(source))

		all, err := os.ReadFile(s.LogFile)
		require.NoError(t, err)
		assert.Equal(t, 4, strings.Count(string(all), "\n"))
		assert.Equal(t, "source/5143a51a37203f2cf7000975", s.LastResource())
	}
}
