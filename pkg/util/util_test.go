package util

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtil(t *testing.T) {
	t.Run("Plural()", testPluralFunc())
	t.Run("CommandMessage()", testCommandMessageFunc())
	t.Run("SplitCommand()", testSplitCommandFunc())
	t.Run("FileNumberOfLines()", testFileNumberOfLinesFunc())
	t.Run("ReadLines()", testReadLinesFunc())
	t.Run("PrintTree()", testPrintTreeFunc())
	t.Run("ZipFiles()", testZipFilesFunc())
	t.Run("MarshalAndPrintTable()", testMarshalAndPrintTableFunc())
}

func testPluralFunc() func(*testing.T) {
	return func(t *testing.T) {
		assert.Equal(t, "model", Plural("model", 1))
		assert.Equal(t, "models", Plural("model", 2))
	}
}

func testCommandMessageFunc() func(*testing.T) {
	return func(t *testing.T) {
		actual := CommandMessage("bigmler", []string{"--train", "data/iris.csv", "--model-fields", "-petal length", "--name", "my model"})
		assert.Equal(t, `bigmler --train data/iris.csv --model-fields "-petal length" --name "my model"`, actual)
	}
}

func testSplitCommandFunc() func(*testing.T) {
	return func(t *testing.T) {
		args, err := SplitCommand(`bigmler --train data/iris.csv --model-fields "-petal length" --name 'my model'`)
		assert.NoError(t, err)
		assert.Equal(t, []string{"bigmler", "--train", "data/iris.csv", "--model-fields", "-petal length", "--name", "my model"}, args)

		_, err = SplitCommand(`bigmler --name "unterminated`)
		assert.Error(t, err)
	}
}

func testFileNumberOfLinesFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		terminated := filepath.Join(dir, "terminated")
		require.NoError(t, os.WriteFile(terminated, []byte("a\nb\nc\n"), 0644))
		unterminated := filepath.Join(dir, "unterminated")
		require.NoError(t, os.WriteFile(unterminated, []byte("a\nb"), 0644))

		count, err := FileNumberOfLines(terminated)
		assert.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = FileNumberOfLines(unterminated)
		assert.NoError(t, err)
		assert.Equal(t, 2, count)

		_, err = FileNumberOfLines(filepath.Join(dir, "missing"))
		assert.Error(t, err)
	}
}

func testReadLinesFunc() func(*testing.T) {
	return func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "models")
		require.NoError(t, os.WriteFile(file, []byte("model/1 \n\nmodel/2\r\n"), 0644))

		lines, err := ReadLines(file)
		assert.NoError(t, err)
		assert.Equal(t, []string{"model/1", "model/2"}, lines)
	}
}

func testPrintTreeFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "session")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "log"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bigmler_sessions"), nil, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "source"), nil, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "log", "bigmler.log"), nil, 0644))

		tree, err := PrintTree(dir, " ")
		assert.NoError(t, err)
		expected := " session\n" +
			"  ├─bigmler_sessions\n" +
			"  ├─log\n" +
			"  | └─bigmler.log\n" +
			"  └─source\n"
		assert.Equal(t, expected, tree)
	}
}

func testZipFilesFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "images", "train"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "a.png"), []byte("a"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "train", "b.png"), []byte("b"), 0644))
		zipPath := filepath.Join(dir, "images.zip")

		files, err := ListFiles(filepath.Join(dir, "images"), ".png")
		require.NoError(t, err)
		assert.NoError(t, ZipFiles(filepath.Join(dir, "images"), files, zipPath))

		r, err := zip.OpenReader(zipPath)
		require.NoError(t, err)
		defer r.Close()
		var names []string
		for _, f := range r.File {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"a.png", "train/b.png"}, names)
	}
}

type tableRow struct {
	Type  string `csv:"type"`
	Count int    `csv:"count"`
}

func testMarshalAndPrintTableFunc() func(*testing.T) {
	return func(t *testing.T) {
		var buf bytes.Buffer
		err := MarshalAndPrintTable(&buf, []tableRow{{Type: "source", Count: 2}, {Type: "dataset", Count: 10}})
		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "source")
		assert.Contains(t, buf.String(), "dataset")
		assert.Contains(t, buf.String(), "10")
	}
}
