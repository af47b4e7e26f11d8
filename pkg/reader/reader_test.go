package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReader(t *testing.T) {
	t.Run("SplitQuoted() - quoted separators", testSplitQuotedFunc())
	t.Run("ReadFieldAttributes()", testReadFieldAttributesFunc())
	t.Run("ReadTypes() - warnings", testReadTypesFunc())
	t.Run("ReadFieldsMap()", testReadFieldsMapFunc())
	t.Run("ReadObjectiveWeights()", testReadObjectiveWeightsFunc())
	t.Run("ReadJSON() - invalid json", testReadJSONFunc())
	t.Run("ReadResources() - skips comments", testReadResourcesFunc())
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "input")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testSplitQuotedFunc() func(*testing.T) {
	return func(t *testing.T) {
		row, err := SplitQuoted("0,'last, first','a label'", ',', '\'')
		assert.NoError(t, err)
		assert.Equal(t, []string{"0", "last, first", "a label"}, row)

		_, err = SplitQuoted("0,'open", ',', '\'')
		assert.Error(t, err)
	}
}

func testReadFieldAttributesFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := writeFile(t, "0,'sepal length','sl','the sepal length'\n4,species\n")

		attributes, err := ReadFieldAttributes(path)
		assert.NoError(t, err)
		assert.Equal(t, map[int]map[string]interface{}{
			0: {"name": "sepal length", "label": "sl", "description": "the sepal length"},
			4: {"name": "species"},
		}, attributes)
	}
}

func testReadTypesFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := writeFile(t, "0, 'categorical'\n(2, \"text\")\nwrong line\n")

		types, warnings, err := ReadTypes(path)
		assert.NoError(t, err)
		assert.Equal(t, map[int]map[string]interface{}{
			0: {"optype": "categorical"},
			2: {"optype": "text"},
		}, types)
		assert.Equal(t, []string{"wrong line"}, warnings)
	}
}

func testReadFieldsMapFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := writeFile(t, "0, 1\n1, 0\n")

		fieldsMap, warnings, err := ReadFieldsMap(path)
		assert.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, map[int]int{0: 1, 1: 0}, fieldsMap)
	}
}

func testReadObjectiveWeightsFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := writeFile(t, "Iris-setosa,5\nIris-virginica,3\n")

		weights, err := ReadObjectiveWeights(path)
		assert.NoError(t, err)
		assert.Equal(t, []interface{}{
			[]interface{}{"Iris-setosa", 5},
			[]interface{}{"Iris-virginica", 3},
		}, weights)

		_, err = ReadObjectiveWeights(writeFile(t, "Iris-setosa\n"))
		assert.Error(t, err)
	}
}

func testReadJSONFunc() func(*testing.T) {
	return func(t *testing.T) {
		attributes, err := ReadJSON(writeFile(t, `{"name": "my source"}`))
		assert.NoError(t, err)
		assert.Equal(t, "my source", attributes["name"])

		_, err = ReadJSON(writeFile(t, `{"name": `))
		assert.Error(t, err)
	}
}

func testReadResourcesFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := writeFile(t, "source/5143a51a37203f2cf7000972\niris.csv\n\nmodel/5143a51a37203f2cf7000974 first model\n")

		ids, err := ReadResources(path)
		assert.NoError(t, err)
		assert.Equal(t, []string{"source/5143a51a37203f2cf7000972", "model/5143a51a37203f2cf7000974"}, ids)
	}
}
