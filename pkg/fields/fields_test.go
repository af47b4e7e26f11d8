package fields

import (
	"testing"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	notPreferred := false
	f := New(map[string]Field{
		"000000": {Name: "sepal length", ColumnNumber: 0, Optype: "numeric"},
		"000001": {Name: "sepal width", ColumnNumber: 1, Optype: "numeric"},
		"000002": {Name: "petal length", ColumnNumber: 2, Optype: "numeric"},
		"000003": {Name: "row id", ColumnNumber: 3, Optype: "numeric", Preferred: &notPreferred},
		"000004": {Name: "species", ColumnNumber: 4, Optype: "categorical"},
	}, "000004")

	t.Run("FieldID() - id, name and column", testFieldIDFunc(f))
	t.Run("PreferredIDs()", testPreferredIDsFunc(f))
	t.Run("ConfigureInputFields() - full list", testConfigureInputFieldsListFunc(f))
	t.Run("ConfigureInputFields() - relative syntax", testConfigureInputFieldsRelativeFunc(f))
	t.Run("RelativeInputFields()", testRelativeInputFieldsFunc(f))
	t.Run("TransformFieldsKeys()", testTransformFieldsKeysFunc(f))
	t.Run("FromResource()", testFromResourceFunc())
}

func testFieldIDFunc(f *Fields) func(*testing.T) {
	return func(t *testing.T) {
		for _, key := range []interface{}{"000001", "sepal width", 1, "1"} {
			id, err := f.FieldID(key)
			assert.NoError(t, err)
			assert.Equal(t, "000001", id, "key %v", key)
		}

		_, err := f.FieldID("unknown")
		assert.Error(t, err)

		name, err := f.FieldName(4)
		assert.NoError(t, err)
		assert.Equal(t, "species", name)
	}
}

func testPreferredIDsFunc(f *Fields) func(*testing.T) {
	return func(t *testing.T) {
		assert.Equal(t, []string{"000000", "000001", "000002", "000004"}, f.PreferredIDs())
		assert.Equal(t, []string{"000000", "000001", "000002"}, f.InputIDs())
		assert.Equal(t, []string{"sepal length", "sepal width", "petal length", "row id", "species"}, f.Names())
	}
}

func testConfigureInputFieldsListFunc(f *Fields) func(*testing.T) {
	return func(t *testing.T) {
		inputFields, err := ConfigureInputFields(f, []string{"sepal width", "petal length"}, false)
		assert.NoError(t, err)
		assert.Equal(t, []string{"000001", "000002"}, inputFields)

		inputFields, err = ConfigureInputFields(f, []string{"sepal width"}, true)
		assert.NoError(t, err)
		assert.Equal(t, []string{"sepal width"}, inputFields)

		_, err = ConfigureInputFields(f, []string{"unknown"}, false)
		assert.Error(t, err)
	}
}

func testConfigureInputFieldsRelativeFunc(f *Fields) func(*testing.T) {
	return func(t *testing.T) {
		inputFields, err := ConfigureInputFields(f, []string{"-sepal length", "+row id"}, false)
		assert.NoError(t, err)
		assert.Equal(t, []string{"000001", "000002", "000004", "000003"}, inputFields)

		inputFields, err = ConfigureInputFields(f, []string{"-species"}, true)
		assert.NoError(t, err)
		assert.Equal(t, []string{"sepal length", "sepal width", "petal length"}, inputFields)
	}
}

func testRelativeInputFieldsFunc(f *Fields) func(*testing.T) {
	return func(t *testing.T) {
		inputFields, err := RelativeInputFields(f, []string{"sepal length", "species"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"-sepal width", "-petal length", "+sepal length", "+species"}, inputFields)
	}
}

func testTransformFieldsKeysFunc(f *Fields) func(*testing.T) {
	return func(t *testing.T) {
		attributes := TransformFieldsKeys(map[string]interface{}{
			"fields": map[string]interface{}{
				"0":      map[string]interface{}{"name": "sl"},
				"000004": map[string]interface{}{"name": "class"},
				"12":     map[string]interface{}{"name": "missing"},
			},
		}, f)
		assert.Equal(t, map[string]interface{}{
			"000000": map[string]interface{}{"name": "sl"},
			"000004": map[string]interface{}{"name": "class"},
			"12":     map[string]interface{}{"name": "missing"},
		}, attributes["fields"])
	}
}

func testFromResourceFunc() func(*testing.T) {
	return func(t *testing.T) {
		resource := bigml.NewResource(200, "", []byte(`{
			"resource": "model/5f1a2b3c4d5e6f7a8b9c0d1e",
			"objective_field": "000001",
			"model": {"fields": {
				"000000": {"name": "x", "column_number": 0, "optype": "numeric"},
				"000001": {"name": "y", "column_number": 1, "optype": "categorical"}
			}}
		}`))

		f, err := FromResource(resource)
		assert.NoError(t, err)
		assert.Equal(t, 2, f.Len())
		assert.Equal(t, "000001", f.ObjectiveFieldID())
		assert.Equal(t, []string{"000000"}, f.InputIDs())
	}
}
