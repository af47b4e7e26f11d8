package fields

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
)

const (
	AddPrefix    = "+"
	RemovePrefix = "-"
)

type Field struct {
	Name         string `json:"name"`
	ColumnNumber int    `json:"column_number"`
	Optype       string `json:"optype"`
	Preferred    *bool  `json:"preferred,omitempty"`
	Label        string `json:"label,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Fields indexes a resource fields structure by id, name and column.
type Fields struct {
	fields      map[string]Field
	byName      map[string]string
	byColumn    map[int]string
	objectiveID string
}

func New(fields map[string]Field, objectiveID string) *Fields {
	f := &Fields{
		fields:      fields,
		byName:      make(map[string]string, len(fields)),
		byColumn:    make(map[int]string, len(fields)),
		objectiveID: objectiveID,
	}
	for id, field := range fields {
		f.byName[field.Name] = id
		f.byColumn[field.ColumnNumber] = id
	}
	return f
}

// FromResource builds the Fields of a source, dataset or model-like resource.
func FromResource(resource *bigml.Resource) (*Fields, error) {
	raw := resource.Fields()
	if !raw.Exists() {
		return nil, fmt.Errorf("%s has no fields structure", resource.ID)
	}
	fields := map[string]Field{}
	if err := json.Unmarshal([]byte(raw.Raw), &fields); err != nil {
		return nil, fmt.Errorf("wrong fields structure in %s: %w", resource.ID, err)
	}
	return New(fields, resource.ObjectiveFieldID()), nil
}

func (f *Fields) Len() int {
	return len(f.fields)
}

func (f *Fields) Field(id string) (Field, bool) {
	field, ok := f.fields[id]
	return field, ok
}

// FieldID resolves an id, a field name or a column number (either as an int
// or as its string representation) to the field id.
func (f *Fields) FieldID(key interface{}) (string, error) {
	switch k := key.(type) {
	case int:
		if id, ok := f.byColumn[k]; ok {
			return id, nil
		}
		return "", fmt.Errorf("no field found at column %d", k)
	case string:
		if _, ok := f.fields[k]; ok {
			return k, nil
		}
		if id, ok := f.byName[k]; ok {
			return id, nil
		}
		if column, err := strconv.Atoi(k); err == nil {
			return f.FieldID(column)
		}
		return "", fmt.Errorf("no field found with name or id %q", k)
	}
	return "", fmt.Errorf("unsupported field key %v", key)
}

func (f *Fields) FieldName(key interface{}) (string, error) {
	id, err := f.FieldID(key)
	if err != nil {
		return "", err
	}
	return f.fields[id].Name, nil
}

func (f *Fields) ObjectiveFieldID() string {
	return f.objectiveID
}

// IDs returns the field ids ordered by column number.
func (f *Fields) IDs() []string {
	ids := make([]string, 0, len(f.fields))
	for id := range f.fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return f.fields[ids[i]].ColumnNumber < f.fields[ids[j]].ColumnNumber
	})
	return ids
}

// PreferredIDs returns the ids of the fields not marked as non-preferred,
// ordered by column number.
func (f *Fields) PreferredIDs() []string {
	var ids []string
	for _, id := range f.IDs() {
		if preferred := f.fields[id].Preferred; preferred == nil || *preferred {
			ids = append(ids, id)
		}
	}
	return ids
}

// InputIDs returns the preferred fields except the objective field.
func (f *Fields) InputIDs() []string {
	var ids []string
	for _, id := range f.PreferredIDs() {
		if id != f.objectiveID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Names returns the field names ordered by column number.
func (f *Fields) Names() []string {
	ids := f.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = f.fields[id].Name
	}
	return names
}

// ConfigureInputFields returns the input fields for a new resource. When
// every element of userFields carries a +/- prefix, the preferred fields are
// modified accordingly; otherwise userFields is the complete list.
func ConfigureInputFields(f *Fields, userFields []string, byName bool) ([]string, error) {
	if !allPrefixed(userFields) {
		if byName {
			return userFields, nil
		}
		inputFields := make([]string, 0, len(userFields))
		for _, name := range userFields {
			id, err := f.FieldID(name)
			if err != nil {
				return nil, err
			}
			inputFields = append(inputFields, id)
		}
		return inputFields, nil
	}

	inputFields := f.PreferredIDs()
	if byName {
		for i, id := range inputFields {
			inputFields[i] = f.fields[id].Name
		}
	}
	for _, name := range userFields {
		prefix, fieldName := name[:1], name[1:]
		key := fieldName
		if !byName {
			id, err := f.FieldID(fieldName)
			if err != nil {
				return nil, err
			}
			key = id
		}
		inputFields = modifyInputFields(prefix, key, inputFields)
	}
	return inputFields, nil
}

// RelativeInputFields expresses userFields with the +/- syntax relative to
// the preferred fields.
func RelativeInputFields(f *Fields, userFields []string) ([]string, error) {
	if allPrefixed(userFields) {
		return userFields, nil
	}

	given := map[string]bool{}
	for _, name := range userFields {
		given[name] = true
	}

	var inputFields []string
	for _, id := range f.PreferredIDs() {
		if name := f.fields[id].Name; !given[name] {
			inputFields = append(inputFields, RemovePrefix+name)
		}
	}
	for _, name := range userFields {
		if _, err := f.FieldID(name); err != nil {
			return nil, err
		}
		inputFields = append(inputFields, AddPrefix+name)
	}
	return inputFields, nil
}

// TransformFieldsKeys replaces the column numbers used as keys of the
// "fields" attribute by the matching field ids.
func TransformFieldsKeys(attributes map[string]interface{}, f *Fields) map[string]interface{} {
	if f == nil {
		return attributes
	}
	fieldsAttributes, ok := attributes["fields"].(map[string]interface{})
	if !ok {
		return attributes
	}

	transformed := make(map[string]interface{}, len(fieldsAttributes))
	for key, value := range fieldsAttributes {
		newKey := key
		if _, isID := f.fields[key]; !isID {
			if column, err := strconv.Atoi(key); err == nil {
				if id, ok := f.byColumn[column]; ok {
					newKey = id
				}
			}
		}
		transformed[newKey] = value
	}
	attributes["fields"] = transformed
	return attributes
}

// MapFields translates a model column to dataset column map into field ids.
func MapFields(fieldsMap map[int]int, modelFields *Fields, datasetFields *Fields) (map[string]string, error) {
	mapped := make(map[string]string, len(fieldsMap))
	for modelColumn, datasetColumn := range fieldsMap {
		modelID, err := modelFields.FieldID(modelColumn)
		if err != nil {
			return nil, err
		}
		datasetID, err := datasetFields.FieldID(datasetColumn)
		if err != nil {
			return nil, err
		}
		mapped[modelID] = datasetID
	}
	return mapped, nil
}

func allPrefixed(names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, name := range names {
		if !strings.HasPrefix(name, AddPrefix) && !strings.HasPrefix(name, RemovePrefix) {
			return false
		}
	}
	return true
}

func modifyInputFields(prefix string, key string, inputFields []string) []string {
	for i, field := range inputFields {
		if field == key {
			if prefix == RemovePrefix {
				return append(inputFields[:i], inputFields[i+1:]...)
			}
			return inputFields
		}
	}
	if prefix == AddPrefix {
		inputFields = append(inputFields, key)
	}
	return inputFields
}
