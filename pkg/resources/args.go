package resources

import (
	"fmt"

	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
)

const (
	EvaluateSampleRate = 0.8
	Seed               = "BigML, Machine Learning made easy"
	AllFieldsQuery     = "limit=-1"
	FieldsQuery        = "only_model=true"

	BriefFormat  = "brief"
	NormalFormat = "normal"
	FullFormat   = "full"
)

// Args are the JSON arguments sent to create or update a resource.
type Args map[string]interface{}

var validFieldAttributes = map[string][]string{
	"source":  {"name", "label", "description", "optype", "term_analysis"},
	"dataset": {"name", "label", "description", "preferred", "term_analysis"},
}

// BasicSeed derives the seed of the order-th resource of a series.
func BasicSeed(order int) string {
	return fmt.Sprintf("%s - %d", Seed, order)
}

func seed(o *config.Options) string {
	if o.Seed != "" {
		return o.Seed
	}
	return Seed
}

// BasicArgs are the arguments common to every resource.
func BasicArgs(o *config.Options, in *Inputs, name string) Args {
	tags := o.Tags
	if tags == nil {
		tags = []string{}
	}
	return Args{
		"name":        name,
		"description": in.Description,
		"category":    o.Category,
		"tags":        tags,
	}
}

// UpdateAttributes merges newAttributes into attributes. The "fields"
// substructure is merged per field; when byColumn is set its keys are
// column numbers translated through f.
func UpdateAttributes(attributes Args, newAttributes map[string]interface{}, byColumn bool, f *fields.Fields) error {
	if len(newAttributes) == 0 {
		return nil
	}
	fieldAttributes, _ := newAttributes["fields"].(map[string]interface{})
	if len(fieldAttributes) == 0 || (byColumn && f == nil) {
		for k, v := range newAttributes {
			attributes[k] = v
		}
		return nil
	}

	substructure, _ := attributes["fields"].(map[string]interface{})
	if substructure == nil {
		substructure = map[string]interface{}{}
	}
	for key, value := range fieldAttributes {
		id := key
		if byColumn {
			var err error
			if id, err = f.FieldID(key); err != nil {
				return err
			}
		}
		current, _ := substructure[id].(map[string]interface{})
		if current == nil {
			current = map[string]interface{}{}
		}
		if values, ok := value.(map[string]interface{}); ok {
			for k, v := range values {
				current[k] = v
			}
		}
		substructure[id] = current
	}
	attributes["fields"] = substructure
	return nil
}

// UpdateJSONArgs merges the attributes read from a JSON file, whose fields
// may be keyed by column number.
func UpdateJSONArgs(attributes Args, jsonAttributes map[string]interface{}, f *fields.Fields) error {
	if jsonAttributes == nil {
		return nil
	}
	copied := make(map[string]interface{}, len(jsonAttributes))
	for k, v := range jsonAttributes {
		copied[k] = v
	}
	return UpdateAttributes(attributes, fields.TransformFieldsKeys(copied, f), false, nil)
}

// CheckFieldsStruct removes the field attributes the API does not accept
// when updating a resource of the given type.
func CheckFieldsStruct(args Args, resourceType string) {
	substructure, ok := args["fields"].(map[string]interface{})
	if !ok {
		return
	}
	valid := map[string]bool{}
	for _, attribute := range validFieldAttributes[resourceType] {
		valid[attribute] = true
	}
	for _, field := range substructure {
		attributes, ok := field.(map[string]interface{})
		if !ok {
			continue
		}
		for attribute := range attributes {
			if !valid[attribute] {
				delete(attributes, attribute)
			}
		}
	}
}

// UpdateSampleParametersArgs adds the sampling options.
func UpdateSampleParametersArgs(args Args, o *config.Options, outOfBag bool) Args {
	if o.SampleRate != 1 {
		args["sample_rate"] = o.SampleRate
		if outOfBag {
			args["out_of_bag"] = true
		}
	}
	if o.Replacement {
		args["replacement"] = true
	}
	if o.Randomize {
		args["randomize"] = true
	}
	return args
}

func intKeyed(m map[int]map[string]interface{}) map[string]interface{} {
	converted := make(map[string]interface{}, len(m))
	for column, attributes := range m {
		converted[fmt.Sprint(column)] = attributes
	}
	return converted
}
