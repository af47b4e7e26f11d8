package resources

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/constants"
	"github.com/bigmler/bigmler/pkg/reader"
	"github.com/bigmler/bigmler/pkg/util"
)

// JSON attributes keys in Inputs.JSONArgs.
const (
	SourceAttributes          = "source"
	DatasetAttributes         = "dataset"
	ModelAttributes           = "model"
	EnsembleAttributes        = "ensemble"
	EvaluationAttributes      = "evaluation"
	BatchPredictionAttributes = "batch_prediction"
	ProjectAttributes         = "project"
	// ResourceAttributes and BatchAttributes apply to the kind built by a
	// subcommand and to its batch resource.
	ResourceAttributes = "resource"
	BatchAttributes    = "batch"
)

// Inputs holds the contents of the local files named in the options.
type Inputs struct {
	Description      string
	FieldAttributes  map[int]map[string]interface{}
	Types            map[int]map[string]interface{}
	JSONArgs         map[string]map[string]interface{}
	JSONFilter       interface{}
	LispFilter       string
	ObjectiveWeights []interface{}
	NewFields        map[string]interface{}
	FieldsMap        map[int]int
	ModelFields      []string
	DatasetFields    []string
	PredictionFields []string
	// Warnings collects the lines that could not be parsed.
	Warnings []string
}

// LoadInputs reads every file referenced by the options.
func LoadInputs(o *config.Options) (*Inputs, error) {
	in := &Inputs{
		Description:      constants.DefaultDescription,
		JSONArgs:         map[string]map[string]interface{}{},
		ModelFields:      util.SplitList(o.ModelFields, ","),
		DatasetFields:    util.SplitList(o.DatasetFields, ","),
		PredictionFields: util.SplitList(o.PredictionFields, ","),
	}

	var err error
	if o.Description != "" {
		if in.Description, err = reader.ReadDescription(o.Description); err != nil {
			return nil, err
		}
	}
	if o.FieldAttributes != "" {
		if in.FieldAttributes, err = reader.ReadFieldAttributes(o.FieldAttributes); err != nil {
			return nil, err
		}
	}
	if o.Types != "" {
		var warnings []string
		if in.Types, warnings, err = reader.ReadTypes(o.Types); err != nil {
			return nil, err
		}
		in.Warnings = append(in.Warnings, warnings...)
	}
	if o.FieldsMap != "" {
		var warnings []string
		if in.FieldsMap, warnings, err = reader.ReadFieldsMap(o.FieldsMap); err != nil {
			return nil, err
		}
		in.Warnings = append(in.Warnings, warnings...)
	}
	if o.JSONFilter != "" {
		if in.JSONFilter, err = reader.ReadJSONFilter(o.JSONFilter); err != nil {
			return nil, err
		}
	}
	if o.LispFilter != "" {
		if in.LispFilter, err = reader.ReadLispFilter(o.LispFilter); err != nil {
			return nil, err
		}
	}
	if o.ObjectiveWeights != "" {
		if in.ObjectiveWeights, err = reader.ReadObjectiveWeights(o.ObjectiveWeights); err != nil {
			return nil, err
		}
	}
	if o.NewFields != "" {
		if in.NewFields, err = reader.ReadJSON(o.NewFields); err != nil {
			return nil, err
		}
	}

	jsonFiles := map[string]string{
		SourceAttributes:          o.SourceAttributes,
		DatasetAttributes:         o.DatasetAttributes,
		ModelAttributes:           o.ModelAttributes,
		EnsembleAttributes:        o.EnsembleAttributes,
		EvaluationAttributes:      o.EvaluationAttributes,
		BatchPredictionAttributes: o.BatchPredictionAttributes,
		ProjectAttributes:         o.ProjectAttributes,
		ResourceAttributes:        o.ResourceAttributes,
		BatchAttributes:           o.BatchAttributes,
	}
	for key, path := range jsonFiles {
		if path == "" {
			continue
		}
		if in.JSONArgs[key], err = reader.ReadJSON(path); err != nil {
			return nil, err
		}
	}

	return in, nil
}
