package resources

import (
	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
)

// BatchPredictionArgs are the arguments of a batch prediction, or of any
// other batch resource, scoring the test dataset.
func BatchPredictionArgs(o *config.Options, in *Inputs, modelFields *fields.Fields, datasetFields *fields.Fields) (Args, error) {
	args := BasicArgs(o, in, o.Name)
	args["header"] = o.PredictionHeader
	args["output_dataset"] = false

	if in.FieldsMap != nil && modelFields != nil {
		if datasetFields == nil {
			datasetFields = modelFields
		}
		fieldsMap, err := fields.MapFields(in.FieldsMap, modelFields, datasetFields)
		if err != nil {
			return nil, err
		}
		args["fields_map"] = fieldsMap
	}

	switch o.PredictionInfo {
	case NormalFormat, FullFormat:
		if o.Boosting {
			args["probability"] = true
		} else {
			args["confidence"] = true
		}
	}
	if o.PredictionInfo == FullFormat {
		args["all_fields"] = true
	}

	if len(in.PredictionFields) > 0 && datasetFields != nil {
		args["all_fields"] = false
		outputFields := make([]string, 0, len(in.PredictionFields))
		for _, name := range in.PredictionFields {
			id, err := datasetFields.FieldID(name)
			if err != nil {
				return nil, err
			}
			outputFields = append(outputFields, id)
		}
		args["output_fields"] = outputFields
	}

	if err := UpdateJSONArgs(args, in.JSONArgs[BatchPredictionAttributes], datasetFields); err != nil {
		return nil, err
	}
	if err := UpdateJSONArgs(args, in.JSONArgs[BatchAttributes], datasetFields); err != nil {
		return nil, err
	}
	return args, nil
}

// PredictionArgs are the arguments of a single remote prediction.
func PredictionArgs(o *config.Options, in *Inputs, modelID string, inputData map[string]interface{}) Args {
	args := Args{
		string(bigml.TypeOf(modelID)): modelID,
		"input_data":                  inputData,
		"name":                        o.Name,
	}
	if o.Boosting {
		args["probability"] = true
	}
	return args
}

// EvaluationArgs are the arguments of an evaluation. The sampling options
// are set when the evaluation uses the out of bag rows of the training
// dataset.
func EvaluationArgs(o *config.Options, in *Inputs, modelFields *fields.Fields, datasetFields *fields.Fields) (Args, error) {
	args := BasicArgs(o, in, o.Name)
	if in.FieldsMap != nil && modelFields != nil {
		if datasetFields == nil {
			datasetFields = modelFields
		}
		fieldsMap, err := fields.MapFields(in.FieldsMap, modelFields, datasetFields)
		if err != nil {
			return nil, err
		}
		args["fields_map"] = fieldsMap
	}
	if err := UpdateJSONArgs(args, in.JSONArgs[EvaluationAttributes], modelFields); err != nil {
		return nil, err
	}

	if SampledEvaluation(o) {
		args["out_of_bag"] = true
		args["seed"] = Seed
		args["sample_rate"] = EvaluationSampleRate(o)
	}
	return args, nil
}
