package resources

import (
	"fmt"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
)

// KindArgs are the arguments of the resources built by their own
// subcommand (clusters, anomaly detectors, deepnets...).
func KindArgs(o *config.Options, in *Inputs, kind Kind, f *fields.Fields) (Args, error) {
	args := BasicArgs(o, in, o.Name)

	if kind.Supervised && o.Objective != "" && f != nil {
		id, err := f.FieldID(o.Objective)
		if err != nil {
			return nil, err
		}
		args["objective_field"] = id
	}
	if len(in.ModelFields) > 0 && f != nil {
		inputFields, err := fields.ConfigureInputFields(f, in.ModelFields, false)
		if err != nil {
			return nil, err
		}
		args["input_fields"] = inputFields
	}

	switch kind.Type {
	case bigml.ClusterType:
		if o.K > 0 {
			args["k"] = o.K
		}
		args["seed"] = seed(o)
	case bigml.AnomalyType:
		if o.ForestSize > 0 {
			args["forest_size"] = o.ForestSize
		}
		if o.TopN > 0 {
			args["top_n"] = o.TopN
		}
		args["seed"] = seed(o)
	case bigml.TopicModelType:
		if o.NumberOfTopics > 0 {
			args["number_of_topics"] = o.NumberOfTopics
		}
	case bigml.LogisticRegressionType, bigml.DeepnetType:
		if o.Balance {
			args["balance_objective"] = true
		}
		if in.ObjectiveWeights != nil {
			args["objective_weights"] = in.ObjectiveWeights
		}
	case bigml.FusionType:
		delete(args, "input_fields")
	}

	if kind.Supervised {
		args = modelSampling(args, o)
	}
	if err := UpdateJSONArgs(args, in.JSONArgs[ResourceAttributes], f); err != nil {
		return nil, err
	}
	return args, nil
}

// BatchArgs are the arguments of the batch resource that scores a test
// dataset with a resource of the given kind.
func BatchArgs(o *config.Options, in *Inputs, kind Kind, modelFields *fields.Fields, datasetFields *fields.Fields) (Args, error) {
	if kind.Batch == bigml.BatchPredictionType {
		return BatchPredictionArgs(o, in, modelFields, datasetFields)
	}

	args := BasicArgs(o, in, o.Name)
	args["header"] = o.PredictionHeader
	args["output_dataset"] = false
	if o.PredictionInfo == FullFormat {
		args["all_fields"] = true
	}
	if err := UpdateJSONArgs(args, in.JSONArgs[BatchAttributes], datasetFields); err != nil {
		return nil, err
	}
	return args, nil
}

// ForecastArgs forecasts the objective fields of a time series.
func ForecastArgs(o *config.Options, in *Inputs, objectiveIDs []string) (Args, error) {
	if o.Horizon <= 0 {
		return nil, fmt.Errorf("a forecast needs a positive --horizon")
	}
	inputData := map[string]interface{}{}
	for _, id := range objectiveIDs {
		inputData[id] = map[string]interface{}{"horizon": o.Horizon}
	}
	args := BasicArgs(o, in, o.Name)
	args["input_data"] = inputData
	if err := UpdateJSONArgs(args, in.JSONArgs[BatchAttributes], nil); err != nil {
		return nil, err
	}
	return args, nil
}

func ProjectArgs(o *config.Options, in *Inputs, name string) (Args, error) {
	args := BasicArgs(o, in, name)
	if err := UpdateJSONArgs(args, in.JSONArgs[ProjectAttributes], nil); err != nil {
		return nil, err
	}
	return args, nil
}

// ExternalConnectorArgs registers the connection to an external data store.
func ExternalConnectorArgs(o *config.Options, in *Inputs, engine string, connection map[string]interface{}) (Args, error) {
	args := BasicArgs(o, in, o.Name)
	args["source"] = engine
	args["connection"] = connection
	if err := UpdateJSONArgs(args, in.JSONArgs[ResourceAttributes], nil); err != nil {
		return nil, err
	}
	return args, nil
}

func ScriptArgs(o *config.Options, in *Inputs, sourceCode string) Args {
	args := BasicArgs(o, in, o.Name)
	args["source_code"] = sourceCode
	return args
}

// ExecutionArgs runs a script with the given [name, value] inputs.
func ExecutionArgs(o *config.Options, in *Inputs, scriptID string, inputs []interface{}) (Args, error) {
	args := BasicArgs(o, in, o.Name)
	args["script"] = scriptID
	if len(inputs) > 0 {
		args["inputs"] = inputs
	}
	if err := UpdateJSONArgs(args, in.JSONArgs[ResourceAttributes], nil); err != nil {
		return nil, err
	}
	return args, nil
}
