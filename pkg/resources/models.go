package resources

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
)

// SampledEvaluation tells whether the evaluation has to hold out a sample
// of the training data because no test data is given.
func SampledEvaluation(o *config.Options) bool {
	if !o.Evaluate || o.TestSplit > 0 || o.Test != "" || o.TestDataset != "" || o.TestSource != "" {
		return false
	}
	// an existing model evaluated on a given dataset uses all its rows
	existingModel := o.Model != "" || o.Models != "" || o.Ensemble != "" || o.Ensembles != ""
	return !(o.Dataset != "" && existingModel)
}

// CrossValidation tells whether the sampled evaluation is repeated on
// --number-of-evaluations models, each trained on a different sample.
func CrossValidation(o *config.Options) bool {
	return o.NumberOfEvaluations > 1 && SampledEvaluation(o)
}

// EvaluationSampleRate is the rate of the training sample when evaluating
// without test data.
func EvaluationSampleRate(o *config.Options) float64 {
	if o.SampleRate == 1 {
		return EvaluateSampleRate
	}
	return o.SampleRate
}

func modelSampling(args Args, o *config.Options) Args {
	if !SampledEvaluation(o) {
		return UpdateSampleParametersArgs(args, o, false)
	}
	args["seed"] = Seed
	sampled := *o
	sampled.SampleRate = EvaluationSampleRate(o)
	return UpdateSampleParametersArgs(args, &sampled, false)
}

func treeArgs(args Args, o *config.Options, in *Inputs, f *fields.Fields) error {
	args["missing_splits"] = o.MissingSplits

	if o.Objective != "" && f != nil {
		id, err := f.FieldID(o.Objective)
		if err != nil {
			return err
		}
		args["objective_field"] = id
	}
	if len(in.ModelFields) > 0 && f != nil {
		inputFields, err := fields.ConfigureInputFields(f, in.ModelFields, false)
		if err != nil {
			return err
		}
		args["input_fields"] = inputFields
	}
	if o.Pruning != "" && o.Pruning != "smart" {
		args["stat_pruning"] = o.Pruning == "statistical"
	}
	if o.NodeThreshold > 0 {
		args["node_threshold"] = o.NodeThreshold
	}
	if o.Balance {
		args["balance_objective"] = true
	}
	if o.WeightField != "" && f != nil {
		id, err := f.FieldID(o.WeightField)
		if err != nil {
			return err
		}
		args["weight_field"] = id
	}
	if in.ObjectiveWeights != nil {
		args["objective_weights"] = in.ObjectiveWeights
	}
	if o.MaxNodes > 0 {
		args["max_nodes"] = o.MaxNodes
	}
	return nil
}

// ModelArgs are the arguments used to create a decision tree.
func ModelArgs(o *config.Options, in *Inputs, f *fields.Fields) (Args, error) {
	args := BasicArgs(o, in, o.Name)
	if err := treeArgs(args, o, in, f); err != nil {
		return nil, err
	}
	args = modelSampling(args, o)
	if err := UpdateJSONArgs(args, in.JSONArgs[ModelAttributes], f); err != nil {
		return nil, err
	}
	return args, nil
}

// EnsembleArgs are the arguments used to create a bagging, random decision
// forest or boosted ensemble.
func EnsembleArgs(o *config.Options, in *Inputs, f *fields.Fields) (Args, error) {
	args := BasicArgs(o, in, o.Name)
	if err := treeArgs(args, o, in, f); err != nil {
		return nil, err
	}
	args["ensemble_sample"] = map[string]interface{}{"seed": seed(o)}
	args["seed"] = seed(o)

	if o.Boosting {
		boosting := map[string]interface{}{}
		if o.BoostingIterations > 0 {
			boosting["iterations"] = o.BoostingIterations
		}
		args["boosting"] = boosting
	} else {
		args["number_of_models"] = o.NumberOfModels
	}
	if o.RandomCandidates > 0 {
		args["random_candidates"] = o.RandomCandidates
	}

	args = modelSampling(args, o)
	if err := UpdateJSONArgs(args, in.JSONArgs[ModelAttributes], f); err != nil {
		return nil, err
	}
	if err := UpdateJSONArgs(args, in.JSONArgs[EnsembleAttributes], f); err != nil {
		return nil, err
	}
	return args, nil
}

// IsEnsemble tells whether the options ask for an ensemble instead of
// single models.
func IsEnsemble(o *config.Options) bool {
	return o.NumberOfModels > 1 || o.Boosting
}
