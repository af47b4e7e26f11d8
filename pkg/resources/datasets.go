package resources

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
)

// DatasetArgs are the arguments used to create a dataset from a source or
// from other datasets.
func DatasetArgs(o *config.Options, in *Inputs, f *fields.Fields) (Args, error) {
	args := BasicArgs(o, in, o.Name)
	if o.SampleRate != 1 && o.NoModel {
		args["seed"] = seed(o)
		args["sample_rate"] = o.SampleRate
	}

	if o.Objective != "" && f != nil {
		id, err := f.FieldID(o.Objective)
		if err != nil {
			return nil, err
		}
		args["objective_field"] = map[string]interface{}{"id": id}
	}

	if in.JSONFilter != nil {
		args["json_filter"] = in.JSONFilter
	} else if in.LispFilter != "" {
		args["lisp_filter"] = in.LispFilter
	}

	if len(in.DatasetFields) > 0 && f != nil {
		inputFields, err := fields.ConfigureInputFields(f, in.DatasetFields, false)
		if err != nil {
			return nil, err
		}
		args["input_fields"] = inputFields
	}

	if err := UpdateJSONArgs(args, in.JSONArgs[DatasetAttributes], f); err != nil {
		return nil, err
	}
	return args, nil
}

// NewFieldsArgs generates a dataset from another one adding the fields
// described in the --new-fields JSON file.
func NewFieldsArgs(o *config.Options, in *Inputs) Args {
	args := BasicArgs(o, in, o.Name)
	for k, v := range in.NewFields {
		args[k] = v
	}
	return args
}

// SplitArgs samples a dataset into the train or the test part of a split.
// Both parts share the seed, the test part being the out of bag rows.
func SplitArgs(o *config.Options, in *Inputs, name string, sampleRate float64, outOfBag bool) Args {
	return Args{
		"name":        name,
		"description": in.Description,
		"category":    o.Category,
		"tags":        BasicArgs(o, in, name)["tags"],
		"seed":        seed(o),
		"sample_rate": sampleRate,
		"out_of_bag":  outOfBag,
	}
}
