package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/bigmler/bigmler/pkg/util"
	"gopkg.in/yaml.v2"
)

type evaluationMetric struct {
	Metric string `csv:"metric"`
	Model  string `csv:"model"`
	Mode   string `csv:"mode"`
	Random string `csv:"random"`
}

// evaluate measures the models on the test data or, lacking it, on the
// rows of the training dataset left out of the model sample.
func (p *Pipeline) evaluate(ctx context.Context) error {
	o := p.Options
	dataset := p.testDataset
	if dataset == nil && o.HasTest() {
		var err error
		if dataset, err = p.processTestDataset(ctx); err != nil {
			return err
		}
	}
	if dataset == nil {
		if len(p.datasets) == 0 {
			return errors.New("no dataset to evaluate the models with")
		}
		dataset = p.datasets[0]
	}

	datasetFields, _ := fields.FromResource(dataset)
	sampled := p.seeded && p.testDataset == nil && resources.SampledEvaluation(o)
	argsList := make([]resources.Args, 0, len(p.models))
	for i, model := range p.models {
		modelFields, _ := fields.FromResource(model)
		args, err := resources.EvaluationArgs(o, p.Inputs, modelFields, datasetFields)
		if err != nil {
			return err
		}
		args[string(model.Type())] = model.ID
		args["dataset"] = dataset.ID
		if sampled {
			// out of bag rows of the sample the model was built on
			args["seed"] = resources.BasicSeed(i)
			args["dataset"] = modelDataset(p.datasets, i).ID
		}
		argsList = append(argsList, args)
	}

	base := p.evaluationBase()
	if len(argsList) == 1 {
		evaluation, err := p.singleEvaluation(ctx, argsList[0])
		if err != nil {
			return err
		}
		object, err := evaluation.Map()
		if err != nil {
			return err
		}
		if err := saveEvaluation(object, base); err != nil {
			return err
		}
		return p.printEvaluation(object)
	}

	existing := p.resumedMany(resources.Evaluation.LogFile, len(argsList), resources.Evaluation)
	evaluations, err := p.getAll(ctx, existing)
	if err != nil {
		return err
	}
	created, err := p.Manager.CreateMany(ctx, resources.Evaluation, argsList[len(existing):], p.maxParallel(resources.Evaluation))
	if err != nil {
		return err
	}
	evaluations = append(evaluations, created...)

	results := make([]interface{}, 0, len(evaluations))
	for _, evaluation := range evaluations {
		object, err := evaluation.Map()
		if err != nil {
			return err
		}
		if err := saveEvaluation(object, base+"_"+strings.ReplaceAll(evaluation.ID, "/", "_")); err != nil {
			return err
		}
		results = append(results, object["result"])
	}
	average := map[string]interface{}{"result": averageResults(results)}
	if err := saveEvaluation(average, base); err != nil {
		return err
	}
	return p.printEvaluation(average)
}

func (p *Pipeline) singleEvaluation(ctx context.Context, args resources.Args) (*bigml.Resource, error) {
	if id := p.resumed(resources.Evaluation.LogFile, "Evaluation not found. Resuming.\n", bigml.EvaluationType); id != "" {
		return p.Manager.Get(ctx, resources.Evaluation, id)
	}
	return p.Manager.Create(ctx, resources.Evaluation, args)
}

// saveEvaluation writes the evaluation as JSON in base.json and its results
// in a readable form in base.txt.
func saveEvaluation(object map[string]interface{}, base string) error {
	content, err := json.MarshalIndent(object, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".json", content, 0644); err != nil {
		return fmt.Errorf("failed to write %s.json: %w", base, err)
	}

	text, err := yaml.Marshal(object["result"])
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".txt", text, 0644); err != nil {
		return fmt.Errorf("failed to write %s.txt: %w", base, err)
	}
	return nil
}

// averageResults averages the numbers found at the same place of every
// result. Anything else is taken from the first result.
func averageResults(results []interface{}) interface{} {
	if len(results) == 0 {
		return nil
	}
	switch first := results[0].(type) {
	case float64:
		sum := 0.0
		for _, result := range results {
			value, ok := result.(float64)
			if !ok {
				return first
			}
			sum += value
		}
		return sum / float64(len(results))
	case map[string]interface{}:
		average := map[string]interface{}{}
		for key := range first {
			values := make([]interface{}, 0, len(results))
			for _, result := range results {
				if m, ok := result.(map[string]interface{}); ok {
					if value, ok := m[key]; ok {
						values = append(values, value)
					}
				}
			}
			if len(values) == len(results) {
				average[key] = averageResults(values)
			}
		}
		return average
	}
	return results[0]
}

// printEvaluation shows the metrics of the model next to the ones of the
// mode and random baselines.
func (p *Pipeline) printEvaluation(object map[string]interface{}) error {
	s := p.session()
	if s.Verbosity == 0 {
		return nil
	}
	result, _ := object["result"].(map[string]interface{})
	model, _ := result["model"].(map[string]interface{})
	mode, _ := result["mode"].(map[string]interface{})
	random, _ := result["random"].(map[string]interface{})

	var names []string
	for name, value := range model {
		if _, ok := value.(float64); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	metrics := make([]evaluationMetric, 0, len(names))
	for _, name := range names {
		metrics = append(metrics, evaluationMetric{
			Metric: name,
			Model:  metricValue(model, name),
			Mode:   metricValue(mode, name),
			Random: metricValue(random, name),
		})
	}
	fmt.Fprintln(s.Console)
	return util.MarshalAndPrintTable(s.Console, metrics)
}

func metricValue(metrics map[string]interface{}, name string) string {
	value, ok := metrics[name].(float64)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.5f", value)
}
