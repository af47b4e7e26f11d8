package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/reader"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/bigmler/bigmler/pkg/util"
	"gopkg.in/yaml.v2"
)

const (
	forecastFile = "forecast.json"
	resultsFile  = "whizzml_results"
)

type executionOutput struct {
	Name  string `csv:"name"`
	Value string `csv:"value"`
	Type  string `csv:"type"`
}

// RunKind builds a resource of a kind with its own subcommand (clusters,
// anomaly detectors, deepnets...) and scores the test data with it.
func (p *Pipeline) RunKind(ctx context.Context, kind resources.Kind) error {
	o := p.Options
	if kind.Type == bigml.FusionType {
		if err := p.createFusion(ctx); err != nil {
			return err
		}
	} else {
		if err := p.processProject(ctx); err != nil {
			return err
		}
		if err := p.processSource(ctx); err != nil {
			return err
		}
		if err := p.processDatasets(ctx); err != nil {
			return err
		}
		if err := p.exportDataset(ctx); err != nil {
			return err
		}
		if err := p.processSplit(ctx); err != nil {
			return err
		}
		if !o.NoModel {
			err := p.createModels(ctx, kind, func(f *fields.Fields) (resources.Args, error) {
				return resources.KindArgs(o, p.Inputs, kind, f)
			})
			if err != nil {
				return err
			}
		}
	}

	var err error
	switch {
	case len(p.models) == 0:
	case kind.Type == bigml.TimeSeriesType:
		if o.Horizon > 0 {
			err = p.forecast(ctx, kind)
		}
	case o.Evaluate && kind.Supervised:
		err = p.evaluate(ctx)
	case kind.Batch != "" && (o.HasTest() || p.testDataset != nil):
		err = p.predict(ctx)
	}
	if err != nil {
		return err
	}
	return p.session().PrintGeneratedFiles()
}

// createFusion fuses the --fusion-models, given as a list or as a file of
// ids.
func (p *Pipeline) createFusion(ctx context.Context) error {
	o := p.Options
	if id := p.resumed(resources.Fusion.LogFile, "Fusion not found. Resuming.\n", bigml.FusionType); id != "" {
		fusion, err := p.Manager.Get(ctx, resources.Fusion, id)
		if err != nil {
			return err
		}
		p.models = []*bigml.Resource{fusion}
		return nil
	}

	ids := util.SplitList(o.FusionModels, ",")
	if util.FileExists(o.FusionModels) {
		var err error
		if ids, err = reader.ReadResources(o.FusionModels); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		return errors.New("a fusion needs the models in --fusion-models")
	}

	args, err := resources.KindArgs(o, p.Inputs, resources.Fusion, nil)
	if err != nil {
		return err
	}
	args["models"] = ids
	fusion, err := p.Manager.Create(ctx, resources.Fusion, args)
	if err != nil {
		return err
	}
	p.models = []*bigml.Resource{fusion}
	return nil
}

// forecast predicts the next --horizon points of every objective field of
// the time series.
func (p *Pipeline) forecast(ctx context.Context, kind resources.Kind) error {
	timeSeries := p.models[0]
	var objectives []string
	for _, id := range timeSeries.Get("objective_fields").Array() {
		objectives = append(objectives, id.String())
	}
	if len(objectives) == 0 {
		objectives = []string{timeSeries.ObjectiveFieldID()}
	}

	args, err := resources.ForecastArgs(p.Options, p.Inputs, objectives)
	if err != nil {
		return err
	}
	args["timeseries"] = timeSeries.ID
	forecastKind, _ := kind.BatchKind()
	forecast, err := p.Manager.Create(ctx, forecastKind, args)
	if err != nil {
		return err
	}
	return writeIndented(p.outputFile(forecastFile), forecast.Object)
}

// RunProject creates a project or, given --project-id, updates it.
func (p *Pipeline) RunProject(ctx context.Context) error {
	o := p.Options
	args, err := resources.ProjectArgs(o, p.Inputs, p.name(o.Project))
	if err != nil {
		return err
	}
	if o.ProjectID != "" {
		_, err = p.Manager.Update(ctx, resources.Project, o.ProjectID, args)
	} else {
		if args["name"] == "" {
			return errors.New("a new project needs a --name")
		}
		_, err = p.Manager.Create(ctx, resources.Project, args)
	}
	if err != nil {
		return err
	}
	return p.session().PrintGeneratedFiles()
}

// RunConnector registers an external connector or, given its id, updates it.
func (p *Pipeline) RunConnector(ctx context.Context) error {
	o := p.Options
	connection, err := p.connection()
	if err != nil {
		return err
	}
	args, err := resources.ExternalConnectorArgs(o, p.Inputs, o.Engine, connection)
	if err != nil {
		return err
	}

	if len(connection) == 0 {
		delete(args, "connection")
	}
	if o.ExternalConnector != "" {
		delete(args, "source")
		_, err = p.Manager.Update(ctx, resources.ExternalConnector, o.ExternalConnector, args)
	} else {
		if o.Engine == "" {
			return errors.New("a new connector needs the --engine of the data store")
		}
		_, err = p.Manager.Create(ctx, resources.ExternalConnector, args)
	}
	if err != nil {
		return err
	}
	return p.session().PrintGeneratedFiles()
}

func (p *Pipeline) connection() (map[string]interface{}, error) {
	o := p.Options
	if o.ConnectionJSON != "" {
		return reader.ReadJSON(o.ConnectionJSON)
	}
	connection := map[string]interface{}{}
	for key, value := range map[string]string{"host": o.Host, "user": o.User, "password": o.Password, "database": o.Database} {
		if value != "" {
			connection[key] = value
		}
	}
	if o.Port > 0 {
		connection["port"] = o.Port
	}
	if len(connection) == 0 && o.ExternalConnector == "" {
		return nil, errors.New("a connector needs --connection-json or the --host of the data store")
	}
	return connection, nil
}

// RunExecute runs a WhizzML script, creating it first from --code or
// --code-file, and saves the outputs of the execution.
func (p *Pipeline) RunExecute(ctx context.Context) error {
	o := p.Options
	scriptID, err := p.processScript(ctx)
	if err != nil {
		return err
	}
	inputs, err := readExecutionInputs(o.InputsFile)
	if err != nil {
		return err
	}

	var execution *bigml.Resource
	if id := p.resumed(resources.Execution.LogFile, "Execution not found. Resuming.\n", bigml.ExecutionType); id != "" {
		execution, err = p.Manager.Get(ctx, resources.Execution, id)
	} else {
		var args resources.Args
		if args, err = resources.ExecutionArgs(o, p.Inputs, scriptID, inputs); err == nil {
			execution, err = p.Manager.Create(ctx, resources.Execution, args)
		}
	}
	if err != nil {
		return err
	}

	if err := p.saveResults(execution); err != nil {
		return err
	}
	return p.session().PrintGeneratedFiles()
}

func (p *Pipeline) processScript(ctx context.Context) (string, error) {
	o := p.Options
	if o.Script != "" {
		return o.Script, nil
	}
	if id := p.resumed(resources.Script.LogFile, "Script not found. Resuming.\n", bigml.ScriptType); id != "" {
		return id, nil
	}

	code := o.Code
	if o.CodeFile != "" {
		content, err := os.ReadFile(o.CodeFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", o.CodeFile, err)
		}
		code = string(content)
	}
	if code == "" {
		return "", errors.New("an execution needs --script, --code or --code-file")
	}
	script, err := p.Manager.Create(ctx, resources.Script, resources.ScriptArgs(o, p.Inputs, code))
	if err != nil {
		return "", err
	}
	return script.ID, nil
}

// readExecutionInputs reads the inputs of a script either as a list of
// [name, value] pairs or as an object.
func readExecutionInputs(path string) ([]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var pairs []interface{}
	if err := json.Unmarshal(content, &pairs); err == nil {
		return pairs, nil
	}
	var object map[string]interface{}
	if err := json.Unmarshal(content, &object); err != nil {
		return nil, fmt.Errorf("inputs in %s are neither a list of pairs nor an object: %w", path, err)
	}
	names := make([]string, 0, len(object))
	for name := range object {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pairs = append(pairs, []interface{}{name, object[name]})
	}
	return pairs, nil
}

// saveResults writes the execution results in whizzml_results.json and
// .txt and shows its outputs.
func (p *Pipeline) saveResults(execution *bigml.Resource) error {
	results := execution.Get("execution")
	base := p.session().Path(resultsFile)
	if err := writeIndented(base+".json", []byte(results.Raw)); err != nil {
		return err
	}

	var value interface{}
	if results.Exists() {
		if err := json.Unmarshal([]byte(results.Raw), &value); err != nil {
			return err
		}
	}
	text, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".txt", text, 0644); err != nil {
		return fmt.Errorf("failed to write %s.txt: %w", base, err)
	}

	var outputs []executionOutput
	for _, output := range results.Get("outputs").Array() {
		outputs = append(outputs, executionOutput{
			Name:  output.Get("0").String(),
			Value: output.Get("1").String(),
			Type:  output.Get("2").String(),
		})
	}
	if len(outputs) == 0 || p.session().Verbosity == 0 {
		return nil
	}
	return util.MarshalAndPrintTable(p.session().Console, outputs)
}

func writeIndented(path string, content []byte) error {
	if len(content) == 0 {
		content = []byte("{}")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "    "); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
