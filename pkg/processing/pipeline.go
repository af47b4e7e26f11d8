package processing

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/checkpoint"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/constants"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/bigmler/bigmler/pkg/session"
	"github.com/bigmler/bigmler/pkg/util"
	"go.uber.org/zap"
)

// Pipeline runs the stages of a command in order: project, source,
// datasets, models and their predictions or evaluations. When resuming, the
// ids logged by a previous run are reused until the first missing stage;
// from then on every resource is created again.
type Pipeline struct {
	Options *config.Options
	Inputs  *resources.Inputs
	Manager *resources.Manager
	Checker checkpoint.Checker

	resume bool

	source      *bigml.Resource
	datasets    []*bigml.Resource
	testDataset *bigml.Resource
	models      []*bigml.Resource
	// models[i] was built with resources.BasicSeed(i)
	seeded bool
}

func New(o *config.Options, in *resources.Inputs, m *resources.Manager) *Pipeline {
	return &Pipeline{
		Options: o,
		Inputs:  in,
		Manager: m,
		Checker: checkpoint.Checker{
			Dir:     m.Session.Dir,
			Log:     m.Session,
			Console: m.Session.Verbosity > 0,
			Logger:  m.Session.Logger,
		},
		resume: o.Resume,
	}
}

func (p *Pipeline) session() *session.Session {
	return p.Manager.Session
}

// Models returns the models, ensembles or other resources built or
// retrieved by the last run.
func (p *Pipeline) Models() []*bigml.Resource {
	return p.models
}

func (p *Pipeline) Datasets() []*bigml.Resource {
	return p.datasets
}

// Run trains, predicts and evaluates with decision trees or ensembles.
func (p *Pipeline) Run(ctx context.Context) error {
	o := p.Options
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

	kind := resources.Model
	if resources.IsEnsemble(o) {
		kind = resources.Ensemble
	}
	if !o.NoModel {
		found, err := p.existingModels(ctx)
		if err != nil {
			return err
		}
		if !found {
			err = p.createModels(ctx, kind, func(f *fields.Fields) (resources.Args, error) {
				if kind.Type == bigml.EnsembleType {
					return resources.EnsembleArgs(o, p.Inputs, f)
				}
				return resources.ModelArgs(o, p.Inputs, f)
			})
			if err != nil {
				return err
			}
		}
	}

	if err := p.score(ctx); err != nil {
		return err
	}
	return p.session().PrintGeneratedFiles()
}

// score predicts the test data or evaluates the models.
func (p *Pipeline) score(ctx context.Context) error {
	if len(p.models) == 0 {
		return nil
	}
	if p.Options.Evaluate {
		return p.evaluate(ctx)
	}
	if p.Options.HasTest() || p.testDataset != nil {
		return p.predict(ctx)
	}
	return nil
}

// resumed returns the id logged in logName while the run is resuming. The
// first missing id ends the resumption.
func (p *Pipeline) resumed(logName string, message string, types ...bigml.ResourceType) string {
	if !p.resume {
		return ""
	}
	ok, id := p.Checker.Resource(logName, util.Dated(message), types...)
	if !ok {
		p.resume = false
		return ""
	}
	return id
}

// resumedMany returns the ids already created out of n.
func (p *Pipeline) resumedMany(logName string, n int, kind resources.Kind) []string {
	if !p.resume {
		return nil
	}
	ok, ids := checkpoint.AreResourcesCreated(p.Checker.Dir, logName, n, kind.Type)
	if !ok {
		p.resume = false
		p.session().Dated(fmt.Sprintf("Found %d %s out of %d. Resuming.\n", len(ids), util.Plural(kind.Name, n), n))
	}
	return ids
}

// outputFile is the file the results of the run are written to: --output
// or name in the session directory.
func (p *Pipeline) outputFile(name string) string {
	if p.Options.Output != "" {
		return p.Options.Output
	}
	return p.session().Path(name)
}

// evaluationBase is the output file without extension, evaluation files
// adding .json and .txt.
func (p *Pipeline) evaluationBase() string {
	output := p.outputFile(constants.DefaultEvaluation)
	return strings.TrimSuffix(output, filepath.Ext(output))
}

func (p *Pipeline) name(fallback string) string {
	return nameOr(p.Options.Name, fallback)
}

func nameOr(name string, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func withArgs(args resources.Args, keyValues ...interface{}) resources.Args {
	copied := make(resources.Args, len(args)+len(keyValues)/2)
	for k, v := range args {
		copied[k] = v
	}
	for i := 0; i+1 < len(keyValues); i += 2 {
		copied[keyValues[i].(string)] = keyValues[i+1]
	}
	return copied
}

func (p *Pipeline) getAll(ctx context.Context, ids []string) ([]*bigml.Resource, error) {
	list := make([]*bigml.Resource, 0, len(ids))
	for _, id := range ids {
		kind, ok := resources.KindOf(bigml.TypeOf(id))
		if !ok {
			return nil, fmt.Errorf("unexpected resource %s", id)
		}
		resource, err := p.Manager.Get(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		list = append(list, resource)
	}
	p.session().Logger.Debug("resources retrieved", zap.Strings("resources", ids))
	return list, nil
}
