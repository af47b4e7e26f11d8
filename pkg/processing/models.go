package processing

import (
	"context"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/reader"
	"github.com/bigmler/bigmler/pkg/resources"
)

type argsBuilder func(f *fields.Fields) (resources.Args, error)

// existingModels retrieves the models or ensembles given in the options.
func (p *Pipeline) existingModels(ctx context.Context) (bool, error) {
	o := p.Options
	var ids []string
	for _, id := range []string{o.Model, o.Ensemble} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	for _, file := range []string{o.Models, o.Ensembles} {
		if file == "" {
			continue
		}
		listed, err := reader.ReadResources(file)
		if err != nil {
			return false, err
		}
		ids = append(ids, listed...)
	}
	if len(ids) == 0 {
		return false, nil
	}

	models, err := p.getAll(ctx, ids)
	if err != nil {
		return false, err
	}
	p.models = models
	return true, nil
}

// maxParallel is the number of resources of the kind kept in progress.
func (p *Pipeline) maxParallel(kind resources.Kind) int {
	switch kind.Type {
	case bigml.EnsembleType:
		return p.Options.MaxParallelEnsembles
	case bigml.ClusterType:
		return p.Options.MaxParallelClusters
	case bigml.EvaluationType:
		return p.Options.MaxParallelEvaluations
	}
	return p.Options.MaxParallelModels
}

// createModels creates one resource of the given kind per training dataset,
// keeping at most maxParallel of them in progress. A cross-validated single
// dataset gets --number-of-evaluations resources built on different seeds.
func (p *Pipeline) createModels(ctx context.Context, kind resources.Kind, build argsBuilder) error {
	datasets := p.datasets
	if len(datasets) == 0 {
		return nil
	}
	count := len(datasets)
	if count == 1 && resources.CrossValidation(p.Options) {
		count = p.Options.NumberOfEvaluations
	}
	f, err := fields.FromResource(datasets[0])
	if err != nil {
		return err
	}
	args, err := build(f)
	if err != nil {
		return err
	}

	if count == 1 {
		if id := p.resumed(kind.LogFile, kind.Title()+" not found. Resuming.\n", kind.Type); id != "" {
			model, err := p.Manager.Get(ctx, kind, id)
			if err != nil {
				return err
			}
			p.models = []*bigml.Resource{model}
			return nil
		}
		model, err := p.Manager.Create(ctx, kind, withArgs(args, "dataset", datasets[0].ID))
		if err != nil {
			return err
		}
		p.models = []*bigml.Resource{model}
		return nil
	}

	existing := p.resumedMany(kind.LogFile, count, kind)
	models, err := p.getAll(ctx, existing)
	if err != nil {
		return err
	}
	argsList := make([]resources.Args, 0, count-len(existing))
	for i := len(existing); i < count; i++ {
		argsList = append(argsList, withArgs(args, "dataset", modelDataset(datasets, i).ID, "seed", resources.BasicSeed(i)))
	}
	created, err := p.Manager.CreateMany(ctx, kind, argsList, p.maxParallel(kind))
	if err != nil {
		return err
	}
	p.models = append(models, created...)
	p.seeded = true
	return nil
}

// modelDataset is the training dataset of the i-th model: its own dataset or
// the only one when cross-validating.
func modelDataset(datasets []*bigml.Resource, i int) *bigml.Resource {
	if len(datasets) == 1 {
		return datasets[0]
	}
	return datasets[i]
}
