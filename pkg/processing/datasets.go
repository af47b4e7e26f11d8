package processing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/reader"
	"github.com/bigmler/bigmler/pkg/resources"
)

const (
	trainDatasetLog = "dataset_train"
	testDatasetLog  = "dataset_test"
	genDatasetLog   = "dataset_gen"
	multiDatasetLog = "dataset_multi"
)

// processDatasets retrieves the --dataset or --datasets, or creates the
// dataset of the source. Filters and new fields generate a new dataset
// from the retrieved one.
func (p *Pipeline) processDatasets(ctx context.Context) error {
	o := p.Options
	switch {
	case o.Dataset != "":
		dataset, err := p.Manager.Get(ctx, resources.Dataset, o.Dataset)
		if err != nil {
			return err
		}
		p.datasets = []*bigml.Resource{dataset}
	case o.Datasets != "":
		ids, err := reader.ReadResources(o.Datasets)
		if err != nil {
			return err
		}
		if p.datasets, err = p.getAll(ctx, ids); err != nil {
			return err
		}
	case p.source != nil && !o.NoDataset:
		dataset, err := p.datasetFromSource(ctx)
		if err != nil {
			return err
		}
		p.datasets = []*bigml.Resource{dataset}
		return nil
	default:
		return nil
	}

	if err := p.multiDataset(ctx); err != nil {
		return err
	}
	return p.generateDataset(ctx)
}

func (p *Pipeline) datasetFromSource(ctx context.Context) (*bigml.Resource, error) {
	if id := p.resumed(resources.Dataset.LogFile, "Dataset not found. Resuming.\n", bigml.DatasetType); id != "" {
		return p.Manager.Get(ctx, resources.Dataset, id)
	}

	f, _ := fields.FromResource(p.source)
	args, err := resources.DatasetArgs(p.Options, p.Inputs, f)
	if err != nil {
		return nil, err
	}
	args["source"] = p.source.ID
	return p.Manager.Create(ctx, resources.Dataset, args)
}

// multiDataset merges the datasets into one when --multi-dataset is set.
func (p *Pipeline) multiDataset(ctx context.Context) error {
	if !p.Options.MultiDataset || len(p.datasets) < 2 {
		return nil
	}
	if id := p.resumed(multiDatasetLog, "Multi-dataset not found. Resuming.\n", bigml.DatasetType); id != "" {
		dataset, err := p.Manager.Get(ctx, resources.Dataset, id)
		if err != nil {
			return err
		}
		p.datasets = []*bigml.Resource{dataset}
		return nil
	}

	ids := make([]string, 0, len(p.datasets))
	for _, dataset := range p.datasets {
		ids = append(ids, dataset.ID)
	}
	args, err := resources.DatasetArgs(p.Options, p.Inputs, nil)
	if err != nil {
		return err
	}
	args["origin_datasets"] = ids
	dataset, err := p.Manager.CreateIn(ctx, resources.Dataset, args, multiDatasetLog)
	if err != nil {
		return err
	}
	p.datasets = []*bigml.Resource{dataset}
	return nil
}

// generateDataset filters, samples or adds fields to an existing dataset.
func (p *Pipeline) generateDataset(ctx context.Context) error {
	o := p.Options
	in := p.Inputs
	needed := in.JSONFilter != nil || in.LispFilter != "" || in.NewFields != nil ||
		len(in.DatasetFields) > 0 || (o.NoModel && o.SampleRate != 1)
	if !needed || len(p.datasets) != 1 {
		return nil
	}

	if id := p.resumed(genDatasetLog, "Dataset not found. Resuming.\n", bigml.DatasetType); id != "" {
		dataset, err := p.Manager.Get(ctx, resources.Dataset, id)
		if err != nil {
			return err
		}
		p.datasets = []*bigml.Resource{dataset}
		return nil
	}

	origin := p.datasets[0]
	f, err := fields.FromResource(origin)
	if err != nil {
		return err
	}
	args, err := resources.DatasetArgs(o, in, f)
	if err != nil {
		return err
	}
	for k, v := range resources.NewFieldsArgs(o, in) {
		args[k] = v
	}
	args["origin_dataset"] = origin.ID
	dataset, err := p.Manager.CreateIn(ctx, resources.Dataset, args, genDatasetLog)
	if err != nil {
		return err
	}
	p.datasets = []*bigml.Resource{dataset}
	return nil
}

// exportDataset downloads the first dataset as CSV when --to-csv is set.
func (p *Pipeline) exportDataset(ctx context.Context) error {
	o := p.Options
	if o.ToCSV == "" || len(p.datasets) == 0 {
		return nil
	}
	path := o.ToCSV
	if !filepath.IsAbs(path) {
		path = p.session().Path(path)
	}

	dataset := p.datasets[0]
	p.session().Dated(fmt.Sprintf("Exporting dataset %s to CSV file: %s\n", dataset.ID, path))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()
	if err := p.Manager.Client.Download(ctx, dataset.ID, file); err != nil {
		return fmt.Errorf("failed to export %s: %w", dataset.ID, err)
	}
	return nil
}

// processSplit divides the dataset in a train and a test part with the
// same seed. The test part holds the out of bag rows.
func (p *Pipeline) processSplit(ctx context.Context) error {
	o := p.Options
	if o.TestSplit <= 0 || len(p.datasets) == 0 {
		return nil
	}
	origin := p.datasets[0]
	rate := 1 - o.TestSplit
	name := p.name(origin.Name())

	train, err := p.splitPart(ctx, origin, trainDatasetLog, name+" - train", rate, false)
	if err != nil {
		return err
	}
	test, err := p.splitPart(ctx, origin, testDatasetLog, name+" - test", rate, true)
	if err != nil {
		return err
	}
	p.datasets = []*bigml.Resource{train}
	p.testDataset = test
	return nil
}

func (p *Pipeline) splitPart(ctx context.Context, origin *bigml.Resource, logFile string, name string, rate float64, outOfBag bool) (*bigml.Resource, error) {
	if id := p.resumed(logFile, "Dataset not found. Resuming.\n", bigml.DatasetType); id != "" {
		return p.Manager.Get(ctx, resources.Dataset, id)
	}
	args := resources.SplitArgs(p.Options, p.Inputs, name, rate, outOfBag)
	args["origin_dataset"] = origin.ID
	return p.Manager.CreateIn(ctx, resources.Dataset, args, logFile)
}
