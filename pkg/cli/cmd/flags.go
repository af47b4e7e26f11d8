package cmd

import (
	"fmt"
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/spf13/pflag"
)

func addConnectionFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.Username, "username", "", "BigML username (defaults to BIGML_USERNAME)")
	fs.StringVar(&o.APIKey, "api-key", "", "BigML API key (defaults to BIGML_API_KEY)")
	fs.StringVar(&o.Domain, "domain", "", "domain of the BigML API (defaults to BIGML_DOMAIN or bigml.io)")
	fs.StringVar(&o.Organization, "organization", "", "organization the resources belong to")
	fs.StringVar(&o.OrgProject, "org-project", "", "project of the organization the resources belong to")
	fs.BoolVar(&o.Debug, "debug", false, "log every API call")
	fs.IntVar(&o.Verbosity, "verbosity", 1, "0 to silence the console output")
	fs.BoolVar(&o.Yes, "yes", false, "answer yes to every confirmation")
}

func addSessionFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.OutputDir, "output-dir", "", "directory for the generated files (defaults to the launch time)")
	fs.StringVar(&o.Output, "output", "", "file for the predictions or evaluation")
	fs.BoolVar(&o.Resume, "resume", false, "resume the last command from the resources it already created")
	fs.IntVar(&o.StackLevel, "stack-level", 0, "resume the command logged this many positions before the last one")
	fs.BoolVar(&o.ClearLogs, "clear-logs", false, "clear the command and directory logs")
	fs.StringVar(&o.ResourcesLog, "resources-log", "", "file that receives every created resource id")
	fs.BoolVar(&o.Open, "open", false, "open the last created resource in the dashboard")
}

func addBasicFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.Name, "name", "", "name of the new resources")
	fs.StringVar(&o.Description, "description", "", "file with the description of the new resources")
	fs.IntVar(&o.Category, "category", 0, "category code of the new resources")
	fs.StringArrayVar(&o.Tags, "tag", nil, "tag of the new resources (repeatable)")
	fs.StringVar(&o.Project, "project", "", "name of the project for the new sources")
	fs.StringVar(&o.ProjectID, "project-id", "", "id of the project for the new sources")
}

func addSourceFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.Train, "train", "", "training data: a file, a URL or an external connector JSON")
	fs.BoolVar(&o.TrainHeader, "train-header", true, "the training file starts with a header row")
	fs.StringVar(&o.TrainingSeparator, "training-separator", "", "separator of the training file")
	fs.StringVar(&o.Locale, "locale", "", "locale of the training data")
	fs.StringVar(&o.FieldAttributes, "field-attributes", "", "CSV file of column, name, label, description")
	fs.StringVar(&o.Types, "types", "", "CSV file of column, optype")
	fs.StringVar(&o.SourceAttributes, "source-attributes", "", "JSON file of source attributes")
	fs.StringVar(&o.Source, "source", "", "id of an existing source")
	fs.StringVar(&o.ExternalConnector, "external-connector-id", "", "id of the external connector for the training data")
	fs.StringVar(&o.ExternalQuery, "external-query", "", "query of the external connector for the training data")
	fs.StringVar(&o.ProjectAttributes, "project-attributes", "", "JSON file of project attributes")
}

func addImagesFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.ImagesDir, "images-dir", "", "directory of the images to upload")
	fs.StringVar(&o.ImagesFile, "images-file", "", "zip file of the images to upload")
	fs.StringVar(&o.AnnotationsFile, "annotations-file", "", "JSON file of annotations")
	fs.StringVar(&o.AnnotationsDir, "annotations-dir", "", "directory of YOLO or VOC annotations")
	fs.StringVar(&o.AnnotationsLanguage, "annotations-language", "", "YOLO or VOC")
}

func addDatasetFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.Dataset, "dataset", "", "id of an existing dataset")
	fs.StringVar(&o.Datasets, "datasets", "", "file of dataset ids")
	fs.StringVar(&o.DatasetAttributes, "dataset-attributes", "", "JSON file of dataset attributes")
	fs.StringVar(&o.JSONFilter, "json-filter", "", "file with a JSON filter")
	fs.StringVar(&o.LispFilter, "lisp-filter", "", "file with a Flatline filter")
	fs.StringVar(&o.NewFields, "new-fields", "", "JSON file of new fields")
	fs.StringVar(&o.DatasetFields, "dataset-fields", "", "comma separated fields of the new dataset")
	fs.BoolVar(&o.NoDataset, "no-dataset", false, "do not create a dataset")
	fs.BoolVar(&o.MultiDataset, "multi-dataset", false, "merge the datasets into one")
	fs.StringVar(&o.ToCSV, "to-csv", "", "export the dataset to this CSV file")
	fs.Float64Var(&o.SampleRate, "sample-rate", 1, "sample rate")
	fs.BoolVar(&o.Replacement, "replacement", false, "sample with replacement")
	fs.BoolVar(&o.Randomize, "randomize", false, "randomize the field candidates of the splits")
	fs.StringVar(&o.Seed, "seed", "", "seed of the samples")
	fs.Float64Var(&o.TestSplit, "test-split", 0, "rate of the dataset held out as test set")
}

func addModelFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.Model, "model", "", "id of an existing model")
	fs.StringVar(&o.Models, "models", "", "file of model ids")
	fs.StringVar(&o.Ensemble, "ensemble", "", "id of an existing ensemble")
	fs.StringVar(&o.Ensembles, "ensembles", "", "file of ensemble ids")
	fs.BoolVar(&o.NoModel, "no-model", false, "do not create a model")
	fs.StringVar(&o.Objective, "objective", "", "name or column of the objective field")
	fs.StringVar(&o.ModelFields, "model-fields", "", "comma separated input fields, +field or -field to change the defaults")
	fs.StringVar(&o.WeightField, "weight-field", "", "field holding the weight of each row")
	fs.StringVar(&o.ObjectiveWeights, "objective-weights", "", "CSV file of class, weight")
	fs.StringVar(&o.ModelAttributes, "model-attributes", "", "JSON file of model attributes")
	fs.StringVar(&o.EnsembleAttributes, "ensemble-attributes", "", "JSON file of ensemble attributes")
	fs.IntVar(&o.NumberOfModels, "number-of-models", 1, "number of models of the ensemble")
	fs.IntVar(&o.MaxParallelModels, "max-parallel-models", 1, "models created at a time")
	fs.IntVar(&o.MaxParallelEvaluations, "max-parallel-evaluations", 1, "evaluations created at a time")
	fs.IntVar(&o.MaxParallelEnsembles, "max-parallel-ensembles", 1, "ensembles created at a time")
	fs.BoolVar(&o.Boosting, "boosting", false, "build a boosted ensemble")
	fs.IntVar(&o.BoostingIterations, "boosting-iterations", 0, "iterations of the boosted ensemble")
	fs.StringVar(&o.Pruning, "pruning", "", "smart, statistical or no-pruning")
	fs.IntVar(&o.NodeThreshold, "node-threshold", 0, "maximum number of nodes")
	fs.BoolVar(&o.MissingSplits, "missing-splits", false, "include missing values in the splits")
	fs.BoolVar(&o.Balance, "balance", false, "balance the objective classes")
	fs.IntVar(&o.RandomCandidates, "random-candidates", 0, "fields considered at each split of a random decision forest")
}

func addTestFlags(fs *pflag.FlagSet, o *config.Options) {
	fs.StringVar(&o.Test, "test", "", "test data: a file or a URL")
	fs.BoolVar(&o.TestHeader, "test-header", true, "the test file starts with a header row")
	fs.StringVar(&o.TestSeparator, "test-separator", "", "separator of the test file")
	fs.StringVar(&o.TestSource, "test-source", "", "id of an existing test source")
	fs.StringVar(&o.TestDataset, "test-dataset", "", "id of an existing test dataset")
	fs.BoolVar(&o.Remote, "remote", true, "predict remotely")
	fs.BoolVar(&o.NoBatch, "no-batch", false, "one remote prediction per test row instead of a batch")
	fs.StringVar(&o.PredictionInfo, "prediction-info", "normal", "brief, normal, full or full-data")
	fs.BoolVar(&o.PredictionHeader, "prediction-header", false, "write a header row in the predictions file")
	fs.StringVar(&o.PredictionFields, "prediction-fields", "", "comma separated test fields added to the predictions")
	fs.StringVar(&o.BatchPredictionAttributes, "batch-prediction-attributes", "", "JSON file of batch prediction attributes")
	fs.BoolVar(&o.Evaluate, "evaluate", false, "evaluate the models")
	fs.IntVar(&o.NumberOfEvaluations, "number-of-evaluations", 0, "evaluations of models built on different samples of the training data")
	fs.StringVar(&o.EvaluationAttributes, "evaluation-attributes", "", "JSON file of evaluation attributes")
	fs.StringVar(&o.FieldsMap, "fields-map", "", "CSV file mapping model columns to test columns")
}

// addKindFlags adds the flags of a kind with a subcommand of its own.
func addKindFlags(fs *pflag.FlagSet, o *config.Options, kind resources.Kind) {
	fs.StringVar(&o.ResourceAttributes, kind.Command+"-attributes", "", fmt.Sprintf("JSON file of %s attributes", kind.Name))
	if batch, ok := kind.BatchKind(); ok && batch.Type != bigml.BatchPredictionType {
		name := strings.ReplaceAll(batch.Name, " ", "-")
		fs.StringVar(&o.BatchAttributes, name+"-attributes", "", fmt.Sprintf("JSON file of %s attributes", batch.Name))
	}

	switch kind.Command {
	case "cluster":
		fs.IntVar(&o.K, "k", 0, "number of centroids")
		fs.IntVar(&o.MaxParallelClusters, "max-parallel-clusters", 1, "clusters created at a time")
	case "anomaly":
		fs.IntVar(&o.TopN, "top-n", 0, "number of top anomalies")
		fs.IntVar(&o.ForestSize, "forest-size", 0, "number of trees of the isolation forest")
	case "topic-model":
		fs.IntVar(&o.NumberOfTopics, "number-of-topics", 0, "number of topics")
	case "time-series":
		fs.IntVar(&o.Horizon, "horizon", 0, "number of points to forecast")
	case "fusion":
		fs.StringVar(&o.FusionModels, "fusion-models", "", "comma separated ids or file of the models to fuse")
	}
}
