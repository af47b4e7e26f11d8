package resources

import (
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
)

// Kind describes a type of resource handled by the commands: how it is
// named in messages, the session file its ids go to and the batch resource
// that scores a test set with it.
type Kind struct {
	Type    bigml.ResourceType
	Name    string
	LogFile string
	// Command is the subcommand that builds this kind, if any.
	Command    string
	Batch      bigml.ResourceType
	Supervised bool
}

func (k Kind) Title() string {
	if k.Name == "" {
		return ""
	}
	return strings.ToUpper(k.Name[:1]) + k.Name[1:]
}

// Query is used when polling the resource, so that the fields structure
// comes complete.
func (k Kind) Query() string {
	switch k.Type {
	case bigml.SourceType, bigml.DatasetType:
		return AllFieldsQuery
	}
	return ""
}

var (
	Source             = Kind{Type: bigml.SourceType, Name: "source", LogFile: "source", Command: "source"}
	Dataset            = Kind{Type: bigml.DatasetType, Name: "dataset", LogFile: "dataset", Command: "dataset"}
	Model              = Kind{Type: bigml.ModelType, Name: "model", LogFile: "models", Batch: bigml.BatchPredictionType, Supervised: true}
	Ensemble           = Kind{Type: bigml.EnsembleType, Name: "ensemble", LogFile: "ensembles", Batch: bigml.BatchPredictionType, Supervised: true}
	Cluster            = Kind{Type: bigml.ClusterType, Name: "cluster", LogFile: "clusters", Command: "cluster", Batch: bigml.BatchCentroidType}
	Anomaly            = Kind{Type: bigml.AnomalyType, Name: "anomaly detector", LogFile: "anomalies", Command: "anomaly", Batch: bigml.BatchAnomalyScoreType}
	LogisticRegression = Kind{Type: bigml.LogisticRegressionType, Name: "logistic regression", LogFile: "logistic_regressions", Command: "logistic-regression", Batch: bigml.BatchPredictionType, Supervised: true}
	LinearRegression   = Kind{Type: bigml.LinearRegressionType, Name: "linear regression", LogFile: "linear_regressions", Command: "linear-regression", Batch: bigml.BatchPredictionType, Supervised: true}
	Deepnet            = Kind{Type: bigml.DeepnetType, Name: "deepnet", LogFile: "deepnets", Command: "deepnet", Batch: bigml.BatchPredictionType, Supervised: true}
	TopicModel         = Kind{Type: bigml.TopicModelType, Name: "topic model", LogFile: "topic_models", Command: "topic-model", Batch: bigml.BatchTopicDistributionType}
	TimeSeries         = Kind{Type: bigml.TimeSeriesType, Name: "time series", LogFile: "time_series", Command: "time-series", Batch: bigml.ForecastType}
	PCA                = Kind{Type: bigml.PCAType, Name: "PCA", LogFile: "pcas", Command: "pca", Batch: bigml.BatchProjectionType}
	Association        = Kind{Type: bigml.AssociationType, Name: "association", LogFile: "associations", Command: "association"}
	Fusion             = Kind{Type: bigml.FusionType, Name: "fusion", LogFile: "fusions", Command: "fusion", Batch: bigml.BatchPredictionType, Supervised: true}
	Sample             = Kind{Type: bigml.SampleType, Name: "sample", LogFile: "samples", Command: "sample"}
	Project            = Kind{Type: bigml.ProjectType, Name: "project", LogFile: "project", Command: "project"}
	ExternalConnector  = Kind{Type: bigml.ExternalConnectorType, Name: "external connector", LogFile: "external_connector", Command: "connector"}
	Script             = Kind{Type: bigml.ScriptType, Name: "script", LogFile: "scripts"}
	Execution          = Kind{Type: bigml.ExecutionType, Name: "execution", LogFile: "executions", Command: "execute"}
	Evaluation         = Kind{Type: bigml.EvaluationType, Name: "evaluation", LogFile: "evaluations"}
	Prediction         = Kind{Type: bigml.PredictionType, Name: "prediction", LogFile: "predictions"}
)

// Kinds lists the resources built by a subcommand of their own.
var Kinds = []Kind{
	Cluster, Anomaly, LogisticRegression, LinearRegression, Deepnet,
	TopicModel, TimeSeries, PCA, Association, Fusion, Sample,
}

var batchKinds = map[bigml.ResourceType]Kind{
	bigml.BatchPredictionType:        {Type: bigml.BatchPredictionType, Name: "batch prediction", LogFile: "batch_prediction"},
	bigml.BatchCentroidType:          {Type: bigml.BatchCentroidType, Name: "batch centroid", LogFile: "batch_centroid"},
	bigml.BatchAnomalyScoreType:      {Type: bigml.BatchAnomalyScoreType, Name: "batch anomaly score", LogFile: "batch_anomaly_score"},
	bigml.BatchTopicDistributionType: {Type: bigml.BatchTopicDistributionType, Name: "batch topic distribution", LogFile: "batch_topic_distribution"},
	bigml.BatchProjectionType:        {Type: bigml.BatchProjectionType, Name: "batch projection", LogFile: "batch_projection"},
	bigml.ForecastType:               {Type: bigml.ForecastType, Name: "forecast", LogFile: "forecast"},
}

// BatchKind returns the kind of the resource that scores a test set with k.
func (k Kind) BatchKind() (Kind, bool) {
	batch, ok := batchKinds[k.Batch]
	return batch, ok
}

// KindByCommand finds the kind built by a subcommand.
func KindByCommand(command string) (Kind, bool) {
	for _, kind := range Kinds {
		if kind.Command == command {
			return kind, true
		}
	}
	return Kind{}, false
}

// KindOf finds the kind of a resource type.
func KindOf(t bigml.ResourceType) (Kind, bool) {
	for _, kind := range append([]Kind{Source, Dataset, Model, Ensemble, Project, ExternalConnector, Script, Execution, Evaluation, Prediction}, Kinds...) {
		if kind.Type == t {
			return kind, true
		}
	}
	if kind, ok := batchKinds[t]; ok {
		return kind, true
	}
	return Kind{}, false
}
