package bigml

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

type ResourceType string

const (
	SourceType                 ResourceType = "source"
	DatasetType                ResourceType = "dataset"
	ModelType                  ResourceType = "model"
	EnsembleType               ResourceType = "ensemble"
	ClusterType                ResourceType = "cluster"
	CentroidType               ResourceType = "centroid"
	AnomalyType                ResourceType = "anomaly"
	AnomalyScoreType           ResourceType = "anomalyscore"
	AssociationType            ResourceType = "association"
	AssociationSetType         ResourceType = "associationset"
	SampleType                 ResourceType = "sample"
	CorrelationType            ResourceType = "correlation"
	StatisticalTestType        ResourceType = "statisticaltest"
	LogisticRegressionType     ResourceType = "logisticregression"
	LinearRegressionType       ResourceType = "linearregression"
	DeepnetType                ResourceType = "deepnet"
	TopicModelType             ResourceType = "topicmodel"
	TopicDistributionType      ResourceType = "topicdistribution"
	TimeSeriesType             ResourceType = "timeseries"
	ForecastType               ResourceType = "forecast"
	PCAType                    ResourceType = "pca"
	ProjectionType             ResourceType = "projection"
	FusionType                 ResourceType = "fusion"
	PredictionType             ResourceType = "prediction"
	BatchPredictionType        ResourceType = "batchprediction"
	BatchCentroidType          ResourceType = "batchcentroid"
	BatchAnomalyScoreType      ResourceType = "batchanomalyscore"
	BatchTopicDistributionType ResourceType = "batchtopicdistribution"
	BatchProjectionType        ResourceType = "batchprojection"
	EvaluationType             ResourceType = "evaluation"
	ExecutionType              ResourceType = "execution"
	ScriptType                 ResourceType = "script"
	LibraryType                ResourceType = "library"
	ProjectType                ResourceType = "project"
	ExternalConnectorType      ResourceType = "externalconnector"
	ConfigurationType          ResourceType = "configuration"
)

var ResourceTypes = []ResourceType{
	SourceType, DatasetType, ModelType, EnsembleType, ClusterType, CentroidType,
	AnomalyType, AnomalyScoreType, AssociationType, AssociationSetType,
	SampleType, CorrelationType, StatisticalTestType, LogisticRegressionType,
	LinearRegressionType, DeepnetType, TopicModelType, TopicDistributionType,
	TimeSeriesType, ForecastType, PCAType, ProjectionType, FusionType,
	PredictionType, BatchPredictionType, BatchCentroidType,
	BatchAnomalyScoreType, BatchTopicDistributionType, BatchProjectionType,
	EvaluationType, ExecutionType, ScriptType, LibraryType, ProjectType,
	ExternalConnectorType, ConfigurationType,
}

var resourceIDRe *regexp.Regexp

func init() {
	types := make([]string, len(ResourceTypes))
	for i, t := range ResourceTypes {
		types[i] = string(t)
	}
	resourceIDRe = regexp.MustCompile(fmt.Sprintf(`^(%s)/[a-f0-9]{24}$`, strings.Join(types, "|")))
}

// ParseResourceID validates id and returns its type.
func ParseResourceID(id string) (ResourceType, error) {
	id = strings.TrimSpace(id)
	match := resourceIDRe.FindStringSubmatch(id)
	if match == nil {
		return "", fmt.Errorf("%q is not a valid resource id", id)
	}
	return ResourceType(match[1]), nil
}

// TypeOf returns the type of a valid resource id and "" otherwise.
func TypeOf(id string) ResourceType {
	t, err := ParseResourceID(id)
	if err != nil {
		return ""
	}
	return t
}

// IsResourceID checks that id is a valid id of one of the given types. No
// types accepts any valid id.
func IsResourceID(id string, types ...ResourceType) bool {
	t, err := ParseResourceID(id)
	if err != nil {
		return false
	}
	if len(types) == 0 {
		return true
	}
	for _, expected := range types {
		if t == expected {
			return true
		}
	}
	return false
}

func ParseResourceType(s string) (ResourceType, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, t := range ResourceTypes {
		if string(t) == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown resource type %q", s)
}

type StatusCode int

const (
	Waiting    StatusCode = 0
	Queued     StatusCode = 1
	Started    StatusCode = 2
	InProgress StatusCode = 3
	Summarized StatusCode = 4
	Finished   StatusCode = 5
	Uploading  StatusCode = 6
	Faulty     StatusCode = -1
	Unknown    StatusCode = -2
	Runnable   StatusCode = -3
)

var statusNames = map[StatusCode]string{
	Waiting:    "waiting",
	Queued:     "queued",
	Started:    "started",
	InProgress: "in progress",
	Summarized: "summarized",
	Finished:   "finished",
	Uploading:  "uploading",
	Faulty:     "faulty",
	Unknown:    "unknown",
	Runnable:   "runnable",
}

func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(c))
}

func (c StatusCode) IsTerminal() bool {
	return c == Finished || c == Faulty
}

func ParseStatus(s string) (StatusCode, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
	for code, name := range statusNames {
		if name == normalized {
			return code, nil
		}
	}
	return Unknown, fmt.Errorf("unknown status %q", s)
}

// Resource is a remote resource as returned by the API.
type Resource struct {
	ID       string
	HTTPCode int
	Location string
	Object   json.RawMessage
}

func NewResource(httpCode int, location string, body []byte) *Resource {
	return &Resource{
		ID:       gjson.GetBytes(body, "resource").String(),
		HTTPCode: httpCode,
		Location: location,
		Object:   json.RawMessage(body),
	}
}

// Get reads a value by its gjson path in the resource object.
func (r *Resource) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Object, path)
}

func (r *Resource) Type() ResourceType {
	return TypeOf(r.ID)
}

func (r *Resource) Status() StatusCode {
	status := r.Get("status.code")
	if !status.Exists() {
		return Unknown
	}
	return StatusCode(status.Int())
}

func (r *Resource) StatusMessage() string {
	return r.Get("status.message").String()
}

func (r *Resource) Name() string {
	return r.Get("name").String()
}

// Fields returns the fields structure, looking in the model substructure
// for the model-like resources.
func (r *Resource) Fields() gjson.Result {
	if fields := r.Get("fields"); fields.Exists() {
		return fields
	}
	return r.Get("model.fields")
}

func (r *Resource) ObjectiveFieldID() string {
	objective := r.Get("objective_field")
	if objective.Type == gjson.String {
		return objective.String()
	}
	if objective.IsObject() {
		return objective.Get("id").String()
	}
	return r.Get("objective_fields.0").String()
}

func (r *Resource) Unmarshal(v interface{}) error {
	return json.Unmarshal(r.Object, v)
}

// Map returns the resource object as a generic map.
func (r *Resource) Map() (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(r.Object, &m); err != nil {
		return nil, err
	}
	return m, nil
}
