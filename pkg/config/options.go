package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Options are the parsed command line flags shared by the BigMLer commands.
type Options struct {
	Username     string
	APIKey       string
	Domain       string
	Organization string
	OrgProject   string
	Debug        bool
	Verbosity    int `validate:"min=0,max=1"`
	Yes          bool
	Open         bool

	OutputDir    string
	Output       string
	Resume       bool
	StackLevel   int `validate:"min=0"`
	ClearLogs    bool
	ResourcesLog string

	Name        string
	Description string
	Category    int `validate:"min=0"`
	Tags        []string

	Project           string
	ProjectID         string `validate:"omitempty,bigml_id=project"`
	ProjectAttributes string

	Train             string
	Test              string
	TrainHeader       bool
	TestHeader        bool
	TrainingSeparator string
	TestSeparator     string
	Locale            string
	FieldAttributes   string
	Types             string
	SourceAttributes  string
	Source            string `validate:"omitempty,bigml_id=source"`
	TestSource        string `validate:"omitempty,bigml_id=source"`
	ExternalConnector string `validate:"omitempty,bigml_id=externalconnector"`
	ExternalQuery     string

	ImagesDir           string
	ImagesFile          string
	AnnotationsFile     string
	AnnotationsDir      string
	AnnotationsLanguage string `validate:"omitempty,oneof=YOLO VOC"`

	Dataset           string `validate:"omitempty,bigml_id=dataset"`
	Datasets          string
	TestDataset       string `validate:"omitempty,bigml_id=dataset"`
	DatasetAttributes string
	JSONFilter        string
	LispFilter        string
	NewFields         string
	DatasetFields     string
	NoDataset         bool
	MultiDataset      bool
	ToCSV             string
	SampleRate        float64 `validate:"gt=0,lte=1"`
	Replacement       bool
	Randomize         bool
	Seed              string
	TestSplit         float64 `validate:"gte=0,lt=1"`

	Model                  string `validate:"omitempty,bigml_id=model"`
	Models                 string
	Ensemble               string `validate:"omitempty,bigml_id=ensemble"`
	Ensembles              string
	NoModel                bool
	Objective              string
	ModelFields            string
	WeightField            string
	ObjectiveWeights       string
	ModelAttributes        string
	EnsembleAttributes     string
	NumberOfModels         int `validate:"min=1"`
	MaxParallelModels      int `validate:"min=1"`
	MaxParallelEvaluations int `validate:"min=1"`
	MaxParallelEnsembles   int `validate:"min=1"`
	MaxParallelClusters    int `validate:"min=1"`
	NumberOfEvaluations    int `validate:"min=0"`
	Boosting               bool
	BoostingIterations     int    `validate:"min=0"`
	Pruning                string `validate:"omitempty,oneof=smart statistical no-pruning"`
	NodeThreshold          int    `validate:"min=0"`
	MissingSplits          bool
	Balance                bool
	RandomCandidates       int `validate:"min=0"`
	MaxNodes               int `validate:"min=0"`

	Remote                    bool
	NoBatch                   bool
	PredictionInfo            string `validate:"oneof=brief normal full full-data"`
	PredictionHeader          bool
	PredictionFields          string
	BatchPredictionAttributes string

	Evaluate             bool
	EvaluationAttributes string
	FieldsMap            string

	// Kind specific options of the non-model subcommands.
	ResourceAttributes string
	BatchAttributes    string
	K                  int `validate:"min=0"`
	TopN               int `validate:"min=0"`
	ForestSize         int `validate:"min=0"`
	NumberOfTopics     int `validate:"min=0"`
	Horizon            int `validate:"min=0"`
	FusionModels       string

	Engine         string `validate:"omitempty,oneof=postgresql mysql sqlserver elasticsearch"`
	ConnectionJSON string
	Host           string
	Port           int `validate:"min=0"`
	User           string
	Password       string
	Database       string

	Script     string `validate:"omitempty,bigml_id=script"`
	Code       string
	CodeFile   string
	InputsFile string

	DeleteList         string
	DeleteFile         string
	FromDir            string
	AllTag             string
	SourceTag          string
	DatasetTag         string
	ModelTag           string
	EnsembleTag        string
	EvaluationTag      string
	BatchPredictionTag string
	ClusterTag         string
	ResourceTypes      string
	OlderThan          string
	NewerThan          string
	Status             string
	DryRun             bool
	MaxParallelDeletes int `validate:"min=1"`
}

// NewOptions returns the options with the command line defaults.
func NewOptions() *Options {
	return &Options{
		Verbosity:              1,
		TrainHeader:            true,
		TestHeader:             true,
		TrainingSeparator:      "",
		SampleRate:             1,
		NumberOfModels:         1,
		MaxParallelModels:      1,
		MaxParallelEvaluations: 1,
		MaxParallelEnsembles:   1,
		MaxParallelClusters:    1,
		MaxParallelDeletes:     1,
		Remote:                 true,
		PredictionInfo:         "normal",
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("bigml_id", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		prefix := fl.Param() + "/"
		return strings.HasPrefix(value, prefix) && len(value) == len(prefix)+24
	})
}

// Validate checks the ranges and formats of the options.
func (o *Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return o.checkCoherence()
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("invalid value %v for %s (%s %s)", fieldErr.Value(), fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
	}
	return errors.New(strings.Join(messages, "; "))
}

func (o *Options) checkCoherence() error {
	if o.NewFields != "" && o.Dataset == "" {
		return errors.New("to use --new-fields you must also provide a dataset id to generate the new dataset from it")
	}
	if o.JSONFilter != "" && o.LispFilter != "" {
		return errors.New("--json-filter and --lisp-filter cannot be used together")
	}
	if o.Evaluate && o.Test == "" && o.TestDataset == "" && o.TestSplit == 0 &&
		o.Train == "" && o.Source == "" && o.Dataset == "" && o.Model == "" && o.Ensemble == "" {
		return errors.New("--evaluate needs a training or test set or an existing resource to evaluate")
	}
	if o.NumberOfEvaluations > 1 && !o.Evaluate {
		return errors.New("--number-of-evaluations needs --evaluate")
	}
	return nil
}

// HasTrain tells whether the options lead to building resources.
func (o *Options) HasTrain() bool {
	return o.Train != "" || o.Source != "" || o.Dataset != "" || o.Datasets != "" ||
		o.Model != "" || o.Models != "" || o.Ensemble != "" || o.Ensembles != "" ||
		o.ExternalConnector != "" || o.FusionModels != ""
}

func (o *Options) HasTest() bool {
	return o.Test != "" || o.TestSource != "" || o.TestDataset != ""
}
