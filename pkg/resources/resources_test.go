package resources

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/session"
	"github.com/bigmler/bigmler/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotter = testutils.NewSnapshotter("../../test/assets/snapshots/resources")

func irisFields() *fields.Fields {
	return fields.New(map[string]fields.Field{
		"000000": {Name: "sepal length", ColumnNumber: 0, Optype: "numeric"},
		"000001": {Name: "sepal width", ColumnNumber: 1, Optype: "numeric"},
		"000002": {Name: "petal length", ColumnNumber: 2, Optype: "numeric"},
		"000003": {Name: "petal width", ColumnNumber: 3, Optype: "numeric"},
		"000004": {Name: "species", ColumnNumber: 4, Optype: "categorical"},
	}, "000004")
}

func newInputs() *Inputs {
	return &Inputs{Description: "Created using BigMLer", JSONArgs: map[string]map[string]interface{}{}}
}

func TestArgs(t *testing.T) {
	t.Run("BasicArgs()", testBasicArgsFunc())
	t.Run("UpdateAttributes() - merges fields by column", testUpdateAttributesFunc())
	t.Run("CheckFieldsStruct() - removes invalid attributes", testCheckFieldsStructFunc())
	t.Run("UpdateSampleParametersArgs()", testUpdateSampleParametersArgsFunc())
	t.Run("SourceUpdateArgs() - field attributes and types", testSourceUpdateArgsFunc())
	t.Run("SplitArgs()", testSplitArgsFunc())
	t.Run("ModelArgs() - sampled evaluation", testModelArgsEvaluateFunc())
	t.Run("ModelArgs() - input fields and weights", testModelArgsFieldsFunc())
	t.Run("EnsembleArgs() - boosting", testEnsembleArgsBoostingFunc())
	t.Run("EvaluationArgs()", testEvaluationArgsFunc())
	t.Run("BatchPredictionArgs()", testBatchPredictionArgsFunc())
	t.Run("KindArgs() - cluster", testKindArgsFunc())
	t.Run("KindArgs() - anomaly detector", testKindArgsAnomalyFunc())
	t.Run("LoadInputs()", testLoadInputsFunc())
}

func TestManager(t *testing.T) {
	t.Run("Create() - logs and waits", testManagerCreateFunc())
	t.Run("Create() - faulty resource", testManagerCreateFaultyFunc())
	t.Run("CreateMany() - admission control", testManagerCreateManyFunc())
}

func testBasicArgsFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		o.Category = 3
		o.Tags = []string{"a", "b"}

		assert.Equal(t, Args{
			"name":        "my model",
			"description": "Created using BigMLer",
			"category":    3,
			"tags":        []string{"a", "b"},
		}, BasicArgs(o, newInputs(), "my model"))

		o.Tags = nil
		assert.Equal(t, []string{}, BasicArgs(o, newInputs(), "")["tags"])
	}
}

func testUpdateAttributesFunc() func(*testing.T) {
	return func(t *testing.T) {
		args := Args{"fields": map[string]interface{}{
			"000000": map[string]interface{}{"name": "sl"},
		}}
		err := UpdateAttributes(args, map[string]interface{}{"fields": map[string]interface{}{
			"0": map[string]interface{}{"label": "sepal"},
			"4": map[string]interface{}{"optype": "text"},
		}}, true, irisFields())
		assert.NoError(t, err)
		assert.Equal(t, map[string]interface{}{
			"000000": map[string]interface{}{"name": "sl", "label": "sepal"},
			"000004": map[string]interface{}{"optype": "text"},
		}, args["fields"])

		err = UpdateAttributes(args, map[string]interface{}{"fields": map[string]interface{}{
			"9": map[string]interface{}{"label": "none"},
		}}, true, irisFields())
		assert.Error(t, err)

		args = Args{"name": "old"}
		assert.NoError(t, UpdateAttributes(args, map[string]interface{}{"name": "new", "private": true}, false, nil))
		assert.Equal(t, Args{"name": "new", "private": true}, args)
	}
}

func testCheckFieldsStructFunc() func(*testing.T) {
	return func(t *testing.T) {
		args := Args{"fields": map[string]interface{}{
			"000000": map[string]interface{}{"name": "sl", "optype": "text", "preferred": false},
		}}
		CheckFieldsStruct(args, "dataset")
		assert.Equal(t, map[string]interface{}{
			"000000": map[string]interface{}{"name": "sl", "preferred": false},
		}, args["fields"])
	}
}

func testUpdateSampleParametersArgsFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		assert.Equal(t, Args{}, UpdateSampleParametersArgs(Args{}, o, true))

		o.SampleRate = 0.7
		o.Replacement = true
		assert.Equal(t, Args{"sample_rate": 0.7, "out_of_bag": true, "replacement": true}, UpdateSampleParametersArgs(Args{}, o, true))
	}
}

func testSourceUpdateArgsFunc() func(*testing.T) {
	return func(t *testing.T) {
		in := newInputs()
		in.FieldAttributes = map[int]map[string]interface{}{0: {"name": "sl", "label": "sepal length"}}
		in.Types = map[int]map[string]interface{}{4: {"optype": "text"}}
		in.JSONArgs[SourceAttributes] = map[string]interface{}{"fields": map[string]interface{}{
			"1": map[string]interface{}{"description": "width", "preferred": false},
		}}

		args, err := SourceUpdateArgs(config.NewOptions(), in, irisFields())
		assert.NoError(t, err)
		assert.Equal(t, Args{"fields": map[string]interface{}{
			"000000": map[string]interface{}{"name": "sl", "label": "sepal length"},
			"000001": map[string]interface{}{"description": "width"},
			"000004": map[string]interface{}{"optype": "text"},
		}}, args)
	}
}

func testSplitArgsFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		args := SplitArgs(o, newInputs(), "test", 0.8, true)
		assert.Equal(t, Seed, args["seed"])
		assert.Equal(t, 0.8, args["sample_rate"])
		assert.Equal(t, true, args["out_of_bag"])

		o.Seed = "my seed"
		assert.Equal(t, "my seed", SplitArgs(o, newInputs(), "train", 0.8, false)["seed"])
	}
}

func testModelArgsEvaluateFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		o.Evaluate = true
		o.Train = "iris.csv"

		args, err := ModelArgs(o, newInputs(), irisFields())
		assert.NoError(t, err)
		assert.Equal(t, Seed, args["seed"])
		assert.Equal(t, EvaluateSampleRate, args["sample_rate"])
		assert.NotContains(t, args, "out_of_bag")

		evaluationArgs, err := EvaluationArgs(o, newInputs(), irisFields(), nil)
		assert.NoError(t, err)
		assert.Equal(t, Seed, evaluationArgs["seed"])
		assert.Equal(t, EvaluateSampleRate, evaluationArgs["sample_rate"])
		assert.Equal(t, true, evaluationArgs["out_of_bag"])

		o.TestSplit = 0.2
		args, err = ModelArgs(o, newInputs(), irisFields())
		assert.NoError(t, err)
		assert.NotContains(t, args, "seed")
		assert.NotContains(t, args, "sample_rate")
	}
}

func testModelArgsFieldsFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		o.Objective = "species"
		o.WeightField = "petal width"
		o.Pruning = "statistical"
		o.MaxNodes = 100
		in := newInputs()
		in.ModelFields = []string{"-sepal width", "-petal width"}
		in.ObjectiveWeights = []interface{}{[]interface{}{"Iris-setosa", 5}}

		args, err := ModelArgs(o, in, irisFields())
		require.NoError(t, err)
		assert.Equal(t, "000004", args["objective_field"])
		assert.Equal(t, []string{"000000", "000002", "000004"}, args["input_fields"])
		assert.Equal(t, "000003", args["weight_field"])
		assert.Equal(t, true, args["stat_pruning"])
		assert.Equal(t, 100, args["max_nodes"])
		assert.Equal(t, in.ObjectiveWeights, args["objective_weights"])

		o.Objective = "unknown"
		_, err = ModelArgs(o, in, irisFields())
		assert.Error(t, err)
	}
}

func testEnsembleArgsBoostingFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		o.NumberOfModels = 10
		args, err := EnsembleArgs(o, newInputs(), irisFields())
		require.NoError(t, err)
		assert.Equal(t, 10, args["number_of_models"])
		assert.Equal(t, map[string]interface{}{"seed": Seed}, args["ensemble_sample"])
		assert.True(t, IsEnsemble(o))

		o = config.NewOptions()
		o.Boosting = true
		o.BoostingIterations = 20
		args, err = EnsembleArgs(o, newInputs(), irisFields())
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"iterations": 20}, args["boosting"])
		assert.NotContains(t, args, "number_of_models")
		assert.True(t, IsEnsemble(o))
	}
}

func testEvaluationArgsFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		o.Evaluate = true
		o.Model = "model/5143a51a37203f2cf7000972"
		o.Dataset = "dataset/5143a51a37203f2cf7000973"
		in := newInputs()
		in.FieldsMap = map[int]int{0: 1}

		args, err := EvaluationArgs(o, in, irisFields(), irisFields())
		require.NoError(t, err)
		assert.NotContains(t, args, "out_of_bag")
		assert.Equal(t, map[string]string{"000000": "000001"}, args["fields_map"])
	}
}

func testBatchPredictionArgsFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		in := newInputs()
		args, err := BatchPredictionArgs(o, in, irisFields(), irisFields())
		require.NoError(t, err)
		assert.Equal(t, false, args["header"])
		assert.Equal(t, true, args["confidence"])
		assert.NotContains(t, args, "all_fields")

		o.PredictionInfo = FullFormat
		o.PredictionHeader = true
		in.PredictionFields = []string{"sepal length", "species"}
		args, err = BatchPredictionArgs(o, in, irisFields(), irisFields())
		require.NoError(t, err)
		assert.Equal(t, true, args["header"])
		assert.Equal(t, false, args["all_fields"])
		assert.Equal(t, []string{"000000", "000004"}, args["output_fields"])
	}
}

func testKindArgsFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		o.K = 3
		in := newInputs()
		in.JSONArgs[ResourceAttributes] = map[string]interface{}{"critical_value": 5}

		args, err := KindArgs(o, in, Cluster, irisFields())
		require.NoError(t, err)
		assert.Equal(t, 3, args["k"])
		assert.Equal(t, Seed, args["seed"])
		assert.Equal(t, 5, args["critical_value"])

		kind, ok := KindByCommand("logistic-regression")
		assert.True(t, ok)
		assert.Equal(t, bigml.LogisticRegressionType, kind.Type)
		batch, ok := kind.BatchKind()
		assert.True(t, ok)
		assert.Equal(t, "batch_prediction", batch.LogFile)
	}
}

func testKindArgsAnomalyFunc() func(*testing.T) {
	return func(t *testing.T) {
		o := config.NewOptions()
		o.TopN = 5
		o.ForestSize = 64

		args, err := KindArgs(o, newInputs(), Anomaly, irisFields())
		require.NoError(t, err)
		snapshotter.SnapshotTJson(t, args)
	}
}

func testLoadInputsFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		write := func(name string, content string) string {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			return path
		}

		o := config.NewOptions()
		o.Description = write("description.md", "Iris models")
		o.Types = write("types.txt", "0, 'categorical'\nbad\n")
		o.ModelAttributes = write("model.json", `{"missing_numerics": true}`)
		o.ModelFields = "sepal length, species"

		in, err := LoadInputs(o)
		require.NoError(t, err)
		assert.Equal(t, "Iris models", in.Description)
		assert.Equal(t, map[int]map[string]interface{}{0: {"optype": "categorical"}}, in.Types)
		assert.Equal(t, []string{"bad"}, in.Warnings)
		assert.Equal(t, map[string]interface{}{"missing_numerics": true}, in.JSONArgs[ModelAttributes])
		assert.Equal(t, []string{"sepal length", "species"}, in.ModelFields)

		o.JSONFilter = write("filter.json", "[>")
		_, err = LoadInputs(o)
		assert.Error(t, err)
	}
}

func newTestManager(t *testing.T, api *testutils.FakeAPI) (*Manager, *bytes.Buffer) {
	client, err := bigml.NewClient(api.Connection(), bigml.WithWaitStep(time.Millisecond))
	require.NoError(t, err)
	console := &bytes.Buffer{}
	s, err := session.New(t.TempDir(), 1, console)
	require.NoError(t, err)
	return NewManager(client, s), console
}

func testManagerCreateFunc() func(*testing.T) {
	return func(t *testing.T) {
		api := testutils.NewFakeAPI(t)
		api.PollsToFinish = 2
		manager, console := newTestManager(t, api)

		resource, err := manager.Create(context.Background(), Project, Args{"name": "iris"})
		require.NoError(t, err)
		assert.Equal(t, bigml.Finished, resource.Status())
		assert.Contains(t, console.String(), "Creating project.\n")
		assert.Contains(t, console.String(), "Project created: "+manager.URL(resource.ID)+"\n")

		logged, err := os.ReadFile(manager.Session.Path("project"))
		require.NoError(t, err)
		assert.Equal(t, resource.ID+"\n", string(logged))
	}
}

func testManagerCreateFaultyFunc() func(*testing.T) {
	return func(t *testing.T) {
		api := testutils.NewFakeAPI(t)
		api.Faulty[bigml.ClusterType] = "not enough rows"
		manager, _ := newTestManager(t, api)

		_, err := manager.Create(context.Background(), Cluster, Args{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get a finished cluster")
		assert.Contains(t, err.Error(), "not enough rows")
	}
}

func testManagerCreateManyFunc() func(*testing.T) {
	return func(t *testing.T) {
		api := testutils.NewFakeAPI(t)
		manager, console := newTestManager(t, api)

		dataset := api.Add(bigml.DatasetType, nil, bigml.Finished)
		argsList := []Args{{"dataset": dataset}, {"dataset": dataset}, {"dataset": dataset}}
		models, err := manager.CreateMany(context.Background(), Model, argsList, 1)
		require.NoError(t, err)
		assert.Len(t, models, 3)
		assert.Equal(t, 3, api.Count("POST", bigml.ModelType))
		assert.Contains(t, console.String(), "Creating 3 models.\n")

		logged, err := os.ReadFile(manager.Session.Path("models"))
		require.NoError(t, err)
		assert.Equal(t, models[0].ID+"\n"+models[1].ID+"\n"+models[2].ID+"\n", string(logged))
	}
}
