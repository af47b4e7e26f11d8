package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bigmler/bigmler/pkg/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultsFile = `[BigMLer]
train_header = false
max_parallel_models = 4
name = from defaults

[BigMLer cluster]
name = cluster defaults
k = 8
`

func TestConfig(t *testing.T) {
	t.Run("LoadUserDefaults() - missing file", testLoadUserDefaultsMissingFunc())
	t.Run("Apply() - flags not set take the defaults", testApplyDefaultsFunc())
	t.Run("LoadConnection() - environment and flags", testLoadConnectionFunc())
	t.Run("Validate() - ranges and ids", testValidateFunc())
}

func writeDefaults(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "bigmler.ini")
	require.NoError(t, os.WriteFile(path, []byte(defaultsFile), 0644))
	return path
}

func newFlags() (*pflag.FlagSet, *config.Options) {
	opts := config.NewOptions()
	flags := pflag.NewFlagSet("bigmler", pflag.ContinueOnError)
	flags.BoolVar(&opts.TrainHeader, "train-header", true, "")
	flags.IntVar(&opts.MaxParallelModels, "max-parallel-models", 1, "")
	flags.StringVar(&opts.Name, "name", "", "")
	flags.IntVar(&opts.K, "k", 0, "")
	return flags, opts
}

func testLoadUserDefaultsMissingFunc() func(*testing.T) {
	return func(t *testing.T) {
		defaults, err := config.LoadUserDefaults(filepath.Join(t.TempDir(), "bigmler.ini"))
		assert.NoError(t, err)
		_, ok := defaults.Get(config.MainSection, "name")
		assert.False(t, ok)

		assert.Equal(t, "", config.FindDefaultsFile(t.TempDir()))
	}
}

func testApplyDefaultsFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := writeDefaults(t)
		assert.Equal(t, path, config.FindDefaultsFile(filepath.Dir(path)))

		defaults, err := config.LoadUserDefaults(path)
		require.NoError(t, err)

		value, ok := defaults.Get("BigMLer", "max-parallel-models")
		assert.True(t, ok)
		assert.Equal(t, "4", value)

		flags, opts := newFlags()
		require.NoError(t, flags.Parse([]string{"--max-parallel-models", "2"}))
		require.NoError(t, defaults.Apply(flags, ""))
		assert.False(t, opts.TrainHeader)
		assert.Equal(t, 2, opts.MaxParallelModels)
		assert.Equal(t, "from defaults", opts.Name)
		assert.Equal(t, 0, opts.K)

		flags, opts = newFlags()
		require.NoError(t, flags.Parse(nil))
		require.NoError(t, defaults.Apply(flags, "cluster"))
		assert.Equal(t, "cluster defaults", opts.Name)
		assert.Equal(t, 8, opts.K)
		assert.Equal(t, 4, opts.MaxParallelModels)
	}
}

func testLoadConnectionFunc() func(*testing.T) {
	return func(t *testing.T) {
		t.Setenv("BIGML_USERNAME", "env-user")
		t.Setenv("BIGML_API_KEY", "env-key")
		t.Setenv("BIGML_MAX_NODES", "500")

		v := config.NewViper()
		conn := config.LoadConnection(v, nil)
		assert.Equal(t, "env-user", conn.Username)
		assert.Equal(t, "env-key", conn.APIKey)
		assert.Equal(t, "bigml.io", conn.Domain)
		assert.Equal(t, 500, config.MaxNodes(v))

		opts := config.NewOptions()
		opts.Username = "flag-user"
		opts.OrgProject = "project/5143a51a37203f2cf7000972"
		conn = config.LoadConnection(v, opts)
		assert.Equal(t, "flag-user", conn.Username)
		assert.Equal(t, "env-key", conn.APIKey)
		assert.Equal(t, "project/5143a51a37203f2cf7000972", conn.Project)
	}
}

func testValidateFunc() func(*testing.T) {
	return func(t *testing.T) {
		opts := config.NewOptions()
		assert.NoError(t, opts.Validate())

		opts.SampleRate = 1.5
		assert.Error(t, opts.Validate())

		opts = config.NewOptions()
		opts.TestSplit = 1
		assert.Error(t, opts.Validate())

		opts = config.NewOptions()
		opts.Dataset = "model/5143a51a37203f2cf7000972"
		assert.Error(t, opts.Validate())

		opts = config.NewOptions()
		opts.Dataset = "dataset/5143a51a37203f2cf7000972"
		opts.AnnotationsLanguage = "COCO"
		assert.Error(t, opts.Validate())

		opts = config.NewOptions()
		opts.NewFields = "new_fields.json"
		assert.Error(t, opts.Validate())

		opts = config.NewOptions()
		opts.MaxParallelEnsembles = 0
		assert.Error(t, opts.Validate())

		opts = config.NewOptions()
		opts.Train = "iris.csv"
		opts.NumberOfEvaluations = 5
		assert.EqualError(t, opts.Validate(), "--number-of-evaluations needs --evaluate")
		opts.Evaluate = true
		assert.NoError(t, opts.Validate())
	}
}
