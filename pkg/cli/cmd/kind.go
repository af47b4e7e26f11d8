package cmd

import (
	"fmt"

	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/processing"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/spf13/cobra"
)

// newKindCmd builds the subcommand of a kind of resource: cluster,
// anomaly, deepnet and so on.
func newKindCmd(kind resources.Kind) *cobra.Command {
	o := config.NewOptions()
	kindCmd := &cobra.Command{
		Use:   kind.Command,
		Short: fmt.Sprintf("Create a %s and score test data with it", kind.Name),
		Example: fmt.Sprintf(`
bigmler %s --train data/iris.csv
bigmler %s --dataset dataset/5143a51a37203f2cf7000972 --test data/test_iris.csv
`, kind.Command, kind.Command),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, kind.Command, o)
			if err != nil {
				return err
			}
			defer r.end()

			return processing.New(o, r.inputs, r.manager).RunKind(cmd.Context(), kind)
		},
	}

	fs := kindCmd.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	addBasicFlags(fs, o)
	addSourceFlags(fs, o)
	addDatasetFlags(fs, o)
	addTestFlags(fs, o)
	fs.BoolVar(&o.NoModel, "no-model", false, fmt.Sprintf("do not create a %s", kind.Name))
	fs.StringVar(&o.ModelFields, "model-fields", "", "comma separated input fields, +field or -field to change the defaults")
	fs.IntVar(&o.MaxParallelModels, "max-parallel-models", 1, fmt.Sprintf("%s resources created at a time", kind.Name))
	if kind.Supervised {
		fs.StringVar(&o.Objective, "objective", "", "name or column of the objective field")
		fs.StringVar(&o.ObjectiveWeights, "objective-weights", "", "CSV file of class, weight")
		fs.BoolVar(&o.Balance, "balance", false, "balance the objective classes")
		fs.IntVar(&o.MaxParallelEvaluations, "max-parallel-evaluations", 1, "evaluations created at a time")
	}
	addKindFlags(fs, o, kind)
	return kindCmd
}
