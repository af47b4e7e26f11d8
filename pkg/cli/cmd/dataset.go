package cmd

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/processing"
	"github.com/spf13/cobra"
)

func newDatasetCmd() *cobra.Command {
	o := config.NewOptions()
	datasetCmd := &cobra.Command{
		Use:   "dataset",
		Short: "Create, filter, merge or export datasets",
		Example: `
bigmler dataset --train data/iris.csv --to-csv iris_export.csv
bigmler dataset --dataset dataset/5143a51a37203f2cf7000972 --new-fields data/new_fields.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, "dataset", o)
			if err != nil {
				return err
			}
			defer r.end()

			o.NoModel = true
			return processing.New(o, r.inputs, r.manager).Run(cmd.Context())
		},
	}

	fs := datasetCmd.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	addBasicFlags(fs, o)
	addSourceFlags(fs, o)
	addDatasetFlags(fs, o)
	return datasetCmd
}
