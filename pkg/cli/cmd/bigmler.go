package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/processing"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
)

var RootCmd = NewRootCmd()

// NewRootCmd builds the bigmler command tree. The root command trains,
// predicts and evaluates with models and ensembles.
func NewRootCmd() *cobra.Command {
	o := config.NewOptions()
	root := &cobra.Command{
		Use:   "bigmler",
		Short: "BigMLer, a command line tool for BigML",
		Example: `
bigmler --train data/iris.csv --test data/test_iris.csv
bigmler --train data/iris.csv --evaluate --test-split 0.2
bigmler --resume
`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, "main", o)
			if err != nil {
				return err
			}
			defer r.end()

			return processing.New(o, r.inputs, r.manager).Run(cmd.Context())
		},
	}

	fs := root.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	addBasicFlags(fs, o)
	addSourceFlags(fs, o)
	addDatasetFlags(fs, o)
	addModelFlags(fs, o)
	addTestFlags(fs, o)

	root.AddCommand(
		newSourceCmd(),
		newDatasetCmd(),
		newProjectCmd(),
		newConnectorCmd(),
		newExecuteCmd(),
		newDeleteCmd(),
		newReportCmd(),
		newVersionCmd(),
	)
	for _, kind := range resources.Kinds {
		root.AddCommand(newKindCmd(kind))
	}

	return root
}

// Execute runs the command line and exits with status 1 on failure. An
// interrupt cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(bigml.ErrorMessage("", err)))
		os.Exit(1)
	}
}
