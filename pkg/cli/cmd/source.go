package cmd

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/processing"
	"github.com/spf13/cobra"
)

func newSourceCmd() *cobra.Command {
	o := config.NewOptions()
	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Create a source from a file, a URL or annotated images",
		Example: `
bigmler source --train data/iris.csv
bigmler source --images-dir data/images --annotations-dir data/yolo --annotations-language YOLO
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, "source", o)
			if err != nil {
				return err
			}
			defer r.end()

			return processing.New(o, r.inputs, r.manager).RunSource(cmd.Context())
		},
	}

	fs := sourceCmd.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	addBasicFlags(fs, o)
	addSourceFlags(fs, o)
	addImagesFlags(fs, o)
	return sourceCmd
}
