package cmd

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/processing"
	"github.com/spf13/cobra"
)

func newProjectCmd() *cobra.Command {
	o := config.NewOptions()
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Create or update a project",
		Example: `
bigmler project --name "my project"
bigmler project --project-id project/5143a51a37203f2cf7000972 --tag production
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, "project", o)
			if err != nil {
				return err
			}
			defer r.end()

			return processing.New(o, r.inputs, r.manager).RunProject(cmd.Context())
		},
	}

	fs := projectCmd.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	addBasicFlags(fs, o)
	fs.StringVar(&o.ProjectAttributes, "project-attributes", "", "JSON file of project attributes")
	return projectCmd
}
