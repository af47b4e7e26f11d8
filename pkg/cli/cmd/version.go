package cmd

import (
	"github.com/bigmler/bigmler/pkg/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "BigMLer version",
		Example: `
bigmler version
`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("BigMLer version: %s\n", version.Version())
		},
	}
}
