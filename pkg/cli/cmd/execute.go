package cmd

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/processing"
	"github.com/spf13/cobra"
)

func newExecuteCmd() *cobra.Command {
	o := config.NewOptions()
	executeCmd := &cobra.Command{
		Use:   "execute",
		Short: "Run a WhizzML script and save its outputs",
		Example: `
bigmler execute --code "(+ 1 2)"
bigmler execute --script script/5143a51a37203f2cf7000972 --inputs data/inputs.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, "execute", o)
			if err != nil {
				return err
			}
			defer r.end()

			return processing.New(o, r.inputs, r.manager).RunExecute(cmd.Context())
		},
	}

	fs := executeCmd.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	addBasicFlags(fs, o)
	fs.StringVar(&o.Script, "script", "", "id of an existing script")
	fs.StringVar(&o.Code, "code", "", "WhizzML source code of a new script")
	fs.StringVar(&o.CodeFile, "code-file", "", "file with the WhizzML source code of a new script")
	fs.StringVar(&o.InputsFile, "inputs", "", "JSON file with the [name, value] inputs of the execution")
	return executeCmd
}
