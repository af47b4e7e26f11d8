package cmd

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/processing"
	"github.com/spf13/cobra"
)

func newConnectorCmd() *cobra.Command {
	o := config.NewOptions()
	connectorCmd := &cobra.Command{
		Use:   "connector",
		Short: "Register or update an external data store connector",
		Example: `
bigmler connector --engine postgresql --host db.example.com --database sales --user reader --password secret
bigmler connector --external-connector-id externalconnector/5143a51a37203f2cf7000972 --name sales
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, "connector", o)
			if err != nil {
				return err
			}
			defer r.end()

			return processing.New(o, r.inputs, r.manager).RunConnector(cmd.Context())
		},
	}

	fs := connectorCmd.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	addBasicFlags(fs, o)
	fs.StringVar(&o.ExternalConnector, "external-connector-id", "", "id of the connector to update")
	fs.StringVar(&o.Engine, "engine", "", "postgresql, mysql, sqlserver or elasticsearch")
	fs.StringVar(&o.ConnectionJSON, "connection-json", "", "JSON file with the connection parameters")
	fs.StringVar(&o.Host, "host", "", "host of the data store")
	fs.IntVar(&o.Port, "port", 0, "port of the data store")
	fs.StringVar(&o.User, "user", "", "user of the data store")
	fs.StringVar(&o.Password, "password", "", "password of the data store")
	fs.StringVar(&o.Database, "database", "", "database of the data store")
	return connectorCmd
}
