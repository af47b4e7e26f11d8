package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/loggers"
	"github.com/bigmler/bigmler/pkg/report"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var fromDir string
	var port uint
	var open bool

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Serve the files and resources of an output directory",
		Example: `
bigmler report --from-dir my_dir
bigmler report --from-dir my_dir --port 8090 --open
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggers.ZapLogger()
			defer loggers.ZapLoggerSync()

			conn := config.LoadConnection(config.NewViper(), nil)
			server := report.NewServer(report.ServerConfig{Port: port, Dir: fromDir}, conn.DashboardBase(), logger)
			if err := server.Start(); err != nil {
				return err
			}
			defer server.Shutdown()

			cmd.Println(aurora.BrightGreen(fmt.Sprintf("Serving %s at %s", fromDir, server.Address())))
			if open {
				if err := browser.OpenURL(server.Address()); err != nil {
					cmd.Println(aurora.Yellow(fmt.Sprintf("failed to open %s: %s", server.Address(), err)))
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	reportCmd.Flags().StringVar(&fromDir, "from-dir", ".", "output directory to report")
	reportCmd.Flags().UintVar(&port, "port", 8085, "port of the report server")
	reportCmd.Flags().BoolVar(&open, "open", false, "open the report in the browser")
	return reportCmd
}
