package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ptrack/pkg/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP, WebSocket and GraphQL API without the terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port for the API server (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(appServer)
	if err != nil {
		return err
	}
	defer a.close()

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	srv, err := server.NewServer(a.explorer, a.cfg.Server.AllowedOrigins, a.logger, a.metrics)
	if err != nil {
		return err
	}
	a.logger.Info("running in server mode", zap.Int("port", port), zap.String("version", Version))
	return srv.Start(cmd.Context(), port)
}
