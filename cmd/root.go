package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ptrack/pkg/config"
	"ptrack/pkg/server"
	"ptrack/pkg/tui"
)

// Version is set by main.
var Version = "dev"

var (
	cfgFile     string
	verbose     bool
	withServer  bool
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ptrack",
	Short: "Explore the holdings of an EVM wallet",
	Long: `ptrack shows the native balance, tokens and NFTs held by a wallet on
Ethereum, Binance Smart Chain, Polygon and Fantom using the Covalent API.

Without a subcommand it starts the interactive terminal UI.

Examples:
  ptrack                                   # Start the terminal UI
  ptrack --server                          # Terminal UI plus the HTTP API
  ptrack serve                             # Headless HTTP API
  ptrack query 0xABC... --network bsc-mainnet
  ptrack check --probe                     # Validate config and reach the API
  ptrack config init                       # Write a default config file`,
	SilenceUsage: true,
	RunE:         runRoot,
}

// Execute adds all child commands to the root command and runs it until
// completion or an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (default ~/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().BoolVar(&withServer, "server", false, "also run the HTTP API in the background")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ptrack version %s\n", Version)
	},
}

func runRoot(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "ptrack version %s\n", Version)
		return nil
	}

	// The terminal owns the screen, so logs always go to a file.
	a, err := newApp(appTUI)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if withServer {
		srv, err := server.NewServer(a.explorer, a.cfg.Server.AllowedOrigins, a.logger, a.metrics)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Start(ctx, a.cfg.Server.Port); err != nil {
				a.logger.Error("API server stopped", zap.Error(err))
			}
		}()
	}

	return tui.Start(ctx, a.explorer, a.cfg.Network(), Version)
}
