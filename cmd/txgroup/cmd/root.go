package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tx-grouper/internal/service"
	"github.com/tx-grouper/pkg/config"
	"github.com/tx-grouper/pkg/telemetry"
	"github.com/tx-grouper/pkg/utils"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg       *config.Config
	logger    utils.Logger
	shutdownT telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "txgroup",
	Short: "Conflict-aware transaction grouping",
	Long: `txgroup partitions a batch of transactions into groups that can run in
parallel without touching the same state, and optionally rebalances the
groups onto a fixed number of cores.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		cfg = loaded

		l, err := utils.NewLogger(cfg.Log.Level, cfg.Log.OutputPath)
		if err != nil {
			return err
		}
		logger = l
		utils.SetGlobalLogger(logger)

		telemetry.SetVersion(Version)
		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
			shutdown = func(context.Context) error { return nil }
		}
		shutdownT = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownT != nil {
			if err := shutdownT(context.Background()); err != nil {
				logger.Warn("Failed to flush traces: %v", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Group a local batch file with the configured strategy
  ` + binName + ` group ./batch.json

  # Rebalance onto 8 cores and print a table
  ` + binName + ` group ./batch.json -s mins-add-up -n 8 -f text

  # Benchmark 4 simulated chains
  ` + binName + ` bench --chains 4 --txs 10000`
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// newService builds and initializes a service from the loaded config.
func newService(ctx context.Context, opts ...service.Option) (*service.Service, error) {
	svc, err := service.New(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	if err := svc.Initialize(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}
