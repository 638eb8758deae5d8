package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tx-grouper/internal/service"
	"github.com/tx-grouper/pkg/writer"
)

var (
	// Group command flags
	groupChain    string
	groupStrategy string
	groupCores    int
	groupFormat   string
	groupOutput   string
	groupOutKey   string
)

var groupCmd = &cobra.Command{
	Use:   "group <batch-key>",
	Short: "Group a transaction batch",
	Long: `Load a batch from storage, detect the resources of every transaction and
print the resulting execution plan.

The batch is either a JSON array of transactions or an object with
"chain_id" and "transactions". With local storage an absolute path may be
given directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)

	groupCmd.Flags().StringVar(&groupChain, "chain", "", "Chain ID for batches that do not carry one")
	groupCmd.Flags().StringVarP(&groupStrategy, "strategy", "s", "", "Strategy override: naive, max-add-mins, mins-add-up")
	groupCmd.Flags().IntVarP(&groupCores, "cores", "n", 0, "Core count override for rebalancing strategies")
	groupCmd.Flags().StringVarP(&groupFormat, "format", "f", "pretty", "Output format: json, pretty, text")
	groupCmd.Flags().StringVarP(&groupOutput, "output", "o", "", "Write the plan to a file instead of stdout")
	groupCmd.Flags().StringVar(&groupOutKey, "out-key", "", "Also store the plan under this storage key")
}

func runGroup(cmd *cobra.Command, args []string) error {
	w, err := writer.New(groupFormat)
	if err != nil {
		return err
	}

	key := args[0]
	if cfg.Storage.Type == "local" && filepath.IsAbs(key) {
		cfg.Storage.LocalPath = filepath.Dir(key)
		key = filepath.Base(key)
	}

	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := service.GroupOptions{
		ChainID:   groupChain,
		Strategy:  groupStrategy,
		OutputKey: groupOutKey,
	}
	if cmd.Flags().Changed("cores") {
		opts.CoreCount = &groupCores
	}
	plan, err := svc.GroupBatch(ctx, key, opts)
	if err != nil {
		return err
	}

	if groupOutput != "" {
		if err := writer.WriteToFile(w, plan, groupOutput); err != nil {
			return err
		}
		logger.Info("Plan written to %s", groupOutput)
		return nil
	}
	return w.Write(plan, cmd.OutOrStdout())
}
