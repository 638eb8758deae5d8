package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tx-grouper/internal/service"
	"github.com/tx-grouper/internal/workload"
	"github.com/tx-grouper/pkg/model"
)

var (
	// Bench command flags
	benchChains      int
	benchParallel    int
	benchStrategy    string
	benchCores       int
	benchMetrics     bool
	benchContractNum int
	benchWorkload    = workload.DefaultConfig()
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Group generated batches for several simulated chains",
	Long: `Generate one reproducible batch per simulated chain, group them
concurrently and report group counts, sizes and timings.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	f := benchCmd.Flags()
	f.IntVar(&benchChains, "chains", 1, "Number of simulated chains")
	f.IntVar(&benchParallel, "parallel", 0, "Maximum concurrent groupings (0 = one per chain)")
	f.StringVarP(&benchStrategy, "strategy", "s", "", "Strategy override: naive, max-add-mins, mins-add-up")
	f.IntVarP(&benchCores, "cores", "n", 0, "Core count override for rebalancing strategies")
	f.BoolVar(&benchMetrics, "metrics", false, "Print collected Prometheus metrics")
	f.Int64Var(&benchWorkload.Seed, "seed", benchWorkload.Seed, "Random seed")
	f.IntVar(&benchWorkload.Txs, "txs", benchWorkload.Txs, "Transactions per batch")
	f.IntVar(&benchWorkload.Accounts, "accounts", benchWorkload.Accounts, "Distinct accounts")
	f.Float64Var(&benchWorkload.Skew, "skew", benchWorkload.Skew, "Zipf skew of account selection (<= 1 is uniform)")
	f.Float64Var(&benchWorkload.CallRatio, "call-ratio", 0, "Fraction of contract calls")
	f.Float64Var(&benchWorkload.SystemRatio, "system-ratio", 0, "Fraction of system actions")
	f.IntVar(&benchContractNum, "contracts", 8, "Number of contracts targeted by calls")
}

// benchConfigs derives one workload per chain from the flags.
func benchConfigs() []workload.Config {
	contracts := make([]string, benchContractNum)
	for i := range contracts {
		contracts[i] = fmt.Sprintf("0xc%039x", i)
	}

	configs := make([]workload.Config, benchChains)
	for i := range configs {
		c := benchWorkload
		c.ChainID = fmt.Sprintf("bench-%d", i)
		c.Seed = benchWorkload.Seed + int64(i)
		c.Contracts = contracts
		configs[i] = c
	}
	return configs
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchChains < 1 {
		return fmt.Errorf("--chains must be at least 1, got %d", benchChains)
	}

	configs := benchConfigs()
	batches := make([]*model.Batch, len(configs))
	for i, c := range configs {
		gen, err := workload.New(c)
		if err != nil {
			return err
		}
		batches[i] = gen.Batch()
	}

	registry := prometheus.NewRegistry()
	svc, err := newService(cmd.Context(), service.WithRegistry(registry))
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := service.GroupOptions{Strategy: benchStrategy}
	if cmd.Flags().Changed("cores") {
		opts.CoreCount = &benchCores
	}

	plans := make([]*model.Plan, len(batches))
	g, ctx := errgroup.WithContext(cmd.Context())
	if benchParallel > 0 {
		g.SetLimit(benchParallel)
	}
	for i, batch := range batches {
		g.Go(func() error {
			plan, err := svc.Group(ctx, batch, opts)
			if err != nil {
				return fmt.Errorf("chain %s: %w", batch.ChainID, err)
			}
			plans[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAIN\tSTRATEGY\tTXS\tGROUPS\tLARGEST\tFAILURES\tELAPSED")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.3fms\n",
			p.ChainID, p.Strategy, p.TotalTxs, p.GroupCount, largest(p.Sizes()), len(p.Failures), p.ElapsedMs)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !benchMetrics {
		return nil
	}
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}

func largest(sizes []int) int {
	if len(sizes) == 0 {
		return 0
	}
	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	return sorted[len(sorted)-1]
}
