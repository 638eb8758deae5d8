package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tx-grouper/internal/grouper"
)

var strategiesCmd = &cobra.Command{
	Use:                "strategies",
	Short:              "List grouping strategies",
	PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCORE LIMIT\tDESCRIPTION")
		for _, info := range grouper.AllStrategies() {
			limit := "no"
			if info.Limited {
				limit = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, limit, info.Description)
		}
		tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
