package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tx-grouper/internal/service"
	"github.com/tx-grouper/pkg/model"
)

var contractsChain string

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Manage contract resource declarations",
	Long: `Contract declarations list the state a contract touches. The metadata
detector adds these resources to every call of the contract.`,
}

var contractsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import declarations from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE:  runContractsImport,
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List declarations for a chain",
	Args:  cobra.NoArgs,
	RunE:  runContractsList,
}

var contractsDeleteCmd = &cobra.Command{
	Use:   "delete <address>",
	Short: "Delete a declaration",
	Args:  cobra.ExactArgs(1),
	RunE:  runContractsDelete,
}

func init() {
	rootCmd.AddCommand(contractsCmd)
	contractsCmd.AddCommand(contractsImportCmd, contractsListCmd, contractsDeleteCmd)
	contractsCmd.PersistentFlags().StringVar(&contractsChain, "chain", "main", "Chain ID")
}

// newMetadataService forces the metadata detector so the database is opened.
func newMetadataService(cmd *cobra.Command) (*service.Service, error) {
	cfg.Detector.Type = "metadata"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newService(cmd.Context())
}

func runContractsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	var contracts []*model.Contract
	if err := json.Unmarshal(data, &contracts); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	svc, err := newMetadataService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, c := range contracts {
		if c == nil || strings.TrimSpace(c.Address) == "" {
			return fmt.Errorf("contract without address in %s", args[0])
		}
		if c.ChainID == "" {
			c.ChainID = contractsChain
		}
		if err := svc.Contracts().SaveContract(cmd.Context(), c); err != nil {
			return err
		}
	}
	logger.Info("Imported %d contracts", len(contracts))
	return nil
}

func runContractsList(cmd *cobra.Command, args []string) error {
	svc, err := newMetadataService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	contracts, err := svc.Contracts().ListContracts(cmd.Context(), contractsChain)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tRESOURCES")
	for _, c := range contracts {
		keys := make([]string, len(c.Resources))
		for i, k := range c.Resources {
			keys[i] = string(k)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Address, c.Name, strings.Join(keys, ","))
	}
	return tw.Flush()
}

func runContractsDelete(cmd *cobra.Command, args []string) error {
	svc, err := newMetadataService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Contracts().DeleteContract(cmd.Context(), contractsChain, args[0]); err != nil {
		return err
	}
	logger.Info("Deleted contract %s on %s", args[0], contractsChain)
	return nil
}
