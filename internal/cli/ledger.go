package cli

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/LeJamon/ripplecalc/internal/fixture"
	"github.com/LeJamon/ripplecalc/internal/storage/ledgerstore"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newLedgerCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Manage the persistent ledger store",
		Long: `Ledger loads fixtures into the configured store and prints what it
holds. The store is the one [store] in the configuration names.`,
	}
	cmd.AddCommand(newLedgerImportCmd(g), newLedgerShowCmd(g))
	return cmd
}

func (g *globalOptions) openStore(cmd *cobra.Command) (*ledgerstore.Store, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := ledgerstore.Open(cfg.Store.Ledgerstore(), g.toolLogger(cmd.ErrOrStderr()))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}
	return store, nil
}

func newLedgerImportCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixture>...",
		Short: "Load ledger fixtures into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			r := fixture.NewResolver()
			for _, path := range args {
				l, err := fixture.LoadLedger(path)
				if err != nil {
					return err
				}
				sb := view.NewSandbox(store)
				if err := l.Apply(sb, r); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := store.Atomic(cmd.Context(), sb.ApplyToView); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d accounts, %d lines, %d offers\n",
					path, len(l.Accounts), len(l.Lines), len(l.Offers))
			}
			return nil
		},
	}
}

func newLedgerShowCmd(g *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [account]",
		Short: "Print the store as a ledger fixture",
		Long: `Show prints the accounts, trust lines and offers in the store. Given
an account, by address or fixture name, only its entries are printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account types.AccountID
			if len(args) == 1 {
				id, err := fixture.NewResolver().Account(args[0])
				if err != nil {
					return err
				}
				account = id
			}

			store, err := g.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			l, err := fixture.Export(store, account)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), l)
			}
			data, err := yaml.Marshal(l)
			if err != nil {
				return fmt.Errorf("failed to encode ledger: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
