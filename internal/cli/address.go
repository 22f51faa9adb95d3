package cli

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/spf13/cobra"
)

func newAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address <name>...",
		Short: "Derive the deterministic account for a fixture name",
		Long: `Address prints the classic address fixtures use for an account
given by name. The same name always yields the same address.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				id, err := types.AccountFromName(name)
				if err != nil {
					return fmt.Errorf("failed to derive %q: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, id.String())
			}
			return nil
		},
	}
}
