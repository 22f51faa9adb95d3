package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/LeJamon/ripplecalc/internal/fixture"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type calcOptions struct {
	ledger  string
	payment string
	commit  bool
	json    bool
	out     string
}

func newCalcCmd(g *globalOptions) *cobra.Command {
	o := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute one payment against a fixture ledger",
		Long: `Calc loads a ledger fixture into memory, computes the payment
fixture against it and prints the outcome.

With --commit the changes are applied and the resulting ledger is written
as a fixture, to --out or after the report.

Example:
    ripplecalc calc --ledger ledger.yaml --payment payment.yaml
    ripplecalc calc --ledger ledger.yaml --payment payment.yaml --json
    ripplecalc calc --ledger ledger.yaml --payment payment.yaml --commit --out after.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, g, o)
		},
	}
	cmd.Flags().StringVar(&o.ledger, "ledger", "", "ledger fixture (YAML or JSON)")
	cmd.Flags().StringVar(&o.payment, "payment", "", "payment fixture (YAML or JSON)")
	cmd.Flags().BoolVar(&o.commit, "commit", false, "apply the changes and write the resulting ledger")
	cmd.Flags().BoolVar(&o.json, "json", false, "print the outcome as JSON")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "file for the resulting ledger (with --commit)")
	_ = cmd.MarkFlagRequired("ledger")
	_ = cmd.MarkFlagRequired("payment")
	return cmd
}

func runCalc(cmd *cobra.Command, g *globalOptions, o *calcOptions) error {
	ledger, err := fixture.LoadLedger(o.ledger)
	if err != nil {
		return err
	}
	payment, err := fixture.LoadPayment(o.payment)
	if err != nil {
		return err
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.Engine.Options()
	opts.Logger = g.toolLogger(cmd.ErrOrStderr())

	r := fixture.NewResolver()
	mem := view.NewMemoryLedger()
	if err := ledger.Apply(mem, r); err != nil {
		return err
	}
	req, err := payment.Request(r)
	if err != nil {
		return err
	}

	sb := view.NewSandbox(mem)
	out := paths.Calculate(sb, req, opts)

	w := cmd.OutOrStdout()
	rep := newOutcomeReport(out)
	if o.json {
		if err := rep.writeJSON(w); err != nil {
			return err
		}
	} else {
		rep.writeText(w)
	}

	if o.commit {
		if err := sb.ApplyToView(); err != nil {
			return fmt.Errorf("failed to apply changes: %w", err)
		}
		if err := writeLedger(w, o.out, mem); err != nil {
			return err
		}
	}
	if out.Result != paths.TesSUCCESS {
		return fmt.Errorf("payment failed: %s", out.Result)
	}
	return nil
}

// writeLedger exports every entry of v as YAML, to path or to w.
func writeLedger(w io.Writer, path string, v view.Iterable) error {
	l, err := fixture.Export(v, types.AccountID{})
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if path == "" {
		fmt.Fprintln(w, "---")
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}
