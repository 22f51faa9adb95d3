package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/LeJamon/ripplecalc/internal/config"
	"github.com/LeJamon/ripplecalc/internal/logging"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	debug      bool
	verbose    bool
	quiet      bool
}

// NewRootCommand builds the ripplecalc command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "ripplecalc",
		Short: "ripplecalc - payment path computation over trust lines and order books",
		Long: `ripplecalc computes multi-hop payments across trust lines and order
books. It evaluates fixture ledgers from the command line, keeps a
persistent ledger store, and serves settlements over gRPC.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress log output to the console")

	rootCmd.AddCommand(
		newCalcCmd(g),
		newBatchCmd(g),
		newLedgerCmd(g),
		newServeCmd(g),
		newAddressCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logger builds the process logger from cfg and the logging flags.
func (g *globalOptions) logger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	opts := cfg.Log.Logging()
	switch {
	case g.debug:
		opts.Level = "debug"
	case g.verbose:
		opts.Level = "info"
	}
	opts.Quiet = g.quiet
	return logging.Setup("ripplecalc", opts)
}

// toolLogger is used by the one-shot commands, which only log when asked.
func (g *globalOptions) toolLogger(w io.Writer) *slog.Logger {
	switch {
	case g.quiet:
		return slog.New(slog.DiscardHandler)
	case g.debug:
		return slog.New(logging.NewHandler(w, slog.LevelDebug))
	case g.verbose:
		return slog.New(logging.NewHandler(w, slog.LevelInfo))
	}
	return slog.New(slog.DiscardHandler)
}
