package cli

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/fixture"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type batchOptions struct {
	dir  string
	jobs int
	json bool
}

// scenarioResult is the outcome of one scenario file.
type scenarioResult struct {
	Name     string         `json:"name"`
	File     string         `json:"file"`
	Passed   bool           `json:"passed"`
	Error    string         `json:"error,omitempty"`
	Outcome  *outcomeReport `json:"outcome,omitempty"`
	Duration time.Duration  `json:"duration"`
}

func newBatchCmd(g *globalOptions) *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run every scenario in a directory",
		Long: `Batch runs each scenario fixture (*.yaml, *.yml, *.json) found in
--dir. Scenarios are independent, each with its own in-memory ledger, and
run in parallel. A scenario passes when its computation succeeds, or
matches its expect block when it has one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g, o)
		},
	}
	cmd.Flags().StringVar(&o.dir, "dir", "", "directory of scenario fixtures")
	cmd.Flags().IntVarP(&o.jobs, "jobs", "j", runtime.NumCPU(), "scenarios run at once")
	cmd.Flags().BoolVar(&o.json, "json", false, "print results as JSON")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func scenarioFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func runBatch(cmd *cobra.Command, g *globalOptions, o *batchOptions) error {
	if o.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1")
	}
	files, err := scenarioFiles(o.dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no scenarios found in %s", o.dir)
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	opts := cfg.Engine.Options()
	opts.Logger = g.toolLogger(cmd.ErrOrStderr())

	results := make([]scenarioResult, len(files))
	grp, ctx := errgroup.WithContext(cmd.Context())
	grp.SetLimit(o.jobs)
	for i, file := range files {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = runScenario(file, opts)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if !res.Passed {
			failed++
		}
	}

	w := cmd.OutOrStdout()
	if o.json {
		if err := writeJSON(w, results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			state := "PASS"
			if !res.Passed {
				state = "FAIL"
			}
			detail := res.Error
			if detail == "" && res.Outcome != nil {
				detail = res.Outcome.Result
			}
			fmt.Fprintf(w, "%s  %-32s %s (%s)\n", state, res.Name, detail, res.Duration.Round(time.Microsecond))
		}
		fmt.Fprintf(w, "\n%d scenarios, %d passed, %d failed\n", len(results), len(results)-failed, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func runScenario(file string, opts paths.Options) (res scenarioResult) {
	start := time.Now()
	res = scenarioResult{Name: filepath.Base(file), File: file}
	defer func() { res.Duration = time.Since(start) }()

	s, err := fixture.LoadScenario(file)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Name = s.Name

	out, _, err := s.Run(opts)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	rep := newOutcomeReport(out)
	res.Outcome = &rep

	if s.Expect == nil {
		if out.Result != paths.TesSUCCESS {
			res.Error = fmt.Sprintf("result %s", out.Result)
			return res
		}
	} else if err := s.Expect.Check(out); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Passed = true
	return res
}
