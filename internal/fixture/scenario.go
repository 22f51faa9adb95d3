package fixture

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/paths"
)

// Run loads the scenario ledger into a fresh in-memory ledger and computes
// the payment. The returned sandbox holds the engine's changes.
func (s *Scenario) Run(opts paths.Options) (*paths.Outcome, *view.Sandbox, error) {
	r := NewResolver()
	mem := view.NewMemoryLedger()
	seed := view.NewSandbox(mem)
	if err := s.Ledger.Apply(seed, r); err != nil {
		return nil, nil, err
	}
	if err := seed.ApplyToView(); err != nil {
		return nil, nil, err
	}
	req, err := s.Payment.Request(r)
	if err != nil {
		return nil, nil, err
	}
	sb := view.NewSandbox(mem)
	return paths.Calculate(sb, req, opts), sb, nil
}

// Check compares out with the expectation. Expected amounts are bare
// values in the asset of the outcome amount.
func (e *Expect) Check(out *paths.Outcome) error {
	if e == nil {
		return nil
	}
	if out.Result.String() != e.Result {
		return fmt.Errorf("result %s, want %s", out.Result, e.Result)
	}
	if err := checkValue("delivered", e.Delivered, out.Delivered); err != nil {
		return err
	}
	return checkValue("spent", e.Spent, out.Spent)
}

func checkValue(name, want string, got amount.Amount) error {
	if want == "" {
		return nil
	}
	expected, err := amount.Parse(want, got.Issue())
	if err != nil {
		return malformed("bad expected %s %q", name, want)
	}
	if got.Compare(expected) != 0 {
		return fmt.Errorf("%s %s, want %s", name, got.Value(), want)
	}
	return nil
}
