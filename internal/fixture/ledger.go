package fixture

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// Ledger describes a starting ledger state.
type Ledger struct {
	Accounts []Account `yaml:"accounts" json:"accounts"`
	Lines    []Line    `yaml:"lines,omitempty" json:"lines,omitempty"`
	Offers   []Offer   `yaml:"offers,omitempty" json:"offers,omitempty"`
}

type Account struct {
	Name  string `yaml:"name" json:"name"`
	Drops int64  `yaml:"drops" json:"drops"`
	// TransferRate is a ratio such as "1.002"; empty means none.
	TransferRate string `yaml:"transfer_rate,omitempty" json:"transfer_rate,omitempty"`
	Sequence     uint32 `yaml:"sequence,omitempty" json:"sequence,omitempty"`
}

// Line lets Holder hold up to Limit of Issuer's IOUs. Balance is what
// Holder holds when the ledger is loaded.
type Line struct {
	Holder     string `yaml:"holder" json:"holder"`
	Issuer     string `yaml:"issuer" json:"issuer"`
	Currency   string `yaml:"currency" json:"currency"`
	Limit      string `yaml:"limit" json:"limit"`
	Balance    string `yaml:"balance,omitempty" json:"balance,omitempty"`
	QualityIn  string `yaml:"quality_in,omitempty" json:"quality_in,omitempty"`
	QualityOut string `yaml:"quality_out,omitempty" json:"quality_out,omitempty"`
}

type Offer struct {
	Owner      string `yaml:"owner" json:"owner"`
	Sequence   uint32 `yaml:"sequence" json:"sequence"`
	Pays       string `yaml:"pays" json:"pays"`
	Gets       string `yaml:"gets" json:"gets"`
	Expiration uint32 `yaml:"expiration,omitempty" json:"expiration,omitempty"`
}

// ParseLedger decodes a ledger fixture.
func ParseLedger(data []byte) (*Ledger, error) {
	var l Ledger
	if err := decode(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadLedger reads a ledger fixture from path.
func LoadLedger(path string) (*Ledger, error) {
	var l Ledger
	if err := readFile(path, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Apply writes l into v: accounts first, then lines and their balances,
// then offers.
func (l *Ledger) Apply(v view.View, r *Resolver) error {
	for _, a := range l.Accounts {
		if err := applyAccount(v, r, a); err != nil {
			return fmt.Errorf("account %s: %w", a.Name, err)
		}
	}
	for _, line := range l.Lines {
		if err := applyLine(v, r, line); err != nil {
			return fmt.Errorf("line %s/%s/%s: %w", line.Holder, line.Currency, line.Issuer, err)
		}
	}
	for _, o := range l.Offers {
		if err := applyOffer(v, r, o); err != nil {
			return fmt.Errorf("offer %s#%d: %w", o.Owner, o.Sequence, err)
		}
	}
	return nil
}

func applyAccount(v view.View, r *Resolver, a Account) error {
	id, err := r.Account(a.Name)
	if err != nil {
		return err
	}
	if a.Drops < 0 {
		return malformed("negative balance %d", a.Drops)
	}
	rate, err := parseRate(a.TransferRate)
	if err != nil {
		return err
	}
	if rate != 0 && rate < amount.QualityOne {
		return malformed("transfer rate below 1: %s", a.TransferRate)
	}
	existing, err := view.ReadAccount(v, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return malformed("account listed twice")
	}
	return view.WriteAccount(v, &entries.AccountRoot{
		Account:      id,
		Balance:      a.Drops,
		TransferRate: rate,
		Sequence:     a.Sequence,
	})
}

func applyLine(v view.View, r *Resolver, l Line) error {
	holder, err := r.Account(l.Holder)
	if err != nil {
		return err
	}
	issue, err := r.Issue(l.Currency, l.Issuer)
	if err != nil {
		return err
	}
	if issue.IsXRP() || issue.Issuer == holder {
		return malformed("a line needs an issued currency and two accounts")
	}
	limit, err := amount.Parse(l.Limit, types.NewIssue(issue.Currency, holder))
	if err != nil || limit.IsNegative() {
		return malformed("bad limit %q", l.Limit)
	}
	qIn, err := parseRate(l.QualityIn)
	if err != nil {
		return err
	}
	qOut, err := parseRate(l.QualityOut)
	if err != nil {
		return err
	}

	line, err := view.ReadLine(v, holder, issue.Issuer, issue.Currency)
	if err != nil {
		return err
	}
	if line == nil {
		line = entries.NewRippleState(holder, issue.Issuer, issue.Currency, limit, amount.Zero(issue))
	}
	if line.IsLow(holder) {
		line.LowLimit = limit.WithIssue(line.LowLimit.Issue())
		line.LowQualityIn, line.LowQualityOut = qIn, qOut
	} else {
		line.HighLimit = limit.WithIssue(line.HighLimit.Issue())
		line.HighQualityIn, line.HighQualityOut = qIn, qOut
	}
	if err := view.WriteLine(v, line); err != nil {
		return err
	}

	if l.Balance == "" {
		return nil
	}
	balance, err := amount.Parse(l.Balance, issue)
	if err != nil || balance.IsNegative() {
		return malformed("bad balance %q", l.Balance)
	}
	return view.RippleCredit(v, issue.Issuer, holder, balance)
}

func applyOffer(v view.View, r *Resolver, o Offer) error {
	owner, err := r.Account(o.Owner)
	if err != nil {
		return err
	}
	pays, err := r.Amount(o.Pays)
	if err != nil {
		return err
	}
	gets, err := r.Amount(o.Gets)
	if err != nil {
		return err
	}
	if !pays.IsPositive() || !gets.IsPositive() {
		return malformed("offer amounts must be positive")
	}
	offer := &entries.Offer{
		Account:    owner,
		Sequence:   o.Sequence,
		TakerPays:  pays,
		TakerGets:  gets,
		Expiration: o.Expiration,
	}
	if err := offer.Validate(); err != nil {
		return malformed("%v", err)
	}
	return view.PlaceOffer(v, offer)
}

// Export describes the entries of v that involve account, or every entry
// when account is zero. Accounts are written as addresses.
func Export(v view.Iterable, account types.AccountID) (*Ledger, error) {
	out := &Ledger{}
	var decodeErr error
	err := v.ForEach(func(_ [32]byte, data []byte) bool {
		e, err := entries.Decode(data)
		if err != nil {
			decodeErr = err
			return false
		}
		switch e := e.(type) {
		case *entries.AccountRoot:
			if account.IsZero() || e.Account == account {
				out.Accounts = append(out.Accounts, Account{
					Name:         e.Account.String(),
					Drops:        e.Balance,
					TransferRate: formatRate(e.TransferRate),
					Sequence:     e.Sequence,
				})
			}
		case *entries.RippleState:
			if account.IsZero() || e.LowAccount() == account || e.HighAccount() == account {
				out.Lines = append(out.Lines, exportLine(e)...)
			}
		case *entries.Offer:
			if account.IsZero() || e.Account == account {
				out.Offers = append(out.Offers, Offer{
					Owner:      e.Account.String(),
					Sequence:   e.Sequence,
					Pays:       FormatAmount(e.TakerPays),
					Gets:       FormatAmount(e.TakerGets),
					Expiration: e.Expiration,
				})
			}
		}
		return true
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export ledger: %w", err)
	}
	return out, nil
}

// exportLine writes one Line per side that has a limit or holds a
// balance.
func exportLine(rs *entries.RippleState) []Line {
	var lines []Line
	sides := []struct {
		holder, issuer types.AccountID
		limit          amount.Amount
		held           amount.Amount
		qIn, qOut      uint32
	}{
		{rs.LowAccount(), rs.HighAccount(), rs.LowLimit, rs.Balance, rs.LowQualityIn, rs.LowQualityOut},
		{rs.HighAccount(), rs.LowAccount(), rs.HighLimit, rs.Balance.Negate(), rs.HighQualityIn, rs.HighQualityOut},
	}
	for _, s := range sides {
		if s.limit.IsZero() && !s.held.IsPositive() {
			continue
		}
		line := Line{
			Holder:     s.holder.String(),
			Issuer:     s.issuer.String(),
			Currency:   rs.Currency().String(),
			Limit:      s.limit.Value(),
			QualityIn:  formatRate(s.qIn),
			QualityOut: formatRate(s.qOut),
		}
		if s.held.IsPositive() {
			line.Balance = s.held.Value()
		}
		lines = append(lines, line)
	}
	return lines
}
