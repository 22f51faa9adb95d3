package entries

import (
	"errors"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// RippleState is a trust line between two accounts in one currency.
//
// Balance is held from the low account's side: positive means the high
// account owes the low account. Its issuer is the zero account. LowLimit
// is issued by the low account and caps how much it will hold of the high
// account's IOUs; HighLimit likewise for the high account.
type RippleState struct {
	BaseEntry
	Balance   amount.Amount
	LowLimit  amount.Amount
	HighLimit amount.Amount

	// Quality in/out per side; 0 means 1:1.
	LowQualityIn   uint32
	LowQualityOut  uint32
	HighQualityIn  uint32
	HighQualityOut uint32
}

func (r *RippleState) Type() entry.Type {
	return entry.TypeRippleState
}

func (r *RippleState) Validate() error {
	if r.LowLimit.IsNative() || r.HighLimit.IsNative() || r.Balance.IsNative() {
		return errors.New("trust line amounts cannot be native")
	}
	if r.LowLimit.Currency != r.HighLimit.Currency {
		return errors.New("trust line limits must share a currency")
	}
	if r.LowLimit.IsNegative() || r.HighLimit.IsNegative() {
		return errors.New("trust line limits cannot be negative")
	}
	if r.LowAccount().Compare(r.HighAccount()) >= 0 {
		return errors.New("low account must sort before high account")
	}
	return nil
}

func (r *RippleState) LowAccount() types.AccountID  { return r.LowLimit.Issuer }
func (r *RippleState) HighAccount() types.AccountID { return r.HighLimit.Issuer }
func (r *RippleState) Currency() types.Currency     { return r.LowLimit.Currency }

// IsLow reports whether account is the low side of the line.
func (r *RippleState) IsLow(account types.AccountID) bool {
	return r.LowAccount() == account
}

// NewRippleState creates an empty line between a and b. Limits are given
// from each account's own side.
func NewRippleState(a, b types.AccountID, currency types.Currency, limitA, limitB amount.Amount) *RippleState {
	low, high := a, b
	lowLimit, highLimit := limitA, limitB
	if b.Compare(a) < 0 {
		low, high = b, a
		lowLimit, highLimit = limitB, limitA
	}
	return &RippleState{
		Balance:   amount.Zero(types.Issue{Currency: currency}),
		LowLimit:  lowLimit.WithIssue(types.Issue{Currency: currency, Issuer: low}),
		HighLimit: highLimit.WithIssue(types.Issue{Currency: currency, Issuer: high}),
	}
}
