package view

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// TransferRate returns the fee multiplier issuer charges on transfers
// between third parties. QualityOne means no fee.
func TransferRate(v ReadView, issuer types.AccountID) (uint32, error) {
	if issuer.IsZero() {
		return amount.QualityOne, nil
	}
	acct, err := ReadAccount(v, issuer)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return amount.QualityOne, nil
	}
	return acct.Rate(), nil
}

// TransferRateBetween is TransferRate except that no fee applies when the
// issuer is one of the parties.
func TransferRateBetween(v ReadView, sender, receiver, issuer types.AccountID) (uint32, error) {
	if sender == issuer || receiver == issuer {
		return amount.QualityOne, nil
	}
	return TransferRate(v, issuer)
}

// Owed returns how much of its own IOUs to owes from. Negative means
// from owes to. The result is issued by to.
func Owed(v ReadView, to, from types.AccountID, currency types.Currency) (amount.Amount, error) {
	issue := types.Issue{Currency: currency, Issuer: to}
	line, err := ReadLine(v, to, from, currency)
	if err != nil {
		return amount.Amount{}, err
	}
	if line == nil {
		return amount.Zero(issue), nil
	}
	balance := line.Balance
	if line.IsLow(to) {
		balance = balance.Negate()
	}
	return balance.WithIssue(issue), nil
}

// Limit returns how much of from's IOUs to is willing to hold. The result
// is issued by to.
func Limit(v ReadView, to, from types.AccountID, currency types.Currency) (amount.Amount, error) {
	issue := types.Issue{Currency: currency, Issuer: to}
	line, err := ReadLine(v, to, from, currency)
	if err != nil {
		return amount.Amount{}, err
	}
	if line == nil {
		return amount.Zero(issue), nil
	}
	limit := line.HighLimit
	if line.IsLow(to) {
		limit = line.LowLimit
	}
	return limit.WithIssue(issue), nil
}

// QualityIn returns the quality to applies to value arriving from from.
func QualityIn(v ReadView, to, from types.AccountID, currency types.Currency) (uint32, error) {
	return lineQuality(v, to, from, currency, true)
}

// QualityOut returns the quality to applies to value leaving toward from.
func QualityOut(v ReadView, to, from types.AccountID, currency types.Currency) (uint32, error) {
	return lineQuality(v, to, from, currency, false)
}

func lineQuality(v ReadView, to, from types.AccountID, currency types.Currency, in bool) (uint32, error) {
	if to == from {
		return amount.QualityOne, nil
	}
	line, err := ReadLine(v, to, from, currency)
	if err != nil {
		return 0, err
	}
	if line == nil {
		return amount.QualityOne, nil
	}

	var q uint32
	switch low := line.IsLow(to); {
	case low && in:
		q = line.LowQualityIn
	case low:
		q = line.LowQualityOut
	case in:
		q = line.HighQualityIn
	default:
		q = line.HighQualityOut
	}
	if q == 0 {
		q = amount.QualityOne
	}
	return q, nil
}

// AccountHolds returns the balance account holds of issue: drops for XRP,
// the trust line balance toward the issuer otherwise.
func AccountHolds(v ReadView, account types.AccountID, issue types.Issue) (amount.Amount, error) {
	if issue.IsXRP() {
		acct, err := ReadAccount(v, account)
		if err != nil {
			return amount.Amount{}, err
		}
		if acct == nil {
			return amount.NewXRP(0), nil
		}
		return amount.NewXRP(acct.Balance), nil
	}

	line, err := ReadLine(v, account, issue.Issuer, issue.Currency)
	if err != nil {
		return amount.Amount{}, err
	}
	if line == nil {
		return amount.Zero(issue), nil
	}
	balance := line.Balance
	if !line.IsLow(account) {
		balance = balance.Negate()
	}
	return balance.WithIssue(issue), nil
}

// AccountFunds is AccountHolds except that an issuer has unlimited funds
// of its own IOUs, reported as def.
func AccountFunds(v ReadView, account types.AccountID, def amount.Amount) (amount.Amount, error) {
	if !def.IsNative() && def.Issuer == account {
		return def, nil
	}
	return AccountHolds(v, account, def.Issue())
}

// RippleCredit moves amt of the line's currency from sender to receiver
// across their trust line, creating the line with zero limits if needed.
func RippleCredit(v View, sender, receiver types.AccountID, amt amount.Amount) error {
	if amt.IsNative() {
		return fmt.Errorf("ripple credit of native amount %s", amt)
	}
	if sender == receiver || amt.IsZero() {
		return nil
	}
	currency := amt.Currency

	line, err := ReadLine(v, sender, receiver, currency)
	if err != nil {
		return err
	}
	if line == nil {
		zero := amount.Zero(types.Issue{Currency: currency, Issuer: sender})
		line = entries.NewRippleState(sender, receiver, currency, zero, zero)
	}

	lineIssue := types.Issue{Currency: currency}
	delta := amt.WithIssue(lineIssue)
	if line.IsLow(sender) {
		line.Balance = line.Balance.WithIssue(lineIssue).Sub(delta)
	} else {
		line.Balance = line.Balance.WithIssue(lineIssue).Add(delta)
	}
	return WriteLine(v, line)
}

// AdjustXRP adds delta drops to account, creating the account when a
// positive delta reaches a missing one.
func AdjustXRP(v View, account types.AccountID, delta int64) error {
	if delta == 0 {
		return nil
	}
	acct, err := ReadAccount(v, account)
	if err != nil {
		return err
	}
	if acct == nil {
		if delta < 0 {
			return fmt.Errorf("%w: account %s", ErrEntryNotFound, account)
		}
		acct = &entries.AccountRoot{Account: account}
	}
	acct.Balance += delta
	return WriteAccount(v, acct)
}

// TransferXRP moves drops between accounts.
func TransferXRP(v View, from, to types.AccountID, drops int64) error {
	if from == to || drops == 0 {
		return nil
	}
	if err := AdjustXRP(v, from, -drops); err != nil {
		return err
	}
	return AdjustXRP(v, to, drops)
}
