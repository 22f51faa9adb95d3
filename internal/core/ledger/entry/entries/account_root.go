package entries

import (
	"errors"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// AccountRoot represents an account in the ledger
type AccountRoot struct {
	BaseEntry
	Account    types.AccountID
	Sequence   uint32
	Balance    int64 // drops
	OwnerCount uint32

	// TransferRate is the fee charged when third parties move this
	// account's IOUs; 0 means none.
	TransferRate uint32
}

func (a *AccountRoot) Type() entry.Type {
	return entry.TypeAccountRoot
}

func (a *AccountRoot) Validate() error {
	if a.Account.IsZero() {
		return errors.New("account ID is required")
	}
	if a.Balance < 0 {
		return errors.New("balance cannot be negative")
	}
	if a.TransferRate != 0 && a.TransferRate < amount.QualityOne {
		return errors.New("transfer rate must be 0 or >= 1000000000")
	}
	return nil
}

// Rate returns the effective transfer rate.
func (a *AccountRoot) Rate() uint32 {
	if a.TransferRate == 0 {
		return amount.QualityOne
	}
	return a.TransferRate
}
