package entries

import (
	"errors"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// Offer is a standing order: the owner gives TakerGets in exchange for
// TakerPays.
type Offer struct {
	BaseEntry
	Account       types.AccountID
	Sequence      uint32
	TakerPays     amount.Amount
	TakerGets     amount.Amount
	BookDirectory [32]byte

	// Expiration in seconds since the ledger epoch; 0 never expires.
	Expiration uint32
}

func (o *Offer) Type() entry.Type {
	return entry.TypeOffer
}

func (o *Offer) Validate() error {
	if o.Account.IsZero() {
		return errors.New("offer owner is required")
	}
	if o.TakerPays.Issue() == o.TakerGets.Issue() {
		return errors.New("offer cannot exchange an issue for itself")
	}
	return nil
}

// Expired reports whether the offer has expired at closeTime.
func (o *Offer) Expired(closeTime uint32) bool {
	return o.Expiration != 0 && o.Expiration <= closeTime
}
