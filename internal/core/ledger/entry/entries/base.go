// Package entries holds the concrete ledger entries and their msgpack
// storage encoding.
package entries

import (
	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// BaseEntry contains fields common to all entries
type BaseEntry struct {
	PreviousTxnID     [32]byte
	PreviousTxnLgrSeq uint32
	Flags             uint32
}

// HasFlag reports whether flag is set.
func (b *BaseEntry) HasFlag(flag uint32) bool {
	return b.Flags&flag != 0
}

// wireAmount is the storage form of an amount.
type wireAmount struct {
	Native   bool     `codec:"n"`
	Value    int64    `codec:"v"`
	Exponent int      `codec:"e"`
	Currency [20]byte `codec:"c"`
	Issuer   [20]byte `codec:"i"`
}

func toWireAmount(a amount.Amount) wireAmount {
	return wireAmount{
		Native:   a.IsNative(),
		Value:    a.Mantissa(),
		Exponent: a.Exponent(),
		Currency: a.Currency,
		Issuer:   a.Issuer,
	}
}

func (w wireAmount) amount() amount.Amount {
	if w.Native {
		return amount.NewXRP(w.Value)
	}
	return amount.NewIssued(w.Value, w.Exponent, types.Issue{Currency: w.Currency, Issuer: w.Issuer})
}
