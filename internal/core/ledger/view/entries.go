package view

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

func readEntry[T entry.Entry](v ReadView, k keylet.Keylet) (T, error) {
	var zero T
	data, err := v.Read(k)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s: %w", k.Type, err)
	}
	if data == nil {
		return zero, nil
	}
	e, err := entries.Decode(data)
	if err != nil {
		return zero, err
	}
	typed, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("%w: want %s, got %s", ErrWrongType, k.Type, e.Type())
	}
	return typed, nil
}

// ReadAccount returns the account root of id, nil if absent.
func ReadAccount(v ReadView, id types.AccountID) (*entries.AccountRoot, error) {
	return readEntry[*entries.AccountRoot](v, keylet.Account(id))
}

// ReadLine returns the trust line between a and b, nil if absent.
func ReadLine(v ReadView, a, b types.AccountID, currency types.Currency) (*entries.RippleState, error) {
	return readEntry[*entries.RippleState](v, keylet.Line(a, b, currency))
}

// ReadOffer returns the offer stored at key, nil if absent.
func ReadOffer(v ReadView, key [32]byte) (*entries.Offer, error) {
	return readEntry[*entries.Offer](v, keylet.Unchecked(entry.TypeOffer, key))
}

// ReadDirectory returns the directory stored at key, nil if absent.
func ReadDirectory(v ReadView, key [32]byte) (*entries.DirectoryNode, error) {
	return readEntry[*entries.DirectoryNode](v, keylet.Dir(key))
}

// Write stores e at k, inserting or updating as needed.
func Write(v View, k keylet.Keylet, e entry.Entry) error {
	data, err := entries.Encode(e)
	if err != nil {
		return err
	}
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// WriteAccount stores an account root.
func WriteAccount(v View, a *entries.AccountRoot) error {
	return Write(v, keylet.Account(a.Account), a)
}

// WriteLine stores a trust line.
func WriteLine(v View, line *entries.RippleState) error {
	return Write(v, keylet.Line(line.LowAccount(), line.HighAccount(), line.Currency()), line)
}

// WriteOffer stores an offer.
func WriteOffer(v View, o *entries.Offer) error {
	return Write(v, keylet.Offer(o.Account, o.Sequence), o)
}
