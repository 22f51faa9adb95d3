package view

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
)

// PlaceOffer files o in the book directory for its quality and stores it.
// The owner's OwnerCount grows by one.
func PlaceOffer(v View, o *entries.Offer) error {
	in, out := o.TakerPays.Issue(), o.TakerGets.Issue()
	book := keylet.Book(in, out)
	quality := amount.GetRate(o.TakerGets, o.TakerPays)
	dirKey := keylet.Quality(book, quality)

	dir, err := ReadDirectory(v, dirKey.Key)
	if err != nil {
		return err
	}
	if dir == nil {
		dir = &entries.DirectoryNode{
			RootIndex:    dirKey.Key,
			TakerPays:    in,
			TakerGets:    out,
			ExchangeRate: quality,
		}
	}
	offerKey := keylet.Offer(o.Account, o.Sequence)
	dir.Indexes = append(dir.Indexes, offerKey.Key)
	if err := Write(v, dirKey, dir); err != nil {
		return err
	}

	o.BookDirectory = dirKey.Key
	if err := Write(v, offerKey, o); err != nil {
		return err
	}
	return adjustOwnerCount(v, o, 1)
}

// DeleteOffer removes the offer at key from its directory, erasing the
// directory when it becomes empty, and decrements the owner's OwnerCount.
func DeleteOffer(v View, key [32]byte) error {
	offer, err := ReadOffer(v, key)
	if err != nil {
		return err
	}
	if offer == nil {
		return fmt.Errorf("%w: offer %x", ErrEntryNotFound, key[:8])
	}

	dir, err := ReadDirectory(v, offer.BookDirectory)
	if err != nil {
		return err
	}
	if dir != nil {
		dir.Remove(key)
		if len(dir.Indexes) == 0 {
			err = v.Erase(keylet.Dir(offer.BookDirectory))
		} else {
			err = Write(v, keylet.Dir(offer.BookDirectory), dir)
		}
		if err != nil {
			return err
		}
	}

	if err := v.Erase(keylet.Unchecked(entry.TypeOffer, key)); err != nil {
		return err
	}
	return adjustOwnerCount(v, offer, -1)
}

func adjustOwnerCount(v View, o *entries.Offer, delta int) error {
	acct, err := ReadAccount(v, o.Account)
	if err != nil || acct == nil {
		return err
	}
	switch {
	case delta > 0:
		acct.OwnerCount++
	case acct.OwnerCount > 0:
		acct.OwnerCount--
	}
	return WriteAccount(v, acct)
}
