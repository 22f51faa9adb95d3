// Package view defines the ledger state contract used by the payment
// engine, an ordered in-memory ledger, and the copy-on-write Sandbox that
// lets a computation check out, merge or discard changes.
package view

import (
	"bytes"
	"errors"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
)

var (
	// ErrEntryNotFound is returned when updating or erasing a missing entry.
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrEntryExists is returned when inserting over an existing entry.
	ErrEntryExists = errors.New("ledger entry already exists")
	// ErrWrongType is returned when an entry decodes to an unexpected type.
	ErrWrongType = errors.New("ledger entry has unexpected type")
)

// ReadView is read access to ledger state. Read returns nil data and a
// nil error for absent entries.
type ReadView interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)

	// Succ returns the smallest present key strictly between after and
	// before.
	Succ(after, before [32]byte) ([32]byte, bool, error)
}

// View is mutable ledger state.
type View interface {
	ReadView
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}

// Iterable views can walk every entry in key order.
type Iterable interface {
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

func keyLess(a, b [32]byte) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func cloneBytes(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
