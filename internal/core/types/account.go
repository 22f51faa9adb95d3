// Package types holds the identifiers shared by the ledger and the payment
// engine: accounts, currencies and issues.
package types

import (
	"bytes"
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/codec/addresscodec"
	"github.com/LeJamon/ripplecalc/internal/crypto"
)

// AccountID is the 160-bit identifier of an account.
type AccountID [20]byte

// AccountFromName derives the account of a deterministic key pair. Fixtures
// and tests name accounts this way.
func AccountFromName(name string) (AccountID, error) {
	kp, err := crypto.DeriveKeyPair(name)
	if err != nil {
		return AccountID{}, fmt.Errorf("failed to derive account %q: %w", name, err)
	}
	return AccountID(kp.AccountID()), nil
}

// ParseAccountID decodes a classic address.
func ParseAccountID(address string) (AccountID, error) {
	id, err := addresscodec.DecodeAddress(address)
	if err != nil {
		return AccountID{}, fmt.Errorf("failed to decode address %q: %w", address, err)
	}
	return AccountID(id), nil
}

// IsZero reports whether a is the zero account, used as the XRP issuer.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// Compare orders accounts by their raw bytes.
func (a AccountID) Compare(b AccountID) int {
	return bytes.Compare(a[:], b[:])
}

// String returns the classic address.
func (a AccountID) String() string {
	return addresscodec.EncodeAccountID(a)
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}
