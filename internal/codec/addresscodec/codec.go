// Package addresscodec encodes account IDs as classic base58check
// addresses using the ripple alphabet.
package addresscodec

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58"
)

const (
	// AccountAddressPrefix is the version byte of a classic address.
	AccountAddressPrefix byte = 0x00

	// AccountIDLength is the decoded payload length of a classic address.
	AccountIDLength = 20

	checksumLength = 4

	alphabetChars = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"
)

var (
	// ErrInvalidAddress is returned for strings that are not valid base58.
	ErrInvalidAddress = errors.New("invalid classic address")
	// ErrInvalidChecksum is returned when the 4 trailing bytes do not match.
	ErrInvalidChecksum = errors.New("invalid address checksum")
	// ErrInvalidVersion is returned when the prefix byte is not an account prefix.
	ErrInvalidVersion = errors.New("invalid address version")
	// ErrInvalidLength is returned for payloads that are not 20 bytes.
	ErrInvalidLength = errors.New("invalid account id length")
)

var rippleAlphabet = base58.NewAlphabet(alphabetChars)

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// EncodeAccountID encodes a 20-byte account ID as a classic address.
func EncodeAccountID(id [AccountIDLength]byte) string {
	payload := make([]byte, 0, 1+AccountIDLength+checksumLength)
	payload = append(payload, AccountAddressPrefix)
	payload = append(payload, id[:]...)
	payload = append(payload, checksum(payload)...)
	return base58.EncodeAlphabet(payload, rippleAlphabet)
}

// DecodeAddress decodes a classic address into its account ID.
func DecodeAddress(address string) ([AccountIDLength]byte, error) {
	var id [AccountIDLength]byte
	if address == "" {
		return id, ErrInvalidAddress
	}
	raw, err := base58.DecodeAlphabet(address, rippleAlphabet)
	if err != nil {
		return id, ErrInvalidAddress
	}
	if len(raw) != 1+AccountIDLength+checksumLength {
		return id, ErrInvalidLength
	}
	body, sum := raw[:len(raw)-checksumLength], raw[len(raw)-checksumLength:]
	if !bytes.Equal(checksum(body), sum) {
		return id, ErrInvalidChecksum
	}
	if body[0] != AccountAddressPrefix {
		return id, ErrInvalidVersion
	}
	copy(id[:], body[1:])
	return id, nil
}

// IsValidAddress reports whether address decodes to an account ID.
func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}
