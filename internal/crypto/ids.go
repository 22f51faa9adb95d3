package crypto

import (
	"crypto/sha256"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// AccountIDSize is the size of an account ID in bytes.
const AccountIDSize = 20

// CalcAccountID computes the account ID from a public key as
// RIPEMD160(SHA256(publicKey)). The whole key, prefix included, is hashed.
func CalcAccountID(publicKey []byte) [AccountIDSize]byte {
	sha256Hash := sha256.Sum256(publicKey)

	hasher := ripemd160.New()
	hasher.Write(sha256Hash[:])

	var result [AccountIDSize]byte
	copy(result[:], hasher.Sum(nil))
	return result
}

// AccountIDFromBytes creates an account ID from a byte slice.
// Returns a zero account ID if the slice is not exactly 20 bytes.
func AccountIDFromBytes(b []byte) [AccountIDSize]byte {
	var result [AccountIDSize]byte
	if len(b) == AccountIDSize {
		copy(result[:], b)
	}
	return result
}
