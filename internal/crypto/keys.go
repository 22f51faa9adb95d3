package crypto

import (
	"crypto/sha512"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ErrEmptyPassphrase is returned when a key is requested for an empty name.
var ErrEmptyPassphrase = errors.New("empty passphrase")

// KeyPair is a secp256k1 key pair.
type KeyPair struct {
	PrivateKey []byte
	PublicKey  []byte // compressed, 33 bytes
}

// AccountID returns the account ID of the pair's public key.
func (k KeyPair) AccountID() [AccountIDSize]byte {
	return CalcAccountID(k.PublicKey)
}

// DeriveKeyPair derives a secp256k1 key pair from a passphrase. The same
// passphrase always yields the same keys, which is what ledger fixtures rely
// on to name accounts.
func DeriveKeyPair(passphrase string) (KeyPair, error) {
	if passphrase == "" {
		return KeyPair{}, ErrEmptyPassphrase
	}
	digest := sha512.Sum512([]byte(passphrase))
	priv, pub := btcec.PrivKeyFromBytes(digest[:32])
	return KeyPair{
		PrivateKey: priv.Serialize(),
		PublicKey:  pub.SerializeCompressed(),
	}, nil
}
