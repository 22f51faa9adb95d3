package keylet

import (
	"encoding/binary"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	crypto "github.com/LeJamon/ripplecalc/internal/crypto/common"
)

// Space identifiers for keylet generation
const (
	spaceAccount   uint16 = 'a' // Account root
	spaceRippleDir uint16 = 'r' // Trust line
	spaceOffer     uint16 = 'o' // Offer
	spaceBookDir   uint16 = 'B' // Order book directory
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// Account returns the keylet for an account root entry.
func Account(account types.AccountID) Keylet {
	return Keylet{
		Type: entry.TypeAccountRoot,
		Key:  indexHash(spaceAccount, account[:]),
	}
}

// Line returns the keylet for the trust line between two accounts.
// The order of the accounts does not matter.
func Line(a, b types.AccountID, currency types.Currency) Keylet {
	low, high := a, b
	if b.Compare(a) < 0 {
		low, high = b, a
	}
	return Keylet{
		Type: entry.TypeRippleState,
		Key:  indexHash(spaceRippleDir, low[:], high[:], currency[:]),
	}
}

// Offer returns the keylet for an offer entry.
func Offer(account types.AccountID, sequence uint32) Keylet {
	seqBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(seqBytes, sequence)
	return Keylet{
		Type: entry.TypeOffer,
		Key:  indexHash(spaceOffer, account[:], seqBytes),
	}
}

// Book returns the base of the order book where takers pay in and get
// out. The low 64 bits are zero; quality directories of the book share
// the high 192 bits.
func Book(in, out types.Issue) Keylet {
	key := indexHash(spaceBookDir, in.Currency[:], in.Issuer[:], out.Currency[:], out.Issuer[:])
	for i := 24; i < 32; i++ {
		key[i] = 0
	}
	return Keylet{Type: entry.TypeDirectoryNode, Key: key}
}

// Quality returns the directory of book at quality q.
func Quality(book Keylet, q uint64) Keylet {
	k := Keylet{Type: entry.TypeDirectoryNode, Key: book.Key}
	binary.BigEndian.PutUint64(k.Key[24:], q)
	return k
}

// QualityNext returns the first key past every quality of the book
// containing key.
func QualityNext(key [32]byte) [32]byte {
	next := key
	for i := 24; i < 32; i++ {
		next[i] = 0
	}
	for i := 23; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}

// GetQuality extracts the quality of a book directory key.
func GetQuality(key [32]byte) uint64 {
	return binary.BigEndian.Uint64(key[24:])
}

// Dir wraps a raw directory key.
func Dir(key [32]byte) Keylet {
	return Keylet{Type: entry.TypeDirectoryNode, Key: key}
}

// Unchecked wraps a raw key whose type the caller will check.
func Unchecked(t entry.Type, key [32]byte) Keylet {
	return Keylet{Type: t, Key: key}
}
