package entries

import (
	"errors"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// DirectoryNode lists the offers of one book at one quality. Its key
// carries the quality in the low 64 bits.
type DirectoryNode struct {
	BaseEntry
	RootIndex    [32]byte
	Indexes      [][32]byte
	TakerPays    types.Issue
	TakerGets    types.Issue
	ExchangeRate uint64
}

func (d *DirectoryNode) Type() entry.Type {
	return entry.TypeDirectoryNode
}

func (d *DirectoryNode) Validate() error {
	if d.TakerPays == d.TakerGets {
		return errors.New("book directory cannot exchange an issue for itself")
	}
	return nil
}

// Remove drops key from the index list and reports whether it was present.
func (d *DirectoryNode) Remove(key [32]byte) bool {
	for i, k := range d.Indexes {
		if k == key {
			d.Indexes = append(d.Indexes[:i], d.Indexes[i+1:]...)
			return true
		}
	}
	return false
}
