// Package entry names the kinds of ledger state the payment engine reads
// and writes.
package entry

import "fmt"

// Type is the two-byte tag that prefixes every encoded entry.
type Type uint16

const (
	TypeAccountRoot   Type = 0x0061
	TypeDirectoryNode Type = 0x0064
	TypeOffer         Type = 0x006f
	TypeRippleState   Type = 0x0072
)

var typeNames = map[Type]string{
	TypeAccountRoot:   "AccountRoot",
	TypeDirectoryNode: "DirectoryNode",
	TypeOffer:         "Offer",
	TypeRippleState:   "RippleState",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%#x)", uint16(t))
}

// Known reports whether t is one of the entry kinds above.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// Entry is a decoded ledger entry.
type Entry interface {
	Type() Type
	Validate() error
}
