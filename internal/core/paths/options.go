package paths

import (
	"log/slog"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// TieBreak selects how two increments of equal quality are ordered.
type TieBreak int

const (
	// TieBreakQuantity prefers the larger delivered amount, then the lower
	// path index.
	TieBreakQuantity TieBreak = iota
	// TieBreakIndex prefers the lower path index.
	TieBreakIndex
)

func (t TieBreak) String() string {
	if t == TieBreakIndex {
		return "index"
	}
	return "quantity"
}

// ParseTieBreak accepts "quantity" and "index".
func ParseTieBreak(s string) (TieBreak, bool) {
	switch s {
	case "", "quantity":
		return TieBreakQuantity, true
	case "index":
		return TieBreakIndex, true
	}
	return TieBreakQuantity, false
}

// Options bound a computation.
type Options struct {
	MaxPathNodes  int
	MaxPaths      int
	MaxRounds     int
	MaxOfferLoops int
	TieBreak      TieBreak

	// CloseTime is compared against offer expirations.
	CloseTime uint32

	Logger *slog.Logger
}

// DefaultOptions returns the limits used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		MaxPathNodes:  16,
		MaxPaths:      6,
		MaxRounds:     2000,
		MaxOfferLoops: 1000,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxPathNodes <= 0 {
		o.MaxPathNodes = def.MaxPathNodes
	}
	if o.MaxPaths <= 0 {
		o.MaxPaths = def.MaxPaths
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = def.MaxRounds
	}
	if o.MaxOfferLoops <= 0 {
		o.MaxOfferLoops = def.MaxOfferLoops
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Element types. An element names an account hop, an offer hop (currency
// and/or issuer without an account), or both.
const (
	TypeAccount  uint8 = 0x01
	TypeCurrency uint8 = 0x10
	TypeIssuer   uint8 = 0x20

	typeValidBits = TypeAccount | TypeCurrency | TypeIssuer
)

// Element is one hop of a caller-supplied path.
type Element struct {
	Type     uint8
	Account  types.AccountID
	Currency types.Currency
	Issuer   types.AccountID
}

// AccountElement returns an account hop.
func AccountElement(account types.AccountID) Element {
	return Element{Type: TypeAccount, Account: account}
}

// OfferElement returns an offer hop converting into issue.
func OfferElement(issue types.Issue) Element {
	return Element{Type: TypeCurrency | TypeIssuer, Currency: issue.Currency, Issuer: issue.Issuer}
}

// Request is a payment to compute.
type Request struct {
	Sender   types.AccountID
	Receiver types.AccountID

	// Deliver is the requested amount; its issuer may be the receiver to
	// accept any issuer the receiver trusts.
	Deliver amount.Amount
	// SendMax bounds what the sender spends.
	SendMax amount.Amount

	Paths [][]Element

	Partial      bool
	LimitQuality bool
	NoDirect     bool
}

// Outcome is the result of Calculate. Ledger changes stay in the sandbox
// passed to Calculate.
type Outcome struct {
	Result    Result
	Delivered amount.Amount
	Spent     amount.Amount
	Rounds    int
	Paths     []PathReport

	// RemovedOffers lists offers deleted during finalization.
	RemovedOffers [][32]byte
}

// PathReport describes one candidate path after the computation.
type PathReport struct {
	Index   int
	Status  Result
	Quality uint64
	Nodes   []NodeReport
}

// NodeReport is one expanded hop.
type NodeReport struct {
	Offer    bool
	Account  types.AccountID
	Currency types.Currency
	Issuer   types.AccountID
}
