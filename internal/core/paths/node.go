package paths

import (
	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// node is one hop of an expanded path. Account nodes move value across
// trust lines; offer nodes convert through an order book into the node's
// currency and issuer.
type node struct {
	flags    uint8
	account  types.AccountID
	currency types.Currency
	issuer   types.AccountID

	transferRate uint32

	// reverse pass
	revRedeem  amount.Amount
	revIssue   amount.Amount
	revDeliver amount.Amount

	// forward pass
	fwdRedeem  amount.Amount
	fwdIssue   amount.Amount
	fwdDeliver amount.Amount

	// output fee rate of the first offer taken this pass
	rateMax uint32

	// book cursor
	tipSet        bool
	directTip     [32]byte
	directEnd     [32]byte
	directAdvance bool
	directRestart bool
	dir           *entries.DirectoryNode
	ofrRate       amount.Amount

	// first directory that supplied an offer in the reverse pass
	firstTip    [32]byte
	hasFirstTip bool

	// offer cursor
	entryAdvance   bool
	entry          int
	dirUsed        bool
	offerIndex     [32]byte
	offer          *entries.Offer
	owner          types.AccountID
	fundsDirty     bool
	offerFunds     amount.Amount
	takerPays      amount.Amount
	takerGets      amount.Amount
	sourceConflict bool
}

func (n *node) isAccount() bool {
	return n.flags&TypeAccount != 0
}

func (n *node) issue() types.Issue {
	return types.Issue{Currency: n.currency, Issuer: n.issuer}
}

func (n *node) resetAmounts() {
	zero := amount.Zero(n.issue())
	n.revRedeem, n.revIssue, n.revDeliver = zero, zero, zero
	n.resetForward()
}

func (n *node) resetForward() {
	zero := amount.Zero(n.issue())
	n.fwdRedeem, n.fwdIssue, n.fwdDeliver = zero, zero, zero
}

// resetCursor rewinds the offer cursor. With restart the walk resumes at
// the first directory the reverse pass drew from, starting at entry 0.
func (n *node) resetCursor(restart bool) {
	n.rateMax = 0
	n.directAdvance = false
	n.directRestart = false
	n.dir = nil
	n.entryAdvance = true
	n.entry = 0
	n.dirUsed = false
	n.offerIndex = [32]byte{}
	n.offer = nil
	n.fundsDirty = false
	n.sourceConflict = false

	if restart && n.hasFirstTip {
		n.tipSet = true
		n.directTip = n.firstTip
		n.directRestart = true
		return
	}
	n.tipSet = false
	n.hasFirstTip = false
}

func (n *node) report() NodeReport {
	return NodeReport{
		Offer:    !n.isAccount(),
		Account:  n.account,
		Currency: n.currency,
		Issuer:   n.issuer,
	}
}

// sourceKey names the funds an offer owner spends: its holdings of one
// currency from one issuer.
type sourceKey struct {
	account  types.AccountID
	currency types.Currency
	issuer   types.AccountID
}

// sourceMap records the node index allowed to draw on each source.
type sourceMap map[sourceKey]int

func unlimited(issue types.Issue) amount.Amount {
	if issue.IsXRP() {
		return amount.NewXRP(-1)
	}
	return amount.NewIssued(-amount.MinMantissa, 0, issue)
}
