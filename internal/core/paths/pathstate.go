package paths

import (
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// pathState holds one path under incremental application.
type pathState struct {
	index  int
	status Result
	nodes  []*node

	// forward holds the sources of account nodes, found at construction.
	// A source may only fund offers at the node that first mentions it.
	forward sourceMap
	// reverse holds the sources first drawn on during this reverse pass.
	reverse sourceMap

	// offers consumed by this increment, deleted if the payment succeeds
	unfundedBecame [][32]byte
	// offers found unusable by this increment, always deleted
	unfundedFound [][32]byte

	// view is the forward pass sandbox, a child of the round checkpoint.
	view *view.Sandbox

	// quality of the last increment, in/out; 0 once the path is retired
	quality uint64

	inReq   amount.Amount
	inAct   amount.Amount
	inPass  amount.Amount
	outReq  amount.Amount
	outAct  amount.Amount
	outPass amount.Amount

	maxNodes int
	err      error
}

// newPathState expands elements into the node list of a payment from
// sender to receiver. Only entry existence is consulted.
func newPathState(v view.ReadView, index int, elements []Element, req Request, maxNodes int) *pathState {
	ps := &pathState{
		index:    index,
		forward:  make(sourceMap),
		reverse:  make(sourceMap),
		inReq:    req.SendMax,
		outReq:   req.Deliver,
		maxNodes: maxNodes,
	}

	inIssue := req.SendMax.Issue()
	outIssue := req.Deliver.Issue()
	const accountFlags = TypeAccount | TypeCurrency | TypeIssuer

	ps.status = ps.pushNode(v, accountFlags, req.Sender, inIssue.Currency, inIssue.Issuer)
	for _, e := range elements {
		if ps.status != TesSUCCESS {
			break
		}
		ps.status = ps.pushNode(v, e.Type, e.Account, e.Currency, e.Issuer)
	}

	if ps.status == TesSUCCESS && !outIssue.IsXRP() && outIssue.Issuer != req.Receiver {
		back := ps.back()
		if back.currency != outIssue.Currency || back.account != outIssue.Issuer {
			ps.status = ps.pushNode(v, accountFlags, outIssue.Issuer, outIssue.Currency, outIssue.Issuer)
		}
	}
	if ps.status == TesSUCCESS {
		ps.status = ps.pushNode(v, accountFlags, req.Receiver, outIssue.Currency, req.Receiver)
	}

	if ps.status == TesSUCCESS {
		for i, n := range ps.nodes {
			if !n.isAccount() {
				continue
			}
			key := sourceKey{account: n.account, currency: n.currency, issuer: n.issuer}
			if _, dup := ps.forward[key]; dup {
				ps.status = TemBAD_PATH_LOOP
				break
			}
			ps.forward[key] = i
		}
	}

	for _, n := range ps.nodes {
		n.resetAmounts()
	}
	ps.inAct = req.SendMax.ZeroOf()
	ps.outAct = req.Deliver.ZeroOf()
	ps.inPass = ps.inAct
	ps.outPass = ps.outAct
	if ps.status == TesSUCCESS {
		ps.quality = 1
	}
	return ps
}

func (ps *pathState) back() *node {
	if len(ps.nodes) == 0 {
		return &node{}
	}
	return ps.nodes[len(ps.nodes)-1]
}

func (ps *pathState) hasOffers() bool {
	for _, n := range ps.nodes {
		if !n.isAccount() {
			return true
		}
	}
	return false
}

func (ps *pathState) pushNode(v view.ReadView, flags uint8, account types.AccountID, currency types.Currency, issuer types.AccountID) Result {
	first := len(ps.nodes) == 0
	prev := ps.back()

	if flags&^typeValidBits != 0 || flags == 0 {
		return TemBAD_PATH
	}
	if len(ps.nodes) >= ps.maxNodes {
		return TemBAD_PATH
	}

	cur := &node{flags: flags}
	if flags&TypeAccount != 0 {
		cur.account = account
		cur.currency = prev.currency
		if flags&TypeCurrency != 0 {
			cur.currency = currency
		}
		cur.issuer = account
		if flags&TypeIssuer != 0 {
			cur.issuer = issuer
		}
		if cur.currency.IsXRP() {
			cur.issuer = types.AccountID{}
		}

		if !first {
			implied := cur.account
			if cur.currency.IsXRP() {
				implied = types.AccountID{}
			}
			if r := ps.pushImply(v, cur.account, cur.currency, implied); r != TesSUCCESS {
				return r
			}
			if back := ps.back(); back.isAccount() {
				if cur.currency.IsXRP() {
					return TerNO_LINE
				}
				ok, err := v.Exists(keylet.Line(back.account, cur.account, cur.currency))
				if err != nil {
					ps.err = err
					return TefINTERNAL
				}
				if !ok {
					return TerNO_LINE
				}
			}
			if len(ps.nodes) >= ps.maxNodes {
				return TemBAD_PATH
			}
		}
		ps.nodes = append(ps.nodes, cur)
		return TesSUCCESS
	}

	// Offers have no account; they bridge a change in currency, issuer or
	// both.
	cur.currency = prev.currency
	if flags&TypeCurrency != 0 {
		cur.currency = currency
	}
	switch {
	case flags&TypeIssuer != 0:
		cur.issuer = issuer
	case cur.currency.IsXRP():
		cur.issuer = types.AccountID{}
	default:
		cur.issuer = prev.issuer
	}
	if cur.currency.IsXRP() != cur.issuer.IsZero() {
		return TemBAD_PATH
	}

	if prev.isAccount() {
		if r := ps.pushImply(v, types.AccountID{}, prev.currency, prev.issuer); r != TesSUCCESS {
			return r
		}
	}
	in := ps.back()
	if in.issue() == cur.issue() {
		return TemBAD_PATH
	}
	ok, err := bookExists(v, in.issue(), cur.issue())
	if err != nil {
		ps.err = err
		return TefINTERNAL
	}
	if !ok {
		return TemBAD_PATH
	}
	if len(ps.nodes) >= ps.maxNodes {
		return TemBAD_PATH
	}
	ps.nodes = append(ps.nodes, cur)
	return TesSUCCESS
}

// pushImply inserts the hops needed to deliver currency/issuer to account:
// an offer when the currency changes, and the issuer's account when neither
// side of the hop is the issuer.
func (ps *pathState) pushImply(v view.ReadView, account types.AccountID, currency types.Currency, issuer types.AccountID) Result {
	if ps.back().currency != currency {
		r := ps.pushNode(v, TypeCurrency|TypeIssuer, types.AccountID{}, currency, issuer)
		if r != TesSUCCESS {
			return r
		}
	}

	back := ps.back()
	if !currency.IsXRP() && back.account != issuer && account != issuer {
		const accountFlags = TypeAccount | TypeCurrency | TypeIssuer
		return ps.pushNode(v, accountFlags, issuer, currency, issuer)
	}
	return TesSUCCESS
}

func bookExists(v view.ReadView, in, out types.Issue) (bool, error) {
	book := keylet.Book(in, out)
	ok, err := v.Exists(book)
	if err != nil || ok {
		return ok, err
	}
	_, found, err := v.Succ(book.Key, keylet.QualityNext(book.Key))
	return found, err
}

func (ps *pathState) report() PathReport {
	r := PathReport{Index: ps.index, Status: ps.status, Quality: ps.quality}
	for _, n := range ps.nodes {
		r.Nodes = append(r.Nodes, n.report())
	}
	return r
}

func (ps *pathState) String() string {
	s := fmt.Sprintf("path %d:", ps.index)
	for _, n := range ps.nodes {
		if n.isAccount() {
			s += fmt.Sprintf(" %s(%s)", n.account, n.issue())
		} else {
			s += fmt.Sprintf(" [%s]", n.issue())
		}
	}
	return s
}
