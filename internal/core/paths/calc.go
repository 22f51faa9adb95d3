package paths

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

var errMonotonic = errors.New("forward amount exceeds reverse amount")

// calc carries the state shared by every path of one computation.
type calc struct {
	opts Options
	log  *slog.Logger

	// v is the sandbox of the pass being computed.
	v *view.Sandbox
	// multi allows offer walks to cross quality directories; it is set
	// when a single path is live.
	multi bool

	// source is merged from the reverse map of every committed increment.
	source sourceMap

	// found holds offers found unusable in any evaluated increment, in
	// discovery order.
	found     [][32]byte
	foundSeen map[[32]byte]bool

	rateOne uint64
}

func newCalc(opts Options) *calc {
	one := amount.NewIssued(int64(amount.QualityOne), -9, types.Issue{})
	return &calc{
		opts:      opts,
		log:       opts.Logger,
		source:    make(sourceMap),
		foundSeen: make(map[[32]byte]bool),
		rateOne:   amount.GetRate(one, one),
	}
}

func (c *calc) internal(ps *pathState, err error) Result {
	ps.err = err
	c.log.Error("path computation failed", "path", ps.index, "error", err)
	return TefINTERNAL
}

func (c *calc) isFound(ps *pathState, key [32]byte) bool {
	if c.foundSeen[key] {
		return true
	}
	for _, k := range ps.unfundedFound {
		if k == key {
			return true
		}
	}
	return false
}

func (c *calc) markFound(ps *pathState, key [32]byte) {
	if !c.isFound(ps, key) {
		ps.unfundedFound = append(ps.unfundedFound, key)
	}
}

func (c *calc) collectFound(ps *pathState) {
	for _, key := range ps.unfundedFound {
		if !c.foundSeen[key] {
			c.foundSeen[key] = true
			c.found = append(c.found, key)
		}
	}
	ps.unfundedFound = nil
}

// pathNext computes the next increment of ps against checkpoint: a
// reverse pass on a scratch sandbox to size the increment, then a
// forward pass on a fresh sandbox that performs it.
func (c *calc) pathNext(ps *pathState, checkpoint *view.Sandbox) {
	last := len(ps.nodes) - 1

	ps.inPass = ps.inReq.ZeroOf()
	ps.outPass = ps.outReq.ZeroOf()
	ps.unfundedBecame = nil
	ps.reverse = make(sourceMap)
	ps.view = nil
	for _, n := range ps.nodes {
		n.resetAmounts()
		n.resetCursor(false)
	}

	c.v = checkpoint.Child()
	status := c.loadRates(ps)
	for i := last; i >= 0 && status == TesSUCCESS; i-- {
		status = c.nodeRev(ps, i)
	}

	if status == TesSUCCESS {
		for _, n := range ps.nodes {
			n.resetForward()
			n.resetCursor(true)
		}
		c.v = checkpoint.Child()
		for i := 0; i <= last && status == TesSUCCESS; i++ {
			status = c.nodeFwd(ps, i)
		}
	}

	if status == TesSUCCESS {
		if err := ps.checkBounds(); err != nil {
			status = c.internal(ps, err)
		}
	}
	if status == TesSUCCESS && (!ps.inPass.IsPositive() || !ps.outPass.IsPositive()) {
		status = TecPATH_DRY
	}

	ps.status = status
	if status == TesSUCCESS {
		ps.quality = amount.GetRate(ps.outPass, ps.inPass)
		ps.view = c.v
	} else {
		ps.quality = 0
	}
	c.v = nil

	c.log.Debug("path increment",
		"path", ps.index,
		"status", status.String(),
		"quality", ps.quality,
		"in", ps.inPass.String(),
		"out", ps.outPass.String())
}

// checkBounds verifies that no node moves more forward than the reverse
// pass allowed.
func (ps *pathState) checkBounds() error {
	for i, n := range ps.nodes {
		if n.fwdRedeem.GreaterThan(n.revRedeem) ||
			n.fwdIssue.GreaterThan(n.revIssue) ||
			n.fwdDeliver.GreaterThan(n.revDeliver) {
			return fmt.Errorf("node %d: %w", i, errMonotonic)
		}
	}
	return nil
}

// loadRates reads the transfer rate of every node's issuer. An offer node
// reaches into its upstream offer node before that node is visited, so
// all rates are loaded before the reverse pass starts.
func (c *calc) loadRates(ps *pathState) Result {
	for _, n := range ps.nodes {
		rate, err := view.TransferRate(c.v, n.issuer)
		if err != nil {
			return c.internal(ps, err)
		}
		n.transferRate = rate
	}
	return TesSUCCESS
}

func (c *calc) nodeRev(ps *pathState, i int) Result {
	if ps.nodes[i].isAccount() {
		return c.accountRev(ps, i)
	}
	return c.offerRev(ps, i)
}

func (c *calc) nodeFwd(ps *pathState, i int) Result {
	if ps.nodes[i].isAccount() {
		return c.accountFwd(ps, i)
	}
	return c.offerFwd(ps, i)
}

// ripple moves value through one leg of an account node. The upstream
// gives prv at quality qIn and the downstream takes cur at quality qOut;
// prvReq is negative when the upstream is unlimited. rateMax holds the
// rate of the first leg taken by the node.
func (c *calc) ripple(qIn, qOut uint32, prvReq, curReq amount.Amount, prvAct, curAct *amount.Amount, rateMax *uint64) {
	bounded := !prvReq.IsNegative()
	prv := prvReq
	if bounded {
		prv = prvReq.Sub(*prvAct)
		if !prv.IsPositive() {
			return
		}
	}
	cur := curReq.Sub(*curAct)
	if !cur.IsPositive() {
		return
	}

	if qIn >= qOut {
		xfer := cur
		if bounded {
			xfer = amount.Min(prv, cur)
		}
		*prvAct = prvAct.Add(xfer)
		*curAct = curAct.Add(xfer)
		if *rateMax == 0 {
			*rateMax = c.rateOne
		}
		return
	}

	rate := qualityRate(qIn, qOut)
	if !c.multi && *rateMax != 0 && rate > *rateMax {
		return
	}

	curIn := cur.MulRatio(qOut, qIn, true)
	if !bounded || curIn.Compare(prv) <= 0 {
		*curAct = curAct.Add(cur)
		*prvAct = prvAct.Add(curIn)
	} else {
		*curAct = curAct.Add(prv.MulRatio(qIn, qOut, false))
		*prvAct = prvAct.Add(prv)
	}
	if *rateMax == 0 {
		*rateMax = rate
	}
}

// qualityRate is the cost of one unit out of a leg at qIn:qOut.
func qualityRate(qIn, qOut uint32) uint64 {
	in := amount.NewIssued(int64(qOut), -9, types.Issue{})
	out := amount.NewIssued(int64(qIn), -9, types.Issue{})
	return amount.GetRate(out, in)
}

// accountSend moves amt from one account to another. Issued value goes
// across the trust line when either side is the issuer and through the
// issuer otherwise; fees are charged by the node that computes them. For
// native value the zero account is the pool an offer node draws from.
func accountSend(v view.View, from, to types.AccountID, amt amount.Amount) error {
	if amt.IsZero() || from == to {
		return nil
	}
	if amt.IsNative() {
		switch {
		case to.IsZero():
			return view.AdjustXRP(v, from, -amt.Drops())
		case from.IsZero():
			return view.AdjustXRP(v, to, amt.Drops())
		}
		return view.TransferXRP(v, from, to, amt.Drops())
	}

	issuer := amt.Issuer
	if issuer.IsZero() || from == issuer || to == issuer {
		return view.RippleCredit(v, from, to, amt)
	}
	if err := view.RippleCredit(v, from, issuer, amt); err != nil {
		return err
	}
	return view.RippleCredit(v, issuer, to, amt)
}
