package paths

import (
	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// neighbors returns the nodes around i and whether each side is an
// account. The ends of the path count as accounts.
func (ps *pathState) neighbors(i int) (prv, cur, nxt *node, prvAccount, nxtAccount bool) {
	last := len(ps.nodes) - 1
	cur = ps.nodes[i]
	prv = ps.nodes[max(i-1, 0)]
	nxt = ps.nodes[min(i+1, last)]
	prvAccount = i == 0 || prv.isAccount()
	nxtAccount = i == last || nxt.isAccount()
	return
}

// lineTerms reads what the line between cur and prv allows: the IOUs prv
// can redeem to cur and the IOUs cur will still accept from prv.
func (c *calc) lineTerms(curID, prvID types.AccountID, currency types.Currency) (redeem, issue amount.Amount, err error) {
	owed, err := view.Owed(c.v, curID, prvID, currency)
	if err != nil {
		return
	}
	limit, err := view.Limit(c.v, curID, prvID, currency)
	if err != nil {
		return
	}

	redeem = owed.ZeroOf()
	if owed.IsPositive() {
		redeem = owed
	}
	issue = limit
	if owed.IsNegative() {
		issue = limit.Add(owed)
	}
	if issue.IsNegative() {
		issue = issue.ZeroOf()
	}
	return
}

func (c *calc) qualities(i, last int, curID, prvID, nxtID types.AccountID, currency types.Currency) (qIn, qOut uint32, err error) {
	qIn, qOut = amount.QualityOne, amount.QualityOne
	if currency.IsXRP() {
		return
	}
	if i != 0 {
		if qIn, err = view.QualityIn(c.v, curID, prvID, currency); err != nil {
			return
		}
	}
	if i != last {
		qOut, err = view.QualityOut(c.v, curID, nxtID, currency)
	}
	return
}

// accountRev sizes what the upstream of account node i must supply for
// the node to pass on what its downstream asked for.
func (c *calc) accountRev(ps *pathState, i int) Result {
	if i == 0 {
		// The sender has no upstream; the forward pass bounds it.
		return TesSUCCESS
	}

	last := len(ps.nodes) - 1
	prv, cur, nxt, prvAccount, nxtAccount := ps.neighbors(i)
	curID := cur.account
	prvID, nxtID := curID, curID
	if prvAccount {
		prvID = prv.account
	}
	if nxtAccount {
		nxtID = nxt.account
	}
	currency := cur.currency

	qIn, qOut, err := c.qualities(i, last, curID, prvID, nxtID, currency)
	if err != nil {
		return c.internal(ps, err)
	}
	curRate, err := view.TransferRate(c.v, curID)
	if err != nil {
		return c.internal(ps, err)
	}

	var rateMax uint64
	prvDeliverReq := unlimited(cur.issue())

	switch {
	case prvAccount && nxtAccount && i == last:
		// account --> ACCOUNT --> $
		prvRedeemReq, prvIssueReq, err := c.lineTerms(curID, prvID, currency)
		if err != nil {
			return c.internal(ps, err)
		}
		wanted := amount.Min(ps.outReq.Sub(ps.outAct), prvRedeemReq.Add(prvIssueReq))
		wantedAct := wanted.ZeroOf()
		prv.revRedeem = prvRedeemReq.ZeroOf()
		prv.revIssue = prvIssueReq.ZeroOf()

		if prvRedeemReq.IsPositive() && wanted.IsPositive() {
			wantedAct = amount.Min(prvRedeemReq, wanted).WithIssue(wanted.Issue())
			prv.revRedeem = wantedAct.WithIssue(prvRedeemReq.Issue())
			rateMax = c.rateOne
		}
		if wantedAct.LessThan(wanted) && prvIssueReq.IsPositive() {
			c.ripple(qIn, amount.QualityOne, prvIssueReq, wanted, &prv.revIssue, &wantedAct, &rateMax)
		}
		if !wantedAct.IsPositive() {
			return TecPATH_DRY
		}

	case prvAccount && nxtAccount:
		// account --> ACCOUNT --> account
		prvRedeemReq, prvIssueReq, err := c.lineTerms(curID, prvID, currency)
		if err != nil {
			return c.internal(ps, err)
		}
		prv.revRedeem = prvRedeemReq.ZeroOf()
		prv.revIssue = prvIssueReq.ZeroOf()
		curRedeemReq, curIssueReq := cur.revRedeem, cur.revIssue
		curRedeemAct, curIssueAct := curRedeemReq.ZeroOf(), curIssueReq.ZeroOf()

		// redeem (part 1) -> redeem
		if curRedeemReq.IsPositive() && prvRedeemReq.IsPositive() {
			c.ripple(amount.QualityOne, qOut, prvRedeemReq, curRedeemReq, &prv.revRedeem, &curRedeemAct, &rateMax)
		}
		// issue (part 1) -> redeem
		if curRedeemAct.LessThan(curRedeemReq) && !prv.revRedeem.LessThan(prvRedeemReq) {
			c.ripple(qIn, qOut, prvIssueReq, curRedeemReq, &prv.revIssue, &curRedeemAct, &rateMax)
		}
		// redeem (part 2) -> issue
		if curIssueReq.IsPositive() && !curRedeemAct.LessThan(curRedeemReq) && prv.revRedeem.LessThan(prvRedeemReq) {
			c.ripple(amount.QualityOne, curRate, prvRedeemReq, curIssueReq, &prv.revRedeem, &curIssueAct, &rateMax)
		}
		// issue (part 2) -> issue
		if curIssueAct.LessThan(curIssueReq) && !curRedeemAct.LessThan(curRedeemReq) &&
			!prv.revRedeem.LessThan(prvRedeemReq) && prv.revIssue.LessThan(prvIssueReq) {
			c.ripple(qIn, amount.QualityOne, prvIssueReq, curIssueReq, &prv.revIssue, &curIssueAct, &rateMax)
		}

		if curRedeemAct.IsZero() && curIssueAct.IsZero() {
			return TecPATH_DRY
		}
		cur.revRedeem, cur.revIssue = curRedeemAct, curIssueAct

	case prvAccount:
		// account --> ACCOUNT --> offer
		// The node issues to the offer, so everything leaves as deliver.
		prvRedeemReq, prvIssueReq, err := c.lineTerms(curID, prvID, currency)
		if err != nil {
			return c.internal(ps, err)
		}
		prv.revRedeem = prvRedeemReq.ZeroOf()
		prv.revIssue = prvIssueReq.ZeroOf()
		curDeliverReq := cur.revDeliver
		curDeliverAct := curDeliverReq.ZeroOf()

		// redeem -> deliver
		if prvRedeemReq.IsPositive() && curDeliverReq.IsPositive() {
			c.ripple(amount.QualityOne, curRate, prvRedeemReq, curDeliverReq, &prv.revRedeem, &curDeliverAct, &rateMax)
		}
		// issue -> deliver
		if !prv.revRedeem.LessThan(prvRedeemReq) && curDeliverAct.LessThan(curDeliverReq) {
			c.ripple(qIn, amount.QualityOne, prvIssueReq, curDeliverReq, &prv.revIssue, &curDeliverAct, &rateMax)
		}

		if curDeliverAct.IsZero() {
			return TecPATH_DRY
		}
		cur.revDeliver = curDeliverAct

	case nxtAccount && i == last:
		// offer --> ACCOUNT --> $
		wanted := ps.outReq.Sub(ps.outAct)
		wantedAct := wanted.ZeroOf()
		c.ripple(qIn, amount.QualityOne, prvDeliverReq, wanted, &prv.revDeliver, &wantedAct, &rateMax)
		if wantedAct.IsZero() {
			return TecPATH_DRY
		}

	case nxtAccount:
		// offer --> ACCOUNT --> account
		// The offer delivers into its issuer, which redeems or issues on.
		curRedeemReq, curIssueReq := cur.revRedeem, cur.revIssue
		curRedeemAct, curIssueAct := curRedeemReq.ZeroOf(), curIssueReq.ZeroOf()

		// deliver -> redeem
		if curRedeemReq.IsPositive() {
			c.ripple(amount.QualityOne, qOut, prvDeliverReq, curRedeemReq, &prv.revDeliver, &curRedeemAct, &rateMax)
		}
		// deliver -> issue
		if !curRedeemAct.LessThan(curRedeemReq) && curIssueReq.IsPositive() {
			c.ripple(amount.QualityOne, curRate, prvDeliverReq, curIssueReq, &prv.revDeliver, &curIssueAct, &rateMax)
		}

		if curRedeemAct.IsZero() && curIssueAct.IsZero() {
			return TecPATH_DRY
		}
		cur.revRedeem, cur.revIssue = curRedeemAct, curIssueAct

	default:
		// offer --> ACCOUNT --> offer
		curDeliverReq := cur.revDeliver
		curDeliverAct := curDeliverReq.ZeroOf()
		c.ripple(amount.QualityOne, curRate, prvDeliverReq, curDeliverReq, &prv.revDeliver, &curDeliverAct, &rateMax)
		if curDeliverAct.IsZero() {
			return TecPATH_DRY
		}
		cur.revDeliver = curDeliverAct
	}
	return TesSUCCESS
}

// accountFwd moves what the upstream of account node i actually sends and
// works out what the node passes on.
func (c *calc) accountFwd(ps *pathState, i int) Result {
	last := len(ps.nodes) - 1
	prv, cur, nxt, prvAccount, nxtAccount := ps.neighbors(i)
	curID := cur.account
	prvID, nxtID := curID, curID
	if prvAccount {
		prvID = prv.account
	}
	if nxtAccount {
		nxtID = nxt.account
	}
	currency := cur.currency

	qIn, qOut, err := c.qualities(i, last, curID, prvID, nxtID, currency)
	if err != nil {
		return c.internal(ps, err)
	}
	curRate, err := view.TransferRate(c.v, curID)
	if err != nil {
		return c.internal(ps, err)
	}
	var rateMax uint64

	switch {
	case i == 0 && nxtAccount:
		// ^ --> ACCOUNT --> account
		sendMax := ps.inReq.Sub(ps.inAct)
		cur.fwdRedeem = cur.revRedeem.ZeroOf()
		if cur.revRedeem.IsPositive() {
			cur.fwdRedeem = amount.Min(cur.revRedeem, sendMax).WithIssue(cur.revRedeem.Issue())
		}
		pass := cur.fwdRedeem.WithIssue(sendMax.Issue())
		cur.fwdIssue = cur.revIssue.ZeroOf()
		if pass.LessThan(sendMax) && cur.revIssue.IsPositive() {
			cur.fwdIssue = amount.Min(sendMax.Sub(pass), cur.revIssue).WithIssue(cur.revIssue.Issue())
		}
		ps.inPass = pass.Add(cur.fwdIssue.WithIssue(sendMax.Issue()))

	case i == 0:
		// ^ --> ACCOUNT --> offer
		// Native value leaves when the offer takes it.
		sendMax := ps.inReq.Sub(ps.inAct)
		deliver := amount.Min(cur.revDeliver, sendMax.WithIssue(cur.issue()))
		if cur.currency.IsXRP() {
			holds, err := view.AccountHolds(c.v, curID, types.XRPIssue())
			if err != nil {
				return c.internal(ps, err)
			}
			deliver = amount.Min(deliver, holds)
			if deliver.IsNegative() {
				deliver = deliver.ZeroOf()
			}
		}
		cur.fwdDeliver = deliver
		ps.inPass = deliver.WithIssue(ps.inReq.Issue())

	case prvAccount && i == last:
		// account --> ACCOUNT --> $
		// Take everything sent; value credited as issue is discounted by
		// quality in.
		credited := prv.fwdIssue
		if qIn < amount.QualityOne {
			credited = credited.MulRatio(qIn, amount.QualityOne, false)
		}
		ps.outPass = prv.fwdRedeem.WithIssue(ps.outReq.Issue()).Add(credited)
		if err := view.RippleCredit(c.v, prvID, curID, prv.fwdRedeem.Add(prv.fwdIssue)); err != nil {
			return c.internal(ps, err)
		}

	case prvAccount && nxtAccount:
		// account --> ACCOUNT --> account
		prvRedeemReq, prvIssueReq := prv.fwdRedeem, prv.fwdIssue
		prvRedeemAct, prvIssueAct := prvRedeemReq.ZeroOf(), prvIssueReq.ZeroOf()
		curRedeemReq, curIssueReq := cur.revRedeem, cur.revIssue
		cur.fwdRedeem, cur.fwdIssue = curRedeemReq.ZeroOf(), curIssueReq.ZeroOf()

		// redeem (part 1) -> redeem
		if prvRedeemReq.IsPositive() && curRedeemReq.IsPositive() {
			c.ripple(amount.QualityOne, qOut, prvRedeemReq, curRedeemReq, &prvRedeemAct, &cur.fwdRedeem, &rateMax)
		}
		// issue (part 1) -> redeem
		if prvIssueAct.LessThan(prvIssueReq) && cur.fwdRedeem.LessThan(curRedeemReq) {
			c.ripple(qIn, qOut, prvIssueReq, curRedeemReq, &prvIssueAct, &cur.fwdRedeem, &rateMax)
		}
		// redeem (part 2) -> issue
		if prvRedeemAct.LessThan(prvRedeemReq) && !cur.fwdRedeem.LessThan(curRedeemReq) && curIssueReq.IsPositive() {
			c.ripple(amount.QualityOne, curRate, prvRedeemReq, curIssueReq, &prvRedeemAct, &cur.fwdIssue, &rateMax)
		}
		// issue (part 2) -> issue
		if prvIssueAct.LessThan(prvIssueReq) && !cur.fwdRedeem.LessThan(curRedeemReq) {
			c.ripple(qIn, amount.QualityOne, prvIssueReq, curIssueReq, &prvIssueAct, &cur.fwdIssue, &rateMax)
		}

		if err := view.RippleCredit(c.v, prvID, curID, prvRedeemReq.Add(prvIssueReq)); err != nil {
			return c.internal(ps, err)
		}

	case prvAccount:
		// account --> ACCOUNT --> offer
		// The node keeps what it receives until the offer draws on it.
		prvRedeemReq, prvIssueReq := prv.fwdRedeem, prv.fwdIssue
		prvRedeemAct, prvIssueAct := prvRedeemReq.ZeroOf(), prvIssueReq.ZeroOf()
		cur.fwdDeliver = cur.revDeliver.ZeroOf()

		// redeem -> deliver
		if prvRedeemReq.IsPositive() {
			c.ripple(amount.QualityOne, curRate, prvRedeemReq, cur.revDeliver, &prvRedeemAct, &cur.fwdDeliver, &rateMax)
		}
		// issue -> deliver
		if !prvRedeemAct.LessThan(prvRedeemReq) && prvIssueReq.IsPositive() {
			c.ripple(qIn, amount.QualityOne, prvIssueReq, cur.revDeliver, &prvIssueAct, &cur.fwdDeliver, &rateMax)
		}

		if err := view.RippleCredit(c.v, prvID, curID, prvRedeemReq.Add(prvIssueReq)); err != nil {
			return c.internal(ps, err)
		}

	case nxtAccount && i == last:
		// offer --> ACCOUNT --> $
		// The offer already paid this account.
		ps.outPass = prv.fwdDeliver.WithIssue(ps.outReq.Issue())

	case nxtAccount:
		// offer --> ACCOUNT --> account
		prvDeliverReq := prv.fwdDeliver
		prvDeliverAct := prvDeliverReq.ZeroOf()
		curRedeemReq, curIssueReq := cur.revRedeem, cur.revIssue
		cur.fwdRedeem, cur.fwdIssue = curRedeemReq.ZeroOf(), curIssueReq.ZeroOf()

		// deliver -> redeem
		if prvDeliverReq.IsPositive() && curRedeemReq.IsPositive() {
			c.ripple(amount.QualityOne, qOut, prvDeliverReq, curRedeemReq, &prvDeliverAct, &cur.fwdRedeem, &rateMax)
		}
		// deliver -> issue
		if prvDeliverAct.LessThan(prvDeliverReq) && !cur.fwdRedeem.LessThan(curRedeemReq) && curIssueReq.IsPositive() {
			c.ripple(amount.QualityOne, curRate, prvDeliverReq, curIssueReq, &prvDeliverAct, &cur.fwdIssue, &rateMax)
		}

	default:
		// offer --> ACCOUNT --> offer
		prvDeliverAct := prv.fwdDeliver.ZeroOf()
		cur.fwdDeliver = cur.revDeliver.ZeroOf()
		c.ripple(amount.QualityOne, curRate, prv.fwdDeliver, cur.revDeliver, &prvDeliverAct, &cur.fwdDeliver, &rateMax)
	}
	return TesSUCCESS
}
