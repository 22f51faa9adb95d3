package paths

import (
	"errors"
	"fmt"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/types"
)

var (
	errOffLedger      = errors.New("offer walk ran off the book")
	errBadOffer       = errors.New("offer with non-positive amounts")
	errOfferUnderflow = errors.New("offer amounts would go negative")
	errOfferLoops     = errors.New("too many offers visited")
	errNoDirectory    = errors.New("book directory missing")
)

// advance moves the cursor of offer node i to the next usable offer, or
// leaves it unchanged when the current offer is still usable. When the
// reverse pass runs out of offers the node's offer is cleared.
func (c *calc) advance(ps *pathState, i int, reverse bool) Result {
	prv, cur := ps.nodes[i-1], ps.nodes[i]

	for loops := 0; ; loops++ {
		if loops > c.opts.MaxOfferLoops {
			return c.internal(ps, errOfferLoops)
		}

		dirDirty := false
		switch {
		case !cur.tipSet:
			book := keylet.Book(prv.issue(), cur.issue())
			cur.tipSet = true
			cur.directTip = book.Key
			cur.directEnd = keylet.QualityNext(book.Key)
			dir, err := view.ReadDirectory(c.v, cur.directTip)
			if err != nil {
				return c.internal(ps, err)
			}
			cur.dir = dir
			cur.directAdvance = dir == nil
			dirDirty = true

		case cur.directRestart:
			cur.directRestart = false
			dir, err := view.ReadDirectory(c.v, cur.directTip)
			if err != nil {
				return c.internal(ps, err)
			}
			cur.dir = dir
			cur.directAdvance = dir == nil
			dirDirty = true

		case cur.directAdvance:
			cur.directAdvance = false
			next, ok, err := c.v.Succ(cur.directTip, cur.directEnd)
			if err != nil {
				return c.internal(ps, err)
			}
			if !ok {
				cur.offer = nil
				cur.offerIndex = [32]byte{}
				cur.entryAdvance = true
				if reverse {
					return TesSUCCESS
				}
				return c.internal(ps, errOffLedger)
			}
			dir, err := view.ReadDirectory(c.v, next)
			if err != nil {
				return c.internal(ps, err)
			}
			if dir == nil {
				return c.internal(ps, fmt.Errorf("%w: %x", errNoDirectory, next[:8]))
			}
			cur.directTip = next
			cur.dir = dir
			dirDirty = true
		}

		if dirDirty {
			cur.ofrRate = amount.FromRate(keylet.GetQuality(cur.directTip))
			cur.entry = 0
			cur.entryAdvance = true
			cur.dirUsed = false
			if cur.directAdvance {
				continue
			}
		}

		if !cur.entryAdvance {
			if cur.fundsDirty {
				if r := c.refreshOffer(ps, cur); r != TesSUCCESS {
					return r
				}
			}
			return TesSUCCESS
		}

		if cur.dir == nil || cur.entry >= len(cur.dir.Indexes) {
			// Directory exhausted. A single-quality walk stays on the
			// first directory that supplied an offer.
			if c.multi || !cur.dirUsed {
				cur.directAdvance = true
				continue
			}
			cur.offer = nil
			cur.offerIndex = [32]byte{}
			if reverse {
				return TesSUCCESS
			}
			return c.internal(ps, errOffLedger)
		}

		key := cur.dir.Indexes[cur.entry]
		cur.entry++

		offer, err := view.ReadOffer(c.v, key)
		if err != nil {
			return c.internal(ps, err)
		}
		if offer == nil {
			c.log.Warn("book directory names a missing offer", "offer", fmt.Sprintf("%x", key[:8]))
			c.markFound(ps, key)
			continue
		}
		if offer.Expired(c.opts.CloseTime) {
			c.markFound(ps, key)
			continue
		}
		if !offer.TakerPays.IsPositive() || !offer.TakerGets.IsPositive() {
			if reverse {
				c.markFound(ps, key)
				continue
			}
			if c.isFound(ps, key) {
				continue
			}
			return c.internal(ps, errBadOffer)
		}

		src := sourceKey{account: offer.Account, currency: cur.currency, issuer: cur.issuer}
		if at, ok := ps.forward[src]; ok && at != i {
			cur.sourceConflict = true
			continue
		}
		atReverse, inReverse := ps.reverse[src]
		if inReverse && atReverse != i {
			cur.sourceConflict = true
			continue
		}
		atPast, inPast := c.source[src]
		if inPast && atPast != i {
			cur.sourceConflict = true
			continue
		}

		funds, err := view.AccountFunds(c.v, offer.Account, offer.TakerGets)
		if err != nil {
			return c.internal(ps, err)
		}
		if !funds.IsPositive() {
			if reverse && !inReverse && !inPast {
				c.markFound(ps, key)
			}
			continue
		}

		if reverse && !inReverse && !inPast {
			ps.reverse[src] = i
		}

		cur.offerIndex = key
		cur.offer = offer
		cur.owner = offer.Account
		cur.takerPays = offer.TakerPays
		cur.takerGets = offer.TakerGets
		cur.offerFunds = funds
		cur.fundsDirty = false
		cur.entryAdvance = false
		cur.dirUsed = true
		if reverse && !cur.hasFirstTip {
			cur.firstTip = cur.directTip
			cur.hasFirstTip = true
		}
		return TesSUCCESS
	}
}

func (c *calc) refreshOffer(ps *pathState, cur *node) Result {
	offer, err := view.ReadOffer(c.v, cur.offerIndex)
	if err != nil {
		return c.internal(ps, err)
	}
	if offer == nil {
		return c.internal(ps, fmt.Errorf("%w: offer %x", view.ErrEntryNotFound, cur.offerIndex[:8]))
	}
	funds, err := view.AccountFunds(c.v, offer.Account, offer.TakerGets)
	if err != nil {
		return c.internal(ps, err)
	}
	cur.offer = offer
	cur.takerPays = offer.TakerPays
	cur.takerGets = offer.TakerGets
	cur.offerFunds = funds
	cur.fundsDirty = false
	return TesSUCCESS
}

// offerIn is the input the current offer wants for out, rounded up and
// never more than the offer pays.
func offerIn(cur *node, out amount.Amount) amount.Amount {
	if !out.LessThan(cur.takerGets) {
		return cur.takerPays
	}
	in := amount.Mul(out, cur.ofrRate, cur.takerPays.Issue(), true)
	return amount.Min(in, cur.takerPays)
}

// offerOut is the output the current offer gives for in.
func offerOut(cur *node, in amount.Amount) amount.Amount {
	if !in.LessThan(cur.takerPays) {
		return cur.takerGets
	}
	out := amount.Div(in, cur.ofrRate, cur.takerGets.Issue(), true)
	return amount.Min(out, cur.takerGets)
}

func (c *calc) writeOffer(cur *node, outPass, inPass amount.Amount) error {
	gets := cur.takerGets.Sub(outPass)
	pays := cur.takerPays.Sub(inPass)
	if gets.IsNegative() || pays.IsNegative() {
		return errOfferUnderflow
	}
	offer := *cur.offer
	offer.TakerGets = gets
	offer.TakerPays = pays
	if err := view.WriteOffer(c.v, &offer); err != nil {
		return err
	}
	cur.offer = &offer
	cur.takerGets = gets
	cur.takerPays = pays
	return nil
}

func (c *calc) offerRev(ps *pathState, i int) Result {
	nxt := ps.nodes[i+1]
	if !nxt.isAccount() {
		// The next offer node already sized this one.
		return TesSUCCESS
	}
	cur := ps.nodes[i]
	var act amount.Amount
	r := c.deliverRev(ps, i, nxt.account, cur.revDeliver, &act)
	if r == TesSUCCESS {
		cur.revDeliver = act
	}
	return r
}

// deliverRev takes offers at node i until outReq is delivered to
// outAccount or the book is exhausted, charging the input to the previous
// node's reverse deliver.
func (c *calc) deliverRev(ps *pathState, i int, outAccount types.AccountID, outReq amount.Amount, outAct *amount.Amount) Result {
	prv, cur := ps.nodes[i-1], ps.nodes[i]
	*outAct = outReq.ZeroOf()

	for loops := 0; outAct.LessThan(outReq); loops++ {
		if loops > c.opts.MaxOfferLoops {
			return c.internal(ps, errOfferLoops)
		}
		if r := c.advance(ps, i, true); r != TesSUCCESS {
			return r
		}
		if cur.offer == nil {
			break
		}

		// The owner pays the output fee unless either side is the issuer.
		outFeeRate := amount.QualityOne
		if cur.owner != cur.issuer && outAccount != cur.issuer {
			outFeeRate = cur.transferRate
		}
		if cur.rateMax == 0 || outFeeRate < cur.rateMax {
			cur.rateMax = outFeeRate
		}
		if outFeeRate > cur.rateMax {
			// Offers with a worse fee wait for a later increment.
			break
		}

		outPassReq := amount.Min(amount.Min(cur.offerFunds, cur.takerGets), outReq.Sub(*outAct).WithIssue(cur.takerGets.Issue()))
		outPassAct := outPassReq
		outPlusFees := outPassAct.MulRatio(outFeeRate, amount.QualityOne, false)
		if outPlusFees.GreaterThan(cur.offerFunds) {
			outPlusFees = cur.offerFunds
			outPassAct = amount.Min(outPassReq, outPlusFees.MulRatio(amount.QualityOne, outFeeRate, true))
		}

		inPassReq := offerIn(cur, outPassAct)
		if !inPassReq.IsPositive() {
			break
		}

		var inPassAct amount.Amount
		if prv.isAccount() {
			// The previous node is the input issuer and issues on demand.
			inPassAct = inPassReq
		} else {
			r := c.deliverRev(ps, i-1, cur.owner, inPassReq, &inPassAct)
			if r.dry() {
				break
			}
			if r != TesSUCCESS {
				return r
			}
		}
		if !inPassAct.IsPositive() {
			break
		}

		if inPassAct.LessThan(inPassReq) {
			outPassAct = amount.Min(outPassReq, offerOut(cur, inPassAct))
			outPlusFees = amount.Min(cur.offerFunds, outPassAct.MulRatio(outFeeRate, amount.QualityOne, true))
		}

		// Tentative: the debit only limits the rest of the reverse pass.
		cur.fundsDirty = true
		if err := accountSend(c.v, cur.owner, cur.issuer, outPlusFees); err != nil {
			return c.internal(ps, err)
		}
		consumed := !outPassAct.LessThan(cur.takerGets)
		drained := !outPlusFees.LessThan(cur.offerFunds)
		if err := c.writeOffer(cur, outPassAct, inPassAct); err != nil {
			return c.internal(ps, err)
		}
		if consumed || drained {
			cur.entryAdvance = true
		}

		*outAct = outAct.Add(outPassAct.WithIssue(outAct.Issue()))
		prv.revDeliver = prv.revDeliver.Add(inPassAct.WithIssue(prv.revDeliver.Issue()))
	}

	if outAct.IsZero() {
		if cur.sourceConflict {
			return TecSOURCE_CONFLICT
		}
		return TecPATH_DRY
	}
	return TesSUCCESS
}

func (c *calc) offerFwd(ps *pathState, i int) Result {
	prv := ps.nodes[i-1]
	if !prv.isAccount() {
		// The previous offer node already delivered into this one.
		return TesSUCCESS
	}
	var inAct, inFees amount.Amount
	r := c.deliverFwd(ps, i, prv.account, prv.fwdDeliver, &inAct, &inFees)
	if r == TesSUCCESS && inAct.Add(inFees).LessThan(prv.fwdDeliver) {
		c.log.Debug("offer node left input undelivered",
			"path", ps.index,
			"node", i,
			"want", prv.fwdDeliver.String(),
			"took", inAct.Add(inFees).String())
	}
	return r
}

// deliverFwd feeds inReq from inAccount into the offers of node i and
// sends their output on: to the next account, or into the next offer
// node. When the input comes out of an upstream offer, inReq is what that
// offer delivers and its owner pays the transfer fee on top; otherwise
// inReq covers the fees as well.
func (c *calc) deliverFwd(ps *pathState, i int, inAccount types.AccountID, inReq amount.Amount, inAct, inFees *amount.Amount) Result {
	prv, cur, nxt := ps.nodes[i-1], ps.nodes[i], ps.nodes[i+1]
	fromOffer := !prv.isAccount()
	*inAct = inReq.ZeroOf()
	*inFees = inReq.ZeroOf()

	taken := func() amount.Amount {
		if fromOffer {
			return *inAct
		}
		return inAct.Add(*inFees)
	}

	for loops := 0; taken().LessThan(inReq); loops++ {
		if loops > c.opts.MaxOfferLoops {
			return c.internal(ps, errOfferLoops)
		}
		if r := c.advance(ps, i, false); r != TesSUCCESS {
			return r
		}
		if cur.offer == nil {
			return c.internal(ps, errOffLedger)
		}

		inFeeRate := amount.QualityOne
		if !prv.currency.IsXRP() && inAccount != prv.issuer && cur.owner != prv.issuer {
			inFeeRate = prv.transferRate
		}

		outFunded := amount.Min(cur.offerFunds, cur.takerGets)
		inFunded := offerIn(cur, outFunded)
		remaining := inReq.Sub(taken()).WithIssue(inFunded.Issue())

		var inPassAct, inPassFeesMax amount.Amount
		if fromOffer {
			inPassAct = amount.Min(cur.takerPays, amount.Min(inFunded, remaining))
			var payerFunds amount.Amount
			if inFeeRate != amount.QualityOne {
				funds, err := view.AccountFunds(c.v, inAccount, remaining)
				if err != nil {
					return c.internal(ps, err)
				}
				if funds.IsNegative() {
					funds = funds.ZeroOf()
				}
				payerFunds = funds.WithIssue(inPassAct.Issue())
				inPassAct = amount.Min(inPassAct, payerFunds.MulRatio(amount.QualityOne, inFeeRate, false))
			}
			inPassFeesMax = inPassAct.MulRatio(inFeeRate, amount.QualityOne, true).Sub(inPassAct)
			if inFeeRate != amount.QualityOne {
				inPassFeesMax = amount.Min(inPassFeesMax, payerFunds.Sub(inPassAct))
			}
		} else {
			inTotal := inFunded.MulRatio(inFeeRate, amount.QualityOne, true)
			inSum := amount.Min(inTotal, remaining)
			inPassAct = amount.Min(cur.takerPays, amount.Min(inSum, inSum.MulRatio(amount.QualityOne, inFeeRate, true)))
			inPassFeesMax = inSum.Sub(inPassAct)
		}
		outPassMax := amount.Min(outFunded, offerOut(cur, inPassAct))

		var outPassAct, inPassFees amount.Amount
		outPassFees := outPassMax.ZeroOf()
		short := false
		if nxt.isAccount() {
			outPassAct = outPassMax
			inPassFees = inPassFeesMax
			if err := accountSend(c.v, cur.owner, nxt.account, outPassAct); err != nil {
				return c.internal(ps, err)
			}
		} else {
			// The next offer node takes the output straight from the
			// owner and charges the owner any fee.
			if r := c.deliverFwd(ps, i+1, cur.owner, outPassMax, &outPassAct, &outPassFees); r != TesSUCCESS {
				return r
			}
			if outPassAct.Compare(outPassMax) == 0 {
				inPassFees = inPassFeesMax
			} else {
				// The owner could not fund the fee on all of it.
				short = true
				inPassAct = offerIn(cur, outPassAct)
				fees := inPassAct.MulRatio(inFeeRate, amount.QualityOne, true).Sub(inPassAct)
				inPassFees = amount.Min(inPassFeesMax, fees)
			}
		}

		if err := accountSend(c.v, inAccount, cur.owner, inPassAct); err != nil {
			return c.internal(ps, err)
		}
		if inPassFees.IsPositive() {
			if err := accountSend(c.v, inAccount, prv.issuer, inPassFees); err != nil {
				return c.internal(ps, err)
			}
		}

		drained := outPassAct.Compare(outFunded) == 0 ||
			!outPassAct.Add(outPassFees.WithIssue(outPassAct.Issue())).LessThan(cur.offerFunds)
		if err := c.writeOffer(cur, outPassAct, inPassAct); err != nil {
			return c.internal(ps, err)
		}
		if drained || cur.takerGets.IsZero() {
			cur.entryAdvance = true
			ps.unfundedBecame = append(ps.unfundedBecame, cur.offerIndex)
		} else {
			cur.fundsDirty = true
		}

		*inAct = inAct.Add(inPassAct.WithIssue(inAct.Issue()))
		*inFees = inFees.Add(inPassFees.WithIssue(inFees.Issue()))
		cur.fwdDeliver = amount.Min(cur.fwdDeliver.Add(outPassAct.WithIssue(cur.fwdDeliver.Issue())), cur.revDeliver)

		if short || (!inPassAct.IsPositive() && !outPassAct.IsPositive()) {
			// What the offer could not pass on stays with the input issuer.
			break
		}
	}
	return TesSUCCESS
}
