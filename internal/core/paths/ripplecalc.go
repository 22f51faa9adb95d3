// Package paths computes multi-hop payments across trust lines and order
// books.
//
// A payment is settled in rounds. Every round each live path is sized
// against the same checkpoint with a reverse pass, then executed on its
// own sandbox with a forward pass; the increment with the best quality is
// merged into the live ledger. Offers found unusable along the way are
// deleted when the computation ends.
package paths

import (
	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
)

// Calculate computes req against sb. On success the ledger changes are
// left in sb; on failure sb only receives the removal of offers found
// unusable, and nothing at all on an internal failure.
func Calculate(sb *view.Sandbox, req Request, opts Options) *Outcome {
	opts = opts.withDefaults()
	c := newCalc(opts)
	return c.run(sb, req)
}

func validate(req Request, opts Options) Result {
	switch {
	case !req.Deliver.IsPositive() || !req.SendMax.IsPositive():
		return TemBAD_AMOUNT
	case req.Deliver.IsNative() && req.SendMax.IsNative():
		return TemBAD_SEND_XRP
	case req.Sender == req.Receiver && req.Deliver.Currency == req.SendMax.Currency:
		return TemREDUNDANT
	case req.NoDirect && len(req.Paths) == 0:
		return TemRIPPLE_EMPTY
	case len(req.Paths) > opts.MaxPaths:
		return TemBAD_PATH
	}
	return TesSUCCESS
}

func (c *calc) run(sb *view.Sandbox, req Request) *Outcome {
	out := &Outcome{
		Delivered: req.Deliver.ZeroOf(),
		Spent:     req.SendMax.ZeroOf(),
	}
	if r := validate(req, c.opts); r != TesSUCCESS {
		out.Result = r
		return out
	}

	var (
		direct *pathState
		ranked []*pathState
		all    []*pathState
	)
	status := TerNO_LINE
	consider := func(ps *pathState) {
		all = append(all, ps)
		if ps.status == TesSUCCESS {
			status = TesSUCCESS
			return
		}
		c.log.Debug("path dropped", "path", ps.String(), "status", ps.status.String(), "error", ps.err)
		// A missing line only wins when nothing else went wrong.
		if status == TerNO_LINE {
			status = ps.status
		}
	}

	if !req.NoDirect {
		ps := newPathState(sb, len(all), nil, req, c.opts.MaxPathNodes)
		consider(ps)
		if ps.status == TesSUCCESS {
			if ps.hasOffers() {
				ranked = append(ranked, ps)
			} else {
				direct = ps
			}
		}
	}
	for _, elements := range req.Paths {
		ps := newPathState(sb, len(all), elements, req, c.opts.MaxPathNodes)
		consider(ps)
		if ps.status == TesSUCCESS {
			ranked = append(ranked, ps)
		}
	}
	defer func() {
		for _, ps := range all {
			out.Paths = append(out.Paths, ps.report())
		}
	}()

	for _, ps := range all {
		if ps.status.Kind() == KindInternal {
			status = ps.status
		}
	}
	if status != TesSUCCESS {
		out.Result = status
		return out
	}

	live := sb.Child()
	spent, delivered := req.SendMax.ZeroOf(), req.Deliver.ZeroOf()
	var became [][32]byte

	var qualityLimit uint64
	if req.LimitQuality {
		qualityLimit = amount.GetRate(req.Deliver, req.SendMax)
	}

	result := TecPATH_DRY
	finished := false
	phases := [][]*pathState{ranked}
	if direct != nil {
		phases = [][]*pathState{{direct}, ranked}
	}

	for _, phase := range phases {
		for !finished {
			if out.Rounds >= c.opts.MaxRounds {
				c.log.Info("round limit reached", "rounds", out.Rounds)
				finished = true
				break
			}

			var candidates []*pathState
			for _, ps := range phase {
				if ps.quality != 0 {
					candidates = append(candidates, ps)
				}
			}
			if len(candidates) == 0 {
				break
			}
			out.Rounds++
			c.multi = len(candidates) == 1

			var best *pathState
			for _, ps := range candidates {
				ps.inAct, ps.outAct = spent, delivered
				c.pathNext(ps, live)
				c.collectFound(ps)
				if ps.status.Kind() == KindInternal {
					result = ps.status
					finished = true
					break
				}
				if ps.quality == 0 {
					continue
				}
				if req.LimitQuality && ps.quality > qualityLimit {
					continue
				}
				if best == nil || c.better(ps, best) {
					best = ps
				}
			}
			if finished {
				break
			}
			if best == nil {
				break
			}

			best.view.Apply(live)
			best.view = nil
			spent = spent.Add(best.inPass)
			delivered = delivered.Add(best.outPass)
			for src, at := range best.reverse {
				if _, ok := c.source[src]; !ok {
					c.source[src] = at
				}
			}
			became = append(became, best.unfundedBecame...)

			c.log.Debug("increment committed",
				"round", out.Rounds,
				"path", best.index,
				"quality", best.quality,
				"delivered", delivered.String(),
				"spent", spent.String())

			switch cmp := delivered.Compare(req.Deliver); {
			case cmp == 0:
				result = TesSUCCESS
				finished = true
			case cmp > 0:
				c.log.Error("delivered more than requested", "delivered", delivered.String())
				result = TefEXCEPTION
				finished = true
			case !spent.LessThan(req.SendMax):
				finished = true
			}
		}
		if finished {
			break
		}
	}

	if result.Kind() == KindInternal {
		out.Result = result
		return out
	}

	if result != TesSUCCESS {
		switch {
		case !req.Partial:
			result = TecPATH_PARTIAL
		case delivered.IsZero():
			result = TecPATH_DRY
		default:
			result = TesSUCCESS
		}
	}

	if result == TesSUCCESS {
		for _, key := range became {
			if r := c.removeOffer(live, key, out); r != TesSUCCESS {
				out.Result = r
				return out
			}
		}
	} else {
		live.Reset()
		spent, delivered = req.SendMax.ZeroOf(), req.Deliver.ZeroOf()
	}
	for _, key := range c.found {
		if r := c.removeOffer(live, key, out); r != TesSUCCESS {
			out.Result = r
			return out
		}
	}

	live.Apply(sb)
	out.Result = result
	out.Spent = spent
	out.Delivered = delivered
	return out
}

// better reports whether increment a ranks ahead of b.
func (c *calc) better(a, b *pathState) bool {
	if a.quality != b.quality {
		return a.quality < b.quality
	}
	if c.opts.TieBreak == TieBreakQuantity {
		if cmp := a.outPass.Compare(b.outPass); cmp != 0 {
			return cmp > 0
		}
	}
	return a.index < b.index
}

func (c *calc) removeOffer(v *view.Sandbox, key [32]byte, out *Outcome) Result {
	offer, err := view.ReadOffer(v, key)
	if err != nil {
		c.log.Error("reading offer for removal", "error", err)
		return TefINTERNAL
	}
	if offer == nil {
		return TesSUCCESS
	}
	if err := view.DeleteOffer(v, key); err != nil {
		c.log.Error("removing offer", "error", err)
		return TefINTERNAL
	}
	out.RemovedOffers = append(out.RemovedOffers, key)
	return TesSUCCESS
}
