package paths

import (
	"bytes"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLedger builds small ledgers by account name.
type testLedger struct {
	t   *testing.T
	mem *view.MemoryLedger
	sb  *view.Sandbox
	ids map[string]types.AccountID
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	mem := view.NewMemoryLedger()
	return &testLedger{t: t, mem: mem, sb: view.NewSandbox(mem), ids: make(map[string]types.AccountID)}
}

func (l *testLedger) id(name string) types.AccountID {
	l.t.Helper()
	if id, ok := l.ids[name]; ok {
		return id
	}
	id, err := types.AccountFromName(name)
	require.NoError(l.t, err)
	l.ids[name] = id
	return id
}

// account creates name with drops of XRP and an optional transfer rate.
func (l *testLedger) account(name string, drops int64, rate uint32) types.AccountID {
	l.t.Helper()
	id := l.id(name)
	require.NoError(l.t, view.WriteAccount(l.sb, &entries.AccountRoot{Account: id, Balance: drops, TransferRate: rate}))
	return id
}

func (l *testLedger) issue(currency, issuer string) types.Issue {
	return types.NewIssue(types.MustCurrency(currency), l.id(issuer))
}

func (l *testLedger) iou(value, currency, issuer string) amount.Amount {
	return amount.MustParse(value, l.issue(currency, issuer))
}

// trust lets holder hold up to limit of issuer's IOUs.
func (l *testLedger) trust(holder, issuer, currency, limit string) {
	l.t.Helper()
	cur := types.MustCurrency(currency)
	h, i := l.id(holder), l.id(issuer)
	line, err := view.ReadLine(l.sb, h, i, cur)
	require.NoError(l.t, err)
	lim := amount.MustParse(limit, types.NewIssue(cur, h))
	if line == nil {
		line = entries.NewRippleState(h, i, cur, lim, amount.Zero(types.NewIssue(cur, i)))
	} else if line.IsLow(h) {
		line.LowLimit = lim.WithIssue(line.LowLimit.Issue())
	} else {
		line.HighLimit = lim.WithIssue(line.HighLimit.Issue())
	}
	require.NoError(l.t, view.WriteLine(l.sb, line))
}

// qualityIn sets the quality holder applies to value arriving from issuer.
func (l *testLedger) qualityIn(holder, issuer, currency string, q uint32) {
	l.t.Helper()
	h, i := l.id(holder), l.id(issuer)
	line, err := view.ReadLine(l.sb, h, i, types.MustCurrency(currency))
	require.NoError(l.t, err)
	require.NotNil(l.t, line)
	if line.IsLow(h) {
		line.LowQualityIn = q
	} else {
		line.HighQualityIn = q
	}
	require.NoError(l.t, view.WriteLine(l.sb, line))
}

// fund has issuer send value of its IOUs to holder.
func (l *testLedger) fund(holder, issuer, currency, value string) {
	l.t.Helper()
	require.NoError(l.t, view.RippleCredit(l.sb, l.id(issuer), l.id(holder), l.iou(value, currency, issuer)))
}

func (l *testLedger) offer(owner string, seq uint32, pays, gets amount.Amount) [32]byte {
	l.t.Helper()
	o := &entries.Offer{Account: l.id(owner), Sequence: seq, TakerPays: pays, TakerGets: gets}
	require.NoError(l.t, view.PlaceOffer(l.sb, o))
	return keylet.Offer(o.Account, o.Sequence).Key
}

func (l *testLedger) readOffer(key [32]byte) *entries.Offer {
	l.t.Helper()
	o, err := view.ReadOffer(l.sb, key)
	require.NoError(l.t, err)
	return o
}

func (l *testLedger) holds(name string, issue types.Issue) amount.Amount {
	l.t.Helper()
	a, err := view.AccountHolds(l.sb, l.id(name), issue)
	require.NoError(l.t, err)
	return a
}

func (l *testLedger) drops(name string) int64 {
	l.t.Helper()
	acct, err := view.ReadAccount(l.sb, l.id(name))
	require.NoError(l.t, err)
	require.NotNil(l.t, acct)
	return acct.Balance
}

// snapshot returns every entry after committing the sandbox.
func (l *testLedger) snapshot() map[[32]byte][]byte {
	l.t.Helper()
	require.NoError(l.t, l.sb.ApplyToView())
	out := make(map[[32]byte][]byte)
	require.NoError(l.t, l.mem.ForEach(func(key [32]byte, data []byte) bool {
		out[key] = bytes.Clone(data)
		return true
	}))
	l.sb = view.NewSandbox(l.mem)
	return out
}

func assertAmount(t *testing.T, want string, got amount.Amount) {
	t.Helper()
	expected := amount.MustParse(want, got.Issue())
	assert.Zerof(t, got.Compare(expected), "want %s, got %s", want, got.Value())
}
