package settle

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/LeJamon/ripplecalc/internal/feed"
	"github.com/LeJamon/ripplecalc/internal/fixture"
	"github.com/LeJamon/ripplecalc/internal/metrics"
	"github.com/LeJamon/ripplecalc/internal/storage/journal"
	"github.com/LeJamon/ripplecalc/internal/storage/ledgerstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookLedger = `
accounts:
  - {name: alice, drops: 1000000000}
  - {name: bob, drops: 1000000000}
  - {name: maker, drops: 1000000000}
  - {name: broke, drops: 1000000000}
  - {name: gx, drops: 1000000000}
  - {name: gy, drops: 1000000000, transfer_rate: "1.01"}
lines:
  - {holder: alice, issuer: gx, currency: XXX, limit: "1000", balance: "100"}
  - {holder: maker, issuer: gx, currency: XXX, limit: "1000"}
  - {holder: maker, issuer: gy, currency: YYY, limit: "1000", balance: "100"}
  - {holder: bob, issuer: gy, currency: YYY, limit: "1000"}
  - {holder: broke, issuer: gy, currency: YYY, limit: "1000"}
offers:
  - {owner: maker, sequence: 1, pays: 110/XXX/gx, gets: 100/YYY/gy}
  - {owner: broke, sequence: 1, pays: 50/XXX/gx, gets: 100/YYY/gy}
`

type harness struct {
	store   *ledgerstore.Store
	journal journal.Journal
	svc     *Service
	r       *fixture.Resolver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := ledgerstore.Open(ledgerstore.Config{Backend: ledgerstore.BackendMemory, Compression: "lz4"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	l, err := fixture.ParseLedger([]byte(bookLedger))
	require.NoError(t, err)
	r := fixture.NewResolver()
	seed := view.NewSandbox(store)
	require.NoError(t, l.Apply(seed, r))
	require.NoError(t, store.Atomic(ctx, seed.ApplyToView))

	j, err := journal.Open(ctx, journal.Config{
		Driver: journal.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "journal.db"),
	}, nil)
	require.NoError(t, err)

	svc := New(Config{
		Ledger:  store,
		Journal: j,
		Metrics: metrics.New(),
		Feed:    feed.NewHub(nil),
	})
	t.Cleanup(func() { _ = svc.Close() })
	return &harness{store: store, journal: j, svc: svc, r: r}
}

func (h *harness) request(t *testing.T, deliver string) paths.Request {
	t.Helper()
	p := fixture.Payment{Sender: "alice", Receiver: "bob", Deliver: deliver + "/YYY/gy", SendMax: "100/XXX/gx"}
	req, err := p.Request(h.r)
	require.NoError(t, err)
	return req
}

func (h *harness) holds(t *testing.T, name, currency, issuer string) string {
	t.Helper()
	account, err := h.r.Account(name)
	require.NoError(t, err)
	issue, err := h.r.Issue(currency, issuer)
	require.NoError(t, err)
	a, err := view.AccountHolds(h.store, account, issue)
	require.NoError(t, err)
	return a.Value()
}

func (h *harness) offerExists(t *testing.T, owner string) bool {
	t.Helper()
	id, err := h.r.Account(owner)
	require.NoError(t, err)
	ok, err := h.store.Exists(keylet.Offer(id, 1))
	require.NoError(t, err)
	return ok
}

func TestSettleCommits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s, err := h.svc.Settle(ctx, h.request(t, "50"), true)
	require.NoError(t, err)
	assert.Equal(t, paths.TesSUCCESS, s.Outcome.Result)
	assert.True(t, s.Record.Committed)
	assert.Equal(t, "tesSUCCESS", s.Record.Result)

	assert.Equal(t, "50", h.holds(t, "bob", "YYY", "gy"))
	assert.Equal(t, "44.45", h.holds(t, "alice", "XXX", "gx"))
	assert.False(t, h.offerExists(t, "broke"))
	assert.True(t, h.offerExists(t, "maker"))

	got, err := h.journal.Get(ctx, s.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Record.Delivered, got.Delivered)
	assert.True(t, got.Committed)
}

func TestSettleDryRun(t *testing.T) {
	h := newHarness(t)

	s, err := h.svc.Settle(context.Background(), h.request(t, "50"), false)
	require.NoError(t, err)
	assert.Equal(t, paths.TesSUCCESS, s.Outcome.Result)
	assert.False(t, s.Record.Committed)

	assert.Equal(t, "0", h.holds(t, "bob", "YYY", "gy"))
	assert.True(t, h.offerExists(t, "broke"))
}

func TestSettleFailureKeepsOfferCleanup(t *testing.T) {
	h := newHarness(t)

	s, err := h.svc.Settle(context.Background(), h.request(t, "500"), true)
	require.NoError(t, err)
	assert.Equal(t, paths.TecPATH_PARTIAL, s.Outcome.Result)
	assert.True(t, s.Record.Committed)

	assert.False(t, h.offerExists(t, "broke"))
	assert.Equal(t, "100", h.holds(t, "alice", "XXX", "gx"))
	assert.Equal(t, "0", h.holds(t, "bob", "YYY", "gy"))
}

func TestSettleMalformed(t *testing.T) {
	h := newHarness(t)
	req := h.request(t, "50")
	req.Receiver = req.Sender
	req.Deliver = req.SendMax

	s, err := h.svc.Settle(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, paths.TemREDUNDANT, s.Outcome.Result)
	assert.False(t, s.Record.Committed)
}

func TestSettleMemoryLedger(t *testing.T) {
	l, err := fixture.ParseLedger([]byte(bookLedger))
	require.NoError(t, err)
	r := fixture.NewResolver()
	mem := view.NewMemoryLedger()
	seed := view.NewSandbox(mem)
	require.NoError(t, l.Apply(seed, r))
	require.NoError(t, seed.ApplyToView())

	svc := New(Config{Ledger: mem})
	defer svc.Close()
	p := fixture.Payment{Sender: "alice", Receiver: "bob", Deliver: "50/YYY/gy", SendMax: "100/XXX/gx"}
	req, err := p.Request(r)
	require.NoError(t, err)

	s, err := svc.Settle(context.Background(), req, true)
	require.NoError(t, err)
	require.Equal(t, paths.TesSUCCESS, s.Outcome.Result)

	bob, err := r.Account("bob")
	require.NoError(t, err)
	gy, err := r.Account("gy")
	require.NoError(t, err)
	held, err := view.AccountHolds(mem, bob, types.NewIssue(types.MustCurrency("YYY"), gy))
	require.NoError(t, err)
	assert.Equal(t, "50", held.Value())
}

func TestRecentAndClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, deliver := range []string{"10", "20"} {
		_, err := h.svc.Settle(ctx, h.request(t, deliver), false)
		require.NoError(t, err)
	}
	recent, err := h.svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	got, err := h.svc.Get(ctx, recent[0].ID)
	require.NoError(t, err)
	assert.Equal(t, recent[0].Deliver, got.Deliver)

	require.NoError(t, h.svc.Close())
	_, err = h.svc.Settle(ctx, h.request(t, "10"), true)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, h.svc.Close())
}

func TestSettleCanceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.svc.Settle(ctx, h.request(t, "10"), true)
	assert.ErrorIs(t, err, context.Canceled)
}
