package fixture

import (
	"path/filepath"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestLedger(t *testing.T) (*view.MemoryLedger, *Resolver) {
	t.Helper()
	l, err := LoadLedger(filepath.Join("testdata", "ledger.yaml"))
	require.NoError(t, err)

	r := NewResolver()
	mem := view.NewMemoryLedger()
	sb := view.NewSandbox(mem)
	require.NoError(t, l.Apply(sb, r))
	require.NoError(t, sb.ApplyToView())
	return mem, r
}

func mustAccount(t *testing.T, r *Resolver, ref string) types.AccountID {
	t.Helper()
	id, err := r.Account(ref)
	require.NoError(t, err)
	return id
}

func TestApplyLedger(t *testing.T) {
	mem, r := loadTestLedger(t)
	alice, bob, gw := mustAccount(t, r, "alice"), mustAccount(t, r, "bob"), mustAccount(t, r, "gateway")
	usd := types.NewIssue(types.MustCurrency("USD"), gw)

	acct, err := view.ReadAccount(mem, gw)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, uint32(1_002_000_000), acct.TransferRate)

	held, err := view.AccountHolds(mem, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, "250", held.Value())

	limit, err := view.Limit(mem, bob, gw, usd.Currency)
	require.NoError(t, err)
	assert.Equal(t, "300", limit.Value())

	q, err := view.QualityIn(mem, bob, gw, usd.Currency)
	require.NoError(t, err)
	assert.Equal(t, uint32(900_000_000), q)

	offer, err := view.ReadOffer(mem, keylet.Offer(bob, 7).Key)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.True(t, offer.TakerPays.IsNative())
	assert.Equal(t, int64(20_000_000), offer.TakerPays.Drops())
	assert.Equal(t, usd, offer.TakerGets.Issue())
}

func TestExportRoundTrip(t *testing.T) {
	mem, r := loadTestLedger(t)
	bob := mustAccount(t, r, "bob")

	all, err := Export(mem, types.AccountID{})
	require.NoError(t, err)
	assert.Len(t, all.Accounts, 3)
	assert.Len(t, all.Lines, 2)
	assert.Len(t, all.Offers, 1)

	// Exported fixtures load into an identical ledger.
	again := view.NewMemoryLedger()
	sb := view.NewSandbox(again)
	require.NoError(t, all.Apply(sb, NewResolver()))
	require.NoError(t, sb.ApplyToView())
	reexported, err := Export(again, types.AccountID{})
	require.NoError(t, err)
	assert.ElementsMatch(t, all.Accounts, reexported.Accounts)
	assert.ElementsMatch(t, all.Lines, reexported.Lines)
	assert.ElementsMatch(t, all.Offers, reexported.Offers)

	mine, err := Export(mem, bob)
	require.NoError(t, err)
	require.Len(t, mine.Accounts, 1)
	assert.Equal(t, bob.String(), mine.Accounts[0].Name)
	require.Len(t, mine.Lines, 1)
	assert.Equal(t, "0.9", mine.Lines[0].QualityIn)
	assert.Len(t, mine.Offers, 1)
}

func TestPaymentRequest(t *testing.T) {
	p, err := LoadPayment(filepath.Join("testdata", "payment.yaml"))
	require.NoError(t, err)

	r := NewResolver()
	req, err := p.Request(r)
	require.NoError(t, err)

	alice, bob, gw := mustAccount(t, r, "alice"), mustAccount(t, r, "bob"), mustAccount(t, r, "gateway")
	assert.Equal(t, alice, req.Sender)
	assert.Equal(t, bob, req.Receiver)
	assert.Equal(t, "25", req.Deliver.Value())
	assert.Equal(t, bob, req.Deliver.Issuer)
	// The default send max is the sender's own IOU.
	assert.Equal(t, alice, req.SendMax.Issuer)
	assert.Zero(t, req.SendMax.Compare(req.Deliver))
	assert.True(t, req.Partial)

	require.Len(t, req.Paths, 2)
	assert.Equal(t, []paths.Element{paths.AccountElement(gw)}, req.Paths[0])
	require.Len(t, req.Paths[1], 2)
	assert.Equal(t, paths.TypeCurrency, req.Paths[1][0].Type)
	assert.True(t, req.Paths[1][0].Currency.IsXRP())
	assert.Equal(t, paths.OfferElement(types.NewIssue(types.MustCurrency("USD"), gw)), req.Paths[1][1])
}

func TestResolverAddresses(t *testing.T) {
	r := NewResolver()
	alice := mustAccount(t, r, "alice")
	assert.Equal(t, alice, mustAccount(t, r, alice.String()))

	a, err := r.Amount("12.5/USD/" + alice.String())
	require.NoError(t, err)
	assert.Equal(t, alice, a.Issuer)
	assert.Equal(t, "12.5", a.Value())

	a, err = r.Amount("1500")
	require.NoError(t, err)
	assert.Equal(t, amount.NewXRP(1500), a)
}

func TestMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "accounts:\n  - {name: a, drops: 1, color: red}\n"},
		{"negative drops", "accounts:\n  - {name: a, drops: -1}\n"},
		{"rate below one", "accounts:\n  - {name: a, drops: 1, transfer_rate: \"0.5\"}\n"},
		{"duplicate account", "accounts:\n  - {name: a, drops: 1}\n  - {name: a, drops: 2}\n"},
		{"xrp line", "accounts: []\nlines:\n  - {holder: a, issuer: b, currency: XRP, limit: \"1\"}\n"},
		{"self line", "accounts: []\nlines:\n  - {holder: a, issuer: a, currency: USD, limit: \"1\"}\n"},
		{"bad limit", "accounts: []\nlines:\n  - {holder: a, issuer: b, currency: USD, limit: \"-1\"}\n"},
		{"bad offer amount", "accounts:\n  - {name: a, drops: 1}\noffers:\n  - {owner: a, sequence: 1, pays: \"1.5\", gets: 1/USD/b}\n"},
		{"xrp in slashes", "accounts:\n  - {name: a, drops: 1}\noffers:\n  - {owner: a, sequence: 1, pays: 1/XRP/b, gets: 1/USD/b}\n"},
		{"same issue offer", "accounts:\n  - {name: a, drops: 1}\noffers:\n  - {owner: a, sequence: 1, pays: 1/USD/b, gets: 2/USD/b}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseLedger([]byte(tt.doc))
			if err == nil {
				err = l.Apply(view.NewSandbox(view.NewMemoryLedger()), NewResolver())
			}
			assert.ErrorIs(t, err, ErrMalformedFixture)
		})
	}

	_, err := ParsePayment([]byte("sender: a\nreceiver: b\ndeliver: 1/USD/b\nextra: 1\n"))
	assert.ErrorIs(t, err, ErrMalformedFixture)

	p, err := ParsePayment([]byte("sender: a\nreceiver: b\ndeliver: nope\n"))
	require.NoError(t, err)
	_, err = p.Request(NewResolver())
	assert.ErrorIs(t, err, ErrMalformedFixture)
}

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		s, err := LoadScenario(file)
		require.NoError(t, err)
		t.Run(s.Name, func(t *testing.T) {
			out, _, err := s.Run(paths.Options{})
			require.NoError(t, err)
			require.NotNil(t, s.Expect)
			assert.NoError(t, s.Expect.Check(out))
		})
	}
}
