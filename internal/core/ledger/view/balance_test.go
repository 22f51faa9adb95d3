package view

import (
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	v     *Sandbox
	alice types.AccountID
	gw    types.AccountID
	usd   types.Issue
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	alice, err := types.AccountFromName("alice")
	require.NoError(t, err)
	gw, err := types.AccountFromName("gateway")
	require.NoError(t, err)
	usd := types.NewIssue(types.MustCurrency("USD"), gw)

	v := NewSandbox(NewMemoryLedger())
	require.NoError(t, WriteAccount(v, &entries.AccountRoot{Account: alice, Balance: 1_000_000}))
	require.NoError(t, WriteAccount(v, &entries.AccountRoot{Account: gw, Balance: 1_000_000, TransferRate: 1_002_000_000}))

	line := entries.NewRippleState(alice, gw, usd.Currency,
		amount.MustParse("100", usd), amount.Zero(usd))
	line.LowQualityIn = 990_000_000
	line.HighQualityIn = 990_000_000
	require.NoError(t, WriteLine(v, line))

	return fixture{v: v, alice: alice, gw: gw, usd: usd}
}

func TestRippleCreditMovesBalance(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, RippleCredit(f.v, f.gw, f.alice, amount.MustParse("30", f.usd)))

	holds, err := AccountHolds(f.v, f.alice, f.usd)
	require.NoError(t, err)
	assert.Equal(t, "30", holds.Value())
	assert.Equal(t, f.usd, holds.Issue())

	owed, err := Owed(f.v, f.gw, f.alice, f.usd.Currency)
	require.NoError(t, err)
	assert.Equal(t, "30", owed.Value())

	owedBack, err := Owed(f.v, f.alice, f.gw, f.usd.Currency)
	require.NoError(t, err)
	assert.Equal(t, "-30", owedBack.Value())

	require.NoError(t, RippleCredit(f.v, f.alice, f.gw, amount.MustParse("10", f.usd)))
	holds, err = AccountHolds(f.v, f.alice, f.usd)
	require.NoError(t, err)
	assert.Equal(t, "20", holds.Value())
}

func TestLimitAndQuality(t *testing.T) {
	f := newFixture(t)

	limit, err := Limit(f.v, f.alice, f.gw, f.usd.Currency)
	require.NoError(t, err)
	assert.Equal(t, "100", limit.Value())

	limit, err = Limit(f.v, f.gw, f.alice, f.usd.Currency)
	require.NoError(t, err)
	assert.True(t, limit.IsZero())

	q, err := QualityIn(f.v, f.alice, f.gw, f.usd.Currency)
	require.NoError(t, err)
	assert.Equal(t, uint32(990_000_000), q)

	q, err = QualityOut(f.v, f.alice, f.gw, f.usd.Currency)
	require.NoError(t, err)
	assert.Equal(t, amount.QualityOne, q)

	rate, err := TransferRate(f.v, f.gw)
	require.NoError(t, err)
	assert.Equal(t, uint32(1_002_000_000), rate)

	rate, err = TransferRateBetween(f.v, f.alice, f.gw, f.gw)
	require.NoError(t, err)
	assert.Equal(t, amount.QualityOne, rate)
}

func TestAccountFundsIssuerUnlimited(t *testing.T) {
	f := newFixture(t)
	def := amount.MustParse("500", f.usd)

	funds, err := AccountFunds(f.v, f.gw, def)
	require.NoError(t, err)
	assert.Equal(t, "500", funds.Value())

	funds, err = AccountFunds(f.v, f.alice, def)
	require.NoError(t, err)
	assert.True(t, funds.IsZero())

	xrp, err := AccountFunds(f.v, f.alice, amount.NewXRP(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), xrp.Drops())
}

func TestTransferXRP(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, TransferXRP(f.v, f.alice, f.gw, 250))

	a, err := ReadAccount(f.v, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(999_750), a.Balance)

	missing := types.AccountID{7}
	require.ErrorIs(t, AdjustXRP(f.v, missing, -1), ErrEntryNotFound)
	require.NoError(t, AdjustXRP(f.v, missing, 5))
	created, err := ReadAccount(f.v, missing)
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.Balance)
}

func TestPlaceAndDeleteOffer(t *testing.T) {
	f := newFixture(t)
	first := &entries.Offer{Account: f.alice, Sequence: 1, TakerPays: amount.NewXRP(200), TakerGets: amount.MustParse("100", f.usd)}
	second := &entries.Offer{Account: f.alice, Sequence: 2, TakerPays: amount.NewXRP(400), TakerGets: amount.MustParse("200", f.usd)}
	require.NoError(t, PlaceOffer(f.v, first))
	require.NoError(t, PlaceOffer(f.v, second))
	assert.Equal(t, first.BookDirectory, second.BookDirectory, "same quality shares a directory")

	book := keylet.Book(types.XRPIssue(), f.usd)
	dirKey, ok, err := f.v.Succ(book.Key, keylet.QualityNext(book.Key))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.BookDirectory, dirKey)
	assert.Equal(t, amount.GetRate(first.TakerGets, first.TakerPays), keylet.GetQuality(dirKey))

	acct, err := ReadAccount(f.v, f.alice)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), acct.OwnerCount)

	require.NoError(t, DeleteOffer(f.v, keylet.Offer(f.alice, 1).Key))
	dir, err := ReadDirectory(f.v, dirKey)
	require.NoError(t, err)
	assert.Len(t, dir.Indexes, 1)

	require.NoError(t, DeleteOffer(f.v, keylet.Offer(f.alice, 2).Key))
	dir, err = ReadDirectory(f.v, dirKey)
	require.NoError(t, err)
	assert.Nil(t, dir)

	acct, err = ReadAccount(f.v, f.alice)
	require.NoError(t, err)
	assert.Zero(t, acct.OwnerCount)

	require.ErrorIs(t, DeleteOffer(f.v, keylet.Offer(f.alice, 2).Key), ErrEntryNotFound)
}
