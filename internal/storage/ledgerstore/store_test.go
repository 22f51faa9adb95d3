package ledgerstore

import (
	"context"
	"errors"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/entry/entries"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T, codec string) *Store {
	t.Helper()
	s, err := Open(Config{Backend: BackendMemory, Compression: codec, CacheSize: 2}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func key(b byte) keylet.Keylet {
	var k [32]byte
	k[0] = b
	return keylet.Keylet{Key: k}
}

func TestStoreBasicOps(t *testing.T) {
	for _, codec := range []string{"none", "lz4"} {
		t.Run(codec, func(t *testing.T) {
			s := openMemory(t, codec)

			data, err := s.Read(key(1))
			require.NoError(t, err)
			assert.Nil(t, data)

			require.NoError(t, s.Insert(key(1), []byte("one")))
			assert.ErrorIs(t, s.Insert(key(1), []byte("again")), view.ErrEntryExists)
			assert.ErrorIs(t, s.Update(key(2), []byte("two")), view.ErrEntryNotFound)

			require.NoError(t, s.Update(key(1), []byte("uno")))
			data, err = s.Read(key(1))
			require.NoError(t, err)
			assert.Equal(t, []byte("uno"), data)

			// Spill the two-entry cache and read back from the database.
			require.NoError(t, s.Insert(key(2), []byte("two")))
			require.NoError(t, s.Insert(key(3), []byte("three")))
			data, err = s.Read(key(1))
			require.NoError(t, err)
			assert.Equal(t, []byte("uno"), data)

			require.NoError(t, s.Erase(key(1)))
			ok, err := s.Exists(key(1))
			require.NoError(t, err)
			assert.False(t, ok)
			assert.ErrorIs(t, s.Erase(key(1)), view.ErrEntryNotFound)
		})
	}
}

func TestStoreSucc(t *testing.T) {
	s := openMemory(t, "none")
	for _, b := range []byte{2, 4, 6} {
		require.NoError(t, s.Insert(key(b), []byte{b}))
	}

	next, ok, err := s.Succ(key(2).Key, key(9).Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, key(4).Key, next)

	_, ok, err = s.Succ(key(6).Key, key(9).Key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Succ(key(2).Key, key(4).Key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("commits", func(t *testing.T) {
		s := openMemory(t, "lz4")
		require.NoError(t, s.Insert(key(5), []byte("five")))

		err := s.Atomic(ctx, func() error {
			if err := s.Insert(key(3), []byte("three")); err != nil {
				return err
			}
			if err := s.Erase(key(5)); err != nil {
				return err
			}
			// Buffered writes are visible inside the batch.
			next, ok, err := s.Succ(key(0).Key, key(9).Key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, key(3).Key, next)
			_, ok, err = s.Succ(key(3).Key, key(9).Key)
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		})
		require.NoError(t, err)

		var keys [][32]byte
		require.NoError(t, s.ForEach(func(k [32]byte, _ []byte) bool {
			keys = append(keys, k)
			return true
		}))
		assert.Equal(t, [][32]byte{key(3).Key}, keys)
	})

	t.Run("rolls back", func(t *testing.T) {
		s := openMemory(t, "none")
		boom := errors.New("boom")

		err := s.Atomic(ctx, func() error {
			require.NoError(t, s.Insert(key(7), []byte("seven")))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		ok, err := s.Exists(key(7))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("not reentrant", func(t *testing.T) {
		s := openMemory(t, "none")
		err := s.Atomic(ctx, func() error {
			return s.Atomic(ctx, func() error { return nil })
		})
		assert.ErrorIs(t, err, ErrBatchOpen)
	})
}

func TestPaymentAgainstPebbleStore(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Backend: BackendPebble, Path: dir, Compression: "lz4"}

	alice, err := types.AccountFromName("alice")
	require.NoError(t, err)
	bob, err := types.AccountFromName("bob")
	require.NoError(t, err)
	usd := types.MustCurrency("USD")

	s, err := Open(cfg, nil)
	require.NoError(t, err)
	seed := view.NewSandbox(s)
	require.NoError(t, view.WriteAccount(seed, &entries.AccountRoot{Account: alice, Balance: 1_000_000}))
	require.NoError(t, view.WriteAccount(seed, &entries.AccountRoot{Account: bob, Balance: 1_000_000}))
	limit := amount.MustParse("100", types.NewIssue(usd, bob))
	require.NoError(t, view.WriteLine(seed, entries.NewRippleState(bob, alice, usd, limit, amount.Zero(types.NewIssue(usd, alice)))))
	require.NoError(t, s.Atomic(context.Background(), seed.ApplyToView))

	sb := view.NewSandbox(s)
	out := paths.Calculate(sb, paths.Request{
		Sender:   alice,
		Receiver: bob,
		Deliver:  amount.MustParse("25", types.NewIssue(usd, bob)),
		SendMax:  amount.MustParse("25", types.NewIssue(usd, alice)),
	}, paths.Options{})
	require.Equal(t, paths.TesSUCCESS, out.Result)
	require.NoError(t, s.Atomic(context.Background(), sb.ApplyToView))
	require.NoError(t, s.Close())

	reopened, err := Open(cfg, nil)
	require.NoError(t, err)
	defer reopened.Close()
	holds, err := view.AccountHolds(reopened, bob, types.NewIssue(usd, alice))
	require.NoError(t, err)
	assert.Equal(t, "25", holds.Value())
}
