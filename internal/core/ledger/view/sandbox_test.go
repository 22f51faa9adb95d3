package view

import (
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) keylet.Keylet {
	var k keylet.Keylet
	k.Key[0] = b
	return k
}

func mustRead(t *testing.T, v ReadView, k keylet.Keylet) []byte {
	t.Helper()
	data, err := v.Read(k)
	require.NoError(t, err)
	return data
}

func TestMemoryLedger(t *testing.T) {
	m := NewMemoryLedger()
	require.NoError(t, m.Insert(key(1), []byte("one")))
	require.ErrorIs(t, m.Insert(key(1), []byte("again")), ErrEntryExists)
	require.ErrorIs(t, m.Update(key(2), []byte("two")), ErrEntryNotFound)
	require.NoError(t, m.Insert(key(3), []byte("three")))
	require.NoError(t, m.Update(key(1), []byte("uno")))

	assert.Equal(t, []byte("uno"), mustRead(t, m, key(1)))
	assert.Nil(t, mustRead(t, m, key(2)))
	assert.Equal(t, 2, m.Len())

	next, ok, err := m.Succ(key(1).Key, key(9).Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, key(3).Key, next)

	_, ok, err = m.Succ(key(3).Key, key(9).Key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.Succ(key(0).Key, key(1).Key)
	require.NoError(t, err)
	assert.False(t, ok, "before bound is exclusive")

	require.NoError(t, m.Erase(key(1)))
	require.ErrorIs(t, m.Erase(key(1)), ErrEntryNotFound)
}

func TestSandboxIsolation(t *testing.T) {
	base := NewMemoryLedger()
	require.NoError(t, base.Insert(key(1), []byte("base")))

	root := NewSandbox(base)
	child := root.Child()
	require.NoError(t, child.Update(key(1), []byte("child")))
	require.NoError(t, child.Insert(key(2), []byte("new")))

	assert.Equal(t, []byte("child"), mustRead(t, child, key(1)))
	assert.Equal(t, []byte("base"), mustRead(t, root, key(1)))
	assert.Nil(t, mustRead(t, root, key(2)))

	child.Reset()
	assert.Equal(t, []byte("base"), mustRead(t, child, key(1)))
	assert.True(t, child.Empty())
}

func TestSandboxApply(t *testing.T) {
	base := NewMemoryLedger()
	require.NoError(t, base.Insert(key(1), []byte("a")))
	require.NoError(t, base.Insert(key(2), []byte("b")))

	root := NewSandbox(base)
	child := root.Child()
	require.NoError(t, child.Erase(key(1)))
	require.NoError(t, child.Update(key(2), []byte("B")))
	require.NoError(t, child.Insert(key(3), []byte("c")))
	child.Apply(root)

	assert.Nil(t, mustRead(t, root, key(1)))
	assert.Equal(t, []byte("B"), mustRead(t, root, key(2)))
	assert.Equal(t, []byte("c"), mustRead(t, root, key(3)))
	assert.Equal(t, []byte("a"), mustRead(t, base, key(1)), "base untouched before ApplyToView")

	changes := root.Changes()
	assert.Equal(t, [][32]byte{key(3).Key}, changes.Inserted)
	assert.Equal(t, [][32]byte{key(2).Key}, changes.Modified)
	assert.Equal(t, [][32]byte{key(1).Key}, changes.Deleted)

	require.NoError(t, root.ApplyToView())
	assert.Nil(t, mustRead(t, base, key(1)))
	assert.Equal(t, []byte("B"), mustRead(t, base, key(2)))
	assert.Equal(t, []byte("c"), mustRead(t, base, key(3)))
	assert.True(t, root.Empty())

	assert.Panics(t, func() { root.Child().Apply(root.Child()) })
}

func TestSandboxEraseThenInsert(t *testing.T) {
	base := NewMemoryLedger()
	require.NoError(t, base.Insert(key(1), []byte("a")))

	root := NewSandbox(base)
	require.NoError(t, root.Erase(key(1)))
	require.NoError(t, root.Insert(key(1), []byte("again")))
	require.NoError(t, root.ApplyToView())
	assert.Equal(t, []byte("again"), mustRead(t, base, key(1)))

	child := root.Child()
	require.NoError(t, child.Insert(key(5), []byte("tmp")))
	require.NoError(t, child.Erase(key(5)))
	assert.True(t, child.Empty())
}

func TestSandboxSucc(t *testing.T) {
	base := NewMemoryLedger()
	for _, b := range []byte{2, 4, 6} {
		require.NoError(t, base.Insert(key(b), []byte{b}))
	}
	root := NewSandbox(base)
	require.NoError(t, root.Erase(key(2)))
	child := root.Child()
	require.NoError(t, child.Insert(key(3), []byte{3}))
	require.NoError(t, child.Erase(key(4)))

	var got []byte
	cur := key(0).Key
	for {
		next, ok, err := child.Succ(cur, key(9).Key)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, next[0])
		cur = next
	}
	assert.Equal(t, []byte{3, 6}, got)
}
