package keylet

import (
	"encoding/hex"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookKey(t *testing.T) {
	// rnuF96W4SZoCJmbHYBFoJZpR8eCaxNvekK decoded
	var cnyIssuer types.AccountID
	issuerBytes, err := hex.DecodeString("35dd7df146893456296bf4061fbe68735d28f328")
	require.NoError(t, err)
	copy(cnyIssuer[:], issuerBytes)
	cny := types.NewIssue(types.MustCurrency("CNY"), cnyIssuer)

	// Takers pay XRP and get CNY
	k := Book(types.XRPIssue(), cny)

	assert.Equal(t, "ce67ae4e51228a295ef282f765196323525945b7d2c11bf0", hex.EncodeToString(k.Key[:24]))
	assert.Equal(t, uint64(0), GetQuality(k.Key))

	dir := Quality(k, 0x5c038d7ea4c68000)
	assert.Equal(t, "ce67ae4e51228a295ef282f765196323525945b7d2c11bf05c038d7ea4c68000", hex.EncodeToString(dir.Key[:]))
	assert.Equal(t, uint64(0x5c038d7ea4c68000), GetQuality(dir.Key))
}

func TestQualityNext(t *testing.T) {
	var key [32]byte
	key[23] = 0xff
	key[22] = 0x01
	key[30] = 7

	next := QualityNext(key)
	assert.Equal(t, byte(0x02), next[22])
	assert.Equal(t, byte(0x00), next[23])
	assert.Equal(t, uint64(0), GetQuality(next))

	book := Book(types.XRPIssue(), types.NewIssue(types.MustCurrency("USD"), types.AccountID{1}))
	assert.Equal(t, QualityNext(book.Key), QualityNext(Quality(book, 12345).Key))
}

func TestLineIsSymmetric(t *testing.T) {
	a := types.AccountID{1}
	b := types.AccountID{2}
	usd := types.MustCurrency("USD")

	assert.Equal(t, Line(a, b, usd), Line(b, a, usd))
	assert.NotEqual(t, Line(a, b, usd), Line(a, b, types.MustCurrency("EUR")))
}

func TestOfferKeys(t *testing.T) {
	a := types.AccountID{1}
	assert.NotEqual(t, Offer(a, 1).Key, Offer(a, 2).Key)
	assert.NotEqual(t, Account(a).Key, Offer(a, 0).Key)
}
