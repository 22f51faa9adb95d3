package amount

import (
	"encoding/json"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssue(t *testing.T) types.Issue {
	t.Helper()
	gw, err := types.AccountFromName("gateway")
	require.NoError(t, err)
	return types.NewIssue(types.MustCurrency("USD"), gw)
}

func TestParseValue(t *testing.T) {
	usd := testIssue(t)
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.5", want: "1.5"},
		{in: "100", want: "100"},
		{in: "0.001", want: "0.001"},
		{in: "1e3", want: "1000"},
		{in: "-2.25", want: "-2.25"},
		{in: "0", want: "0"},
		{in: "000.5000", want: "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := Parse(tt.in, usd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Value())
			assert.False(t, a.IsNative())
		})
	}

	_, err := Parse("1.2.3", usd)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = Parse("12.5", types.XRPIssue())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNormalization(t *testing.T) {
	usd := testIssue(t)
	a := NewIssued(15, -1, usd)
	assert.Equal(t, MinMantissa+MinMantissa/2, a.Mantissa())
	assert.Equal(t, -15, a.Exponent())

	z := Zero(usd)
	assert.Equal(t, int64(0), z.Mantissa())
	assert.Equal(t, -100, z.Exponent())
	assert.True(t, Zero(types.XRPIssue()).IsNative())
}

func TestAddSub(t *testing.T) {
	usd := testIssue(t)
	a := MustParse("1.5", usd)
	b := MustParse("2.25", usd)

	assert.Equal(t, "3.75", a.Add(b).Value())
	assert.Equal(t, "0.75", b.Sub(a).Value())
	assert.True(t, a.Sub(a).IsZero())
	assert.Equal(t, usd, a.Sub(a).Issue())
	assert.Equal(t, "0.5", MustParse("100", usd).Sub(MustParse("99.5", usd)).Value())

	assert.Equal(t, int64(15), NewXRP(10).Add(NewXRP(5)).Drops())
	assert.Panics(t, func() { NewXRP(1).Add(a) })
}

func TestCompare(t *testing.T) {
	usd := testIssue(t)
	tests := []struct {
		a, b string
		want int
	}{
		{a: "1", b: "2", want: -1},
		{a: "10", b: "2", want: 1},
		{a: "-10", b: "2", want: -1},
		{a: "-10", b: "-2", want: -1},
		{a: "0", b: "-2", want: 1},
		{a: "3.0", b: "3", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.a, usd).Compare(MustParse(tt.b, usd)))
		})
	}
	assert.Equal(t, "1", Min(MustParse("1", usd), MustParse("2", usd)).Value())
	assert.Equal(t, "2", Max(MustParse("1", usd), MustParse("2", usd)).Value())
}

func TestMulDiv(t *testing.T) {
	usd := testIssue(t)
	rate := MustParse("1.1", types.Issue{})

	assert.Equal(t, "55", Mul(MustParse("50", usd), rate, usd, false).Value())

	third := Div(MustParse("1", usd), MustParse("3", usd), usd, false)
	assert.Equal(t, "0.3333333333333333", third.Value())
	thirdUp := Div(MustParse("1", usd), MustParse("3", usd), usd, true)
	assert.Equal(t, "0.3333333333333334", thirdUp.Value())

	assert.Equal(t, int64(3), Div(NewXRP(10), NewXRP(3), types.XRPIssue(), false).Drops())
	assert.Equal(t, int64(4), Div(NewXRP(10), NewXRP(3), types.XRPIssue(), true).Drops())

	// 25 USD at 2 drops per USD
	price := Div(NewXRP(50), MustParse("25", usd), types.Issue{}, false)
	assert.Equal(t, int64(50), Mul(MustParse("25", usd), price, types.XRPIssue(), true).Drops())

	assert.True(t, Div(MustParse("1", usd), Zero(usd), usd, false).IsZero())
}

func TestMulRatio(t *testing.T) {
	usd := testIssue(t)
	assert.Equal(t, "101", MustParse("100", usd).MulRatio(1_010_000_000, QualityOne, false).Value())
	assert.Equal(t, int64(1005), NewXRP(1000).MulRatio(1_005_000_000, QualityOne, false).Drops())
	assert.Equal(t, int64(1), NewXRP(1).MulRatio(3, 2, false).Drops())
	assert.Equal(t, int64(2), NewXRP(1).MulRatio(3, 2, true).Drops())
	assert.Equal(t, "100", MustParse("101", usd).MulRatio(QualityOne, 1_010_000_000, false).Value())
}

func TestGetRate(t *testing.T) {
	usd := testIssue(t)

	one := GetRate(MustParse("100", usd), MustParse("100", usd))
	assert.Equal(t, uint64(85)<<56|uint64(MinMantissa), one)

	worse := GetRate(MustParse("50", usd), MustParse("55", usd))
	assert.Greater(t, worse, one)
	assert.Equal(t, "1.1", FromRate(worse).Value())

	assert.Zero(t, GetRate(Zero(usd), MustParse("1", usd)))

	cross := GetRate(MustParse("25", usd), NewXRP(50))
	assert.Equal(t, "2", FromRate(cross).Value())
}

func TestJSON(t *testing.T) {
	usd := testIssue(t)

	raw, err := json.Marshal(NewXRP(42))
	require.NoError(t, err)
	assert.JSONEq(t, `"42"`, string(raw))

	raw, err = json.Marshal(MustParse("12.5", usd))
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"12.5","currency":"USD","issuer":"`+usd.Issuer.String()+`"}`, string(raw))

	var back Amount
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(MustParse("12.5", usd)))
}
