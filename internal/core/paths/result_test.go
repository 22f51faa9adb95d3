package paths

import (
	"errors"
	"testing"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"github.com/stretchr/testify/assert"
)

func TestResultKind(t *testing.T) {
	tests := []struct {
		result Result
		kind   Kind
	}{
		{TesSUCCESS, KindSuccess},
		{TecPATH_PARTIAL, KindPartialUnacceptable},
		{TecPATH_DRY, KindPathDry},
		{TecSOURCE_CONFLICT, KindSourceConflict},
		{TefINTERNAL, KindInternal},
		{TefEXCEPTION, KindInternal},
		{TemBAD_AMOUNT, KindPathMalformed},
		{TemBAD_PATH, KindPathMalformed},
		{TemBAD_PATH_LOOP, KindPathMalformed},
		{TemBAD_SEND_XRP, KindPathMalformed},
		{TemREDUNDANT, KindPathMalformed},
		{TemRIPPLE_EMPTY, KindPathMalformed},
		{TerNO_LINE, KindPathMalformed},
		{Result(42), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.result.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.result.Kind())
			assert.NotEmpty(t, tt.result.Message())
		})
	}
}

func TestResultClasses(t *testing.T) {
	assert.True(t, TesSUCCESS.IsSuccess())
	assert.True(t, TecPATH_DRY.IsTec())
	assert.True(t, TefINTERNAL.IsTef())
	assert.True(t, TemBAD_PATH.IsTem())
	assert.False(t, TerNO_LINE.IsTem())
	assert.True(t, TecSOURCE_CONFLICT.dry())
	assert.False(t, TecPATH_PARTIAL.dry())
}

func TestParseTieBreak(t *testing.T) {
	tb, ok := ParseTieBreak("index")
	assert.True(t, ok)
	assert.Equal(t, TieBreakIndex, tb)

	tb, ok = ParseTieBreak("")
	assert.True(t, ok)
	assert.Equal(t, TieBreakQuantity, tb)

	_, ok = ParseTieBreak("random")
	assert.False(t, ok)
}

func TestCheckBounds(t *testing.T) {
	usd := types.NewIssue(types.MustCurrency("USD"), types.AccountID{1})
	n := &node{flags: TypeAccount, currency: usd.Currency, issuer: usd.Issuer}
	n.resetAmounts()
	n.revIssue = amount.MustParse("5", usd)
	n.fwdIssue = amount.MustParse("5", usd)
	ps := &pathState{nodes: []*node{n}}
	assert.NoError(t, ps.checkBounds())

	n.fwdIssue = amount.MustParse("5.000001", usd)
	assert.True(t, errors.Is(ps.checkBounds(), errMonotonic))
}

func TestRippleLeg(t *testing.T) {
	usd := types.NewIssue(types.MustCurrency("USD"), types.AccountID{1})
	c := newCalc(Options{}.withDefaults())
	c.multi = true

	prvAct, curAct := amount.Zero(usd), amount.Zero(usd)
	var rateMax uint64
	c.ripple(900_000_000, amount.QualityOne,
		amount.MustParse("9", usd), amount.MustParse("10", usd),
		&prvAct, &curAct, &rateMax)

	// The upstream is short, so only what 9 buys at 90% passes.
	assertAmount(t, "9", prvAct)
	assertAmount(t, "8.1", curAct)
	assert.NotZero(t, rateMax)
}
