package amount

import (
	"math/big"

	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// QualityOne is the 1:1 value of a trust line quality or transfer rate.
const QualityOne uint32 = 1_000_000_000

// divScale keeps at least 17 significant digits in a quotient whose
// operands are below the native supply.
const divScale = 34

var (
	bigTen         = big.NewInt(10)
	bigMaxMantissa = big.NewInt(MaxMantissa + 1)
)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}

func (a Amount) parts() (bool, *big.Int, int) {
	v := a.value
	neg := v < 0
	if neg {
		v = -v
	}
	exp := 0
	if !a.native {
		exp = a.exponent
	}
	return neg, big.NewInt(v), exp
}

// build turns the exact-or-truncated value m*10^exp into an amount of the
// requested kind. sticky records digits already dropped by the caller.
// roundUp rounds the magnitude up when anything was dropped; otherwise the
// magnitude is truncated.
func build(neg bool, m *big.Int, exp int, sticky bool, native bool, issue types.Issue, roundUp bool) Amount {
	rem := new(big.Int)
	if native {
		if exp >= 0 {
			m.Mul(m, pow10(exp))
		} else {
			m.QuoRem(m, pow10(-exp), rem)
			sticky = sticky || rem.Sign() != 0
		}
		if roundUp && sticky {
			m.Add(m, big.NewInt(1))
		}
		if !m.IsInt64() {
			panic("amount overflow")
		}
		v := m.Int64()
		if neg {
			v = -v
		}
		return NewXRP(v)
	}

	for m.Cmp(bigMaxMantissa) >= 0 {
		m.QuoRem(m, bigTen, rem)
		sticky = sticky || rem.Sign() != 0
		exp++
	}
	if roundUp && sticky {
		m.Add(m, big.NewInt(1))
		if m.Cmp(bigMaxMantissa) >= 0 {
			m.Quo(m, bigTen)
			exp++
		}
	}
	v := m.Int64()
	if neg {
		v = -v
	}
	return NewIssued(v, exp, issue)
}

// Mul returns a*b expressed in issue.
func Mul(a, b Amount, issue types.Issue, roundUp bool) Amount {
	return mulTo(a, b, issue.IsXRP(), issue, roundUp)
}

func mulTo(a, b Amount, native bool, issue types.Issue, roundUp bool) Amount {
	if a.IsZero() || b.IsZero() {
		return zeroOf(native, issue)
	}
	an, am, ae := a.parts()
	bn, bm, be := b.parts()
	return build(an != bn, am.Mul(am, bm), ae+be, false, native, issue, roundUp)
}

// Div returns a/b expressed in issue. Division by zero yields zero.
func Div(a, b Amount, issue types.Issue, roundUp bool) Amount {
	return divTo(a, b, issue.IsXRP(), issue, roundUp)
}

func divTo(a, b Amount, native bool, issue types.Issue, roundUp bool) Amount {
	if a.IsZero() || b.IsZero() {
		return zeroOf(native, issue)
	}
	an, am, ae := a.parts()
	bn, bm, be := b.parts()
	am.Mul(am, pow10(divScale))
	rem := new(big.Int)
	am.QuoRem(am, bm, rem)
	return build(an != bn, am, ae-be-divScale, rem.Sign() != 0, native, issue, roundUp)
}

func zeroOf(native bool, issue types.Issue) Amount {
	if native {
		return NewXRP(0)
	}
	return Amount{exponent: zeroExponent, Currency: issue.Currency, Issuer: issue.Issuer}
}

// MulRatio returns a*num/den in the issue of a.
func (a Amount) MulRatio(num, den uint32, roundUp bool) Amount {
	if den == 0 || a.IsZero() {
		return a
	}
	neg, m, exp := a.parts()
	m.Mul(m, new(big.Int).SetUint64(uint64(num)))
	rem := new(big.Int)
	m.QuoRem(m, new(big.Int).SetUint64(uint64(den)), rem)
	return build(neg, m, exp, rem.Sign() != 0, a.native, a.Issue(), roundUp)
}

// GetRate returns the encoded quality in/out of an exchange: the price of
// one unit of out. Lower is better for the taker. A zero out gives 0.
func GetRate(out, in Amount) uint64 {
	if out.IsZero() {
		return 0
	}
	r := divTo(in, out, false, types.Issue{}, false)
	if r.IsZero() || r.IsNegative() {
		return 0
	}
	return uint64(r.exponent+100)<<56 | uint64(r.value)
}

// FromRate decodes an encoded quality into a dimensionless amount.
func FromRate(rate uint64) Amount {
	if rate == 0 {
		return Amount{exponent: zeroExponent}
	}
	mantissa := int64(rate & (1<<56 - 1))
	exponent := int(rate>>56) - 100
	return NewIssued(mantissa, exponent, types.Issue{})
}
