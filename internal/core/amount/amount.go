// Package amount implements the signed decimal amounts moved by payments.
//
// A native amount is an integer count of drops. An issued amount is a
// normalized mantissa in [10^15, 10^16) with an exponent in [-96, 80];
// zero has mantissa 0 and exponent -100.
package amount

import (
	"strconv"
	"strings"

	"github.com/LeJamon/ripplecalc/internal/core/types"
)

const (
	MinExponent = -96
	MaxExponent = 80

	MinMantissa int64 = 1_000_000_000_000_000
	MaxMantissa int64 = 9_999_999_999_999_999

	// MaxNativeDrops is the total supply in drops.
	MaxNativeDrops int64 = 100_000_000_000_000_000

	zeroExponent = -100
)

// Amount is either a native amount or an issued amount. Issued amounts
// with the zero issue are dimensionless and carry rates.
type Amount struct {
	value    int64
	exponent int
	native   bool

	Currency types.Currency
	Issuer   types.AccountID
}

// NewXRP returns a native amount of drops.
func NewXRP(drops int64) Amount {
	return Amount{value: drops, native: true}
}

// NewIssued returns the normalized issued amount mantissa*10^exponent.
func NewIssued(mantissa int64, exponent int, issue types.Issue) Amount {
	a := Amount{value: mantissa, exponent: exponent, Currency: issue.Currency, Issuer: issue.Issuer}
	a.normalize()
	return a
}

// Zero returns the zero amount of issue: native for XRP.
func Zero(issue types.Issue) Amount {
	if issue.IsXRP() {
		return NewXRP(0)
	}
	return Amount{exponent: zeroExponent, Currency: issue.Currency, Issuer: issue.Issuer}
}

func (a *Amount) normalize() {
	if a.native {
		return
	}
	if a.value == 0 {
		a.exponent = zeroExponent
		return
	}

	negative := a.value < 0
	m := a.value
	if negative {
		m = -m
	}
	for m < MinMantissa && a.exponent > MinExponent {
		m *= 10
		a.exponent--
	}
	for m > MaxMantissa {
		if a.exponent >= MaxExponent {
			panic("amount overflow")
		}
		m /= 10
		a.exponent++
	}
	if a.exponent < MinExponent || m < MinMantissa {
		a.value = 0
		a.exponent = zeroExponent
		return
	}
	if a.exponent > MaxExponent {
		panic("amount overflow")
	}
	if negative {
		m = -m
	}
	a.value = m
}

// IsNative reports whether a counts drops.
func (a Amount) IsNative() bool {
	return a.native
}

// Issue returns the asset of a.
func (a Amount) Issue() types.Issue {
	if a.native {
		return types.XRPIssue()
	}
	return types.Issue{Currency: a.Currency, Issuer: a.Issuer}
}

// WithIssuer returns a with its issuer replaced. Native amounts are
// returned unchanged.
func (a Amount) WithIssuer(issuer types.AccountID) Amount {
	if a.native {
		return a
	}
	a.Issuer = issuer
	return a
}

// WithIssue returns the same value expressed in issue. The kind of the
// value must match the kind of issue.
func (a Amount) WithIssue(issue types.Issue) Amount {
	if a.native != issue.IsXRP() {
		panic("amount: cannot change between native and issued")
	}
	if a.native {
		return a
	}
	a.Currency = issue.Currency
	a.Issuer = issue.Issuer
	return a
}

// Drops returns the drops of a native amount and 0 otherwise.
func (a Amount) Drops() int64 {
	if !a.native {
		return 0
	}
	return a.value
}

// Mantissa returns the mantissa of an issued amount or the drops of a
// native amount.
func (a Amount) Mantissa() int64 {
	return a.value
}

// Exponent returns the exponent of an issued amount, 0 for native.
func (a Amount) Exponent() int {
	if a.native {
		return 0
	}
	return a.exponent
}

func (a Amount) IsZero() bool {
	return a.value == 0
}

func (a Amount) IsNegative() bool {
	return a.value < 0
}

func (a Amount) IsPositive() bool {
	return a.value > 0
}

// Signum returns -1, 0 or 1.
func (a Amount) Signum() int {
	switch {
	case a.value < 0:
		return -1
	case a.value > 0:
		return 1
	}
	return 0
}

func (a Amount) Negate() Amount {
	a.value = -a.value
	return a
}

func (a Amount) Abs() Amount {
	if a.value < 0 {
		a.value = -a.value
	}
	return a
}

// ZeroOf returns the zero amount with the issue of a.
func (a Amount) ZeroOf() Amount {
	if a.native {
		return NewXRP(0)
	}
	return Amount{exponent: zeroExponent, Currency: a.Currency, Issuer: a.Issuer}
}

// Add returns a+b with the issue of a. Adding a native and an issued
// amount panics.
func (a Amount) Add(b Amount) Amount {
	if a.native != b.native {
		panic("amount: cannot add native and issued amounts")
	}
	if a.native {
		return NewXRP(a.value + b.value)
	}
	if a.value == 0 {
		return b.WithIssue(a.Issue())
	}
	if b.value == 0 {
		return a
	}

	am, ae := a.value, a.exponent
	bm, be := b.value, b.exponent
	for ae < be {
		am /= 10
		ae++
	}
	for be < ae {
		bm /= 10
		be++
	}

	sum := am + bm
	if sum >= -10 && sum <= 10 {
		return a.ZeroOf()
	}
	return NewIssued(sum, ae, a.Issue())
}

// Sub returns a-b with the issue of a.
func (a Amount) Sub(b Amount) Amount {
	return a.Add(b.Negate())
}

// Compare compares the values of a and b, ignoring their issues.
// Native amounts order before issued ones when the kinds differ.
func (a Amount) Compare(b Amount) int {
	if a.native != b.native {
		if a.native {
			return -1
		}
		return 1
	}
	if a.native {
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		}
		return 0
	}

	as, bs := a.Signum(), b.Signum()
	if as != bs {
		if as < bs {
			return -1
		}
		return 1
	}
	if as == 0 {
		return 0
	}
	cmp := 0
	switch {
	case a.exponent > b.exponent:
		cmp = 1
	case a.exponent < b.exponent:
		cmp = -1
	case a.value > b.value:
		return 1
	case a.value < b.value:
		return -1
	default:
		return 0
	}
	if as < 0 {
		cmp = -cmp
	}
	return cmp
}

// Equal reports whether a and b have the same value and issue.
func (a Amount) Equal(b Amount) bool {
	return a.native == b.native && a.Compare(b) == 0 && a.Issue() == b.Issue()
}

func (a Amount) LessThan(b Amount) bool    { return a.Compare(b) < 0 }
func (a Amount) GreaterThan(b Amount) bool { return a.Compare(b) > 0 }

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if b.Compare(a) < 0 {
		return b
	}
	return a
}

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if b.Compare(a) > 0 {
		return b
	}
	return a
}

// Value returns the decimal text of the value: drops for native amounts.
func (a Amount) Value() string {
	if a.native {
		return strconv.FormatInt(a.value, 10)
	}
	return formatIssued(a.value, a.exponent)
}

// String returns value and asset, e.g. "12.5/USD/r..." or "100 drops".
func (a Amount) String() string {
	if a.native {
		return a.Value() + " drops"
	}
	if a.Currency.IsXRP() && a.Issuer.IsZero() {
		return a.Value()
	}
	return a.Value() + "/" + a.Issue().String()
}

// Float64 is for logging and metrics only.
func (a Amount) Float64() float64 {
	if a.native {
		return float64(a.value)
	}
	v, _ := strconv.ParseFloat(formatIssued(a.value, a.exponent), 64)
	return v
}

func formatIssued(mantissa int64, exponent int) string {
	if mantissa == 0 {
		return "0"
	}
	negative := mantissa < 0
	if negative {
		mantissa = -mantissa
	}

	digits := strconv.FormatInt(mantissa, 10)
	point := len(digits) + exponent

	var result string
	switch {
	case point <= 0:
		result = "0." + strings.Repeat("0", -point) + digits
	case exponent >= 0:
		result = digits + strings.Repeat("0", exponent)
	default:
		result = digits[:point] + "." + digits[point:]
	}
	if strings.Contains(result, ".") {
		result = strings.TrimRight(result, "0")
		result = strings.TrimRight(result, ".")
	}
	if negative {
		result = "-" + result
	}
	return result
}
