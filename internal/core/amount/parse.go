package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/LeJamon/ripplecalc/internal/core/types"
)

// ErrInvalidAmount is returned for unparsable amount text.
var ErrInvalidAmount = errors.New("invalid amount")

// maxDigits is the number of significant digits kept when parsing.
const maxDigits = 17

// Parse reads a value in issue. Native values are integer drops; issued
// values are decimals with an optional exponent ("1.5", "-2e-3").
func Parse(value string, issue types.Issue) (Amount, error) {
	if issue.IsXRP() {
		drops, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: drops %q", ErrInvalidAmount, value)
		}
		if drops > MaxNativeDrops || drops < -MaxNativeDrops {
			return Amount{}, fmt.Errorf("%w: drops %q out of range", ErrInvalidAmount, value)
		}
		return NewXRP(drops), nil
	}

	mantissa, exponent, err := parseDecimal(value)
	if err != nil {
		return Amount{}, err
	}
	return NewIssued(mantissa, exponent, issue), nil
}

// MustParse is Parse for constants; it panics on error.
func MustParse(value string, issue types.Issue) Amount {
	a, err := Parse(value, issue)
	if err != nil {
		panic(err)
	}
	return a
}

func parseDecimal(value string) (int64, int, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	exponent := 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: exponent in %q", ErrInvalidAmount, value)
		}
		exponent = e
		s = s[:i]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	digits := intPart + fracPart
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
	}
	exponent -= len(fracPart)

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return 0, zeroExponent, nil
	}
	if len(digits) > maxDigits {
		exponent += len(digits) - maxDigits
		digits = digits[:maxDigits]
	}
	mantissa, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if negative {
		mantissa = -mantissa
	}
	return mantissa, exponent, nil
}

type jsonIssued struct {
	Value    string          `json:"value"`
	Currency types.Currency  `json:"currency"`
	Issuer   types.AccountID `json:"issuer"`
}

// MarshalJSON writes native amounts as a drops string and issued amounts
// as a value/currency/issuer object.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.native {
		return json.Marshal(a.Value())
	}
	return json.Marshal(jsonIssued{Value: a.Value(), Currency: a.Currency, Issuer: a.Issuer})
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var drops string
	if err := json.Unmarshal(data, &drops); err == nil {
		parsed, err := Parse(drops, types.XRPIssue())
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	var obj jsonIssued
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	parsed, err := Parse(obj.Value, types.NewIssue(obj.Currency, obj.Issuer))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
