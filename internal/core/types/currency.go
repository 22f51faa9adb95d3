package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCurrency is returned by ParseCurrency.
var ErrInvalidCurrency = errors.New("invalid currency code")

// Currency is a 160-bit currency code. The zero value is XRP. Standard
// three letter codes occupy bytes 12 to 14.
type Currency [20]byte

// XRP is the native currency.
var XRP = Currency{}

// ParseCurrency accepts "XRP", a three character ISO-style code or 40 hex
// digits.
func ParseCurrency(code string) (Currency, error) {
	var c Currency
	switch {
	case code == "" || code == "XRP":
		return XRP, nil
	case len(code) == 3:
		for i := 0; i < 3; i++ {
			if code[i] < 0x21 || code[i] > 0x7e {
				return c, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
			}
		}
		copy(c[12:15], code)
		return c, nil
	case len(code) == 40:
		raw, err := hex.DecodeString(code)
		if err != nil {
			return c, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
		copy(c[:], raw)
		if c[0] == 0 && c.isStandard() && string(c[12:15]) == "XRP" {
			return c, fmt.Errorf("%w: XRP as issued currency", ErrInvalidCurrency)
		}
		return c, nil
	}
	return c, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
}

// MustCurrency is ParseCurrency for constants; it panics on error.
func MustCurrency(code string) Currency {
	c, err := ParseCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// IsXRP reports whether c is the native currency.
func (c Currency) IsXRP() bool {
	return c == XRP
}

func (c Currency) isStandard() bool {
	for i, b := range c {
		if (i < 12 || i > 14) && b != 0 {
			return false
		}
	}
	return true
}

func (c Currency) String() string {
	if c.IsXRP() {
		return "XRP"
	}
	if c.isStandard() {
		return string(c[12:15])
	}
	return strings.ToUpper(hex.EncodeToString(c[:]))
}

func (c Currency) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Currency) UnmarshalText(text []byte) error {
	parsed, err := ParseCurrency(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
