// Package fixture reads ledger and payment descriptions from YAML (or JSON)
// files and loads them into a view.
//
// Accounts are referenced either by classic address or by a name; a name
// resolves to the account of the deterministic key pair derived from it.
// Amounts are written "value/CUR/issuer" for issued currencies and as a
// plain integer of drops for XRP.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/LeJamon/ripplecalc/internal/core/amount"
	"github.com/LeJamon/ripplecalc/internal/core/types"
	"gopkg.in/yaml.v3"
)

var ErrMalformedFixture = errors.New("malformed fixture")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFixture, fmt.Sprintf(format, args...))
}

// decode strictly unmarshals data into out. JSON documents are valid YAML.
func decode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFixture, err)
	}
	return nil
}

func readFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}
	if err := decode(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Resolver maps account references to ids, caching derived names.
type Resolver struct {
	names map[string]types.AccountID
}

func NewResolver() *Resolver {
	return &Resolver{names: make(map[string]types.AccountID)}
}

// Account resolves ref as an address first, then as a name.
func (r *Resolver) Account(ref string) (types.AccountID, error) {
	if ref == "" {
		return types.AccountID{}, malformed("empty account reference")
	}
	if id, ok := r.names[ref]; ok {
		return id, nil
	}
	id, err := types.ParseAccountID(ref)
	if err != nil {
		if id, err = types.AccountFromName(ref); err != nil {
			return types.AccountID{}, err
		}
	}
	r.names[ref] = id
	return id, nil
}

// Amount parses the fixture amount notation.
func (r *Resolver) Amount(s string) (amount.Amount, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	switch len(parts) {
	case 1:
		drops, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return amount.Amount{}, malformed("bad drops amount %q", s)
		}
		return amount.NewXRP(drops), nil
	case 3:
		currency, err := types.ParseCurrency(parts[1])
		if err != nil {
			return amount.Amount{}, malformed("bad currency in %q: %v", s, err)
		}
		if currency.IsXRP() {
			return amount.Amount{}, malformed("XRP is written in drops: %q", s)
		}
		issuer, err := r.Account(parts[2])
		if err != nil {
			return amount.Amount{}, err
		}
		a, err := amount.Parse(parts[0], types.NewIssue(currency, issuer))
		if err != nil {
			return amount.Amount{}, malformed("bad value in %q: %v", s, err)
		}
		return a, nil
	}
	return amount.Amount{}, malformed("bad amount %q", s)
}

// Issue parses a currency code and an optional issuer reference.
func (r *Resolver) Issue(currency, issuer string) (types.Issue, error) {
	cur, err := types.ParseCurrency(currency)
	if err != nil {
		return types.Issue{}, malformed("bad currency %q: %v", currency, err)
	}
	if cur.IsXRP() || issuer == "" {
		return types.Issue{Currency: cur}, nil
	}
	id, err := r.Account(issuer)
	if err != nil {
		return types.Issue{}, err
	}
	return types.NewIssue(cur, id), nil
}

// FormatAmount writes a in the fixture notation.
func FormatAmount(a amount.Amount) string {
	if a.IsNative() {
		return a.Value()
	}
	return a.Value() + "/" + a.Currency.String() + "/" + a.Issuer.String()
}

// parseRate reads a decimal ratio such as "1.002" as a billionths rate.
func parseRate(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	scaled := math.Round(f * float64(amount.QualityOne))
	if err != nil || scaled <= 0 || scaled > math.MaxUint32 {
		return 0, malformed("bad rate %q", s)
	}
	return uint32(scaled), nil
}

func formatRate(q uint32) string {
	if q == 0 || q == amount.QualityOne {
		return ""
	}
	return strconv.FormatFloat(float64(q)/float64(amount.QualityOne), 'f', -1, 64)
}
