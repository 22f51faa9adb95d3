package fixture

import (
	"github.com/LeJamon/ripplecalc/internal/core/paths"
)

// Payment describes a payment request.
type Payment struct {
	Sender   string `yaml:"sender" json:"sender"`
	Receiver string `yaml:"receiver" json:"receiver"`
	Deliver  string `yaml:"deliver" json:"deliver"`
	// SendMax defaults to Deliver issued by the sender.
	SendMax      string          `yaml:"send_max,omitempty" json:"send_max,omitempty"`
	Paths        [][]PathElement `yaml:"paths,omitempty" json:"paths,omitempty"`
	Partial      bool            `yaml:"partial,omitempty" json:"partial,omitempty"`
	LimitQuality bool            `yaml:"limit_quality,omitempty" json:"limit_quality,omitempty"`
	NoDirect     bool            `yaml:"no_direct,omitempty" json:"no_direct,omitempty"`
}

// PathElement is one hop. Set Account for an account hop, Currency
// and/or Issuer for an offer hop.
type PathElement struct {
	Account  string `yaml:"account,omitempty" json:"account,omitempty"`
	Currency string `yaml:"currency,omitempty" json:"currency,omitempty"`
	Issuer   string `yaml:"issuer,omitempty" json:"issuer,omitempty"`
}

// Expect is the outcome a scenario asserts.
type Expect struct {
	Result    string `yaml:"result" json:"result"`
	Delivered string `yaml:"delivered,omitempty" json:"delivered,omitempty"`
	Spent     string `yaml:"spent,omitempty" json:"spent,omitempty"`
}

// Scenario bundles a ledger, a payment and optionally its expected outcome.
type Scenario struct {
	Name    string  `yaml:"name" json:"name"`
	Ledger  Ledger  `yaml:"ledger" json:"ledger"`
	Payment Payment `yaml:"payment" json:"payment"`
	Expect  *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// ParsePayment decodes a payment fixture.
func ParsePayment(data []byte) (*Payment, error) {
	var p Payment
	if err := decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPayment reads a payment fixture from path.
func LoadPayment(path string) (*Payment, error) {
	var p Payment
	if err := readFile(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadScenario reads a scenario from path.
func LoadScenario(path string) (*Scenario, error) {
	var s Scenario
	if err := readFile(path, &s); err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// Request resolves p into an engine request.
func (p *Payment) Request(r *Resolver) (paths.Request, error) {
	var req paths.Request
	var err error
	if req.Sender, err = r.Account(p.Sender); err != nil {
		return req, err
	}
	if req.Receiver, err = r.Account(p.Receiver); err != nil {
		return req, err
	}
	if req.Deliver, err = r.Amount(p.Deliver); err != nil {
		return req, err
	}
	if p.SendMax == "" {
		req.SendMax = req.Deliver.WithIssuer(req.Sender)
	} else if req.SendMax, err = r.Amount(p.SendMax); err != nil {
		return req, err
	}

	for i, path := range p.Paths {
		elements := make([]paths.Element, 0, len(path))
		for j, pe := range path {
			e, err := pe.element(r)
			if err != nil {
				return req, malformed("path %d element %d: %v", i, j, err)
			}
			elements = append(elements, e)
		}
		req.Paths = append(req.Paths, elements)
	}
	req.Partial = p.Partial
	req.LimitQuality = p.LimitQuality
	req.NoDirect = p.NoDirect
	return req, nil
}

func (pe PathElement) element(r *Resolver) (paths.Element, error) {
	var e paths.Element
	if pe.Account != "" {
		id, err := r.Account(pe.Account)
		if err != nil {
			return e, err
		}
		e.Type |= paths.TypeAccount
		e.Account = id
	}
	if pe.Currency != "" {
		issue, err := r.Issue(pe.Currency, "")
		if err != nil {
			return e, err
		}
		e.Type |= paths.TypeCurrency
		e.Currency = issue.Currency
	}
	if pe.Issuer != "" {
		id, err := r.Account(pe.Issuer)
		if err != nil {
			return e, err
		}
		e.Type |= paths.TypeIssuer
		e.Issuer = id
	}
	return e, nil
}
