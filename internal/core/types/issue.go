package types

// Issue names an asset: a currency and the account that issues it.
// XRP has the zero issuer.
type Issue struct {
	Currency Currency
	Issuer   AccountID
}

// XRPIssue is the issue of the native currency.
func XRPIssue() Issue {
	return Issue{}
}

// NewIssue builds an issue, clearing the issuer for XRP.
func NewIssue(currency Currency, issuer AccountID) Issue {
	if currency.IsXRP() {
		return Issue{}
	}
	return Issue{Currency: currency, Issuer: issuer}
}

func (i Issue) IsXRP() bool {
	return i.Currency.IsXRP()
}

func (i Issue) String() string {
	if i.IsXRP() {
		return "XRP"
	}
	return i.Currency.String() + "/" + i.Issuer.String()
}
