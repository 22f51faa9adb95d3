package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/fixture"
)

// outcomeReport is the printable form of a paths.Outcome.
type outcomeReport struct {
	Result        string       `json:"result"`
	Kind          string       `json:"kind"`
	Message       string       `json:"message"`
	Delivered     string       `json:"delivered"`
	Spent         string       `json:"spent"`
	Rounds        int          `json:"rounds"`
	RemovedOffers []string     `json:"removed_offers,omitempty"`
	Paths         []pathReport `json:"paths"`
}

type pathReport struct {
	Index   int          `json:"index"`
	Status  string       `json:"status"`
	Quality string       `json:"quality"`
	Nodes   []nodeReport `json:"nodes"`
}

type nodeReport struct {
	Offer    bool   `json:"offer,omitempty"`
	Account  string `json:"account,omitempty"`
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

func newOutcomeReport(out *paths.Outcome) outcomeReport {
	rep := outcomeReport{
		Result:    out.Result.String(),
		Kind:      out.Result.Kind().String(),
		Message:   out.Result.Message(),
		Delivered: fixture.FormatAmount(out.Delivered),
		Spent:     fixture.FormatAmount(out.Spent),
		Rounds:    out.Rounds,
	}
	for _, key := range out.RemovedOffers {
		rep.RemovedOffers = append(rep.RemovedOffers, hex.EncodeToString(key[:]))
	}
	for _, p := range out.Paths {
		pr := pathReport{
			Index:   p.Index,
			Status:  p.Status.String(),
			Quality: strconv.FormatUint(p.Quality, 10),
		}
		for _, n := range p.Nodes {
			nr := nodeReport{Offer: n.Offer, Currency: n.Currency.String()}
			if !n.Account.IsZero() {
				nr.Account = n.Account.String()
			}
			if !n.Issuer.IsZero() {
				nr.Issuer = n.Issuer.String()
			}
			pr.Nodes = append(pr.Nodes, nr)
		}
		rep.Paths = append(rep.Paths, pr)
	}
	return rep
}

func (r outcomeReport) writeJSON(w io.Writer) error {
	return writeJSON(w, r)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r outcomeReport) writeText(w io.Writer) {
	fmt.Fprintf(w, "Result:    %s (%s)\n", r.Result, r.Message)
	fmt.Fprintf(w, "Delivered: %s\n", r.Delivered)
	fmt.Fprintf(w, "Spent:     %s\n", r.Spent)
	fmt.Fprintf(w, "Rounds:    %d\n", r.Rounds)
	for _, p := range r.Paths {
		fmt.Fprintf(w, "  path %d: %-18s quality %s, %d nodes\n", p.Index, p.Status, p.Quality, len(p.Nodes))
	}
	for _, key := range r.RemovedOffers {
		fmt.Fprintf(w, "  removed offer %s\n", key)
	}
}
