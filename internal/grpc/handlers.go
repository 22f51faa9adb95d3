package grpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/fixture"
	"github.com/LeJamon/ripplecalc/internal/settle"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Settler is the part of settle.Service the handlers need.
type Settler interface {
	Settle(ctx context.Context, req paths.Request, commit bool) (*settle.Settlement, error)
}

type settlementHandler struct {
	settler Settler
}

// Settle decodes the payment, settles it and reports the outcome. The
// request field "commit" selects whether the result is applied.
func (h *settlementHandler) Settle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	payment, commit, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	req, err := payment.Request(fixture.NewResolver())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s, err := h.settler.Settle(ctx, req, commit)
	switch {
	case errors.Is(err, settle.ErrClosed):
		return nil, status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return nil, status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return nil, status.Error(codes.DeadlineExceeded, err.Error())
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}

	switch s.Outcome.Result.Kind() {
	case paths.KindPathMalformed:
		return nil, status.Errorf(codes.InvalidArgument, "%s: %s", s.Outcome.Result, s.Outcome.Result.Message())
	case paths.KindInternal:
		return nil, status.Errorf(codes.Internal, "%s: %s", s.Outcome.Result, s.Outcome.Result.Message())
	}

	out, err := encodeSettlement(s)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func decodeRequest(in *structpb.Struct) (*fixture.Payment, bool, error) {
	fields := in.AsMap()
	commit := false
	if v, ok := fields["commit"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return nil, false, errors.New("commit must be a boolean")
		}
		commit = b
		delete(fields, "commit")
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, false, err
	}
	payment, err := fixture.ParsePayment(data)
	if err != nil {
		return nil, false, err
	}
	return payment, commit, nil
}

func encodeSettlement(s *settle.Settlement) (*structpb.Struct, error) {
	out := s.Outcome
	removed := make([]any, 0, len(out.RemovedOffers))
	for _, key := range out.RemovedOffers {
		removed = append(removed, hex.EncodeToString(key[:]))
	}
	reports := make([]any, 0, len(out.Paths))
	for _, p := range out.Paths {
		reports = append(reports, map[string]any{
			"index":   p.Index,
			"status":  p.Status.String(),
			"quality": strconv.FormatUint(p.Quality, 10),
			"nodes":   len(p.Nodes),
		})
	}
	return structpb.NewStruct(map[string]any{
		"id":             s.Record.ID.String(),
		"result":         out.Result.String(),
		"kind":           out.Result.Kind().String(),
		"message":        out.Result.Message(),
		"delivered":      s.Record.Delivered,
		"spent":          s.Record.Spent,
		"rounds":         out.Rounds,
		"committed":      s.Record.Committed,
		"removed_offers": removed,
		"paths":          reports,
	})
}
