// Package settle runs payments against a ledger it owns exclusively,
// committing their effects and reporting every attempt.
package settle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/view"
	"github.com/LeJamon/ripplecalc/internal/core/paths"
	"github.com/LeJamon/ripplecalc/internal/feed"
	"github.com/LeJamon/ripplecalc/internal/fixture"
	"github.com/LeJamon/ripplecalc/internal/metrics"
	"github.com/LeJamon/ripplecalc/internal/storage/journal"
	"github.com/google/uuid"
)

var ErrClosed = errors.New("settlement service is closed")

// Atomic ledgers commit a group of writes all at once.
type Atomic interface {
	Atomic(ctx context.Context, fn func() error) error
}

// Config wires a Service. Only Ledger is required.
type Config struct {
	Ledger  view.View
	Journal journal.Journal
	Metrics *metrics.Metrics
	Feed    *feed.Hub
	Options paths.Options
	Logger  *slog.Logger
}

// Service serialises settlements over one ledger.
type Service struct {
	mu      sync.Mutex
	ledger  view.View
	journal journal.Journal
	metrics *metrics.Metrics
	feed    *feed.Hub
	opts    paths.Options
	log     *slog.Logger
	closed  bool
}

// Settlement is the outcome of one Settle call.
type Settlement struct {
	Record  journal.Record
	Outcome *paths.Outcome
}

// Event is what the feed broadcasts for each settlement.
type Event struct {
	Type          string         `json:"type"`
	Record        journal.Record `json:"record"`
	RemovedOffers int            `json:"removed_offers"`
}

func New(cfg Config) *Service {
	s := &Service{
		ledger:  cfg.Ledger,
		journal: cfg.Journal,
		metrics: cfg.Metrics,
		feed:    cfg.Feed,
		opts:    cfg.Options,
		log:     cfg.Logger,
	}
	if s.journal == nil {
		s.journal = journal.None{}
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.opts.Logger == nil {
		s.opts.Logger = s.log.With("component", "paths")
	}
	return s
}

// Settle computes req against the ledger. With commit set, the changes the
// computation leaves are written to the ledger: the payment itself on
// success, only the removal of unusable offers otherwise. Without commit
// the ledger is untouched.
func (s *Service) Settle(ctx context.Context, req paths.Request, commit bool) (*Settlement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	sb := view.NewSandbox(s.ledger)
	out := paths.Calculate(sb, req, s.opts)

	committed := false
	if commit && !sb.Empty() {
		if err := s.apply(ctx, sb); err != nil {
			s.log.Error("ledger commit failed", "error", err)
			return nil, fmt.Errorf("failed to commit settlement: %w", err)
		}
		committed = true
	}

	rec := journal.Record{
		Sender:    req.Sender.String(),
		Receiver:  req.Receiver.String(),
		Deliver:   fixture.FormatAmount(req.Deliver),
		SendMax:   fixture.FormatAmount(req.SendMax),
		Delivered: fixture.FormatAmount(out.Delivered),
		Spent:     fixture.FormatAmount(out.Spent),
		Result:    out.Result.String(),
		Rounds:    out.Rounds,
		Committed: committed,
	}
	stored, err := s.journal.Append(ctx, rec)
	if err != nil {
		s.metrics.JournalError()
		s.log.Warn("settlement not journaled", "error", err)
	}
	rec = stored

	s.metrics.ObserveSettlement(rec.Result, committed, out.Rounds, len(out.RemovedOffers), time.Since(start))
	s.feed.Publish(Event{Type: "settlement", Record: rec, RemovedOffers: len(out.RemovedOffers)}, rec.Sender, rec.Receiver)
	s.log.Info("settlement",
		"id", rec.ID.String(),
		"result", rec.Result,
		"delivered", rec.Delivered,
		"spent", rec.Spent,
		"rounds", rec.Rounds,
		"committed", committed)

	return &Settlement{Record: rec, Outcome: out}, nil
}

func (s *Service) apply(ctx context.Context, sb *view.Sandbox) error {
	if a, ok := s.ledger.(Atomic); ok {
		return a.Atomic(ctx, sb.ApplyToView)
	}
	return sb.ApplyToView()
}

// Get returns one journaled settlement.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*journal.Record, error) {
	return s.journal.Get(ctx, id)
}

// Recent returns the newest journaled settlements.
func (s *Service) Recent(ctx context.Context, limit int) ([]journal.Record, error) {
	return s.journal.Recent(ctx, limit)
}

// Close stops accepting settlements and releases the journal and the feed.
// The ledger stays open for its owner to close.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.feed != nil {
		s.feed.Close()
	}
	return s.journal.Close()
}
