// Package journal records settled payments in a relational database.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound = errors.New("journal record not found")
	ErrClosed         = errors.New("journal is closed")
	ErrInvalidDriver  = errors.New("invalid journal driver")
)

// Record is one settlement attempt. Amounts are kept in their text form.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Deliver   string    `json:"deliver"`
	SendMax   string    `json:"send_max"`
	Delivered string    `json:"delivered"`
	Spent     string    `json:"spent"`
	Result    string    `json:"result"`
	Rounds    int       `json:"rounds"`
	Committed bool      `json:"committed"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal stores settlement records.
type Journal interface {
	// Append stores r. A zero ID or CreatedAt is filled in and returned.
	Append(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// None discards every record.
type None struct{}

func (None) Append(_ context.Context, r Record) (Record, error) {
	return stamp(r), nil
}

func (None) Get(context.Context, uuid.UUID) (*Record, error) {
	return nil, ErrRecordNotFound
}

func (None) Recent(context.Context, int) ([]Record, error) {
	return nil, nil
}

func (None) Close() error { return nil }

func stamp(r Record) Record {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}
