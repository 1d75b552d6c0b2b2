package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type Type string

const (
	InstallRedirected   Type = "install_redirected"
	CallbackRejected    Type = "callback_rejected"
	TokenExchanged      Type = "token_exchanged"
	TokenExchangeFailed Type = "token_exchange_failed"
)

// Event is one step of an install handshake. Detail must never carry tokens, codes or signatures.
type Event struct {
	ID         string         `json:"id"`
	ShopDomain string         `json:"shopDomain"`
	Type       Type           `json:"eventType"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Recorder is a write-only sink; handlers never read events back.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db execer
}

// NewRepository accepts a *pgxpool.Pool (or anything with its Exec).
func NewRepository(db execer) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Record(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	var detail *string
	if len(e.Detail) > 0 {
		b, err := json.Marshal(e.Detail)
		if err != nil {
			return err
		}
		s := string(b)
		detail = &s
	}

	const q = `
INSERT INTO install_events (id, shop_domain, event_type, detail, occurred_at)
VALUES ($1, $2, $3, CAST($4 AS jsonb), $5)
`
	_, err := r.db.Exec(ctx, q, e.ID, e.ShopDomain, string(e.Type), detail, e.OccurredAt)
	return err
}
