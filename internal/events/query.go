package events

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ListByShop returns the most recent events for a shop, newest first.
// Used by operator tooling only.
func ListByShop(ctx context.Context, db *pgxpool.Pool, shopDomain string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id::text, shop_domain, event_type, COALESCE(detail, '{}'::jsonb), occurred_at
FROM install_events
WHERE shop_domain = $1
ORDER BY occurred_at DESC
LIMIT $2
`
	rows, err := db.Query(ctx, q, shopDomain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &e.ShopDomain, &typ, &e.Detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Type = Type(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
