package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/jmoiron/sqlx"
)

type PostgresActivityRepo struct {
	db *sqlx.DB
}

func NewPostgresActivityRepo(db *sqlx.DB) *PostgresActivityRepo {
	repo := &PostgresActivityRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresActivityRepo) Insert(ctx context.Context, entry *model.ActivityLog) error {
	if entry == nil {
		return nil
	}
	contextJSON, _ := json.Marshal(entry.Context)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auctionbot_activity (
			id, venue, kind, listing_id, item_entry, amount, actor, context, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.Venue, string(entry.Kind), int64(entry.ListingID), int64(entry.ItemEntry),
		int64(entry.Amount), entry.Actor, contextJSON, entry.CreatedAt)
	return err
}

func (r *PostgresActivityRepo) List(ctx context.Context, filter service.ActivityFilter) ([]*model.ActivityLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT id, venue, kind, listing_id, item_entry, amount, actor, context, created_at FROM auctionbot_activity`
	clauses := []string{}
	args := []interface{}{}
	idx := 1

	if filter.Venue != "" {
		clauses = append(clauses, fmt.Sprintf("venue = $%d", idx))
		args = append(args, filter.Venue)
		idx++
	}
	if filter.Kind != "" {
		clauses = append(clauses, fmt.Sprintf("kind = $%d", idx))
		args = append(args, string(filter.Kind))
		idx++
	}
	if filter.From != nil {
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", idx))
		args = append(args, *filter.To)
		idx++
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*model.ActivityLog, 0, limit)
	for rows.Next() {
		var entry model.ActivityLog
		var kind string
		var listingID, itemEntry, amount int64
		var contextJSON []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Venue,
			&kind,
			&listingID,
			&itemEntry,
			&amount,
			&entry.Actor,
			&contextJSON,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.Kind = model.ActivityKind(kind)
		entry.ListingID = uint64(listingID)
		entry.ItemEntry = uint32(itemEntry)
		entry.Amount = uint64(amount)
		if len(contextJSON) > 0 {
			_ = json.Unmarshal(contextJSON, &entry.Context)
		} else {
			entry.Context = map[string]interface{}{}
		}
		records = append(records, &entry)
	}
	return records, rows.Err()
}

func (r *PostgresActivityRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auctionbot_activity (
			id TEXT PRIMARY KEY,
			venue TEXT,
			kind TEXT,
			listing_id BIGINT,
			item_entry BIGINT,
			amount BIGINT,
			actor TEXT,
			context JSONB,
			created_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_auctionbot_activity_venue ON auctionbot_activity(venue, created_at DESC)`)
	return nil
}

// Cleanup drops entries older than the retention window.
func (r *PostgresActivityRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := r.db.ExecContext(ctx, `DELETE FROM auctionbot_activity WHERE created_at < $1`, cutoff)
	return err
}
