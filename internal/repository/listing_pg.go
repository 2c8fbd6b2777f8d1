package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresListingRepo persists listings and the items they hold.
type PostgresListingRepo struct {
	db *sqlx.DB
}

func NewPostgresListingRepo(db *sqlx.DB) *PostgresListingRepo {
	repo := &PostgresListingRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

// SaveNew writes the item and its listing in one transaction.
func (r *PostgresListingRepo) SaveNew(ctx context.Context, item *model.ItemInstance, l *model.Listing) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin listing tx: %w", err)
	}
	defer tx.Rollback()

	if item != nil {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO auctionbot_items (id, entry_id, owner, count, random_property_id)
			VALUES (:id, :entry_id, :owner, :count, :random_property_id)
			ON CONFLICT (id) DO UPDATE SET count = EXCLUDED.count, random_property_id = EXCLUDED.random_property_id
		`, item); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO auctionbot_listings (
			id, venue, item_id, item_entry, item_count, owner,
			start_bid, buyout, bid, bidder, deposit, expires_at
		) VALUES (
			:id, :venue, :item_id, :item_entry, :item_count, :owner,
			:start_bid, :buyout, :bid, :bidder, :deposit, :expires_at
		)
	`, l); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return tx.Commit()
}

func (r *PostgresListingRepo) UpdateBid(ctx context.Context, l *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auctionbot_listings SET bidder = $1, bid = $2 WHERE id = $3`,
		l.Bidder, l.Bid, l.ID)
	if err != nil {
		return fmt.Errorf("update bid: %w", err)
	}
	return nil
}

// Delete removes the listing and its item together.
func (r *PostgresListingRepo) Delete(ctx context.Context, l *model.Listing) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM auctionbot_listings WHERE id = $1`, l.ID); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM auctionbot_items WHERE id = $1`, l.ItemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return tx.Commit()
}

func (r *PostgresListingRepo) Expire(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE auctionbot_listings SET expires_at = ? WHERE id IN (?)`, at, ids)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("expire listings: %w", err)
	}
	return nil
}

func (r *PostgresListingRepo) Candidates(ctx context.Context, venue model.VenueID, character uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM auctionbot_listings WHERE venue = $1 AND owner <> $2 AND bidder <> $2 ORDER BY id`,
		venue, character)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	return ids, nil
}

// StoredListing is one persisted listing with its item.
type StoredListing struct {
	model.Listing
	Item model.ItemInstance
}

type storedListingRow struct {
	model.Listing
	EntryID          uint32 `db:"entry_id"`
	ItemOwner        uint64 `db:"item_owner"`
	Count            uint32 `db:"count"`
	RandomPropertyID uint32 `db:"random_property_id"`
}

// LoadAll returns every persisted listing for restoring the marketplace on startup.
func (r *PostgresListingRepo) LoadAll(ctx context.Context) ([]StoredListing, error) {
	var rows []storedListingRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT l.id, l.venue, l.item_id, l.item_entry, l.item_count, l.owner,
		       l.start_bid, l.buyout, l.bid, l.bidder, l.deposit, l.expires_at,
		       i.entry_id, i.owner AS item_owner, i.count, i.random_property_id
		FROM auctionbot_listings l
		JOIN auctionbot_items i ON i.id = l.item_id
		ORDER BY l.id
	`)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	out := make([]StoredListing, 0, len(rows))
	for _, row := range rows {
		out = append(out, StoredListing{
			Listing: row.Listing,
			Item: model.ItemInstance{
				ID:               row.ItemID,
				EntryID:          row.EntryID,
				Owner:            row.ItemOwner,
				Count:            row.Count,
				RandomPropertyID: row.RandomPropertyID,
			},
		})
	}
	return out, nil
}

func (r *PostgresListingRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auctionbot_items (
			id BIGINT PRIMARY KEY,
			entry_id BIGINT NOT NULL,
			owner BIGINT NOT NULL,
			count BIGINT NOT NULL DEFAULT 1,
			random_property_id BIGINT NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auctionbot_listings (
			id BIGINT PRIMARY KEY,
			venue SMALLINT NOT NULL,
			item_id BIGINT NOT NULL,
			item_entry BIGINT NOT NULL,
			item_count BIGINT NOT NULL,
			owner BIGINT NOT NULL,
			start_bid BIGINT NOT NULL,
			buyout BIGINT NOT NULL,
			bid BIGINT NOT NULL DEFAULT 0,
			bidder BIGINT NOT NULL DEFAULT 0,
			deposit BIGINT NOT NULL DEFAULT 0,
			expires_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_auctionbot_listings_venue ON auctionbot_listings(venue, owner, bidder)`)
	return nil
}
