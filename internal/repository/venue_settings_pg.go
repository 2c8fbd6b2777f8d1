package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/jmoiron/sqlx"
)

const venueTable = "auctionbot_venues"

// PostgresVenueSettingsRepo stores one flat row per venue.
type PostgresVenueSettingsRepo struct {
	db      *sqlx.DB
	allowed map[string]bool
}

func NewPostgresVenueSettingsRepo(db *sqlx.DB) *PostgresVenueSettingsRepo {
	repo := &PostgresVenueSettingsRepo{db: db, allowed: make(map[string]bool)}
	for _, col := range model.SettingsColumns() {
		repo.allowed[col] = true
	}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresVenueSettingsRepo) Load(ctx context.Context, venue model.VenueID) (*model.VenueSettings, error) {
	row := map[string]interface{}{}
	query := fmt.Sprintf(`SELECT * FROM %s WHERE venue = $1 LIMIT 1`, venueTable)
	err := r.db.QueryRowxContext(ctx, query, int(venue)).MapScan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrVenueSettingsNotFound
		}
		return nil, fmt.Errorf("load venue settings: %w", err)
	}
	return settingsFromRow(venue, row)
}

func (r *PostgresVenueSettingsRepo) Save(ctx context.Context, s *model.VenueSettings) error {
	if s == nil {
		return nil
	}
	cols := model.SettingsColumns()
	values := s.Columns()

	names := []string{"venue", "house_id", "name"}
	args := []interface{}{int(s.Venue), int(s.Venue.House()), s.Name}
	updates := []string{"name = EXCLUDED.name"}
	for _, col := range cols {
		names = append(names, col)
		args = append(args, int64(values[col]))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (venue) DO UPDATE SET %s`,
		venueTable, strings.Join(names, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save venue settings: %w", err)
	}
	return nil
}

// UpdateColumns writes each column in one transaction; unknown columns abort before any write.
func (r *PostgresVenueSettingsRepo) UpdateColumns(ctx context.Context, venue model.VenueID, cols map[string]uint32) error {
	for col := range cols {
		if !r.allowed[col] {
			return fmt.Errorf("update venue settings: unknown column %q", col)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin venue settings tx: %w", err)
	}
	defer tx.Rollback()

	for col, v := range cols {
		query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE venue = $2`, venueTable, col)
		res, err := tx.ExecContext(ctx, query, int64(v), int(venue))
		if err != nil {
			return fmt.Errorf("update %s: %w", col, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return service.ErrVenueSettingsNotFound
		}
	}
	return tx.Commit()
}

// settingsFromRow maps a MapScan row onto the settings struct.
func settingsFromRow(venue model.VenueID, row map[string]interface{}) (*model.VenueSettings, error) {
	s := model.VenueSettings{Venue: venue, Name: venue.String()}
	if raw, ok := row["name"]; ok && raw != nil {
		switch v := raw.(type) {
		case string:
			s.Name = v
		case []byte:
			s.Name = string(v)
		}
	}
	for _, col := range model.SettingsColumns() {
		raw, ok := row[col]
		if !ok || raw == nil {
			continue
		}
		v, err := toUint32(raw)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		s.SetColumn(col, v)
	}
	return &s, nil
}

func toUint32(raw interface{}) (uint32, error) {
	switch v := raw.(type) {
	case int64:
		return uint32(v), nil
	case int32:
		return uint32(v), nil
	case int:
		return uint32(v), nil
	case float64:
		return uint32(v), nil
	case []byte:
		var n uint32
		_, err := fmt.Sscan(string(v), &n)
		return n, err
	case string:
		var n uint32
		_, err := fmt.Sscan(v, &n)
		return n, err
	}
	return 0, fmt.Errorf("unsupported type %T", raw)
}

func (r *PostgresVenueSettingsRepo) ensureSchema(ctx context.Context) error {
	defs := []string{
		"venue SMALLINT PRIMARY KEY",
		"house_id INTEGER NOT NULL",
		"name TEXT NOT NULL DEFAULT ''",
	}
	for _, col := range model.SettingsColumns() {
		defs = append(defs, col+" BIGINT NOT NULL DEFAULT 0")
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`,
		venueTable, strings.Join(defs, ", ")))
	return err
}
