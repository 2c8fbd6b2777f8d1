package repository

import (
	"context"
	"fmt"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresParticipantRepo checks the bot identity against the host's character table.
type PostgresParticipantRepo struct {
	db *sqlx.DB
}

func NewPostgresParticipantRepo(db *sqlx.DB) *PostgresParticipantRepo {
	repo := &PostgresParticipantRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresParticipantRepo) Exists(ctx context.Context, p model.Participant) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM characters WHERE guid = $1 AND account = $2)`,
		p.Character, p.Account)
	if err != nil {
		return false, fmt.Errorf("check character: %w", err)
	}
	return ok, nil
}

// Register inserts a character row; used to seed development databases.
func (r *PostgresParticipantRepo) Register(ctx context.Context, p model.Participant, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO characters (guid, account, name) VALUES ($1, $2, $3) ON CONFLICT (guid) DO NOTHING`,
		p.Character, p.Account, name)
	return err
}

func (r *PostgresParticipantRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS characters (
			guid BIGINT PRIMARY KEY,
			account BIGINT NOT NULL,
			name TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}
