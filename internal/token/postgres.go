package token

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, t PersistentToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persistent_tokens
			(series, user_id, token_value, token_date, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		t.Series,
		t.UserID,
		t.Value,
		t.TokenDate,
		t.IPAddress,
		t.UserAgent,
	)
	return err
}

func (s *PostgresStore) ListFor(ctx context.Context, userID uuid.UUID) ([]PersistentToken, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT series, user_id, token_value, token_date, ip_address, user_agent
		FROM persistent_tokens
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []PersistentToken
	for rows.Next() {
		var t PersistentToken
		if err := rows.Scan(
			&t.Series,
			&t.UserID,
			&t.Value,
			&t.TokenDate,
			&t.IPAddress,
			&t.UserAgent,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Revoke deletes the series only when it belongs to the given user. A series
// owned by someone else matches zero rows and reports ErrNotFound.
func (s *PostgresStore) Revoke(ctx context.Context, userID uuid.UUID, series string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM persistent_tokens
		WHERE series = $1
		  AND user_id = $2
	`, series, userID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
