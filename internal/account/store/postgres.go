// Package store provides the Postgres implementation of the account
// user store.
package store

import (
	"context"
	"database/sql"
	"errors"

	"account-service/internal/account"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `
	id, login, first_name, last_name, email,
	image_url, lang_key, activated, created_at, updated_at`

func scanUser(row *sql.Row) (*account.User, error) {
	var u account.User
	err := row.Scan(
		&u.ID,
		&u.Login,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.ImageURL,
		&u.LangKey,
		&u.Activated,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) FindByLogin(ctx context.Context, login string) (*account.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(login) = LOWER($1)
	`, login)
	return scanUser(row)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanUser(row)
}

func (s *UserStore) FindByLoginWithAuthorities(ctx context.Context, login string) (*account.User, error) {
	u, err := s.FindByLogin(ctx, login)
	if err != nil || u == nil {
		return u, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT authority_name
		FROM user_authority
		WHERE user_id = $1
		ORDER BY authority_name
	`, u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		u.Authorities = append(u.Authorities, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts the user and its authority set in one transaction. The
// unique index on LOWER(login) resolves concurrent first-login races: the
// loser gets account.ErrConflict.
func (s *UserStore) Create(ctx context.Context, u *account.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users
			(login, first_name, last_name, email, image_url, lang_key, activated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`,
		u.Login,
		u.FirstName,
		u.LastName,
		u.Email,
		u.ImageURL,
		u.LangKey,
		u.Activated,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		return translateConflict(err)
	}

	for _, name := range u.Authorities {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO authorities (name)
			VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, name); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_authority (user_id, authority_name)
			VALUES ($1, $2)
			ON CONFLICT (user_id, authority_name) DO NOTHING
		`, u.ID, name); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update rewrites the profile fields only. Login and the stored authority
// set are left alone.
func (s *UserStore) Update(ctx context.Context, u *account.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2,
		    last_name  = $3,
		    email      = $4,
		    image_url  = $5,
		    lang_key   = $6,
		    updated_at = NOW()
		WHERE LOWER(login) = LOWER($1)
	`,
		u.Login,
		u.FirstName,
		u.LastName,
		u.Email,
		u.ImageURL,
		u.LangKey,
	)
	if err != nil {
		return translateConflict(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return account.ErrAccountUnavailable
	}
	return nil
}

func translateConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return account.ErrConflict
	}
	return err
}
