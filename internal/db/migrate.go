package db

import (
	"context"
	"database/sql"
)

type DB struct {
	*sql.DB
}

const bootstrapMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    login text NOT NULL,
    first_name text NOT NULL DEFAULT '',
    last_name text NOT NULL DEFAULT '',
    email text NOT NULL DEFAULT '',
    image_url text NOT NULL DEFAULT '',
    lang_key text NOT NULL DEFAULT '',
    activated boolean NOT NULL DEFAULT false,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_login_lower_unique
ON users (LOWER(login));

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique
ON users (LOWER(email)) WHERE email <> '';

CREATE TABLE IF NOT EXISTS authorities (
    name text PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS user_authority (
    user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    authority_name text NOT NULL REFERENCES authorities(name) ON DELETE CASCADE,
    PRIMARY KEY (user_id, authority_name)
);

CREATE TABLE IF NOT EXISTS persistent_tokens (
    series text PRIMARY KEY,
    user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token_value text NOT NULL,
    token_date timestamptz NOT NULL DEFAULT NOW(),
    ip_address text NOT NULL DEFAULT '',
    user_agent text NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS persistent_tokens_user_id_idx
ON persistent_tokens (user_id);
`

func RunBootstrapMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, bootstrapMigration)
	return err
}
