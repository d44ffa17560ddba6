package db

import (
	"context"
	"database/sql"
)

const authCoreMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS members (
    id text PRIMARY KEY,
    nickname text NOT NULL,
    level integer NOT NULL DEFAULT 1,
    email text NOT NULL DEFAULT '',
    active boolean NOT NULL DEFAULT true,
    last_login_at timestamptz,
    last_login_ip text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS members_email_lower_unique
ON members (LOWER(email)) WHERE email <> '';

CREATE UNIQUE INDEX IF NOT EXISTS members_nickname_unique
ON members (nickname);

CREATE TABLE IF NOT EXISTS social_profiles (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    provider text NOT NULL,
    provider_identifier text NOT NULL,
    member_id text NOT NULL REFERENCES members(id) ON DELETE CASCADE,
    display_name text NOT NULL DEFAULT '',
    photo_url text NOT NULL DEFAULT '',
    profile_url text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT social_profiles_provider_unique
        UNIQUE (provider, provider_identifier)
);

CREATE INDEX IF NOT EXISTS social_profiles_member_id_idx
ON social_profiles (member_id);

CREATE TABLE IF NOT EXISTS sessions (
    id_hash text PRIMARY KEY,
    member_id text NOT NULL,
    csrf_token text NOT NULL,
    ip text NOT NULL DEFAULT '',
    user_agent text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    last_active_at timestamptz NOT NULL DEFAULT NOW(),
    expires_at timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS sessions_member_id_idx
ON sessions (member_id);

CREATE INDEX IF NOT EXISTS sessions_expires_at_idx
ON sessions (expires_at);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    token_hash text PRIMARY KEY,
    member_id text NOT NULL,
    family_id text NOT NULL,
    ip text NOT NULL DEFAULT '',
    user_agent text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    expires_at timestamptz NOT NULL,
    revoked_at timestamptz
);

CREATE INDEX IF NOT EXISTS refresh_tokens_family_id_idx
ON refresh_tokens (family_id);

CREATE INDEX IF NOT EXISTS refresh_tokens_member_id_idx
ON refresh_tokens (member_id);

CREATE INDEX IF NOT EXISTS refresh_tokens_expires_at_idx
ON refresh_tokens (expires_at);

CREATE TABLE IF NOT EXISTS credentials (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    member_id text NOT NULL REFERENCES members(id) ON DELETE CASCADE,
    password_hash text NOT NULL,
    hash_version text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT credentials_member_unique UNIQUE (member_id)
);
`

// RunMigration applies the idempotent auth-core schema.
func RunMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, authCoreMigration)
	return err
}
