package member

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/unstable-code/angple/internal/db"
)

// PostgresRepository persists members in the members table.
type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Member, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Member, error) {
	if email == "" {
		return nil, nil
	}
	return r.findOne(ctx, `WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*Member, error) {
	var m Member
	err := r.db.QueryRowContext(ctx, `
		SELECT id, nickname, level, email, active,
		       last_login_at, last_login_ip, created_at, updated_at
		FROM members
	`+where, arg).Scan(
		&m.ID, &m.Nickname, &m.Level, &m.Email, &m.Active,
		&m.LastLoginAt, &m.LastLoginIP, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, nickname, level, email, active)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Nickname, m.Level, m.Email, m.Active)
	return translateUniqueViolation(err)
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id, ip string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET last_login_at = $2, last_login_ip = $3, updated_at = NOW()
		WHERE id = $1
	`, id, at, ip)
	return err
}

// translateUniqueViolation maps postgres unique violations onto the
// package sentinels so callers can retry with a different id or surface
// a nickname conflict.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch {
	case pqErr.Constraint == "members_pkey":
		return ErrDuplicateID
	case strings.Contains(pqErr.Constraint, "nickname"):
		return ErrDuplicateNickname
	case strings.Contains(pqErr.Constraint, "email"):
		return ErrDuplicateEmail
	}
	return err
}

// PostgresSocialLinkRepository persists provider links in the
// social_profiles table.
type PostgresSocialLinkRepository struct {
	db *db.DB
}

func NewPostgresSocialLinkRepository(db *db.DB) *PostgresSocialLinkRepository {
	return &PostgresSocialLinkRepository{db: db}
}

func (r *PostgresSocialLinkRepository) Find(ctx context.Context, provider, providerIdentifier string) (*SocialLink, error) {
	var link SocialLink
	err := r.db.QueryRowContext(ctx, `
		SELECT provider, provider_identifier, member_id,
		       display_name, photo_url, profile_url
		FROM social_profiles
		WHERE provider = $1 AND provider_identifier = $2
	`, provider, providerIdentifier).Scan(
		&link.Provider, &link.ProviderIdentifier, &link.MemberID,
		&link.DisplayName, &link.PhotoURL, &link.ProfileURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *PostgresSocialLinkRepository) Upsert(ctx context.Context, link *SocialLink) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO social_profiles
			(provider, provider_identifier, member_id,
			 display_name, photo_url, profile_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, provider_identifier)
		DO UPDATE SET
			member_id = EXCLUDED.member_id,
			display_name = EXCLUDED.display_name,
			photo_url = EXCLUDED.photo_url,
			profile_url = EXCLUDED.profile_url,
			updated_at = NOW()
	`,
		link.Provider, link.ProviderIdentifier, link.MemberID,
		link.DisplayName, link.PhotoURL, link.ProfileURL,
	)
	return err
}

// PostgresCredentialRepository persists password hashes in the
// credentials table.
type PostgresCredentialRepository struct {
	db *db.DB
}

func NewPostgresCredentialRepository(db *db.DB) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{db: db}
}

func (r *PostgresCredentialRepository) FindByMemberID(ctx context.Context, memberID string) (*Credential, error) {
	var c Credential
	err := r.db.QueryRowContext(ctx, `
		SELECT member_id, password_hash, hash_version
		FROM credentials
		WHERE member_id = $1
	`, memberID).Scan(&c.MemberID, &c.PasswordHash, &c.HashVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCredentialRepository) Upsert(ctx context.Context, c *Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (member_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			hash_version = EXCLUDED.hash_version,
			updated_at = NOW()
	`, c.MemberID, c.PasswordHash, c.HashVersion)
	return err
}
