package token

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unstable-code/angple/internal/db"
)

// PostgresRepository persists refresh tokens in the refresh_tokens table.
type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, t *RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens
			(token_hash, member_id, family_id, ip, user_agent,
			 created_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
	`,
		t.TokenHash, t.MemberID, t.FamilyID, t.IP, t.UserAgent,
		t.CreatedAt, t.ExpiresAt,
	)
	return err
}

func (r *PostgresRepository) GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var (
		t         RefreshToken
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT token_hash, member_id, family_id, ip, user_agent,
		       created_at, expires_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(
		&t.TokenHash, &t.MemberID, &t.FamilyID, &t.IP, &t.UserAgent,
		&t.CreatedAt, &t.ExpiresAt, &revokedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	return &t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash, at)
	return err
}

func (r *PostgresRepository) RevokeFamily(ctx context.Context, familyID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE family_id = $1 AND revoked_at IS NULL
	`, familyID, at)
	return err
}

func (r *PostgresRepository) RevokeAllForMember(ctx context.Context, memberID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE member_id = $1 AND revoked_at IS NULL
	`, memberID, at)
	return err
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
