package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unstable-code/angple/internal/db"
)

// PostgresRepository persists sessions in the sessions table.
type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions
			(id_hash, member_id, csrf_token, ip, user_agent,
			 created_at, last_active_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		s.IDHash, s.MemberID, s.CSRFToken, s.IP, s.UserAgent,
		s.CreatedAt, s.LastActiveAt, s.ExpiresAt,
	)
	return err
}

func (r *PostgresRepository) GetByHash(ctx context.Context, idHash string) (*Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id_hash, member_id, csrf_token, ip, user_agent,
		       created_at, last_active_at, expires_at
		FROM sessions
		WHERE id_hash = $1
	`, idHash).Scan(
		&s.IDHash, &s.MemberID, &s.CSRFToken, &s.IP, &s.UserAgent,
		&s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) UpdateActivity(
	ctx context.Context,
	idHash string,
	lastActiveAt, expiresAt time.Time,
) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET last_active_at = $2, expires_at = $3
		WHERE id_hash = $1
	`, idHash, lastActiveAt, expiresAt)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, idHash string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE id_hash = $1
	`, idHash)
	return err
}

func (r *PostgresRepository) DeleteAllForMember(ctx context.Context, memberID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE member_id = $1
	`, memberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
