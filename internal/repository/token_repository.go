package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fatora-app/fatora-server/internal/model"
)

// TokenRepo persists/validates issued access tokens (single 'token_hash'
// column).  Rows are what make revocation work: a structurally valid
// token whose row is revoked or expired is rejected on its next use.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts an access token hash row.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO access_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Validate returns the owning user's ID if a live token row exists for
// the hash.  A revoked or expired row is reported as sql.ErrNoRows, the
// same as no row at all.
func (r *TokenRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		tok       model.AccessToken
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, revoked_at FROM access_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&tok.ID, &tok.UserID, &tok.ExpiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	tok.TokenHash = tokenHash
	if revokedAt.Valid {
		tok.RevokedAt = &revokedAt.Time
	}
	if !tok.Active(time.Now().UTC()) {
		return 0, sql.ErrNoRows
	}
	return tok.UserID, nil
}

// Revoke marks a token as revoked.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE access_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all of a user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE access_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
