package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/models"
)

type TokenRepo struct {
	DB DBTX
}

const createToken = `-- name: CreateToken
INSERT INTO tokens (user_id, access_token, refresh_token)
VALUES ($1, $2, $3)
RETURNING id, user_id, access_token, refresh_token, created_at, modified_at
`

func (r *TokenRepo) Create(ctx context.Context, userID int64, access uuid.UUID, refresh uuid.UUID) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, createToken, userID, access, refresh)
	token, err := pgx.CollectOneRow(rows, rowToToken)
	if err != nil {
		return token, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

const getTokenByAccess = `-- name: GetTokenByAccess
SELECT id, user_id, access_token, refresh_token, created_at, modified_at
FROM tokens
WHERE access_token = $1
`

func (r *TokenRepo) GetByAccess(ctx context.Context, access uuid.UUID) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getTokenByAccess, access)
	return collectToken(rows)
}

const getTokenByRefresh = `-- name: GetTokenByRefresh
SELECT id, user_id, access_token, refresh_token, created_at, modified_at
FROM tokens
WHERE refresh_token = $1
`

func (r *TokenRepo) GetByRefresh(ctx context.Context, refresh uuid.UUID) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getTokenByRefresh, refresh)
	return collectToken(rows)
}

const rotateToken = `-- name: RotateToken
UPDATE tokens
SET access_token = $3, refresh_token = $4, modified_at = now()
WHERE id = $1 AND refresh_token = $2
RETURNING id, user_id, access_token, refresh_token, created_at, modified_at
`

// Rotate replaces both identifiers in place
// The WHERE clause also matches the refresh identifier being replaced, so a
// concurrent rotation of the same row resolves to exactly one winner, the
// loser observes no rows and gets ErrTokenNotFound
func (r *TokenRepo) Rotate(ctx context.Context, tokenID int64, oldRefresh uuid.UUID, access uuid.UUID, refresh uuid.UUID) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, rotateToken, tokenID, oldRefresh, access, refresh)
	return collectToken(rows)
}

const deleteUserTokens = `-- name: DeleteUserTokens
DELETE FROM tokens
WHERE user_id = $1
`

func (r *TokenRepo) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteUserTokens, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

const deleteStaleTokens = `-- name: DeleteStaleTokens
DELETE FROM tokens
WHERE user_id = $1 AND modified_at < $2
`

func (r *TokenRepo) DeleteStaleTokens(ctx context.Context, userID int64, modifiedBefore time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteStaleTokens, userID, modifiedBefore)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func collectToken(rows pgx.Rows) (models.Token, error) {
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

func rowToToken(row pgx.CollectableRow) (models.Token, error) {
	var t models.Token
	err := row.Scan(&t.ID, &t.UserID, &t.Access, &t.Refresh, &t.CreatedAt, &t.ModifiedAt)
	return t, err
}
