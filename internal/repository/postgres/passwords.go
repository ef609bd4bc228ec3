package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/models"
)

type PasswordRepo struct {
	DB DBTX
}

const createPassword = `-- name: CreatePassword
INSERT INTO passwords (user_id, login, site, uppercase, symbols, lowercase, digits, counter, version, length)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, user_id, login, site, uppercase, symbols, lowercase, digits, counter, version, length, created_at, modified_at
`

func (r *PasswordRepo) Create(ctx context.Context, userID int64, p models.PasswordParams) (models.Password, error) {
	rows, _ := r.DB.Query(ctx, createPassword,
		userID, p.Login, p.Site, p.Uppercase, p.Symbols, p.Lowercase, p.Digits, p.Counter, p.Version, p.Length,
	)
	password, err := pgx.CollectOneRow(rows, rowToPassword)
	if err != nil {
		return password, fmt.Errorf("db error: %w", err)
	}

	return password, nil
}

const getPassword = `-- name: GetPassword
SELECT id, user_id, login, site, uppercase, symbols, lowercase, digits, counter, version, length, created_at, modified_at
FROM passwords
WHERE id = $1 AND user_id = $2
`

func (r *PasswordRepo) Get(ctx context.Context, userID int64, id int64) (models.Password, error) {
	rows, _ := r.DB.Query(ctx, getPassword, id, userID)
	return collectPassword(rows)
}

const listPasswords = `-- name: ListPasswords
SELECT id, user_id, login, site, uppercase, symbols, lowercase, digits, counter, version, length, created_at, modified_at
FROM passwords
WHERE user_id = $1 AND ($2 = '' OR site ILIKE '%' || $2 || '%' OR login ILIKE '%' || $2 || '%')
ORDER BY site, login
`

func (r *PasswordRepo) List(ctx context.Context, userID int64, search string) ([]models.Password, error) {
	rows, _ := r.DB.Query(ctx, listPasswords, userID, search)
	passwords, err := pgx.CollectRows(rows, rowToPassword)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return passwords, nil
}

const updatePasswordEntry = `-- name: UpdatePasswordEntry
UPDATE passwords
SET login = $3, site = $4, uppercase = $5, symbols = $6, lowercase = $7, digits = $8, counter = $9, version = $10, length = $11, modified_at = now()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, login, site, uppercase, symbols, lowercase, digits, counter, version, length, created_at, modified_at
`

func (r *PasswordRepo) Update(ctx context.Context, userID int64, id int64, p models.PasswordParams) (models.Password, error) {
	rows, _ := r.DB.Query(ctx, updatePasswordEntry,
		id, userID, p.Login, p.Site, p.Uppercase, p.Symbols, p.Lowercase, p.Digits, p.Counter, p.Version, p.Length,
	)
	return collectPassword(rows)
}

const deletePassword = `-- name: DeletePassword
DELETE FROM passwords
WHERE id = $1 AND user_id = $2
`

func (r *PasswordRepo) Delete(ctx context.Context, userID int64, id int64) error {
	tag, err := r.DB.Exec(ctx, deletePassword, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrPasswordEntryNotFound
	}

	return nil
}

func collectPassword(rows pgx.Rows) (models.Password, error) {
	password, err := pgx.CollectOneRow(rows, rowToPassword)

	switch {
	case err == nil:
		return password, nil
	case errors.Is(err, pgx.ErrNoRows):
		return password, apperrors.ErrPasswordEntryNotFound
	default:
		return password, fmt.Errorf("db error: %w", err)
	}
}

func rowToPassword(row pgx.CollectableRow) (models.Password, error) {
	var p models.Password
	err := row.Scan(
		&p.ID, &p.UserID, &p.Login, &p.Site,
		&p.Uppercase, &p.Symbols, &p.Lowercase, &p.Digits,
		&p.Counter, &p.Version, &p.Length,
		&p.CreatedAt, &p.ModifiedAt,
	)
	return p, err
}
