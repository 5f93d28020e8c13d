package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ibedc/change-management-backend/internal/domain"
)

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, email string, fullName *string, passwordHash, passwordSalt []byte) (*domain.Account, error) {
	const query = `
        INSERT INTO account (email, full_name, password_hash, password_salt)
        VALUES ($1, $2, $3, $4)
        RETURNING id, email, full_name, password_hash, password_salt, reset_code, reset_code_expires_at, created_at, updated_at
    `

	row := r.db.QueryRowxContext(ctx, query, email, fullName, passwordHash, passwordSalt)
	var account domain.Account
	if err := row.StructScan(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT id, email, full_name, password_hash, password_salt, reset_code, reset_code_expires_at, created_at, updated_at
        FROM account
        WHERE email = $1
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmailAndValidCode(ctx context.Context, email, code string, now time.Time) (*domain.Account, error) {
	const query = `
        SELECT id, email, full_name, password_hash, password_salt, reset_code, reset_code_expires_at, created_at, updated_at
        FROM account
        WHERE email = $1 AND reset_code = $2 AND reset_code_expires_at > $3
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email, code, now); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE account
        SET full_name = $2,
            password_hash = $3,
            password_salt = $4,
            reset_code = $5,
            reset_code_expires_at = $6,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.FullName, account.PasswordHash, account.PasswordSalt,
		account.ResetCode, account.ResetCodeExpiresAt)
	return err
}
