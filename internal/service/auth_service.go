package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ibedc/change-management-backend/internal/domain"
	"github.com/ibedc/change-management-backend/internal/repository/ports"
	"github.com/ibedc/change-management-backend/internal/util"
)

// PasswordResetSender delivers a one-time reset code to the account's email
// address. Implemented by the SMTP mailer; faked in tests.
type PasswordResetSender interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// emailPattern is intentionally loose: it rejects obvious garbage before a
// store lookup, nothing more.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// AuthService implements the credential and password-reset flow over an
// account repository and a code-delivery sender. It holds no per-request
// state; every operation completes within its call.
type AuthService struct {
	accounts   ports.AccountRepository
	sender     PasswordResetSender
	jwt        *util.JWTManager
	resetTTL   time.Duration
	codeLength int

	now func() time.Time
}

func NewAuthService(accounts ports.AccountRepository, sender PasswordResetSender, jwt *util.JWTManager, resetTTL time.Duration, codeLength int) *AuthService {
	if resetTTL <= 0 {
		resetTTL = 15 * time.Minute
	}
	if codeLength <= 0 {
		codeLength = 6
	}
	return &AuthService{
		accounts:   accounts,
		sender:     sender,
		jwt:        jwt,
		resetTTL:   resetTTL,
		codeLength: codeLength,
		now:        time.Now,
	}
}

// Register creates an account with the password hashed up front. The
// plaintext never reaches the repository.
func (s *AuthService) Register(ctx context.Context, email string, fullName *string, password string) (*domain.Account, error) {
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.Create(ctx, email, fullName, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// Login checks the password against the stored hash and issues a signed,
// time-limited token. An unknown email and a wrong password are reported as
// distinct failures on purpose.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !util.VerifyPassword(password, account.PasswordSalt, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.jwt.Generate(account.ID, account.Email, account.FullName)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// RequestPasswordReset generates a fresh numeric code, persists it with its
// expiry (replacing any pending code) and dispatches it. The code is
// persisted before dispatch so a delivered code always verifies.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}
	code, err := util.GenerateResetCode(s.codeLength)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	account.SetResetCode(code, s.now().Add(s.resetTTL))
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	if err := s.sender.SendResetCode(ctx, account.Email, code); err != nil {
		return fmt.Errorf("deliver reset code: %w", err)
	}
	return nil
}

// VerifyResetCode checks that a live code matches the account. It is
// read-only: verification does not consume the code, which stays valid until
// expiry or a completed reset.
func (s *AuthService) VerifyResetCode(ctx context.Context, email, code string) error {
	if _, err := s.accounts.FindByEmailAndValidCode(ctx, email, code, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("find reset code: %w", err)
	}
	return nil
}

// ConfirmPasswordReset replaces the password and clears the code pair in a
// single save, so callers never observe a half-applied reset.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword, confirmPassword string) error {
	if newPassword == "" || newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	account, err := s.accounts.FindByEmailAndValidCode(ctx, email, code, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("find reset code: %w", err)
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	account.PasswordSalt = salt
	account.ClearResetCode()
	if err := s.accounts.Save(ctx, account); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its account. Validity is decided
// by signature and expiry alone.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	account, err := s.accounts.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
