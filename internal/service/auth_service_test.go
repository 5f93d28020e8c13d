package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ibedc/change-management-backend/internal/domain"
	"github.com/ibedc/change-management-backend/internal/util"
)

// fakeAccountRepo is an in-memory credential store with the same error
// contract as the Postgres implementation.
type fakeAccountRepo struct {
	byEmail map[string]*domain.Account

	createErr error
	findErr   error
	saveErr   error
	saveCalls int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byEmail: map[string]*domain.Account{}}
}

func (f *fakeAccountRepo) Create(ctx context.Context, email string, fullName *string, passwordHash, passwordSalt []byte) (*domain.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[email]; exists {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	now := time.Now()
	account := &domain.Account{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byEmail[email] = account
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) FindByEmailAndValidCode(ctx context.Context, email, code string, now time.Time) (*domain.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.byEmail[email]
	if !ok || account.ResetCode == nil || *account.ResetCode != code || !now.Before(*account.ResetCodeExpiresAt) {
		return nil, sql.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) Save(ctx context.Context, account *domain.Account) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	clone := *account
	f.byEmail[account.Email] = &clone
	return nil
}

type fakeResetSender struct {
	sent []struct {
		email string
		code  string
	}
	err error
}

func (f *fakeResetSender) SendResetCode(ctx context.Context, email, code string) error {
	f.sent = append(f.sent, struct {
		email string
		code  string
	}{email: email, code: code})
	return f.err
}

func newAuthServiceForTests(repo *fakeAccountRepo, sender *fakeResetSender) *AuthService {
	if repo == nil {
		repo = newFakeAccountRepo()
	}
	if sender == nil {
		sender = &fakeResetSender{}
	}
	jwtManager := util.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(repo, sender, jwtManager, 15*time.Minute, 6)
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	svc := newAuthServiceForTests(repo, nil)

	name := "Alice A."
	account, err := svc.Register(ctx, "alice@example.com", &name, "Passw0rd!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", account.Email)
	}

	stored := repo.byEmail["alice@example.com"]
	if len(stored.PasswordHash) == 0 || len(stored.PasswordSalt) == 0 {
		t.Fatal("expected hash and salt to be stored")
	}
	if bytes.Equal(stored.PasswordHash, []byte("Passw0rd!")) {
		t.Fatal("plaintext password must never be stored")
	}
	if stored.ResetCode != nil || stored.ResetCodeExpiresAt != nil {
		t.Fatal("fresh account must have no pending reset code")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAuthServiceForTests(nil, nil)

	if _, err := svc.Register(ctx, "dup@example.com", nil, "first-pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(ctx, "dup@example.com", nil, "second-pass")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	svc := newAuthServiceForTests(repo, nil)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("success returns signed credential", func(t *testing.T) {
		result, err := svc.Login(ctx, "alice@example.com", "Passw0rd!")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Token == "" {
			t.Fatal("expected token")
		}
		if remaining := time.Until(result.ExpiresAt); remaining < 59*time.Minute || remaining > time.Hour {
			t.Fatalf("expected ~1h expiry, got %v", remaining)
		}
		claims, err := svc.jwt.Parse(result.Token)
		if err != nil {
			t.Fatalf("token should parse: %v", err)
		}
		if claims.Email != "alice@example.com" {
			t.Fatalf("unexpected claims email %q", claims.Email)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email is a distinct failure", func(t *testing.T) {
		_, err := svc.Login(ctx, "bob@example.com", "Passw0rd!")
		if !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("store failure is not a business error", func(t *testing.T) {
		broken := newFakeAccountRepo()
		broken.findErr = errors.New("db down")
		svc := newAuthServiceForTests(broken, nil)
		_, err := svc.Login(ctx, "alice@example.com", "Passw0rd!")
		if err == nil || errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected wrapped store error, got %v", err)
		}
	})
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	sender := &fakeResetSender{}
	svc := newAuthServiceForTests(repo, sender)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}

	start := time.Now()
	svc.now = func() time.Time { return start }

	if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sender.sent))
	}
	code := sender.sent[0].code
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}

	stored := repo.byEmail["alice@example.com"]
	if stored.ResetCode == nil || *stored.ResetCode != code {
		t.Fatal("delivered code must match the persisted one")
	}
	if stored.ResetCodeExpiresAt == nil || !stored.ResetCodeExpiresAt.Equal(start.Add(15*time.Minute)) {
		t.Fatalf("expected expiry 15m after request, got %v", stored.ResetCodeExpiresAt)
	}

	t.Run("second request overwrites the pending code", func(t *testing.T) {
		if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		newCode := sender.sent[len(sender.sent)-1].code
		if err := svc.VerifyResetCode(ctx, "alice@example.com", newCode); err != nil {
			t.Fatalf("new code should verify: %v", err)
		}
		if newCode != code {
			if err := svc.VerifyResetCode(ctx, "alice@example.com", code); !errors.Is(err, ErrResetCodeInvalid) {
				t.Fatalf("old code should be invalidated, got %v", err)
			}
		}
	})
}

func TestRequestPasswordResetRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed address", func(t *testing.T) {
		sender := &fakeResetSender{}
		svc := newAuthServiceForTests(nil, sender)
		if err := svc.RequestPasswordReset(ctx, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail, got %v", err)
		}
		if len(sender.sent) != 0 {
			t.Fatal("nothing should be delivered")
		}
	})

	t.Run("unknown account leaves store untouched", func(t *testing.T) {
		repo := newFakeAccountRepo()
		sender := &fakeResetSender{}
		svc := newAuthServiceForTests(repo, sender)
		if err := svc.RequestPasswordReset(ctx, "bob@example.com"); !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
		if repo.saveCalls != 0 || len(sender.sent) != 0 {
			t.Fatal("expected no writes and no delivery")
		}
	})
}

func TestRequestPasswordResetDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	sender := &fakeResetSender{err: errors.New("smtp down")}
	svc := newAuthServiceForTests(repo, sender)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := svc.RequestPasswordReset(ctx, "alice@example.com")
	if err == nil {
		t.Fatal("expected error when delivery fails")
	}
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("delivery failure must not map to a business error, got %v", err)
	}
}

func TestVerifyResetCode(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	sender := &fakeResetSender{}
	svc := newAuthServiceForTests(repo, sender)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := sender.sent[0].code

	if err := svc.VerifyResetCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("delivered code should verify: %v", err)
	}
	// Verification is read-only: the same code keeps verifying.
	if err := svc.VerifyResetCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("repeated verification should succeed: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := svc.VerifyResetCode(ctx, "alice@example.com", wrong); !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("expected ErrResetCodeInvalid, got %v", err)
	}
	if err := svc.VerifyResetCode(ctx, "bob@example.com", code); !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("expected ErrResetCodeInvalid for unknown account, got %v", err)
	}
}

func TestResetCodeExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	sender := &fakeResetSender{}
	svc := newAuthServiceForTests(repo, sender)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}

	start := time.Now()
	svc.now = func() time.Time { return start }
	if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := sender.sent[0].code
	expiry := start.Add(15 * time.Minute)

	svc.now = func() time.Time { return expiry.Add(-time.Millisecond) }
	if err := svc.VerifyResetCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("code must be valid just before expiry: %v", err)
	}

	svc.now = func() time.Time { return expiry }
	if err := svc.VerifyResetCode(ctx, "alice@example.com", code); !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("code must be invalid at expiry, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, "alice@example.com", code, "NewPass1!", "NewPass1!"); !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("expired code must not complete a reset, got %v", err)
	}
}

func TestConfirmPasswordResetMismatch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	sender := &fakeResetSender{}
	svc := newAuthServiceForTests(repo, sender)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := sender.sent[0].code
	before := *repo.byEmail["alice@example.com"]

	err := svc.ConfirmPasswordReset(ctx, "alice@example.com", code, "NewPass1!", "different")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	after := repo.byEmail["alice@example.com"]
	if !bytes.Equal(before.PasswordHash, after.PasswordHash) {
		t.Fatal("mismatch must leave the stored hash unchanged")
	}
	if after.ResetCode == nil || *after.ResetCode != code {
		t.Fatal("mismatch must leave the pending code unchanged")
	}
}

func TestConfirmPasswordReset(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	sender := &fakeResetSender{}
	svc := newAuthServiceForTests(repo, sender)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := sender.sent[0].code

	if err := svc.ConfirmPasswordReset(ctx, "alice@example.com", code, "NewPass1!", "NewPass1!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.byEmail["alice@example.com"]
	if stored.ResetCode != nil || stored.ResetCodeExpiresAt != nil {
		t.Fatal("reset fields must be cleared after a completed reset")
	}
	if err := svc.VerifyResetCode(ctx, "alice@example.com", code); !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("consumed code must no longer verify, got %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "NewPass1!"); err != nil {
		t.Fatalf("login with new password should succeed: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must be rejected, got %v", err)
	}

	t.Run("wrong code", func(t *testing.T) {
		if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
			t.Fatalf("request reset: %v", err)
		}
		err := svc.ConfirmPasswordReset(ctx, "alice@example.com", "999999x", "AnotherPass1!", "AnotherPass1!")
		if !errors.Is(err, ErrResetCodeInvalid) {
			t.Fatalf("expected ErrResetCodeInvalid, got %v", err)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	svc := newAuthServiceForTests(repo, nil)
	if _, err := svc.Register(ctx, "alice@example.com", nil, "Passw0rd!"); err != nil {
		t.Fatalf("register: %v", err)
	}
	result, err := svc.Login(ctx, "alice@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	account, err := svc.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Fatalf("unexpected account %q", account.Email)
	}

	if _, err := svc.Authenticate(ctx, "not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for garbage token, got %v", err)
	}

	t.Run("token signed with another key", func(t *testing.T) {
		other := util.NewJWTManager("other-secret", time.Hour)
		token, _, err := other.Generate(uuid.New(), "alice@example.com", nil)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
