package ports

import (
	"context"
	"time"

	"github.com/ibedc/change-management-backend/internal/domain"
)

// AccountRepository is the credential store. Implementations report a missing
// record with sql.ErrNoRows and a duplicate email with the driver's
// unique-violation error; the service layer translates both.
type AccountRepository interface {
	Create(ctx context.Context, email string, fullName *string, passwordHash, passwordSalt []byte) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByEmailAndValidCode matches only when the stored reset code equals
	// code and now is strictly before its expiry.
	FindByEmailAndValidCode(ctx context.Context, email, code string, now time.Time) (*domain.Account, error)
	// Save persists the mutable fields of an existing account in a single
	// write: full name, password hash/salt and the reset code pair.
	Save(ctx context.Context, account *domain.Account) error
}
