// Package store defines the persistence contract for admin accounts and
// donation records. Implementations live in sqlstore and mongostore.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/carecycle/carecycle/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
)

// AdminStore persists admin accounts.
type AdminStore interface {
	// CreateAdmin inserts a new admin. ID and CreatedAt are populated on
	// success. Returns ErrDuplicate if the email is already taken.
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	// GetAdminByID loads an admin without its password hash.
	GetAdminByID(ctx context.Context, id string) (*model.Admin, error)
	// GetAdminByEmail loads an admin including its password hash.
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	// ListAdmins returns every admin without password hashes, oldest first.
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	CountAdminsByRole(ctx context.Context, role model.Role) (int, error)
	UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error
}

// DonationStore persists donation records.
type DonationStore interface {
	// CreateDonation inserts d. ID is populated on success.
	CreateDonation(ctx context.Context, d *model.Donation) error
	GetDonation(ctx context.Context, id string) (*model.Donation, error)
	// ListDonations returns all donations, newest first.
	ListDonations(ctx context.Context) ([]model.Donation, error)
	// VerifyDonation sets verified=true in a single atomic update and returns
	// the updated record. Verifying an already verified donation is not an
	// error.
	VerifyDonation(ctx context.Context, id string) (*model.Donation, error)
	DeleteDonation(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the services.
type Store interface {
	AdminStore
	DonationStore
	Ping(ctx context.Context) error
	Close() error
}

// NormalizeEmail returns the canonical stored form of an email address.
// Uniqueness is enforced on this form, which makes it case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Now returns the current time at the precision every backend can store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
