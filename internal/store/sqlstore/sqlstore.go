// Package sqlstore implements store.Store on top of a relational database.
// SQLite, PostgreSQL and MySQL are supported; the schema is managed with
// embedded goose migrations, one directory per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/carecycle/carecycle/internal/config"
	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/store"
)

//go:embed migrations
var migrations embed.FS

// Dialect names accepted by Open.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// Store is a store.Store backed by database/sql through sqlx.
type Store struct {
	db      *sqlx.DB
	dialect string
}

var _ store.Store = (*Store)(nil)

// Open connects to the database, applies pending migrations and returns a
// ready store. For SQLite, dsn may be a plain file path; its parent directory
// is created if needed.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	driverName, connDSN, err := prepareDSN(dialect, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driverName, connDSN)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", dialect, err)
	}

	inMemory := dialect == DialectSQLite && strings.HasPrefix(connDSN, ":memory:")
	if inMemory {
		// Every pooled connection would otherwise get its own database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, dialect: dialect}
	if _, err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// SQLite doesn't support concurrent writers.
		db.SetMaxOpenConns(1)
	}
	return s, nil
}

func prepareDSN(dialect, dsn string) (driverName, connDSN string, err error) {
	switch dialect {
	case DialectSQLite:
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "file:")
		if path == "" {
			return "", "", errors.New("sqlite: empty database path")
		}
		if strings.Contains(path, "?") {
			return "sqlite", path, nil
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return "", "", fmt.Errorf("create data dir: %w", err)
			}
		}
		return "sqlite", path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", nil

	case DialectPostgres:
		return "pgx", dsn, nil

	case DialectMySQL:
		cfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
		if err != nil {
			return "", "", fmt.Errorf("mysql: parse dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		// Report matched rather than changed rows so that idempotent
		// updates are not mistaken for missing records.
		cfg.ClientFoundRows = true
		return "mysql", cfg.FormatDSN(), nil

	default:
		return "", "", fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

// ---------------------------------------------------------------------------
// Migrations
// ---------------------------------------------------------------------------

// MigrationState describes one schema migration and whether it has run.
type MigrationState struct {
	Version   int64
	Source    string
	Applied   bool
	AppliedAt time.Time
}

func (s *Store) provider() (*goose.Provider, error) {
	var gd goose.Dialect
	switch s.dialect {
	case DialectSQLite:
		gd = goose.DialectSQLite3
	case DialectPostgres:
		gd = goose.DialectPostgres
	case DialectMySQL:
		gd = goose.DialectMySQL
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", s.dialect)
	}
	fsys, err := fs.Sub(migrations, "migrations/"+s.dialect)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(gd, s.db.DB, fsys)
}

// Migrate applies all pending migrations and returns how many ran.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	p, err := s.provider()
	if err != nil {
		return 0, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return len(results), err
	}
	return len(results), nil
}

// MigrationStatus reports every known migration and whether it is applied.
func (s *Store) MigrationStatus(ctx context.Context) ([]MigrationState, error) {
	p, err := s.provider()
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, MigrationState{
			Version:   st.Source.Version,
			Source:    filepath.Base(st.Source.Path),
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}

// Dialect returns the dialect the store was opened with.
func (s *Store) Dialect() string { return s.dialect }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Admins
// ---------------------------------------------------------------------------

const adminPublicColumns = "id, name, email, role, last_login, created_at"

// CreateAdmin inserts a new admin account. The ID and CreatedAt fields are
// populated before the insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate admin id: %w", err)
	}
	admin.ID = id.String()
	admin.Email = store.NormalizeEmail(admin.Email)
	admin.CreatedAt = store.Now()
	if admin.Role == "" {
		admin.Role = model.RoleAdmin
	}

	const q = `INSERT INTO admins
		(id, name, email, password_hash, role, last_login, created_at)
		VALUES
		(:id, :name, :email, :password_hash, :role, :last_login, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, admin); err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetAdminByID returns an admin without its password hash.
func (s *Store) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT " + adminPublicColumns + " FROM admins WHERE id = ?")
	if err := s.db.GetContext(ctx, &admin, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GetAdminByEmail returns an admin by normalized email, including the
// password hash.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT id, name, email, password_hash, role, last_login, created_at FROM admins WHERE email = ?")
	if err := s.db.GetContext(ctx, &admin, q, store.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts, oldest first.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins := []model.Admin{}
	q := "SELECT " + adminPublicColumns + " FROM admins ORDER BY created_at, id"
	if err := s.db.SelectContext(ctx, &admins, q); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// CountAdminsByRole returns how many admins hold the given role.
func (s *Store) CountAdminsByRole(ctx context.Context, role model.Role) (int, error) {
	var count int
	q := s.db.Rebind("SELECT COUNT(*) FROM admins WHERE role = ?")
	if err := s.db.GetContext(ctx, &count, q, string(role)); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// UpdateAdminLastLogin sets the last_login timestamp for an admin.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error {
	q := s.db.Rebind("UPDATE admins SET last_login = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin last login rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Donations
// ---------------------------------------------------------------------------

// CreateDonation inserts a donation record. The ID is generated here; the
// caller supplies CreatedAt and Verified.
func (s *Store) CreateDonation(ctx context.Context, d *model.Donation) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate donation id: %w", err)
	}
	d.ID = id.String()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = store.Now()
	}

	const q = `INSERT INTO donations
		(id, donor_name, email, tablet_name, expiry_date, unopened, verified, created_at)
		VALUES
		(:id, :donor_name, :email, :tablet_name, :expiry_date, :unopened, :verified, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, d); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// GetDonation returns a single donation by ID.
func (s *Store) GetDonation(ctx context.Context, id string) (*model.Donation, error) {
	var d model.Donation
	q := s.db.Rebind("SELECT * FROM donations WHERE id = ?")
	if err := s.db.GetContext(ctx, &d, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return &d, nil
}

// ListDonations returns every donation, newest first.
func (s *Store) ListDonations(ctx context.Context) ([]model.Donation, error) {
	donations := []model.Donation{}
	if err := s.db.SelectContext(ctx, &donations,
		"SELECT * FROM donations ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}

// VerifyDonation marks a donation verified and returns the updated record.
func (s *Store) VerifyDonation(ctx context.Context, id string) (*model.Donation, error) {
	q := s.db.Rebind("UPDATE donations SET verified = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, true, id)
	if err != nil {
		return nil, fmt.Errorf("verify donation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("verify donation rows affected: %w", err)
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetDonation(ctx, id)
}

// DeleteDonation removes a donation record.
func (s *Store) DeleteDonation(ctx context.Context, id string) error {
	q := s.db.Rebind("DELETE FROM donations WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete donation rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// isDuplicate reports whether err is a unique constraint violation in any
// of the supported dialects.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Factory adapts Open to store.Factory for the given dialect.
func Factory(dialect string) store.Factory {
	return func(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
		return Open(ctx, dialect, cfg.URL)
	}
}
