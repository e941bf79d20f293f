package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/gatehouse/internal/database"
	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, username, email, password_hash, is_active, credential_version, last_login_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning account rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccountRow populates an Account from a database row
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var lastLoginAt *time.Time

	err := scanner.Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&account.IsActive, &account.CredentialVersion, &lastLoginAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	account.LastLoginAt = lastLoginAt
	return &account, nil
}

// FindByIdentity looks an account up by username, case-insensitively
func (r *UserRepository) FindByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`

	return scanAccountRow(r.pool.QueryRow(ctx, query, identity))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`

	return scanAccountRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_active, credential_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		RETURNING ` + accountColumns

	now := time.Now().UTC()

	created, err := scanAccountRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), account.Username, account.Email, account.PasswordHash, account.IsActive, now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}

// UpdateProfile changes username and email. The account ID, and therefore
// every token bound to it, is unaffected.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, username, email string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	query := `
		UPDATE users SET username = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	updated, err := scanAccountRow(r.pool.QueryRow(ctx, query, id, username, email))
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return updated, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// TouchOnLogin records the time of a successful login
func (r *UserRepository) TouchOnLogin(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", database.MapPostgresError(err))
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash with an upgraded one for the
// same secret, so the credential version is left alone
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, accountID, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, accountID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
