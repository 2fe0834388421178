package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tunesmith/internal/models"
)

// CredentialRepository implements models.Repository[*models.Credential] on the credentials table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new credential. It fails if the key already exists.
func (r *CredentialRepository) Create(c *models.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO credentials (key, value, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, c.ID(), c.Value(), nullTime(c.ExpiresAt()), c.CreatedAt(), c.UpdatedAt()); err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

// Put inserts the credential or replaces the value and expiry of an existing one with the same key.
func (r *CredentialRepository) Put(c *models.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	c.SetUpdatedAt(now)

	query := `
		INSERT INTO credentials (key, value, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, c.ID(), c.Value(), nullTime(c.ExpiresAt()), c.CreatedAt(), now); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Get retrieves a credential by key.
func (r *CredentialRepository) Get(key string) (*models.Credential, error) {
	query := `
		SELECT key, value, expires_at, created_at, updated_at
		FROM credentials
		WHERE key = ?
	`
	c, err := r.scan(r.db.QueryRow(query, key))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: credential %s", ErrNotFound, key)
	}
	return c, err
}

// Update replaces the value and expiry of an existing credential.
func (r *CredentialRepository) Update(c *models.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	c.SetUpdatedAt(now)

	result, err := r.db.Exec(
		`UPDATE credentials SET value = ?, expires_at = ?, updated_at = ? WHERE key = ?`,
		c.Value(), nullTime(c.ExpiresAt()), now, c.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return checkAffected(result, "credential", c.ID())
}

// Delete removes a credential. Credentials are bearer secrets, so the row is removed rather than soft deleted.
func (r *CredentialRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM credentials WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return checkAffected(result, "credential", key)
}

// List returns all credentials ordered by key. The "expired" criterion (bool) filters on expiry.
func (r *CredentialRepository) List(criteria map[string]any) ([]*models.Credential, error) {
	query := `SELECT key, value, expires_at, created_at, updated_at FROM credentials`
	args := []any{}

	if expired, ok := criteria["expired"].(bool); ok {
		if expired {
			query += " WHERE expires_at IS NOT NULL AND expires_at <= ?"
		} else {
			query += " WHERE expires_at IS NULL OR expires_at > ?"
		}
		args = append(args, time.Now().UTC())
	}
	query += " ORDER BY key ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return creds, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *CredentialRepository) scan(row scanner) (*models.Credential, error) {
	var (
		key       string
		value     string
		expiresAt sql.NullTime
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&key, &value, &expiresAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	c := models.NewCredential(key, value, time.Time{})
	c.SetCreatedAt(createdAt)
	c.SetUpdatedAt(updatedAt)
	if expiresAt.Valid {
		c.SetExpiresAt(&expiresAt.Time)
	}
	return c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
