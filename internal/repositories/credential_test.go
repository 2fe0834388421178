package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tunesmith/internal/models"
	"github.com/desertthunder/tunesmith/internal/shared"
)

var _ models.Repository[*models.Credential] = (*CredentialRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

		if err := repo.Create(models.NewCredential(models.SpotifyTokenKey, "tok", expires)); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}

		got, err := repo.Get(models.SpotifyTokenKey)
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.Value() != "tok" {
			t.Errorf("expected value tok, got %s", got.Value())
		}
		if got.ExpiresAt() == nil || !got.ExpiresAt().Equal(expires) {
			t.Errorf("expected expiry %v, got %v", expires, got.ExpiresAt())
		}
	})

	t.Run("Create duplicate fails", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		if err := repo.Create(models.NewCredential("k", "v", time.Time{})); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}
		if err := repo.Create(models.NewCredential("k", "v2", time.Time{})); err == nil {
			t.Error("expected duplicate key to fail")
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		if err := repo.Create(models.NewCredential("k", "", time.Time{})); err == nil {
			t.Error("expected validation error for empty value")
		}
	})

	t.Run("Put replaces existing value", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Put(models.NewCredential(models.SpotifyTokenKey, "first", time.Time{})); err != nil {
			t.Fatalf("failed first put: %v", err)
		}
		if err := repo.Put(models.NewCredential(models.SpotifyTokenKey, "second", time.Time{})); err != nil {
			t.Fatalf("failed second put: %v", err)
		}

		got, err := repo.Get(models.SpotifyTokenKey)
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.Value() != "second" {
			t.Errorf("expected value second, got %s", got.Value())
		}
		if got.ExpiresAt() != nil {
			t.Errorf("expected no expiry, got %v", got.ExpiresAt())
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected a single row per key, got %d", len(all))
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential("k", "v", time.Time{})

		if err := repo.Update(c); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for missing row, got %v", err)
		}

		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		c.SetValue("v2")
		if err := repo.Update(c); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		got, _ := repo.Get("k")
		if got.Value() != "v2" {
			t.Errorf("expected v2, got %s", got.Value())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		if err := repo.Put(models.NewCredential("k", "v", time.Time{})); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		if err := repo.Delete("k"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get("k"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete("k"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("List filters on expiry", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		now := time.Now().UTC()

		for _, c := range []*models.Credential{
			models.NewCredential("a", "v", now.Add(-time.Hour)),
			models.NewCredential("b", "v", now.Add(time.Hour)),
			models.NewCredential("c", "v", time.Time{}),
		} {
			if err := repo.Create(c); err != nil {
				t.Fatalf("failed to create %s: %v", c.ID(), err)
			}
		}

		expired, err := repo.List(map[string]any{"expired": true})
		if err != nil {
			t.Fatalf("failed to list expired: %v", err)
		}
		if len(expired) != 1 || expired[0].ID() != "a" {
			t.Errorf("expected only a to be expired, got %d rows", len(expired))
		}

		live, err := repo.List(map[string]any{"expired": false})
		if err != nil {
			t.Fatalf("failed to list live: %v", err)
		}
		if len(live) != 2 {
			t.Errorf("expected 2 live credentials, got %d", len(live))
		}
	})
}
