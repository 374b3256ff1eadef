package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/signalex/signalex-be/internal/database"
	"github.com/signalex/signalex-be/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, users *UserService, username, email string) models.User {
	t.Helper()
	user, err := users.CreateUser(context.Background(), username, email, "hunter22")
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", username, err)
	}
	return user
}
