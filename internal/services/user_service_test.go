package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/signalex/signalex-be/internal/models"
	"github.com/signalex/signalex-be/internal/signals"
)

func TestUserService_CreateFiresPostSaveCreated(t *testing.T) {
	registry := signals.NewRegistry()
	users := NewUserService(newTestDB(t), registry)

	var received []signals.Event
	registry.PostSave(signals.SenderUser).Connect("capture", func(ctx context.Context, e signals.Event) error {
		received = append(received, e)
		return nil
	})

	user := mustCreateUser(t, users, "alice", "alice@example.com")

	if len(received) != 1 {
		t.Fatalf("post-save fired %d times, want 1", len(received))
	}
	if !received[0].Created {
		t.Error("post-save Created = false, want true")
	}
	instance, ok := received[0].Instance.(models.User)
	if !ok {
		t.Fatalf("post-save instance is %T, want models.User", received[0].Instance)
	}
	if instance.Email != "alice@example.com" {
		t.Errorf("instance email = %q, want alice@example.com", instance.Email)
	}
	if instance.PasswordHash != "" {
		t.Error("post-save instance carries a password hash")
	}

	stored, err := users.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if stored.Username != "alice" {
		t.Errorf("stored username = %q, want alice", stored.Username)
	}
}

func TestUserService_UpdateFiresPostSaveNotCreated(t *testing.T) {
	registry := signals.NewRegistry()
	users := NewUserService(newTestDB(t), registry)
	user := mustCreateUser(t, users, "bob", "bob@example.com")

	var received []signals.Event
	registry.PostSave(signals.SenderUser).Connect("capture", func(ctx context.Context, e signals.Event) error {
		received = append(received, e)
		return nil
	})

	updated, err := users.UpdateUser(context.Background(), user.ID, "bobby", "bobby@example.com")
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Username != "bobby" {
		t.Errorf("updated username = %q, want bobby", updated.Username)
	}

	if len(received) != 1 {
		t.Fatalf("post-save fired %d times, want 1", len(received))
	}
	if received[0].Created {
		t.Error("post-save Created = true on update, want false")
	}
}

func TestUserService_UpdateMissingUser(t *testing.T) {
	users := NewUserService(newTestDB(t), signals.NewRegistry())

	if _, err := users.UpdateUser(context.Background(), "no-such-id", "x", "x@example.com"); err == nil {
		t.Fatal("UpdateUser() on missing user succeeded, want error")
	}
}

func TestUserService_CreateReceiverErrorPropagatesButRowStays(t *testing.T) {
	registry := signals.NewRegistry()
	users := NewUserService(newTestDB(t), registry)

	boom := errors.New("mail server down")
	registry.PostSave(signals.SenderUser).Connect("welcome-email", func(ctx context.Context, e signals.Event) error {
		return boom
	})

	user, err := users.CreateUser(context.Background(), "carol", "carol@example.com", "hunter22")
	if !errors.Is(err, boom) {
		t.Fatalf("CreateUser() error = %v, want wrapped %v", err, boom)
	}

	// The post-save failure does not roll back the insert.
	if _, err := users.GetUserByID(context.Background(), user.ID); err != nil {
		t.Errorf("user row missing after post-save failure: %v", err)
	}
}

func TestUserService_DeleteAbortedByPreDeleteError(t *testing.T) {
	registry := signals.NewRegistry()
	users := NewUserService(newTestDB(t), registry)
	user := mustCreateUser(t, users, "dave", "dave@example.com")

	registry.PreDelete(signals.SenderUser).Connect("veto", func(ctx context.Context, e signals.Event) error {
		return errors.New("retention hold")
	})

	if err := users.DeleteUser(context.Background(), user.ID); err == nil {
		t.Fatal("DeleteUser() succeeded, want pre-delete error")
	}
	if _, err := users.GetUserByID(context.Background(), user.ID); err != nil {
		t.Errorf("user removed despite aborted pre-delete: %v", err)
	}
}

func TestUserService_DeleteFiresPreDeleteThenRemoves(t *testing.T) {
	registry := signals.NewRegistry()
	users := NewUserService(newTestDB(t), registry)
	user := mustCreateUser(t, users, "erin", "erin@example.com")

	sawRow := false
	registry.PreDelete(signals.SenderUser).Connect("observer", func(ctx context.Context, e signals.Event) error {
		// The row must still be readable while pre-delete runs.
		_, err := users.GetUserByID(ctx, user.ID)
		sawRow = err == nil
		return nil
	})

	if err := users.DeleteUser(context.Background(), user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if !sawRow {
		t.Error("pre-delete receiver could not read the row before removal")
	}
	if _, err := users.GetUserByID(context.Background(), user.ID); err == nil {
		t.Error("user still present after delete")
	}
}

func TestUserService_Authenticate(t *testing.T) {
	users := NewUserService(newTestDB(t), signals.NewRegistry())
	mustCreateUser(t, users, "frank", "frank@example.com")

	user, err := users.AuthenticateUser(context.Background(), "frank@example.com", "hunter22")
	if err != nil {
		t.Fatalf("AuthenticateUser() error = %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("authenticated user carries a password hash")
	}

	if _, err := users.AuthenticateUser(context.Background(), "frank@example.com", "wrong"); err == nil {
		t.Error("AuthenticateUser() with wrong password succeeded")
	}
	if _, err := users.AuthenticateUser(context.Background(), "nobody@example.com", "hunter22"); err == nil {
		t.Error("AuthenticateUser() for unknown email succeeded")
	}
}

func TestUserService_UpdatePassword(t *testing.T) {
	users := NewUserService(newTestDB(t), signals.NewRegistry())
	user := mustCreateUser(t, users, "grace", "grace@example.com")

	if err := users.UpdatePassword(context.Background(), user.ID, "wrong", "newpass12"); err == nil {
		t.Fatal("UpdatePassword() with wrong current password succeeded")
	} else if !strings.Contains(err.Error(), "incorrect") {
		t.Errorf("unexpected error: %v", err)
	}

	if err := users.UpdatePassword(context.Background(), user.ID, "hunter22", "newpass12"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	if _, err := users.AuthenticateUser(context.Background(), "grace@example.com", "newpass12"); err != nil {
		t.Errorf("AuthenticateUser() with new password failed: %v", err)
	}
}
