package database

import (
	"context"
	"testing"
)

// TestUserLifecycle covers setup, password validation, and rejection of a
// wrong password.
func TestUserLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if db.HasUsers(ctx) {
		t.Fatal("HasUsers() = true on fresh database")
	}

	if err := db.CreateUser(ctx, "correct horse battery"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if !db.HasUsers(ctx) {
		t.Fatal("HasUsers() = false after CreateUser()")
	}

	user, err := db.ValidatePassword(ctx, "correct horse battery")
	if err != nil {
		t.Fatalf("ValidatePassword() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("ValidatePassword() returned user with zero ID")
	}

	if _, err := db.ValidatePassword(ctx, "wrong password"); err == nil {
		t.Error("ValidatePassword() accepted wrong password")
	}
}

// TestSessionLifecycle covers creation, validation, and deletion.
func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "testpassword"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	user, err := db.ValidatePassword(ctx, "testpassword")
	if err != nil {
		t.Fatalf("ValidatePassword() error = %v", err)
	}

	session, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.Token == "" {
		t.Fatal("CreateSession() returned empty token")
	}

	validated, err := db.ValidateSession(ctx, session.Token)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if validated.ID != user.ID {
		t.Errorf("ValidateSession() user ID = %d, want %d", validated.ID, user.ID)
	}

	if err := db.DeleteSession(ctx, session.Token); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.ValidateSession(ctx, session.Token); err == nil {
		t.Error("ValidateSession() accepted deleted session")
	}
}

// TestValidateSessionRejectsGarbage covers malformed and unknown tokens.
func TestValidateSessionRejectsGarbage(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not hex", "zzzz-not-hex"},
		{"unknown token", "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.ValidateSession(ctx, tt.token); err == nil {
				t.Errorf("ValidateSession(%q) succeeded, want error", tt.token)
			}
		})
	}
}

// TestUpdatePasswordInvalidatesSessions verifies a password change logs
// everyone out.
func TestUpdatePasswordInvalidatesSessions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "oldpassword"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	user, err := db.ValidatePassword(ctx, "oldpassword")
	if err != nil {
		t.Fatalf("ValidatePassword() error = %v", err)
	}
	session, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := db.UpdatePassword(ctx, "newpassword"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	if _, err := db.ValidatePassword(ctx, "oldpassword"); err == nil {
		t.Error("old password still valid after update")
	}
	if _, err := db.ValidatePassword(ctx, "newpassword"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := db.ValidateSession(ctx, session.Token); err == nil {
		t.Error("session survived password update")
	}
}

// TestUpdatePasswordWithoutUser verifies the error when setup never ran.
func TestUpdatePasswordWithoutUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.UpdatePassword(context.Background(), "whatever"); err == nil {
		t.Fatal("UpdatePassword() succeeded with no user")
	}
}

// TestCleanExpiredSessions verifies cleanup leaves valid sessions alone.
func TestCleanExpiredSessions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "testpassword"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	user, err := db.ValidatePassword(ctx, "testpassword")
	if err != nil {
		t.Fatalf("ValidatePassword() error = %v", err)
	}
	session, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := db.CleanExpiredSessions(); err != nil {
		t.Fatalf("CleanExpiredSessions() error = %v", err)
	}

	if _, err := db.ValidateSession(ctx, session.Token); err != nil {
		t.Errorf("valid session removed by cleanup: %v", err)
	}
}
