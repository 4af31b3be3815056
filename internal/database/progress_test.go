package database

import (
	"context"
	"testing"
)

// TestProgressLifecycle covers marking and listing lesson completion.
func TestProgressLifecycle(t *testing.T) {
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

	courseID := createTestCourse(t, db, "progress-course")
	first := createTestLesson(t, db, courseID, "first")
	second := createTestLesson(t, db, courseID, "second")

	progress, err := db.ListCompletedLessons(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListCompletedLessons() error = %v", err)
	}
	if len(progress) != 0 {
		t.Fatalf("fresh user has %d completed lessons, want 0", len(progress))
	}

	if err := db.MarkLessonComplete(ctx, user.ID, first); err != nil {
		t.Fatalf("MarkLessonComplete() error = %v", err)
	}
	if err := db.MarkLessonComplete(ctx, user.ID, second); err != nil {
		t.Fatalf("MarkLessonComplete() error = %v", err)
	}

	progress, err = db.ListCompletedLessons(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListCompletedLessons() error = %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("ListCompletedLessons() returned %d entries, want 2", len(progress))
	}
}

// TestMarkLessonCompleteIdempotent verifies repeat completion is a no-op.
func TestMarkLessonCompleteIdempotent(t *testing.T) {
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

	courseID := createTestCourse(t, db, "idempotent")
	lessonID := createTestLesson(t, db, courseID, "once")

	for i := 0; i < 3; i++ {
		if err := db.MarkLessonComplete(ctx, user.ID, lessonID); err != nil {
			t.Fatalf("MarkLessonComplete() attempt %d error = %v", i, err)
		}
	}

	progress, err := db.ListCompletedLessons(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListCompletedLessons() error = %v", err)
	}
	if len(progress) != 1 {
		t.Errorf("ListCompletedLessons() returned %d entries, want 1", len(progress))
	}
}
