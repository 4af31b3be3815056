package database

import (
	"context"
	"fmt"
	"time"
)

// MarkLessonComplete records lesson completion for a user. Completing an
// already-completed lesson is a no-op.
func (d *Database) MarkLessonComplete(ctx context.Context, userID, lessonID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("mark_lesson_complete", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO progress (user_id, lesson_id) VALUES (?, ?)
		 ON CONFLICT(user_id, lesson_id) DO NOTHING`,
		userID, lessonID,
	)
	if err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}
	return nil
}

// ListCompletedLessons returns the user's completed lessons, newest first.
func (d *Database) ListCompletedLessons(ctx context.Context, userID int64) ([]LessonProgress, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_completed_lessons", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT lesson_id, completed_at FROM progress WHERE user_id = ? ORDER BY completed_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var progress []LessonProgress
	for rows.Next() {
		var p LessonProgress
		var completedAt int64
		if err = rows.Scan(&p.LessonID, &completedAt); err != nil {
			return nil, err
		}
		p.CompletedAt = time.Unix(completedAt, 0)
		progress = append(progress, p)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return progress, nil
}
