package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateVideo records a freshly uploaded video in state "uploaded" and
// returns the generated record ID.
func (d *Database) CreateVideo(ctx context.Context, name string, lessonID int64, size int64) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_video", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := uuid.New().String()

	var lesson interface{}
	if lessonID > 0 {
		lesson = lessonID
	}

	_, err = d.db.ExecContext(ctx,
		"INSERT INTO videos (id, name, lesson_id, state, original_size) VALUES (?, ?, ?, ?, ?)",
		id, name, lesson, VideoStateUploaded, size,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create video record: %w", err)
	}
	return id, nil
}

// SetVideoState advances a video's lifecycle state.
func (d *Database) SetVideoState(ctx context.Context, id string, state VideoState) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_video_state", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"UPDATE videos SET state = ?, updated_at = strftime('%s', 'now') WHERE id = ?",
		state, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set video state: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// SetVideoEncodedSize records the post-transcode size of a video.
func (d *Database) SetVideoEncodedSize(ctx context.Context, id string, size int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_video_encoded_size", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"UPDATE videos SET encoded_size = ?, updated_at = strftime('%s', 'now') WHERE id = ?",
		size, id,
	)
	return err
}

// GetVideoByName returns the record for a stored video file.
func (d *Database) GetVideoByName(ctx context.Context, name string) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_video", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v Video
	var lessonID sql.NullInt64
	var createdAt, updatedAt int64

	err = d.db.QueryRowContext(ctx,
		`SELECT id, name, lesson_id, state, original_size, encoded_size, created_at, updated_at
		 FROM videos WHERE name = ?`,
		name,
	).Scan(&v.ID, &v.Name, &lessonID, &v.State, &v.OriginalSize, &v.EncodedSize, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	v.LessonID = lessonID.Int64
	v.CreatedAt = time.Unix(createdAt, 0)
	v.UpdatedAt = time.Unix(updatedAt, 0)
	return &v, nil
}

// ListVideosInState returns all videos currently in the given state.
// Used at startup to identify transcodes interrupted by a crash.
func (d *Database) ListVideosInState(ctx context.Context, state VideoState) ([]Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_videos_in_state", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, lesson_id, state, original_size, encoded_size, created_at, updated_at
		 FROM videos WHERE state = ? ORDER BY created_at`,
		state,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		var lessonID sql.NullInt64
		var createdAt, updatedAt int64
		if err = rows.Scan(&v.ID, &v.Name, &lessonID, &v.State, &v.OriginalSize, &v.EncodedSize, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		v.LessonID = lessonID.Int64
		v.CreatedAt = time.Unix(createdAt, 0)
		v.UpdatedAt = time.Unix(updatedAt, 0)
		videos = append(videos, v)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return videos, nil
}
