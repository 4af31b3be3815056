package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thelonepunk/amorphic-learn/internal/metrics"
)

// ErrNotFound is returned when a catalog entity does not exist.
var ErrNotFound = errors.New("not found")

// CreateCourse inserts a new course and returns its ID.
func (d *Database) CreateCourse(ctx context.Context, c *Course) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_course", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO courses (title, slug, description, cover_url) VALUES (?, ?, ?, ?)",
		c.Title, c.Slug, c.Description, c.CoverURL,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateCourse updates an existing course.
func (d *Database) UpdateCourse(ctx context.Context, c *Course) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_course", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		`UPDATE courses
		 SET title = ?, slug = ?, description = ?, cover_url = ?, updated_at = strftime('%s', 'now')
		 WHERE id = ?`,
		c.Title, c.Slug, c.Description, c.CoverURL, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// DeleteCourse removes a course and (via cascade) its lessons.
func (d *Database) DeleteCourse(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_course", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// ListCourses returns all courses ordered by title, without lessons.
func (d *Database) ListCourses(ctx context.Context) ([]Course, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_courses", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, title, slug, description, cover_url, created_at, updated_at
		 FROM courses ORDER BY title COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		var createdAt, updatedAt int64
		if err = rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.CoverURL, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		c.UpdatedAt = time.Unix(updatedAt, 0)
		courses = append(courses, c)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourseBySlug returns a course with its lessons ordered by sort_order.
func (d *Database) GetCourseBySlug(ctx context.Context, slug string) (*Course, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_course", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c Course
	var createdAt, updatedAt int64
	err = d.db.QueryRowContext(ctx,
		`SELECT id, title, slug, description, cover_url, created_at, updated_at
		 FROM courses WHERE slug = ?`,
		slug,
	).Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.CoverURL, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)

	c.Lessons, err = d.lessonsForCourse(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *Database) lessonsForCourse(ctx context.Context, courseID int64) ([]Lesson, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, course_id, title, slug, description, duration, sort_order, content, video_url, created_at, updated_at
		 FROM lessons WHERE course_id = ? ORDER BY sort_order, id`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLesson(row rowScanner) (*Lesson, error) {
	var l Lesson
	var createdAt, updatedAt int64
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Slug, &l.Description,
		&l.Duration, &l.SortOrder, &l.Content, &l.VideoURL, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	l.CreatedAt = time.Unix(createdAt, 0)
	l.UpdatedAt = time.Unix(updatedAt, 0)
	return &l, nil
}

// CreateLesson inserts a new lesson and returns its ID. The video_url is
// written here, before any transcode of the referenced video completes;
// the path is stable and the original bytes are already playable.
func (d *Database) CreateLesson(ctx context.Context, l *Lesson) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_lesson", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		`INSERT INTO lessons (course_id, title, slug, description, duration, sort_order, content, video_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.CourseID, l.Title, l.Slug, l.Description, l.Duration, l.SortOrder, l.Content, l.VideoURL,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create lesson: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateLesson updates an existing lesson. An empty VideoURL leaves the
// stored reference unchanged so a metadata-only edit never orphans a video.
func (d *Database) UpdateLesson(ctx context.Context, l *Lesson) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_lesson", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		`UPDATE lessons
		 SET title = ?, slug = ?, description = ?, duration = ?, sort_order = ?, content = ?,
		     video_url = CASE WHEN ? = '' THEN video_url ELSE ? END,
		     updated_at = strftime('%s', 'now')
		 WHERE id = ?`,
		l.Title, l.Slug, l.Description, l.Duration, l.SortOrder, l.Content,
		l.VideoURL, l.VideoURL, l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// DeleteLesson removes a lesson.
func (d *Database) DeleteLesson(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_lesson", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM lessons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// GetLessonByID returns a single lesson.
func (d *Database) GetLessonByID(ctx context.Context, id int64) (*Lesson, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_lesson", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		`SELECT id, course_id, title, slug, description, duration, sort_order, content, video_url, created_at, updated_at
		 FROM lessons WHERE id = ?`,
		id,
	)

	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return l, nil
}

// UpdateCatalogMetrics refreshes the course/lesson gauges.
func (d *Database) UpdateCatalogMetrics(ctx context.Context) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var courses, lessons int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&courses); err == nil {
		metrics.CoursesTotal.Set(float64(courses))
	}
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lessons").Scan(&lessons); err == nil {
		metrics.LessonsTotal.Set(float64(lessons))
	}
}
