package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/thelonepunk/amorphic-learn/internal/database"
)

// TestListCoursesEmpty verifies an empty catalog serializes as [] rather
// than null.
func TestListCoursesEmpty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 500<<20)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/courses", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "[]\n" && body != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

// TestGetCourseWithLessons covers the public catalog read path.
func TestGetCourseWithLessons(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 500<<20)
	courseID := env.createTestCourse(t, "public-course")

	if _, err := env.db.CreateLesson(context.Background(), &database.Lesson{
		CourseID: courseID,
		Title:    "Watch Me",
		Slug:     "watch-me",
		VideoURL: "/videos/video-1.mp4",
	}); err != nil {
		t.Fatalf("CreateLesson() error = %v", err)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/courses/public-course", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var course database.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &course); err != nil {
		t.Fatalf("decoding course: %v", err)
	}
	if course.Slug != "public-course" {
		t.Errorf("Slug = %q, want public-course", course.Slug)
	}
	if len(course.Lessons) != 1 || course.Lessons[0].VideoURL != "/videos/video-1.mp4" {
		t.Errorf("Lessons = %+v, want one lesson with video reference", course.Lessons)
	}
}

// TestGetCourseNotFound covers the missing-slug path.
func TestGetCourseNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 500<<20)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/courses/no-such-course", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestGetLesson covers the single-lesson read path.
func TestGetLesson(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 500<<20)
	courseID := env.createTestCourse(t, "lesson-read")

	lessonID, err := env.db.CreateLesson(context.Background(), &database.Lesson{
		CourseID: courseID,
		Title:    "Single",
		Slug:     "single",
	})
	if err != nil {
		t.Fatalf("CreateLesson() error = %v", err)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/lessons/"+strconv.FormatInt(lessonID, 10), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var lesson database.Lesson
	if err := json.Unmarshal(rec.Body.Bytes(), &lesson); err != nil {
		t.Fatalf("decoding lesson: %v", err)
	}
	if lesson.Title != "Single" {
		t.Errorf("Title = %q, want Single", lesson.Title)
	}

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/lessons/99999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing lesson status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestProgressFlow covers marking and listing completion through the
// session-aware middleware.
func TestProgressFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 500<<20)
	cookie := setupAndLogin(t, env, "testpassword")

	courseID := env.createTestCourse(t, "progress-flow")
	lessonID, err := env.db.CreateLesson(context.Background(), &database.Lesson{
		CourseID: courseID,
		Title:    "Track Me",
		Slug:     "track-me",
	})
	if err != nil {
		t.Fatalf("CreateLesson() error = %v", err)
	}

	handler := env.handlers.AuthMiddleware(env.router)

	req := httptest.NewRequest("POST", "/api/progress/"+strconv.FormatInt(lessonID, 10), nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark complete status = %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/progress", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get progress status = %d", rec.Code)
	}

	var progress []database.LessonProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decoding progress: %v", err)
	}
	if len(progress) != 1 || progress[0].LessonID != lessonID {
		t.Errorf("progress = %+v, want one entry for lesson %d", progress, lessonID)
	}
}

// TestMarkProgressMissingLesson verifies progress rows never dangle.
func TestMarkProgressMissingLesson(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 500<<20)
	cookie := setupAndLogin(t, env, "testpassword")

	handler := env.handlers.AuthMiddleware(env.router)

	req := httptest.NewRequest("POST", "/api/progress/99999", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
