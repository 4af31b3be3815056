package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/logging"
)

// ListCourses returns the course catalog without lessons.
// GET /api/courses
func (h *Handlers) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.db.ListCourses(r.Context())
	if err != nil {
		logging.Error("Failed to list courses: %v", err)
		writeJSONError(w, "Failed to list courses", http.StatusInternalServerError)
		return
	}

	if courses == nil {
		courses = []database.Course{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, courses)
}

// GetCourse returns one course with its lessons ordered for display.
// GET /api/courses/{slug}
func (h *Handlers) GetCourse(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	course, err := h.db.GetCourseBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Course not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to get course %s: %v", slug, err)
		writeJSONError(w, "Failed to get course", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, course)
}

// GetLesson returns a single lesson.
// GET /api/lessons/{id}
func (h *Handlers) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid lesson ID", http.StatusBadRequest)
		return
	}

	lesson, err := h.db.GetLessonByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Lesson not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to get lesson %d: %v", id, err)
		writeJSONError(w, "Failed to get lesson", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, lesson)
}
