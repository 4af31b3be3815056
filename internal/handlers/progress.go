package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/logging"
)

// MarkLessonComplete records lesson completion for the session user.
// POST /api/progress/{lessonID}
func (h *Handlers) MarkLessonComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	lessonID, err := strconv.ParseInt(mux.Vars(r)["lessonID"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid lesson ID", http.StatusBadRequest)
		return
	}

	// Confirm the lesson exists so progress rows never dangle.
	if _, err := h.db.GetLessonByID(ctx, lessonID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Lesson not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to look up lesson %d: %v", lessonID, err)
		writeJSONError(w, "Failed to record progress", http.StatusInternalServerError)
		return
	}

	if err := h.db.MarkLessonComplete(ctx, user.ID, lessonID); err != nil {
		logging.Error("Failed to record progress for lesson %d: %v", lessonID, err)
		writeJSONError(w, "Failed to record progress", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"success": true})
}

// GetProgress lists the session user's completed lessons.
// GET /api/progress
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	progress, err := h.db.ListCompletedLessons(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to list progress: %v", err)
		writeJSONError(w, "Failed to list progress", http.StatusInternalServerError)
		return
	}

	if progress == nil {
		progress = []database.LessonProgress{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, progress)
}
