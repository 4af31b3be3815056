package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/logging"
)

// coverFormField is the multipart field carrying the course cover image.
const coverFormField = "cover"

// CreateCourse handles the admin course form with an optional cover image.
// POST /admin/courses
func (h *Handlers) CreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.rejectUpload(w, err)
		return
	}

	course, err := courseFromForm(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	coverName, ok := h.saveUploadedCover(w, r)
	if !ok {
		return
	}
	if coverName != "" {
		course.CoverURL = "/covers/" + coverName
	}

	if _, err := h.db.CreateCourse(ctx, course); err != nil {
		if coverName != "" {
			h.covers.Remove(coverName)
		}
		logging.Error("Failed to create course: %v", err)
		writeJSONError(w, "Failed to save course", http.StatusInternalServerError)
		return
	}

	h.db.UpdateCatalogMetrics(ctx)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// UpdateCourse handles course edits, optionally replacing the cover.
// PUT /admin/courses/{id}
func (h *Handlers) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.rejectUpload(w, err)
		return
	}

	course, err := courseFromForm(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	course.ID = id
	course.CoverURL = r.FormValue("cover_url")

	coverName, ok := h.saveUploadedCover(w, r)
	if !ok {
		return
	}
	if coverName != "" {
		course.CoverURL = "/covers/" + coverName
	}

	if err := h.db.UpdateCourse(ctx, course); err != nil {
		if coverName != "" {
			h.covers.Remove(coverName)
		}
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Course not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to update course: %v", err)
		writeJSONError(w, "Failed to save course", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// DeleteCourse removes a course and its lessons.
// DELETE /admin/courses/{id}
func (h *Handlers) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteCourse(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Course not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to delete course: %v", err)
		writeJSONError(w, "Failed to delete course", http.StatusInternalServerError)
		return
	}

	h.db.UpdateCatalogMetrics(ctx)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"success": true})
}

// saveUploadedCover validates and persists the optional cover image part.
// Returns ok=false after writing an error response.
func (h *Handlers) saveUploadedCover(w http.ResponseWriter, r *http.Request) (name string, ok bool) {
	file, header, err := r.FormFile(coverFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return "", true
	}
	if err != nil {
		writeJSONError(w, "Invalid cover upload", http.StatusBadRequest)
		return "", false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSONError(w, "Only image uploads are accepted for covers", http.StatusBadRequest)
		return "", false
	}

	name, err = h.covers.Save(file)
	if err != nil {
		logging.Error("Failed to store cover: %v", err)
		writeJSONError(w, "Failed to store cover image", http.StatusBadRequest)
		return "", false
	}

	return name, true
}

// courseFromForm extracts and validates course metadata fields.
func courseFromForm(r *http.Request) (*database.Course, error) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		return nil, errors.New("title is required")
	}

	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		return nil, errors.New("slug is required")
	}

	return &database.Course{
		Title:       title,
		Slug:        slug,
		Description: r.FormValue("description"),
	}, nil
}
