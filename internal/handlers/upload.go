package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/logging"
	"github.com/thelonepunk/amorphic-learn/internal/metrics"
	"github.com/thelonepunk/amorphic-learn/internal/videostore"
)

// videoFormField is the multipart field carrying the lesson video.
const videoFormField = "video"

// multipartMemoryLimit is the in-memory threshold for multipart parsing;
// larger parts spill to temp files.
const multipartMemoryLimit = 32 << 20

// CreateLesson handles the admin lesson form: lesson metadata plus an
// optional video upload. The video is persisted and the lesson saved
// referencing its served path before the transcode starts; the redirect
// is sent without waiting for the encoder.
// POST /admin/lessons
func (h *Handlers) CreateLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.rejectUpload(w, err)
		return
	}

	lesson, err := lessonFromForm(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	videoName, videoSize, ok := h.saveUploadedVideo(w, r)
	if !ok {
		return
	}
	if videoName != "" {
		lesson.VideoURL = "/videos/" + videoName
	}

	lessonID, err := h.db.CreateLesson(ctx, lesson)
	if err != nil {
		if videoName != "" {
			h.store.Remove(videoName)
		}
		logging.Error("Failed to create lesson: %v", err)
		writeJSONError(w, "Failed to save lesson", http.StatusInternalServerError)
		return
	}

	h.launchTranscode(r, videoName, lessonID, videoSize)

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// UpdateLesson handles lesson edits, optionally replacing the video. A
// replacement gets a fresh served path and its own transcode; the old
// file is left in place for any in-flight streams.
// PUT /admin/lessons/{id}
func (h *Handlers) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid lesson ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.rejectUpload(w, err)
		return
	}

	lesson, err := lessonFromForm(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	lesson.ID = id

	videoName, videoSize, ok := h.saveUploadedVideo(w, r)
	if !ok {
		return
	}
	if videoName != "" {
		lesson.VideoURL = "/videos/" + videoName
	}

	if err := h.db.UpdateLesson(ctx, lesson); err != nil {
		if videoName != "" {
			h.store.Remove(videoName)
		}
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Lesson not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to update lesson: %v", err)
		writeJSONError(w, "Failed to save lesson", http.StatusInternalServerError)
		return
	}

	h.launchTranscode(r, videoName, id, videoSize)

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// DeleteLesson removes a lesson. The stored video is retained; its record
// keeps the state history and the file stays readable for open streams.
// DELETE /admin/lessons/{id}
func (h *Handlers) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid lesson ID", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteLesson(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Lesson not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to delete lesson: %v", err)
		writeJSONError(w, "Failed to delete lesson", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"success": true})
}

// saveUploadedVideo validates and persists the optional video part. It
// returns ok=false after writing an error response; a missing video part
// is not an error. Rejections happen before any byte reaches storage.
func (h *Handlers) saveUploadedVideo(w http.ResponseWriter, r *http.Request) (name string, size int64, ok bool) {
	file, header, err := r.FormFile(videoFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return "", 0, true
	}
	if err != nil {
		writeJSONError(w, "Invalid video upload", http.StatusBadRequest)
		return "", 0, false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		metrics.UploadsTotal.WithLabelValues("rejected_type").Inc()
		writeJSONError(w, "Only video uploads are accepted", http.StatusBadRequest)
		return "", 0, false
	}

	name = videostore.GenerateName(videoFormField, header.Filename)
	size, err = h.store.Save(file, name)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		logging.Error("Failed to store upload %s: %v", name, err)
		writeJSONError(w, "Failed to store video", http.StatusInternalServerError)
		return "", 0, false
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	metrics.UploadBytes.Observe(float64(size))
	logging.Info("Stored video upload %s (%d bytes)", name, size)

	return name, size, true
}

// launchTranscode records the video and fires the detached transcode.
// Nothing here can fail the request: the lesson is already saved and the
// original bytes at the served path are valid, playable content.
func (h *Handlers) launchTranscode(r *http.Request, videoName string, lessonID, size int64) {
	if videoName == "" {
		return
	}

	videoID, err := h.db.CreateVideo(r.Context(), videoName, lessonID, size)
	if err != nil {
		logging.Error("Failed to record video %s: %v", videoName, err)
	}

	h.transcoder.Submit(videoID, videoName)
}

// rejectUpload maps multipart parse failures to a response; an oversized
// body tripping MaxBytesReader gets a 413.
func (h *Handlers) rejectUpload(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		metrics.UploadsTotal.WithLabelValues("rejected_size").Inc()
		writeJSONError(w, "Upload exceeds the maximum accepted size", http.StatusRequestEntityTooLarge)
		return
	}
	writeJSONError(w, "Invalid multipart form", http.StatusBadRequest)
}

// lessonFromForm extracts and validates lesson metadata fields.
func lessonFromForm(r *http.Request) (*database.Lesson, error) {
	courseID, err := strconv.ParseInt(r.FormValue("course_id"), 10, 64)
	if err != nil || courseID <= 0 {
		return nil, errors.New("course_id is required")
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		return nil, errors.New("title is required")
	}

	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		return nil, errors.New("slug is required")
	}

	duration, _ := strconv.Atoi(r.FormValue("duration"))
	sortOrder, _ := strconv.Atoi(r.FormValue("sort_order"))

	return &database.Lesson{
		CourseID:    courseID,
		Title:       title,
		Slug:        slug,
		Description: r.FormValue("description"),
		Duration:    duration,
		SortOrder:   sortOrder,
		Content:     r.FormValue("content"),
	}, nil
}
