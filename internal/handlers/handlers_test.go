package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/media"
	"github.com/thelonepunk/amorphic-learn/internal/startup"
	"github.com/thelonepunk/amorphic-learn/internal/transcoder"
	"github.com/thelonepunk/amorphic-learn/internal/videostore"
)

// fakeEncoder stands in for ffmpeg: it writes a fixed payload to the
// output path (the last argument) after confirming the input exists.
const fakeEncoder = `#!/bin/sh
in=""
prev=""
out=""
for a in "$@"; do
	if [ "$prev" = "-i" ]; then in="$a"; fi
	prev="$a"
	out="$a"
done
test -f "$in" || exit 1
printf 'encoded-output' > "$out"
`

type testEnv struct {
	handlers *Handlers
	db       *database.Database
	store    *videostore.Store
	router   *mux.Router
}

// newTestEnv assembles handlers over a real temp-dir database and video
// store, with a shell script in place of the encoder.
func newTestEnv(t *testing.T, maxUploadBytes int64) *testEnv {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := videostore.New(t.TempDir())
	if err != nil {
		t.Fatalf("videostore.New() error = %v", err)
	}

	covers, err := media.NewCoverStore(t.TempDir())
	if err != nil {
		t.Fatalf("media.NewCoverStore() error = %v", err)
	}

	encoderPath := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(encoderPath, []byte(fakeEncoder), 0o755); err != nil {
		t.Fatalf("writing fake encoder: %v", err)
	}

	trans := transcoder.New(store, db, encoderPath, time.Minute)

	h := New(db, store, covers, trans, &startup.Config{
		MaxUploadBytes: maxUploadBytes,
	})

	return &testEnv{
		handlers: h,
		db:       db,
		store:    store,
		router:   newTestRouter(h),
	}
}

// newTestRouter mirrors the server's route layout for the handlers under
// test.
func newTestRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/setup-required", h.CheckSetupRequired).Methods("GET")
	r.HandleFunc("/api/auth/setup", h.Setup).Methods("POST")
	r.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", h.Logout).Methods("POST")
	r.HandleFunc("/api/auth/check", h.CheckAuth).Methods("GET")

	r.HandleFunc("/api/courses", h.ListCourses).Methods("GET")
	r.HandleFunc("/api/courses/{slug}", h.GetCourse).Methods("GET")
	r.HandleFunc("/api/lessons/{id:[0-9]+}", h.GetLesson).Methods("GET")
	r.HandleFunc("/videos/{name}", h.StreamVideo).Methods("GET", "HEAD")
	r.HandleFunc("/covers/{name}", h.GetCover).Methods("GET", "HEAD")

	r.HandleFunc("/api/progress", h.GetProgress).Methods("GET")
	r.HandleFunc("/api/progress/{lessonID:[0-9]+}", h.MarkLessonComplete).Methods("POST")

	r.HandleFunc("/admin/courses", h.CreateCourse).Methods("POST")
	r.HandleFunc("/admin/courses/{id:[0-9]+}", h.UpdateCourse).Methods("PUT", "POST")
	r.HandleFunc("/admin/courses/{id:[0-9]+}", h.DeleteCourse).Methods("DELETE")
	r.HandleFunc("/admin/lessons", h.CreateLesson).Methods("POST")
	r.HandleFunc("/admin/lessons/{id:[0-9]+}", h.UpdateLesson).Methods("PUT", "POST")
	r.HandleFunc("/admin/lessons/{id:[0-9]+}", h.DeleteLesson).Methods("DELETE")

	return r
}

// createTestCourse inserts a course directly and returns its ID.
func (e *testEnv) createTestCourse(t *testing.T, slug string) int64 {
	t.Helper()

	id, err := e.db.CreateCourse(context.Background(), &database.Course{
		Title: "Course " + slug,
		Slug:  slug,
	})
	if err != nil {
		t.Fatalf("CreateCourse() error = %v", err)
	}
	return id
}

// multipartBody builds a multipart form with the given text fields and an
// optional file part carrying an explicit Content-Type.
func multipartBody(t *testing.T, fields map[string]string, fileField, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField(%s) error = %v", key, err)
		}
	}

	if fileField != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filename))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

// waitForVideoState polls until the named video reaches the state or the
// deadline passes.
func (e *testEnv) waitForVideoState(t *testing.T, name string, state database.VideoState) {
	t.Helper()

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		video, err := e.db.GetVideoByName(context.Background(), name)
		if err == nil && video.State == state {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("video %s never reached state %s", name, state)
}

// storedVideoNames lists served video files currently in the store,
// excluding backups and temp outputs.
func (e *testEnv) storedVideoNames(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(e.store.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	var names []string
	for _, entry := range entries {
		if videostore.ValidateName(entry.Name()) == nil {
			names = append(names, entry.Name())
		}
	}
	return names
}
