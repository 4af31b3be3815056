package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/handlers"
	"github.com/thelonepunk/amorphic-learn/internal/logging"
	"github.com/thelonepunk/amorphic-learn/internal/media"
	"github.com/thelonepunk/amorphic-learn/internal/metrics"
	"github.com/thelonepunk/amorphic-learn/internal/middleware"
	"github.com/thelonepunk/amorphic-learn/internal/startup"
	"github.com/thelonepunk/amorphic-learn/internal/transcoder"
	"github.com/thelonepunk/amorphic-learn/internal/videostore"
)

func main() {
	startTime := time.Now()
	ctx := context.Background()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store, err := videostore.New(config.VideosDir)
	if err != nil {
		startup.LogFatal("Failed to initialize video store: %v", err)
	}

	covers, err := media.NewCoverStore(config.CoversDir)
	if err != nil {
		startup.LogFatal("Failed to initialize cover store: %v", err)
	}

	trans := transcoder.New(store, db, config.FFmpegPath, config.TranscodeTimeout)

	recoverInterruptedTranscodes(ctx, db, store)

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := db.CleanExpiredSessions(); err != nil {
				logging.Warn("Session cleanup failed: %v", err)
			}
		}
	}()

	db.UpdateCatalogMetrics(ctx)

	h := handlers.New(db, store, covers, trans, config)

	router := setupRouter(h)

	// Session validation wraps everything; logging and metrics wrap that.
	authedRouter := h.AuthMiddleware(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(authedRouter)

	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming responses have no fixed bound
		IdleTimeout:  60 * time.Second,
	}

	if config.MetricsEnabled {
		go serveMetrics(config.MetricsPort)
	}

	go handleShutdown(srv)

	logging.Info("Server started on :%s in %s", config.Port, time.Since(startTime).Round(time.Millisecond))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and version routes (no auth required)
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Public catalog and media read-back
	r.HandleFunc("/api/courses", h.ListCourses).Methods("GET")
	r.HandleFunc("/api/courses/{slug}", h.GetCourse).Methods("GET")
	r.HandleFunc("/api/lessons/{id:[0-9]+}", h.GetLesson).Methods("GET")
	r.HandleFunc("/videos/{name}", h.StreamVideo).Methods("GET", "HEAD")
	r.HandleFunc("/covers/{name}", h.GetCover).Methods("GET", "HEAD")

	// Progress (requires session)
	r.HandleFunc("/api/progress", h.GetProgress).Methods("GET")
	r.HandleFunc("/api/progress/{lessonID:[0-9]+}", h.MarkLessonComplete).Methods("POST")

	// Admin console (requires session)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/courses", h.CreateCourse).Methods("POST")
	admin.HandleFunc("/courses/{id:[0-9]+}", h.UpdateCourse).Methods("PUT", "POST")
	admin.HandleFunc("/courses/{id:[0-9]+}", h.DeleteCourse).Methods("DELETE")
	admin.HandleFunc("/lessons", h.CreateLesson).Methods("POST")
	admin.HandleFunc("/lessons/{id:[0-9]+}", h.UpdateLesson).Methods("PUT", "POST")
	admin.HandleFunc("/lessons/{id:[0-9]+}", h.DeleteLesson).Methods("DELETE")

	// Static admin UI
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

// recoverInterruptedTranscodes resolves state left by a crash: stale
// _tmp/.part files are deleted and videos stuck mid-transcode are marked
// failed. Their served paths still hold playable bytes (the original
// upload), so no further action is needed.
func recoverInterruptedTranscodes(ctx context.Context, db *database.Database, store *videostore.Store) {
	if removed, err := store.CleanupStale(); err != nil {
		logging.Warn("Stale artifact cleanup failed: %v", err)
	} else if removed > 0 {
		logging.Info("Removed %d stale transcode artifacts", removed)
	}

	for _, state := range []database.VideoState{database.VideoStateBackedUp, database.VideoStateEncoding} {
		videos, err := db.ListVideosInState(ctx, state)
		if err != nil {
			logging.Warn("Failed to list videos in state %s: %v", state, err)
			continue
		}
		for _, v := range videos {
			logging.Warn("Video %s was interrupted in state %s; marking failed", v.Name, state)
			if err := db.SetVideoState(ctx, v.ID, database.VideoStateFailed); err != nil {
				logging.Error("Failed to mark video %s failed: %v", v.Name, err)
			}
		}
	}
}

func serveMetrics(port string) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	logging.Info("Metrics server started on :%s", port)
	if err := http.ListenAndServe(":"+port, metricsMux); err != nil {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Shutdown initiated (%s)", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		logging.Info("HTTP server stopped")
	}
}
