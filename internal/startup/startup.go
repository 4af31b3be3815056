package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/thelonepunk/amorphic-learn/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration.
type Config struct {
	VideosDir        string
	CoversDir        string
	DatabaseDir      string
	Port             string
	MetricsPort      string
	MetricsEnabled   bool
	LogHealthChecks  bool
	MaxUploadBytes   int64
	TranscodeTimeout time.Duration
	FFmpegPath       string

	// Derived paths
	DatabasePath string
}

const (
	defaultMaxUploadBytes   = 500 << 20 // 500 MiB
	defaultTranscodeTimeout = 10 * time.Minute
)

// LoadConfig loads and validates configuration from the environment.
// A .env file in the working directory is loaded first if present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Info("Loaded configuration overrides from .env")
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	videosDir := getEnv("VIDEOS_DIR", "./public/videos")
	coversDir := getEnv("COVERS_DIR", "./public/covers")
	databaseDir := getEnv("DATABASE_DIR", "./data")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	maxUploadBytes := getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	transcodeTimeoutStr := getEnv("TRANSCODE_TIMEOUT", "10m")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")

	logging.Info("  VIDEOS_DIR:        %s", videosDir)
	logging.Info("  COVERS_DIR:        %s", coversDir)
	logging.Info("  DATABASE_DIR:      %s", databaseDir)
	logging.Info("  PORT:              %s", port)
	logging.Info("  METRICS_PORT:      %s", metricsPort)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  MAX_UPLOAD_BYTES:  %d", maxUploadBytes)
	logging.Info("  TRANSCODE_TIMEOUT: %s", transcodeTimeoutStr)
	logging.Info("  FFMPEG_PATH:       %s", ffmpegPath)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	transcodeTimeout, err := time.ParseDuration(transcodeTimeoutStr)
	if err != nil {
		logging.Warn("  Invalid TRANSCODE_TIMEOUT, using default: 10m")
		transcodeTimeout = defaultTranscodeTimeout
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	videosDir, err = filepath.Abs(videosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve videos directory path: %w", err)
	}
	coversDir, err = filepath.Abs(coversDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve covers directory path: %w", err)
	}
	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	for _, dir := range []struct{ path, name string }{
		{videosDir, "videos"},
		{coversDir, "covers"},
		{databaseDir, "database"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, err
		}
		logging.Info("  %s directory: %s", dir.name, dir.path)
	}

	return &Config{
		VideosDir:        videosDir,
		CoversDir:        coversDir,
		DatabaseDir:      databaseDir,
		Port:             port,
		MetricsPort:      metricsPort,
		MetricsEnabled:   metricsEnabled,
		LogHealthChecks:  logHealthChecks,
		MaxUploadBytes:   maxUploadBytes,
		TranscodeTimeout: transcodeTimeout,
		FFmpegPath:       ffmpegPath,
		DatabasePath:     filepath.Join(databaseDir, "amorphic.db"),
	}, nil
}

// ensureDirectory creates the directory if missing and verifies it is writable.
func ensureDirectory(path, name string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory %s: %w", name, path, err)
	}

	testFile := filepath.Join(path, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("%s directory %s is not writable: %w", name, path, err)
	}
	_ = os.Remove(testFile)

	return nil
}

// LogFatal logs a fatal error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
