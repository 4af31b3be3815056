package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestGetEnvHelpers covers the env parsing helpers.
func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_BOOL_TRUE", "true")
	t.Setenv("TEST_BOOL_BAD", "notabool")
	t.Setenv("TEST_INT", "12345")
	t.Setenv("TEST_INT_BAD", "xyz")
	t.Setenv("TEST_INT_NEG", "-5")

	if got := getEnv("TEST_STRING", "fallback"); got != "value" {
		t.Errorf("getEnv(TEST_STRING) = %q, want value", got)
	}
	if got := getEnv("TEST_UNSET_VAR", "fallback"); got != "fallback" {
		t.Errorf("getEnv(unset) = %q, want fallback", got)
	}

	if got := getEnvBool("TEST_BOOL_TRUE", false); !got {
		t.Error("getEnvBool(true) = false")
	}
	if got := getEnvBool("TEST_BOOL_BAD", true); !got {
		t.Error("getEnvBool(invalid) did not fall back")
	}
	if got := getEnvBool("TEST_UNSET_VAR", true); !got {
		t.Error("getEnvBool(unset) did not fall back")
	}

	if got := getEnvInt64("TEST_INT", 1); got != 12345 {
		t.Errorf("getEnvInt64(TEST_INT) = %d, want 12345", got)
	}
	if got := getEnvInt64("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("getEnvInt64(invalid) = %d, want fallback 7", got)
	}
	if got := getEnvInt64("TEST_INT_NEG", 7); got != 7 {
		t.Errorf("getEnvInt64(negative) = %d, want fallback 7", got)
	}
}

// TestLoadConfig verifies directory creation and derived paths.
func TestLoadConfig(t *testing.T) {
	base := t.TempDir()
	t.Setenv("VIDEOS_DIR", filepath.Join(base, "videos"))
	t.Setenv("COVERS_DIR", filepath.Join(base, "covers"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))
	t.Setenv("PORT", "9999")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("TRANSCODE_TIMEOUT", "2m")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "9999" {
		t.Errorf("Port = %q, want 9999", config.Port)
	}
	if config.MaxUploadBytes != 1048576 {
		t.Errorf("MaxUploadBytes = %d, want 1048576", config.MaxUploadBytes)
	}
	if config.TranscodeTimeout != 2*time.Minute {
		t.Errorf("TranscodeTimeout = %v, want 2m", config.TranscodeTimeout)
	}
	if filepath.Base(config.DatabasePath) != "amorphic.db" {
		t.Errorf("DatabasePath = %q, want amorphic.db under database dir", config.DatabasePath)
	}

	// The directories must exist and be writable afterwards.
	for _, dir := range []string{config.VideosDir, config.CoversDir, config.DatabaseDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s missing after LoadConfig(): %v", dir, err)
		}
	}
}

// TestLoadConfigDefaults verifies fallbacks for invalid values.
func TestLoadConfigDefaults(t *testing.T) {
	base := t.TempDir()
	t.Setenv("VIDEOS_DIR", filepath.Join(base, "videos"))
	t.Setenv("COVERS_DIR", filepath.Join(base, "covers"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))
	t.Setenv("TRANSCODE_TIMEOUT", "not-a-duration")
	t.Setenv("MAX_UPLOAD_BYTES", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.TranscodeTimeout != defaultTranscodeTimeout {
		t.Errorf("TranscodeTimeout = %v, want default %v", config.TranscodeTimeout, defaultTranscodeTimeout)
	}
	if config.MaxUploadBytes != defaultMaxUploadBytes {
		t.Errorf("MaxUploadBytes = %d, want default %d", config.MaxUploadBytes, defaultMaxUploadBytes)
	}
	if config.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want ffmpeg", config.FFmpegPath)
	}
}

// TestEnsureDirectoryRejectsUnwritable verifies the writability probe.
func TestEnsureDirectoryRejectsUnwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}

	dir := filepath.Join(t.TempDir(), "readonly")
	if err := os.Mkdir(dir, 0o555); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	if err := ensureDirectory(dir, "test"); err == nil {
		t.Error("ensureDirectory() accepted a read-only directory")
	}
}

// TestGetBuildInfo verifies build metadata plumbing.
func TestGetBuildInfo(t *testing.T) {
	t.Parallel()

	info := GetBuildInfo()
	if info.Version == "" || info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("GetBuildInfo() has empty fields: %+v", info)
	}
}
