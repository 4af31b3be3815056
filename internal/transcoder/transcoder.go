package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/logging"
	"github.com/thelonepunk/amorphic-learn/internal/metrics"
	"github.com/thelonepunk/amorphic-learn/internal/videostore"
)

// Errors reported in a job Result.
var (
	// ErrBackupFailed means the pre-transcode copy could not be made;
	// the encoder never ran and the served file is untouched.
	ErrBackupFailed = errors.New("backup copy failed")
	// ErrEncodeFailed means the external encoder exited non-zero or
	// timed out; the served file is untouched.
	ErrEncodeFailed = errors.New("encode failed")
	// ErrSwapFailed means the encode succeeded but the atomic rename
	// did not; the served file keeps the original bytes.
	ErrSwapFailed = errors.New("swap failed")
)

// StateStore records video lifecycle transitions. *database.Database
// satisfies it; tests substitute a stub.
type StateStore interface {
	SetVideoState(ctx context.Context, id string, state database.VideoState) error
	SetVideoEncodedSize(ctx context.Context, id string, size int64) error
}

// Result is the outcome of a transcode job.
type Result struct {
	Name         string
	OriginalSize int64
	EncodedSize  int64
	Duration     time.Duration
	Err          error
}

// Job is a handle to an in-flight transcode. The upload path fires and
// forgets, but the handle exists so a supervising layer can observe
// completion without restructuring the worker.
type Job struct {
	VideoID string
	Name    string
	done    chan Result
}

// Done returns a channel that receives the job result exactly once and
// is then closed.
func (j *Job) Done() <-chan Result {
	return j.done
}

// Transcoder converts stored videos to a web-streaming-friendly encoding
// without ever exposing a partial file at the served path.
type Transcoder struct {
	store      *videostore.Store
	states     StateStore
	ffmpegPath string
	timeout    time.Duration
}

// New creates a Transcoder. ffmpegPath is the encoder binary to invoke
// and timeout bounds each encode's wall-clock time.
func New(store *videostore.Store, states StateStore, ffmpegPath string, timeout time.Duration) *Transcoder {
	return &Transcoder{
		store:      store,
		states:     states,
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
	}
}

// Submit starts a transcode for the named video and returns immediately.
// The work runs detached; failures are logged and recorded in the video's
// state, never surfaced to the request that triggered the upload.
func (t *Transcoder) Submit(videoID, name string) *Job {
	job := &Job{
		VideoID: videoID,
		Name:    name,
		done:    make(chan Result, 1),
	}

	go func() {
		result := t.run(job)
		job.done <- result
		close(job.done)
	}()

	return job
}

// run executes the backup-encode-swap sequence for one video. Each video
// occupies a distinct served path, so concurrent jobs never conflict and
// no locking spans the sequence; correctness rests on the atomicity of
// the final rename.
func (t *Transcoder) run(job *Job) Result {
	start := time.Now()
	metrics.TranscodeJobsInProgress.Inc()
	defer metrics.TranscodeJobsInProgress.Dec()

	result := Result{Name: job.Name}

	originalSize, err := t.store.Size(job.Name)
	if err != nil {
		logging.Error("Transcode %s: cannot stat served file: %v", job.Name, err)
		metrics.TranscodeJobsTotal.WithLabelValues("backup_failed").Inc()
		t.setState(job.VideoID, database.VideoStateFailed)
		result.Err = fmt.Errorf("%w: %v", ErrBackupFailed, err)
		return result
	}
	result.OriginalSize = originalSize

	// Step 1: copy served -> _orig. The encoder reads the backup so the
	// served file stays untouched until the swap.
	if err := t.store.Backup(job.Name); err != nil {
		logging.Error("Transcode %s: backup copy failed: %v", job.Name, err)
		metrics.TranscodeJobsTotal.WithLabelValues("backup_failed").Inc()
		t.setState(job.VideoID, database.VideoStateFailed)
		result.Err = fmt.Errorf("%w: %v", ErrBackupFailed, err)
		return result
	}
	t.setState(job.VideoID, database.VideoStateBackedUp)

	// Step 2: encode _orig -> _tmp under a hard wall-clock timeout.
	t.setState(job.VideoID, database.VideoStateEncoding)
	if err := t.encode(job.Name); err != nil {
		t.store.RemoveTemp(job.Name)
		logging.Error("Transcode %s: %v", job.Name, err)
		metrics.TranscodeJobsTotal.WithLabelValues("encode_failed").Inc()
		t.setState(job.VideoID, database.VideoStateFailed)
		result.Err = err
		return result
	}

	encodedSize, err := t.tempSize(job.Name)
	if err != nil {
		logging.Warn("Transcode %s: cannot stat encoder output: %v", job.Name, err)
	}

	// Step 3: atomic swap. A failed rename leaves the pre-rename state
	// intact, so the served path still holds the original bytes.
	if err := t.store.Swap(job.Name); err != nil {
		t.store.RemoveTemp(job.Name)
		logging.Error("Transcode %s: swap failed: %v", job.Name, err)
		metrics.TranscodeJobsTotal.WithLabelValues("swap_failed").Inc()
		t.setState(job.VideoID, database.VideoStateFailed)
		result.Err = fmt.Errorf("%w: %v", ErrSwapFailed, err)
		return result
	}

	t.setState(job.VideoID, database.VideoStateSwapped)
	t.setEncodedSize(job.VideoID, encodedSize)

	result.EncodedSize = encodedSize
	result.Duration = time.Since(start)

	metrics.TranscodeJobsTotal.WithLabelValues("success").Inc()
	metrics.TranscodeJobDuration.Observe(result.Duration.Seconds())
	if originalSize > 0 && encodedSize > 0 {
		ratio := float64(encodedSize) / float64(originalSize)
		metrics.TranscodeCompressionRatio.Observe(ratio)
		logging.Info("Transcode %s: %d -> %d bytes (%.1f%%) in %s",
			job.Name, originalSize, encodedSize, ratio*100, result.Duration.Round(time.Second))
	} else {
		logging.Info("Transcode %s: completed in %s", job.Name, result.Duration.Round(time.Second))
	}

	return result
}

// encode runs the external encoder against the _orig backup, writing to
// the _tmp path. Output targets H.264/AAC in a faststart MP4 so playback
// can begin before the file is fully downloaded.
func (t *Transcoder) encode(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y",
		"-i", t.store.OriginalPath(name),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		t.store.TempPath(name),
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: timed out after %s", ErrEncodeFailed, t.timeout)
		}
		return fmt.Errorf("%w: %v - %s", ErrEncodeFailed, err, lastLine(stderr.String()))
	}

	return nil
}

// tempSize is measured before the swap so the size log reflects the
// encoder output even if a later step fails.
func (t *Transcoder) tempSize(name string) (int64, error) {
	info, err := os.Stat(t.store.TempPath(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (t *Transcoder) setState(videoID string, state database.VideoState) {
	if t.states == nil || videoID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.states.SetVideoState(ctx, videoID, state); err != nil {
		logging.Warn("failed to record video state %s for %s: %v", state, videoID, err)
	}
}

func (t *Transcoder) setEncodedSize(videoID string, size int64) {
	if t.states == nil || videoID == "" || size <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.states.SetVideoEncodedSize(ctx, videoID, size); err != nil {
		logging.Warn("failed to record encoded size for %s: %v", videoID, err)
	}
}

// lastLine returns the final non-empty line of encoder stderr, which is
// where ffmpeg puts the actual failure reason.
func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
