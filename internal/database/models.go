package database

import "time"

// VideoState is the explicit lifecycle state of a stored video.
type VideoState string

const (
	// VideoStateUploaded means the original upload is the served file.
	VideoStateUploaded VideoState = "uploaded"
	// VideoStateBackedUp means the _orig copy exists and encoding is next.
	VideoStateBackedUp VideoState = "backed_up"
	// VideoStateEncoding means the external encoder is running.
	VideoStateEncoding VideoState = "encoding"
	// VideoStateSwapped means the encoded output replaced the served file.
	VideoStateSwapped VideoState = "swapped"
	// VideoStateFailed means the transcode failed; served file is the original.
	VideoStateFailed VideoState = "failed"
)

// Course is a catalog entry grouping lessons.
type Course struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	Lessons     []Lesson  `json:"lessons,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Lesson is a single unit of course content, optionally backed by a video.
type Lesson struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"courseId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"` // minutes
	SortOrder   int       `json:"sortOrder"`
	Content     string    `json:"content"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Video is the database record for a stored video file. Name is the base
// filename under the public videos directory; the served path is stable
// for the lifetime of the record even though the bytes underneath change
// once when the transcode swaps them.
type Video struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	LessonID     int64      `json:"lessonId,omitempty"`
	State        VideoState `json:"state"`
	OriginalSize int64      `json:"originalSize"`
	EncodedSize  int64      `json:"encodedSize"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// User represents the single admin account in the system.
type User struct {
	ID           int64     `json:"id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session represents an authenticated user session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// LessonProgress records a completed lesson for a user.
type LessonProgress struct {
	LessonID    int64     `json:"lessonId"`
	CompletedAt time.Time `json:"completedAt"`
}
