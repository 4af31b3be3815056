package handlers

import (
	"time"

	"github.com/thelonepunk/amorphic-learn/internal/database"
	"github.com/thelonepunk/amorphic-learn/internal/media"
	"github.com/thelonepunk/amorphic-learn/internal/startup"
	"github.com/thelonepunk/amorphic-learn/internal/transcoder"
	"github.com/thelonepunk/amorphic-learn/internal/videostore"
)

// Handlers bundles the dependencies shared by all HTTP handlers.
type Handlers struct {
	db             *database.Database
	store          *videostore.Store
	covers         *media.CoverStore
	transcoder     *transcoder.Transcoder
	maxUploadBytes int64
	startedAt      time.Time
}

// New creates the handler set.
func New(db *database.Database, store *videostore.Store, covers *media.CoverStore, trans *transcoder.Transcoder, config *startup.Config) *Handlers {
	return &Handlers{
		db:             db,
		store:          store,
		covers:         covers,
		transcoder:     trans,
		maxUploadBytes: config.MaxUploadBytes,
		startedAt:      time.Now(),
	}
}
