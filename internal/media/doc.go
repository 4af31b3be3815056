// Package media handles course cover image processing.
package media
