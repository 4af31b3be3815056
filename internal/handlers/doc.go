// Package handlers implements the HTTP handlers: session auth, the
// course/lesson catalog and admin console, video upload and streaming,
// and lesson progress tracking.
package handlers
