// Package database provides SQLite-backed persistence for the course
// catalog, lesson progress, user sessions, and stored-video lifecycle
// records.
package database
