// Package logging provides leveled logging controlled by the LOG_LEVEL
// and DEBUG environment variables.
package logging
