// Package videostore manages video files on durable storage: unique name
// generation, upload persistence, pre-transcode backups, and the atomic
// swap of encoder output over the served path.
package videostore
