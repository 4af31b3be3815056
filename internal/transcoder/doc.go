// Package transcoder runs detached background video transcodes: it backs
// up the served file, invokes an external encoder against the backup, and
// atomically swaps the output into place so readers never observe a
// partially-written video.
package transcoder
