// Package startup handles configuration loading, directory validation,
// and build information.
package startup
