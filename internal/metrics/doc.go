// Package metrics defines the Prometheus metrics exported by the
// application. All metrics are registered at init via promauto.
package metrics
