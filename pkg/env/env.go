// Package env has a single helper for reading environment variables with a
// default, used by the entrypoints before config is loaded.
package env

import "os"

// Get reads key from the environment, falling back when unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
