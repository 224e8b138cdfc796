//go:build !darwin

package engine

// secureInputEnabled is always false outside macOS: only Carbon exposes
// IsSecureEventInputEnabled.
func secureInputEnabled() bool {
	return false
}
