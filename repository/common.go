package repository

import "strings"

// isUniqueViolation detects uniqueness constraint errors across sqlite and
// postgres without driver-specific error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
