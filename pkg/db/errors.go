package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint failure from
// Postgres or sqlite. A non-empty constraintName additionally requires that
// the offending constraint or column appears in the message, so callers can
// tell apart two unique indexes on the same table.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName == "" {
		return true
	}
	return strings.Contains(msg, constraintName)
}
