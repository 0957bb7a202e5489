package utils

import "github.com/google/uuid"

// IsValidUUID reports whether id parses as a UUID. Handlers use it to turn
// malformed path ids into 404s before they reach Postgres.
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
