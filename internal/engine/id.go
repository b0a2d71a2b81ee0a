package engine

import "github.com/google/uuid"

// generateID creates a random id for sessions.
func generateID() string {
	return uuid.NewString()
}
