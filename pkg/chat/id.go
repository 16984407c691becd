package chat

import "github.com/google/uuid"

// NewID returns an opaque random token for sessions and messages
func NewID() string {
	return uuid.NewString()
}
