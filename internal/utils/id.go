package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a best-effort unique identifier for relay connections.
func NewID() string {
	const size = 12

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// NewSessionID returns an opaque identifier for one client identity.
func NewSessionID() string {
	return uuid.NewString()
}

// NewMessageID returns a client-side message id. UUIDv7 carries a
// millisecond timestamp followed by random bits, so ids generated within
// the same millisecond still differ.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + NewID()
	}
	return id.String()
}
