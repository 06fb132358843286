package core

import (
	"errors"
	"strings"

	"github.com/vovakirdan/roomchat/internal/channel"
)

// Field names carried by ValidationError.
const (
	FieldName   = "name"
	FieldEmail  = "email"
	FieldRoomID = "roomId"
)

var (
	ErrNotInRoom     = errors.New("not in room")
	ErrAlreadyJoined = errors.New("already joined")
	ErrJoinPending   = errors.New("join already pending")
)

// ValidationError is a local, pre-network rejection of one join field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failing field of one join attempt.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the error for field, or nil.
func (e ValidationErrors) Field(field string) *ValidationError {
	for _, v := range e {
		if v.Field == field {
			return v
		}
	}
	return nil
}

// Fields maps field name to message for display.
func (e ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, v := range e {
		out[v.Field] = v.Message
	}
	return out
}

// ProtocolError is a generic failure notice from the server.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "server error: " + e.Message
}

// TransportError is a channel failure; the session shows as offline.
type TransportError = channel.TransportError
