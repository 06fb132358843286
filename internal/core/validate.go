package core

import (
	"strings"
	"unicode"
)

// ValidateJoin checks join preconditions locally. It returns nil or a
// ValidationErrors holding one entry per failing field.
func ValidateJoin(name, email, roomID string) error {
	var errs ValidationErrors

	if strings.TrimSpace(name) == "" {
		errs = append(errs, &ValidationError{Field: FieldName, Message: "Name is required"})
	}

	switch email = strings.TrimSpace(email); {
	case email == "":
		errs = append(errs, &ValidationError{Field: FieldEmail, Message: "Email is required"})
	case !validEmail(email):
		errs = append(errs, &ValidationError{Field: FieldEmail, Message: "Invalid email format"})
	}

	if strings.TrimSpace(roomID) == "" {
		errs = append(errs, &ValidationError{Field: FieldRoomID, Message: "Room ID is required"})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validEmail accepts local@domain with both parts non-empty and no whitespace.
func validEmail(email string) bool {
	if strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}
