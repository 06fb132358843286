// Package view derives everything the client displays from a core.Snapshot.
// It holds no state of its own.
package view

import (
	"strconv"

	"github.com/vovakirdan/roomchat/internal/core"
)

const (
	NotConnectedLabel = "Not Connected"
	OfflineLabel      = "Offline"
	TypingLabel       = "Someone is typing..."
)

// Line is one rendered message.
type Line struct {
	ID        string
	Own       bool
	Sender    string // empty for own messages
	Text      string
	Time      string
	Glyph     string
	Highlight bool
}

// View is the complete display state.
type View struct {
	Header      string
	Status      string
	UserName    string
	InRoom      bool
	Lines       []Line
	FieldErrors map[string]string
	Notice      string
}

// Project builds the view for s.
func Project(s core.Snapshot) View {
	v := View{
		Header:      NotConnectedLabel,
		Status:      status(s),
		UserName:    s.UserName,
		InRoom:      s.State == core.InRoom,
		FieldErrors: s.FieldErrors,
		Notice:      s.LastError,
	}
	if !v.InRoom {
		return v
	}

	v.Header = s.RoomID
	v.Lines = make([]Line, 0, len(s.Messages))
	for _, m := range s.Messages {
		own := m.UserID == s.UserID
		line := Line{
			ID:        m.ID,
			Own:       own,
			Text:      m.Text,
			Time:      m.Timestamp.Format("15:04"),
			Glyph:     Glyph(m.DeliveryState, own),
			Highlight: Highlighted(m.DeliveryState, own),
		}
		if !own {
			line.Sender = m.UserName
		}
		v.Lines = append(v.Lines, line)
	}
	return v
}

func status(s core.Snapshot) string {
	switch {
	case s.State == core.AwaitingJoin:
		return "Joining..."
	case s.State != core.InRoom || !s.Online:
		return OfflineLabel
	case s.IsTyping:
		return TypingLabel
	default:
		return strconv.Itoa(len(s.Messages)) + " messages"
	}
}

// Glyph maps a delivery state to its status mark. Only own messages carry one.
func Glyph(state core.DeliveryState, own bool) string {
	if !own {
		return ""
	}
	switch state {
	case core.Sent:
		return "✓"
	case core.Delivered, core.Read:
		return "✓✓"
	default:
		return ""
	}
}

// Highlighted reports whether the glyph is drawn highlighted (read receipts).
func Highlighted(state core.DeliveryState, own bool) bool {
	return own && state == core.Read
}
