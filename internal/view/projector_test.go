package view

import (
	"testing"
	"time"

	"github.com/vovakirdan/roomchat/internal/core"
)

func TestGlyph(t *testing.T) {
	tests := []struct {
		state     core.DeliveryState
		own       bool
		glyph     string
		highlight bool
	}{
		{core.Pending, true, "", false},
		{core.Sent, true, "✓", false},
		{core.Delivered, true, "✓✓", false},
		{core.Read, true, "✓✓", true},
		{core.Pending, false, "", false},
		{core.Sent, false, "", false},
		{core.Delivered, false, "", false},
		{core.Read, false, "", false},
	}

	for _, tt := range tests {
		if got := Glyph(tt.state, tt.own); got != tt.glyph {
			t.Errorf("Glyph(%v, %v) = %q, want %q", tt.state, tt.own, got, tt.glyph)
		}
		if got := Highlighted(tt.state, tt.own); got != tt.highlight {
			t.Errorf("Highlighted(%v, %v) = %v, want %v", tt.state, tt.own, got, tt.highlight)
		}
	}
}

func TestProjectOutsideRoom(t *testing.T) {
	v := Project(core.Snapshot{UserID: "me", State: core.NotInRoom, Online: true})
	if v.Header != NotConnectedLabel || v.Status != OfflineLabel {
		t.Fatalf("unexpected header/status: %q / %q", v.Header, v.Status)
	}
	if v.InRoom || len(v.Lines) != 0 {
		t.Fatalf("view should be empty outside a room: %+v", v)
	}
}

func TestProjectStatus(t *testing.T) {
	base := core.Snapshot{UserID: "me", RoomID: "r1", State: core.InRoom, Online: true}

	typing := base
	typing.IsTyping = true
	if got := Project(typing).Status; got != TypingLabel {
		t.Fatalf("typing status = %q", got)
	}

	offline := base
	offline.Online = false
	offline.IsTyping = true
	if got := Project(offline).Status; got != OfflineLabel {
		t.Fatalf("offline status = %q", got)
	}

	counted := base
	counted.Messages = []core.Message{{ID: "a"}, {ID: "b"}}
	if got := Project(counted).Status; got != "2 messages" {
		t.Fatalf("count status = %q", got)
	}

	joining := base
	joining.State = core.AwaitingJoin
	v := Project(joining)
	if v.Header != NotConnectedLabel || v.Status != "Joining..." {
		t.Fatalf("joining view = %q / %q", v.Header, v.Status)
	}
}

func TestProjectLines(t *testing.T) {
	ts := time.Date(2026, 1, 2, 9, 5, 0, 0, time.Local)
	s := core.Snapshot{
		UserID: "me",
		RoomID: "r1",
		State:  core.InRoom,
		Online: true,
		Messages: []core.Message{
			{ID: "1", UserID: "bob", UserName: "Bob", Text: "hi", Timestamp: ts, DeliveryState: core.Read},
			{ID: "2", UserID: "me", UserName: "Ann", Text: "yo", Timestamp: ts, DeliveryState: core.Read},
		},
	}

	v := Project(s)
	if v.Header != "r1" {
		t.Fatalf("header = %q", v.Header)
	}
	if len(v.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(v.Lines))
	}

	other, own := v.Lines[0], v.Lines[1]
	if other.Own || other.Sender != "Bob" || other.Glyph != "" || other.Highlight {
		t.Fatalf("unexpected line for other: %+v", other)
	}
	if !own.Own || own.Sender != "" || own.Glyph != "✓✓" || !own.Highlight {
		t.Fatalf("unexpected own line: %+v", own)
	}
	if own.Time != "09:05" {
		t.Fatalf("time = %q", own.Time)
	}
}

func TestProjectIsPure(t *testing.T) {
	s := core.Snapshot{
		UserID:   "me",
		RoomID:   "r1",
		State:    core.InRoom,
		Online:   true,
		Messages: []core.Message{{ID: "1", UserID: "me", DeliveryState: core.Sent}},
	}
	a, b := Project(s), Project(s)
	if a.Lines[0] != b.Lines[0] || a.Status != b.Status {
		t.Fatal("projection differs for identical input")
	}
}
