package domain

import (
	"fmt"
	"strings"
	"time"
)

// Note is one remark in an order thread.
type Note struct {
	ID         string
	Content    string
	AuthorID   string
	AuthorName string
	AuthorRole Role
	TargetRole Role
	Timestamp  time.Time
	IsEdited   bool
}

// ValidAudience reports whether role names a note audience.
func ValidAudience(role Role) bool {
	switch role {
	case RoleTeam, RoleDigitizer, RoleVendor:
		return true
	default:
		return false
	}
}

// AuthoredBy reports whether the actor wrote the note. Notes that carry an
// author id are matched on it, older notes on name and role.
func (n Note) AuthoredBy(actor User) bool {
	if n.AuthorID != "" && actor.ID != "" {
		return n.AuthorID == actor.ID
	}
	return n.AuthorName == actor.Name && n.AuthorRole == actor.Role
}

// CanEdit applies the note edit policy.
func (n Note) CanEdit(actor User) bool {
	if n.AuthoredBy(actor) {
		return true
	}
	return actor.Role.Privileged() && n.AuthorRole == RoleTeam
}

// AddNote appends a note and records the author as an associated user.
// An empty audience defaults to Team.
func (o *Order) AddNote(id, content string, author User, audience Role, now time.Time) (Note, error) {
	if strings.TrimSpace(content) == "" {
		return Note{}, ErrEmptyNoteContent
	}
	if audience == "" {
		audience = RoleTeam
	}
	if !ValidAudience(audience) {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidAudience, audience)
	}
	note := Note{
		ID:         id,
		Content:    content,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		AuthorRole: author.Role,
		TargetRole: audience,
		Timestamp:  now,
	}
	o.Notes = append(o.Notes, note)
	o.AssociateUser(author)
	o.touch(now)
	o.record(NoteAdded{
		BaseEvent:  BaseEvent{Timestamp: now},
		OrderID:    o.ID,
		NoteID:     id,
		AuthorRole: author.Role,
		TargetRole: audience,
	})
	return note, nil
}

// EditNote replaces the content of an existing note. The note timestamp is kept.
func (o *Order) EditNote(noteID, content string, actor User, now time.Time) (Note, error) {
	idx := -1
	for i := range o.Notes {
		if o.Notes[i].ID == noteID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}
	if !o.Notes[idx].CanEdit(actor) {
		return Note{}, ErrNoteEditForbidden
	}
	if strings.TrimSpace(content) == "" {
		return Note{}, ErrEmptyNoteContent
	}
	o.Notes[idx].Content = content
	o.Notes[idx].IsEdited = true
	o.touch(now)
	return o.Notes[idx], nil
}

// NotesFor returns the notes shown to the given audience.
func (o *Order) NotesFor(audience Role) []Note {
	var notes []Note
	for _, n := range o.Notes {
		if n.TargetRole == audience {
			notes = append(notes, n)
		}
	}
	return notes
}
