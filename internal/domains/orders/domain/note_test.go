package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	teamUser      = User{ID: "u-team", Name: "Tess", Role: RoleTeam}
	adminUser     = User{ID: "u-admin", Name: "Ari", Role: RoleAdmin}
	digitizerUser = User{ID: "u-dig", Name: "Dina", Role: RoleDigitizer}
	vendorUser    = User{ID: "u-ven", Name: "Vic", Role: RoleVendor}
)

func TestAddNote_RecordsAuthor(t *testing.T) {
	o := newTestOrder(t)
	now := o.CreatedAt.Add(time.Minute)

	note, err := o.AddNote("n1", "hello", digitizerUser, "", now)
	require.NoError(t, err)
	require.Equal(t, RoleTeam, note.TargetRole)
	require.Equal(t, now, note.Timestamp)
	require.True(t, o.IsAssociated(digitizerUser.ID))
	require.Equal(t, now, o.UpdatedAt)

	_, err = o.AddNote("n2", "again", digitizerUser, RoleVendor, now)
	require.NoError(t, err)
	require.Len(t, o.AssociatedUsers, 1)
	require.Len(t, o.NotesFor(RoleVendor), 1)
}

func TestAddNote_Validation(t *testing.T) {
	o := newTestOrder(t)

	_, err := o.AddNote("n1", "   ", teamUser, RoleTeam, time.Now())
	require.ErrorIs(t, err, ErrEmptyNoteContent)

	_, err = o.AddNote("n1", "hi", teamUser, RoleSales, time.Now())
	require.ErrorIs(t, err, ErrInvalidAudience)
	require.Empty(t, o.Notes)
}

func TestEditNote_AuthorKeepsTimestamp(t *testing.T) {
	o := newTestOrder(t)
	created := o.CreatedAt.Add(time.Minute)
	_, err := o.AddNote("n1", "first", vendorUser, RoleVendor, created)
	require.NoError(t, err)

	edited, err := o.EditNote("n1", "second", vendorUser, created.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "second", edited.Content)
	require.True(t, edited.IsEdited)
	require.Equal(t, created, edited.Timestamp)
}

func TestEditNote_Authorization(t *testing.T) {
	o := newTestOrder(t)
	now := time.Now()
	_, err := o.AddNote("team-note", "team", teamUser, RoleTeam, now)
	require.NoError(t, err)
	_, err = o.AddNote("dig-note", "design", digitizerUser, RoleDigitizer, now)
	require.NoError(t, err)

	_, err = o.EditNote("team-note", "by admin", adminUser, now)
	require.NoError(t, err)

	_, err = o.EditNote("dig-note", "by vendor", vendorUser, now)
	require.ErrorIs(t, err, ErrNoteEditForbidden)

	_, err = o.EditNote("dig-note", "by admin", adminUser, now)
	require.ErrorIs(t, err, ErrNoteEditForbidden)

	_, err = o.EditNote("missing", "x", teamUser, now)
	require.ErrorIs(t, err, ErrNoteNotFound)
}

func TestEditNote_LegacyAuthorMatchedByNameAndRole(t *testing.T) {
	o := newTestOrder(t)
	o.Notes = []Note{{ID: "legacy", Content: "old", AuthorName: "Vic", AuthorRole: RoleVendor, TargetRole: RoleVendor}}

	_, err := o.EditNote("legacy", "new", vendorUser, time.Now())
	require.NoError(t, err)

	_, err = o.EditNote("legacy", "newer", User{ID: "other", Name: "Vic", Role: RoleDelivery}, time.Now())
	require.ErrorIs(t, err, ErrNoteEditForbidden)
}
