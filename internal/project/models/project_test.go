package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestNewProject(t *testing.T) {
	ownerID := id.NewUserID()
	p, err := NewProject(id.NewProjectID(), ownerID, "  Atlas  ", "desc", []string{"go"}, now)
	require.NoError(t, err)

	assert.Equal(t, "Atlas", p.Name)
	assert.Equal(t, ownerID, p.OwnerID)
	assert.Equal(t, StatusTodo, p.Status)
	assert.Empty(t, p.SharedWith)
	assert.Equal(t, now, p.CreatedAt)
}

func TestNewProjectValidation(t *testing.T) {
	ownerID := id.NewUserID()

	_, err := NewProject(id.NewProjectID(), ownerID, "   ", "", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewProject(id.NewProjectID(), ownerID, strings.Repeat("x", 201), "", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewProject(id.NewProjectID(), id.UserID{}, "Atlas", "", nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestSetShareUpsert(t *testing.T) {
	p, err := NewProject(id.NewProjectID(), id.NewUserID(), "Atlas", "", nil, now)
	require.NoError(t, err)
	userID := id.NewUserID()

	require.NoError(t, p.SetShare(userID, []Permission{PermissionView}, now))
	require.Len(t, p.SharedWith, 1)

	// re-sharing replaces the permission set, never appends a second entry
	later := now.Add(time.Hour)
	require.NoError(t, p.SetShare(userID, []Permission{PermissionEdit}, later))
	require.Len(t, p.SharedWith, 1)

	entry, ok := p.ShareFor(userID)
	require.True(t, ok)
	assert.Equal(t, []Permission{PermissionEdit}, entry.Permissions)
	assert.Equal(t, later, p.UpdatedAt)
}

func TestSetShareCopiesPermissions(t *testing.T) {
	p, err := NewProject(id.NewProjectID(), id.NewUserID(), "Atlas", "", nil, now)
	require.NoError(t, err)
	userID := id.NewUserID()

	granted := []Permission{PermissionView}
	require.NoError(t, p.SetShare(userID, granted, now))

	// mutating the caller's slice must not reach into the ledger
	granted[0] = PermissionEdit

	entry, ok := p.ShareFor(userID)
	require.True(t, ok)
	assert.Equal(t, []Permission{PermissionView}, entry.Permissions)

	// same for the replacement path of an existing entry
	replacement := []Permission{PermissionEdit}
	require.NoError(t, p.SetShare(userID, replacement, now))
	replacement[0] = PermissionView

	entry, ok = p.ShareFor(userID)
	require.True(t, ok)
	assert.Equal(t, []Permission{PermissionEdit}, entry.Permissions)
}

func TestSetShareRejectsInvalid(t *testing.T) {
	p, err := NewProject(id.NewProjectID(), id.NewUserID(), "Atlas", "", nil, now)
	require.NoError(t, err)

	err = p.SetShare(id.NewUserID(), nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	err = p.SetShare(id.UserID{}, []Permission{PermissionView}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestTransferOwnerRetainsStaleShare(t *testing.T) {
	p, err := NewProject(id.NewProjectID(), id.NewUserID(), "Atlas", "", nil, now)
	require.NoError(t, err)
	newOwner := id.NewUserID()
	require.NoError(t, p.SetShare(newOwner, []Permission{PermissionView}, now))

	require.NoError(t, p.TransferOwner(newOwner, now))

	assert.Equal(t, newOwner, p.OwnerID)
	_, ok := p.ShareFor(newOwner)
	assert.True(t, ok, "share entry survives the transfer")
}

func TestTransferOwnerRequiresNewOwner(t *testing.T) {
	p, err := NewProject(id.NewProjectID(), id.NewUserID(), "Atlas", "", nil, now)
	require.NoError(t, err)

	err = p.TransferOwner(id.UserID{}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestCloneIsDeep(t *testing.T) {
	p, err := NewProject(id.NewProjectID(), id.NewUserID(), "Atlas", "", []string{"go"}, now)
	require.NoError(t, err)
	userID := id.NewUserID()
	require.NoError(t, p.SetShare(userID, []Permission{PermissionView}, now))

	cp := p.Clone()
	cp.Tags[0] = "mutated"
	cp.SharedWith[0].Permissions[0] = PermissionEdit

	assert.Equal(t, "go", p.Tags[0])
	assert.Equal(t, PermissionView, p.SharedWith[0].Permissions[0])
}

func TestNewProjectPagePages(t *testing.T) {
	cases := []struct {
		name  string
		total int
		limit int
		pages int
	}{
		{"exact multiple", 20, 10, 2},
		{"remainder rounds up", 11, 5, 3},
		{"single partial page", 3, 10, 1},
		{"no matches", 0, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := NewProjectPage(nil, tc.total, 1, tc.limit)
			assert.Equal(t, tc.pages, page.Pages)
		})
	}
}

func TestParsePermission(t *testing.T) {
	_, err := ParsePermission("view")
	assert.NoError(t, err)
	_, err = ParsePermission("owner")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestParseStatus(t *testing.T) {
	_, err := ParseStatus("in-progress")
	assert.NoError(t, err)
	_, err = ParseStatus("archived")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
