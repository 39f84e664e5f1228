package store

import (
	id "atelier/pkg/domain"
)

// Filter narrows a project listing. Implementations combine the set fields
// with logical AND.
type Filter struct {
	// VisibleTo restricts results to projects the user owns or appears in the
	// sharing ledger of, regardless of which permissions the entry grants.
	// Nil means no visibility restriction (administrative listing).
	VisibleTo *id.UserID

	// NameContains is a case-insensitive substring match on the project name.
	NameContains string

	// Tag restricts results to projects carrying the tag.
	Tag string
}
