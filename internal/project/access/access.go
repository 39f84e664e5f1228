// Package access holds the authorization decision logic for projects.
//
// Everything here is pure domain logic: no I/O, no side effects, no caching.
// Decisions are recomputed from the freshly loaded project on every request
// because the sharing ledger can change between calls.
package access

import (
	"atelier/internal/project/models"
	"atelier/internal/project/store"
	id "atelier/pkg/domain"
)

// Capability is the operation class a caller needs on a project.
type Capability string

const (
	CapabilityRead       Capability = "read"
	CapabilityWrite      Capability = "write"
	CapabilityAdminister Capability = "administer"
)

// Principal is the already-authenticated identity making the request. It is
// produced by the auth middleware and immutable for the request's duration.
type Principal struct {
	ID   id.UserID
	Role id.Role
}

// Decision is the outcome of an authorization check. A denial is an expected,
// common outcome and is not an error; the reason is for logs and client
// messages.
type Decision struct {
	Allowed bool
	Reason  string
}

func allowed() Decision {
	return Decision{Allowed: true}
}

func denied(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Evaluate decides whether principal may perform the given operation class on
// the project. First match wins:
//
//  1. admin role: allowed for every capability
//  2. owner: allowed for read and write; administer still requires admin
//  3. share entry: view or edit grants read, edit grants write, administer is
//     never grantable via sharing
//  4. otherwise denied
func Evaluate(p *models.Project, principal Principal, capability Capability) Decision {
	if principal.Role.IsAdmin() {
		return allowed()
	}

	if p.OwnerID == principal.ID {
		if capability == CapabilityAdminister {
			return denied("administer requires the admin role")
		}
		return allowed()
	}

	if entry, ok := p.ShareFor(principal.ID); ok {
		switch capability {
		case CapabilityRead:
			if entry.Has(models.PermissionView) || entry.Has(models.PermissionEdit) {
				return allowed()
			}
			return denied("shared permissions do not include view")
		case CapabilityWrite:
			if entry.Has(models.PermissionEdit) {
				return allowed()
			}
			return denied("shared permissions do not include edit")
		case CapabilityAdminister:
			return denied("administer requires the admin role")
		}
	}

	return denied("not owner, admin, or shared user")
}

// ListFilter builds the visibility predicate for listing projects: the
// principal sees projects they own or appear in the sharing ledger of.
// Membership in the ledger is enough; no specific permission is required.
// The administrative all-projects listing is a separate entry point built
// with AdminListFilter.
func ListFilter(principal Principal, search string) store.Filter {
	userID := principal.ID
	return store.Filter{VisibleTo: &userID, NameContains: search}
}

// AdminListFilter builds the unscoped predicate for the admin listing.
func AdminListFilter(search string) store.Filter {
	return store.Filter{NameContains: search}
}

// TagFilter builds the predicate for tag lookups. Tag lookups carry the same
// visibility scoping as plain listings; admins match every project with the
// tag.
func TagFilter(principal Principal, tag string) store.Filter {
	if principal.Role.IsAdmin() {
		return store.Filter{Tag: tag}
	}
	f := ListFilter(principal, "")
	f.Tag = tag
	return f
}
