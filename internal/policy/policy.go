// Package policy decides which verified identities may read the full
// submission ledger.
package policy

import "survey-gateway/internal/identity"

// ExportPolicy reports whether an identity may export submissions.
type ExportPolicy interface {
	AllowExport(id identity.Identity) bool
}

// AllowList permits exactly the listed emails. Matching is exact and
// case-sensitive; an empty list permits nobody.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList builds an AllowList. Blank entries are ignored.
func NewAllowList(emails ...string) *AllowList {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e == "" {
			continue
		}
		set[e] = struct{}{}
	}
	return &AllowList{emails: set}
}

func (a *AllowList) AllowExport(id identity.Identity) bool {
	if id.Email == "" {
		return false
	}
	_, ok := a.emails[id.Email]
	return ok
}

// Len returns the number of permitted emails.
func (a *AllowList) Len() int {
	return len(a.emails)
}
