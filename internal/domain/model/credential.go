package model

import (
	"strings"
	"time"
)

// Credential is a named secret persisted by the credential store. ID, CreatedAt
// and UpdatedAt are assigned by the store; callers never set them.
type Credential struct {
	ID        string
	Service   string
	Username  string
	Secret    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialDraft is the insert payload. Service is required; Username and
// Secret may be empty.
type CredentialDraft struct {
	Service  string
	Username string
	Secret   string
}

// CredentialPatch is the update payload. A nil field leaves the stored value
// unchanged.
type CredentialPatch struct {
	Service  *string
	Username *string
	Secret   *string
}

// Apply returns c with every non-nil patch field merged over it. Identity and
// timestamps are left untouched.
func (p CredentialPatch) Apply(c Credential) Credential {
	if p.Service != nil {
		c.Service = *p.Service
	}
	if p.Username != nil {
		c.Username = *p.Username
	}
	if p.Secret != nil {
		c.Secret = *p.Secret
	}
	return c
}

// IsEmpty reports whether the patch carries no fields.
func (p CredentialPatch) IsEmpty() bool {
	return p.Service == nil && p.Username == nil && p.Secret == nil
}

// Matches reports whether query is a case-insensitive substring of the
// credential's service or username. The secret never participates. Only the
// empty query matches everything; whitespace is matched literally.
func (c Credential) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(c.Service), q) ||
		strings.Contains(strings.ToLower(c.Username), q)
}
