// internal/domain/auth/entity.go
package auth

import "strings"

// Identity is the opaque handle of a signed-in user as issued by the
// identity provider. A nil *Identity means "no session".
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns DisplayName, falling back to the local part of Email.
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}
	if n := strings.TrimSpace(i.DisplayName); n != "" {
		return n
	}
	email := strings.TrimSpace(i.Email)
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// Same reports whether a and b refer to the same user (both nil counts).
func Same(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UID == b.UID
}

// Session is a read-only snapshot of the auth resolution gate.
type Session struct {
	Identity *Identity `json:"identity,omitempty"`
	Resolved bool      `json:"resolved"`
}

// LocalFlags are the cached session hints kept in local storage.
// They are never authoritative: before resolution they only decide what to
// display, after resolution the provider's answer replaces them.
type LocalFlags struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	UserName   string `json:"userName,omitempty"`
	UserEmail  string `json:"userEmail,omitempty"`
}

// FlagsFor derives the cached hints for identity (zero value when nil).
func FlagsFor(identity *Identity) LocalFlags {
	if identity == nil {
		return LocalFlags{}
	}
	return LocalFlags{
		IsLoggedIn: true,
		UserName:   identity.Name(),
		UserEmail:  strings.TrimSpace(identity.Email),
	}
}

// FlagStore persists LocalFlags next to the cart snapshot.
type FlagStore interface {
	LoadFlags() (LocalFlags, error)
	SaveFlags(f LocalFlags) error
	ClearFlags() error
}
