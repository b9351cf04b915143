// internal/application/session/events.go
package session

import (
	"brihaspati/internal/domain/auth"
	"brihaspati/internal/domain/cart"
)

type EventKind string

const (
	EventCartChanged       EventKind = "cart_changed"
	EventAuthResolved      EventKind = "auth_resolved"
	EventAuthChanged       EventKind = "auth_changed"
	EventLoginPromptShown  EventKind = "login_prompt_shown"
	EventLoginPromptHidden EventKind = "login_prompt_hidden"
	EventNotification      EventKind = "notification"
)

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a toast shown to the shopper.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Event is what the presentation layer reacts to. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind     EventKind      `json:"kind"`
	Lines    []cart.Line    `json:"lines,omitempty"`
	Identity *auth.Identity `json:"identity,omitempty"`
	Notice   *Notice        `json:"notice,omitempty"`
}

// Handler receives events synchronously, in emission order.
type Handler func(Event)
