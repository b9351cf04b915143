// internal/domain/inquiry/entity.go
package inquiry

import (
	"strings"
	"time"
	"unicode/utf8"

	common "brihaspati/internal/domain/common"
)

type Status string

const StatusNew Status = "new"

// MinMessageLength is the shortest message the contact form accepts.
const MinMessageLength = 10

// Form is the contact form as submitted.
type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactMessage is the stored document (contactMessages / messages).
type ContactMessage struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f Form) Validate() error {
	if common.Blank(f.Name) {
		return common.NewValidationError("name", "Please enter your name")
	}
	if common.Blank(f.Email) {
		return common.NewValidationError("email", "Please enter your email address")
	}
	if common.Blank(f.Message) {
		return common.NewValidationError("message", "Please enter your message")
	}
	if !common.IsEmail(f.Email) {
		return common.NewValidationError("email", "Please enter a valid email address")
	}
	if utf8.RuneCountInString(f.Message) < MinMessageLength {
		return common.NewValidationError("message", "Please enter a message with at least 10 characters")
	}
	return nil
}

// New validates f and builds a message with status "new".
func New(f Form, userID string, now time.Time) (ContactMessage, error) {
	if err := f.Validate(); err != nil {
		return ContactMessage{}, err
	}
	return ContactMessage{
		Name:      strings.TrimSpace(f.Name),
		Email:     strings.TrimSpace(f.Email),
		Message:   f.Message,
		Status:    StatusNew,
		UserID:    strings.TrimSpace(userID),
		CreatedAt: now.UTC(),
	}, nil
}
