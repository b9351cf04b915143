package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "brihaspati/internal/domain/common"
	inquirydom "brihaspati/internal/domain/inquiry"
)

func validContact() inquirydom.Form {
	return inquirydom.Form{Name: "Ravi", Email: "ravi@example.com", Message: "Do you stock A5 notebooks?"}
}

func TestContact_Validation(t *testing.T) {
	cases := []struct {
		name string
		form inquirydom.Form
		want string
	}{
		{"name", inquirydom.Form{Email: "r@example.com", Message: "long enough text"}, "Please enter your name"},
		{"email", inquirydom.Form{Name: "R", Message: "long enough text"}, "Please enter your email address"},
		{"message", inquirydom.Form{Name: "R", Email: "r@example.com"}, "Please enter your message"},
		{"bad email", inquirydom.Form{Name: "R", Email: "r@x", Message: "long enough text"}, "Please enter a valid email address"},
		{"short", inquirydom.Form{Name: "R", Email: "r@example.com", Message: "hi there"}, "Please enter a message with at least 10 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeMessages{id: "m1"}
			_, err := NewContactUsecase(repo, nil, nil, nil, nil).Submit(context.Background(), nil, tc.form)
			require.Error(t, err)
			assert.Equal(t, tc.want, MessageOf(err))
			assert.Empty(t, repo.saved)
		})
	}
}

func TestContact_SavesWithStatusNew(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeMessages{id: "m1"}
	mailer := &fakeMailer{}

	m, err := NewContactUsecase(repo, nil, mailer, common.FixedClock{T: now}, nil).Submit(context.Background(), e.sess, validContact())
	require.NoError(t, err)

	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, inquirydom.StatusNew, m.Status)
	assert.Equal(t, "U", m.UserID)
	assert.Equal(t, now, m.CreatedAt)
	assert.Len(t, mailer.contacts, 1)
	assert.Equal(t, msgContactThanks, e.lastNotice().Message)
}

func TestContact_FallsBackOnAnyFailure(t *testing.T) {
	primary := &fakeMessages{err: errors.New("rules")}
	fallback := &fakeMessages{id: "alt-1"}

	m, err := NewContactUsecase(primary, fallback, nil, nil, nil).Submit(context.Background(), nil, validContact())
	require.NoError(t, err)
	assert.Equal(t, "alt-1", m.ID)
	assert.Len(t, fallback.saved, 1)
}

func TestContact_BothFail(t *testing.T) {
	e := newEnv(t)
	primary := &fakeMessages{err: errors.New("a")}
	fallback := &fakeMessages{err: errors.New("b")}

	_, err := NewContactUsecase(primary, fallback, nil, nil, nil).Submit(context.Background(), e.sess, validContact())
	require.Error(t, err)
	assert.Equal(t, msgContactFailed, MessageOf(err))
	assert.Equal(t, msgContactFailed, e.lastNotice().Message)
}

func TestContact_NoStore(t *testing.T) {
	_, err := NewContactUsecase(nil, nil, nil, nil, nil).Submit(context.Background(), nil, validContact())
	assert.ErrorIs(t, err, ErrContactStoreMissing)
	assert.Equal(t, msgNoDatabase, MessageOf(err))
}
