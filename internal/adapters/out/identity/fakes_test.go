package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"brihaspati/internal/domain/auth"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// net/http keep-alive readers of httptest clients
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

type memStore struct {
	mu    sync.Mutex
	items map[string]string
	err   error
}

func newMemStore() *memStore { return &memStore{items: map[string]string{}} }

func (m *memStore) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memStore) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items[key] = value
	return nil
}

func (m *memStore) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.items, key)
	return nil
}

type fakeBackend struct {
	users      map[string]string // email -> password
	assertions []string
	resets     []string
}

func (f *fakeBackend) VerifyPassword(ctx context.Context, email, password string) (*tokenSet, error) {
	if pw, ok := f.users[email]; !ok || pw != password {
		return nil, auth.NewError(auth.CodeInvalidCredentials, "INVALID_LOGIN_CREDENTIALS", nil)
	}
	return &tokenSet{UID: "uid-" + email, Email: email, IDToken: "id-" + email, RefreshToken: "rt-" + email, ExpiresIn: 3600}, nil
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string) (*tokenSet, error) {
	if _, ok := f.users[email]; ok {
		return nil, auth.NewError(auth.CodeAlreadyInUse, "EMAIL_EXISTS", nil)
	}
	f.users[email] = password
	return &tokenSet{UID: "uid-" + email, Email: email, IDToken: "id", RefreshToken: "rt", ExpiresIn: 3600}, nil
}

func (f *fakeBackend) VerifyAssertion(ctx context.Context, providerID, idToken string) (*tokenSet, error) {
	f.assertions = append(f.assertions, providerID+":"+idToken)
	return &tokenSet{UID: "g-" + idToken, Email: idToken + "@gmail.com", DisplayName: "G", IDToken: "id", RefreshToken: "rt", ExpiresIn: 3600}, nil
}

func (f *fakeBackend) SendPasswordResetEmail(ctx context.Context, email string) error {
	if _, ok := f.users[email]; !ok {
		return auth.NewError(auth.CodeUserNotFound, "EMAIL_NOT_FOUND", nil)
	}
	f.resets = append(f.resets, email)
	return nil
}

type fakeRefresher struct {
	res   *tokenSet
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*tokenSet, error) {
	f.calls++
	return f.res, f.err
}

type fakeVerifier struct {
	uid    string
	claims map[string]any
	err    error
}

func (f *fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &firebaseauth.Token{UID: f.uid, Claims: f.claims}, nil
}

var errRevoked = errors.New("id token has been revoked")

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(b backend, r refresher, v TokenVerifier) *Service {
	return &Service{
		backend:   b,
		refresher: r,
		verifier:  v,
		now:       func() time.Time { return testNow },
		log:       zap.NewNop(),
	}
}

// recorder collects the identities a provider notifies.
type recorder struct {
	mu   sync.Mutex
	seen []*auth.Identity
}

func (r *recorder) listen(id *auth.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, id)
}

func (r *recorder) uids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.seen))
	for _, id := range r.seen {
		if id == nil {
			out = append(out, "")
			continue
		}
		out = append(out, id.UID)
	}
	return out
}
