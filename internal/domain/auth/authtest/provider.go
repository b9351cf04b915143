// Package authtest provides an in-memory auth.Provider for tests.
package authtest

import (
	"context"
	"strings"
	"sync"

	"brihaspati/internal/domain/auth"
)

// Provider is a scriptable identity provider. Listeners are called
// synchronously, outside the provider lock.
type Provider struct {
	mu        sync.Mutex
	users     map[string]account
	current   *auth.Identity
	listeners map[int]auth.Listener
	nextID    int
	started   bool

	// Restored is the identity Start reports (nil = no persisted session).
	Restored *auth.Identity
	// Deferred makes Start return without notifying; call Resolve later.
	Deferred bool
	// Errs forces the next call of the named operation ("signin", "signup",
	// "federated", "redirect", "complete", "signout", "reset", "start") to fail.
	Errs map[string]error

	Resets   []string
	SignOuts int
}

type account struct {
	password string
	identity auth.Identity
}

func NewProvider() *Provider {
	return &Provider{
		users:     map[string]account{},
		listeners: map[int]auth.Listener{},
		Errs:      map[string]error{},
	}
}

// AddUser registers an email/password account.
func (p *Provider) AddUser(uid, email, password, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[strings.ToLower(email)] = account{
		password: password,
		identity: auth.Identity{UID: uid, Email: email, DisplayName: name},
	}
}

func (p *Provider) OnSessionStateChange(l auth.Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) Start(ctx context.Context) error {
	if err := p.takeErr("start"); err != nil {
		return err
	}
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return auth.ErrAlreadyStarted
	}
	p.started = true
	deferred := p.Deferred
	p.current = clone(p.Restored)
	p.mu.Unlock()

	if !deferred {
		p.fire()
	}
	return nil
}

// Resolve sets the current identity and notifies listeners, as a provider
// finishing session restore would.
func (p *Provider) Resolve(id *auth.Identity) {
	p.mu.Lock()
	p.current = clone(id)
	p.mu.Unlock()
	p.fire()
}

func (p *Provider) CurrentIdentity() *auth.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return clone(p.current)
}

func (p *Provider) SignInWithCredentials(ctx context.Context, email, password string) (*auth.Identity, error) {
	if err := p.takeErr("signin"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	acc, ok := p.users[strings.ToLower(strings.TrimSpace(email))]
	p.mu.Unlock()
	if !ok || acc.password != password {
		return nil, auth.NewError(auth.CodeInvalidCredentials, "INVALID_LOGIN_CREDENTIALS", nil)
	}
	return p.become(acc.identity), nil
}

func (p *Provider) SignInWithFederated(ctx context.Context, cred auth.FederatedCredential) (*auth.Identity, error) {
	if err := p.takeErr("federated"); err != nil {
		return nil, err
	}
	return p.become(auth.Identity{UID: "fed-" + cred.IDToken, Email: cred.IDToken + "@gmail.com"}), nil
}

func (p *Provider) FederatedRedirectURL(state string) (string, error) {
	if err := p.takeErr("redirect"); err != nil {
		return "", err
	}
	return "https://accounts.example.test/o/oauth2/auth?state=" + state, nil
}

func (p *Provider) CompleteFederatedRedirect(ctx context.Context, code string) (*auth.Identity, error) {
	if err := p.takeErr("complete"); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, auth.NewError(auth.CodeNoAuthEvent, "", nil)
	}
	return p.become(auth.Identity{UID: "fed-" + code, Email: code + "@gmail.com"}), nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*auth.Identity, error) {
	if err := p.takeErr("signup"); err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSpace(email))
	p.mu.Lock()
	if _, ok := p.users[key]; ok {
		p.mu.Unlock()
		return nil, auth.NewError(auth.CodeAlreadyInUse, "EMAIL_EXISTS", nil)
	}
	id := auth.Identity{UID: "uid-" + key, Email: strings.TrimSpace(email)}
	p.users[key] = account{password: password, identity: id}
	p.mu.Unlock()
	return p.become(id), nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.takeErr("signout"); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = nil
	p.SignOuts++
	p.mu.Unlock()
	p.fire()
	return nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	if err := p.takeErr("reset"); err != nil {
		return err
	}
	key := strings.ToLower(strings.TrimSpace(email))
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[key]; !ok {
		return auth.NewError(auth.CodeUserNotFound, "EMAIL_NOT_FOUND", nil)
	}
	p.Resets = append(p.Resets, key)
	return nil
}

func (p *Provider) become(id auth.Identity) *auth.Identity {
	p.mu.Lock()
	p.current = clone(&id)
	p.mu.Unlock()
	p.fire()
	return clone(&id)
}

func (p *Provider) fire() {
	p.mu.Lock()
	cur := clone(p.current)
	ls := make([]auth.Listener, 0, len(p.listeners))
	for i := 0; i < p.nextID; i++ {
		if l, ok := p.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	p.mu.Unlock()

	for _, l := range ls {
		l(clone(cur))
	}
}

func (p *Provider) takeErr(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.Errs[op]
	delete(p.Errs, op)
	return err
}

func clone(id *auth.Identity) *auth.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

var _ auth.Provider = (*Provider)(nil)
