// internal/application/authgate/gate.go
package authgate

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"brihaspati/internal/domain/auth"
)

var (
	ErrAlreadySubscribed = errors.New("authgate: already subscribed")
	ErrUnresolved        = errors.New("authgate: identity provider has not resolved the session")
)

// Dependent is invoked after every notification, once the gate state has
// been updated. first is true only for the notification that resolved the gate.
type Dependent func(identity *auth.Identity, first bool)

// Gate tracks whether the identity provider has finished restoring the
// session. It is a one-shot latch: Resolved flips to true on the first
// notification and never goes back.
//
// Anything that decides on login status (login prompt, cart reconciliation)
// must consult the gate instead of guessing from cached hints.
type Gate struct {
	mu         sync.Mutex
	identity   *auth.Identity
	resolved   bool
	done       chan struct{}
	dependents []Dependent
	unsub      func()

	log *zap.Logger
}

func New(log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		done: make(chan struct{}),
		log:  log.Named("auth_gate"),
	}
}

// Subscribe registers the gate's single listener with the provider.
func (g *Gate) Subscribe(n auth.SessionNotifier) error {
	g.mu.Lock()
	if g.unsub != nil {
		g.mu.Unlock()
		return ErrAlreadySubscribed
	}
	// placeholder so a re-entrant notification during registration sees us as subscribed
	g.unsub = func() {}
	g.mu.Unlock()

	unsub := n.OnSessionStateChange(g.Notify)

	g.mu.Lock()
	g.unsub = unsub
	g.mu.Unlock()
	return nil
}

// Unsubscribe detaches from the provider. The resolved state is kept.
func (g *Gate) Unsubscribe() {
	g.mu.Lock()
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// OnChange adds a dependent action. Dependents run in registration order,
// outside the gate lock.
func (g *Gate) OnChange(d Dependent) {
	if d == nil {
		return
	}
	g.mu.Lock()
	g.dependents = append(g.dependents, d)
	g.mu.Unlock()
}

// Notify records a session-state change from the provider.
// Setting resolved again is a no-op; the identity always follows the latest
// notification.
func (g *Gate) Notify(identity *auth.Identity) {
	g.mu.Lock()
	first := !g.resolved
	g.identity = cloneIdentity(identity)
	g.resolved = true
	if first {
		close(g.done)
	}
	deps := make([]Dependent, len(g.dependents))
	copy(deps, g.dependents)
	g.mu.Unlock()

	if first {
		g.log.Info("session resolved", zap.Bool("signedIn", identity != nil))
	} else {
		g.log.Debug("session changed", zap.Bool("signedIn", identity != nil))
	}

	for _, d := range deps {
		d(cloneIdentity(identity), first)
	}
}

func (g *Gate) Resolved() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolved
}

// Identity is the latest identity reported by the provider (nil = none).
func (g *Gate) Identity() *auth.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneIdentity(g.identity)
}

func (g *Gate) Snapshot() auth.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return auth.Session{Identity: cloneIdentity(g.identity), Resolved: g.resolved}
}

// Done is closed when the gate resolves.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate resolves or ctx ends. There is no implicit
// timeout; on ctx expiry the gate stays unresolved and ErrUnresolved is
// returned so the caller keeps the conservative UI.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return errors.Join(ErrUnresolved, ctx.Err())
	}
}

// ShouldPromptLogin is the guard for every "please log in" prompt:
// resolved, no identity and no cached logged-in flag.
func (g *Gate) ShouldPromptLogin(flags auth.LocalFlags) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolved && g.identity == nil && !flags.IsLoggedIn
}

func cloneIdentity(id *auth.Identity) *auth.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}
