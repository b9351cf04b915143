// internal/application/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"brihaspati/internal/application/authgate"
	"brihaspati/internal/application/cartsync"
	"brihaspati/internal/domain/auth"
	"brihaspati/internal/domain/cart"
)

// maxPendingNotices bounds the notices kept for clients that poll.
const maxPendingNotices = 20

// Deps are the per-shopper adapters a Session is built from.
type Deps struct {
	Provider auth.Provider
	Flags    auth.FlagStore
	Local    cart.LocalMirror
	Remote   cart.RemoteRepository
	Writer   *cartsync.RemoteWriter
}

// View is the presentation-layer snapshot of a session.
type View struct {
	ID              string          `json:"id"`
	Lines           []cart.Line     `json:"lines"`
	TotalItems      int             `json:"totalItems"`
	TotalPrice      float64         `json:"totalPrice"`
	Resolved        bool            `json:"resolved"`
	Identity        *auth.Identity  `json:"identity,omitempty"`
	Flags           auth.LocalFlags `json:"flags"`
	ShowLoginPrompt bool            `json:"showLoginPrompt"`
	State           string          `json:"state"`
	Notices         []Notice        `json:"notices,omitempty"`
}

// Session is the state of one shopper (one browser). It owns the auth gate,
// the cart synchronizer and the cached login flags; nothing is global.
type Session struct {
	id       string
	provider auth.Provider
	flags    auth.FlagStore
	gate     *authgate.Gate
	cart     *cartsync.Synchronizer

	mu          sync.Mutex
	promptShown bool
	cached      auth.LocalFlags
	notices     []Notice
	started     bool
	// state expected on the federated redirect callback
	redirectState string

	hmu      sync.Mutex
	handlers []Handler

	// reconciliations started from auth notifications
	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup

	log *zap.Logger
}

func New(id string, d Deps, log *zap.Logger) (*Session, error) {
	if d.Provider == nil {
		return nil, fmt.Errorf("session: %w", auth.ErrNotConfigured)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("session", id))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       id,
		provider: d.Provider,
		flags:    d.Flags,
		gate:     authgate.New(log),
		cart:     cartsync.New(d.Local, d.Remote, d.Writer, log),
		ctx:      ctx,
		cancel:   cancel,
		log:      log.Named("session"),
	}
	s.cart.OnChange(func(lines []cart.Line) {
		s.emit(Event{Kind: EventCartChanged, Lines: lines})
	})
	s.gate.OnChange(s.onAuthChange)
	return s, nil
}

// Start restores the local cart and cached flags, then subscribes to the
// identity provider and lets it restore its session. The gate resolves on
// the provider's first notification.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	if err := s.cart.Restore(); err != nil {
		s.log.Warn("cart restore failed", zap.Error(err))
	}

	if s.flags != nil {
		f, err := s.flags.LoadFlags()
		if err != nil {
			s.log.Warn("flag restore failed", zap.Error(err))
		} else {
			s.mu.Lock()
			s.cached = f
			s.mu.Unlock()
		}
	}

	if err := s.gate.Subscribe(s.provider); err != nil {
		return fmt.Errorf("session: subscribe: %w", err)
	}
	if err := s.provider.Start(ctx); err != nil && !errors.Is(err, auth.ErrAlreadyStarted) {
		return fmt.Errorf("session: start provider: %w", err)
	}
	return nil
}

// Close stops listening to the provider and waits for in-flight
// reconciliations.
func (s *Session) Close() {
	s.gate.Unsubscribe()
	s.cancel()
	s.pending.Wait()
}

func (s *Session) onAuthChange(identity *auth.Identity, first bool) {
	if identity != nil {
		s.setFlags(auth.FlagsFor(identity))
		s.hidePrompt()

		if bound := s.cart.BoundUID(); bound != "" && bound != identity.UID {
			if err := s.cart.ClearOnLogout(); err != nil {
				s.log.Warn("clear cart on identity switch failed", zap.String("from", bound), zap.Error(err))
			}
		}

		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if cur := s.gate.Identity(); cur == nil || cur.UID != identity.UID {
				return
			}
			if err := s.cart.LoadForIdentity(s.ctx, identity); err != nil {
				s.log.Warn("cart reconciliation skipped", zap.String("uid", identity.UID), zap.Error(err))
			}
		}()
	} else {
		s.setFlags(auth.LocalFlags{})
		if s.cart.BoundUID() != "" {
			if err := s.cart.ClearOnLogout(); err != nil {
				s.log.Warn("clear cart on session end failed", zap.Error(err))
			}
		}
	}

	if first {
		s.emit(Event{Kind: EventAuthResolved, Identity: identity})
	}
	s.emit(Event{Kind: EventAuthChanged, Identity: identity})

	if identity == nil {
		s.RequestLoginPrompt()
	}
}

// Settle waits for reconciliations triggered by auth notifications.
func (s *Session) Settle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ----------------------------
// Login prompt
// ----------------------------

// RequestLoginPrompt shows the login prompt when the gate allows it and
// reports whether it is now shown. Before the provider has answered this is
// always a no-op.
func (s *Session) RequestLoginPrompt() bool {
	s.mu.Lock()
	flags := s.cached
	s.mu.Unlock()

	if !s.gate.ShouldPromptLogin(flags) {
		return false
	}

	s.mu.Lock()
	already := s.promptShown
	s.promptShown = true
	s.mu.Unlock()

	if !already {
		s.emit(Event{Kind: EventLoginPromptShown})
	}
	return true
}

// RequireLogin reports whether a signed-in identity is present; otherwise it
// requests the login prompt.
func (s *Session) RequireLogin() (*auth.Identity, bool) {
	if id := s.gate.Identity(); id != nil {
		return id, true
	}
	s.RequestLoginPrompt()
	return nil, false
}

func (s *Session) DismissLoginPrompt() {
	s.hidePrompt()
}

func (s *Session) hidePrompt() {
	s.mu.Lock()
	was := s.promptShown
	s.promptShown = false
	s.mu.Unlock()
	if was {
		s.emit(Event{Kind: EventLoginPromptHidden})
	}
}

// ----------------------------
// Cart operations
// ----------------------------

func (s *Session) AddToCart(productID string, unitPrice float64, name, imageRef string) error {
	if err := s.cart.AddLine(productID, unitPrice, name, imageRef); err != nil {
		return err
	}
	label := name
	if label == "" {
		label = "Item"
	}
	s.Notify(NoticeSuccess, label+" added to cart!")
	return nil
}

func (s *Session) RemoveFromCart(productID string) error {
	if err := s.cart.RemoveLine(productID); err != nil {
		return err
	}
	s.Notify(NoticeInfo, "Item removed from cart")
	return nil
}

func (s *Session) ChangeQuantity(productID string, delta int) error {
	return s.cart.ChangeQuantity(productID, delta)
}

// Logout signs out with the provider, then clears the cached flags and the
// cart (locally only) and offers the login prompt again.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		s.Notify(NoticeError, "Logout failed")
		return fmt.Errorf("session: sign out: %w", err)
	}

	s.setFlags(auth.LocalFlags{})
	if err := s.cart.ClearOnLogout(); err != nil {
		s.log.Warn("clear cart on logout failed", zap.Error(err))
	}
	s.Notify(NoticeInfo, "You have been logged out")
	s.RequestLoginPrompt()
	return nil
}

// ----------------------------
// Federated redirect
// ----------------------------

// ExpectRedirect records the state value the redirect callback must echo.
// A new redirect replaces the previous one.
func (s *Session) ExpectRedirect(state string) {
	s.mu.Lock()
	s.redirectState = state
	s.mu.Unlock()
}

// TakeRedirectState returns and forgets the pending redirect state.
func (s *Session) TakeRedirectState() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.redirectState
	s.redirectState = ""
	return state, state != ""
}

// ----------------------------
// Accessors
// ----------------------------

func (s *Session) ID() string { return s.id }
func (s *Session) Gate() *authgate.Gate { return s.gate }
func (s *Session) Cart() *cartsync.Synchronizer { return s.cart }
func (s *Session) Provider() auth.Provider { return s.provider }
func (s *Session) Identity() *auth.Identity { return s.gate.Identity() }

func (s *Session) Flags() auth.LocalFlags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

func (s *Session) PromptShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promptShown
}

// View snapshots the session. Pending notices are handed out once.
func (s *Session) View() View {
	snap := s.gate.Snapshot()
	lines := s.cart.Lines()

	s.mu.Lock()
	flags := s.cached
	shown := s.promptShown
	notices := s.notices
	s.notices = nil
	s.mu.Unlock()

	return View{
		ID:              s.id,
		Lines:           lines,
		TotalItems:      cart.TotalItemCount(lines),
		TotalPrice:      cart.TotalPrice(lines),
		Resolved:        snap.Resolved,
		Identity:        snap.Identity,
		Flags:           flags,
		ShowLoginPrompt: shown,
		State:           s.cart.State().String(),
		Notices:         notices,
	}
}

// ----------------------------
// Events
// ----------------------------

// Subscribe adds an event handler and returns its remover.
func (s *Session) Subscribe(h Handler) func() {
	if h == nil {
		return func() {}
	}
	s.hmu.Lock()
	s.handlers = append(s.handlers, h)
	idx := len(s.handlers) - 1
	s.hmu.Unlock()

	return func() {
		s.hmu.Lock()
		if idx < len(s.handlers) {
			s.handlers[idx] = nil
		}
		s.hmu.Unlock()
	}
}

// Notify queues a toast for the shopper and emits it.
func (s *Session) Notify(kind NoticeKind, msg string) {
	n := Notice{Kind: kind, Message: msg}
	s.mu.Lock()
	s.notices = append(s.notices, n)
	if len(s.notices) > maxPendingNotices {
		s.notices = s.notices[len(s.notices)-maxPendingNotices:]
	}
	s.mu.Unlock()
	s.emit(Event{Kind: EventNotification, Notice: &n})
}

func (s *Session) emit(ev Event) {
	s.hmu.Lock()
	handlers := make([]Handler, len(s.handlers))
	copy(handlers, s.handlers)
	s.hmu.Unlock()

	for _, h := range handlers {
		if h != nil {
			h(ev)
		}
	}
}

func (s *Session) setFlags(f auth.LocalFlags) {
	s.mu.Lock()
	s.cached = f
	s.mu.Unlock()

	if s.flags == nil {
		return
	}
	var err error
	if f.IsLoggedIn {
		err = s.flags.SaveFlags(f)
	} else {
		err = s.flags.ClearFlags()
	}
	if err != nil {
		s.log.Warn("failed to persist login flags", zap.Error(err))
	}
}
