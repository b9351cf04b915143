// internal/adapters/out/identity/provider.go
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
	"golang.org/x/oauth2"

	"brihaspati/internal/domain/auth"
)

// SessionKey is the slot key of the persisted provider session.
const SessionKey = "firebaseSession"

// expirySkew renews tokens slightly before they actually expire.
const expirySkew = time.Minute

// SessionStore is the per-session key/value slot the provider persists its
// tokens in (localstore.Slot).
type SessionStore interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// TokenVerifier checks ID tokens. *firebaseauth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Config is the Firebase project configuration of the storefront.
type Config struct {
	APIKey     string
	RequestURI string
	TokenURL   string
	Redirect   RedirectConfig
}

// Service holds what all storefront sessions share. ForSession hands out
// one auth.Provider per session.
type Service struct {
	backend   backend
	refresher refresher
	verifier  TokenVerifier
	redirect  *oauth2.Config
	now       func() time.Time
	log       *zap.Logger
}

// NewService builds the Firebase-backed provider service. Without an API
// key the service still restores nothing and reports auth.ErrNotConfigured
// on sign-in, so the storefront keeps working anonymously.
func NewService(ctx context.Context, cfg Config, verifier TokenVerifier, log *zap.Logger, opts ...option.ClientOption) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		verifier: verifier,
		now:      time.Now,
		log:      log.Named("identity"),
	}

	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		svc, err := identitytoolkit.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(key)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("identity: identitytoolkit.NewService: %w", err)
		}
		b, err := newToolkitBackend(svc, cfg.RequestURI)
		if err != nil {
			return nil, err
		}
		s.backend = b
		s.refresher = newTokenRefresher(cfg.TokenURL, key)
	} else {
		s.log.Warn("FIREBASE_API_KEY is empty; sign-in is disabled")
	}

	if cfg.Redirect.enabled() {
		s.redirect = cfg.Redirect.oauth()
	}
	return s, nil
}

// Configured reports whether sign-in is available.
func (s *Service) Configured() bool { return s != nil && s.backend != nil }

// ForSession returns a provider bound to store.
func (s *Service) ForSession(store SessionStore) *Client {
	return &Client{
		svc:       s,
		store:     store,
		listeners: map[int]auth.Listener{},
	}
}

// persisted is the JSON stored under SessionKey.
type persisted struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email,omitempty"`
	DisplayName  string    `json:"displayName,omitempty"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (p *persisted) identity() *auth.Identity {
	return &auth.Identity{UID: p.UID, Email: p.Email, DisplayName: p.DisplayName}
}

// Client is the identity provider of one storefront session.
type Client struct {
	svc   *Service
	store SessionStore

	mu        sync.Mutex
	current   *persisted
	listeners map[int]auth.Listener
	nextID    int
	started   bool
}

var _ auth.Provider = (*Client)(nil)

func (c *Client) OnSessionStateChange(l auth.Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Start restores the persisted session and fires the first notification,
// which carries nil when nothing could be restored.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return auth.ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	p := c.restore(ctx)

	c.mu.Lock()
	c.current = p
	c.mu.Unlock()
	c.fire()
	return nil
}

func (c *Client) CurrentIdentity() *auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.current.identity()
}

func (c *Client) SignInWithCredentials(ctx context.Context, email, password string) (*auth.Identity, error) {
	if !c.svc.Configured() {
		return nil, auth.ErrNotConfigured
	}
	ts, err := c.svc.backend.VerifyPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	return c.establish(ts)
}

func (c *Client) SignInWithFederated(ctx context.Context, cred auth.FederatedCredential) (*auth.Identity, error) {
	if !c.svc.Configured() {
		return nil, auth.ErrNotConfigured
	}
	if strings.TrimSpace(cred.IDToken) == "" {
		return nil, auth.NewError(auth.CodeInvalidCredentials, "MISSING_ID_TOKEN", nil)
	}
	pid := strings.TrimSpace(cred.ProviderID)
	if pid == "" {
		pid = GoogleProviderID
	}
	ts, err := c.svc.backend.VerifyAssertion(ctx, pid, cred.IDToken)
	if err != nil {
		return nil, err
	}
	return c.establish(ts)
}

// FederatedRedirectURL returns the Google consent URL for state.
func (c *Client) FederatedRedirectURL(state string) (string, error) {
	if c.svc.redirect == nil {
		return "", auth.NewError(auth.CodeEnvironmentUnsupported, "redirect sign-in is not configured", auth.ErrNotConfigured)
	}
	return c.svc.redirect.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

func (c *Client) CompleteFederatedRedirect(ctx context.Context, code string) (*auth.Identity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, auth.NewError(auth.CodeNoAuthEvent, "", nil)
	}
	if c.svc.redirect == nil {
		return nil, auth.NewError(auth.CodeEnvironmentUnsupported, "redirect sign-in is not configured", auth.ErrNotConfigured)
	}
	idToken, err := exchangeIDToken(ctx, c.svc.redirect, code)
	if err != nil {
		return nil, err
	}
	return c.SignInWithFederated(ctx, auth.FederatedCredential{ProviderID: GoogleProviderID, IDToken: idToken})
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.Identity, error) {
	if !c.svc.Configured() {
		return nil, auth.ErrNotConfigured
	}
	ts, err := c.svc.backend.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	return c.establish(ts)
}

// SignOut forgets the persisted session. Local state is only changed once
// the slot has been cleared.
func (c *Client) SignOut(ctx context.Context) error {
	if c.store != nil {
		if err := c.store.RemoveItem(SessionKey); err != nil {
			return fmt.Errorf("identity: clear session: %w", err)
		}
	}
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.fire()
	return nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	if !c.svc.Configured() {
		return auth.ErrNotConfigured
	}
	return c.svc.backend.SendPasswordResetEmail(ctx, strings.TrimSpace(email))
}

// establish persists ts and makes it the current session.
func (c *Client) establish(ts *tokenSet) (*auth.Identity, error) {
	if ts == nil || strings.TrimSpace(ts.UID) == "" {
		return nil, auth.NewError(auth.CodeUnknown, "sign-in response without user id", nil)
	}
	p := &persisted{
		UID:          ts.UID,
		Email:        ts.Email,
		DisplayName:  ts.DisplayName,
		IDToken:      ts.IDToken,
		RefreshToken: ts.RefreshToken,
		ExpiresAt:    c.svc.now().Add(time.Duration(ts.ExpiresIn) * time.Second).UTC(),
	}
	c.persist(p)

	c.mu.Lock()
	c.current = p
	c.mu.Unlock()
	c.fire()
	return p.identity(), nil
}

// persist is best-effort: a session that cannot be saved still works until
// the shopper's session ends.
func (c *Client) persist(p *persisted) {
	if c.store == nil {
		return
	}
	b, err := json.Marshal(p)
	if err == nil {
		err = c.store.SetItem(SessionKey, string(b))
	}
	if err != nil {
		c.svc.log.Warn("failed to persist provider session", zap.String("uid", p.UID), zap.Error(err))
	}
}

// restore loads the persisted session, renews it when expired and checks
// the ID token. Any definitive failure forgets the session; a network
// failure keeps the cached identity.
func (c *Client) restore(ctx context.Context) *persisted {
	if c.store == nil {
		return nil
	}
	raw, ok, err := c.store.GetItem(SessionKey)
	if err != nil {
		c.svc.log.Warn("failed to read provider session", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil || strings.TrimSpace(p.UID) == "" {
		c.forget("unreadable provider session", err)
		return nil
	}

	if !c.svc.now().Before(p.ExpiresAt.Add(-expirySkew)) {
		if c.svc.refresher == nil {
			c.forget("provider session expired", nil)
			return nil
		}
		ts, err := c.svc.refresher.Refresh(ctx, p.RefreshToken)
		switch {
		case err == nil:
			if ts.UID != "" && ts.UID != p.UID {
				c.forget("refreshed session belongs to another user", nil)
				return nil
			}
			p.IDToken = ts.IDToken
			p.RefreshToken = ts.RefreshToken
			p.ExpiresAt = c.svc.now().Add(time.Duration(ts.ExpiresIn) * time.Second).UTC()
			c.persist(&p)
		case auth.HasCode(err, auth.CodeNetworkUnavailable):
			c.svc.log.Warn("provider session refresh failed; keeping cached session", zap.Error(err))
			return &p
		default:
			c.forget("provider session refresh rejected", err)
			return nil
		}
	}

	if c.svc.verifier != nil {
		tok, err := c.svc.verifier.VerifyIDToken(ctx, p.IDToken)
		if err != nil {
			c.forget("provider session token rejected", err)
			return nil
		}
		if tok.UID != "" && tok.UID != p.UID {
			c.forget("provider session token belongs to another user", nil)
			return nil
		}
		if email, ok := tok.Claims["email"].(string); ok && email != "" {
			p.Email = email
		}
		if name, ok := tok.Claims["name"].(string); ok && name != "" {
			p.DisplayName = name
		}
	}
	return &p
}

func (c *Client) forget(reason string, err error) {
	fields := []zap.Field{}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.svc.log.Info(reason, fields...)
	if rmErr := c.store.RemoveItem(SessionKey); rmErr != nil {
		c.svc.log.Warn("failed to clear provider session", zap.Error(rmErr))
	}
}

// fire notifies listeners in registration order, outside the lock.
func (c *Client) fire() {
	c.mu.Lock()
	var id *auth.Identity
	if c.current != nil {
		id = c.current.identity()
	}
	ls := make([]auth.Listener, 0, len(c.listeners))
	for i := 0; i < c.nextID; i++ {
		if l, ok := c.listeners[i]; ok {
			ls = append(ls, l)
		}
	}
	c.mu.Unlock()

	for _, l := range ls {
		if id == nil {
			l(nil)
			continue
		}
		cp := *id
		l(&cp)
	}
}
