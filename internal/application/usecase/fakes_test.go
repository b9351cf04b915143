package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brihaspati/internal/application/cartsync"
	"brihaspati/internal/application/session"
	"brihaspati/internal/domain/auth"
	"brihaspati/internal/domain/auth/authtest"
	"brihaspati/internal/domain/cart"
	inquirydom "brihaspati/internal/domain/inquiry"
	orderdom "brihaspati/internal/domain/order"
	productdom "brihaspati/internal/domain/product"
)

type memSlot struct {
	mu    sync.Mutex
	lines []cart.Line
	has   bool
	flags auth.LocalFlags
}

func (m *memSlot) LoadCart() ([]cart.Line, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cart.Clone(m.lines), m.has, nil
}

func (m *memSlot) SaveCart(lines []cart.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines, m.has = cart.Clone(lines), true
	return nil
}

func (m *memSlot) LoadFlags() (auth.LocalFlags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags, nil
}

func (m *memSlot) SaveFlags(f auth.LocalFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = f
	return nil
}

func (m *memSlot) ClearFlags() error { return m.SaveFlags(auth.LocalFlags{}) }

type memRemote struct {
	mu      sync.Mutex
	records map[string][]cart.Line
}

func (r *memRemote) GetByUID(ctx context.Context, uid string) (*cart.RemoteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.records[uid]
	if !ok {
		return nil, nil
	}
	return &cart.RemoteRecord{Items: cart.Clone(items)}, nil
}

func (r *memRemote) SaveItems(ctx context.Context, uid string, items []cart.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[uid] = cart.Clone(items)
	return nil
}

type env struct {
	sess     *session.Session
	provider *authtest.Provider
	slot     *memSlot
	remote   *memRemote
	writer   *cartsync.RemoteWriter
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		provider: authtest.NewProvider(),
		slot:     &memSlot{},
		remote:   &memRemote{records: map[string][]cart.Line{}},
	}
	e.provider.AddUser("U", "u@example.com", "secret1", "Uma")
	e.writer = cartsync.NewRemoteWriter(e.remote, zap.NewNop())

	s, err := session.New("sess-1", session.Deps{
		Provider: e.provider,
		Flags:    e.slot,
		Local:    e.slot,
		Remote:   e.remote,
		Writer:   e.writer,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	e.sess = s

	t.Cleanup(func() {
		s.Close()
		_ = e.writer.Close()
	})
	return e
}

func (e *env) signIn(t *testing.T) {
	t.Helper()
	_, err := e.provider.SignInWithCredentials(context.Background(), "u@example.com", "secret1")
	require.NoError(t, err)
	e.settle(t)
}

func (e *env) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.sess.Settle(ctx))
	require.NoError(t, e.writer.Flush(ctx))
}

// lastNotice drains pending notices and returns the newest one.
func (e *env) lastNotice() session.Notice {
	ns := e.sess.View().Notices
	if len(ns) == 0 {
		return session.Notice{}
	}
	return ns[len(ns)-1]
}

type fakeOrders struct {
	mu    sync.Mutex
	saved []orderdom.Order
	err   error
	id    string
}

func (f *fakeOrders) Add(ctx context.Context, o orderdom.Order) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, o)
	return f.id, nil
}

type fakeMessages struct {
	saved []inquirydom.ContactMessage
	err   error
	id    string
}

func (f *fakeMessages) Add(ctx context.Context, m inquirydom.ContactMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, m)
	return f.id, nil
}

type fakeMailer struct {
	orders   []orderdom.Order
	contacts []inquirydom.ContactMessage
	err      error
}

func (f *fakeMailer) SendOrderConfirmation(ctx context.Context, o orderdom.Order) error {
	f.orders = append(f.orders, o)
	return f.err
}

func (f *fakeMailer) SendContactAcknowledgement(ctx context.Context, m inquirydom.ContactMessage) error {
	f.contacts = append(f.contacts, m)
	return f.err
}

type fakeCatalog struct {
	products []productdom.Product
	queries  []productdom.Query
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*productdom.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) QueryOrderedLimited(ctx context.Context, q productdom.Query) ([]productdom.Product, error) {
	f.queries = append(f.queries, q)
	out := []productdom.Product{}
	for _, p := range f.products {
		if q.FeaturedOnly && !p.Featured {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

type prefixResolver struct{ prefix string }

func (r prefixResolver) Resolve(ctx context.Context, ref string) string { return r.prefix + ref }
