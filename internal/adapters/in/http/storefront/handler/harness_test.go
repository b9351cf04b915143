package storefrontHandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpin "brihaspati/internal/adapters/in/http"
	"brihaspati/internal/adapters/in/http/middleware"
	"brihaspati/internal/adapters/in/http/storefront"
	storefrontHandler "brihaspati/internal/adapters/in/http/storefront/handler"
	"brihaspati/internal/adapters/out/localstore"
	"brihaspati/internal/application/cartsync"
	"brihaspati/internal/application/session"
	usecase "brihaspati/internal/application/usecase"
	"brihaspati/internal/domain/auth/authtest"
	"brihaspati/internal/domain/cart"
	inquirydom "brihaspati/internal/domain/inquiry"
	orderdom "brihaspati/internal/domain/order"
	productdom "brihaspati/internal/domain/product"
)

const landingURL = "http://shop.example.test/"

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

type memOrders struct {
	mu    sync.Mutex
	saved []orderdom.Order
}

func (m *memOrders) Add(ctx context.Context, o orderdom.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, o)
	return "order-1", nil
}

type memMessages struct {
	mu    sync.Mutex
	saved []inquirydom.ContactMessage
}

func (m *memMessages) Add(ctx context.Context, msg inquirydom.ContactMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, msg)
	return "msg-1", nil
}

type memCatalog struct{ products []productdom.Product }

func (c *memCatalog) GetByID(ctx context.Context, id string) (*productdom.Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (c *memCatalog) QueryOrderedLimited(ctx context.Context, q productdom.Query) ([]productdom.Product, error) {
	out := []productdom.Product{}
	for _, p := range c.products {
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

func catalogFixture() *memCatalog {
	return &memCatalog{products: []productdom.Product{
		{ID: "p1", Name: "Spiral Notebook", Category: "Notebooks", Price: 120, Featured: true, Rank: 1},
		{ID: "p2", Name: "Gel Pen", Description: "Smooth blue ink", Category: "Pens", Price: 20, Featured: true, Rank: 2},
		{ID: "p3", Name: "Stapler", Category: "Office", Price: 250, Rank: 3},
	}}
}

type harness struct {
	srv     *httptest.Server
	client  *http.Client
	manager *session.Manager
	writer  *cartsync.RemoteWriter
	remote  *memRemote
	orders  *memOrders
	inbox   *memMessages

	mu        sync.Mutex
	providers map[string]*authtest.Provider
}

type harnessOption func(*usecase.CatalogUsecase) *usecase.CatalogUsecase

func noCatalog(*usecase.CatalogUsecase) *usecase.CatalogUsecase {
	return usecase.NewCatalogUsecase(nil, nil, nil)
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	log := zap.NewNop()

	store, err := localstore.Open(":memory:")
	require.NoError(t, err)

	h := &harness{
		remote:    &memRemote{records: map[string][]cart.Line{}},
		orders:    &memOrders{},
		inbox:     &memMessages{},
		providers: map[string]*authtest.Provider{},
	}
	h.writer = cartsync.NewRemoteWriter(h.remote, log)
	h.manager = session.NewManager(func(ctx context.Context, id string) (session.Deps, error) {
		p := authtest.NewProvider()
		p.AddUser("U", "u@example.com", "secret1", "Uma")
		h.mu.Lock()
		h.providers[id] = p
		h.mu.Unlock()
		slot := store.Slot(id)
		return session.Deps{Provider: p, Flags: slot, Local: slot, Remote: h.remote, Writer: h.writer}, nil
	}, log)

	products := catalogFixture()
	catalog := usecase.NewCatalogUsecase(products, nil, log)
	for _, o := range opts {
		catalog = o(catalog)
	}
	var lookup storefrontHandler.ProductLookup
	if catalog.Available() {
		lookup = products
	}

	sm := &middleware.SessionMiddleware{Sessions: h.manager, Log: log}
	router := httpin.NewRouter(httpin.RouterDeps{
		Storefront: storefront.Deps{
			Session:     storefrontHandler.NewSessionHandler(),
			Cart:        storefrontHandler.NewCartHandler(lookup, log),
			Auth:        storefrontHandler.NewAuthHandler(usecase.NewAuthUsecase(log), landingURL, log),
			Checkout:    storefrontHandler.NewCheckoutHandler(usecase.NewCheckoutUsecase(h.orders, nil, nil, nil, log)),
			Contact:     storefrontHandler.NewContactHandler(usecase.NewContactUsecase(h.inbox, nil, nil, nil, log)),
			Products:    storefrontHandler.NewProductHandler(catalog, log),
			WithSession: sm.Handler,
		},
		AllowedOrigins: []string{"http://localhost:5173"},
		Log:            log,
	})
	h.srv = httptest.NewServer(router)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.client = &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Cleanup(func() {
		h.srv.Close()
		h.manager.Close()
		_ = h.writer.Close()
		_ = store.Close()
	})
	return h
}

type response struct {
	Status  int
	Header  http.Header
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Session *session.View   `json:"session"`
}

func (h *harness) do(t *testing.T, method, path string, body any) response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rd = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rd = bytes.NewReader(b)
		}
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{Status: resp.StatusCode, Header: resp.Header}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

// settle waits for the cart reconciliations and remote writes of every
// session the harness has created.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.mu.Lock()
	ids := make([]string, 0, len(h.providers))
	for id := range h.providers {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		sess, err := h.manager.Get(ctx, id)
		require.NoError(t, err)
		require.NoError(t, sess.Settle(ctx))
	}
	require.NoError(t, h.writer.Flush(ctx))
}

func (h *harness) provider(t *testing.T) *authtest.Provider {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.providers, 1)
	for _, p := range h.providers {
		return p
	}
	return nil
}
