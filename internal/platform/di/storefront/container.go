// internal/platform/di/storefront/container.go
package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	// outbound
	outdb "brihaspati/internal/adapters/out/db"
	outfs "brihaspati/internal/adapters/out/firestore"
	gcso "brihaspati/internal/adapters/out/gcs"
	"brihaspati/internal/adapters/out/identity"
	"brihaspati/internal/adapters/out/mail"

	// application
	"brihaspati/internal/application/cartsync"
	"brihaspati/internal/application/session"
	"brihaspati/internal/application/usecase"

	// domains
	"brihaspati/internal/domain/cart"
	inquirydom "brihaspati/internal/domain/inquiry"
	orderdom "brihaspati/internal/domain/order"
	productdom "brihaspati/internal/domain/product"

	shared "brihaspati/internal/platform/di/shared"
)

const (
	// LocalRetention is how long an untouched local slot survives pruning.
	LocalRetention = 90 * 24 * time.Hour
	pruneInterval  = 6 * time.Hour
)

// Container is the storefront DI container.
// Pure DI: build deps only. No routing branching.
type Container struct {
	Infra *shared.Infra

	Identity *identity.Service
	Writer   *cartsync.RemoteWriter
	Sessions *session.Manager

	// Usecases
	AuthUC     *usecase.AuthUsecase
	CheckoutUC *usecase.CheckoutUsecase
	ContactUC  *usecase.ContactUsecase
	CatalogUC  *usecase.CatalogUsecase

	// Ports the handlers use directly; nil when not configured.
	Products productdom.Repository

	log *zap.Logger

	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewContainer wires the storefront on top of infra. Optional backends
// (Firestore, PostgreSQL, SendGrid, GCS signing) degrade to disabled
// features, never to a failed boot.
func NewContainer(ctx context.Context, infra *shared.Infra, log *zap.Logger) (*Container, error) {
	if infra == nil {
		return nil, errors.New("storefront.container: infra is nil")
	}
	if infra.Local == nil {
		return nil, errors.New("storefront.container: local store is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg := infra.Config
	set := infra.Settings

	c := &Container{Infra: infra, log: log.Named("storefront")}

	// ============================================================
	// Outbound adapters (repositories)
	// ============================================================
	var (
		remoteCart      cart.RemoteRepository
		ordersPrimary   orderdom.Repository
		ordersFallback  orderdom.Repository
		contactPrimary  inquirydom.Repository
		contactFallback inquirydom.Repository
	)
	if fs := infra.Firestore; fs != nil {
		remoteCart = outfs.NewCartRepositoryFS(fs.Client)
		ordersPrimary = outfs.NewOrderRepositoryFS(fs.Client, set.OrdersCollection)
		ordersFallback = outfs.NewOrderRepositoryFS(fs.Client, set.OrdersFallbackCollection)
		contactPrimary = outfs.NewInquiryRepositoryFS(fs.Client, set.ContactCollection)
		contactFallback = outfs.NewInquiryRepositoryFS(fs.Client, set.ContactFallbackCollection)
		c.Products = outfs.NewProductRepositoryFS(fs.Client)
	}
	// PostgreSQL takes orders first when configured; the primary Firestore
	// collection becomes its fallback.
	if infra.DB != nil {
		ordersFallback = ordersPrimary
		ordersPrimary = outdb.NewOrderRepositoryPG(infra.DB.Client)
		c.log.Info("orders go to PostgreSQL first")
	}

	// ============================================================
	// Identity provider
	// ============================================================
	var verifier identity.TokenVerifier
	if infra.FirebaseAuth != nil {
		verifier = infra.FirebaseAuth
	}
	idSvc, err := identity.NewService(ctx, identity.Config{
		APIKey:     cfg.FirebaseAPIKey,
		RequestURI: cfg.FirebaseRequestURI,
		Redirect: identity.RedirectConfig{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
		},
	}, verifier, log)
	if err != nil {
		return nil, err
	}
	c.Identity = idSvc

	// ============================================================
	// Cart sync + sessions
	// ============================================================
	if remoteCart != nil {
		c.Writer = cartsync.NewRemoteWriter(remoteCart, log)
	}
	c.Sessions = session.NewManager(c.sessionFactory(remoteCart), log)

	// ============================================================
	// Mail + images
	// ============================================================
	var (
		orderMailer   usecase.OrderMailer
		contactMailer usecase.ContactMailer
	)
	if m := mail.NewStorefrontMailerWithSendGrid(mail.Settings{
		SendGridAPIKey: cfg.SendGridAPIKey,
		FromAddress:    cfg.SendGridFrom,
		ShopName:       cfg.ShopName,
		ShopURL:        set.ShopBaseURL,
	}, log); m != nil {
		orderMailer, contactMailer = m, m
	}
	images := gcso.NewProductImageURLResolver(ctx, set.ProductImageBucket, set.GCSSignerEmail, log)

	// ============================================================
	// Usecases
	// ============================================================
	c.AuthUC = usecase.NewAuthUsecase(log)
	c.CheckoutUC = usecase.NewCheckoutUsecase(ordersPrimary, ordersFallback, orderMailer, nil, log)
	c.ContactUC = usecase.NewContactUsecase(contactPrimary, contactFallback, contactMailer, nil, log)
	c.CatalogUC = usecase.NewCatalogUsecase(c.Products, images, log)

	c.log.Info("container built",
		zap.Bool("firestore", infra.Firestore != nil),
		zap.Bool("postgres", infra.DB != nil),
		zap.Bool("signIn", idSvc.Configured()),
		zap.Bool("mail", orderMailer != nil),
	)
	return c, nil
}

// sessionFactory builds the per-session dependencies: a local slot keyed
// by the session id, a provider persisting into that slot, and the shared
// remote cart.
func (c *Container) sessionFactory(remote cart.RemoteRepository) session.Factory {
	return func(ctx context.Context, id string) (session.Deps, error) {
		slot := c.Infra.Local.Slot(id)
		return session.Deps{
			Provider: c.Identity.ForSession(slot),
			Flags:    slot,
			Local:    slot,
			Remote:   remote,
			Writer:   c.Writer,
		}, nil
	}
}

// Start runs the background loops: idle session sweeping and local store
// pruning. They stop on Close or when ctx is done.
func (c *Container) Start(ctx context.Context) {
	ctx, c.stop = context.WithCancel(ctx)
	set := c.Infra.Settings

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.Sessions.RunSweeper(ctx, set.SweepInterval, set.SessionIdleTimeout)
	}()
	go func() {
		defer c.wg.Done()
		c.runPruner(ctx, pruneInterval, LocalRetention)
	}()
}

func (c *Container) runPruner(ctx context.Context, interval, retention time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			n, err := c.Infra.Local.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				c.log.Warn("local store prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				c.log.Info("local store pruned", zap.Int64("rows", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the background loops, closes every session and drains the
// remote writer. Infra is closed by its owner.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.stop != nil {
		c.stop()
	}
	c.wg.Wait()
	if c.Sessions != nil {
		c.Sessions.Close()
	}
	return c.Writer.Close()
}
