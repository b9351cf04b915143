// cmd/storefront/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpin "brihaspati/internal/adapters/in/http"
	"brihaspati/internal/adapters/in/http/middleware"
	appcfg "brihaspati/internal/infra/config"
	shared "brihaspati/internal/platform/di/shared"
	sfdi "brihaspati/internal/platform/di/storefront"
)

const (
	initTimeout     = 2 * time.Minute
	shutdownTimeout = 25 * time.Second
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Pointer[http.Handler]
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(&initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(&next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*h.v.Load()).ServeHTTP(w, r)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := appcfg.Load()
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			log, err := newLogger(cfg.LogLevel, verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

// serve listens at once with a healthz-only handler, builds the container
// in the background and swaps the full router in when it is ready. It
// returns after ctx is done and the server has shut down.
func serve(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) error {
	boot := log.Named("boot")

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", httpin.Healthz)
	switcher := newAtomicHandler(middleware.CORS(cfg.AllowedOrigins)(healthMux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      switcher,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		boot.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Heavy DI init in background; then swap handler to the full router.
	type built struct {
		infra *shared.Infra
		cont  *sfdi.Container
	}
	ready := make(chan built, 1)
	go func() {
		defer close(ready)
		initCtx, cancel := context.WithTimeout(ctx, initTimeout)
		defer cancel()

		infra, err := shared.NewInfra(initCtx, cfg, log)
		if err != nil {
			boot.Error("shared infra init failed; serving /healthz only", zap.Error(err))
			return
		}
		cont, err := sfdi.NewContainer(initCtx, infra, log)
		if err != nil {
			_ = infra.Close()
			boot.Error("storefront di init failed; serving /healthz only", zap.Error(err))
			return
		}
		cont.Start(ctx)
		switcher.Store(cont.Handler())
		boot.Info("handler switched to storefront router")
		ready <- built{infra: infra, cont: cont}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		boot.Info("shutting down", zap.Error(context.Cause(ctx)))
	case err := <-serveErr:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		boot.Warn("server shutdown error", zap.Error(err))
	}

	// Wait for the init goroutine so nothing it built leaks.
	if b, ok := <-ready; ok {
		if err := b.cont.Close(); err != nil {
			boot.Warn("container close error", zap.Error(err))
		}
		if err := b.infra.Close(); err != nil {
			boot.Warn("infra close error", zap.Error(err))
		}
	}
	boot.Info("server stopped")
	return runErr
}
