// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"brihaspati/internal/adapters/out/localstore"
	appcfg "brihaspati/internal/infra/config"
	"brihaspati/internal/infra/database"
	firestoreinfra "brihaspati/internal/infra/firestore"
)

// Infra is shared runtime infrastructure for DI.
//   - owns external clients (Firestore/FirebaseAuth/SecretManager/PostgreSQL)
//   - owns the server-side local store every session mirrors into
//   - owns env/config-resolved runtime settings
//
// IMPORTANT:
// Infra must NOT depend on routers, handlers, or usecases.
type Infra struct {
	// Config
	Config    *appcfg.Config
	ProjectID string
	Settings  RuntimeSettings

	// Clients (owned; Close-managed). Nil when not configured.
	Firestore     *firestoreinfra.ClientWrapper
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
	DB            *database.DB

	// Local store (strict)
	Local *localstore.Store

	ClientOptions []option.ClientOption
}

// NewInfra initializes shared infra.
// Settings and the local store are strict (return error).
// Without a project the storefront runs anonymously on the local store only.
// Secret Manager is strict only when the config carries sm:// references.
// Firebase Auth is best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("infra")

	settings, warns, err := ResolveRuntimeSettings(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range warns {
		log.Warn(w)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: strings.TrimSpace(cfg.ProjectID),
		Settings:  settings,
	}

	// Credentials file (optional; mainly for local dev)
	if credFile := strings.TrimSpace(cfg.CredentialsFile); credFile != "" {
		inf.ClientOptions = append(inf.ClientOptions, option.WithCredentialsFile(credFile))
		log.Info("using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
	} else {
		log.Info("using Application Default Credentials (no credentials file configured)")
	}

	// 1) Secret Manager (only when something references it)
	if cfg.HasSecretRefs() {
		sm, err := secretmanager.NewClient(ctx, inf.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: secretmanager.NewClient failed: %w", err)
		}
		inf.SecretManager = sm
		if err := cfg.ResolveSecrets(ctx, &appcfg.SecretManagerResolver{Client: sm, ProjectID: inf.ProjectID}); err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		log.Info("secrets resolved from Secret Manager")
	}

	// 2) Local store (strict)
	local, err := localstore.Open(cfg.LocalStorePath)
	if err != nil {
		_ = inf.Close()
		return nil, fmt.Errorf("shared.infra: open local store %s: %w", redactPath(cfg.LocalStorePath), err)
	}
	inf.Local = local
	log.Info("local store opened", zap.String("path", redactPath(cfg.LocalStorePath)))

	// 3) Firestore (optional; strict once a project is configured)
	if cfg.FirestoreEnabled() {
		fs, err := firestoreinfra.NewClient(ctx, inf.ProjectID, log, inf.ClientOptions...)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		inf.Firestore = fs
	} else {
		log.Warn("project id is empty; remote cart, orders, contact and catalog are disabled")
	}

	// 4) Firebase App/Auth (best-effort)
	if inf.ProjectID != "" {
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: inf.ProjectID}, inf.ClientOptions...)
		if err != nil {
			log.Warn("firebase app init failed", zap.Error(err))
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Warn("firebase auth init failed", zap.Error(err))
			} else {
				inf.FirebaseAuth = authClient
				log.Info("Firebase Auth initialized")
			}
		}
	}

	// 5) PostgreSQL (optional; strict once configured)
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := database.NewConnection(ctx, dsn, log)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		inf.DB = db
		if err := db.Migrate(ctx); err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
	}

	return inf, nil
}

// Close releases every client Infra owns. It is safe on a partially built Infra.
func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
	}
	if i.SecretManager != nil {
		errs = append(errs, i.SecretManager.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	if i.Local != nil {
		errs = append(errs, i.Local.Close())
	}
	return errors.Join(errs...)
}

func redactPath(p string) string {
	// Do not log full path (Windows/Unix compatible light masking)
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == ":memory:" {
		return p
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
