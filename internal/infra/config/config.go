// internal/infra/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names an optional YAML file. Environment variables override
// the values it sets.
const EnvConfigFile = "STOREFRONT_CONFIG"

// Config holds the storefront's runtime settings.
type Config struct {
	Port            string `yaml:"port"`
	ProjectID       string `yaml:"projectId"`
	CredentialsFile string `yaml:"credentialsFile"`
	LogLevel        string `yaml:"logLevel"`

	// Firebase Auth
	FirebaseAPIKey     string `yaml:"firebaseApiKey"`
	FirebaseRequestURI string `yaml:"firebaseRequestUri"`
	OAuthClientID      string `yaml:"oauthClientId"`
	OAuthClientSecret  string `yaml:"oauthClientSecret"`
	OAuthRedirectURL   string `yaml:"oauthRedirectUrl"`

	// Storage
	LocalStorePath     string `yaml:"localStorePath"`
	DatabaseURL        string `yaml:"databaseUrl"`
	ProductImageBucket string `yaml:"productImageBucket"`
	GCSSignerEmail     string `yaml:"gcsSignerEmail"`

	// Mail
	SendGridAPIKey string `yaml:"sendgridApiKey"`
	SendGridFrom   string `yaml:"sendgridFrom"`
	ShopName       string `yaml:"shopName"`
	ShopBaseURL    string `yaml:"shopBaseUrl"`

	// HTTP
	AllowedOrigins     []string      `yaml:"allowedOrigins"`
	SessionIdleTimeout time.Duration `yaml:"sessionIdleTimeout"`
	SecureCookies      bool          `yaml:"secureCookies"`
}

// Load reads the optional YAML file named by STOREFRONT_CONFIG, then
// applies environment variables and defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	setenv(&cfg.Port, "PORT")
	setenv(&cfg.ProjectID, "FIRESTORE_PROJECT_ID", "GCP_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "FIREBASE_PROJECT_ID")
	setenv(&cfg.CredentialsFile, "FIRESTORE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	setenv(&cfg.LogLevel, "LOG_LEVEL")

	setenv(&cfg.FirebaseAPIKey, "FIREBASE_API_KEY")
	setenv(&cfg.FirebaseRequestURI, "FIREBASE_REQUEST_URI")
	setenv(&cfg.OAuthClientID, "GOOGLE_OAUTH_CLIENT_ID")
	setenv(&cfg.OAuthClientSecret, "GOOGLE_OAUTH_CLIENT_SECRET")
	setenv(&cfg.OAuthRedirectURL, "GOOGLE_OAUTH_REDIRECT_URL")

	setenv(&cfg.LocalStorePath, "LOCAL_STORE_PATH")
	setenv(&cfg.DatabaseURL, "DATABASE_URL")
	setenv(&cfg.ProductImageBucket, "PRODUCT_IMAGE_BUCKET", "GCS_BUCKET")
	setenv(&cfg.GCSSignerEmail, "GCS_SIGNER_EMAIL")

	setenv(&cfg.SendGridAPIKey, "SENDGRID_API_KEY")
	setenv(&cfg.SendGridFrom, "SENDGRID_FROM")
	setenv(&cfg.ShopName, "SHOP_NAME")
	setenv(&cfg.ShopBaseURL, "SHOP_BASE_URL")

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_IDLE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: SESSION_IDLE_TIMEOUT: %w", err)
		}
		cfg.SessionIdleTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("SECURE_COOKIES")); v != "" {
		cfg.SecureCookies = v == "1" || strings.EqualFold(v, "true")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def(&c.Port, "8080")
	def(&c.LogLevel, "info")
	def(&c.LocalStorePath, "data/local_storage.db")
	def(&c.ShopName, "Brihaspati Stationery")
	if c.SessionIdleTimeout <= 0 {
		c.SessionIdleTimeout = 30 * time.Minute
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
}

// FirestoreEnabled reports whether a project is configured.
func (c *Config) FirestoreEnabled() bool { return strings.TrimSpace(c.ProjectID) != "" }

// setenv assigns the first non-empty variable of keys to dst.
func setenv(dst *string, keys ...string) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
			return
		}
	}
}

func def(dst *string, v string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = v
	}
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
