// internal/adapters/out/identity/oauth.go
package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"brihaspati/internal/domain/auth"
)

// DefaultTokenURL is the secure token endpoint that trades a refresh token
// for a fresh ID token. The API key travels as a query parameter.
const DefaultTokenURL = "https://securetoken.googleapis.com/v1/token"

// GoogleProviderID is the federated provider id the toolkit expects.
const GoogleProviderID = "google.com"

// refresher renews an expired session.
type refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokenSet, error)
}

// tokenRefresher uses the refresh_token grant against the secure token
// endpoint; the response carries id_token and user_id next to the usual
// OAuth fields.
type tokenRefresher struct {
	conf *oauth2.Config
}

func newTokenRefresher(tokenURL, apiKey string) *tokenRefresher {
	tokenURL = strings.TrimSpace(tokenURL)
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if k := strings.TrimSpace(apiKey); k != "" {
		sep := "?"
		if strings.Contains(tokenURL, "?") {
			sep = "&"
		}
		tokenURL += sep + "key=" + k
	}
	return &tokenRefresher{conf: &oauth2.Config{
		Endpoint: oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}}
}

func (r *tokenRefresher) Refresh(ctx context.Context, refreshToken string) (*tokenSet, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, auth.NewError(auth.CodeInvalidCredentials, "MISSING_REFRESH_TOKEN", nil)
	}
	tok, err := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, mapError(err)
	}

	ts := &tokenSet{
		IDToken:      extraString(tok, "id_token"),
		UID:          extraString(tok, "user_id"),
		RefreshToken: tok.RefreshToken,
	}
	if ts.IDToken == "" {
		ts.IDToken = tok.AccessToken
	}
	if ts.RefreshToken == "" {
		ts.RefreshToken = refreshToken
	}
	if n, err := strconv.ParseInt(extraString(tok, "expires_in"), 10, 64); err == nil {
		ts.ExpiresIn = n
	}
	return ts, nil
}

// RedirectConfig configures the redirect fallback used when the browser
// blocks the sign-in popup.
type RedirectConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c RedirectConfig) enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.RedirectURL) != ""
}

func (c RedirectConfig) oauth() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(c.ClientID),
		ClientSecret: strings.TrimSpace(c.ClientSecret),
		RedirectURL:  strings.TrimSpace(c.RedirectURL),
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

var errNoIDToken = errors.New("identity: token response has no id_token")

// exchangeIDToken completes the authorization code flow and returns the
// OpenID id_token.
func exchangeIDToken(ctx context.Context, conf *oauth2.Config, code string) (string, error) {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", mapError(err)
	}
	id := extraString(tok, "id_token")
	if id == "" {
		return "", auth.NewError(auth.CodeUnknown, "no id_token in token response", errNoIDToken)
	}
	return id, nil
}

func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
