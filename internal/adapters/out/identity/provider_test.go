package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"brihaspati/internal/domain/auth"
)

func persistedJSON(t *testing.T, p persisted) string {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return string(b)
}

func TestClient_StartWithoutSessionNotifiesNil(t *testing.T) {
	c := newTestService(&fakeBackend{}, nil, nil).ForSession(newMemStore())
	rec := &recorder{}
	c.OnSessionStateChange(rec.listen)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, []string{""}, rec.uids())
	assert.ErrorIs(t, c.Start(context.Background()), auth.ErrAlreadyStarted)
}

func TestClient_SignInPersistsAndRestores(t *testing.T) {
	b := &fakeBackend{users: map[string]string{"u@example.com": "secret1"}}
	store := newMemStore()
	svc := newTestService(b, nil, nil)

	c := svc.ForSession(store)
	rec := &recorder{}
	c.OnSessionStateChange(rec.listen)
	require.NoError(t, c.Start(context.Background()))

	id, err := c.SignInWithCredentials(context.Background(), " u@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-u@example.com", id.UID)
	assert.Equal(t, []string{"", "uid-u@example.com"}, rec.uids())
	assert.Equal(t, "uid-u@example.com", c.CurrentIdentity().UID)

	raw, ok, _ := store.GetItem(SessionKey)
	require.True(t, ok)
	var p persisted
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "rt-u@example.com", p.RefreshToken)
	assert.Equal(t, testNow.Add(time.Hour), p.ExpiresAt)

	// a new page load of the same session
	again := svc.ForSession(store)
	rec2 := &recorder{}
	again.OnSessionStateChange(rec2.listen)
	require.NoError(t, again.Start(context.Background()))
	assert.Equal(t, []string{"uid-u@example.com"}, rec2.uids())
}

func TestClient_WrongPasswordKeepsSignedOut(t *testing.T) {
	c := newTestService(&fakeBackend{users: map[string]string{}}, nil, nil).ForSession(newMemStore())
	require.NoError(t, c.Start(context.Background()))

	_, err := c.SignInWithCredentials(context.Background(), "x@example.com", "nope")
	assert.Equal(t, auth.CodeInvalidCredentials, auth.CodeOf(err))
	assert.Nil(t, c.CurrentIdentity())
}

func TestClient_SignOut(t *testing.T) {
	b := &fakeBackend{users: map[string]string{"u@example.com": "secret1"}}
	store := newMemStore()
	c := newTestService(b, nil, nil).ForSession(store)
	rec := &recorder{}
	c.OnSessionStateChange(rec.listen)
	require.NoError(t, c.Start(context.Background()))
	_, err := c.SignInWithCredentials(context.Background(), "u@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, c.SignOut(context.Background()))
	assert.Nil(t, c.CurrentIdentity())
	_, ok, _ := store.GetItem(SessionKey)
	assert.False(t, ok)
	assert.Equal(t, []string{"", "uid-u@example.com", ""}, rec.uids())
}

func TestClient_SignOutFailureKeepsSession(t *testing.T) {
	b := &fakeBackend{users: map[string]string{"u@example.com": "secret1"}}
	store := newMemStore()
	c := newTestService(b, nil, nil).ForSession(store)
	require.NoError(t, c.Start(context.Background()))
	_, err := c.SignInWithCredentials(context.Background(), "u@example.com", "secret1")
	require.NoError(t, err)

	store.err = assert.AnError
	assert.Error(t, c.SignOut(context.Background()))
	assert.NotNil(t, c.CurrentIdentity())
}

func TestClient_RestoreRefreshesExpiredSession(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.SetItem(SessionKey, persistedJSON(t, persisted{
		UID: "U", Email: "u@example.com", IDToken: "old", RefreshToken: "rt", ExpiresAt: testNow.Add(-time.Hour),
	})))
	r := &fakeRefresher{res: &tokenSet{UID: "U", IDToken: "new", RefreshToken: "rt2", ExpiresIn: 3600}}
	v := &fakeVerifier{uid: "U", claims: map[string]any{"name": "Uma"}}

	c := newTestService(&fakeBackend{}, r, v).ForSession(store)
	require.NoError(t, c.Start(context.Background()))

	id := c.CurrentIdentity()
	require.NotNil(t, id)
	assert.Equal(t, "Uma", id.DisplayName)
	assert.Equal(t, 1, r.calls)

	raw, _, _ := store.GetItem(SessionKey)
	var p persisted
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "new", p.IDToken)
	assert.Equal(t, "rt2", p.RefreshToken)
}

func TestClient_RestoreFailures(t *testing.T) {
	valid := persisted{UID: "U", IDToken: "tok", RefreshToken: "rt", ExpiresAt: testNow.Add(time.Hour)}
	expired := valid
	expired.ExpiresAt = testNow.Add(-time.Hour)

	cases := []struct {
		name   string
		raw    string
		r      refresher
		v      TokenVerifier
		want   bool // identity restored
		forgot bool
	}{
		{"garbage", "{", nil, nil, false, true},
		{"verifier rejects", persistedJSON(t, valid), nil, &fakeVerifier{err: errRevoked}, false, true},
		{"other user token", persistedJSON(t, valid), nil, &fakeVerifier{uid: "V"}, false, true},
		{"expired without refresher", persistedJSON(t, expired), nil, nil, false, true},
		{"refresh rejected", persistedJSON(t, expired),
			&fakeRefresher{err: auth.NewError(auth.CodeInvalidCredentials, "INVALID_REFRESH_TOKEN", nil)}, nil, false, true},
		{"refresh offline", persistedJSON(t, expired),
			&fakeRefresher{err: auth.NewError(auth.CodeNetworkUnavailable, "dial", nil)}, nil, true, false},
		{"valid", persistedJSON(t, valid), nil, &fakeVerifier{uid: "U"}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			require.NoError(t, store.SetItem(SessionKey, tc.raw))

			c := newTestService(&fakeBackend{}, tc.r, tc.v).ForSession(store)
			require.NoError(t, c.Start(context.Background()))

			assert.Equal(t, tc.want, c.CurrentIdentity() != nil)
			_, ok, _ := store.GetItem(SessionKey)
			assert.Equal(t, tc.forgot, !ok)
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := newTestService(nil, nil, nil).ForSession(newMemStore())
	require.NoError(t, c.Start(context.Background()))

	_, err := c.SignInWithCredentials(context.Background(), "a@b.co", "x")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
	_, err = c.SignUp(context.Background(), "a@b.co", "xxxxxx")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
	assert.ErrorIs(t, c.SendPasswordReset(context.Background(), "a@b.co"), auth.ErrNotConfigured)

	_, err = c.FederatedRedirectURL("s")
	assert.Equal(t, auth.CodeEnvironmentUnsupported, auth.CodeOf(err))
}

func TestClient_SignUpAndReset(t *testing.T) {
	b := &fakeBackend{users: map[string]string{}}
	c := newTestService(b, nil, nil).ForSession(newMemStore())
	require.NoError(t, c.Start(context.Background()))

	id, err := c.SignUp(context.Background(), "n@example.com", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, "n@example.com", id.Email)

	_, err = c.SignUp(context.Background(), "n@example.com", "abcdef")
	assert.Equal(t, auth.CodeAlreadyInUse, auth.CodeOf(err))

	require.NoError(t, c.SendPasswordReset(context.Background(), " n@example.com "))
	assert.Equal(t, []string{"n@example.com"}, b.resets)
}

func TestClient_FederatedRedirect(t *testing.T) {
	var form url.Values
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"google-id-token"}`))
	}))
	defer tokenSrv.Close()

	b := &fakeBackend{}
	svc := newTestService(b, nil, nil)
	svc.redirect = RedirectConfig{ClientID: "cid", ClientSecret: "sec", RedirectURL: "https://shop.example/auth/federated/callback"}.oauth()

	c := svc.ForSession(newMemStore())
	require.NoError(t, c.Start(context.Background()))

	u, err := c.FederatedRedirectURL("st-1")
	require.NoError(t, err)
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", parsed.Host)
	assert.Equal(t, "st-1", parsed.Query().Get("state"))
	assert.Equal(t, "select_account", parsed.Query().Get("prompt"))
	assert.Equal(t, "cid", parsed.Query().Get("client_id"))

	svc.redirect.Endpoint = oauth2.Endpoint{AuthURL: svc.redirect.Endpoint.AuthURL, TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams}
	id, err := c.CompleteFederatedRedirect(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "g-google-id-token", id.UID)
	assert.Equal(t, "auth-code", form.Get("code"))
	assert.Equal(t, []string{"google.com:google-id-token"}, b.assertions)

	_, err = c.CompleteFederatedRedirect(context.Background(), "")
	assert.Equal(t, auth.CodeNoAuthEvent, auth.CodeOf(err))
}

func TestClient_FederatedRequiresToken(t *testing.T) {
	c := newTestService(&fakeBackend{}, nil, nil).ForSession(newMemStore())
	_, err := c.SignInWithFederated(context.Background(), auth.FederatedCredential{})
	assert.Equal(t, auth.CodeInvalidCredentials, auth.CodeOf(err))
}
