package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	appcfg "brihaspati/internal/infra/config"
)

func TestDDLCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"ddl"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "-- SQLite local store")
	assert.Contains(t, out.String(), "local_storage")
	assert.Contains(t, out.String(), "-- PostgreSQL orders")
}

func TestDDLCommand_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schema")
	root := newRootCmd()
	root.SetArgs([]string{"ddl", "--out", dir})
	require.NoError(t, root.Execute())

	for _, s := range schemas {
		b, err := os.ReadFile(filepath.Join(dir, s.file))
		require.NoError(t, err, s.file)
		assert.Contains(t, string(b), s.title)
	}
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = newLogger("warn", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}

func TestAtomicHandler(t *testing.T) {
	h := newAtomicHandler(nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }))
	h.Store(nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return fmt.Sprint(l.Addr().(*net.TCPAddr).Port)
}

func TestServe_SwapsToStorefrontAndShutsDown(t *testing.T) {
	for _, k := range []string{"ORDERS_COLLECTION", "ORDERS_FALLBACK_COLLECTION", "CONTACT_COLLECTION", "CONTACT_FALLBACK_COLLECTION"} {
		t.Setenv(k, "")
	}
	cfg := &appcfg.Config{
		Port:               freePort(t),
		LocalStorePath:     ":memory:",
		SessionIdleTimeout: time.Minute,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zaptest.NewLogger(t)) }()

	base := "http://127.0.0.1:" + cfg.Port
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/session")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "full router never swapped in")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
