package jenni

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shinertx/jenni-shopify/internal/clock"
	"github.com/shinertx/jenni-shopify/internal/config"
	"go.uber.org/zap"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

var _ clock.Clock = fixedClock{}

func tokenTestConfig(host string) config.Jenni {
	return config.Jenni{
		Enabled:      true,
		APIHost:      host,
		ClientID:     "client",
		ClientSecret: "secret",
	}
}

func TestGetTokenCollapsesConcurrentRefreshes(t *testing.T) {
	var exchanges atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	mgr := NewTokenManager(tokenTestConfig(srv.URL), srv.Client(), zap.NewNop(), fixedClock{now: time.Now()})

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = mgr.GetToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if tokens[i] != "tok-1" {
			t.Fatalf("caller %d: expected tok-1, got %q", i, tokens[i])
		}
	}
	if got := exchanges.Load(); got != 1 {
		t.Fatalf("expected 1 credential exchange, got %d", got)
	}
}

func TestGetTokenReusesCachedTokenUntilBuffer(t *testing.T) {
	var exchanges atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
	defer srv.Close()

	mgr := NewTokenManager(tokenTestConfig(srv.URL), srv.Client(), zap.NewNop(), fixedClock{now: time.Now()})

	for i := 0; i < 3; i++ {
		if _, err := mgr.GetToken(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := exchanges.Load(); got != 1 {
		t.Fatalf("expected cached token to be reused, got %d exchanges", got)
	}
}

func TestGetTokenRetriesThenReportsAuthError(t *testing.T) {
	var exchanges atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	mgr := NewTokenManager(tokenTestConfig(srv.URL), srv.Client(), zap.NewNop(), fixedClock{now: time.Now()})

	_, err := mgr.GetToken(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if got := exchanges.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestGetTokenDisabled(t *testing.T) {
	mgr := NewTokenManager(config.Jenni{}, http.DefaultClient, zap.NewNop(), fixedClock{now: time.Now()})
	_, err := mgr.GetToken(context.Background())
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
