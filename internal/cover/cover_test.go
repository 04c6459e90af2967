package cover

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type stubTier struct {
	name  string
	url   string
	err   error
	calls int
}

func (s *stubTier) Name() string { return s.name }

func (s *stubTier) CoverURL(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.url, s.err
}

func TestResolver_FirstTierWins(t *testing.T) {
	first := &stubTier{name: "first", url: "https://img.example/1.jpg"}
	second := &stubTier{name: "second", url: "https://img.example/2.jpg"}

	r := NewResolver("https://img.example/placeholder.jpg", zap.NewNop(), first, second)

	sel := r.Resolve(context.Background(), "Halo", "Beyonce")
	if sel.URL != "https://img.example/1.jpg" || sel.Source != "first" {
		t.Errorf("unexpected selection %+v", sel)
	}
	if second.calls != 0 {
		t.Error("second tier should not run when first succeeds")
	}
}

func TestResolver_FallsThroughOnFailure(t *testing.T) {
	first := &stubTier{name: "first", err: errors.New("boom")}
	second := &stubTier{name: "second", url: "https://img.example/2.jpg"}

	r := NewResolver("https://img.example/placeholder.jpg", zap.NewNop(), first, second)

	sel := r.Resolve(context.Background(), "Halo", "Beyonce")
	if sel.Source != "second" {
		t.Errorf("expected fallthrough to second tier, got %+v", sel)
	}
}

func TestResolver_PlaceholderWhenAllFail(t *testing.T) {
	first := &stubTier{name: "first", err: errors.New("boom")}
	second := &stubTier{name: "second", err: errors.New("also boom")}

	r := NewResolver("https://img.example/placeholder.jpg", zap.NewNop(), first, second)

	sel := r.Resolve(context.Background(), "Halo", "Beyonce")
	if sel.URL != "https://img.example/placeholder.jpg" || sel.Source != "placeholder" {
		t.Errorf("expected placeholder, got %+v", sel)
	}
}

func TestTokenCache_ReusesUnexpiredToken(t *testing.T) {
	var tokenRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	cache := newTokenCache(&clientcredentials.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     server.URL,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("Get() error: %v", err)
		}
	}

	if tokenRequests != 1 {
		t.Errorf("expected 1 token request, got %d", tokenRequests)
	}
}

func TestTokenCache_RefreshesNearExpiry(t *testing.T) {
	cache := newTokenCache(&clientcredentials.Config{})
	// A token expiring within the buffer must not be reused.
	cache.token = &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(30 * time.Second),
	}

	// The refresh hits the (unconfigured) token endpoint and fails,
	// proving the stale token was not served.
	if _, err := cache.Get(context.Background()); err == nil {
		t.Error("expected refresh attempt for a token inside the expiry buffer")
	}
}

func TestDeezerSource_CoverURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"album":{"cover_xl":"https://img.example/xl.jpg","cover_big":"https://img.example/big.jpg"}}]}`))
	}))
	defer server.Close()

	src := NewDeezerSource(server.Client())
	src.searchURL = server.URL

	coverURL, err := src.CoverURL(context.Background(), "Halo", "Beyonce")
	if err != nil {
		t.Fatalf("CoverURL() error: %v", err)
	}
	if coverURL != "https://img.example/xl.jpg" {
		t.Errorf("expected xl cover, got %q", coverURL)
	}
}

func TestDeezerSource_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	src := NewDeezerSource(server.Client())
	src.searchURL = server.URL

	if _, err := src.CoverURL(context.Background(), "Halo", "Beyonce"); err == nil {
		t.Error("expected error for empty result set")
	}
}
