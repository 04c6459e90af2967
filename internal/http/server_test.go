package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tuneclip/internal/core"
)

func TestCreateHTTPServer(t *testing.T) {
	config := &core.ServerConfig{
		Host:         "0.0.0.0",
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	mux := http.NewServeMux()
	server := createHTTPServer(config, mux)

	if server.Addr != "0.0.0.0:9090" {
		t.Errorf("createHTTPServer() Addr = %q, expected %q", server.Addr, "0.0.0.0:9090")
	}
	if server.ReadTimeout != config.ReadTimeout {
		t.Errorf("createHTTPServer() ReadTimeout = %v, expected %v", server.ReadTimeout, config.ReadTimeout)
	}
	if server.WriteTimeout != config.WriteTimeout {
		t.Errorf("createHTTPServer() WriteTimeout = %v, expected %v", server.WriteTimeout, config.WriteTimeout)
	}
}

func TestSetupRoutes(t *testing.T) {
	server := httptest.NewServer(setupRoutes())
	defer server.Close()

	ctx := context.Background()
	client := &http.Client{}

	tests := []struct {
		path     string
		wantBody string
	}{
		{"/healthz", `{"status":"ok","service":"tuneclip"}`},
		{"/readyz", `{"status":"ready","service":"tuneclip"}`},
		{"/metrics", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+tt.path, http.NoBody)
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("Failed to call %s: %v", tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("%s returned status %d", tt.path, resp.StatusCode)
			}

			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.wantBody {
					t.Errorf("%s body = %q, expected %q", tt.path, body, tt.wantBody)
				}
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	t.Skip("Skipping NewServer test due to global prometheus registry conflicts")
}
