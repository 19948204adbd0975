package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(config.WebSearchConfig{
		BaseURL:   server.URL,
		UserAgent: "test-agent/1.0",
		Timeout:   5,
	}, zerolog.Nop())
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != `"PILF-1618" site:lddb.com` {
			t.Errorf("q = %q", q)
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte(`<html><a href="/url?q=https://www.lddb.com/laserdisc/37062/">Bloodsport</a></html>`))
	}))
	defer server.Close()

	client := newTestClient(server)
	body, err := client.Search(context.Background(), `"PILF-1618" site:lddb.com`)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !strings.Contains(string(body), "lddb.com/laserdisc") {
		t.Errorf("body missing result link: %s", body)
	}
}

func TestClient_Search_Blocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Search(context.Background(), "anything")
	if err != ErrBlocked {
		t.Errorf("Search() error = %v, want %v", err, ErrBlocked)
	}
}
