package lddb

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
	return NewClient(config.LDDBConfig{
		BaseURL:   server.URL,
		UserAgent: "test-agent/1.0",
		Timeout:   5,
	}, zerolog.Nop())
}

func TestClient_SearchByCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.php" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if catno := r.URL.Query().Get("catno"); catno != "PILF-1618" {
			t.Errorf("catno = %q, want PILF-1618", catno)
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte("<html><title>Bloodsport [PILF-1618]</title></html>"))
	}))
	defer server.Close()

	client := newTestClient(server)
	body, finalURL, err := client.SearchByCatalog(context.Background(), "PILF-1618")
	if err != nil {
		t.Fatalf("SearchByCatalog() error = %v", err)
	}
	if !strings.Contains(string(body), "Bloodsport") {
		t.Errorf("body missing title: %s", body)
	}
	if !strings.Contains(finalURL, "/search.php") {
		t.Errorf("finalURL = %q", finalURL)
	}
}

func TestClient_SearchByCatalog_FollowsRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.php":
			http.Redirect(w, r, "/laserdisc/37062/PILF-1618/Bloodsport", http.StatusFound)
		case "/laserdisc/37062/PILF-1618/Bloodsport":
			w.Write([]byte("<html><title>Bloodsport [37062]</title></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	_, finalURL, err := client.SearchByCatalog(context.Background(), "PILF-1618")
	if err != nil {
		t.Fatalf("SearchByCatalog() error = %v", err)
	}
	if !strings.Contains(finalURL, "/laserdisc/37062/") {
		t.Errorf("finalURL = %q, want the redirect target", finalURL)
	}
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "Bloodsport" {
			t.Errorf("q = %q, want Bloodsport", q)
		}
		w.Write([]byte("<html>results</html>"))
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, _, err := client.Search(context.Background(), "Bloodsport"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func TestClient_FetchPage_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, _, err := client.FetchPage(context.Background(), server.URL+"/laserdisc/0/nope")
	if err != ErrNotFound {
		t.Errorf("FetchPage() error = %v, want %v", err, ErrNotFound)
	}
}

func TestClient_AbsoluteURL(t *testing.T) {
	client := NewClient(config.LDDBConfig{BaseURL: "https://www.lddb.com"}, zerolog.Nop())

	tests := []struct {
		ref  string
		want string
	}{
		{"/covers/1618.jpg", "https://www.lddb.com/covers/1618.jpg"},
		{"covers/1618.jpg", "https://www.lddb.com/covers/1618.jpg"},
		{"https://cdn.lddb.com/x.jpg", "https://cdn.lddb.com/x.jpg"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := client.AbsoluteURL(tt.ref); got != tt.want {
			t.Errorf("AbsoluteURL(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
