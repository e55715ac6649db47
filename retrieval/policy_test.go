package retrieval

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestSourcePolicy_Check(t *testing.T) {
	p := SourcePolicy{AllowedHosts: []string{"jobs.example.com", ".greenhouse.io", " "}}

	tests := []struct {
		source  string
		allowed bool
	}{
		{"text:Backend Engineer", true},
		{"gdoc:abc123", true},
		{"https://jobs.example.com/posting/1", true},
		{"http://JOBS.example.com/posting/1", true},
		{"https://boards.greenhouse.io/acme/1", true},
		{"https://greenhouse.io/acme", true},
		{"https://evilgreenhouse.io/acme", false},
		{"https://jobs.example.com.attacker.net/", false},
		{"http://169.254.169.254/latest/meta-data/", false},
		{"/etc/passwd.txt", false},
		{"posting.html", false},
		{"file:///etc/hosts", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			err := p.Check(tt.source)
			if tt.allowed && err != nil {
				t.Errorf("Check() = %v, want allowed", err)
			}
			if !tt.allowed && !errors.Is(err, ErrSourceNotAllowed) {
				t.Errorf("Check() = %v, want ErrSourceNotAllowed", err)
			}
		})
	}
}

func TestSourcePolicy_ZeroValueRejectsURLs(t *testing.T) {
	if err := (SourcePolicy{}).Check("https://jobs.example.com/1"); !errors.Is(err, ErrSourceNotAllowed) {
		t.Errorf("Check() = %v, want ErrSourceNotAllowed", err)
	}
}

func TestLoader_TextSource(t *testing.T) {
	doc, err := NewLoader(nil).Load(context.Background(), "text:  1. Why this role?\n")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Text != "1. Why this role?" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestLoader_PolicyRejectsLocalFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(path, []byte("do not read"), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx := WithSourcePolicy(context.Background(), SourcePolicy{})

	_, err := NewLoader(nil).Load(ctx, path)
	if !errors.Is(err, ErrSourceNotAllowed) {
		t.Fatalf("Load() = %v, want ErrSourceNotAllowed", err)
	}
	if strings.Contains(err.Error(), "do not read") {
		t.Error("error leaks file contents")
	}

	// Without a policy the same path is read.
	if _, err := NewLoader(nil).Load(context.Background(), path); err != nil {
		t.Errorf("Load() without policy error = %v", err)
	}
}

func TestLoader_PolicyChecksRedirects(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		internalHits.Add(1)
		_, _ = w.Write([]byte("internal"))
	}))
	defer internal.Close()
	internalURL := strings.Replace(internal.URL, "127.0.0.1", "localhost", 1)

	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			http.Redirect(w, r, internalURL, http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer public.Close()

	ctx := WithSourcePolicy(context.Background(), SourcePolicy{AllowedHosts: []string{"127.0.0.1"}})
	l := NewLoader(nil)

	doc, err := l.Load(ctx, public.URL+"/posting")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !strings.Contains(doc.Text, "Backend Engineer") {
		t.Errorf("Text = %q", doc.Text)
	}

	if _, err := l.Load(ctx, public.URL+"/moved"); !errors.Is(err, ErrSourceNotAllowed) {
		t.Errorf("Load(redirect) = %v, want ErrSourceNotAllowed", err)
	}
	if internalHits.Load() != 0 {
		t.Error("redirect target was contacted")
	}
}
