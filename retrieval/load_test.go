package retrieval

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const postingHTML = `<html>
<head><title>Ignored</title><style>p{}</style></head>
<body>
<nav>Home | Jobs</nav>
<h1>Backend Engineer</h1>
<p>Design and operate Go services.</p>
<script>track()</script>
<ul><li>Kubernetes</li><li>PostgreSQL</li></ul>
<footer>Copyright</footer>
</body>
</html>`

func TestHTMLText(t *testing.T) {
	got, err := HTMLText(strings.NewReader(postingHTML))
	if err != nil {
		t.Fatalf("HTMLText() error = %v", err)
	}

	for _, want := range []string{"Backend Engineer", "Design and operate Go services.", "Kubernetes", "PostgreSQL"} {
		if !strings.Contains(got, want) {
			t.Errorf("HTMLText() missing %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"Ignored", "track()", "Home | Jobs", "Copyright", "p{}"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("HTMLText() contains %q:\n%s", unwanted, got)
		}
	}
}

func writeDOCX(t *testing.T, path string, paragraphs ...string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDOCXText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.docx")
	writeDOCX(t, path, "1. Why this role?", "2. Describe a hard problem.")

	got, err := DOCXText(path)
	if err != nil {
		t.Fatalf("DOCXText() error = %v", err)
	}
	want := "1. Why this role?\n\n2. Describe a hard problem."
	if got != want {
		t.Errorf("DOCXText() = %q, want %q", got, want)
	}
}

func TestDOCXText_NoDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	if _, err := zw.Create("other.xml"); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	if _, err := DOCXText(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("DOCXText() error = %v, want ErrUnsupportedFormat", err)
	}
}

type fakeDocs map[string]string

func (f fakeDocs) ReadText(_ context.Context, id string) (string, error) {
	text, ok := f[id]
	if !ok {
		return "", errors.New("not found")
	}
	return text, nil
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"posting.html": postingHTML,
		"notes.txt":    "  plain text notes  ",
		"notes.md":     "# Questions\n\nWhy us?",
		"blank.txt":    "   \n",
		"sheet.xlsx":   "binary",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeDOCX(t, filepath.Join(dir, "q.docx"), "What do you bring?")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/job":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(postingHTML))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("<p>kept literally</p>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(fakeDocs{"abc": "Question one"})

	tests := []struct {
		name    string
		source  string
		want    string
		wantErr error
	}{
		{"html file", filepath.Join(dir, "posting.html"), "Backend Engineer", nil},
		{"text file trimmed", filepath.Join(dir, "notes.txt"), "plain text notes", nil},
		{"markdown", filepath.Join(dir, "notes.md"), "Why us?", nil},
		{"docx", filepath.Join(dir, "q.docx"), "What do you bring?", nil},
		{"google doc", "gdoc:abc", "Question one", nil},
		{"html over http", server.URL + "/job", "Design and operate Go services.", nil},
		{"plain over http", server.URL + "/plain", "<p>kept literally</p>", nil},
		{"unsupported extension", filepath.Join(dir, "sheet.xlsx"), "", ErrUnsupportedFormat},
		{"empty document", filepath.Join(dir, "blank.txt"), "", ErrEmptyDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := loader.Load(context.Background(), tt.source)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if doc.Source != tt.source {
				t.Errorf("Source = %q, want %q", doc.Source, tt.source)
			}
			if !strings.Contains(doc.Text, tt.want) {
				t.Errorf("Text = %q, want it to contain %q", doc.Text, tt.want)
			}
		})
	}
}

func TestLoader_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	if _, err := NewLoader(nil).Load(context.Background(), server.URL); err == nil {
		t.Error("Load() should fail on a non-2xx response")
	}
}

func TestLoader_GoogleDocWithoutReader(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), "gdoc:abc")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load() error = %v, want ErrUnsupportedFormat", err)
	}
}
