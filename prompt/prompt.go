package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Prompt names shipped with the binary.
const (
	Analyze    = "analyze"
	Strategize = "strategize"
	Draft      = "draft"
	Review     = "review"
	Interview  = "interview"
)

//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// Loader loads and renders prompt templates. Files in the search directories
// override the embedded defaults. Safe for concurrent use.
type Loader struct {
	dirs    []string
	funcMap template.FuncMap

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewLoader creates a loader that searches, in order:
//  1. <projectDir>/.resumeflow/prompts
//  2. <projectDir>/prompts
//  3. the embedded defaults
func NewLoader(projectDir string) *Loader {
	var dirs []string
	if projectDir != "" {
		dirs = []string{
			filepath.Join(projectDir, ".resumeflow", "prompts"),
			filepath.Join(projectDir, "prompts"),
		}
	}
	return &Loader{
		dirs:    dirs,
		cache:   make(map[string]*template.Template),
		funcMap: defaultFuncMap(),
	}
}

// AddSearchDir adds a directory searched before all others.
func (l *Loader) AddSearchDir(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirs = append([]string{dir}, l.dirs...)
	l.cache = make(map[string]*template.Template)
}

// Render loads the named prompt and executes it with vars.
func (l *Loader) Render(name string, vars any) (string, error) {
	tmpl, err := l.template(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// MustRender is Render for prompts that ship with the binary.
func (l *Loader) MustRender(name string, vars any) string {
	out, err := l.Render(name, vars)
	if err != nil {
		panic(err)
	}
	return out
}

// List returns the names of every available prompt, sorted.
func (l *Loader) List() []string {
	seen := map[string]bool{}
	add := func(entries []os.DirEntry) {
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
				seen[strings.TrimSuffix(e.Name(), ".txt")] = true
			}
		}
	}

	l.mu.Lock()
	dirs := append([]string(nil), l.dirs...)
	l.mu.Unlock()
	for _, dir := range dirs {
		if entries, err := os.ReadDir(dir); err == nil {
			add(entries)
		}
	}
	if entries, err := embeddedPrompts.ReadDir("prompts"); err == nil {
		add(entries)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Loader) template(name string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}

	content, err := l.loadRaw(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(l.funcMap).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	l.cache[name] = tmpl
	return tmpl, nil
}

func (l *Loader) loadRaw(name string) (string, error) {
	filename := name + ".txt"
	for _, dir := range l.dirs {
		if data, err := os.ReadFile(filepath.Join(dir, filename)); err == nil {
			return string(data), nil
		}
	}

	data, err := embeddedPrompts.ReadFile("prompts/" + filename)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return string(data), nil
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":   strings.Join,
		"trim":   strings.TrimSpace,
		"upper":  strings.ToUpper,
		"title":  cases.Title(language.English).String,
		"indent": indent,
	}
}

func indent(n int, s string) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
