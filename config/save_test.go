package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func readSaved(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var saved map[string]any
	if err := yaml.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return saved
}

func TestResolver_SaveGlobal(t *testing.T) {
	r, global, _ := newTestResolver(t)

	if err := r.SaveGlobal("github_user", "octocat"); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}
	if err := r.SaveGlobal("max_retries", "3"); err != nil {
		t.Fatalf("SaveGlobal() error = %v", err)
	}
	if err := r.SaveGlobal("github_token", "ghp_x"); err != nil {
		t.Fatalf("SaveGlobal(secret) error = %v", err)
	}

	saved := readSaved(t, global)
	if saved["github_user"] != "octocat" || saved["max_retries"] != 3 || saved["github_token"] != "ghp_x" {
		t.Errorf("saved = %v", saved)
	}

	info, err := os.Stat(global)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("global config mode = %v, want 0600", info.Mode().Perm())
	}

	if got := r.Resolve(nil).Get("max_retries"); got != "3" {
		t.Errorf("resolved max_retries = %q after save", got)
	}
}

func TestResolver_SaveLocal(t *testing.T) {
	r, _, project := newTestResolver(t)

	if err := r.SaveLocal("posting", "https://jobs.example.com/1"); err != nil {
		t.Fatalf("SaveLocal() error = %v", err)
	}
	saved := readSaved(t, filepath.Join(project, LocalConfigName))
	if saved["posting"] != "https://jobs.example.com/1" {
		t.Errorf("saved = %v", saved)
	}

	err := r.SaveLocal("jwt_secret", "s3cret")
	if err == nil || !strings.Contains(err.Error(), "secret") {
		t.Errorf("SaveLocal(secret) error = %v, want refusal", err)
	}
}

func TestResolver_SaveUnknownKey(t *testing.T) {
	r, _, _ := newTestResolver(t)

	err := r.SaveGlobal("api_url", "x")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("SaveGlobal() error = %v", err)
	}
	if !strings.Contains(err.Error(), "max_retries") {
		t.Error("error should list valid keys")
	}
}

func TestResolver_SaveMalformedFile(t *testing.T) {
	r, global, _ := newTestResolver(t)
	writeFile(t, global, "key: [unclosed\n")

	if err := r.SaveGlobal("github_user", "x"); err == nil {
		t.Error("SaveGlobal() should not overwrite an unparsable file")
	}
}

func TestUnset(t *testing.T) {
	r, global, _ := newTestResolver(t)
	r.SaveGlobal("github_user", "octocat")
	r.SaveGlobal("gitlab_user", "tanuki")

	if err := Unset(global, "github_user"); err != nil {
		t.Fatalf("Unset() error = %v", err)
	}
	saved := readSaved(t, global)
	if _, ok := saved["github_user"]; ok {
		t.Error("github_user still present")
	}
	if saved["gitlab_user"] != "tanuki" {
		t.Errorf("saved = %v", saved)
	}

	if err := Unset(filepath.Join(t.TempDir(), "none.yaml"), "x"); err != nil {
		t.Errorf("Unset(missing file) error = %v", err)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"12", 12},
		{"24h", "24h"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
		}
	}
}
