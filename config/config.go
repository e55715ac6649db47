package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File locations and environment prefix.
const (
	AppName          = "resumeflow"
	EnvPrefix        = "RESUMEFLOW_"
	LocalConfigName  = ".resumeflow.yaml"
	globalConfigFile = "config.yaml"
)

// Resolver merges the configuration layers.
type Resolver struct {
	globalPath  string
	localPath   string
	projectRoot string
	getenv      func(string) string
	errWriter   io.Writer

	// Warnings collects non-fatal issues found while resolving.
	Warnings []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGlobalPath overrides the global config file path.
func WithGlobalPath(path string) Option {
	return func(r *Resolver) { r.globalPath = path }
}

// WithProjectRoot sets the directory holding the local config file.
func WithProjectRoot(dir string) Option {
	return func(r *Resolver) {
		r.projectRoot = dir
		r.localPath = filepath.Join(dir, LocalConfigName)
	}
}

// WithEnv overrides environment lookup.
func WithEnv(getenv func(string) string) Option {
	return func(r *Resolver) { r.getenv = getenv }
}

// WithErrWriter sets where warnings are printed. Nil keeps them silent.
func WithErrWriter(w io.Writer) Option {
	return func(r *Resolver) { r.errWriter = w }
}

// NewResolver creates a resolver. The local config is looked up in the
// nearest directory above the working directory that holds one, or else in
// the git root.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		getenv:    os.Getenv,
		errWriter: os.Stderr,
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.globalPath = filepath.Join(home, ".config", AppName, globalConfigFile)
	}
	if root := findProjectRoot("."); root != "" {
		r.projectRoot = root
		r.localPath = filepath.Join(root, LocalConfigName)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	if r.errWriter != nil {
		fmt.Fprintf(r.errWriter, "Warning: %s\n", msg)
	}
}

// Resolved holds the merged configuration.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

// Get returns the value for a key, or "" if not set.
func (c *Resolved) Get(key string) string {
	return c.values[key]
}

// Source returns the layer a key's value came from.
func (c *Resolved) Source(key string) Source {
	return c.sources[key]
}

// GetWithSource returns both the value and its source.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// Display returns the value for printing, masking secrets.
func (c *Resolved) Display(key string) string {
	v := c.values[key]
	if k, ok := LookupKey(key); ok && k.Secret && v != "" {
		if len(v) <= 4 {
			return "****"
		}
		return v[:2] + strings.Repeat("*", 6) + v[len(v)-2:]
	}
	return v
}

// All returns a copy of all key-value pairs.
func (c *Resolved) All() map[string]string {
	result := make(map[string]string, len(c.values))
	for k, v := range c.values {
		result[k] = v
	}
	return result
}

// Keys returns all keys, sorted.
func (c *Resolved) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve merges defaults < global < local < env < flags. Empty flag
// values are ignored.
func (r *Resolver) Resolve(flags map[string]string) *Resolved {
	cfg := &Resolved{
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}

	for key, value := range Defaults() {
		cfg.set(key, value, SourceDefault)
	}
	r.applyFile(cfg, r.globalPath, SourceGlobal)
	r.applyFile(cfg, r.localPath, SourceLocal)
	r.applyEnv(cfg)

	for key, value := range flags {
		if value == "" {
			continue
		}
		if _, ok := LookupKey(key); !ok {
			r.warn(fmt.Sprintf("unknown flag key %q", key))
			continue
		}
		cfg.set(key, value, SourceFlag)
	}
	return cfg
}

func (c *Resolved) set(key, value string, src Source) {
	c.values[key] = value
	c.sources[key] = src
}

func (r *Resolver) applyFile(cfg *Resolved, path string, src Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return // missing file is not an error
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn(fmt.Sprintf("could not parse %s: %v", path, err))
		return
	}

	for key, value := range parsed {
		if _, ok := LookupKey(key); !ok {
			r.warn(fmt.Sprintf("unknown key %q in %s", key, path))
			continue
		}
		if strVal := toString(value); strVal != "" {
			cfg.set(key, strVal, src)
		}
	}
}

func (r *Resolver) applyEnv(cfg *Resolved) {
	for _, k := range keys {
		if value := r.getenv(EnvName(k.Name)); value != "" {
			cfg.set(k.Name, value, SourceEnv)
		}
	}
}

// EnvName returns the environment variable for a key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// ProjectRoot returns the directory holding the local config.
func (r *Resolver) ProjectRoot() string {
	return r.projectRoot
}

// GlobalPath returns the path to the global config file.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// LocalPath returns the path to the local config file.
func (r *Resolver) LocalPath() string {
	return r.localPath
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

// findProjectRoot walks up from startDir to the first directory holding a
// local config file or a .git directory.
func findProjectRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, LocalConfigName)); err == nil {
			return dir
		}
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
