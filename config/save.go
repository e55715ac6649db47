package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveGlobal writes a key to the global config file.
func (r *Resolver) SaveGlobal(key, value string) error {
	if r.globalPath == "" {
		return fmt.Errorf("global config path not available")
	}
	return saveKey(r.globalPath, key, value, 0o600)
}

// SaveLocal writes a key to the local config file, creating it in the
// working directory when no project root was found.
func (r *Resolver) SaveLocal(key, value string) error {
	path := r.localPath
	if path == "" {
		path = LocalConfigName
	}
	return saveKey(path, key, value, 0o644)
}

// Unset removes a key from the config file at path.
func Unset(path, key string) error {
	existing, err := readYAML(path)
	if err != nil || existing == nil {
		return err
	}
	if _, ok := existing[key]; !ok {
		return nil
	}
	delete(existing, key)
	return writeYAML(path, existing, 0o600)
}

func saveKey(path, key, value string, perm os.FileMode) error {
	k, ok := LookupKey(key)
	if !ok {
		names := make([]string, 0, len(keys))
		for _, k := range Keys() {
			names = append(names, k.Name)
		}
		return fmt.Errorf("unknown config key: %s\n\nValid keys: %s", key, strings.Join(names, ", "))
	}
	if k.Secret && perm != 0o600 {
		return fmt.Errorf("%s is a secret; store it in the global config or %s", key, EnvName(key))
	}

	existing, err := readYAML(path)
	if err != nil {
		return err
	}
	if existing == nil {
		existing = make(map[string]any)
	}
	existing[key] = parseValue(value)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return writeYAML(path, existing, perm)
}

// readYAML loads a config file. A missing file yields nil, nil.
func readYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var existing map[string]any
	if err := yaml.Unmarshal(data, &existing); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return existing, nil
}

func writeYAML(path string, m map[string]any, perm os.FileMode) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// parseValue stores booleans and integers as YAML scalars.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}
