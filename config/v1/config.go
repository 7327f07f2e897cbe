// Package v1 contains the version 1 configuration file of the artifact
// resolver.
//
// The file is YAML:
//
//	maven:
//	  localRepository: ~/.m2/repository
//	  remoteRepositories:
//	    central:
//	      url: https://repo.maven.apache.org/maven2
//	download:
//	  cacheDirectory: ~/.cache/artifact/downloads
//	docker:
//	  plainHTTP: false
//	registry:
//	  backend: sqlite
//	  path: ~/.local/share/artifact/registry.db
//	  sources:
//	    - https://example.com/apps.properties
//	http:
//	  timeout: 5m
package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"ocm.software/open-component-model/artifact/httpclient"
	"ocm.software/open-component-model/artifact/maven"
)

// Registry backends.
const (
	BackendMemory  = "memory"
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"
)

// Config is the configuration file.
type Config struct {
	// Maven configures the resolver for "maven:" locations.
	Maven *maven.Properties `json:"maven,omitempty"`
	// Download configures the loader for "http:" and "https:" locations.
	Download *Download `json:"download,omitempty"`
	// Docker configures the loader for image references.
	Docker *Docker `json:"docker,omitempty"`
	// Registry selects the URI registry backend and its sources.
	Registry *Registry `json:"registry,omitempty"`
	// HTTP configures the HTTP client shared by all loaders.
	HTTP *httpclient.Config `json:"http,omitempty"`
}

type Download struct {
	CacheDirectory string `json:"cacheDirectory,omitempty"`
}

type Docker struct {
	// PlainHTTP contacts registries without TLS.
	PlainHTTP bool `json:"plainHTTP,omitempty"`
	// CredentialsFile is a docker config.json to read registry credentials
	// from instead of the default docker configuration.
	CredentialsFile string `json:"credentialsFile,omitempty"`
}

type Registry struct {
	// Backend is one of memory, sqlite or leveldb. Defaults to memory.
	Backend string `json:"backend,omitempty"`
	// Path is the database file (sqlite) or directory (leveldb).
	Path string `json:"path,omitempty"`
	// Sources are properties locations loaded into the registry on startup.
	Sources []string `json:"sources,omitempty"`
	// Overwrite replaces existing entries when loading Sources.
	Overwrite bool `json:"overwrite,omitempty"`
}

// BackendOrDefault returns the configured backend or BackendMemory.
func (r *Registry) BackendOrDefault() string {
	if r == nil || r.Backend == "" {
		return BackendMemory
	}
	return r.Backend
}

// DefaultPath returns the location of the configuration file used when none
// is given explicitly.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine configuration directory: %w", err)
	}
	return filepath.Join(dir, "artifact", "config.yaml"), nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault reads the configuration at DefaultPath. A missing file yields an
// empty configuration.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Parse decodes and validates a YAML or JSON configuration. Unknown fields
// are rejected and leading "~/" in paths is expanded.
func Parse(data []byte) (*Config, error) {
	raw, err := yamlToJSON(data)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML, preserving the order of remote
// repositories.
func (c *Config) Marshal() ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return jsonToYAML(raw)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Maven != nil {
		if err := c.Maven.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("maven: %w", err))
		}
	}
	if c.Registry != nil {
		backend := c.Registry.BackendOrDefault()
		switch {
		case !slices.Contains([]string{BackendMemory, BackendSQLite, BackendLevelDB}, backend):
			errs = append(errs, fmt.Errorf("registry: unknown backend %q", backend))
		case backend != BackendMemory && c.Registry.Path == "":
			errs = append(errs, fmt.Errorf("registry: backend %q requires a path", backend))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) expandPaths() error {
	var paths []*string
	if c.Maven != nil {
		paths = append(paths, &c.Maven.LocalRepository)
	}
	if c.Download != nil {
		paths = append(paths, &c.Download.CacheDirectory)
	}
	if c.Docker != nil {
		paths = append(paths, &c.Docker.CredentialsFile)
	}
	if c.Registry != nil {
		paths = append(paths, &c.Registry.Path)
	}
	for _, p := range paths {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandHome replaces a leading "~" path element with the home directory of
// the current user.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}
