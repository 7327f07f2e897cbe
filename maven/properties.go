package maven

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ocm.software/open-component-model/artifact/httpclient"
)

// CentralID and CentralURL identify Maven Central.
const (
	CentralID  = "maven-central"
	CentralURL = "https://repo.maven.apache.org/maven2"
)

// DefaultRemoteRepositories returns the well known repositories added to the
// configured ones when Properties.IncludeDefaultRemoteRepos is not disabled.
func DefaultRemoteRepositories() RemoteRepositories {
	return RemoteRepositories{{ID: CentralID, URL: CentralURL}}
}

// DefaultLocalRepository returns ~/.m2/repository, or a directory below the
// system temp dir if the home directory is unknown.
func DefaultLocalRepository() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "m2", "repository")
	}
	return filepath.Join(home, ".m2", "repository")
}

// Properties configures a Resolver.
type Properties struct {
	// LocalRepository is the root of the local cache. Defaults to DefaultLocalRepository.
	LocalRepository string `json:"localRepository,omitempty"`
	// RemoteRepositories are consulted in order.
	RemoteRepositories RemoteRepositories `json:"remoteRepositories,omitempty"`
	// Offline disables all network access.
	Offline bool `json:"offline,omitempty"`
	// IncludeDefaultRemoteRepos appends the default remote repositories that are
	// not configured explicitly. Defaults to true.
	IncludeDefaultRemoteRepos *bool `json:"includeDefaultRemoteRepos,omitempty"`
	// ChecksumPolicy is the resolver level default checksum policy.
	ChecksumPolicy ChecksumPolicy `json:"checksumPolicy,omitempty"`
	// UpdatePolicy is the resolver level default update policy.
	UpdatePolicy UpdatePolicy `json:"updatePolicy,omitempty"`
	// Proxy is used for all remote repositories.
	Proxy *httpclient.Proxy `json:"proxy,omitempty"`
}

// IncludesDefaultRemoteRepos reports whether default repositories are added.
func (p *Properties) IncludesDefaultRemoteRepos() bool {
	return p.IncludeDefaultRemoteRepos == nil || *p.IncludeDefaultRemoteRepos
}

// Validate checks policies and repository definitions.
func (p *Properties) Validate() error {
	var errs []error
	if err := p.ChecksumPolicy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.UpdatePolicy.Validate(); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]struct{}, len(p.RemoteRepositories))
	for _, repo := range p.RemoteRepositories {
		if err := repo.Validate(); err != nil {
			errs = append(errs, err)
		}
		if _, dup := seen[repo.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate remote repository id %q", repo.ID))
		}
		seen[repo.ID] = struct{}{}
	}
	return errors.Join(errs...)
}

// Auth holds basic authentication credentials for a remote repository.
type Auth struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// RemoteRepository is a remote Maven repository.
type RemoteRepository struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
	// SnapshotPolicy applies to snapshot versions and takes precedence over Policy.
	SnapshotPolicy *RepositoryPolicy `json:"snapshotPolicy,omitempty"`
	// ReleasePolicy applies to release versions and takes precedence over Policy.
	ReleasePolicy *RepositoryPolicy `json:"releasePolicy,omitempty"`
	// Policy applies to both stability classes.
	Policy *RepositoryPolicy `json:"policy,omitempty"`
	Auth   *Auth             `json:"auth,omitempty"`
}

// Validate checks the repository definition.
func (r RemoteRepository) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("remote repository with url %q has no id", r.URL)
	}
	if r.URL == "" {
		return fmt.Errorf("remote repository %q has no url", r.ID)
	}
	for _, p := range []*RepositoryPolicy{r.SnapshotPolicy, r.ReleasePolicy, r.Policy} {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("remote repository %q: %w", r.ID, err)
		}
	}
	return nil
}

// RemoteRepositories is an ordered list of repositories. In JSON and YAML it is
// written as a map from id to repository; the order of the keys is preserved.
// A list of repositories carrying their id is accepted as well.
type RemoteRepositories []RemoteRepository

// Get returns the repository with the given id.
func (r RemoteRepositories) Get(id string) (RemoteRepository, bool) {
	for _, repo := range r {
		if repo.ID == id {
			return repo, true
		}
	}
	return RemoteRepository{}, false
}

func (r RemoteRepositories) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, repo := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(repo.ID)
		if err != nil {
			return nil, err
		}
		repo.ID = ""
		value, err := json.Marshal(repo)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *RemoteRepositories) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var list []RemoteRepository
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('{') {
		return fmt.Errorf("remote repositories must be a map or a list, got %v", tok)
	}

	repos := RemoteRepositories{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected remote repository key %v", tok)
		}
		var repo RemoteRepository
		if err := dec.Decode(&repo); err != nil {
			return fmt.Errorf("failed to decode remote repository %q: %w", id, err)
		}
		if repo.ID != "" && repo.ID != id {
			return fmt.Errorf("remote repository %q declares conflicting id %q", id, repo.ID)
		}
		repo.ID = id
		repos = append(repos, repo)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = repos
	return nil
}
