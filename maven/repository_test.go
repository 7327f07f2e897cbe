package maven

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"
)

// testRepository is a remote Maven repository served from memory.
type testRepository struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	requests map[string]int
	auth     *Auth
}

func newTestRepository(t *testing.T) *testRepository {
	t.Helper()
	repo := &testRepository{files: map[string][]byte{}, requests: map[string]int{}}
	repo.Server = httptest.NewServer(http.HandlerFunc(repo.serve))
	t.Cleanup(repo.Close)
	return repo
}

func (r *testRepository) serve(w http.ResponseWriter, req *http.Request) {
	if r.auth != nil {
		user, pass, ok := req.BasicAuth()
		if !ok || user != r.auth.Username || pass != r.auth.Password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}
	p := strings.TrimPrefix(req.URL.Path, "/")

	r.mu.Lock()
	r.requests[p]++
	data, ok := r.files[p]
	r.mu.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	_, _ = w.Write(data)
}

// put stores content under path without checksums.
func (r *testRepository) put(path, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = []byte(content)
}

// deploy stores content with a sha1 checksum, like most repositories do.
func (r *testRepository) deploy(path, content string) {
	sum := sha1.Sum([]byte(content))
	r.put(path, content)
	r.put(path+".sha1", hex.EncodeToString(sum[:]))
}

// deploySHA256 stores content with a sha256 checksum.
func (r *testRepository) deploySHA256(path, content string) {
	r.put(path, content)
	r.put(path+".sha256", digest.FromString(content).Encoded()+"  "+filepath.Base(path))
}

func (r *testRepository) hits(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[path]
}

func (r *testRepository) totalHits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.requests {
		total += n
	}
	return total
}

// failingServer fails the test on any request.
func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T, props Properties, opts ...ResolverOption) *Resolver {
	t.Helper()
	if props.LocalRepository == "" {
		props.LocalRepository = t.TempDir()
	}
	opts = append([]ResolverOption{WithDefaultRemoteRepositories()}, opts...)
	r, err := NewResolver(props, opts...)
	require.NoError(t, err)
	return r
}

func writeLocal(t *testing.T, root, relPath, content string) string {
	t.Helper()
	file := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func metadataXML(versions ...string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<metadata>\n  <groupId>org.a</groupId>\n  <artifactId>b</artifactId>\n  <versioning>\n    <versions>\n")
	for _, v := range versions {
		b.WriteString("      <version>" + v + "</version>\n")
	}
	b.WriteString("    </versions>\n    <lastUpdated>20240101120000</lastUpdated>\n  </versioning>\n</metadata>\n")
	return b.String()
}
