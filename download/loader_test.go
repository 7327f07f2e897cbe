package download

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/artifact/metrics"
	"ocm.software/open-component-model/artifact/resource"
)

func newServer(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jar" {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet {
			hits.Add(1)
		}
		_, _ = io.WriteString(w, content)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	l, err := NewLoader(append([]Option{WithCacheDirectory(t.TempDir())}, opts...)...)
	require.NoError(t, err)
	return l
}

func TestCacheName(t *testing.T) {
	assert.Equal(t,
		"81a23583726958052fdf75c399b81a3c4fcab6d1-filesinkrabbit321jar",
		CacheName("https://repo1.maven.org/maven2/org/springframework/cloud/stream/app/file-sink-rabbit/3.2.1/file-sink-rabbit-3.2.1.jar"))

	assert.Regexp(t, `^[0-9a-f]{40}-appjar$`, CacheName("https://example.com/a/app.jar?x=1"))
	assert.NotEqual(t, CacheName("https://a.example.com/app.jar"), CacheName("https://b.example.com/app.jar"))
}

func TestFileIsDownloadedOnce(t *testing.T) {
	srv, hits := newServer(t, "payload")
	loader := newTestLoader(t)

	res, err := loader.Load(srv.URL + "/libs/file-sink-rabbit-3.2.1.jar")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/libs/file-sink-rabbit-3.2.1.jar", res.URI())
	assert.Equal(t, "file-sink-rabbit-3.2.1.jar", res.Filename())
	assert.Zero(t, hits.Load(), "loading does not download")

	file1, err := res.File(t.Context())
	require.NoError(t, err)
	file2, err := res.File(t.Context())
	require.NoError(t, err)
	assert.Equal(t, file1, file2)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, filepath.Join(loader.CacheDirectory(), CacheName(srv.URL+"/libs/file-sink-rabbit-3.2.1.jar")), file1)
	assert.Regexp(t, `-filesinkrabbit321jar$`, filepath.Base(file1))

	// a second resource for the same URL reuses the cache entry
	other, err := loader.Load(srv.URL + "/libs/file-sink-rabbit-3.2.1.jar")
	require.NoError(t, err)
	file3, err := other.File(t.Context())
	require.NoError(t, err)
	assert.Equal(t, file1, file3)
	assert.Equal(t, int32(1), hits.Load())

	rc, err := other.Open(t.Context())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))
}

func TestInvalidate(t *testing.T) {
	srv, hits := newServer(t, "payload")
	loader := newTestLoader(t)
	res, err := loader.Load(srv.URL + "/app.jar")
	require.NoError(t, err)

	file, err := res.File(t.Context())
	require.NoError(t, err)
	require.NoError(t, res.(*Resource).Invalidate())
	_, err = os.Stat(file)
	require.ErrorIs(t, err, os.ErrNotExist)

	again, err := res.File(t.Context())
	require.NoError(t, err)
	assert.Equal(t, file, again)
	assert.Equal(t, int32(2), hits.Load())
}

func TestConcurrentDownloadsShareCacheEntry(t *testing.T) {
	srv, _ := newServer(t, "payload")
	loader := newTestLoader(t)

	var wg sync.WaitGroup
	files := make([]string, 8)
	errs := make([]error, 8)
	for i := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := loader.Load(srv.URL + "/app.jar")
			if err != nil {
				errs[i] = err
				return
			}
			files[i], errs[i] = res.File(t.Context())
		}()
	}
	wg.Wait()
	for i := range files {
		require.NoError(t, errs[i])
		assert.Equal(t, files[0], files[i])
	}
	entries, err := os.ReadDir(loader.CacheDirectory())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMissingContent(t *testing.T) {
	srv, _ := newServer(t, "payload")
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	loader := newTestLoader(t, WithMetrics(m))

	res, err := loader.Load(srv.URL + "/missing.jar")
	require.NoError(t, err)
	exists, err := res.Exists(t.Context())
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = res.File(t.Context())
	require.ErrorIs(t, err, ErrNotFound)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	entries, err := os.ReadDir(loader.CacheDirectory())
	if err == nil {
		assert.Empty(t, entries, "failed downloads leave nothing behind")
	}

	count, err := testutil.GatherAndCount(reg, "artifact_downloads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	present, err := loader.Load(srv.URL + "/present.jar")
	require.NoError(t, err)
	exists, err = present.Exists(t.Context())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExistsFallsBackToRangedGet(t *testing.T) {
	var ranges []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ranges = append(ranges, r.Header.Get("Range"))
		if r.URL.Path == "/missing.jar" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = io.WriteString(w, "p")
	}))
	t.Cleanup(srv.Close)
	loader := newTestLoader(t)

	res, err := loader.Load(srv.URL + "/present.jar")
	require.NoError(t, err)
	exists, err := res.Exists(t.Context())
	require.NoError(t, err)
	assert.True(t, exists)

	res, err = loader.Load(srv.URL + "/missing.jar")
	require.NoError(t, err)
	exists, err = res.Exists(t.Context())
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, []string{"bytes=0-0", "bytes=0-0"}, ranges)
}

func TestLoaderSupports(t *testing.T) {
	loader := newTestLoader(t)
	assert.True(t, loader.Supports("http://example.com/a.jar"))
	assert.True(t, loader.Supports("HTTPS://example.com/a.jar"))
	assert.False(t, loader.Supports("file:///a.jar"))
	assert.False(t, loader.Supports("maven:g:a:1"))

	_, err := loader.Load("file:///a.jar")
	require.ErrorIs(t, err, resource.ErrUnsupportedScheme)
	_, err = loader.Load("http:///a.jar")
	require.ErrorIs(t, err, resource.ErrInvalidURI)
}
