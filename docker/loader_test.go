package docker

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	remotecredentials "oras.land/oras-go/v2/registry/remote/credentials"

	"ocm.software/open-component-model/artifact/resource"
)

func TestLoaderCanonicalURI(t *testing.T) {
	loader := NewLoader()
	for _, location := range []string{
		"docker:springcloud/spring-cloud-deployer-spi-test-app:latest",
		"docker://springcloud/spring-cloud-deployer-spi-test-app:latest",
		"springcloud/spring-cloud-deployer-spi-test-app:latest",
	} {
		require.True(t, loader.Supports(location), location)
		res, err := loader.Load(location)
		require.NoError(t, err, location)
		assert.Equal(t, "docker:springcloud/spring-cloud-deployer-spi-test-app:latest", res.URI())
	}
}

func TestDelegatingWithDockerFallback(t *testing.T) {
	docker := NewLoader()
	loader := resource.NewDelegating(map[string]resource.Loader{Scheme: docker}, resource.WithFallback(docker))

	for _, location := range []string{"docker:foo/bar:v1", "docker://foo/bar:v1", "foo/bar:v1"} {
		res, err := loader.Load(location)
		require.NoError(t, err, location)
		assert.Equal(t, "docker:foo/bar:v1", res.URI(), location)
	}
}

func TestLoaderRejectsInvalidLocations(t *testing.T) {
	loader := NewLoader()

	_, err := loader.Load("docker:Not/Valid")
	require.Error(t, err)

	assert.False(t, loader.Supports("https://example.com/app.jar"))
	_, err = loader.Load("https://example.com/app.jar")
	require.ErrorIs(t, err, resource.ErrUnsupportedScheme)
}

func TestResourceIsNotMaterializable(t *testing.T) {
	res, err := NewLoader().Load("docker:foo/bar:v1")
	require.NoError(t, err)

	_, err = res.File(t.Context())
	require.ErrorIs(t, err, resource.ErrNotMaterializable)
	_, err = res.Open(t.Context())
	require.ErrorIs(t, err, resource.ErrNotMaterializable)
	assert.Empty(t, res.Filename())
	assert.Equal(t, "foo/bar", res.(*Resource).Reference().Repository)
}

// newRegistry serves a single manifest for repository foo/bar with tag v1.
func newRegistry(t *testing.T) (*httptest.Server, digest.Digest) {
	t.Helper()
	manifest := []byte(`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.manifest.v1+json","config":{"mediaType":"application/vnd.oci.empty.v1+json","digest":"sha256:44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a","size":2},"layers":[]}`)
	dgst := digest.FromBytes(manifest)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/foo/bar/manifests/v1", "/v2/foo/bar/manifests/" + dgst.String():
			w.Header().Set("Content-Type", ocispec.MediaTypeImageManifest)
			w.Header().Set("Docker-Content-Digest", dgst.String())
			w.Header().Set("Content-Length", strconv.Itoa(len(manifest)))
			if r.Method == http.MethodGet {
				_, _ = w.Write(manifest)
			}
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"code":"MANIFEST_UNKNOWN","message":"manifest unknown"}]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, dgst
}

func TestResourceExists(t *testing.T) {
	srv, dgst := newRegistry(t)
	host := strings.TrimPrefix(srv.URL, "http://")
	loader := NewLoader(WithPlainHTTP(true), WithCredentialStore(remotecredentials.NewMemoryStore()))

	res, err := loader.Load("docker:" + host + "/foo/bar:v1")
	require.NoError(t, err)
	exists, err := res.Exists(t.Context())
	require.NoError(t, err)
	assert.True(t, exists)

	desc, err := res.(*Resource).Descriptor(t.Context())
	require.NoError(t, err)
	assert.Equal(t, dgst, desc.Digest)
	assert.Equal(t, ocispec.MediaTypeImageManifest, desc.MediaType)

	res, err = loader.Load("docker:" + host + "/foo/bar:v2")
	require.NoError(t, err)
	exists, err = res.Exists(t.Context())
	require.NoError(t, err)
	assert.False(t, exists)
}
