package maven

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/artifact/resource"
)

func TestLoaderNormalizesLocations(t *testing.T) {
	loader := NewLoader(newTestResolver(t, Properties{Offline: true}))

	for _, location := range []string{
		"maven:group1:foo:jar:classifier1:1.0.1",
		"maven://group1:foo:jar:classifier1:1.0.1",
		"MAVEN:group1:foo:jar:classifier1:1.0.1",
	} {
		require.True(t, loader.Supports(location), location)
		res, err := loader.Load(location)
		require.NoError(t, err, location)
		assert.Equal(t, "maven:group1:foo:jar:classifier1:1.0.1", res.URI())
		assert.Equal(t, "foo-1.0.1-classifier1.jar", res.Filename())
	}

	res, err := loader.Load("maven:org.a:b:1.0")
	require.NoError(t, err)
	assert.Equal(t, "maven:org.a:b:jar:1.0", res.URI())
	assert.Equal(t, MustParseCoordinate("org.a:b:1.0"), res.(*Resource).Coordinate())
}

func TestLoaderErrors(t *testing.T) {
	loader := NewLoader(newTestResolver(t, Properties{Offline: true}))

	assert.False(t, loader.Supports("docker:foo/bar:v1"))
	_, err := loader.Load("docker:foo/bar:v1")
	require.ErrorIs(t, err, resource.ErrUnsupportedScheme)

	_, err = loader.Load("maven:org.a")
	require.ErrorIs(t, err, ErrMalformedCoordinate)
}

func TestLoadDoesNotResolve(t *testing.T) {
	srv := failingServer(t)
	loader := NewLoader(newTestResolver(t, Properties{
		RemoteRepositories: RemoteRepositories{{ID: "repo", URL: srv.URL}},
	}))
	_, err := loader.Load("maven:org.a:b:1.0")
	require.NoError(t, err)
}

func TestResourceFileIsMemoized(t *testing.T) {
	repo := newTestRepository(t)
	repo.deploy(jarPath, "content")
	r := newTestResolver(t, Properties{
		RemoteRepositories: RemoteRepositories{{ID: "repo", URL: repo.URL}},
	})
	res, err := NewLoader(r).Load("maven:org.a:b:1.0")
	require.NoError(t, err)

	exists, err := res.Exists(t.Context())
	require.NoError(t, err)
	assert.True(t, exists)

	first, err := res.File(t.Context())
	require.NoError(t, err)
	second, err := res.File(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.hits(jarPath))

	rc, err := res.Open(t.Context())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "content", string(data))

	require.NoError(t, res.(*Resource).Invalidate())
	assert.False(t, r.Cached(MustParseCoordinate("org.a:b:1.0")))
	_, err = res.File(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.hits(jarPath))
}

func TestResourceExists(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestResolver(t, Properties{
		RemoteRepositories: RemoteRepositories{{ID: "repo", URL: repo.URL}},
	})
	exists, err := NewResource(MustParseCoordinate("org.a:missing:1.0"), r).Exists(t.Context())
	require.NoError(t, err)
	assert.False(t, exists)

	offline := newTestResolver(t, Properties{Offline: true})
	exists, err = NewResource(MustParseCoordinate("org.a:b:1.0"), offline).Exists(t.Context())
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = NewResource(MustParseCoordinate("org.a:b:1.0"), offline).File(t.Context())
	require.ErrorIs(t, err, ErrOffline)
}

func TestResourceVersions(t *testing.T) {
	repo := newTestRepository(t)
	repo.put("org/a/b/maven-metadata.xml", metadataXML("1.0", "2.0"))
	r := newTestResolver(t, Properties{
		RemoteRepositories: RemoteRepositories{{ID: "repo", URL: repo.URL}},
	})
	res, err := NewLoader(r).Load("maven://org.a:b:[1.0,)")
	require.NoError(t, err)
	versions, err := res.(*Resource).Versions(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "2.0"}, versions)
}

func TestDelegatingToMavenLoader(t *testing.T) {
	loader := resource.NewDelegating(map[string]resource.Loader{
		Scheme: NewLoader(newTestResolver(t, Properties{Offline: true})),
	})
	res, err := loader.Load("maven://org.a:b:jar:exec:1.0")
	require.NoError(t, err)
	assert.Equal(t, "maven:org.a:b:jar:exec:1.0", res.URI())
}
