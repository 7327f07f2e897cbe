package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/errdef"
)

func TestParseReference(t *testing.T) {
	const dgst = "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	tests := []struct {
		raw        string
		registry   string
		repository string
		tag        string
		reference  string
	}{
		{raw: "foo/bar:v1", repository: "foo/bar", tag: "v1", reference: "v1"},
		{raw: "springcloud/spring-cloud-deployer-spi-test-app:latest", repository: "springcloud/spring-cloud-deployer-spi-test-app", tag: "latest", reference: "latest"},
		{raw: "ubuntu", repository: "ubuntu"},
		{raw: "ubuntu:22.04", repository: "ubuntu", tag: "22.04", reference: "22.04"},
		{raw: "localhost/app:1", registry: "localhost", repository: "app", tag: "1", reference: "1"},
		{raw: "localhost:5000/team/app:1", registry: "localhost:5000", repository: "team/app", tag: "1", reference: "1"},
		{raw: "ghcr.io/org/app@" + dgst, registry: "ghcr.io", repository: "org/app", reference: dgst},
		{raw: "ghcr.io/org/app:v2@" + dgst, registry: "ghcr.io", repository: "org/app", tag: "v2", reference: dgst},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref, err := ParseReference(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.registry, ref.Registry)
			assert.Equal(t, tt.repository, ref.Repository)
			assert.Equal(t, tt.tag, ref.Tag)
			assert.Equal(t, tt.reference, ref.Reference.Reference)
			assert.Equal(t, tt.raw, ref.String())
		})
	}
}

func TestParseReferenceErrors(t *testing.T) {
	for _, raw := range []string{
		"",
		"Foo/Bar:v1",
		"foo/bar:v1:v2",
		"foo/bar:-bad",
		"foo/bar@sha256:short",
		"foo//bar",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseReference(raw)
			assert.ErrorIs(t, err, errdef.ErrInvalidReference)
		})
	}
}

func TestNormalized(t *testing.T) {
	ref, err := ParseReference("ubuntu")
	require.NoError(t, err)
	normalized := ref.Normalized()
	assert.Equal(t, "registry-1.docker.io", normalized.Registry)
	assert.Equal(t, "library/ubuntu", normalized.Repository)
	assert.Equal(t, "latest", normalized.Reference)

	ref, err = ParseReference("docker.io/foo/bar:v1")
	require.NoError(t, err)
	normalized = ref.Normalized()
	assert.Equal(t, "registry-1.docker.io", normalized.Registry)
	assert.Equal(t, "foo/bar", normalized.Repository)
	assert.Equal(t, "v1", normalized.Reference)

	ref, err = ParseReference("ghcr.io/org/app:v1")
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io", ref.Normalized().Registry)
}
