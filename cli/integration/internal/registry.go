package internal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/registry"
	"golang.org/x/crypto/bcrypt"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const (
	RegistryImage = "registry:3.0.0"
	ArtifactType  = "application/vnd.example.artifact.test"
)

// Registry is an image registry running in a container.
type Registry struct {
	User     string
	Password string
	// Address is the host:port the registry is reachable at from the host.
	Address string
}

// GenerateRandomPassword returns a hex encoded password of length characters.
func GenerateRandomPassword(t *testing.T, length int) string {
	t.Helper()
	buf := make([]byte, (length+1)/2)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return hex.EncodeToString(buf)[:length]
}

// GenerateHtpasswd returns a single htpasswd line with a bcrypt hashed password.
func GenerateHtpasswd(t *testing.T, user, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", user, hash)
}

// StartRegistry runs a registry container that is terminated with the test.
// If user is not empty, the registry requires basic authentication.
func StartRegistry(t *testing.T, user string, opts ...testcontainers.ContainerCustomizer) *Registry {
	t.Helper()
	r := require.New(t)

	reg := &Registry{User: user}
	if user != "" {
		reg.Password = GenerateRandomPassword(t, 20)
		opts = append(opts, registry.WithHtpasswd(GenerateHtpasswd(t, user, reg.Password)))
	}

	container, err := registry.Run(t.Context(), RegistryImage, opts...)
	r.NoError(err, "failed to start registry container")
	t.Cleanup(func() {
		r.NoError(testcontainers.TerminateContainer(container))
	})

	reg.Address, err = container.HostAddress(t.Context())
	r.NoError(err)
	return reg
}

// Reference returns the reference of repository and tag in the registry.
func (r *Registry) Reference(repository, tag string) string {
	return fmt.Sprintf("%s/%s:%s", r.Address, repository, tag)
}

// PushArtifact packs an empty artifact manifest and tags it in repository.
func (r *Registry) PushArtifact(t *testing.T, repository, tag string) ocispec.Descriptor {
	t.Helper()
	ctx := t.Context()

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", r.Address, repository))
	require.NoError(t, err)
	repo.PlainHTTP = true
	client := &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
	}
	if r.User != "" {
		client.Credential = auth.StaticCredential(r.Address, auth.Credential{
			Username: r.User,
			Password: r.Password,
		})
	}
	repo.Client = client

	desc, err := oras.PackManifest(ctx, repo, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{})
	require.NoError(t, err)
	require.NoError(t, repo.Tag(ctx, desc, tag))
	return desc
}

// WriteDockerConfig writes a docker config.json holding the credentials of
// the given registries and returns its path.
func WriteDockerConfig(t *testing.T, registries ...*Registry) string {
	t.Helper()

	type entry struct {
		Auth string `json:"auth"`
	}
	auths := make(map[string]entry, len(registries))
	for _, reg := range registries {
		auths[reg.Address] = entry{
			Auth: base64.StdEncoding.EncodeToString([]byte(reg.User + ":" + reg.Password)),
		}
	}
	data, err := json.Marshal(map[string]any{"auths": auths})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// WriteConfig writes an artifact configuration file with the given content.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
