package internal

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateHtpasswd(t *testing.T) {
	r := require.New(t)

	password := GenerateRandomPassword(t, 20)
	r.Len(password, 20)

	user, hash, ok := strings.Cut(GenerateHtpasswd(t, "artifact", password), ":")
	r.True(ok)
	r.Equal("artifact", user)
	r.NoError(bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)))
}

func TestWriteDockerConfig(t *testing.T) {
	r := require.New(t)

	path := WriteDockerConfig(t,
		&Registry{User: "a", Password: "secret", Address: "localhost:5000"},
		&Registry{User: "b", Password: "other", Address: "127.0.0.1:5001"},
	)
	data, err := os.ReadFile(path)
	r.NoError(err)

	var cfg struct {
		Auths map[string]struct {
			Auth string `json:"auth"`
		} `json:"auths"`
	}
	r.NoError(json.Unmarshal(data, &cfg))
	r.Len(cfg.Auths, 2)

	decoded, err := base64.StdEncoding.DecodeString(cfg.Auths["localhost:5000"].Auth)
	r.NoError(err)
	assert.Equal(t, "a:secret", string(decoded))
}
