package maven

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChecksumFile(t *testing.T) {
	for content, expected := range map[string]string{
		"ABCDEF0123\n":                   "abcdef0123",
		"abcdef0123  b-1.0.jar\n":        "abcdef0123",
		"MD5 (b-1.0.jar) = abcdef0123\n": "abcdef0123",
	} {
		got, err := parseChecksumFile(content)
		require.NoError(t, err, content)
		assert.Equal(t, expected, got)
	}

	_, err := parseChecksumFile("   ")
	require.Error(t, err)
	_, err = parseChecksumFile("not-hex")
	require.Error(t, err)
}

func TestChecksumsVerify(t *testing.T) {
	sums := newChecksums()
	_, err := io.Copy(sums, strings.NewReader("content"))
	require.NoError(t, err)

	sha256 := checksumAlgorithms[1]
	require.Equal(t, "sha256", sha256.extension)
	require.NoError(t, sums.verify(sha256, "u", digest.FromString("content").Encoded()))

	err = sums.verify(sha256, "u", digest.FromString("other").Encoded())
	var checksumErr *ChecksumVerificationError
	require.ErrorAs(t, err, &checksumErr)
	assert.Equal(t, digest.FromString("other").Encoded(), checksumErr.Expected)
	assert.Equal(t, digest.FromString("content").Encoded(), checksumErr.Actual)

	require.Error(t, sums.verify(sha256, "u", "abcd"), "truncated sha256 is invalid")

	md5Alg := checksumAlgorithms[3]
	sum := md5.Sum([]byte("content"))
	require.NoError(t, sums.verify(md5Alg, "u", hex.EncodeToString(sum[:])))
	require.ErrorIs(t, sums.verify(md5Alg, "u", strings.Repeat("0", 32)), ErrChecksumVerification)
}
