package maven

import (
	"crypto/md5"
	"crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
)

// checksumAlgorithm is a checksum published next to an artifact as
// <file>.<extension>.
type checksumAlgorithm struct {
	name      string
	extension string
	newHash   func() hash.Hash
	// digest is set for algorithms known to go-digest.
	digest digest.Algorithm
}

// checksumAlgorithms are tried in order, strongest first.
var checksumAlgorithms = []checksumAlgorithm{
	{name: "SHA-512", extension: "sha512", digest: digest.SHA512, newHash: digest.SHA512.Hash},
	{name: "SHA-256", extension: "sha256", digest: digest.SHA256, newHash: digest.SHA256.Hash},
	{name: "SHA-1", extension: "sha1", newHash: sha1.New},
	{name: "MD5", extension: "md5", newHash: md5.New},
}

// checksums computes every supported checksum of the data written to it.
type checksums struct {
	hashes map[string]hash.Hash
	writer io.Writer
}

func newChecksums() *checksums {
	c := &checksums{hashes: make(map[string]hash.Hash, len(checksumAlgorithms))}
	writers := make([]io.Writer, 0, len(checksumAlgorithms))
	for _, alg := range checksumAlgorithms {
		h := alg.newHash()
		c.hashes[alg.extension] = h
		writers = append(writers, h)
	}
	c.writer = io.MultiWriter(writers...)
	return c
}

func (c *checksums) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

// verify compares the computed checksum with the published value.
func (c *checksums) verify(alg checksumAlgorithm, url, published string) error {
	expected, err := parseChecksumFile(published)
	if err != nil {
		return fmt.Errorf("invalid %s checksum for %s: %w", alg.name, url, err)
	}

	if alg.digest != "" {
		want := digest.NewDigestFromEncoded(alg.digest, expected)
		if err := want.Validate(); err != nil {
			return fmt.Errorf("invalid %s checksum for %s: %w", alg.name, url, err)
		}
		got := digest.NewDigest(alg.digest, c.hashes[alg.extension])
		if got != want {
			return &ChecksumVerificationError{URL: url, Algorithm: alg.name, Expected: want.Encoded(), Actual: got.Encoded()}
		}
		return nil
	}

	actual := hex.EncodeToString(c.hashes[alg.extension].Sum(nil))
	if actual != expected {
		return &ChecksumVerificationError{URL: url, Algorithm: alg.name, Expected: expected, Actual: actual}
	}
	return nil
}

// parseChecksumFile extracts the hex checksum from the content of a checksum
// file. Besides the bare value, the "<checksum>  <filename>" form written by
// sha1sum and friends and the "MD5 (file) = <checksum>" BSD form are accepted.
func parseChecksumFile(content string) (string, error) {
	content = strings.TrimSpace(content)
	if _, after, ok := strings.Cut(content, " = "); ok {
		content = strings.TrimSpace(after)
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file")
	}
	value := strings.ToLower(fields[0])
	if _, err := hex.DecodeString(value); err != nil {
		return "", fmt.Errorf("checksum %q is not hex encoded", fields[0])
	}
	return value, nil
}
