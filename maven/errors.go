package maven

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOffline is returned when an artifact is not cached and the resolver is offline.
	ErrOffline = errors.New("artifact is not available in the local repository and the resolver is offline")
	// ErrArtifactNotFound is matched by every ArtifactNotFoundError.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrChecksumVerification is matched by every ChecksumVerificationError.
	ErrChecksumVerification = errors.New("checksum verification failed")
	// ErrNoVersionsFound is returned when no version satisfies a range.
	ErrNoVersionsFound = errors.New("no versions found")
	// ErrChecksumMissing is returned when a repository publishes no checksum
	// for an artifact.
	ErrChecksumMissing = errors.New("no checksum published")
)

// ArtifactNotFoundError is returned when no repository yields an artifact.
// It unwraps to the failure of every repository that was tried.
type ArtifactNotFoundError struct {
	Coordinate   Coordinate
	Repositories []string
	Causes       []error
}

func (e *ArtifactNotFoundError) Error() string {
	msg := fmt.Sprintf("artifact %s not found in repositories [%s]", e.Coordinate, strings.Join(e.Repositories, ", "))
	if cause := errors.Join(e.Causes...); cause != nil {
		msg += ": " + strings.ReplaceAll(cause.Error(), "\n", "; ")
	}
	return msg
}

func (e *ArtifactNotFoundError) Is(target error) bool {
	return target == ErrArtifactNotFound
}

func (e *ArtifactNotFoundError) Unwrap() []error {
	return e.Causes
}

// ChecksumVerificationError is returned when downloaded content does not match
// the checksum published by the repository.
type ChecksumVerificationError struct {
	URL       string
	Algorithm string
	Expected  string
	Actual    string
}

func (e *ChecksumVerificationError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s: %s expected %s, got %s", e.URL, e.Algorithm, e.Expected, e.Actual)
}

func (e *ChecksumVerificationError) Is(target error) bool {
	return target == ErrChecksumVerification
}

// HTTPError is returned for unexpected HTTP status codes from a repository.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("failed to download %s: status code %d", e.URL, e.StatusCode)
}

// NotFound reports whether the repository answered that the file does not exist.
func (e *HTTPError) NotFound() bool {
	return e.StatusCode == 404 || e.StatusCode == 410
}

func isNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.NotFound()
}
