package maven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ocm.software/open-component-model/artifact/internal/log"
)

// maxChecksumSize bounds the size of checksum files read into memory.
const maxChecksumSize = 4 << 10

// maxMetadataSize bounds the size of maven-metadata.xml files read into memory.
const maxMetadataSize = 16 << 20

// remote fetches files from a remote repository.
type remote struct {
	repo     RemoteRepository
	release  Policy
	snapshot Policy
	client   *http.Client
}

func (r *remote) policyFor(snapshot bool) Policy {
	if snapshot {
		return r.snapshot
	}
	return r.release
}

func (r *remote) url(relPath string) string {
	return strings.TrimSuffix(r.repo.URL, "/") + "/" + strings.TrimPrefix(relPath, "/")
}

// get issues a GET request for relPath. The caller must close the body.
func (r *remote) get(ctx context.Context, relPath string) (io.ReadCloser, error) {
	url := r.url(relPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	if auth := r.repo.Auth; auth != nil && auth.Username != "" {
		req.SetBasicAuth(auth.Username, auth.Password)
	}

	log.FromContext(ctx).DebugContext(ctx, "fetching", slog.String("url", url), slog.String("repository", r.repo.ID))
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// getSmall reads a small file such as a checksum or metadata into memory.
func (r *remote) getSmall(ctx context.Context, relPath string, limit int64) (_ []byte, err error) {
	body, err := r.get(ctx, relPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, body.Close())
	}()
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.url(relPath), err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds the maximum size of %d bytes", r.url(relPath), limit)
	}
	return data, nil
}

// checksum returns the strongest checksum published for relPath.
func (r *remote) checksum(ctx context.Context, relPath string) (checksumAlgorithm, string, error) {
	for _, alg := range checksumAlgorithms {
		data, err := r.getSmall(ctx, relPath+"."+alg.extension, maxChecksumSize)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return checksumAlgorithm{}, "", err
		}
		return alg, string(data), nil
	}
	return checksumAlgorithm{}, "", fmt.Errorf("%w for %s", ErrChecksumMissing, r.url(relPath))
}
