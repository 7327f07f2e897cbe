// Package download loads http and https locations. Content is downloaded once
// per URL into a cache directory and reused from there.
package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/singleflight"

	"ocm.software/open-component-model/artifact/httpclient"
	"ocm.software/open-component-model/artifact/internal/atomicfile"
	"ocm.software/open-component-model/artifact/internal/log"
	"ocm.software/open-component-model/artifact/metrics"
	"ocm.software/open-component-model/artifact/resource"
)

const loaderName = "download"

// DefaultCacheDirectory returns the directory downloads are cached in by default.
func DefaultCacheDirectory() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "artifact", "downloads")
}

// Options configures a Loader.
type Options struct {
	cacheDirectory string
	client         *http.Client
	metrics        *metrics.Metrics
}

// Option configures a Loader.
type Option func(*Options)

// WithCacheDirectory sets the directory downloads are cached in.
func WithCacheDirectory(dir string) Option {
	return func(o *Options) {
		o.cacheDirectory = dir
	}
}

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.client = client
	}
}

// WithMetrics records downloads.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) {
		o.metrics = m
	}
}

// Loader loads http and https locations.
type Loader struct {
	cacheDirectory string
	client         *http.Client
	metrics        *metrics.Metrics
	group          singleflight.Group
}

var _ resource.Loader = (*Loader)(nil)

// NewLoader returns a downloading loader.
func NewLoader(opts ...Option) (*Loader, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.cacheDirectory == "" {
		options.cacheDirectory = DefaultCacheDirectory()
	}
	if options.client == nil {
		client, err := httpclient.New()
		if err != nil {
			return nil, err
		}
		options.client = client
	}
	return &Loader{
		cacheDirectory: options.cacheDirectory,
		client:         options.client,
		metrics:        options.metrics,
	}, nil
}

func (l *Loader) Name() string {
	return loaderName
}

// CacheDirectory returns the directory downloads are cached in.
func (l *Loader) CacheDirectory() string {
	return l.cacheDirectory
}

func (l *Loader) Supports(location string) bool {
	scheme, ok := resource.Scheme(location)
	return ok && (scheme == "http" || scheme == "https")
}

// Load validates location. Nothing is downloaded until the content is accessed.
func (l *Loader) Load(location string) (resource.Resource, error) {
	if !l.Supports(location) {
		scheme, _ := resource.Scheme(location)
		return nil, &resource.UnsupportedSchemeError{Scheme: scheme, Location: location}
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", resource.ErrInvalidURI, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", resource.ErrInvalidURI, location)
	}
	return &Resource{location: location, url: u, loader: l}, nil
}

// CacheName returns the name a URL is cached under: the hex encoded SHA-1 of the
// URL, followed by the last path segment with every character that is not a
// letter or a digit removed.
func CacheName(location string) string {
	sum := sha1.Sum([]byte(location))
	fingerprint := hex.EncodeToString(sum[:])

	segment := location
	if u, err := url.Parse(location); err == nil {
		segment = u.Path
	}
	segment = path.Base(segment)
	sanitized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, segment)
	if sanitized == "" {
		return fingerprint
	}
	return fingerprint + "-" + sanitized
}

func (l *Loader) cachePath(location string) string {
	return filepath.Join(l.cacheDirectory, CacheName(location))
}

// fetch downloads location into the cache unless it is already present.
// Concurrent fetches of the same location share one download.
func (l *Loader) fetch(ctx context.Context, location string) (string, error) {
	target := l.cachePath(location)
	if isFile(target) {
		return target, nil
	}

	detached := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(location, func() (any, error) {
		if isFile(target) {
			return target, nil
		}
		return target, l.download(detached, location, target)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (l *Loader) download(ctx context.Context, location, target string) (err error) {
	done := log.Operation(ctx, "download", log.LocationAttr(location))
	defer func() { done(err) }()

	var host string
	if u, perr := url.Parse(location); perr == nil {
		host = u.Host
	}
	timer := metrics.NewTimer()
	var size int64
	defer func() {
		l.metrics.RecordDownload(loaderName, host, err, size)
		outcome := metrics.OutcomeDownloaded
		if err != nil {
			outcome = metrics.OutcomeError
		}
		l.metrics.RecordResolution(loaderName, outcome, timer.Duration())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", location, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", location, err)
	}
	defer func() {
		err = errors.Join(err, resp.Body.Close())
	}()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: location, StatusCode: resp.StatusCode}
	}

	file, err := atomicfile.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Abort())
	}()
	if size, err = atomicfile.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to download %s: %w", location, err)
	}
	if err := file.Commit(); err != nil {
		return err
	}
	log.FromContext(ctx).DebugContext(ctx, "cached download", slog.String("path", target), slog.Int64("size", size))
	return nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// ErrNotFound is matched by a StatusError for 404 and 410 responses.
var ErrNotFound = errors.New("not found")

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download %s: status code %d", e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && (e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone)
}

// Resource is content at an http or https URL.
type Resource struct {
	location string
	url      *url.URL
	loader   *Loader

	mu   sync.Mutex
	file string
}

var _ resource.Resource = (*Resource)(nil)

// URI returns the URL unchanged.
func (r *Resource) URI() string {
	return r.location
}

// Filename returns the last path segment of the URL.
func (r *Resource) Filename() string {
	base := path.Base(r.url.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// Exists reports whether the content is cached or the server serves it.
// Servers that reject HEAD are asked for the first byte with a ranged GET.
func (r *Resource) Exists(ctx context.Context) (bool, error) {
	if isFile(r.loader.cachePath(r.location)) {
		return true, nil
	}
	status, err := r.status(ctx, http.MethodHead)
	if err != nil {
		return false, err
	}
	if status == http.StatusMethodNotAllowed {
		if status, err = r.status(ctx, http.MethodGet); err != nil {
			return false, err
		}
	}
	switch status {
	case http.StatusOK, http.StatusPartialContent:
		return true, nil
	case http.StatusNotFound, http.StatusGone:
		return false, nil
	default:
		return false, &StatusError{URL: r.location, StatusCode: status}
	}
}

func (r *Resource) status(ctx context.Context, method string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.location, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for %s: %w", r.location, err)
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := r.loader.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to check %s: %w", r.location, err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// Open returns a reader for the cached file, downloading it first if needed.
func (r *Resource) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := r.File(ctx)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	return f, nil
}

// File downloads the content into the cache directory if needed and returns
// the path of the cached file. The path is memoized until Invalidate is called.
func (r *Resource) File(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != "" {
		return r.file, nil
	}
	file, err := r.loader.fetch(ctx, r.location)
	if err != nil {
		return "", err
	}
	r.file = file
	return file, nil
}

// Invalidate removes the cached file so that the next access downloads it again.
func (r *Resource) Invalidate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.file = ""
	if err := os.Remove(r.loader.cachePath(r.location)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to invalidate %s: %w", r.location, err)
	}
	return nil
}
