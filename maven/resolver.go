package maven

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"ocm.software/open-component-model/artifact/httpclient"
	"ocm.software/open-component-model/artifact/internal/atomicfile"
	"ocm.software/open-component-model/artifact/internal/log"
	"ocm.software/open-component-model/artifact/metrics"
)

const loaderName = "maven"

// metadataFetchConcurrency bounds the number of repositories queried in
// parallel when listing versions.
const metadataFetchConcurrency = 4

// Resolver resolves coordinates to files in the local repository, downloading
// them from remote repositories on a cache miss.
//
// A Resolver is safe for concurrent use. Concurrent resolutions of the same
// coordinate within one process share a single download.
type Resolver struct {
	localRepository string
	offline         bool
	defaults        Policy
	repositories    []*remote

	metrics *metrics.Metrics
	now     func() time.Time
	group   singleflight.Group
}

// ResolverOptions holds the optional settings of a Resolver.
type ResolverOptions struct {
	client                    *http.Client
	httpConfig                *httpclient.Config
	defaultRemoteRepositories RemoteRepositories
	metrics                   *metrics.Metrics
	now                       func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*ResolverOptions)

// WithHTTPClient sets the client used for all remote repositories.
func WithHTTPClient(client *http.Client) ResolverOption {
	return func(o *ResolverOptions) {
		o.client = client
	}
}

// WithHTTPConfig configures the transport of the default client. It is ignored
// if WithHTTPClient is used.
func WithHTTPConfig(cfg *httpclient.Config) ResolverOption {
	return func(o *ResolverOptions) {
		o.httpConfig = cfg
	}
}

// WithDefaultRemoteRepositories replaces the repositories appended when
// Properties.IncludeDefaultRemoteRepos is enabled.
func WithDefaultRemoteRepositories(repos ...RemoteRepository) ResolverOption {
	return func(o *ResolverOptions) {
		o.defaultRemoteRepositories = repos
	}
}

// WithMetrics records resolutions and downloads.
func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(o *ResolverOptions) {
		o.metrics = m
	}
}

// WithClock sets the time source used for update policy decisions.
func WithClock(now func() time.Time) ResolverOption {
	return func(o *ResolverOptions) {
		o.now = now
	}
}

// NewResolver creates a resolver for the given properties.
func NewResolver(props Properties, opts ...ResolverOption) (*Resolver, error) {
	options := &ResolverOptions{
		defaultRemoteRepositories: DefaultRemoteRepositories(),
		now:                       time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := props.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver properties: %w", err)
	}

	client := options.client
	if client == nil {
		var err error
		if client, err = httpclient.New(httpclient.WithConfig(options.httpConfig), httpclient.WithProxy(props.Proxy)); err != nil {
			return nil, err
		}
	}

	defaults := DefaultPolicy
	if props.ChecksumPolicy != "" {
		defaults.ChecksumPolicy = props.ChecksumPolicy
	}
	if props.UpdatePolicy != "" {
		defaults.UpdatePolicy = props.UpdatePolicy
	}

	localRepository := props.LocalRepository
	if localRepository == "" {
		localRepository = DefaultLocalRepository()
	}

	repos := slices.Clone(props.RemoteRepositories)
	if props.IncludesDefaultRemoteRepos() {
		for _, def := range options.defaultRemoteRepositories {
			if !slices.ContainsFunc(repos, func(r RemoteRepository) bool {
				return r.ID == def.ID || sameURL(r.URL, def.URL)
			}) {
				repos = append(repos, def)
			}
		}
	}

	r := &Resolver{
		localRepository: localRepository,
		offline:         props.Offline,
		defaults:        defaults,
		metrics:         options.metrics,
		now:             options.now,
	}
	for _, repo := range repos {
		r.repositories = append(r.repositories, &remote{
			repo:     repo,
			release:  resolvePolicy(defaults, repo.Policy, repo.ReleasePolicy),
			snapshot: resolvePolicy(defaults, repo.Policy, repo.SnapshotPolicy),
			client:   client,
		})
	}
	return r, nil
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// EffectiveRepository is a remote repository with its resolved policies.
type EffectiveRepository struct {
	ID       string
	URL      string
	Release  Policy
	Snapshot Policy
}

// Repositories returns the repositories consulted by the resolver, in order.
func (r *Resolver) Repositories() []EffectiveRepository {
	repos := make([]EffectiveRepository, 0, len(r.repositories))
	for _, repo := range r.repositories {
		repos = append(repos, EffectiveRepository{
			ID:       repo.repo.ID,
			URL:      repo.repo.URL,
			Release:  repo.release,
			Snapshot: repo.snapshot,
		})
	}
	return repos
}

// Policy returns the effective policy of a repository for a stability class.
// Unknown repositories resolve to the resolver defaults.
func (r *Resolver) Policy(repoID string, snapshot bool) Policy {
	for _, repo := range r.repositories {
		if repo.repo.ID == repoID {
			return repo.policyFor(snapshot)
		}
	}
	return r.defaults
}

// Defaults returns the resolver level policy.
func (r *Resolver) Defaults() Policy {
	return r.defaults
}

// LocalRepository returns the root of the local cache.
func (r *Resolver) LocalRepository() string {
	return r.localRepository
}

// Offline reports whether the resolver never accesses the network.
func (r *Resolver) Offline() bool {
	return r.offline
}

// LocalPath returns the path a coordinate is cached at.
func (r *Resolver) LocalPath(c Coordinate) string {
	return filepath.Join(r.localRepository, filepath.FromSlash(c.Path()))
}

// Cached reports whether the coordinate is present in the local repository.
func (r *Resolver) Cached(c Coordinate) bool {
	info, err := os.Stat(r.LocalPath(c))
	return err == nil && info.Mode().IsRegular()
}

// Invalidate removes the cached file of a coordinate.
func (r *Resolver) Invalidate(c Coordinate) error {
	if err := os.Remove(r.LocalPath(c)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to invalidate %s: %w", c, err)
	}
	return nil
}

// Resolve returns the local path of the artifact, downloading it from the first
// remote repository that provides it if it is not cached yet. A version range
// resolves to the highest matching version.
//
// A cached artifact is returned without network access. In offline mode a cache
// miss fails with ErrOffline.
func (r *Resolver) Resolve(ctx context.Context, c Coordinate) (string, error) {
	if c.IsRange() {
		versions, err := r.ListVersions(ctx, c)
		if err != nil {
			if r.offline && errors.Is(err, ErrNoVersionsFound) {
				return "", errors.Join(ErrOffline, err)
			}
			return "", err
		}
		c = c.WithVersion(versions[len(versions)-1])
	}

	ctx = log.WithAttrs(ctx, slog.String("coordinate", c.String()))
	timer := metrics.NewTimer()
	file, outcome, err := r.resolve(ctx, c)
	r.metrics.RecordResolution(loaderName, outcome, timer.Duration())
	return file, err
}

func (r *Resolver) resolve(ctx context.Context, c Coordinate) (string, string, error) {
	if r.Cached(c) {
		log.FromContext(ctx).DebugContext(ctx, "artifact found in local repository")
		return r.LocalPath(c), metrics.OutcomeCacheHit, nil
	}
	if r.offline {
		return "", metrics.OutcomeOffline, fmt.Errorf("%w: %s", ErrOffline, c)
	}

	// the download outlives a caller that gives up, so that the cache is
	// populated for the next request
	detached := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(c.String(), func() (any, error) {
		if r.Cached(c) {
			return r.LocalPath(c), nil
		}
		return r.download(detached, c)
	})
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return "", metrics.OutcomeNotFound, err
		}
		return "", metrics.OutcomeError, err
	}
	return v.(string), metrics.OutcomeDownloaded, nil
}

func (r *Resolver) download(ctx context.Context, c Coordinate) (_ string, err error) {
	done := log.Operation(ctx, "download artifact")
	defer func() { done(err) }()

	snapshot := c.IsSnapshot()
	target := r.LocalPath(c)
	notFound := &ArtifactNotFoundError{Coordinate: c}
	for _, repo := range r.repositories {
		policy := repo.policyFor(snapshot)
		logger := log.FromContext(ctx).With(slog.String("repository", repo.repo.ID))
		if !policy.Enabled {
			logger.DebugContext(ctx, "repository disabled for stability class", slog.Bool("snapshot", snapshot))
			continue
		}
		notFound.Repositories = append(notFound.Repositories, repo.repo.ID)

		size, err := r.fetch(ctx, repo, policy, c, target)
		r.metrics.RecordDownload(loaderName, repo.repo.ID, err, size)
		if err == nil {
			logger.InfoContext(ctx, "downloaded artifact", slog.String("path", target), slog.Int64("size", size))
			return target, nil
		}

		if errors.Is(err, ErrChecksumVerification) {
			r.metrics.RecordChecksumFailure(repo.repo.ID)
		}
		if isNotFound(err) {
			logger.DebugContext(ctx, "artifact not available in repository")
		} else {
			logger.WarnContext(ctx, "failed to fetch artifact from repository", slog.String("error", err.Error()))
		}
		notFound.Causes = append(notFound.Causes, fmt.Errorf("repository %s: %w", repo.repo.ID, err))
	}
	return "", notFound
}

// fetch downloads a coordinate from a single repository into target.
func (r *Resolver) fetch(ctx context.Context, repo *remote, policy Policy, c Coordinate, target string) (_ int64, err error) {
	relPath := c.Path()
	if c.IsSnapshot() {
		if relPath, err = r.snapshotPath(ctx, repo, c); err != nil {
			return 0, err
		}
	}

	body, err := repo.get(ctx, relPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, body.Close())
	}()

	file, err := atomicfile.Create(target)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, file.Abort())
	}()

	sums := newChecksums()
	size, err := atomicfile.Copy(io.MultiWriter(file, sums), body)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", repo.url(relPath), err)
	}

	if policy.ChecksumPolicy != ChecksumPolicyIgnore {
		if err := r.verify(ctx, repo, policy, relPath, sums); err != nil {
			return 0, err
		}
	}

	if err := file.Commit(); err != nil {
		return 0, err
	}
	return size, nil
}

// snapshotPath returns the repository path of the timestamped file a snapshot
// was deployed as. Without version metadata the plain file name is used.
func (r *Resolver) snapshotPath(ctx context.Context, repo *remote, c Coordinate) (string, error) {
	data, err := repo.getSmall(ctx, path.Join(c.Dir(), metadataFilename), maxMetadataSize)
	if isNotFound(err) {
		return c.Path(), nil
	}
	if err != nil {
		return "", err
	}
	md, err := parseMetadata(data)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "ignoring invalid snapshot metadata", slog.String("repository", repo.repo.ID), slog.String("error", err.Error()))
		return c.Path(), nil
	}
	return path.Join(c.Dir(), md.snapshotFilename(c)), nil
}

func (r *Resolver) verify(ctx context.Context, repo *remote, policy Policy, relPath string, sums *checksums) error {
	alg, published, err := repo.checksum(ctx, relPath)
	if err == nil {
		err = sums.verify(alg, repo.url(relPath), published)
	}
	if err == nil {
		return nil
	}
	if policy.ChecksumPolicy == ChecksumPolicyWarn {
		log.FromContext(ctx).WarnContext(ctx, "accepting artifact despite checksum problem",
			slog.String("repository", repo.repo.ID), slog.String("error", err.Error()))
		return nil
	}
	return err
}

// ListVersions returns the versions matching the coordinate's version, which is
// usually a range such as "[1.0,2.0)". Versions are collected from the local
// repository and the metadata of every enabled remote repository, and returned
// in ascending order.
//
// Remote metadata is cached in the local repository and refreshed according to
// the update policy of the repository. Offline, only cached metadata is used.
func (r *Resolver) ListVersions(ctx context.Context, c Coordinate) (_ []string, err error) {
	ctx = log.WithAttrs(ctx, slog.String("coordinate", c.String()))
	done := log.Operation(ctx, "list versions")
	defer func() { done(err) }()

	match, err := newVersionMatcher(c)
	if err != nil {
		return nil, err
	}

	results := make([][]string, len(r.repositories))
	causes := make([]error, len(r.repositories))
	detached := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(metadataFetchConcurrency)
	for i, repo := range r.repositories {
		g.Go(func() error {
			versions, err := r.remoteVersions(detached, repo, c)
			if err != nil {
				log.FromContext(ctx).WarnContext(ctx, "failed to read repository metadata",
					slog.String("repository", repo.repo.ID), slog.String("error", err.Error()))
				causes[i] = fmt.Errorf("repository %s: %w", repo.repo.ID, err)
			}
			results[i] = versions
			return nil
		})
	}
	// Failures are collected in causes, no goroutine returns an error.
	_ = g.Wait()

	candidates := r.localVersions(c)
	for _, versions := range results {
		candidates = append(candidates, versions...)
	}

	var matched []string
	for _, v := range candidates {
		if match(v) {
			matched = append(matched, v)
		}
	}
	if len(matched) == 0 {
		return nil, errors.Join(append([]error{fmt.Errorf("%w for %s", ErrNoVersionsFound, c)}, causes...)...)
	}
	return sortVersions(matched), nil
}

// localVersions lists versions present in the local repository.
func (r *Resolver) localVersions(c Coordinate) []string {
	dir := filepath.Join(r.localRepository, filepath.FromSlash(c.artifactDir()))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if r.Cached(c.WithVersion(entry.Name())) {
			versions = append(versions, entry.Name())
		}
	}
	return versions
}

// remoteVersions returns the versions listed in the artifact metadata of a
// repository, using the cached copy while it is fresh.
func (r *Resolver) remoteVersions(ctx context.Context, repo *remote, c Coordinate) ([]string, error) {
	policy := repo.policyFor(c.IsSnapshot())
	if !policy.Enabled {
		return nil, nil
	}

	cached := filepath.Join(r.localRepository, filepath.FromSlash(c.artifactDir()), "maven-metadata-"+repo.repo.ID+".xml")
	info, statErr := os.Stat(cached)
	if r.offline || (statErr == nil && !policy.UpdatePolicy.IsStale(info.ModTime(), r.now())) {
		if statErr != nil {
			return nil, nil
		}
		return readCachedVersions(cached)
	}

	data, err := repo.getSmall(ctx, path.Join(c.artifactDir(), metadataFilename), maxMetadataSize)
	switch {
	case isNotFound(err):
		return nil, nil
	case err != nil && statErr == nil:
		log.FromContext(ctx).WarnContext(ctx, "using stale repository metadata",
			slog.String("repository", repo.repo.ID), slog.String("error", err.Error()))
		return readCachedVersions(cached)
	case err != nil:
		return nil, err
	}

	md, err := parseMetadata(data)
	if err != nil {
		return nil, err
	}
	if err := atomicfile.WriteFile(cached, bytes.NewReader(data)); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "failed to cache repository metadata", slog.String("error", err.Error()))
	}
	return md.Versioning.Versions, nil
}

func readCachedVersions(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached metadata: %w", err)
	}
	md, err := parseMetadata(data)
	if err != nil {
		return nil, err
	}
	return md.Versioning.Versions, nil
}
