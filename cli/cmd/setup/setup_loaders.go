package setup

import (
	"fmt"

	"github.com/spf13/cobra"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"ocm.software/open-component-model/artifact/cli/cmd/version"
	ocmctx "ocm.software/open-component-model/artifact/cli/internal/context"
	"ocm.software/open-component-model/artifact/docker"
	"ocm.software/open-component-model/artifact/download"
	"ocm.software/open-component-model/artifact/filesystem"
	"ocm.software/open-component-model/artifact/httpclient"
	"ocm.software/open-component-model/artifact/maven"
	"ocm.software/open-component-model/artifact/resource"
)

// Loaders builds the maven resolver and the delegating loader serving every
// supported scheme. Bare image references fall back to the docker loader.
func Loaders(cmd *cobra.Command) error {
	ctx := cmd.Context()
	ocmCtx := ocmctx.FromContext(ctx)
	cfg := ocmCtx.Configuration()
	m := ocmCtx.Metrics()

	var props maven.Properties
	if cfg.Maven != nil {
		props = *cfg.Maven
	}
	userAgent := httpclient.WithUserAgent(version.UserAgent())
	mavenClient, err := httpclient.New(httpclient.WithConfig(ocmCtx.HTTPConfig()), httpclient.WithProxy(props.Proxy), userAgent)
	if err != nil {
		return fmt.Errorf("could not create maven http client: %w", err)
	}
	resolver, err := maven.NewResolver(props, maven.WithHTTPClient(mavenClient), maven.WithMetrics(m))
	if err != nil {
		return err
	}

	client, err := httpclient.New(httpclient.WithConfig(ocmCtx.HTTPConfig()), userAgent)
	if err != nil {
		return fmt.Errorf("could not create http client: %w", err)
	}

	downloadOpts := []download.Option{download.WithHTTPClient(client), download.WithMetrics(m)}
	if cfg.Download != nil && cfg.Download.CacheDirectory != "" {
		downloadOpts = append(downloadOpts, download.WithCacheDirectory(cfg.Download.CacheDirectory))
	}
	downloads, err := download.NewLoader(downloadOpts...)
	if err != nil {
		return err
	}

	dockerOpts := []docker.Option{docker.WithHTTPClient(client)}
	if cfg.Docker != nil {
		dockerOpts = append(dockerOpts, docker.WithPlainHTTP(cfg.Docker.PlainHTTP))
		if cfg.Docker.CredentialsFile != "" {
			store, err := credentials.NewStore(cfg.Docker.CredentialsFile, credentials.StoreOptions{})
			if err != nil {
				return fmt.Errorf("could not load docker credentials: %w", err)
			}
			dockerOpts = append(dockerOpts, docker.WithCredentialStore(store))
		}
	}
	images := docker.NewLoader(dockerOpts...)

	loader := resource.NewDelegating(map[string]resource.Loader{
		maven.Scheme:      maven.NewLoader(resolver),
		docker.Scheme:     images,
		"http":            downloads,
		"https":           downloads,
		filesystem.Scheme: filesystem.NewLoader(),
	}, resource.WithFallback(images))

	ctx = ocmctx.WithResolver(ctx, resolver)
	cmd.SetContext(ocmctx.WithLoader(ctx, loader))
	return nil
}
