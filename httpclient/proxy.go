package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// Proxy routes requests through an HTTP proxy, except for hosts that match
// one of the NonProxyHosts patterns. Patterns use glob syntax, e.g.
// "*.internal.example.com" or "localhost".
type Proxy struct {
	URL           string   `json:"url"`
	NonProxyHosts []string `json:"nonProxyHosts,omitempty"`
}

// ProxyFunc returns a function suitable for http.Transport.Proxy.
func (p *Proxy) ProxyFunc() (func(*http.Request) (*url.URL, error), error) {
	if p == nil || p.URL == "" {
		return http.ProxyFromEnvironment, nil
	}
	proxyURL, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url %q: %w", p.URL, err)
	}

	bypass := make([]glob.Glob, 0, len(p.NonProxyHosts))
	for _, pattern := range p.NonProxyHosts {
		g, err := glob.Compile(strings.ToLower(strings.TrimSpace(pattern)), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid non proxy host pattern %q: %w", pattern, err)
		}
		bypass = append(bypass, g)
	}

	return func(req *http.Request) (*url.URL, error) {
		host := strings.ToLower(req.URL.Hostname())
		for _, g := range bypass {
			if g.Match(host) {
				return nil, nil
			}
		}
		return proxyURL, nil
	}, nil
}
