package httpclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	t.Cleanup(srv.Close)

	client, err := New(WithUserAgent("test-agent"))
	require.NoError(t, err)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "test-agent", got)

	client, err = New()
	require.NoError(t, err)
	resp, err = client.Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, defaultUserAgent, got)
}

func TestNewAppliesTimeout(t *testing.T) {
	client, err := New(WithConfig(&Config{Timeout: NewTimeout(5 * time.Second)}))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestTimeoutJSON(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"30s","idleConnTimeout":1000}`), &cfg))
	assert.Equal(t, 30*time.Second, cfg.Timeout.Value())
	assert.Equal(t, time.Duration(1000), cfg.IdleConnTimeout.Value())
	assert.Zero(t, cfg.TCPDialTimeout.Value())

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":"30s","idleConnTimeout":"1µs"}`, string(data))

	require.Error(t, json.Unmarshal([]byte(`{"timeout":"soon"}`), &cfg))
	require.Error(t, json.Unmarshal([]byte(`{"timeout":true}`), &cfg))
}

func TestMergeLastWins(t *testing.T) {
	merged := Merge(DefaultConfig(), &Config{TCPDialTimeout: NewTimeout(time.Second), UserAgent: "a"}, nil)
	assert.Equal(t, time.Second, merged.TCPDialTimeout.Value())
	assert.Equal(t, DefaultIdleConnTimeout.Value(), merged.IdleConnTimeout.Value())
	assert.Equal(t, "a", merged.UserAgent)
	assert.Nil(t, Merge())
}

func TestProxyNonProxyHosts(t *testing.T) {
	proxy := &Proxy{URL: "http://proxy.example.com:3128", NonProxyHosts: []string{"localhost", "*.internal.example.com"}}
	fn, err := proxy.ProxyFunc()
	require.NoError(t, err)

	for host, bypass := range map[string]bool{
		"localhost":                 true,
		"repo.internal.example.com": true,
		"repo.maven.apache.org":     false,
		"a.b.internal.example.com":  false,
	} {
		u, err := fn(&http.Request{URL: &url.URL{Scheme: "https", Host: host}})
		require.NoError(t, err)
		if bypass {
			assert.Nil(t, u, host)
		} else {
			require.NotNil(t, u, host)
			assert.Equal(t, "proxy.example.com:3128", u.Host)
		}
	}

	_, err = (&Proxy{URL: "http://proxy", NonProxyHosts: []string{"[a-"}}).ProxyFunc()
	require.Error(t, err)
}

// flakyTransport answers the first failures requests with 503.
type flakyTransport struct {
	failures int
	calls    int
	agents   []string
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	f.agents = append(f.agents, req.Header.Get("User-Agent"))
	status := http.StatusOK
	if f.calls <= f.failures {
		status = http.StatusServiceUnavailable
	}
	return &http.Response{
		StatusCode: status,
		Body:       http.NoBody,
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestNewRetry(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		base := &flakyTransport{failures: 1}
		client, err := New(WithBaseTransport(base), WithUserAgent("agent"))
		require.NoError(t, err)

		resp, err := client.Get("http://repo.example.com/")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, 1, base.calls)
		assert.Equal(t, []string{"agent"}, base.agents)
	})

	t.Run("enabled", func(t *testing.T) {
		base := &flakyTransport{failures: 1}
		client, err := New(WithBaseTransport(base), WithConfig(&Config{Retry: true}))
		require.NoError(t, err)

		resp, err := client.Get("http://repo.example.com/")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 2, base.calls)
	})
}
