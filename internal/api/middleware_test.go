package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subserve/internal/extractor"
)

func TestRequestIDGenerated(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{}, nil, nil, Options{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRequestIDPassthrough(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{}, nil, nil, Options{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "trace-me-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "trace-me-123", resp.Header.Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{}, nil, nil, Options{SecurityHeaders: true})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", resp.Header.Get("Content-Security-Policy"))
	// Plain HTTP must not advertise HSTS.
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestSecurityHeadersDisabled(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{}, nil, nil, Options{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, resp.Header.Get("X-Frame-Options"))
}

func TestRateLimitEnforced(t *testing.T) {
	svc := &fakeExtractor{result: sampleResult(extractor.FormatJSON)}
	ts := newTestServer(t, svc, nil, nil, Options{
		RateLimitEnabled:   true,
		RateLimitPerMinute: 2,
	})

	target := subtitlesURL(ts.URL, "dQw4w9WgXcQ", "en", "json")
	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(target)
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimitDoesNotCoverHealth(t *testing.T) {
	ts := newTestServer(t, &fakeExtractor{}, nil, nil, Options{
		RateLimitEnabled:   true,
		RateLimitPerMinute: 1,
	})

	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(r))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.1", clientIP(r))
}

func TestRateLimiterTracksPerIP(t *testing.T) {
	rl := newRateLimiter(1)

	assert.True(t, rl.allow("203.0.113.1"))
	assert.False(t, rl.allow("203.0.113.1"))
	// A different client is unaffected.
	assert.True(t, rl.allow("203.0.113.2"))
}
