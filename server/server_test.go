package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	for path, body := range map[string]string{
		"index.html":            "<h1>home</h1>",
		"s1/second/index.html":  "<h1>second</h1>",
		"static/css/main.css":   "body{}",
		"s1/empty/.placeholder": "",
	} {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(root, logger, "Zine-Go/test", opts).Handler())
	t.Cleanup(srv.Close)
	return srv, root
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServesBuiltPages(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	testCases := []struct {
		path   string
		status int
		body   string
	}{
		{path: "/", status: http.StatusOK, body: "<h1>home</h1>"},
		{path: "/s1/second/", status: http.StatusOK, body: "<h1>second</h1>"},
		{path: "/s1/second", status: http.StatusOK, body: "<h1>second</h1>"},
		{path: "/static/css/main.css", status: http.StatusOK, body: "body{}"},
		{path: "/s1/empty/", status: http.StatusNotFound},
		{path: "/missing/", status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tc.path)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "Zine-Go/test", resp.Header.Get("Server"))
			if tc.body != "" {
				assert.Equal(t, tc.body, body)
			}
		})
	}
}

func TestCustomNotFoundPage(t *testing.T) {
	srv, root := newTestServer(t, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(root, notFoundPage), []byte("gone"), 0o644))

	resp, body := get(t, srv.URL+"/nope/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "gone", body)
}

func TestHealthReportsBuildStatus(t *testing.T) {
	status := BuildStatus{Builds: 2, Finished: time.Unix(1700000000, 0).UTC(), Error: "render: boom"}
	srv, _ := newTestServer(t, Options{Status: func() BuildStatus { return status }})

	resp, body := get(t, srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var payload struct {
		Status string      `json:"status"`
		Build  BuildStatus `json:"build"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "failing", payload.Status)
	assert.Equal(t, 2, payload.Build.Builds)
	assert.Equal(t, "render: boom", payload.Build.Error)
}

func TestHealthWithoutStatus(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	_, body := get(t, srv.URL+"/healthz")
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("zine_builds_total 1\n"))
	})
	srv, _ := newTestServer(t, Options{Metrics: metrics})
	resp, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "zine_builds_total 1\n", body)

	plain, _ := newTestServer(t, Options{})
	resp, _ = get(t, plain.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiveReloadInjectsScript(t *testing.T) {
	srv, root := newTestServer(t, Options{LiveReload: NewLiveReload(nil)})
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html><body><h1>home</h1></body></html>"), 0o644))

	_, body := get(t, srv.URL+"/")
	assert.True(t, strings.HasPrefix(body, "<html><body><h1>home</h1><script>"))
	assert.True(t, strings.HasSuffix(body, "</script></body></html>"))
	assert.Contains(t, body, LiveReloadPath)

	_, css := get(t, srv.URL+"/static/css/main.css")
	assert.Equal(t, "body{}", css)

	_, nested := get(t, srv.URL+"/s1/second")
	assert.Contains(t, nested, "<h1>second</h1><script>")
}

func TestLiveReloadBroadcast(t *testing.T) {
	hub := NewLiveReload(nil)
	srv, _ := newTestServer(t, Options{LiveReload: hub})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+LiveReloadPath, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)
	hub.Broadcast()

	kind, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, kind)
	assert.Equal(t, "reload", string(msg))

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestInjectScriptWithoutBody(t *testing.T) {
	out := injectScript([]byte("<p>bare</p>"))
	assert.Equal(t, "<p>bare</p>"+liveReloadScript, string(out))
}

func TestSanitizeRequestPath(t *testing.T) {
	assert.Equal(t, "/", sanitizeRequestPath(""))
	assert.Equal(t, "/a/b", sanitizeRequestPath("a/b/"))
	assert.Equal(t, "/etc/passwd", sanitizeRequestPath("/../../etc/passwd"))
	assert.True(t, isWithin("/srv/site", "/srv/site/a"))
	assert.False(t, isWithin("/srv/site", "/srv/other"))
}
