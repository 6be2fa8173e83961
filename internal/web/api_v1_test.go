package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/marquee/internal/marquee"
	"github.com/rook-computer/marquee/internal/state"
)

// storeGenerator installs one file per request straight into a store.
type storeGenerator struct {
	mu        sync.Mutex
	store     *state.Store
	token     uint64
	triggered []marquee.RenderConfig
	err       error
}

func (g *storeGenerator) Trigger(cfg marquee.RenderConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.triggered = append(g.triggered, cfg)
}

func (g *storeGenerator) triggers() []marquee.RenderConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]marquee.RenderConfig(nil), g.triggered...)
}

func (g *storeGenerator) Run(_ context.Context, cfg marquee.RenderConfig) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token++
	g.store.Begin(g.token)
	if g.err != nil {
		g.store.Fail(g.err)
		return g.token, g.err
	}
	rs := state.NewResultSet(g.token, []state.File{{Name: marquee.FileName(cfg.Text, 0), Data: []byte("GIF89a")}})
	rs.FrameCount = 10
	rs.FrameDelayMs = 20
	g.store.Install(rs)
	return g.token, nil
}

func (g *storeGenerator) Token() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

func newTestServer(t *testing.T) (*httptest.Server, *storeGenerator) {
	t.Helper()
	store := state.NewStore()
	gen := &storeGenerator{store: store}
	srv := httptest.NewServer(NewDefaultMux("", APIV1Deps{
		Generator: gen,
		Results:   store,
		Fonts:     staticFonts{"Go", "Go Mono"},
	}))
	t.Cleanup(srv.Close)
	return srv, gen
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGenerateIsDebouncedByDefault(t *testing.T) {
	srv, gen := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/generate", `{"text":"Hi","speed":"7.5","bold":true}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	triggered := gen.triggers()
	require.Len(t, triggered, 1)
	cfg := triggered[0]
	assert.Equal(t, "Hi", cfg.Text)
	assert.Equal(t, 7.5, cfg.PixelsPerFrame)
	assert.True(t, cfg.Bold)
	assert.Equal(t, marquee.DefaultColor, cfg.Color)
}

func TestGenerateCoercesSpeed(t *testing.T) {
	cases := []struct {
		body string
		want float64
	}{
		{`{"speed":3}`, 3},
		{`{"speed":"fast"}`, marquee.DefaultPixelsPerFrame},
		{`{"speed":-4}`, marquee.DefaultPixelsPerFrame},
		{`{"speed":1000}`, marquee.MaxPixelsPerFrame},
		{`{"speed":null}`, marquee.DefaultPixelsPerFrame},
		{`{}`, marquee.DefaultPixelsPerFrame},
	}
	for _, tc := range cases {
		srv, gen := newTestServer(t)
		resp := postJSON(t, srv.URL+"/api/v1/generate", tc.body)
		require.Equal(t, http.StatusAccepted, resp.StatusCode, tc.body)
		triggered := gen.triggers()
		require.Len(t, triggered, 1)
		assert.Equal(t, tc.want, triggered[0].PixelsPerFrame, tc.body)
	}
}

func TestGenerateRejectsBadJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/v1/generate", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[apiError](t, resp)
	assert.Equal(t, "invalid_request", body.Error)
}

func TestGenerateWaitReturnsStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/generate?wait=1", `{"text":"Hello, World!"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[statusResponse](t, resp)
	assert.Equal(t, "ready", status.Phase)
	assert.Equal(t, uint64(1), status.Token)
	require.Len(t, status.Files, 1)
	assert.Equal(t, "hello-world.gif", status.Files[0].Name)
	assert.Equal(t, "/api/v1/results/1/0", status.Files[0].URL)
	assert.Equal(t, "/api/v1/results/1/0/qr", status.Files[0].QRURL)
	assert.Equal(t, 6, status.Files[0].Size)
}

func TestGenerateWaitReportsFailure(t *testing.T) {
	srv, gen := newTestServer(t)
	gen.mu.Lock()
	gen.err = assert.AnError
	gen.mu.Unlock()

	resp := postJSON(t, srv.URL+"/api/v1/generate?wait=true", `{}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	statusResp, err := http.Get(srv.URL + "/api/v1/status")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	status := decode[statusResponse](t, statusResp)
	assert.Equal(t, "error", status.Phase)
	assert.Equal(t, assert.AnError.Error(), status.Error)
	assert.Empty(t, status.Files)
}

func TestDownloadAndSupersession(t *testing.T) {
	srv, _ := newTestServer(t)
	postJSON(t, srv.URL+"/api/v1/generate?wait=1", `{"text":"first"}`)

	resp, err := http.Get(srv.URL + "/api/v1/results/1/0")
	require.NoError(t, err)
	data := new(bytes.Buffer)
	_, _ = data.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=first.gif`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "GIF89a", data.String())

	postJSON(t, srv.URL+"/api/v1/generate?wait=1", `{"text":"second"}`)

	resp, err = http.Get(srv.URL + "/api/v1/results/1/0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/results/2/0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDownloadBadPath(t *testing.T) {
	srv, _ := newTestServer(t)
	for path, want := range map[string]int{
		"/api/v1/results/abc/0": http.StatusBadRequest,
		"/api/v1/results/1/x":   http.StatusBadRequest,
		"/api/v1/results/1/0":   http.StatusNotFound,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestQRCodeEncodesDownloadURL(t *testing.T) {
	srv, _ := newTestServer(t)
	postJSON(t, srv.URL+"/api/v1/generate?wait=1", `{"text":"qr"}`)

	resp, err := http.Get(srv.URL + "/api/v1/results/1/0/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, defaultQRSize, img.Bounds().Dx())

	resp, err = http.Get(srv.URL + "/api/v1/results/9/0/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAbsoluteURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://marquee.local:8080/api/v1/status", nil)
	assert.Equal(t, "http://marquee.local:8080/api/v1/results/1/0", absoluteURL(r, downloadPath(1, 0)))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://marquee.local:8080/x", absoluteURL(r, "/x"))
}

func TestFontsAndMethods(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/fonts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, []string{"Go", "Go Mono"}, decode[[]string](t, resp))

	resp2, err := http.Get(srv.URL + "/api/v1/generate")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)

	resp3 := postJSON(t, srv.URL+"/api/v1/status", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp3.StatusCode)
}

func TestEmbeddedUIServed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := new(bytes.Buffer)
	_, _ = body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "/api/v1/generate")
}

func TestDevCORS(t *testing.T) {
	handler := WithDevCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv(EnvListenAddr, "")
	t.Setenv(EnvDevMode, "")
	cfg, err := ServerConfigFromEnv(ServerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.False(t, cfg.DevMode)

	t.Setenv(EnvListenAddr, "127.0.0.1:9000")
	t.Setenv(EnvDevMode, "true")
	cfg, err = ServerConfigFromEnv(ServerConfig{ListenAddr: ":1"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.True(t, cfg.DevMode)

	t.Setenv(EnvDevMode, "maybe")
	_, err = ServerConfigFromEnv(ServerConfig{})
	assert.Error(t, err)
}
