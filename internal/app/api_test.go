package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/marquee/internal/state"
	"github.com/rook-computer/marquee/internal/web"
)

type apiStatus struct {
	Phase string `json:"phase"`
	Token uint64 `json:"token"`
	Files []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"files"`
}

func newAPIServer(t *testing.T, debounce time.Duration) *httptest.Server {
	t.Helper()
	store := state.NewStore()
	orch := NewOrchestrator(context.Background(), newTestGenerator(&funcEncoder{fn: tileBytes}), store, debounce, nil)
	srv := httptest.NewServer(web.NewDefaultMux("", web.APIV1Deps{Generator: orch, Results: store}))
	t.Cleanup(func() {
		srv.Close()
		orch.Close()
	})
	return srv
}

func fetchStatus(t *testing.T, base string) apiStatus {
	t.Helper()
	resp, err := http.Get(base + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var s apiStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	return s
}

func submit(t *testing.T, base, body string) {
	t.Helper()
	resp, err := http.Post(base+"/api/v1/generate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

// The page polls until the phase leaves "generating", so a debounced
// request must read as generating from the moment it is accepted.
func TestDebouncedGenerateIsVisibleImmediately(t *testing.T) {
	srv := newAPIServer(t, 300*time.Millisecond)

	submit(t, srv.URL, `{"text":"first"}`)
	assert.Equal(t, "generating", fetchStatus(t, srv.URL).Phase)

	require.Eventually(t, func() bool {
		return fetchStatus(t, srv.URL).Phase == "ready"
	}, 3*time.Second, 20*time.Millisecond)
	settled := fetchStatus(t, srv.URL)
	assert.Equal(t, uint64(1), settled.Token)
	require.Len(t, settled.Files, 1)
	assert.Equal(t, "first.gif", settled.Files[0].Name)

	submit(t, srv.URL, `{"text":"edited"}`)
	pending := fetchStatus(t, srv.URL)
	assert.Equal(t, "generating", pending.Phase)

	require.Eventually(t, func() bool {
		return fetchStatus(t, srv.URL).Phase == "ready"
	}, 3*time.Second, 20*time.Millisecond)
	edited := fetchStatus(t, srv.URL)
	assert.Equal(t, uint64(2), edited.Token)
	require.Len(t, edited.Files, 1)
	assert.Equal(t, "edited.gif", edited.Files[0].Name)
}
