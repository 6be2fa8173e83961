package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rook-computer/marquee/internal/marquee"
	"github.com/rook-computer/marquee/internal/render"
	"github.com/rook-computer/marquee/internal/state"
)

const maxRequestBytes = 64 << 10

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type fileResponse struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	QRURL string `json:"qrUrl"`
	Size  int    `json:"size"`
}

type statusResponse struct {
	Phase        string         `json:"phase"`
	Token        uint64         `json:"token"`
	Error        string         `json:"error,omitempty"`
	FrameCount   int            `json:"frameCount,omitempty"`
	FrameDelayMs int            `json:"frameDelayMs,omitempty"`
	Files        []fileResponse `json:"files"`
}

// generateRequest mirrors the UI form. Fields left out keep their defaults.
type generateRequest struct {
	Text       *string     `json:"text"`
	Color      *string     `json:"color"`
	Font       *string     `json:"font"`
	Bold       bool        `json:"bold"`
	Continuous bool        `json:"continuous"`
	Speed      *speedValue `json:"speed"`
	Slack      bool        `json:"slack"`
	Offset     bool        `json:"offset"`
}

// speedValue accepts a JSON number or a string; form inputs send either.
type speedValue float64

func (s *speedValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = speedValue(marquee.DefaultPixelsPerFrame)
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		raw = str
	}
	*s = speedValue(marquee.ParseSpeed(raw))
	return nil
}

func (req generateRequest) config() marquee.RenderConfig {
	cfg := marquee.DefaultRenderConfig()
	if req.Text != nil {
		cfg.Text = *req.Text
	}
	if req.Color != nil {
		cfg.Color = *req.Color
	}
	if req.Font != nil {
		cfg.FontFamily = *req.Font
	}
	if req.Speed != nil {
		cfg.PixelsPerFrame = float64(*req.Speed)
	}
	cfg.Bold = req.Bold
	cfg.Continuous = req.Continuous
	cfg.SlackMode = req.Slack
	cfg.OffsetMode = req.Offset
	return cfg.Normalize()
}

func apiV1Router(deps APIV1Deps) http.Handler {
	deps = deps.withDefaults()
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) { handleGenerate(w, r, deps) })
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { handleStatus(w, r, deps) })
	mux.HandleFunc("/fonts", func(w http.ResponseWriter, r *http.Request) { handleFonts(w, r, deps) })
	mux.HandleFunc("/results/{token}/{index}", func(w http.ResponseWriter, r *http.Request) { handleDownload(w, r, deps) })
	mux.HandleFunc("/results/{token}/{index}/qr", func(w http.ResponseWriter, r *http.Request) { handleQRCode(w, r, deps) })
	return mux
}

func handleGenerate(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var req generateRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	cfg := req.config()

	if !queryBool(r, "wait") {
		deps.Generator.Trigger(cfg)
		writeJSON(w, http.StatusAccepted, okResponse{OK: true})
		return
	}

	// The batch runs on regardless; the request context only bounds the wait.
	if _, err := deps.Generator.Run(r.Context(), cfg); err != nil {
		if r.Context().Err() != nil {
			return
		}
		if errors.Is(err, state.ErrStale) {
			writeAPIError(w, http.StatusConflict, "superseded", err.Error())
			return
		}
		deps.Logger.Errorf("api", "generate failed: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "generate_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, buildStatus(deps.Results.Snapshot()))
}

func handleStatus(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, buildStatus(deps.Results.Snapshot()))
}

func buildStatus(snap state.State) statusResponse {
	resp := statusResponse{
		Phase: snap.Phase.String(),
		Token: snap.Token,
		Error: snap.Err,
		Files: []fileResponse{},
	}
	if rs := snap.Current; rs != nil {
		resp.FrameCount = rs.FrameCount
		resp.FrameDelayMs = rs.FrameDelayMs
		for i, f := range rs.Files() {
			url := downloadPath(rs.Token, i)
			resp.Files = append(resp.Files, fileResponse{
				Name:  f.Name,
				URL:   url,
				QRURL: url + "/qr",
				Size:  len(f.Data),
			})
		}
	}
	return resp
}

func handleFonts(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	families := deps.Fonts.Families()
	if families == nil {
		families = []string{}
	}
	writeJSON(w, http.StatusOK, families)
}

func handleDownload(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	file, ok := lookupFile(w, r, deps)
	if !ok {
		return
	}
	setDownloadHeaders(w, file.Name, "image/gif")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, file.Name, time.Time{}, bytes.NewReader(file.Data))
}

func handleQRCode(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if _, ok := lookupFile(w, r, deps); !ok {
		return
	}
	token, _ := strconv.ParseUint(r.PathValue("token"), 10, 64)
	index, _ := strconv.Atoi(r.PathValue("index"))

	png, err := render.QRCodePNG(absoluteURL(r, downloadPath(token, index)), deps.QRSize)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "qr_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// lookupFile resolves the {token}/{index} path values. Anything that is not
// the displayed set (superseded, released, never existed) is a 404.
func lookupFile(w http.ResponseWriter, r *http.Request, deps APIV1Deps) (state.File, bool) {
	token, err := strconv.ParseUint(r.PathValue("token"), 10, 64)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_token", "token must be an unsigned integer")
		return state.File{}, false
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return state.File{}, false
	}

	file, err := deps.Results.Lookup(token, index)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) || errors.Is(err, state.ErrReleased) {
			writeAPIError(w, http.StatusNotFound, "result_not_found", "result not found or superseded")
			return state.File{}, false
		}
		writeAPIError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		return state.File{}, false
	}
	return file, true
}

func downloadPath(token uint64, index int) string {
	return fmt.Sprintf("/api/v1/results/%d/%d", token, index)
}

// absoluteURL prefixes path with the scheme and host the client used.
func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	return scheme + "://" + host + path
}

func queryBool(r *http.Request, key string) bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

func setDownloadHeaders(w http.ResponseWriter, filename, contentType string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	cd := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	w.Header().Set("Content-Disposition", cd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
