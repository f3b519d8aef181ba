package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/dftlab/internal/config"
	"github.com/JonMunkholm/dftlab/internal/core"
	"github.com/JonMunkholm/dftlab/internal/transform"
)

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newTestServer(t *testing.T, vars map[string]string) *Server {
	t.Helper()
	cfg := testConfig(t, vars)
	svc := core.NewService(core.Options{
		MaxFileSize:   cfg.Ingest.MaxFileSize,
		MaxConcurrent: cfg.Ingest.MaxConcurrent,
		MaxWait:       cfg.Ingest.MaxWait,
	})
	s := NewServer(svc, cfg)
	t.Cleanup(func() {
		svc.Close()
		s.Shutdown(context.Background())
	})
	return s
}

// ingestRequest builds a multipart upload. Empty fileName omits the file part.
func ingestRequest(t *testing.T, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

// computeResult runs the configured transform synchronously.
func computeResult(t *testing.T, s *Server) {
	t.Helper()
	r, err := transform.NewRunner(s.service.Workspace(), s.cfg.Transform.Flat, s.cfg.Transform.Grid)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Compute(s.service.Workspace().Snapshot()); err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestIngestAndExport(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, ingestRequest(t, "samples.txt", "1 2 3 4\n5,6,7,8", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, body = %s", rec.Code, rec.Body)
	}
	var in core.IngestResult
	if err := json.NewDecoder(rec.Body).Decode(&in); err != nil {
		t.Fatal(err)
	}
	if in.Count != 8 || in.Mode != core.ModeFlat || in.IngestID == "" {
		t.Errorf("ingest result = %+v", in)
	}

	computeResult(t, s)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", rec.Code, rec.Body)
	}
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("Content-Disposition: %v", err)
	}
	if params["filename"] != "dft_N8.txt" {
		t.Errorf("filename = %q, want dft_N8.txt", params["filename"])
	}
	if ct := rec.Header().Get("Content-Type"); ct != core.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}

	lines := strings.Split(rec.Body.String(), "\n")
	if len(lines) != 8 {
		t.Fatalf("export has %d lines, want 8", len(lines))
	}
	if lines[0] != "36.000000 0.0000" {
		t.Errorf("first line = %q, want DC term 36.000000 0.0000", lines[0])
	}
}

func TestExport_QueryOverrides(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, ingestRequest(t, "samples.txt", "1 1", nil))
	computeResult(t, s)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export?prefix=spec&real=2&imag=1&n=64", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	_, params, _ := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if params["filename"] != "spec_N64.txt" {
		t.Errorf("filename = %q, want spec_N64.txt", params["filename"])
	}
	if got := strings.Split(rec.Body.String(), "\n")[0]; got != "2.00 0.0" {
		t.Errorf("first line = %q, want %q", got, "2.00 0.0")
	}
}

func TestExport_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "EXP001" {
		t.Errorf("code = %q, want EXP001", code)
	}

	serve(s, ingestRequest(t, "samples.txt", "1 2", nil))
	computeResult(t, s)

	tests := []struct {
		query    string
		wantCode string
	}{
		{"real=x", "EXP002"},
		{"imag=99", "EXP002"},
		{"n=abc", "VAL009"},
		{"n=-3", "VAL009"},
	}
	for _, tt := range tests {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export?"+tt.query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.query, rec.Code)
			continue
		}
		if code := decodeError(t, rec).Code; code != tt.wantCode {
			t.Errorf("%s: code = %q, want %q", tt.query, code, tt.wantCode)
		}
	}
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported type",
			req:        func(t *testing.T) *http.Request { return ingestRequest(t, "samples.csv", "1 2", nil) },
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "FILE006",
		},
		{
			name:       "no numbers",
			req:        func(t *testing.T) *http.Request { return ingestRequest(t, "samples.txt", "abc def", nil) },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VAL007",
		},
		{
			name: "strict",
			req: func(t *testing.T) *http.Request {
				return ingestRequest(t, "samples.txt", "1 x", map[string]string{"strict": "true"})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VAL002",
		},
		{
			name: "unknown mode",
			req: func(t *testing.T) *http.Request {
				return ingestRequest(t, "samples.txt", "1", map[string]string{"mode": "cube"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VAL008",
		},
		{
			name:       "missing file",
			req:        func(t *testing.T) *http.Request { return ingestRequest(t, "", "", map[string]string{"mode": "flat"}) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := serve(s, tt.req(t))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if code := decodeError(t, rec).Code; code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if s.service.Workspace().Snapshot().FileExists {
				t.Error("failed ingest changed the workspace")
			}
		})
	}
}

func TestIngest_TooLarge(t *testing.T) {
	s := newTestServer(t, map[string]string{"INGEST_MAX_FILE_SIZE": "16"})

	rec := serve(s, ingestRequest(t, "samples.txt", strings.Repeat("1 ", 20), nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 (body %s)", rec.Code, rec.Body)
	}
	if code := decodeError(t, rec).Code; code != "FILE001" {
		t.Errorf("code = %q, want FILE001", code)
	}
}

func TestIngest_HTMXError(t *testing.T) {
	s := newTestServer(t, nil)
	req := ingestRequest(t, "samples.csv", "1", nil)
	req.Header.Set("HX-Request", "true")

	rec := serve(s, req)
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q, want html", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "FILE006") {
		t.Errorf("fragment = %s", rec.Body)
	}
}

func TestIngest_Grid(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, ingestRequest(t, "g.txt", "1, 2,3\n4  5", map[string]string{"mode": "grid"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	computeResult(t, s)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	var state struct {
		InputText   string `json:"input_text"`
		N           int    `json:"n"`
		HasResult   bool   `json:"has_result"`
		ResultShape string `json:"result_shape"`
		ResultLen   int    `json:"result_len"`
		Transform   string `json:"transform"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.InputText != "1,2,3;4,5,0" || state.N != 5 {
		t.Errorf("state input = %q n=%d", state.InputText, state.N)
	}
	if !state.HasResult || state.ResultShape != "grid" || state.ResultLen != 6 || state.Transform != transform.Forward2D {
		t.Errorf("state result = %+v", state)
	}

	// Six grid values, N stays the logical sample count.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	_, params, _ := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if params["filename"] != "dft_N5.txt" {
		t.Errorf("filename = %q, want dft_N5.txt", params["filename"])
	}
	if lines := strings.Split(rec.Body.String(), "\n"); len(lines) != 6 {
		t.Errorf("export has %d lines, want 6", len(lines))
	}
}

func TestTransforms(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/transforms", nil))

	var items []struct {
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	active := map[string]bool{}
	for _, it := range items {
		active[it.Name] = it.Active
	}
	if !active[transform.Forward] || !active[transform.Forward2D] || active[transform.Inverse] {
		t.Errorf("active transforms = %v", active)
	}
}

func TestPage(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "No file loaded") || !strings.Contains(body, `name="file"`) {
		t.Errorf("page missing upload form or empty state")
	}

	serve(s, ingestRequest(t, "a<b>.txt", "1 2 3 4", nil))
	computeResult(t, s)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/partials/state", nil))
	body = rec.Body.String()
	if !strings.Contains(body, "a&lt;b&gt;.txt") {
		t.Errorf("file name not escaped: %s", body)
	}
	if !strings.Contains(body, "dft_N4.txt") || !strings.Contains(body, "/api/export?") {
		t.Errorf("export link missing: %s", body)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, map[string]string{"RATE_LIMIT_REQUESTS_PER_MINUTE": "2"})

	for i := 0; i < 2; i++ {
		if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/state", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "RATE001" {
		t.Errorf("code = %q, want RATE001", code)
	}
}

func TestAPIKey(t *testing.T) {
	s := newTestServer(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "secret"})

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/state", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-API-Key", "wrong")
	if rec := serve(s, req); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", rec.Code)
	}

	// Health stays open.
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz: status = %d, want 200", rec.Code)
	}
}

func TestEvents(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	events := make(chan core.Snapshot, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			data, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var snap core.Snapshot
			if json.Unmarshal([]byte(data), &snap) == nil {
				events <- snap
			}
		}
		close(events)
	}()

	next := func() core.Snapshot {
		t.Helper()
		select {
		case snap, ok := <-events:
			if !ok {
				t.Fatal("stream ended")
			}
			return snap
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
		return core.Snapshot{}
	}

	if first := next(); first.FileExists {
		t.Errorf("initial snapshot = %+v, want empty", first)
	}

	if _, err := s.service.Ingest(context.Background(), core.IngestRequest{
		FileName: "a.txt", Body: strings.NewReader("3 4"),
	}); err != nil {
		t.Fatal(err)
	}
	if got := next(); got.InputText != "3,4" {
		t.Errorf("event InputText = %q, want 3,4", got.InputText)
	}
}

func TestHTTPDownloader_SingleUse(t *testing.T) {
	rec := httptest.NewRecorder()
	d := NewHTTPDownloader(rec)

	dl, err := d.Acquire("dft_N1.txt", core.ContentType, 4)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(dl, "1 0")
	if d.Sent() {
		t.Error("Sent before Trigger")
	}
	if err := dl.Trigger(); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	dl.Release()

	if !d.Sent() || rec.Body.String() != "1 0" || rec.Header().Get("Content-Length") != "3" {
		t.Errorf("response = %q headers %v", rec.Body, rec.Header())
	}
	if err := dl.Trigger(); err == nil {
		t.Error("second Trigger should fail")
	}
	if _, err := d.Acquire("again.txt", core.ContentType, 0); err == nil {
		t.Error("Acquire after send should fail")
	}
}
