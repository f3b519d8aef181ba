package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/dftlab/internal/core"
	"github.com/JonMunkholm/dftlab/internal/logging"
	"github.com/JonMunkholm/dftlab/internal/transform"
	"github.com/JonMunkholm/dftlab/internal/web/templates"
)

var (
	// errNoFile is matched by core.MapError through its text.
	errNoFile = errors.New("no file provided")

	errInvalidField = errors.New("invalid form field")
)

// multipartOverhead is allowed on top of the file size limit for form fields
// and part headers.
const multipartOverhead = 1 << 20

// sseKeepAlive is how often an idle event stream gets a comment line.
const sseKeepAlive = 25 * time.Second

// stateResponse is the JSON view of the workspace.
type stateResponse struct {
	core.Snapshot
	HasResult   bool               `json:"has_result"`
	ResultShape string             `json:"result_shape,omitempty"`
	ResultLen   int                `json:"result_len"`
	FileName    string             `json:"export_file_name,omitempty"`
	Limiter     core.LimiterStatus `json:"limiter"`
}

func (s *Server) state() stateResponse {
	snap := s.service.Workspace().Snapshot()
	resp := stateResponse{
		Snapshot:  snap,
		HasResult: snap.HasResult(),
		ResultLen: snap.Result.Len(),
		Limiter:   s.service.LimiterStatus(),
	}
	if resp.HasResult {
		resp.ResultShape = snap.Result.Shape.String()
		resp.FileName = core.FileName(s.cfg.Export.Prefix, snap.N)
	}
	return resp
}

func (s *Server) pageData() templates.PageData {
	var names []string
	for _, def := range transform.All() {
		names = append(names, def.Name)
	}
	return templates.PageData{
		Snapshot:    s.service.Workspace().Snapshot(),
		Prefix:      s.cfg.Export.Prefix,
		Precision:   s.defaultPrecision(),
		Transforms:  names,
		MaxFileSize: s.service.MaxFileSize(),
	}
}

func (s *Server) defaultPrecision() core.Precision {
	return core.Precision{Real: s.cfg.Export.RealDigits, Imag: s.cfg.Export.ImagDigits}
}

// handlePage renders the lab page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(s.pageData()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleStatePartial renders the state section for the page script.
func (s *Server) handleStatePartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.State(s.pageData()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render state", "error", err)
	}
}

// handleHealth reports liveness and ingest slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"limiter": s.service.LimiterStatus(),
	})
}

// handleIngest accepts a multipart .txt upload and publishes it.
//
// Form fields: file (required), mode (flat|grid), strict (bool).
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			err = fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		respondError(w, r, err, statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	req := core.IngestRequest{
		FileName: header.Filename,
		Body:     file,
		Mode:     core.Mode(r.FormValue("mode")),
	}
	if v := r.FormValue("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("strict %q: %w", v, errInvalidField), http.StatusBadRequest)
			return
		}
		req.Strict = &strict
	}

	res, err := s.service.Ingest(r.Context(), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// handleState returns the current workspace snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.state())
}

// handleTransforms lists registered transforms.
func (s *Server) handleTransforms(w http.ResponseWriter, r *http.Request) {
	type item struct {
		Name    string    `json:"name"`
		Label   string    `json:"label"`
		Accepts core.Mode `json:"accepts"`
		Active  bool      `json:"active"`
	}
	defs := transform.All()
	out := make([]item, 0, len(defs))
	for _, def := range defs {
		out = append(out, item{
			Name:    def.Name,
			Label:   def.Label,
			Accepts: def.Accepts,
			Active:  def.Name == s.cfg.Transform.Flat || def.Name == s.cfg.Transform.Grid,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleExport downloads the current result.
//
// Query: prefix, real, imag (decimal places) and n (the N in the file name,
// defaulting to the workspace sample count).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := core.ExportOptions{
		Prefix:    s.cfg.Export.Prefix,
		Precision: s.defaultPrecision(),
	}
	if v := q.Get("prefix"); v != "" {
		opts.Prefix = v
	}

	var err error
	if opts.Precision.Real, err = digitsParam(q.Get("real"), opts.Precision.Real); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if opts.Precision.Imag, err = digitsParam(q.Get("imag"), opts.Precision.Imag); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if v := q.Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, fmt.Errorf("n %q: %w", v, core.ErrInvalidSizeLabel), http.StatusBadRequest)
			return
		}
		opts.SizeLabel = n
	}

	dl := NewHTTPDownloader(w)
	if _, err := s.service.Export(r.Context(), dl, opts); err != nil {
		if dl.Sent() {
			logging.FromContext(r.Context()).Error("export interrupted", "error", err)
			return
		}
		respondError(w, r, err, statusFor(err))
	}
}

func digitsParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("digits %q: %w", v, core.ErrInvalidPrecision)
	}
	return n, nil
}

// handleEvents streams workspace snapshots as Server-Sent Events.
// Each event carries the snapshot revision as its id.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	updates, cancel := s.service.Workspace().Subscribe(8)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	log := logging.FromContext(r.Context())
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case snap, ok := <-updates:
			if !ok {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				log.Error("encode snapshot", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Revision, data)
			flusher.Flush()
		}
	}
}
