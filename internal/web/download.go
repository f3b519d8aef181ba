package web

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/dftlab/internal/core"
)

var errAlreadySent = errors.New("download already sent")

// HTTPDownloader delivers an export as an attachment on one response.
// Content is buffered until Trigger so a failed export can still be reported
// as an error response.
type HTTPDownloader struct {
	w    http.ResponseWriter
	sent bool
}

// NewHTTPDownloader wraps w. It can deliver a single download.
func NewHTTPDownloader(w http.ResponseWriter) *HTTPDownloader {
	return &HTTPDownloader{w: w}
}

// Sent reports whether headers have been written to the response.
func (d *HTTPDownloader) Sent() bool { return d.sent }

// Acquire starts buffering a file called name.
func (d *HTTPDownloader) Acquire(name, contentType string, size int) (core.Download, error) {
	if d.sent {
		return nil, errAlreadySent
	}
	return &httpDownload{
		parent:      d,
		name:        name,
		contentType: contentType,
		buf:         bytes.NewBuffer(make([]byte, 0, size)),
	}, nil
}

type httpDownload struct {
	parent      *HTTPDownloader
	name        string
	contentType string
	buf         *bytes.Buffer
}

func (d *httpDownload) Write(p []byte) (int, error) {
	if d.buf == nil {
		return 0, errAlreadySent
	}
	return d.buf.Write(p)
}

// Trigger writes the attachment headers and the buffered body.
func (d *httpDownload) Trigger() error {
	if d.parent.sent || d.buf == nil {
		return errAlreadySent
	}
	h := d.parent.w.Header()
	h.Set("Content-Type", d.contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.name}))
	h.Set("Content-Length", strconv.Itoa(d.buf.Len()))
	h.Set("Cache-Control", "no-store")

	d.parent.sent = true
	d.parent.w.WriteHeader(http.StatusOK)
	_, err := d.buf.WriteTo(d.parent.w)
	return err
}

// Release drops the buffer.
func (d *httpDownload) Release() error {
	d.buf = nil
	return nil
}
