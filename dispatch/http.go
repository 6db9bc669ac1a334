package dispatch

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/remotedom/remotedom/response"
)

const contentTypeJSON = "application/json"

// writeBody renders resp and writes it with the given status. Output is
// gzip-compressed when the config enables it and the client accepts it.
func (d *Dispatcher) writeBody(w http.ResponseWriter, r *http.Request, resp *response.Response, status int) error {
	body, err := resp.Render()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)

		return fmt.Errorf("render response: %w", err)
	}

	w.Header().Set("Content-Type", d.contentType())

	var out io.Writer = w
	if d.compressible(r) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		out = gz
	} else {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}

	w.WriteHeader(status)
	if _, err := io.WriteString(out, body); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// writeErrorBody reports a dispatch-level failure. With ErrorReporting on
// the client gets an exception command to surface; otherwise the status
// code stands alone.
func (d *Dispatcher) writeErrorBody(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if !d.cfg.ErrorReporting {
		w.WriteHeader(status)

		return
	}

	resp := response.New()
	resp.Exception(msg)
	_ = d.writeBody(w, r, resp, status)
}

func (d *Dispatcher) contentType() string {
	if d.cfg.Encoding == "" {
		return contentTypeJSON
	}

	return contentTypeJSON + "; charset=" + d.cfg.Encoding
}

func (d *Dispatcher) compressible(r *http.Request) bool {
	return d.cfg.Compress && strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}
