package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/foodweb/pkg/core/web"
	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/render"
	"github.com/matzehuels/foodweb/pkg/session"
)

type errorBody struct {
	Error struct {
		Code    errs.Code `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

// StatusCode maps an error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrExpired):
		return http.StatusGone
	case errs.IsNotFound(err):
		return http.StatusNotFound
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidGraph,
		errs.ErrCodeInvalidNode, errs.ErrCodeInvalidLink, errs.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errs.ErrCodeConflict:
		return http.StatusConflict
	case errs.ErrCodeForbidden:
		return http.StatusForbidden
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	var body errorBody
	body.Error.Code = errs.GetCode(err)
	body.Error.Message = errs.UserMessage(err)

	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
		body.Error.Code = errs.ErrCodeSessionNotFound
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		body.Error.Code = errs.ErrCodeInternal
		body.Error.Message = "internal error"
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid request body: %v", err)
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return v, nil
}

func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errs.New(errs.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return v, nil
}

func uintQuery(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return v, nil
}

// linkError converts a store guard error to a coded error.
func linkError(source, target int, err error) error {
	code := errs.ErrCodeInvalidLink
	switch {
	case errors.Is(err, web.ErrUnknownNode):
		code = errs.ErrCodeNodeNotFound
	case errors.Is(err, web.ErrUnknownLink):
		code = errs.ErrCodeLinkNotFound
	case errors.Is(err, web.ErrDuplicateLink), errors.Is(err, web.ErrBidirectionalLink):
		code = errs.ErrCodeConflict
	}
	return errs.Wrap(code, err, "link %d->%d: %v", source, target, err)
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatPDF: "application/pdf",
	"json":           "application/json",
}

func writeArtifact(w http.ResponseWriter, format string, data []byte, cached bool) {
	ct, ok := contentTypes[format]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Header().Set("X-Cache", cacheHeader(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
