// Package api holds what the REST handlers share.
package api

import (
	"net/http"

	"certificate-server/core"
	"certificate-server/editor"
	"certificate-server/session"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StatusFor maps an error to the HTTP status reported to clients.
func StatusFor(err error) int {
	if _, ok := core.IsValidationError(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidID),
		errors.Is(err, editor.ErrUnknownCommand), errors.Is(err, editor.ErrInvalidCommand):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteError logs err and writes it as an ErrorResponse. Internal errors are
// reported to the client as msg only.
func WriteError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: msg}

	log := logrus.WithError(err).WithField("path", r.URL.Path)
	switch status {
	case http.StatusInternalServerError:
		log.Error(msg)
	default:
		log.Warn(msg)
		resp.Error = err.Error()
	}

	if verr, ok := core.IsValidationError(err); ok {
		resp.Fields = make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			resp.Fields[f.Field] = f.Error
		}
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// BadRequest reports a body that could not be decoded.
func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	logrus.WithError(err).WithField("path", r.URL.Path).Warn("Failed to decode request")
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
}
