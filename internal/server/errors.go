// Package server provides the HTTP API for post generation, compliance checks and
// live progress delivery.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/medcontent/internal/pipeline"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string                `json:"error"`
	Stage  string                `json:"stage,omitempty"`
	Fields []pipeline.FieldError `json:"fields,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *pipeline.ValidationError
		upstreamErr   *pipeline.UpstreamGenerationError
		persistErr    *pipeline.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// newErrorBody builds the response body for err. Internal causes stay in the logs.
func newErrorBody(err error) errorBody {
	body := errorBody{}

	var pErr *pipeline.Error
	if errors.As(err, &pErr) {
		body.Stage = string(pErr.Stage)
	}

	var validationErr *pipeline.ValidationError
	switch status := HTTPStatus(err); {
	case errors.As(err, &validationErr):
		body.Error = validationErr.Error()
		body.Fields = validationErr.Fields
	case status == http.StatusNotFound:
		body.Error = "post not found"
	case status == http.StatusBadGateway:
		body.Error = "content generation failed"
	default:
		body.Error = "internal error"
	}
	return body
}
