package handlers

import (
	"errors"
	"net/http"

	"coverage-route-server/editor"
	"coverage-route-server/models"
	"coverage-route-server/routing"
	"coverage-route-server/services"
	"coverage-route-server/storage"
)

const apiVersion = "v1"

// apiError maps service and domain errors to an HTTP status and error code
func apiError(err error) (int, *models.ApiError) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, storage.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, editor.ErrCancelled):
		status, code = http.StatusBadRequest, "cancelled"
	case errors.Is(err, editor.ErrInvalidSelection):
		status, code = http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, editor.ErrUnknownNode):
		status, code = http.StatusBadRequest, "unknown_node"
	case errors.Is(err, services.ErrUnknownCommand):
		status, code = http.StatusBadRequest, "unknown_command"
	case errors.Is(err, services.ErrInvalidRequest), errors.Is(err, storage.ErrInvalidName):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, editor.ErrNothingToUndo), errors.Is(err, editor.ErrNothingToRedo):
		status, code = http.StatusConflict, "empty_history"
	case errors.Is(err, routing.ErrNoRoutableComponent), errors.Is(err, routing.ErrMatchingFailed):
		status, code = http.StatusUnprocessableEntity, "unroutable"
	case errors.Is(err, services.ErrNoStreetIndex), errors.Is(err, editor.ErrNoSaver):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}
	return status, &models.ApiError{Code: code, Message: http.StatusText(status), Details: err.Error()}
}
