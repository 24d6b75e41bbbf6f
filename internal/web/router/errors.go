package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/creatorbridge/creatorbridge/internal/apply"
	"github.com/creatorbridge/creatorbridge/internal/host"
	"github.com/creatorbridge/creatorbridge/internal/propgraph"
	"github.com/creatorbridge/creatorbridge/internal/tools"
	"github.com/creatorbridge/creatorbridge/internal/web/response"
	"github.com/creatorbridge/creatorbridge/internal/wsbridge"
)

// ErrorHandler provides default error handlers
type ErrorHandler struct {
	// Include detailed errors in responses (disable in production)
	ShowDetails bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(showDetails bool) *ErrorHandler {
	return &ErrorHandler{
		ShowDetails: showDetails,
	}
}

// NotFoundHandler returns a handler for 404 Not Found errors
func (eh *ErrorHandler) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var details map[string]any
		if eh.ShowDetails {
			details = map[string]any{"path": r.URL.Path, "method": r.Method}
		}
		response.RenderErrorWithDetails(w, http.StatusNotFound,
			errors.New("the requested resource was not found"), "not_found", details)
	}
}

// MethodNotAllowedHandler returns a handler for 405 Method Not Allowed errors
func (eh *ErrorHandler) MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.RenderMethodNotAllowed(w)
	}
}

// classify maps an engine or transport error to a status and error code.
// A partial set is checked before the sentinels because it wraps the
// per-path failures.
func classify(err error) (int, string) {
	var (
		setErr *apply.SetError
		argErr *tools.ArgumentError
		reqErr *host.RequestError
	)
	switch {
	case errors.As(err, &setErr):
		return http.StatusUnprocessableEntity, "set_failed"
	case errors.As(err, &argErr):
		return http.StatusBadRequest, "invalid_arguments"
	case errors.Is(err, propgraph.ErrCountMismatch):
		return http.StatusBadRequest, "count_mismatch"
	case errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound, "unknown_tool"
	case errors.Is(err, propgraph.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, propgraph.ErrReferenceTypeMismatch):
		return http.StatusUnprocessableEntity, "reference_type_mismatch"
	case errors.Is(err, propgraph.ErrImporterNotHandled):
		return http.StatusUnprocessableEntity, "importer_not_handled"
	case errors.Is(err, propgraph.ErrSchemaMissing),
		errors.Is(err, propgraph.ErrIndexOutOfBounds),
		errors.Is(err, propgraph.ErrInvalidSegment):
		return http.StatusUnprocessableEntity, "invalid_path"
	case errors.Is(err, wsbridge.ErrNoEditor), errors.Is(err, wsbridge.ErrDisconnected):
		return http.StatusServiceUnavailable, "editor_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "editor_timeout"
	case errors.As(err, &reqErr), errors.Is(err, propgraph.ErrParse):
		return http.StatusBadGateway, "editor_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// RenderToolError renders err with the status classify assigns. A partial
// set lists its failing paths in the details.
func RenderToolError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	var details map[string]any
	var setErr *apply.SetError
	if errors.As(err, &setErr) {
		failures := make([]map[string]string, 0, len(setErr.Failures))
		for _, f := range setErr.Failures {
			failures = append(failures, map[string]string{"path": f.Path, "error": f.Err.Error()})
		}
		details = map[string]any{"instance": setErr.Instance, "failures": failures}
	}
	response.RenderErrorWithDetails(w, status, err, code, details)
}
