package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

// handleError maps goerr tags to a status code. Messages of server-side
// errors are not sent to the client.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	switch {
	case goerr.HasTag(err, errs.TagNotFound):
		logger.Warn("Not Found", "error", err)
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: err.Error()})

	case goerr.HasTag(err, errs.TagValidation), goerr.HasTag(err, errs.TagInvalidRequest):
		logger.Warn("Bad Request", "error", err)
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case goerr.HasTag(err, errs.TagUnavailable):
		errs.Handle(r.Context(), err)
		writeJSON(w, r, http.StatusServiceUnavailable, errorResponse{Error: errs.ErrUnavailable.Error()})

	case goerr.HasTag(err, errs.TagExternal):
		errs.Handle(r.Context(), err)
		writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: "upstream service failed"})

	case goerr.HasTag(err, errs.TagTimeout):
		errs.Handle(r.Context(), err)
		writeJSON(w, r, http.StatusGatewayTimeout, errorResponse{Error: "request timed out"})

	default:
		errs.Handle(r.Context(), err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
