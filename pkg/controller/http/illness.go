package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
)

type listIllnessesResponse struct {
	Illnesses []model.Record `json:"illnesses"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Warn("failed to write response", logging.ErrAttr(err))
	}
}

func listIllnessesHandler(uc IllnessUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		records, err := uc.FetchOnce(ctx).Wait(ctx)
		if err != nil {
			handleError(w, r, goerr.Wrap(err, "request ended before illnesses were fetched", goerr.T(errs.TagTimeout)))
			return
		}
		if records == nil {
			handleError(w, r, goerr.Wrap(errs.ErrUnavailable, "fetch-once published no value", goerr.T(errs.TagUnavailable)))
			return
		}

		logging.From(ctx).Debug("illnesses fetched", "count", len(records))
		writeJSON(w, r, http.StatusOK, listIllnessesResponse{Illnesses: records})
	}
}
