package httptransport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	callermodels "callfile/internal/caller/models"
	consentmodels "callfile/internal/consent/models"
	"callfile/internal/platform/middleware"
	dErrors "callfile/pkg/domain-errors"
	"callfile/pkg/platform/httputil"
	"callfile/pkg/platform/sentinel"
)

// AdminHandler serves read-only views of caller records and consent history.
type AdminHandler struct {
	callers  CallerReader
	consents ConsentHistory
	logger   *slog.Logger
}

func NewAdminHandler(callers CallerReader, consents ConsentHistory, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{callers: callers, consents: consents, logger: logger}
}

func (h *AdminHandler) handleGetCaller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	phone, err := callermodels.ParsePhone(chi.URLParam(r, "phone"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid phone"))
		return
	}

	rec, err := h.callers.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "caller not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to read caller",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read caller"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

type consentListResponse struct {
	Phone    string                 `json:"phone"`
	Consents []consentmodels.Record `json:"consents"`
}

func (h *AdminHandler) handleListConsents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	phone, err := callermodels.ParsePhone(chi.URLParam(r, "phone"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid phone"))
		return
	}

	records, err := h.consents.History(ctx, phone)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list consents",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents"))
		return
	}
	if records == nil {
		records = []consentmodels.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, consentListResponse{Phone: phone, Consents: records})
}
