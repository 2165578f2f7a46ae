package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"callfile/internal/conversation"
	"callfile/internal/platform/middleware"
	dErrors "callfile/pkg/domain-errors"
	"callfile/pkg/platform/httputil"
)

const maxSummaryBytes = 4 << 20

type CallHandler struct {
	calls  CallService
	logger *slog.Logger
}

func NewCallHandler(calls CallService, logger *slog.Logger) *CallHandler {
	return &CallHandler{calls: calls, logger: logger}
}

type startCallRequest struct {
	CallID string `json:"call_id"`
	Phone  string `json:"phone"`
}

type toolRequest struct {
	Phone string            `json:"phone"`
	Args  conversation.Args `json:"args"`
}

func (h *CallHandler) handleStartCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req startCallRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.CallID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "call_id is required"))
		return
	}

	start, err := h.calls.StartCall(ctx, conversation.CallContext{CallID: req.CallID, Phone: req.Phone})
	if err != nil {
		h.logFailure(ctx, "start call failed", req.CallID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, start)
}

func (h *CallHandler) handleTool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callID := chi.URLParam(r, "callID")
	tool := conversation.Tool(chi.URLParam(r, "tool"))

	var req toolRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.calls.Dispatch(ctx, conversation.CallContext{CallID: callID, Phone: req.Phone}, tool, req.Args)
	if err != nil {
		h.logFailure(ctx, "tool dispatch failed", callID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *CallHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callID := chi.URLParam(r, "callID")

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSummaryBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable summary body"))
		return
	}
	var summary json.RawMessage
	if len(raw) > 0 {
		if !json.Valid(raw) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "summary must be JSON"))
			return
		}
		summary = raw
	}

	if err := h.calls.EndCall(ctx, conversation.CallContext{CallID: callID}, summary); err != nil {
		h.logFailure(ctx, "end call failed", callID, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CallHandler) logFailure(ctx context.Context, msg, callID string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"call_id", callID,
		"error", err,
	)
}
