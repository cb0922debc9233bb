// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package review

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"relaycrm/governance/shared/logger"
)

// Handler exposes the review queue over HTTP.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a review HTTP handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.New("review-api")
	}
	return &Handler{service: service, log: log}
}

// RegisterHandlers mounts the review API on a router.
func RegisterHandlers(router *mux.Router, service *Service, log *logger.Logger) {
	h := NewHandler(service, log)

	router.HandleFunc("/api/v1/reviews", h.HandleSubmit).Methods("POST")
	router.HandleFunc("/api/v1/reviews", h.HandleList).Methods("GET")
	router.HandleFunc("/api/v1/reviews/stats", h.HandleStats).Methods("GET")
	router.HandleFunc("/api/v1/reviews/{id}", h.HandleGet).Methods("GET")
	router.HandleFunc("/api/v1/reviews/{id}/history", h.HandleHistory).Methods("GET")
	router.HandleFunc("/api/v1/reviews/{id}/approve", h.HandleApprove).Methods("POST")
	router.HandleFunc("/api/v1/reviews/{id}/reject", h.HandleReject).Methods("POST")
}

// HandleSubmit queues output for review.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var params SubmitParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.SubmitForReview(r.Context(), params)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorWithErr("", params.UserID, "review submission failed", err, nil)
		h.respondError(w, http.StatusInternalServerError, "failed to submit review")
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// HandleList returns queue items filtered by query parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := QueueFilter{
		Status:   Status(q.Get("status")),
		Priority: Priority(q.Get("priority")),
		UserID:   q.Get("user_id"),
		AgentID:  q.Get("agent_id"),
	}

	items, err := h.service.ListQueue(r.Context(), filter)
	if err != nil {
		h.log.ErrorWithErr("", "", "review list failed", err, nil)
		h.respondError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	if items == nil {
		items = []*Item{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// HandleGet returns one item.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "review item not found")
			return
		}
		h.log.ErrorWithErr("", "", "review get failed", err, nil)
		h.respondError(w, http.StatusInternalServerError, "failed to get review")
		return
	}
	h.respondJSON(w, http.StatusOK, item)
}

// HandleHistory returns an item's lifecycle events.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entries, err := h.service.GetHistory(r.Context(), id)
	if err != nil {
		h.log.ErrorWithErr("", "", "review history failed", err, nil)
		h.respondError(w, http.StatusInternalServerError, "failed to get history")
		return
	}
	if entries == nil {
		entries = []*HistoryEntry{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

type decisionRequest struct {
	ReviewerID   string  `json:"reviewer_id"`
	Notes        string  `json:"notes,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	EditedOutput *string `json:"edited_output,omitempty"`
}

// HandleApprove approves a pending item.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decision, err := h.service.ApproveReview(r.Context(), id, req.ReviewerID, req.Notes, req.EditedOutput)
	h.respondDecision(w, decision, err)
}

// HandleReject rejects a pending item.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decision, err := h.service.RejectReview(r.Context(), id, req.ReviewerID, req.Reason)
	h.respondDecision(w, decision, err)
}

// HandleStats returns queue statistics.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.log.ErrorWithErr("", "", "review stats failed", err, nil)
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// respondDecision maps decision outcomes to status codes: conflicts for
// already-decided items, 404 for unknown ids.
func (h *Handler) respondDecision(w http.ResponseWriter, decision *Decision, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.respondError(w, http.StatusNotFound, "review item not found")
	case errors.Is(err, ErrReasonRequired):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.log.ErrorWithErr("", "", "review decision failed", err, nil)
		h.respondError(w, http.StatusInternalServerError, "failed to record decision")
	case !decision.Success:
		h.respondJSON(w, http.StatusConflict, decision)
	default:
		h.respondJSON(w, http.StatusOK, decision)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.ErrorWithErr("", "", "failed to encode response", err, nil)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]string{"error": message})
}
