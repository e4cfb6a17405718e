package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/veracify/veracify/internal/intake"
	"github.com/veracify/veracify/internal/model"
	"github.com/veracify/veracify/internal/review"
)

// Verifier runs the verification pipeline for one claim.
type Verifier interface {
	Verify(ctx context.Context, claim string) (model.VerificationResult, error)
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	verifier       Verifier
	queue          *review.Queue
	maxClaimLength int
	searchProvider string
	searchKeySet   bool
	logger         *slog.Logger
}

// HandlersDeps bundles the dependencies for NewHandlers.
type HandlersDeps struct {
	Verifier       Verifier
	Queue          *review.Queue
	MaxClaimLength int
	SearchProvider string
	SearchKeySet   bool
	Logger         *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(deps HandlersDeps) *Handlers {
	return &Handlers{
		verifier:       deps.Verifier,
		queue:          deps.Queue,
		maxClaimLength: deps.MaxClaimLength,
		searchProvider: deps.SearchProvider,
		searchKeySet:   deps.SearchKeySet,
		logger:         deps.Logger,
	}
}

// HandleHealth responds to GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}

// HandleStatus responds to GET /status with the configured search setup.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	keyState := "not configured"
	if h.searchKeySet {
		keyState = "configured"
	}
	writeJSON(w, http.StatusOK, model.StatusResponse{
		Status:         "ok",
		SearchProvider: h.searchProvider,
		SearchAPIKey:   keyState,
	})
}

// HandleVerify responds to POST /verify. Intake failures map to 400,
// fatal pipeline failures to 503. Ambiguous results are queued for human
// review before the response is written.
func (h *Handlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := intake.Validate(req.Claim, h.maxClaimLength)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.verifier.Verify(r.Context(), claim)
	if err != nil {
		h.logger.Error("verification pipeline failed", "error", err,
			"request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusServiceUnavailable, "verification temporarily unavailable")
		return
	}

	if result.RequiresReview && result.ClaimID != "" {
		h.queue.Put(result.ClaimID, model.PendingReview{
			Claim:     claim,
			Verdict:   result.Verdict,
			Reasoning: result.Reasoning,
			Citations: result.Citations,
			CreatedAt: time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleListReviews responds to GET /pending_reviews.
func (h *Handlers) HandleListReviews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.PendingReviewsResponse{ClaimIDs: h.queue.IDs()})
}

// HandleGetReview responds to GET /pending_reviews/{id}.
func (h *Handlers) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := h.queue.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "claim not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleReview responds to POST /review/{id}: applies the reviewer's
// decision and removes the record from the queue.
func (h *Handlers) HandleReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req model.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Verdict != nil && !model.ValidVerdict(*req.Verdict) {
		writeError(w, http.StatusBadRequest, "unknown verdict")
		return
	}

	rec, ok := h.queue.Resolve(id, req.Verdict, req.Reasoning)
	if !ok {
		writeError(w, http.StatusNotFound, "claim not found")
		return
	}
	h.logger.Info("review resolved", "claim_id", id, "verdict", rec.Verdict)
	writeJSON(w, http.StatusOK, model.ReviewResponse{Status: "ok"})
}
