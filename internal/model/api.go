package model

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Claim string `json:"claim"`
}

// ErrorResponse is the body of any non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status         string `json:"status"`
	SearchProvider string `json:"search_provider"`
	SearchAPIKey   string `json:"search_api_key"` // "configured" or "not configured"
}

// PendingReviewsResponse is the body of GET /pending_reviews.
type PendingReviewsResponse struct {
	ClaimIDs []string `json:"claim_ids"`
}

// ReviewRequest is the body of POST /review/{id}. Both fields are optional;
// when set they override the stored verdict/reasoning before the record is
// removed from the queue.
type ReviewRequest struct {
	Verdict   *string `json:"verdict,omitempty"`
	Reasoning *string `json:"reasoning,omitempty"`
}

// ReviewResponse is the body of a successful POST /review/{id}.
type ReviewResponse struct {
	Status string `json:"status"`
}
