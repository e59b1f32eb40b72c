// Package http provides HTTP server and handler implementations.
//
// This file holds the JSON response shapes and the helpers that write them.
// Every error uses the same body: {"message": "...", "errorCode": "..."}.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"subrecommend/internal/core"
)

// Error codes returned in errorResponse.ErrorCode.
const (
	codeInvalidRequest    = "INVALID_REQUEST"
	codeValidation        = "VALIDATION_ERROR"
	codeMissingUserID     = "MISSING_USER_ID"
	codeNotFound          = "NOT_FOUND"
	codePublish           = "PUBLISH_ERROR"
	codeInternal          = "INTERNAL_ERROR"
	codeRecommendation    = "RECOMMENDATION_ERROR"
	codeCategory          = "CATEGORY_ERROR"
	codeSubscription      = "SUBSCRIPTION_ERROR"
	codeRateLimited       = "RATE_LIMITED"
	codeSuspiciousRequest = "SUSPICIOUS_REQUEST"
	codeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	codeNotReady          = "NOT_READY"
)

type (
	errorResponse struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	}

	statusResponse struct {
		Status string `json:"status"`
	}

	readyResponse struct {
		Status  string        `json:"status"`
		Metrics serverMetrics `json:"metrics"`
	}

	serverMetrics struct {
		TotalRequests      int64 `json:"totalRequests"`
		ServerErrors       int64 `json:"serverErrors"`
		LastResponseTimeUs int64 `json:"lastResponseTimeUs"`
		SuspiciousRequests int64 `json:"suspiciousRequests"`
		BlockedRequests    int64 `json:"blockedRequests"`
		RateLimited        int64 `json:"rateLimited"`
	}

	spendingResponse struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Category  string          `json:"category"`
		Amount    decimal.Decimal `json:"amount"`
		Date      string          `json:"date"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	topSpendingResponse struct {
		UserID        string          `json:"userId"`
		TopCategory   string          `json:"topCategory"`
		TotalSpending decimal.Decimal `json:"totalSpending"`
	}

	recommendationResponse struct {
		CategoryName  string `json:"categoryName"`
		CategoryImage string `json:"categoryImage"`
	}

	categoryResponse struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	}

	subscriptionSummaryResponse struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Logo        string          `json:"logo"`
	}

	subscriptionDetailResponse struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Logo        string          `json:"logo"`
		MaxSharing  int             `json:"maxSharing"`
	}
)

func newSpendingResponse(rec core.SpendingRecord) spendingResponse {
	return spendingResponse{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Category:  rec.Category,
		Amount:    rec.Amount,
		Date:      rec.Date.String(),
		CreatedAt: rec.CreatedAt,
	}
}

func newSpendingListResponse(records []core.SpendingRecord) []spendingResponse {
	out := make([]spendingResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, newSpendingResponse(rec))
	}
	return out
}

func newTopSpendingResponse(v core.TopSpendingView) topSpendingResponse {
	return topSpendingResponse{
		UserID:        v.UserID,
		TopCategory:   v.TopCategory,
		TotalSpending: v.TotalSpending,
	}
}

func newCategoryListResponse(categories []core.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{Name: c.Name, Image: c.Image})
	}
	return out
}

func newSubscriptionListResponse(subs []core.Subscription) []subscriptionSummaryResponse {
	out := make([]subscriptionSummaryResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, subscriptionSummaryResponse{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Price:       s.Price,
			Logo:        s.Logo,
		})
	}
	return out
}

func newSubscriptionDetailResponse(s core.Subscription) subscriptionDetailResponse {
	return subscriptionDetailResponse{
		ID:          s.ID,
		Name:        s.Name,
		Category:    s.Category,
		Description: s.Description,
		Price:       s.Price,
		Logo:        s.Logo,
		MaxSharing:  s.MaxSharing,
	}
}

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Message: message, ErrorCode: code})
}
