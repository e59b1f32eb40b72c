package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"subrecommend/internal/core"
	applog "subrecommend/internal/log"
)

func (s *Server) handleTopCategory(w http.ResponseWriter, r *http.Request) {
	userID := queryParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, codeMissingUserID, "userId query parameter is required")
		return
	}

	view, err := s.views.TopSpending(r.Context(), userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newTopSpendingResponse(view))
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "No spending data for user "+userID)
	default:
		applog.LogError(r.Context(), "Failed to read top spending", err, applog.OpRead, applog.NewFields().WithUser(userID))
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to read top spending")
	}
}

// handleRecommendCategory answers 404 until the user's first event was
// consumed. Every other failure is a 400 RECOMMENDATION_ERROR.
func (s *Server) handleRecommendCategory(w http.ResponseWriter, r *http.Request) {
	userID := queryParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, codeRecommendation, "userId query parameter is required")
		return
	}

	rec, err := s.recommendations.RecommendCategory(r.Context(), userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, recommendationResponse{
			CategoryName:  rec.CategoryName,
			CategoryImage: rec.CategoryImage,
		})
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "No spending data for user "+userID)
	default:
		applog.LogError(r.Context(), "Failed to recommend category", err, applog.OpRecommend, applog.NewFields().WithUser(userID))
		writeError(w, http.StatusBadRequest, codeRecommendation, err.Error())
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		applog.LogError(r.Context(), "Failed to list categories", err, applog.OpList, nil)
		writeError(w, http.StatusBadRequest, codeCategory, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newCategoryListResponse(categories))
}

func (s *Server) handleSubscriptionsByCategory(w http.ResponseWriter, r *http.Request) {
	category := queryParam(r, "category")

	subs, err := s.catalog.ListSubscriptionsByCategory(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeSubscription, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newSubscriptionListResponse(subs))
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(chi.URLParam(r, "subscriptionID"))

	sub, err := s.catalog.GetSubscription(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newSubscriptionDetailResponse(sub))
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Subscription not found: "+id)
	default:
		writeError(w, http.StatusBadRequest, codeSubscription, err.Error())
	}
}
