package http

import (
	"errors"
	"net/http"

	"subrecommend/internal/core"
	applog "subrecommend/internal/log"
	"subrecommend/internal/services"
)

// handleCreateSpending stores a record and triggers the top category
// publish. A publish failure answers 500 although the record is saved.
func (s *Server) handleCreateSpending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	rec, err := parseSpendingRequest(w, r, s.today())
	if err != nil {
		switch {
		case errors.Is(err, errMalformedBody):
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "Failed to parse request body")
		case core.IsValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		default:
			writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		}
		return
	}

	saved, err := s.spending.CreateSpending(ctx, rec)
	if err != nil {
		fields := applog.NewFields().WithSpending(saved.ID, rec.UserID, rec.Category, rec.Amount.String())
		switch {
		case errors.Is(err, services.ErrPublish):
			applog.LogError(ctx, "Spending saved but top spending was not published", err, applog.OpPublish,
				fields.WithErrorType(applog.ErrorTypeBroker))
			writeError(w, http.StatusInternalServerError, codePublish, "Spending saved but the update could not be published")
		case core.IsValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
		default:
			applog.LogError(ctx, "Failed to create spending", err, applog.OpCreate,
				fields.WithErrorType(applog.ErrorTypeDatabase))
			writeError(w, http.StatusInternalServerError, codeInternal, "Failed to save spending")
		}
		return
	}

	logger.InfoContext(ctx, "Spending created",
		applog.NewFields().
			WithSpending(saved.ID, saved.UserID, saved.Category, saved.Amount.String()).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	writeJSON(w, http.StatusCreated, newSpendingResponse(saved))
}

func (s *Server) handleListSpending(w http.ResponseWriter, r *http.Request) {
	userID := queryParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, codeMissingUserID, "userId query parameter is required")
		return
	}

	records, err := s.spending.ListSpending(r.Context(), userID)
	if err != nil {
		applog.LogError(r.Context(), "Failed to list spending", err, applog.OpList, applog.NewFields().WithUser(userID))
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to list spending")
		return
	}
	writeJSON(w, http.StatusOK, newSpendingListResponse(records))
}
