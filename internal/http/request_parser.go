package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"subrecommend/internal/core"
)

// maxBodyBytes bounds the size of a spending request body.
const maxBodyBytes = 1 << 20

// errMalformedBody marks requests whose body is not a single JSON object.
var errMalformedBody = errors.New("malformed request body")

// spendingRequest is the POST /api/spending body. Amount accepts a JSON
// number or a decimal string.
type spendingRequest struct {
	UserID   string          `json:"userId"`
	Category string          `json:"category"`
	Amount   json.RawMessage `json:"amount"`
	Date     string          `json:"date"`
}

// parseSpendingRequest decodes and validates a spending body. Decoding
// problems wrap errMalformedBody, field problems wrap the core validation
// errors.
func parseSpendingRequest(w http.ResponseWriter, r *http.Request, today core.Date) (core.SpendingRecord, error) {
	var req spendingRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return core.SpendingRecord{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return core.SpendingRecord{}, fmt.Errorf("%w: trailing data after JSON object", errMalformedBody)
	}

	amount, err := parseAmountField(req.Amount)
	if err != nil {
		return core.SpendingRecord{}, err
	}

	date := today
	if strings.TrimSpace(req.Date) != "" {
		if date, err = core.ParseDate(req.Date); err != nil {
			return core.SpendingRecord{}, err
		}
	}

	rec := core.SpendingRecord{
		UserID:   sanitizeInput(req.UserID),
		Category: sanitizeInput(req.Category),
		Amount:   amount,
		Date:     date,
	}
	if err := rec.Validate(); err != nil {
		return core.SpendingRecord{}, err
	}
	return rec, nil
}

// parseAmountField accepts 580000, 5.8e5 or "580000,5". Numbers are read
// from their literal text so no precision is lost through float64.
func parseAmountField(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, core.ErrMissingAmount
	}

	if raw[0] != '"' {
		return core.ParseJSONAmount(string(raw))
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return decimal.Zero, core.ErrInvalidAmount
	}
	if strings.TrimSpace(text) == "" {
		return decimal.Zero, core.ErrMissingAmount
	}
	return core.ParseAmount(text)
}
