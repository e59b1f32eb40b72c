package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

const maxLabelLength = 100

type (
	Date struct {
		time.Time
	}

	// SpendingRecord is one spending entry owned by the spending store.
	SpendingRecord struct {
		ID        string
		UserID    string
		Category  string
		Amount    decimal.Decimal
		Date      Date
		CreatedAt time.Time
	}

	// TopSpending is the aggregation result for a user: the category with
	// the highest summed amount.
	TopSpending struct {
		UserID        string
		TopCategory   string
		TotalSpending decimal.Decimal
	}

	// TopSpendingView is the read-side row, one per user.
	TopSpendingView struct {
		UserID        string
		TopCategory   string
		TotalSpending decimal.Decimal
		UpdatedAt     time.Time
	}
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyUserID    = errors.New("empty user id")
	ErrEmptyCategory  = errors.New("empty category")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrLabelTooLong   = errors.New("value too long (max 100 characters)")
	ErrMissingAmount  = errors.New("missing amount")
	ErrEmptyTopResult = errors.New("empty top category")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the fields required to store a record. The amount sign is
// not checked: amounts are non-negative by convention only.
func (r SpendingRecord) Validate() error {
	if err := validateLabel(r.UserID, ErrEmptyUserID); err != nil {
		return err
	}
	if err := validateLabel(r.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (t TopSpending) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(t.TopCategory) == "" {
		return ErrEmptyTopResult
	}
	return nil
}

// View converts an aggregation result into the row stored by the view store.
func (t TopSpending) View(updatedAt time.Time) TopSpendingView {
	return TopSpendingView{
		UserID:        t.UserID,
		TopCategory:   t.TopCategory,
		TotalSpending: t.TotalSpending,
		UpdatedAt:     updatedAt,
	}
}

// IsValidationError reports whether err comes from record validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmptyUserID, ErrEmptyCategory, ErrInvalidAmount,
		ErrInvalidDate, ErrLabelTooLong, ErrMissingAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validateLabel(s string, empty error) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return empty
	}
	if len(s) > maxLabelLength {
		return ErrLabelTooLong
	}
	return nil
}
