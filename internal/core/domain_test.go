package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-03-09" {
		t.Fatalf("expected 2024-03-09, got %s", d)
	}
	if d.AddDays(-3).String() != "2024-03-06" {
		t.Fatalf("AddDays: got %s", d.AddDays(-3))
	}
	for _, bad := range []string{"", "09/03/2024", "2024-13-01"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestSpendingRecordValidate(t *testing.T) {
	good := SpendingRecord{
		UserID:   "user1",
		Category: "food",
		Amount:   decimal.NewFromInt(580000),
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	negative := good
	negative.Amount = decimal.NewFromInt(-5)
	if err := negative.Validate(); err != nil {
		t.Fatalf("negative amounts are not rejected, got %v", err)
	}

	bads := []struct {
		rec  SpendingRecord
		want error
	}{
		{SpendingRecord{UserID: "", Category: "c", Date: NewDate(2025, 1, 1)}, ErrEmptyUserID},
		{SpendingRecord{UserID: "  ", Category: "c", Date: NewDate(2025, 1, 1)}, ErrEmptyUserID},
		{SpendingRecord{UserID: "u", Category: "", Date: NewDate(2025, 1, 1)}, ErrEmptyCategory},
		{SpendingRecord{UserID: "u", Category: strings.Repeat("x", 101), Date: NewDate(2025, 1, 1)}, ErrLabelTooLong},
		{SpendingRecord{UserID: "u", Category: "c"}, ErrInvalidDate},
	}
	for i, tc := range bads {
		err := tc.rec.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !IsValidationError(err) {
			t.Fatalf("case %d expected a validation error", i)
		}
	}
}

func TestTopSpendingValidate(t *testing.T) {
	if err := (TopSpending{UserID: "u", TopCategory: "food"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (TopSpending{TopCategory: "food"}).Validate(); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
	if err := (TopSpending{UserID: "u"}).Validate(); !errors.Is(err, ErrEmptyTopResult) {
		t.Fatalf("expected ErrEmptyTopResult, got %v", err)
	}
}

func TestIsValidationError(t *testing.T) {
	if IsValidationError(ErrNotFound) {
		t.Fatalf("ErrNotFound is not a validation error")
	}
	if IsValidationError(errors.New("boom")) {
		t.Fatalf("arbitrary errors are not validation errors")
	}
}
