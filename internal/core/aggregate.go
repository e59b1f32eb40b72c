package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// TotalsByCategory groups records by category and sums their amounts.
// The result is ordered by total descending, then by category name, so the
// first element is always the top category.
func TotalsByCategory(records []SpendingRecord) []CategoryTotal {
	sums := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		current, ok := sums[r.Category]
		if !ok {
			current = decimal.Zero
		}
		sums[r.Category] = current.Add(r.Amount)
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for category, total := range sums {
		totals = append(totals, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// TopCategory returns the category with the highest summed amount among the
// given records of userID. Equal totals resolve to the lexicographically
// smallest category name. ok is false when there are no records.
func TopCategory(userID string, records []SpendingRecord) (top TopSpending, ok bool) {
	totals := TotalsByCategory(records)
	if len(totals) == 0 {
		return TopSpending{}, false
	}
	return TopSpending{
		UserID:        userID,
		TopCategory:   totals[0].Category,
		TotalSpending: totals[0].Total,
	}, true
}
