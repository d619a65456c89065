package dues

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnsettledOrder is the slice of an order the reconciliation cares about.
type UnsettledOrder struct {
	OrderID   uuid.UUID
	VendorID  uuid.UUID
	Owes      decimal.Decimal
	CreatedAt time.Time
}

// Settlement is one vendor's computed batch before persistence.
type Settlement struct {
	VendorID    uuid.UUID
	AmountDue   decimal.Decimal
	OrderIDs    []uuid.UUID
	OrderCount  int
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// BuildSettlements groups unsettled orders by vendor, summing what each
// vendor owes and bounding the settlement period by the earliest and latest
// order creation time in the group. Groups that sum to zero or less are
// dropped. Pure function: the transactional side effects live in the service.
func BuildSettlements(rows []UnsettledOrder) []Settlement {
	byVendor := map[uuid.UUID]*Settlement{}
	for _, row := range rows {
		s, ok := byVendor[row.VendorID]
		if !ok {
			s = &Settlement{
				VendorID:    row.VendorID,
				AmountDue:   decimal.Zero,
				PeriodStart: row.CreatedAt,
				PeriodEnd:   row.CreatedAt,
			}
			byVendor[row.VendorID] = s
		}
		s.AmountDue = s.AmountDue.Add(row.Owes)
		s.OrderIDs = append(s.OrderIDs, row.OrderID)
		s.OrderCount++
		if row.CreatedAt.Before(s.PeriodStart) {
			s.PeriodStart = row.CreatedAt
		}
		if row.CreatedAt.After(s.PeriodEnd) {
			s.PeriodEnd = row.CreatedAt
		}
	}

	out := make([]Settlement, 0, len(byVendor))
	for _, s := range byVendor {
		if s.AmountDue.LessThanOrEqual(decimal.Zero) || len(s.OrderIDs) == 0 {
			continue
		}
		s.AmountDue = s.AmountDue.Round(2)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VendorID.String() < out[j].VendorID.String()
	})
	return out
}
