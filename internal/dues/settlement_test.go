package dues

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func unsettled(vendorID uuid.UUID, owes string, createdAt time.Time) UnsettledOrder {
	return UnsettledOrder{
		OrderID:   uuid.New(),
		VendorID:  vendorID,
		Owes:      decimal.RequireFromString(owes),
		CreatedAt: createdAt,
	}
}

func TestBuildSettlementsGroupsByVendor(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := []UnsettledOrder{
		unsettled(vendorA, "10", base),
		unsettled(vendorB, "7.50", base.Add(30*time.Minute)),
		unsettled(vendorA, "15", base.Add(time.Hour)),
		unsettled(vendorA, "20", base.Add(2*time.Hour)),
	}

	settlements := BuildSettlements(rows)
	assert.Len(t, settlements, 2)

	var forA, forB *Settlement
	for i := range settlements {
		switch settlements[i].VendorID {
		case vendorA:
			forA = &settlements[i]
		case vendorB:
			forB = &settlements[i]
		}
	}
	if assert.NotNil(t, forA) {
		assert.True(t, forA.AmountDue.Equal(decimal.RequireFromString("45")))
		assert.Len(t, forA.OrderIDs, 3)
		assert.Equal(t, 3, forA.OrderCount)
		assert.Equal(t, base, forA.PeriodStart)
		assert.Equal(t, base.Add(2*time.Hour), forA.PeriodEnd)
	}
	if assert.NotNil(t, forB) {
		assert.True(t, forB.AmountDue.Equal(decimal.RequireFromString("7.5")))
		assert.Len(t, forB.OrderIDs, 1)
	}
}

func TestBuildSettlementsDropsNonPositiveGroups(t *testing.T) {
	vendorID := uuid.New()
	now := time.Now().UTC()

	rows := []UnsettledOrder{
		unsettled(vendorID, "0", now),
		unsettled(vendorID, "0", now.Add(time.Minute)),
	}
	assert.Empty(t, BuildSettlements(rows))
	assert.Empty(t, BuildSettlements(nil))
}

func TestBuildSettlementsRoundsAmountDue(t *testing.T) {
	vendorID := uuid.New()
	now := time.Now().UTC()

	rows := []UnsettledOrder{
		unsettled(vendorID, "3.005", now),
		unsettled(vendorID, "3.005", now),
	}
	settlements := BuildSettlements(rows)
	assert.Len(t, settlements, 1)
	assert.True(t, settlements[0].AmountDue.Equal(decimal.RequireFromString("6.01")))
}

func TestBuildSettlementsDeterministicOrder(t *testing.T) {
	now := time.Now().UTC()
	rows := []UnsettledOrder{
		unsettled(uuid.New(), "5", now),
		unsettled(uuid.New(), "5", now),
		unsettled(uuid.New(), "5", now),
	}
	first := BuildSettlements(rows)
	second := BuildSettlements(rows)
	assert.Equal(t, first, second)
}
