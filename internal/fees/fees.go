package fees

import (
	"github.com/shopspring/decimal"

	"github.com/unieats/unieats-backend/pkg/enums"
)

// feeRate is the platform's percentage of order value before tier capping.
var feeRate = decimal.NewFromFloat(0.05)

// commissionRate applies to vendors outside their trial period.
var commissionRate = decimal.NewFromFloat(0.05)

// tier caps the platform fee for order values up to and including Limit.
// Tiers are consulted in order; the last entry has no upper bound.
type tier struct {
	Limit decimal.Decimal
	Cap   decimal.Decimal
}

var tiers = []tier{
	{Limit: decimal.NewFromInt(100), Cap: decimal.NewFromInt(5)},
	{Limit: decimal.NewFromInt(300), Cap: decimal.NewFromInt(10)},
	{Limit: decimal.NewFromInt(600), Cap: decimal.NewFromInt(20)},
	{Limit: decimal.NewFromInt(1000), Cap: decimal.NewFromInt(30)},
	{Limit: decimal.NewFromInt(1500), Cap: decimal.NewFromInt(45)},
	{Limit: decimal.NewFromInt(2500), Cap: decimal.NewFromInt(60)},
	{Limit: decimal.NewFromInt(4000), Cap: decimal.NewFromInt(100)},
	{Cap: decimal.NewFromInt(150)}, // no upper bound
}

// Breakdown is the full money split for one order. The vendor-side triple is
// populated for COD/UPI, the platform-side triple for gateway payments; the
// unused triple stays zero.
type Breakdown struct {
	Subtotal         decimal.Decimal
	PlatformFee      decimal.Decimal
	VendorCommission decimal.Decimal
	Total            decimal.Decimal

	// COD/UPI: the vendor collects Total from the customer and owes the
	// platform its cut.
	VendorReceives decimal.Decimal
	VendorOwes     decimal.Decimal
	NetRevenue     decimal.Decimal

	// Gateway: the platform collects Total upfront and owes the vendor a
	// payout.
	GrossReceived decimal.Decimal
	PlatformGross decimal.Decimal
	VendorPayout  decimal.Decimal
}

// PlatformFee computes the tiered, capped platform fee for an order value.
// Non-positive values carry no fee.
func PlatformFee(orderValue decimal.Decimal) decimal.Decimal {
	if orderValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	pct := orderValue.Mul(feeRate)
	cap := tiers[len(tiers)-1].Cap
	for _, t := range tiers[:len(tiers)-1] {
		if orderValue.LessThanOrEqual(t.Limit) {
			cap = t.Cap
			break
		}
	}
	if pct.GreaterThan(cap) {
		pct = cap
	}
	return pct.Round(2)
}

// Calculate computes the complete fee breakdown for an order. Deterministic
// and side-effect free; all outputs are rounded to 2 decimal places with
// cents rounded half away from zero.
func Calculate(orderValue decimal.Decimal, method enums.PaymentMethod, commissionActive bool) Breakdown {
	b := Breakdown{
		Subtotal:         orderValue.Round(2),
		PlatformFee:      PlatformFee(orderValue),
		VendorCommission: decimal.Zero,
	}
	if commissionActive && orderValue.GreaterThan(decimal.Zero) {
		b.VendorCommission = orderValue.Mul(commissionRate).Round(2)
	}

	// Commission is never added to what the purchaser pays; it comes out of
	// the vendor's side.
	b.Total = b.Subtotal.Add(b.PlatformFee)

	platformCut := b.PlatformFee.Add(b.VendorCommission)
	if method.IsGateway() {
		b.GrossReceived = b.Total
		b.PlatformGross = platformCut
		b.VendorPayout = b.GrossReceived.Sub(b.PlatformGross)
	} else {
		b.VendorReceives = b.Total
		b.VendorOwes = platformCut
		b.NetRevenue = b.VendorReceives.Sub(b.VendorOwes)
	}
	return b
}
