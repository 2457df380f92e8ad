package partner

import "github.com/shopspring/decimal"

// DefaultPaymentPlanMonths is used when an invoice payer has no configured plan
const DefaultPaymentPlanMonths = 6

// CalculateCreditLimit derives a customer's credit limit from their declared
// minimum purchase amount and payment plan duration:
//
//	limit = minimum_purchase * (payment_plan_duration_months + 1)
//
// Pure function; callers persist the result.
func CalculateCreditLimit(minimumPurchase decimal.Decimal, planDurationMonths int) decimal.Decimal {
	if planDurationMonths < 0 {
		planDurationMonths = 0
	}
	return minimumPurchase.Mul(decimal.NewFromInt(int64(planDurationMonths + 1)))
}
