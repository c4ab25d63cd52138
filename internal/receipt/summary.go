package receipt

import (
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

// reconcileTolerance absorbs rounding of per-bucket amounts on printed receipts
var reconcileTolerance = decimal.NewFromInt(1)

// Summarize computes the aggregate figures for an ordered record list.
// Amounts are summed over all records regardless of status.
func Summarize(records []scanning.ReceiptRecord) Summary {
	var total, total10, total8, totalNon decimal.Decimal
	summary := Summary{
		Count:           len(records),
		UnreconciledIDs: []int{},
	}

	for _, r := range records {
		if r.Status == scanning.StatusSuccess {
			summary.SuccessCount++
		}

		amount := decimal.NewFromFloat(r.TotalAmount)
		a10 := decimal.NewFromFloat(r.Amount10Percent)
		a8 := decimal.NewFromFloat(r.Amount8Percent)
		aNon := decimal.NewFromFloat(r.AmountNonInvoice)

		total = total.Add(amount)
		total10 = total10.Add(a10)
		total8 = total8.Add(a8)
		totalNon = totalNon.Add(aNon)

		if r.Status == scanning.StatusSuccess {
			buckets := a10.Add(a8).Add(aNon)
			if buckets.Sub(amount).Abs().GreaterThan(reconcileTolerance) {
				summary.UnreconciledIDs = append(summary.UnreconciledIDs, r.ID)
			}
		}
	}

	summary.TotalAmount = total.InexactFloat64()
	summary.Total10Percent = total10.InexactFloat64()
	summary.Total8Percent = total8.InexactFloat64()
	summary.TotalNonInvoice = totalNon.InexactFloat64()
	return summary
}
