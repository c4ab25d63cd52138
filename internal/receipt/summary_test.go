package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

var _ = Describe("Summarize", func() {
	var (
		records []scanning.ReceiptRecord
		summary Summary
	)

	JustBeforeEach(func() {
		summary = Summarize(records)
	})

	When("records have mixed statuses", func() {
		BeforeEach(func() {
			records = []scanning.ReceiptRecord{
				{ID: 1, Status: scanning.StatusSuccess, TotalAmount: 1000, Amount10Percent: 1000},
				{ID: 2, Status: scanning.StatusSuccess, TotalAmount: 2000, Amount8Percent: 1500, AmountNonInvoice: 500},
				{ID: 3, Status: scanning.StatusError, TotalAmount: 500, AmountNonInvoice: 500},
			}
		})

		It("should count all and successful records", func() {
			Expect(summary.Count).To(Equal(3))
			Expect(summary.SuccessCount).To(Equal(2))
		})

		It("should sum amounts over every record", func() {
			Expect(summary.TotalAmount).To(Equal(3500.0))
			Expect(summary.Total10Percent).To(Equal(1000.0))
			Expect(summary.Total8Percent).To(Equal(1500.0))
			Expect(summary.TotalNonInvoice).To(Equal(1000.0))
		})

		It("should report no reconciliation problems", func() {
			Expect(summary.UnreconciledIDs).To(BeEmpty())
		})
	})

	When("fractional amounts are summed", func() {
		BeforeEach(func() {
			records = []scanning.ReceiptRecord{
				{ID: 1, Status: scanning.StatusSuccess, TotalAmount: 0.1, AmountNonInvoice: 0.1},
				{ID: 2, Status: scanning.StatusSuccess, TotalAmount: 0.2, AmountNonInvoice: 0.2},
			}
		})

		It("should not accumulate binary rounding error", func() {
			Expect(summary.TotalAmount).To(Equal(0.3))
		})
	})

	When("a successful record's buckets do not add up", func() {
		BeforeEach(func() {
			records = []scanning.ReceiptRecord{
				{ID: 4, Status: scanning.StatusSuccess, TotalAmount: 1080, Amount8Percent: 1079},
				{ID: 5, Status: scanning.StatusSuccess, TotalAmount: 1100, Amount10Percent: 1000},
				{ID: 6, Status: scanning.StatusError, TotalAmount: 300},
			}
		})

		It("should flag it without changing the totals", func() {
			Expect(summary.UnreconciledIDs).To(Equal([]int{5}))
			Expect(summary.TotalAmount).To(Equal(2480.0))
		})
	})

	When("there are no records", func() {
		BeforeEach(func() {
			records = nil
		})

		It("should return zeros", func() {
			Expect(summary.Count).To(Equal(0))
			Expect(summary.TotalAmount).To(Equal(0.0))
			Expect(summary.UnreconciledIDs).NotTo(BeNil())
		})
	})
})
