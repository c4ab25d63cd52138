package receipt

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemoryStore", func() {
	var store *MemoryStore

	BeforeEach(func() {
		store = NewMemoryStore(2, time.Hour)
	})

	Describe("Save and Get", func() {
		It("should return a saved result", func() {
			Expect(store.Save(&AnalysisResult{ID: "a"})).To(Succeed())
			result, err := store.Get("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ID).To(Equal("a"))
		})

		It("should reject results without an ID", func() {
			Expect(store.Save(&AnalysisResult{})).NotTo(Succeed())
		})

		It("returns ErrNotFound for unknown IDs", func() {
			_, err := store.Get("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	When("the store is full", func() {
		BeforeEach(func() {
			Expect(store.Save(&AnalysisResult{ID: "a"})).To(Succeed())
			Expect(store.Save(&AnalysisResult{ID: "b"})).To(Succeed())
			Expect(store.Save(&AnalysisResult{ID: "c"})).To(Succeed())
		})

		It("should evict the least recently used result", func() {
			_, err := store.Get("a")
			Expect(err).To(MatchError(ErrNotFound))

			_, err = store.Get("c")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("a result expires", func() {
		BeforeEach(func() {
			store = NewMemoryStore(10, 20*time.Millisecond)
			Expect(store.Save(&AnalysisResult{ID: "a"})).To(Succeed())
		})

		It("should no longer be returned", func() {
			Eventually(func() error {
				_, err := store.Get("a")
				return err
			}).WithTimeout(time.Second).Should(MatchError(ErrNotFound))
		})
	})

	Describe("Delete", func() {
		It("should remove a result", func() {
			Expect(store.Save(&AnalysisResult{ID: "a"})).To(Succeed())
			Expect(store.Delete("a")).To(Succeed())
			_, err := store.Get("a")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("returns ErrNotFound for unknown IDs", func() {
			Expect(store.Delete("missing")).To(MatchError(ErrNotFound))
		})
	})
})
