package receipt

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadOptions", func() {
	It("uses the embedded instructions by default", func() {
		opts, err := LoadOptions("", false, time.Minute, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Instructions.Version).To(Equal("ja-v1"))
		Expect(opts.Validator).To(BeNil())
		Expect(opts.ExtractTimeout).To(Equal(time.Minute))
	})

	It("compiles a validator in strict mode", func() {
		opts, err := LoadOptions("", true, 0, "report.xlsx")
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Validator).NotTo(BeNil())
		Expect(opts.XLSXTemplate).To(Equal("report.xlsx"))
	})

	It("loads an instruction directory", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "en-v1")
		Expect(os.Mkdir(dir, 0755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "system.md"), []byte("rules"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "task.txt"), []byte("extract"), 0644)).To(Succeed())

		opts, err := LoadOptions(dir, false, 0, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Instructions.Version).To(Equal("en-v1"))
		Expect(opts.Instructions.System).To(Equal("rules"))
	})

	It("fails for a missing instruction directory", func() {
		_, err := LoadOptions(filepath.Join(GinkgoT().TempDir(), "missing"), false, 0, "")
		Expect(err).To(HaveOccurred())
	})
})
