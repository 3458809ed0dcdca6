package wiring

import (
	"os"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"attest/internal/pack"
)

var _ = ginkgo.Describe("Run", func() {
	ginkgo.It("generates a pack that validates clean and lands in the index", func() {
		input := ginkgo.GinkgoT().TempDir()
		gomega.Expect(os.WriteFile(filepath.Join(input, "trades.csv"), []byte("ts,side,qty\n1,buy,10\n"), 0o644)).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(filepath.Join(input, "summary.json"), []byte(`{"sharpe":1.3}`), 0o644)).To(gomega.Succeed())

		packsRoot := ginkgo.GinkgoT().TempDir()
		indexPath := filepath.Join(packsRoot, "index.json")

		res, err := Run(pack.GenerateOptions{
			InputDir: input,
			OutRoot:  packsRoot,
			PackID:   "flow-1",
			RunDate:  "2026-08-30",
		}, indexPath, []string{"summary.json"})
		gomega.Expect(err).To(gomega.Succeed())

		gomega.Expect(res.Report.OK).To(gomega.BeTrue(), "fresh pack should validate clean: %v", res.Report.Errors)
		gomega.Expect(res.Report.CheckedEntries).To(gomega.Equal(2))
		gomega.Expect(res.Index.Count).To(gomega.Equal(1))
		gomega.Expect(res.Index.Packs[0].PackID).To(gomega.Equal("flow-1"))
	})

	ginkgo.It("flags a tampered artifact on re-validation, naming its path", func() {
		input := ginkgo.GinkgoT().TempDir()
		gomega.Expect(os.WriteFile(filepath.Join(input, "snapshot.md"), []byte("captured state\n"), 0o644)).To(gomega.Succeed())

		packsRoot := ginkgo.GinkgoT().TempDir()
		res, err := Run(pack.GenerateOptions{
			InputDir: input,
			OutRoot:  packsRoot,
			PackID:   "flow-2",
		}, filepath.Join(packsRoot, "index.json"), nil)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.Report.OK).To(gomega.BeTrue())

		// Same byte count, different content.
		victim := filepath.Join(res.Pack.PackDir, "snapshot.md")
		gomega.Expect(os.WriteFile(victim, []byte("captured stat3\n"), 0o644)).To(gomega.Succeed())

		report, err := pack.Validate(res.Pack.ManifestPath, nil)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(report.OK).To(gomega.BeFalse())
		gomega.Expect(report.Errors).To(gomega.ContainElement(gomega.ContainSubstring("sha256 mismatch for snapshot.md")))
	})
})
