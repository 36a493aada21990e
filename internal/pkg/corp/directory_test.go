package corp_test

import (
	"valuegrade/internal/pkg/corp"
	"valuegrade/internal/pkg/dart"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Directory", func() {
	var dir *corp.Directory

	BeforeEach(func() {
		dir = corp.NewDirectory([]dart.Company{
			{CorpCode: "00126380", CorpName: "삼성전자", CorpEngName: "SAMSUNG ELECTRONICS CO,.LTD", StockCode: "005930"},
			{CorpCode: "00126371", CorpName: "삼성전기", CorpEngName: "SAMSUNG ELECTRO-MECHANICS CO., LTD."},
			{CorpCode: "00356361", CorpName: "LG화학", CorpEngName: "LG CHEM, LTD."},
			{CorpCode: "00434003", CorpName: "다코", CorpEngName: "Daco corporation"},
			{CorpCode: "00999999", CorpName: "다코", CorpEngName: "Daco corporation (new)"},
		})
	})

	Describe("Resolve", func() {
		It("returns digit-only input as a corp code", func() {
			code, err := dir.Resolve(" 00126380 ")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal("00126380"))
		})

		It("passes unknown numeric input through", func() {
			code, err := dir.Resolve("12345678")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal("12345678"))
		})

		It("prefers an exact name match over partial matches", func() {
			code, err := dir.Resolve("삼성전자")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal("00126380"))
		})

		It("resolves a unique partial name", func() {
			code, err := dir.Resolve("화학")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal("00356361"))
		})

		It("lists every candidate for an ambiguous name", func() {
			_, err := dir.Resolve("삼성")

			var ambiguous *corp.AmbiguousError
			Expect(err).To(BeAssignableToTypeOf(ambiguous))
			ambiguous = err.(*corp.AmbiguousError)
			Expect(ambiguous.Matches).To(Equal([]string{"삼성전자", "삼성전기"}))
			Expect(err.Error()).To(ContainSubstring("삼성전자, 삼성전기"))
		})

		It("reports unknown names", func() {
			_, err := dir.Resolve("현대자동차")
			Expect(err).To(MatchError(corp.ErrCompanyNotFound))
		})

		It("rejects empty input", func() {
			_, err := dir.Resolve("  ")
			Expect(err).To(MatchError(corp.ErrEmptyQuery))
		})

		It("keeps the last code for duplicated names", func() {
			code, err := dir.Resolve("다코")
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal("00999999"))
			Expect(dir.Len()).To(Equal(4))
		})
	})

	Describe("Search", func() {
		It("matches Korean names", func() {
			found := dir.Search("삼성", 0)
			Expect(found).To(HaveLen(2))
		})

		It("matches English names case-insensitively", func() {
			found := dir.Search("chem", 10)
			Expect(found).To(HaveLen(1))
			Expect(found[0].CorpCode).To(Equal("00356361"))
		})

		It("respects the limit", func() {
			Expect(dir.Search("", 2)).To(HaveLen(2))
		})
	})

	It("looks companies up by code", func() {
		c, ok := dir.Company("00126380")
		Expect(ok).To(BeTrue())
		Expect(c.StockCode).To(Equal("005930"))

		_, ok = dir.Company("00000000")
		Expect(ok).To(BeFalse())
	})
})
