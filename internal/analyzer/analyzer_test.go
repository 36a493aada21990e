package analyzer_test

import (
	"context"
	"errors"

	"valuegrade/internal/analyzer"
	"valuegrade/internal/models"
	"valuegrade/internal/pkg/corp"
	"valuegrade/internal/pkg/dart"
	"valuegrade/internal/pkg/financials"
	"valuegrade/internal/pkg/openai"
	"valuegrade/internal/testhelpers"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go/v3/option"
)

const samsungPath = "/api/fnlttSinglAcnt.json?corp_code=00126380&bsns_year=2022&reprt_code=11011"

type memStore struct {
	reports  map[string]*models.RawReport
	analyses []*models.Analysis
	nextID   uint
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{reports: make(map[string]*models.RawReport)}
}

func (s *memStore) FindRawReport(_ context.Context, corpCode, bsnsYear, reprtCode string) (*models.RawReport, error) {
	return s.reports[corpCode+bsnsYear+reprtCode], nil
}

func (s *memStore) SaveRawReport(_ context.Context, r *models.RawReport) error {
	s.nextID++
	r.ID = s.nextID
	s.reports[r.CorpCode+r.BsnsYear+r.ReprtCode] = r
	return nil
}

func (s *memStore) SaveAnalysis(_ context.Context, a *models.Analysis) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if a.RequestID == uuid.Nil {
		a.RequestID = uuid.New()
	}
	s.analyses = append(s.analyses, a)
	return nil
}

type fixedMarketCap struct {
	value float64
	err   error
	calls []string
}

func (m *fixedMarketCap) GetMarketCap(stockCode, name string) (float64, error) {
	m.calls = append(m.calls, stockCode+"/"+name)
	return m.value, m.err
}

func mockDart(path string) {
	testhelpers.New("https://opendart.fss.or.kr").
		Get(path).
		Reply(200).
		Body(testhelpers.MustLoadFixture("single_accounts.json")).
		Header("Content-Type", "application/json")
}

func mockOpenAI(answer string) {
	testhelpers.New("https://api.openai.com").
		Post("/v1/responses").
		Reply(200).
		BodyString(testhelpers.OpenAIResponse(answer, 321)).
		Header("Content-Type", "application/json")
}

var _ = Describe("Analyzer", func() {
	var (
		a   *analyzer.Analyzer
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		testhelpers.Activate()

		companies, err := dart.ParseCorpCodes(testhelpers.MustLoadFixture("corpcode.xml"))
		Expect(err).NotTo(HaveOccurred())

		dartClient := dart.New("test-dart-key")
		dartClient.UseDefaultClient()

		grader := openai.NewGrader("test-openai-key", "gpt-4o-mini", option.WithMaxRetries(0))
		a = analyzer.New(corp.NewDirectory(companies), dartClient, grader)
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	It("grades a company found by its exact name", func() {
		mockDart(samsungPath)
		mockOpenAI(`{"final_score": 23, "grade": "C4", "explanation": "**ROE** 0.16: -2점"}`)

		result, err := a.Analyze(ctx, analyzer.Request{Company: "삼성전자"})
		Expect(err).NotTo(HaveOccurred())
		Expect(testhelpers.IsDone()).To(BeTrue())

		Expect(result.CorpCode).To(Equal("00126380"))
		Expect(result.CorpName).To(Equal("삼성전자"))
		Expect(result.BsnsYear).To(Equal("2022"))
		Expect(result.ReprtCode).To(Equal("11011"))
		Expect(result.Assessment.Grade).To(Equal("C4"))
		Expect(result.Rubric.Grade).To(Equal("C4"))
		Expect(result.GradeMismatch()).To(BeFalse())
		Expect(result.UsedTokens).To(Equal(int64(321)))
		Expect(result.Metrics.Source(financials.ROE)).To(Equal(financials.SourceDerived))
		Expect(result.Metrics.Source(financials.PER)).To(Equal(financials.SourceDefault))

		Expect(string(testhelpers.RequestBody(1))).To(ContainSubstring("PER: 15"))
	})

	It("keeps the model answer when it disagrees with the rubric", func() {
		mockDart(samsungPath)
		mockOpenAI(`{"final_score": 32, "grade": "D3", "explanation": "계산 결과"}`)

		result, err := a.Analyze(ctx, analyzer.Request{Company: "00126380", BsnsYear: "2022", ReprtCode: "11011"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Assessment.Grade).To(Equal("D3"))
		Expect(result.Rubric.Grade).To(Equal("C4"))
		Expect(result.GradeMismatch()).To(BeTrue())
	})

	It("rejects ambiguous names before calling DART", func() {
		_, err := a.Analyze(ctx, analyzer.Request{Company: "삼성"})

		var ambiguous *corp.AmbiguousError
		Expect(errors.As(err, &ambiguous)).To(BeTrue())
		Expect(ambiguous.Matches).To(ConsistOf("삼성전자", "삼성전기"))
		Expect(testhelpers.Requests()).To(BeEmpty())
	})

	It("reports unknown companies", func() {
		_, err := a.Analyze(ctx, analyzer.Request{Company: "없는회사"})
		Expect(err).To(MatchError(corp.ErrCompanyNotFound))
	})

	It("reports an empty statement as missing financial data", func() {
		testhelpers.New("https://opendart.fss.or.kr").
			Get("/api/fnlttSinglAcnt.json?corp_code=00434003").
			Reply(200).
			BodyString(`{"status": "013", "message": "조회된 데이타가 없습니다."}`)

		_, err := a.Analyze(ctx, analyzer.Request{Company: "다코"})
		Expect(err).To(MatchError(analyzer.ErrNoFinancialData))
	})

	DescribeTable("validates the period",
		func(year, report string, want error) {
			_, err := a.Analyze(ctx, analyzer.Request{Company: "삼성전자", BsnsYear: year, ReprtCode: report})
			Expect(err).To(MatchError(want))
		},
		Entry("short year", "22", "11011", analyzer.ErrInvalidYear),
		Entry("non numeric year", "20a2", "11011", analyzer.ErrInvalidYear),
		Entry("unknown report", "2022", "11015", analyzer.ErrInvalidReport),
	)

	Context("with market data", func() {
		It("derives PER and PBR from the market cap", func() {
			prices := &fixedMarketCap{value: 400_000_000_000_000}
			a.UseMarketData(prices)

			mockDart(samsungPath)
			mockOpenAI(`{"final_score": 16, "grade": "B7", "explanation": "ok"}`)

			result, err := a.Analyze(ctx, analyzer.Request{Company: "삼성전자"})
			Expect(err).NotTo(HaveOccurred())
			Expect(prices.calls).To(Equal([]string{"005930/삼성전자"}))
			Expect(result.Metrics.Source(financials.PER)).To(Equal(financials.SourceDerived))
			Expect(result.Metrics.PER).To(BeNumerically("~", 7.187, 0.001))
			Expect(result.Metrics.PBR).To(BeNumerically("~", 1.1276, 0.001))
			Expect(result.Rubric.Score).To(Equal(16))
		})

		It("skips the lookup for corp codes missing from the directory", func() {
			prices := &fixedMarketCap{value: 400_000_000_000_000}
			a.UseMarketData(prices)

			mockDart("/api/fnlttSinglAcnt.json?corp_code=99999999&bsns_year=2022&reprt_code=11011")
			mockOpenAI(`{"final_score": 23, "grade": "C4", "explanation": "ok"}`)

			result, err := a.Analyze(ctx, analyzer.Request{Company: "99999999"})
			Expect(err).NotTo(HaveOccurred())
			Expect(prices.calls).To(BeEmpty())
			Expect(result.CorpName).To(Equal("99999999"))
			Expect(result.Metrics.Source(financials.PER)).To(Equal(financials.SourceDefault))
		})

		It("falls back to defaults when the lookup fails", func() {
			a.UseMarketData(&fixedMarketCap{err: errors.New("boom")})

			mockDart(samsungPath)
			mockOpenAI(`{"final_score": 23, "grade": "C4", "explanation": "ok"}`)

			result, err := a.Analyze(ctx, analyzer.Request{Company: "삼성전자"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Metrics.PER).To(Equal(15.0))
		})
	})

	Context("with a store", func() {
		var store *memStore

		BeforeEach(func() {
			store = newMemStore()
			a.UseStore(store)
		})

		It("caches the DART response and persists every result", func() {
			mockDart(samsungPath)
			mockOpenAI(`{"final_score": 23, "grade": "C4", "explanation": "first"}`)
			mockOpenAI(`{"final_score": 23, "grade": "C4", "explanation": "second"}`)

			_, err := a.Analyze(ctx, analyzer.Request{Company: "삼성전자"})
			Expect(err).NotTo(HaveOccurred())

			requestID := uuid.New()
			second, err := a.Analyze(ctx, analyzer.Request{RequestID: requestID, Company: "삼성전자"})
			Expect(err).NotTo(HaveOccurred())
			Expect(testhelpers.IsDone()).To(BeTrue())
			Expect(testhelpers.Requests()).To(HaveLen(3))

			Expect(store.reports).To(HaveLen(1))
			Expect(store.analyses).To(HaveLen(2))
			Expect(second.RequestID).To(Equal(requestID))

			saved := store.analyses[1]
			Expect(saved.Status).To(Equal(models.AnalysisCompleted))
			Expect(saved.CorpCode).To(Equal("00126380"))
			Expect(saved.Explanation).To(Equal("second"))
			Expect(saved.RubricGrade).To(Equal("C4"))
			Expect(*saved.RawReportID).To(Equal(uint(1)))
			Expect(string(saved.Metrics)).To(ContainSubstring(`"Total_Assets":448424507000000`))
		})

		It("fails queued requests whose result cannot be stored", func() {
			store.saveErr = errors.New("connection refused")

			mockDart(samsungPath)
			mockOpenAI(`{"final_score": 23, "grade": "C4", "explanation": "ok"}`)

			requestID := uuid.New()
			_, err := a.Analyze(ctx, analyzer.Request{RequestID: requestID, Company: "삼성전자"})
			Expect(err).To(MatchError(ContainSubstring("store analysis " + requestID.String())))
			Expect(analyzer.Permanent(err)).To(BeFalse())
		})

		It("still answers direct requests when storing fails", func() {
			store.saveErr = errors.New("connection refused")

			mockDart(samsungPath)
			mockOpenAI(`{"final_score": 23, "grade": "C4", "explanation": "ok"}`)

			result, err := a.Analyze(ctx, analyzer.Request{Company: "삼성전자"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Assessment.Grade).To(Equal("C4"))
		})
	})
})
