package controllers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"valuegrade/internal/routes"
	"valuegrade/internal/testhelpers"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func submitForm(router *gin.Engine, values url.Values) (*httptest.ResponseRecorder, *goquery.Document) {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, doc
}

var _ = Describe("WebController", func() {
	var router *gin.Engine

	BeforeEach(func() {
		testhelpers.Activate()
		router = routes.SetupRouter(newTestAnalyzer(), nil, nil)
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	Describe("GET /", func() {
		It("renders the form with the default period", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			resp := httptest.NewRecorder()

			router.ServeHTTP(resp, req)
			Expect(resp.Code).To(Equal(http.StatusOK))

			doc, err := goquery.NewDocumentFromReader(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			Expect(doc.Find("input[name=company]").Length()).To(Equal(1))
			Expect(doc.Find("input[name=bsns_year]").AttrOr("value", "")).To(Equal("2022"))
			Expect(doc.Find("select[name=reprt_code] option[selected]").AttrOr("value", "")).To(Equal("11011"))
			Expect(doc.Find("select[name=reprt_code] option").Length()).To(Equal(4))
			Expect(doc.Find("#result").Length()).To(Equal(0))
		})
	})

	Describe("POST /analyze", func() {
		It("renders the grade, explanation and metrics", func() {
			mockSamsung(`{"final_score": 23, "grade": "C4", "explanation": "**ROE** 0.157: -2점\n부채비율 0.26: -3점"}`)

			resp, doc := submitForm(router, url.Values{"company": {"삼성전자"}})
			Expect(resp.Code).To(Equal(http.StatusOK))
			Expect(testhelpers.IsDone()).To(BeTrue())

			Expect(doc.Find("#corp-name").Text()).To(Equal("삼성전자"))
			Expect(doc.Find("#corp-code").Text()).To(Equal("00126380"))
			Expect(doc.Find("#grade").Text()).To(Equal("C4"))
			Expect(doc.Find("#final-score").Text()).To(Equal("23"))
			Expect(doc.Find("#explanation strong").Text()).To(Equal("ROE"))
			Expect(doc.Find("#rubric-check").Length()).To(Equal(0))

			Expect(doc.Find("#metrics tbody tr").Length()).To(Equal(19))
			assets := doc.Find(`#metrics tr[data-field="Total_Assets"]`)
			Expect(assets.Find(".value").Text()).To(Equal("448424507000000"))
			Expect(assets.Find(".source").Text()).To(Equal("extracted"))
			per := doc.Find(`#metrics tr[data-field="PER"]`)
			Expect(per.Find(".value").Text()).To(Equal("15"))
			Expect(per.Find(".source").Text()).To(Equal("default"))
		})

		It("shows the rubric grade when the model disagrees", func() {
			mockSamsung(`{"final_score": 32, "grade": "D3", "explanation": "계산"}`)

			_, doc := submitForm(router, url.Values{"company": {"삼성전자"}, "bsns_year": {"2022"}, "reprt_code": {"11011"}})
			Expect(doc.Find("#grade").Text()).To(Equal("D3"))
			Expect(doc.Find("#rubric-check").Text()).To(ContainSubstring("C4 (23점)"))
		})

		It("does not pass raw HTML from the model through", func() {
			mockSamsung(`{"final_score": 23, "grade": "C4", "explanation": "<script>alert(1)</script>"}`)

			_, doc := submitForm(router, url.Values{"company": {"삼성전자"}})
			Expect(doc.Find("#explanation script").Length()).To(Equal(0))
		})

		It("lists candidates for an ambiguous name", func() {
			resp, doc := submitForm(router, url.Values{"company": {"삼성"}})

			Expect(resp.Code).To(Equal(http.StatusConflict))
			Expect(doc.Find("#error").Text()).To(HavePrefix("오류 발생: 여러 기업이 검색되었습니다"))
			Expect(doc.Find("#candidates li").Map(func(_ int, s *goquery.Selection) string {
				return s.Text()
			})).To(Equal([]string{"삼성전자", "삼성전기"}))
			Expect(doc.Find("input[name=company]").AttrOr("value", "")).To(Equal("삼성"))
			Expect(testhelpers.Requests()).To(BeEmpty())
		})

		It("reports an empty company name", func() {
			resp, doc := submitForm(router, url.Values{"company": {" "}})

			Expect(resp.Code).To(Equal(http.StatusBadRequest))
			Expect(doc.Find("#error").Text()).To(ContainSubstring("오류 발생"))
		})

		It("reports upstream failures", func() {
			testhelpers.New("https://opendart.fss.or.kr").
				Get(samsungPath).
				Reply(200).
				BodyString(`{"status": "020", "message": "요청 제한을 초과하였습니다."}`)

			resp, doc := submitForm(router, url.Values{"company": {"삼성전자"}})
			Expect(resp.Code).To(Equal(http.StatusBadGateway))
			Expect(doc.Find("#error").Text()).To(Equal("오류 발생: DART error 020: 요청 제한을 초과하였습니다."))
		})
	})
})
