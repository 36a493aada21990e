package controllers

import (
	"html/template"
	"log"
	"net/http"

	"valuegrade/internal/analyzer"
	"valuegrade/internal/pkg/dart"
	"valuegrade/internal/pkg/financials"

	"github.com/gin-gonic/gin"
)

type WebController struct {
	Analyzer *analyzer.Analyzer
}

type analyzeForm struct {
	Company   string `form:"company"`
	BsnsYear  string `form:"bsns_year"`
	ReprtCode string `form:"reprt_code"`
}

type reportOption struct {
	Code  string
	Label string
}

var reportOptions = []reportOption{
	{string(dart.BUSINESS_REPORT), "사업보고서"},
	{string(dart.HALF_YEAR), "반기보고서"},
	{string(dart.FIRST_QUARTER), "1분기보고서"},
	{string(dart.THIRD_QUARTER), "3분기보고서"},
}

type metricRow struct {
	Name   string
	Value  string
	Source financials.Source
}

type page struct {
	Form        analyzeForm
	Reports     []reportOption
	Result      *analyzer.Result
	Metrics     []metricRow
	Explanation template.HTML
	Mismatch    bool
	Error       string
	Candidates  []string
}

func newPage(form analyzeForm) page {
	if form.BsnsYear == "" {
		form.BsnsYear = dart.DefaultBusinessYear
	}
	if form.ReprtCode == "" {
		form.ReprtCode = string(dart.BUSINESS_REPORT)
	}
	return page{Form: form, Reports: reportOptions}
}

// Index renders the empty form.
func (wc *WebController) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", newPage(analyzeForm{}))
}

// Analyze handles the form submission and renders the grade or the error.
func (wc *WebController) Analyze(c *gin.Context) {
	var form analyzeForm
	if err := c.ShouldBind(&form); err != nil {
		log.Printf("failed to bind form: %v", err)
	}

	p := newPage(form)

	result, err := wc.Analyzer.Analyze(c.Request.Context(), analyzer.Request{
		Company:   form.Company,
		BsnsYear:  p.Form.BsnsYear,
		ReprtCode: p.Form.ReprtCode,
	})
	if err != nil {
		log.Printf("analysis failed for %q: %v", form.Company, err)
		p.Error = "오류 발생: " + err.Error()
		p.Candidates = candidates(err)
		c.HTML(errorStatus(err), "index.html", p)
		return
	}

	p.Result = result
	p.Mismatch = result.GradeMismatch()
	p.Explanation = renderMarkdown(result.Assessment.Explanation)
	for _, f := range financials.Fields() {
		p.Metrics = append(p.Metrics, metricRow{
			Name:   string(f),
			Value:  result.Metrics.Value(f),
			Source: result.Metrics.Source(f),
		})
	}

	c.HTML(http.StatusOK, "index.html", p)
}
