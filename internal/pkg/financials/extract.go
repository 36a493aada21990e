package financials

import (
	"errors"
	"log"
	"math"
	"strings"

	"valuegrade/internal/pkg/dart"
)

var errAccountNotFound = errors.New("account not found")

// Options carries data that does not come from the statement rows.
type Options struct {
	// MarketCap in KRW. PER and PBR are derived from it when set.
	MarketCap *float64
	// ReportCode of the rows. Blank means the business report. For quarterly
	// and half-year reports, net income is annualized from the cumulative
	// amount before ROE, ROA and PER are derived.
	ReportCode dart.ReportType
}

type extraction struct {
	amounts  map[Field]float64
	statuses map[Field]string
	rows     map[Field]*dart.SingleAccount
	sources  map[Field]Source
}

// Extract maps statement rows to Metrics. The first row whose account_nm
// matches wins. Unset values are then derived where the inputs allow it and
// finally replaced with defaults. Status values are trimmed, and a blank
// status counts as missing and gets DefaultStatus.
func Extract(rows []dart.SingleAccount, opts Options) *Metrics {
	e := &extraction{
		amounts:  make(map[Field]float64),
		statuses: make(map[Field]string),
		rows:     make(map[Field]*dart.SingleAccount),
		sources:  make(map[Field]Source),
	}

	for _, a := range accounts {
		if err := e.extract(rows, a); err != nil {
			log.Printf("계정명('%s') 데이터 추출 실패: %v", a.name, err)
		}
	}

	e.derive(opts)
	e.applyDefaults()

	return e.metrics()
}

func (e *extraction) extract(rows []dart.SingleAccount, a account) error {
	row := findRow(rows, a.name)
	if row == nil {
		return errAccountNotFound
	}
	e.rows[a.field] = row

	if a.kind == kindStatus {
		status := strings.TrimSpace(row.ThstrmAmount)
		if status == "" {
			return dart.ErrEmptyAmount
		}
		e.statuses[a.field] = status
		e.sources[a.field] = SourceExtracted
		return nil
	}

	v, err := dart.ParseAmount(row.ThstrmAmount)
	if err != nil {
		return err
	}

	if a.kind == kindPercent {
		v = v / 100
	}

	e.amounts[a.field] = v
	e.sources[a.field] = SourceExtracted
	return nil
}

func findRow(rows []dart.SingleAccount, name string) *dart.SingleAccount {
	for i := range rows {
		if strings.TrimSpace(rows[i].AccountNm) == name {
			return &rows[i]
		}
	}
	return nil
}

func (e *extraction) has(f Field) bool {
	_, ok := e.sources[f]
	return ok
}

func (e *extraction) setDerived(f Field, v float64) {
	if e.has(f) || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	e.amounts[f] = v
	e.sources[f] = SourceDerived
}

// ratio returns num/den when both are known and den is positive.
func (e *extraction) ratio(num, den Field) (float64, bool) {
	n, ok := e.amounts[num]
	if !ok {
		return 0, false
	}
	d, ok := e.amounts[den]
	if !ok || d <= 0 {
		return 0, false
	}
	return n / d, true
}

func (e *extraction) derive(opts Options) {
	report := opts.ReportCode
	if report == "" {
		report = dart.BUSINESS_REPORT
	}

	if ni, ok := e.annualNetIncome(report); ok {
		if eq, ok := e.amounts[TotalEquity]; ok && eq > 0 {
			e.setDerived(ROE, ni/eq)
		}
		if assets, ok := e.amounts[TotalAssets]; ok && assets > 0 {
			e.setDerived(ROA, ni/assets)
		}
		if opts.MarketCap != nil && *opts.MarketCap > 0 && ni > 0 {
			e.setDerived(PER, *opts.MarketCap/ni)
		}
	}

	if v, ok := e.ratio(TotalLiabilities, TotalEquity); ok {
		e.setDerived(DebtRatio, v)
	}

	e.deriveGrowth(SalesGrowth, Sales, report)
	e.deriveGrowth(OperatingProfitGrowth, OperatingProfit, report)
	e.deriveGrowth(NetIncomeGrowth, NetIncome, report)

	if opts.MarketCap != nil && *opts.MarketCap > 0 {
		if eq, ok := e.amounts[TotalEquity]; ok && eq > 0 {
			e.setDerived(PBR, *opts.MarketCap/eq)
		}
	}
}

// annualNetIncome returns twelve months of net income. Interim reports are
// scaled from the cumulative amount; without one there is nothing to derive.
func (e *extraction) annualNetIncome(report dart.ReportType) (float64, bool) {
	ni, ok := e.amounts[NetIncome]
	if !ok {
		return 0, false
	}

	months := report.Months()
	if months == 12 {
		return ni, true
	}
	if months == 0 {
		return 0, false
	}

	row := e.rows[NetIncome]
	if row == nil {
		return 0, false
	}
	cumulative, err := dart.ParseAmount(row.ThstrmAddAmount)
	if err != nil {
		return 0, false
	}
	return cumulative * 12 / float64(months), true
}

// deriveGrowth compares this term with the prior term of the same row.
// Interim reports compare cumulative amounts, so both years cover the same
// months.
func (e *extraction) deriveGrowth(growth, base Field, report dart.ReportType) {
	cur, ok := e.amounts[base]
	if !ok {
		return
	}
	row := e.rows[base]
	if row == nil {
		return
	}

	prevAmount := row.FrmtrmAmount
	if report != dart.BUSINESS_REPORT {
		v, err := dart.ParseAmount(row.ThstrmAddAmount)
		if err != nil {
			return
		}
		cur = v
		prevAmount = row.FrmtrmAddAmount
	}

	prev, err := dart.ParseAmount(prevAmount)
	if err != nil || prev == 0 {
		return
	}
	e.setDerived(growth, (cur-prev)/math.Abs(prev))
}

func (e *extraction) applyDefaults() {
	for f, v := range numericDefaults {
		if !e.has(f) {
			e.amounts[f] = v
			e.sources[f] = SourceDefault
		}
	}

	for _, f := range []Field{SalesStatus, OperatingProfitStatus, NetIncomeStatus} {
		if !e.has(f) {
			e.statuses[f] = DefaultStatus
			e.sources[f] = SourceDefault
		}
	}
}

func (e *extraction) ptr(f Field) *float64 {
	v, ok := e.amounts[f]
	if !ok {
		return nil
	}
	return &v
}

func (e *extraction) metrics() *Metrics {
	return &Metrics{
		TotalAssets:      e.ptr(TotalAssets),
		TotalLiabilities: e.ptr(TotalLiabilities),
		TotalEquity:      e.ptr(TotalEquity),
		Sales:            e.ptr(Sales),
		OperatingProfit:  e.ptr(OperatingProfit),
		NetIncome:        e.ptr(NetIncome),

		PER:                   e.amounts[PER],
		PBR:                   e.amounts[PBR],
		ROE:                   e.amounts[ROE],
		ROA:                   e.amounts[ROA],
		DebtRatio:             e.amounts[DebtRatio],
		SalesGrowth:           e.amounts[SalesGrowth],
		OperatingProfitGrowth: e.amounts[OperatingProfitGrowth],
		NetIncomeGrowth:       e.amounts[NetIncomeGrowth],
		SalesStatus:           e.statuses[SalesStatus],
		OperatingProfitStatus: e.statuses[OperatingProfitStatus],
		NetIncomeStatus:       e.statuses[NetIncomeStatus],
		FreeCashFlow:          e.amounts[FreeCashFlow],
		DividendYield:         e.amounts[DividendYield],

		Sources: e.sources,
	}
}
