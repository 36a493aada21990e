package financials

import "strconv"

// Field names match the keys used in the scoring prompt.
type Field string

const (
	TotalAssets           Field = "Total_Assets"
	TotalLiabilities      Field = "Total_Liabilities"
	TotalEquity           Field = "Total_Equity"
	Sales                 Field = "Sales"
	OperatingProfit       Field = "Operating_Profit"
	NetIncome             Field = "Net_Income"
	DebtRatio             Field = "Debt_Ratio"
	SalesGrowth           Field = "Sales_Growth"
	OperatingProfitGrowth Field = "Operating_Profit_Growth"
	NetIncomeGrowth       Field = "Net_Income_Growth"
	SalesStatus           Field = "Sales_Status"
	OperatingProfitStatus Field = "Operating_Profit_Status"
	NetIncomeStatus       Field = "Net_Income_Status"
	ROE                   Field = "ROE"
	ROA                   Field = "ROA"
	FreeCashFlow          Field = "Free_Cash_Flow"
	DividendYield         Field = "Dividend_Yield"
	PER                   Field = "PER"
	PBR                   Field = "PBR"
)

// Source records where a metric value came from.
type Source string

const (
	SourceExtracted Source = "extracted"
	SourceDerived   Source = "derived"
	SourceDefault   Source = "default"
	SourceMissing   Source = "missing"
)

type kind int

const (
	kindAmount kind = iota
	kindPercent
	kindStatus
)

type account struct {
	field Field
	name  string // account_nm
	kind  kind
}

// accounts is the fixed account_nm mapping, in prompt order.
var accounts = []account{
	{TotalAssets, "자산총계", kindAmount},
	{TotalLiabilities, "부채총계", kindAmount},
	{TotalEquity, "자본총계", kindAmount},
	{Sales, "매출액", kindAmount},
	{OperatingProfit, "영업이익", kindAmount},
	{NetIncome, "당기순이익", kindAmount},
	{DebtRatio, "부채비율", kindPercent},
	{SalesGrowth, "매출액증가율", kindPercent},
	{OperatingProfitGrowth, "영업이익증가율", kindPercent},
	{NetIncomeGrowth, "당기순이익증가율", kindPercent},
	{SalesStatus, "매출액 상태", kindStatus},
	{OperatingProfitStatus, "영업이익 상태", kindStatus},
	{NetIncomeStatus, "당기순이익 상태", kindStatus},
	{ROE, "ROE", kindPercent},
	{ROA, "ROA", kindPercent},
	{FreeCashFlow, "자유현금흐름", kindAmount},
	{DividendYield, "배당수익률", kindPercent},
}

const DefaultStatus = "보통"

var numericDefaults = map[Field]float64{
	PER:                   15.0,
	PBR:                   1.5,
	FreeCashFlow:          0,
	DividendYield:         0.02,
	ROE:                   0.12,
	ROA:                   0.04,
	DebtRatio:             0.70,
	SalesGrowth:           0,
	OperatingProfitGrowth: 0,
	NetIncomeGrowth:       0,
}

// AccountName returns the DART account_nm mapped to f, if any.
func AccountName(f Field) (string, bool) {
	for _, a := range accounts {
		if a.field == f {
			return a.name, true
		}
	}
	return "", false
}

// Metrics is the extracted, derived and defaulted metric set. The six
// statement amounts have no default and stay nil when absent.
type Metrics struct {
	TotalAssets      *float64 `json:"Total_Assets"`
	TotalLiabilities *float64 `json:"Total_Liabilities"`
	TotalEquity      *float64 `json:"Total_Equity"`
	Sales            *float64 `json:"Sales"`
	OperatingProfit  *float64 `json:"Operating_Profit"`
	NetIncome        *float64 `json:"Net_Income"`

	PER                   float64 `json:"PER"`
	PBR                   float64 `json:"PBR"`
	ROE                   float64 `json:"ROE"`
	ROA                   float64 `json:"ROA"`
	DebtRatio             float64 `json:"Debt_Ratio"`
	SalesGrowth           float64 `json:"Sales_Growth"`
	OperatingProfitGrowth float64 `json:"Operating_Profit_Growth"`
	NetIncomeGrowth       float64 `json:"Net_Income_Growth"`
	SalesStatus           string  `json:"Sales_Status"`
	OperatingProfitStatus string  `json:"Operating_Profit_Status"`
	NetIncomeStatus       string  `json:"Net_Income_Status"`
	FreeCashFlow          float64 `json:"Free_Cash_Flow"`
	DividendYield         float64 `json:"Dividend_Yield"`

	Sources map[Field]Source `json:"sources"`
}

// Source reports where f came from.
func (m *Metrics) Source(f Field) Source {
	if s, ok := m.Sources[f]; ok {
		return s
	}
	return SourceMissing
}

// Fields lists every metric in display order: the mapped accounts, then
// PER and PBR.
func Fields() []Field {
	out := make([]Field, 0, len(accounts)+2)
	for _, a := range accounts {
		out = append(out, a.field)
	}
	return append(out, PER, PBR)
}

// Value formats f for display. Absent statement amounts render as "-".
func (m *Metrics) Value(f Field) string {
	switch f {
	case TotalAssets:
		return formatPtr(m.TotalAssets)
	case TotalLiabilities:
		return formatPtr(m.TotalLiabilities)
	case TotalEquity:
		return formatPtr(m.TotalEquity)
	case Sales:
		return formatPtr(m.Sales)
	case OperatingProfit:
		return formatPtr(m.OperatingProfit)
	case NetIncome:
		return formatPtr(m.NetIncome)
	case SalesStatus:
		return m.SalesStatus
	case OperatingProfitStatus:
		return m.OperatingProfitStatus
	case NetIncomeStatus:
		return m.NetIncomeStatus
	}

	var v float64
	switch f {
	case PER:
		v = m.PER
	case PBR:
		v = m.PBR
	case ROE:
		v = m.ROE
	case ROA:
		v = m.ROA
	case DebtRatio:
		v = m.DebtRatio
	case SalesGrowth:
		v = m.SalesGrowth
	case OperatingProfitGrowth:
		v = m.OperatingProfitGrowth
	case NetIncomeGrowth:
		v = m.NetIncomeGrowth
	case FreeCashFlow:
		v = m.FreeCashFlow
	case DividendYield:
		v = m.DividendYield
	default:
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
