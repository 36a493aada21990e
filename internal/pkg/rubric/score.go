package rubric

import (
	"fmt"
	"strings"

	"valuegrade/internal/pkg/financials"
)

const (
	BaseScore = 30
	MinScore  = 0
	MaxScore  = 59
)

var gradeLetters = []string{"A", "B", "C", "D", "E", "F"}

// Adjustment is the contribution of a single metric to the score.
type Adjustment struct {
	Field  financials.Field `json:"field"`
	Value  string           `json:"value"`
	Points int              `json:"points"`
}

type Result struct {
	Score       int          `json:"score"`
	Grade       string       `json:"grade"`
	Adjustments []Adjustment `json:"adjustments"`
}

// Grade converts a clamped score into a letter and a 1-10 digit: 32 → D3.
func Grade(score int) string {
	score = clamp(score)
	return fmt.Sprintf("%s%d", gradeLetters[score/10], score%10+1)
}

// Score evaluates the rubric locally. Higher scores mean a weaker
// long-term investment case.
func Score(m *financials.Metrics) Result {
	var adj []Adjustment
	add := func(f financials.Field, value string, points int) {
		adj = append(adj, Adjustment{Field: f, Value: value, Points: points})
	}

	add(financials.PER, formatNumber(m.PER), perPoints(m.PER))
	add(financials.PBR, formatNumber(m.PBR), pbrPoints(m.PBR))
	add(financials.ROE, formatNumber(m.ROE), roePoints(m.ROE))
	add(financials.ROA, formatNumber(m.ROA), roaPoints(m.ROA))
	add(financials.DebtRatio, formatNumber(m.DebtRatio), debtRatioPoints(m.DebtRatio))
	add(financials.SalesGrowth, formatNumber(m.SalesGrowth), growthPoints(m.SalesGrowth))
	add(financials.OperatingProfitGrowth, formatNumber(m.OperatingProfitGrowth), growthPoints(m.OperatingProfitGrowth))
	add(financials.NetIncomeGrowth, formatNumber(m.NetIncomeGrowth), growthPoints(m.NetIncomeGrowth))
	add(financials.SalesStatus, m.SalesStatus, statusPoints(m.SalesStatus))
	add(financials.OperatingProfitStatus, m.OperatingProfitStatus, statusPoints(m.OperatingProfitStatus))
	add(financials.NetIncomeStatus, m.NetIncomeStatus, statusPoints(m.NetIncomeStatus))
	add(financials.FreeCashFlow, formatNumber(m.FreeCashFlow), freeCashFlowPoints(m.FreeCashFlow))
	add(financials.DividendYield, formatNumber(m.DividendYield), dividendPoints(m.DividendYield))

	score := BaseScore
	for _, a := range adj {
		score += a.Points
	}
	score = clamp(score)

	return Result{Score: score, Grade: Grade(score), Adjustments: adj}
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func perPoints(v float64) int {
	switch {
	case v < 10:
		return -4
	case v < 15:
		return -2
	case v < 20:
		return 0
	}
	return 4
}

func pbrPoints(v float64) int {
	switch {
	case v < 1.0:
		return -4
	case v < 1.5:
		return -2
	case v < 2.0:
		return 1
	}
	return 3
}

func roePoints(v float64) int {
	switch {
	case v >= 0.20:
		return -4
	case v >= 0.15:
		return -2
	case v >= 0.10:
		return 1
	}
	return 4
}

func roaPoints(v float64) int {
	switch {
	case v >= 0.07:
		return -3
	case v >= 0.05:
		return -1
	case v >= 0.03:
		return 1
	}
	return 3
}

func debtRatioPoints(v float64) int {
	switch {
	case v < 0.50:
		return -3
	case v < 0.70:
		return -1
	case v < 1.0:
		return 1
	}
	return 4
}

// growth between 0 and 10% leaves the score unchanged
func growthPoints(v float64) int {
	switch {
	case v >= 0.10:
		return -2
	case v < 0:
		return 3
	}
	return 0
}

func statusPoints(s string) int {
	switch {
	case strings.Contains(s, "양호"):
		return -1
	case strings.Contains(s, "부진"):
		return 2
	}
	return 0
}

func freeCashFlowPoints(v float64) int {
	switch {
	case v > 0:
		return -2
	case v < 0:
		return 3
	}
	return 0
}

func dividendPoints(v float64) int {
	switch {
	case v >= 0.04:
		return -2
	case v >= 0.02:
		return -1
	}
	return 2
}
