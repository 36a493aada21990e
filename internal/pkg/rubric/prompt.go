package rubric

import (
	"strconv"
	"strings"
	"text/template"

	"valuegrade/internal/pkg/financials"
)

const SystemPrompt = `당신은 금융 분석 전문가입니다. 주어진 기준을 그대로 적용해 점수를 계산하고,
요청된 JSON 객체 하나만 출력하세요.`

const promptTemplate = `
당신은 금융 분석 전문가입니다. 아래 재무 지표를 바탕으로 장기 투자 가치를 평가합니다.
점수는 초기 30점에서 시작하여 아래 기준에 따라 가감합니다.

[기준]
- PER: 10 미만이면 -4, 15 미만이면 -2, 20 미만이면 0, 그 이상이면 +4.
- PBR: 1.0 미만이면 -4, 1.5 미만이면 -2, 2.0 미만이면 +1, 그 이상이면 +3.
- ROE: 0.20 이상이면 -4, 0.15 이상이면 -2, 0.10 이상이면 +1, 그 미만이면 +4.
- ROA: 0.07 이상이면 -3, 0.05 이상이면 -1, 0.03 이상이면 +1, 그 미만이면 +3.
- 부채비율: 0.50 미만이면 -3, 0.70 미만이면 -1, 1.0 미만이면 +1, 그 이상이면 +4.
- 매출액, 영업이익, 당기순이익 증가율: 각 지표가 10% 이상이면 -2, 음수면 +3 (각 항목마다 적용).
- 매출액, 영업이익, 당기순이익 상태: "양호" 포함 시 -1, "부진" 포함 시 +2, 그 외에는 0.
- 자유현금흐름: 양수이면 -2, 음수이면 +3.
- 배당수익률: 0.04 이상이면 -2, 0.02 이상이면 -1, 그 미만이면 +2.

모든 항목에 대한 가중치 계산 후 최종 점수는 0 이상 59 이하로 보정합니다.
또한, 최종 점수를 아래 규칙에 따라 등급으로 매깁니다.
- 점수를 10으로 나눈 몫을 글자로 변환합니다: {0:"A", 1:"B", 2:"C", 3:"D", 4:"E", 5:"F"}
- 나머지에 1을 더한 숫자와 결합합니다.
예를 들어, 점수가 32이면 32 // 10 = 3 → "D", 그리고 32 % 10 + 1 = 3 → "D3".

아래 재무 지표를 참고하여 최종 점수와 등급을 계산하고, 각 항목이 최종 점수에 어떤 영향을 미쳤는지 상세하게 설명한 후,
JSON 형식으로 출력하세요. 출력 예시는 다음과 같이 해주세요:

{
  "final_score": <숫자>,
  "grade": "<등급>",
  "explanation": "<각 항목에 대한 가감 설명>"
}

[재무 지표]
PER: {{num .PER}}
PBR: {{num .PBR}}
ROE: {{num .ROE}}
ROA: {{num .ROA}}
Debt_Ratio: {{num .DebtRatio}}
Sales_Growth: {{num .SalesGrowth}}
Operating_Profit_Growth: {{num .OperatingProfitGrowth}}
Net_Income_Growth: {{num .NetIncomeGrowth}}
Sales_Status: {{.SalesStatus}}
Operating_Profit_Status: {{.OperatingProfitStatus}}
Net_Income_Status: {{.NetIncomeStatus}}
Free_Cash_Flow: {{num .FreeCashFlow}}
Dividend_Yield: {{num .DividendYield}}
`

var tmpl = template.Must(template.New("grade").Funcs(template.FuncMap{
	"num": formatNumber,
}).Parse(promptTemplate))

// Prompt renders the scoring rubric together with the metric values.
func Prompt(m *financials.Metrics) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, m); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
