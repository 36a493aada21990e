package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Assessment is the JSON object the model is asked to return.
type Assessment struct {
	FinalScore  int    `json:"final_score"`
	Grade       string `json:"grade"`
	Explanation string `json:"explanation"`
}

// UnmarshalJSON accepts final_score as an integer, a float or a numeric
// string. Floats are rounded.
func (a *Assessment) UnmarshalJSON(data []byte) error {
	type plain Assessment
	var raw struct {
		plain
		FinalScore json.RawMessage `json:"final_score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	score, err := parseScore(raw.FinalScore)
	if err != nil {
		return err
	}

	*a = Assessment(raw.plain)
	a.FinalScore = score
	return nil
}

func parseScore(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("final_score is not a number: %s", raw)
	}
	return int(math.Round(v)), nil
}

// Grading is an Assessment plus call metadata.
type Grading struct {
	Assessment Assessment `json:"assessment"`
	RawOutput  string     `json:"raw_output"`
	Model      string     `json:"model"`
	UsedTokens int64      `json:"used_tokens"`
}
