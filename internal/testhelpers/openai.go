package testhelpers

import "encoding/json"

// OpenAIResponse builds a completed Responses API payload whose single
// output message carries text.
func OpenAIResponse(text string, totalTokens int64) string {
	body := map[string]interface{}{
		"id":                   "resp_67ccd2bed1ec8190b14f964abc0542670bb6a6b452d3795b",
		"object":               "response",
		"created_at":           1741476542,
		"status":               "completed",
		"error":                nil,
		"incomplete_details":   nil,
		"instructions":         nil,
		"max_output_tokens":    nil,
		"model":                "gpt-4o-mini-2024-07-18",
		"parallel_tool_calls":  true,
		"previous_response_id": nil,
		"store":                true,
		"temperature":          0.0,
		"text":                 map[string]interface{}{"format": map[string]interface{}{"type": "text"}},
		"tool_choice":          "auto",
		"tools":                []interface{}{},
		"top_p":                1.0,
		"truncation":           "disabled",
		"metadata":             map[string]interface{}{},
		"output": []interface{}{
			map[string]interface{}{
				"type":   "message",
				"id":     "msg_67ccd2bf17f0819081ff3bb2cf6508e60bb6a6b452d3795b",
				"status": "completed",
				"role":   "assistant",
				"content": []interface{}{
					map[string]interface{}{
						"type":        "output_text",
						"text":        text,
						"annotations": []interface{}{},
					},
				},
			},
		},
		"usage": map[string]interface{}{
			"input_tokens":          totalTokens / 2,
			"input_tokens_details":  map[string]interface{}{"cached_tokens": 0},
			"output_tokens":         totalTokens - totalTokens/2,
			"output_tokens_details": map[string]interface{}{"reasoning_tokens": 0},
			"total_tokens":          totalTokens,
		},
	}

	b, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return string(b)
}
