package mcp

import "encoding/json"

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUpstream       = -32000
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

type ResponseError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      map[string]interface{} `json:"serverInfo"`
}

type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

type listToolsResult struct {
	Tools []Tool `json:"tools"`
}

type toolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolCallResult carries tool output. IsError marks upstream 4xx answers so
// the calling model sees the message instead of a protocol error.
type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

var tools = []Tool{
	{
		Name:        "grade_company",
		Description: "Fetch a company's key accounts from DART and grade it from A1 (strongest) to F10 (weakest).",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"company":    stringProp("Exact company name (e.g. 삼성전자) or 8 digit DART corp_code."),
				"bsns_year":  stringProp("Business year, default 2022."),
				"reprt_code": stringProp("11011 business report (default), 11012 half-year, 11013 Q1, 11014 Q3."),
			},
			"required": []string{"company"},
		},
	},
	{
		Name:        "search_companies",
		Description: "Find DART companies whose Korean or English name contains the query.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": stringProp("Partial company name."),
				"limit": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100},
			},
			"required": []string{"query"},
		},
	},
	{
		Name:        "analysis_history",
		Description: "List stored grades for a company, newest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"company": stringProp("Company name or corp_code."),
				"limit":   map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 100},
			},
			"required": []string{"company"},
		},
	},
}
