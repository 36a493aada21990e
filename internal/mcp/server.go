package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	errEmptyLine = errors.New("empty line")
	errParse     = errors.New("parse error")
)

// Server answers MCP requests read as newline-delimited JSON and forwards
// tool calls to the HTTP API at baseURL.
type Server struct {
	baseURL string
	client  *http.Client
	in      *bufio.Reader
	out     *bufio.Writer
	outMu   sync.Mutex
	wg      sync.WaitGroup
}

// NewServer builds a Server. baseURL is the API root, e.g.
// http://localhost:8080/api/v1.
func NewServer(baseURL string, in io.Reader, out io.Writer) *Server {
	return &Server{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 90 * time.Second},
		in:      bufio.NewReader(in),
		out:     bufio.NewWriter(out),
	}
}

// UseClient replaces the HTTP client used for tool calls.
func (s *Server) UseClient(c *http.Client) {
	s.client = c
}

// Serve runs until in is exhausted. Requests are handled concurrently and
// Serve waits for outstanding responses before returning.
func (s *Server) Serve(ctx context.Context) error {
	defer s.wg.Wait()

	for {
		req, err := s.readMessage()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, errEmptyLine) {
			continue
		}
		if errors.Is(err, errParse) {
			log.Printf("failed to read message: %v", err)
			resp := Response{
				JSONRPC: "2.0",
				ID:      json.RawMessage("null"),
				Error:   &ResponseError{Code: codeParseError, Message: "parse error", Data: err.Error()},
			}
			if err := s.writeMessage(resp); err != nil {
				log.Printf("failed to write message: %v", err)
			}
			continue
		}
		if err != nil {
			return err
		}

		s.wg.Add(1)
		go func(r Request) {
			defer s.wg.Done()

			resp := s.handleRequest(ctx, r)
			if resp == nil {
				return
			}
			if err := s.writeMessage(*resp); err != nil {
				log.Printf("failed to write message: %v", err)
			}
		}(req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) *Response {
	switch req.Method {
	case "initialize":
		return reply(req, initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
			ServerInfo:      map[string]interface{}{"name": "valuegrade", "version": "1.0.0"},
		})
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "tools/list":
		return reply(req, listToolsResult{Tools: tools})
	case "tools/call":
		return s.handleToolCall(ctx, req)
	case "ping":
		return reply(req, map[string]interface{}{})
	}

	if len(req.ID) == 0 {
		// unknown notification
		return nil
	}
	return replyError(req, &ResponseError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)})
}

func (s *Server) handleToolCall(ctx context.Context, req Request) *Response {
	var params toolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return replyError(req, &ResponseError{Code: codeInvalidParams, Message: "invalid params", Data: err.Error()})
		}
	}

	var (
		result *ToolCallResult
		rpcErr *ResponseError
	)

	switch params.Name {
	case "grade_company":
		result, rpcErr = s.gradeCompany(ctx, params.Arguments)
	case "search_companies":
		result, rpcErr = s.searchCompanies(ctx, params.Arguments)
	case "analysis_history":
		result, rpcErr = s.analysisHistory(ctx, params.Arguments)
	default:
		rpcErr = &ResponseError{Code: codeMethodNotFound, Message: fmt.Sprintf("tool not found: %s", params.Name)}
	}

	if rpcErr != nil {
		return replyError(req, rpcErr)
	}
	return reply(req, result)
}

func (s *Server) gradeCompany(ctx context.Context, args map[string]interface{}) (*ToolCallResult, *ResponseError) {
	company, rpcErr := requiredString(args, "company")
	if rpcErr != nil {
		return nil, rpcErr
	}

	body := map[string]string{"company": company}
	for _, key := range []string{"bsns_year", "reprt_code"} {
		if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
			body[key] = strings.TrimSpace(v)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ResponseError{Code: codeInvalidParams, Message: "invalid arguments", Data: err.Error()}
	}

	return s.call(ctx, http.MethodPost, s.baseURL+"/analyses", payload)
}

func (s *Server) searchCompanies(ctx context.Context, args map[string]interface{}) (*ToolCallResult, *ResponseError) {
	query, rpcErr := requiredString(args, "query")
	if rpcErr != nil {
		return nil, rpcErr
	}

	u := fmt.Sprintf("%s/companies?search=%s&limit=%d", s.baseURL, url.QueryEscape(query), limitArg(args, 20))
	return s.call(ctx, http.MethodGet, u, nil)
}

func (s *Server) analysisHistory(ctx context.Context, args map[string]interface{}) (*ToolCallResult, *ResponseError) {
	company, rpcErr := requiredString(args, "company")
	if rpcErr != nil {
		return nil, rpcErr
	}

	u := fmt.Sprintf("%s/analyses/%s?limit=%d", s.baseURL, url.PathEscape(company), limitArg(args, 10))
	return s.call(ctx, http.MethodGet, u, nil)
}

// call forwards to the API. 4xx answers become tool errors the model can
// read; transport failures and 5xx answers become JSON-RPC errors.
func (s *Server) call(ctx context.Context, method, u string, payload []byte) (*ToolCallResult, *ResponseError) {
	log.Printf("Calling upstream: %s %s", method, u)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &ResponseError{Code: codeUpstream, Message: "failed to build request", Data: err.Error()}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ResponseError{Code: codeUpstream, Message: "request failed", Data: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ResponseError{Code: codeUpstream, Message: "failed to read response", Data: err.Error()}
	}

	if resp.StatusCode >= 500 {
		return nil, &ResponseError{Code: codeUpstream, Message: fmt.Sprintf("upstream error: %s", resp.Status), Data: string(respBody)}
	}

	return &ToolCallResult{
		Content: []ContentItem{{Type: "text", Text: string(respBody)}},
		IsError: resp.StatusCode >= 400,
	}, nil
}

func requiredString(args map[string]interface{}, key string) (string, *ResponseError) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", &ResponseError{Code: codeInvalidParams, Message: key + " must be a non-empty string"}
	}
	return strings.TrimSpace(v), nil
}

func limitArg(args map[string]interface{}, fallback int) int {
	limit := fallback
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}
	if limit <= 0 {
		return fallback
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func reply(req Request, result interface{}) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func replyError(req Request, rpcErr *ResponseError) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
}

func (s *Server) readMessage() (Request, error) {
	line, err := s.in.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(bytes.TrimSpace(line)) == 0) {
		return Request{}, err
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Request{}, errEmptyLine
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	return req, nil
}

func (s *Server) writeMessage(resp Response) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := s.out.Write(append(payload, '\n')); err != nil {
		return err
	}
	return s.out.Flush()
}
