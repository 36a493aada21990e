package mcp_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"valuegrade/internal/mcp"
	"valuegrade/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// serve runs the given request lines and returns the responses keyed by id.
func serve(lines ...string) map[string]mcp.Response {
	var out bytes.Buffer
	server := mcp.NewServer("http://api.test/api/v1/", strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	server.UseClient(http.DefaultClient)

	Expect(server.Serve(context.Background())).To(Succeed())

	responses := make(map[string]mcp.Response)
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp mcp.Response
		Expect(json.Unmarshal(scanner.Bytes(), &resp)).To(Succeed())
		responses[string(resp.ID)] = resp
	}
	return responses
}

func resultText(resp mcp.Response) (string, bool) {
	raw, err := json.Marshal(resp.Result)
	Expect(err).NotTo(HaveOccurred())

	var result mcp.ToolCallResult
	Expect(json.Unmarshal(raw, &result)).To(Succeed())
	Expect(result.Content).To(HaveLen(1))
	return result.Content[0].Text, result.IsError
}

var _ = Describe("Server", func() {
	BeforeEach(func() {
		testhelpers.Activate()
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	It("answers the handshake and lists tools", func() {
		responses := serve(
			`{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": {}}`,
			`{"jsonrpc": "2.0", "method": "notifications/initialized"}`,
			``,
			`{"jsonrpc": "2.0", "id": 2, "method": "tools/list"}`,
			`{"jsonrpc": "2.0", "id": 3, "method": "resources/list"}`,
		)

		Expect(responses).To(HaveLen(3))
		Expect(responses["1"].Error).To(BeNil())
		Expect(responses["3"].Error.Code).To(Equal(-32601))

		raw, err := json.Marshal(responses["2"].Result)
		Expect(err).NotTo(HaveOccurred())
		var listed struct {
			Tools []mcp.Tool `json:"tools"`
		}
		Expect(json.Unmarshal(raw, &listed)).To(Succeed())

		var names []string
		for _, t := range listed.Tools {
			names = append(names, t.Name)
		}
		Expect(names).To(Equal([]string{"grade_company", "search_companies", "analysis_history"}))
	})

	It("answers malformed lines with a parse error and keeps reading", func() {
		var out bytes.Buffer
		input := "{\"jsonrpc\": \"2.0\", \"id\": 1, \"method\"\n" +
			`{"jsonrpc": "2.0", "id": 2, "method": "ping"}` + "\n"
		server := mcp.NewServer("http://api.test/api/v1", strings.NewReader(input), &out)

		Expect(server.Serve(context.Background())).To(Succeed())

		var lines []map[string]interface{}
		scanner := bufio.NewScanner(&out)
		for scanner.Scan() {
			var msg map[string]interface{}
			Expect(json.Unmarshal(scanner.Bytes(), &msg)).To(Succeed())
			lines = append(lines, msg)
		}
		Expect(lines).To(HaveLen(2))

		var parseErr, ping map[string]interface{}
		for _, msg := range lines {
			if msg["id"] == nil {
				parseErr = msg
			} else {
				ping = msg
			}
		}

		Expect(parseErr).To(HaveKeyWithValue("id", BeNil()))
		Expect(parseErr["error"]).To(HaveKeyWithValue("code", BeNumerically("==", -32700)))
		Expect(ping).To(HaveKeyWithValue("id", BeNumerically("==", 2)))
		Expect(ping).NotTo(HaveKey("error"))
	})

	It("forwards grade_company to the analyses endpoint", func() {
		testhelpers.New("http://api.test").
			Post("/api/v1/analyses").
			Reply(200).
			BodyString(`{"result": {"assessment": {"grade": "C4"}}}`).
			Header("Content-Type", "application/json")

		responses := serve(`{"jsonrpc": "2.0", "id": 7, "method": "tools/call", "params": {"name": "grade_company", "arguments": {"company": " 삼성전자 ", "bsns_year": "2023"}}}`)

		Expect(testhelpers.IsDone()).To(BeTrue())
		Expect(testhelpers.RequestBody(0)).To(MatchJSON(`{"company": "삼성전자", "bsns_year": "2023"}`))

		text, isError := resultText(responses["7"])
		Expect(isError).To(BeFalse())
		Expect(text).To(MatchJSON(`{"result": {"assessment": {"grade": "C4"}}}`))
	})

	It("passes API validation errors back as tool errors", func() {
		testhelpers.New("http://api.test").
			Post("/api/v1/analyses").
			Reply(409).
			BodyString(`{"error": "여러 기업이 검색되었습니다: 삼성전자, 삼성전기. 정확한 기업명을 입력하세요."}`)

		responses := serve(`{"jsonrpc": "2.0", "id": 8, "method": "tools/call", "params": {"name": "grade_company", "arguments": {"company": "삼성"}}}`)

		text, isError := resultText(responses["8"])
		Expect(isError).To(BeTrue())
		Expect(text).To(ContainSubstring("삼성전기"))
	})

	It("reports server failures as JSON-RPC errors", func() {
		testhelpers.New("http://api.test").
			Get("/api/v1/companies?search=LG&limit=5").
			Reply(503).
			BodyString(`{"error": "down"}`)

		responses := serve(`{"jsonrpc": "2.0", "id": 9, "method": "tools/call", "params": {"name": "search_companies", "arguments": {"query": "LG", "limit": 5}}}`)

		Expect(responses["9"].Error).NotTo(BeNil())
		Expect(responses["9"].Error.Code).To(Equal(-32000))
	})

	It("escapes the company in the history path", func() {
		testhelpers.New("http://api.test").
			Get("/api/v1/analyses/삼성전자?limit=10").
			Reply(200).
			BodyString(`{"analyses": []}`)

		responses := serve(`{"jsonrpc": "2.0", "id": 10, "method": "tools/call", "params": {"name": "analysis_history", "arguments": {"company": "삼성전자"}}}`)

		Expect(testhelpers.IsDone()).To(BeTrue())
		text, _ := resultText(responses["10"])
		Expect(text).To(MatchJSON(`{"analyses": []}`))
	})

	It("validates tool arguments", func() {
		responses := serve(
			`{"jsonrpc": "2.0", "id": 11, "method": "tools/call", "params": {"name": "grade_company", "arguments": {}}}`,
			`{"jsonrpc": "2.0", "id": 12, "method": "tools/call", "params": {"name": "unknown", "arguments": {}}}`,
		)

		Expect(responses["11"].Error.Code).To(Equal(-32602))
		Expect(responses["12"].Error.Code).To(Equal(-32601))
		Expect(testhelpers.Requests()).To(BeEmpty())
	})
})
