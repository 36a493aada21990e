package testhelpers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Interceptor answers requests made through http.DefaultClient from the
// registered mocks and records every request it sees.
type Interceptor struct {
	mu       sync.Mutex
	mocks    []*Mock
	requests []*http.Request
	bodies   [][]byte
}

// Mock is one expected request and its canned reply. Each mock answers once,
// and mocks are tried in the order they were registered.
type Mock struct {
	method string
	target *url.URL
	status int
	body   []byte
	header http.Header
	used   bool
}

var (
	interceptor = &Interceptor{}
	previous    http.RoundTripper
)

// New registers a mock for requests to baseURL. Chain Get or Post to set the
// path and query, and Reply, Body and Header to shape the answer.
func New(baseURL string) *Mock {
	target, err := url.Parse(baseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		panic(fmt.Sprintf("httpmock: %q needs a scheme and a host", baseURL))
	}

	m := &Mock{target: target, status: http.StatusOK, header: make(http.Header)}

	interceptor.mu.Lock()
	interceptor.mocks = append(interceptor.mocks, m)
	interceptor.mu.Unlock()
	return m
}

func (m *Mock) Get(path string) *Mock  { return m.on(http.MethodGet, path) }
func (m *Mock) Post(path string) *Mock { return m.on(http.MethodPost, path) }

// on sets the method and path. Query parameters in path must all be present
// on the request; extra request parameters are ignored.
func (m *Mock) on(method, path string) *Mock {
	ref, err := url.Parse(path)
	if err != nil {
		panic(fmt.Sprintf("httpmock: bad path %q: %v", path, err))
	}
	m.method = method
	m.target.Path = ref.Path
	m.target.RawQuery = ref.RawQuery
	return m
}

func (m *Mock) Reply(status int) *Mock {
	m.status = status
	return m
}

func (m *Mock) Body(body []byte) *Mock {
	m.body = body
	return m
}

func (m *Mock) BodyString(body string) *Mock {
	return m.Body([]byte(body))
}

func (m *Mock) Header(key, value string) *Mock {
	m.header.Set(key, value)
	return m
}

// mismatch explains why req does not fit m, or returns "" when it does.
func (m *Mock) mismatch(req *http.Request) string {
	switch {
	case m.method != "" && m.method != req.Method:
		return fmt.Sprintf("method %s != %s", req.Method, m.method)
	case m.target.Scheme != req.URL.Scheme || m.target.Host != req.URL.Host:
		return fmt.Sprintf("host %s://%s != %s://%s", req.URL.Scheme, req.URL.Host, m.target.Scheme, m.target.Host)
	case m.target.Path != req.URL.Path:
		return fmt.Sprintf("path %s != %s", req.URL.Path, m.target.Path)
	}

	got := req.URL.Query()
	for key, want := range m.target.Query() {
		if strings.Join(got[key], ",") != strings.Join(want, ",") {
			return fmt.Sprintf("query %s=%v != %v", key, got[key], want)
		}
	}
	return ""
}

func (m *Mock) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", m.status, http.StatusText(m.status)),
		StatusCode:    m.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        m.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(m.body)),
		ContentLength: int64(len(m.body)),
		Request:       req,
	}
}

func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.requests = append(i.requests, req)
	i.bodies = append(i.bodies, body)

	var reasons []string
	for _, m := range i.mocks {
		if m.used {
			continue
		}
		reason := m.mismatch(req)
		if reason == "" {
			m.used = true
			return m.response(req), nil
		}
		reasons = append(reasons, reason)
	}

	return nil, fmt.Errorf("httpmock: no mock for %s %s [%s]", req.Method, req.URL, strings.Join(reasons, "; "))
}

func (i *Interceptor) reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.mocks = nil
	i.requests = nil
	i.bodies = nil
}

// Activate routes http.DefaultClient through the interceptor.
func Activate() {
	if http.DefaultClient.Transport == interceptor {
		return
	}
	previous = http.DefaultClient.Transport
	http.DefaultClient.Transport = interceptor
}

// Deactivate restores the previous transport and drops all mocks and
// recorded requests.
func Deactivate() {
	http.DefaultClient.Transport = previous
	interceptor.reset()
}

// IsDone reports whether every registered mock has answered.
func IsDone() bool {
	interceptor.mu.Lock()
	defer interceptor.mu.Unlock()
	for _, m := range interceptor.mocks {
		if !m.used {
			return false
		}
	}
	return true
}

// Requests returns the requests received so far, in order.
func Requests() []*http.Request {
	interceptor.mu.Lock()
	defer interceptor.mu.Unlock()
	return append([]*http.Request(nil), interceptor.requests...)
}

// RequestBody returns the body of the i-th received request.
func RequestBody(n int) []byte {
	interceptor.mu.Lock()
	defer interceptor.mu.Unlock()
	if n < 0 || n >= len(interceptor.bodies) {
		return nil
	}
	return interceptor.bodies[n]
}
