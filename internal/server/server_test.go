package server

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/analysis"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/server/ratelimit"
	"github.com/jonathan/resume-matcher/internal/types"
)

var testResult = &types.MatchResult{
	SimilarityScore: 72.5,
	MatchedKeywords: []string{"python"},
	MissingKeywords: []string{"kubernetes"},
	Suggestion:      "✨ STRENGTHS\nGood Python depth.",
}

// fakeAnalyzer records requests and replays progress steps before returning result or err.
type fakeAnalyzer struct {
	mu       sync.Mutex
	requests []types.AnalysisRequest
	result   *types.MatchResult
	err      error
}

func (f *fakeAnalyzer) Run(_ context.Context, req types.AnalysisRequest, onProgress analysis.ProgressCallback) (*analysis.Report, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if onProgress != nil {
		onProgress(analysis.ProgressEvent{Step: analysis.StepValidate, Message: "validating input"})
		onProgress(analysis.ProgressEvent{Step: analysis.StepKeywords, Message: "extracting keywords"})
	}
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Report{RequestID: "req-1", Result: f.result}, nil
}

func (f *fakeAnalyzer) lastRequest(t *testing.T) types.AnalysisRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestServer(t *testing.T, analyzer Analyzer, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := Config{Analyzer: analyzer}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func validRequest() map[string]string {
	return map[string]string{
		"resume_text":     strings.Repeat("Python developer with SQL. ", 3),
		"job_description": strings.Repeat("Looking for Python and Kubernetes. ", 3),
	}
}

func TestNew_RequiresAnalyzer(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHandleRoot(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "Resume matcher API")
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAnalyze_Success(t *testing.T) {
	fake := &fakeAnalyzer{result: testResult}
	s := newTestServer(t, fake)

	rec := serve(s, jsonRequest(t, "/api/analyze", validRequest()))

	require.Equal(t, http.StatusOK, rec.Code)
	var got types.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *testResult, got)
	assert.Equal(t, validRequest()["resume_text"], fake.lastRequest(t).ResumeText)
}

func TestHandleAnalyze_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing resume", map[string]string{"job_description": "Python"}},
		{"empty job", map[string]string{"resume_text": "Python", "job_description": ""}},
		{"wrong type", map[string]any{"resume_text": 42, "job_description": "Python"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAnalyzer{result: testResult}
			s := newTestServer(t, fake)

			rec := serve(s, jsonRequest(t, "/api/analyze", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "input_validation", body["kind"])
			assert.NotEmpty(t, body["details"])
			assert.Empty(t, fake.requests)
		})
	}
}

func TestHandleAnalyze_InvalidJSON(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{not json"))

	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "invalid JSON")
}

func TestHandleAnalyze_WrongContentType(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("resume"))
	req.Header.Set("Content-Type", "text/plain")

	rec := serve(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyze_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{}, func(c *Config) { c.MaxUploadBytes = 64 })

	rec := serve(s, jsonRequest(t, "/api/analyze", validRequest()))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleAnalyze_ErrorKinds(t *testing.T) {
	tests := []struct {
		kind analysis.Kind
		want int
	}{
		{analysis.KindInputValidation, http.StatusBadRequest},
		{analysis.KindQualityGate, http.StatusBadGateway},
		{analysis.KindServiceUnavailable, http.StatusServiceUnavailable},
		{analysis.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := newTestServer(t, &fakeAnalyzer{err: &analysis.Error{Kind: tt.kind, Message: "failed"}})

			rec := serve(s, jsonRequest(t, "/api/analyze", validRequest()))

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, string(tt.kind), decodeBody(t, rec)["kind"])
		})
	}
}

type sseEvent struct {
	id   string
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "id: "):
			current.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "" && current.name != "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestHandleAnalyzeStream_Success(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{result: testResult})

	rec := serve(s, jsonRequest(t, "/api/analyze/stream", validRequest()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "step", events[0].name)
	assert.Contains(t, events[0].data, `"validate"`)
	assert.Equal(t, "step", events[1].name)
	assert.Contains(t, events[1].data, `"keywords"`)
	assert.Equal(t, "complete", events[2].name)
	assert.Equal(t, []string{"1", "2", "3"}, []string{events[0].id, events[1].id, events[2].id})

	var got types.MatchResult
	require.NoError(t, json.Unmarshal([]byte(events[2].data), &got))
	assert.Equal(t, testResult.SimilarityScore, got.SimilarityScore)
}

func TestHandleAnalyzeStream_Error(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{err: &analysis.Error{Kind: analysis.KindQualityGate, Message: "no suggestion passed"}})

	rec := serve(s, jsonRequest(t, "/api/analyze/stream", validRequest()))

	require.Equal(t, http.StatusOK, rec.Code)
	events := readEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "error", last.name)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.data), &payload))
	assert.Equal(t, "quality_gate", payload["kind"])
	assert.EqualValues(t, http.StatusBadGateway, payload["status"])
}

func TestHandleAnalyzeStream_InvalidRequestIsPlainJSON(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := serve(s, jsonRequest(t, "/api/analyze/stream", map[string]string{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml":            doc.String(),
		"word/_rels/document.xml.rels": `<Relationships/>`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, data []byte, job string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	if job != "" {
		require.NoError(t, mw.WriteField("job_description", job))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-resume", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleUploadResume_DOCX(t *testing.T) {
	fake := &fakeAnalyzer{result: testResult}
	s := newTestServer(t, fake)
	job := "Looking for Python and Kubernetes engineers."

	rec := serve(s, uploadRequest(t, "resume.docx", buildDocx(t, "Jane Doe", "Python and SQL"), job))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := fake.lastRequest(t)
	assert.Equal(t, "Jane Doe\nPython and SQL", got.ResumeText)
	assert.Equal(t, job, got.JobDescription)
}

func TestHandleUploadResume_UnsupportedFormat(t *testing.T) {
	fake := &fakeAnalyzer{result: testResult}
	s := newTestServer(t, fake)

	rec := serve(s, uploadRequest(t, "resume.txt", []byte("plain text resume"), "Python"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "only PDF and DOCX are supported")
	assert.Empty(t, fake.requests)
}

func TestHandleUploadResume_CorruptPDF(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{result: testResult})

	rec := serve(s, uploadRequest(t, "resume.pdf", []byte("not really a pdf"), "Python"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUploadResume_MissingFile(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{result: testResult})

	rec := serve(s, uploadRequest(t, "", nil, "Python"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "file")
}

func TestHandleUploadResume_NotMultipart(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{result: testResult})

	rec := serve(s, jsonRequest(t, "/api/upload-resume", validRequest()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUploadResume_MissingJobIsLeftToAnalyzer(t *testing.T) {
	fake := &fakeAnalyzer{err: &analysis.Error{Kind: analysis.KindInputValidation, Message: "job_description is required"}}
	s := newTestServer(t, fake)

	rec := serve(s, uploadRequest(t, "resume.docx", buildDocx(t, "Jane Doe"), ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "", fake.lastRequest(t).JobDescription)
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := serve(s, httptest.NewRequest(http.MethodOptions, "/api/analyze", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := rec.Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec = serve(s, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid\r\ninjected")
	rec = serve(s, req)
	assert.NotContains(t, rec.Header().Get("X-Request-ID"), "injected")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{result: testResult}, func(c *Config) {
		c.RateLimit = &ratelimit.Config{
			Enabled:         true,
			EndpointConfigs: ratelimit.AnalysisEndpoints(1, time.Hour, 1),
		}
	})

	rec := serve(s, jsonRequest(t, "/api/analyze", validRequest()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = serve(s, jsonRequest(t, "/api/analyze", validRequest()))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody(t, rec)["error"])

	// health checks are never limited
	for i := 0; i < 3; i++ {
		rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	s := newTestServer(t, &fakeAnalyzer{result: testResult}, func(c *Config) { c.Metrics = metrics })

	serve(s, jsonRequest(t, "/api/analyze", validRequest()))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `resume_matcher_http_requests_total{route="POST /api/analyze",status="200"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{}, func(c *Config) { c.Addr = "127.0.0.1:0" })
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
