package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wgomg/kukulkan/internal/config"
	"github.com/wgomg/kukulkan/internal/pipeline"
	"github.com/wgomg/kukulkan/internal/qa"
	"github.com/wgomg/kukulkan/internal/retrieval"
	"github.com/wgomg/kukulkan/internal/source"
	"github.com/wgomg/kukulkan/internal/summarize"
	"github.com/wgomg/kukulkan/internal/transcript"
	"github.com/wgomg/kukulkan/internal/utils"
	"github.com/wgomg/kukulkan/internal/utils/httputils"
)

type fakeBackend struct{}

func (f *fakeBackend) FeatureExtraction(reqID *string, text string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

func (f *fakeBackend) Summarize(reqID *string, prompt string) (string, error) {
	return "• Covers the basics of the topic", nil
}

func (f *fakeBackend) TextGeneration(reqID *string, prompt string) (string, error) {
	return "an answer grounded in the transcript", nil
}

func (f *fakeBackend) Translation(reqID *string, text string) (string, error) {
	return "english: " + text, nil
}

type fakeFetcher struct {
	segments []transcript.Segment
	info     source.VideoInfo
	err      error
}

func (f *fakeFetcher) Fetch(reqID *string, videoID string, languages []string) ([]transcript.Segment, source.VideoInfo, error) {
	return f.segments, f.info, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Chunking: config.ChunkingConfig{
			TargetSizeTokens:   1000,
			OverlapFraction:    0.125,
			MinSegmentDuration: 2.0,
		},
		Retrieval: config.RetrievalConfig{
			SimilarityThreshold: 0.35,
			TopK:                5,
			MaxContextLength:    2000,
			EmbeddingDimension:  3,
		},
		Source: config.SourceConfig{
			PreferredLanguages: []string{"en"},
			MaxVideoDuration:   3600,
		},
	}
}

func newTestServer(t *testing.T, fetcher source.Fetcher) *httptest.Server {
	t.Helper()

	cfg := testConfig()
	logger := utils.NewDiscardLogger()
	backend := &fakeBackend{}
	engine := retrieval.NewEngine(backend, cfg, logger)
	composer := qa.NewComposer(engine, backend, cfg, logger)
	summarizer := summarize.NewAgent(backend, logger)
	acquirer := source.NewAcquirer(fetcher, nil, cfg, logger)
	p := pipeline.New(acquirer, engine, composer, summarizer, cfg, logger)

	handler := NewHandler(logger, p, cfg)
	mux := http.NewServeMux()
	RegisterRoutes(mux, handler)

	server := httptest.NewServer(httputils.WithRequestID(mux))
	t.Cleanup(server.Close)
	return server
}

func workingFetcher() *fakeFetcher {
	return &fakeFetcher{
		segments: []transcript.Segment{
			{Text: "Gophers build concurrent systems with channels.", Start: 0, Duration: 4},
			{Text: "Goroutines are lightweight threads managed by the runtime.", Start: 4, Duration: 4},
		},
		info: source.VideoInfo{
			VideoID: "dQw4w9WgXcQ",
			Title:   "Concurrency Talk",
			Channel: "Go Channel",
			URL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
	}
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func TestHandleProcess(t *testing.T) {
	server := newTestServer(t, workingFetcher())

	resp := postJSON(t, server.URL+"/process", ProcessRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	decoded := decodeBody(t, resp)
	if decoded["status"] != "success" {
		t.Errorf("status field: got %v", decoded["status"])
	}
	data, ok := decoded["data"].(map[string]any)
	if !ok {
		t.Fatalf("data field missing: %v", decoded)
	}
	if data["processing_method"] != source.MethodCaptions {
		t.Errorf("processing_method: got %v", data["processing_method"])
	}
	if data["chunk_count"].(float64) < 1 {
		t.Errorf("chunk_count: got %v", data["chunk_count"])
	}
	if !strings.Contains(data["transcript_preview"].(string), "Gophers") {
		t.Error("preview missing transcript text")
	}
}

func TestHandleProcessTranslatesToEnglish(t *testing.T) {
	fetcher := workingFetcher()
	fetcher.info.Language = "es"
	server := newTestServer(t, fetcher)

	resp := postJSON(t, server.URL+"/process", ProcessRequest{
		URL:                "dQw4w9WgXcQ",
		TranslateToEnglish: true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	decoded := decodeBody(t, resp)
	data := decoded["data"].(map[string]any)
	if !strings.HasPrefix(data["summary"].(string), "english: ") {
		t.Errorf("summary not translated: %v", data["summary"])
	}
	for i, bullet := range data["bullet_points"].([]any) {
		if !strings.HasPrefix(bullet.(string), "english: ") {
			t.Errorf("bullet %d not translated: %v", i, bullet)
		}
	}
}

func TestHandleProcessValidation(t *testing.T) {
	server := newTestServer(t, workingFetcher())

	resp := postJSON(t, server.URL+"/process", ProcessRequest{URL: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank url: got status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Post(server.URL+"/process", "text/plain", strings.NewReader("nope"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("wrong content type: got status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHandleProcessEmptyContent(t *testing.T) {
	fetcher := &fakeFetcher{
		segments: []transcript.Segment{{Text: "[Music]", Start: 0, Duration: 2}},
		info:     source.VideoInfo{VideoID: "dQw4w9WgXcQ"},
	}
	server := newTestServer(t, fetcher)

	resp := postJSON(t, server.URL+"/process", ProcessRequest{URL: "dQw4w9WgXcQ"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("got status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHandleAskLifecycle(t *testing.T) {
	server := newTestServer(t, workingFetcher())

	// Before any processing the composer reports an empty index.
	resp := postJSON(t, server.URL+"/ask", AskRequest{Question: "what is this about?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	decoded := decodeBody(t, resp)
	data := decoded["data"].(map[string]any)
	if data["answer"] != qa.NoContentAnswer {
		t.Errorf("pre-process answer: got %v", data["answer"])
	}

	resp = postJSON(t, server.URL+"/process", ProcessRequest{URL: "dQw4w9WgXcQ"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("process status: got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/ask", AskRequest{Question: "what are goroutines?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ask status: got %d", resp.StatusCode)
	}
	decoded = decodeBody(t, resp)
	data = decoded["data"].(map[string]any)
	answer := data["answer"].(string)
	if !strings.Contains(answer, "grounded in the transcript") {
		t.Errorf("answer: got %q", answer)
	}
	if _, ok := data["citations"].([]any); !ok {
		t.Errorf("citations missing: %v", data["citations"])
	}
}

func TestHandleAskValidation(t *testing.T) {
	server := newTestServer(t, workingFetcher())

	resp := postJSON(t, server.URL+"/ask", AskRequest{Question: ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank question: got status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHandleExport(t *testing.T) {
	server := newTestServer(t, workingFetcher())

	resp, err := http.Get(server.URL + "/export")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("export without session: got status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/process", ProcessRequest{URL: "dQw4w9WgXcQ"})
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/export")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type: got %q", ct)
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(body.String(), "# Concurrency Talk") {
		t.Error("markdown missing title")
	}
}

func TestHandleSessionAndClear(t *testing.T) {
	server := newTestServer(t, workingFetcher())

	resp, err := http.Get(server.URL + "/session")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	decoded := decodeBody(t, resp)
	if decoded["active"] != false {
		t.Errorf("fresh session active: got %v", decoded["active"])
	}

	resp = postJSON(t, server.URL+"/process", ProcessRequest{URL: "dQw4w9WgXcQ"})
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/session")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	decoded = decodeBody(t, resp)
	if decoded["active"] != true {
		t.Errorf("active after process: got %v", decoded["active"])
	}
	if decoded["title"] != "Concurrency Talk" {
		t.Errorf("title: got %v", decoded["title"])
	}

	resp = postJSON(t, server.URL+"/session/clear", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status: got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/session")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	decoded = decodeBody(t, resp)
	if decoded["active"] != false {
		t.Errorf("active after clear: got %v", decoded["active"])
	}
}
