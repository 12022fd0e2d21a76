package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deferlink/deferlink-go/fingerprint"
)

// newTestClient builds a Client against a test server with backoff sleeps
// stubbed out.
func newTestClient(serverURL string, maxRetries int) *Client {
	client := New(Config{
		BaseURL:    serverURL,
		ClientKey:  "test-key-123",
		UserAgent:  "DeferLink-Go/test",
		MaxRetries: maxRetries,
	})
	client.sleep = func(context.Context, time.Duration) error { return nil }
	return client
}

func testFingerprint() fingerprint.DeviceFingerprint {
	return fingerprint.DeviceFingerprint{
		ScreenWidth:      390,
		ScreenHeight:     844,
		DevicePixelRatio: 3.0,
		OSVersion:        "17.2.0",
		Timezone:         "America/New_York",
		Language:         "en-US",
		Languages:        []string{"en-US"},
		DeviceModel:      "iPhone15,2",
	}
}

func TestClient_MatchFingerprint_Success(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType, gotUserAgent, gotRequestID, gotPath string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get(HeaderRequestID)
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"matched":true,"confidence":"high","match_score":90,"link":{"id":"lnk_1"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	result, err := client.MatchFingerprint(context.Background(), testFingerprint())
	if err != nil {
		t.Fatalf("MatchFingerprint failed: %v", err)
	}

	if !result.Matched {
		t.Error("Matched should be true")
	}
	if result.Link == nil || result.Link.ID != "lnk_1" {
		t.Errorf("Link = %+v, want ID lnk_1", result.Link)
	}
	if gotPath != "/fingerprints/match" {
		t.Errorf("path = %s, want /fingerprints/match", gotPath)
	}
	if gotAuth != "Bearer test-key-123" {
		t.Errorf("Authorization = %q, want Bearer test-key-123", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotUserAgent != "DeferLink-Go/test" {
		t.Errorf("User-Agent = %q", gotUserAgent)
	}
	if gotRequestID == "" {
		t.Error("X-Request-Id should be set")
	}

	var body struct {
		Fingerprint map[string]json.RawMessage `json:"fingerprint"`
	}
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("request body decode failed: %v", err)
	}
	if body.Fingerprint == nil {
		t.Fatal("request body missing fingerprint object")
	}
	for _, key := range []string{"screen_width", "os_version", "languages", "simulator"} {
		if _, ok := body.Fingerprint[key]; !ok {
			t.Errorf("fingerprint body missing key %q", key)
		}
	}
}

func TestClient_AttributeLink_Body(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"matched":true,"link":{"id":"lnk_2"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	result, err := client.AttributeLink(context.Background(), "https://go.example.com/promo", "ios")
	if err != nil {
		t.Fatalf("AttributeLink failed: %v", err)
	}
	if result.Link == nil || result.Link.ID != "lnk_2" {
		t.Errorf("Link = %+v, want ID lnk_2", result.Link)
	}
	if gotPath != "/links/attribute" {
		t.Errorf("path = %s, want /links/attribute", gotPath)
	}

	var body map[string]string
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("request body decode failed: %v", err)
	}
	if body["url"] != "https://go.example.com/promo" {
		t.Errorf("url = %q", body["url"])
	}
	if body["platform"] != "ios" {
		t.Errorf("platform = %q, want ios", body["platform"])
	}
}

func TestClient_Unauthorized_FixedMessage_NoRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"token expired at 2024-01-01"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.MatchFingerprint(context.Background(), testFingerprint())

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("error = %v, want ServerError", err)
	}
	if serverErr.StatusCode != 401 {
		t.Errorf("StatusCode = %d, want 401", serverErr.StatusCode)
	}
	if serverErr.Message != "Invalid client API key" {
		t.Errorf("Message = %q, want fixed message regardless of body", serverErr.Message)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1 (401 must not be retried)", calls.Load())
	}
}

func TestClient_RateLimited_FixedMessage_NoRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"message":"slow down"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.AttributeLink(context.Background(), "https://go.example.com/x", "ios")

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("error = %v, want ServerError", err)
	}
	if serverErr.StatusCode != 429 || serverErr.Message != "Rate limit exceeded" {
		t.Errorf("got %d %q, want 429 with fixed message", serverErr.StatusCode, serverErr.Message)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
}

func TestClient_ClientError_ServerMessage_NoRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"error field", `{"error":"unknown link domain"}`, "unknown link domain"},
		{"message field", `{"message":"bad request"}`, "bad request"},
		{"error preferred over message", `{"error":"e","message":"m"}`, "e"},
		{"unparseable body", `<html>nope</html>`, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusUnprocessableEntity)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(server.URL, 3)
			_, err := client.MatchFingerprint(context.Background(), testFingerprint())

			var serverErr *ServerError
			if !errors.As(err, &serverErr) {
				t.Fatalf("error = %v, want ServerError", err)
			}
			if serverErr.StatusCode != 422 {
				t.Errorf("StatusCode = %d, want 422", serverErr.StatusCode)
			}
			if serverErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", serverErr.Message, tt.wantMessage)
			}
			if calls.Load() != 1 {
				t.Errorf("server calls = %d, want 1 (4xx must not be retried)", calls.Load())
			}
		})
	}
}

func TestClient_ServerError_RetriesThenSurfaces(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"database unavailable"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	_, err := client.MatchFingerprint(context.Background(), testFingerprint())

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("error = %v, want ServerError", err)
	}
	if serverErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", serverErr.StatusCode)
	}
	if serverErr.Message != "database unavailable" {
		t.Errorf("Message = %q", serverErr.Message)
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3 (1 initial + 2 retries)", calls.Load())
	}
}

func TestClient_ServerError_RecoversOnRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"matched":false}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	result, err := client.MatchFingerprint(context.Background(), testFingerprint())
	if err != nil {
		t.Fatalf("MatchFingerprint failed: %v", err)
	}
	if result.Matched {
		t.Error("Matched should be false")
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
}

func TestClient_NetworkError_NoRetryBudget(t *testing.T) {
	t.Parallel()

	// A server that is already closed yields a connection failure.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL, 0)
	_, err := client.MatchFingerprint(context.Background(), testFingerprint())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if netErr.Unwrap() == nil {
		t.Error("NetworkError should carry the underlying error")
	}
}

func TestClient_UndecodableSuccessBody_InvalidResponse_NoRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html></html>`},
		{"missing matched", `{"link":{"id":"x"}}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int64
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(server.URL, 3)
			_, err := client.MatchFingerprint(context.Background(), testFingerprint())
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("error = %v, want ErrInvalidResponse", err)
			}
			if calls.Load() != 1 {
				t.Errorf("server calls = %d, want 1 (decode failure must not be retried)", calls.Load())
			}
		})
	}
}

func TestClient_RedirectStatus_InvalidResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://elsewhere.example.com")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.MatchFingerprint(context.Background(), testFingerprint())
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("error = %v, want ErrInvalidResponse", err)
	}
}
