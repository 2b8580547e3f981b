package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// mockHTTPClient is a test double for HTTPClient
type mockHTTPClient struct {
	responses []*http.Response
	errors    []error
	callCount int
	requests  []*http.Request
	bodies    [][]byte
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	defer func() { m.callCount++ }()
	if m.callCount < len(m.errors) && m.errors[m.callCount] != nil {
		return nil, m.errors[m.callCount]
	}
	if m.callCount < len(m.responses) {
		return m.responses[m.callCount], nil
	}
	return nil, io.EOF
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func jsonResponse(t *testing.T, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// newTestClient returns a client that records sleeps instead of waiting
func newTestClient(t *testing.T, mock *mockHTTPClient) (*Client, *[]time.Duration) {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	client, err := NewClient("http://fake/api", "test-token", WithHTTPClient(mock), WithLogger(quiet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var slept []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	client.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	return client, &slept
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		token     string
		envToken  string
		wantError bool
	}{
		{name: "valid token", baseURL: "http://fake", token: "test-token"},
		{name: "empty token with env", baseURL: "http://fake", envToken: "env-token"},
		{name: "empty token no env", baseURL: "http://fake", wantError: true},
		{name: "missing url", token: "test-token", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(TokenEnv, tt.envToken)

			client, err := NewClient(tt.baseURL, tt.token)
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client == nil {
				t.Error("expected client, got nil")
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantValid  bool
	}{
		{name: "no content", statusCode: http.StatusNoContent, wantValid: true},
		{name: "ok", statusCode: http.StatusOK, wantValid: true},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockHTTPClient{responses: []*http.Response{response(tt.statusCode, "")}}
			client, _ := newTestClient(t, mock)

			valid, err := client.VerifyToken(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if valid != tt.wantValid {
				t.Errorf("got valid=%v, want %v", valid, tt.wantValid)
			}
			if got := mock.requests[0].Header.Get("Authorization"); got != "Token test-token" {
				t.Errorf("unexpected authorization header %q", got)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		mock *mockHTTPClient
		want error
	}{
		{name: "accepted", mock: &mockHTTPClient{responses: []*http.Response{response(http.StatusNoContent, "")}}},
		{name: "rejected", mock: &mockHTTPClient{responses: []*http.Response{response(http.StatusUnauthorized, "")}}, want: ErrTokenRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.mock)
			guarded := NewGuarded(client, DefaultBreakerSettings(), quietLogger())
			if err := Verify(context.Background(), guarded); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	unreachable := &mockHTTPClient{errors: []error{errors.New("connection refused")}}
	client, _ := newTestClient(t, unreachable)
	if err := Verify(context.Background(), client); err == nil || errors.Is(err, ErrTokenRejected) {
		t.Errorf("expected a transport error, got %v", err)
	}

	if err := Verify(context.Background(), NewDemo(0)); err != nil {
		t.Errorf("sources without credentials should pass, got %v", err)
	}
	if err := Verify(context.Background(), NewGuarded(fetchOnly{}, DefaultBreakerSettings(), quietLogger())); err != nil {
		t.Errorf("guarded source without credentials should pass, got %v", err)
	}
}

func TestFetch(t *testing.T) {
	score := 0.75
	mock := &mockHTTPClient{
		responses: []*http.Response{
			jsonResponse(t, map[string]any{
				"count": 2,
				"results": []map[string]any{
					{
						"id":               "n1",
						"type":             "Notification",
						"from":             "paging@hospital.org",
						"subject":          "Code blue",
						"body":             "cardiac arrest",
						"received_at":      "2026-03-02T11:55:00Z",
						"department":       "ICU",
						"compliance_score": score,
						"sender_online":    true,
						"emergency_code":   "code-blue",
					},
					{
						"id":          "n2",
						"from":        "rostering@hospital.org",
						"subject":     "Schedule",
						"received_at": "2026-03-02 09:00:00",
						"read":        true,
					},
				},
			}),
		},
	}
	client, _ := newTestClient(t, mock)

	items, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "n1" || first.Sender != "paging@hospital.org" || first.Content != "cardiac arrest" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.Kind != "notification" {
		t.Errorf("expected kind notification, got %s", first.Kind)
	}
	if first.Compliance == nil || *first.Compliance != score {
		t.Errorf("expected compliance %v, got %v", score, first.Compliance)
	}
	if !first.Online || first.Code != "code-blue" {
		t.Errorf("expected online item with code, got %+v", first)
	}
	if !items[1].Read || items[1].Timestamp.Hour() != 9 {
		t.Errorf("unexpected second item: %+v", items[1])
	}

	q := mock.requests[0].URL.Query()
	if q.Get("updatedAfter") != "2026-02-23T12:00:00Z" {
		t.Errorf("unexpected updatedAfter %q", q.Get("updatedAfter"))
	}
}

func TestFetchWithPagination(t *testing.T) {
	cursor := "next-page-cursor"
	mock := &mockHTTPClient{
		responses: []*http.Response{
			jsonResponse(t, map[string]any{
				"nextPageCursor": cursor,
				"results":        []map[string]any{{"id": "n1", "received_at": "2026-03-02"}},
			}),
			jsonResponse(t, map[string]any{
				"results": []map[string]any{{"id": "n2", "received_at": "2026-03-02"}},
			}),
		},
	}
	client, _ := newTestClient(t, mock)

	items, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items from pagination, got %d", len(items))
	}
	if mock.callCount != 2 {
		t.Errorf("expected 2 API calls for pagination, got %d", mock.callCount)
	}
	if got := mock.requests[1].URL.Query().Get("pageCursor"); got != cursor {
		t.Errorf("expected cursor %q on second call, got %q", cursor, got)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{response(http.StatusForbidden, "")}}
	client, _ := newTestClient(t, mock)

	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestDoRequest429WithRetryAfterHeader(t *testing.T) {
	limited := response(http.StatusTooManyRequests, "")
	limited.Header.Set("Retry-After", "7")
	mock := &mockHTTPClient{
		responses: []*http.Response{limited, response(http.StatusOK, `{"ok":true}`)},
	}
	client, slept := newTestClient(t, mock)

	resp, err := client.doRequest(context.Background(), http.MethodGet, client.baseURL+"/items/", nil)
	if err != nil {
		t.Fatalf("expected success after retry, got error: %v", err)
	}
	defer resp.Body.Close()

	if mock.callCount != 2 {
		t.Errorf("expected 2 calls (1 retry), got %d", mock.callCount)
	}
	if len(*slept) == 0 || (*slept)[0] != 7*time.Second {
		t.Errorf("expected to honour Retry-After of 7s, slept %v", *slept)
	}
}

func TestDoRequest429FallsBackToBackoff(t *testing.T) {
	mock := &mockHTTPClient{
		responses: []*http.Response{
			response(http.StatusTooManyRequests, ""),
			response(http.StatusOK, `{}`),
		},
	}
	client, slept := newTestClient(t, mock)

	resp, err := client.doRequest(context.Background(), http.MethodGet, client.baseURL+"/items/", nil)
	if err != nil {
		t.Fatalf("expected success after retry, got error: %v", err)
	}
	defer resp.Body.Close()

	if len(*slept) == 0 || (*slept)[0] != retryDelay {
		t.Errorf("expected first backoff of %v, slept %v", retryDelay, *slept)
	}
}

func TestDoRequestServerErrorsExhaustRetries(t *testing.T) {
	mock := &mockHTTPClient{
		responses: []*http.Response{
			response(http.StatusBadGateway, ""),
			response(http.StatusServiceUnavailable, ""),
			response(http.StatusInternalServerError, ""),
		},
	}
	client, _ := newTestClient(t, mock)

	_, err := client.doRequest(context.Background(), http.MethodGet, client.baseURL+"/items/", nil)
	if err == nil {
		t.Fatal("expected error after retries")
	}
	if mock.callCount != maxRetries {
		t.Errorf("expected %d calls, got %d", maxRetries, mock.callCount)
	}
}

func TestDoRequestTransportErrorRetries(t *testing.T) {
	mock := &mockHTTPClient{
		errors:    []error{errors.New("connection reset")},
		responses: []*http.Response{nil, response(http.StatusOK, `{}`)},
	}
	client, _ := newTestClient(t, mock)

	resp, err := client.doRequest(context.Background(), http.MethodGet, client.baseURL+"/items/", nil)
	if err != nil {
		t.Fatalf("expected success after retry, got error: %v", err)
	}
	resp.Body.Close()
}

func TestDoRequestCancelled(t *testing.T) {
	mock := &mockHTTPClient{
		responses: []*http.Response{response(http.StatusTooManyRequests, "")},
	}
	client, _ := newTestClient(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.doRequest(ctx, http.MethodGet, client.baseURL+"/items/", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{response(http.StatusOK, `{}`)}}
	client, _ := newTestClient(t, mock)

	if err := client.MarkRead(context.Background(), "n 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := mock.requests[0]
	if req.Method != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", req.Method)
	}
	if !strings.HasSuffix(req.URL.EscapedPath(), "/items/n%201/") {
		t.Errorf("unexpected path %s", req.URL.EscapedPath())
	}

	var payload map[string]any
	if err := json.Unmarshal(mock.bodies[0], &payload); err != nil {
		t.Fatalf("failed to unmarshal request body: %v", err)
	}
	if payload["read"] != true {
		t.Errorf("expected read=true, got %v", payload["read"])
	}
}

func TestMarkReadReplaysBodyOnRetry(t *testing.T) {
	mock := &mockHTTPClient{
		responses: []*http.Response{
			response(http.StatusServiceUnavailable, ""),
			response(http.StatusNoContent, ""),
		},
	}
	client, _ := newTestClient(t, mock)

	if err := client.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.bodies) != 2 || !bytes.Equal(mock.bodies[0], mock.bodies[1]) {
		t.Errorf("expected identical bodies on retry, got %q", mock.bodies)
	}
}

func TestFlexibleTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: `"2026-03-02T10:30:00Z"`, want: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)},
		{in: `"2026-03-02T10:30:00"`, want: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)},
		{in: `"2026-03-02"`, want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{in: `null`},
		{in: `"yesterday"`, wantErr: true},
	}

	for _, tt := range tests {
		var ft FlexibleTime
		err := ft.UnmarshalJSON([]byte(tt.in))
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.in, err)
			continue
		}
		if !ft.Time.Equal(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.in, tt.want, ft.Time)
		}
	}
}

func TestWithRateLimit(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{response(http.StatusOK, `{}`)}}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	client, err := NewClient("http://fake/api", "test-token",
		WithHTTPClient(mock), WithLogger(quiet), WithRateLimit(0.001, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The single burst token is spent by the first request.
	resp, err := client.doRequest(context.Background(), http.MethodGet, client.baseURL+"/items/", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := client.doRequest(ctx, http.MethodGet, client.baseURL+"/items/", nil); err == nil {
		t.Fatal("expected the limiter to reject a request it cannot admit before the deadline")
	}
	if mock.callCount != 1 {
		t.Errorf("expected 1 upstream call, got %d", mock.callCount)
	}
}
