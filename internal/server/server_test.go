package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github-mcp/internal/github"
	"github-mcp/internal/tools"
)

// stubUpstream answers from canned bodies keyed by "METHOD path" and
// reports 404 for everything else.
type stubUpstream struct {
	bodies map[string]string
}

func (s *stubUpstream) respond(method, path string) (json.RawMessage, error) {
	if body, ok := s.bodies[method+" "+path]; ok {
		return json.RawMessage(body), nil
	}
	return nil, &github.APIError{StatusCode: http.StatusNotFound, Message: "Not Found"}
}

func (s *stubUpstream) Get(_ context.Context, path string) (json.RawMessage, error) {
	return s.respond(http.MethodGet, path)
}

func (s *stubUpstream) Post(_ context.Context, path string, _ any) (json.RawMessage, error) {
	return s.respond(http.MethodPost, path)
}

func (s *stubUpstream) Put(_ context.Context, path string, _ any) (json.RawMessage, error) {
	return s.respond(http.MethodPut, path)
}

func newTestDispatcher() *tools.Dispatcher {
	up := &stubUpstream{bodies: map[string]string{
		"GET /users/octocat": `{"login":"octocat","id":1}`,
		"POST /user/repos":   `{"full_name":"octocat/demo"}`,
	}}
	return tools.NewDispatcher(up, tools.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func newTestServer(token string) *Server {
	return New(Config{Token: token}, newTestDispatcher(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func call(t *testing.T, s *Server, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	s := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestToolsAndCall(t *testing.T) {
	s := newTestServer("x")

	// Unauthorized
	req := httptest.NewRequest(http.MethodGet, "/mcp/tools", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	// Authorized tools
	req = httptest.NewRequest(http.MethodGet, "/mcp/tools", nil)
	req.Header.Set("Authorization", "Bearer x")
	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list ToolsList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
		if tool.InputSchema["type"] != "object" {
			t.Fatalf("tool %s: expected object schema, got %v", tool.Name, tool.InputSchema["type"])
		}
	}
	if got := strings.Join(names, ","); got != "get_user,create_repo,push_to_repo" {
		t.Fatalf("unexpected tools: %s", got)
	}

	// Call get_user
	rr = call(t, s, "x", map[string]any{"name": "get_user", "arguments": map[string]any{"username": "octocat"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var env tools.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if env.IsError {
		t.Fatalf("unexpected error envelope: %s", env.Text())
	}
	if want := "{\n  \"login\": \"octocat\",\n  \"id\": 1\n}"; env.Text() != want {
		t.Fatalf("expected %q, got %q", want, env.Text())
	}
}

func TestCall_UpstreamFailureIsEnvelope(t *testing.T) {
	s := newTestServer("")
	rr := call(t, s, "", map[string]any{"name": "get_user", "arguments": map[string]any{"username": "ghost"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var env tools.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !env.IsError || env.Text() != "GitHub API error: Not Found" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestCall_ProtocolErrors(t *testing.T) {
	s := newTestServer("")
	cases := []struct {
		name    string
		payload any
		status  int
		code    string
		message string
	}{
		{"unknown tool", map[string]any{"name": "delete_repo"}, http.StatusNotFound, "unknown_tool", "unknown tool: delete_repo"},
		{"missing argument", map[string]any{"name": "create_repo", "arguments": map[string]any{}}, http.StatusBadRequest, "missing_argument", "missing required argument: repo_name"},
		{"no name", map[string]any{"arguments": map[string]any{}}, http.StatusBadRequest, "invalid_request", "tool name is required"},
	}
	for _, tc := range cases {
		rr := call(t, s, "", tc.payload)
		if rr.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rr.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: invalid json: %v", tc.name, err)
		}
		if resp.Error.Code != tc.code || resp.Error.Message != tc.message {
			t.Fatalf("%s: unexpected error %+v", tc.name, resp.Error)
		}
	}
}

func TestCall_InvalidJSON(t *testing.T) {
	s := newTestServer("")
	req := httptest.NewRequest(http.MethodPost, "/mcp/call", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestResourceListingsAreEmpty(t *testing.T) {
	s := newTestServer("")
	for path, key := range map[string]string{
		"/mcp/resources":           "resources",
		"/mcp/resources/templates": "resourceTemplates",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		s.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
		var resp map[string][]any
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: invalid json: %v", path, err)
		}
		list, ok := resp[key]
		if !ok || len(list) != 0 {
			t.Fatalf("%s: expected empty %s, got %v", path, key, resp)
		}
	}
}

func TestAccessLogGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	s := New(Config{}, newTestDispatcher(), slog.New(slog.NewTextHandler(&buf, nil)))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "GET") || !strings.Contains(out, "/health") || !strings.Contains(out, "200") {
		t.Fatalf("expected access log line for /health, got %q", out)
	}
}
