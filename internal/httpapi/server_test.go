package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llamachat/internal/chat"
	"llamachat/internal/coordinator"
	"llamachat/pkg/types"
)

type mockService struct {
	models    []types.Model
	modelsErr error
	status    types.StatusResponse
	ready     bool

	loadErr   error
	loaded    string
	unloadErr error
	genErr    error
	genReq    types.GenerateRequest
	chatErr   error
	chatText  string
	messages  []types.Message
}

func (m *mockService) ListModels() ([]types.Model, error) {
	return append([]types.Model(nil), m.models...), m.modelsErr
}
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }
func (m *mockService) LoadModel(ctx context.Context, name string) error {
	m.loaded = name
	return m.loadErr
}
func (m *mockService) UnloadModel(ctx context.Context) error { return m.unloadErr }
func (m *mockService) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	m.genReq = req
	if m.genErr != nil {
		return types.GenerateResponse{}, m.genErr
	}
	return types.GenerateResponse{Text: "echo: " + req.Prompt, Model: "m1"}, nil
}
func (m *mockService) Messages() types.MessagesResponse {
	return types.MessagesResponse{Messages: m.messages, Status: "Model ready"}
}
func (m *mockService) Chat(ctx context.Context, text string) (types.ChatResponse, error) {
	m.chatText = text
	if m.chatErr != nil {
		return types.ChatResponse{}, m.chatErr
	}
	reply := types.Message{ID: "r1", Role: types.RoleAssistant, Content: "hi back"}
	return types.ChatResponse{Reply: reply, Messages: []types.Message{{ID: "u1", Role: types.RoleUser, Content: text}, reply}}, nil
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.Model{{ID: "m1"}, {ID: "m2"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 {
		t.Fatalf("models len=%d", len(body.Models))
	}
}

func TestModelsHandler_EmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if !strings.Contains(w.Body.String(), `"models":[]`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestModelsHandler_ErrorMaps500(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{modelsErr: io.ErrUnexpectedEOF}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if body := decodeError(t, w); body.Code != 500 {
		t.Fatalf("code=%d", body.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{State: "ready", Model: "m1", Ready: true}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.State != "ready" || body.Model != "m1" || !body.Ready {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestReadyz(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{ready: true}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestLoad_EmptyBodyUsesDefault(t *testing.T) {
	svc := &mockService{loaded: "sentinel"}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/model/load", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.loaded != "" {
		t.Fatalf("loaded=%q want default", svc.loaded)
	}
}

func TestLoad_NamedModel(t *testing.T) {
	svc := &mockService{}
	w := postJSON(t, NewMux(svc), "/model/load", `{"model":"tiny.gguf"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.loaded != "tiny.gguf" {
		t.Fatalf("loaded=%q", svc.loaded)
	}
}

func TestGenerate_OK(t *testing.T) {
	svc := &mockService{}
	w := postJSON(t, NewMux(svc), "/generate", `{"prompt":"hi","max_tokens":64}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Text != "echo: hi" || svc.genReq.MaxTokens != 64 {
		t.Fatalf("body=%+v req=%+v", body, svc.genReq)
	}
}

func TestGenerate_BadJSON(t *testing.T) {
	w := postJSON(t, NewMux(&mockService{}), "/generate", "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGenerate_UnsupportedMediaType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGenerate_BodyTooLarge(t *testing.T) {
	big := `{"prompt":"` + strings.Repeat("a", (1<<20)+10) + `"}`
	w := postJSON(t, NewMux(&mockService{}), "/generate", big)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", coordinator.ErrNotReady), http.StatusConflict},
		{coordinator.ErrConcurrentOperation, http.StatusTooManyRequests},
		{chat.ErrBusy, http.StatusTooManyRequests},
		{coordinator.ErrInvalidArgument, http.StatusBadRequest},
		{coordinator.ErrEngineFailure, http.StatusBadGateway},
		{coordinator.ErrEngineUnavailable, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &mockService{genErr: tc.err}
		w := postJSON(t, NewMux(svc), "/generate", `{"prompt":"hi"}`)
		if w.Code != tc.want {
			t.Errorf("%v: status=%d want %d", tc.err, w.Code, tc.want)
			continue
		}
		if body := decodeError(t, w); body.Code != tc.want || body.Error != tc.err.Error() {
			t.Errorf("%v: body=%+v", tc.err, body)
		}
	}
}

func TestUnload_NotReadyMaps409(t *testing.T) {
	svc := &mockService{unloadErr: coordinator.ErrNotReady}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/model/unload", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestChat_PostAndGet(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc)
	w := postJSON(t, h, "/chat/messages", `{"text":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Reply.Content != "hi back" || len(resp.Messages) != 2 || svc.chatText != "hello" {
		t.Fatalf("resp=%+v text=%q", resp, svc.chatText)
	}

	gw := httptest.NewRecorder()
	h.ServeHTTP(gw, httptest.NewRequest(http.MethodGet, "/chat/messages", nil))
	var msgs types.MessagesResponse
	if err := json.Unmarshal(gw.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("json: %v", err)
	}
	if msgs.Status != "Model ready" {
		t.Fatalf("status=%q", msgs.Status)
	}
}

func TestChat_BlankTextRejected(t *testing.T) {
	svc := &mockService{}
	w := postJSON(t, NewMux(svc), "/chat/messages", `{"text":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.chatText != "" {
		t.Fatalf("blank text reached the service")
	}
}

func TestCORS_Enabled(t *testing.T) {
	SetCORSOptions(true, []string{"http://localhost:3000"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow-origin=%q", got)
	}
}
