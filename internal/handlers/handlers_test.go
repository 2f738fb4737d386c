package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"assistant-portal/internal/branding"
	"assistant-portal/internal/repository"
	"assistant-portal/internal/service"
	"assistant-portal/pkg/validator"
)

type scriptedCompleter struct {
	chunks  []string
	err     error
	prompts []string
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string, _ service.CompletionOptions, emit func(string) error) error {
	s.prompts = append(s.prompts, prompt)
	for _, chunk := range s.chunks {
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return s.err
}

func newTestRouter(t *testing.T, completer service.Completer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Init()

	registry, err := branding.Default()
	if err != nil {
		t.Fatalf("failed to load variants: %v", err)
	}
	variant, err := registry.Get("drinfinity")
	if err != nil {
		t.Fatalf("failed to load variant: %v", err)
	}

	chat := service.NewChatService(repository.NewMemoryChatHistoryRepository(), completer, service.ChatServiceOptions{
		SessionMaxAge: time.Hour,
	})

	site := NewSiteHandler(variant, "/api")
	chatHandler := NewChatHandler(chat)

	router := gin.New()
	router.GET("/", site.RenderHome)
	router.GET("/preferences", site.RenderPreferences)
	api := router.Group("/api")
	api.GET("/", chatHandler.Status)
	api.GET("/health", chatHandler.Health)
	api.POST("/chat/stream", chatHandler.Stream)
	router.NoRoute(site.RenderNotFound)
	return router
}

func TestRenderHomeCollapsedByDefault(t *testing.T) {
	router := newTestRouter(t, &scriptedCompleter{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	for _, fragment := range []string{`id="desktop-menu"`, `data-menu-state="collapsed"`, `<title>Dr. Infinity AI</title>`, `data-api-base="/api"`, `>Ask Doc</a>`} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected body to contain %s", fragment)
		}
	}
	if strings.Contains(body, `id="mobile-menu"`) {
		t.Fatalf("expected mobile menu to be hidden by default")
	}
	if !strings.Contains(recorder.Header().Get("Set-Cookie"), sessionCookieName+"=") {
		t.Fatalf("expected a chat session cookie to be issued")
	}
}

func TestRenderPreferencesExpandedFromQuery(t *testing.T) {
	router := newTestRouter(t, &scriptedCompleter{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/preferences?menu=open", nil))

	body := recorder.Body.String()
	if !strings.Contains(body, `id="mobile-menu"`) || !strings.Contains(body, `data-menu-state="expanded"`) {
		t.Fatalf("expected expanded mobile menu")
	}
	if !strings.Contains(body, `action="/preferences"`) {
		t.Fatalf("expected toggle form to submit back to the current page")
	}
	if !strings.Contains(body, "Preferences - Dr. Infinity AI") {
		t.Fatalf("expected preferences title")
	}
}

func TestUnknownPageRendersNotFound(t *testing.T) {
	router := newTestRouter(t, &scriptedCompleter{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `id="desktop-menu"`) {
		t.Fatalf("expected header on 404 page")
	}
}

func TestChatStreamWritesChunks(t *testing.T) {
	router := newTestRouter(t, &scriptedCompleter{chunks: []string{"Rest ", "and ", "hydrate."}})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(`{"message":"I feel tired","session_id":"abc-123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if recorder.Body.String() != "Rest and hydrate." {
		t.Fatalf("unexpected stream body %q", recorder.Body.String())
	}
	if !strings.HasPrefix(recorder.Header().Get("Content-Type"), "text/event-stream") {
		t.Fatalf("unexpected content type %q", recorder.Header().Get("Content-Type"))
	}

	status := httptest.NewRecorder()
	router.ServeHTTP(status, httptest.NewRequest(http.MethodGet, "/api/", nil))
	if !strings.Contains(status.Body.String(), `"active_sessions":1`) {
		t.Fatalf("expected one active session, got %s", status.Body.String())
	}
}

func TestChatStreamValidatesInput(t *testing.T) {
	router := newTestRouter(t, &scriptedCompleter{})

	cases := []string{
		`{"message":"","session_id":"abc"}`,
		`{"message":"hi","session_id":""}`,
		`{"message":"hi","session_id":"bad id!"}`,
		`{"message":"   ","session_id":"abc"}`,
		`not json`,
	}
	for _, body := range cases {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, recorder.Code)
		}
	}
}

func TestHealthReportsBackendState(t *testing.T) {
	router := newTestRouter(t, &scriptedCompleter{err: errors.New("connection refused")})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if !strings.Contains(recorder.Body.String(), `"status":"unhealthy"`) {
		t.Fatalf("expected unhealthy status, got %s", recorder.Body.String())
	}
}

func TestChatStreamKeepsMessageVerbatim(t *testing.T) {
	completer := &scriptedCompleter{chunks: []string{"ok"}}
	router := newTestRouter(t, completer)

	message := "Is a level x<y and y>z dangerous? What does <b>bold</b> mean & why?"
	body := `{"message":"Is a level x<y and y>z dangerous? What does <b>bold</b> mean & why?","session_id":"abc"}`
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("expected one completion call, got %d", len(completer.prompts))
	}
	if !strings.Contains(completer.prompts[0], "User: "+message) {
		t.Fatalf("expected prompt to carry the message unchanged, got %q", completer.prompts[0])
	}
}

func TestRenderHomeSanitizesGreeting(t *testing.T) {
	gin.SetMode(gin.TestMode)
	variant := branding.Variant{
		Key:      "test",
		Name:     "Test",
		Greeting: `Welcome to <strong>Test</strong><script>alert(1)</script>`,
	}
	site := NewSiteHandler(variant, "/api")
	router := gin.New()
	router.GET("/", site.RenderHome)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	body := recorder.Body.String()
	if !strings.Contains(body, "Welcome to <strong>Test</strong>") {
		t.Fatalf("expected greeting markup to be kept")
	}
	if strings.Contains(body, "alert(1)") {
		t.Fatalf("expected script to be stripped from greeting")
	}
}
