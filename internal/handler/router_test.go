package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/noteman/internal/middleware"
	"github.com/hitoshi/noteman/internal/model"
	"github.com/hitoshi/noteman/internal/security"
)

type mockHealthChecker struct {
	healthFunc func(ctx context.Context) error
}

func (m *mockHealthChecker) Health(ctx context.Context) error {
	return m.healthFunc(ctx)
}

// testRouter は全ルートを構成したルーターと依存モックを生成する。
func testRouter(t *testing.T, authSvc *mockAuthService, noteSvc *mockNoteService) http.Handler {
	t.Helper()

	guard, err := security.NewRedirectGuard("https://app.example.com")
	if err != nil {
		t.Fatalf("NewRedirectGuard がエラーを返した: %v", err)
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		UserResolver:      authSvc,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		AuthService:       authSvc,
		AuthConfig: AuthHandlerConfig{
			BaseURL:       "https://app.example.com",
			CookieSecure:  true,
			SessionMaxAge: 60 * 60 * 24 * 30,
		},
		Guard:       guard,
		NoteService: noteSvc,
		HealthChecker: &mockHealthChecker{
			healthFunc: func(ctx context.Context) error { return nil },
		},
	})
}

func TestRouter_UnauthenticatedListNotes(t *testing.T) {
	authSvc := &mockAuthService{
		getCurrentUserFunc: func(ctx context.Context, secret string) (*model.User, error) {
			t.Error("Cookieなしでリゾルバーが呼び出された")
			return nil, nil
		},
	}
	router := testRouter(t, authSvc, &mockNoteService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sticky-notes", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ステータス = %d, want 401", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "User not found" {
		t.Errorf(`body["error"] = %q, want "User not found"`, body["error"])
	}
}

func TestRouter_AuthenticatedCreateNote(t *testing.T) {
	authSvc := &mockAuthService{
		getCurrentUserFunc: func(ctx context.Context, secret string) (*model.User, error) {
			if secret != "opaque-secret" {
				t.Errorf("secret = %q, want opaque-secret", secret)
			}
			return &model.User{ID: "uid-1"}, nil
		},
	}
	noteSvc := &mockNoteService{
		createFunc: func(ctx context.Context, userID, content, color string) (*model.StickyNote, error) {
			return &model.StickyNote{ID: "note-1", Content: content, UserID: userID, Color: color}, nil
		},
	}
	router := testRouter(t, authSvc, noteSvc)

	reqBody := `{"content":"buy milk","color":"#EF4444"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sticky-notes", strings.NewReader(reqBody))
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "opaque-secret"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータス = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		StickyNote model.StickyNote `json:"stickyNote"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ボディのデコードに失敗: %v", err)
	}
	if body.StickyNote.Content != "buy milk" || body.StickyNote.Color != "#EF4444" {
		t.Errorf("stickyNote = %+v が期待値と一致しない", body.StickyNote)
	}
	// 所有者はセッションから解決した呼び出し元ユーザー
	if body.StickyNote.UserID != "uid-1" {
		t.Errorf("userId = %q, want uid-1", body.StickyNote.UserID)
	}
}

func TestRouter_DeleteNoteWithoutSession(t *testing.T) {
	// DELETEはセッションミドルウェアの外にあり、Cookieなしでも到達する
	authSvc := &mockAuthService{
		getCurrentUserFunc: func(ctx context.Context, secret string) (*model.User, error) {
			t.Error("DELETEでリゾルバーが呼び出された")
			return nil, nil
		},
	}
	noteSvc := &mockNoteService{
		deleteFunc: func(ctx context.Context, noteID string) error {
			if noteID != "doesnotexist" {
				t.Errorf("noteID = %q, want doesnotexist", noteID)
			}
			return model.NewNoteNotFoundError()
		},
	}
	router := testRouter(t, authSvc, noteSvc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sticky-notes/doesnotexist", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("ステータス = %d, want 404", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Note not found" {
		t.Errorf(`body["error"] = %q, want "Note not found"`, body["error"])
	}
}

func TestRouter_Health(t *testing.T) {
	router := testRouter(t, &mockAuthService{}, &mockNoteService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("ステータス = %d, want 200", rec.Code)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := testRouter(t, &mockAuthService{}, &mockNoteService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q が期待値と一致しない", got)
	}
}

func TestRouter_LogoutWithoutCookie(t *testing.T) {
	authSvc := &mockAuthService{
		logoutFunc: func(ctx context.Context, secret string) {},
	}
	router := testRouter(t, authSvc, &mockNoteService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("ステータス = %d, want 200", rec.Code)
	}
}
