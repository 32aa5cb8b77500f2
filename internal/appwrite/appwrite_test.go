package appwrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("https://backend.example.com/v1/", "proj", "key", nil)
	if c.Endpoint() != "https://backend.example.com/v1" {
		t.Errorf("Endpoint() = %q, want %q", c.Endpoint(), "https://backend.example.com/v1")
	}
}

func TestClient_PrivilegedHeaders(t *testing.T) {
	// 特権クライアントはAPIキーヘッダーを送信する
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Appwrite-Project"); got != "proj-1" {
			t.Errorf("X-Appwrite-Project = %q, want %q", got, "proj-1")
		}
		if got := r.Header.Get("X-Appwrite-Key"); got != "secret-key" {
			t.Errorf("X-Appwrite-Key = %q, want %q", got, "secret-key")
		}
		if got := r.Header.Get("X-Appwrite-Session"); got != "" {
			t.Errorf("X-Appwrite-Session = %q, want empty", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "proj-1", "secret-key", server.Client())
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health がエラーを返した: %v", err)
	}
}

func TestClient_WithSession_ReplacesCredential(t *testing.T) {
	// セッションスコープクライアントはAPIキーではなくセッションシークレットを送信する
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Appwrite-Session"); got != "sess-secret" {
			t.Errorf("X-Appwrite-Session = %q, want %q", got, "sess-secret")
		}
		if got := r.Header.Get("X-Appwrite-Key"); got != "" {
			t.Errorf("X-Appwrite-Key = %q, want empty", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	base := New(server.URL, "proj-1", "secret-key", server.Client())
	derived := base.WithSession("sess-secret")

	if err := derived.Health(context.Background()); err != nil {
		t.Fatalf("Health がエラーを返した: %v", err)
	}

	// 導出しても元のクライアントは変更されない
	if base.session != "" || base.key != "secret-key" {
		t.Error("WithSession が元のクライアントを変更してはならない")
	}
}

func TestClient_ErrorResponse_PreservesUpstreamMessage(t *testing.T) {
	// 上流のエラーメッセージは文言そのままで保持される
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Invalid credentials. Please check the email and password.",
			"code":    401,
			"type":    "user_invalid_credentials",
		})
	}))
	defer server.Close()

	c := New(server.URL, "proj", "key", server.Client())
	_, err := c.CreateEmailSession(context.Background(), "a@example.com", "wrong")
	if err == nil {
		t.Fatal("エラーを期待したが nil が返った")
	}

	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err の型 = %T, want *Error", err)
	}
	if apiErr.Code != 401 {
		t.Errorf("Code = %d, want 401", apiErr.Code)
	}
	if apiErr.Type != "user_invalid_credentials" {
		t.Errorf("Type = %q, want %q", apiErr.Type, "user_invalid_credentials")
	}
	if apiErr.Message != "Invalid credentials. Please check the email and password." {
		t.Errorf("Message = %q が上流の文言と一致しない", apiErr.Message)
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized = false, want true")
	}
}

func TestClient_ErrorResponse_NonJSONBody(t *testing.T) {
	// JSONでないエラーボディもメッセージとして保持される
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gateway failure"))
	}))
	defer server.Close()

	c := New(server.URL, "proj", "key", server.Client())
	err := c.Health(context.Background())
	if err == nil {
		t.Fatal("エラーを期待したが nil が返った")
	}

	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err の型 = %T, want *Error", err)
	}
	if apiErr.Code != http.StatusBadGateway {
		t.Errorf("Code = %d, want %d", apiErr.Code, http.StatusBadGateway)
	}
	if apiErr.Message != "upstream gateway failure" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "upstream gateway failure")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&Error{Code: 404, Type: "database_not_found"}) {
		t.Error("404 に対して IsNotFound = false")
	}
	if IsNotFound(&Error{Code: 500}) {
		t.Error("500 に対して IsNotFound = true")
	}
	if IsNotFound(context.Canceled) {
		t.Error("*Error 以外に対して IsNotFound = true")
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(&Error{Code: 409, Type: "database_already_exists"}) {
		t.Error("409 に対して IsConflict = false")
	}
	if IsConflict(&Error{Code: 404}) {
		t.Error("404 に対して IsConflict = true")
	}
}

func TestClient_CreateAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if r.URL.Path != "/account" {
			t.Errorf("パス = %s, want /account", r.URL.Path)
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["userId"] != "uid-1" || body["email"] != "a@example.com" || body["name"] != "Alice" {
			t.Errorf("リクエストボディ = %v が期待値と一致しない", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"$id":   "uid-1",
			"email": "a@example.com",
			"name":  "Alice",
		})
	}))
	defer server.Close()

	c := New(server.URL, "proj", "key", server.Client())
	user, err := c.CreateAccount(context.Background(), "uid-1", "a@example.com", "password123", "Alice")
	if err != nil {
		t.Fatalf("CreateAccount がエラーを返した: %v", err)
	}
	if user.ID != "uid-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "uid-1")
	}
	if user.Name != "Alice" {
		t.Errorf("user.Name = %q, want %q", user.Name, "Alice")
	}
}

func TestClient_CreateEmailSession_ReturnsSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account/sessions/email" {
			t.Errorf("パス = %s, want /account/sessions/email", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"$id":    "sess-1",
			"userId": "uid-1",
			"secret": "opaque-secret",
			"expire": "2026-09-30T00:00:00.000+00:00",
		})
	}))
	defer server.Close()

	c := New(server.URL, "proj", "key", server.Client())
	session, err := c.CreateEmailSession(context.Background(), "a@example.com", "password123")
	if err != nil {
		t.Fatalf("CreateEmailSession がエラーを返した: %v", err)
	}
	if session.Secret != "opaque-secret" {
		t.Errorf("session.Secret = %q, want %q", session.Secret, "opaque-secret")
	}
	if session.UserID != "uid-1" {
		t.Errorf("session.UserID = %q, want %q", session.UserID, "uid-1")
	}
}

func TestClient_OAuth2TokenURL(t *testing.T) {
	c := New("https://backend.example.com/v1", "proj-1", "key", nil)

	got := c.OAuth2TokenURL("github", "https://app.example.com/api/oauth", "https://app.example.com/signup")

	if !strings.HasPrefix(got, "https://backend.example.com/v1/account/tokens/oauth2/github?") {
		t.Errorf("URL = %q のプレフィックスが期待値と一致しない", got)
	}
	for _, want := range []string{
		"project=proj-1",
		"success=https%3A%2F%2Fapp.example.com%2Fapi%2Foauth",
		"failure=https%3A%2F%2Fapp.example.com%2Fsignup",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("URL = %q に %q が含まれていない", got, want)
		}
	}
}

func TestClient_DeleteSession_EscapesID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(server.URL, "proj", "key", server.Client())
	if err := c.WithSession("s").DeleteSession(context.Background(), "current"); err != nil {
		t.Fatalf("DeleteSession がエラーを返した: %v", err)
	}
	if gotPath != "/account/sessions/current" {
		t.Errorf("パス = %s, want /account/sessions/current", gotPath)
	}
}
