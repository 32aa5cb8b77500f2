package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/noteman/internal/middleware"
	"github.com/hitoshi/noteman/internal/model"
)

// mockNoteService はテスト用のNoteServiceInterface実装。
type mockNoteService struct {
	listFunc   func(ctx context.Context, userID string) ([]model.StickyNote, error)
	createFunc func(ctx context.Context, userID, content, color string) (*model.StickyNote, error)
	deleteFunc func(ctx context.Context, noteID string) error
}

func (m *mockNoteService) List(ctx context.Context, userID string) ([]model.StickyNote, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockNoteService) Create(ctx context.Context, userID, content, color string) (*model.StickyNote, error) {
	return m.createFunc(ctx, userID, content, color)
}

func (m *mockNoteService) Delete(ctx context.Context, noteID string) error {
	return m.deleteFunc(ctx, noteID)
}

// withUserID はリクエストに認証済みユーザーIDを注入する。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func TestListNotes_Success(t *testing.T) {
	svc := &mockNoteService{
		listFunc: func(ctx context.Context, userID string) ([]model.StickyNote, error) {
			if userID != "uid-1" {
				t.Errorf("userID = %q, want uid-1", userID)
			}
			return []model.StickyNote{
				{ID: "note-1", Content: "buy milk", UserID: "uid-1", Color: "#EF4444"},
			}, nil
		},
	}
	h := NewNoteHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/sticky-notes", nil), "uid-1")
	rec := httptest.NewRecorder()
	h.ListNotes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータス = %d, want 200", rec.Code)
	}

	var body struct {
		StickyNotes []model.StickyNote `json:"stickyNotes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ボディのデコードに失敗: %v", err)
	}
	if len(body.StickyNotes) != 1 || body.StickyNotes[0].Content != "buy milk" {
		t.Errorf("stickyNotes = %+v が期待値と一致しない", body.StickyNotes)
	}
}

func TestListNotes_EmptyResult(t *testing.T) {
	svc := &mockNoteService{
		listFunc: func(ctx context.Context, userID string) ([]model.StickyNote, error) {
			return []model.StickyNote{}, nil
		},
	}
	h := NewNoteHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/sticky-notes", nil), "uid-1")
	rec := httptest.NewRecorder()
	h.ListNotes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータス = %d, want 200", rec.Code)
	}
	// ノートなしは空配列であってnullではない
	if !strings.Contains(rec.Body.String(), `"stickyNotes":[]`) {
		t.Errorf("ボディ = %s に空配列が含まれていない", rec.Body.String())
	}
}

func TestCreateNote_OwnerIsCaller(t *testing.T) {
	svc := &mockNoteService{
		createFunc: func(ctx context.Context, userID, content, color string) (*model.StickyNote, error) {
			if userID != "uid-1" {
				t.Errorf("userID = %q, want uid-1", userID)
			}
			return &model.StickyNote{ID: "note-1", Content: content, UserID: userID, Color: color}, nil
		},
	}
	h := NewNoteHandler(svc)

	reqBody := `{"content":"buy milk","color":"#EF4444"}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/sticky-notes", strings.NewReader(reqBody)), "uid-1")
	rec := httptest.NewRecorder()
	h.CreateNote(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータス = %d, want 200", rec.Code)
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
	if body.StickyNote.UserID != "uid-1" {
		t.Errorf("userId = %q, want 呼び出し元の uid-1", body.StickyNote.UserID)
	}
}

func TestCreateNote_MissingFields(t *testing.T) {
	svc := &mockNoteService{
		createFunc: func(ctx context.Context, userID, content, color string) (*model.StickyNote, error) {
			return nil, model.NewMissingFieldsError()
		},
	}
	h := NewNoteHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/sticky-notes", strings.NewReader(`{"content":""}`)), "uid-1")
	rec := httptest.NewRecorder()
	h.CreateNote(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ステータス = %d, want 400", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Missing fields" {
		t.Errorf(`body["error"] = %q, want "Missing fields"`, body["error"])
	}
}

func TestCreateNote_InvalidBody(t *testing.T) {
	h := NewNoteHandler(&mockNoteService{})

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/sticky-notes", strings.NewReader("{not json")), "uid-1")
	rec := httptest.NewRecorder()
	h.CreateNote(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("ステータス = %d, want 400", rec.Code)
	}
}

func TestCreateNote_InternalError(t *testing.T) {
	svc := &mockNoteService{
		createFunc: func(ctx context.Context, userID, content, color string) (*model.StickyNote, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h := NewNoteHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/sticky-notes", strings.NewReader(`{"content":"memo","color":"#EF4444"}`)), "uid-1")
	rec := httptest.NewRecorder()
	h.CreateNote(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("ステータス = %d, want 500", rec.Code)
	}

	// 内部エラーの詳細はボディに漏れない
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Internal server error" {
		t.Errorf(`body["error"] = %q, want "Internal server error"`, body["error"])
	}
}

func TestDeleteNote_Success(t *testing.T) {
	svc := &mockNoteService{
		deleteFunc: func(ctx context.Context, noteID string) error {
			if noteID != "note-1" {
				t.Errorf("noteID = %q, want note-1", noteID)
			}
			return nil
		},
	}
	h := NewNoteHandler(svc)

	r := chi.NewRouter()
	r.Delete("/api/sticky-notes/{id}", h.DeleteNote)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sticky-notes/note-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ステータス = %d, want 200", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["message"] != "Note deleted successfully" {
		t.Errorf(`body["message"] = %q, want "Note deleted successfully"`, body["message"])
	}
}

func TestDeleteNote_NotFound(t *testing.T) {
	svc := &mockNoteService{
		deleteFunc: func(ctx context.Context, noteID string) error {
			return model.NewNoteNotFoundError()
		},
	}
	h := NewNoteHandler(svc)

	r := chi.NewRouter()
	r.Delete("/api/sticky-notes/{id}", h.DeleteNote)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sticky-notes/doesnotexist", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("ステータス = %d, want 404", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Note not found" {
		t.Errorf(`body["error"] = %q, want "Note not found"`, body["error"])
	}
}
