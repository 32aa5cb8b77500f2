package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/noteman/internal/middleware"
	"github.com/hitoshi/noteman/internal/model"
)

// NoteServiceInterface はノートハンドラーが必要とするサービスインターフェース。
type NoteServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.StickyNote, error)
	Create(ctx context.Context, userID, content, color string) (*model.StickyNote, error)
	Delete(ctx context.Context, noteID string) error
}

// NoteHandler は付箋ノート関連のHTTPハンドラー。
type NoteHandler struct {
	service NoteServiceInterface
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(service NoteServiceInterface) *NoteHandler {
	return &NoteHandler{service: service}
}

// ListNotes は認証済みユーザーのノート一覧を返す。
// GET /api/sticky-notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeErrorResponse(w, http.StatusUnauthorized, "User not found")
		return
	}

	notes, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stickyNotes": notes})
}

// createNoteRequest はノート作成リクエストのボディ。
type createNoteRequest struct {
	Content string `json:"content"`
	Color   string `json:"color"`
}

// CreateNote はノートを作成する。所有者は常にセッションから解決した
// ユーザーであり、リクエストボディでの指定は受け付けない。
// POST /api/sticky-notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeErrorResponse(w, http.StatusUnauthorized, "User not found")
		return
	}

	var req createNoteRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	note, err := h.service.Create(r.Context(), userID, req.Content, req.Color)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stickyNote": note})
}

// DeleteNote はノートをIDで削除する。
// DELETE /api/sticky-notes/{id}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), noteID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}
