// Package note は付箋ノートのCRUD操作を提供する。
// 永続化はBaaSのドキュメントストアに委譲し、このパッケージは検証・
// サニタイズ・ドメインモデルへの変換を担う。
package note

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hitoshi/noteman/internal/appwrite"
	"github.com/hitoshi/noteman/internal/model"
	"github.com/hitoshi/noteman/internal/provision"
	"github.com/hitoshi/noteman/internal/security"
)

// maxContentLength はノート本文の最大長。コレクション属性のサイズと一致する。
const maxContentLength = 1000

// OperationRecorder はノート操作のメトリクス記録に必要なインターフェース。
type OperationRecorder interface {
	RecordNoteOperation(operation string)
}

// Service は付箋ノートに関するビジネスロジックを提供する。
type Service struct {
	client    *appwrite.Client
	sanitizer security.ContentSanitizerService
	recorder  OperationRecorder
}

// NewService はServiceを生成する。clientは特権クライアント。
func NewService(client *appwrite.Client, sanitizer security.ContentSanitizerService) *Service {
	return &Service{client: client, sanitizer: sanitizer}
}

// SetRecorder はノート操作のメトリクスレコーダーを設定する。
func (s *Service) SetRecorder(r OperationRecorder) {
	s.recorder = r
}

// record は設定済みの場合のみ操作を記録する。
func (s *Service) record(operation string) {
	if s.recorder != nil {
		s.recorder.RecordNoteOperation(operation)
	}
}

// noteDocument はドキュメントストア上のノートのワイヤ表現。
type noteDocument struct {
	ID        string `json:"$id"`
	CreatedAt string `json:"$createdAt"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
	Color     string `json:"color"`
}

// List は指定ユーザーのノートを作成日時の降順で一覧する。
// 他ユーザーのノートはクエリで除外されるため結果に含まれない。
func (s *Service) List(ctx context.Context, userID string) ([]model.StickyNote, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	queries := []string{
		appwrite.QueryEqual("userId", userID),
		appwrite.QueryOrderDesc("$createdAt"),
	}
	list, err := s.client.ListDocuments(ctx, provision.DatabaseID, provision.StickyNotesCollectionID, queries)
	if err != nil {
		return nil, serviceError(err)
	}

	notes := make([]model.StickyNote, 0, len(list.Documents))
	for _, raw := range list.Documents {
		var doc noteDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode note document: %w", err)
		}
		notes = append(notes, toNote(&doc))
	}

	s.record("list")
	return notes, nil
}

// Create はノートを作成する。本文はHTMLタグを除去した上で保存される。
// 本文と色の両方が必須で、欠落時はドキュメントストアに到達せずに失敗する。
func (s *Service) Create(ctx context.Context, userID, content, color string) (*model.StickyNote, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}
	if content == "" || color == "" {
		return nil, model.NewMissingFieldsError()
	}
	if len(content) > maxContentLength {
		return nil, model.NewValidationError("Content must be at most 1000 characters long")
	}

	sanitized := s.sanitizer.Sanitize(content)
	if sanitized == "" {
		return nil, model.NewMissingFieldsError()
	}

	data := map[string]any{
		"content": sanitized,
		"userId":  userID,
		"color":   color,
	}
	var doc noteDocument
	if err := s.client.CreateDocument(ctx, provision.DatabaseID, provision.StickyNotesCollectionID, uuid.New().String(), data, &doc); err != nil {
		return nil, serviceError(err)
	}

	slog.Info("sticky note created",
		slog.String("note_id", doc.ID),
		slog.String("user_id", userID),
	)
	s.record("create")
	note := toNote(&doc)
	return &note, nil
}

// Delete はノートをIDで削除する。ノートが存在しない場合はNotFoundErrorを返す。
func (s *Service) Delete(ctx context.Context, noteID string) error {
	if noteID == "" {
		return model.NewValidationError("Note ID is required")
	}

	if err := s.client.DeleteDocument(ctx, provision.DatabaseID, provision.StickyNotesCollectionID, noteID); err != nil {
		if appwrite.IsNotFound(err) {
			return model.NewNoteNotFoundError()
		}
		return serviceError(err)
	}

	slog.Info("sticky note deleted", slog.String("note_id", noteID))
	s.record("delete")
	return nil
}

// serviceError は上流エラーをServiceErrorに変換する。
func serviceError(err error) error {
	var apiErr *appwrite.Error
	if errors.As(err, &apiErr) {
		return model.NewServiceError(apiErr.Code, apiErr.Message)
	}
	return err
}

func toNote(doc *noteDocument) model.StickyNote {
	return model.StickyNote{
		ID:        doc.ID,
		Content:   doc.Content,
		UserID:    doc.UserID,
		Color:     doc.Color,
		CreatedAt: doc.CreatedAt,
	}
}
