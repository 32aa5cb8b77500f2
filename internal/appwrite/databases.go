package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Database はドキュメントデータベースのメタデータ。
type Database struct {
	ID   string `json:"$id"`
	Name string `json:"name"`
}

// Collection はコレクションのメタデータ。
type Collection struct {
	ID          string   `json:"$id"`
	DatabaseID  string   `json:"databaseId"`
	Name        string   `json:"name"`
	Permissions []string `json:"$permissions"`
}

// DocumentList はドキュメント一覧のレスポンス。
// 各ドキュメントのフィールド構成はコレクションごとに異なるため、
// 呼び出し元がjson.RawMessageから自身の型にデコードする。
type DocumentList struct {
	Total     int               `json:"total"`
	Documents []json.RawMessage `json:"documents"`
}

// PermissionRead はロールに対する読み取り許可の文字列を構築する。
func PermissionRead(role string) string { return fmt.Sprintf("read(%q)", role) }

// PermissionCreate はロールに対する作成許可の文字列を構築する。
func PermissionCreate(role string) string { return fmt.Sprintf("create(%q)", role) }

// PermissionUpdate はロールに対する更新許可の文字列を構築する。
func PermissionUpdate(role string) string { return fmt.Sprintf("update(%q)", role) }

// PermissionDelete はロールに対する削除許可の文字列を構築する。
func PermissionDelete(role string) string { return fmt.Sprintf("delete(%q)", role) }

// GetDatabase はデータベースを固定IDで取得する。
// 存在確認のプローブとして使用され、不在は404エラーとして返る。
// GET /databases/{databaseId}
func (c *Client) GetDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	if err := c.do(ctx, "get_database", http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// CreateDatabase はデータベースを作成する。
// POST /databases
func (c *Client) CreateDatabase(ctx context.Context, databaseID, name string) (*Database, error) {
	body := map[string]any{
		"databaseId": databaseID,
		"name":       name,
	}
	var db Database
	if err := c.do(ctx, "create_database", http.MethodPost, "/databases", nil, body, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// CreateCollection はコレクションを作成する。
// POST /databases/{databaseId}/collections
func (c *Client) CreateCollection(ctx context.Context, databaseID, collectionID, name string, permissions []string) (*Collection, error) {
	body := map[string]any{
		"collectionId": collectionID,
		"name":         name,
		"permissions":  permissions,
	}
	var col Collection
	path := "/databases/" + url.PathEscape(databaseID) + "/collections"
	if err := c.do(ctx, "create_collection", http.MethodPost, path, nil, body, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// CreateStringAttribute はコレクションに文字列属性を追加する。
// defaultValueがnilの場合はデフォルト値なし。必須属性にデフォルト値は指定できない。
// POST /databases/{databaseId}/collections/{collectionId}/attributes/string
func (c *Client) CreateStringAttribute(ctx context.Context, databaseID, collectionID, key string, size int, required bool, defaultValue *string) error {
	body := map[string]any{
		"key":      key,
		"size":     size,
		"required": required,
	}
	if defaultValue != nil {
		body["default"] = *defaultValue
	}
	path := attributePath(databaseID, collectionID, "string")
	return c.do(ctx, "create_string_attribute", http.MethodPost, path, nil, body, nil)
}

// CreateBooleanAttribute はコレクションに真偽値属性を追加する。
// POST /databases/{databaseId}/collections/{collectionId}/attributes/boolean
func (c *Client) CreateBooleanAttribute(ctx context.Context, databaseID, collectionID, key string, required bool, defaultValue *bool) error {
	body := map[string]any{
		"key":      key,
		"required": required,
	}
	if defaultValue != nil {
		body["default"] = *defaultValue
	}
	path := attributePath(databaseID, collectionID, "boolean")
	return c.do(ctx, "create_boolean_attribute", http.MethodPost, path, nil, body, nil)
}

// CreateDatetimeAttribute はコレクションに日時属性を追加する。
// POST /databases/{databaseId}/collections/{collectionId}/attributes/datetime
func (c *Client) CreateDatetimeAttribute(ctx context.Context, databaseID, collectionID, key string, required bool, defaultValue *string) error {
	body := map[string]any{
		"key":      key,
		"required": required,
	}
	if defaultValue != nil {
		body["default"] = *defaultValue
	}
	path := attributePath(databaseID, collectionID, "datetime")
	return c.do(ctx, "create_datetime_attribute", http.MethodPost, path, nil, body, nil)
}

// ListDocuments はコレクションのドキュメントをクエリ付きで一覧する。
// GET /databases/{databaseId}/collections/{collectionId}/documents
func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []string) (*DocumentList, error) {
	q := url.Values{}
	for _, query := range queries {
		q.Add("queries[]", query)
	}
	var list DocumentList
	path := documentsPath(databaseID, collectionID)
	if err := c.do(ctx, "list_documents", http.MethodGet, path, q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateDocument はドキュメントを作成し、作成結果をoutにデコードする。
// POST /databases/{databaseId}/collections/{collectionId}/documents
func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data, out any) error {
	body := map[string]any{
		"documentId": documentID,
		"data":       data,
	}
	path := documentsPath(databaseID, collectionID)
	return c.do(ctx, "create_document", http.MethodPost, path, nil, body, out)
}

// DeleteDocument はドキュメントをIDで削除する。不在は404エラーとして返る。
// DELETE /databases/{databaseId}/collections/{collectionId}/documents/{documentId}
func (c *Client) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	path := documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID)
	return c.do(ctx, "delete_document", http.MethodDelete, path, nil, nil, nil)
}

func documentsPath(databaseID, collectionID string) string {
	return "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/documents"
}

func attributePath(databaseID, collectionID, kind string) string {
	return "/databases/" + url.PathEscape(databaseID) + "/collections/" + url.PathEscape(collectionID) + "/attributes/" + kind
}
