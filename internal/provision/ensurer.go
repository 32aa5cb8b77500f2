// Package provision はノート用データベーススキーマの初期化を提供する。
// アプリケーションの起動時またはリクエスト到達時に、データベースと
// コレクションが存在することを保証する。
package provision

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/hitoshi/noteman/internal/appwrite"
)

// スキーマの固定ID。アプリケーションの全インスタンスが同じIDを共有する。
const (
	DatabaseID              = "notesdb"
	StickyNotesCollectionID = "stickynotes"
	TodosCollectionID       = "todos"
)

// Ensurer はスキーマの存在保証を行う。一度成功した後はネットワークに
// 到達せず、失敗した場合は次回の呼び出しで再試行する。
type Ensurer struct {
	client *appwrite.Client

	mu      sync.Mutex
	ensured bool
}

// NewEnsurer はEnsurerを生成する。clientは特権クライアント。
func NewEnsurer(client *appwrite.Client) *Ensurer {
	return &Ensurer{client: client}
}

// Ensure はデータベースと両コレクションの存在を保証する。
// 冪等であり、並行呼び出しは直列化される。データベースが既に存在する
// 場合はコレクション作成をスキップする（スキーマは作成時に完結するため）。
func (e *Ensurer) Ensure(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ensured {
		return nil
	}

	if _, err := e.client.GetDatabase(ctx, DatabaseID); err == nil {
		e.ensured = true
		return nil
	} else if !appwrite.IsNotFound(err) {
		return err
	}

	if _, err := e.client.CreateDatabase(ctx, DatabaseID, DatabaseID); err != nil {
		// 複数インスタンスの同時起動では作成が衝突し得る
		if !appwrite.IsConflict(err) {
			return err
		}
		slog.Info("database already created by another instance",
			slog.String("database_id", DatabaseID),
		)
	}

	// 2つのコレクションは互いに独立しているため並行に作成する
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.createStickyNotesCollection(ctx)
	}()
	go func() {
		defer wg.Done()
		e.createTodosCollection(ctx)
	}()
	wg.Wait()

	e.ensured = true
	slog.Info("database schema ensured", slog.String("database_id", DatabaseID))
	return nil
}

// Middleware はリクエスト処理の前にEnsureを呼び出すミドルウェアを返す。
// スキーマ保証の失敗でリクエストを拒否せず、ログに記録して続行する。
func (e *Ensurer) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := e.Ensure(r.Context()); err != nil {
				slog.Error("failed to ensure database schema",
					slog.String("error", err.Error()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// createStickyNotesCollection は付箋コレクションと属性を作成する。
// 属性作成の失敗はログに記録して続行する（既存属性との衝突は無害）。
func (e *Ensurer) createStickyNotesCollection(ctx context.Context) {
	if !e.createCollection(ctx, StickyNotesCollectionID) {
		return
	}

	defaultColor := "#E64C14"
	attrs := []attributeError{
		{"content", e.client.CreateStringAttribute(ctx, DatabaseID, StickyNotesCollectionID, "content", 1000, true, nil)},
		{"userId", e.client.CreateStringAttribute(ctx, DatabaseID, StickyNotesCollectionID, "userId", 200, true, nil)},
		{"color", e.client.CreateStringAttribute(ctx, DatabaseID, StickyNotesCollectionID, "color", 200, false, &defaultColor)},
	}
	logAttributeErrors(StickyNotesCollectionID, attrs)
}

// createTodosCollection はTODOコレクションと属性を作成する。
func (e *Ensurer) createTodosCollection(ctx context.Context) {
	if !e.createCollection(ctx, TodosCollectionID) {
		return
	}

	defaultDescription := ""
	defaultCompleted := false
	attrs := []attributeError{
		{"title", e.client.CreateStringAttribute(ctx, DatabaseID, TodosCollectionID, "title", 200, true, nil)},
		{"description", e.client.CreateStringAttribute(ctx, DatabaseID, TodosCollectionID, "description", 1000, false, &defaultDescription)},
		{"completed", e.client.CreateBooleanAttribute(ctx, DatabaseID, TodosCollectionID, "completed", false, &defaultCompleted)},
		{"userId", e.client.CreateStringAttribute(ctx, DatabaseID, TodosCollectionID, "userId", 200, true, nil)},
		{"dueDate", e.client.CreateDatetimeAttribute(ctx, DatabaseID, TodosCollectionID, "dueDate", false, nil)},
	}
	logAttributeErrors(TodosCollectionID, attrs)
}

// createCollection はコレクションを作成し、属性作成に進むべきかを返す。
// 既存コレクションとの衝突は別インスタンスが作成済みとみなす。
func (e *Ensurer) createCollection(ctx context.Context, collectionID string) bool {
	permissions := []string{
		appwrite.PermissionRead("users"),
		appwrite.PermissionCreate("users"),
		appwrite.PermissionUpdate("users"),
		appwrite.PermissionDelete("users"),
	}

	if _, err := e.client.CreateCollection(ctx, DatabaseID, collectionID, collectionID, permissions); err != nil {
		if appwrite.IsConflict(err) {
			slog.Info("collection already exists",
				slog.String("collection_id", collectionID),
			)
			return false
		}
		slog.Error("failed to create collection",
			slog.String("collection_id", collectionID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

type attributeError struct {
	key string
	err error
}

func logAttributeErrors(collectionID string, attrs []attributeError) {
	for _, a := range attrs {
		if a.err != nil {
			slog.Error("failed to create attribute",
				slog.String("collection_id", collectionID),
				slog.String("attribute", a.key),
				slog.String("error", a.err.Error()),
			)
		}
	}
}
