package appwrite

import "encoding/json"

// QueryEqual は属性が指定値のいずれかに一致するドキュメントを選択するクエリを構築する。
// クエリはJSON形式の文字列としてlistDocumentsのqueries[]パラメータに渡される。
func QueryEqual(attribute string, values ...any) string {
	b, _ := json.Marshal(map[string]any{
		"method":    "equal",
		"attribute": attribute,
		"values":    values,
	})
	return string(b)
}

// QueryOrderDesc は属性の降順ソートを指定するクエリを構築する。
func QueryOrderDesc(attribute string) string {
	b, _ := json.Marshal(map[string]any{
		"method":    "orderDesc",
		"attribute": attribute,
	})
	return string(b)
}
