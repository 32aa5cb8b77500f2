// Package model はドメインモデルを定義する。
package model

// User はBaaS側が所有するユーザーのアイデンティティレコードを表す。
// ローカルコードはセッションスコープの呼び出しを通じて読み取り・更新のみを行う。
type User struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	EmailVerification bool           `json:"emailVerification"`
	Phone             string         `json:"phone"`
	PhoneVerification bool           `json:"phoneVerification"`
	Prefs             map[string]any `json:"prefs"`
	Status            bool           `json:"status"`
	Labels            []string       `json:"labels"`
	Registration      string         `json:"registration"`
	AccessedAt        string         `json:"accessedAt"`
}

// Session は認証済みブラウザインスタンス1つを表す。
// シークレットはHTTP Only Cookieに保存され、有効期限の強制はBaaS側が行う。
type Session struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Expire      string `json:"expire"`
	Provider    string `json:"provider"`
	ProviderUID string `json:"providerUid"`
	IP          string `json:"ip"`
	OSName      string `json:"osName"`
	ClientName  string `json:"clientName"`
	DeviceName  string `json:"deviceName"`
	CountryName string `json:"countryName"`
	Current     bool   `json:"current"`

	// Secret はセッション発行時にのみBaaSから返却されるシークレット。
	// Cookieへの書き込み以外では使用せず、レスポンスには含めない。
	Secret string `json:"-"`
}

// StickyNote は付箋ノート1枚を表す。
// 不変条件: UserID は必ずそのノートを作成したセッションのユーザーIDと一致する。
// 更新操作は存在しない（absent → active → absent のみ）。
type StickyNote struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
	Color     string `json:"color"`
	CreatedAt string `json:"createdAt"`
}
