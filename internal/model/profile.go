package model

// Profile: 認証済みユーザーのプロフィール
// IDは認証基盤のユーザーIDと同じ文字列。作成・編集はゲートウェイ側の責務
type Profile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Biography   *string `json:"biography"`
}
