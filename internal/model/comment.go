package model

import "time"

// Comment: 種の詳細ダイアログに付くコメント
// AuthorName はcommentsテーブルには無く、profilesからJOINで引いてくる表示用の値
type Comment struct {
	ID          int       `json:"id"`
	SpeciesID   int       `json:"species_id"`
	UserID      string    `json:"user_id"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorName  string    `json:"author_name"`
}
