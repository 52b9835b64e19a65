package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/saku-730/species-catalog/internal/model"
)

// Gateway: リモートデータストア(認証付きCRUD)との境界
// 永続状態は全部向こう側が持つ。こちらはページ単位の読み取りコピーだけ
//
// 読み取りは冪等、書き込みはat-most-once（クライアント側で自動リトライしない）
type Gateway interface {
	// 種の一覧スナップショット (id昇順)
	ListSpecies(ctx context.Context) ([]model.Species, error)
	// 単一行取得。見つからない場合はErrNotFound
	GetSpecies(ctx context.Context, id int) (*model.Species, error)
	// 作成。authorにはセッションのユーザーIDを入れる。作成された行を返す
	InsertSpecies(ctx context.Context, payload model.SpeciesPayload, author string) (*model.Species, error)
	// id指定の更新。payloadにauthorは含まれない（不変なので送らない）
	UpdateSpecies(ctx context.Context, id int, payload model.SpeciesPayload) (*model.Species, error)
	DeleteSpecies(ctx context.Context, id int) error

	GetProfile(ctx context.Context, id string) (*model.Profile, error)

	// 新しい順。各コメントに投稿者のdisplay_nameをJOINして返す
	ListComments(ctx context.Context, speciesID int) ([]model.Comment, error)
	// 作成した行を（display_name付きで）そのまま返してもらう
	InsertComment(ctx context.Context, speciesID int, userID, text string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int) error

	// 現在のセッションのユーザーID。未ログインなら空文字
	Session(ctx context.Context) (string, error)
}

// ErrNotFound: 単一行取得で行が無かった
var ErrNotFound = errors.New("record not found")

// Error: ゲートウェイが返したエラー（ネットワーク・権限・制約違反など）
// ユーザーに見せる一次的な通知のメッセージ源になる
type Error struct {
	Status  int    // HTTPステータス。不明なら0
	Message string // ゲートウェイのエラーメッセージそのまま
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error: %s", e.Message)
}

type tokenKey struct{}

// WithToken: セッショントークンをcontextに載せる
// ゲートウェイ接続は全コンポーネントで共有するので、認証情報だけリクエストに沿って流す
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext: contextからセッショントークンを取り出す。無ければ空文字
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
