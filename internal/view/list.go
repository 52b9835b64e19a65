package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
)

// Card: 一覧に並ぶ種1件ぶんの表示データ
// CanModify は (author == セッションID) から導くだけのUI用の目安
// 本当の権限チェックはゲートウェイ側で行われる
type Card struct {
	Species   model.Species `json:"species"`
	CanModify bool          `json:"can_modify"`
}

// Notifier: 非ブロッキング通知の出口
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Confirmer: 削除前の対話的確認。キャンセルならfalse
type Confirmer interface {
	Confirm(message string) bool
}

// ErrNotOwner: 他人の種は消せない（クライアント側の目安）
var ErrNotOwner = errors.New("species belongs to another user")

// ListView: 種一覧のオーケストレーション
// ページ表示ごとに全件スナップショットを1回取り、各カードに配る
type ListView struct {
	gw       gateway.Gateway
	notifier Notifier

	// OnReload: 削除後の荒いリフレッシュ要求（その場のリスト手術はしない）
	OnReload func()
}

func NewListView(gw gateway.Gateway, notifier Notifier) *ListView {
	return &ListView{gw: gw, notifier: notifier}
}

// Load: 全件スナップショットを取ってカードに変換する
// 所有判定はレンダリングごとに1回導くだけで、カード側からの追加取得はない
func (v *ListView) Load(ctx context.Context, sessionID string) ([]Card, error) {
	list, err := v.gw.ListSpecies(ctx)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(list))
	for _, sp := range list {
		cards = append(cards, Card{
			Species:   sp,
			CanModify: sp.Author != nil && sessionID != "" && *sp.Author == sessionID,
		})
	}
	return cards, nil
}

// DeleteSpecies: カードからの削除
// 確認がキャンセルされたらゲートウェイには一切触らない。
// 実行したら成否に関わらず最後に全体リロードを頼む（成功なら成功通知→リロード、失敗ならエラー通知→リロード）
func (v *ListView) DeleteSpecies(ctx context.Context, species model.Species, sessionID string, confirmer Confirmer) error {
	if species.Author == nil || sessionID == "" || *species.Author != sessionID {
		return ErrNotOwner
	}

	if !confirmer.Confirm(fmt.Sprintf("「%s」を削除しますか？", species.ScientificName)) {
		return nil // キャンセル。カードはそのまま残る
	}

	err := v.gw.DeleteSpecies(ctx, species.ID)
	if err != nil {
		v.notifier.Error(err.Error())
	} else {
		v.notifier.Success("削除しました")
	}

	if v.OnReload != nil {
		v.OnReload()
	}
	return err
}
