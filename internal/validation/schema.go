package validation

import (
	"net/url"
	"strings"

	"github.com/saku-730/species-catalog/internal/model"
)

// このパッケージは同期・純粋関数だけで構成する
// (同じ入力には必ず同じ結果。ネットワークも時刻も見ない)

// Draft: 検証前の種レコードの下書き
// 個体数は入力→下書き変換の段階で数値化済みのものを受け取る
// (数字じゃないテキストはそもそもここまで来ない)
type Draft struct {
	ScientificName  string
	CommonName      string
	Kingdom         string
	TotalPopulation *int
	Image           string
	Description     string
	Endangered      bool
}

// Violations: フィールド名 → エラーメッセージ
type Violations map[string]string

// OK: 違反ゼロならtrue
func (v Violations) OK() bool {
	return len(v) == 0
}

// Validate: 下書きを検証して、正規化済みのペイロードを返す
// 違反があればペイロードは使わずViolationsだけ見ること
func Validate(d Draft) (model.SpeciesPayload, Violations) {
	violations := Violations{}

	// 1. 学名: trimして空なら違反
	name := strings.TrimSpace(d.ScientificName)
	if name == "" {
		violations["scientific_name"] = "学名は必須です"
	}

	// 2. 任意の文字列フィールド: trimして空文字はnullに寄せる
	commonName := normalizeOptional(d.CommonName)
	image := normalizeOptional(d.Image)
	description := normalizeOptional(d.Description)

	// 3. 画像URL: 値があるならURLとしてパースできること
	if image != nil {
		if u, err := url.Parse(*image); err != nil || u.Scheme == "" || u.Host == "" {
			violations["image"] = "画像はURL形式で入力してください"
		}
	}

	// 4. 界: 6値のどれか。知らない値は黙ってデフォルトにせず違反にする
	kingdom := model.Kingdom(strings.TrimSpace(d.Kingdom))
	if !kingdom.Valid() {
		violations["kingdom"] = "界は6つの分類のどれかを選んでください"
	}

	// 5. 個体数: 値があるなら正の整数
	if d.TotalPopulation != nil && *d.TotalPopulation <= 0 {
		violations["total_population"] = "個体数は正の整数で入力してください"
	}

	if !violations.OK() {
		return model.SpeciesPayload{}, violations
	}

	return model.SpeciesPayload{
		ScientificName:  name,
		CommonName:      commonName,
		Kingdom:         kingdom,
		TotalPopulation: d.TotalPopulation,
		Image:           image,
		Description:     description,
		Endangered:      d.Endangered, // 未指定時のfalseは送信時のデフォルト
	}, violations
}

// normalizeOptional: trimして空文字ならnil（「値なし」はnullで表す）
func normalizeOptional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
