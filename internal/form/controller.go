package form

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
	"github.com/saku-730/species-catalog/internal/validation"
)

// フィールド名の定数。フロントのname属性とJSONキーに合わせる
const (
	FieldScientificName  = "scientific_name"
	FieldCommonName      = "common_name"
	FieldKingdom         = "kingdom"
	FieldTotalPopulation = "total_population"
	FieldImage           = "image"
	FieldDescription     = "description"
)

// ErrInvalid: 検証で弾かれた（ゲートウェイには一切触っていない）
var ErrInvalid = errors.New("draft failed validation")

// Notifier: 非ブロッキング通知の出口（トースト表示など）
type Notifier interface {
	Success(message string)
	Error(message string)
}

// fields: フォームの生の値。数値欄もテキストのまま持つ
type fields struct {
	values     map[string]string
	endangered bool
}

func (f fields) clone() fields {
	copied := map[string]string{}
	for k, v := range f.values {
		copied[k] = v
	}
	return fields{values: copied, endangered: f.endangered}
}

// Controller: 種レコード1件ぶんの編集下書きを管理する
// 作成パス(空のデフォルト)と編集パス(既存レコードから転記)の両方に使う
type Controller struct {
	gw       gateway.Gateway
	notifier Notifier

	// 成功時のフック。ダイアログを閉じる・一覧の再取得を頼む
	OnClose   func()
	OnRefresh func()

	recordID *int // nilなら作成パス
	current  fields
	pristine fields
	errs     validation.Violations
}

// NewCreate: 作成パス。空のデフォルトから始める
func NewCreate(gw gateway.Gateway, notifier Notifier) *Controller {
	f := emptyFields()
	return &Controller{gw: gw, notifier: notifier, current: f, pristine: f.clone(), errs: validation.Violations{}}
}

// NewEdit: 編集パス。既存レコードの値を転記して始める
func NewEdit(gw gateway.Gateway, notifier Notifier, sp model.Species) *Controller {
	f := emptyFields()
	f.values[FieldScientificName] = sp.ScientificName
	f.values[FieldCommonName] = deref(sp.CommonName)
	f.values[FieldKingdom] = string(sp.Kingdom)
	f.values[FieldImage] = deref(sp.Image)
	f.values[FieldDescription] = deref(sp.Description)
	if sp.TotalPopulation != nil {
		// 数値はそのままテキストに戻す（黙った丸めはしない）
		f.values[FieldTotalPopulation] = strconv.Itoa(*sp.TotalPopulation)
	}
	f.endangered = sp.Endangered

	id := sp.ID
	return &Controller{gw: gw, notifier: notifier, recordID: &id, current: f, pristine: f.clone(), errs: validation.Violations{}}
}

func emptyFields() fields {
	return fields{values: map[string]string{
		FieldScientificName:  "",
		FieldCommonName:      "",
		FieldKingdom:         "",
		FieldTotalPopulation: "",
		FieldImage:           "",
		FieldDescription:     "",
	}}
}

// Set: テキスト欄の現在値を入れる
// 個体数欄は数字以外のテキストをここで弾く（検証スキーマまで届かせない）
func (c *Controller) Set(field, value string) {
	if field == FieldTotalPopulation {
		if _, err := parsePopulation(value); err != nil {
			c.errs[FieldTotalPopulation] = "個体数は数字で入力してください"
			return // 下書きには反映しない
		}
		delete(c.errs, FieldTotalPopulation)
	}
	c.current.values[field] = value
}

// SetEndangered: 絶滅危惧フラグ
func (c *Controller) SetEndangered(v bool) {
	c.current.endangered = v
}

// Value: フィールドの現在値
func (c *Controller) Value(field string) string {
	return c.current.values[field]
}

func (c *Controller) Endangered() bool {
	return c.current.endangered
}

// Dirty: フィールドが初期値から変わっていればtrue（保存はしない派生値）
func (c *Controller) Dirty(field string) bool {
	return c.current.values[field] != c.pristine.values[field]
}

// Errors: フィールド単位のエラーメッセージ
func (c *Controller) Errors() validation.Violations {
	return c.errs
}

// Submit: 下書きを検証して、通ればゲートウェイへちょうど1回書き込む
//  1. 検証失敗 → フィールドエラーを保持してErrInvalid。ゲートウェイには触らない
//  2. ゲートウェイ失敗 → 通知を出してエラーを返す。下書きはそのまま（再入力なしでリトライできる）
//  3. 成功 → 今の値をpristineに据え直し、ダイアログを閉じて一覧の再取得を頼む
func (c *Controller) Submit(ctx context.Context) (*model.Species, error) {
	population, err := parsePopulation(c.current.values[FieldTotalPopulation])
	if err != nil {
		c.errs = validation.Violations{FieldTotalPopulation: "個体数は数字で入力してください"}
		return nil, ErrInvalid
	}

	payload, violations := validation.Validate(validation.Draft{
		ScientificName:  c.current.values[FieldScientificName],
		CommonName:      c.current.values[FieldCommonName],
		Kingdom:         c.current.values[FieldKingdom],
		TotalPopulation: population,
		Image:           c.current.values[FieldImage],
		Description:     c.current.values[FieldDescription],
		Endangered:      c.current.endangered,
	})
	if !violations.OK() {
		c.errs = violations
		return nil, ErrInvalid
	}
	c.errs = validation.Violations{}

	var saved *model.Species
	if c.recordID == nil {
		// 作成: セッションのユーザーIDをauthorとして付ける
		author, serr := c.gw.Session(ctx)
		if serr != nil || author == "" {
			c.notifier.Error("ログインしていないので登録できません")
			return nil, &gateway.Error{Status: 401, Message: "no session"}
		}
		saved, err = c.gw.InsertSpecies(ctx, payload, author)
	} else {
		// 更新: authorはペイロードに含まれないので書き換わらない
		saved, err = c.gw.UpdateSpecies(ctx, *c.recordID, payload)
	}

	if err != nil {
		// 失敗してもダイアログは開いたまま・下書きも無傷
		c.notifier.Error(err.Error())
		return nil, err
	}

	c.pristine = c.current.clone()
	if c.OnClose != nil {
		c.OnClose()
	}
	if c.OnRefresh != nil {
		c.OnRefresh() // 一覧は荒い全体再取得（その場のパッチ合成はしない）
	}
	return saved, nil
}

// parsePopulation: 個体数テキスト → 値。空はnull（0でもNaNでもない）
func parsePopulation(raw string) (*int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
