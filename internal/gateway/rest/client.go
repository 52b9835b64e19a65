package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
	"github.com/saku-730/species-catalog/internal/utils"
)

// Client: ホスト型データストアのREST API (PostgRESTサブセット) を叩くゲートウェイ実装
// こちらが操作できるのはテーブル名・等値フィルタ・並び順・ペイロードだけ
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// インターフェース実装の確認
var _ gateway.Gateway = (*Client)(nil)

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ---------------------------------------------------
// Species
// ---------------------------------------------------

func (c *Client) ListSpecies(ctx context.Context) ([]model.Species, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "id.asc")

	var list []model.Species
	if err := c.get(ctx, "species", q, false, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetSpecies(ctx context.Context, id int) (*model.Species, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", fmt.Sprintf("eq.%d", id))

	var sp model.Species
	if err := c.get(ctx, "species", q, true, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// speciesInsert: 作成時だけauthor列を付けて送る形
type speciesInsert struct {
	model.SpeciesPayload
	Author string `json:"author"`
}

func (c *Client) InsertSpecies(ctx context.Context, payload model.SpeciesPayload, author string) (*model.Species, error) {
	var sp model.Species
	if err := c.write(ctx, http.MethodPost, "species", nil, speciesInsert{payload, author}, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (c *Client) UpdateSpecies(ctx context.Context, id int, payload model.SpeciesPayload) (*model.Species, error) {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("eq.%d", id))

	// payloadの型にauthorフィールドが無いので、更新でauthorが書き換わることは構造的にない
	var sp model.Species
	if err := c.write(ctx, http.MethodPatch, "species", q, payload, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (c *Client) DeleteSpecies(ctx context.Context, id int) error {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("eq.%d", id))
	return c.write(ctx, http.MethodDelete, "species", q, nil, nil)
}

// ---------------------------------------------------
// Profile / Comment
// ---------------------------------------------------

func (c *Client) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)

	var p model.Profile
	if err := c.get(ctx, "profiles", q, true, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// commentRow: commentsにprofilesのdisplay_nameを埋め込んだ行の形
type commentRow struct {
	model.Comment
	Profiles *struct {
		DisplayName string `json:"display_name"`
	} `json:"profiles"`
}

func (row commentRow) toComment() model.Comment {
	comment := row.Comment
	if row.Profiles != nil {
		comment.AuthorName = row.Profiles.DisplayName
	}
	return comment
}

func (c *Client) ListComments(ctx context.Context, speciesID int) ([]model.Comment, error) {
	q := url.Values{}
	q.Set("select", "*,profiles(display_name)")
	q.Set("species_id", fmt.Sprintf("eq.%d", speciesID))
	q.Set("order", "created_at.desc") // 新しい順

	var rows []commentRow
	if err := c.get(ctx, "comments", q, false, &rows); err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.toComment())
	}
	return comments, nil
}

func (c *Client) InsertComment(ctx context.Context, speciesID int, userID, text string) (*model.Comment, error) {
	q := url.Values{}
	// 作成された行を投稿者名JOIN付きでそのまま返してもらう
	// (クライアント側で形を推測せず、ゲートウェイの返した行を正とする)
	q.Set("select", "*,profiles(display_name)")

	body := map[string]interface{}{
		"species_id":   speciesID,
		"user_id":      userID,
		"comment_text": text,
	}

	var row commentRow
	if err := c.write(ctx, http.MethodPost, "comments", q, body, &row); err != nil {
		return nil, err
	}
	comment := row.toComment()
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, id int) error {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("eq.%d", id))
	return c.write(ctx, http.MethodDelete, "comments", q, nil, nil)
}

// ---------------------------------------------------
// Session
// ---------------------------------------------------

// Session: contextに載っているトークンからユーザーIDを取り出す
// トークンが無い・無効なら未ログイン扱い（空文字）で、エラーにはしない
func (c *Client) Session(ctx context.Context) (string, error) {
	token := gateway.TokenFromContext(ctx)
	if token == "" {
		return "", nil
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		return "", nil // 期限切れなどは未ログインと同じ扱い
	}
	return claims.UserID, nil
}

// ---------------------------------------------------
// 共通の送受信ヘルパー
// ---------------------------------------------------

// get: 読み取り系。single=trueなら単一行取得 (0行はErrNotFound)
func (c *Client) get(ctx context.Context, table string, query url.Values, single bool, out interface{}) error {
	resp, err := c.send(ctx, http.MethodGet, table, query, single, false, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, single); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// write: 書き込み系。outがnilでなければ Prefer: return=representation で行を受け取る
func (c *Client) write(ctx context.Context, method, table string, query url.Values, body, out interface{}) error {
	resp, err := c.send(ctx, method, table, query, out != nil, out != nil, body)
	if err != nil {
		return &gateway.Error{Message: err.Error()} // ネットワーク断など
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, false); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// send: リクエスト共通部。認証ヘッダーはcontextのセッショントークンを使う
// (無ければ匿名キーで読み取り専用アクセス)
func (c *Client) send(ctx context.Context, method, table string, query url.Values, single, preferReturn bool, body interface{}) (*http.Response, error) {
	endpoint := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	token := gateway.TokenFromContext(ctx)
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if single {
		// 単一行モード。0行ならゲートウェイが406を返してくる
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if preferReturn {
		req.Header.Set("Prefer", "return=representation")
	}

	return c.client.Do(req)
}

// checkStatus: 2xx以外をエラー分類に変換する
func checkStatus(resp *http.Response, single bool) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// 単一行取得の0行はnot foundとして区別する
	if single && (resp.StatusCode == http.StatusNotAcceptable || resp.StatusCode == http.StatusNotFound) {
		return gateway.ErrNotFound
	}

	raw, _ := io.ReadAll(resp.Body)
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := string(raw)
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			message = parsed.Message
		} else if parsed.Error != "" {
			message = parsed.Error
		}
	}

	return &gateway.Error{Status: resp.StatusCode, Message: message}
}
