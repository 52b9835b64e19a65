package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
	"github.com/saku-730/species-catalog/internal/utils"
)

// capture: サーバー側で受けたリクエストの観察用
type capture struct {
	method string
	path   string
	query  map[string]string
	header http.Header
	body   []byte
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *capture) {
	t.Helper()
	cap := &capture{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.method = r.Method
		cap.path = r.URL.Path
		cap.query = map[string]string{}
		for k, v := range r.URL.Query() {
			cap.query[k] = v[0]
		}
		cap.header = r.Header.Clone()
		cap.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, cap
}

func TestListSpecies(t *testing.T) {
	srv, cap := newServer(t, http.StatusOK, `[
		{"id": 1, "scientific_name": "Panthera tigris", "kingdom": "Animalia", "endangered": true, "author": "user-1"},
		{"id": 2, "scientific_name": "Quercus crispula", "kingdom": "Plantae", "common_name": "ミズナラ"}
	]`)

	c := NewClient(srv.URL, "anon-key")
	list, err := c.ListSpecies(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/species", cap.path)
	assert.Equal(t, "id.asc", cap.query["order"])
	assert.Equal(t, "anon-key", cap.header.Get("apikey"))
	// トークンなしなら匿名キーで読む
	assert.Equal(t, "Bearer anon-key", cap.header.Get("Authorization"))

	require.Len(t, list, 2)
	assert.Equal(t, "Panthera tigris", list[0].ScientificName)
	require.NotNil(t, list[1].CommonName)
	assert.Equal(t, "ミズナラ", *list[1].CommonName)
	assert.Nil(t, list[1].Author)
}

func TestGetSpecies_NotFound(t *testing.T) {
	srv, cap := newServer(t, http.StatusNotAcceptable, `{"message": "JSON object requested, multiple (or no) rows returned"}`)

	c := NewClient(srv.URL, "anon-key")
	_, err := c.GetSpecies(context.Background(), 42)

	// 単一行モードの0行はnot found
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	assert.Equal(t, "eq.42", cap.query["id"])
	assert.Contains(t, cap.header.Get("Accept"), "vnd.pgrst.object")
}

func TestInsertSpecies_SendsAuthorAndToken(t *testing.T) {
	srv, cap := newServer(t, http.StatusCreated, `{"id": 7, "scientific_name": "Panthera tigris", "kingdom": "Animalia", "author": "user-1"}`)

	token, err := utils.GenerateToken("user-1")
	require.NoError(t, err)
	ctx := gateway.WithToken(context.Background(), token)

	c := NewClient(srv.URL, "anon-key")
	payload := model.SpeciesPayload{ScientificName: "Panthera tigris", Kingdom: model.KingdomAnimalia}

	sp, err := c.InsertSpecies(ctx, payload, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, sp.ID)

	assert.Equal(t, http.MethodPost, cap.method)
	assert.Equal(t, "Bearer "+token, cap.header.Get("Authorization"))
	assert.Equal(t, "return=representation", cap.header.Get("Prefer"))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(cap.body, &sent))
	assert.Equal(t, "user-1", sent["author"])
}

func TestUpdateSpecies_NeverSendsAuthor(t *testing.T) {
	srv, cap := newServer(t, http.StatusOK, `{"id": 7, "scientific_name": "Quercus serrata", "kingdom": "Plantae", "author": "user-1"}`)

	c := NewClient(srv.URL, "anon-key")
	payload := model.SpeciesPayload{ScientificName: "Quercus serrata", Kingdom: model.KingdomPlantae}

	_, err := c.UpdateSpecies(context.Background(), 7, payload)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, cap.method)
	assert.Equal(t, "eq.7", cap.query["id"])

	// 更新ペイロードにauthorキーは存在しない（不変条件）
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(cap.body, &sent))
	_, hasAuthor := sent["author"]
	assert.False(t, hasAuthor)
}

func TestListComments_EmbeddedAuthorName(t *testing.T) {
	srv, cap := newServer(t, http.StatusOK, `[
		{"id": 2, "species_id": 7, "user_id": "user-2", "comment_text": "すごい発見ですね！", "profiles": {"display_name": "Midori"}},
		{"id": 1, "species_id": 7, "user_id": "user-1", "comment_text": "先客", "profiles": null}
	]`)

	c := NewClient(srv.URL, "anon-key")
	comments, err := c.ListComments(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "*,profiles(display_name)", cap.query["select"])
	assert.Equal(t, "eq.7", cap.query["species_id"])
	assert.Equal(t, "created_at.desc", cap.query["order"])

	require.Len(t, comments, 2)
	assert.Equal(t, "Midori", comments[0].AuthorName)
	assert.Equal(t, "", comments[1].AuthorName) // JOIN先がなければ空のまま
}

func TestInsertComment_RequestsJoinedReturn(t *testing.T) {
	srv, cap := newServer(t, http.StatusCreated, `{"id": 3, "species_id": 7, "user_id": "user-2", "comment_text": "great", "profiles": {"display_name": "Midori"}}`)

	c := NewClient(srv.URL, "anon-key")
	created, err := c.InsertComment(context.Background(), 7, "user-2", "great")
	require.NoError(t, err)

	assert.Equal(t, "*,profiles(display_name)", cap.query["select"])
	assert.Equal(t, "return=representation", cap.header.Get("Prefer"))
	assert.Equal(t, "Midori", created.AuthorName)
}

func TestWrite_GatewayErrorMapped(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden, `{"message": "row level security violation"}`)

	c := NewClient(srv.URL, "anon-key")
	err := c.DeleteSpecies(context.Background(), 7)
	require.Error(t, err)

	var gwErr *gateway.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusForbidden, gwErr.Status)
	assert.Equal(t, "row level security violation", gwErr.Message)
}

func TestSession(t *testing.T) {
	c := NewClient("http://unused", "anon-key")

	// トークンなし → 未ログイン
	id, err := c.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", id)

	// 有効なトークン → ユーザーID
	token, err := utils.GenerateToken("user-9")
	require.NoError(t, err)
	id, err = c.Session(gateway.WithToken(context.Background(), token))
	require.NoError(t, err)
	assert.Equal(t, "user-9", id)

	// 壊れたトークンは未ログイン扱い（エラーにしない）
	id, err = c.Session(gateway.WithToken(context.Background(), "garbage"))
	require.NoError(t, err)
	assert.Equal(t, "", id)
}
