package devgateway

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/saku-730/species-catalog/internal/model"
	"github.com/saku-730/species-catalog/internal/utils"
)

// ErrForbidden: 他人の行への書き込み（またはそもそも行が無い）
var ErrForbidden = errors.New("row is not yours")

// Handler: ホスト型ゲートウェイの代役
// 本物と同じREST契約（等値フィルタ・並び順・JOIN埋め込み・return=representation）の
// 使っているぶんだけを実装する。権限の本当の強制はここ
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// ---------------------------------------------------
// auth (登録・ログイン)
// ---------------------------------------------------

type registerRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"` // 8文字以上必須
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/v1/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	// 1. 重複チェック (UNIQUE制約でも弾けるけど、親切なエラーメッセージのためにここでも見る)
	existing, _, err := h.store.FindProfileByEmail(req.Email)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		errJSON(c, http.StatusConflict, "このメールアドレスは既に使用されています")
		return
	}

	// 2. パスワードのハッシュ化
	hashedPass, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "hashing failed")
		return
	}

	// 3. プロフィール作成（IDは認証基盤のユーザーID相当としてUUIDを振る）
	profile := &model.Profile{
		ID:          uuid.New().String(),
		DisplayName: req.DisplayName,
		Email:       req.Email,
	}
	if err := h.store.CreateProfile(profile, string(hashedPass)); err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := utils.GenerateToken(profile.ID)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "トークン生成失敗")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": profile, "access_token": token})
}

// POST /auth/v1/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, hash, err := h.store.FindProfileByEmail(req.Email)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if profile == nil {
		errJSON(c, http.StatusUnauthorized, "ユーザーが見つからないか、パスワードが違います")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		errJSON(c, http.StatusUnauthorized, "ユーザーが見つからないか、パスワードが違います")
		return
	}

	token, err := utils.GenerateToken(profile.ID)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, "トークン生成失敗")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile, "access_token": token})
}

// ---------------------------------------------------
// /rest/v1/species
// ---------------------------------------------------

func (h *Handler) SpeciesGet(c *gin.Context) {
	if id, ok := eqInt(c, "id"); ok {
		sp, err := h.store.FindSpeciesByID(id)
		if err != nil {
			errJSON(c, http.StatusInternalServerError, err.Error())
			return
		}
		if singleRequested(c) {
			if sp == nil {
				// 単一行モードで0行は406（PostgREST流）
				errJSON(c, http.StatusNotAcceptable, "JSON object requested, multiple (or no) rows returned")
				return
			}
			c.JSON(http.StatusOK, sp)
			return
		}
		if sp == nil {
			c.JSON(http.StatusOK, []model.Species{})
			return
		}
		c.JSON(http.StatusOK, []model.Species{*sp})
		return
	}

	list, err := h.store.ListSpecies()
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, list)
}

// speciesInsertBody: クライアントが送ってくる作成ペイロード
type speciesInsertBody struct {
	model.SpeciesPayload
	Author string `json:"author"`
}

func (h *Handler) SpeciesPost(c *gin.Context) {
	userID, ok := userFromToken(c)
	if !ok {
		errJSON(c, http.StatusUnauthorized, "認証が必要です")
		return
	}

	var body speciesInsertBody
	if err := c.ShouldBindJSON(&body); err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if !body.Kingdom.Valid() {
		errJSON(c, http.StatusBadRequest, "kingdomの値が不正です")
		return
	}

	// authorはボディではなくトークンを信用する（なりすまし防止）
	sp, err := h.store.InsertSpecies(body.SpeciesPayload, userID)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, sp)
}

func (h *Handler) SpeciesPatch(c *gin.Context) {
	userID, ok := userFromToken(c)
	if !ok {
		errJSON(c, http.StatusUnauthorized, "認証が必要です")
		return
	}
	id, ok := eqInt(c, "id")
	if !ok {
		errJSON(c, http.StatusBadRequest, "idフィルタが必要です")
		return
	}

	var payload model.SpeciesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if !payload.Kingdom.Valid() {
		errJSON(c, http.StatusBadRequest, "kingdomの値が不正です")
		return
	}

	sp, err := h.store.UpdateSpecies(id, userID, payload)
	if errors.Is(err, ErrForbidden) {
		errJSON(c, http.StatusForbidden, "自分が登録した行しか更新できません")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, sp)
}

func (h *Handler) SpeciesDelete(c *gin.Context) {
	userID, ok := userFromToken(c)
	if !ok {
		errJSON(c, http.StatusUnauthorized, "認証が必要です")
		return
	}
	id, ok := eqInt(c, "id")
	if !ok {
		errJSON(c, http.StatusBadRequest, "idフィルタが必要です")
		return
	}

	err := h.store.DeleteSpecies(id, userID)
	if errors.Is(err, ErrForbidden) {
		errJSON(c, http.StatusForbidden, "自分が登録した行しか削除できません")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------
// /rest/v1/profiles, /rest/v1/comments
// ---------------------------------------------------

func (h *Handler) ProfilesGet(c *gin.Context) {
	id, ok := eqParam(c, "id")
	if !ok {
		errJSON(c, http.StatusBadRequest, "idフィルタが必要です")
		return
	}

	profile, err := h.store.FindProfileByID(id)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	if profile == nil {
		errJSON(c, http.StatusNotAcceptable, "JSON object requested, multiple (or no) rows returned")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) CommentsGet(c *gin.Context) {
	speciesID, ok := eqInt(c, "species_id")
	if !ok {
		errJSON(c, http.StatusBadRequest, "species_idフィルタが必要です")
		return
	}

	list, err := h.store.ListComments(speciesID)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, commentRows(list))
}

type commentInsertBody struct {
	SpeciesID   int    `json:"species_id" binding:"required"`
	UserID      string `json:"user_id"`
	CommentText string `json:"comment_text" binding:"required"`
}

func (h *Handler) CommentsPost(c *gin.Context) {
	userID, ok := userFromToken(c)
	if !ok {
		errJSON(c, http.StatusUnauthorized, "認証が必要です")
		return
	}

	var body commentInsertBody
	if err := c.ShouldBindJSON(&body); err != nil {
		errJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.CommentText) == "" {
		errJSON(c, http.StatusBadRequest, "comment_textが空です")
		return
	}

	// user_idもトークンを信用する
	comment, err := h.store.InsertComment(body.SpeciesID, userID, body.CommentText)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, commentRow(*comment))
}

func (h *Handler) CommentsDelete(c *gin.Context) {
	userID, ok := userFromToken(c)
	if !ok {
		errJSON(c, http.StatusUnauthorized, "認証が必要です")
		return
	}
	id, ok := eqInt(c, "id")
	if !ok {
		errJSON(c, http.StatusBadRequest, "idフィルタが必要です")
		return
	}

	err := h.store.DeleteComment(id, userID)
	if errors.Is(err, ErrForbidden) {
		errJSON(c, http.StatusForbidden, "自分のコメントしか削除できません")
		return
	}
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------
// Helper
// ---------------------------------------------------

// commentRow: profilesのJOIN埋め込み形 (*,profiles(display_name)) に変換する
func commentRow(c model.Comment) gin.H {
	return gin.H{
		"id":           c.ID,
		"species_id":   c.SpeciesID,
		"user_id":      c.UserID,
		"comment_text": c.CommentText,
		"created_at":   c.CreatedAt,
		"updated_at":   c.UpdatedAt,
		"profiles":     gin.H{"display_name": c.AuthorName},
	}
}

func commentRows(list []model.Comment) []gin.H {
	rows := make([]gin.H, 0, len(list))
	for _, c := range list {
		rows = append(rows, commentRow(c))
	}
	return rows
}

// eqParam: "id=eq.123" 形式のクエリから値部分を取り出す
func eqParam(c *gin.Context, name string) (string, bool) {
	raw := c.Query(name)
	if !strings.HasPrefix(raw, "eq.") {
		return "", false
	}
	return strings.TrimPrefix(raw, "eq."), true
}

func eqInt(c *gin.Context, name string) (int, bool) {
	raw, ok := eqParam(c, name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// userFromToken: AuthorizationヘッダーのJWTからユーザーIDを取り出す
// 匿名キーや無効なトークンは未ログイン扱い
func userFromToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	claims, err := utils.ParseToken(parts[1])
	if err != nil || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

func singleRequested(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "vnd.pgrst.object")
}

// errJSON: PostgREST風のエラー形 {"message": "..."}
func errJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
