package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saku-730/species-catalog/internal/dialog"
	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
)

type DialogHandler struct {
	gw      gateway.Gateway
	manager *dialog.Manager
}

func NewDialogHandler(gw gateway.Gateway, manager *dialog.Manager) *DialogHandler {
	return &DialogHandler{gw: gw, manager: manager}
}

// dialogPayload: ダイアログの今の中身をまとめて返す形
type dialogPayload struct {
	DialogID        string          `json:"dialog_id"`
	State           string          `json:"state"`
	Species         model.Species   `json:"species"`
	ViewerID        string          `json:"viewer_id"`
	Author          *model.Profile  `json:"author"`
	AuthorAvailable bool            `json:"author_available"` // falseなら「投稿者情報なし」表示
	Comments        []model.Comment `json:"comments"`
}

func payloadFrom(id string, ctrl *dialog.Controller) dialogPayload {
	author, ok := ctrl.Author()
	return dialogPayload{
		DialogID:        id,
		State:           ctrl.State().String(),
		Species:         ctrl.Species(),
		ViewerID:        ctrl.ViewerID(),
		Author:          author,
		AuthorAvailable: ok,
		Comments:        ctrl.Comments(),
	}
}

// POST /api/species/:id/dialog
// 詳細ダイアログを開く。投稿者・コメント・セッションの取得はここでまとめて走る
// (どれかが失敗しても他は返る。部分表示が正しい挙動)
func (h *DialogHandler) Open(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return
	}

	species, err := h.gw.GetSpecies(c.Request.Context(), id)
	if err != nil {
		respondGatewayError(c, err)
		return
	}

	dialogID, ctrl, err := h.manager.Open(c.Request.Context(), *species)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, payloadFrom(dialogID, ctrl))
}

// POST /api/dialogs/:dialogID/comments
func (h *DialogHandler) AddComment(c *gin.Context) {
	ctrl, ok := h.manager.Get(c.Param("dialogID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "ダイアログが見つかりません"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := ctrl.AddComment(c.Request.Context(), req.Text)
	if errors.Is(err, dialog.ErrNotOpen) {
		c.JSON(http.StatusConflict, gin.H{"error": "ダイアログが開いていません"})
		return
	}
	if err != nil {
		c.JSON(gatewayStatus(err), gin.H{"error": err.Error()})
		return
	}
	if created == nil {
		// 空文字・未ログインは何もしない（入力欄もそのまま）
		c.JSON(http.StatusOK, gin.H{"comment": nil, "comments": ctrl.Comments()})
		return
	}

	// 先頭に追記済みの一覧と、作成された行そのものを返す。入力欄はフロント側でクリア
	c.JSON(http.StatusCreated, gin.H{"comment": created, "comments": ctrl.Comments()})
}

// DELETE /api/dialogs/:dialogID/comments/:commentID
func (h *DialogHandler) DeleteComment(c *gin.Context) {
	ctrl, ok := h.manager.Get(c.Param("dialogID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "ダイアログが見つかりません"})
		return
	}

	commentID, err := strconv.Atoi(c.Param("commentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return
	}

	err = ctrl.DeleteComment(c.Request.Context(), commentID)
	switch {
	case errors.Is(err, dialog.ErrNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": "ダイアログが開いていません"})
	case errors.Is(err, dialog.ErrNotCommentOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "自分のコメントしか削除できません"})
	case err != nil:
		// 失敗時は一覧に手を付けない（リトライもしない）
		c.JSON(gatewayStatus(err), gin.H{"error": err.Error(), "comments": ctrl.Comments()})
	default:
		c.JSON(http.StatusOK, gin.H{"comments": ctrl.Comments()})
	}
}

// DELETE /api/dialogs/:dialogID
// 閉じたダイアログの状態は全部捨てる。次に開くときは空から取り直す
func (h *DialogHandler) Close(c *gin.Context) {
	h.manager.Close(c.Param("dialogID"))
	c.JSON(http.StatusOK, gin.H{"message": "closed"})
}
