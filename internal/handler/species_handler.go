package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saku-730/species-catalog/internal/form"
	"github.com/saku-730/species-catalog/internal/gateway"
	"github.com/saku-730/species-catalog/internal/model"
	"github.com/saku-730/species-catalog/internal/search"
	"github.com/saku-730/species-catalog/internal/view"
)

type SpeciesHandler struct {
	gw         gateway.Gateway
	listView   *view.ListView
	searchRepo search.Repository
}

func NewSpeciesHandler(gw gateway.Gateway, listView *view.ListView, searchRepo search.Repository) *SpeciesHandler {
	return &SpeciesHandler{gw: gw, listView: listView, searchRepo: searchRepo}
}

// GET /api/species
// ページ表示ごとの全件スナップショット。ログインしていれば各カードに編集可否が付く
func (h *SpeciesHandler) GetAll(c *gin.Context) {
	sessionID := c.GetString("userID")

	cards, err := h.listView.Load(c.Request.Context(), sessionID)
	if err != nil {
		respondGatewayError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"species": cards, "session_id": sessionID})
}

// POST /api/species
func (h *SpeciesHandler) Create(c *gin.Context) {
	var input model.SpeciesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notifier := newResponseNotifier()
	ctrl := form.NewCreate(h.gw, notifier)

	h.submitForm(c, ctrl, input, notifier, http.StatusCreated)
}

// PUT /api/species/:id
func (h *SpeciesHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return
	}

	var input model.SpeciesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 編集フォームは今保存されているレコードから転記して始める
	existing, err := h.gw.GetSpecies(c.Request.Context(), id)
	if err != nil {
		respondGatewayError(c, err)
		return
	}

	notifier := newResponseNotifier()
	ctrl := form.NewEdit(h.gw, notifier, *existing)

	h.submitForm(c, ctrl, input, notifier, http.StatusOK)
}

// DELETE /api/species/:id
func (h *SpeciesHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return
	}

	sessionID := c.GetString("userID")

	species, err := h.gw.GetSpecies(c.Request.Context(), id)
	if err != nil {
		respondGatewayError(c, err)
		return
	}

	notifier := newResponseNotifier()
	lv := view.NewListView(h.gw, notifier)
	reload := false
	lv.OnReload = func() { reload = true }

	err = lv.DeleteSpecies(c.Request.Context(), *species, sessionID, clientConfirmed{})
	if errors.Is(err, view.ErrNotOwner) {
		c.JSON(http.StatusForbidden, gin.H{"error": "自分が登録した種しか削除できません"})
		return
	}

	// 成否に関わらずフロントには全体リロードを頼む
	status := http.StatusOK
	if err != nil {
		status = gatewayStatus(err)
	}
	c.JSON(status, gin.H{"reload": reload, "notices": notifier.Notices, "errors": notifier.Errors})
}

// GET /api/search?q=...&kingdom=...
func (h *SpeciesHandler) Search(c *gin.Context) {
	query := c.Query("q")
	kingdom := c.Query("kingdom")

	docs, err := h.searchRepo.Search(query, kingdom)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, docs)
}

// submitForm: フォームに入力を流し込んでSubmitする共通処理
func (h *SpeciesHandler) submitForm(c *gin.Context, ctrl *form.Controller, input model.SpeciesInput, notifier *responseNotifier, okStatus int) {
	ctrl.Set(form.FieldScientificName, input.ScientificName)
	ctrl.Set(form.FieldCommonName, input.CommonName)
	ctrl.Set(form.FieldKingdom, input.Kingdom)
	ctrl.Set(form.FieldTotalPopulation, input.TotalPopulation)
	ctrl.Set(form.FieldImage, input.Image)
	ctrl.Set(form.FieldDescription, input.Description)
	ctrl.SetEndangered(input.Endangered)

	// 個体数欄などSetの段階で弾かれた入力はここで返す
	if len(ctrl.Errors()) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"field_errors": ctrl.Errors()})
		return
	}

	closed := false
	refresh := false
	ctrl.OnClose = func() { closed = true }
	ctrl.OnRefresh = func() { refresh = true }

	saved, err := ctrl.Submit(c.Request.Context())

	if errors.Is(err, form.ErrInvalid) {
		// フィールド単位のエラーをそのまま返す。ゲートウェイには触っていない
		c.JSON(http.StatusBadRequest, gin.H{"field_errors": ctrl.Errors()})
		return
	}
	if err != nil {
		// ダイアログは開いたまま・下書き保持、の合図としてエラーと通知だけ返す
		c.JSON(gatewayStatus(err), gin.H{"errors": notifier.Errors})
		return
	}

	c.JSON(okStatus, gin.H{
		"species": saved,
		"closed":  closed,
		"refresh": refresh,
		"notices": notifier.Notices,
	})
}

// respondGatewayError: 読み取り系のゲートウェイエラーをHTTPに写す
func respondGatewayError(c *gin.Context, err error) {
	if errors.Is(err, gateway.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(gatewayStatus(err), gin.H{"error": err.Error()})
}

// gatewayStatus: ゲートウェイエラーのHTTPステータスを流用する。不明なら502
func gatewayStatus(err error) int {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Status != 0 {
		return gwErr.Status
	}
	return http.StatusBadGateway
}
