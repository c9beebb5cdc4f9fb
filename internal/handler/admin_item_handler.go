package handler

import (
	"net/http"
	"strconv"

	"wardrobe/internal/config"
	"wardrobe/internal/domain/model"
	"wardrobe/internal/middleware"
	repo "wardrobe/internal/repository"
	"wardrobe/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 管理者向けの商品管理API
type AdminItemHandler struct {
	uc *usecase.ItemUsecase
}

// DI
func NewAdminItemHandler(uc *usecase.ItemUsecase) *AdminItemHandler {
	return &AdminItemHandler{uc: uc}
}

type AdminItemRequest struct {
	Name       string                   `json:"name"`
	Category   string                   `json:"category"`
	Type       string                   `json:"type"`
	Image      string                   `json:"image"`
	Color      string                   `json:"color"`
	Price      decimal.Decimal          `json:"price"`
	SizeStocks []usecase.SizeStockInput `json:"sizeStock"`
}

type StockCorrectionRequest struct {
	Size   string `json:"size"`
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

// 管理者だけが通るルートを登録
func (h *AdminItemHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/items")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminGuard())

	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/stock", h.adjustStock)

	logs := e.Group("/audit-logs")
	logs.Use(middleware.AuthJWT(cfg))
	logs.Use(middleware.AdminGuard())
	logs.GET("", h.listAuditLogs)
}

func (h *AdminItemHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AdminItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	item, err := h.uc.AdminCreateItem(c.Request().Context(), userID, usecase.AdminItemInput{
		Name:       req.Name,
		Category:   req.Category,
		Type:       req.Type,
		Image:      req.Image,
		Color:      req.Color,
		Price:      req.Price,
		SizeStocks: req.SizeStocks,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}

func (h *AdminItemHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	item, err := h.uc.AdminUpdateItem(c.Request().Context(), userID, id, usecase.AdminItemInput{
		Name:       req.Name,
		Category:   req.Category,
		Type:       req.Type,
		Image:      req.Image,
		Color:      req.Color,
		Price:      req.Price,
		SizeStocks: req.SizeStocks,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

func (h *AdminItemHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.AdminDeleteItem(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "item deleted"})
}

func (h *AdminItemHandler) adjustStock(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockCorrectionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminAdjustStock(c.Request().Context(), userID, id, usecase.StockCorrectionInput{
		Size:   req.Size,
		Delta:  req.Delta,
		Reason: req.Reason,
	}); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "stock adjusted"})
}

func (h *AdminItemHandler) listAuditLogs(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var filter repo.AuditLogFilter
	if v := c.QueryParam("action"); v != "" {
		action := model.AuditAction(v)
		filter.Action = &action
	}
	if v := c.QueryParam("resourceId"); v != "" {
		resourceID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resourceId"})
		}
		filter.ResourceID = &resourceID
	}
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	filter.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	logs, err := h.uc.ListAuditLogs(c.Request().Context(), userID, filter)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, logs)
}

// middlewareが入れたuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	raw := c.Get(middleware.CtxUserIDKey)
	userID, ok := raw.(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}
