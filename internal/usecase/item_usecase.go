package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ItemUsecase はカタログ閲覧と管理者の商品管理です。
type ItemUsecase struct {
	itemRepo      repo.ItemRepository
	inventoryRepo repo.InventoryRepository
	cartRepo      repo.CartRepository
	userRepo      repo.UserRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewItemUsecase(
	itemRepo repo.ItemRepository,
	inventoryRepo repo.InventoryRepository,
	cartRepo repo.CartRepository,
	userRepo repo.UserRepository,
	auditRepo repo.AuditLogRepository,
) *ItemUsecase {
	return &ItemUsecase{
		itemRepo:      itemRepo,
		inventoryRepo: inventoryRepo,
		cartRepo:      cartRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
	}
}

func (u *ItemUsecase) ListByCategory(ctx context.Context, category string) ([]model.Item, error) {
	if strings.TrimSpace(category) == "" {
		return []model.Item{}, NewHTTPError(http.StatusBadRequest, "category required")
	}

	items, err := u.itemRepo.ListByCategory(ctx, category)
	if err != nil {
		return []model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *ItemUsecase) Search(ctx context.Context, term string) ([]model.Item, error) {
	if strings.TrimSpace(term) == "" {
		return []model.Item{}, NewHTTPError(http.StatusBadRequest, "search term required")
	}
	if len(term) > 100 {
		return []model.Item{}, NewHTTPError(http.StatusBadRequest, "search term too long")
	}

	items, err := u.itemRepo.Search(ctx, term)
	if err != nil {
		return []model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// 公開商品からcount件を一様ランダムに返す（母数以下に丸める）
func (u *ItemUsecase) Random(ctx context.Context, count int) ([]model.Item, error) {
	if count <= 0 {
		count = 5
	}
	if count > 50 {
		return []model.Item{}, NewHTTPError(http.StatusBadRequest, "invalid count")
	}

	items, err := u.itemRepo.Sample(ctx, count)
	if err != nil {
		return []model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *ItemUsecase) GetItemDetail(ctx context.Context, itemID int64) (model.Item, error) {
	if itemID <= 0 {
		return model.Item{}, NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	item, err := u.itemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return model.Item{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !item.IsActive {
		return model.Item{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return item, nil
}

type SizeStockInput struct {
	Size  string `json:"size"`
	Stock int64  `json:"stock"`
}

type AdminItemInput struct {
	Name       string
	Category   string
	Type       string
	Image      string
	Color      string
	Price      decimal.Decimal
	SizeStocks []SizeStockInput
}

func validateItemInput(in AdminItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return NewHTTPError(http.StatusBadRequest, "category required")
	}
	if strings.TrimSpace(in.Type) == "" {
		return NewHTTPError(http.StatusBadRequest, "type required")
	}
	if strings.TrimSpace(in.Image) == "" {
		return NewHTTPError(http.StatusBadRequest, "image required")
	}
	if strings.TrimSpace(in.Color) == "" {
		return NewHTTPError(http.StatusBadRequest, "color required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if len(in.SizeStocks) == 0 {
		return NewHTTPError(http.StatusBadRequest, "size stock required")
	}

	seen := map[string]bool{}
	for _, s := range in.SizeStocks {
		if strings.TrimSpace(s.Size) == "" {
			return NewHTTPError(http.StatusBadRequest, "size required")
		}
		if s.Stock < 0 {
			return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
		}
		if seen[s.Size] {
			return NewHTTPError(http.StatusBadRequest, "duplicate size")
		}
		seen[s.Size] = true
	}
	return nil
}

func (u *ItemUsecase) AdminCreateItem(ctx context.Context, adminUserID int64, in AdminItemInput) (model.Item, error) {
	if adminUserID <= 0 {
		return model.Item{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateItemInput(in); err != nil {
		return model.Item{}, err
	}

	now := time.Now()
	item := model.Item{
		Name:       strings.TrimSpace(in.Name),
		Category:   strings.TrimSpace(in.Category),
		Type:       strings.TrimSpace(in.Type),
		Image:      strings.TrimSpace(in.Image),
		Color:      strings.TrimSpace(in.Color),
		Price:      in.Price,
		SizeStocks: toSizeStocks(in.SizeStocks),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := u.itemRepo.Create(ctx, item)
	if err != nil {
		return model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.writeAudit(ctx, adminUserID, model.AuditActionCreateItem, created.ID, "", itemJSON(created))

	return created, nil
}

// AdminUpdateItem はサイズ別在庫リストごと置き換える。
// 在庫が変わったサイズは調整履歴に差分を残す。
func (u *ItemUsecase) AdminUpdateItem(ctx context.Context, adminUserID int64, itemID int64, in AdminItemInput) (model.Item, error) {
	if adminUserID <= 0 {
		return model.Item{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return model.Item{}, NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	if err := validateItemInput(in); err != nil {
		return model.Item{}, err
	}

	before, err := u.itemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return model.Item{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	item := model.Item{
		ID:         itemID,
		Name:       strings.TrimSpace(in.Name),
		Category:   strings.TrimSpace(in.Category),
		Type:       strings.TrimSpace(in.Type),
		Image:      strings.TrimSpace(in.Image),
		Color:      strings.TrimSpace(in.Color),
		Price:      in.Price,
		SizeStocks: toSizeStocks(in.SizeStocks),
		IsActive:   before.IsActive,
		UpdatedAt:  time.Now(),
	}

	if err := u.itemRepo.Update(ctx, item); err != nil {
		if err == repo.ErrNotFound {
			return model.Item{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//在庫が変わったサイズの差分を履歴に残す
	u.recordStockDeltas(ctx, adminUserID, before, item)

	u.writeAudit(ctx, adminUserID, model.AuditActionUpdateItem, itemID, itemJSON(before), itemJSON(item))

	updated, err := u.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

// AdminDeleteItem は販売終了（ソフトデリート）。
// レコードは注文履歴のために残し、全ユーザーのカート明細とお気に入りからは外す。
func (u *ItemUsecase) AdminDeleteItem(ctx context.Context, adminUserID int64, itemID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	before, err := u.itemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.itemRepo.SoftDelete(ctx, itemID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//カートとお気に入りから外す（リコンサイルでも消えるが、即時で揃えておく）
	if err := u.cartRepo.DeleteLinesByItemID(ctx, itemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.userRepo.RemoveFavoriteFromAllUsers(ctx, itemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	after := before
	after.IsActive = false
	u.writeAudit(ctx, adminUserID, model.AuditActionDeleteItem, itemID, itemJSON(before), itemJSON(after))

	return nil
}

type StockCorrectionInput struct {
	Size   string
	Delta  int64
	Reason string
}

// AdminAdjustStock は在庫の手動補正（棚卸し・返品入庫など）。
// プラスは入庫、マイナスは出庫。マイナスは在庫が足りるときだけ通る。
func (u *ItemUsecase) AdminAdjustStock(ctx context.Context, adminUserID int64, itemID int64, in StockCorrectionInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	if strings.TrimSpace(in.Size) == "" {
		return NewHTTPError(http.StatusBadRequest, "size required")
	}
	if in.Delta == 0 {
		return NewHTTPError(http.StatusBadRequest, "delta must not be zero")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	var err error
	if in.Delta > 0 {
		err = u.inventoryRepo.IncrementStock(ctx, itemID, in.Size, in.Delta)
	} else {
		err = u.inventoryRepo.DecrementStockIfEnough(ctx, itemID, in.Size, -in.Delta)
	}
	switch {
	case err == repo.ErrNotFound:
		return NewHTTPError(http.StatusNotFound, "not found")
	case err == repo.ErrSizeNotFound:
		return NewHTTPError(http.StatusBadRequest, "size not found")
	case err == repo.ErrInsufficientStock:
		return NewHTTPError(http.StatusConflict, "not enough stock")
	case err != nil:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//履歴は補助情報なので、失敗しても補正自体は成立させる
	_ = u.inventoryRepo.CreateAdjustment(ctx, model.StockAdjustment{
		ItemID:      itemID,
		Size:        strings.TrimSpace(in.Size),
		AdminUserID: adminUserID,
		Delta:       in.Delta,
		Reason:      strings.TrimSpace(in.Reason),
		CreatedAt:   time.Now(),
	})

	return nil
}

// ListAuditLogs は管理者操作ログの一覧（新しい順、フィルタはrepoに委譲）。
func (u *ItemUsecase) ListAuditLogs(ctx context.Context, adminUserID int64, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	if adminUserID <= 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		return []model.AuditLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

func (u *ItemUsecase) recordStockDeltas(ctx context.Context, adminUserID int64, before model.Item, after model.Item) {
	beforeStock := map[string]int64{}
	for _, s := range before.SizeStocks {
		beforeStock[s.Size] = s.Stock
	}

	now := time.Now()
	for _, s := range after.SizeStocks {
		delta := s.Stock - beforeStock[s.Size]
		if delta == 0 {
			continue
		}
		//履歴は補助情報なので、失敗しても更新自体は成立させる
		_ = u.inventoryRepo.CreateAdjustment(ctx, model.StockAdjustment{
			ItemID:      after.ID,
			Size:        s.Size,
			AdminUserID: adminUserID,
			Delta:       delta,
			Reason:      "admin item update",
			CreatedAt:   now,
		})
	}
}

// 監査ログを作成（失敗しても操作は成立させる）
func (u *ItemUsecase) writeAudit(ctx context.Context, actorID int64, action model.AuditAction, itemID int64, beforeJSON string, afterJSON string) {
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceItem,
		ResourceID:   itemID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	})
}

func toSizeStocks(in []SizeStockInput) []model.SizeStock {
	out := make([]model.SizeStock, 0, len(in))
	for _, s := range in {
		out = append(out, model.SizeStock{
			Size:  strings.TrimSpace(s.Size),
			Stock: s.Stock,
		})
	}
	return out
}

func itemJSON(item model.Item) string {
	b, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(b)
}
