package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"
	"wardrobe/internal/usecase"
)

func newItemUsecase(s *fakeStore, audit *fakeAuditLogs) *usecase.ItemUsecase {
	return usecase.NewItemUsecase(
		&fakeItems{s: s},
		&fakeInventory{s: s},
		&fakeCarts{s: s},
		&fakeUsers{s: s},
		audit,
	)
}

func validAdminItemInput() usecase.AdminItemInput {
	return usecase.AdminItemInput{
		Name:     "Denim Jacket",
		Category: "outer",
		Type:     "jacket",
		Image:    "denim.png",
		Color:    "indigo",
		Price:    decimal.NewFromInt(80),
		SizeStocks: []usecase.SizeStockInput{
			{Size: "M", Stock: 4},
			{Size: "L", Stock: 2},
		},
	}
}

func TestGetItemDetail_InactiveIsNotFound(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", false, map[string]int64{"M": 5})
	u := newItemUsecase(s, &fakeAuditLogs{})

	_, err := u.GetItemDetail(context.Background(), item.ID)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestSearch_TermTooLong(t *testing.T) {
	s := newFakeStore()
	u := newItemUsecase(s, &fakeAuditLogs{})

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err := u.Search(context.Background(), string(long))

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

// 0以下はデフォルトの5件
func TestRandom_DefaultsCount(t *testing.T) {
	s := newFakeStore()
	for i := 0; i < 8; i++ {
		s.addItem("Tee", "20", true, map[string]int64{"M": 5})
	}
	u := newItemUsecase(s, &fakeAuditLogs{})

	items, err := u.Random(context.Background(), 0)

	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestRandom_CountTooLarge(t *testing.T) {
	s := newFakeStore()
	u := newItemUsecase(s, &fakeAuditLogs{})

	_, err := u.Random(context.Background(), 51)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestAdminCreateItem_Validation(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*usecase.AdminItemInput)
		expected string
	}{
		{"empty name", func(in *usecase.AdminItemInput) { in.Name = " " }, "name required"},
		{"negative price", func(in *usecase.AdminItemInput) { in.Price = decimal.NewFromInt(-1) }, "price must be >= 0"},
		{"no sizes", func(in *usecase.AdminItemInput) { in.SizeStocks = nil }, "size stock required"},
		{"negative stock", func(in *usecase.AdminItemInput) { in.SizeStocks[0].Stock = -1 }, "stock must be >= 0"},
		{"duplicate size", func(in *usecase.AdminItemInput) { in.SizeStocks[1].Size = "M" }, "duplicate size"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newFakeStore()
			u := newItemUsecase(s, &fakeAuditLogs{})

			in := validAdminItemInput()
			tc.mutate(&in)

			_, err := u.AdminCreateItem(context.Background(), 1, in)

			he, ok := usecase.AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			assert.Equal(t, tc.expected, he.Message)
		})
	}
}

func TestAdminCreateItem_WritesAuditLog(t *testing.T) {
	s := newFakeStore()
	audit := &fakeAuditLogs{}
	u := newItemUsecase(s, audit)

	created, err := u.AdminCreateItem(context.Background(), 7, validAdminItemInput())

	require.NoError(t, err)
	assert.True(t, created.IsActive)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, model.AuditActionCreateItem, audit.logs[0].Action)
	assert.Equal(t, int64(7), audit.logs[0].ActorUserID)
	assert.Equal(t, created.ID, audit.logs[0].ResourceID)
}

// 更新は公開状態を保ち、在庫が変わったサイズは調整履歴に残す
func TestAdminUpdateItem_RecordsStockDeltas(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", true, map[string]int64{"M": 4, "L": 2})
	audit := &fakeAuditLogs{}
	u := newItemUsecase(s, audit)

	in := validAdminItemInput()
	in.SizeStocks = []usecase.SizeStockInput{
		{Size: "M", Stock: 10}, // +6
		{Size: "L", Stock: 2},  // 変化なし
	}

	updated, err := u.AdminUpdateItem(context.Background(), 7, item.ID, in)

	require.NoError(t, err)
	assert.True(t, updated.IsActive)

	require.Len(t, s.adjustments, 1)
	assert.Equal(t, "M", s.adjustments[0].Size)
	assert.Equal(t, int64(6), s.adjustments[0].Delta)
	assert.Equal(t, int64(7), s.adjustments[0].AdminUserID)
}

func TestAdminUpdateItem_NotFound(t *testing.T) {
	s := newFakeStore()
	u := newItemUsecase(s, &fakeAuditLogs{})

	_, err := u.AdminUpdateItem(context.Background(), 7, 999, validAdminItemInput())

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

// 手動補正：プラスは入庫で履歴に理由つきで残る
func TestAdminAdjustStock_IncrementRecordsAdjustment(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", true, map[string]int64{"M": 4})
	u := newItemUsecase(s, &fakeAuditLogs{})

	err := u.AdminAdjustStock(context.Background(), 7, item.ID, usecase.StockCorrectionInput{
		Size: "M", Delta: 6, Reason: "stocktake",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10), s.stockOf(item.ID, "M"))

	require.Len(t, s.adjustments, 1)
	assert.Equal(t, int64(6), s.adjustments[0].Delta)
	assert.Equal(t, "stocktake", s.adjustments[0].Reason)
	assert.Equal(t, int64(7), s.adjustments[0].AdminUserID)
}

// マイナス補正は在庫が足りるときだけ
func TestAdminAdjustStock_DecrementCannotGoNegative(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", true, map[string]int64{"M": 2})
	u := newItemUsecase(s, &fakeAuditLogs{})

	err := u.AdminAdjustStock(context.Background(), 7, item.ID, usecase.StockCorrectionInput{
		Size: "M", Delta: -5, Reason: "damage writeoff",
	})

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)

	//在庫も履歴も動かない
	assert.Equal(t, int64(2), s.stockOf(item.ID, "M"))
	assert.Empty(t, s.adjustments)
}

func TestAdminAdjustStock_Validation(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", true, map[string]int64{"M": 2})
	u := newItemUsecase(s, &fakeAuditLogs{})
	ctx := context.Background()

	cases := []struct {
		name     string
		in       usecase.StockCorrectionInput
		expected string
	}{
		{"zero delta", usecase.StockCorrectionInput{Size: "M", Delta: 0, Reason: "r"}, "delta must not be zero"},
		{"empty size", usecase.StockCorrectionInput{Size: " ", Delta: 1, Reason: "r"}, "size required"},
		{"empty reason", usecase.StockCorrectionInput{Size: "M", Delta: 1, Reason: " "}, "reason required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := u.AdminAdjustStock(ctx, 7, item.ID, tc.in)

			he, ok := usecase.AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			assert.Equal(t, tc.expected, he.Message)
		})
	}
}

// 管理者操作の履歴が一覧で引ける
func TestListAuditLogs_ReturnsRecordedOperations(t *testing.T) {
	s := newFakeStore()
	audit := &fakeAuditLogs{}
	u := newItemUsecase(s, audit)
	ctx := context.Background()

	created, err := u.AdminCreateItem(ctx, 7, validAdminItemInput())
	require.NoError(t, err)
	require.NoError(t, u.AdminDeleteItem(ctx, 7, created.ID))

	logs, err := u.ListAuditLogs(ctx, 7, repo.AuditLogFilter{})

	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.AuditActionCreateItem, logs[0].Action)
	assert.Equal(t, model.AuditActionDeleteItem, logs[1].Action)
}

// 販売終了はソフトデリート。カート明細とお気に入りからも外れる。
func TestAdminDeleteItem_CascadesToCartsAndFavorites(t *testing.T) {
	s := newFakeStore()
	item := s.addItem("Tee", "20", true, map[string]int64{"M": 5})
	line := s.addCartLine(1, item.ID, "M", 2)
	s.favorites[1] = map[int64]bool{item.ID: true}
	audit := &fakeAuditLogs{}
	u := newItemUsecase(s, audit)

	err := u.AdminDeleteItem(context.Background(), 7, item.ID)

	require.NoError(t, err)

	//レコードは残るが非公開になる
	assert.False(t, s.items[item.ID].IsActive)

	_, exists := s.lines[line.ID]
	assert.False(t, exists)
	assert.False(t, s.favorites[1][item.ID])

	require.Len(t, audit.logs, 1)
	assert.Equal(t, model.AuditActionDeleteItem, audit.logs[0].Action)
}
