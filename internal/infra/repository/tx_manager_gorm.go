package repository

import (
	"context"

	repo "wardrobe/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	items      repo.ItemRepository
	inventory  repo.InventoryRepository
	carts      repo.CartRepository
	orders     repo.OrderRepository
	orderLines repo.OrderLineRepository
	users      repo.UserRepository
}

func (r *txReposGorm) Items() repo.ItemRepository           { return r.items }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposGorm) Carts() repo.CartRepository           { return r.carts }
func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderLines() repo.OrderLineRepository { return r.orderLines }
func (r *txReposGorm) Users() repo.UserRepository           { return r.users }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			items:      NewItemGormRepository(tx),
			inventory:  NewInventoryGormRepository(tx),
			carts:      NewCartGormRepository(tx),
			orders:     NewOrderGormRepository(tx),
			orderLines: NewOrderLineGormRepository(tx),
			users:      NewUserGormRepository(tx),
		}
		return fn(r)
	})
}
