package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"
)

// fakeStore はテスト用のインメモリ実装。
// WithinTxはスナップショットを取って、エラー時に巻き戻す（DBのrollback相当）。
type fakeStore struct {
	mu     sync.Mutex
	nextID int64

	items        map[int64]model.Item
	carts        map[int64]model.Cart
	cartByUser   map[int64]int64
	lines        map[int64]model.CartLine
	orders       map[int64]model.Order
	orderNumbers map[string]bool
	orderLines   map[int64][]model.OrderLine
	users        map[int64]*model.User
	favorites    map[int64]map[int64]bool
	adjustments  []model.StockAdjustment

	//"itemID/size" → 減算時に返すエラー（レースの再現用）
	failDecrement map[string]error

	//Orders.Createの呼び出しごとに先頭から返すエラー（nilは成功）
	orderCreateErrs []error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:         map[int64]model.Item{},
		carts:         map[int64]model.Cart{},
		cartByUser:    map[int64]int64{},
		lines:         map[int64]model.CartLine{},
		orders:        map[int64]model.Order{},
		orderNumbers:  map[string]bool{},
		orderLines:    map[int64][]model.OrderLine{},
		users:         map[int64]*model.User{},
		favorites:     map[int64]map[int64]bool{},
		failDecrement: map[string]error{},
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

// テストのセットアップ用
func (s *fakeStore) addItem(name string, price string, active bool, sizes map[string]int64) model.Item {
	item := model.Item{
		ID:       s.id(),
		Name:     name,
		Category: "tops",
		Type:     "shirt",
		Image:    "img.png",
		Color:    "black",
		Price:    decimal.RequireFromString(price),
		IsActive: active,
	}
	sizeNames := make([]string, 0, len(sizes))
	for sz := range sizes {
		sizeNames = append(sizeNames, sz)
	}
	sort.Strings(sizeNames)
	for _, sz := range sizeNames {
		item.SizeStocks = append(item.SizeStocks, model.SizeStock{
			ID: s.id(), ItemID: item.ID, Size: sz, Stock: sizes[sz],
		})
		item.TotalStock += sizes[sz]
	}
	s.items[item.ID] = item
	return item
}

func (s *fakeStore) addCartLine(userID int64, itemID int64, size string, qty int64) model.CartLine {
	cartID, ok := s.cartByUser[userID]
	if !ok {
		cartID = s.id()
		s.carts[cartID] = model.Cart{ID: cartID, UserID: userID}
		s.cartByUser[userID] = cartID
	}
	line := model.CartLine{
		ID: s.id(), CartID: cartID, ItemID: itemID, Size: size, Quantity: qty,
	}
	s.lines[line.ID] = line
	return line
}

func (s *fakeStore) stockOf(itemID int64, size string) int64 {
	item := s.items[itemID]
	for _, st := range item.SizeStocks {
		if st.Size == size {
			return st.Stock
		}
	}
	return -1
}

func copyItem(item model.Item) model.Item {
	cp := item
	cp.SizeStocks = append([]model.SizeStock(nil), item.SizeStocks...)
	return cp
}

type storeSnapshot struct {
	nextID       int64
	items        map[int64]model.Item
	carts        map[int64]model.Cart
	cartByUser   map[int64]int64
	lines        map[int64]model.CartLine
	orders       map[int64]model.Order
	orderNumbers map[string]bool
	orderLines   map[int64][]model.OrderLine
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		nextID:       s.nextID,
		items:        map[int64]model.Item{},
		carts:        map[int64]model.Cart{},
		cartByUser:   map[int64]int64{},
		lines:        map[int64]model.CartLine{},
		orders:       map[int64]model.Order{},
		orderNumbers: map[string]bool{},
		orderLines:   map[int64][]model.OrderLine{},
	}
	for k, v := range s.items {
		snap.items[k] = copyItem(v)
	}
	for k, v := range s.carts {
		snap.carts[k] = v
	}
	for k, v := range s.cartByUser {
		snap.cartByUser[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.orderNumbers {
		snap.orderNumbers[k] = v
	}
	for k, v := range s.orderLines {
		snap.orderLines[k] = append([]model.OrderLine(nil), v...)
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.nextID = snap.nextID
	s.items = snap.items
	s.carts = snap.carts
	s.cartByUser = snap.cartByUser
	s.lines = snap.lines
	s.orders = snap.orders
	s.orderNumbers = snap.orderNumbers
	s.orderLines = snap.orderLines
}

// ---- ItemRepository ----

type fakeItems struct{ s *fakeStore }

func (f *fakeItems) FindByID(ctx context.Context, itemID int64) (model.Item, error) {
	item, ok := f.s.items[itemID]
	if !ok {
		return model.Item{}, repo.ErrNotFound
	}
	return copyItem(item), nil
}

func (f *fakeItems) ListByCategory(ctx context.Context, category string) ([]model.Item, error) {
	out := []model.Item{}
	for _, it := range f.s.items {
		if it.IsActive && it.Category == category {
			out = append(out, copyItem(it))
		}
	}
	return out, nil
}

func (f *fakeItems) Search(ctx context.Context, term string) ([]model.Item, error) {
	return []model.Item{}, nil
}

func (f *fakeItems) Sample(ctx context.Context, n int) ([]model.Item, error) {
	out := []model.Item{}
	for _, it := range f.s.items {
		if !it.IsActive {
			continue
		}
		if len(out) == n {
			break
		}
		out = append(out, copyItem(it))
	}
	return out, nil
}

func (f *fakeItems) Create(ctx context.Context, item model.Item) (model.Item, error) {
	item.ID = f.s.id()
	f.s.items[item.ID] = copyItem(item)
	return item, nil
}

func (f *fakeItems) Update(ctx context.Context, item model.Item) error {
	if _, ok := f.s.items[item.ID]; !ok {
		return repo.ErrNotFound
	}
	f.s.items[item.ID] = copyItem(item)
	return nil
}

func (f *fakeItems) SoftDelete(ctx context.Context, itemID int64) error {
	item, ok := f.s.items[itemID]
	if !ok {
		return repo.ErrNotFound
	}
	item.IsActive = false
	f.s.items[itemID] = item
	return nil
}

// ---- CartRepository ----

type fakeCarts struct{ s *fakeStore }

func (f *fakeCarts) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	if cartID, ok := f.s.cartByUser[userID]; ok {
		return f.s.carts[cartID], nil
	}
	cart := model.Cart{ID: f.s.id(), UserID: userID}
	f.s.carts[cart.ID] = cart
	f.s.cartByUser[userID] = cart.ID
	return cart, nil
}

func (f *fakeCarts) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	cartID, ok := f.s.cartByUser[userID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return f.s.carts[cartID], nil
}

func (f *fakeCarts) ListLines(ctx context.Context, cartID int64) ([]model.CartLine, error) {
	out := []model.CartLine{}
	for _, l := range f.s.lines {
		if l.CartID == cartID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCarts) UpsertLine(ctx context.Context, cartID int64, itemID int64, size string, addQty int64) error {
	for id, l := range f.s.lines {
		if l.CartID == cartID && l.ItemID == itemID && l.Size == size {
			l.Quantity += addQty
			f.s.lines[id] = l
			return nil
		}
	}
	line := model.CartLine{ID: f.s.id(), CartID: cartID, ItemID: itemID, Size: size, Quantity: addQty}
	f.s.lines[line.ID] = line
	return nil
}

func (f *fakeCarts) UpdateLine(ctx context.Context, lineID int64, qty int64, size string) error {
	l, ok := f.s.lines[lineID]
	if !ok {
		return repo.ErrNotFound
	}
	l.Quantity = qty
	l.Size = size
	f.s.lines[lineID] = l
	return nil
}

func (f *fakeCarts) UpdateLineQuantity(ctx context.Context, lineID int64, qty int64) error {
	l, ok := f.s.lines[lineID]
	if !ok {
		return repo.ErrNotFound
	}
	l.Quantity = qty
	f.s.lines[lineID] = l
	return nil
}

func (f *fakeCarts) DeleteLine(ctx context.Context, lineID int64) error {
	delete(f.s.lines, lineID)
	return nil
}

func (f *fakeCarts) FindLineByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	l, ok := f.s.lines[lineID]
	if !ok {
		return model.CartLine{}, repo.ErrNotFound
	}
	return l, nil
}

func (f *fakeCarts) IsLineOwnedByUser(ctx context.Context, lineID int64, userID int64) (bool, error) {
	l, ok := f.s.lines[lineID]
	if !ok {
		return false, nil
	}
	cart, ok := f.s.carts[l.CartID]
	if !ok {
		return false, nil
	}
	return cart.UserID == userID, nil
}

func (f *fakeCarts) Clear(ctx context.Context, cartID int64) error {
	if _, ok := f.s.carts[cartID]; !ok {
		return repo.ErrNotFound
	}
	for id, l := range f.s.lines {
		if l.CartID == cartID {
			delete(f.s.lines, id)
		}
	}
	return nil
}

func (f *fakeCarts) DeleteLinesByItemID(ctx context.Context, itemID int64) error {
	for id, l := range f.s.lines {
		if l.ItemID == itemID {
			delete(f.s.lines, id)
		}
	}
	return nil
}

// ---- InventoryRepository ----

type fakeInventory struct{ s *fakeStore }

func decrementKey(itemID int64, size string) string {
	return fmt.Sprintf("%d/%s", itemID, size)
}

func (f *fakeInventory) DecrementStockIfEnough(ctx context.Context, itemID int64, size string, qty int64) error {
	if err, ok := f.s.failDecrement[decrementKey(itemID, size)]; ok {
		return err
	}

	item, ok := f.s.items[itemID]
	if !ok {
		return repo.ErrNotFound
	}
	for i, st := range item.SizeStocks {
		if st.Size != size {
			continue
		}
		if st.Stock < qty {
			return repo.ErrInsufficientStock
		}
		item.SizeStocks[i].Stock -= qty
		item.TotalStock -= qty
		f.s.items[itemID] = item
		return nil
	}
	return repo.ErrSizeNotFound
}

func (f *fakeInventory) IncrementStock(ctx context.Context, itemID int64, size string, qty int64) error {
	item, ok := f.s.items[itemID]
	if !ok {
		return repo.ErrNotFound
	}
	for i, st := range item.SizeStocks {
		if st.Size == size {
			item.SizeStocks[i].Stock += qty
			item.TotalStock += qty
			f.s.items[itemID] = item
			return nil
		}
	}
	return repo.ErrSizeNotFound
}

func (f *fakeInventory) CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error {
	f.s.adjustments = append(f.s.adjustments, adj)
	return nil
}

// ---- OrderRepository ----

type fakeOrders struct{ s *fakeStore }

func (f *fakeOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	if len(f.s.orderCreateErrs) > 0 {
		err := f.s.orderCreateErrs[0]
		f.s.orderCreateErrs = f.s.orderCreateErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	if f.s.orderNumbers[order.OrderNumber] {
		return 0, repo.ErrDuplicateOrderNumber
	}
	order.ID = f.s.id()
	f.s.orders[order.ID] = order
	f.s.orderNumbers[order.OrderNumber] = true
	return order.ID, nil
}

func (f *fakeOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := f.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range f.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	//新しい順
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ---- OrderLineRepository ----

type fakeOrderLines struct{ s *fakeStore }

func (f *fakeOrderLines) CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) error {
	for i := range lines {
		lines[i].ID = f.s.id()
		lines[i].OrderID = orderID
	}
	f.s.orderLines[orderID] = append(f.s.orderLines[orderID], lines...)
	return nil
}

func (f *fakeOrderLines) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error) {
	return append([]model.OrderLine(nil), f.s.orderLines[orderID]...), nil
}

// ---- UserRepository ----

type fakeUsers struct{ s *fakeStore }

func (f *fakeUsers) Create(ctx context.Context, user *model.User) error {
	user.ID = f.s.id()
	f.s.users[user.ID] = user
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	return f.s.users[userID], nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) AddFavorite(ctx context.Context, userID int64, itemID int64) error {
	if f.s.favorites[userID] == nil {
		f.s.favorites[userID] = map[int64]bool{}
	}
	f.s.favorites[userID][itemID] = true
	return nil
}

func (f *fakeUsers) RemoveFavorite(ctx context.Context, userID int64, itemID int64) error {
	delete(f.s.favorites[userID], itemID)
	return nil
}

func (f *fakeUsers) ListFavorites(ctx context.Context, userID int64) ([]model.Item, error) {
	out := []model.Item{}
	for itemID := range f.s.favorites[userID] {
		if item, ok := f.s.items[itemID]; ok && item.IsActive {
			out = append(out, copyItem(item))
		}
	}
	return out, nil
}

func (f *fakeUsers) RemoveFavoriteFromAllUsers(ctx context.Context, itemID int64) error {
	for _, favs := range f.s.favorites {
		delete(favs, itemID)
	}
	return nil
}

// ---- AuditLogRepository ----

type fakeAuditLogs struct {
	logs []model.AuditLog
}

func (f *fakeAuditLogs) Create(ctx context.Context, log model.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAuditLogs) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	return append([]model.AuditLog(nil), f.logs...), nil
}

// ---- TransactionManager ----

type fakeTxRepos struct{ s *fakeStore }

func (r *fakeTxRepos) Items() repo.ItemRepository           { return &fakeItems{s: r.s} }
func (r *fakeTxRepos) Inventory() repo.InventoryRepository  { return &fakeInventory{s: r.s} }
func (r *fakeTxRepos) Carts() repo.CartRepository           { return &fakeCarts{s: r.s} }
func (r *fakeTxRepos) Orders() repo.OrderRepository         { return &fakeOrders{s: r.s} }
func (r *fakeTxRepos) OrderLines() repo.OrderLineRepository { return &fakeOrderLines{s: r.s} }
func (r *fakeTxRepos) Users() repo.UserRepository           { return &fakeUsers{s: r.s} }

type fakeTxManager struct{ s *fakeStore }

// エラー時はスナップショットに巻き戻す（DBトランザクション相当）
func (tm *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tm.s.mu.Lock()
	defer tm.s.mu.Unlock()

	snap := tm.s.snapshot()
	if err := fn(&fakeTxRepos{s: tm.s}); err != nil {
		tm.s.restore(snap)
		return err
	}
	return nil
}

// 決め打ちの注文番号を順番に返すジェネレータ
type seqNumGen struct {
	numbers []string
	calls   int
}

func (g *seqNumGen) Generate(now time.Time) string {
	n := g.numbers[g.calls%len(g.numbers)]
	g.calls++
	return n
}
