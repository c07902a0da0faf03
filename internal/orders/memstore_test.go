package orders

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/safar/marketplace-orders/internal/models"
	"github.com/shopspring/decimal"
)

// memStore is a transactional in-memory TxRunner. The lock is held per call,
// not per transaction, so concurrent transactions interleave between calls.
// Decrements are applied in place and undone on rollback; orders become
// visible on commit.
type memStore struct {
	mu       sync.Mutex
	shops    map[string]bool
	users    map[string]bool
	products map[string]models.Product
	orders   map[string]*models.Order

	catalogReads int
	insertErr    error
	// beforeDecrement runs inside the transaction, outside the lock, right
	// before each conditional decrement. It may run other transactions.
	beforeDecrement func(productID string)
}

func newMemStore() *memStore {
	return &memStore{
		shops:    map[string]bool{},
		users:    map[string]bool{},
		products: map[string]models.Product{},
		orders:   map[string]*models.Order{},
	}
}

func (m *memStore) addShop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shops[id] = true
}

func (m *memStore) addUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = true
}

func (m *memStore) addProduct(id, shopID string, price int64, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = models.Product{
		ID:       id,
		ShopID:   shopID,
		Name:     id,
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		IsActive: true,
		Version:  1,
	}
}

func (m *memStore) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.IsActive = active
	m.products[id] = p
}

func (m *memStore) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalogReads
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: m}
	err := fn(ctx, tx)
	if err == nil {
		err = ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		for i := len(tx.decrements) - 1; i >= 0; i-- {
			d := tx.decrements[i]
			p := m.products[d.productID]
			p.Stock += d.quantity
			p.Version--
			m.products[d.productID] = p
		}
		return err
	}

	for _, o := range tx.inserted {
		m.orders[o.ID] = o
	}
	return nil
}

type memDecrement struct {
	productID string
	quantity  int
}

type memTx struct {
	store      *memStore
	decrements []memDecrement
	inserted   []*models.Order
}

func (t *memTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.shops[shopID], nil
}

func (t *memTx) UserExists(ctx context.Context, userID string) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.users[userID], nil
}

func (t *memTx) GetActiveProductsInShop(ctx context.Context, shopID string, productIDs []string) ([]models.Product, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	t.store.catalogReads++
	var out []models.Product
	for _, id := range productIDs {
		p, ok := t.store.products[id]
		if ok && p.ShopID == shopID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) DecrementStockIfAvailable(ctx context.Context, productID string, quantity int) (int64, error) {
	if t.store.beforeDecrement != nil {
		t.store.beforeDecrement(productID)
	}
	// Widen the window between the catalog read and the decrement.
	runtime.Gosched()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	p, ok := t.store.products[productID]
	if !ok || !p.IsActive || p.Stock < quantity {
		return 0, nil
	}
	p.Stock -= quantity
	p.Version++
	t.store.products[productID] = p
	t.decrements = append(t.decrements, memDecrement{productID: productID, quantity: quantity})
	return 1, nil
}

func (t *memTx) InsertOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderLineItem) (*models.Order, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.insertErr != nil {
		return nil, t.store.insertErr
	}
	if _, dup := t.store.orders[order.ID]; dup {
		return nil, errors.New("duplicate order id")
	}
	o := *order
	o.CreatedAt = time.Now().UTC()
	o.Items = append([]models.OrderLineItem(nil), items...)
	t.inserted = append(t.inserted, &o)
	return &o, nil
}
