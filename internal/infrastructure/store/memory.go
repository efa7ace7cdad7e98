package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bekal-bangsa/internal/pkg/common"
)

// Memory is an in-process store with the same behaviour as Postgres. It backs demo mode
// (no DATABASE_URL) and tests.
type Memory struct {
	mu       sync.RWMutex
	supplies map[int64]common.StockItem
	owners   map[int64]common.Owner
	orders   []common.Order
	meals    map[int64]common.MealProduction
	nextID   int64
	now      func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		supplies: make(map[int64]common.StockItem),
		owners:   make(map[int64]common.Owner),
		meals:    make(map[int64]common.MealProduction),
		now:      time.Now,
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) sortedSupplies(keep func(common.StockItem) bool) []common.StockItem {
	out := make([]common.StockItem, 0)
	for _, it := range m.supplies {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindExpiring returns supplies with expiry_days <= maxDays.
func (m *Memory) FindExpiring(_ context.Context, maxDays int) ([]common.StockItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedSupplies(func(it common.StockItem) bool { return it.ExpiryDays <= maxDays }), nil
}

// ListSupplies returns ownerID's supplies newest first, or all supplies when ownerID is 0.
func (m *Memory) ListSupplies(_ context.Context, ownerID int64) ([]common.StockItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.sortedSupplies(func(it common.StockItem) bool { return ownerID == 0 || it.OwnerID == ownerID })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// SearchSupplies returns supplies whose name contains keyword, case-insensitively.
func (m *Memory) SearchSupplies(_ context.Context, keyword string) ([]common.StockItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kw := strings.ToLower(keyword)
	return m.sortedSupplies(func(it common.StockItem) bool {
		return strings.Contains(strings.ToLower(it.ItemName), kw)
	}), nil
}

// InsertSupplies stores items and returns them with ids set.
func (m *Memory) InsertSupplies(_ context.Context, items []common.StockItem) ([]common.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]common.StockItem, len(items))
	for i, it := range items {
		it.ID = m.id()
		if it.CreatedAt == nil {
			now := m.now()
			it.CreatedAt = &now
		}
		m.supplies[it.ID] = it
		out[i] = it
	}
	return out, nil
}

// DeleteSupplies removes the given rows. Unknown ids are ignored.
func (m *Memory) DeleteSupplies(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.supplies, id)
	}
	return nil
}

// FindOwner returns the vendor, or nil when it does not exist.
func (m *Memory) FindOwner(_ context.Context, id int64) (*common.Owner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.owners[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// CreateOwner stores a vendor and sets its id.
func (m *Memory) CreateOwner(_ context.Context, o *common.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	m.owners[o.ID] = *o
	return nil
}

// AddOrder stores an order and sets its id.
func (m *Memory) AddOrder(_ context.Context, o *common.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	m.orders = append(m.orders, *o)
	return nil
}

// ListOrdersBySeller returns the seller's orders with the ordered item's name.
func (m *Memory) ListOrdersBySeller(_ context.Context, sellerID int64) ([]common.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []common.Order
	for _, o := range m.orders {
		if o.SellerID != sellerID {
			continue
		}
		if s, ok := m.supplies[o.SupplyID]; ok && o.ItemName == "" {
			o.ItemName = s.ItemName
		}
		out = append(out, o)
	}
	return out, nil
}

// InsertMeal logs a production batch and sets its id.
func (m *Memory) InsertMeal(_ context.Context, meal *common.MealProduction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal.ID = m.id()
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = m.now()
	}
	m.meals[meal.ID] = *meal
	return nil
}

// UpdateMealStatus sets a batch's status. It returns common.ErrNotFound for unknown ids.
func (m *Memory) UpdateMealStatus(_ context.Context, id int64, status string) (*common.MealProduction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[id]
	if !ok {
		return nil, common.Wrap(common.ErrNotFound, fmt.Errorf("meal %d", id))
	}
	meal.Status = status
	m.meals[id] = meal
	return &meal, nil
}

// SeedDemo fills an empty store with a few vendors and supplies around Jakarta.
func (m *Memory) SeedDemo(ctx context.Context) error {
	lat := func(v float64) *float64 { return &v }

	sari := &common.Owner{FullName: "Bu Sari", PhoneNumber: "0811-1111-2222", Latitude: lat(-6.244223), Longitude: lat(106.801782)}
	budi := &common.Owner{FullName: "Pak Budi", PhoneNumber: "0812-3333-4444"}
	for _, o := range []*common.Owner{sari, budi} {
		if err := m.CreateOwner(ctx, o); err != nil {
			return err
		}
	}

	now := m.now()
	items := []common.StockItem{
		{OwnerID: sari.ID, OwnerName: sari.FullName, ItemName: "Bayam", Quantity: 15, Unit: "ikat", Freshness: "Segar", ExpiryDays: 2, Latitude: sari.Latitude, Longitude: sari.Longitude},
		{OwnerID: sari.ID, OwnerName: sari.FullName, ItemName: "Tahu", Quantity: 40, Unit: "pcs", Freshness: "Segar", ExpiryDays: 3, Latitude: sari.Latitude, Longitude: sari.Longitude},
		{OwnerID: budi.ID, OwnerName: budi.FullName, ItemName: "Wortel", Quantity: 10, Unit: "kg", Freshness: "Sangat Segar", ExpiryDays: 6},
		{OwnerID: budi.ID, OwnerName: budi.FullName, ItemName: "Beras", Quantity: 100, Unit: "kg", Freshness: "Baik", ExpiryDays: 180},
	}
	for i := range items {
		items[i].ExpiryDate = now.AddDate(0, 0, items[i].ExpiryDays).Format("2006-01-02")
	}
	saved, err := m.InsertSupplies(ctx, items)
	if err != nil {
		return err
	}

	return m.AddOrder(ctx, &common.Order{SupplyID: saved[1].ID, SellerID: sari.ID, QtyOrdered: 12, Status: "completed"})
}
