// Package analytics aggregates stock and sales data for the kitchen and vendor dashboards.
package analytics

import (
	"context"
	"sort"

	"bekal-bangsa/internal/pkg/common"
)

// Store reads the rows the dashboards aggregate.
type Store interface {
	ListSupplies(ctx context.Context, ownerID int64) ([]common.StockItem, error)
	ListOrdersBySeller(ctx context.Context, sellerID int64) ([]common.Order, error)
}

// Thresholds in days remaining.
const (
	kitchenWarningDays  = 3
	qualityCriticalDays = 2
	qualityWarningDays  = 5
	vendorExpiredDays   = 0
	vendorWarningDays   = 5
	topSalesLimit       = 5
)

// NameValue is one slice of a pie or bar chart.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Fill  string `json:"fill,omitempty"`
}

// KitchenMetrics are the headline numbers of the kitchen dashboard.
type KitchenMetrics struct {
	TotalItems   int `json:"total_items"`
	TotalQty     int `json:"total_qty"`
	WarningCount int `json:"warning_count"`
}

// QualityRow is the quantity of one item split by freshness bucket.
type QualityRow struct {
	Name     string `json:"name"`
	Fresh    int    `json:"fresh"`
	Warning  int    `json:"warning"`
	Critical int    `json:"critical"`
	Total    int    `json:"total"`
}

// KitchenDashboard covers all market stock.
type KitchenDashboard struct {
	Metrics     KitchenMetrics `json:"metrics"`
	Composition []NameValue    `json:"composition"`
	Quality     []QualityRow   `json:"quality"`
}

// InventoryHealth counts a vendor's rows per freshness bucket.
type InventoryHealth struct {
	Fresh   int `json:"fresh"`
	Warning int `json:"warning"`
	Expired int `json:"expired"`
}

// VendorDashboard covers one vendor's stock and sales.
type VendorDashboard struct {
	InventoryHealth InventoryHealth `json:"inventory_health"`
	ExpiryRisk      []NameValue     `json:"expiry_risk"`
	TopSales        []NameValue     `json:"top_sales"`
}

// Service computes dashboards.
type Service struct {
	store Store
}

// NewService creates an analytics service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Kitchen aggregates all supplies.
func (s *Service) Kitchen(ctx context.Context) (*KitchenDashboard, error) {
	items, err := s.store.ListSupplies(ctx, 0)
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return KitchenFromItems(items), nil
}

// KitchenFromItems builds the kitchen dashboard from supply rows.
func KitchenFromItems(items []common.StockItem) *KitchenDashboard {
	d := &KitchenDashboard{
		Composition: []NameValue{},
		Quality:     []QualityRow{},
	}

	composition := make(map[string]int)
	quality := make(map[string]*QualityRow)
	var order []string

	for _, it := range items {
		d.Metrics.TotalItems++
		d.Metrics.TotalQty += it.Quantity
		if it.ExpiryDays <= kitchenWarningDays {
			d.Metrics.WarningCount++
		}

		row, ok := quality[it.ItemName]
		if !ok {
			row = &QualityRow{Name: it.ItemName}
			quality[it.ItemName] = row
			order = append(order, it.ItemName)
		}
		composition[it.ItemName] += it.Quantity

		switch {
		case it.ExpiryDays <= qualityCriticalDays:
			row.Critical += it.Quantity
		case it.ExpiryDays <= qualityWarningDays:
			row.Warning += it.Quantity
		default:
			row.Fresh += it.Quantity
		}
		row.Total += it.Quantity
	}

	for _, name := range order {
		d.Composition = append(d.Composition, NameValue{Name: name, Value: composition[name]})
		d.Quality = append(d.Quality, *quality[name])
	}
	sort.SliceStable(d.Composition, func(i, j int) bool { return d.Composition[i].Value > d.Composition[j].Value })
	sort.SliceStable(d.Quality, func(i, j int) bool { return d.Quality[i].Total > d.Quality[j].Total })
	return d
}

// Vendor aggregates one vendor's supplies and orders.
func (s *Service) Vendor(ctx context.Context, vendorID int64) (*VendorDashboard, error) {
	if vendorID <= 0 {
		return nil, common.NewValidationError("vendor id must be positive")
	}
	items, err := s.store.ListSupplies(ctx, vendorID)
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	orders, err := s.store.ListOrdersBySeller(ctx, vendorID)
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return VendorFromRows(items, orders), nil
}

// VendorFromRows builds the vendor dashboard from supply and order rows.
func VendorFromRows(items []common.StockItem, orders []common.Order) *VendorDashboard {
	var h InventoryHealth
	for _, it := range items {
		switch {
		case it.ExpiryDays <= vendorExpiredDays:
			h.Expired++
		case it.ExpiryDays <= vendorWarningDays:
			h.Warning++
		default:
			h.Fresh++
		}
	}

	sales := make(map[string]int)
	var order []string
	for _, o := range orders {
		name := common.StringOr(o.ItemName, "Unknown")
		if _, ok := sales[name]; !ok {
			order = append(order, name)
		}
		sales[name] += o.QtyOrdered
	}
	top := make([]NameValue, 0, len(order))
	for _, name := range order {
		top = append(top, NameValue{Name: name, Value: sales[name]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Value > top[j].Value })
	if len(top) > topSalesLimit {
		top = top[:topSalesLimit]
	}

	return &VendorDashboard{
		InventoryHealth: h,
		ExpiryRisk: []NameValue{
			{Name: "Aman", Value: h.Fresh, Fill: "#10B981"},
			{Name: "Peringatan", Value: h.Warning, Fill: "#F59E0B"},
			{Name: "Kadaluwarsa", Value: h.Expired, Fill: "#EF4444"},
		},
		TopSales: top,
	}
}
