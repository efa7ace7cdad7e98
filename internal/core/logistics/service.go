// Package logistics ranks kitchens and suppliers by distance.
package logistics

import (
	"context"
	"sort"
	"strings"

	"bekal-bangsa/internal/pkg/common"
	"bekal-bangsa/internal/pkg/geo"
)

// Kitchen is an SPPG site in the fixed kitchen network.
type Kitchen struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Long       float64 `json:"long"`
	Phone      string  `json:"phone"`
	DistanceKm float64 `json:"distance_km"`
}

// Kitchens is the SPPG network served by the platform.
var Kitchens = []Kitchen{
	{ID: 1, Name: "SPPG Jakarta Pusat (Monas)", Address: "Jl. Medan Merdeka Barat, Gambir", Lat: -6.175392, Long: 106.827153, Phone: "0812-3456-7890"},
	{ID: 2, Name: "SPPG Jakarta Selatan (Blok M)", Address: "Jl. Melawai Raya, Kebayoran Baru", Lat: -6.244223, Long: 106.801782, Phone: "0812-9876-5432"},
	{ID: 3, Name: "SPPG Jakarta Barat (Grogol)", Address: "Jl. Kyai Tapa, Grogol Petamburan", Lat: -6.167570, Long: 106.790960, Phone: "0812-1122-3344"},
	{ID: 4, Name: "SPPG Jakarta Timur (Jatinegara)", Address: "Jl. Matraman Raya, Jatinegara", Lat: -6.215116, Long: 106.870434, Phone: "0812-5566-7788"},
	{ID: 5, Name: "SPPG Jakarta Utara (Kelapa Gading)", Address: "Jl. Boulevard Raya, Kelapa Gading", Lat: -6.162331, Long: 106.900220, Phone: "0812-9988-7766"},
}

// SupplierStore searches supplies by item name.
type SupplierStore interface {
	SearchSupplies(ctx context.Context, keyword string) ([]common.StockItem, error)
}

// SupplierResult is a supply row with its distance from the searcher. DistanceKm is nil when the
// row has no coordinates.
type SupplierResult struct {
	common.StockItem
	DistanceKm *float64 `json:"distance_km"`
}

// Service implements the location queries.
type Service struct {
	store  SupplierStore
	origin geo.Point
}

// NewService creates a logistics service. origin is used when a search gives no coordinates.
func NewService(store SupplierStore, origin geo.Point) *Service {
	return &Service{store: store, origin: origin}
}

// Origin returns the default search origin.
func (s *Service) Origin() geo.Point {
	return s.origin
}

// NearestKitchens returns the kitchen network sorted by distance from p, rounded to 2 decimals.
func NearestKitchens(p geo.Point) []Kitchen {
	out := make([]Kitchen, len(Kitchens))
	copy(out, Kitchens)
	for i := range out {
		out[i].DistanceKm = geo.Round(p.DistanceTo(geo.Point{Lat: out[i].Lat, Lon: out[i].Long}), 2)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}

// SearchSuppliers finds supplies whose name contains keyword (case-insensitive) and ranks them
// by distance from origin, rounded to 1 decimal. Rows without coordinates follow the ranked rows.
func (s *Service) SearchSuppliers(ctx context.Context, keyword string, origin *geo.Point) ([]SupplierResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, common.NewValidationError("search keyword is required")
	}
	from := s.origin
	if origin != nil {
		from = *origin
	}

	items, err := s.store.SearchSupplies(ctx, keyword)
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}

	out := make([]SupplierResult, 0, len(items))
	for _, it := range items {
		r := SupplierResult{StockItem: it}
		if it.Latitude != nil && it.Longitude != nil {
			d := geo.Round(from.DistanceTo(geo.Point{Lat: *it.Latitude, Lon: *it.Longitude}), 1)
			r.DistanceKm = &d
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DistanceKm, out[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out, nil
}
