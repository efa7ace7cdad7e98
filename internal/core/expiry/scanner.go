// Package expiry finds near-expiry stock and composes vendor warnings and a kitchen rescue alert.
package expiry

import (
	"context"
	"encoding/json"
	"time"

	"bekal-bangsa/internal/core/rescue"
	"bekal-bangsa/internal/pkg/common"
	"bekal-bangsa/internal/pkg/geo"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scan statuses.
const (
	StatusNoRisk  = "no_risk"
	StatusSuccess = "success"
)

// StockFinder queries stock whose expiry_days is at or below maxDays.
type StockFinder interface {
	FindExpiring(ctx context.Context, maxDays int) ([]common.StockItem, error)
}

// OwnerFinder resolves a vendor by id. It returns nil, nil when the vendor does not exist.
type OwnerFinder interface {
	FindOwner(ctx context.Context, id int64) (*common.Owner, error)
}

// RecipeGenerator returns raw model text for a rescue recipe over the given names.
type RecipeGenerator interface {
	Generate(ctx context.Context, names []string) (string, error)
}

// Options configures a Scanner.
type Options struct {
	WarningDays       int
	Kitchen           geo.Point
	KitchenRecipient  string
	LookupConcurrency int
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Status        string                       `json:"status"`
	Data          []common.NotificationMessage `json:"data"`
	ExpiringItems []common.StockItem           `json:"expiring_items"`
	RescueMenu    *common.RescueRecipe         `json:"rescue_menu"`
}

// MarshalJSON renders a no-risk result as just its status and empty data.
func (r ScanResult) MarshalJSON() ([]byte, error) {
	data := r.Data
	if data == nil {
		data = []common.NotificationMessage{}
	}
	if r.Status == StatusNoRisk {
		return json.Marshal(struct {
			Status string                       `json:"status"`
			Data   []common.NotificationMessage `json:"data"`
		}{r.Status, data})
	}
	type plain ScanResult
	p := plain(r)
	p.Data = data
	return json.Marshal(p)
}

// Scanner runs expiry scans. It is safe for concurrent use; the only shared state is the cache.
type Scanner struct {
	stock     StockFinder
	owners    OwnerFinder
	generator RecipeGenerator
	cache     rescue.Cache
	opts      Options
}

// NewScanner creates a Scanner.
func NewScanner(stock StockFinder, owners OwnerFinder, generator RecipeGenerator, cache rescue.Cache, opts Options) *Scanner {
	if opts.LookupConcurrency <= 0 {
		opts.LookupConcurrency = 4
	}
	if opts.KitchenRecipient == "" {
		opts.KitchenRecipient = "Admin Kitchen SPPG (Broadcast)"
	}
	return &Scanner{
		stock:     stock,
		owners:    owners,
		generator: generator,
		cache:     cache,
		opts:      opts,
	}
}

// Scan runs one pass. Only a failure of the stock query is returned as an error.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	start := time.Now()

	items, err := s.stock.FindExpiring(ctx, s.opts.WarningDays)
	if err != nil {
		common.LogError("expiry stock query failed", zap.Error(err))
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}

	if len(items) == 0 {
		return &ScanResult{Status: StatusNoRisk, Data: []common.NotificationMessage{}}, nil
	}

	messages := s.vendorNotices(ctx, items)

	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.ItemName != "" {
			names = append(names, it.ItemName)
		}
	}
	names = rescue.DistinctSorted(names)

	var recipe *common.RescueRecipe
	if len(names) > 0 {
		recipe = s.rescueRecipe(ctx, names)
		if recipe != nil {
			messages = append(messages, common.NotificationMessage{
				Recipient:     s.opts.KitchenRecipient,
				RecipientRole: common.RoleKitchen,
				Severity:      common.SeverityUrgentWithRecipe,
				Body:          kitchenBody(names, recipe),
			})
		}
	}

	common.LogInfo("expiry scan finished",
		zap.Int("expiring_items", len(items)),
		zap.Int("messages", len(messages)),
		zap.Bool("rescue_menu", recipe != nil),
		zap.Duration("duration", time.Since(start)),
	)

	return &ScanResult{
		Status:        StatusSuccess,
		Data:          messages,
		ExpiringItems: items,
		RescueMenu:    recipe,
	}, nil
}

// vendorNotices builds one WARNING per resolvable owner, in order of first appearance.
func (s *Scanner) vendorNotices(ctx context.Context, items []common.StockItem) []common.NotificationMessage {
	var order []int64
	groups := make(map[int64][]common.StockItem)
	for _, it := range items {
		if it.OwnerID == 0 {
			continue
		}
		if _, ok := groups[it.OwnerID]; !ok {
			order = append(order, it.OwnerID)
		}
		groups[it.OwnerID] = append(groups[it.OwnerID], it)
	}

	owners := make([]*common.Owner, len(order))
	var g errgroup.Group
	g.SetLimit(s.opts.LookupConcurrency)
	for i, id := range order {
		i, id := i, id
		g.Go(func() error {
			owner, err := s.owners.FindOwner(ctx, id)
			if err != nil {
				common.LogWarn("owner lookup failed", zap.Int64("owner_id", id), zap.Error(err))
				return nil
			}
			if owner == nil {
				common.LogWarn("owner not found", zap.Int64("owner_id", id))
				return nil
			}
			owners[i] = owner
			return nil
		})
	}
	_ = g.Wait()

	messages := make([]common.NotificationMessage, 0, len(order)+1)
	for i, id := range order {
		owner := owners[i]
		if owner == nil {
			continue
		}
		messages = append(messages, common.NotificationMessage{
			Recipient:     vendorRecipient(owner),
			RecipientRole: common.RoleVendor,
			Severity:      common.SeverityWarning,
			Body:          vendorBody(owner, groups[id], s.opts.Kitchen),
		})
	}
	return messages
}

// rescueRecipe returns the cached recipe for names or generates a new one. Generation
// failures yield nil.
func (s *Scanner) rescueRecipe(ctx context.Context, names []string) *common.RescueRecipe {
	key := rescue.CanonicalKey(names)

	if recipe, ok := s.cache.Lookup(ctx, key); ok {
		common.LogInfo("using cached rescue menu", zap.String("key", key))
		return recipe
	}

	raw, err := s.generator.Generate(ctx, names)
	if err != nil {
		common.LogWarn("rescue menu generation failed", zap.Error(err))
		return nil
	}

	res := rescue.Normalize(raw)
	if !res.HasRecipe() {
		common.LogWarn("rescue menu unusable", zap.String("kind", res.Kind.String()))
		return nil
	}

	s.cache.Store(ctx, key, res.Recipe)
	return res.Recipe
}
