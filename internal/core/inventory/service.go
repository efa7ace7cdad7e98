// Package inventory handles vendor stock: photo analysis, saving and listing supplies, photo upload.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"bekal-bangsa/internal/core/ai/provider"
	aiservice "bekal-bangsa/internal/core/ai/service"
	"bekal-bangsa/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultOwnerName labels supplies saved without an owner name.
const DefaultOwnerName = "Pedagang Pasar"

// Completer sends chat completions.
type Completer interface {
	CompleteFresh(ctx context.Context, req *provider.Request) (*aiservice.Response, error)
}

// ImageNormalizer converts raw image bytes into a JPEG data URI.
type ImageNormalizer interface {
	ProcessBytes(data []byte) (string, error)
}

// Store persists supplies.
type Store interface {
	InsertSupplies(ctx context.Context, items []common.StockItem) ([]common.StockItem, error)
	ListSupplies(ctx context.Context, ownerID int64) ([]common.StockItem, error)
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// DetectedItem is one item recognised in a market photo.
type DetectedItem struct {
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	Unit      string `json:"unit"`
	Freshness string `json:"freshness"`
	Expiry    int    `json:"expiry"`
	Note      string `json:"note,omitempty"`
}

// SupplyInput is a vendor-confirmed item to save.
type SupplyInput struct {
	Name       string   `json:"name"`
	Qty        int      `json:"qty"`
	Unit       string   `json:"unit"`
	Freshness  string   `json:"freshness"`
	ExpiryDays int      `json:"expiry_days"`
	Note       string   `json:"note,omitempty"`
	OwnerName  string   `json:"owner_name,omitempty"`
	PhotoURL   string   `json:"photo_url,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// Service implements the inventory operations. uploader may be nil when object storage is off.
type Service struct {
	ai       Completer
	images   ImageNormalizer
	store    Store
	uploader Uploader
	now      func() time.Time
}

// NewService creates an inventory service.
func NewService(ai Completer, images ImageNormalizer, store Store, uploader Uploader) *Service {
	return &Service{
		ai:       ai,
		images:   images,
		store:    store,
		uploader: uploader,
		now:      time.Now,
	}
}

// ExpiryDate returns the calendar date days after now as YYYY-MM-DD.
func ExpiryDate(days int, now time.Time) string {
	return now.AddDate(0, 0, days).Format("2006-01-02")
}

type visionItem struct {
	Name            string  `json:"name"`
	Qty             flexInt `json:"qty"`
	Unit            string  `json:"unit"`
	Freshness       string  `json:"freshness"`
	ExpiryDays      flexInt `json:"expiry_days"`
	VisualReasoning string  `json:"visual_reasoning"`
}

// flexInt accepts 3, 3.0, "3" and "3 kg".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexInt(math.Round(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = 0
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(math.Round(v))
	return nil
}

// AnalyzeMarketPhoto detects items, counts and freshness in a photo of market goods.
func (s *Service) AnalyzeMarketPhoto(ctx context.Context, image []byte) ([]DetectedItem, error) {
	uri, err := s.images.ProcessBytes(image)
	if err != nil {
		return nil, err
	}

	resp, err := s.ai.CompleteFresh(ctx, &provider.Request{
		Messages:    []provider.Message{{Role: "user", Content: inventoryAnalysisPrompt, ImageURL: uri}},
		MaxTokens:   1000,
		Temperature: provider.Temperature(0.1),
	})
	if err != nil {
		return nil, err
	}

	body := common.ExtractJSON(resp.Content)
	if body == "" {
		return nil, common.Wrap(common.ErrAIMalformed, fmt.Errorf("no JSON in vision response"))
	}

	var parsed struct {
		Items []visionItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		// some models answer with the bare list
		var list []visionItem
		if err2 := json.Unmarshal([]byte(body), &list); err2 != nil {
			return nil, common.Wrap(common.ErrAIMalformed, err)
		}
		parsed.Items = list
	}

	out := make([]DetectedItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		out = append(out, DetectedItem{
			Name:      strings.TrimSpace(it.Name),
			Qty:       int(it.Qty),
			Unit:      it.Unit,
			Freshness: it.Freshness,
			Expiry:    int(it.ExpiryDays),
			Note:      it.VisualReasoning,
		})
	}

	common.LogInfo("market photo analyzed", zap.Int("items", len(out)))
	return out, nil
}

// SaveSupplies stores confirmed items for ownerID, filling in the expiry date.
func (s *Service) SaveSupplies(ctx context.Context, ownerID int64, inputs []SupplyInput) ([]common.StockItem, error) {
	if len(inputs) == 0 {
		return nil, common.NewValidationError("at least one item is required")
	}

	now := s.now()
	items := make([]common.StockItem, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, common.NewValidationError(fmt.Sprintf("item %d: name is required", i))
		}
		if in.Qty < 0 {
			return nil, common.NewValidationError(fmt.Sprintf("item %d: qty must not be negative", i))
		}
		created := now
		items = append(items, common.StockItem{
			OwnerID:    ownerID,
			OwnerName:  common.StringOr(strings.TrimSpace(in.OwnerName), DefaultOwnerName),
			ItemName:   name,
			Quantity:   in.Qty,
			Unit:       in.Unit,
			Freshness:  in.Freshness,
			Note:       in.Note,
			ExpiryDays: in.ExpiryDays,
			ExpiryDate: ExpiryDate(in.ExpiryDays, now),
			PhotoURL:   in.PhotoURL,
			Latitude:   in.Latitude,
			Longitude:  in.Longitude,
			CreatedAt:  &created,
		})
	}

	saved, err := s.store.InsertSupplies(ctx, items)
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	common.LogInfo("supplies saved", zap.Int64("owner_id", ownerID), zap.Int("count", len(saved)))
	return saved, nil
}

// ListSupplies returns ownerID's supplies, or every supply when ownerID is 0.
func (s *Service) ListSupplies(ctx context.Context, ownerID int64) ([]common.StockItem, error) {
	items, err := s.store.ListSupplies(ctx, ownerID)
	if err != nil {
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	if items == nil {
		items = []common.StockItem{}
	}
	return items, nil
}

// UploadPhoto stores a supply photo and returns its public URL.
func (s *Service) UploadPhoto(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if s.uploader == nil {
		return "", common.Wrap(common.ErrStorageUnavailable, fmt.Errorf("object storage is not configured"))
	}
	key := fmt.Sprintf("%d_%s_%s", s.now().Unix(), common.GenerateUUID()[:8], sanitizeFilename(filename))
	url, err := s.uploader.Upload(ctx, key, contentType, body, size)
	if err != nil {
		return "", common.Wrap(common.ErrStorageUnavailable, err)
	}
	return url, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == "_" {
		return "photo.jpg"
	}
	return name
}

const inventoryAnalysisPrompt = `Kamu adalah asisten inventaris pasar tradisional.
Analisis foto barang dagangan ini: deteksi jenis barang, hitung jumlahnya, dan nilai kesegarannya.

Jawab HANYA dengan JSON:
{
  "items": [
    {
      "name": "nama barang dalam Bahasa Indonesia",
      "qty": jumlah (angka),
      "unit": "satuan (pcs/kg/ikat)",
      "freshness": "Sangat Segar | Segar | Layu | Busuk",
      "expiry_days": perkiraan hari sampai tidak layak (angka),
      "visual_reasoning": "alasan visual singkat"
    }
  ]
}`
