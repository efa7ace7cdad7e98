package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"bekal-bangsa/internal/core/inventory"
	"bekal-bangsa/internal/core/logistics"
	"bekal-bangsa/internal/pkg/common"
	"bekal-bangsa/internal/pkg/geo"
)

// InventoryService is the vendor stock workflow.
type InventoryService interface {
	AnalyzeMarketPhoto(ctx context.Context, image []byte) ([]inventory.DetectedItem, error)
	SaveSupplies(ctx context.Context, ownerID int64, inputs []inventory.SupplyInput) ([]common.StockItem, error)
	ListSupplies(ctx context.Context, ownerID int64) ([]common.StockItem, error)
	UploadPhoto(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

// SupplierSearcher ranks matching stock by distance.
type SupplierSearcher interface {
	SearchSuppliers(ctx context.Context, keyword string, origin *geo.Point) ([]logistics.SupplierResult, error)
}

// SupplyHandler serves vendor stock, supplier search and kitchen lookup.
type SupplyHandler struct {
	inventory InventoryService
	suppliers SupplierSearcher
}

func NewSupplyHandler(inv InventoryService, suppliers SupplierSearcher) *SupplyHandler {
	return &SupplyHandler{inventory: inv, suppliers: suppliers}
}

// Analyze detects items in an uploaded market photo.
func (h *SupplyHandler) Analyze(c *gin.Context) {
	_, data, ok := readUpload(c)
	if !ok {
		return
	}
	items, err := h.inventory.AnalyzeMarketPhoto(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, items)
}

// Upload stores a supply photo and returns its public URL.
func (h *SupplyHandler) Upload(c *gin.Context) {
	fh, data, ok := readUpload(c)
	if !ok {
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	url, err := h.inventory.UploadPhoto(c.Request.Context(), fh.Filename, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// SaveSupplies stores confirmed stock rows.
func (h *SupplyHandler) SaveSupplies(c *gin.Context) {
	var req SaveSuppliesRequest
	if !bindJSON(c, &req) {
		return
	}
	saved, err := h.inventory.SaveSupplies(c.Request.Context(), req.OwnerID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, saved)
}

// ListSupplies returns stock for ?owner_id=, or all stock when it is absent.
func (h *SupplyHandler) ListSupplies(c *gin.Context) {
	var ownerID int64
	if raw := c.Query("owner_id"); raw != "" {
		id, err := parseID(raw, "owner_id")
		if err != nil {
			respondError(c, err)
			return
		}
		ownerID = id
	}
	items, err := h.inventory.ListSupplies(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, items)
}

// SearchSuppliers finds stock by ?q= ranked by distance from ?lat=&long=.
func (h *SupplyHandler) SearchSuppliers(c *gin.Context) {
	origin, err := originFromQuery(c, false)
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.suppliers.SearchSuppliers(c.Request.Context(), c.Query("q"), origin)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, results)
}

// NearestKitchens lists SPPG kitchens sorted by distance from ?lat=&long=.
func (h *SupplyHandler) NearestKitchens(c *gin.Context) {
	origin, err := originFromQuery(c, true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, logistics.NearestKitchens(*origin))
}

// originFromQuery reads ?lat=&long=. Both must be present or both absent.
func originFromQuery(c *gin.Context, required bool) (*geo.Point, error) {
	lat, hasLat, err := optionalFloat(c, "lat")
	if err != nil {
		return nil, err
	}
	lon, hasLon, err := optionalFloat(c, "long")
	if err != nil {
		return nil, err
	}
	if hasLat != hasLon || (required && !hasLat) {
		return nil, common.NewValidationError("lat and long must be provided together")
	}
	if !hasLat {
		return nil, nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, common.NewValidationError("lat/long out of range")
	}
	return &geo.Point{Lat: lat, Lon: lon}, nil
}
