package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"bekal-bangsa/internal/core/analytics"
)

// Dashboards computes the analytics views.
type Dashboards interface {
	Kitchen(ctx context.Context) (*analytics.KitchenDashboard, error)
	Vendor(ctx context.Context, vendorID int64) (*analytics.VendorDashboard, error)
}

// AnalyticsHandler serves dashboard data.
type AnalyticsHandler struct {
	dashboards Dashboards
}

func NewAnalyticsHandler(d Dashboards) *AnalyticsHandler {
	return &AnalyticsHandler{dashboards: d}
}

// Kitchen returns the kitchen-wide stock dashboard.
func (h *AnalyticsHandler) Kitchen(c *gin.Context) {
	d, err := h.dashboards.Kitchen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, d)
}

// Vendor returns one vendor's stock and sales dashboard.
func (h *AnalyticsHandler) Vendor(c *gin.Context) {
	id, err := parseID(c.Param("id"), "vendor id")
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := h.dashboards.Vendor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, d)
}
