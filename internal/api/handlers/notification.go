package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bekal-bangsa/internal/core/expiry"
	"bekal-bangsa/internal/pkg/common"
)

// ExpiryScanner runs one expiry scan.
type ExpiryScanner interface {
	Scan(ctx context.Context) (*expiry.ScanResult, error)
}

// NotificationHandler serves the expiry alert trigger.
type NotificationHandler struct {
	scanner ExpiryScanner
}

func NewNotificationHandler(scanner ExpiryScanner) *NotificationHandler {
	return &NotificationHandler{scanner: scanner}
}

// Trigger runs a scan and returns the composed notifications.
func (h *NotificationHandler) Trigger(c *gin.Context) {
	result, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	common.LogInfo("expiry scan triggered",
		zap.String("status", result.Status),
		zap.Int("notifications", len(result.Data)),
	)
	c.JSON(http.StatusOK, result)
}
