package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bekal-bangsa/internal/core/kitchen"
	"bekal-bangsa/internal/pkg/common"
)

// KitchenService is the SPPG kitchen workflow.
type KitchenService interface {
	RecommendMenu(ctx context.Context, ingredients []string) (*common.RescueRecipe, error)
	Chat(ctx context.Context, ownerID int64, message string) (string, error)
	CookMeal(ctx context.Context, req kitchen.CookRequest) (*kitchen.CookResult, error)
	MarkServed(ctx context.Context, mealID int64) (*common.MealProduction, error)
	InspectCookedMeal(ctx context.Context, imageURI string) (*kitchen.MealInspection, error)
}

// ImageNormalizer turns raw upload bytes into a JPEG data URI.
type ImageNormalizer interface {
	ProcessBytes(data []byte) (string, error)
}

// KitchenHandler serves the kitchen endpoints.
type KitchenHandler struct {
	kitchen KitchenService
	images  ImageNormalizer
}

func NewKitchenHandler(k KitchenService, images ImageNormalizer) *KitchenHandler {
	return &KitchenHandler{kitchen: k, images: images}
}

// RecommendMenu suggests one dish for the posted ingredients.
func (h *KitchenHandler) RecommendMenu(c *gin.Context) {
	var req RecommendMenuRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.kitchen.RecommendMenu(c.Request.Context(), req.Ingredients)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// Cook logs a produced batch and consumes its ingredients.
func (h *KitchenHandler) Cook(c *gin.Context) {
	var req CookRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.kitchen.CookMeal(c.Request.Context(), kitchen.CookRequest{
		MenuName:       req.MenuName,
		QtyProduced:    req.QtyProduced,
		IngredientsIDs: req.IngredientsIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkServed flips a meal batch to served.
func (h *KitchenHandler) MarkServed(c *gin.Context) {
	id, err := parseID(c.Param("id"), "meal id")
	if err != nil {
		respondError(c, err)
		return
	}
	meal, err := h.kitchen.MarkServed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, meal)
}

// Chat answers a question using the asker's stock as context.
func (h *KitchenHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.kitchen.Chat(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// Quality inspects a photo of a cooked dish.
func (h *KitchenHandler) Quality(c *gin.Context) {
	fh, data, ok := readUpload(c)
	if !ok {
		return
	}
	uri, err := h.images.ProcessBytes(data)
	if err != nil {
		respondError(c, err)
		return
	}
	common.LogDebug("inspecting cooked meal",
		zap.String("filename", fh.Filename),
		zap.Int("bytes", len(data)),
	)
	inspection, err := h.kitchen.InspectCookedMeal(c.Request.Context(), uri)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, inspection)
}
