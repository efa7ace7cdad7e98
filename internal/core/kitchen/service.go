package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bekal-bangsa/internal/core/ai/provider"
	"bekal-bangsa/internal/pkg/common"

	"go.uber.org/zap"
)

// Store is the persistence the kitchen operations need.
type Store interface {
	ListSupplies(ctx context.Context, ownerID int64) ([]common.StockItem, error)
	DeleteSupplies(ctx context.Context, ids []int64) error
	InsertMeal(ctx context.Context, meal *common.MealProduction) error
	UpdateMealStatus(ctx context.Context, id int64, status string) (*common.MealProduction, error)
}

// MealSafety is the model's shelf-life analysis of a cooked dish.
type MealSafety struct {
	RoomTempHours float64          `json:"room_temp_hours"`
	FridgeHours   float64          `json:"fridge_hours"`
	RiskFactor    string           `json:"risk_factor"`
	StorageTips   string           `json:"storage_tips"`
	Nutrition     common.Nutrition `json:"nutrition"`
}

// DefaultMealSafety is used when the model cannot be reached or answers badly.
func DefaultMealSafety() MealSafety {
	return MealSafety{
		RoomTempHours: 4,
		FridgeHours:   12,
		RiskFactor:    "Unknown",
		StorageTips:   "Segera konsumsi. Simpan di tempat sejuk dan tertutup.",
		Nutrition:     common.Nutrition{Calories: "N/A", Protein: "N/A", Carbs: "N/A", Fats: "N/A"},
	}
}

// CookRequest records a batch of cooked portions.
type CookRequest struct {
	MenuName       string  `json:"menu_name"`
	QtyProduced    int     `json:"qty_produced"`
	IngredientsIDs []int64 `json:"ingredients_ids"`
}

// CookResult is returned after a batch is logged.
type CookResult struct {
	Status            string                 `json:"status"`
	Message           string                 `json:"message"`
	NutritionEstimate common.Nutrition       `json:"nutrition_estimate"`
	SafetyAnalysis    MealSafety             `json:"safety_analysis"`
	Meal              *common.MealProduction `json:"meal,omitempty"`
}

// MealInspection is the visual QC verdict for a cooked dish.
type MealInspection struct {
	MenuDetected   string           `json:"menu_detected"`
	IsSafe         bool             `json:"is_safe"`
	Freshness      string           `json:"freshness"`
	VisualNotes    string           `json:"visual_notes"`
	Nutrition      common.Nutrition `json:"nutrition"`
	Recommendation string           `json:"recommendation"`
}

// Service implements the kitchen operations.
type Service struct {
	ai        Completer
	store     Store
	generator *Generator
	now       func() time.Time
}

// NewService creates a kitchen service.
func NewService(ai Completer, store Store, generator *Generator) *Service {
	return &Service{
		ai:        ai,
		store:     store,
		generator: generator,
		now:       time.Now,
	}
}

// RecommendMenu suggests one dish for the given ingredients.
func (s *Service) RecommendMenu(ctx context.Context, ingredients []string) (*common.RescueRecipe, error) {
	cleaned := make([]string, 0, len(ingredients))
	for _, in := range ingredients {
		if in = strings.TrimSpace(in); in != "" {
			cleaned = append(cleaned, in)
		}
	}
	if len(cleaned) == 0 {
		return nil, common.NewValidationError("ingredients must not be empty")
	}
	return s.generator.Recommend(ctx, cleaned)
}

// Chat answers a kitchen question with the asker's current stock injected into the system prompt.
func (s *Service) Chat(ctx context.Context, ownerID int64, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", common.NewValidationError("message must not be empty")
	}

	supplies, err := s.store.ListSupplies(ctx, ownerID)
	if err != nil {
		return "", common.Wrap(common.ErrStoreUnavailable, err)
	}

	resp, err := s.ai.CompleteFresh(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: chefSystemPrompt(stockList(supplies))},
			{Role: "user", Content: message},
		},
		MaxTokens: 1000,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func stockList(items []common.StockItem) string {
	if len(items) == 0 {
		return "(stok kosong)"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it.Label())
	}
	return strings.Join(lines, "\n")
}

// AnalyzeMealExpiry asks the model how long a dish keeps. It never fails; a default
// analysis is returned when the model is unavailable.
func (s *Service) AnalyzeMealExpiry(ctx context.Context, menuName string) MealSafety {
	resp, err := s.ai.Complete(ctx, &provider.Request{
		Messages:    []provider.Message{{Role: "user", Content: mealExpiryPrompt(menuName)}},
		MaxTokens:   300,
		Temperature: provider.Temperature(0.2),
	})
	if err != nil {
		common.LogWarn("meal expiry analysis failed", zap.String("menu", menuName), zap.Error(err))
		return DefaultMealSafety()
	}

	body := common.ExtractJSON(resp.Content)
	safety := DefaultMealSafety()
	if body == "" || json.Unmarshal([]byte(body), &safety) != nil {
		common.LogWarn("meal expiry analysis unreadable", zap.String("menu", menuName))
		return DefaultMealSafety()
	}
	if safety.RoomTempHours <= 0 {
		safety.RoomTempHours = DefaultMealSafety().RoomTempHours
	}
	if safety.FridgeHours <= 0 {
		safety.FridgeHours = DefaultMealSafety().FridgeHours
	}
	return safety
}

// CookMeal consumes the given supplies and logs the produced batch with its shelf life.
func (s *Service) CookMeal(ctx context.Context, req CookRequest) (*CookResult, error) {
	req.MenuName = strings.TrimSpace(req.MenuName)
	if req.MenuName == "" {
		return nil, common.NewValidationError("menu_name is required")
	}
	if req.QtyProduced <= 0 {
		return nil, common.NewValidationError("qty_produced must be positive")
	}

	if len(req.IngredientsIDs) > 0 {
		if err := s.store.DeleteSupplies(ctx, req.IngredientsIDs); err != nil {
			return nil, common.Wrap(common.ErrStoreUnavailable, fmt.Errorf("consume supplies: %w", err))
		}
	}

	safety := s.AnalyzeMealExpiry(ctx, req.MenuName)
	now := s.now()

	meal := &common.MealProduction{
		MenuName:       req.MenuName,
		QtyProduced:    req.QtyProduced,
		ExpiryDatetime: now.Add(time.Duration(safety.RoomTempHours * float64(time.Hour))),
		Status:         common.MealStatusFresh,
		StorageTips: fmt.Sprintf("%s (Tahan %s jam jika masuk kulkas)",
			common.StringOr(safety.StorageTips, "Simpan dengan baik."),
			strconv.FormatFloat(safety.FridgeHours, 'f', -1, 64)),
		CreatedAt: now,
	}

	result := &CookResult{
		Status:            "success",
		Message:           fmt.Sprintf("Berhasil memproduksi %d porsi %s", req.QtyProduced, req.MenuName),
		NutritionEstimate: safety.Nutrition,
		SafetyAnalysis:    safety,
	}

	// the batch was cooked either way; a failed log write is not fatal
	if err := s.store.InsertMeal(ctx, meal); err != nil {
		common.LogWarn("failed to log meal production", zap.String("menu", req.MenuName), zap.Error(err))
		return result, nil
	}
	result.Meal = meal

	common.LogInfo("meal produced",
		zap.String("menu", req.MenuName),
		zap.Int("qty", req.QtyProduced),
		zap.Time("expires_at", meal.ExpiryDatetime),
	)
	return result, nil
}

// MarkServed marks a logged batch as served, which ends its expiry monitoring.
func (s *Service) MarkServed(ctx context.Context, mealID int64) (*common.MealProduction, error) {
	meal, err := s.store.UpdateMealStatus(ctx, mealID, common.MealStatusServed)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, common.Wrap(common.ErrStoreUnavailable, err)
	}
	return meal, nil
}

// InspectCookedMeal runs visual QC on a photo of a cooked dish. imageURI is a JPEG data URI.
func (s *Service) InspectCookedMeal(ctx context.Context, imageURI string) (*MealInspection, error) {
	resp, err := s.ai.CompleteFresh(ctx, &provider.Request{
		Messages:  []provider.Message{{Role: "user", Content: cookedMealInspectionPrompt, ImageURL: imageURI}},
		MaxTokens: 600,
	})
	if err != nil {
		return nil, err
	}

	body := common.ExtractJSON(resp.Content)
	var out MealInspection
	if body == "" {
		return nil, common.Wrap(common.ErrAIMalformed, fmt.Errorf("no JSON in inspection"))
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, common.Wrap(common.ErrAIMalformed, err)
	}
	return &out, nil
}
