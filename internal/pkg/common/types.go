package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StockItem is one row of vendor inventory (table supplies).
type StockItem struct {
	ID         int64      `json:"id"`
	OwnerID    int64      `json:"owner_id"`
	OwnerName  string     `json:"owner_name"`
	ItemName   string     `json:"item_name"`
	Quantity   int        `json:"quantity"`
	Unit       string     `json:"unit"`
	Freshness  string     `json:"freshness,omitempty"`
	Note       string     `json:"note,omitempty"`
	ExpiryDays int        `json:"expiry_days"`
	ExpiryDate string     `json:"expiry_date,omitempty"`
	PhotoURL   string     `json:"photo_url,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Label renders the item as "name (qty unit)".
func (s StockItem) Label() string {
	return fmt.Sprintf("%s (%d %s)", s.ItemName, s.Quantity, s.Unit)
}

// Owner is a vendor account (table users).
type Owner struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	PhoneNumber string   `json:"phone_number"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Location returns the owner's coordinates when both are known.
func (o Owner) Location() (lat, lon float64, ok bool) {
	if o.Latitude == nil || o.Longitude == nil {
		return 0, 0, false
	}
	return *o.Latitude, *o.Longitude, true
}

// RecipientRole identifies who a notification is addressed to.
type RecipientRole string

const (
	RoleVendor  RecipientRole = "Vendor"
	RoleKitchen RecipientRole = "Kitchen"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityWarning          Severity = "WARNING"
	SeverityUrgentWithRecipe Severity = "URGENT_WITH_RECIPE"
)

// NotificationMessage is a composed alert. It is not persisted.
type NotificationMessage struct {
	Recipient     string        `json:"recipient"`
	RecipientRole RecipientRole `json:"recipient_role"`
	Severity      Severity      `json:"severity"`
	Body          string        `json:"body"`
}

// FlexString accepts either a JSON string or a JSON number. LLMs return both for nutrition.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	return fmt.Errorf("expected string or number, got %s", raw)
}

// Nutrition is the per-portion estimate attached to a recipe.
type Nutrition struct {
	Calories FlexString `json:"calories"`
	Protein  FlexString `json:"protein"`
	Carbs    FlexString `json:"carbs,omitempty"`
	Fats     FlexString `json:"fats,omitempty"`
}

// RescueRecipe is a dish suggested to consume near-expiry stock.
type RescueRecipe struct {
	MenuName          string    `json:"menu_name"`
	IngredientsNeeded []string  `json:"ingredients_needed"`
	CookingSteps      []string  `json:"cooking_steps"`
	Nutrition         Nutrition `json:"nutrition"`
	Reason            string    `json:"reason"`
}

// Order is a purchase of a supply row; read by vendor analytics.
type Order struct {
	ID         int64  `json:"id"`
	SupplyID   int64  `json:"supply_id"`
	SellerID   int64  `json:"seller_id"`
	BuyerID    int64  `json:"buyer_id"`
	QtyOrdered int    `json:"qty_ordered"`
	Status     string `json:"status"`
	ItemName   string `json:"item_name,omitempty"`
}

// Meal production statuses.
const (
	MealStatusFresh  = "fresh"
	MealStatusServed = "served"
)

// MealProduction logs a batch cooked by the kitchen (table meal_productions).
type MealProduction struct {
	ID             int64     `json:"id"`
	MenuName       string    `json:"menu_name"`
	QtyProduced    int       `json:"qty_produced"`
	ExpiryDatetime time.Time `json:"expiry_datetime"`
	Status         string    `json:"status"`
	StorageTips    string    `json:"storage_tips"`
	CreatedAt      time.Time `json:"created_at"`
}
