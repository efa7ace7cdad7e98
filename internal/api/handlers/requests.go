package handlers

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"bekal-bangsa/internal/core/inventory"
)

// RecommendMenuRequest asks for one dish over the given ingredients.
type RecommendMenuRequest struct {
	Ingredients []string `json:"ingredients"`
}

func (r RecommendMenuRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Ingredients, validation.Required, validation.Each(validation.Required)),
	)
}

// CookRequest logs a cooked batch and consumes the listed supply rows.
type CookRequest struct {
	MenuName       string  `json:"menu_name"`
	QtyProduced    int     `json:"qty_produced"`
	IngredientsIDs []int64 `json:"ingredients_ids"`
}

func (r CookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MenuName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.QtyProduced, validation.Required, validation.Min(1)),
		validation.Field(&r.IngredientsIDs, validation.Each(validation.Min(int64(1)))),
	)
}

// ChatRequest is a question for the kitchen assistant.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

func (r ChatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.UserID, validation.Min(int64(0))),
	)
}

// SaveSuppliesRequest stores confirmed stock rows for a vendor.
type SaveSuppliesRequest struct {
	OwnerID int64                   `json:"owner_id"`
	Items   []inventory.SupplyInput `json:"items"`
}

func (r SaveSuppliesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OwnerID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Items, validation.Required, validation.Each(validation.By(validateSupplyInput))),
	)
}

func validateSupplyInput(value interface{}) error {
	in, _ := value.(inventory.SupplyInput)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Qty, validation.Min(0)),
		validation.Field(&in.ExpiryDays, validation.Min(0)),
		validation.Field(&in.PhotoURL, is.URL),
		validation.Field(&in.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&in.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}
