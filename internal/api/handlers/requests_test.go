package handlers

import (
	"testing"

	"bekal-bangsa/internal/core/inventory"
)

func TestRequestValidation(t *testing.T) {
	lat := 120.0
	cases := []struct {
		name  string
		req   interface{ Validate() error }
		valid bool
	}{
		{"menu ok", RecommendMenuRequest{Ingredients: []string{"Bayam"}}, true},
		{"menu empty", RecommendMenuRequest{}, false},
		{"menu blank item", RecommendMenuRequest{Ingredients: []string{"Bayam", ""}}, false},
		{"cook ok", CookRequest{MenuName: "Sop", QtyProduced: 10, IngredientsIDs: []int64{1, 2}}, true},
		{"cook no qty", CookRequest{MenuName: "Sop"}, false},
		{"cook negative qty", CookRequest{MenuName: "Sop", QtyProduced: -3}, false},
		{"cook bad id", CookRequest{MenuName: "Sop", QtyProduced: 1, IngredientsIDs: []int64{-1}}, false},
		{"chat ok", ChatRequest{Message: "halo"}, true},
		{"chat empty", ChatRequest{}, false},
		{"supplies ok", SaveSuppliesRequest{OwnerID: 1, Items: []inventory.SupplyInput{{Name: "Tahu", Qty: 3}}}, true},
		{"supplies no owner", SaveSuppliesRequest{Items: []inventory.SupplyInput{{Name: "Tahu"}}}, false},
		{"supplies bad lat", SaveSuppliesRequest{OwnerID: 1, Items: []inventory.SupplyInput{{Name: "Tahu", Latitude: &lat}}}, false},
		{"supplies bad url", SaveSuppliesRequest{OwnerID: 1, Items: []inventory.SupplyInput{{Name: "Tahu", PhotoURL: "not a url"}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected an error")
			}
		})
	}
}
