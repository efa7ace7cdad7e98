package store

import (
	"context"
	"errors"
	"testing"

	"bekal-bangsa/internal/pkg/common"
)

func TestMemory_Supplies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	saved, err := m.InsertSupplies(ctx, []common.StockItem{
		{OwnerID: 1, ItemName: "Bayam", ExpiryDays: 2},
		{OwnerID: 2, ItemName: "Bayam Merah", ExpiryDays: 7},
		{OwnerID: 1, ItemName: "Beras", ExpiryDays: 100},
	})
	if err != nil {
		t.Fatalf("InsertSupplies: %v", err)
	}
	if saved[0].ID == 0 || saved[0].CreatedAt == nil {
		t.Fatalf("ids and timestamps should be set: %+v", saved[0])
	}

	expiring, _ := m.FindExpiring(ctx, 7)
	if len(expiring) != 2 || expiring[0].ItemName != "Bayam" {
		t.Fatalf("FindExpiring = %+v", expiring)
	}

	mine, _ := m.ListSupplies(ctx, 1)
	if len(mine) != 2 || mine[0].ItemName != "Beras" {
		t.Fatalf("ListSupplies should be newest first: %+v", mine)
	}
	all, _ := m.ListSupplies(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("ListSupplies(0) = %d rows", len(all))
	}

	found, _ := m.SearchSupplies(ctx, "bAyAm")
	if len(found) != 2 {
		t.Fatalf("SearchSupplies = %+v", found)
	}

	if err := m.DeleteSupplies(ctx, []int64{saved[0].ID, 999}); err != nil {
		t.Fatalf("DeleteSupplies: %v", err)
	}
	expiring, _ = m.FindExpiring(ctx, 7)
	if len(expiring) != 1 {
		t.Fatalf("row not deleted: %+v", expiring)
	}
}

func TestMemory_Owners(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	o := &common.Owner{FullName: "Bu Sari"}
	m.CreateOwner(ctx, o)

	got, err := m.FindOwner(ctx, o.ID)
	if err != nil || got == nil || got.FullName != "Bu Sari" {
		t.Fatalf("FindOwner = %+v, %v", got, err)
	}
	missing, err := m.FindOwner(ctx, 404)
	if err != nil || missing != nil {
		t.Fatalf("missing owner should be nil, nil; got %+v, %v", missing, err)
	}
}

func TestMemory_OrdersJoinItemName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	saved, _ := m.InsertSupplies(ctx, []common.StockItem{{OwnerID: 1, ItemName: "Tahu"}})
	m.AddOrder(ctx, &common.Order{SupplyID: saved[0].ID, SellerID: 1, QtyOrdered: 5})
	m.AddOrder(ctx, &common.Order{SupplyID: saved[0].ID, SellerID: 2, QtyOrdered: 1})

	orders, _ := m.ListOrdersBySeller(ctx, 1)
	if len(orders) != 1 || orders[0].ItemName != "Tahu" || orders[0].QtyOrdered != 5 {
		t.Fatalf("orders = %+v", orders)
	}
}

func TestMemory_Meals(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	meal := &common.MealProduction{MenuName: "Sop", QtyProduced: 10, Status: common.MealStatusFresh}
	m.InsertMeal(ctx, meal)
	if meal.ID == 0 || meal.CreatedAt.IsZero() {
		t.Fatalf("meal not stored: %+v", meal)
	}

	updated, err := m.UpdateMealStatus(ctx, meal.ID, common.MealStatusServed)
	if err != nil || updated.Status != common.MealStatusServed {
		t.Fatalf("UpdateMealStatus = %+v, %v", updated, err)
	}
	if _, err := m.UpdateMealStatus(ctx, 999, common.MealStatusServed); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_SeedDemo(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.SeedDemo(ctx); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	expiring, _ := m.FindExpiring(ctx, 7)
	if len(expiring) != 3 {
		t.Fatalf("expected 3 expiring demo rows, got %d", len(expiring))
	}
	owner, _ := m.FindOwner(ctx, expiring[0].OwnerID)
	if owner == nil {
		t.Fatal("demo supplies should reference demo owners")
	}
}
