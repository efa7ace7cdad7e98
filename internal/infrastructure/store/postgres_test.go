package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"bekal-bangsa/internal/infrastructure/config"
	"bekal-bangsa/internal/pkg/common"
)

func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 2, InitSchema: true})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	p := NewPostgres(pool)
	t.Cleanup(p.Close)

	lat, lon := -6.2, 106.8
	owner := &common.Owner{FullName: "Integration Vendor", PhoneNumber: "0800", Latitude: &lat, Longitude: &lon}
	if err := p.CreateOwner(ctx, owner); err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}

	saved, err := p.InsertSupplies(ctx, []common.StockItem{
		{OwnerID: owner.ID, OwnerName: owner.FullName, ItemName: "IntegrasiBayam", Quantity: 3, Unit: "ikat", ExpiryDays: -1000, ExpiryDate: "2025-01-01"},
	})
	if err != nil {
		t.Fatalf("InsertSupplies: %v", err)
	}
	t.Cleanup(func() {
		p.DeleteSupplies(context.Background(), []int64{saved[0].ID})
		pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, owner.ID)
	})

	expiring, err := p.FindExpiring(ctx, -1000)
	if err != nil {
		t.Fatalf("FindExpiring: %v", err)
	}
	found := false
	for _, it := range expiring {
		if it.ID == saved[0].ID {
			found = true
			if it.OwnerID != owner.ID || it.ExpiryDate != "2025-01-01" {
				t.Fatalf("unexpected row %+v", it)
			}
		}
	}
	if !found {
		t.Fatal("inserted row not returned by FindExpiring")
	}

	got, err := p.FindOwner(ctx, owner.ID)
	if err != nil || got == nil || got.Latitude == nil {
		t.Fatalf("FindOwner = %+v, %v", got, err)
	}
	if missing, err := p.FindOwner(ctx, -1); err != nil || missing != nil {
		t.Fatalf("missing owner = %+v, %v", missing, err)
	}

	if _, err := p.UpdateMealStatus(ctx, -1, common.MealStatusServed); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
