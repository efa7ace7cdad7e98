package expiry

import (
	"fmt"
	"strings"

	"bekal-bangsa/internal/pkg/common"
	"bekal-bangsa/internal/pkg/geo"
)

const placeholder = "-"

func vendorRecipient(o *common.Owner) string {
	return fmt.Sprintf("%s (%s)", common.StringOr(o.FullName, "Mitra Vendor"), common.StringOr(o.PhoneNumber, placeholder))
}

func vendorBody(o *common.Owner, items []common.StockItem, kitchen geo.Point) string {
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Label())
	}

	distInfo := "Segera tawarkan ke SPPG terdekat."
	if lat, lon, ok := vendorLocation(o, items); ok {
		d := geo.DistanceKm(lat, lon, kitchen.Lat, kitchen.Lon)
		distInfo = fmt.Sprintf("Lokasi SPPG terdekat berjarak %.1f km dari titik Anda.", d)
	}

	return fmt.Sprintf("⚠️ Halo %s!\nStok berikut akan segera kadaluarsa: %s.\n%s\nSaran: Diskonkan sekarang atau donasikan ke Dapur Umum sebelum rugi total!",
		common.StringOr(o.FullName, "Mitra Vendor"), strings.Join(labels, ", "), distInfo)
}

// vendorLocation prefers the owner's coordinates, then the first item that has its own.
func vendorLocation(o *common.Owner, items []common.StockItem) (lat, lon float64, ok bool) {
	if lat, lon, ok := o.Location(); ok {
		return lat, lon, true
	}
	for _, it := range items {
		if it.Latitude != nil && it.Longitude != nil {
			return *it.Latitude, *it.Longitude, true
		}
	}
	return 0, 0, false
}

func kitchenBody(names []string, r *common.RescueRecipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚨 ALERTA DAPUR: Bahan-bahan berikut hampir expired: %s!\n\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "REKOMENDASI AI: Masak '%s' hari ini untuk menyelamatkan stok!\n\n", common.StringOr(r.MenuName, placeholder))

	b.WriteString("🛒 Bahan Diperlukan:\n")
	if len(r.IngredientsNeeded) == 0 {
		b.WriteString(placeholder + "\n")
	}
	for _, in := range r.IngredientsNeeded {
		b.WriteString("- " + in + "\n")
	}

	b.WriteString("\n👨‍🍳 Cara Masak:\n")
	if len(r.CookingSteps) == 0 {
		b.WriteString(placeholder + "\n")
	}
	for i, step := range r.CookingSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	fmt.Fprintf(&b, "\n📊 Estimasi Nutrisi: Kalori: %s, Protein: %s\n",
		common.StringOr(string(r.Nutrition.Calories), placeholder),
		common.StringOr(string(r.Nutrition.Protein), placeholder))
	fmt.Fprintf(&b, "Reasoning AI: %s", common.StringOr(r.Reason, placeholder))

	return b.String()
}
