package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"bekal-bangsa/internal/api/handlers/health"
	aiimage "bekal-bangsa/internal/core/ai/image"
	"bekal-bangsa/internal/core/ai/provider"
	aiservice "bekal-bangsa/internal/core/ai/service"
	"bekal-bangsa/internal/core/analytics"
	"bekal-bangsa/internal/core/expiry"
	"bekal-bangsa/internal/core/inventory"
	"bekal-bangsa/internal/core/kitchen"
	"bekal-bangsa/internal/core/logistics"
	"bekal-bangsa/internal/core/rescue"
	"bekal-bangsa/internal/infrastructure/config"
	"bekal-bangsa/internal/infrastructure/store"
	"bekal-bangsa/internal/pkg/common"
	"bekal-bangsa/internal/pkg/geo"
)

const recipeJSON = `{"menu_name":"Tumis Bayam Tahu","ingredients_needed":["Bayam","Tahu"],` +
	`"cooking_steps":["Potong","Tumis"],"nutrition":{"calories":"250 kkal","protein":"12g"},"reason":"Habiskan stok"}`

type fakeAI struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (f *fakeAI) Complete(ctx context.Context, req *provider.Request) (*aiservice.Response, error) {
	return f.CompleteFresh(ctx, req)
}

func (f *fakeAI) CompleteFresh(_ context.Context, _ *provider.Request) (*aiservice.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &aiservice.Response{Content: f.reply}, nil
}

func (f *fakeAI) set(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = reply
}

type testEnv struct {
	router *gin.Engine
	store  *store.Memory
	ai     *fakeAI
	vendor *common.Owner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	mem := store.NewMemory()
	ai := &fakeAI{reply: recipeJSON}

	lat, lon := -6.244223, 106.801782
	vendor := &common.Owner{FullName: "Bu Sari", PhoneNumber: "0811", Latitude: &lat, Longitude: &lon}
	if err := mem.CreateOwner(ctx, vendor); err != nil {
		t.Fatal(err)
	}

	monas := geo.Point{Lat: -6.175392, Lon: 106.827153}
	gen := kitchen.NewGenerator(ai, 0)
	images := aiimage.NewService(1<<20, 85)

	cfg := &config.Config{
		App:    config.AppConfig{Version: "test", Debug: true},
		Server: config.ServerConfig{MaxBodyBytes: 2 << 20, RequestTimeout: 5 * time.Second},
	}
	router := SetupRouter(cfg, Dependencies{
		Scanner: expiry.NewScanner(mem, mem, gen, rescue.NewMemoryCache(), expiry.Options{
			WarningDays: 3,
			Kitchen:     monas,
		}),
		Inventory:  inventory.NewService(ai, images, mem, nil),
		Suppliers:  logistics.NewService(mem, monas),
		Kitchen:    kitchen.NewService(ai, mem, gen),
		Dashboards: analytics.NewService(mem),
		Images:     images,
		Probes:     map[string]health.Pinger{"store": mem},
	})

	return &testEnv{router: router, store: mem, ai: ai, vendor: vendor}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, path string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) addSupply(t *testing.T, name string, qty, days int) common.StockItem {
	t.Helper()
	saved, err := e.store.InsertSupplies(context.Background(), []common.StockItem{{
		OwnerID:    e.vendor.ID,
		OwnerName:  e.vendor.FullName,
		ItemName:   name,
		Quantity:   qty,
		Unit:       "kg",
		ExpiryDays: days,
		Latitude:   e.vendor.Latitude,
		Longitude:  e.vendor.Longitude,
	}})
	if err != nil {
		t.Fatal(err)
	}
	return saved[0]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		w := env.do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, w.Code)
		}
	}

	var ready map[string]interface{}
	decode(t, env.do(t, http.MethodGet, "/ready", nil), &ready)
	if ready["status"] != "ready" {
		t.Errorf("ready = %v", ready)
	}
}

func TestTriggerNoRisk(t *testing.T) {
	env := newTestEnv(t)
	env.addSupply(t, "Beras", 50, 90)

	w := env.do(t, http.MethodPost, "/api/v1/notifications/trigger", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"status":"no_risk","data":[]}` {
		t.Errorf("body = %s", got)
	}
	if env.ai.calls != 0 {
		t.Errorf("no-risk scan called the model %d times", env.ai.calls)
	}
}

func TestTriggerWithExpiringStock(t *testing.T) {
	env := newTestEnv(t)
	env.addSupply(t, "Bayam", 5, 1)
	env.addSupply(t, "Tahu", 20, 2)

	w := env.do(t, http.MethodPost, "/api/v1/notifications/trigger", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Status string                       `json:"status"`
		Data   []common.NotificationMessage `json:"data"`
		Menu   *common.RescueRecipe         `json:"rescue_menu"`
	}
	decode(t, w, &result)
	if result.Status != expiry.StatusSuccess {
		t.Fatalf("status = %q", result.Status)
	}
	if result.Menu == nil || result.Menu.MenuName != "Tumis Bayam Tahu" {
		t.Errorf("rescue menu = %+v", result.Menu)
	}

	var vendor, kitchenMsg int
	for _, m := range result.Data {
		switch m.RecipientRole {
		case common.RoleVendor:
			vendor++
		case common.RoleKitchen:
			kitchenMsg++
			if m.Severity != common.SeverityUrgentWithRecipe {
				t.Errorf("kitchen severity = %s", m.Severity)
			}
		}
	}
	if vendor != 1 || kitchenMsg != 1 {
		t.Errorf("vendor=%d kitchen=%d messages", vendor, kitchenMsg)
	}

	// same stock, cached recipe
	env.do(t, http.MethodPost, "/api/v1/notifications/trigger", nil)
	if env.ai.calls != 1 {
		t.Errorf("model called %d times, want 1", env.ai.calls)
	}
}

func TestSuppliesRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/supplies", map[string]interface{}{
		"owner_id": env.vendor.ID,
		"items": []map[string]interface{}{
			{"name": "Wortel", "qty": 10, "unit": "kg", "freshness": "Segar", "expiry_days": 5},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save: status %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/supplies?owner_id="+itoa(env.vendor.ID), nil)
	var list struct {
		Data []common.StockItem `json:"data"`
	}
	decode(t, w, &list)
	if len(list.Data) != 1 || list.Data[0].ItemName != "Wortel" || list.Data[0].OwnerName != inventory.DefaultOwnerName {
		t.Errorf("supplies = %+v", list.Data)
	}
	if list.Data[0].ExpiryDate == "" {
		t.Error("expiry date not filled")
	}
}

func TestSaveSuppliesValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []map[string]interface{}{
		{"owner_id": env.vendor.ID, "items": []interface{}{}},
		{"items": []map[string]interface{}{{"name": "Wortel"}}},
		{"owner_id": env.vendor.ID, "items": []map[string]interface{}{{"name": ""}}},
		{"owner_id": env.vendor.ID, "items": []map[string]interface{}{{"name": "Wortel", "qty": -1}}},
	}
	for i, body := range cases {
		w := env.do(t, http.MethodPost, "/api/v1/supplies", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: status %d, want 400", i, w.Code)
		}
	}
}

func TestSearchSuppliersRanksByDistance(t *testing.T) {
	env := newTestEnv(t)
	env.addSupply(t, "Bayam Hijau", 5, 4)
	if _, err := env.store.InsertSupplies(context.Background(), []common.StockItem{{ItemName: "Bayam Merah", Quantity: 3}}); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodGet, "/api/v1/suppliers/search?q=bayam&lat=-6.2&long=106.8", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Data []logistics.SupplierResult `json:"data"`
	}
	decode(t, w, &out)
	if len(out.Data) != 2 {
		t.Fatalf("results = %d", len(out.Data))
	}
	if out.Data[0].DistanceKm == nil || out.Data[1].DistanceKm != nil {
		t.Errorf("rows without coordinates must sort last: %+v", out.Data)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/suppliers/search?q=", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty keyword: status %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/suppliers/search?q=bayam&lat=-6.2", nil); w.Code != http.StatusBadRequest {
		t.Errorf("lat without long: status %d", w.Code)
	}
}

func TestNearestKitchens(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/sppg/nearest?lat=-6.244&long=106.80", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var out struct {
		Data []logistics.Kitchen `json:"data"`
	}
	decode(t, w, &out)
	if len(out.Data) != len(logistics.Kitchens) {
		t.Fatalf("kitchens = %d", len(out.Data))
	}
	if out.Data[0].ID != 2 {
		t.Errorf("nearest = %s", out.Data[0].Name)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/sppg/nearest", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing coordinates: status %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/sppg/nearest?lat=abc&long=1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad lat: status %d", w.Code)
	}
}

func TestRecommendMenu(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/recommend-menu", map[string]interface{}{"ingredients": []string{"Bayam", "Tahu"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var recipe common.RescueRecipe
	decode(t, w, &recipe)
	if recipe.MenuName != "Tumis Bayam Tahu" || string(recipe.Nutrition.Calories) != "250 kkal" {
		t.Errorf("recipe = %+v", recipe)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/recommend-menu", map[string]interface{}{"ingredients": []string{}}); w.Code != http.StatusBadRequest {
		t.Errorf("empty ingredients: status %d", w.Code)
	}

	env.ai.set("maaf, tidak bisa")
	if w := env.do(t, http.MethodPost, "/api/v1/recommend-menu", map[string]interface{}{"ingredients": []string{"Wortel"}}); w.Code != http.StatusBadGateway {
		t.Errorf("malformed model output: status %d", w.Code)
	}
}

func TestCookAndServe(t *testing.T) {
	env := newTestEnv(t)
	bayam := env.addSupply(t, "Bayam", 5, 1)
	env.ai.set(`{"room_temp_hours": 4, "fridge_hours": 24, "risk_factor": "Sedang", "storage_tips": "Tutup rapat",
		"nutrition": {"calories": 300, "protein": "15g"}}`)

	w := env.do(t, http.MethodPost, "/api/v1/kitchen/cook", map[string]interface{}{
		"menu_name":       "Sayur Bayam",
		"qty_produced":    50,
		"ingredients_ids": []int64{bayam.ID},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("cook: status %d: %s", w.Code, w.Body.String())
	}
	var cooked kitchen.CookResult
	decode(t, w, &cooked)
	if cooked.Meal == nil || cooked.Meal.Status != common.MealStatusFresh {
		t.Fatalf("meal = %+v", cooked.Meal)
	}
	if cooked.SafetyAnalysis.RoomTempHours != 4 {
		t.Errorf("room temp hours = %v", cooked.SafetyAnalysis.RoomTempHours)
	}

	left, _ := env.store.ListSupplies(context.Background(), 0)
	if len(left) != 0 {
		t.Errorf("ingredients not consumed: %+v", left)
	}

	w = env.do(t, http.MethodPut, "/api/v1/kitchen/meals/"+itoa(cooked.Meal.ID)+"/served", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("served: status %d: %s", w.Code, w.Body.String())
	}
	var served struct {
		Data common.MealProduction `json:"data"`
	}
	decode(t, w, &served)
	if served.Data.Status != common.MealStatusServed {
		t.Errorf("status = %s", served.Data.Status)
	}

	if w := env.do(t, http.MethodPut, "/api/v1/kitchen/meals/9999/served", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown meal: status %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/kitchen/cook", map[string]interface{}{"menu_name": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing qty: status %d", w.Code)
	}
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)
	env.ai.set("Masak sayur bening saja.")

	w := env.do(t, http.MethodPost, "/api/v1/kitchen/chat", map[string]interface{}{"message": "Masak apa hari ini?", "user_id": env.vendor.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var out map[string]string
	decode(t, w, &out)
	if out["reply"] != "Masak sayur bening saja." {
		t.Errorf("reply = %q", out["reply"])
	}

	if w := env.do(t, http.MethodPost, "/api/v1/kitchen/chat", map[string]interface{}{"message": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("empty message: status %d", w.Code)
	}
}

func TestPhotoEndpoints(t *testing.T) {
	env := newTestEnv(t)

	env.ai.set(`{"items":[{"name":"Tomat","qty":12,"unit":"buah","freshness":"Segar","expiry_days":5,"visual_reasoning":"merah"}]}`)
	w := env.upload(t, "/api/v1/analyze", pngBytes(t))
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: status %d: %s", w.Code, w.Body.String())
	}
	var detected struct {
		Data []inventory.DetectedItem `json:"data"`
	}
	decode(t, w, &detected)
	if len(detected.Data) != 1 || detected.Data[0].Name != "Tomat" || detected.Data[0].Expiry != 5 {
		t.Errorf("detected = %+v", detected.Data)
	}

	env.ai.set(`{"menu_detected":"Nasi Goreng","is_safe":true,"freshness":"Baik","visual_notes":"ok",` +
		`"nutrition":{"calories":"450","protein":"12g"},"recommendation":"Sajikan"}`)
	w = env.upload(t, "/api/v1/kitchen/quality", pngBytes(t))
	if w.Code != http.StatusOK {
		t.Fatalf("quality: status %d: %s", w.Code, w.Body.String())
	}

	if w := env.upload(t, "/api/v1/analyze", []byte("not an image")); w.Code != http.StatusBadRequest {
		t.Errorf("bad image: status %d", w.Code)
	}
	// no object storage configured
	if w := env.upload(t, "/api/v1/upload", pngBytes(t)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("upload without storage: status %d", w.Code)
	}
}

func TestAnalyticsRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.addSupply(t, "Bayam", 5, 1)

	if w := env.do(t, http.MethodGet, "/api/v1/analytics/kitchen", nil); w.Code != http.StatusOK {
		t.Errorf("kitchen: status %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/analytics/vendor/"+itoa(env.vendor.ID), nil); w.Code != http.StatusOK {
		t.Errorf("vendor: status %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/analytics/vendor/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad vendor id: status %d", w.Code)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestFrontendPathAliases(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/sppg/search?lat=-6.244&long=106.80", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sppg search: status %d", w.Code)
	}
	var out struct {
		Data []logistics.Kitchen `json:"data"`
	}
	decode(t, w, &out)
	if len(out.Data) == 0 || out.Data[0].ID != 2 {
		t.Errorf("kitchens = %+v", out.Data)
	}

	if w := env.do(t, http.MethodGet, "/api/analytics/kitchen", nil); w.Code != http.StatusOK {
		t.Errorf("/api/analytics/kitchen: status %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/notifications/trigger", nil); w.Code != http.StatusOK {
		t.Errorf("/api/notifications/trigger: status %d", w.Code)
	}
}
