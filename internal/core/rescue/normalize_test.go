package rescue

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind Kind
		wantMenu string
	}{
		{
			name:     "bare object",
			raw:      `{"menu_name":"Sayur Bening","ingredients_needed":["Bayam"],"cooking_steps":["Rebus air"],"nutrition":{"calories":"120 kkal","protein":"5g"},"reason":"cepat"}`,
			wantKind: Ok,
			wantMenu: "Sayur Bening",
		},
		{
			name:     "fenced object with prose",
			raw:      "Berikut resepnya:\n```json\n{\"menu_name\":\"Tumis Tahu\"}\n```\nSelamat mencoba!",
			wantKind: Ok,
			wantMenu: "Tumis Tahu",
		},
		{
			name:     "recommendations wrapper",
			raw:      `{"recommendations":[{"menu_name":"Pepes Tahu"},{"menu_name":"Sop"}]}`,
			wantKind: Unwrapped,
			wantMenu: "Pepes Tahu",
		},
		{
			name:     "top-level list",
			raw:      `[{"menu_name":"Bakwan Sayur"}]`,
			wantKind: Unwrapped,
			wantMenu: "Bakwan Sayur",
		},
		{
			name:     "empty wrapper",
			raw:      `{"recommendations":[]}`,
			wantKind: EmptyList,
		},
		{
			name:     "empty list",
			raw:      `[]`,
			wantKind: EmptyList,
		},
		{
			name:     "not json",
			raw:      "Maaf, saya tidak bisa membantu.",
			wantKind: Malformed,
		},
		{
			name:     "object without menu name",
			raw:      `{"dish":"Sop"}`,
			wantKind: Malformed,
		},
		{
			name:     "list of strings",
			raw:      `["Sop","Tumis"]`,
			wantKind: Malformed,
		},
		{
			name:     "truncated",
			raw:      `{"menu_name":"Sop", "cooking_steps":[`,
			wantKind: Malformed,
		},
		{
			name:     "null menu name",
			raw:      `{"menu_name":null,"cooking_steps":["Rebus"]}`,
			wantKind: Malformed,
		},
		{
			name:     "numeric menu name",
			raw:      `{"menu_name":42}`,
			wantKind: Malformed,
		},
		{
			name:     "bare keys",
			raw:      `{menu_name: "Orek Tempe"}`,
			wantKind: Ok,
			wantMenu: "Orek Tempe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if got.Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if tt.wantMenu != "" {
				if got.Recipe == nil || got.Recipe.MenuName != tt.wantMenu {
					t.Fatalf("menu = %+v, want %q", got.Recipe, tt.wantMenu)
				}
			}
			if got.HasRecipe() != (tt.wantKind == Ok || tt.wantKind == Unwrapped) {
				t.Fatalf("HasRecipe mismatch for %v", got.Kind)
			}
		})
	}
}

func TestNormalize_LenientFields(t *testing.T) {
	raw := `{"menu_name":"Sop Ayam","ingredients_needed":["Wortel",{"name":"Ayam","qty":"200g"},{"item":"Seledri"}],` +
		`"cooking_steps":[{"step":"Rebus ayam"},"Masukkan wortel"],"nutrition":{"calories":250,"protein":"18g"}}`

	res := Normalize(raw)
	if res.Kind != Ok {
		t.Fatalf("kind = %v", res.Kind)
	}
	r := res.Recipe
	want := []string{"Wortel", "Ayam", "Seledri"}
	if len(r.IngredientsNeeded) != len(want) {
		t.Fatalf("ingredients = %v", r.IngredientsNeeded)
	}
	for i := range want {
		if r.IngredientsNeeded[i] != want[i] {
			t.Fatalf("ingredients[%d] = %q, want %q", i, r.IngredientsNeeded[i], want[i])
		}
	}
	if len(r.CookingSteps) != 2 || r.CookingSteps[0] != "Rebus ayam" {
		t.Fatalf("steps = %v", r.CookingSteps)
	}
	if r.Nutrition.Calories != "250" || r.Nutrition.Protein != "18g" {
		t.Fatalf("nutrition = %+v", r.Nutrition)
	}
}

func TestNormalize_MistypedFieldsKeepRecipe(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantSteps []string
		wantIngr  []string
		wantCal   string
		wantProt  string
	}{
		{
			name:      "steps as a single string",
			raw:       `{"menu_name":"Sayur Asem","ingredients_needed":["Labu"],"cooking_steps":"Rebus semua bahan","nutrition":{"calories":"150","protein":"4g"}}`,
			wantSteps: []string{"Rebus semua bahan"},
			wantIngr:  []string{"Labu"},
			wantCal:   "150",
			wantProt:  "4g",
		},
		{
			name:      "nutrition as a string",
			raw:       `{"menu_name":"Sayur Asem","cooking_steps":["Rebus"],"nutrition":"tinggi protein"}`,
			wantSteps: []string{"Rebus"},
			wantIngr:  []string{},
		},
		{
			name:      "calories as an object",
			raw:       `{"menu_name":"Sayur Asem","ingredients_needed":"Labu","nutrition":{"calories":{"value":300},"protein":12}}`,
			wantSteps: []string{},
			wantIngr:  []string{"Labu"},
			wantProt:  "12",
		},
		{
			name:      "lists null and reason numeric",
			raw:       `{"menu_name":"Sayur Asem","ingredients_needed":null,"cooking_steps":{"step":"Rebus"},"reason":7}`,
			wantSteps: []string{"Rebus"},
			wantIngr:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.raw)
			if res.Kind != Ok || !res.HasRecipe() {
				t.Fatalf("kind = %v", res.Kind)
			}
			r := res.Recipe
			if r.MenuName != "Sayur Asem" {
				t.Fatalf("menu = %q", r.MenuName)
			}
			if !equalStrings(r.CookingSteps, tt.wantSteps) {
				t.Errorf("steps = %v, want %v", r.CookingSteps, tt.wantSteps)
			}
			if !equalStrings(r.IngredientsNeeded, tt.wantIngr) {
				t.Errorf("ingredients = %v, want %v", r.IngredientsNeeded, tt.wantIngr)
			}
			if string(r.Nutrition.Calories) != tt.wantCal || string(r.Nutrition.Protein) != tt.wantProt {
				t.Errorf("nutrition = %+v", r.Nutrition)
			}
		})
	}
}

func TestNormalize_UnwrappedWithoutName(t *testing.T) {
	res := Normalize(`[{"cooking_steps":["Goreng"]}]`)
	if res.Kind != Unwrapped || res.Recipe == nil {
		t.Fatalf("kind = %v", res.Kind)
	}
	if res.Recipe.MenuName != "" || len(res.Recipe.CookingSteps) != 1 {
		t.Fatalf("recipe = %+v", res.Recipe)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
