package rescue

import (
	"bytes"
	"encoding/json"
	"strings"

	"bekal-bangsa/internal/pkg/common"
)

// Kind tags the shape recipe generator output was found in.
type Kind int

const (
	// Malformed output carries no usable recipe.
	Malformed Kind = iota
	// Ok is a bare recipe object.
	Ok
	// Unwrapped is the first element of a list or of a "recommendations" wrapper.
	Unwrapped
	// EmptyList is a list or wrapper with no candidates.
	EmptyList
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case Unwrapped:
		return "unwrapped"
	case EmptyList:
		return "empty_list"
	default:
		return "malformed"
	}
}

// Result is the outcome of Normalize. Recipe is set only for Ok and Unwrapped.
type Result struct {
	Kind   Kind
	Recipe *common.RescueRecipe
}

// HasRecipe reports whether a recipe was recovered.
func (r Result) HasRecipe() bool {
	return (r.Kind == Ok || r.Kind == Unwrapped) && r.Recipe != nil
}

// looseListItem is a string, a number, or an object with a name/item/step field.
type looseListItem string

func (l *looseListItem) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = looseListItem(s)
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(b, &obj); err == nil {
		for _, k := range []string{"name", "item", "step", "description"} {
			if v, ok := obj[k].(string); ok {
				*l = looseListItem(v)
				return nil
			}
		}
		*l = ""
		return nil
	}
	*l = looseListItem(strings.Trim(string(b), `"`))
	return nil
}

// Normalize turns raw generator text into a tagged Result. JSON is located inside markdown
// fences or surrounding prose first.
func Normalize(raw string) Result {
	body := common.ExtractJSON(raw)
	if body == "" {
		return Result{Kind: Malformed}
	}

	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		// models sometimes emit bare keys
		if err := json.Unmarshal([]byte(common.QuoteJSONKeys(body)), &v); err != nil {
			return Result{Kind: Malformed}
		}
		body = common.QuoteJSONKeys(body)
	}

	switch t := v.(type) {
	case []interface{}:
		return fromList(t)
	case map[string]interface{}:
		if recs, ok := t["recommendations"]; ok {
			list, ok := recs.([]interface{})
			if !ok {
				return Result{Kind: Malformed}
			}
			return fromList(list)
		}
		if _, ok := t["menu_name"].(string); !ok {
			return Result{Kind: Malformed}
		}
		recipe, ok := decodeRecipe([]byte(body))
		if !ok {
			return Result{Kind: Malformed}
		}
		return Result{Kind: Ok, Recipe: recipe}
	}
	return Result{Kind: Malformed}
}

func fromList(list []interface{}) Result {
	if len(list) == 0 {
		return Result{Kind: EmptyList}
	}
	first, ok := list[0].(map[string]interface{})
	if !ok {
		return Result{Kind: Malformed}
	}
	b, err := json.Marshal(first)
	if err != nil {
		return Result{Kind: Malformed}
	}
	recipe, ok := decodeRecipe(b)
	if !ok {
		return Result{Kind: Malformed}
	}
	return Result{Kind: Unwrapped, Recipe: recipe}
}

// decodeRecipe reads each field on its own so one badly typed field does not discard the
// rest. It fails only when b is not a JSON object.
func decodeRecipe(b []byte) (*common.RescueRecipe, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, false
	}
	return &common.RescueRecipe{
		MenuName:          strings.TrimSpace(looseString(fields["menu_name"])),
		IngredientsNeeded: looseList(fields["ingredients_needed"]),
		CookingSteps:      looseList(fields["cooking_steps"]),
		Nutrition:         looseNutrition(fields["nutrition"]),
		Reason:            strings.TrimSpace(looseString(fields["reason"])),
	}, true
}

// looseString decodes a string or number; anything else is empty.
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var f common.FlexString
	if err := json.Unmarshal(raw, &f); err != nil {
		return ""
	}
	return string(f)
}

// looseList accepts a list of items or a single item standing for a one-element list.
func looseList(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}
	}
	var items []looseListItem
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return []string{}
		}
	} else {
		var one looseListItem
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return []string{}
		}
		items = []looseListItem{one}
	}
	return flatten(items)
}

// looseNutrition keeps the values that are strings or numbers. A non-object is empty.
func looseNutrition(raw json.RawMessage) common.Nutrition {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil {
		return common.Nutrition{}
	}
	return common.Nutrition{
		Calories: common.FlexString(looseString(fields["calories"])),
		Protein:  common.FlexString(looseString(fields["protein"])),
		Carbs:    common.FlexString(looseString(fields["carbs"])),
		Fats:     common.FlexString(looseString(fields["fats"])),
	}
}

func flatten(items []looseListItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(string(it)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
