package osmload

import (
	"sort"

	"github.com/lintang-b-s/osm-geoenrich/pkg"
	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
	"github.com/paulmach/osm"
)

// CategoryRule assigns a feature to Category when its Key tag equals Value.
type CategoryRule struct {
	Category datastructure.Category `json:"category" mapstructure:"category"`
	Key      string                 `json:"key" mapstructure:"key"`
	Value    string                 `json:"value" mapstructure:"value"`
}

// TagRule is the {key, value} pair of one CITY_OBJECTS entry.
type TagRule struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: datastructure.Subway, Key: "railway", Value: "subway_entrance"},
		{Category: datastructure.Pharmacy, Key: "amenity", Value: "pharmacy"},
		{Category: datastructure.Kindergarten, Key: "amenity", Value: "kindergarten"},
		{Category: datastructure.School, Key: "amenity", Value: "school"},
		{Category: datastructure.Bank, Key: "amenity", Value: "bank"},
		{Category: datastructure.Supermarket, Key: "shop", Value: "supermarket"},
		{Category: datastructure.Convenience, Key: "shop", Value: "convenience"},
		{Category: datastructure.Mall, Key: "shop", Value: "mall"},
	}
}

// RulesFromMap turns the CITY_OBJECTS configuration (category -> {key, value}) into rules,
// ordered by category name.
func RulesFromMap(objects map[string]TagRule) ([]CategoryRule, error) {
	rules := make([]CategoryRule, 0, len(objects))
	for category, rule := range objects {
		if category == "" || rule.Key == "" || rule.Value == "" {
			return nil, pkg.WrapErrorf(nil, pkg.ErrBadParamInput,
				"category rule %q needs a non-empty key and value", category)
		}
		rules = append(rules, CategoryRule{
			Category: datastructure.Category(category),
			Key:      rule.Key,
			Value:    rule.Value,
		})
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Category < rules[j].Category
	})
	return rules, nil
}

// matchCategories returns every category whose rule matches tags.
func matchCategories(rules []CategoryRule, tags osm.Tags) []datastructure.Category {
	var matched []datastructure.Category
	for _, rule := range rules {
		if tags.Find(rule.Key) == rule.Value {
			matched = append(matched, rule.Category)
		}
	}
	return matched
}
