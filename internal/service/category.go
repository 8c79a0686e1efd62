package service

import (
	"strings"

	"github.com/food-health-score-server/internal/domain"
)

// categoryKeywords is checked in order; the first category with a matching
// keyword wins, so narrower categories are listed before broader ones. Keywords
// match whole words with an optional plural "s", and multi-word keywords of every
// category are tried before any single word.
var categoryKeywords = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryNutButter, []string{"peanut butter", "almond butter", "nut butter", "cashew butter", "hazelnut spread", "tahini"}},
	{domain.CategoryDriedFruit, []string{"dried fruit", "raisin", "dried apricot", "prune", "dates", "dried mango", "dried mangoes", "dried cranberry", "dried cranberries"}},
	{domain.CategoryBreakfastCereal, []string{"breakfast cereal", "cereal", "granola", "muesli", "oatmeal", "porridge", "corn flakes", "rolled oats", "steel cut oats"}},
	{domain.CategoryDressing, []string{"dressing", "vinaigrette", "mayonnaise", "mayo"}},
	{domain.CategoryCondiment, []string{"condiment", "ketchup", "mustard", "sauce", "relish", "salsa", "soy sauce", "seasoning"}},
	{domain.CategoryCheese, []string{"cheese", "cheddar", "mozzarella", "parmesan", "brie", "feta"}},
	{domain.CategoryYogurt, []string{"yogurt", "yoghurt", "skyr", "kefir"}},
	{domain.CategoryBeverage, []string{"beverage", "drink", "soda", "juice", "water", "tea", "coffee", "smoothie", "kombucha", "lemonade", "soft drink", "sparkling", "oat milk", "almond milk", "soy milk"}},
	{domain.CategoryDairy, []string{"dairy", "milk", "cream", "butter"}},
	{domain.CategoryNutsSeeds, []string{"nuts", "seeds", "almond", "cashew", "walnut", "pistachio", "peanut", "trail mix"}},
	{domain.CategoryBreadBakery, []string{"bread", "bakery", "bagel", "tortilla", "muffin", "croissant", "bun", "roll"}},
	{domain.CategoryConfectionery, []string{"candy", "chocolate", "confection", "sweets", "gummy", "gummies", "cookie", "biscuit", "dessert"}},
	{domain.CategorySnack, []string{"water cracker", "rice cake", "snack", "chips", "crisps", "cracker", "pretzel", "popcorn", "bar"}},
}

// MapCategory maps a free-text category (falling back to the product name) to a
// normalized category. Exact category keys are accepted as-is.
func MapCategory(category, name string) domain.Category {
	if c, err := domain.ParseCategory(category); err == nil {
		return c
	}
	if c, ok := matchCategory(category); ok {
		return c
	}
	if c, ok := matchCategory(name); ok {
		return c
	}
	return domain.CategoryOther
}

func matchCategory(text string) (domain.Category, bool) {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	words := " " + strings.Join(strings.FieldsFunc(text, isSeparator), " ") + " "
	for _, multiWord := range []bool{true, false} {
		for _, entry := range categoryKeywords {
			for _, kw := range entry.keywords {
				if strings.Contains(kw, " ") == multiWord && containsPhrase(words, kw) {
					return entry.category, true
				}
			}
		}
	}
	return "", false
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', ',', ';', ':', '/', '-', '_', '(', ')', '&', '.':
		return true
	default:
		return false
	}
}
