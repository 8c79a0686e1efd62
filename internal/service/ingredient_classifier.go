package service

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// DefaultClassifierCacheSize bounds the classification cache when none is configured.
const DefaultClassifierCacheSize = 4096

var ingredientKeywords = map[domain.IngredientCategory][]string{
	domain.IngredientWater: {
		"water", "carbonated water", "sparkling water", "mineral water", "filtered water", "spring water",
	},
	domain.IngredientFruit: {
		"apple", "banana", "orange", "lemon", "lime", "grape", "strawberry", "strawberries", "blueberry",
		"blueberries", "raspberry", "raspberries", "cherry", "cherries", "mango", "pineapple", "peach",
		"pear", "apricot", "plum", "date", "raisin", "cranberry", "cranberries", "fig", "coconut",
		"pomegranate", "kiwi", "papaya", "grapefruit", "berries", "fruit", "fruit puree", "fruit juice",
	},
	domain.IngredientVegetable: {
		"tomato", "tomatoes", "carrot", "onion", "garlic", "spinach", "kale", "broccoli", "pepper",
		"bell pepper", "celery", "cucumber", "potato", "potatoes", "sweet potato", "beet", "beetroot",
		"pumpkin", "squash", "zucchini", "cabbage", "cauliflower", "lettuce", "mushroom", "mushrooms",
		"corn", "sweet corn", "pea", "peas", "olive", "olives", "water chestnut", "vegetable", "vegetables",
		"leek", "asparagus", "artichoke", "eggplant",
	},
	domain.IngredientLegume: {
		"bean", "beans", "black beans", "kidney beans", "chickpea", "chickpeas", "lentil", "lentils",
		"soybean", "soybeans", "edamame", "pinto beans", "navy beans", "split peas", "legumes",
	},
	domain.IngredientNutSeed: {
		"almond", "almonds", "cashew", "cashews", "walnut", "walnuts", "pecan", "pecans", "hazelnut",
		"hazelnuts", "pistachio", "pistachios", "peanut", "peanuts", "macadamia", "sunflower seeds",
		"pumpkin seeds", "chia seeds", "flaxseed", "flax seeds", "sesame seeds", "hemp seeds", "seeds", "nuts",
	},
	domain.IngredientWholeGrain: {
		"whole wheat", "whole wheat flour", "whole grain", "whole grain oats", "oats", "rolled oats",
		"oat flour", "brown rice", "quinoa", "whole rye", "barley", "buckwheat", "millet", "bulgur",
		"whole grain corn", "wheat bran", "oat bran",
	},
	domain.IngredientRefinedGrain: {
		"wheat flour", "enriched flour", "enriched wheat flour", "white flour", "flour", "white rice",
		"rice flour", "corn starch", "cornstarch", "modified starch", "modified corn starch", "semolina",
		"maltodextrin", "starch",
	},
	domain.IngredientDairy: {
		"milk", "skim milk", "whole milk", "cream", "butter", "cheese", "yogurt", "yoghurt", "whey",
		"casein", "buttermilk", "lactose", "milk powder", "nonfat milk",
	},
	domain.IngredientMeat: {
		"beef", "pork", "chicken", "turkey", "lamb", "bacon", "ham", "sausage", "meat",
	},
	domain.IngredientFish: {
		"fish", "salmon", "tuna", "cod", "anchovy", "anchovies", "sardines", "shrimp", "crab",
	},
	domain.IngredientEgg: {
		"egg", "eggs", "egg whites", "egg yolk", "whole eggs",
	},
	domain.IngredientHealthyFat: {
		"olive oil", "extra virgin olive oil", "avocado oil", "avocado", "flaxseed oil", "walnut oil",
	},
	domain.IngredientRefinedOil: {
		"vegetable oil", "palm oil", "palm kernel oil", "canola oil", "rapeseed oil", "soybean oil",
		"corn oil", "cottonseed oil", "sunflower oil", "safflower oil", "hydrogenated oil",
		"partially hydrogenated", "partially hydrogenated soybean oil", "shortening", "margarine",
		"vegetable shortening", "interesterified",
	},
	domain.IngredientAddedSugar: {
		"sugar", "cane sugar", "brown sugar", "corn syrup", "high fructose corn syrup", "glucose syrup",
		"glucose", "fructose", "dextrose", "sucrose", "maltose", "honey", "molasses", "agave",
		"agave syrup", "maple syrup", "rice syrup", "brown rice syrup", "invert sugar", "syrup",
		"cane juice", "evaporated cane juice", "fruit juice concentrate",
	},
	domain.IngredientNonNutritiveSweetener: {
		"aspartame", "sucralose", "acesulfame", "acesulfame potassium", "acesulfame k", "saccharin",
		"stevia", "steviol glycosides", "rebaudioside", "monk fruit extract", "erythritol", "xylitol",
		"sorbitol", "maltitol", "neotame", "advantame", "cyclamate",
	},
	domain.IngredientUltraProcessed: {
		"hydrolyzed vegetable protein", "hydrolysed vegetable protein", "protein isolate", "soy protein isolate",
		"mechanically separated", "artificial flavor", "artificial flavors", "artificial flavour",
		"flavor enhancer", "modified milk ingredients", "processed cheese", "textured vegetable protein",
		"high fructose corn syrup",
	},
	domain.IngredientAdditive: {
		"natural flavor", "natural flavors", "flavoring", "color", "colour", "emulsifier", "stabilizer",
		"thickener", "preservative", "citric acid", "lecithin", "soy lecithin", "xanthan gum", "guar gum",
		"carrageenan", "gum arabic", "pectin", "sodium benzoate", "potassium sorbate", "caramel color",
		"phosphoric acid", "ascorbic acid",
	},
	domain.IngredientSalt: {
		"salt", "sea salt", "sodium chloride", "kosher salt", "himalayan salt",
	},
}

// Categories checked earlier win ties between equally long keywords.
var categoryPriority = []domain.IngredientCategory{
	domain.IngredientUltraProcessed,
	domain.IngredientNonNutritiveSweetener,
	domain.IngredientRefinedOil,
	domain.IngredientHealthyFat,
	domain.IngredientAddedSugar,
	domain.IngredientWholeGrain,
	domain.IngredientRefinedGrain,
	domain.IngredientWater,
	domain.IngredientLegume,
	domain.IngredientNutSeed,
	domain.IngredientFruit,
	domain.IngredientVegetable,
	domain.IngredientDairy,
	domain.IngredientEgg,
	domain.IngredientMeat,
	domain.IngredientFish,
	domain.IngredientSalt,
	domain.IngredientAdditive,
}

type classifierKeyword struct {
	phrase   string
	category domain.IngredientCategory
}

// KeywordIngredientClassifier classifies ingredient names by their longest matching
// keyword phrase. Results are memoized in an LRU cache; the classifier is safe for
// concurrent use.
type KeywordIngredientClassifier struct {
	logger   *logrus.Logger
	keywords []classifierKeyword
	cache    *lru.Cache[string, domain.IngredientClassification]
}

// NewKeywordIngredientClassifier creates a classifier with a cache of cacheSize entries.
func NewKeywordIngredientClassifier(logger *logrus.Logger, cacheSize int) (*KeywordIngredientClassifier, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultClassifierCacheSize
	}
	cache, err := lru.New[string, domain.IngredientClassification](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification cache: %w", err)
	}

	var keywords []classifierKeyword
	for _, category := range categoryPriority {
		for _, phrase := range ingredientKeywords[category] {
			keywords = append(keywords, classifierKeyword{phrase: phrase, category: category})
		}
	}

	return &KeywordIngredientClassifier{
		logger:   logger,
		keywords: keywords,
		cache:    cache,
	}, nil
}

// Classify implements domain.IngredientClassifier.
func (c *KeywordIngredientClassifier) Classify(name string) domain.IngredientClassification {
	key := NormalizeIngredientName(name)
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	result := c.classify(key)
	c.cache.Add(key, result)

	c.logger.WithFields(logrus.Fields{
		"ingredient": key,
		"category":   result.Category,
	}).Debug("Classified ingredient")

	return result
}

func (c *KeywordIngredientClassifier) classify(normalized string) domain.IngredientClassification {
	if normalized == "" {
		return domain.IngredientClassification{Category: domain.IngredientUnknown}
	}
	padded := " " + normalized + " "

	var best *classifierKeyword
	for i := range c.keywords {
		kw := &c.keywords[i]
		if !containsPhrase(padded, kw.phrase) {
			continue
		}
		if best == nil || len(kw.phrase) > len(best.phrase) {
			best = kw
		}
	}
	if best == nil {
		return domain.IngredientClassification{
			Category:    domain.IngredientUnknown,
			Explanation: "no matching keyword",
		}
	}
	return domain.IngredientClassification{
		Category:    best.category,
		Explanation: fmt.Sprintf("matched %q", best.phrase),
	}
}

// containsPhrase matches whole words, allowing a trailing plural "s".
func containsPhrase(padded, phrase string) bool {
	return strings.Contains(padded, " "+phrase+" ") || strings.Contains(padded, " "+phrase+"s ")
}
