package scraper

import "strings"

// categoryRules map URL keywords to a product category, checked in order.
var categoryRules = []struct {
	name     string
	keywords []string
}{
	{"videojuegos", []string{"videojuegos", "consolas", "gaming"}},
	{"electronica", []string{"electronica", "audio", "tv", "celulares", "smartphones"}},
	{"computacion", []string{"computacion", "laptops", "notebooks", "pc", "computadoras"}},
	{"tecnologia", []string{"tecnologia", "gadgets", "smartwatch", "tablets"}},
}

const defaultCategory = "tecnologia"

// CategoryForURL classifies a URL by the keywords in it. URLs with no known
// keyword fall back to the default category.
func CategoryForURL(url string) string {
	lower := strings.ToLower(url)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.name
			}
		}
	}
	return defaultCategory
}
