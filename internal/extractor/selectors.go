package extractor

// Selectors holds the ordered CSS selector chains for each card field.
// Chains are tried in order and the first match wins, which keeps
// extraction working across the several listing layouts the site serves.
type Selectors struct {
	TitleLink     []string
	CurrentPrice  []string
	OriginalPrice []string
	Image         []string
	Sold          []string
}

// DefaultSelectors returns the chains for the current and legacy listing
// layouts (poly-card and ui-search).
func DefaultSelectors() Selectors {
	return Selectors{
		TitleLink: []string{
			"a.poly-component__title",
			"h2.ui-search-item__title a",
		},
		CurrentPrice: []string{
			"div.poly-component__price div.poly-price__current span.andes-money-amount__fraction",
			"span.andes-money-amount__fraction",
			"span.price-tag-fraction",
		},
		// The bare fraction selector doubles as the first original-price
		// fallback: some layouts render a single price node meaning
		// "no discount", which the price comparison then rejects.
		OriginalPrice: []string{
			"span.andes-money-amount__fraction",
			"span.ui-search-price__original-value span.andes-money-amount__fraction",
			"span.price-tag-original-value",
		},
		Image: []string{
			"div.poly-card__portada img.poly-component__picture",
			"img.ui-search-result-image__element",
			"img[class*='ui-search-result-image']",
		},
		Sold: []string{
			"span.poly-component__sold",
			"span.ui-search-item__group__element",
			"span[class*='ui-search-item__highlight-label']",
		},
	}
}
