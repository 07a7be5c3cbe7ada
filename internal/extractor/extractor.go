package extractor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jraargz/ofertasworker/helpers"
	"jraargz/ofertasworker/internal/offer"
	"jraargz/ofertasworker/internal/resolver"
	"jraargz/ofertasworker/logger"
)

// Extractor pulls a validated Offer out of a single listing card node.
type Extractor struct {
	selectors   Selectors
	resolver    *resolver.Resolver
	minDiscount int
	debugDir    string
	log         *logger.Logger
	now         func() time.Time
}

// New creates an extractor. minDiscount is the publish threshold; cards
// below it never produce an offer.
func New(selectors Selectors, res *resolver.Resolver, minDiscount int, debugDir string) *Extractor {
	return &Extractor{
		selectors:   selectors,
		resolver:    res,
		minDiscount: minDiscount,
		debugDir:    debugDir,
		log:         logger.ForExtractor(),
		now:         time.Now,
	}
}

// Extract returns the fully populated offer for a card, or ok=false when any
// required field is missing or invalid. Validation misses are logged and
// skipped; an unexpected panic inside extraction dumps the card markup to the
// debug directory and is likewise swallowed.
func (e *Extractor) Extract(card *goquery.Selection) (result offer.Offer, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("Unexpected error extracting card")
			e.dumpCard(card)
			ok = false
		}
	}()

	titleNode := firstMatch(card, e.selectors.TitleLink)
	if titleNode == nil {
		e.log.Warn().Msg("Selector not found: title")
		return offer.Offer{}, false
	}

	title := strings.TrimSpace(titleNode.Text())
	rawLink, _ := titleNode.Attr("href")
	rawLink = strings.TrimSpace(rawLink)
	if title == "" || rawLink == "" {
		e.log.Warn().Str("title", title).Msg("Missing title text or link href")
		return offer.Offer{}, false
	}

	link := e.resolver.Resolve(rawLink)
	if link == "" {
		e.log.Warn().Str("title", title).Msg("Could not produce a usable link")
		return offer.Offer{}, false
	}

	currentPrice, ok := e.price(card, e.selectors.CurrentPrice, "current_price", title)
	if !ok {
		return offer.Offer{}, false
	}

	originalPrice, ok := e.price(card, e.selectors.OriginalPrice, "original_price", title)
	if !ok {
		return offer.Offer{}, false
	}

	// Not a discount at all
	if originalPrice <= currentPrice {
		e.log.Debug().
			Str("title", title).
			Int("current", currentPrice).
			Int("original", originalPrice).
			Msg("Not a real offer")
		return offer.Offer{}, false
	}

	discount := discountPercent(currentPrice, originalPrice)
	if discount < e.minDiscount {
		e.log.Debug().Str("title", title).Int("discount", discount).Msg("Discount below threshold")
		return offer.Offer{}, false
	}

	image, ok := imageURL(firstMatch(card, e.selectors.Image))
	if !ok {
		e.log.Warn().Str("title", title).Msg("No valid image for offer")
		return offer.Offer{}, false
	}

	return offer.Offer{
		Title:         title,
		CurrentPrice:  currentPrice,
		OriginalPrice: originalPrice,
		Discount:      discount,
		Link:          link,
		Sold:          e.soldCount(card, title),
		Image:         image,
		Timestamp:     offer.FormatTimestamp(e.now()),
	}, true
}

// price extracts and parses an integer price through a selector chain.
func (e *Extractor) price(card *goquery.Selection, chain []string, field, title string) (int, bool) {
	node := firstMatch(card, chain)
	if node == nil {
		e.log.Warn().Str("title", title).Str("field", field).Msg("Selector not found")
		return 0, false
	}

	value, ok := parsePrice(node.Text())
	if !ok {
		e.log.Warn().
			Str("title", title).
			Str("field", field).
			Str("text", node.Text()).
			Msg("Could not parse price as integer")
		return 0, false
	}
	return value, true
}

// soldCount reads the sold units. A soft field: missing node or a node
// without the "vendidos" qualifier defaults to 0.
func (e *Extractor) soldCount(card *goquery.Selection, title string) int {
	node := firstMatch(card, e.selectors.Sold)
	if node == nil {
		e.log.Debug().Str("title", title).Msg("Sold count not found, using 0")
		return 0
	}

	text := strings.ToLower(node.Text())
	if !strings.Contains(text, "vendido") {
		e.log.Debug().Str("title", title).Msg("Sold node lacks qualifier, using 0")
		return 0
	}
	return helpers.ExtractDigits(text)
}

// dumpCard writes the raw card markup to a timestamped debug file.
// Best-effort: any failure here is logged and ignored.
func (e *Extractor) dumpCard(card *goquery.Selection) {
	html, err := goquery.OuterHtml(card)
	if err != nil {
		e.log.Error().Err(err).Msg("Could not render card markup for debug dump")
		return
	}

	if err := os.MkdirAll(e.debugDir, 0755); err != nil {
		e.log.Error().Err(err).Msg("Could not create debug directory")
		return
	}

	name := fmt.Sprintf("debug_product_%s.html", e.now().Format("20060102_150405"))
	path := filepath.Join(e.debugDir, name)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("Could not write debug dump")
		return
	}
	e.log.Info().Str("path", path).Msg("Saved card markup for inspection")
}

// firstMatch walks a selector chain and returns the first matching node,
// or nil when the chain is exhausted.
func firstMatch(s *goquery.Selection, chain []string) *goquery.Selection {
	for _, selector := range chain {
		if found := s.Find(selector); found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

// parsePrice converts a price text to an integer, dropping thousands and
// decimal separators. "1.299" -> 1299.
func parsePrice(text string) (int, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	value, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return value, true
}

// discountPercent computes the rounded discount percentage.
func discountPercent(current, original int) int {
	return int(math.Round(float64(original-current) / float64(original) * 100))
}

// imageURL extracts the picture URL from an img node, preferring the
// lazy-load attribute, rejecting base64 placeholders, and upgrading known
// low-resolution naming conventions to the HD WebP form.
func imageURL(img *goquery.Selection) (string, bool) {
	if img == nil {
		return "", false
	}

	url, _ := img.Attr("data-src")
	if url == "" {
		url, _ = img.Attr("src")
	}
	if offer.IsPlaceholderImage(url) {
		return "", false
	}

	hd := strings.ReplaceAll(url, "O.jpg", "V.webp")
	hd = strings.ReplaceAll(hd, "O.png", "V.webp")

	// NP_-named thumbnails have a 2X variant
	if !strings.Contains(hd, "2X") && strings.Contains(hd, "NP_") {
		hd = strings.Replace(hd, "NP_", "NP_2X_", 1)
	}

	return hd, true
}
