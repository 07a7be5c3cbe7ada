package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jraargz/ofertasworker/config"
	"jraargz/ofertasworker/helpers"
	"jraargz/ofertasworker/internal/extractor"
	"jraargz/ofertasworker/internal/history"
	"jraargz/ofertasworker/internal/offer"
	"jraargz/ofertasworker/internal/scoring"
	"jraargz/ofertasworker/logger"
	scrapeerrors "jraargz/ofertasworker/pkg/errors"
	"jraargz/ofertasworker/services/cache"
	"jraargz/ofertasworker/services/publisher"
)

// Listing-page fallback selector chains, tried in order.
var (
	ContainerSelectors = []string{
		"div.items-with-smart-groups",
		"div.ui-search-results",
		"section.items_container",
	}

	CardSelectors = []string{
		"div.poly-card",
		"li.ui-search-layout__item",
		"div[class*='promotion-item']",
		"div[class*='ui-search-result']",
	}
)

// Pipeline is the top-level scrape run: fetch every configured listing
// page, extract and deduplicate candidate offers, pick a winner, and emit
// the output artifact.
type Pipeline struct {
	cfg        config.Config
	extractor  *extractor.Extractor
	store      *history.Store
	engine     *scoring.Engine
	cache      cache.CacheService
	publishers []publisher.Publisher
	log        *logger.Logger

	// Injection points for tests
	fetch func(url string) (io.Reader, error)
	sleep func(d time.Duration)
	now   func() time.Time
}

// New creates a pipeline. cache may be nil (cooldowns disabled) and
// publishers may be empty.
func New(
	cfg config.Config,
	ext *extractor.Extractor,
	store *history.Store,
	engine *scoring.Engine,
	cacheSvc cache.CacheService,
	publishers []publisher.Publisher,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		extractor:  ext,
		store:      store,
		engine:     engine,
		cache:      cacheSvc,
		publishers: publishers,
		log:        logger.ForScraper(),
		fetch:      helpers.Fetch,
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// Run executes one full scrape. It always leaves the output artifact in
// place — empty when no winner survives — and never lets an error escape.
func (p *Pipeline) Run(ctx context.Context) (winner offer.Offer, found bool) {
	artifactWritten := false
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("Unexpected error during scrape run")
			if !artifactWritten {
				p.writeArtifact(nil)
			}
			found = false
		}
	}()

	p.log.Info().Int("listing_urls", len(p.cfg.ListingURLs)).Msg("Starting scrape run")

	records, err := p.store.Load()
	if err != nil {
		p.log.Error().Err(err).Msg("History unavailable, continuing with empty history")
	}
	p.log.Info().Int("published_offers", len(records)).Msg("History loaded")

	var candidates []offer.Offer
	analyzed := 0

	for _, listingURL := range p.cfg.ListingURLs {
		if ctx.Err() != nil {
			p.log.Warn().Msg("Run cancelled, stopping listing loop")
			break
		}

		pageLog := p.log.WithField("url", listingURL)
		pageLog.Info().Str("category", CategoryForURL(listingURL)).Msg("Scraping listing page")

		if p.coolingDown(listingURL) {
			pageLog.Warn().Msg("Listing URL is cooling down after a rate limit, skipping")
			continue
		}

		doc, err := p.fetchListing(listingURL)
		if err != nil {
			pageLog.Error().Err(err).Msg("All fetch attempts failed, skipping URL")
			continue
		}

		cards, err := p.findCards(doc)
		if err != nil {
			pageLog.Error().Err(err).Msg("No product cards found, skipping URL")
			continue
		}

		pageLog.Info().Int("cards", cards.Length()).Msg("Found product cards")
		analyzed += cards.Length()

		cards.Each(func(i int, card *goquery.Selection) {
			o, ok := p.extractor.Extract(card)
			if !ok {
				return
			}

			if dup, matchedID := p.store.IsDuplicate(o, records, p.now()); dup {
				p.log.Info().
					Str("title", o.Title).
					Str("matched_id", matchedID).
					Msg("Offer already published recently, skipping")
				return
			}

			candidates = append(candidates, o)
		})

		// Politeness pause between listing pages
		p.sleep(p.randomDelay())
	}

	p.log.Info().
		Int("analyzed", analyzed).
		Int("candidates", len(candidates)).
		Msg("Analysis complete")

	best, ok := p.engine.SelectBest(candidates)
	if !ok {
		p.log.Warn().Msg("No publishable offer found this run")
		p.writeArtifact(nil)
		artifactWritten = true
		return offer.Offer{}, false
	}

	if err := p.writeArtifact([]offer.Offer{best}); err != nil {
		p.log.Error().Err(err).Msg("Could not write output artifact")
	}
	artifactWritten = true

	p.store.Add(records, best, p.now())
	if err := p.store.Save(records); err != nil {
		p.log.Error().Err(err).Msg("Could not save history")
	}

	category := CategoryForURL(best.Link)
	for _, pub := range p.publishers {
		// Fire-and-forget: publisher failures never fail the run
		if err := pub.Publish(ctx, category, best); err != nil {
			p.log.Error().Err(err).Msg("Publisher failed")
		}
	}

	p.log.Info().
		Str("title", best.Title).
		Int("discount", best.Discount).
		Msg("Offer published")
	return best, true
}

// fetchListing fetches a listing page with retries and parses it. A rate
// limit response stops retrying immediately and starts a cooldown.
func (p *Pipeline) fetchListing(url string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.FetchAttempts; attempt++ {
		body, err := p.fetch(url)
		if err == nil {
			doc, err := goquery.NewDocumentFromReader(body)
			if err != nil {
				return nil, scrapeerrors.NewInternal("fetch", "failed to parse listing HTML", err)
			}
			return doc, nil
		}

		lastErr = err
		p.log.Error().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", p.cfg.FetchAttempts).
			Str("url", url).
			Msg("Fetch attempt failed")

		if errors.Is(err, helpers.ErrRateLimited) {
			p.startCooldown(url)
			break
		}

		if attempt < p.cfg.FetchAttempts {
			p.sleep(p.randomDelay())
		}
	}

	return nil, scrapeerrors.NewTransport("fetch", url, lastErr)
}

// findCards locates the product-card container and the cards within it,
// each through its fallback selector chain.
func (p *Pipeline) findCards(doc *goquery.Document) (*goquery.Selection, error) {
	var container *goquery.Selection
	for _, selector := range ContainerSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			container = found.First()
			break
		}
	}
	if container == nil {
		return nil, scrapeerrors.NewMarkup("container", "no product container matched any selector")
	}

	for _, selector := range CardSelectors {
		if cards := container.Find(selector); cards.Length() > 0 {
			return cards, nil
		}
	}
	return nil, scrapeerrors.NewMarkup("cards", "no product card matched any selector")
}

// writeArtifact overwrites the output file with a JSON array of 0 or 1
// offers. Downstream tolerates an empty array, never a missing file.
func (p *Pipeline) writeArtifact(offers []offer.Offer) error {
	if offers == nil {
		offers = []offer.Offer{}
	}

	data, err := json.MarshalIndent(offers, "", "  ")
	if err != nil {
		return scrapeerrors.NewPersistence("artifact", "failed to encode offers", err)
	}

	if dir := filepath.Dir(p.cfg.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return scrapeerrors.NewPersistence("artifact", "failed to create output directory", err)
		}
	}

	if err := os.WriteFile(p.cfg.OutputFile, data, 0644); err != nil {
		return scrapeerrors.NewPersistence("artifact", "failed to write output file", err)
	}
	return nil
}

// coolingDown reports whether the listing URL is still blocked after a
// recent rate limit.
func (p *Pipeline) coolingDown(url string) bool {
	if p.cache == nil {
		return false
	}
	_, err := p.cache.Get(cooldownKey(url))
	return err == nil
}

// startCooldown blocks a listing URL for the configured cooldown window.
func (p *Pipeline) startCooldown(url string) {
	if p.cache == nil {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(p.cfg.CooldownTime.Seconds())))
	if err := p.cache.Set(cooldownKey(url), value, p.cfg.CooldownTime); err != nil {
		p.log.Error().Err(err).Str("url", url).Msg("Could not set cooldown")
	}
}

func cooldownKey(url string) string {
	return "ofertas:cooldown:" + url
}

// randomDelay picks a pause in the configured backoff range.
func (p *Pipeline) randomDelay() time.Duration {
	min := p.cfg.BackoffMin
	max := p.cfg.BackoffMax
	if max <= min {
		return min
	}
	return min + time.Duration(mathrand.Int63n(int64(max-min)))
}
