package scoring

import (
	"sort"

	"jraargz/ofertasworker/internal/offer"
	"jraargz/ofertasworker/internal/resolver"
	"jraargz/ofertasworker/logger"
)

// Engine ranks valid, non-duplicate offers and selects a winner.
type Engine struct {
	resolver *resolver.Resolver
	log      *logger.Logger
}

// NewEngine creates a scoring engine. The resolver re-canonicalizes a
// winner whose link turns out to still be a tracking URL.
func NewEngine(res *resolver.Resolver) *Engine {
	return &Engine{
		resolver: res,
		log:      logger.ForComponent("scoring"),
	}
}

// Score weights an offer's discount against its popularity. High discounts
// and high sales volumes get multiplier bonuses.
func Score(o offer.Offer) float64 {
	discountMultiplier := 1.0
	if o.Discount >= 50 {
		discountMultiplier = 1.5
	}

	salesMultiplier := 1.0
	switch {
	case o.Sold >= 100:
		salesMultiplier = 1.5
	case o.Sold >= 50:
		salesMultiplier = 1.2
	}

	return float64(o.Discount) * discountMultiplier * float64(o.Sold+1) * salesMultiplier
}

// SelectBest ranks the candidates by score and returns the winner after
// post-hoc sanity checks, or ok=false when no candidate survives. Ties keep
// discovery order.
func (e *Engine) SelectBest(offers []offer.Offer) (offer.Offer, bool) {
	if len(offers) == 0 {
		return offer.Offer{}, false
	}

	scores := make(map[int]float64, len(offers))
	for i, o := range offers {
		scores[i] = Score(o)
	}

	order := make([]int, len(offers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	winner := offers[order[0]]
	e.log.Info().
		Str("title", winner.Title).
		Int("discount", winner.Discount).
		Float64("score", scores[order[0]]).
		Msg("Best offer selected")

	winner = e.fixTracking(winner)

	if offer.IsPlaceholderImage(winner.Image) {
		e.log.Warn().Str("title", winner.Title).Msg("Winner has a placeholder image")
		if len(offers) < 2 {
			return offer.Offer{}, false
		}

		// One fallback attempt only
		winner = e.fixTracking(offers[order[1]])
		if offer.IsPlaceholderImage(winner.Image) {
			return offer.Offer{}, false
		}
		e.log.Info().
			Str("title", winner.Title).
			Float64("score", scores[order[1]]).
			Msg("Using runner-up offer")
	}

	return winner, true
}

// fixTracking re-resolves the offer link in place when it still carries a
// tracking marker.
func (e *Engine) fixTracking(o offer.Offer) offer.Offer {
	if e.resolver != nil && resolver.HasTrackingMarker(o.Link) {
		e.log.Warn().Str("link", o.Link).Msg("Winner link is still a tracking URL, re-resolving")
		o.Link = e.resolver.Resolve(o.Link)
	}
	return o
}
