package publisher

import (
	"context"

	"jraargz/ofertasworker/internal/offer"
)

// Publisher hands a winning offer to a downstream consumer. Publish
// failures are logged by the caller but never fail the run.
type Publisher interface {
	// Publish delivers the offer; category tags the entry for consumers
	Publish(ctx context.Context, category string, o offer.Offer) error

	// Close releases any held connections
	Close() error
}
