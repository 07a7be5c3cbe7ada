package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jraargz/ofertasworker/internal/offer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "published_offers.json"), 30*24*time.Hour)
}

func testOffer(title string) offer.Offer {
	return offer.Offer{
		Title:         title,
		CurrentPrice:  5999,
		OriginalPrice: 9999,
		Discount:      40,
		Link:          "https://articulo.mercadolibre.com.mx/MLM-123-item",
		Sold:          60,
		Image:         "https://http2.mlstatic.com/D_NP_2X_1-V.webp",
	}
}

func TestOfferID(t *testing.T) {
	id := OfferID("Consola Nintendo Switch")
	assert.Len(t, id, len("offer_")+8)
	assert.Regexp(t, `^offer_[0-9a-f]{8}$`, id)

	// Identity is a pure function of the normalized title
	assert.Equal(t, OfferID("Consola Nintendo Switch"), OfferID("  consola   NINTENDO switch "))
	assert.NotEqual(t, OfferID("Consola Nintendo Switch"), OfferID("Consola Nintendo Switch Oled"))
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	records, err := store.Load()
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "published_offers.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := NewStore(path, 30*24*time.Hour)
	records, err := store.Load()
	assert.Error(t, err)
	assert.Empty(t, records)
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	records := Records{}
	id := store.Add(records, testOffer("Consola Nintendo Switch"), now)
	require.NoError(t, store.Save(records))

	loaded, err := store.Load()
	assert.NoError(t, err)
	require.Contains(t, loaded, id)
	assert.Equal(t, "Consola Nintendo Switch", loaded[id].Title)
	assert.Equal(t, 5999, loaded[id].Price)
	assert.Equal(t, 9999, loaded[id].OriginalPrice)
	assert.Equal(t, 40, loaded[id].Discount)
	assert.Equal(t, now.Format(time.RFC3339), loaded[id].PublishedAt)
}

func TestIsDuplicateExactMatch(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	o := testOffer("Consola Nintendo Switch")

	records := Records{}
	id := store.Add(records, o, now.Add(-24*time.Hour))

	dup, matched := store.IsDuplicate(o, records, now)
	assert.True(t, dup)
	assert.Equal(t, id, matched)
}

func TestIsDuplicateWindowBoundary(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	o := testOffer("Consola Nintendo Switch")

	// Published exactly 30 days ago: still a duplicate
	records := Records{}
	store.Add(records, o, now.Add(-30*24*time.Hour))
	dup, _ := store.IsDuplicate(o, records, now)
	assert.True(t, dup)

	// Published 31 days ago: republication permitted
	records = Records{}
	store.Add(records, o, now.Add(-31*24*time.Hour))
	dup, matched := store.IsDuplicate(o, records, now)
	assert.False(t, dup)
	assert.NotEmpty(t, matched)
}

func TestIsDuplicateSimilarTitle(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	records := Records{}
	store.Add(records, testOffer("Samsung Galaxy A15 128gb Negro Telcel"), now.Add(-24*time.Hour))

	// Same product, different color: caught by the fuzzy matcher
	dup, matched := store.IsDuplicate(testOffer("Samsung Galaxy A15 128gb Azul Telcel"), records, now)
	assert.True(t, dup)
	assert.NotEmpty(t, matched)

	// Unrelated product passes through
	dup, matched = store.IsDuplicate(testOffer("Licuadora Oster 3 Velocidades"), records, now)
	assert.False(t, dup)
	assert.Empty(t, matched)
}

func TestIsDuplicateBadTimestamp(t *testing.T) {
	store := newTestStore(t)
	o := testOffer("Consola Nintendo Switch")

	// A record with a corrupt date must be treated as recently published
	records := Records{
		OfferID(o.Title): {Title: o.Title, PublishedAt: "no-es-una-fecha"},
	}
	dup, _ := store.IsDuplicate(o, records, time.Now())
	assert.True(t, dup)
}

func TestIsDuplicateEmptyHistory(t *testing.T) {
	store := newTestStore(t)
	dup, matched := store.IsDuplicate(testOffer("Lo Que Sea"), Records{}, time.Now())
	assert.False(t, dup)
	assert.Empty(t, matched)
}

func TestParseTimestampZoneless(t *testing.T) {
	// Older history files carry zone-less ISO timestamps
	parsed, err := parseTimestamp("2026-08-01T10:30:00")
	assert.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())

	parsed, err = parseTimestamp("2026-08-01T10:30:00Z")
	assert.NoError(t, err)
	assert.Equal(t, time.August, parsed.Month())
}

func TestSimilarTitles(t *testing.T) {
	// Shared words above count and ratio thresholds
	assert.True(t, SimilarTitles("Samsung Galaxy A15 128GB Negro", "Samsung Galaxy A15 128GB Azul"))
	// Too little in common
	assert.False(t, SimilarTitles("iPhone 13", "MacBook Pro"))
	// Case and whitespace insensitive equality
	assert.True(t, SimilarTitles("  Nintendo   Switch ", "nintendo switch"))
	// Substring containment
	assert.True(t, SimilarTitles("iPhone 13", "iphone 13 pro max 256gb"))
	// Exactly 3 common words is not enough
	assert.False(t, SimilarTitles("Bocina Sony Azul Chica", "Bocina Sony Azul Grande Nueva Sellada Original"))
}
