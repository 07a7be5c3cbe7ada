package history

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jraargz/ofertasworker/helpers"
	"jraargz/ofertasworker/internal/offer"
	"jraargz/ofertasworker/logger"
)

// Record is a persisted published offer. Records are created when an offer
// wins a run and are never mutated or deleted; only their effect on
// deduplication expires with the window.
type Record struct {
	Title         string `json:"title"`
	Price         int    `json:"price"`
	OriginalPrice int    `json:"original_price"`
	Discount      int    `json:"discount"`
	URL           string `json:"url"`
	Image         string `json:"image"`
	PublishedAt   string `json:"published_at"`
}

// Records maps offer IDs to their published records.
type Records map[string]Record

// Store owns the published-offer history file. The file is loaded fully at
// the start of a run and overwritten fully on save, at most once per run.
type Store struct {
	path   string
	window time.Duration
	log    *logger.Logger
}

// NewStore creates a store over the given history file. window is how long
// a published offer keeps blocking republication.
func NewStore(path string, window time.Duration) *Store {
	return &Store{
		path:   path,
		window: window,
		log:    logger.ForHistory(),
	}
}

// OfferID derives the stable identity of an offer from its normalized title
// only, so re-scraped price changes do not create new identities. The format
// ("offer_" + 8 hex chars) is shared with existing history files.
func OfferID(title string) string {
	sum := md5.Sum([]byte(helpers.NormalizeWhitespace(title)))
	return "offer_" + hex.EncodeToString(sum[:])[:8]
}

// Load reads the whole history file. A missing file is an empty history;
// an unreadable or corrupt file returns an empty history plus the error so
// the caller can log and continue degraded.
func (s *Store) Load() (Records, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Records{}, nil
		}
		return Records{}, fmt.Errorf("failed to read history file: %w", err)
	}

	var records Records
	if err := json.Unmarshal(data, &records); err != nil {
		return Records{}, fmt.Errorf("failed to parse history file: %w", err)
	}
	if records == nil {
		records = Records{}
	}
	return records, nil
}

// Save overwrites the history file with the given records.
func (s *Store) Save(records Records) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Add records a published offer under its derived ID.
func (s *Store) Add(records Records, o offer.Offer, now time.Time) string {
	id := OfferID(o.Title)
	records[id] = Record{
		Title:         o.Title,
		Price:         o.CurrentPrice,
		OriginalPrice: o.OriginalPrice,
		Discount:      o.Discount,
		URL:           o.Link,
		Image:         o.Image,
		PublishedAt:   now.Format(time.RFC3339),
	}
	s.log.Info().Str("offer_id", id).Str("title", o.Title).Msg("Offer recorded in history")
	return id
}

// IsDuplicate reports whether an offer was already published within the
// window, first by exact identity and then by fuzzy title similarity.
// Returns the matched record ID when there is one.
func (s *Store) IsDuplicate(o offer.Offer, records Records, now time.Time) (bool, string) {
	if len(records) == 0 {
		return false, ""
	}

	id := OfferID(o.Title)
	if record, exists := records[id]; exists {
		return s.withinWindow(record.PublishedAt, now), id
	}

	for recordID, record := range records {
		if SimilarTitles(o.Title, record.Title) {
			return s.withinWindow(record.PublishedAt, now), recordID
		}
	}

	return false, ""
}

// withinWindow reports whether a published_at timestamp is recent enough to
// block republication. An unparsable timestamp counts as recent: corrupt
// history data must not cause accidental re-publication.
func (s *Store) withinWindow(publishedAt string, now time.Time) bool {
	published, err := parseTimestamp(publishedAt)
	if err != nil {
		s.log.Warn().Err(err).Str("published_at", publishedAt).Msg("Bad history timestamp, treating as recent")
		return true
	}
	return now.Sub(published) <= s.window
}

// parseTimestamp accepts RFC3339 and the zone-less ISO form older history
// files carry.
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

// SimilarTitles applies a loose heuristic to catch near-duplicate listings
// with cosmetic title variance (color or SKU suffixes): normalized equality,
// substring containment, or more than 3 shared words covering over half of
// the smaller title's word set.
func SimilarTitles(a, b string) bool {
	t1 := helpers.NormalizeWhitespace(a)
	t2 := helpers.NormalizeWhitespace(b)

	if t1 == t2 {
		return true
	}
	if strings.Contains(t1, t2) || strings.Contains(t2, t1) {
		return true
	}

	words1 := wordSet(t1)
	words2 := wordSet(t2)

	common := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			common++
		}
	}

	min := len(words1)
	if len(words2) < min {
		min = len(words2)
	}
	if min == 0 {
		return false
	}

	return common > 3 && float64(common)/float64(min) > 0.5
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
