package offer

import (
	"strings"
	"time"
)

// Offer is a fully validated discount offer extracted from a listing card.
// The JSON field names match the artifact consumed by the downstream bot,
// so they stay in Spanish.
type Offer struct {
	Title         string `json:"titulo"`
	CurrentPrice  int    `json:"precio_actual"`
	OriginalPrice int    `json:"precio_original"`
	Discount      int    `json:"descuento"`
	Link          string `json:"enlace"`
	Sold          int    `json:"vendidos"`
	Image         string `json:"imagen"`
	Timestamp     string `json:"timestamp"`
}

// FormatTimestamp renders an observation time the way the artifact expects.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// IsPlaceholderImage reports whether an image URL is empty or a base64
// embedded placeholder rather than a real picture.
func IsPlaceholderImage(url string) bool {
	return url == "" || strings.HasPrefix(url, "data:image")
}
