package resolver

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"jraargz/ofertasworker/helpers"
	"jraargz/ofertasworker/logger"
)

const (
	productDomain    = "mercadolibre.com.mx"
	genericURLPrefix = "https://articulo.mercadolibre.com.mx/MLM-"
	genericURLSuffix = "-item"
)

// trackingMarkers appear in redirector/click-counter URLs, never in a
// canonical product URL.
var trackingMarkers = []string{"click", "mclics"}

// idPatterns are tried in order; first match wins.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`MLA?M(\d+)`),           // MLM12345678 item codes
	regexp.MustCompile(`/p/MLA?M(\d+)`),        // catalog product pages
	regexp.MustCompile(`-_JM#position=(\d+)`),  // listing position marker
	regexp.MustCompile(`_ID=(\d+)`),            // legacy link format
	regexp.MustCompile(`/(\d+)-`),              // numeric slug prefix
}

// Resolver canonicalizes raw product links, resolving tracking redirects
// into stable product URLs. It never fails: every path degrades to a
// best-effort URL string.
type Resolver struct {
	client *http.Client
	log    *logger.Logger
}

// New creates a resolver whose redirect-following requests are bounded by
// the given timeout.
func New(timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		log:    logger.ForResolver(),
	}
}

// Resolve turns a raw (possibly tracking) product link into a stable URL
// with no query string or fragment.
func (r *Resolver) Resolve(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	// Already a direct product URL: just strip tracking params and fragments.
	if strings.Contains(rawURL, productDomain) && !HasTrackingMarker(rawURL) {
		return StripQueryFragment(rawURL)
	}

	productID, ok := ExtractProductID(rawURL)
	if !ok {
		r.log.Warn().Str("url", rawURL).Msg("No product ID found, returning stripped URL")
		return StripQueryFragment(rawURL)
	}

	r.log.Debug().Str("product_id", productID).Msg("Extracted product ID")

	finalURL, err := r.followRedirects(rawURL)
	if err != nil {
		r.log.Warn().Err(err).Str("url", rawURL).Msg("Redirect resolution failed, using generic URL")
		return genericURL(productID)
	}

	if HasTrackingMarker(finalURL) {
		r.log.Debug().Str("url", finalURL).Msg("Final URL still a tracking link, using generic URL")
		return genericURL(productID)
	}

	return finalURL
}

// followRedirects GETs the URL with browser headers and returns the final
// URL after redirects, stripped of query and fragment.
func (r *Resolver) followRedirects(rawURL string) (string, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return "", err
	}
	helpers.SetBrowserHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("resolve %s unexpected status code: %d", rawURL, resp.StatusCode)
	}

	return StripQueryFragment(resp.Request.URL.String()), nil
}

// ExtractProductID pulls a numeric product identifier out of a raw URL.
func ExtractProductID(rawURL string) (string, bool) {
	for _, pattern := range idPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1], true
		}
	}

	// Fall back to any long numeric path segment; product IDs run > 5 digits.
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	for _, part := range strings.Split(parsed.Path, "/") {
		if len(part) > 5 && isDigits(part) {
			return part, true
		}
	}

	return "", false
}

// HasTrackingMarker reports whether a URL contains a known tracking-domain marker.
func HasTrackingMarker(rawURL string) bool {
	for _, marker := range trackingMarkers {
		if strings.Contains(rawURL, marker) {
			return true
		}
	}
	return false
}

// StripQueryFragment removes the query string and fragment from a URL.
func StripQueryFragment(rawURL string) string {
	cut, _, _ := strings.Cut(rawURL, "?")
	cut, _, _ = strings.Cut(cut, "#")
	return cut
}

func genericURL(productID string) string {
	return genericURLPrefix + productID + genericURLSuffix
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
