package resolver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractProductID(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		id    string
		found bool
	}{
		{"item code", "https://articulo.mercadolibre.com.mx/MLM12345678-consola", "12345678", true},
		{"catalog page", "https://www.mercadolibre.com.mx/p/MLM18934120", "18934120", true},
		{"listing position", "https://www.mercadolibre.com.mx/oferta-_JM#position=7", "7", true},
		{"legacy id param", "https://tracking.example.com/go_ID=998877", "998877", true},
		{"numeric slug", "https://example.com/2609380722-item", "2609380722", true},
		{"long path segment", "https://example.com/p/1234567/detail", "1234567", true},
		{"short numeric segment", "https://example.com/p/123/detail", "", false},
		{"no id at all", "https://example.com/about", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found := ExtractProductID(tt.url)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestStripQueryFragment(t *testing.T) {
	assert.Equal(t, "https://example.com/item",
		StripQueryFragment("https://example.com/item?a=1&b=2#frag"))
	assert.Equal(t, "https://example.com/item",
		StripQueryFragment("https://example.com/item#frag"))
	assert.Equal(t, "https://example.com/item",
		StripQueryFragment("https://example.com/item"))
}

func TestHasTrackingMarker(t *testing.T) {
	assert.True(t, HasTrackingMarker("https://click1.mercadolibre.com.mx/mclics/clicks"))
	assert.True(t, HasTrackingMarker("https://click.mercadolibre.com.mx/x"))
	assert.False(t, HasTrackingMarker("https://articulo.mercadolibre.com.mx/MLM-1-item"))
}

func TestResolveDirectProductURL(t *testing.T) {
	r := New(time.Second)

	// Product-domain URLs without tracking markers resolve with no network call
	got := r.Resolve("https://articulo.mercadolibre.com.mx/MLM-12345-consola?tracking_id=abc#position=3")
	assert.Equal(t, "https://articulo.mercadolibre.com.mx/MLM-12345-consola", got)
}

func TestResolveNoIDFallsBackToStrippedURL(t *testing.T) {
	r := New(time.Second)

	got := r.Resolve("https://example.com/promo?utm=1#x")
	assert.Equal(t, "https://example.com/promo", got)
}

func TestResolveFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final/product", http.StatusFound)
	})
	mux.HandleFunc("/final/product", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	r := New(2 * time.Second)
	got := r.Resolve(server.URL + "/start/123456-item?a=1")
	assert.Equal(t, server.URL+"/final/product", got)
}

func TestResolveTrackingFinalURLUsesGeneric(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/click/still-tracking", http.StatusFound)
	})
	mux.HandleFunc("/click/still-tracking", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	r := New(2 * time.Second)
	got := r.Resolve(server.URL + "/start/123456-item")
	assert.Equal(t, "https://articulo.mercadolibre.com.mx/MLM-123456-item", got)
}

func TestResolveRequestFailureUsesGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	r := New(500 * time.Millisecond)
	got := r.Resolve(serverURL + "/start/987654-item")
	assert.Equal(t, "https://articulo.mercadolibre.com.mx/MLM-987654-item", got)
}

func TestResolveBadStatusUsesGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	r := New(2 * time.Second)
	got := r.Resolve(server.URL + "/start/555555-item")
	assert.Equal(t, "https://articulo.mercadolibre.com.mx/MLM-555555-item", got)
}
