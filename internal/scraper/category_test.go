package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryForURL(t *testing.T) {
	tests := []struct {
		url      string
		category string
	}{
		{"https://www.mercadolibre.com.mx/ofertas/videojuegos", "videojuegos"},
		{"https://www.mercadolibre.com.mx/gaming/consolas-nuevas", "videojuegos"},
		{"https://www.mercadolibre.com.mx/celulares-smartphones", "electronica"},
		{"https://www.mercadolibre.com.mx/laptops-accesorios", "computacion"},
		{"https://www.mercadolibre.com.mx/smartwatch-deportivo", "tecnologia"},
		{"https://www.mercadolibre.com.mx/ofertas?category=MLM1144", "tecnologia"},
		{"https://example.com/sin-pistas", "tecnologia"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.category, CategoryForURL(tt.url), tt.url)
	}
}
