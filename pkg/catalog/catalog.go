package catalog

import (
	"context"
	"strings"
)

type Product struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	ThumbnailURL string  `json:"thumbnail"`
}

// Catalog is kept in source order.
type Catalog []Product

// Source fetches the full catalog in one go.
type Source interface {
	Products(ctx context.Context) (Catalog, error)
}

// Filter returns the products whose title contains query, ignoring case. An
// empty query returns c itself.
func Filter(c Catalog, query string) Catalog {
	if query == "" {
		return c
	}

	q := strings.ToLower(query)
	filtered := Catalog{}
	for _, p := range c {
		if strings.Contains(strings.ToLower(p.Title), q) {
			filtered = append(filtered, p)
		}
	}

	return filtered
}
