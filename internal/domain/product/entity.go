// internal/domain/product/entity.go
package product

import "strings"

// Product is a catalog entry (collection: products).
type Product struct {
	ID          string  `json:"id" firestore:"id"`
	Name        string  `json:"name" firestore:"name"`
	Description string  `json:"description" firestore:"description"`
	Category    string  `json:"category" firestore:"category"`
	Price       float64 `json:"price" firestore:"price"`
	ImageRef    string  `json:"image" firestore:"image"`
	Featured    bool    `json:"featured" firestore:"featured"`
	Rank        int     `json:"rank" firestore:"rank"`
}

// Matches reports whether term (already lower-cased and trimmed) occurs in
// the name, description or category.
func (p Product) Matches(term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Category), term)
}

// Filter keeps the products matching term (case-insensitive), in input order.
func Filter(products []Product, term string) []Product {
	t := strings.ToLower(strings.TrimSpace(term))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Matches(t) {
			out = append(out, p)
		}
	}
	return out
}
