package services

import (
	"slices"
	"strings"

	"eino_dialogue/pkg"
)

// ProductService answers catalogue and price lookups from a fixed catalogue
type ProductService struct {
	products []pkg.Product
}

// NewProductService creates service with the default catalogue
func NewProductService() *ProductService {
	return NewProductServiceWith([]pkg.Product{
		{Name: "laptop", Category: "electronics", Price: 1200},
		{Name: "tablet", Category: "electronics", Price: 500},
		{Name: "fiction", Category: "books", Price: 20},
		{Name: "non-fiction", Category: "books", Price: 25},
	})
}

// NewProductServiceWith creates service over the given products
func NewProductServiceWith(products []pkg.Product) *ProductService {
	return &ProductService{products: slices.Clone(products)}
}

// Find looks a product up by name across all categories. A trailing plural "s" is ignored.
func (ps *ProductService) Find(name string) (pkg.Product, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return pkg.Product{}, false
	}

	for _, candidate := range []string{query, strings.TrimSuffix(query, "s")} {
		for _, product := range ps.products {
			if strings.ToLower(product.Name) == candidate {
				return product, true
			}
		}
	}
	return pkg.Product{}, false
}

// Categories returns the sorted distinct categories
func (ps *ProductService) Categories() []string {
	var categories []string
	for _, product := range ps.products {
		if !slices.Contains(categories, product.Category) {
			categories = append(categories, product.Category)
		}
	}
	slices.Sort(categories)
	return categories
}

// Names returns every product name in catalogue order
func (ps *ProductService) Names() []string {
	names := make([]string, 0, len(ps.products))
	for _, product := range ps.products {
		names = append(names, product.Name)
	}
	return names
}

// InCategory returns the product names of one category in catalogue order
func (ps *ProductService) InCategory(category string) []string {
	var names []string
	for _, product := range ps.products {
		if strings.EqualFold(product.Category, category) {
			names = append(names, product.Name)
		}
	}
	return names
}
