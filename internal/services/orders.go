package services

import (
	"strings"

	"eino_dialogue/pkg"
)

// OrderService looks up tracked orders
type OrderService struct {
	orders map[string]pkg.Order
}

// NewOrderService creates service with the default tracked orders
func NewOrderService() *OrderService {
	return NewOrderServiceWith([]pkg.Order{
		{Number: "12345", Status: "shipped", DeliveryDate: "April 15, 2025"},
	})
}

// NewOrderServiceWith creates service over the given orders
func NewOrderServiceWith(orders []pkg.Order) *OrderService {
	index := make(map[string]pkg.Order, len(orders))
	for _, order := range orders {
		index[order.Number] = order
	}
	return &OrderService{orders: index}
}

// Lookup finds an order by number; a leading "#" is ignored
func (s *OrderService) Lookup(number string) (pkg.Order, bool) {
	order, ok := s.orders[strings.TrimPrefix(strings.TrimSpace(number), "#")]
	return order, ok
}
