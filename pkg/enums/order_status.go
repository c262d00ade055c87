package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks the lifecycle of a parent order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// forward-only edges reachable without the admin override.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed},
	OrderStatusConfirmed:      {OrderStatusShipped},
	OrderStatusShipped:        {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether next is a forward edge from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AdminSettable reports whether an admin may force the parent order into s.
func (s OrderStatus) AdminSettable() bool {
	switch s {
	case OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus. Matching ignores
// case and accepts snake_case or kebab-case spellings.
func ParseOrderStatus(value string) (OrderStatus, error) {
	key := statusKey(value)
	for _, candidate := range validOrderStatuses {
		if statusKey(string(candidate)) == key {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

func statusKey(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("_", " ", "-", " ").Replace(v)
	return strings.Join(strings.Fields(v), " ")
}
