package enums

import "fmt"

// ChildOrderStatus tracks the lifecycle of a seller's slice of an order.
type ChildOrderStatus string

const (
	ChildOrderStatusPending   ChildOrderStatus = "Pending"
	ChildOrderStatusConfirmed ChildOrderStatus = "Confirmed"
	ChildOrderStatusPacked    ChildOrderStatus = "Packed"
	ChildOrderStatusShipped   ChildOrderStatus = "Shipped"
)

var validChildOrderStatuses = []ChildOrderStatus{
	ChildOrderStatusPending,
	ChildOrderStatusConfirmed,
	ChildOrderStatusPacked,
	ChildOrderStatusShipped,
}

var childOrderTransitions = map[ChildOrderStatus][]ChildOrderStatus{
	ChildOrderStatusPending:   {ChildOrderStatusConfirmed},
	ChildOrderStatusConfirmed: {ChildOrderStatusPacked, ChildOrderStatusShipped},
	ChildOrderStatusPacked:    {ChildOrderStatusShipped},
}

// String implements fmt.Stringer.
func (s ChildOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ChildOrderStatus.
func (s ChildOrderStatus) IsValid() bool {
	for _, candidate := range validChildOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether next is a forward edge from s.
func (s ChildOrderStatus) CanTransitionTo(next ChildOrderStatus) bool {
	for _, candidate := range childOrderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// SellerSettable reports whether a seller may request s for their child order.
func (s ChildOrderStatus) SellerSettable() bool {
	return s == ChildOrderStatusPacked || s == ChildOrderStatusShipped
}

// ParseChildOrderStatus converts raw input into a ChildOrderStatus.
func ParseChildOrderStatus(value string) (ChildOrderStatus, error) {
	key := statusKey(value)
	for _, candidate := range validChildOrderStatuses {
		if statusKey(string(candidate)) == key {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid child order status %q", value)
}
