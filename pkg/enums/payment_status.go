package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus is the payment state declared by the customer at checkout.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusCompleted,
	PaymentStatusPending,
	PaymentStatusFailed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// Finalizes reports whether the declared status commits the order. Pending
// covers cash on delivery, which still binds stock.
func (p PaymentStatus) Finalizes() bool {
	return p == PaymentStatusCompleted || p == PaymentStatusPending
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == v {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
