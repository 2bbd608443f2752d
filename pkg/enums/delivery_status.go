package enums

import "fmt"

// DeliveryStatus tracks physical fulfillment, coupled to but distinct
// from the order's commercial status. It is attached once an order is packed.
type DeliveryStatus string

const (
	DeliveryStatusAwaitingDispatch DeliveryStatus = "awaiting_dispatch"
	DeliveryStatusOutForDelivery   DeliveryStatus = "out_for_delivery"
	DeliveryStatusDelivered        DeliveryStatus = "delivered"
	DeliveryStatusFailedDelivery   DeliveryStatus = "failed_delivery"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusAwaitingDispatch,
	DeliveryStatusOutForDelivery,
	DeliveryStatusDelivered,
	DeliveryStatusFailedDelivery,
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
