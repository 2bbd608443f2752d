package orders

import (
	"time"

	"github.com/avilesmedina/tiendita-backend/pkg/enums"
)

// transitionTable is the single source of truth for allowed status moves.
// Anything absent here is rejected; callers never coerce a status directly.
var transitionTable = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusPacked, enums.OrderStatusCancelled},
	enums.OrderStatusPacked:    {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered: {enums.OrderStatusExchanged},
}

// CanTransition reports whether the move appears in the transition table.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitionTable[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the statuses reachable from the given one.
func AllowedTargets(from enums.OrderStatus) []enums.OrderStatus {
	targets := transitionTable[from]
	out := make([]enums.OrderStatus, len(targets))
	copy(out, targets)
	return out
}

// NextAction projects the human-readable step staff should take next.
func NextAction(status enums.OrderStatus, delivery *enums.DeliveryStatus) string {
	switch status {
	case enums.OrderStatusPending:
		return "Confirm within 24 hrs"
	case enums.OrderStatusPacked:
		return "Hand off to carrier"
	case enums.OrderStatusShipped:
		if delivery != nil && *delivery == enums.DeliveryStatusFailedDelivery {
			return "Schedule a new delivery attempt"
		}
		return "Delivery expected in 3-5 days"
	case enums.OrderStatusDelivered:
		return "No action needed"
	case enums.OrderStatusCancelled:
		return "No action needed"
	case enums.OrderStatusExchanged:
		return "Prepare replacement fulfillment"
	default:
		return ""
	}
}

// addBusinessDays advances t by n weekdays, skipping Saturdays and Sundays.
func addBusinessDays(t time.Time, n int) time.Time {
	out := t
	for added := 0; added < n; {
		out = out.AddDate(0, 0, 1)
		if wd := out.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return out
}
