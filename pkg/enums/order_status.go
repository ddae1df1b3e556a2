package enums

import (
	"fmt"
	"strings"
)

// OrderStatus mirrors the rows seeded in the order_status table.
type OrderStatus int

const (
	OrderStatusOpen         OrderStatus = 1
	OrderStatusInProduction OrderStatus = 2
	OrderStatusShipped      OrderStatus = 3
	OrderStatusDelivered    OrderStatus = 4
	OrderStatusCancelled    OrderStatus = 5
	OrderStatusInvoiced     OrderStatus = 6
	OrderStatusClosed       OrderStatus = 7
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusOpen:         "Abierto",
	OrderStatusInProduction: "En Producción",
	OrderStatusShipped:      "Enviado",
	OrderStatusDelivered:    "Entregado",
	OrderStatusCancelled:    "Cancelado",
	OrderStatusInvoiced:     "Facturado",
	OrderStatusClosed:       "Cerrado",
}

// Every non-terminal status can still be cancelled.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusOpen:         {OrderStatusInProduction, OrderStatusCancelled},
	OrderStatusInProduction: {OrderStatusInvoiced, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusInvoiced:     {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:      {OrderStatusDelivered, OrderStatusCancelled},
}

// String returns the display name stored in order_status.name.
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// IsTerminal reports whether an order in this status accepts no further
// changes, cancellation included.
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(orderStatusTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the legal successors of s.
func (s OrderStatus) NextStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatusTransitions[s]))
	copy(out, orderStatusTransitions[s])
	return out
}

// ParseOrderStatus accepts either the numeric id or the display name.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	var id int
	if _, err := fmt.Sscanf(trimmed, "%d", &id); err == nil {
		if s := OrderStatus(id); s.IsValid() && fmt.Sprint(id) == trimmed {
			return s, nil
		}
	}
	for status, name := range orderStatusNames {
		if strings.EqualFold(name, trimmed) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid order status %q", value)
}
