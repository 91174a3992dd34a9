package websocket

import (
	"encoding/json"
	"time"
)

// Document event types pushed to connected dashboards
const (
	EventBOQCreated      = "boq.created"
	EventBOQUpdated      = "boq.updated"
	EventSOCreated       = "sales_order.created"
	EventSOConfirmed     = "sales_order.confirmed"
	EventSOCancelled     = "sales_order.cancelled"
	EventPOCreated       = "purchase_order.created"
	EventPOSent          = "purchase_order.sent"
	EventInvoiceCreated  = "invoice.created"
	EventInvoiceApproved = "invoice.approved"
	EventInvoicePaid     = "invoice.paid"
	EventPaymentReceived = "payment.received"
)

// Event is the JSON envelope broadcast to all clients
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publish serializes and broadcasts a document event without blocking
// the calling service: if the hub loop is not draining, the event is
// dropped rather than stalling a request.
func (h *Hub) Publish(eventType, entityID, entityName string) {
	payload, err := json.Marshal(Event{
		Type:       eventType,
		EntityID:   entityID,
		EntityName: entityName,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	select {
	case h.Broadcast <- payload:
	default:
	}
}
