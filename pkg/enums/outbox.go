package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox row belongs to.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregateReview OutboxAggregateType = "review"
)

func (a OutboxAggregateType) String() string { return string(a) }

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateOrder || a == AggregateReview
}

// ParseOutboxAggregateType matches the stored spelling exactly.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	a := OutboxAggregateType(value)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid aggregate type %q", value)
	}
	return a, nil
}

// OutboxEventType names a domain event recorded in the outbox.
type OutboxEventType string

const (
	EventOrderPlaced             OutboxEventType = "order_placed"
	EventOrderConfirmed          OutboxEventType = "order_confirmed"
	EventChildOrderStatusChanged OutboxEventType = "child_order_status_changed"
	EventOrderShipped            OutboxEventType = "order_shipped"
	EventOrderStatusOverridden   OutboxEventType = "order_status_overridden"
	EventReviewCreated           OutboxEventType = "review_created"
)

// eventAggregates pins each event type to the aggregate it is emitted for.
var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventOrderPlaced:             AggregateOrder,
	EventOrderConfirmed:          AggregateOrder,
	EventChildOrderStatusChanged: AggregateOrder,
	EventOrderShipped:            AggregateOrder,
	EventOrderStatusOverridden:   AggregateOrder,
	EventReviewCreated:           AggregateReview,
}

func (e OutboxEventType) String() string { return string(e) }

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type e belongs to, or "" when unknown.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}

// ParseOutboxEventType matches the stored spelling exactly.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	e := OutboxEventType(value)
	if !e.IsValid() {
		return "", fmt.Errorf("invalid event type %q", value)
	}
	return e, nil
}
