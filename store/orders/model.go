// Package orders manages customer orders and their line items. Orders are
// created by their owner, readable by their owner or an admin, and have
// their status advanced by admins only. Ownership is fixed at creation.
package orders

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status is an order's position in the fulfilment flow.
type Status string

const (
	StatusPending   = Status("pending")
	StatusConfirmed = Status("confirmed")
	StatusShipped   = Status("shipped")
	StatusDelivered = Status("delivered")
	StatusCancelled = Status("cancelled")
)

// transitions is the canonical fulfilment machine. Delivered and cancelled
// are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// ValidTransition reports whether moving from one status to another follows
// the canonical machine. The policy layer does not enforce this; admins can
// set any status and irregular moves are logged by the service.
func ValidTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a customer purchase. Totals are integer cents.
type Order struct {
	ID              string    `json:"id"`
	Owner           string    `json:"owner"`
	Total           int64     `json:"total"`
	Status          Status    `json:"status"`
	ShippingAddress string    `json:"shippingAddress,omitempty"`
	Created         time.Time `json:"created"`
	Updated         time.Time `json:"updated"`
}

// PK implements storage.Model.
func (o Order) PK() string {
	return o.ID
}

// AuthzType implements authz.OwnedObject.
func (o Order) AuthzType() string {
	return OrderResource
}

// OwnerID implements authz.OwnedObject.
func (o Order) OwnerID() string {
	return o.Owner
}

func (o Order) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.ID, validation.Required),
		validation.Field(&o.Owner, validation.Required),
		validation.Field(&o.Total, validation.Min(int64(0))),
		validation.Field(&o.Status, validation.Required, validation.In(
			StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled,
		)),
	)
}

// OrderItem is a single line of an order. UnitPrice captures the book's
// price at the time of purchase and does not track later catalog changes.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	BookID    string `json:"bookId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// PK implements storage.Model.
func (i OrderItem) PK() string {
	return i.ID
}

func (i OrderItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ID, validation.Required),
		validation.Field(&i.OrderID, validation.Required),
		validation.Field(&i.BookID, validation.Required),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&i.UnitPrice, validation.Min(int64(0))),
	)
}
