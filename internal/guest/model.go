// Package guest provides the guest stay model and its live repository.
package guest

import (
	"time"

	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/live"
)

// Collection is the store collection holding guest stays.
const Collection = "guests"

// Source is the channel a booking came through.
type Source string

const (
	SourceBooking Source = "Booking"
	SourceAirbnb  Source = "Airbnb"
	SourceDirect  Source = "Direct"
)

// Sources lists every booking source in display order.
var Sources = []Source{SourceBooking, SourceAirbnb, SourceDirect}

// ValidSource returns true if s is a known booking source.
func ValidSource(s string) bool {
	switch Source(s) {
	case SourceBooking, SourceAirbnb, SourceDirect:
		return true
	}
	return false
}

// PaymentStatus tracks how much of a stay has been paid.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentUnpaid  PaymentStatus = "unpaid"
)

// PaymentStatuses lists every payment status in display order.
var PaymentStatuses = []PaymentStatus{PaymentPaid, PaymentPartial, PaymentUnpaid}

// ValidPaymentStatus returns true if s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentPaid, PaymentPartial, PaymentUnpaid:
		return true
	}
	return false
}

// Guest is one booking: who stays, where, and when.
type Guest struct {
	ID            string        `json:"id"`
	FullName      string        `json:"full_name"`
	Phone         string        `json:"phone"`
	CheckIn       time.Time     `json:"check_in"`
	CheckOut      time.Time     `json:"check_out"`
	PropertyID    string        `json:"property_id"`
	UnitID        string        `json:"unit_id"`
	Source        Source        `json:"source"`
	Notes         string        `json:"notes"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	Price         *float64      `json:"price,omitempty"`
}

// Key returns the guest id.
func (g Guest) Key() string { return g.ID }

// HasIncome reports whether the stay carries a positive price.
func (g Guest) HasIncome() bool {
	return g.Price != nil && *g.Price > 0
}

func decodeSource(v any) Source {
	if s := docstore.AsString(v); ValidSource(s) {
		return Source(s)
	}
	return SourceDirect
}

func decodePaymentStatus(v any) PaymentStatus {
	if s := docstore.AsString(v); ValidPaymentStatus(s) {
		return PaymentStatus(s)
	}
	return PaymentUnpaid
}

var table = live.Table[Guest]{
	SetID: func(g *Guest, id string) { g.ID = id },
	Fields: []live.Field[Guest]{
		{Name: "fullName", Apply: func(g *Guest, v any) { g.FullName = docstore.AsString(v) }},
		{Name: "phone", Apply: func(g *Guest, v any) { g.Phone = docstore.AsString(v) }},
		{Name: "checkIn", Apply: func(g *Guest, v any) { g.CheckIn = docstore.AsTime(v) }},
		{Name: "checkOut", Apply: func(g *Guest, v any) { g.CheckOut = docstore.AsTime(v) }},
		{Name: "propertyId", Apply: func(g *Guest, v any) { g.PropertyID = docstore.AsString(v) }},
		{Name: "unitId", Apply: func(g *Guest, v any) { g.UnitID = docstore.AsString(v) }},
		{Name: "source", Apply: func(g *Guest, v any) { g.Source = decodeSource(v) }},
		{Name: "notes", Apply: func(g *Guest, v any) { g.Notes = docstore.AsString(v) }},
		{Name: "paymentStatus", Apply: func(g *Guest, v any) { g.PaymentStatus = decodePaymentStatus(v) }},
		{Name: "createdAt", Apply: func(g *Guest, v any) { g.CreatedAt = docstore.AsTime(v) }},
		{Name: "price", Apply: func(g *Guest, v any) {
			if f, ok := docstore.AsNumber(v); ok {
				g.Price = &f
			}
		}},
	},
}

// Codec lists guests with the latest check-in first.
var Codec = live.Codec[Guest]{
	Collection: Collection,
	OrderBy:    "checkIn",
	Descending: true,
	Table:      table,
}

// Decode maps a raw document to a Guest, defaulting missing or malformed
// fields.
func Decode(doc docstore.Document) Guest {
	return table.Decode(doc)
}
