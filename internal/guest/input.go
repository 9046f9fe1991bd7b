package guest

import (
	"time"

	"github.com/evcraddock/guestbook/internal/docstore"
)

// Input holds the fields of a new booking.
type Input struct {
	FullName      string
	Phone         string
	CheckIn       time.Time
	CheckOut      time.Time
	PropertyID    string
	UnitID        string
	Source        Source
	Notes         string
	PaymentStatus PaymentStatus
	Price         *float64
}

func (in Input) fields() map[string]any {
	f := map[string]any{
		"fullName":   in.FullName,
		"phone":      in.Phone,
		"checkIn":    in.CheckIn.UnixMilli(),
		"checkOut":   in.CheckOut.UnixMilli(),
		"propertyId": in.PropertyID,
		"unitId":     in.UnitID,
		"source":     string(in.Source),
		"notes":      in.Notes,
		"createdAt":  docstore.ServerTimestamp,
	}
	if in.PaymentStatus != "" {
		f["paymentStatus"] = string(in.PaymentStatus)
	}
	if in.Price != nil {
		f["price"] = *in.Price
	}
	return f
}

// Patch is a partial update. Nil fields are left unchanged. ClearPrice
// removes the price; it wins over Price.
type Patch struct {
	FullName      *string
	Phone         *string
	CheckIn       *time.Time
	CheckOut      *time.Time
	PropertyID    *string
	UnitID        *string
	Source        *Source
	Notes         *string
	PaymentStatus *PaymentStatus
	Price         *float64
	ClearPrice    bool
}

func (p Patch) fields() map[string]any {
	f := map[string]any{}
	if p.FullName != nil {
		f["fullName"] = *p.FullName
	}
	if p.Phone != nil {
		f["phone"] = *p.Phone
	}
	if p.CheckIn != nil {
		f["checkIn"] = p.CheckIn.UnixMilli()
	}
	if p.CheckOut != nil {
		f["checkOut"] = p.CheckOut.UnixMilli()
	}
	if p.PropertyID != nil {
		f["propertyId"] = *p.PropertyID
	}
	if p.UnitID != nil {
		f["unitId"] = *p.UnitID
	}
	if p.Source != nil {
		f["source"] = string(*p.Source)
	}
	if p.Notes != nil {
		f["notes"] = *p.Notes
	}
	if p.PaymentStatus != nil {
		f["paymentStatus"] = string(*p.PaymentStatus)
	}
	switch {
	case p.ClearPrice:
		f["price"] = nil
	case p.Price != nil:
		f["price"] = *p.Price
	}
	return f
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.fields()) == 0
}
