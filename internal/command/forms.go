// Package command validates user input and turns it into repository
// commands.
package command

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/guestbook/internal/guest"
)

// DateLayout is the form representation of check-in and check-out dates.
const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid " + strings.Join(e.Fields, ", ")
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating form: %w", err)
	}
	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		ve.Fields = append(ve.Fields, fe.Field())
	}
	return ve
}

// PropertyForm is the add/edit property form.
type PropertyForm struct {
	Name string `json:"name" validate:"required"`
	City string `json:"city"`
}

func (f *PropertyForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.City = strings.TrimSpace(f.City)
}

// UnitForm is the add unit form.
type UnitForm struct {
	PropertyID string `json:"property_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}

func (f *UnitForm) normalize() {
	f.PropertyID = strings.TrimSpace(f.PropertyID)
	f.Name = strings.TrimSpace(f.Name)
}

// GuestForm is the add/edit booking form. Dates use DateLayout and Price
// is free text.
type GuestForm struct {
	FullName      string `json:"full_name" validate:"required"`
	Phone         string `json:"phone"`
	CheckIn       string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut      string `json:"check_out" validate:"required,datetime=2006-01-02"`
	PropertyID    string `json:"property_id" validate:"required"`
	UnitID        string `json:"unit_id" validate:"required"`
	Source        string `json:"source" validate:"oneof=Booking Airbnb Direct"`
	Notes         string `json:"notes"`
	PaymentStatus string `json:"payment_status" validate:"oneof=paid partial unpaid"`
	Price         string `json:"price"`
}

// NewGuestForm returns a blank booking form: today to tomorrow, booked
// direct and unpaid.
func NewGuestForm(now time.Time) GuestForm {
	today := midnight(now)
	return GuestForm{
		CheckIn:       today.Format(DateLayout),
		CheckOut:      today.AddDate(0, 0, 1).Format(DateLayout),
		Source:        string(guest.SourceDirect),
		PaymentStatus: string(guest.PaymentUnpaid),
	}
}

// GuestFormFrom fills a form from a stored booking.
func GuestFormFrom(g guest.Guest, loc *time.Location) GuestForm {
	f := GuestForm{
		FullName:      g.FullName,
		Phone:         g.Phone,
		CheckIn:       g.CheckIn.In(loc).Format(DateLayout),
		CheckOut:      g.CheckOut.In(loc).Format(DateLayout),
		PropertyID:    g.PropertyID,
		UnitID:        g.UnitID,
		Source:        string(g.Source),
		Notes:         g.Notes,
		PaymentStatus: string(g.PaymentStatus),
	}
	if g.Price != nil {
		f.Price = strconv.FormatFloat(*g.Price, 'f', -1, 64)
	}
	return f
}

// normalize trims text and fills unset choices with the blank form's
// values.
func (f *GuestForm) normalize(now time.Time) {
	defaults := NewGuestForm(now)
	f.FullName = strings.TrimSpace(f.FullName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Notes = strings.TrimSpace(f.Notes)
	f.PropertyID = strings.TrimSpace(f.PropertyID)
	f.UnitID = strings.TrimSpace(f.UnitID)
	f.CheckIn = strings.TrimSpace(f.CheckIn)
	f.CheckOut = strings.TrimSpace(f.CheckOut)
	if f.CheckIn == "" {
		f.CheckIn = defaults.CheckIn
	}
	if f.CheckOut == "" {
		f.CheckOut = defaults.CheckOut
	}
	if f.Source == "" {
		f.Source = defaults.Source
	}
	if f.PaymentStatus == "" {
		f.PaymentStatus = defaults.PaymentStatus
	}
}

// ParsePrice reads a price. Blank, non-numeric, NaN and infinite input
// all mean no price.
func ParsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseDate reads a form date as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
