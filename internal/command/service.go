package command

import (
	"context"
	"fmt"
	"time"

	"github.com/evcraddock/guestbook/internal/docstore"
	"github.com/evcraddock/guestbook/internal/guest"
	"github.com/evcraddock/guestbook/internal/property"
	"github.com/evcraddock/guestbook/internal/unit"
)

// Service validates forms and submits them to the repositories. It never
// touches the repositories' caches; results arrive through their
// subscriptions.
type Service struct {
	properties *property.Repository
	units      *unit.Repository
	guests     *guest.Repository
	loc        *time.Location
	now        func() time.Time
}

// NewService creates a command service. Dates are interpreted in loc.
func NewService(properties *property.Repository, units *unit.Repository, guests *guest.Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		properties: properties,
		units:      units,
		guests:     guests,
		loc:        loc,
		now:        time.Now,
	}
}

// AddProperty creates a property.
func (s *Service) AddProperty(ctx context.Context, form PropertyForm) (string, error) {
	form.normalize()
	if err := check(form); err != nil {
		return "", err
	}
	return s.properties.Create(ctx, property.Input{Name: form.Name, City: form.City})
}

// EditProperty replaces a property's name and city.
func (s *Service) EditProperty(ctx context.Context, id string, form PropertyForm) error {
	form.normalize()
	if err := check(form); err != nil {
		return err
	}
	return s.properties.Update(ctx, id, property.Input{Name: form.Name, City: form.City})
}

// RemoveProperty deletes a property. Its units and guests are kept and
// show a placeholder where the property name was.
func (s *Service) RemoveProperty(ctx context.Context, id string) error {
	return s.properties.Delete(ctx, id)
}

// AddUnit creates a unit under a property.
func (s *Service) AddUnit(ctx context.Context, form UnitForm) (string, error) {
	form.normalize()
	if err := check(form); err != nil {
		return "", err
	}
	return s.units.Create(ctx, unit.Input{PropertyID: form.PropertyID, Name: form.Name})
}

// RemoveUnit deletes a unit.
func (s *Service) RemoveUnit(ctx context.Context, id string) error {
	return s.units.Delete(ctx, id)
}

// SaveGuest creates a booking when id is empty and otherwise overwrites
// every form field of the existing one. A blank price on edit removes the
// stored price. It returns the booking id.
func (s *Service) SaveGuest(ctx context.Context, id string, form GuestForm) (string, error) {
	form.normalize(s.now().In(s.loc))
	if err := check(form); err != nil {
		return "", err
	}

	checkIn, err := ParseDate(form.CheckIn, s.loc)
	if err != nil {
		return "", err
	}
	checkOut, err := ParseDate(form.CheckOut, s.loc)
	if err != nil {
		return "", err
	}
	price := ParsePrice(form.Price)

	if id == "" {
		return s.guests.Create(ctx, guest.Input{
			FullName:      form.FullName,
			Phone:         form.Phone,
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			PropertyID:    form.PropertyID,
			UnitID:        form.UnitID,
			Source:        guest.Source(form.Source),
			Notes:         form.Notes,
			PaymentStatus: guest.PaymentStatus(form.PaymentStatus),
			Price:         price,
		})
	}

	source := guest.Source(form.Source)
	payment := guest.PaymentStatus(form.PaymentStatus)
	patch := guest.Patch{
		FullName:      &form.FullName,
		Phone:         &form.Phone,
		CheckIn:       &checkIn,
		CheckOut:      &checkOut,
		PropertyID:    &form.PropertyID,
		UnitID:        &form.UnitID,
		Source:        &source,
		Notes:         &form.Notes,
		PaymentStatus: &payment,
		Price:         price,
		ClearPrice:    price == nil,
	}
	if err := s.guests.Update(ctx, id, patch); err != nil {
		return "", err
	}
	return id, nil
}

// RemoveGuest deletes a booking.
func (s *Service) RemoveGuest(ctx context.Context, id string) error {
	return s.guests.Delete(ctx, id)
}

// LoadGuest returns the edit form for a booking. It reads the live cache
// first and falls back to the store when the cache has not caught up.
func (s *Service) LoadGuest(ctx context.Context, id string) (GuestForm, error) {
	g, ok := s.guests.Find(id)
	if !ok {
		var err error
		g, ok, err = s.guests.GetByID(ctx, id)
		if err != nil {
			return GuestForm{}, err
		}
		if !ok {
			return GuestForm{}, fmt.Errorf("guest %s: %w", id, docstore.ErrNotFound)
		}
	}
	return GuestFormFrom(g, s.loc), nil
}
