package store

import (
	"context"
	"fmt"

	"github.com/ShyamLatake/playout-front/internal/apiclient"
	"github.com/ShyamLatake/playout-front/internal/availability"
	"github.com/ShyamLatake/playout-front/internal/broadcast"
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/membership"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// ReloadTurfs replaces the turfs collection. Stale reloads are discarded.
func (s *Store) ReloadTurfs(ctx context.Context) error {
	gen := s.turfs.begin()
	turfs, err := s.api.ListTurfs(ctx, apiclient.TurfFilters{})
	if err != nil {
		return fmt.Errorf("load turfs: %w", err)
	}
	installed, changed := s.turfs.commit(gen, turfs, s.now())
	if !installed {
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale turfs reload")
		return nil
	}
	if changed {
		s.notify.Notify(broadcast.TopicTurfs, gen)
	}
	return nil
}

// EnsureTurfs reloads the turfs collection if it was never loaded, was marked
// stale, or is older than the store's max age.
func (s *Store) EnsureTurfs(ctx context.Context) error {
	if s.turfs.fresh(s.now(), s.maxAge) {
		return nil
	}
	return s.ReloadTurfs(ctx)
}

// Turfs returns the current snapshot. Callers must not modify the turfs.
func (s *Store) Turfs() []models.Turf {
	turfs, _ := s.turfs.snapshot()
	return turfs
}

// TurfsGeneration is the generation of the current turfs snapshot.
func (s *Store) TurfsGeneration() uint64 {
	return s.turfs.generation()
}

// Turf looks id up in the snapshot.
func (s *Store) Turf(id string) (models.Turf, error) {
	for _, t := range s.Turfs() {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Turf{}, ErrTurfNotFound
}

// TurfsOwnedBy returns the turfs in the snapshot owned by ownerID.
func (s *Store) TurfsOwnedBy(ownerID string) []models.Turf {
	out := []models.Turf{}
	for _, t := range s.Turfs() {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out
}

// turfFor reloads the turfs collection and returns id, for precondition checks.
func (s *Store) turfFor(ctx context.Context, id string) (models.Turf, error) {
	if err := s.ReloadTurfs(ctx); err != nil {
		return models.Turf{}, err
	}
	return s.Turf(id)
}

// ownedTurf returns id if v may manage it. Admins manage every turf.
func (s *Store) ownedTurf(ctx context.Context, v identity.Viewer, id string) (models.Turf, error) {
	t, err := s.turfFor(ctx, id)
	if err != nil {
		return models.Turf{}, err
	}
	if t.OwnerID != v.ID && v.Role != models.UserRoleAdmin {
		return models.Turf{}, ErrNotTurfOwner
	}
	return t, nil
}

// CreateTurf lists a new turf for v.
func (s *Store) CreateTurf(ctx context.Context, v identity.Viewer, form models.CreateTurfForm) (*models.Turf, error) {
	if v.ID == "" {
		return nil, membership.ErrNotAuthenticated
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var created *models.Turf
	err := s.mutate(ctx, CreateTurfKey(v.ID), nil, func() error {
		t, err := s.api.CreateTurf(ctx, form)
		created = t
		return err
	}, s.ReloadTurfs, s.turfs.invalidate)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTurf applies a partial update to a turf v owns.
func (s *Store) UpdateTurf(ctx context.Context, v identity.Viewer, id string, form models.UpdateTurfForm) error {
	if v.ID == "" {
		return membership.ErrNotAuthenticated
	}
	if err := form.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, TurfKey(id), func() error {
		_, err := s.ownedTurf(ctx, v, id)
		return err
	}, func() error {
		_, err := s.api.UpdateTurf(ctx, id, form)
		return err
	}, s.ReloadTurfs, s.turfs.invalidate)
}

// SetTurfAvailability flips the owner's on/off switch.
func (s *Store) SetTurfAvailability(ctx context.Context, v identity.Viewer, id string, available bool) error {
	return s.UpdateTurf(ctx, v, id, models.UpdateTurfForm{IsAvailable: &available})
}

// DeleteTurf removes a turf v owns.
func (s *Store) DeleteTurf(ctx context.Context, v identity.Viewer, id string) error {
	if v.ID == "" {
		return membership.ErrNotAuthenticated
	}
	return s.mutate(ctx, TurfKey(id), func() error {
		_, err := s.ownedTurf(ctx, v, id)
		return err
	}, func() error {
		return s.api.DeleteTurf(ctx, id)
	}, s.ReloadTurfs, s.turfs.invalidate)
}

// Slots computes a turf's slot grid for date from fresh bookings.
func (s *Store) Slots(ctx context.Context, turfID, date string, policy availability.TrailingPolicy) ([]availability.Slot, error) {
	if err := s.EnsureTurfs(ctx); err != nil {
		return nil, err
	}
	t, err := s.Turf(turfID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.api.ListTurfBookings(ctx, turfID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return availability.ForTurf(t, policy, date, bookings), nil
}

// Book reserves [form.StartTime, form.EndTime) for v after checking it against
// the turf's hours and that day's bookings as the API reports them now.
func (s *Store) Book(ctx context.Context, v identity.Viewer, form models.CreateBookingForm) (*models.Booking, error) {
	if v.ID == "" {
		return nil, membership.ErrNotAuthenticated
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	release, err := s.acquire(BookKey(form.TurfID, v.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	t, err := s.turfFor(ctx, form.TurfID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.api.ListTurfBookings(ctx, form.TurfID, form.Date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	if err := availability.CheckBookable(t, form.Date, form.StartTime, form.EndTime, bookings); err != nil {
		return nil, err
	}
	b, err := s.api.CreateBooking(ctx, form)
	if err != nil {
		s.log.Warn().Err(err).Str("turf_id", form.TurfID).Msg("booking failed")
		return nil, err
	}
	s.notify.Notify(broadcast.TopicTurfs, s.turfs.generation())
	return b, nil
}

// MyBookings lists the caller's bookings. The token on ctx identifies them.
func (s *Store) MyBookings(ctx context.Context) ([]models.Booking, error) {
	return s.api.ListMyBookings(ctx)
}

// UpdateBooking changes a booking's status. The API lets the turf owner set
// any status and the booker cancel their own.
func (s *Store) UpdateBooking(ctx context.Context, v identity.Viewer, id string, form models.UpdateBookingForm) (*models.Booking, error) {
	if v.ID == "" {
		return nil, membership.ErrNotAuthenticated
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	release, err := s.acquire(BookingKey(id))
	if err != nil {
		return nil, err
	}
	defer release()
	b, err := s.api.UpdateBooking(ctx, id, form)
	if err != nil {
		s.log.Warn().Err(err).Str("booking_id", id).Msg("booking update failed")
		return nil, err
	}
	return b, nil
}
