// Package availability derives a turf's bookable slots for a day from its
// operating hours, slot duration and that day's bookings.
//
// A turf open 06:00 to 22:00 with one-hour slots has a grid of sixteen
// slots: 06:00, 07:00, ... 21:00. Each slot is then marked booked when any
// non-cancelled booking for that date covers its start time. A booking from
// 18:00 to 20:00 therefore marks both 18:00 and 19:00, but not 20:00, because
// time ranges are half-open: [start, end).
//
// All arithmetic is done in minutes after midnight (see package clock), which
// keeps comparisons as plain integer comparisons and avoids time zones
// entirely. Dates are compared as YYYY-MM-DD strings.
//
// Everything here is a pure function of its inputs. Slots are never stored or
// patched; when hours, duration or bookings change the caller recomputes.
// The store and the dev API both call into this package, so the front-end's
// conflict check and the server's agree on what "overlap" means.
package availability

import (
	"errors"
	// math rounds quoted prices to cents.
	"math"

	"github.com/ShyamLatake/playout-front/internal/clock"
	"github.com/ShyamLatake/playout-front/internal/models"
)

var (
	ErrInvalidRange  = errors.New("end must be after start")
	ErrOutsideHours  = errors.New("requested time is outside operating hours")
	ErrSlotTaken     = errors.New("requested time overlaps an existing booking")
	ErrNotBookable   = errors.New("turf is not accepting bookings")
	ErrMisalignedEnd = errors.New("requested time does not line up with the slot grid")
)

// TrailingPolicy decides what happens to the last slot when the operating
// window is not a multiple of the slot duration.
type TrailingPolicy int

const (
	// KeepPartial emits a final slot even if it ends after closing time.
	KeepPartial TrailingPolicy = iota
	// DropPartial emits only slots that fit completely before closing.
	DropPartial
)

// Slot is one step of the day's grid.
type Slot struct {
	Time   string `json:"time"`   // HH:MM start
	End    string `json:"end"`    // HH:MM end, clamped to closing time
	Booked bool   `json:"booked"` // covered by a non-cancelled booking
}

// Generate walks [open, closing) in steps of slotMinutes and returns the start
// label of each slot. A non-positive slotMinutes uses models.DefaultSlotMinutes.
//
// Degenerate or unparseable hours (open >= closing) yield an empty sequence.
func Generate(hours models.OperatingHours, slotMinutes int, policy TrailingPolicy) []string {
	open, closing, ok := window(hours)
	if !ok {
		return []string{}
	}
	step := slotStep(slotMinutes)
	times := make([]string, 0, (closing-open)/step+1)
	for t := open; t < closing; t += step {
		if policy == DropPartial && t+step > closing {
			break
		}
		times = append(times, clock.Format(t))
	}
	return times
}

// Occupied reports whether slot time t falls inside any non-cancelled booking:
// booking.start <= t < booking.end.
func Occupied(t string, bookings []models.Booking) bool {
	at, err := clock.Parse(t)
	if err != nil {
		return false
	}
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		start, end, ok := bookingRange(b)
		if !ok {
			continue
		}
		if start <= at && at < end {
			return true
		}
	}
	return false
}

// Compute returns the day's grid with occupancy. Bookings for other dates are
// ignored when date is set; pass "" when the slice is already per-day.
func Compute(hours models.OperatingHours, slotMinutes int, policy TrailingPolicy, date string, bookings []models.Booking) []Slot {
	day := forDate(date, bookings)
	_, closing, _ := window(hours)
	step := slotStep(slotMinutes)

	times := Generate(hours, slotMinutes, policy)
	slots := make([]Slot, 0, len(times))
	for _, t := range times {
		start, _ := clock.Parse(t)
		end := start + step
		if end > closing {
			end = closing
		}
		slots = append(slots, Slot{
			Time:   t,
			End:    clock.Format(end),
			Booked: Occupied(t, day),
		})
	}
	return slots
}

// ForTurf is Compute with the turf's own hours and slot duration.
func ForTurf(t models.Turf, policy TrailingPolicy, date string, bookings []models.Booking) []Slot {
	return Compute(t.OperatingHours, t.SlotMinutes(), policy, date, bookings)
}

// Free returns only the unbooked slots.
func Free(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if !s.Booked {
			out = append(out, s)
		}
	}
	return out
}

// Conflicts returns the non-cancelled bookings on date that overlap the
// half-open range [start, end).
func Conflicts(date, start, end string, bookings []models.Booking) ([]models.Booking, error) {
	s, e, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}
	var out []models.Booking
	for _, b := range forDate(date, bookings) {
		if !b.Active() {
			continue
		}
		bs, be, ok := bookingRange(b)
		if !ok {
			continue
		}
		if s < be && bs < e {
			out = append(out, b)
		}
	}
	return out, nil
}

// CheckBookable validates a requested booking against the turf and the day's
// bookings: the turf must be available, the range must sit inside operating
// hours on the slot grid, and nothing active may overlap it.
func CheckBookable(t models.Turf, date, start, end string, bookings []models.Booking) error {
	if !t.IsAvailable {
		return ErrNotBookable
	}
	s, e, err := parseRange(start, end)
	if err != nil {
		return err
	}
	open, closing, ok := window(t.OperatingHours)
	if !ok || s < open || e > closing {
		return ErrOutsideHours
	}
	step := t.SlotMinutes()
	if (s-open)%step != 0 || ((e-open)%step != 0 && e != closing) {
		return ErrMisalignedEnd
	}
	conflicts, err := Conflicts(date, start, end, bookings)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return ErrSlotTaken
	}
	return nil
}

// Quote is the price of [start, end) at pricePerHour, rounded to cents.
func Quote(pricePerHour float64, start, end string) (float64, error) {
	s, e, err := parseRange(start, end)
	if err != nil {
		return 0, err
	}
	total := pricePerHour * float64(e-s) / 60
	return math.Round(total*100) / 100, nil
}

func window(h models.OperatingHours) (open, closing int, ok bool) {
	open, err := clock.Parse(h.Open)
	if err != nil {
		return 0, 0, false
	}
	closing, err = clock.Parse(h.Close)
	if err != nil {
		return 0, 0, false
	}
	return open, closing, open < closing
}

func slotStep(minutes int) int {
	if minutes <= 0 {
		return models.DefaultSlotMinutes
	}
	return minutes
}

func parseRange(start, end string) (int, int, error) {
	s, err := clock.Parse(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := clock.Parse(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		return 0, 0, ErrInvalidRange
	}
	return s, e, nil
}

func bookingRange(b models.Booking) (int, int, bool) {
	s, err := clock.Parse(b.StartTime)
	if err != nil {
		return 0, 0, false
	}
	e, err := clock.Parse(b.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}

func forDate(date string, bookings []models.Booking) []models.Booking {
	if date == "" {
		return bookings
	}
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out
}
