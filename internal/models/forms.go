package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/ShyamLatake/playout-front/internal/clock"
)

// ValidationError collects field-level problems found before a request is sent.
// Fields maps the JSON field name to a message suitable for inline display.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldErrors is a small builder; err returns nil when nothing was added.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f.add(field, "is required")
	}
}

// window checks that both labels parse and start < end.
func (f fieldErrors) window(startField, start, endField, end string) {
	s, errS := clock.Parse(start)
	if errS != nil {
		f.add(startField, "must be HH:MM")
	}
	e, errE := clock.Parse(end)
	if errE != nil {
		f.add(endField, "must be HH:MM")
	}
	if errS == nil && errE == nil && s >= e {
		f.add(endField, fmt.Sprintf("must be after %s", start))
	}
}

// CreateGameForm is the body of POST /games.
type CreateGameForm struct {
	Title         string     `json:"title"`
	Sport         string     `json:"sport"`
	Description   string     `json:"description,omitempty"`
	TurfID        string     `json:"turfId"`
	Date          string     `json:"date"`
	StartTime     string     `json:"startTime"`
	EndTime       string     `json:"endTime"`
	MaxPlayers    int        `json:"maxPlayers"`
	SkillLevel    SkillLevel `json:"skillLevel,omitempty"`
	CostPerPlayer float64    `json:"costPerPlayer,omitempty"`
}

// Validate reports missing or malformed fields.
func (f CreateGameForm) Validate() error {
	errs := fieldErrors{}
	errs.required("title", f.Title)
	errs.required("turfId", f.TurfID)
	if !IsKnownSport(f.Sport) {
		errs.add("sport", "must be one of "+strings.Join(Sports, ", "))
	}
	if !clock.ValidDate(f.Date) {
		errs.add("date", "must be YYYY-MM-DD")
	}
	errs.window("startTime", f.StartTime, "endTime", f.EndTime)
	if f.MaxPlayers <= 0 {
		errs.add("maxPlayers", "must be greater than 0")
	}
	switch f.SkillLevel {
	case "", SkillLevelAny, SkillLevelBeginner, SkillLevelIntermediate, SkillLevelAdvanced:
	default:
		errs.add("skillLevel", "must be any, beginner, intermediate or advanced")
	}
	if f.CostPerPlayer < 0 {
		errs.add("costPerPlayer", "must not be negative")
	}
	return errs.err()
}

// RequestToJoinForm is the body of POST /games/{id}/request.
type RequestToJoinForm struct {
	Message string `json:"message,omitempty"`
}

// MaxRequestMessage caps the free-text message on a join request.
const MaxRequestMessage = 500

func (f RequestToJoinForm) Validate() error {
	errs := fieldErrors{}
	if len(f.Message) > MaxRequestMessage {
		errs.add("message", fmt.Sprintf("must be at most %d characters", MaxRequestMessage))
	}
	return errs.err()
}

// ResolveRequestForm is the body of PUT /games/{id}/request.
type ResolveRequestForm struct {
	RequestID string        `json:"requestId"`
	Action    RequestAction `json:"action"`
}

func (f ResolveRequestForm) Validate() error {
	errs := fieldErrors{}
	errs.required("requestId", f.RequestID)
	if f.Action != RequestActionApprove && f.Action != RequestActionReject {
		errs.add("action", "must be approve or reject")
	}
	return errs.err()
}

// CreateTurfForm is the body of POST /turfs.
type CreateTurfForm struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Location       string         `json:"location"`
	Address        string         `json:"address"`
	ContactPhone   string         `json:"contactPhone,omitempty"`
	PricePerHour   float64        `json:"pricePerHour"`
	Sports         []string       `json:"sports"`
	Amenities      []string       `json:"amenities,omitempty"`
	OperatingHours OperatingHours `json:"operatingHours"`
	SlotDuration   int            `json:"slotDuration,omitempty"`
}

func (f CreateTurfForm) Validate() error {
	errs := fieldErrors{}
	errs.required("name", f.Name)
	errs.required("location", f.Location)
	errs.required("address", f.Address)
	if f.PricePerHour <= 0 {
		errs.add("pricePerHour", "must be greater than 0")
	}
	validateSports(errs, f.Sports)
	errs.window("operatingHours.open", f.OperatingHours.Open, "operatingHours.close", f.OperatingHours.Close)
	if f.SlotDuration < 0 {
		errs.add("slotDuration", "must be greater than 0")
	}
	return errs.err()
}

func validateSports(errs fieldErrors, sports []string) {
	if len(sports) == 0 {
		errs.add("sports", "select at least one sport")
		return
	}
	for _, s := range sports {
		if !IsKnownSport(s) {
			errs.add("sports", fmt.Sprintf("unknown sport %q", s))
			return
		}
	}
}

// UpdateTurfForm is a partial update; nil fields are left unchanged.
type UpdateTurfForm struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Location       *string         `json:"location,omitempty"`
	Address        *string         `json:"address,omitempty"`
	ContactPhone   *string         `json:"contactPhone,omitempty"`
	PricePerHour   *float64        `json:"pricePerHour,omitempty"`
	Sports         []string        `json:"sports,omitempty"`
	Amenities      []string        `json:"amenities,omitempty"`
	OperatingHours *OperatingHours `json:"operatingHours,omitempty"`
	SlotDuration   *int            `json:"slotDuration,omitempty"`
	IsAvailable    *bool           `json:"isAvailable,omitempty"`
}

func (f UpdateTurfForm) Validate() error {
	errs := fieldErrors{}
	if f.Name != nil {
		errs.required("name", *f.Name)
	}
	if f.Location != nil {
		errs.required("location", *f.Location)
	}
	if f.PricePerHour != nil && *f.PricePerHour <= 0 {
		errs.add("pricePerHour", "must be greater than 0")
	}
	if f.Sports != nil {
		validateSports(errs, f.Sports)
	}
	if f.OperatingHours != nil {
		errs.window("operatingHours.open", f.OperatingHours.Open, "operatingHours.close", f.OperatingHours.Close)
	}
	if f.SlotDuration != nil && *f.SlotDuration <= 0 {
		errs.add("slotDuration", "must be greater than 0")
	}
	return errs.err()
}

// Apply copies the non-nil fields onto t.
func (f UpdateTurfForm) Apply(t *Turf) {
	if f.Name != nil {
		t.Name = *f.Name
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Location != nil {
		t.Location = *f.Location
	}
	if f.Address != nil {
		t.Address = *f.Address
	}
	if f.ContactPhone != nil {
		t.ContactPhone = *f.ContactPhone
	}
	if f.PricePerHour != nil {
		t.PricePerHour = *f.PricePerHour
	}
	if f.Sports != nil {
		t.Sports = pqArray(f.Sports)
	}
	if f.Amenities != nil {
		t.Amenities = pqArray(f.Amenities)
	}
	if f.OperatingHours != nil {
		t.OperatingHours = *f.OperatingHours
	}
	if f.SlotDuration != nil {
		t.SlotDuration = *f.SlotDuration
	}
	if f.IsAvailable != nil {
		t.IsAvailable = *f.IsAvailable
	}
}

// CreateBookingForm is the body of POST /turfs/{id}/bookings.
type CreateBookingForm struct {
	TurfID    string `json:"turfId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (f CreateBookingForm) Validate() error {
	errs := fieldErrors{}
	errs.required("turfId", f.TurfID)
	if !clock.ValidDate(f.Date) {
		errs.add("date", "must be YYYY-MM-DD")
	}
	errs.window("startTime", f.StartTime, "endTime", f.EndTime)
	return errs.err()
}

// UpdateBookingForm is the body of PUT /bookings/{id}.
type UpdateBookingForm struct {
	Status BookingStatus `json:"status"`
}

func (f UpdateBookingForm) Validate() error {
	errs := fieldErrors{}
	switch f.Status {
	case BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
	default:
		errs.add("status", "must be confirmed, cancelled or completed")
	}
	return errs.err()
}

// Turf builds the turf described by the form for ownerID.
func (f CreateTurfForm) Turf(ownerID string) Turf {
	t := Turf{
		Name:           f.Name,
		Description:    f.Description,
		Location:       f.Location,
		Address:        f.Address,
		ContactPhone:   f.ContactPhone,
		PricePerHour:   f.PricePerHour,
		Sports:         pqArray(f.Sports),
		Amenities:      pqArray(f.Amenities),
		OperatingHours: f.OperatingHours,
		SlotDuration:   f.SlotDuration,
		IsAvailable:    true,
		OwnerID:        ownerID,
	}
	if t.SlotDuration == 0 {
		t.SlotDuration = DefaultSlotMinutes
	}
	return t
}

func pqArray(s []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(s))
	for _, v := range s {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
