// Package models defines the data structures shared by the front-end server,
// the remote API client and the local development API.
//
// The same structs are decoded from the remote API's JSON and, in the dev API,
// mapped to PostgreSQL tables by GORM. JSON tags follow the remote API's
// camelCase field names; GORM tags describe the dev API schema, which is
// created by the SQL files in migrations/.
//
// The marketplace has two top-level resources:
//   - Turfs, owned by a turf owner, with Bookings against time ranges on a date
//   - Games, organized by a player at a turf, with Players and JoinRequests
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	// pq.StringArray maps a Go []string to a PostgreSQL text[] column and
	// still marshals to a plain JSON array.
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// --- Enums ---

// UserRole is the platform-wide role carried in the viewer's ID token.
type UserRole string

const (
	UserRolePlayer UserRole = "player" // Books slots, organizes and joins games
	UserRoleOwner  UserRole = "owner"  // Lists and manages turfs
	UserRoleAdmin  UserRole = "admin"  // Full access
)

// GameStatus is computed by the server from the roster and organizer actions.
// The client renders it as authoritative.
type GameStatus string

const (
	GameStatusOpen      GameStatus = "open"
	GameStatusFull      GameStatus = "full"
	GameStatusCancelled GameStatus = "cancelled"
	GameStatusCompleted GameStatus = "completed"
)

// RequestStatus tracks a join request. pending is the only non-terminal state.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// RequestAction is what an organizer does to a pending request.
type RequestAction string

const (
	RequestActionApprove RequestAction = "approve"
	RequestActionReject  RequestAction = "reject"
)

// BookingStatus tracks a reservation against a turf.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// PaymentStatus is owned by the payment service; it is displayed, never computed here.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// SkillLevel is the level an organizer asks players to have.
type SkillLevel string

const (
	SkillLevelAny          SkillLevel = "any"
	SkillLevelBeginner     SkillLevel = "beginner"
	SkillLevelIntermediate SkillLevel = "intermediate"
	SkillLevelAdvanced     SkillLevel = "advanced"
)

// Sports lists the sports a turf can host and a game can be organized for.
var Sports = []string{"football", "cricket", "basketball", "tennis", "badminton", "volleyball", "hockey"}

// IsKnownSport reports whether s is one of Sports (case-insensitive).
func IsKnownSport(s string) bool {
	for _, sport := range Sports {
		if strings.EqualFold(sport, s) {
			return true
		}
	}
	return false
}

// DefaultSlotMinutes is the slot duration used when a turf doesn't configure one.
const DefaultSlotMinutes = 60

// --- Games ---

// Game is a pick-up game organized at a turf.
//
// TurfName and TurfLocation are copied from the turf when the game is created;
// there is no live join, so renaming a turf doesn't rename its games.
//
// CurrentPlayers is the server's counter. It can drift from len(Players);
// use Headcount for anything that makes a decision.
type Game struct {
	ID             string        `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string        `gorm:"not null" json:"title"`
	Sport          string        `gorm:"not null;index" json:"sport"`
	Description    string        `gorm:"not null;default:''" json:"description,omitempty"`
	TurfID         string        `gorm:"type:uuid;not null;index" json:"turfId"`
	TurfName       string        `gorm:"not null" json:"turfName"`
	TurfLocation   string        `gorm:"not null;default:''" json:"turfLocation"`
	Date           string        `gorm:"type:varchar(10);not null;index" json:"date"`     // YYYY-MM-DD
	StartTime      string        `gorm:"type:varchar(5);not null" json:"startTime"`       // HH:MM, local
	EndTime        string        `gorm:"type:varchar(5);not null" json:"endTime"`         // HH:MM, local
	MaxPlayers     int           `gorm:"not null" json:"maxPlayers"`                      // > 0
	CurrentPlayers int           `gorm:"not null;default:0" json:"currentPlayers"`        // server-maintained counter
	SkillLevel     SkillLevel    `gorm:"type:varchar(16);not null;default:'any'" json:"skillLevel"`
	CostPerPlayer  float64       `gorm:"type:numeric(10,2);not null;default:0" json:"costPerPlayer"`
	Status         GameStatus    `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	OrganizerID    string        `gorm:"not null;index" json:"organizerId"`
	OrganizerName  string        `gorm:"not null;default:''" json:"organizerName"`
	Players        []Player      `gorm:"foreignKey:GameID" json:"players"`
	Requests       []JoinRequest `gorm:"foreignKey:GameID" json:"requests"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller didn't.
func (g *Game) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// Headcount is the number of distinct players in the game.
//
// The roster is the source of truth. The server-supplied CurrentPlayers is only
// used when the roster was omitted from the payload altogether.
func (g Game) Headcount() int {
	if len(g.Players) == 0 {
		return g.CurrentPlayers
	}
	seen := make(map[string]struct{}, len(g.Players))
	for _, p := range g.Players {
		seen[p.UserID] = struct{}{}
	}
	return len(seen)
}

// RequiredPlayers is how many more players the game needs. Never negative.
func (g Game) RequiredPlayers() int {
	if n := g.MaxPlayers - g.Headcount(); n > 0 {
		return n
	}
	return 0
}

// CountDrift reports whether the server counter disagrees with the roster.
func (g Game) CountDrift() bool {
	return len(g.Players) > 0 && g.CurrentPlayers != g.Headcount()
}

// Player is a confirmed member of a game. A user appears at most once per game;
// the dev API enforces this with a composite primary key.
type Player struct {
	GameID      string    `gorm:"type:uuid;primaryKey" json:"-"`
	UserID      string    `gorm:"primaryKey" json:"userId"`
	Name        string    `gorm:"not null;default:''" json:"name"`
	JoinedAt    time.Time `gorm:"not null" json:"joinedAt"`
	IsConfirmed bool      `gorm:"not null;default:true" json:"isConfirmed"`
}

func (Player) TableName() string { return "game_players" }

// JoinRequest asks the organizer to add UserID to the game.
// A user has at most one pending request per game.
type JoinRequest struct {
	ID        string        `gorm:"type:uuid;primaryKey" json:"id"`
	GameID    string        `gorm:"type:uuid;not null;index" json:"-"`
	UserID    string        `gorm:"not null;index" json:"userId"`
	UserName  string        `gorm:"not null;default:''" json:"userName"`
	Message   string        `gorm:"not null;default:''" json:"message,omitempty"`
	Status    RequestStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	// RespondedAt is set when the organizer approves or rejects.
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

func (JoinRequest) TableName() string { return "join_requests" }

func (r *JoinRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// --- Turfs ---

// OperatingHours is the daily window a turf can be booked in, as HH:MM strings.
// Open must be before Close; overnight windows are not supported.
type OperatingHours struct {
	Open  string `gorm:"type:varchar(5);not null;default:'06:00'" json:"open"`
	Close string `gorm:"type:varchar(5);not null;default:'22:00'" json:"close"`
}

// Turf is a bookable playing field. Only OwnerID may change it.
//
// IsAvailable is the owner's on/off switch and is independent of bookings.
type Turf struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Description    string         `gorm:"not null;default:''" json:"description,omitempty"`
	Location       string         `gorm:"not null;index" json:"location"`
	Address        string         `gorm:"not null;default:''" json:"address"`
	ContactPhone   string         `gorm:"not null;default:''" json:"contactPhone,omitempty"`
	PricePerHour   float64        `gorm:"type:numeric(10,2);not null" json:"pricePerHour"`
	Sports         pq.StringArray `gorm:"type:text[];not null" json:"sports"`
	Amenities      pq.StringArray `gorm:"type:text[];not null" json:"amenities"`
	OperatingHours OperatingHours `gorm:"embedded;embeddedPrefix:operating_hours_" json:"operatingHours"`
	SlotDuration   int            `gorm:"not null;default:60" json:"slotDuration"` // minutes
	IsAvailable    bool           `gorm:"not null;default:true" json:"isAvailable"`
	OwnerID        string         `gorm:"not null;index" json:"ownerId"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (t *Turf) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// SlotMinutes is the configured slot duration, or DefaultSlotMinutes.
func (t Turf) SlotMinutes() int {
	if t.SlotDuration > 0 {
		return t.SlotDuration
	}
	return DefaultSlotMinutes
}

// HostsSport reports whether the turf lists sport.
func (t Turf) HostsSport(sport string) bool {
	for _, s := range t.Sports {
		if strings.EqualFold(s, sport) {
			return true
		}
	}
	return false
}

// Booking reserves a turf for [StartTime, EndTime) on Date.
type Booking struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	TurfID        string        `gorm:"type:uuid;not null;index:idx_bookings_turf_date" json:"turfId"`
	TurfName      string        `gorm:"not null;default:''" json:"turfName"`
	UserID        string        `gorm:"not null;index" json:"userId"`
	UserName      string        `gorm:"not null;default:''" json:"userName"`
	Date          string        `gorm:"type:varchar(10);not null;index:idx_bookings_turf_date" json:"date"` // YYYY-MM-DD
	StartTime     string        `gorm:"type:varchar(5);not null" json:"startTime"`
	EndTime       string        `gorm:"type:varchar(5);not null" json:"endTime"`
	TotalAmount   float64       `gorm:"type:numeric(10,2);not null;default:0" json:"totalAmount"`
	Status        BookingStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the booking still holds its time range.
func (b Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}
