package model

import (
	"strings"
	"time"

	"lodge/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID           = "id"
	FieldRoomID       = "room_id"
	FieldGuestName    = "guest_name"
	FieldGuestEmail   = "guest_email"
	FieldGuestPhone   = "guest_phone"
	FieldChannel      = "channel"
	FieldCheckInDate  = "check_in_date"
	FieldCheckOutDate = "check_out_date"
	FieldStatus       = "status"
	FieldGroupID      = "group_id"
	FieldGroupName    = "group_name"
)

// Commitment lifecycle. Held, Confirmed and Active block inventory;
// Released never does. Transitions only move forward: a date change is a
// release plus a new booking, never an in-place interval edit.
const (
	StatusHeld      = "held"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusReleased  = "released"
)

// BlockingStatuses are the states counted by overlap checks and by the
// storage exclusion constraint.
var BlockingStatuses = []string{StatusHeld, StatusConfirmed, StatusActive}

var statusRank = map[string]int{
	StatusHeld:      0,
	StatusConfirmed: 1,
	StatusActive:    2,
	StatusReleased:  3,
}

// Callers spell statuses in many ways ("Checked-In", "checked_in",
// "BOOKED"). NormalizeStatus maps them onto the canonical lifecycle states,
// returning false for anything unrecognized.
func NormalizeStatus(raw string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)

	switch norm {
	case "held", "hold", "pending":
		return StatusHeld, true
	case "confirmed", "booked":
		return StatusConfirmed, true
	case "active", "checkedin":
		return StatusActive, true
	case "released", "cancelled", "canceled", "checkedout":
		return StatusReleased, true
	default:
		return "", false
	}
}

// CanTransition reports whether a commitment may move from one state to
// another. Released is terminal and states never move backwards.
func CanTransition(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}

	toRank, ok := statusRank[to]
	if !ok {
		return false
	}

	if from == StatusReleased {
		return false
	}

	return toRank > fromRank
}

// Booking event types published after commit. Emission is fire-and-forget
// and never gates the booking decision.
const (
	EventBookingCreated = "booking.created"
	EventGroupAllocated = "booking.group_allocated"
	EventStatusChanged  = "booking.status_changed"
)

type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id,omitempty"`
	GroupID    string    `json:"group_id,omitempty"`
	RoomID     string    `json:"room_id,omitempty"`
	Status     string    `json:"status"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Booking struct {
	ID           string    `db:"id"`
	RoomID       string    `db:"room_id"`
	GuestName    string    `db:"guest_name"`
	GuestEmail   string    `db:"guest_email"`
	GuestPhone   string    `db:"guest_phone"`
	Channel      string    `db:"channel"`
	CheckInDate  time.Time `db:"check_in_date"`
	CheckOutDate time.Time `db:"check_out_date"`
	Status       string    `db:"status"`
	GroupID      *string   `db:"group_id"`
	GroupName    string    `db:"group_name"`
	RateTotal    float64   `db:"rate_total"`
	Deposit      float64   `db:"deposit"`
	model.Metadata
}

// Blocks reports whether this commitment holds inventory.
func (b *Booking) Blocks() bool {
	return b.Status == StatusHeld || b.Status == StatusConfirmed || b.Status == StatusActive
}

// Nights is the stay length of the half-open interval.
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}
