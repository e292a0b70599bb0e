package model

import (
	"lodge/shared/model"
)

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID         = "id"
	FieldRoomNumber = "room_number"
	FieldRoomTypeID = "room_type_id"
	FieldBranchID   = "branch_id"
	FieldFloor      = "floor"
	FieldStatus     = "status"
)

// Coarse room statuses. These are a derived projection used as a fast
// pre-filter; overlap decisions always come from the booking rows.
const (
	StatusAvailable   = "available"
	StatusOccupied    = "occupied"
	StatusReserved    = "reserved"
	StatusMaintenance = "maintenance"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusMaintenance:
		return true
	}

	return false
}

type Room struct {
	ID         string `db:"id"`
	RoomNumber string `db:"room_number"`
	RoomTypeID string `db:"room_type_id"`
	BranchID   string `db:"branch_id"`
	Floor      int    `db:"floor"`
	Status     string `db:"status"`
	Notes      string `db:"notes"`
	model.Metadata
}

// FreeRoom is a room joined with its type, as returned by availability
// queries.
type FreeRoom struct {
	ID         string  `db:"id"`
	RoomNumber string  `db:"room_number"`
	RoomTypeID string  `db:"room_type_id"`
	TypeName   string  `db:"type_name"`
	Capacity   int     `db:"capacity"`
	BaseRate   float64 `db:"base_rate"`
}
