package model

import (
	"lodge/shared/model"
)

const (
	TableName  = "room_types"
	EntityName = "room_type"

	FieldID       = "id"
	FieldName     = "name"
	FieldCapacity = "capacity"
	FieldBaseRate = "base_rate"
)

// RoomType is the resource catalog entry. The catalog is maintained by an
// external system; this service only reads it.
type RoomType struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Capacity    int     `db:"capacity"`
	BaseRate    float64 `db:"base_rate"`
	Description string  `db:"description"`
	model.Metadata
}
