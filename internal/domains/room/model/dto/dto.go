package dto

import (
	"lodge/internal/domains/room/model"
	"lodge/shared"
	gDto "lodge/shared/dto"
)

type UpdateRoomStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available occupied reserved maintenance"`
}

type RoomResponse struct {
	ID         string `json:"id"`
	RoomNumber string `json:"room_number"`
	RoomTypeID string `json:"room_type_id"`
	BranchID   string `json:"branch_id"`
	Floor      int    `json:"floor"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.RoomNumber = model.RoomNumber
	r.RoomTypeID = model.RoomTypeID
	r.BranchID = model.BranchID
	r.Floor = model.Floor
	r.Status = model.Status
	r.Notes = model.Notes
	r.Metadata.FromModel(model.Metadata)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}

type FreeRoomResponse struct {
	ID         string  `json:"id"`
	RoomNumber string  `json:"room_number"`
	RoomTypeID string  `json:"room_type_id"`
	TypeName   string  `json:"type_name"`
	Capacity   int     `json:"capacity"`
	BaseRate   float64 `json:"base_rate"`
}

func (r *FreeRoomResponse) FromModel(model model.FreeRoom) {
	r.ID = model.ID
	r.RoomNumber = model.RoomNumber
	r.RoomTypeID = model.RoomTypeID
	r.TypeName = model.TypeName
	r.Capacity = model.Capacity
	r.BaseRate = model.BaseRate
}

type GetFreeRoomsResponse struct {
	CheckIn   string             `json:"check_in"`
	CheckOut  string             `json:"check_out"`
	FreeRooms []FreeRoomResponse `json:"free_rooms"`
}

func (r *GetFreeRoomsResponse) FromModels(models []model.FreeRoom, checkIn, checkOut string) {
	r.CheckIn = checkIn
	r.CheckOut = checkOut

	r.FreeRooms = make([]FreeRoomResponse, len(models))
	for i, mod := range models {
		r.FreeRooms[i].FromModel(mod)
	}
}
