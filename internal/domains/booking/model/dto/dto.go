package dto

import (
	"time"

	"github.com/google/uuid"

	"lodge/internal/domains/booking/model"
	rateModel "lodge/internal/domains/rate/model"
	rateDto "lodge/internal/domains/rate/model/dto"
	roomModel "lodge/internal/domains/room/model"
	roomDto "lodge/internal/domains/room/model/dto"
	"lodge/shared"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	gModel "lodge/shared/model"
	"lodge/shared/timezone"
)

type CreateBookingRequest struct {
	RoomID     string `json:"room_id"     validate:"required,uuid"`
	GuestName  string `json:"guest_name"  validate:"required,max=100"`
	GuestEmail string `json:"guest_email" validate:"omitempty,email,max=100"`
	GuestPhone string `json:"guest_phone" validate:"omitempty,max=20"`
	Channel    string `json:"channel"     validate:"omitempty,oneof=direct web agency walkin"`
	CheckIn    string `json:"check_in"    validate:"required,staydate"`
	CheckOut   string `json:"check_out"   validate:"required,staydate"`
	Plan       string `json:"plan"        validate:"omitempty,max=50"`
	Promo      string `json:"promo"       validate:"omitempty,max=50"`
	AccessCode string `json:"access_code" validate:"omitempty,max=50"`
	// Hold creates the commitment as a soft hold instead of a confirmed
	// reservation; the reconciler releases holds that outlive their window.
	Hold bool `json:"hold"`
}

func (c *CreateBookingRequest) Interval() (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.Parse(constant.StayDateFormat, c.CheckIn)
	if err != nil {
		return checkIn, checkOut, err // nolint:wrapcheck
	}

	checkOut, err = time.Parse(constant.StayDateFormat, c.CheckOut)

	return checkIn, checkOut, err // nolint:wrapcheck
}

func (c *CreateBookingRequest) ToModel(user string, quote rateModel.Quote) model.Booking {
	status := model.StatusConfirmed
	if c.Hold {
		status = model.StatusHeld
	}

	channel := c.Channel
	if channel == "" {
		channel = constant.DefaultChannel
	}

	return model.Booking{
		ID:           uuid.NewString(),
		RoomID:       c.RoomID,
		GuestName:    c.GuestName,
		GuestEmail:   c.GuestEmail,
		GuestPhone:   c.GuestPhone,
		Channel:      channel,
		CheckInDate:  quote.CheckIn,
		CheckOutDate: quote.CheckOut,
		Status:       status,
		RateTotal:    quote.Total,
		Deposit:      quote.Deposit,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type AllocateGroupRequest struct {
	RoomTypeID string `json:"room_type_id" validate:"required,uuid"`
	GroupName  string `json:"group_name"   validate:"required,max=100"`
	Quantity   int    `json:"quantity"     validate:"required,min=1,max=50"`
	GuestName  string `json:"guest_name"   validate:"required,max=100"`
	GuestEmail string `json:"guest_email"  validate:"omitempty,email,max=100"`
	GuestPhone string `json:"guest_phone"  validate:"omitempty,max=20"`
	Channel    string `json:"channel"      validate:"omitempty,oneof=direct web agency walkin"`
	CheckIn    string `json:"check_in"     validate:"required,staydate"`
	CheckOut   string `json:"check_out"    validate:"required,staydate"`
	Plan       string `json:"plan"         validate:"omitempty,max=50"`
	Promo      string `json:"promo"        validate:"omitempty,max=50"`
	AccessCode string `json:"access_code"  validate:"omitempty,max=50"`
	Hold       bool   `json:"hold"`
}

func (c *AllocateGroupRequest) Interval() (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.Parse(constant.StayDateFormat, c.CheckIn)
	if err != nil {
		return checkIn, checkOut, err // nolint:wrapcheck
	}

	checkOut, err = time.Parse(constant.StayDateFormat, c.CheckOut)

	return checkIn, checkOut, err // nolint:wrapcheck
}

// ToModels builds one commitment per allocated room, all sharing the group
// identity. Either every one of them commits or none do.
func (c *AllocateGroupRequest) ToModels(user string, quote rateModel.Quote, rooms []roomModel.FreeRoom) (string, []model.Booking) {
	groupID := uuid.NewString()

	status := model.StatusConfirmed
	if c.Hold {
		status = model.StatusHeld
	}

	channel := c.Channel
	if channel == "" {
		channel = constant.DefaultChannel
	}

	bookings := make([]model.Booking, len(rooms))
	for i, room := range rooms {
		bookings[i] = model.Booking{
			ID:           uuid.NewString(),
			RoomID:       room.ID,
			GuestName:    c.GuestName,
			GuestEmail:   c.GuestEmail,
			GuestPhone:   c.GuestPhone,
			Channel:      channel,
			CheckInDate:  quote.CheckIn,
			CheckOutDate: quote.CheckOut,
			Status:       status,
			GroupID:      &groupID,
			GroupName:    c.GroupName,
			RateTotal:    quote.Total,
			Deposit:      quote.Deposit,
			Metadata: gModel.Metadata{
				CreatedAt:  timezone.Now(),
				ModifiedAt: timezone.Now(),
				CreatedBy:  user,
				ModifiedBy: user,
			},
		}
	}

	return groupID, bookings
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=30"`
}

type BookingResponse struct {
	ID         string  `json:"id"`
	RoomID     string  `json:"room_id"`
	GuestName  string  `json:"guest_name"`
	GuestEmail string  `json:"guest_email"`
	GuestPhone string  `json:"guest_phone"`
	Channel    string  `json:"channel"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	Nights     int     `json:"nights"`
	Status     string  `json:"status"`
	GroupID    *string `json:"group_id,omitempty"`
	GroupName  string  `json:"group_name,omitempty"`
	RateTotal  float64 `json:"rate_total"`
	Deposit    float64 `json:"deposit"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.RoomID = model.RoomID
	r.GuestName = model.GuestName
	r.GuestEmail = model.GuestEmail
	r.GuestPhone = model.GuestPhone
	r.Channel = model.Channel
	r.CheckIn = model.CheckInDate.Format(constant.StayDateFormat)
	r.CheckOut = model.CheckOutDate.Format(constant.StayDateFormat)
	r.Nights = model.Nights()
	r.Status = model.Status
	r.GroupID = model.GroupID
	r.GroupName = model.GroupName
	r.RateTotal = model.RateTotal
	r.Deposit = model.Deposit
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// ConflictingCommitment is the slimmed view of a blocking booking attached
// to availability answers and conflict rejections.
type ConflictingCommitment struct {
	BookingID string `json:"booking_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Status    string `json:"status"`
}

func (r *ConflictingCommitment) FromModel(model model.Booking) {
	r.BookingID = model.ID
	r.CheckIn = model.CheckInDate.Format(constant.StayDateFormat)
	r.CheckOut = model.CheckOutDate.Format(constant.StayDateFormat)
	r.Status = model.Status
}

func ConflictsFromModels(models []model.Booking) []ConflictingCommitment {
	conflicts := make([]ConflictingCommitment, len(models))
	for i, mod := range models {
		conflicts[i].FromModel(mod)
	}

	return conflicts
}

type AvailabilityResponse struct {
	RoomID    string                  `json:"room_id"`
	CheckIn   string                  `json:"check_in"`
	CheckOut  string                  `json:"check_out"`
	Available bool                    `json:"available"`
	Conflicts []ConflictingCommitment `json:"conflicts"`
}

// ConflictDetails is the structured payload of a conflict rejection: the
// full blocking list plus ranked substitute rooms.
type ConflictDetails struct {
	Conflicts   []ConflictingCommitment    `json:"conflicts"`
	Suggestions []roomDto.FreeRoomResponse `json:"suggestions"`
}

// ShortfallDetails reports exactly how many rooms a group allocation was
// short, so the caller can present a precise "only K available" message.
type ShortfallDetails struct {
	Requested int `json:"requested"`
	Available int `json:"available"`
	Shortfall int `json:"shortfall"`
}

type GroupAllocationResponse struct {
	GroupID      string                `json:"group_id"`
	GroupName    string                `json:"group_name"`
	RoomTypeID   string                `json:"room_type_id"`
	CheckIn      string                `json:"check_in"`
	CheckOut     string                `json:"check_out"`
	Quantity     int                   `json:"quantity"`
	Bookings     []BookingResponse     `json:"bookings"`
	TotalRate    float64               `json:"total_rate"`
	TotalDeposit float64               `json:"total_deposit"`
	Quote        rateDto.QuoteResponse `json:"quote"`
}

type CreateBookingResponse struct {
	Booking BookingResponse       `json:"booking"`
	Quote   rateDto.QuoteResponse `json:"quote"`
}

type UpdateStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type TimelineResponse struct {
	RoomID   string            `json:"room_id"`
	From     string            `json:"from"`
	To       string            `json:"to"`
	Bookings []BookingResponse `json:"bookings"`
}

func (r *TimelineResponse) FromModels(roomID string, from, to time.Time, models []model.Booking) {
	r.RoomID = roomID
	r.From = from.Format(constant.StayDateFormat)
	r.To = to.Format(constant.StayDateFormat)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
