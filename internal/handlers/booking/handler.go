package booking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lodge/infras/otel"
	"lodge/internal/domains/booking/model"
	"lodge/internal/domains/booking/model/dto"
	"lodge/internal/domains/booking/service"
	roomRepo "lodge/internal/domains/room/repository"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/validator"
	"lodge/transport/http/response"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Post("/group", handler.AllocateGroup)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/availability", handler.CheckAvailability)
		routerGroup.Get("/suggestions", handler.SuggestAlternatives)
		routerGroup.Get("/timeline", handler.Timeline)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}/status", handler.UpdateStatus)
	})
}

// CreateBooking allocates a single room for a stay interval.
// @Summary Create a booking
// @Description Price and commit a single-room booking. The stay is rejected with conflict details and alternative rooms when the interval overlaps an existing commitment.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.CreateBookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Interval conflict with alternatives attached"
// @Failure 422 {object} response.Error "Rate policy violation"
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking created successfully by user " + user)

	response.WithJSON(w, http.StatusCreated, res)
}

// AllocateGroup allocates N rooms of one type as a single atomic group.
// @Summary Allocate a group booking
// @Description Allocate N rooms of the requested type for the same interval. The allocation commits in full or not at all; a shortfall reports exactly how many rooms were available.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.AllocateGroupRequest true "Allocate Group Request"
// @Success 201 {object} response.Data[dto.GroupAllocationResponse] "Group allocated"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error "Not enough free rooms"
// @Failure 422 {object} response.Error "Rate policy violation"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/group [post]
// @Security BearerAuth
func (handler *Handler) AllocateGroup(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".AllocateGroup")
	defer scope.End()

	req := dto.AllocateGroupRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.AllocateGroup(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to allocate group booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Group booking allocated successfully by user " + user)

	response.WithJSON(w, http.StatusCreated, res)
}

// GetBookings retrieves bookings with optional filtering and pagination.
// @Summary Get all bookings
// @Description Retrieve bookings with optional filtering by room, status or group.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param room_id query string false "Filter by room ID"
// @Param status query string false "Filter by status (held, confirmed, active, released)"
// @Param group_id query string false "Filter by group ID"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	for _, field := range []string{model.FieldRoomID, model.FieldStatus, model.FieldGroupID} {
		value := r.URL.Query().Get(field)
		if value == "" {
			continue
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    field,
			Operator: gDto.FilterOperatorEq,
			Value:    value,
			Table:    model.TableName,
		})
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// CheckAvailability reports whether a room is free for an interval.
// @Summary Check room availability
// @Description Check whether a room is free for the half-open stay interval, listing every blocking commitment when it is not.
// @Tags Booking
// @Accept json
// @Produce json
// @Param room_id query string true "Room ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Param exclude_booking_id query string false "Booking ID to ignore, for reschedule checks"
// @Success 200 {object} response.Data[dto.AvailabilityResponse] "Availability verdict"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/availability [get]
func (handler *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	query := r.URL.Query()

	checkIn, checkOut, err := parseInterval(query.Get("check_in"), query.Get("check_out"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse stay interval")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.CheckAvailability(ctx, query.Get(model.FieldRoomID), checkIn, checkOut, query.Get("exclude_booking_id"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Availability checked successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// SuggestAlternatives lists free rooms for an interval.
// @Summary Suggest free rooms
// @Description List rooms free for the interval, optionally narrowed by room type and capacity, ordered by room number.
// @Tags Booking
// @Accept json
// @Produce json
// @Param room_type_id query string false "Filter by room type ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Param capacity query int false "Minimum capacity"
// @Param limit query int false "Maximum rooms returned"
// @Success 200 {object} response.Data[roomDto.GetFreeRoomsResponse] "Free rooms"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/suggestions [get]
func (handler *Handler) SuggestAlternatives(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SuggestAlternatives")
	defer scope.End()

	query := r.URL.Query()

	checkIn, checkOut, err := parseInterval(query.Get("check_in"), query.Get("check_out"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse stay interval")

		response.WithError(w, err)

		return
	}

	capacity, _ := strconv.Atoi(query.Get("capacity"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	res, err := handler.service.SuggestAlternatives(ctx, roomRepo.FreeQuery{
		RoomTypeID: query.Get("room_type_id"),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Capacity:   capacity,
		Limit:      limit,
	})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to suggest alternative rooms")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Alternative rooms suggested successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// Timeline lists every commitment touching a room within a window.
// @Summary Get a room's booking timeline
// @Description List every commitment, blocking or released, that touches the window, ordered by check-in date.
// @Tags Booking
// @Accept json
// @Produce json
// @Param room_id query string true "Room ID"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.TimelineResponse] "Room timeline"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/timeline [get]
// @Security BearerAuth
func (handler *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Timeline")
	defer scope.End()

	query := r.URL.Query()

	from, to, err := parseInterval(query.Get("from"), query.Get("to"))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse timeline window")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Timeline(ctx, query.Get(model.FieldRoomID), from, to)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get room timeline")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room timeline retrieved successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Description Retrieve a booking by its unique identifier.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// UpdateStatus advances a booking along its lifecycle.
// @Summary Update a booking's status
// @Description Move a booking forward through held, confirmed, active and released. Backward transitions are rejected; released is terminal.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateStatusRequest true "Update Status Request"
// @Success 200 {object} response.Data[dto.UpdateStatusResponse] "Status updated"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error "Invalid lifecycle transition"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateStatusRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.UpdateStatus(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update booking status")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking status updated successfully by user " + user)

	response.WithJSON(w, http.StatusOK, res)
}

func parseInterval(rawFrom, rawTo string) (from, to time.Time, err error) {
	from, err = time.Parse(constant.StayDateFormat, rawFrom)
	if err != nil {
		return from, to, failure.BadRequestFromString("invalid start date, expected YYYY-MM-DD") // nolint:wrapcheck
	}

	to, err = time.Parse(constant.StayDateFormat, rawTo)
	if err != nil {
		return from, to, failure.BadRequestFromString("invalid end date, expected YYYY-MM-DD") // nolint:wrapcheck
	}

	return from, to, nil
}
