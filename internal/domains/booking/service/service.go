package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lodge/config"
	"lodge/infras/kafka"
	"lodge/infras/otel"
	"lodge/internal/domains/booking/model"
	"lodge/internal/domains/booking/model/dto"
	"lodge/internal/domains/booking/repository"
	rateModel "lodge/internal/domains/rate/model"
	rateService "lodge/internal/domains/rate/service"
	roomModel "lodge/internal/domains/room/model"
	roomDto "lodge/internal/domains/room/model/dto"
	roomRepo "lodge/internal/domains/room/repository"
	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/timezone"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	// maxSuggestionLimit caps caller-supplied limits on free-room listings.
	maxSuggestionLimit = 50
)

// Booking is the orchestrator: it composes the conflict resolver, the group
// allocator and the rate engine into committed reservations or typed
// rejections. A request either commits in full or leaves no trace.
type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.CreateBookingResponse, error)
	AllocateGroup(ctx context.Context, req dto.AllocateGroupRequest) (dto.GroupAllocationResponse, error)
	CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeBookingID string) (dto.AvailabilityResponse, error)
	SuggestAlternatives(ctx context.Context, query roomRepo.FreeQuery) (roomDto.GetFreeRoomsResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (dto.UpdateStatusResponse, error)
	Timeline(ctx context.Context, roomID string, from, to time.Time) (dto.TimelineResponse, error)
}

type serviceImpl struct {
	repo     repository.Booking
	roomRepo roomRepo.Room
	rates    rateService.Rate
	kafka    kafka.Client
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(repo repository.Booking, roomRepo roomRepo.Room, rates rateService.Rate, kafkaClient kafka.Client, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Booking {
	return &serviceImpl{
		repo:     repo,
		roomRepo: roomRepo,
		rates:    rates,
		kafka:    kafkaClient,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

func (s *serviceImpl) suggestionLimit() int {
	if s.cfg.Booking.SuggestionLimit > 0 {
		return s.cfg.Booking.SuggestionLimit
	}

	return constant.DefaultValueLimit
}

func (s *serviceImpl) publishEvent(ctx context.Context, key string, event model.Event) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.BookingTopic, kafka.Message{Key: key, Value: event}); err != nil {
			log.Error().Err(err).Str("type", event.Type).Msg("failed to publish booking event")
		}
	}()
}

func (s *serviceImpl) invalidateListCaches(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}

// conflictRejection builds the recoverable conflict outcome: the blocking
// commitments plus ranked substitute rooms of the same type.
func (s *serviceImpl) conflictRejection(ctx context.Context, room roomModel.Room, checkIn, checkOut time.Time, conflicts []model.Booking) error {
	freeRooms, err := s.roomRepo.FindFree(ctx, roomRepo.FreeQuery{
		RoomTypeID:    room.RoomTypeID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		ExcludeRoomID: room.ID,
		Limit:         s.suggestionLimit(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to find alternative rooms for conflict rejection")

		freeRooms = nil
	}

	suggestions := make([]roomDto.FreeRoomResponse, len(freeRooms))
	for i, freeRoom := range freeRooms {
		suggestions[i].FromModel(freeRoom)
	}

	return failure.ConflictWithDetails( // nolint:wrapcheck
		"requested stay conflicts with existing commitments",
		dto.ConflictDetails{
			Conflicts:   dto.ConflictsFromModels(conflicts),
			Suggestions: suggestions,
		},
	)
}

// tryCreate runs one full check-and-commit attempt inside a transaction.
// A true second return value means the storage exclusion constraint fired
// despite the in-tx pre-check, so the whole attempt may be retried.
func (s *serviceImpl) tryCreate(ctx context.Context, room roomModel.Room, booking model.Booking) (raced bool, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin booking transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Error().Err(rollbackErr).Msg("failed to roll back booking transaction")
			}
		}
	}()

	conflicts, err := s.repo.FindConflictsTx(ctx, tx, room.ID, booking.CheckInDate, booking.CheckOutDate, "")
	if err != nil {
		return false, fmt.Errorf("failed to re-check conflicts: %w", err)
	}

	if len(conflicts) > 0 {
		return false, s.conflictRejection(ctx, room, booking.CheckInDate, booking.CheckOutDate, conflicts)
	}

	if err = s.repo.InsertTx(ctx, tx, booking); err != nil {
		if repository.IsIntegrityConflict(err) {
			return true, fmt.Errorf("booking insert lost the race: %w", err)
		}

		return false, fmt.Errorf("failed to insert booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		if repository.IsIntegrityConflict(err) {
			return true, fmt.Errorf("booking commit lost the race: %w", err)
		}

		return false, fmt.Errorf("failed to commit booking: %w", err)
	}

	return false, nil
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.CreateBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	checkIn, checkOut, err := req.Interval()
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid stay dates: %v", err)) // nolint:wrapcheck
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(req.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return res, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	// Policy gates and blackouts run before any write: a stay the rate
	// engine rejects never reaches the conflict resolver.
	quote, err := s.rates.QuoteStay(ctx, room.RoomTypeID, checkIn, checkOut, req.Plan, req.Promo, req.Channel, req.AccessCode)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	// Fast-path pre-check outside the transaction so a plainly conflicting
	// request gets its detail without write-side locking.
	conflicts, err := s.repo.FindConflicts(ctx, room.ID, quote.CheckIn, quote.CheckOut, "")
	if err != nil {
		return res, fmt.Errorf("failed to check conflicts: %w", err)
	}

	if len(conflicts) > 0 {
		return res, s.conflictRejection(ctx, room, quote.CheckIn, quote.CheckOut, conflicts)
	}

	booking := req.ToModel(user, quote)

	raced, err := s.tryCreate(ctx, room, booking)
	if raced {
		// The exclusion constraint fired despite a passing pre-check.
		// Re-run the whole check-and-commit once; a second loss is final.
		log.Warn().Str("room_id", room.ID).Msg("booking lost allocation race, retrying once")
		scope.AddEvent("integrity violation, retrying check-and-commit")

		booking = req.ToModel(user, quote)
		raced, err = s.tryCreate(ctx, room, booking)

		if raced {
			conflicts, _ = s.repo.FindConflicts(ctx, room.ID, quote.CheckIn, quote.CheckOut, "")

			return res, s.conflictRejection(ctx, room, quote.CheckIn, quote.CheckOut, conflicts)
		}
	}

	if err != nil {
		return res, err // nolint:wrapcheck
	}

	s.invalidateListCaches(ctx)
	s.publishEvent(ctx, booking.ID, model.Event{
		Type:       model.EventBookingCreated,
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		Status:     booking.Status,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		OccurredAt: timezone.Now(),
	})

	res.Booking.FromModel(booking)
	res.Quote.FromModel(quote)

	return res, nil
}

// tryAllocateGroup runs one atomic group attempt: lock candidate rooms,
// re-validate availability inside the transaction, insert every commitment
// or none.
func (s *serviceImpl) tryAllocateGroup(ctx context.Context, req dto.AllocateGroupRequest, user string, quote rateModel.Quote) (groupID string, bookings []model.Booking, raced bool, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to begin group transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				log.Error().Err(rollbackErr).Msg("failed to roll back group transaction")
			}
		}
	}()

	freeRooms, err := s.roomRepo.FindFreeTx(ctx, tx, roomRepo.FreeQuery{
		RoomTypeID: req.RoomTypeID,
		CheckIn:    quote.CheckIn,
		CheckOut:   quote.CheckOut,
		Limit:      req.Quantity,
	})
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to find free rooms for group: %w", err)
	}

	if len(freeRooms) < req.Quantity {
		return "", nil, false, failure.ConflictWithDetails( // nolint:wrapcheck
			fmt.Sprintf("only %d of %d requested rooms are available", len(freeRooms), req.Quantity),
			dto.ShortfallDetails{
				Requested: req.Quantity,
				Available: len(freeRooms),
				Shortfall: req.Quantity - len(freeRooms),
			},
		)
	}

	groupID, bookings = req.ToModels(user, quote, freeRooms[:req.Quantity])

	if err = s.repo.InsertBulkTx(ctx, tx, bookings); err != nil {
		if repository.IsIntegrityConflict(err) {
			return "", nil, true, fmt.Errorf("group insert lost the race: %w", err)
		}

		return "", nil, false, fmt.Errorf("failed to insert group bookings: %w", err)
	}

	if err = tx.Commit(); err != nil {
		if repository.IsIntegrityConflict(err) {
			return "", nil, true, fmt.Errorf("group commit lost the race: %w", err)
		}

		return "", nil, false, fmt.Errorf("failed to commit group bookings: %w", err)
	}

	return groupID, bookings, false, nil
}

func (s *serviceImpl) AllocateGroup(ctx context.Context, req dto.AllocateGroupRequest) (res dto.GroupAllocationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AllocateGroup")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	checkIn, checkOut, err := req.Interval()
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid stay dates: %v", err)) // nolint:wrapcheck
	}

	quote, err := s.rates.QuoteStay(ctx, req.RoomTypeID, checkIn, checkOut, req.Plan, req.Promo, req.Channel, req.AccessCode)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	groupID, bookings, raced, err := s.tryAllocateGroup(ctx, req, user, quote)
	if raced {
		log.Warn().Str("room_type_id", req.RoomTypeID).Msg("group allocation lost the race, retrying once")
		scope.AddEvent("integrity violation, retrying group allocation")

		groupID, bookings, raced, err = s.tryAllocateGroup(ctx, req, user, quote)
		if raced {
			return res, failure.Conflict("group allocation lost the race against concurrent bookings") // nolint:wrapcheck
		}
	}

	if err != nil {
		return res, err // nolint:wrapcheck
	}

	s.invalidateListCaches(ctx)
	s.publishEvent(ctx, groupID, model.Event{
		Type:       model.EventGroupAllocated,
		GroupID:    groupID,
		Status:     bookings[0].Status,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		OccurredAt: timezone.Now(),
	})

	res.GroupID = groupID
	res.GroupName = req.GroupName
	res.RoomTypeID = req.RoomTypeID
	res.CheckIn = req.CheckIn
	res.CheckOut = req.CheckOut
	res.Quantity = req.Quantity
	res.Quote.FromModel(quote)

	res.Bookings = make([]dto.BookingResponse, len(bookings))
	for i, booking := range bookings {
		res.Bookings[i].FromModel(booking)
		res.TotalRate += booking.RateTotal
		res.TotalDeposit += booking.Deposit
	}

	return res, nil
}

func (s *serviceImpl) CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeBookingID string) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !checkOut.After(checkIn) {
		return res, failure.BadRequestFromString("check_out must be after check_in") // nolint:wrapcheck
	}

	exist, err := s.roomRepo.Exist(ctx, shared.FilterByID(roomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	conflicts, err := s.repo.FindConflicts(ctx, roomID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return res, fmt.Errorf("failed to check availability: %w", err)
	}

	res = dto.AvailabilityResponse{
		RoomID:    roomID,
		CheckIn:   checkIn.Format(constant.StayDateFormat),
		CheckOut:  checkOut.Format(constant.StayDateFormat),
		Available: len(conflicts) == 0,
		Conflicts: dto.ConflictsFromModels(conflicts),
	}

	return res, nil
}

func (s *serviceImpl) SuggestAlternatives(ctx context.Context, query roomRepo.FreeQuery) (res roomDto.GetFreeRoomsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SuggestAlternatives")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !query.CheckOut.After(query.CheckIn) {
		return res, failure.BadRequestFromString("check_out must be after check_in") // nolint:wrapcheck
	}

	if query.Limit <= 0 {
		query.Limit = s.suggestionLimit()
	}

	if query.Limit > maxSuggestionLimit {
		query.Limit = maxSuggestionLimit
	}

	freeRooms, err := s.roomRepo.FindFree(ctx, query)
	if err != nil {
		return res, fmt.Errorf("failed to find free rooms: %w", err)
	}

	res.FromModels(freeRooms,
		query.CheckIn.Format(constant.StayDateFormat),
		query.CheckOut.Format(constant.StayDateFormat))

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

type transitionDetails struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (res dto.UpdateStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	status, ok := model.NormalizeStatus(req.Status)
	if !ok {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid status value %q", req.Status)) // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if !model.CanTransition(booking.Status, status) {
		return res, failure.UnprocessableEntity( // nolint:wrapcheck
			fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, status),
			transitionDetails{From: booking.Status, To: status},
		)
	}

	update := map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err = s.repo.Update(ctx, update, filter); err != nil {
		return res, fmt.Errorf("failed to update booking status: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}
	}()
	s.invalidateListCaches(ctx)

	s.publishEvent(ctx, booking.ID, model.Event{
		Type:       model.EventStatusChanged,
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		Status:     status,
		CheckIn:    booking.CheckInDate.Format(constant.StayDateFormat),
		CheckOut:   booking.CheckOutDate.Format(constant.StayDateFormat),
		OccurredAt: timezone.Now(),
	})

	res.ID = booking.ID
	res.Status = status

	return res, nil
}

func (s *serviceImpl) Timeline(ctx context.Context, roomID string, from, to time.Time) (res dto.TimelineResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Timeline")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !to.After(from) {
		return res, failure.BadRequestFromString("to must be after from") // nolint:wrapcheck
	}

	exist, err := s.roomRepo.Exist(ctx, shared.FilterByID(roomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	bookings, err := s.repo.Timeline(ctx, roomID, from, to)
	if err != nil {
		return res, fmt.Errorf("failed to get room timeline: %w", err)
	}

	res.FromModels(roomID, from, to, bookings)

	return res, nil
}
