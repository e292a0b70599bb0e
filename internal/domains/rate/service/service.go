package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/internal/domains/rate/engine"
	"lodge/internal/domains/rate/model"
	"lodge/internal/domains/rate/model/dto"
	"lodge/internal/domains/rate/policy"
	roomTypeModel "lodge/internal/domains/roomtype/model"
	roomTypeRepo "lodge/internal/domains/roomtype/repository"
	"lodge/shared"
	"lodge/shared/constant"
	"lodge/shared/failure"
)

type Rate interface {
	Quote(ctx context.Context, req dto.QuoteRequest) (dto.QuoteResponse, error)
	QuoteStay(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time, planCode, promoCode, channel, accessCode string) (model.Quote, error)
}

type serviceImpl struct {
	roomTypes roomTypeRepo.RoomType
	policies  policy.Provider
	cfg       *config.Config
	otel      otel.Otel
	clock     engine.Clock
}

func New(roomTypes roomTypeRepo.RoomType, policies policy.Provider, cfg *config.Config, otel otel.Otel, clock engine.Clock) Rate {
	if clock == nil {
		clock = time.Now
	}

	return &serviceImpl{
		roomTypes: roomTypes,
		policies:  policies,
		cfg:       cfg,
		otel:      otel,
		clock:     clock,
	}
}

// QuoteStay prices a stay for one room type. It resolves the catalog entry
// and the current policy snapshot, then hands both to the pure engine.
func (s *serviceImpl) QuoteStay(ctx context.Context, roomTypeID string, checkIn, checkOut time.Time, planCode, promoCode, channel, accessCode string) (quote model.Quote, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".QuoteStay")
	defer scope.End()
	defer scope.TraceIfError(err)

	snapshot, err := s.policies.Policy(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load rate policy")

		return quote, fmt.Errorf("failed to load rate policy: %w", err)
	}

	roomType, err := s.roomTypes.Get(ctx, shared.FilterByID(roomTypeID, roomTypeModel.FieldID, roomTypeModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room type")

		return quote, fmt.Errorf("failed to get room type: %w", err)
	}

	if roomType.ID == constant.Empty {
		return quote, failure.NotFound("room type not found") // nolint:wrapcheck
	}

	quote, err = engine.Quote(snapshot, engine.Input{
		RoomTypeID:   roomType.ID,
		RoomTypeName: roomType.Name,
		BaseRate:     roomType.BaseRate,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		PlanCode:     planCode,
		PromoCode:    promoCode,
		Channel:      channel,
		AccessCode:   accessCode,
	}, s.clock())
	if err != nil {
		return quote, err // nolint:wrapcheck
	}

	return quote, nil
}

func (s *serviceImpl) Quote(ctx context.Context, req dto.QuoteRequest) (res dto.QuoteResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Quote")
	defer scope.End()
	defer scope.TraceIfError(err)

	checkIn, err := time.Parse(constant.StayDateFormat, req.CheckIn)
	if err != nil {
		return res, failure.BadRequestFromString("invalid check_in date") // nolint:wrapcheck
	}

	checkOut, err := time.Parse(constant.StayDateFormat, req.CheckOut)
	if err != nil {
		return res, failure.BadRequestFromString("invalid check_out date") // nolint:wrapcheck
	}

	quote, err := s.QuoteStay(ctx, req.RoomTypeID, checkIn, checkOut, req.Plan, req.Promo, req.Channel, req.AccessCode)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	res.FromModel(quote)

	return res, nil
}
