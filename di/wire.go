//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"lodge/config"
	"lodge/infras/jwt"
	"lodge/infras/kafka"
	"lodge/infras/otel"
	"lodge/infras/postgres"
	"lodge/infras/redis"
	"lodge/infras/s3"
	"lodge/internal/domains/rate/engine"
	"lodge/internal/domains/rate/policy"
	"lodge/internal/reconciler"
	"lodge/permissions"
	"lodge/shared/cache"
	"lodge/shared/timezone"
	"lodge/transport/http"
	"lodge/transport/http/middleware"
	"lodge/transport/http/router"

	bookingRepository "lodge/internal/domains/booking/repository"
	bookingService "lodge/internal/domains/booking/service"
	rateService "lodge/internal/domains/rate/service"
	roomRepository "lodge/internal/domains/room/repository"
	roomService "lodge/internal/domains/room/service"
	roomTypeRepository "lodge/internal/domains/roomtype/repository"
	roomTypeService "lodge/internal/domains/roomtype/service"
	bookingHandler "lodge/internal/handlers/booking"
	rateHandler "lodge/internal/handlers/rate"
	roomHandler "lodge/internal/handlers/room"
	roomTypeHandler "lodge/internal/handlers/roomtype"
)

func provideClock() engine.Clock {
	return timezone.Now
}

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var roomTypeDomain = wire.NewSet(
	roomTypeRepository.New,
	roomTypeService.New,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var rateDomain = wire.NewSet(
	policy.New,
	provideClock,
	rateService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var domains = wire.NewSet(
	roomTypeDomain,
	roomDomain,
	rateDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	roomTypeHandler.New,
	roomHandler.New,
	rateHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		reconciler.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
