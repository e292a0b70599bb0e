package rate

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lodge/infras/otel"
	"lodge/internal/domains/rate/model/dto"
	"lodge/internal/domains/rate/service"
	"lodge/shared/constant"
	"lodge/shared/validator"
	"lodge/transport/http/response"
)

type Handler struct {
	service service.Rate
	otel    otel.Otel
}

func New(service service.Rate, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/rates", func(routerGroup chi.Router) {
		routerGroup.Get("/quote", handler.Quote)
	})
}

// Quote prices a stay without committing inventory.
// @Summary Quote a stay
// @Description Price a stay against the layered rate policy: plan multiplier, day-of-week factors, stacked seasons, then promotion, rounded per night. Ineligible promotions degrade to warnings; blackouts reject the quote.
// @Tags Rate
// @Accept json
// @Produce json
// @Param room_type_id query string true "Room type ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Param plan query string false "Rate plan code, defaults to the policy's default plan"
// @Param promo query string false "Promotion code"
// @Param channel query string false "Sales channel (direct, web, agency, walkin)"
// @Param access_code query string false "Access code for restricted plans"
// @Success 200 {object} response.Data[dto.QuoteResponse] "Priced quote"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Stay hits a blackout window"
// @Failure 422 {object} response.Error "Rate policy violation"
// @Failure 500 {object} response.Error
// @Router /v1/rates/quote [get]
func (handler *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Quote")
	defer scope.End()

	query := r.URL.Query()

	req := dto.QuoteRequest{
		RoomTypeID: query.Get("room_type_id"),
		CheckIn:    query.Get("check_in"),
		CheckOut:   query.Get("check_out"),
		Plan:       query.Get("plan"),
		Promo:      query.Get("promo"),
		Channel:    query.Get("channel"),
		AccessCode: query.Get("access_code"),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate quote query")

		response.WithError(w, err)

		return
	}

	quote, err := handler.service.Quote(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to quote stay")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Stay quoted successfully")

	response.WithJSON(w, http.StatusOK, quote)
}
