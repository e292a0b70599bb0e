package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	rateMocks "lodge/internal/domains/rate/mocks"
	"lodge/internal/domains/rate/model"
	"lodge/internal/domains/rate/model/dto"
	"lodge/internal/domains/rate/service"
	roomTypeMocks "lodge/internal/domains/roomtype/mocks"
	roomTypeModel "lodge/internal/domains/roomtype/model"
	"lodge/shared/failure"
)

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()

	return func() time.Time {
		return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	}
}

func newRateService(t *testing.T) (service.Rate, *roomTypeMocks.MockRoomType, *rateMocks.MockProvider) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRoomTypes := roomTypeMocks.NewMockRoomType(ctrl)
	mockPolicies := rateMocks.NewMockProvider(ctrl)

	svc := service.New(mockRoomTypes, mockPolicies, &config.Config{}, mocks.NewOtel(), fixedClock(t))

	return svc, mockRoomTypes, mockPolicies
}

func simplePolicy() *model.Policy {
	return &model.Policy{
		DefaultPlan: "BAR",
		Plans:       []model.Plan{{Code: "BAR", Name: "Best Available Rate", Multiplier: 1}},
	}
}

func TestRateService_Quote(t *testing.T) {
	standard := roomTypeModel.RoomType{
		ID:       "rt-std",
		Name:     "Standard",
		Capacity: 2,
		BaseRate: 5000,
	}

	validReq := dto.QuoteRequest{
		RoomTypeID: "rt-std",
		CheckIn:    "2026-03-09",
		CheckOut:   "2026-03-11",
	}

	tests := []struct {
		name      string
		req       dto.QuoteRequest
		setupMock func(roomTypes *roomTypeMocks.MockRoomType, policies *rateMocks.MockProvider)
		wantErr   bool
		wantCode  int
		wantTotal float64
	}{
		{
			name: "invalid check in date",
			req: dto.QuoteRequest{
				RoomTypeID: "rt-std",
				CheckIn:    "yesterday",
				CheckOut:   "2026-03-11",
			},
			setupMock: func(roomTypes *roomTypeMocks.MockRoomType, policies *rateMocks.MockProvider) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "policy load error",
			req:  validReq,
			setupMock: func(roomTypes *roomTypeMocks.MockRoomType, policies *rateMocks.MockProvider) {
				policies.EXPECT().
					Policy(gomock.Any()).
					Return(nil, errors.New("bucket unreachable"))
			},
			wantErr: true,
		},
		{
			name: "room type not found",
			req:  validReq,
			setupMock: func(roomTypes *roomTypeMocks.MockRoomType, policies *rateMocks.MockProvider) {
				policies.EXPECT().
					Policy(gomock.Any()).
					Return(simplePolicy(), nil)

				roomTypes.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomTypeModel.RoomType{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "prices against the catalog base rate",
			req:  validReq,
			setupMock: func(roomTypes *roomTypeMocks.MockRoomType, policies *rateMocks.MockProvider) {
				policies.EXPECT().
					Policy(gomock.Any()).
					Return(simplePolicy(), nil)

				roomTypes.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(standard, nil)
			},
			wantTotal: 10000,
		},
		{
			name: "engine rejection propagates",
			req: dto.QuoteRequest{
				RoomTypeID: "rt-std",
				CheckIn:    "2026-03-09",
				CheckOut:   "2026-03-11",
				Plan:       "NOPE",
			},
			setupMock: func(roomTypes *roomTypeMocks.MockRoomType, policies *rateMocks.MockProvider) {
				policies.EXPECT().
					Policy(gomock.Any()).
					Return(simplePolicy(), nil)

				roomTypes.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(standard, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRoomTypes, mockPolicies := newRateService(t)
			tt.setupMock(mockRoomTypes, mockPolicies)

			res, err := svc.Quote(context.Background(), tt.req)

			if tt.wantErr {
				require.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.wantTotal, res.Total, 0.001)
			assert.Equal(t, "Standard", res.RoomType.Name)
		})
	}
}

func TestRateService_QuoteStay(t *testing.T) {
	svc, mockRoomTypes, mockPolicies := newRateService(t)

	mockPolicies.EXPECT().
		Policy(gomock.Any()).
		Return(simplePolicy(), nil)

	mockRoomTypes.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(roomTypeModel.RoomType{ID: "rt-std", Name: "Standard", BaseRate: 4500}, nil)

	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 3)

	quote, err := svc.QuoteStay(context.Background(), "rt-std", checkIn, checkOut, "", "", "", "")

	require.NoError(t, err)
	assert.Equal(t, 3, quote.Nights)
	assert.InDelta(t, 13500, quote.Total, 0.001)
	assert.Equal(t, "BAR", quote.PlanCode)
}
