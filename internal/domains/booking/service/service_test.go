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
	kafkaMocks "lodge/infras/kafka/mocks"
	"lodge/infras/otel/mocks"
	bookingMocks "lodge/internal/domains/booking/mocks"
	"lodge/internal/domains/booking/model"
	"lodge/internal/domains/booking/model/dto"
	"lodge/internal/domains/booking/service"
	rateMocks "lodge/internal/domains/rate/mocks"
	rateModel "lodge/internal/domains/rate/model"
	roomMocks "lodge/internal/domains/room/mocks"
	roomModel "lodge/internal/domains/room/model"
	roomRepo "lodge/internal/domains/room/repository"
	cacheMocks "lodge/shared/cache/mocks"
	"lodge/shared/failure"
)

type bookingServiceMocks struct {
	repo     *bookingMocks.MockBooking
	roomRepo *roomMocks.MockRoom
	rates    *rateMocks.MockRate
	kafka    *kafkaMocks.MockClient
	cache    *cacheMocks.MockRedisCache
}

func newBookingService(t *testing.T) (service.Booking, bookingServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := bookingServiceMocks{
		repo:     bookingMocks.NewMockBooking(ctrl),
		roomRepo: roomMocks.NewMockRoom(ctrl),
		rates:    rateMocks.NewMockRate(ctrl),
		kafka:    kafkaMocks.NewMockClient(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}

	svc := service.New(m.repo, m.roomRepo, m.rates, m.kafka, cfg, m.cache, mocks.NewOtel())

	return svc, m
}

func testQuote(checkIn, checkOut time.Time) rateModel.Quote {
	return rateModel.Quote{
		RoomTypeID: "rt-std",
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Nights:     int(checkOut.Sub(checkIn).Hours() / 24),
		PlanCode:   "BAR",
		BaseRate:   5000,
		Total:      10000,
		Deposit:    1000,
	}
}

func TestBookingService_Create(t *testing.T) {
	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	validRoom := roomModel.Room{
		ID:         "room-101",
		RoomNumber: "101",
		RoomTypeID: "rt-std",
		Status:     roomModel.StatusAvailable,
	}

	validReq := dto.CreateBookingRequest{
		RoomID:    "room-101",
		GuestName: "Ayu Lestari",
		CheckIn:   "2026-03-09",
		CheckOut:  "2026-03-11",
	}

	blocking := model.Booking{
		ID:           "existing-1",
		RoomID:       "room-101",
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Status:       model.StatusConfirmed,
	}

	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func(m bookingServiceMocks)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "unparseable stay dates",
			req: dto.CreateBookingRequest{
				RoomID:    "room-101",
				GuestName: "Ayu Lestari",
				CheckIn:   "not-a-date",
				CheckOut:  "2026-03-11",
			},
			setupMock: func(m bookingServiceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "room not found",
			req:  validReq,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(roomModel.Room{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "rate policy rejection short circuits",
			req:  validReq,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRoom, nil)

				m.rates.EXPECT().
					QuoteStay(gomock.Any(), "rt-std", checkIn, checkOut, "", "", "", "").
					Return(rateModel.Quote{}, failure.UnprocessableEntity("minimum lead time not met", nil))
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "conflicting commitments reject with suggestions",
			req:  validReq,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRoom, nil)

				m.rates.EXPECT().
					QuoteStay(gomock.Any(), "rt-std", checkIn, checkOut, "", "", "", "").
					Return(testQuote(checkIn, checkOut), nil)

				m.repo.EXPECT().
					FindConflicts(gomock.Any(), "room-101", checkIn, checkOut, "").
					Return([]model.Booking{blocking}, nil)

				m.roomRepo.EXPECT().
					FindFree(gomock.Any(), gomock.Any()).
					Return([]roomModel.FreeRoom{
						{ID: "room-102", RoomNumber: "102", RoomTypeID: "rt-std", BaseRate: 5000},
					}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "conflict check error",
			req:  validReq,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRoom, nil)

				m.rates.EXPECT().
					QuoteStay(gomock.Any(), "rt-std", checkIn, checkOut, "", "", "", "").
					Return(testQuote(checkIn, checkOut), nil)

				m.repo.EXPECT().
					FindConflicts(gomock.Any(), "room-101", checkIn, checkOut, "").
					Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
		{
			name: "transaction begin error",
			req:  validReq,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(validRoom, nil)

				m.rates.EXPECT().
					QuoteStay(gomock.Any(), "rt-std", checkIn, checkOut, "", "", "", "").
					Return(testQuote(checkIn, checkOut), nil)

				m.repo.EXPECT().
					FindConflicts(gomock.Any(), "room-101", checkIn, checkOut, "").
					Return(nil, nil)

				m.repo.EXPECT().
					BeginTx(gomock.Any()).
					Return(nil, errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookingService(t)
			tt.setupMock(m)

			ctx := context.Background()
			_, err := svc.Create(ctx, tt.req)

			if !tt.wantErr {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			}
		})
	}
}

func TestBookingService_Create_ConflictDetails(t *testing.T) {
	svc, m := newBookingService(t)

	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	room := roomModel.Room{ID: "room-101", RoomTypeID: "rt-std"}

	m.roomRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(room, nil)

	m.rates.EXPECT().
		QuoteStay(gomock.Any(), "rt-std", checkIn, checkOut, "", "", "", "").
		Return(testQuote(checkIn, checkOut), nil)

	m.repo.EXPECT().
		FindConflicts(gomock.Any(), "room-101", checkIn, checkOut, "").
		Return([]model.Booking{
			{ID: "existing-1", CheckInDate: checkIn, CheckOutDate: checkOut, Status: model.StatusConfirmed},
		}, nil)

	// Suggestions come from the same room type, never the conflicted room.
	m.roomRepo.EXPECT().
		FindFree(gomock.Any(), roomRepo.FreeQuery{
			RoomTypeID:    "rt-std",
			CheckIn:       checkIn,
			CheckOut:      checkOut,
			ExcludeRoomID: "room-101",
			Limit:         10,
		}).
		Return([]roomModel.FreeRoom{
			{ID: "room-102", RoomNumber: "102", RoomTypeID: "rt-std", BaseRate: 5000},
			{ID: "room-103", RoomNumber: "103", RoomTypeID: "rt-std", BaseRate: 5000},
		}, nil)

	_, err := svc.Create(context.Background(), dto.CreateBookingRequest{
		RoomID:    "room-101",
		GuestName: "Ayu Lestari",
		CheckIn:   "2026-03-09",
		CheckOut:  "2026-03-11",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))

	details, ok := failure.GetDetails(err).(dto.ConflictDetails)
	require.True(t, ok)
	assert.Len(t, details.Conflicts, 1)
	assert.Equal(t, "existing-1", details.Conflicts[0].BookingID)
	assert.Len(t, details.Suggestions, 2)
	assert.Equal(t, "102", details.Suggestions[0].RoomNumber)
}

func TestBookingService_AllocateGroup(t *testing.T) {
	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	validReq := dto.AllocateGroupRequest{
		RoomTypeID: "rt-std",
		GroupName:  "Garuda Offsite",
		Quantity:   3,
		GuestName:  "Ayu Lestari",
		CheckIn:    "2026-03-09",
		CheckOut:   "2026-03-11",
	}

	tests := []struct {
		name      string
		req       dto.AllocateGroupRequest
		setupMock func(m bookingServiceMocks)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "unparseable stay dates",
			req: dto.AllocateGroupRequest{
				RoomTypeID: "rt-std",
				GroupName:  "Garuda Offsite",
				Quantity:   3,
				CheckIn:    "2026-03-09",
				CheckOut:   "soon",
			},
			setupMock: func(m bookingServiceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "rate policy rejection short circuits",
			req:  validReq,
			setupMock: func(m bookingServiceMocks) {
				m.rates.EXPECT().
					QuoteStay(gomock.Any(), "rt-std", checkIn, checkOut, "", "", "", "").
					Return(rateModel.Quote{}, failure.ConflictWithDetails("requested stay intersects blackout period", nil))
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "transaction begin error",
			req:  validReq,
			setupMock: func(m bookingServiceMocks) {
				m.rates.EXPECT().
					QuoteStay(gomock.Any(), "rt-std", checkIn, checkOut, "", "", "", "").
					Return(testQuote(checkIn, checkOut), nil)

				m.repo.EXPECT().
					BeginTx(gomock.Any()).
					Return(nil, errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookingService(t)
			tt.setupMock(m)

			_, err := svc.AllocateGroup(context.Background(), tt.req)

			if !tt.wantErr {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			}
		})
	}
}

func TestBookingService_CheckAvailability(t *testing.T) {
	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	tests := []struct {
		name          string
		checkIn       time.Time
		checkOut      time.Time
		setupMock     func(m bookingServiceMocks)
		wantErr       bool
		wantCode      int
		wantAvailable bool
		wantConflicts int
	}{
		{
			name:      "inverted interval",
			checkIn:   checkOut,
			checkOut:  checkIn,
			setupMock: func(m bookingServiceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:     "room not found",
			checkIn:  checkIn,
			checkOut: checkOut,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "available",
			checkIn:  checkIn,
			checkOut: checkOut,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				m.repo.EXPECT().
					FindConflicts(gomock.Any(), "room-101", checkIn, checkOut, "").
					Return(nil, nil)
			},
			wantAvailable: true,
		},
		{
			name:     "blocked by existing commitments",
			checkIn:  checkIn,
			checkOut: checkOut,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				m.repo.EXPECT().
					FindConflicts(gomock.Any(), "room-101", checkIn, checkOut, "").
					Return([]model.Booking{
						{ID: "existing-1", CheckInDate: checkIn, CheckOutDate: checkOut, Status: model.StatusHeld},
					}, nil)
			},
			wantAvailable: false,
			wantConflicts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookingService(t)
			tt.setupMock(m)

			res, err := svc.CheckAvailability(context.Background(), "room-101", tt.checkIn, tt.checkOut, "")

			if tt.wantErr {
				require.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, res.Available)
			assert.Len(t, res.Conflicts, tt.wantConflicts)
		})
	}
}

func TestBookingService_Get(t *testing.T) {
	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	booking := model.Booking{
		ID:           "booking-1",
		RoomID:       "room-101",
		GuestName:    "Ayu Lestari",
		CheckInDate:  checkIn,
		CheckOutDate: checkIn.AddDate(0, 0, 2),
		Status:       model.StatusConfirmed,
	}

	tests := []struct {
		name      string
		setupMock func(m bookingServiceMocks)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "cache hit",
			setupMock: func(m bookingServiceMocks) {
				m.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "cache miss, found in db",
			setupMock: func(m bookingServiceMocks) {
				m.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(booking, nil)

				m.cache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "cache miss, not found",
			setupMock: func(m bookingServiceMocks) {
				m.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookingService(t)
			tt.setupMock(m)

			_, err := svc.Get(context.Background(), "booking-1")

			if tt.wantErr {
				require.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestBookingService_UpdateStatus(t *testing.T) {
	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	confirmed := model.Booking{
		ID:           "booking-1",
		RoomID:       "room-101",
		CheckInDate:  checkIn,
		CheckOutDate: checkIn.AddDate(0, 0, 2),
		Status:       model.StatusConfirmed,
	}

	tests := []struct {
		name       string
		req        dto.UpdateStatusRequest
		setupMock  func(m bookingServiceMocks)
		wantErr    bool
		wantCode   int
		wantStatus string
	}{
		{
			name:      "unrecognized status",
			req:       dto.UpdateStatusRequest{Status: "limbo"},
			setupMock: func(m bookingServiceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "booking not found",
			req:  dto.UpdateStatusRequest{Status: "active"},
			setupMock: func(m bookingServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "backward transition rejected",
			req:  dto.UpdateStatusRequest{Status: "held"},
			setupMock: func(m bookingServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(confirmed, nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "check in maps onto active",
			req:  dto.UpdateStatusRequest{Status: "Checked-In"},
			setupMock: func(m bookingServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(confirmed, nil)

				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				m.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantStatus: model.StatusActive,
		},
		{
			name: "cancellation maps onto released",
			req:  dto.UpdateStatusRequest{Status: "cancelled"},
			setupMock: func(m bookingServiceMocks) {
				m.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(confirmed, nil)

				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				m.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantStatus: model.StatusReleased,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookingService(t)
			tt.setupMock(m)

			res, err := svc.UpdateStatus(context.Background(), "booking-1", tt.req)

			if tt.wantErr {
				require.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
		})
	}
}

func TestBookingService_Timeline(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	tests := []struct {
		name      string
		from      time.Time
		to        time.Time
		setupMock func(m bookingServiceMocks)
		wantErr   bool
		wantCode  int
		wantLen   int
	}{
		{
			name:      "inverted window",
			from:      to,
			to:        from,
			setupMock: func(m bookingServiceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "room not found",
			from: from,
			to:   to,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "ordered commitments returned",
			from: from,
			to:   to,
			setupMock: func(m bookingServiceMocks) {
				m.roomRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				m.repo.EXPECT().
					Timeline(gomock.Any(), "room-101", from, to).
					Return([]model.Booking{
						{ID: "b1", CheckInDate: from.AddDate(0, 0, 2), CheckOutDate: from.AddDate(0, 0, 4), Status: model.StatusConfirmed},
						{ID: "b2", CheckInDate: from.AddDate(0, 0, 10), CheckOutDate: from.AddDate(0, 0, 12), Status: model.StatusHeld},
					}, nil)
			},
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newBookingService(t)
			tt.setupMock(m)

			res, err := svc.Timeline(context.Background(), "room-101", tt.from, tt.to)

			if tt.wantErr {
				require.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			require.NoError(t, err)
			assert.Len(t, res.Bookings, tt.wantLen)
		})
	}
}

func TestBookingService_SuggestAlternatives(t *testing.T) {
	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	t.Run("inverted interval", func(t *testing.T) {
		svc, _ := newBookingService(t)

		_, err := svc.SuggestAlternatives(context.Background(), roomRepo.FreeQuery{
			CheckIn:  checkOut,
			CheckOut: checkIn,
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("defaults the limit", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.roomRepo.EXPECT().
			FindFree(gomock.Any(), roomRepo.FreeQuery{
				RoomTypeID: "rt-std",
				CheckIn:    checkIn,
				CheckOut:   checkOut,
				Limit:      10,
			}).
			Return([]roomModel.FreeRoom{
				{ID: "room-102", RoomNumber: "102", RoomTypeID: "rt-std", BaseRate: 5000},
			}, nil)

		res, err := svc.SuggestAlternatives(context.Background(), roomRepo.FreeQuery{
			RoomTypeID: "rt-std",
			CheckIn:    checkIn,
			CheckOut:   checkOut,
		})

		require.NoError(t, err)
		assert.Len(t, res.FreeRooms, 1)
	})

	t.Run("caps oversized limits", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.roomRepo.EXPECT().
			FindFree(gomock.Any(), roomRepo.FreeQuery{
				RoomTypeID: "rt-std",
				CheckIn:    checkIn,
				CheckOut:   checkOut,
				Limit:      50,
			}).
			Return(nil, nil)

		_, err := svc.SuggestAlternatives(context.Background(), roomRepo.FreeQuery{
			RoomTypeID: "rt-std",
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Limit:      500,
		})

		require.NoError(t, err)
	})
}
