package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	roomTypeMocks "lodge/internal/domains/roomtype/mocks"
	"lodge/internal/domains/roomtype/model"
	"lodge/internal/domains/roomtype/service"
	cacheMocks "lodge/shared/cache/mocks"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
)

func newRoomTypeService(t *testing.T) (service.RoomType, *roomTypeMocks.MockRoomType, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := roomTypeMocks.NewMockRoomType(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	svc := service.New(mockRepo, &config.Config{}, mockCache, mocks.NewOtel())

	return svc, mockRepo, mockCache
}

func TestRoomTypeService_Get(t *testing.T) {
	standard := model.RoomType{
		ID:       "rt-std",
		Name:     "Standard",
		Capacity: 2,
		BaseRate: 5000,
	}

	tests := []struct {
		name      string
		setupMock func(repo *roomTypeMocks.MockRoomType, cache *cacheMocks.MockRedisCache)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "cache hit",
			setupMock: func(repo *roomTypeMocks.MockRoomType, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "cache miss, found in db",
			setupMock: func(repo *roomTypeMocks.MockRoomType, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(standard, nil)

				cache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "cache miss, not found",
			setupMock: func(repo *roomTypeMocks.MockRoomType, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.RoomType{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockCache := newRoomTypeService(t)
			tt.setupMock(mockRepo, mockCache)

			_, err := svc.Get(context.Background(), "rt-std")

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

func TestRoomTypeService_GetAll(t *testing.T) {
	t.Run("cache miss lists from repository", func(t *testing.T) {
		svc, mockRepo, mockCache := newRoomTypeService(t)

		mockCache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("cache miss")).
			Times(2) // list and count keys

		mockRepo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(2, nil)

		mockRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.RoomType{
				{ID: "rt-std", Name: "Standard", BaseRate: 5000},
				{ID: "rt-dlx", Name: "Deluxe", BaseRate: 8000},
			}, nil)

		mockCache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		res, err := svc.GetAll(context.Background(), gDto.QueryParams{Limit: 10}, gDto.FilterGroup{})

		require.NoError(t, err)
		assert.Len(t, res.RoomTypes, 2)
		assert.Equal(t, 2, res.TotalData)
	})
}
