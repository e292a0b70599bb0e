package policy_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	s3Mocks "lodge/infras/s3/mocks"
	"lodge/internal/domains/rate/policy"
)

const policyDocument = `{
	"default_plan": "BAR",
	"plans": [
		{"code": "BAR", "name": "Best Available Rate", "multiplier": 1.0},
		{"code": "CORP", "name": "Corporate", "multiplier": 0.9, "channels": ["direct"], "room_type_ids": "ALL"}
	],
	"promos": [
		{"code": "WELCOME10", "type": "percent", "value": 10}
	],
	"day_of_week": {"fri": 1.2, "sat": 1.2},
	"lead_time_rules": {"min_days": 0, "max_days": 365},
	"deposit": {"percent": 10, "rounding_granularity": 100}
}`

func TestProvider_Policy_FromFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	path := filepath.Join(t.TempDir(), "rate_rules.json")
	require.NoError(t, os.WriteFile(path, []byte(policyDocument), 0o600))

	cfg := &config.Config{}
	cfg.RatePolicy.Source = policy.SourceFile
	cfg.RatePolicy.Path = path

	provider := policy.New(cfg, s3Mocks.NewMockS3(ctrl), mocks.NewOtel())

	snapshot, err := provider.Policy(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "BAR", snapshot.DefaultPlan)
	assert.Len(t, snapshot.Plans, 2)
	assert.NotNil(t, snapshot.FindPromo("welcome10"))
	assert.InDelta(t, 1.2, snapshot.DayOfWeek["fri"], 0.001)

	// CORP carries the "ALL" scope, which matches everything.
	corp := snapshot.FindPlan("CORP")
	require.NotNil(t, corp)
	assert.True(t, corp.RoomTypeIDs.Matches("rt-anything"))
}

func TestProvider_Policy_FromS3(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.RatePolicy.Source = policy.SourceS3
	cfg.RatePolicy.S3.Bucket = "lodge-config"
	cfg.RatePolicy.S3.Key = "rate_rules.json"

	// The snapshot is cached, so repeated calls fetch once within the TTL.
	mockS3.EXPECT().
		FetchObject(gomock.Any(), "lodge-config", "rate_rules.json").
		Return([]byte(policyDocument), nil).
		Times(1)

	provider := policy.New(cfg, mockS3, mocks.NewOtel())

	first, err := provider.Policy(context.Background())
	require.NoError(t, err)

	second, err := provider.Policy(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestProvider_Policy_LoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(cfg *config.Config, mockS3 *s3Mocks.MockS3)
	}{
		{
			name: "missing policy file",
			setup: func(cfg *config.Config, mockS3 *s3Mocks.MockS3) {
				cfg.RatePolicy.Source = policy.SourceFile
				cfg.RatePolicy.Path = "/nonexistent/rate_rules.json"
			},
		},
		{
			name: "s3 fetch error",
			setup: func(cfg *config.Config, mockS3 *s3Mocks.MockS3) {
				cfg.RatePolicy.Source = policy.SourceS3

				mockS3.EXPECT().
					FetchObject(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("bucket unreachable"))
			},
		},
		{
			name: "malformed document",
			setup: func(cfg *config.Config, mockS3 *s3Mocks.MockS3) {
				cfg.RatePolicy.Source = policy.SourceS3

				mockS3.EXPECT().
					FetchObject(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]byte(`{"plans": "nope"}`), nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockS3 := s3Mocks.NewMockS3(ctrl)
			cfg := &config.Config{}

			tt.setup(cfg, mockS3)

			provider := policy.New(cfg, mockS3, mocks.NewOtel())

			_, err := provider.Policy(context.Background())
			assert.Error(t, err)
		})
	}
}
