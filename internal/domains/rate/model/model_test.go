package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge/internal/domains/rate/model"
	"lodge/shared/constant"
)

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()

	parsed, err := time.Parse(constant.StayDateFormat, raw)
	require.NoError(t, err)

	return parsed
}

func TestStayDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantZero bool
		wantErr  bool
	}{
		{name: "valid date", raw: `"2026-07-01"`},
		{name: "empty string means open ended", raw: `""`, wantZero: true},
		{name: "not a string", raw: `20260701`, wantErr: true},
		{name: "bad format", raw: `"01/07/2026"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d model.StayDate
			err := json.Unmarshal([]byte(tt.raw), &d)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantZero, d.IsZero())
		})
	}
}

func TestStayDate_MarshalRoundTrip(t *testing.T) {
	d := model.StayDate{Time: mustDate(t, "2026-11-20")}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-11-20"`, string(data))

	empty, err := json.Marshal(model.StayDate{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(empty))
}

func TestRoomTypeScope_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.RoomTypeScope
	}{
		{name: "literal ALL clears the scope", raw: `"ALL"`, want: nil},
		{name: "lowercase all clears the scope", raw: `"all"`, want: nil},
		{name: "empty string clears the scope", raw: `""`, want: nil},
		{name: "single id", raw: `"rt-deluxe"`, want: model.RoomTypeScope{"rt-deluxe"}},
		{name: "list of ids", raw: `["rt-std", "rt-deluxe"]`, want: model.RoomTypeScope{"rt-std", "rt-deluxe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var scope model.RoomTypeScope
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &scope))
			assert.Equal(t, tt.want, scope)
		})
	}

	t.Run("rejects objects", func(t *testing.T) {
		var scope model.RoomTypeScope
		assert.Error(t, json.Unmarshal([]byte(`{"id": "rt-std"}`), &scope))
	})
}

func TestRoomTypeScope_Matches(t *testing.T) {
	assert.True(t, model.RoomTypeScope(nil).Matches("rt-anything"))
	assert.True(t, model.RoomTypeScope{"rt-std"}.Matches("rt-std"))
	assert.False(t, model.RoomTypeScope{"rt-std"}.Matches("rt-deluxe"))
}

func TestWithin(t *testing.T) {
	from := model.StayDate{Time: mustDate(t, "2026-07-01")}
	to := model.StayDate{Time: mustDate(t, "2026-08-31")}

	tests := []struct {
		name string
		date string
		from model.StayDate
		to   model.StayDate
		want bool
	}{
		{name: "inside window", date: "2026-07-15", from: from, to: to, want: true},
		{name: "start is inclusive", date: "2026-07-01", from: from, to: to, want: true},
		{name: "end is inclusive", date: "2026-08-31", from: from, to: to, want: true},
		{name: "before window", date: "2026-06-30", from: from, to: to, want: false},
		{name: "after window", date: "2026-09-01", from: from, to: to, want: false},
		{name: "open start", date: "2020-01-01", to: to, want: true},
		{name: "open end", date: "2030-01-01", from: from, want: true},
		{name: "fully open", date: "2030-01-01", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Within(mustDate(t, tt.date), tt.from, tt.to))
		})
	}
}

func TestPolicy_Lookups(t *testing.T) {
	policy := model.Policy{
		Plans:  []model.Plan{{Code: "BAR"}, {Code: "CORP"}},
		Promos: []model.Promo{{Code: "WELCOME10"}},
	}

	assert.NotNil(t, policy.FindPlan("corp"))
	assert.Nil(t, policy.FindPlan("NOPE"))
	assert.NotNil(t, policy.FindPromo("welcome10"))
	assert.Nil(t, policy.FindPromo(""))
	assert.Nil(t, policy.FindPromo("EXPIRED"))
}

func TestPlan_AllowsChannel(t *testing.T) {
	open := model.Plan{Code: "BAR"}
	assert.True(t, open.AllowsChannel("web"))

	restricted := model.Plan{Code: "CORP", Channels: []string{"direct", "agency"}}
	assert.True(t, restricted.AllowsChannel("DIRECT"))
	assert.False(t, restricted.AllowsChannel("web"))
}
