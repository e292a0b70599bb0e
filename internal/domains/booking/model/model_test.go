package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lodge/internal/domains/booking/model"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "held", want: model.StatusHeld, wantOK: true},
		{raw: "HOLD", want: model.StatusHeld, wantOK: true},
		{raw: "Pending", want: model.StatusHeld, wantOK: true},
		{raw: "confirmed", want: model.StatusConfirmed, wantOK: true},
		{raw: "BOOKED", want: model.StatusConfirmed, wantOK: true},
		{raw: "active", want: model.StatusActive, wantOK: true},
		{raw: "Checked-In", want: model.StatusActive, wantOK: true},
		{raw: "checked_in", want: model.StatusActive, wantOK: true},
		{raw: "released", want: model.StatusReleased, wantOK: true},
		{raw: "cancelled", want: model.StatusReleased, wantOK: true},
		{raw: "canceled", want: model.StatusReleased, wantOK: true},
		{raw: "Checked Out", want: model.StatusReleased, wantOK: true},
		{raw: "  confirmed  ", want: model.StatusConfirmed, wantOK: true},
		{raw: "unknown", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := model.NormalizeStatus(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{name: "held to confirmed", from: model.StatusHeld, to: model.StatusConfirmed, want: true},
		{name: "held to active", from: model.StatusHeld, to: model.StatusActive, want: true},
		{name: "held to released", from: model.StatusHeld, to: model.StatusReleased, want: true},
		{name: "confirmed to active", from: model.StatusConfirmed, to: model.StatusActive, want: true},
		{name: "active to released", from: model.StatusActive, to: model.StatusReleased, want: true},
		{name: "confirmed back to held", from: model.StatusConfirmed, to: model.StatusHeld, want: false},
		{name: "active back to confirmed", from: model.StatusActive, to: model.StatusConfirmed, want: false},
		{name: "released is terminal", from: model.StatusReleased, to: model.StatusHeld, want: false},
		{name: "no self transition", from: model.StatusConfirmed, to: model.StatusConfirmed, want: false},
		{name: "unknown source", from: "limbo", to: model.StatusConfirmed, want: false},
		{name: "unknown target", from: model.StatusHeld, to: "limbo", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.CanTransition(tt.from, tt.to))
		})
	}
}

func TestBooking_Blocks(t *testing.T) {
	for _, status := range model.BlockingStatuses {
		b := model.Booking{Status: status}
		assert.True(t, b.Blocks(), status)
	}

	released := model.Booking{Status: model.StatusReleased}
	assert.False(t, released.Blocks())
}

func TestBooking_Nights(t *testing.T) {
	checkIn := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	b := model.Booking{
		CheckInDate:  checkIn,
		CheckOutDate: checkIn.AddDate(0, 0, 3),
	}
	assert.Equal(t, 3, b.Nights())

	oneNight := model.Booking{
		CheckInDate:  checkIn,
		CheckOutDate: checkIn.AddDate(0, 0, 1),
	}
	assert.Equal(t, 1, oneNight.Nights())
}
