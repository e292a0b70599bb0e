package dto

import (
	"lodge/internal/domains/rate/model"
	"lodge/shared/constant"
)

type QuoteRequest struct {
	RoomTypeID string `json:"room_type_id" validate:"required,uuid"`
	CheckIn    string `json:"check_in"     validate:"required,staydate"`
	CheckOut   string `json:"check_out"    validate:"required,staydate"`
	Plan       string `json:"plan"         validate:"omitempty,max=50"`
	Promo      string `json:"promo"        validate:"omitempty,max=50"`
	Channel    string `json:"channel"      validate:"omitempty,oneof=direct web agency walkin"`
	AccessCode string `json:"access_code"  validate:"omitempty,max=50"`
}

type RoomTypeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlanRef struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

type NightlyRate struct {
	Date        string             `json:"date"`
	Rate        float64            `json:"rate"`
	Adjustments []model.Adjustment `json:"adjustments"`
}

type LeadTimeRestriction struct {
	MinDays    int `json:"min_days"`
	MaxDays    int `json:"max_days"`
	ActualDays int `json:"actual_days"`
}

type Restrictions struct {
	MinNights int                 `json:"min_nights"`
	MaxNights int                 `json:"max_nights"`
	LeadTime  LeadTimeRestriction `json:"lead_time"`
}

type QuoteResponse struct {
	RoomType       RoomTypeRef         `json:"room_type"`
	CheckIn        string              `json:"check_in"`
	CheckOut       string              `json:"check_out"`
	Nights         int                 `json:"nights"`
	Channel        string              `json:"channel"`
	Plan           PlanRef             `json:"plan"`
	BaseRate       float64             `json:"base_rate"`
	Nightly        []NightlyRate       `json:"nightly"`
	Total          float64             `json:"total"`
	MinimumDeposit float64             `json:"minimum_deposit"`
	AppliedPromo   *model.AppliedPromo `json:"applied_promo"`
	Restrictions   Restrictions        `json:"restrictions"`
	Warnings       []string            `json:"warnings"`
}

func (r *QuoteResponse) FromModel(quote model.Quote) {
	r.RoomType = RoomTypeRef{ID: quote.RoomTypeID, Name: quote.RoomTypeName}
	r.CheckIn = quote.CheckIn.Format(constant.StayDateFormat)
	r.CheckOut = quote.CheckOut.Format(constant.StayDateFormat)
	r.Nights = quote.Nights
	r.Channel = quote.Channel
	r.Plan = PlanRef{Code: quote.PlanCode, Name: quote.PlanName, Multiplier: quote.PlanMultiplier}
	r.BaseRate = quote.BaseRate
	r.Total = quote.Total
	r.MinimumDeposit = quote.Deposit
	r.AppliedPromo = quote.AppliedPromo
	r.Restrictions = Restrictions{
		MinNights: quote.MinNights,
		MaxNights: quote.MaxNights,
		LeadTime: LeadTimeRestriction{
			MinDays:    quote.LeadTimeMin,
			MaxDays:    quote.LeadTimeMax,
			ActualDays: quote.LeadDays,
		},
	}
	r.Warnings = quote.Warnings

	r.Nightly = make([]NightlyRate, len(quote.Nightly))
	for i, night := range quote.Nightly {
		r.Nightly[i] = NightlyRate{
			Date:        night.Date.Format(constant.StayDateFormat),
			Rate:        night.Rate,
			Adjustments: night.Adjustments,
		}
	}
}
